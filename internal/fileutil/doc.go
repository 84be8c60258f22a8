// Package fileutil holds the small file helpers shared by the credential
// store, the scene host and the upload path: atomic replacement and
// block-wise MD5 digests.
package fileutil
