// Package upload transfers a prepared scene file to the farm's storage
// endpoint as multipart/form-data, with the MD5 digest of exactly the bytes
// sent in the file part.
package upload
