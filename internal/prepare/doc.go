// Package prepare turns the open scene into a submission-ready copy.
//
// Run applies, in order: setting coercion, particle tuning, asset packing,
// linked-data flattening and saving the derived file. It never fails as a
// whole. Problems are recorded as Report flags for the user to read, and only
// an unwritable derived file is returned as an error value inside Result,
// since nothing can be uploaded without it.
package prepare
