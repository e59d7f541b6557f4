// Package publish promotes a finished run from the staging reports tree to production,
// either as a directory copy or as objects in an S3-compatible bucket.
package publish
