// Package pipeline runs the audit stages in their fixed order, skips stages whose prerequisites
// did not succeed, and records the outcome of every stage in a run summary and a metrics textfile.
package pipeline
