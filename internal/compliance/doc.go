// Package compliance checks classified items against the governance rules
// (standard thumbnail, description length, license text) and notifies item
// owners once per violated rule.
package compliance
