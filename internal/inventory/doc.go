// Package inventory extracts users, groups, and items from the portal and
// writes them as flat CSV record sets.
//
// Records are immutable values built fresh for each portal entity. A failure
// while enriching one entity skips that row and is counted in the Result; a
// failure of a top-level search aborts the extraction.
package inventory
