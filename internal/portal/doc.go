// Package portal talks to the content-management portal REST API.
//
// Client authenticates with a generated token and exposes the paged searches
// and per-entity lookups the inventory extractor and governance validator use.
package portal
