package inventory

import "slices"

// ExcludedItemTypes lists item types that are never extracted.
var ExcludedItemTypes = []string{
	"Geoprocessing Service",
	"Service Definition",
	"Code Attachment",
	"Geometry Service",
	"Vector Tile Service",
	"Vector Tile Package",
}

// IsExcludedItemType reports whether items of itemType are left out of items.csv.
func IsExcludedItemType(itemType string) bool {
	return slices.Contains(ExcludedItemTypes, itemType)
}
