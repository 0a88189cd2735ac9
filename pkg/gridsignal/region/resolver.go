package region

import (
	"k8s.io/klog/v2"
)

// Resolver maps geographic points to grid regions using static bounding-box
// tables. Tables are loaded once at construction and are read-only afterward,
// so a single Resolver is safe for unsynchronized concurrent use.
type Resolver struct {
	tables map[Taxonomy][]boundingBox
}

// NewResolver creates a resolver backed by the built-in zone tables
func NewResolver() *Resolver {
	r := &Resolver{
		tables: map[Taxonomy][]boundingBox{
			TaxonomyCarbon: carbonZoneBoxes,
			TaxonomyMarket: marketZoneBoxes,
		},
	}

	klog.V(2).InfoS("Region resolver initialized",
		"carbonZones", len(carbonZoneBoxes),
		"marketZones", len(marketZoneBoxes))

	return r
}

// Resolve returns the first declared region whose bounding box contains the
// point, for the given taxonomy. The boolean is false when the point is
// outside all known boxes. That means "no coverage here", not a failure, and
// callers are expected to fall back to estimated data.
func (r *Resolver) Resolve(p GeoPoint, taxonomy Taxonomy) (*GridRegion, bool) {
	boxes, ok := r.tables[taxonomy]
	if !ok {
		klog.V(2).InfoS("Unknown taxonomy requested", "taxonomy", taxonomy)
		return nil, false
	}

	for _, box := range boxes {
		if box.contains(p) {
			region := box.Region
			klog.V(4).InfoS("Resolved point to region",
				"latitude", p.Latitude,
				"longitude", p.Longitude,
				"taxonomy", taxonomy,
				"region", region.Code)
			return &region, true
		}
	}

	klog.V(3).InfoS("Point outside all known zones",
		"latitude", p.Latitude,
		"longitude", p.Longitude,
		"taxonomy", taxonomy)
	return nil, false
}

// Regions returns all regions known for a taxonomy, in declaration order
func (r *Resolver) Regions(taxonomy Taxonomy) []GridRegion {
	boxes := r.tables[taxonomy]
	regions := make([]GridRegion, 0, len(boxes))
	for _, box := range boxes {
		regions = append(regions, box.Region)
	}
	return regions
}
