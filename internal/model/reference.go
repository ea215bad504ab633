package model

// AreaCoordinate is the geospatial reference row for one area. Distances are
// in kilometres; nil means the distance is unknown.
type AreaCoordinate struct {
	AreaName          string   `json:"area_name"`
	Latitude          *float64 `json:"latitude,omitempty"`
	Longitude         *float64 `json:"longitude,omitempty"`
	MetroKM           *float64 `json:"distance_to_metro_km,omitempty"`
	BeachKM           *float64 `json:"distance_to_beach_km,omitempty"`
	MallKM            *float64 `json:"distance_to_mall_km,omitempty"`
	SchoolKM          *float64 `json:"distance_to_school_km,omitempty"`
	BusinessKM        *float64 `json:"distance_to_business_km,omitempty"`
	NeighborhoodScore *float64 `json:"neighborhood_score,omitempty"`
}

// DataPoints counts the non-null premium inputs (five distances and the
// neighborhood score).
func (a AreaCoordinate) DataPoints() int {
	n := 0
	for _, v := range []*float64{a.MetroKM, a.BeachKM, a.MallKM, a.SchoolKM, a.BusinessKM, a.NeighborhoodScore} {
		if v != nil {
			n++
		}
	}
	return n
}

// HasLocation reports whether the area has coordinates.
func (a AreaCoordinate) HasLocation() bool {
	return a.Latitude != nil && a.Longitude != nil
}

// AmenityKind identifies the amenity categories used by the location premium.
type AmenityKind string

const (
	AmenityMetro    AmenityKind = "metro"
	AmenityBeach    AmenityKind = "beach"
	AmenityMall     AmenityKind = "mall"
	AmenitySchool   AmenityKind = "school"
	AmenityBusiness AmenityKind = "business"
)

// Amenity is a point of interest used to backfill unknown area distances.
type Amenity struct {
	Name      string      `json:"name"`
	Kind      AmenityKind `json:"type"`
	Latitude  float64     `json:"latitude"`
	Longitude float64     `json:"longitude"`
}

// Project tiers.
const (
	TierUltraLuxury  = "Ultra-Luxury"
	TierSuperPremium = "Super-Premium"
	TierPremium      = "Premium"
	TierNone         = "none"
)

// ProjectPremium is the reference premium of a named project or brand.
type ProjectPremium struct {
	ProjectName       string  `json:"project_name"`
	PremiumPercentage float64 `json:"premium_percentage"`
	Tier              string  `json:"tier"`
	TransactionCount  int     `json:"transaction_count"`
}
