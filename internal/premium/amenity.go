package premium

import (
	"context"
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/rotisserie/eris"

	"github.com/sells-group/avm-cli/internal/model"
)

// AmenitySource lists active amenities.
type AmenitySource interface {
	ListAmenities(ctx context.Context) ([]model.Amenity, error)
}

// AmenityIndex answers nearest-amenity distances by kind.
type AmenityIndex struct {
	points map[model.AmenityKind][]orb.Point
}

// NewAmenityIndex indexes the given amenities.
func NewAmenityIndex(amenities []model.Amenity) *AmenityIndex {
	idx := &AmenityIndex{points: make(map[model.AmenityKind][]orb.Point)}
	for _, a := range amenities {
		idx.points[a.Kind] = append(idx.points[a.Kind], orb.Point{a.Longitude, a.Latitude})
	}
	return idx
}

// LoadAmenityIndex builds an index from src.
func LoadAmenityIndex(ctx context.Context, src AmenitySource) (*AmenityIndex, error) {
	amenities, err := src.ListAmenities(ctx)
	if err != nil {
		return nil, eris.Wrap(err, "premium: load amenities")
	}
	return NewAmenityIndex(amenities), nil
}

// Len returns the number of indexed amenities.
func (idx *AmenityIndex) Len() int {
	n := 0
	for _, pts := range idx.points {
		n += len(pts)
	}
	return n
}

// NearestKM returns the great-circle distance in km from (lat, lng) to the
// closest amenity of kind, rounded to two decimals.
func (idx *AmenityIndex) NearestKM(kind model.AmenityKind, lat, lng float64) (float64, bool) {
	pts := idx.points[kind]
	if len(pts) == 0 {
		return 0, false
	}
	from := orb.Point{lng, lat}
	best := math.Inf(1)
	for _, p := range pts {
		best = math.Min(best, geo.DistanceHaversine(from, p))
	}
	return round2(best / 1000), true
}

// Backfill sets unknown distances on a from the nearest amenity of each
// kind. Areas without coordinates are left unchanged.
func (idx *AmenityIndex) Backfill(a *model.AreaCoordinate) {
	if !a.HasLocation() {
		return
	}
	fields := []struct {
		kind model.AmenityKind
		dst  **float64
	}{
		{model.AmenityMetro, &a.MetroKM},
		{model.AmenityBeach, &a.BeachKM},
		{model.AmenityMall, &a.MallKM},
		{model.AmenitySchool, &a.SchoolKM},
		{model.AmenityBusiness, &a.BusinessKM},
	}
	for _, f := range fields {
		if *f.dst != nil {
			continue
		}
		if km, ok := idx.NearestKM(f.kind, *a.Latitude, *a.Longitude); ok {
			*f.dst = &km
		}
	}
}
