package estimate

// Segment is a price-per-area band.
type Segment struct {
	Key        string `json:"segment"`
	Label      string `json:"label"`
	Percentile int    `json:"percentile"`
}

// Unclassified is returned for missing or implausibly low price-per-area.
var Unclassified = Segment{Key: "unclassified", Label: "Unclassified"}

var segmentBands = []struct {
	below float64
	seg   Segment
}{
	{12_000, Segment{Key: "budget", Label: "Budget", Percentile: 25}},
	{16_200, Segment{Key: "mid", Label: "Mid-Tier", Percentile: 50}},
	{21_800, Segment{Key: "premium", Label: "Premium", Percentile: 75}},
	{28_800, Segment{Key: "luxury", Label: "Luxury", Percentile: 90}},
}

var ultraSegment = Segment{Key: "ultra", Label: "Ultra-Luxury", Percentile: 95}

// ClassifySegment maps price per square metre to a market band. Values
// below 1000 (including zero and negatives) are unclassified.
func ClassifySegment(pricePerArea float64) Segment {
	if !(pricePerArea >= 1000) {
		return Unclassified
	}
	for _, b := range segmentBands {
		if pricePerArea < b.below {
			return b.seg
		}
	}
	return ultraSegment
}
