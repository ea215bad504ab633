package model

// Segment is the market a price belongs to. The set is closed: Sale and Lease.
type Segment int

const (
	// Sale covers transacted sale prices.
	Sale Segment = iota
	// Lease covers registered annual rents.
	Lease
)

// Bounds are the plausible price range of a segment and the ceiling above
// which a price is counted as an extreme outlier.
type Bounds struct {
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	ExtremeCeiling float64 `json:"extreme_ceiling"`
}

// Bounds returns the fixed price bounds for the segment.
func (s Segment) Bounds() Bounds {
	switch s {
	case Lease:
		return Bounds{Min: 10_000, Max: 2_000_000, ExtremeCeiling: 5_000_000}
	default:
		return Bounds{Min: 100_000, Max: 50_000_000, ExtremeCeiling: 100_000_000}
	}
}

// Table is the relation holding the segment's records.
func (s Segment) Table() string {
	if s == Lease {
		return "leases"
	}
	return "transactions"
}

// PriceColumn is the column holding the segment's price.
func (s Segment) PriceColumn() string {
	if s == Lease {
		return "annual_amount"
	}
	return "trans_value"
}

// DateColumn is the column holding the segment's record date.
func (s Segment) DateColumn() string {
	if s == Lease {
		return "registration_date"
	}
	return "instance_date"
}

func (s Segment) String() string {
	if s == Lease {
		return "lease"
	}
	return "sale"
}
