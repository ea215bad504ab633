package model

// ValuationRequest is the input of a valuation. Optional fields are nil or
// empty when not supplied.
type ValuationRequest struct {
	PropertyType      string  `json:"property_type" validate:"required,notblank,max=100"`
	Area              string  `json:"area" validate:"required,notblank,max=200"`
	Size              float64 `json:"size_sqm" validate:"finite,gt=0,lte=100000"`
	Bedrooms          string  `json:"bedrooms,omitempty" validate:"omitempty,max=20"`
	DevelopmentStatus string  `json:"development_status,omitempty" validate:"omitempty,max=50"`
	FloorLevel        *int    `json:"floor_level,omitempty" validate:"omitempty,gte=-10,lte=500"`
	ViewType          string  `json:"view_type,omitempty" validate:"omitempty,max=100"`
	PropertyAge       *int    `json:"property_age,omitempty" validate:"omitempty,gte=0,lte=500"`
	ProjectName       string  `json:"project_name,omitempty" validate:"omitempty,max=200"`
	MinESGScore       *int    `json:"esg_score_min,omitempty" validate:"omitempty,gte=0,lte=100"`
	MinFlipScore      *int    `json:"flip_score_min,omitempty" validate:"omitempty,gte=0,lte=100"`
}

// ArbitrageRequest is the input of an arbitrage score.
type ArbitrageRequest struct {
	PropertyType string  `json:"property_type" validate:"required,notblank,max=100"`
	Area         string  `json:"area" validate:"required,notblank,max=200"`
	Size         float64 `json:"size_sqm" validate:"finite,gt=0,lte=100000"`
	AskingPrice  float64 `json:"asking_price" validate:"finite,gt=0"`
}

// FlipRequest is the input of a flip score.
type FlipRequest struct {
	PropertyType string  `json:"property_type" validate:"required,notblank,max=100"`
	Area         string  `json:"area" validate:"required,notblank,max=200"`
	Size         float64 `json:"size_sqm" validate:"finite,gt=0,lte=100000"`
	Bedrooms     string  `json:"bedrooms,omitempty" validate:"omitempty,max=20"`
}
