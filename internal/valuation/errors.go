package valuation

import (
	"errors"
	"fmt"
	"strings"
)

// Filters records the search criteria behind a failed request.
type Filters struct {
	PropertyType      string  `json:"property_type"`
	Area              string  `json:"area"`
	Size              float64 `json:"size_sqm,omitempty"`
	Bedrooms          string  `json:"bedrooms,omitempty"`
	DevelopmentStatus string  `json:"development_status,omitempty"`
	MinESGScore       *int    `json:"esg_score_min,omitempty"`
	MinFlipScore      *int    `json:"flip_score_min,omitempty"`
}

func (f Filters) String() string {
	parts := []string{
		"property_type=" + f.PropertyType,
		"area=" + f.Area,
	}
	if f.Bedrooms != "" {
		parts = append(parts, "bedrooms="+f.Bedrooms)
	}
	if f.DevelopmentStatus != "" {
		parts = append(parts, "development_status="+f.DevelopmentStatus)
	}
	if f.MinESGScore != nil {
		parts = append(parts, fmt.Sprintf("esg_score>=%d", *f.MinESGScore))
	}
	if f.MinFlipScore != nil {
		parts = append(parts, fmt.Sprintf("flip_score>=%d", *f.MinFlipScore))
	}
	return strings.Join(parts, ", ")
}

// NoDataError means no evidence was found at any scope.
type NoDataError struct {
	Filters Filters
	Reason  string
}

func (e *NoDataError) Error() string {
	reason := e.Reason
	if reason == "" {
		reason = "no comparable properties found"
	}
	if e.Filters.MinESGScore != nil {
		reason += " with ESG score filter"
	}
	if e.Filters.MinFlipScore != nil {
		reason += " with flip score filter"
	}
	return fmt.Sprintf("valuation: %s (%s)", reason, e.Filters)
}

// DataQualityError means candidates were found but none survived cleaning.
type DataQualityError struct {
	Filters Filters
}

func (e *DataQualityError) Error() string {
	return fmt.Sprintf("valuation: no valid comparable properties after cleaning (%s)", e.Filters)
}

// FieldError is one rejected request field.
type FieldError struct {
	Field   string `json:"field"`
	Rule    string `json:"rule"`
	Message string `json:"message"`
}

// InvalidInputError rejects a request before any search runs.
type InvalidInputError struct {
	Fields []FieldError
}

func (e *InvalidInputError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Message
	}
	return "valuation: invalid input: " + strings.Join(msgs, "; ")
}

// IsNoData reports whether err is a NoDataError or a DataQualityError.
func IsNoData(err error) bool {
	var nd *NoDataError
	var dq *DataQualityError
	return errors.As(err, &nd) || errors.As(err, &dq)
}

// IsInvalidInput reports whether err is an InvalidInputError.
func IsInvalidInput(err error) bool {
	var ie *InvalidInputError
	return errors.As(err, &ie)
}
