package valuation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/avm-cli/internal/model"
)

func TestValidate_ValuationRequest(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(r *model.ValuationRequest)
		field string
		rule  string
	}{
		{"missing type", func(r *model.ValuationRequest) { r.PropertyType = "" }, "property_type", "required"},
		{"blank area", func(r *model.ValuationRequest) { r.Area = "   " }, "area", "notblank"},
		{"zero size", func(r *model.ValuationRequest) { r.Size = 0 }, "size_sqm", "gt"},
		{"negative size", func(r *model.ValuationRequest) { r.Size = -5 }, "size_sqm", "gt"},
		{"nan size", func(r *model.ValuationRequest) { r.Size = math.NaN() }, "size_sqm", "finite"},
		{"infinite size", func(r *model.ValuationRequest) { r.Size = math.Inf(1) }, "size_sqm", "finite"},
		{"huge size", func(r *model.ValuationRequest) { r.Size = 1_000_000 }, "size_sqm", "lte"},
		{"esg out of range", func(r *model.ValuationRequest) { r.MinESGScore = intPtr(101) }, "esg_score_min", "lte"},
		{"negative age", func(r *model.ValuationRequest) { r.PropertyAge = intPtr(-1) }, "property_age", "gte"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := marinaRequest()
			tt.edit(&req)

			err := Validate(req)
			var ie *InvalidInputError
			require.ErrorAs(t, err, &ie)
			require.Len(t, ie.Fields, 1)
			assert.Equal(t, tt.field, ie.Fields[0].Field)
			assert.Equal(t, tt.rule, ie.Fields[0].Rule)
			assert.Contains(t, err.Error(), tt.field)
		})
	}
}

func TestValidate_Accepts(t *testing.T) {
	req := marinaRequest()
	req.FloorLevel = intPtr(12)
	req.PropertyAge = intPtr(0)
	req.MinFlipScore = intPtr(0)
	req.Bedrooms = "Studio"
	assert.NoError(t, Validate(req))

	assert.NoError(t, Validate(model.ArbitrageRequest{PropertyType: "Unit", Area: "JVC", Size: 60, AskingPrice: 700_000}))
	assert.NoError(t, Validate(model.FlipRequest{PropertyType: "Villa", Area: "Arabian Ranches", Size: 300}))
}

func TestValidate_MultipleFields(t *testing.T) {
	err := Validate(model.ArbitrageRequest{})
	var ie *InvalidInputError
	require.ErrorAs(t, err, &ie)
	assert.Len(t, ie.Fields, 4)
}

func TestNoDataError_Message(t *testing.T) {
	err := &NoDataError{Filters: Filters{PropertyType: "Unit", Area: "JVC", Bedrooms: "Studio", MinFlipScore: intPtr(60)}}
	assert.Equal(t,
		"valuation: no comparable properties found with flip score filter (property_type=Unit, area=JVC, bedrooms=Studio, flip_score>=60)",
		err.Error())

	arb := &NoDataError{Filters: Filters{PropertyType: "Unit", Area: "JVC"}, Reason: "insufficient lease data"}
	assert.Equal(t, "valuation: insufficient lease data (property_type=Unit, area=JVC)", arb.Error())
}
