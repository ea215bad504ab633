package model

import "strings"

// Bedroom values with special matching rules.
const (
	BedroomsStudio    = "Studio"
	BedroomsSixOrMore = "6"
)

var groundTypes = map[string]bool{
	"villa":     true,
	"townhouse": true,
	"land":      true,
	"plot":      true,
}

// IsGroundLevel reports whether the property type has no meaningful floor
// number (villas, townhouses, land, plots).
func IsGroundLevel(propertyType string) bool {
	return groundTypes[strings.ToLower(strings.TrimSpace(propertyType))]
}

// IsVilla reports whether the property type names a villa of any kind.
func IsVilla(propertyType string) bool {
	return strings.Contains(strings.ToLower(propertyType), "villa")
}

// IsOffPlan reports whether a development status or off-plan flag denotes
// an unfinished property.
func IsOffPlan(status string) bool {
	s := strings.ToLower(strings.TrimSpace(status))
	return s == "off-plan" || s == "off plan" || s == "offplan" || s == "yes"
}

// MatchesArea reports whether a stored area name contains the requested area,
// case-insensitively.
func MatchesArea(stored, requested string) bool {
	req := NormalizeArea(requested)
	if req == "" {
		return false
	}
	return strings.Contains(NormalizeArea(stored), req)
}

// MatchesType reports whether two property types are equal ignoring case.
func MatchesType(stored, requested string) bool {
	return strings.EqualFold(strings.TrimSpace(stored), strings.TrimSpace(requested))
}
