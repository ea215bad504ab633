package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// LocationPremium is the six-way location premium breakdown in percent.
type LocationPremium struct {
	Metro        float64 `json:"metro_premium"`
	Beach        float64 `json:"beach_premium"`
	Mall         float64 `json:"mall_premium"`
	School       float64 `json:"school_premium"`
	Business     float64 `json:"business_premium"`
	Neighborhood float64 `json:"neighborhood_premium"`
	Total        float64 `json:"total_premium"`
	Confidence   float64 `json:"confidence"`
}

// CacheKey identifies a location premium cache entry.
type CacheKey struct {
	Area         string
	PropertyType string
	Bedrooms     string
}

// NewCacheKey builds a normalized cache key. Missing bedrooms map to "".
func NewCacheKey(area, propertyType, bedrooms string) CacheKey {
	return CacheKey{
		Area:         NormalizeArea(area),
		PropertyType: strings.TrimSpace(propertyType),
		Bedrooms:     strings.TrimSpace(bedrooms),
	}
}

// LocationCacheEntry is a persisted location premium.
type LocationCacheEntry struct {
	Key          CacheKey        `json:"-"`
	Premium      LocationPremium `json:"premium"`
	CreatedAt    time.Time       `json:"created_at"`
	CacheHits    int             `json:"cache_hits"`
	LastAccessed *time.Time      `json:"last_accessed,omitempty"`
}

// CacheStats summarizes the location premium cache.
type CacheStats struct {
	Entries      int `json:"entries"`
	FreshEntries int `json:"fresh_entries"`
	TotalHits    int `json:"total_hits"`
}

// NormalizeArea trims and case-folds an area name for keyed lookups.
func NormalizeArea(area string) string {
	return cases.Lower(language.Und).String(strings.TrimSpace(area))
}
