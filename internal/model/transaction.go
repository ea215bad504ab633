// Package model defines the records, requests and reference data shared by
// the valuation packages.
package model

import (
	"strconv"
	"strings"
	"time"
)

// Transaction is a historical sale record. It is read-only to this module.
type Transaction struct {
	AreaName        string    `json:"area_name"`
	PropertyType    string    `json:"property_type"`
	SubType         string    `json:"sub_type,omitempty"`
	Rooms           string    `json:"rooms,omitempty"`
	Price           float64   `json:"price"`
	RawSize         string    `json:"-"`
	Size            float64   `json:"size_sqm"`
	Date            time.Time `json:"date"`
	Project         string    `json:"project,omitempty"`
	OffPlan         string    `json:"is_offplan,omitempty"`
	FreeHold        string    `json:"is_free_hold,omitempty"`
	Usage           string    `json:"usage,omitempty"`
	NearestMetro    string    `json:"nearest_metro,omitempty"`
	NearestMall     string    `json:"nearest_mall,omitempty"`
	NearestLandmark string    `json:"nearest_landmark,omitempty"`
}

// ParseSize converts the stored floor area to a number. The source column
// is free text, so anything that is not a plain decimal is rejected.
func (t *Transaction) ParseSize() bool {
	raw := strings.TrimSpace(t.RawSize)
	if raw == "" {
		return false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v <= 0 {
		return false
	}
	t.Size = v
	return true
}

// PricePerArea returns price divided by size, or 0 when size is unknown.
func (t Transaction) PricePerArea() float64 {
	if t.Size <= 0 {
		return 0
	}
	return t.Price / t.Size
}

// LeaseRecord is a registered lease. It is read-only to this module.
type LeaseRecord struct {
	AreaName     string    `json:"area_name"`
	PropertyType string    `json:"property_type"`
	SubType      string    `json:"sub_type,omitempty"`
	AnnualRent   float64   `json:"annual_rent"`
	Size         float64   `json:"size_sqm"`
	Registered   time.Time `json:"registration_date"`
	Project      string    `json:"project,omitempty"`
}

// RentPerArea returns annual rent divided by size, or 0 when size is unknown.
func (l LeaseRecord) RentPerArea() float64 {
	if l.Size <= 0 {
		return 0
	}
	return l.AnnualRent / l.Size
}
