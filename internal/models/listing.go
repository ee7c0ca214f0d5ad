package models

import (
	"time"
)

// GeoJSON represents a GeoJSON Point for MongoDB.
type GeoJSON struct {
	Type        string    `bson:"type" json:"type"`               // Should be "Point"
	Coordinates []float64 `bson:"coordinates" json:"coordinates"` // [longitude, latitude]
}

// NewPoint builds a GeoJSON point from latitude and longitude.
func NewPoint(lat, lon float64) *GeoJSON {
	return &GeoJSON{Type: "Point", Coordinates: []float64{lon, lat}}
}

// LatLon returns the point's latitude and longitude; ok is false for malformed points.
func (g *GeoJSON) LatLon() (lat, lon float64, ok bool) {
	if g == nil || len(g.Coordinates) != 2 {
		return 0, 0, false
	}
	return g.Coordinates[1], g.Coordinates[0], true
}

// Listing is a rentable property. Only the fields the offer flow needs are modelled.
type Listing struct {
	ID           string    `bson:"_id,omitempty" json:"id,omitempty"`
	OwnerID      string    `bson:"owner_id" json:"owner_id"`
	Title        string    `bson:"title" json:"title"`
	Price        float64   `bson:"price" json:"price"` // per month
	CurrencyCode string    `bson:"currency_code" json:"currency_code"`
	Location     *GeoJSON  `bson:"location,omitempty" json:"location,omitempty"`
	UpdatedAt    time.Time `bson:"updated_at" json:"updated_at"`
	CreatedAt    time.Time `bson:"created_at" json:"created_at"`
	Deleted      bool      `bson:"deleted" json:"-"`
}
