package models

import (
	"time"
)

// Favorite marks a listing the user swiped right on.
type Favorite struct {
	Base      `bson:",inline"`
	UserID    string    `bson:"user_id" json:"user_id"`
	ListingID string    `bson:"listing_id" json:"listing_id"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

// FavoriteGroup is a set of favourite listings that fall into the same area.
// Area is nil for the catch-all group of listings that matched no area.
type FavoriteGroup struct {
	Area     *Area     `json:"area,omitempty"`
	Name     string    `json:"name"`
	Listings []Listing `json:"listings"`
}
