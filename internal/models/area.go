package models

// Area is a named neighbourhood with a representative centre point.
type Area struct {
	ID       string   `bson:"_id,omitempty" json:"id,omitempty"`
	Name     string   `bson:"name" json:"name"`
	City     string   `bson:"city" json:"city"`
	Location *GeoJSON `bson:"location,omitempty" json:"location,omitempty"`
}
