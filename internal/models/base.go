package models

import (
	"sublet/rentals/internal/utils"
)

// Base carries the string form of a SixID as the document _id.
type Base struct {
	ID string `bson:"_id,omitempty" json:"id,omitempty"`
}

func (m *Base) GenID() {
	m.ID = utils.NewSixID().String()
}
