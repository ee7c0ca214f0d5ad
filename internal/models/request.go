package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RequestStatus is the lifecycle state of a renter's offer.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"
	StatusAccepted RequestStatus = "ACCEPTED"
	StatusRejected RequestStatus = "REJECTED"
	StatusExpired  RequestStatus = "EXPIRED"
)

// Valid reports whether s is one of the known statuses.
func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusRejected, StatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are possible.
func (s RequestStatus) IsTerminal() bool {
	return s == StatusRejected || s == StatusExpired
}

// IsActive reports whether the request still blocks a new offer on the same listing.
func (s RequestStatus) IsActive() bool {
	return s == StatusPending || s == StatusAccepted
}

// CanTransitionTo reports whether moving from s to next is allowed.
// Nothing moves back to PENDING; PENDING is only set on creation.
func (s RequestStatus) CanTransitionTo(next RequestStatus) bool {
	if !next.Valid() {
		return false
	}
	if s == next {
		return true
	}
	switch s {
	case StatusPending:
		return next == StatusAccepted || next == StatusRejected || next == StatusExpired
	case StatusAccepted:
		return next == StatusRejected || next == StatusExpired
	}
	return false
}

// CounterOfferType is derived from the offered amount relative to the listing price.
type CounterOfferType string

const (
	CounterOfferHigher CounterOfferType = "HIGHER"
	CounterOfferLower  CounterOfferType = "LOWER"
)

// CounterOffer is a renter-proposed price that differs from the listing's posted price.
type CounterOffer struct {
	Type   CounterOfferType `bson:"type" json:"type"`
	Amount float64          `bson:"amount" json:"amount"`
	Reason string           `bson:"reason,omitempty" json:"reason,omitempty"`
}

// DateRange holds the renter's preferred stay. Both ends are always set together.
type DateRange struct {
	StartDate time.Time `bson:"start_date" json:"start_date"`
	EndDate   time.Time `bson:"end_date" json:"end_date"`
}

// Validate checks that the range is complete and not inverted.
func (d DateRange) Validate() error {
	if d.StartDate.IsZero() || d.EndDate.IsZero() {
		return errors.New("preferred dates require both start and end")
	}
	if d.EndDate.Before(d.StartDate) {
		return errors.New("preferred end date precedes start date")
	}
	return nil
}

// Request is one renter's offer against one listing.
type Request struct {
	ID             string        `bson:"_id,omitempty" json:"id"`
	ListingID      string        `bson:"listing_id" json:"listing_id"`
	RenterID       string        `bson:"renter_id" json:"renter_id"`
	OwnerID        string        `bson:"owner_id" json:"owner_id"`
	Status         RequestStatus `bson:"status" json:"status"`
	CounterOffer   *CounterOffer `bson:"counter_offer,omitempty" json:"counter_offer,omitempty"`
	PreferredDates *DateRange    `bson:"preferred_dates,omitempty" json:"preferred_dates,omitempty"`
	Message        string        `bson:"message,omitempty" json:"message,omitempty"`
	ChatID         string        `bson:"chat_id,omitempty" json:"chat_id,omitempty"`
	CreatedAt      time.Time     `bson:"created_at" json:"created_at"`
	UpdatedAt      time.Time     `bson:"updated_at" json:"updated_at"`
}

// Clone returns a deep copy so cached entries never share pointers with callers.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	c := *r
	if r.CounterOffer != nil {
		co := *r.CounterOffer
		c.CounterOffer = &co
	}
	if r.PreferredDates != nil {
		pd := *r.PreferredDates
		c.PreferredDates = &pd
	}
	return &c
}

// Validate checks the field-level invariants shared by create and update.
func (r *Request) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return errors.New("request id is required")
	}
	if !r.Status.Valid() {
		return fmt.Errorf("unknown request status %q", r.Status)
	}
	return validateOfferFields(r.CounterOffer, r.PreferredDates)
}

// CreateRequestData is what a renter submits; the service assigns id, status and timestamps.
type CreateRequestData struct {
	ListingID      string        `json:"listing_id"`
	RenterID       string        `json:"renter_id"`
	OwnerID        string        `json:"owner_id"`
	CounterOffer   *CounterOffer `json:"counter_offer,omitempty"`
	PreferredDates *DateRange    `json:"preferred_dates,omitempty"`
	Message        string        `json:"message,omitempty"`
}

// Validate checks the references are present and the optional parts are well formed.
func (d CreateRequestData) Validate() error {
	if strings.TrimSpace(d.ListingID) == "" {
		return errors.New("listing id is required")
	}
	if strings.TrimSpace(d.RenterID) == "" {
		return errors.New("renter id is required")
	}
	if strings.TrimSpace(d.OwnerID) == "" {
		return errors.New("owner id is required")
	}
	return validateOfferFields(d.CounterOffer, d.PreferredDates)
}

func validateOfferFields(co *CounterOffer, dates *DateRange) error {
	if co != nil {
		if co.Amount <= 0 {
			return errors.New("counter offer amount must be positive")
		}
		if co.Type != CounterOfferHigher && co.Type != CounterOfferLower {
			return fmt.Errorf("unknown counter offer type %q", co.Type)
		}
	}
	if dates != nil {
		if err := dates.Validate(); err != nil {
			return err
		}
	}
	return nil
}
