package offers

import (
	"sublet/rentals/internal/models"
)

// BuildCounterOffer derives the counter-offer for a renter's chosen price.
// It returns nil when the amount equals the listing price. The type is never
// chosen by the renter: above the listing price is HIGHER, anything else LOWER.
func BuildCounterOffer(listingPrice, amount float64, reason string) (*models.CounterOffer, error) {
	if listingPrice <= 0 {
		return nil, invalid("listing price must be positive")
	}
	if amount <= 0 {
		return nil, invalid("offer amount must be positive")
	}
	if amount == listingPrice {
		return nil, nil
	}
	t := models.CounterOfferLower
	if amount > listingPrice {
		t = models.CounterOfferHigher
	}
	return &models.CounterOffer{Type: t, Amount: amount, Reason: reason}, nil
}
