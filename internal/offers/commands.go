package offers

import (
	"fmt"
	"strings"

	"sublet/rentals/internal/models"
)

// Command is a single validated mutation of a request.
type Command interface {
	Apply(r *models.Request) error
}

// SetCounterOffer re-derives the counter-offer from a new price.
type SetCounterOffer struct {
	ListingPrice float64
	Amount       float64
	Reason       string
}

func (c SetCounterOffer) Apply(r *models.Request) error {
	co, err := BuildCounterOffer(c.ListingPrice, c.Amount, c.Reason)
	if err != nil {
		return err
	}
	r.CounterOffer = co
	return nil
}

// SetDates replaces the preferred dates. A nil Dates clears them.
type SetDates struct {
	Dates *models.DateRange
}

func (c SetDates) Apply(r *models.Request) error {
	if c.Dates == nil {
		r.PreferredDates = nil
		return nil
	}
	if err := c.Dates.Validate(); err != nil {
		return invalid("%v", err)
	}
	d := *c.Dates
	r.PreferredDates = &d
	return nil
}

// SetMessage replaces the note to the owner.
type SetMessage struct {
	Message string
}

func (c SetMessage) Apply(r *models.Request) error {
	r.Message = strings.TrimSpace(c.Message)
	return nil
}

// SetStatus moves the request along its lifecycle. ChatID is recorded only on ACCEPTED.
type SetStatus struct {
	Status models.RequestStatus
	ChatID string
}

func (c SetStatus) Apply(r *models.Request) error {
	if !r.Status.CanTransitionTo(c.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, c.Status)
	}
	r.Status = c.Status
	if c.Status == models.StatusAccepted && c.ChatID != "" {
		r.ChatID = c.ChatID
	}
	return nil
}

// ApplyCommands applies cmds in order to a copy of r. r itself is never modified,
// and nothing is returned unless every command and the final validation succeed.
func ApplyCommands(r *models.Request, cmds ...Command) (*models.Request, error) {
	if r == nil {
		return nil, invalid("no request to amend")
	}
	next := r.Clone()
	for _, cmd := range cmds {
		if err := cmd.Apply(next); err != nil {
			return nil, err
		}
	}
	if err := next.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	return next, nil
}
