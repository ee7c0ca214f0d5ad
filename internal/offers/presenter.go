package offers

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"sublet/rentals/internal/logger"
	"sublet/rentals/internal/models"
)

// ButtonState is the affordance shown on a listing for the current renter.
type ButtonState string

const (
	ButtonMakeOffer ButtonState = "MAKE_OFFER"
	ButtonPending   ButtonState = "PENDING"
	ButtonChat      ButtonState = "CHAT"
)

const (
	LabelMakeOffer   = "Make an Offer"
	LabelPending     = "Pending for Owner"
	LabelHideDetails = "Hide Request Details"
	LabelViewChat    = "View Chat"

	lastMessagePreviewLen = 30
)

// ButtonViewState is everything the request button renders.
type ButtonViewState struct {
	State       ButtonState `json:"state"`
	Label       string      `json:"label"`
	UnreadCount int         `json:"unread_count"`
	Summary     []string    `json:"summary,omitempty"` // PENDING only
	ChatID      string      `json:"chat_id,omitempty"` // CHAT only
}

// ButtonInput is the full input of DeriveButtonState.
type ButtonInput struct {
	Request       *models.Request
	Messages      []models.ChatMessage
	CurrentUserID string
	ListingPrice  float64
	Expanded      bool // PENDING detail summary is open
}

// StateFor maps a request (or its absence) to the button state.
// Rejected and expired requests allow a fresh offer.
func StateFor(req *models.Request) ButtonState {
	if req == nil {
		return ButtonMakeOffer
	}
	switch req.Status {
	case models.StatusPending:
		return ButtonPending
	case models.StatusAccepted:
		return ButtonChat
	default:
		return ButtonMakeOffer
	}
}

// UnreadCount counts messages to userID sent after the request's last update.
// It is zero when the request has no chat.
func UnreadCount(req *models.Request, msgs []models.ChatMessage, userID string) int {
	if req == nil || req.ChatID == "" {
		return 0
	}
	n := 0
	for i := range msgs {
		if msgs[i].ToUserID == userID && msgs[i].SentAt.After(req.UpdatedAt) {
			n++
		}
	}
	return n
}

// DeriveButtonState is a pure function of its input.
func DeriveButtonState(in ButtonInput) ButtonViewState {
	state := StateFor(in.Request)
	view := ButtonViewState{State: state}

	switch state {
	case ButtonPending:
		view.Summary = Summarize(in.Request, in.ListingPrice)
		view.Label = LabelPending
		if in.Expanded {
			view.Label = LabelHideDetails
		}
	case ButtonChat:
		view.ChatID = in.Request.ChatID
		view.UnreadCount = UnreadCount(in.Request, in.Messages, in.CurrentUserID)
		view.Label = chatLabel(view.UnreadCount, latestMessage(in.Messages))
	default:
		view.Label = LabelMakeOffer
	}
	return view
}

func chatLabel(unread int, latest *models.ChatMessage) string {
	switch {
	case unread == 1:
		return "1 new message"
	case unread > 1:
		return fmt.Sprintf("%d new messages", unread)
	case latest != nil:
		return truncate(latest.Body, lastMessagePreviewLen)
	default:
		return LabelViewChat
	}
}

// latestMessage returns the message with the greatest SentAt; later entries win ties.
func latestMessage(msgs []models.ChatMessage) *models.ChatMessage {
	var latest *models.ChatMessage
	for i := range msgs {
		if latest == nil || !msgs[i].SentAt.Before(latest.SentAt) {
			latest = &msgs[i]
		}
	}
	return latest
}

// Presenter drives DeriveButtonState from the store and the chat service.
type Presenter struct {
	store *Store
	chat  ChatService
	log   *zap.SugaredLogger
}

func NewPresenter(store *Store, chat ChatService, l *zap.SugaredLogger) *Presenter {
	return &Presenter{store: store, chat: chat, log: logger.OrNop(l)}
}

// PresentInput identifies the listing being viewed and by whom.
type PresentInput struct {
	ListingID     string
	CurrentUserID string
	ListingPrice  float64
	Expanded      bool
}

// Present looks up the listing's request and derives the button. It never fails:
// a failed lookup falls back to the cached request and a failed transcript load
// is treated as an empty transcript.
func (p *Presenter) Present(ctx context.Context, in PresentInput) ButtonViewState {
	req, err := p.store.FetchByListing(ctx, in.ListingID)
	if err != nil {
		p.log.Warnw("Using cached request after fetch failure", "listing_id", in.ListingID, "error", err)
		req = p.store.GetByListing(in.ListingID)
	}

	var msgs []models.ChatMessage
	if StateFor(req) == ButtonChat {
		msgs = p.LoadTranscript(ctx, req)
	}

	return DeriveButtonState(ButtonInput{
		Request:       req,
		Messages:      msgs,
		CurrentUserID: in.CurrentUserID,
		ListingPrice:  in.ListingPrice,
		Expanded:      in.Expanded,
	})
}

// LoadTranscript fetches the chat for an accepted request. Failures are logged
// and yield an empty transcript; a later call may succeed.
func (p *Presenter) LoadTranscript(ctx context.Context, req *models.Request) []models.ChatMessage {
	if req == nil || req.ChatID == "" {
		return nil
	}
	msgs, err := p.chat.FetchMessages(ctx, req.ChatID)
	if err != nil {
		p.log.Warnw("Failed to load chat transcript", "chat_id", req.ChatID, "error", err)
		return nil
	}
	return msgs
}

// SendMessage posts body to the chat of an accepted request, addressed to the other party.
func (p *Presenter) SendMessage(ctx context.Context, req *models.Request, fromUserID, body string) (*models.ChatMessage, error) {
	if req == nil || req.Status != models.StatusAccepted || req.ChatID == "" {
		return nil, invalid("chat is only available on accepted requests")
	}
	to := req.OwnerID
	if fromUserID == req.OwnerID {
		to = req.RenterID
	} else if fromUserID != req.RenterID {
		return nil, invalid("user %s is not part of request %s", fromUserID, req.ID)
	}

	data := models.SendMessageData{Body: body, FromUserID: fromUserID, ToUserID: to}
	if err := data.Validate(); err != nil {
		return nil, invalid("%v", err)
	}
	msg, err := p.chat.SendMessage(ctx, req.ChatID, data)
	if err != nil {
		p.log.Errorw("Failed to send chat message", "chat_id", req.ChatID, "error", err)
		return nil, &ServiceError{Op: "send message", Err: err}
	}
	if msg == nil {
		return nil, &ServiceError{Op: "send message", Err: errors.New("service returned no message")}
	}
	return msg, nil
}
