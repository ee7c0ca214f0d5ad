// Package offers holds the client-side core of the offer flow: a reconciled
// cache of the renter's requests and the derivation of the request button.
package offers

import (
	"context"

	"sublet/rentals/internal/models"
)

// RequestService is the request persistence backend as seen by the client.
// FetchRequestByListing returns (nil, nil) when the listing has no request.
type RequestService interface {
	FetchRequests(ctx context.Context) ([]models.Request, error)
	FetchRequestByListing(ctx context.Context, listingID string) (*models.Request, error)
	CreateRequest(ctx context.Context, data models.CreateRequestData) (*models.Request, error)
	UpdateRequest(ctx context.Context, req *models.Request) (*models.Request, error)
	DeleteRequest(ctx context.Context, requestID string) error
}

// ChatService is the chat backend. peerID is the thread id stored on an accepted request.
type ChatService interface {
	FetchMessages(ctx context.Context, peerID string) ([]models.ChatMessage, error)
	SendMessage(ctx context.Context, peerID string, data models.SendMessageData) (*models.ChatMessage, error)
}
