package offers_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"sublet/rentals/internal/models"
)

// --- Mocks ---

type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) FetchRequests(ctx context.Context) ([]models.Request, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockRequestService) FetchRequestByListing(ctx context.Context, listingID string) (*models.Request, error) {
	args := m.Called(ctx, listingID)
	if fn, ok := args.Get(0).(func(context.Context, string) *models.Request); ok {
		return fn(ctx, listingID), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestService) CreateRequest(ctx context.Context, data models.CreateRequestData) (*models.Request, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestService) UpdateRequest(ctx context.Context, req *models.Request) (*models.Request, error) {
	args := m.Called(ctx, req)
	if fn, ok := args.Get(0).(func(context.Context, *models.Request) *models.Request); ok {
		return fn(ctx, req), args.Error(1)
	}
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestService) DeleteRequest(ctx context.Context, requestID string) error {
	args := m.Called(ctx, requestID)
	return args.Error(0)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) FetchMessages(ctx context.Context, peerID string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, peerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}

func (m *MockChatService) SendMessage(ctx context.Context, peerID string, data models.SendMessageData) (*models.ChatMessage, error) {
	args := m.Called(ctx, peerID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}
