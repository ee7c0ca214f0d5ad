package remote_test

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"sublet/rentals/internal/models"
)

type MockRequestService struct {
	mock.Mock
}

func requestResult(args mock.Arguments) (*models.Request, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestService) FindRequestsByRenter(ctx context.Context, renterID string) ([]models.Request, error) {
	args := m.Called(ctx, renterID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}
func (m *MockRequestService) FindRequestsByOwner(ctx context.Context, ownerID string) ([]models.Request, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}
func (m *MockRequestService) FindRequestByListing(ctx context.Context, listingID, renterID string) (*models.Request, error) {
	return requestResult(m.Called(ctx, listingID, renterID))
}
func (m *MockRequestService) FindRequestByID(ctx context.Context, requestID string) (*models.Request, error) {
	return requestResult(m.Called(ctx, requestID))
}
func (m *MockRequestService) FindRequestByChatID(ctx context.Context, chatID string) (*models.Request, error) {
	return requestResult(m.Called(ctx, chatID))
}
func (m *MockRequestService) CreateRequest(ctx context.Context, data models.CreateRequestData) (*models.Request, error) {
	return requestResult(m.Called(ctx, data))
}
func (m *MockRequestService) UpdateRequest(ctx context.Context, req *models.Request) (*models.Request, error) {
	return requestResult(m.Called(ctx, req))
}
func (m *MockRequestService) DeleteRequest(ctx context.Context, requestID, renterID string) error {
	return m.Called(ctx, requestID, renterID).Error(0)
}
func (m *MockRequestService) AcceptRequest(ctx context.Context, requestID, ownerID string) (*models.Request, error) {
	return requestResult(m.Called(ctx, requestID, ownerID))
}
func (m *MockRequestService) RejectRequest(ctx context.Context, requestID, ownerID string) (*models.Request, error) {
	return requestResult(m.Called(ctx, requestID, ownerID))
}
func (m *MockRequestService) ExpirePendingBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error) {
	args := m.Called(ctx, cutoff)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

type MockListingService struct {
	mock.Mock
}

func (m *MockListingService) CreateListing(ctx context.Context, ownerID, title string, price float64, currencyCode string, location *models.GeoJSON) (*models.Listing, error) {
	args := m.Called(ctx, ownerID, title, price, currencyCode, location)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) FindListingByID(ctx context.Context, listingID string) (*models.Listing, error) {
	args := m.Called(ctx, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Listing), args.Error(1)
}
func (m *MockListingService) FindListingsByIDs(ctx context.Context, listingIDs []string) ([]models.Listing, error) {
	args := m.Called(ctx, listingIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}

type MockChatService struct {
	mock.Mock
}

func (m *MockChatService) FetchMessages(ctx context.Context, chatID string) ([]models.ChatMessage, error) {
	args := m.Called(ctx, chatID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ChatMessage), args.Error(1)
}
func (m *MockChatService) SendMessage(ctx context.Context, chatID string, data models.SendMessageData) (*models.ChatMessage, error) {
	args := m.Called(ctx, chatID, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ChatMessage), args.Error(1)
}
