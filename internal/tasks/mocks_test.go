package tasks_test

import (
	"context"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"sublet/rentals/internal/models"
	"sublet/rentals/internal/tasks"
)

// --- Mocks ---

type MockRequestService struct {
	mock.Mock
}

func (m *MockRequestService) requestResult(args mock.Arguments) (*models.Request, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func (m *MockRequestService) requestsResult(args mock.Arguments) ([]models.Request, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockRequestService) FindRequestsByRenter(ctx context.Context, renterID string) ([]models.Request, error) {
	return m.requestsResult(m.Called(ctx, renterID))
}
func (m *MockRequestService) FindRequestsByOwner(ctx context.Context, ownerID string) ([]models.Request, error) {
	return m.requestsResult(m.Called(ctx, ownerID))
}
func (m *MockRequestService) FindRequestByListing(ctx context.Context, listingID, renterID string) (*models.Request, error) {
	return m.requestResult(m.Called(ctx, listingID, renterID))
}
func (m *MockRequestService) FindRequestByID(ctx context.Context, requestID string) (*models.Request, error) {
	return m.requestResult(m.Called(ctx, requestID))
}
func (m *MockRequestService) FindRequestByChatID(ctx context.Context, chatID string) (*models.Request, error) {
	return m.requestResult(m.Called(ctx, chatID))
}
func (m *MockRequestService) CreateRequest(ctx context.Context, data models.CreateRequestData) (*models.Request, error) {
	return m.requestResult(m.Called(ctx, data))
}
func (m *MockRequestService) UpdateRequest(ctx context.Context, req *models.Request) (*models.Request, error) {
	return m.requestResult(m.Called(ctx, req))
}
func (m *MockRequestService) DeleteRequest(ctx context.Context, requestID, renterID string) error {
	return m.Called(ctx, requestID, renterID).Error(0)
}
func (m *MockRequestService) AcceptRequest(ctx context.Context, requestID, ownerID string) (*models.Request, error) {
	return m.requestResult(m.Called(ctx, requestID, ownerID))
}
func (m *MockRequestService) RejectRequest(ctx context.Context, requestID, ownerID string) (*models.Request, error) {
	return m.requestResult(m.Called(ctx, requestID, ownerID))
}
func (m *MockRequestService) ExpirePendingBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error) {
	return m.requestsResult(m.Called(ctx, cutoff))
}

type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	args := m.Called(ctx, task, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}

type MockInbox struct {
	mock.Mock
}

func (m *MockInbox) Push(ctx context.Context, userID string, n tasks.Notification) error {
	return m.Called(ctx, userID, n).Error(0)
}

func (m *MockInbox) List(ctx context.Context, userID string, limit int) ([]tasks.Notification, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]tasks.Notification), args.Error(1)
}
