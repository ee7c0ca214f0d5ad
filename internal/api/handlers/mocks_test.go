package handlers_test

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"sublet/rentals/internal/api/middleware"
	"sublet/rentals/internal/geo"
	"sublet/rentals/internal/models"
)

// --- Mocks ---

type MockRequestService struct {
	mock.Mock
}

func requestResult(args mock.Arguments) (*models.Request, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Request), args.Error(1)
}

func requestsResult(args mock.Arguments) ([]models.Request, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Request), args.Error(1)
}

func (m *MockRequestService) FindRequestsByRenter(ctx context.Context, renterID string) ([]models.Request, error) {
	return requestsResult(m.Called(ctx, renterID))
}
func (m *MockRequestService) FindRequestsByOwner(ctx context.Context, ownerID string) ([]models.Request, error) {
	return requestsResult(m.Called(ctx, ownerID))
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
	return requestsResult(m.Called(ctx, cutoff))
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

type MockFavoriteService struct {
	mock.Mock
}

func (m *MockFavoriteService) AddFavorite(ctx context.Context, userID, listingID string) (*models.Favorite, error) {
	args := m.Called(ctx, userID, listingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Favorite), args.Error(1)
}
func (m *MockFavoriteService) RemoveFavorite(ctx context.Context, userID, listingID string) error {
	return m.Called(ctx, userID, listingID).Error(0)
}
func (m *MockFavoriteService) ListFavorites(ctx context.Context, userID string) ([]models.Listing, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Listing), args.Error(1)
}
func (m *MockFavoriteService) GroupFavoritesByArea(ctx context.Context, userID string) ([]models.FavoriteGroup, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.FavoriteGroup), args.Error(1)
}

type MockAreaService struct {
	mock.Mock
}

func (m *MockAreaService) ListAreas(ctx context.Context, city string) ([]models.Area, error) {
	args := m.Called(ctx, city)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Area), args.Error(1)
}
func (m *MockAreaService) NearestArea(ctx context.Context, lat, lon float64) (*models.Area, float64, error) {
	args := m.Called(ctx, lat, lon)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(*models.Area), args.Get(1).(float64), args.Error(2)
}
func (m *MockAreaService) MatchArea(p geo.Point, areas []models.Area) *models.Area {
	args := m.Called(p, areas)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(*models.Area)
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

// --- Helpers ---

const testUserHeader = "X-Test-User"

// newTestEngine authenticates every call as the user named in the X-Test-User header.
func newTestEngine() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextKeyUserID, c.GetHeader(testUserHeader))
		c.Next()
	})
	return r
}
