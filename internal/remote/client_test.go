package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"sublet/rentals/internal/api"
	"sublet/rentals/internal/auth"
	"sublet/rentals/internal/config"
	"sublet/rentals/internal/models"
	"sublet/rentals/internal/offers"
	"sublet/rentals/internal/remote"
	"sublet/rentals/internal/services"
)

const testSecret = "remote-secret"

type backend struct {
	requests *MockRequestService
	listings *MockListingService
	chats    *MockChatService
	server   *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	gin.SetMode(gin.TestMode)
	b := &backend{
		requests: new(MockRequestService),
		listings: new(MockListingService),
		chats:    new(MockChatService),
	}
	engine := api.NewEngine(&config.Config{JwtSecret: testSecret}, api.Services{
		Requests: b.requests,
		Listings: b.listings,
		Chats:    b.chats,
	}, nil, nil, nil)
	b.server = httptest.NewServer(engine)
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) clientFor(t *testing.T, userID string) *remote.Client {
	t.Helper()
	token, err := auth.GenerateJWT(userID, testSecret, time.Hour)
	require.NoError(t, err)
	return remote.NewClient(remote.Options{BaseURL: b.server.URL, Token: token, Timeout: 5 * time.Second}, nil)
}

var created = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func TestClient_RenterOfferFlow(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()

	b.listings.On("FindListingByID", mock.Anything, "L1").
		Return(&models.Listing{ID: "L1", OwnerID: "O1", Price: 1200, CurrencyCode: "USD"}, nil)
	pending := &models.Request{
		ID: "REQ001", ListingID: "L1", RenterID: "R1", OwnerID: "O1", Status: models.StatusPending,
		CounterOffer: &models.CounterOffer{Type: models.CounterOfferLower, Amount: 1000, Reason: "Long stay"},
		CreatedAt:    created, UpdatedAt: created,
	}
	b.requests.On("CreateRequest", mock.Anything, mock.MatchedBy(func(d models.CreateRequestData) bool {
		return d.ListingID == "L1" && d.RenterID == "R1" && d.OwnerID == "O1" &&
			d.CounterOffer != nil && d.CounterOffer.Type == models.CounterOfferLower && d.CounterOffer.Amount == 1000
	})).Return(pending, nil).Once()
	b.requests.On("FindRequestByListing", mock.Anything, "L1", "R1").Return(pending, nil)

	client := b.clientFor(t, "R1")
	store := offers.NewStore(client)
	presenter := offers.NewPresenter(store, client, nil)

	// The client-side type is re-derived by the server from the listing price.
	got, err := store.Create(ctx, models.CreateRequestData{
		ListingID: "L1", RenterID: "R1", OwnerID: "O1",
		CounterOffer: &models.CounterOffer{Type: models.CounterOfferHigher, Amount: 1000, Reason: "Long stay"},
	})
	require.NoError(t, err)
	assert.Equal(t, "REQ001", got.ID)
	require.Len(t, store.Requests(), 1)

	view := presenter.Present(ctx, offers.PresentInput{ListingID: "L1", CurrentUserID: "R1", ListingPrice: 1200})
	assert.Equal(t, offers.ButtonPending, view.State)
	assert.Equal(t, offers.LabelPending, view.Label)
	assert.NotEmpty(t, view.Summary)
	b.requests.AssertExpectations(t)
}

func TestClient_CreateConflictIsServiceError(t *testing.T) {
	b := newBackend(t)
	b.listings.On("FindListingByID", mock.Anything, "L1").
		Return(&models.Listing{ID: "L1", OwnerID: "O1", Price: 1200}, nil)
	b.requests.On("CreateRequest", mock.Anything, mock.Anything).Return(nil, services.ErrActiveRequestExists)

	store := offers.NewStore(b.clientFor(t, "R1"))
	_, err := store.Create(context.Background(), models.CreateRequestData{ListingID: "L1", RenterID: "R1", OwnerID: "O1"})
	require.Error(t, err)
	assert.True(t, offers.IsServiceError(err))
	var apiErr *remote.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Empty(t, store.Requests())
}

func TestClient_FetchRequestByListing_NotFoundIsNil(t *testing.T) {
	b := newBackend(t)
	b.requests.On("FindRequestByListing", mock.Anything, "L9", "R1").Return(nil, services.ErrRequestNotFound)

	req, err := b.clientFor(t, "R1").FetchRequestByListing(context.Background(), "L9")
	require.NoError(t, err)
	assert.Nil(t, req)
}

func TestClient_AcceptedChat(t *testing.T) {
	b := newBackend(t)
	ctx := context.Background()
	accepted := &models.Request{
		ID: "REQ001", ListingID: "L1", RenterID: "R1", OwnerID: "O1", Status: models.StatusAccepted,
		ChatID: "C1", CreatedAt: created, UpdatedAt: created,
	}
	b.requests.On("FindRequestByListing", mock.Anything, "L1", "R1").Return(accepted, nil)
	b.requests.On("FindRequestByChatID", mock.Anything, "C1").Return(accepted, nil)
	b.chats.On("FetchMessages", mock.Anything, "C1").Return([]models.ChatMessage{
		{ChatID: "C1", Body: "Welcome!", FromUserID: "O1", ToUserID: "R1", SentAt: created.Add(time.Hour)},
		{ChatID: "C1", Body: "Keys are under the mat", FromUserID: "O1", ToUserID: "R1", SentAt: created.Add(2 * time.Hour)},
	}, nil)
	sent := models.SendMessageData{Body: "Thanks", FromUserID: "R1", ToUserID: "O1"}
	b.chats.On("SendMessage", mock.Anything, "C1", sent).
		Return(&models.ChatMessage{ChatID: "C1", Body: "Thanks", FromUserID: "R1", ToUserID: "O1", SentAt: created.Add(3 * time.Hour)}, nil)

	client := b.clientFor(t, "R1")
	presenter := offers.NewPresenter(offers.NewStore(client), client, nil)

	view := presenter.Present(ctx, offers.PresentInput{ListingID: "L1", CurrentUserID: "R1", ListingPrice: 1200})
	assert.Equal(t, offers.ButtonChat, view.State)
	assert.Equal(t, "C1", view.ChatID)
	assert.Equal(t, 2, view.UnreadCount)
	assert.Equal(t, "2 new messages", view.Label)

	msg, err := presenter.SendMessage(ctx, accepted, "R1", "Thanks")
	require.NoError(t, err)
	assert.Equal(t, "O1", msg.ToUserID)
	b.chats.AssertExpectations(t)
}

func TestClient_OwnerDecides(t *testing.T) {
	b := newBackend(t)
	accepted := &models.Request{ID: "REQ001", ListingID: "L1", RenterID: "R1", OwnerID: "O1", Status: models.StatusAccepted, ChatID: "C1"}
	b.requests.On("AcceptRequest", mock.Anything, "REQ001", "O1").Return(accepted, nil)
	b.requests.On("FindRequestsByOwner", mock.Anything, "O1").Return([]models.Request{*accepted}, nil)

	owner := b.clientFor(t, "O1")
	got, err := owner.AcceptRequest(context.Background(), "REQ001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)

	incoming, err := owner.FetchIncoming(context.Background())
	require.NoError(t, err)
	assert.Len(t, incoming, 1)
}

func TestClient_OwnerRejects(t *testing.T) {
	b := newBackend(t)
	rejected := &models.Request{ID: "REQ001", ListingID: "L1", RenterID: "R1", OwnerID: "O1", Status: models.StatusRejected}
	b.requests.On("RejectRequest", mock.Anything, "REQ001", "O1").Return(rejected, nil)

	got, err := b.clientFor(t, "O1").RejectRequest(context.Background(), "REQ001")
	require.NoError(t, err)
	assert.Equal(t, models.StatusRejected, got.Status)
	b.requests.AssertExpectations(t)
}

func TestClient_RetriesIdempotentCalls(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[{"id":"REQ001","status":"PENDING"}]}`))
	}))
	defer srv.Close()

	client := remote.NewClient(remote.Options{BaseURL: srv.URL, Timeout: time.Second, Retries: 2}, nil)
	reqs, err := client.FetchRequests(context.Background())
	require.NoError(t, err)
	assert.Len(t, reqs, 1)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	atomic.StoreInt32(&hits, 0)
	err = client.DeleteRequest(context.Background(), "REQ001")
	var apiErr *remote.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.Status)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestClient_BreakerOpensAfterServerErrors(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	client := remote.NewClient(remote.Options{
		BaseURL: srv.URL, Timeout: time.Second, MaxFailures: 2, BreakerTimeout: time.Minute,
	}, nil)
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		_, err := client.FetchRequests(ctx)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())

	_, err := client.FetchRequests(ctx)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestClient_ClientErrorsKeepBreakerClosed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := remote.NewClient(remote.Options{BaseURL: srv.URL, Timeout: time.Second, MaxFailures: 1}, nil)
	for i := 0; i < 3; i++ {
		req, err := client.FetchRequestByListing(context.Background(), "L1")
		require.NoError(t, err)
		assert.Nil(t, req)
	}
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}
