package offers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"sublet/rentals/internal/logger"
	"sublet/rentals/internal/models"
)

const defaultRefreshConcurrency = 4

// Store is the client's source of truth for the renter's requests. Every write
// goes through the RequestService first; the local collection changes only after
// the service call succeeds.
//
// Mutations issued concurrently for the same request id are not ordered against
// each other: whichever service call completes last is what the cache holds.
type Store struct {
	svc          RequestService
	log          *zap.SugaredLogger
	refreshLimit int

	mu       sync.RWMutex
	requests []models.Request
}

type StoreOption func(*Store)

// WithLogger sets the logger used for service failures.
func WithLogger(l *zap.SugaredLogger) StoreOption {
	return func(s *Store) { s.log = logger.OrNop(l) }
}

// WithRefreshConcurrency caps the refreshes RefreshAll keeps in flight.
func WithRefreshConcurrency(n int) StoreOption {
	return func(s *Store) {
		if n > 0 {
			s.refreshLimit = n
		}
	}
}

// NewStore creates an empty Store backed by svc.
func NewStore(svc RequestService, opts ...StoreOption) *Store {
	s := &Store{
		svc:          svc,
		log:          logger.OrNop(nil),
		refreshLimit: defaultRefreshConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Requests returns a copy of the local collection.
func (s *Store) Requests() []models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.requests)
}

// Get returns the locally cached request with the given id, or nil.
func (s *Store) Get(requestID string) *models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.indexOf(requestID); i >= 0 {
		return s.requests[i].Clone()
	}
	return nil
}

// FetchAll replaces the local collection with the service's full set.
func (s *Store) FetchAll(ctx context.Context) ([]models.Request, error) {
	fetched, err := s.svc.FetchRequests(ctx)
	if err != nil {
		s.log.Errorw("Failed to fetch requests", "error", err)
		return nil, &ServiceError{Op: "fetch requests", Err: err}
	}

	next := cloneAll(fetched)
	s.mu.Lock()
	s.requests = next
	s.mu.Unlock()

	return cloneAll(next), nil
}

// FetchByListing always asks the service, so owner-side status changes are seen
// promptly. A found request is inserted only if its id is not cached yet.
// It returns (nil, nil) when the listing has no request.
func (s *Store) FetchByListing(ctx context.Context, listingID string) (*models.Request, error) {
	req, err := s.svc.FetchRequestByListing(ctx, listingID)
	if err != nil {
		s.log.Errorw("Failed to fetch request by listing", "listing_id", listingID, "error", err)
		return nil, &ServiceError{Op: "fetch request by listing", Err: err}
	}
	if req == nil {
		return nil, nil
	}

	s.mu.Lock()
	if s.indexOf(req.ID) < 0 {
		s.requests = append(s.requests, *req.Clone())
	}
	s.mu.Unlock()

	return req.Clone(), nil
}

// GetByListing returns the first cached request for the listing without calling
// the service. Use it where a slightly stale answer is acceptable.
func (s *Store) GetByListing(listingID string) *models.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.requests {
		if s.requests[i].ListingID == listingID {
			return s.requests[i].Clone()
		}
	}
	return nil
}

// Create submits a new offer and appends the created request once the service confirms it.
func (s *Store) Create(ctx context.Context, data models.CreateRequestData) (*models.Request, error) {
	if err := data.Validate(); err != nil {
		return nil, invalid("%v", err)
	}

	created, err := s.svc.CreateRequest(ctx, data)
	if err != nil {
		s.log.Errorw("Failed to create request", "listing_id", data.ListingID, "error", err)
		return nil, &ServiceError{Op: "create request", Err: err}
	}
	if created == nil {
		return nil, &ServiceError{Op: "create request", Err: errors.New("service returned no request")}
	}

	s.mu.Lock()
	s.requests = append(s.requests, *created.Clone())
	s.mu.Unlock()

	return created.Clone(), nil
}

// Update pushes the full request to the service and caches the service's copy.
// A cached request is never moved back to PENDING.
func (s *Store) Update(ctx context.Context, req *models.Request) error {
	if req == nil {
		return invalid("no request to update")
	}
	if err := req.Validate(); err != nil {
		return invalid("%v", err)
	}
	if current := s.Get(req.ID); current != nil && !current.Status.CanTransitionTo(req.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, current.Status, req.Status)
	}

	stored, err := s.svc.UpdateRequest(ctx, req.Clone())
	if err != nil {
		s.log.Errorw("Failed to update request", "request_id", req.ID, "error", err)
		return &ServiceError{Op: "update request", Err: err}
	}
	if stored == nil {
		return &ServiceError{Op: "update request", Err: errors.New("service returned no request")}
	}

	s.upsert(stored)
	return nil
}

// Amend applies tagged commands to the cached request and pushes the result via Update.
func (s *Store) Amend(ctx context.Context, requestID string, cmds ...Command) (*models.Request, error) {
	current := s.Get(requestID)
	if current == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownRequest, requestID)
	}
	next, err := ApplyCommands(current, cmds...)
	if err != nil {
		return nil, err
	}
	if err := s.Update(ctx, next); err != nil {
		return nil, err
	}
	return s.Get(requestID), nil
}

// Remove cancels a request. The cached entry is kept if the service call fails.
func (s *Store) Remove(ctx context.Context, requestID string) error {
	if err := s.svc.DeleteRequest(ctx, requestID); err != nil {
		s.log.Errorw("Failed to delete request", "request_id", requestID, "error", err)
		return &ServiceError{Op: "delete request", Err: err}
	}

	s.mu.Lock()
	if i := s.indexOf(requestID); i >= 0 {
		s.requests = append(s.requests[:i], s.requests[i+1:]...)
	}
	s.mu.Unlock()
	return nil
}

// Refresh re-fetches the listing's request and upserts it by id. When the
// service reports no request the local collection is left as is.
func (s *Store) Refresh(ctx context.Context, listingID string) error {
	req, err := s.svc.FetchRequestByListing(ctx, listingID)
	if err != nil {
		s.log.Warnw("Failed to refresh request", "listing_id", listingID, "error", err)
		return &ServiceError{Op: "refresh request", Err: err}
	}
	if req != nil {
		s.upsert(req)
	}
	return nil
}

// RefreshAll refreshes every listing with at most the configured number of calls
// in flight. A failing listing does not stop the others; failures are returned
// keyed by listing id and the map is empty when all succeed.
func (s *Store) RefreshAll(ctx context.Context, listingIDs []string) map[string]error {
	var (
		g      errgroup.Group
		mu     sync.Mutex
		failed = make(map[string]error)
		seen   = make(map[string]struct{}, len(listingIDs))
	)
	g.SetLimit(s.refreshLimit)

	for _, id := range listingIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}

		listingID := id
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				mu.Lock()
				failed[listingID] = err
				mu.Unlock()
				return nil
			}
			if err := s.Refresh(ctx, listingID); err != nil {
				mu.Lock()
				failed[listingID] = err
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()

	if len(failed) > 0 {
		s.log.Warnw("Some request refreshes failed", "failed", len(failed), "total", len(seen))
	}
	return failed
}

func (s *Store) upsert(req *models.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := s.indexOf(req.ID); i >= 0 {
		s.requests[i] = *req.Clone()
		return
	}
	s.requests = append(s.requests, *req.Clone())
}

// indexOf must be called with mu held.
func (s *Store) indexOf(requestID string) int {
	for i := range s.requests {
		if s.requests[i].ID == requestID {
			return i
		}
	}
	return -1
}

func cloneAll(in []models.Request) []models.Request {
	out := make([]models.Request, len(in))
	for i := range in {
		out[i] = *in[i].Clone()
	}
	return out
}
