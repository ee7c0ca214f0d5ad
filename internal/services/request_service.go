package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sublet/rentals/internal/db"
	"sublet/rentals/internal/models"
	"sublet/rentals/internal/utils"
)

var (
	ErrRequestNotFound     = errors.New("request not found")
	ErrActiveRequestExists = errors.New("an active request already exists for this listing")
	ErrInvalidTransition   = errors.New("invalid request status transition")
	ErrNotParticipant      = errors.New("user is not a participant of this request")
)

const activeRequestIndex = "active_request_per_renter"

// IRequestService defines the persistence and lifecycle operations on rental requests.
type IRequestService interface {
	FindRequestsByRenter(ctx context.Context, renterID string) ([]models.Request, error)
	FindRequestsByOwner(ctx context.Context, ownerID string) ([]models.Request, error)
	FindRequestByListing(ctx context.Context, listingID, renterID string) (*models.Request, error)
	FindRequestByID(ctx context.Context, requestID string) (*models.Request, error)
	FindRequestByChatID(ctx context.Context, chatID string) (*models.Request, error)
	CreateRequest(ctx context.Context, data models.CreateRequestData) (*models.Request, error)
	UpdateRequest(ctx context.Context, req *models.Request) (*models.Request, error)
	DeleteRequest(ctx context.Context, requestID, renterID string) error
	AcceptRequest(ctx context.Context, requestID, ownerID string) (*models.Request, error)
	RejectRequest(ctx context.Context, requestID, ownerID string) (*models.Request, error)
	ExpirePendingBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error)
}

type requestService struct {
	db  *mongo.Database
	now func() time.Time
}

// NewRequestService creates a new RequestService.
func NewRequestService(database *mongo.Database) IRequestService {
	return &requestService{db: database, now: func() time.Time { return time.Now().UTC() }}
}

func (s *requestService) collection() *mongo.Collection {
	return s.db.Collection(db.RequestsCollection)
}

func (s *requestService) findMany(ctx context.Context, filter bson.M) ([]models.Request, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.collection().Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	requests := []models.Request{}
	if err := cursor.All(ctx, &requests); err != nil {
		return nil, err
	}
	return requests, nil
}

func (s *requestService) findOne(ctx context.Context, filter bson.M, opts ...*options.FindOneOptions) (*models.Request, error) {
	var req models.Request
	err := s.collection().FindOne(ctx, filter, opts...).Decode(&req)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRequestNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindRequestsByRenter returns the renter's requests, newest first.
func (s *requestService) FindRequestsByRenter(ctx context.Context, renterID string) ([]models.Request, error) {
	requests, err := s.findMany(ctx, bson.M{"renter_id": renterID})
	if err != nil {
		return nil, fmt.Errorf("error finding requests for renter %s: %w", renterID, err)
	}
	return requests, nil
}

// FindRequestsByOwner returns the requests made on the owner's listings, newest first.
func (s *requestService) FindRequestsByOwner(ctx context.Context, ownerID string) ([]models.Request, error) {
	requests, err := s.findMany(ctx, bson.M{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("error finding requests for owner %s: %w", ownerID, err)
	}
	return requests, nil
}

// FindRequestByListing returns the renter's newest request on the listing.
func (s *requestService) FindRequestByListing(ctx context.Context, listingID, renterID string) (*models.Request, error) {
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	req, err := s.findOne(ctx, bson.M{"listing_id": listingID, "renter_id": renterID}, opts)
	if err != nil && !errors.Is(err, ErrRequestNotFound) {
		return nil, fmt.Errorf("error finding request for listing %s: %w", listingID, err)
	}
	return req, err
}

func (s *requestService) FindRequestByID(ctx context.Context, requestID string) (*models.Request, error) {
	req, err := s.findOne(ctx, bson.M{"_id": requestID})
	if err != nil && !errors.Is(err, ErrRequestNotFound) {
		return nil, fmt.Errorf("error finding request %s: %w", requestID, err)
	}
	return req, err
}

func (s *requestService) FindRequestByChatID(ctx context.Context, chatID string) (*models.Request, error) {
	req, err := s.findOne(ctx, bson.M{"chat_id": chatID})
	if err != nil && !errors.Is(err, ErrRequestNotFound) {
		return nil, fmt.Errorf("error finding request for chat %s: %w", chatID, err)
	}
	return req, err
}

// CreateRequest stores a new PENDING request. A renter may hold only one active
// (PENDING or ACCEPTED) request per listing.
func (s *requestService) CreateRequest(ctx context.Context, data models.CreateRequestData) (*models.Request, error) {
	if err := data.Validate(); err != nil {
		return nil, err
	}

	collection := s.collection()
	count, err := collection.CountDocuments(ctx, bson.M{
		"listing_id": data.ListingID,
		"renter_id":  data.RenterID,
		"status":     bson.M{"$in": bson.A{models.StatusPending, models.StatusAccepted}},
	})
	if err != nil {
		return nil, fmt.Errorf("error checking active requests for listing %s: %w", data.ListingID, err)
	}
	if count > 0 {
		return nil, ErrActiveRequestExists
	}

	now := s.now()
	var newRequest *models.Request
	operation := func() error {
		newRequest = &models.Request{
			ID:             utils.NewSixID().String(),
			ListingID:      data.ListingID,
			RenterID:       data.RenterID,
			OwnerID:        data.OwnerID,
			Status:         models.StatusPending,
			CounterOffer:   data.CounterOffer,
			PreferredDates: data.PreferredDates,
			Message:        strings.TrimSpace(data.Message),
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		_, insertErr := collection.InsertOne(ctx, newRequest)
		return insertErr
	}

	// Only _id collisions are worth another attempt with a fresh id.
	err = db.WithRetries(operation, db.DefaultMaxRetries, isIDCollision)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), activeRequestIndex) {
			return nil, ErrActiveRequestExists
		}
		return nil, fmt.Errorf("failed to create request for listing %s: %w", data.ListingID, err)
	}
	return newRequest, nil
}

func isIDCollision(err error) bool {
	return db.IsMongoDuplicateKeyError(err) && !strings.Contains(err.Error(), activeRequestIndex)
}

// UpdateRequest replaces the mutable fields of a stored request. The status may
// only move along the allowed transitions, and accepting assigns a chat id.
func (s *requestService) UpdateRequest(ctx context.Context, req *models.Request) (*models.Request, error) {
	if req == nil {
		return nil, errors.New("no request to update")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	stored, err := s.FindRequestByID(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	if !stored.Status.CanTransitionTo(req.Status) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, stored.Status, req.Status)
	}

	chatID := stored.ChatID
	if req.Status == models.StatusAccepted && chatID == "" {
		chatID = uuid.NewString()
	}

	set := bson.M{
		"status":     req.Status,
		"message":    strings.TrimSpace(req.Message),
		"chat_id":    chatID,
		"updated_at": s.now(),
	}
	unset := bson.M{}
	if req.CounterOffer != nil {
		set["counter_offer"] = req.CounterOffer
	} else {
		unset["counter_offer"] = ""
	}
	if req.PreferredDates != nil {
		set["preferred_dates"] = req.PreferredDates
	} else {
		unset["preferred_dates"] = ""
	}
	update := bson.M{"$set": set}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	return s.applyUpdate(ctx, stored, update)
}

// applyUpdate writes update only if the stored status has not moved since it was read.
func (s *requestService) applyUpdate(ctx context.Context, stored *models.Request, update bson.M) (*models.Request, error) {
	filter := bson.M{"_id": stored.ID, "status": stored.Status}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var updated models.Request
	err := s.collection().FindOneAndUpdate(ctx, filter, update, opts).Decode(&updated)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: request %s changed concurrently", ErrInvalidTransition, stored.ID)
		}
		return nil, fmt.Errorf("failed to update request %s: %w", stored.ID, err)
	}
	return &updated, nil
}

// DeleteRequest cancels a request. Only the renter who made it may do so.
func (s *requestService) DeleteRequest(ctx context.Context, requestID, renterID string) error {
	stored, err := s.FindRequestByID(ctx, requestID)
	if err != nil {
		return err
	}
	if stored.RenterID != renterID {
		return ErrNotParticipant
	}

	if _, err := s.collection().DeleteOne(ctx, bson.M{"_id": requestID}); err != nil {
		return fmt.Errorf("failed to delete request %s: %w", requestID, err)
	}
	return nil
}

// AcceptRequest moves a PENDING request to ACCEPTED and opens its chat.
func (s *requestService) AcceptRequest(ctx context.Context, requestID, ownerID string) (*models.Request, error) {
	return s.decide(ctx, requestID, ownerID, models.StatusAccepted)
}

// RejectRequest moves a PENDING request to REJECTED.
func (s *requestService) RejectRequest(ctx context.Context, requestID, ownerID string) (*models.Request, error) {
	return s.decide(ctx, requestID, ownerID, models.StatusRejected)
}

func (s *requestService) decide(ctx context.Context, requestID, ownerID string, next models.RequestStatus) (*models.Request, error) {
	stored, err := s.FindRequestByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if stored.OwnerID != ownerID {
		return nil, ErrNotParticipant
	}
	if stored.Status != models.StatusPending {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, stored.Status, next)
	}

	set := bson.M{"status": next, "updated_at": s.now()}
	if next == models.StatusAccepted {
		set["chat_id"] = uuid.NewString()
	}
	return s.applyUpdate(ctx, stored, bson.M{"$set": set})
}

// ExpirePendingBefore expires every PENDING request created before cutoff and
// returns the requests it actually moved.
func (s *requestService) ExpirePendingBefore(ctx context.Context, cutoff time.Time) ([]models.Request, error) {
	candidates, err := s.findMany(ctx, bson.M{
		"status":     models.StatusPending,
		"created_at": bson.M{"$lt": cutoff},
	})
	if err != nil {
		return nil, fmt.Errorf("error finding pending requests before %s: %w", cutoff.Format(time.RFC3339), err)
	}

	expired := make([]models.Request, 0, len(candidates))
	for i := range candidates {
		updated, err := s.applyUpdate(ctx, &candidates[i], bson.M{"$set": bson.M{
			"status":     models.StatusExpired,
			"updated_at": s.now(),
		}})
		if err != nil {
			if errors.Is(err, ErrInvalidTransition) {
				continue // decided by the owner in the meantime
			}
			return expired, err
		}
		expired = append(expired, *updated)
	}
	return expired, nil
}
