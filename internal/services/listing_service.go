package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"sublet/rentals/internal/db"
	"sublet/rentals/internal/models"
	"sublet/rentals/internal/utils"
)

var ErrListingNotFound = errors.New("listing not found")

// IListingService defines the listing operations the offer flow needs.
type IListingService interface {
	CreateListing(ctx context.Context, ownerID, title string, price float64, currencyCode string, location *models.GeoJSON) (*models.Listing, error)
	FindListingByID(ctx context.Context, listingID string) (*models.Listing, error)
	FindListingsByIDs(ctx context.Context, listingIDs []string) ([]models.Listing, error)
}

type listingService struct {
	db *mongo.Database
}

// NewListingService creates a new ListingService.
func NewListingService(database *mongo.Database) IListingService {
	return &listingService{db: database}
}

// CreateListing stores a new listing owned by ownerID.
func (s *listingService) CreateListing(ctx context.Context, ownerID, title string, price float64, currencyCode string, location *models.GeoJSON) (*models.Listing, error) {
	title = strings.TrimSpace(title)
	if ownerID == "" || title == "" {
		return nil, errors.New("listing owner and title are required")
	}
	if price <= 0 {
		return nil, errors.New("listing price must be positive")
	}
	if location != nil {
		if _, _, ok := location.LatLon(); !ok {
			return nil, errors.New("listing location must be a [lon, lat] point")
		}
	}

	collection := s.db.Collection(db.ListingsCollection)
	now := time.Now().UTC()
	var newListing *models.Listing
	operation := func() error {
		newListing = &models.Listing{
			ID:           utils.NewSixID().String(),
			OwnerID:      ownerID,
			Title:        title,
			Price:        price,
			CurrencyCode: strings.ToUpper(currencyCode),
			Location:     location,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		_, insertErr := collection.InsertOne(ctx, newListing)
		return insertErr
	}

	if err := db.Try(operation); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return newListing, nil
}

// FindListingByID returns a non-deleted listing.
func (s *listingService) FindListingByID(ctx context.Context, listingID string) (*models.Listing, error) {
	var listing models.Listing
	err := s.db.Collection(db.ListingsCollection).FindOne(ctx, bson.M{"_id": listingID, "deleted": false}).Decode(&listing)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrListingNotFound
		}
		return nil, fmt.Errorf("error finding listing %s: %w", listingID, err)
	}
	return &listing, nil
}

// FindListingsByIDs returns the non-deleted listings among listingIDs. Missing ids are skipped.
func (s *listingService) FindListingsByIDs(ctx context.Context, listingIDs []string) ([]models.Listing, error) {
	listings := []models.Listing{}
	if len(listingIDs) == 0 {
		return listings, nil
	}

	cursor, err := s.db.Collection(db.ListingsCollection).Find(ctx, bson.M{
		"_id":     bson.M{"$in": listingIDs},
		"deleted": false,
	})
	if err != nil {
		return nil, fmt.Errorf("error finding listings: %w", err)
	}
	defer cursor.Close(ctx)

	if err := cursor.All(ctx, &listings); err != nil {
		return nil, fmt.Errorf("error decoding listings: %w", err)
	}
	return listings, nil
}
