package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sublet/rentals/internal/db"
	"sublet/rentals/internal/geo"
	"sublet/rentals/internal/models"
)

// OtherAreaName labels the group of favourites that matched no area.
const OtherAreaName = "Other"

// IFavoriteService manages a user's favourite listings.
type IFavoriteService interface {
	AddFavorite(ctx context.Context, userID, listingID string) (*models.Favorite, error)
	RemoveFavorite(ctx context.Context, userID, listingID string) error
	ListFavorites(ctx context.Context, userID string) ([]models.Listing, error)
	GroupFavoritesByArea(ctx context.Context, userID string) ([]models.FavoriteGroup, error)
}

type favoriteService struct {
	db       *mongo.Database
	listings IListingService
	areas    IAreaService
}

// NewFavoriteService creates a new FavoriteService.
func NewFavoriteService(database *mongo.Database, listings IListingService, areas IAreaService) IFavoriteService {
	return &favoriteService{db: database, listings: listings, areas: areas}
}

// AddFavorite marks the listing as a favourite. Adding it twice is a no-op.
func (s *favoriteService) AddFavorite(ctx context.Context, userID, listingID string) (*models.Favorite, error) {
	if _, err := s.listings.FindListingByID(ctx, listingID); err != nil {
		return nil, err
	}

	fav := &models.Favorite{UserID: userID, ListingID: listingID, CreatedAt: time.Now().UTC()}
	fav.GenID()

	filter := bson.M{"user_id": userID, "listing_id": listingID}
	update := bson.M{"$setOnInsert": fav}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var stored models.Favorite
	err := s.db.Collection(db.FavoritesCollection).FindOneAndUpdate(ctx, filter, update, opts).Decode(&stored)
	if err != nil {
		return nil, fmt.Errorf("failed to add favorite %s for user %s: %w", listingID, userID, err)
	}
	return &stored, nil
}

// RemoveFavorite unmarks the listing. Removing a listing that is not a favourite is not an error.
func (s *favoriteService) RemoveFavorite(ctx context.Context, userID, listingID string) error {
	_, err := s.db.Collection(db.FavoritesCollection).DeleteOne(ctx, bson.M{"user_id": userID, "listing_id": listingID})
	if err != nil {
		return fmt.Errorf("failed to remove favorite %s for user %s: %w", listingID, userID, err)
	}
	return nil
}

// ListFavorites returns the user's favourite listings, most recently added first.
func (s *favoriteService) ListFavorites(ctx context.Context, userID string) ([]models.Listing, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := s.db.Collection(db.FavoritesCollection).Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("error finding favorites for user %s: %w", userID, err)
	}
	defer cursor.Close(ctx)

	var favorites []models.Favorite
	if err := cursor.All(ctx, &favorites); err != nil {
		return nil, fmt.Errorf("error decoding favorites for user %s: %w", userID, err)
	}

	ids := make([]string, 0, len(favorites))
	for _, f := range favorites {
		ids = append(ids, f.ListingID)
	}
	found, err := s.listings.FindListingsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]models.Listing, len(found))
	for _, l := range found {
		byID[l.ID] = l
	}
	listings := make([]models.Listing, 0, len(found))
	for _, id := range ids {
		if l, ok := byID[id]; ok {
			listings = append(listings, l)
		}
	}
	return listings, nil
}

// GroupFavoritesByArea groups the user's favourites by nearest area.
func (s *favoriteService) GroupFavoritesByArea(ctx context.Context, userID string) ([]models.FavoriteGroup, error) {
	listings, err := s.ListFavorites(ctx, userID)
	if err != nil {
		return nil, err
	}
	areas, err := s.areas.ListAreas(ctx, "")
	if err != nil {
		return nil, err
	}
	return GroupByArea(listings, areas, s.areas.MatchArea), nil
}

// GroupByArea buckets listings by the area match returns. Listings without a
// location or without a match fall into the "Other" group. Groups are sorted by
// area name with "Other" last; listings keep their input order.
func GroupByArea(listings []models.Listing, areas []models.Area, match func(geo.Point, []models.Area) *models.Area) []models.FavoriteGroup {
	groups := map[string]*models.FavoriteGroup{}
	var other *models.FavoriteGroup

	for _, l := range listings {
		var area *models.Area
		if p, ok := geo.FromGeoJSON(l.Location); ok {
			area = match(p, areas)
		}
		if area == nil {
			if other == nil {
				other = &models.FavoriteGroup{Name: OtherAreaName}
			}
			other.Listings = append(other.Listings, l)
			continue
		}
		g, ok := groups[area.ID]
		if !ok {
			g = &models.FavoriteGroup{Area: area, Name: area.Name}
			groups[area.ID] = g
		}
		g.Listings = append(g.Listings, l)
	}

	result := make([]models.FavoriteGroup, 0, len(groups)+1)
	for _, g := range groups {
		result = append(result, *g)
	}
	sort.Slice(result, func(i, j int) bool {
		ni, nj := strings.ToLower(result[i].Name), strings.ToLower(result[j].Name)
		if ni != nj {
			return ni < nj
		}
		return result[i].Area.ID < result[j].Area.ID
	})
	if other != nil {
		result = append(result, *other)
	}
	return result
}
