package services

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sublet/rentals/internal/config"
	"sublet/rentals/internal/db"
	"sublet/rentals/internal/geo"
	"sublet/rentals/internal/models"
)

// IAreaService resolves coordinates to named neighbourhoods.
type IAreaService interface {
	ListAreas(ctx context.Context, city string) ([]models.Area, error)
	NearestArea(ctx context.Context, lat, lon float64) (*models.Area, float64, error)
	MatchArea(p geo.Point, areas []models.Area) *models.Area
}

type areaService struct {
	db    *mongo.Database
	maxKM float64
}

// NewAreaService creates a new AreaService.
func NewAreaService(database *mongo.Database, cfg *config.Config) IAreaService {
	return &areaService{db: database, maxKM: cfg.AreaMatchMaxKM}
}

// ListAreas returns the areas of a city sorted by name. An empty city lists all areas.
func (s *areaService) ListAreas(ctx context.Context, city string) ([]models.Area, error) {
	filter := bson.M{}
	if city != "" {
		filter["city"] = city
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})

	cursor, err := s.db.Collection(db.AreasCollection).Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("error listing areas: %w", err)
	}
	defer cursor.Close(ctx)

	areas := []models.Area{}
	if err := cursor.All(ctx, &areas); err != nil {
		return nil, fmt.Errorf("error decoding areas: %w", err)
	}
	return areas, nil
}

// NearestArea returns the closest area within the configured radius, or nil when none is close enough.
func (s *areaService) NearestArea(ctx context.Context, lat, lon float64) (*models.Area, float64, error) {
	areas, err := s.ListAreas(ctx, "")
	if err != nil {
		return nil, 0, err
	}
	area, dist, ok := geo.Nearest(geo.Point{Lat: lat, Lon: lon}, areas, s.maxKM)
	if !ok {
		return nil, 0, nil
	}
	return area, dist, nil
}

// MatchArea is NearestArea over an already loaded set of areas.
func (s *areaService) MatchArea(p geo.Point, areas []models.Area) *models.Area {
	area, _, _ := geo.Nearest(p, areas, s.maxKM)
	return area
}
