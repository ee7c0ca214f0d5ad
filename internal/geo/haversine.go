package geo

import (
	"math"

	"sublet/rentals/internal/models"
)

// EarthRadiusKM is the mean Earth radius used for great-circle distances.
const EarthRadiusKM = 6371.0

// Point is a latitude/longitude pair in decimal degrees.
type Point struct {
	Lat float64
	Lon float64
}

// FromGeoJSON converts a GeoJSON point; ok is false for nil or malformed input.
func FromGeoJSON(g *models.GeoJSON) (Point, bool) {
	lat, lon, ok := g.LatLon()
	return Point{Lat: lat, Lon: lon}, ok
}

// DistanceKM returns the Haversine great-circle distance between a and b.
func DistanceKM(a, b Point) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLon := toRad(b.Lon - a.Lon)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKM * math.Asin(math.Min(1, math.Sqrt(h)))
}

// Nearest returns the area whose centre is closest to p and no further than maxKM.
// Areas without a usable centre are ignored. maxKM <= 0 means unbounded.
// Ties keep the earlier area so results are stable for a given input order.
func Nearest(p Point, areas []models.Area, maxKM float64) (*models.Area, float64, bool) {
	bestIdx := -1
	bestDist := math.Inf(1)
	for i := range areas {
		c, ok := FromGeoJSON(areas[i].Location)
		if !ok {
			continue
		}
		d := DistanceKM(p, c)
		if d < bestDist {
			bestIdx, bestDist = i, d
		}
	}
	if bestIdx < 0 || (maxKM > 0 && bestDist > maxKM) {
		return nil, 0, false
	}
	area := areas[bestIdx]
	return &area, bestDist, true
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
