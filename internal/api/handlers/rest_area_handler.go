package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"sublet/rentals/internal/services"
)

// RestAreaHandler handles requests for neighbourhood areas.
type RestAreaHandler struct {
	areaService services.IAreaService
}

func NewRestAreaHandler(areaService services.IAreaService) *RestAreaHandler {
	return &RestAreaHandler{areaService: areaService}
}

// ListAreas handles GET /v1/areas?city=
func (h *RestAreaHandler) ListAreas(c *gin.Context) {
	areas, err := h.areaService.ListAreas(c.Request.Context(), c.Query("city"))
	if err != nil {
		respondError(c, err, "Failed to list areas")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": areas})
}

// NearestArea handles GET /v1/areas/nearest?lat=&lon=
func (h *RestAreaHandler) NearestArea(c *gin.Context) {
	lat, latErr := strconv.ParseFloat(c.Query("lat"), 64)
	lon, lonErr := strconv.ParseFloat(c.Query("lon"), 64)
	if latErr != nil || lonErr != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Valid lat and lon query parameters are required"})
		return
	}

	area, dist, err := h.areaService.NearestArea(c.Request.Context(), lat, lon)
	if err != nil {
		respondError(c, err, "Failed to find area")
		return
	}
	if area == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No area nearby"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": area, "distance_km": dist})
}
