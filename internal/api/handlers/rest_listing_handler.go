package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sublet/rentals/internal/api/middleware"
	"sublet/rentals/internal/models"
	"sublet/rentals/internal/services"
)

// RestListingHandler handles REST requests for listings.
type RestListingHandler struct {
	listingService services.IListingService
}

// NewRestListingHandler creates a new RestListingHandler.
func NewRestListingHandler(listingService services.IListingService) *RestListingHandler {
	return &RestListingHandler{listingService: listingService}
}

type createListingBody struct {
	Title        string   `json:"title" binding:"required"`
	Price        float64  `json:"price" binding:"required,gt=0"`
	CurrencyCode string   `json:"currency_code"`
	Lat          *float64 `json:"lat,omitempty"`
	Lon          *float64 `json:"lon,omitempty"`
}

// GetListingByID handles GET /v1/listings/:id
func (h *RestListingHandler) GetListingByID(c *gin.Context) {
	listing, err := h.listingService.FindListingByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve listing")
		return
	}
	c.JSON(http.StatusOK, listing)
}

// CreateListing handles POST /v1/listings
func (h *RestListingHandler) CreateListing(c *gin.Context) {
	var body createListingBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid listing body"})
		return
	}
	if (body.Lat == nil) != (body.Lon == nil) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lon must be given together"})
		return
	}
	var location *models.GeoJSON
	if body.Lat != nil {
		location = models.NewPoint(*body.Lat, *body.Lon)
	}
	currency := body.CurrencyCode
	if currency == "" {
		currency = "USD"
	}

	listing, err := h.listingService.CreateListing(c.Request.Context(), middleware.UserID(c), body.Title, body.Price, currency, location)
	if err != nil {
		respondError(c, err, "Failed to create listing")
		return
	}
	c.JSON(http.StatusCreated, listing)
}
