package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sublet/rentals/internal/api/middleware"
	"sublet/rentals/internal/services"
)

type RestFavoriteHandler struct {
	favoriteService services.IFavoriteService
}

func NewRestFavoriteHandler(favoriteService services.IFavoriteService) *RestFavoriteHandler {
	return &RestFavoriteHandler{favoriteService: favoriteService}
}

// ListFavorites handles GET /v1/favorites
func (h *RestFavoriteHandler) ListFavorites(c *gin.Context) {
	listings, err := h.favoriteService.ListFavorites(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": listings})
}

// GroupFavorites handles GET /v1/favorites/areas
func (h *RestFavoriteHandler) GroupFavorites(c *gin.Context) {
	groups, err := h.favoriteService.GroupFavoritesByArea(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to group favorites")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": groups})
}

// AddFavorite handles POST /v1/favorites/:listing_id
func (h *RestFavoriteHandler) AddFavorite(c *gin.Context) {
	fav, err := h.favoriteService.AddFavorite(c.Request.Context(), middleware.UserID(c), c.Param("listing_id"))
	if err != nil {
		respondError(c, err, "Failed to add favorite")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": fav})
}

// RemoveFavorite handles DELETE /v1/favorites/:listing_id
func (h *RestFavoriteHandler) RemoveFavorite(c *gin.Context) {
	if err := h.favoriteService.RemoveFavorite(c.Request.Context(), middleware.UserID(c), c.Param("listing_id")); err != nil {
		respondError(c, err, "Failed to remove favorite")
		return
	}
	c.Status(http.StatusNoContent)
}
