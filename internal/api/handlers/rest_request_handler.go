package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"sublet/rentals/internal/api/middleware"
	"sublet/rentals/internal/logger"
	"sublet/rentals/internal/models"
	"sublet/rentals/internal/offers"
	"sublet/rentals/internal/services"
	"sublet/rentals/internal/tasks"
)

// RestRequestHandler handles the renter and owner sides of rental requests.
type RestRequestHandler struct {
	requestService services.IRequestService
	listingService services.IListingService
	taskClient     tasks.IAsynqClient
	log            *zap.SugaredLogger
}

// NewRestRequestHandler creates a new RestRequestHandler.
func NewRestRequestHandler(requestService services.IRequestService, listingService services.IListingService, taskClient tasks.IAsynqClient, l *zap.SugaredLogger) *RestRequestHandler {
	return &RestRequestHandler{
		requestService: requestService,
		listingService: listingService,
		taskClient:     taskClient,
		log:            logger.OrNop(l),
	}
}

// CreateRequestBody is the payload of POST /v1/requests. The owner and the
// counter-offer type are derived from the listing.
type CreateRequestBody struct {
	ListingID   string     `json:"listing_id" binding:"required"`
	OfferAmount *float64   `json:"offer_amount,omitempty"`
	Reason      string     `json:"reason,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	Message     string     `json:"message,omitempty"`
}

func (b CreateRequestBody) dates() (*models.DateRange, error) {
	if b.StartDate == nil && b.EndDate == nil {
		return nil, nil
	}
	if b.StartDate == nil || b.EndDate == nil {
		return nil, errors.New("start_date and end_date must be given together")
	}
	d := &models.DateRange{StartDate: b.StartDate.UTC(), EndDate: b.EndDate.UTC()}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// ListRequests handles GET /v1/requests
func (h *RestRequestHandler) ListRequests(c *gin.Context) {
	requests, err := h.requestService.FindRequestsByRenter(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

// ListIncoming handles GET /v1/requests/incoming
func (h *RestRequestHandler) ListIncoming(c *gin.Context) {
	requests, err := h.requestService.FindRequestsByOwner(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve requests")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": requests})
}

// GetRequestByListing handles GET /v1/requests/listing/:listing_id
func (h *RestRequestHandler) GetRequestByListing(c *gin.Context) {
	req, err := h.requestService.FindRequestByListing(c.Request.Context(), c.Param("listing_id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to retrieve request")
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": req})
}

// CreateRequest handles POST /v1/requests
func (h *RestRequestHandler) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	listing, err := h.listingService.FindListingByID(ctx, body.ListingID)
	if err != nil {
		respondError(c, err, "Failed to retrieve listing")
		return
	}
	if listing.OwnerID == userID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cannot make an offer on your own listing"})
		return
	}

	data := models.CreateRequestData{
		ListingID: listing.ID,
		RenterID:  userID,
		OwnerID:   listing.OwnerID,
		Message:   strings.TrimSpace(body.Message),
	}
	if body.OfferAmount != nil {
		data.CounterOffer, err = offers.BuildCounterOffer(listing.Price, *body.OfferAmount, body.Reason)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if data.PreferredDates, err = body.dates(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := data.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	created, err := h.requestService.CreateRequest(ctx, data)
	if err != nil {
		respondError(c, err, "Failed to create request")
		return
	}

	h.notify(c, created, created.OwnerID, tasks.EventRequestCreated)
	c.JSON(http.StatusCreated, gin.H{"data": created})
}

// UpdateRequest handles PUT /v1/requests/:id
//
// Only the owner may update a request, and only its status. A submitted request
// is read-only for the renter. Everything else is taken from the stored request.
func (h *RestRequestHandler) UpdateRequest(c *gin.Context) {
	var incoming models.Request
	if err := c.ShouldBindJSON(&incoming); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}
	ctx := c.Request.Context()
	userID := middleware.UserID(c)

	stored, err := h.requestService.FindRequestByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err, "Failed to retrieve request")
		return
	}
	if incoming.Status == "" {
		incoming.Status = stored.Status
	}
	if !incoming.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown request status"})
		return
	}

	switch userID {
	case stored.OwnerID:
	case stored.RenterID:
		c.JSON(http.StatusForbidden, gin.H{"error": "Submitted requests are read-only"})
		return
	default:
		respondError(c, services.ErrNotParticipant, "")
		return
	}

	next := stored.Clone()
	next.Status = incoming.Status
	updated, err := h.requestService.UpdateRequest(ctx, next)
	if err != nil {
		respondError(c, err, "Failed to update request")
		return
	}

	if updated.Status != stored.Status {
		switch updated.Status {
		case models.StatusAccepted:
			h.notify(c, updated, updated.RenterID, tasks.EventRequestAccepted)
		case models.StatusRejected:
			h.notify(c, updated, updated.RenterID, tasks.EventRequestRejected)
		}
	}
	c.JSON(http.StatusOK, gin.H{"data": updated})
}

// DeleteRequest handles DELETE /v1/requests/:id
func (h *RestRequestHandler) DeleteRequest(c *gin.Context) {
	if err := h.requestService.DeleteRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c)); err != nil {
		respondError(c, err, "Failed to delete request")
		return
	}
	c.Status(http.StatusNoContent)
}

// AcceptRequest handles POST /v1/requests/:id/accept
func (h *RestRequestHandler) AcceptRequest(c *gin.Context) {
	req, err := h.requestService.AcceptRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to accept request")
		return
	}
	h.notify(c, req, req.RenterID, tasks.EventRequestAccepted)
	c.JSON(http.StatusOK, gin.H{"data": req})
}

// RejectRequest handles POST /v1/requests/:id/reject
func (h *RestRequestHandler) RejectRequest(c *gin.Context) {
	req, err := h.requestService.RejectRequest(c.Request.Context(), c.Param("id"), middleware.UserID(c))
	if err != nil {
		respondError(c, err, "Failed to reject request")
		return
	}
	h.notify(c, req, req.RenterID, tasks.EventRequestRejected)
	c.JSON(http.StatusOK, gin.H{"data": req})
}

// notify enqueues a notification; failures are logged and never fail the call.
func (h *RestRequestHandler) notify(c *gin.Context, req *models.Request, userID, event string) {
	if h.taskClient == nil {
		return
	}
	if err := tasks.EnqueueNotify(c.Request.Context(), h.taskClient, req, userID, event); err != nil {
		h.log.Warnw("Failed to enqueue notification", "request_id", req.ID, "event", event, "error", err)
	}
}
