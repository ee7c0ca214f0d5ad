package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"sublet/rentals/internal/api/handlers"
	"sublet/rentals/internal/api/middleware"
	"sublet/rentals/internal/config"
	"sublet/rentals/internal/logger"
	"sublet/rentals/internal/services"
	"sublet/rentals/internal/tasks"
)

// Services bundles everything the REST handlers depend on.
type Services struct {
	Requests  services.IRequestService
	Listings  services.IListingService
	Chats     services.IChatService
	Favorites services.IFavoriteService
	Areas     services.IAreaService
}

// SetupRouter builds the Mongo/Redis backed services and returns the main Gin engine.
func SetupRouter(cfg *config.Config, db *mongo.Database, rdb *redis.Client, taskClient tasks.IAsynqClient, rateLimiter *middleware.RateLimiterMiddleware, log *zap.SugaredLogger) *gin.Engine {
	listingService := services.NewListingService(db)
	areaService := services.NewAreaService(db, cfg)
	svcs := Services{
		Requests:  services.NewRequestService(db),
		Listings:  listingService,
		Chats:     services.NewCachedChatService(services.NewChatService(db), rdb, cfg.ChatCacheTTL, log),
		Favorites: services.NewFavoriteService(db, listingService, areaService),
		Areas:     areaService,
	}
	return NewEngine(cfg, svcs, taskClient, rateLimiter, log)
}

// NewEngine wires handlers and middleware over the given services.
// rateLimiter may be nil, in which case requests are not throttled.
func NewEngine(cfg *config.Config, svcs Services, taskClient tasks.IAsynqClient, rateLimiter *middleware.RateLimiterMiddleware, log *zap.SugaredLogger) *gin.Engine {
	log = logger.OrNop(log)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORSMiddleware(cfg.CorsAllowedOrigin))

	restRequestHandler := handlers.NewRestRequestHandler(svcs.Requests, svcs.Listings, taskClient, log)
	restChatHandler := handlers.NewRestChatHandler(svcs.Requests, svcs.Chats)
	restListingHandler := handlers.NewRestListingHandler(svcs.Listings)
	restFavoriteHandler := handlers.NewRestFavoriteHandler(svcs.Favorites)
	restAreaHandler := handlers.NewRestAreaHandler(svcs.Areas)

	v1 := r.Group("/v1")
	{
		v1.GET("/ping", func(c *gin.Context) {
			c.String(http.StatusOK, "pong")
		})

		authRequired := v1.Group("/")
		authRequired.Use(middleware.AuthMiddleware(cfg.JwtSecret))
		if rateLimiter != nil {
			authRequired.Use(rateLimiter.Limit())
		}
		{
			authRequired.GET("/requests", restRequestHandler.ListRequests)
			authRequired.GET("/requests/incoming", restRequestHandler.ListIncoming)
			authRequired.GET("/requests/listing/:listing_id", restRequestHandler.GetRequestByListing)
			authRequired.POST("/requests", restRequestHandler.CreateRequest)
			authRequired.PUT("/requests/:id", restRequestHandler.UpdateRequest)
			authRequired.DELETE("/requests/:id", restRequestHandler.DeleteRequest)
			authRequired.POST("/requests/:id/accept", restRequestHandler.AcceptRequest)
			authRequired.POST("/requests/:id/reject", restRequestHandler.RejectRequest)

			authRequired.GET("/chats/:chat_id/messages", restChatHandler.GetMessages)
			authRequired.POST("/chats/:chat_id/messages", restChatHandler.SendMessage)

			authRequired.GET("/listings/:id", restListingHandler.GetListingByID)
			authRequired.POST("/listings", restListingHandler.CreateListing)

			authRequired.GET("/favorites", restFavoriteHandler.ListFavorites)
			authRequired.GET("/favorites/areas", restFavoriteHandler.GroupFavorites)
			authRequired.POST("/favorites/:listing_id", restFavoriteHandler.AddFavorite)
			authRequired.DELETE("/favorites/:listing_id", restFavoriteHandler.RemoveFavorite)

			authRequired.GET("/areas", restAreaHandler.ListAreas)
			authRequired.GET("/areas/nearest", restAreaHandler.NearestArea)
		}
	}

	return r
}

// SetupServiceRouter returns the internal service engine: shutdown control,
// notification inbox inspection and Prometheus metrics.
func SetupServiceRouter(inbox tasks.INotificationInbox, shutdownChan chan<- struct{}, log *zap.SugaredLogger) *gin.Engine {
	log = logger.OrNop(log)

	r := gin.New()
	r.Use(middleware.RequestLogger(log), gin.Recovery())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/api", func(c *gin.Context) {
		var req struct {
			Method    string          `json:"method"`
			Arguments json.RawMessage `json:"arguments"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid request format"})
			return
		}

		switch req.Method {
		case "shutdown":
			log.Info("Received shutdown command via Service API")
			c.JSON(http.StatusOK, gin.H{"success": true, "result": "Shutdown initiated"})
			select {
			case shutdownChan <- struct{}{}:
			default:
				log.Warn("Shutdown channel already signaled")
			}
		case "getNotifications":
			var args []string // ["userID"]
			if err := json.Unmarshal(req.Arguments, &args); err != nil || len(args) != 1 || args[0] == "" {
				c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "Invalid arguments: expected JSON array [userID]"})
				return
			}
			ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
			defer cancel()
			items, err := inbox.List(ctx, args[0], tasks.InboxSize)
			if err != nil {
				log.Errorw("Service API: failed to read notifications", "user", args[0], "error", err)
				c.JSON(http.StatusInternalServerError, gin.H{"success": false, "error": "Redis error"})
				return
			}
			c.JSON(http.StatusOK, gin.H{"success": true, "data": items})
		default:
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": fmt.Sprintf("Unknown service method: %s", req.Method)})
		}
	})
	return r
}
