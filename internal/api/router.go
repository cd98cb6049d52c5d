package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"remnant-inventory-backend/config"
	"remnant-inventory-backend/internal/mw"
	"remnant-inventory-backend/internal/rt"
)

// NewRouter creates and configures a new Gin router.
func NewRouter(h *Handler, hub *rt.Hub, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	rateLimiter := mw.RateLimiter(rate.Limit(cfg.Server.RateLimitPerSec), cfg.Server.RateLimitBurst)

	cacheTTL := time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	cacheStore := cache.New(cacheTTL, 2*cacheTTL)
	caching := mw.Cache(cacheStore, cacheTTL)

	// Health check.
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "OK",
			"timestamp": time.Now().UTC(),
		})
	})

	// Realtime channel.
	r.GET("/ws", rt.ServeWS(hub))

	// Uploaded images are served from disk only in disk mode; inline mode
	// embeds them in the records.
	if cfg.Uploads.Mode == "disk" {
		r.Static("/uploads", cfg.Uploads.Dir)
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		machines := api.Group("/machines")
		{
			machines.GET("", h.ListMachines)
			machines.POST("", h.CreateMachine)
			machines.GET("/:id", h.GetMachine)
			machines.PUT("/:id", h.RenameMachine)
			machines.DELETE("/:id", h.DeleteMachine)
		}

		remnants := api.Group("/remnants")
		{
			remnants.GET("", h.ListRemnants)
			remnants.GET("/available", h.ListAvailableRemnants)
			remnants.GET("/consumed", h.ListConsumedRemnants)
			remnants.POST("", h.CreateRemnant)
			remnants.GET("/machine/:machineId", h.ListRemnantsByMachine)
			remnants.GET("/machine/:machineId/pending", h.PendingRemnantsPage)
			remnants.GET("/machine/:machineId/state/:state", h.RemnantsPageByState)
			remnants.GET("/thickness/:thickness", h.ListRemnantsByThickness)
			remnants.GET("/:id", h.GetRemnant)
			remnants.PUT("/:id", h.ReplaceRemnant)
			remnants.PUT("/:id/consume", h.ConsumeRemnant)
			remnants.DELETE("/:id", h.DeleteRemnant)
		}

		clients := api.Group("/clients")
		{
			clients.GET("", h.ListClientOrders)
			clients.POST("", h.CreateClientOrder)
			clients.GET("/:id", h.GetClientOrder)
			clients.PUT("/:id", h.ReplaceClientOrder)
			clients.PUT("/:id/consume", h.ConsumeClientOrder)
			clients.DELETE("/:id", h.DeleteClientOrder)
		}

		statsGroup := api.Group("/stats")
		{
			statsGroup.GET("/machines/:machineId", caching, h.MachineStats)
			statsGroup.GET("/summary", caching, h.StatsSummary)
			statsGroup.GET("/live", h.LiveStats)
		}

		api.GET("/subscriptions", h.GetSubscription)
		api.PUT("/subscriptions", h.PutSubscription)
		api.DELETE("/subscriptions", h.DeleteSubscription)
		api.GET("/vapid_public_key", h.GetVAPIDPublicKey)
	}

	return r
}
