package api

import (
	"github.com/SherClockHolmes/webpush-go"

	"remnant-inventory-backend/config"
	"remnant-inventory-backend/internal/notification"
	"remnant-inventory-backend/internal/rt"
	"remnant-inventory-backend/internal/stats"
	"remnant-inventory-backend/internal/store"
)

// Handler holds shared dependencies for API handlers.
type Handler struct {
	store   store.Store
	stats   *stats.Aggregator
	hub     *rt.Hub
	pool    *notification.WorkerPool
	uploads config.UploadsConfig
	webpush *webpush.Options
}

// NewHandler creates a new API handler.
func NewHandler(s store.Store, agg *stats.Aggregator, hub *rt.Hub, pool *notification.WorkerPool, uploads config.UploadsConfig, webpushOptions *webpush.Options) *Handler {
	return &Handler{
		store:   s,
		stats:   agg,
		hub:     hub,
		pool:    pool,
		uploads: uploads,
		webpush: webpushOptions,
	}
}
