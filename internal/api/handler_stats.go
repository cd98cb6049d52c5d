package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"remnant-inventory-backend/internal/stats"
)

// parseRange builds the date range from query parameters. The lastMonth
// shorthand takes precedence over explicit bounds.
func parseRange(c *gin.Context) (stats.Range, bool) {
	r := stats.Range{LastMonth: c.Query("lastMonth") == "true"}

	if raw := c.Query("start"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'start' timestamp, use RFC3339"})
			return r, false
		}
		r.Start = &t
	}
	if raw := c.Query("end"); raw != "" {
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid 'end' timestamp, use RFC3339"})
			return r, false
		}
		r.End = &t
	}
	return r, true
}

// MachineStats handles GET /api/stats/machines/:machineId.
func (h *Handler) MachineStats(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}

	report, err := h.stats.MachineStats(c.Request.Context(), c.Param("machineId"), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// StatsSummary handles GET /api/stats/summary.
func (h *Handler) StatsSummary(c *gin.Context) {
	r, ok := parseRange(c)
	if !ok {
		return
	}

	report, err := h.stats.Summary(c.Request.Context(), r)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// LiveStats handles GET /api/stats/live.
func (h *Handler) LiveStats(c *gin.Context) {
	report, err := h.stats.Live(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
