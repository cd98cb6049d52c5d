package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"remnant-inventory-backend/internal/rt"
	"remnant-inventory-backend/internal/store"
)

type createRemnantRequest struct {
	MachineID string  `form:"machineId" json:"machineId" binding:"required"`
	Length    float64 `form:"length" json:"length" binding:"required"`
	Width     float64 `form:"width" json:"width" binding:"required"`
	Thickness float64 `form:"thickness" json:"thickness" binding:"required"`
	Quantity  int     `form:"quantity" json:"quantity" binding:"required"`
	Note      string  `form:"note" json:"note"`
}

type replaceRemnantRequest struct {
	MachineID *string  `form:"machineId" json:"machineId"`
	Length    *float64 `form:"length" json:"length"`
	Width     *float64 `form:"width" json:"width"`
	Thickness *float64 `form:"thickness" json:"thickness"`
	Quantity  *int     `form:"quantity" json:"quantity"`
	Available *bool    `form:"available" json:"available"`
	Note      *string  `form:"note" json:"note"`
}

type consumeRequest struct {
	Amount int `json:"amount" binding:"required"`
}

// ListRemnants handles GET /api/remnants, optionally filtered by the
// `available` query parameter.
func (h *Handler) ListRemnants(c *gin.Context) {
	var filter store.RemnantFilter
	if v, ok := c.GetQuery("available"); ok {
		available := v == "true"
		filter.Available = &available
	}

	remnants, err := h.store.ListRemnants(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, remnants)
}

// ListAvailableRemnants handles GET /api/remnants/available.
func (h *Handler) ListAvailableRemnants(c *gin.Context) {
	available := true
	remnants, err := h.store.ListRemnants(c.Request.Context(), store.RemnantFilter{Available: &available})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, remnants)
}

// ListConsumedRemnants handles GET /api/remnants/consumed.
func (h *Handler) ListConsumedRemnants(c *gin.Context) {
	available := false
	remnants, err := h.store.ListRemnants(c.Request.Context(), store.RemnantFilter{Available: &available})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, remnants)
}

// ListRemnantsByMachine handles GET /api/remnants/machine/:machineId.
func (h *Handler) ListRemnantsByMachine(c *gin.Context) {
	remnants, err := h.store.ListRemnants(c.Request.Context(), store.RemnantFilter{
		MachineID: c.Param("machineId"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, remnants)
}

// ListRemnantsByThickness handles GET /api/remnants/thickness/:thickness.
func (h *Handler) ListRemnantsByThickness(c *gin.Context) {
	thickness, err := strconv.ParseFloat(c.Param("thickness"), 64)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid thickness"})
		return
	}

	remnants, err := h.store.ListRemnants(c.Request.Context(), store.RemnantFilter{Thickness: &thickness})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, remnants)
}

// GetRemnant handles GET /api/remnants/:id.
func (h *Handler) GetRemnant(c *gin.Context) {
	remnant, err := h.store.GetRemnant(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, remnant)
}

// CreateRemnant handles POST /api/remnants. Accepts JSON or a multipart
// form with an optional image part.
func (h *Handler) CreateRemnant(c *gin.Context) {
	var req createRemnantRequest
	if err := c.ShouldBind(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "length, width, thickness, quantity and machineId are required",
		})
		return
	}

	fields := store.RemnantFields{
		MachineID: &req.MachineID,
		Length:    &req.Length,
		Width:     &req.Width,
		Thickness: &req.Thickness,
		Quantity:  &req.Quantity,
		Note:      &req.Note,
	}

	if fh, err := c.FormFile("image"); err == nil {
		stored, err := h.processImage(fh)
		if err != nil {
			respondError(c, err)
			return
		}
		fields.Image = &stored
	}

	remnant, err := h.store.CreateRemnant(c.Request.Context(), fields)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(rt.EventCreated, remnant)
	c.JSON(http.StatusCreated, remnant)
}

// ReplaceRemnant handles PUT /api/remnants/:id. This is the administrative
// path: supplied fields are written verbatim, including quantity and
// availability, without the coupling Consume enforces.
func (h *Handler) ReplaceRemnant(c *gin.Context) {
	var req replaceRemnantRequest
	if err := c.ShouldBind(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	fields := store.RemnantFields{
		MachineID: req.MachineID,
		Length:    req.Length,
		Width:     req.Width,
		Thickness: req.Thickness,
		Quantity:  req.Quantity,
		Available: req.Available,
		Note:      req.Note,
	}

	var replacedImage string
	if fh, err := c.FormFile("image"); err == nil {
		prior, err := h.store.GetRemnant(c.Request.Context(), c.Param("id"))
		if err != nil {
			respondError(c, err)
			return
		}
		stored, err := h.processImage(fh)
		if err != nil {
			respondError(c, err)
			return
		}
		fields.Image = &stored
		replacedImage = prior.Image
	}

	remnant, err := h.store.ReplaceRemnant(c.Request.Context(), c.Param("id"), fields)
	if err != nil {
		respondError(c, err)
		return
	}
	h.removeStoredImage(replacedImage)

	h.hub.Broadcast(rt.EventUpdated, remnant)
	c.JSON(http.StatusOK, remnant)
}

// ConsumeRemnant handles PUT /api/remnants/:id/consume: the
// invariant-enforcing quantity decrement.
func (h *Handler) ConsumeRemnant(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	result, err := h.store.Consume(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(rt.EventUpdated, result.Remnant)
	if result.Exhausted() {
		h.hub.Broadcast(rt.EventExhausted, result.Remnant)
		h.pool.Dispatch(result.Remnant.ID)
	}
	if result.Remnant.Available {
		h.hub.Broadcast(rt.EventStillAvailable, result.Remnant)
	}

	c.JSON(http.StatusOK, result.Remnant)
}

// DeleteRemnant handles DELETE /api/remnants/:id.
func (h *Handler) DeleteRemnant(c *gin.Context) {
	id := c.Param("id")

	remnant, err := h.store.GetRemnant(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.store.DeleteRemnant(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	h.removeStoredImage(remnant.Image)

	h.hub.Broadcast(rt.EventDeleted, id)
	c.JSON(http.StatusOK, gin.H{"message": "remnant deleted", "id": id})
}

// PendingRemnantsPage handles GET /api/remnants/machine/:machineId/pending:
// consumed remnants for a machine, paginated from the consumed view.
func (h *Handler) PendingRemnantsPage(c *gin.Context) {
	page := parsePage(c.Query("page"))
	result, err := h.store.RemnantPage(c.Request.Context(), c.Param("machineId"), false, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RemnantsPageByState handles GET /api/remnants/machine/:machineId/state/:state.
func (h *Handler) RemnantsPageByState(c *gin.Context) {
	var available bool
	switch c.Param("state") {
	case "true":
		available = true
	case "false":
		available = false
	default:
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": `state must be "true" or "false"`})
		return
	}

	page := parsePage(c.Query("page"))
	result, err := h.store.RemnantPage(c.Request.Context(), c.Param("machineId"), available, page)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func parsePage(raw string) int {
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 1
	}
	return page
}
