package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"remnant-inventory-backend/internal/rt"
	"remnant-inventory-backend/internal/store"
)

type createClientOrderRequest struct {
	ClientName    string  `json:"clientName" binding:"required"`
	MaterialType  string  `json:"materialType" binding:"required"`
	Length        float64 `json:"length" binding:"required"`
	Width         float64 `json:"width" binding:"required"`
	Thickness     float64 `json:"thickness" binding:"required"`
	Quantity      int     `json:"quantity" binding:"required"`
	ReceiptNumber int     `json:"receiptNumber" binding:"required"`
	Note          string  `json:"note"`
}

type replaceClientOrderRequest struct {
	ClientName    *string  `json:"clientName"`
	MaterialType  *string  `json:"materialType"`
	Length        *float64 `json:"length"`
	Width         *float64 `json:"width"`
	Thickness     *float64 `json:"thickness"`
	Quantity      *int     `json:"quantity"`
	ReceiptNumber *int     `json:"receiptNumber"`
	Available     *bool    `json:"available"`
	Note          *string  `json:"note"`
}

// ListClientOrders handles GET /api/clients.
func (h *Handler) ListClientOrders(c *gin.Context) {
	orders, err := h.store.ListClientOrders(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

// GetClientOrder handles GET /api/clients/:id.
func (h *Handler) GetClientOrder(c *gin.Context) {
	order, err := h.store.GetClientOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// CreateClientOrder handles POST /api/clients.
func (h *Handler) CreateClientOrder(c *gin.Context) {
	var req createClientOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": "clientName, materialType, dimensions, quantity and receiptNumber are required",
		})
		return
	}

	order, err := h.store.CreateClientOrder(c.Request.Context(), store.ClientOrderFields{
		ClientName:    &req.ClientName,
		MaterialType:  &req.MaterialType,
		Length:        &req.Length,
		Width:         &req.Width,
		Thickness:     &req.Thickness,
		Quantity:      &req.Quantity,
		ReceiptNumber: &req.ReceiptNumber,
		Note:          &req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(rt.EventClientCreated, order)
	c.JSON(http.StatusCreated, order)
}

// ReplaceClientOrder handles PUT /api/clients/:id. Raw administrative
// update, same asymmetry as ReplaceRemnant.
func (h *Handler) ReplaceClientOrder(c *gin.Context) {
	var req replaceClientOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "malformed request body"})
		return
	}

	order, err := h.store.ReplaceClientOrder(c.Request.Context(), c.Param("id"), store.ClientOrderFields{
		ClientName:    req.ClientName,
		MaterialType:  req.MaterialType,
		Length:        req.Length,
		Width:         req.Width,
		Thickness:     req.Thickness,
		Quantity:      req.Quantity,
		ReceiptNumber: req.ReceiptNumber,
		Available:     req.Available,
		Note:          req.Note,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(rt.EventClientUpdated, order)
	c.JSON(http.StatusOK, order)
}

// ConsumeClientOrder handles PUT /api/clients/:id/consume.
func (h *Handler) ConsumeClientOrder(c *gin.Context) {
	var req consumeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "amount is required"})
		return
	}

	result, err := h.store.ConsumeClientOrder(c.Request.Context(), c.Param("id"), req.Amount)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(rt.EventClientUpdated, result.Order)
	if result.Exhausted() {
		h.hub.Broadcast(rt.EventClientExhausted, result.Order)
	}
	if result.Order.Available {
		h.hub.Broadcast(rt.EventClientStillAvailable, result.Order)
	}

	c.JSON(http.StatusOK, result.Order)
}

// DeleteClientOrder handles DELETE /api/clients/:id.
func (h *Handler) DeleteClientOrder(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteClientOrder(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(rt.EventClientDeleted, id)
	c.JSON(http.StatusOK, gin.H{"message": "client order deleted", "id": id})
}
