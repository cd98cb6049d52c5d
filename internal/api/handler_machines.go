package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"remnant-inventory-backend/internal/rt"
)

type machineRequest struct {
	Name string `json:"name" binding:"required"`
}

// ListMachines handles GET /api/machines.
func (h *Handler) ListMachines(c *gin.Context) {
	machines, err := h.store.ListMachines(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machines)
}

// GetMachine handles GET /api/machines/:id.
func (h *Handler) GetMachine(c *gin.Context) {
	machine, err := h.store.GetMachine(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

// CreateMachine handles POST /api/machines.
func (h *Handler) CreateMachine(c *gin.Context) {
	var req machineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "machine name is required"})
		return
	}

	machine, err := h.store.CreateMachine(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(rt.EventMachineCreated, machine)
	c.JSON(http.StatusCreated, machine)
}

// RenameMachine handles PUT /api/machines/:id.
func (h *Handler) RenameMachine(c *gin.Context) {
	var req machineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "machine name is required"})
		return
	}

	machine, err := h.store.RenameMachine(c.Request.Context(), c.Param("id"), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, machine)
}

// DeleteMachine handles DELETE /api/machines/:id. Deleting a machine
// cascades to its remnants.
func (h *Handler) DeleteMachine(c *gin.Context) {
	id := c.Param("id")
	if err := h.store.DeleteMachine(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}

	h.hub.Broadcast(rt.EventMachineDeleted, id)
	c.JSON(http.StatusOK, gin.H{"message": "machine deleted", "id": id})
}
