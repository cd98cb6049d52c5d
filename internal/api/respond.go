package api

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"remnant-inventory-backend/internal/store"
)

// respondError maps store errors to HTTP responses. Client errors carry the
// offending condition; storage faults are logged and return a generic
// message, with detail exposed only in debug mode.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrInsufficientQuantity):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "insufficient_quantity",
		})
	case errors.Is(err, store.ErrInvalidInput):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, store.ErrMachineNotFound):
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, store.ErrConflict):
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("storage fault: %v", err)
		body := gin.H{"error": "internal server error"}
		if gin.IsDebugging() {
			body["detail"] = err.Error()
		}
		c.AbortWithStatusJSON(http.StatusInternalServerError, body)
	}
}
