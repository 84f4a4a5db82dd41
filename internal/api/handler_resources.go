package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetResources handles GET /api/resources and GET /api/resources/:kind.
// The kind filter can arrive as a path or a query parameter.
func (h *Handler) GetResources(c *gin.Context) {
	kind := c.Param("kind")
	if kind == "" {
		kind = c.Query("kind")
	}
	resources, err := h.store.ListResources(c.Request.Context(), kind)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to retrieve resources"})
		return
	}
	c.JSON(http.StatusOK, resources)
}
