// api/handlers/audit_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"example.com/coldchain/internal/repository"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AuditHandler handles audit log requests
type AuditHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewAuditHandler creates a new AuditHandler instance
func NewAuditHandler(svc service.Service, log *logrus.Logger) *AuditHandler {
	return &AuditHandler{
		service: svc,
		log:     log,
	}
}

// ListAuditLogs handles audit trail listing with optional filters
func (h *AuditHandler) ListAuditLogs(c *gin.Context) {
	filter := repository.AuditFilter{
		Action:  c.Query("action"),
		ActorID: c.Query("actor_id"),
	}
	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid limit",
			})
			return
		}
		filter.Limit = limit
	}

	entries, err := h.service.ListAuditLogs(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list audit logs")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list audit logs",
		})
		return
	}

	c.JSON(http.StatusOK, entries)
}
