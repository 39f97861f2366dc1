// api/handlers/alert_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"example.com/coldchain/api/middleware"
	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/repository"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// AlertHandler handles alert and alert rule requests
type AlertHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewAlertHandler creates a new AlertHandler instance
func NewAlertHandler(svc service.Service, log *logrus.Logger) *AlertHandler {
	return &AlertHandler{
		service: svc,
		log:     log,
	}
}

// CreateAlertRule handles alert rule creation
func (h *AlertHandler) CreateAlertRule(c *gin.Context) {
	var rule models.AlertRule
	if err := c.ShouldBindJSON(&rule); err != nil {
		h.log.WithError(err).Warn("Invalid alert rule format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid alert rule format",
		})
		return
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.CreateAlertRule(c.Request.Context(), &rule, actor); err != nil {
		h.log.WithError(err).Error("Failed to create alert rule")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create alert rule",
		})
		return
	}

	c.JSON(http.StatusCreated, rule)
}

// GetAlertRule handles alert rule retrieval
func (h *AlertHandler) GetAlertRule(c *gin.Context) {
	rule, err := h.service.GetAlertRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Alert rule not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get alert rule")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get alert rule",
		})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// ListAlertRules handles alert rule listing
func (h *AlertHandler) ListAlertRules(c *gin.Context) {
	rules, err := h.service.ListAlertRules(c.Request.Context())
	if err != nil {
		h.log.WithError(err).Error("Failed to list alert rules")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list alert rules",
		})
		return
	}

	c.JSON(http.StatusOK, rules)
}

// UpdateAlertRule handles alert rule updates
func (h *AlertHandler) UpdateAlertRule(c *gin.Context) {
	rule, err := h.service.GetAlertRule(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Alert rule not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get alert rule")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get alert rule",
		})
		return
	}

	if err := c.ShouldBindJSON(rule); err != nil {
		h.log.WithError(err).Warn("Invalid alert rule format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid alert rule format",
		})
		return
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.UpdateAlertRule(c.Request.Context(), rule, actor); err != nil {
		h.log.WithError(err).Error("Failed to update alert rule")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update alert rule",
		})
		return
	}

	c.JSON(http.StatusOK, rule)
}

// DeleteAlertRule handles alert rule removal
func (h *AlertHandler) DeleteAlertRule(c *gin.Context) {
	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.DeleteAlertRule(c.Request.Context(), c.Param("id"), actor); err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Alert rule not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to delete alert rule")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete alert rule",
		})
		return
	}

	c.Status(http.StatusNoContent)
}

// GetAlert handles alert retrieval
func (h *AlertHandler) GetAlert(c *gin.Context) {
	alert, err := h.service.GetAlert(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Alert not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get alert")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get alert",
		})
		return
	}

	c.JSON(http.StatusOK, alert)
}

// ListAlerts handles alert listing with optional filters
func (h *AlertHandler) ListAlerts(c *gin.Context) {
	filter := repository.AlertFilter{
		SensorID: c.Query("sensor_id"),
		Status:   models.AlertStatus(c.Query("status")),
		Severity: models.AlertSeverity(c.Query("severity")),
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

	alerts, err := h.service.ListAlerts(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list alerts")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list alerts",
		})
		return
	}

	c.JSON(http.StatusOK, alerts)
}

// AcknowledgeAlert handles alert acknowledgement
func (h *AlertHandler) AcknowledgeAlert(c *gin.Context) {
	actor, _ := middleware.GetUserFromContext(c)
	alert, err := h.service.AcknowledgeAlert(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.respondAlertTransition(c, err, "acknowledge")
		return
	}

	c.JSON(http.StatusOK, alert)
}

// ResolveAlert handles alert resolution
func (h *AlertHandler) ResolveAlert(c *gin.Context) {
	actor, _ := middleware.GetUserFromContext(c)
	alert, err := h.service.ResolveAlert(c.Request.Context(), c.Param("id"), actor)
	if err != nil {
		h.respondAlertTransition(c, err, "resolve")
		return
	}

	c.JSON(http.StatusOK, alert)
}

func (h *AlertHandler) respondAlertTransition(c *gin.Context, err error, action string) {
	switch {
	case isNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Alert not found",
		})
	case errors.Is(err, service.ErrInvalidTransition):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
		})
	default:
		h.log.WithError(err).Errorf("Failed to %s alert", action)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to " + action + " alert",
		})
	}
}
