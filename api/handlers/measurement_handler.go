// api/handlers/measurement_handler.go
package handlers

import (
	"net/http"
	"strconv"

	"example.com/coldchain/api/middleware"
	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/repository"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// MeasurementHandler handles measurement administration requests
type MeasurementHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewMeasurementHandler creates a new MeasurementHandler instance
func NewMeasurementHandler(svc service.Service, log *logrus.Logger) *MeasurementHandler {
	return &MeasurementHandler{
		service: svc,
		log:     log,
	}
}

// GetMeasurement handles measurement retrieval
func (h *MeasurementHandler) GetMeasurement(c *gin.Context) {
	measurement, err := h.service.GetMeasurement(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Measurement not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get measurement")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get measurement",
		})
		return
	}

	c.JSON(http.StatusOK, measurement)
}

// ListMeasurements handles measurement listing with optional filters
func (h *MeasurementHandler) ListMeasurements(c *gin.Context) {
	filter := repository.MeasurementFilter{
		SensorID: c.Query("sensor_id"),
		Status:   models.MeasurementStatus(c.Query("status")),
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

	measurements, err := h.service.ListMeasurements(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list measurements")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list measurements",
		})
		return
	}

	c.JSON(http.StatusOK, measurements)
}

// measurementUpdate is the wire format for administrative corrections
type measurementUpdate struct {
	Temperature *float64 `json:"temperature"`
	Humidity    *float64 `json:"humidity"`
	Note        *string  `json:"note"`
}

// UpdateMeasurement handles administrative corrections of stored readings
func (h *MeasurementHandler) UpdateMeasurement(c *gin.Context) {
	measurement, err := h.service.GetMeasurement(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Measurement not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get measurement")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get measurement",
		})
		return
	}

	var update measurementUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		h.log.WithError(err).Warn("Invalid measurement format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid measurement format",
		})
		return
	}

	if update.Temperature != nil {
		measurement.Temperature = *update.Temperature
	}
	if update.Humidity != nil {
		measurement.Humidity = *update.Humidity
	}
	if update.Note != nil {
		measurement.Note = *update.Note
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.UpdateMeasurement(c.Request.Context(), measurement, actor); err != nil {
		h.log.WithError(err).Error("Failed to update measurement")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update measurement",
		})
		return
	}

	c.JSON(http.StatusOK, measurement)
}

// DeleteMeasurement handles measurement removal
func (h *MeasurementHandler) DeleteMeasurement(c *gin.Context) {
	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.DeleteMeasurement(c.Request.Context(), c.Param("id"), actor); err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Measurement not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to delete measurement")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete measurement",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
