// api/handlers/sensor_handler.go
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

// SensorHandler handles sensor-related requests
type SensorHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewSensorHandler creates a new SensorHandler instance
func NewSensorHandler(svc service.Service, log *logrus.Logger) *SensorHandler {
	return &SensorHandler{
		service: svc,
		log:     log,
	}
}

// CreateSensor handles sensor registration
func (h *SensorHandler) CreateSensor(c *gin.Context) {
	var sensor models.Sensor
	if err := c.ShouldBindJSON(&sensor); err != nil {
		h.log.WithError(err).Warn("Invalid sensor format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid sensor format",
		})
		return
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.CreateSensor(c.Request.Context(), &sensor, actor); err != nil {
		h.log.WithError(err).Error("Failed to create sensor")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create sensor",
		})
		return
	}

	c.JSON(http.StatusCreated, sensor)
}

// GetSensor handles sensor retrieval
func (h *SensorHandler) GetSensor(c *gin.Context) {
	sensor, err := h.service.GetSensor(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Sensor not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get sensor")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get sensor",
		})
		return
	}

	c.JSON(http.StatusOK, sensor)
}

// ListSensors handles sensor listing with optional filters
func (h *SensorHandler) ListSensors(c *gin.Context) {
	filter := repository.SensorFilter{
		Location: c.Query("location"),
	}
	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid active filter",
			})
			return
		}
		filter.IsActive = &active
	}

	sensors, err := h.service.ListSensors(c.Request.Context(), filter)
	if err != nil {
		h.log.WithError(err).Error("Failed to list sensors")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list sensors",
		})
		return
	}

	c.JSON(http.StatusOK, sensors)
}

// UpdateSensor handles sensor updates
func (h *SensorHandler) UpdateSensor(c *gin.Context) {
	sensor, err := h.service.GetSensor(c.Request.Context(), c.Param("id"))
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Sensor not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to get sensor")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get sensor",
		})
		return
	}

	if err := c.ShouldBindJSON(sensor); err != nil {
		h.log.WithError(err).Warn("Invalid sensor format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid sensor format",
		})
		return
	}

	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.UpdateSensor(c.Request.Context(), sensor, actor); err != nil {
		h.log.WithError(err).Error("Failed to update sensor")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to update sensor",
		})
		return
	}

	c.JSON(http.StatusOK, sensor)
}

// DeleteSensor handles sensor removal
func (h *SensorHandler) DeleteSensor(c *gin.Context) {
	actor, _ := middleware.GetUserFromContext(c)
	if err := h.service.DeleteSensor(c.Request.Context(), c.Param("id"), actor); err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Sensor not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to delete sensor")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete sensor",
		})
		return
	}

	c.Status(http.StatusNoContent)
}
