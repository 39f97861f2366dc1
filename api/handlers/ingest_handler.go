// api/handlers/ingest_handler.go
package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"example.com/coldchain/api/middleware"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// IngestHandler handles measurement ingestion requests
type IngestHandler struct {
	service service.Service
	log     *logrus.Logger
}

// NewIngestHandler creates a new IngestHandler instance
func NewIngestHandler(svc service.Service, log *logrus.Logger) *IngestHandler {
	return &IngestHandler{
		service: svc,
		log:     log,
	}
}

// ingestPayload is the wire format for one reading
type ingestPayload struct {
	SensorID    string     `json:"sensor_id"`
	Temperature *float64   `json:"temperature" binding:"required"`
	Humidity    float64    `json:"humidity"`
	RecordedAt  *time.Time `json:"recorded_at"`
	Note        string     `json:"note"`
}

// IngestForSensor handles readings pushed by sensors themselves, identified
// by the ingestion token in the X-Sensor-Token header.
func (h *IngestHandler) IngestForSensor(c *gin.Context) {
	token := c.GetHeader("X-Sensor-Token")
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{
			"error": "X-Sensor-Token header required",
		})
		return
	}

	raw, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Failed to read request body",
		})
		return
	}

	var payload ingestPayload
	if err := json.Unmarshal(raw, &payload); err != nil || payload.Temperature == nil {
		h.log.Warn("Invalid measurement format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid measurement format",
		})
		return
	}

	req := &service.IngestRequest{
		Temperature: *payload.Temperature,
		Humidity:    payload.Humidity,
		RecordedAt:  payload.RecordedAt,
		Note:        payload.Note,
		RawPayload:  raw,
	}

	result, err := h.service.IngestForToken(c.Request.Context(), token, req)
	if err != nil {
		if err == service.ErrUnknownToken {
			h.log.Warn("Ingestion with unknown sensor token")
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unknown sensor token",
			})
			return
		}
		h.log.WithError(err).Error("Failed to ingest measurement")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to ingest measurement",
		})
		return
	}

	c.JSON(http.StatusCreated, result)
}

// IngestMeasurement handles readings submitted by authenticated operators
// on behalf of a sensor.
func (h *IngestHandler) IngestMeasurement(c *gin.Context) {
	var payload ingestPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		h.log.WithError(err).Warn("Invalid measurement format")
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid measurement format",
		})
		return
	}
	if payload.SensorID == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "sensor_id is required",
		})
		return
	}

	actor, _ := middleware.GetUserFromContext(c)

	req := &service.IngestRequest{
		SensorID:    payload.SensorID,
		Temperature: *payload.Temperature,
		Humidity:    payload.Humidity,
		RecordedAt:  payload.RecordedAt,
		Note:        payload.Note,
		Actor:       actor,
	}

	result, err := h.service.IngestMeasurement(c.Request.Context(), req)
	if err != nil {
		if isNotFound(err) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Sensor not found",
			})
			return
		}
		h.log.WithError(err).Error("Failed to ingest measurement")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to ingest measurement",
		})
		return
	}

	c.JSON(http.StatusCreated, result)
}
