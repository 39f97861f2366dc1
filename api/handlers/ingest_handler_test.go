package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/notifier"
	"example.com/coldchain/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type noopDispatcher struct{}

func (d *noopDispatcher) Dispatch(ctx context.Context, n notifier.Notification, channels []string, emailRecipients []string) {
}

func setupIngestRouter(t *testing.T) (*gin.Engine, service.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	log := logrus.New()
	log.SetOutput(io.Discard)

	svc, err := service.NewService(service.ServiceConfig{
		DB:         db,
		Dispatcher: &noopDispatcher{},
		Logger:     log,
	})
	require.NoError(t, err)

	router := gin.New()
	handler := NewIngestHandler(svc, log)
	router.POST("/api/v1/ingest", handler.IngestForSensor)
	return router, svc
}

func TestIngestForSensorEndpoint(t *testing.T) {
	router, svc := setupIngestRouter(t)

	sensor := &models.Sensor{
		Name:         "Fridge A",
		SerialNumber: "SN-1",
		IsActive:     true,
	}
	require.NoError(t, svc.CreateSensor(context.Background(), sensor, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest",
		strings.NewReader(`{"temperature": 12.5, "humidity": 60}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Sensor-Token", sensor.Token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	require.Contains(t, w.Body.String(), `"alerts"`)
	require.Contains(t, w.Body.String(), `"critical"`)
}

func TestIngestForSensorUnknownToken(t *testing.T) {
	router, _ := setupIngestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest",
		strings.NewReader(`{"temperature": 5.0}`))
	req.Header.Set("X-Sensor-Token", "bogus")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestForSensorMissingToken(t *testing.T) {
	router, _ := setupIngestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest",
		strings.NewReader(`{"temperature": 5.0}`))

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestIngestForSensorInvalidBody(t *testing.T) {
	router, svc := setupIngestRouter(t)

	sensor := &models.Sensor{Name: "Fridge A", SerialNumber: "SN-2", IsActive: true}
	require.NoError(t, svc.CreateSensor(context.Background(), sensor, nil))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/ingest",
		strings.NewReader(`{"humidity": 60}`))
	req.Header.Set("X-Sensor-Token", sensor.Token)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
