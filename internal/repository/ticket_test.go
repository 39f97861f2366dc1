package repository

import (
	"context"
	"testing"

	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTicketRepo(t *testing.T) (TicketRepository, *models.Alert) {
	t.Helper()

	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	sensor := &models.Sensor{
		ID:           uuid.New(),
		Name:         "Fridge A",
		SerialNumber: "SN-1",
		Token:        "tok-1",
		IsActive:     true,
	}
	require.NoError(t, db.Create(sensor).Error)

	measurement := &models.Measurement{
		ID:          uuid.New(),
		SensorID:    sensor.ID,
		Temperature: 12.0,
		Status:      models.MeasurementCritical,
	}
	require.NoError(t, db.Create(measurement).Error)

	alert := &models.Alert{
		ID:            uuid.New(),
		SensorID:      sensor.ID,
		MeasurementID: measurement.ID,
		Severity:      models.AlertSeverityCritical,
		Status:        models.AlertStatusOpen,
	}
	require.NoError(t, db.Create(alert).Error)

	return NewTicketRepository(db), alert
}

func TestGetOrCreateForAlertIsIdempotent(t *testing.T) {
	repo, alert := setupTicketRepo(t)
	ctx := context.Background()

	first := &models.Ticket{
		ID:       uuid.New(),
		AlertID:  &alert.ID,
		Title:    "Fridge A temperature incident",
		Status:   models.TicketStatusOpen,
		Priority: models.TicketPriorityCritical,
	}
	created, isNew, err := repo.GetOrCreateForAlert(ctx, first)
	require.NoError(t, err)
	require.True(t, isNew)
	require.Equal(t, first.ID, created.ID)

	second := &models.Ticket{
		ID:       uuid.New(),
		AlertID:  &alert.ID,
		Title:    "duplicate attempt",
		Status:   models.TicketStatusOpen,
		Priority: models.TicketPriorityCritical,
	}
	existing, isNew, err := repo.GetOrCreateForAlert(ctx, second)
	require.NoError(t, err)
	require.False(t, isNew)
	require.Equal(t, first.ID, existing.ID)
	require.Equal(t, "Fridge A temperature incident", existing.Title)

	tickets, err := repo.List(ctx, TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
}

func TestGetOrCreateWithoutAlertAlwaysCreates(t *testing.T) {
	repo, _ := setupTicketRepo(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		ticket := &models.Ticket{
			ID:       uuid.New(),
			Title:    "manual ticket",
			Status:   models.TicketStatusOpen,
			Priority: models.TicketPriorityMedium,
		}
		_, isNew, err := repo.GetOrCreateForAlert(ctx, ticket)
		require.NoError(t, err)
		require.True(t, isNew)
	}

	tickets, err := repo.List(ctx, TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
}
