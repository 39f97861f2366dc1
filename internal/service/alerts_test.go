package service

import (
	"context"
	"testing"

	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/repository"

	"github.com/stretchr/testify/require"
)

func ingestBreach(t *testing.T, svc Service, sensor *models.Sensor) *models.Alert {
	t.Helper()
	result, err := svc.IngestMeasurement(context.Background(), &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 20.0,
	})
	require.NoError(t, err)
	require.Len(t, result.Alerts, 1)
	return result.Alerts[0]
}

func TestAcknowledgeAndResolveAlert(t *testing.T) {
	svc, _ := setupTestService(t, &recordingDispatcher{})
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	alert := ingestBreach(t, svc, sensor)
	ctx := context.Background()

	operator := &models.User{Username: "operator", Role: models.RoleTechnician, IsActive: true}
	require.NoError(t, svc.CreateUser(ctx, operator, nil))

	acked, err := svc.AcknowledgeAlert(ctx, alert.ID.String(), operator)
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusAcknowledged, acked.Status)
	require.NotNil(t, acked.AcknowledgedAt)
	require.Equal(t, operator.ID, *acked.AcknowledgedByID)

	// Acknowledging again is a no-op
	again, err := svc.AcknowledgeAlert(ctx, alert.ID.String(), operator)
	require.NoError(t, err)
	require.Equal(t, acked.AcknowledgedAt.Unix(), again.AcknowledgedAt.Unix())

	resolved, err := svc.ResolveAlert(ctx, alert.ID.String(), operator)
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusResolved, resolved.Status)
	require.NotNil(t, resolved.ResolvedAt)

	// Resolved alerts cannot move backwards
	_, err = svc.AcknowledgeAlert(ctx, alert.ID.String(), operator)
	require.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResolveOpenAlertDirectly(t *testing.T) {
	svc, _ := setupTestService(t, &recordingDispatcher{})
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	alert := ingestBreach(t, svc, sensor)
	ctx := context.Background()

	resolved, err := svc.ResolveAlert(ctx, alert.ID.String(), nil)
	require.NoError(t, err)
	require.Equal(t, models.AlertStatusResolved, resolved.Status)
	require.Nil(t, resolved.AcknowledgedAt)

	// Resolving again is a no-op
	_, err = svc.ResolveAlert(ctx, alert.ID.String(), nil)
	require.NoError(t, err)
}

func TestCloseTicketStampsClosedAtOnce(t *testing.T) {
	svc, _ := setupTestService(t, &recordingDispatcher{})
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ingestBreach(t, svc, sensor)
	ctx := context.Background()

	tickets, err := svc.ListTickets(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)

	ticket := tickets[0]
	ticket.Status = models.TicketStatusClosed
	require.NoError(t, svc.UpdateTicket(ctx, ticket, nil))
	require.NotNil(t, ticket.ClosedAt)
	first := *ticket.ClosedAt

	ticket.Description = "root cause: door left open"
	require.NoError(t, svc.UpdateTicket(ctx, ticket, nil))
	require.Equal(t, first, *ticket.ClosedAt)
}

func TestUpdateMeasurementReclassifies(t *testing.T) {
	svc, _ := setupTestService(t, &recordingDispatcher{})
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 5.0,
	})
	require.NoError(t, err)
	require.Equal(t, models.MeasurementNormal, result.Measurement.Status)

	measurement := result.Measurement
	measurement.Temperature = 9.0
	require.NoError(t, svc.UpdateMeasurement(ctx, measurement, nil))
	require.Equal(t, models.MeasurementWarning, measurement.Status)

	entries, err := svc.ListAuditLogs(ctx, repository.AuditFilter{Action: "measurement.updated"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestAlertRuleValidation(t *testing.T) {
	svc, _ := setupTestService(t, &recordingDispatcher{})
	ctx := context.Background()

	err := svc.CreateAlertRule(ctx, &models.AlertRule{
		Name:    "Inverted band",
		MinTemp: 8.0,
		MaxTemp: 2.0,
	}, nil)
	require.Error(t, err)
}

func TestDeleteSensorAudits(t *testing.T) {
	svc, _ := setupTestService(t, &recordingDispatcher{})
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	require.NoError(t, svc.DeleteSensor(ctx, sensor.ID.String(), nil))

	_, err := svc.GetSensor(ctx, sensor.ID.String())
	require.ErrorIs(t, err, repository.ErrNotFound)

	entries, err := svc.ListAuditLogs(ctx, repository.AuditFilter{Action: "sensor.deleted"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}
