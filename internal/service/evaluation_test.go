package service

import (
	"context"
	"sync"
	"testing"

	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/notifier"
	"example.com/coldchain/internal/repository"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// recordingDispatcher captures every dispatch instead of delivering
type recordingDispatcher struct {
	mu    sync.Mutex
	calls []dispatchCall
}

type dispatchCall struct {
	notification notifier.Notification
	channels     []string
	recipients   []string
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, n notifier.Notification, channels []string, emailRecipients []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = append(d.calls, dispatchCall{notification: n, channels: channels, recipients: emailRecipients})
}

func (d *recordingDispatcher) Calls() []dispatchCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]dispatchCall(nil), d.calls...)
}

// panickingDispatcher simulates a notifier implementation gone wrong
type panickingDispatcher struct{}

func (d *panickingDispatcher) Dispatch(ctx context.Context, n notifier.Notification, channels []string, emailRecipients []string) {
	// The production dispatcher absorbs transport panics itself; this
	// stand-in verifies the pipeline survives even without that guard.
	defer func() { recover() }()
	panic("transport exploded")
}

func setupTestService(t *testing.T, dispatcher notifier.Dispatcher) (Service, *gorm.DB) {
	t.Helper()

	// A unique shared-cache DSN keeps the database alive across pooled
	// connections while isolating tests from each other.
	dsn := "file:" + uuid.NewString() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, database.AutoMigrate(db))

	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)

	svc, err := NewService(ServiceConfig{
		DB:         db,
		Dispatcher: dispatcher,
		Logger:     log,
	})
	require.NoError(t, err)
	return svc, db
}

func createTestSensor(t *testing.T, svc Service, min, max float64) *models.Sensor {
	t.Helper()
	sensor := &models.Sensor{
		Name:         "Fridge A",
		SerialNumber: uuid.New().String(),
		Location:     "Warehouse 1",
		ThresholdMin: min,
		ThresholdMax: max,
		IsActive:     true,
	}
	require.NoError(t, svc.CreateSensor(context.Background(), sensor, nil))
	return sensor
}

func TestClassifyTemperature(t *testing.T) {
	cases := []struct {
		name        string
		temperature float64
		want        models.MeasurementStatus
	}{
		{"inside band", 5.0, models.MeasurementNormal},
		{"exactly at lower bound", 2.0, models.MeasurementNormal},
		{"exactly at upper bound", 8.0, models.MeasurementNormal},
		{"just below lower bound", 1.9, models.MeasurementWarning},
		{"just above upper bound", 8.1, models.MeasurementWarning},
		{"at warning margin below", 0.5, models.MeasurementWarning},
		{"at warning margin above", 9.5, models.MeasurementWarning},
		{"beyond margin below", 0.4, models.MeasurementCritical},
		{"beyond margin above", 9.6, models.MeasurementCritical},
		{"far outside", 25.0, models.MeasurementCritical},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, ClassifyTemperature(tc.temperature, 2.0, 8.0))
		})
	}
}

func TestIngestNormalReading(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 5.0,
	})
	require.NoError(t, err)
	require.Equal(t, models.MeasurementNormal, result.Measurement.Status)
	require.Empty(t, result.Alerts)
	require.Empty(t, dispatcher.Calls())

	tickets, err := svc.ListTickets(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Empty(t, tickets)

	entries, err := svc.ListAuditLogs(ctx, repository.AuditFilter{Action: "measurement.created"})
	require.NoError(t, err)
	require.Len(t, entries, 1)
}

func TestIngestTriggersRuleAndOpensTicket(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	rule := &models.AlertRule{
		Name:     "Warehouse band",
		SensorID: &sensor.ID,
		MinTemp:  2.0,
		MaxTemp:  8.0,
		IsActive: true,
		Channels: models.ChannelList{models.ChannelTelegram},
	}
	require.NoError(t, svc.CreateAlertRule(ctx, rule, nil))

	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 12.0,
	})
	require.NoError(t, err)
	require.Equal(t, models.MeasurementCritical, result.Measurement.Status)
	require.Len(t, result.Alerts, 1)

	alert := result.Alerts[0]
	require.Equal(t, models.AlertSeverityCritical, alert.Severity)
	require.Equal(t, models.AlertStatusOpen, alert.Status)
	require.NotNil(t, alert.RuleID)
	require.Equal(t, rule.ID, *alert.RuleID)
	require.Contains(t, alert.Message, "12.00")

	calls := dispatcher.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []string{models.ChannelTelegram}, calls[0].channels)

	tickets, err := svc.ListTickets(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.Equal(t, models.TicketPriorityCritical, tickets[0].Priority)
	require.Equal(t, alert.ID, *tickets[0].AlertID)
	require.Equal(t, "Fridge A temperature incident", tickets[0].Title)

	for _, action := range []string{"alert.created", "ticket.autocreated"} {
		entries, err := svc.ListAuditLogs(ctx, repository.AuditFilter{Action: action})
		require.NoError(t, err)
		require.Len(t, entries, 1, action)
	}
}

func TestIngestMultipleRulesOneAlertEach(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	narrow := &models.AlertRule{
		Name:     "Narrow band",
		SensorID: &sensor.ID,
		MinTemp:  4.0,
		MaxTemp:  6.0,
		IsActive: true,
	}
	require.NoError(t, svc.CreateAlertRule(ctx, narrow, nil))

	global := &models.AlertRule{
		Name:     "Global band",
		MinTemp:  2.0,
		MaxTemp:  8.0,
		IsActive: true,
	}
	require.NoError(t, svc.CreateAlertRule(ctx, global, nil))

	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 9.0,
	})
	require.NoError(t, err)
	require.Len(t, result.Alerts, 2)

	tickets, err := svc.ListTickets(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 2)
	require.Len(t, dispatcher.Calls(), 2)
}

func TestIngestRuleTriggersOnWarningReading(t *testing.T) {
	// A rule band narrower than the sensor thresholds fires even though
	// the reading classifies as only a warning, and the alert severity
	// follows the classification.
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	rule := &models.AlertRule{
		Name:     "Warehouse band",
		SensorID: &sensor.ID,
		MinTemp:  2.0,
		MaxTemp:  8.0,
		IsActive: true,
	}
	require.NoError(t, svc.CreateAlertRule(ctx, rule, nil))

	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 8.5,
	})
	require.NoError(t, err)
	require.Equal(t, models.MeasurementWarning, result.Measurement.Status)
	require.Len(t, result.Alerts, 1)
	require.Equal(t, models.AlertSeverityWarning, result.Alerts[0].Severity)

	tickets, err := svc.ListTickets(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
	require.Equal(t, models.TicketPriorityHigh, tickets[0].Priority)
}

func TestIngestInactiveRuleIgnored(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	rule := &models.AlertRule{
		Name:     "Disabled band",
		SensorID: &sensor.ID,
		MinTemp:  4.0,
		MaxTemp:  6.0,
		IsActive: true,
	}
	require.NoError(t, svc.CreateAlertRule(ctx, rule, nil))
	rule.IsActive = false
	require.NoError(t, svc.UpdateAlertRule(ctx, rule, nil))

	// 7.0 is inside the sensor thresholds, so no fallback either
	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 7.0,
	})
	require.NoError(t, err)
	require.Empty(t, result.Alerts)
}

func TestIngestFallbackAlertWithoutRules(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 15.0,
	})
	require.NoError(t, err)
	require.Len(t, result.Alerts, 1)

	alert := result.Alerts[0]
	require.Nil(t, alert.RuleID)
	require.Equal(t, models.AlertSeverityCritical, alert.Severity)

	// Fallback alerts use the default channel set
	calls := dispatcher.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []string{models.ChannelEmail, models.ChannelTelegram}, calls[0].channels)

	tickets, err := svc.ListTickets(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
}

func TestIngestNoFallbackWhenRuleAlreadyFired(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	rule := &models.AlertRule{
		Name:     "Warehouse band",
		SensorID: &sensor.ID,
		MinTemp:  2.0,
		MaxTemp:  8.0,
		IsActive: true,
	}
	require.NoError(t, svc.CreateAlertRule(ctx, rule, nil))

	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 15.0,
	})
	require.NoError(t, err)
	require.Len(t, result.Alerts, 1)
	require.NotNil(t, result.Alerts[0].RuleID)
}

func TestIngestSurvivesNotifierPanic(t *testing.T) {
	svc, _ := setupTestService(t, &panickingDispatcher{})
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	result, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 20.0,
	})
	require.NoError(t, err)
	require.Len(t, result.Alerts, 1)

	tickets, err := svc.ListTickets(ctx, repository.TicketFilter{})
	require.NoError(t, err)
	require.Len(t, tickets, 1)
}

func TestIngestForToken(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	stored, err := svc.GetSensor(ctx, sensor.ID.String())
	require.NoError(t, err)
	require.NotEmpty(t, stored.Token)

	result, err := svc.IngestForToken(ctx, stored.Token, &IngestRequest{
		Temperature: 5.0,
	})
	require.NoError(t, err)
	require.Equal(t, sensor.ID, result.Measurement.SensorID)
}

func TestIngestForUnknownToken(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, db := setupTestService(t, dispatcher)
	ctx := context.Background()

	_, err := svc.IngestForToken(ctx, "no-such-token", &IngestRequest{
		Temperature: 5.0,
	})
	require.ErrorIs(t, err, ErrUnknownToken)

	// Nothing was written
	var count int64
	require.NoError(t, db.Model(&models.Measurement{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestIngestRollsBackOnFailure(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, db := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	// Force the ticket insert to fail mid-transaction
	require.NoError(t, db.Migrator().DropTable(&models.Ticket{}))

	_, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 20.0,
	})
	require.Error(t, err)

	var measurements int64
	require.NoError(t, db.Model(&models.Measurement{}).Count(&measurements).Error)
	require.Zero(t, measurements)

	var alerts int64
	require.NoError(t, db.Model(&models.Alert{}).Count(&alerts).Error)
	require.Zero(t, alerts)
}

func TestIngestEmailRecipientsFromActiveUsers(t *testing.T) {
	dispatcher := &recordingDispatcher{}
	svc, _ := setupTestService(t, dispatcher)
	sensor := createTestSensor(t, svc, 2.0, 8.0)
	ctx := context.Background()

	require.NoError(t, svc.CreateUser(ctx, &models.User{
		Username: "oncall",
		Email:    "oncall@example.com",
		Role:     models.RoleTechnician,
		IsActive: true,
	}, nil))
	gone := &models.User{
		Username: "gone",
		Email:    "gone@example.com",
		Role:     models.RoleTechnician,
		IsActive: true,
	}
	require.NoError(t, svc.CreateUser(ctx, gone, nil))
	gone.IsActive = false
	require.NoError(t, svc.UpdateUser(ctx, gone, nil))

	_, err := svc.IngestMeasurement(ctx, &IngestRequest{
		SensorID:    sensor.ID.String(),
		Temperature: 15.0,
	})
	require.NoError(t, err)

	calls := dispatcher.Calls()
	require.Len(t, calls, 1)
	require.Equal(t, []string{"oncall@example.com"}, calls[0].recipients)
}
