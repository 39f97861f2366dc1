package service

import (
	"context"
	"fmt"
	"math"
	"time"

	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/notifier"
	"example.com/coldchain/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// warningMargin is how far outside the thresholds a reading may land before
// it is classified critical instead of warning, in temperature units.
const warningMargin = 1.5

// defaultChannels is used when a triggering rule selects no channels, and
// for fallback alerts that have no rule at all.
var defaultChannels = []string{models.ChannelEmail, models.ChannelTelegram}

// IngestRequest carries one incoming reading through the pipeline
type IngestRequest struct {
	SensorID    string
	Temperature float64
	Humidity    float64
	RecordedAt  *time.Time
	Note        string
	RawPayload  []byte
	Actor       *models.User
}

// IngestResult is the outcome of one evaluated reading
type IngestResult struct {
	Measurement *models.Measurement `json:"measurement"`
	Alerts      []*models.Alert     `json:"alerts"`
}

// ClassifyTemperature classifies a reading against the sensor thresholds.
// Inside the band is normal; outside, the distance to the nearer bound
// decides between warning and critical.
func ClassifyTemperature(temperature, thresholdMin, thresholdMax float64) models.MeasurementStatus {
	if temperature >= thresholdMin && temperature <= thresholdMax {
		return models.MeasurementNormal
	}
	delta := math.Min(
		math.Abs(temperature-thresholdMin),
		math.Abs(temperature-thresholdMax),
	)
	if delta <= warningMargin {
		return models.MeasurementWarning
	}
	return models.MeasurementCritical
}

// RuleTriggers reports whether a reading breaches the rule's band. This is a
// hard bound check independent of the softened measurement status, so a rule
// can fire on a reading the classifier only calls a warning.
func RuleTriggers(rule *models.AlertRule, temperature float64) bool {
	return temperature < rule.MinTemp || temperature > rule.MaxTemp
}

// IngestForToken resolves a sensor by its ingestion token and runs the
// pipeline. Unknown tokens are rejected before any write happens.
func (s *service) IngestForToken(ctx context.Context, token string, req *IngestRequest) (*IngestResult, error) {
	sensor, err := s.resolveSensorToken(ctx, token)
	if err != nil {
		return nil, err
	}
	req.SensorID = sensor.ID.String()
	return s.ingest(ctx, sensor, req)
}

// IngestMeasurement runs the evaluation pipeline for one reading
func (s *service) IngestMeasurement(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	sensor, err := s.sensorRepo.GetByID(ctx, req.SensorID)
	if err != nil {
		return nil, err
	}
	return s.ingest(ctx, sensor, req)
}

// ingest classifies and persists the measurement, evaluates alert rules,
// creates alerts and tickets, and writes audit entries, all inside one
// transaction. A failure at any step rolls the whole unit back.
func (s *service) ingest(ctx context.Context, sensor *models.Sensor, req *IngestRequest) (*IngestResult, error) {
	recordedAt := time.Now()
	if req.RecordedAt != nil {
		recordedAt = *req.RecordedAt
	}

	result := &IngestResult{}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		measurementRepo := repository.NewMeasurementRepository(tx)
		ruleRepo := repository.NewAlertRuleRepository(tx)
		alertRepo := repository.NewAlertRepository(tx)
		ticketRepo := repository.NewTicketRepository(tx)
		auditRepo := repository.NewAuditLogRepository(tx)

		measurement := &models.Measurement{
			ID:          uuid.New(),
			SensorID:    sensor.ID,
			Temperature: req.Temperature,
			Humidity:    req.Humidity,
			RecordedAt:  recordedAt,
			ReceivedAt:  time.Now(),
			Status:      ClassifyTemperature(req.Temperature, sensor.ThresholdMin, sensor.ThresholdMax),
			Note:        req.Note,
			RawPayload:  req.RawPayload,
		}
		if err := measurementRepo.Create(ctx, measurement); err != nil {
			return err
		}

		err := recordAudit(ctx, auditRepo, "measurement.created", actorID(req.Actor), "Measurement", measurement.ID.String(), map[string]interface{}{
			"sensor":      sensor.ID.String(),
			"temperature": req.Temperature,
		})
		if err != nil {
			return err
		}

		rules, err := ruleRepo.FindActiveForSensor(ctx, sensor.ID.String())
		if err != nil {
			return err
		}

		var alerts []*models.Alert
		for _, rule := range rules {
			if !RuleTriggers(rule, req.Temperature) {
				continue
			}
			alert, err := s.createAlert(ctx, alertRepo, auditRepo, sensor, measurement, rule)
			if err != nil {
				return err
			}
			alerts = append(alerts, alert)
			if err := s.ensureTicket(ctx, ticketRepo, auditRepo, sensor, alert); err != nil {
				return err
			}
		}

		// Fallback: the sensor's own thresholds were breached but no
		// configured rule covered the reading.
		if len(alerts) == 0 && measurement.Status != models.MeasurementNormal {
			alert, err := s.createAlert(ctx, alertRepo, auditRepo, sensor, measurement, nil)
			if err != nil {
				return err
			}
			alerts = append(alerts, alert)
			if err := s.ensureTicket(ctx, ticketRepo, auditRepo, sensor, alert); err != nil {
				return err
			}
		}

		result.Measurement = measurement
		result.Alerts = alerts
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.afterCommit(ctx, sensor, result)
	return result, nil
}

// createAlert persists one alert for the measurement and optional triggering
// rule, dispatches notifications, and writes the audit entry. Severity
// derives from the classifier's status, not from which rule fired.
func (s *service) createAlert(ctx context.Context, alertRepo repository.AlertRepository, auditRepo repository.AuditLogRepository, sensor *models.Sensor, measurement *models.Measurement, rule *models.AlertRule) (*models.Alert, error) {
	severity := models.AlertSeverityWarning
	if measurement.Status == models.MeasurementCritical {
		severity = models.AlertSeverityCritical
	}

	lower, upper := sensor.ThresholdMin, sensor.ThresholdMax
	var ruleID *uuid.UUID
	if rule != nil {
		lower, upper = rule.MinTemp, rule.MaxTemp
		ruleID = &rule.ID
	}
	message := fmt.Sprintf("Temperature %.2f°C outside %.2f-%.2f°C", measurement.Temperature, lower, upper)

	alert := &models.Alert{
		ID:            uuid.New(),
		SensorID:      sensor.ID,
		RuleID:        ruleID,
		MeasurementID: measurement.ID,
		Severity:      severity,
		Status:        models.AlertStatusOpen,
		Message:       message,
	}
	if err := alertRepo.Create(ctx, alert); err != nil {
		return nil, err
	}

	channels := defaultChannels
	if rule != nil && len(rule.Channels) > 0 {
		channels = rule.Channels
	}
	s.notifyChannels(ctx, sensor, measurement, alert, channels)

	err := recordAudit(ctx, auditRepo, "alert.created", nil, "Alert", alert.ID.String(), map[string]interface{}{
		"message": message,
	})
	if err != nil {
		return nil, err
	}
	return alert, nil
}

// notifyChannels fans the alert out to the selected channels. Any transport
// failure is absorbed by the dispatcher; nothing here can abort the
// surrounding transaction.
func (s *service) notifyChannels(ctx context.Context, sensor *models.Sensor, measurement *models.Measurement, alert *models.Alert, channels []string) {
	subject := fmt.Sprintf("[Cold Chain] %s for %s", titleCase(string(alert.Severity)), sensor.Name)
	body := fmt.Sprintf(
		"Sensor: %s\nLocation: %s\nTemperature: %.2f°C\nRecorded at: %s\nStatus: %s\nMessage: %s",
		sensor.Name,
		sensor.Location,
		measurement.Temperature,
		measurement.RecordedAt.Format("2006-01-02 15:04:05"),
		alert.Status,
		alert.Message,
	)

	var recipients []string
	if containsChannel(channels, models.ChannelEmail) {
		var err error
		recipients, err = s.userRepo.ListActiveEmails(ctx)
		if err != nil {
			s.log.WithError(err).Error("Failed to list notification recipients")
		}
	}

	s.dispatcher.Dispatch(ctx, notifier.Notification{Subject: subject, Body: body}, channels, recipients)
}

// ensureTicket get-or-creates the remediation ticket for an alert. The audit
// entry is written only when a ticket was actually created.
func (s *service) ensureTicket(ctx context.Context, ticketRepo repository.TicketRepository, auditRepo repository.AuditLogRepository, sensor *models.Sensor, alert *models.Alert) error {
	priority := models.TicketPriorityHigh
	if alert.Severity == models.AlertSeverityCritical {
		priority = models.TicketPriorityCritical
	}

	alertID := alert.ID
	ticket := &models.Ticket{
		ID:          uuid.New(),
		AlertID:     &alertID,
		Title:       fmt.Sprintf("%s temperature incident", sensor.Name),
		Description: alert.Message,
		Status:      models.TicketStatusOpen,
		Priority:    priority,
	}

	created, isNew, err := ticketRepo.GetOrCreateForAlert(ctx, ticket)
	if err != nil {
		return err
	}
	if isNew {
		return recordAudit(ctx, auditRepo, "ticket.autocreated", nil, "Ticket", created.ID.String(), map[string]interface{}{
			"alert": alert.ID.String(),
		})
	}
	return nil
}

// afterCommit runs the best-effort side effects that must never influence
// the transaction outcome: search indexing and alert event publication.
func (s *service) afterCommit(ctx context.Context, sensor *models.Sensor, result *IngestResult) {
	if s.esClient != nil {
		if err := s.esClient.IndexMeasurement(ctx, result.Measurement, sensor); err != nil {
			s.log.WithError(err).Warn("Failed to index measurement")
		}
	}

	if s.messagingClient != nil {
		for _, alert := range result.Alerts {
			event := map[string]interface{}{
				"event":       "alert.created",
				"alert_id":    alert.ID.String(),
				"sensor_id":   sensor.ID.String(),
				"severity":    alert.Severity,
				"message":     alert.Message,
				"temperature": result.Measurement.Temperature,
			}
			if err := s.messagingClient.SendMessage(ctx, event, sensor.ID.String()); err != nil {
				s.log.WithError(err).Warn("Failed to publish alert event")
			}
		}
	}
}

func containsChannel(channels []string, channel string) bool {
	for _, ch := range channels {
		if ch == channel {
			return true
		}
	}
	return false
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return string(s[0]-'a'+'A') + s[1:]
}
