package service

import (
	"context"
	"time"

	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/repository"

	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// ErrInvalidTransition is returned for alert state changes that would move
// the alert backwards, such as acknowledging an already resolved alert.
var ErrInvalidTransition = errors.New("invalid alert state transition")

func (s *service) GetMeasurement(ctx context.Context, id string) (*models.Measurement, error) {
	return s.measurementRepo.GetByID(ctx, id)
}

func (s *service) ListMeasurements(ctx context.Context, filter repository.MeasurementFilter) ([]*models.Measurement, error) {
	return s.measurementRepo.List(ctx, filter)
}

// UpdateMeasurement applies an administrative correction. The stored status
// is reclassified against the sensor's current thresholds so a corrected
// temperature cannot leave a stale severity behind.
func (s *service) UpdateMeasurement(ctx context.Context, measurement *models.Measurement, actor *models.User) error {
	sensor, err := s.sensorRepo.GetByID(ctx, measurement.SensorID.String())
	if err != nil {
		return err
	}
	measurement.Status = ClassifyTemperature(measurement.Temperature, sensor.ThresholdMin, sensor.ThresholdMax)

	if err := s.measurementRepo.Update(ctx, measurement); err != nil {
		return err
	}
	return recordAudit(ctx, s.auditRepo, "measurement.updated", actorID(actor), "Measurement", measurement.ID.String(), nil)
}

func (s *service) DeleteMeasurement(ctx context.Context, id string, actor *models.User) error {
	measurement, err := s.measurementRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := recordAudit(ctx, s.auditRepo, "measurement.deleted", actorID(actor), "Measurement", measurement.ID.String(), nil); err != nil {
		return err
	}
	return s.measurementRepo.Delete(ctx, measurement)
}

// CreateAlertRule persists a new rule after validating its band
func (s *service) CreateAlertRule(ctx context.Context, rule *models.AlertRule, actor *models.User) error {
	if rule.MinTemp >= rule.MaxTemp {
		return errors.New("rule min_temp must be below max_temp")
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	rule.CreatedByID = actorID(actor)

	if err := s.ruleRepo.Create(ctx, rule); err != nil {
		return err
	}
	return recordAudit(ctx, s.auditRepo, "alert_rule.created", actorID(actor), "AlertRule", rule.ID.String(), nil)
}

func (s *service) UpdateAlertRule(ctx context.Context, rule *models.AlertRule, actor *models.User) error {
	if rule.MinTemp >= rule.MaxTemp {
		return errors.New("rule min_temp must be below max_temp")
	}
	if err := s.ruleRepo.Update(ctx, rule); err != nil {
		return err
	}
	return recordAudit(ctx, s.auditRepo, "alert_rule.updated", actorID(actor), "AlertRule", rule.ID.String(), nil)
}

func (s *service) DeleteAlertRule(ctx context.Context, id string, actor *models.User) error {
	rule, err := s.ruleRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := recordAudit(ctx, s.auditRepo, "alert_rule.deleted", actorID(actor), "AlertRule", rule.ID.String(), nil); err != nil {
		return err
	}
	return s.ruleRepo.Delete(ctx, rule)
}

func (s *service) GetAlertRule(ctx context.Context, id string) (*models.AlertRule, error) {
	return s.ruleRepo.GetByID(ctx, id)
}

func (s *service) ListAlertRules(ctx context.Context) ([]*models.AlertRule, error) {
	return s.ruleRepo.List(ctx)
}

func (s *service) GetAlert(ctx context.Context, id string) (*models.Alert, error) {
	return s.alertRepo.GetByID(ctx, id)
}

func (s *service) ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]*models.Alert, error) {
	return s.alertRepo.List(ctx, filter)
}

// AcknowledgeAlert moves an open alert to acknowledged, stamping the time
// and the acting user. Acknowledging twice is a no-op.
func (s *service) AcknowledgeAlert(ctx context.Context, id string, actor *models.User) (*models.Alert, error) {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch alert.Status {
	case models.AlertStatusAcknowledged:
		return alert, nil
	case models.AlertStatusResolved:
		return nil, errors.Wrap(ErrInvalidTransition, "alert already resolved")
	}

	now := time.Now()
	alert.Status = models.AlertStatusAcknowledged
	alert.AcknowledgedAt = &now
	alert.AcknowledgedByID = actorID(actor)

	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return nil, err
	}
	if err := recordAudit(ctx, s.auditRepo, "alert.acknowledged", actorID(actor), "Alert", alert.ID.String(), nil); err != nil {
		return nil, err
	}
	return alert, nil
}

// ResolveAlert moves an alert to resolved from either open or acknowledged.
// Resolving twice is a no-op.
func (s *service) ResolveAlert(ctx context.Context, id string, actor *models.User) (*models.Alert, error) {
	alert, err := s.alertRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if alert.Status == models.AlertStatusResolved {
		return alert, nil
	}

	now := time.Now()
	alert.Status = models.AlertStatusResolved
	alert.ResolvedAt = &now
	alert.ResolvedByID = actorID(actor)

	if err := s.alertRepo.Update(ctx, alert); err != nil {
		return nil, err
	}
	if err := recordAudit(ctx, s.auditRepo, "alert.resolved", actorID(actor), "Alert", alert.ID.String(), nil); err != nil {
		return nil, err
	}
	return alert, nil
}

// CreateTicket opens a manual ticket not tied to the alert pipeline
func (s *service) CreateTicket(ctx context.Context, ticket *models.Ticket, actor *models.User) error {
	if ticket.ID == uuid.Nil {
		ticket.ID = uuid.New()
	}
	if ticket.Status == "" {
		ticket.Status = models.TicketStatusOpen
	}
	if ticket.Priority == "" {
		ticket.Priority = models.TicketPriorityMedium
	}
	ticket.OpenedByID = actorID(actor)

	if err := s.ticketRepo.Create(ctx, ticket); err != nil {
		return err
	}
	return recordAudit(ctx, s.auditRepo, "ticket.created", actorID(actor), "Ticket", ticket.ID.String(), nil)
}

// UpdateTicket saves ticket changes. Moving to closed stamps closed_at once;
// the stamp survives later edits to a closed ticket.
func (s *service) UpdateTicket(ctx context.Context, ticket *models.Ticket, actor *models.User) error {
	if ticket.Status == models.TicketStatusClosed && ticket.ClosedAt == nil {
		now := time.Now()
		ticket.ClosedAt = &now
	}

	if err := s.ticketRepo.Update(ctx, ticket); err != nil {
		return err
	}
	return recordAudit(ctx, s.auditRepo, "ticket.updated", actorID(actor), "Ticket", ticket.ID.String(), nil)
}

func (s *service) GetTicket(ctx context.Context, id string) (*models.Ticket, error) {
	return s.ticketRepo.GetByID(ctx, id)
}

func (s *service) ListTickets(ctx context.Context, filter repository.TicketFilter) ([]*models.Ticket, error) {
	return s.ticketRepo.List(ctx, filter)
}

func (s *service) ListAuditLogs(ctx context.Context, filter repository.AuditFilter) ([]*models.AuditLog, error) {
	return s.auditRepo.List(ctx, filter)
}
