package repository

import "gorm.io/gorm"

// Repositories bundles the per-aggregate repositories over one database handle
type Repositories struct {
	Sensors      SensorRepository
	Measurements MeasurementRepository
	AlertRules   AlertRuleRepository
	Alerts       AlertRepository
	Tickets      TicketRepository
	AuditLogs    AuditLogRepository
	Users        UserRepository
}

// NewRepositories constructs every repository over the given handle, which
// may be a transaction.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Sensors:      NewSensorRepository(db),
		Measurements: NewMeasurementRepository(db),
		AlertRules:   NewAlertRuleRepository(db),
		Alerts:       NewAlertRepository(db),
		Tickets:      NewTicketRepository(db),
		AuditLogs:    NewAuditLogRepository(db),
		Users:        NewUserRepository(db),
	}
}
