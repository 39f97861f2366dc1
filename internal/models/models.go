package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MeasurementStatus represents the classification of a reading
type MeasurementStatus string

const (
	// MeasurementNormal represents a reading within the sensor thresholds
	MeasurementNormal MeasurementStatus = "normal"
	// MeasurementWarning represents a reading just outside the thresholds
	MeasurementWarning MeasurementStatus = "warning"
	// MeasurementCritical represents a reading far outside the thresholds
	MeasurementCritical MeasurementStatus = "critical"
)

// AlertSeverity represents the severity of an alert
type AlertSeverity string

const (
	// AlertSeverityInfo represents an informational alert
	AlertSeverityInfo AlertSeverity = "info"
	// AlertSeverityWarning represents a warning alert
	AlertSeverityWarning AlertSeverity = "warning"
	// AlertSeverityCritical represents a critical alert
	AlertSeverityCritical AlertSeverity = "critical"
)

// AlertStatus represents the lifecycle state of an alert
type AlertStatus string

const (
	// AlertStatusOpen represents a newly created alert
	AlertStatusOpen AlertStatus = "open"
	// AlertStatusAcknowledged represents an alert seen by an operator
	AlertStatusAcknowledged AlertStatus = "acknowledged"
	// AlertStatusResolved represents a resolved alert
	AlertStatusResolved AlertStatus = "resolved"
)

// TicketStatus represents the lifecycle state of a ticket
type TicketStatus string

const (
	// TicketStatusOpen represents an open ticket
	TicketStatusOpen TicketStatus = "open"
	// TicketStatusInProgress represents a ticket being worked on
	TicketStatusInProgress TicketStatus = "in_progress"
	// TicketStatusClosed represents a closed ticket
	TicketStatusClosed TicketStatus = "closed"
)

// TicketPriority represents the priority of a ticket
type TicketPriority string

const (
	// TicketPriorityLow represents a low priority ticket
	TicketPriorityLow TicketPriority = "low"
	// TicketPriorityMedium represents a medium priority ticket
	TicketPriorityMedium TicketPriority = "medium"
	// TicketPriorityHigh represents a high priority ticket
	TicketPriorityHigh TicketPriority = "high"
	// TicketPriorityCritical represents a critical priority ticket
	TicketPriorityCritical TicketPriority = "critical"
)

// Notification channel identifiers recognized by the dispatcher
const (
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
)

// ChannelList is a set of notification channel identifiers stored as JSON
type ChannelList []string

// Value implements driver.Valuer for database serialization
func (c ChannelList) Value() (driver.Value, error) {
	if c == nil {
		return "[]", nil
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner for database deserialization
func (c *ChannelList) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, c)
	case string:
		return json.Unmarshal([]byte(v), c)
	default:
		return fmt.Errorf("unsupported type %T for ChannelList", value)
	}
}

// Contains reports whether the channel identifier is in the list
func (c ChannelList) Contains(channel string) bool {
	for _, ch := range c {
		if ch == channel {
			return true
		}
	}
	return false
}

// Sensor model represents a physical cold-chain monitoring device
type Sensor struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name         string     `json:"name" gorm:"Column:name"`
	SerialNumber string     `json:"serial_number" gorm:"Column:serial_number;uniqueIndex"`
	Location     string     `json:"location" gorm:"Column:location"`
	Description  string     `json:"description" gorm:"Column:description"`
	Token        string     `json:"token" gorm:"Column:token;uniqueIndex"`
	ThresholdMin float64    `json:"threshold_min" gorm:"Column:threshold_min;default:2.0"`
	ThresholdMax float64    `json:"threshold_max" gorm:"Column:threshold_max;default:8.0"`
	IsActive     bool       `json:"is_active" gorm:"Column:is_active;default:true"`
	CreatedByID  *uuid.UUID `json:"created_by_id" gorm:"Column:created_by_id;type:uuid"`
	CreatedBy    *User      `json:"-" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Measurement model represents one timestamped reading from a sensor
type Measurement struct {
	ID          uuid.UUID         `json:"id" gorm:"type:uuid;primaryKey"`
	SensorID    uuid.UUID         `json:"sensor_id" gorm:"Column:sensor_id;type:uuid;index"`
	Sensor      *Sensor           `json:"-" gorm:"foreignKey:SensorID;constraint:OnDelete:CASCADE"`
	Temperature float64           `json:"temperature" gorm:"Column:temperature"`
	Humidity    float64           `json:"humidity" gorm:"Column:humidity"`
	RecordedAt  time.Time         `json:"recorded_at" gorm:"Column:recorded_at;index"`
	ReceivedAt  time.Time         `json:"received_at" gorm:"Column:received_at"`
	Status      MeasurementStatus `json:"status" gorm:"Column:status;default:normal"`
	Note        string            `json:"note" gorm:"Column:note"`
	RawPayload  []byte            `json:"raw_payload,omitempty" gorm:"Column:raw_payload"`
}

// AlertRule model represents an operator-defined temperature band that
// triggers alerting when breached. A nil SensorID applies to all sensors.
type AlertRule struct {
	ID       uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Name     string     `json:"name" gorm:"Column:name"`
	SensorID *uuid.UUID `json:"sensor_id" gorm:"Column:sensor_id;type:uuid;index"`
	Sensor   *Sensor    `json:"-" gorm:"foreignKey:SensorID;constraint:OnDelete:CASCADE"`
	MinTemp  float64    `json:"min_temp" gorm:"Column:min_temp;default:2.0"`
	MaxTemp  float64    `json:"max_temp" gorm:"Column:max_temp;default:8.0"`
	// WindowMinutes is reserved for sustained-breach evaluation and is not
	// read by the trigger check.
	WindowMinutes uint        `json:"window_minutes" gorm:"Column:window_minutes;default:0"`
	IsActive      bool        `json:"is_active" gorm:"Column:is_active;default:true"`
	Channels      ChannelList `json:"channels" gorm:"Column:channels;type:text"`
	CreatedByID   *uuid.UUID  `json:"created_by_id" gorm:"Column:created_by_id;type:uuid"`
	CreatedBy     *User       `json:"-" gorm:"foreignKey:CreatedByID;constraint:OnDelete:SET NULL"`
	CreatedAt     time.Time   `json:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at"`
}

// Alert model represents a detected threshold breach tied to one measurement
type Alert struct {
	ID               uuid.UUID     `json:"id" gorm:"type:uuid;primaryKey"`
	SensorID         uuid.UUID     `json:"sensor_id" gorm:"Column:sensor_id;type:uuid;index"`
	Sensor           *Sensor       `json:"-" gorm:"foreignKey:SensorID;constraint:OnDelete:CASCADE"`
	RuleID           *uuid.UUID    `json:"rule_id" gorm:"Column:rule_id;type:uuid"`
	Rule             *AlertRule    `json:"-" gorm:"foreignKey:RuleID;constraint:OnDelete:SET NULL"`
	MeasurementID    uuid.UUID     `json:"measurement_id" gorm:"Column:measurement_id;type:uuid;index"`
	Measurement      *Measurement  `json:"-" gorm:"foreignKey:MeasurementID;constraint:OnDelete:CASCADE"`
	Severity         AlertSeverity `json:"severity" gorm:"Column:severity;default:warning"`
	Status           AlertStatus   `json:"status" gorm:"Column:status;default:open"`
	Message          string        `json:"message" gorm:"Column:message"`
	CreatedAt        time.Time     `json:"created_at"`
	AcknowledgedAt   *time.Time    `json:"acknowledged_at" gorm:"Column:acknowledged_at"`
	ResolvedAt       *time.Time    `json:"resolved_at" gorm:"Column:resolved_at"`
	AcknowledgedByID *uuid.UUID    `json:"acknowledged_by_id" gorm:"Column:acknowledged_by_id;type:uuid"`
	AcknowledgedBy   *User         `json:"-" gorm:"foreignKey:AcknowledgedByID;constraint:OnDelete:SET NULL"`
	ResolvedByID     *uuid.UUID    `json:"resolved_by_id" gorm:"Column:resolved_by_id;type:uuid"`
	ResolvedBy       *User         `json:"-" gorm:"foreignKey:ResolvedByID;constraint:OnDelete:SET NULL"`
}

// Ticket model represents a remediation work item. At most one ticket is
// auto-opened per alert, enforced by the unique index on alert_id.
type Ticket struct {
	ID           uuid.UUID      `json:"id" gorm:"type:uuid;primaryKey"`
	AlertID      *uuid.UUID     `json:"alert_id" gorm:"Column:alert_id;type:uuid;uniqueIndex"`
	Alert        *Alert         `json:"-" gorm:"foreignKey:AlertID;constraint:OnDelete:CASCADE"`
	Title        string         `json:"title" gorm:"Column:title"`
	Description  string         `json:"description" gorm:"Column:description"`
	Status       TicketStatus   `json:"status" gorm:"Column:status;default:open"`
	Priority     TicketPriority `json:"priority" gorm:"Column:priority;default:medium"`
	OpenedByID   *uuid.UUID     `json:"opened_by_id" gorm:"Column:opened_by_id;type:uuid"`
	OpenedBy     *User          `json:"-" gorm:"foreignKey:OpenedByID;constraint:OnDelete:SET NULL"`
	AssignedToID *uuid.UUID     `json:"assigned_to_id" gorm:"Column:assigned_to_id;type:uuid"`
	AssignedTo   *User          `json:"-" gorm:"foreignKey:AssignedToID;constraint:OnDelete:SET NULL"`
	ClosedAt     *time.Time     `json:"closed_at" gorm:"Column:closed_at"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// AuditLog model represents an immutable record of a state-changing action
type AuditLog struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	Action     string     `json:"action" gorm:"Column:action;index"`
	ActorID    *uuid.UUID `json:"actor_id" gorm:"Column:actor_id;type:uuid"`
	Actor      *User      `json:"-" gorm:"foreignKey:ActorID;constraint:OnDelete:SET NULL"`
	TargetType string     `json:"target_type" gorm:"Column:target_type"`
	TargetID   string     `json:"target_id" gorm:"Column:target_id"`
	Payload    []byte     `json:"payload,omitempty" gorm:"Column:payload"`
	CreatedAt  time.Time  `json:"created_at"`
}
