package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"example.com/coldchain/internal/cache"
	"example.com/coldchain/internal/messaging"
	"example.com/coldchain/internal/models"
	"example.com/coldchain/internal/notifier"
	"example.com/coldchain/internal/repository"
	"example.com/coldchain/internal/search"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// ErrUnknownToken is returned when no sensor matches an ingestion token
var ErrUnknownToken = errors.New("unknown sensor token")

// Service defines the business logic operations
type Service interface {
	// Measurement ingestion pipeline
	IngestMeasurement(ctx context.Context, req *IngestRequest) (*IngestResult, error)
	IngestForToken(ctx context.Context, token string, req *IngestRequest) (*IngestResult, error)

	// Sensor operations
	CreateSensor(ctx context.Context, sensor *models.Sensor, actor *models.User) error
	UpdateSensor(ctx context.Context, sensor *models.Sensor, actor *models.User) error
	DeleteSensor(ctx context.Context, id string, actor *models.User) error
	GetSensor(ctx context.Context, id string) (*models.Sensor, error)
	ListSensors(ctx context.Context, filter repository.SensorFilter) ([]*models.Sensor, error)

	// Measurement administration
	GetMeasurement(ctx context.Context, id string) (*models.Measurement, error)
	ListMeasurements(ctx context.Context, filter repository.MeasurementFilter) ([]*models.Measurement, error)
	UpdateMeasurement(ctx context.Context, measurement *models.Measurement, actor *models.User) error
	DeleteMeasurement(ctx context.Context, id string, actor *models.User) error

	// Alert rule operations
	CreateAlertRule(ctx context.Context, rule *models.AlertRule, actor *models.User) error
	UpdateAlertRule(ctx context.Context, rule *models.AlertRule, actor *models.User) error
	DeleteAlertRule(ctx context.Context, id string, actor *models.User) error
	GetAlertRule(ctx context.Context, id string) (*models.AlertRule, error)
	ListAlertRules(ctx context.Context) ([]*models.AlertRule, error)

	// Alert operations
	GetAlert(ctx context.Context, id string) (*models.Alert, error)
	ListAlerts(ctx context.Context, filter repository.AlertFilter) ([]*models.Alert, error)
	AcknowledgeAlert(ctx context.Context, id string, actor *models.User) (*models.Alert, error)
	ResolveAlert(ctx context.Context, id string, actor *models.User) (*models.Alert, error)

	// Ticket operations
	CreateTicket(ctx context.Context, ticket *models.Ticket, actor *models.User) error
	UpdateTicket(ctx context.Context, ticket *models.Ticket, actor *models.User) error
	GetTicket(ctx context.Context, id string) (*models.Ticket, error)
	ListTickets(ctx context.Context, filter repository.TicketFilter) ([]*models.Ticket, error)

	// Audit log operations
	ListAuditLogs(ctx context.Context, filter repository.AuditFilter) ([]*models.AuditLog, error)

	// User operations
	CreateUser(ctx context.Context, user *models.User, actor *models.User) error
	UpdateUser(ctx context.Context, user *models.User, actor *models.User) error
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByAPIToken(ctx context.Context, token string) (*models.User, error)
	ListUsers(ctx context.Context) ([]*models.User, error)
}

// service is an implementation of the Service interface
type service struct {
	db              *gorm.DB
	sensorRepo      repository.SensorRepository
	measurementRepo repository.MeasurementRepository
	ruleRepo        repository.AlertRuleRepository
	alertRepo       repository.AlertRepository
	ticketRepo      repository.TicketRepository
	auditRepo       repository.AuditLogRepository
	userRepo        repository.UserRepository
	cache           cache.RedisClient
	dispatcher      notifier.Dispatcher
	messagingClient messaging.ServiceBusClient
	esClient        *search.ElasticClient
	log             *logrus.Logger
}

// ServiceConfig holds the configuration for the service
type ServiceConfig struct {
	DB              *gorm.DB
	Cache           cache.RedisClient
	Dispatcher      notifier.Dispatcher
	MessagingClient messaging.ServiceBusClient
	ElasticClient   *search.ElasticClient
	Logger          *logrus.Logger
}

// NewService creates a new service instance
func NewService(cfg ServiceConfig) (Service, error) {
	if cfg.DB == nil {
		return nil, errors.New("database is required")
	}
	if cfg.Dispatcher == nil {
		return nil, errors.New("notification dispatcher is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.New()
	}

	return &service{
		db:              cfg.DB,
		sensorRepo:      repository.NewSensorRepository(cfg.DB),
		measurementRepo: repository.NewMeasurementRepository(cfg.DB),
		ruleRepo:        repository.NewAlertRuleRepository(cfg.DB),
		alertRepo:       repository.NewAlertRepository(cfg.DB),
		ticketRepo:      repository.NewTicketRepository(cfg.DB),
		auditRepo:       repository.NewAuditLogRepository(cfg.DB),
		userRepo:        repository.NewUserRepository(cfg.DB),
		cache:           cfg.Cache,
		dispatcher:      cfg.Dispatcher,
		messagingClient: cfg.MessagingClient,
		esClient:        cfg.ElasticClient,
		log:             cfg.Logger,
	}, nil
}

// generateToken returns 32 hex characters from a CSPRNG, used for sensor
// ingestion tokens and user API tokens.
func generateToken() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// recordAudit appends one immutable audit entry using the given repository,
// which may be bound to an open transaction.
func recordAudit(ctx context.Context, repo repository.AuditLogRepository, action string, actorID *uuid.UUID, targetType, targetID string, payload interface{}) error {
	var data []byte
	if payload != nil {
		var err error
		data, err = json.Marshal(payload)
		if err != nil {
			return err
		}
	}
	return repo.Append(ctx, &models.AuditLog{
		ID:         uuid.New(),
		Action:     action,
		ActorID:    actorID,
		TargetType: targetType,
		TargetID:   targetID,
		Payload:    data,
	})
}

func actorID(actor *models.User) *uuid.UUID {
	if actor == nil {
		return nil
	}
	return &actor.ID
}

// CreateSensor persists a new sensor with a generated ingestion token
func (s *service) CreateSensor(ctx context.Context, sensor *models.Sensor, actor *models.User) error {
	if sensor.ID == uuid.Nil {
		sensor.ID = uuid.New()
	}
	if sensor.Token == "" {
		sensor.Token = generateToken()
	}
	sensor.CreatedByID = actorID(actor)

	if err := s.sensorRepo.Create(ctx, sensor); err != nil {
		return err
	}
	return recordAudit(ctx, s.auditRepo, "sensor.created", actorID(actor), "Sensor", sensor.ID.String(), nil)
}

// UpdateSensor saves sensor changes and drops the cached token mapping
func (s *service) UpdateSensor(ctx context.Context, sensor *models.Sensor, actor *models.User) error {
	if err := s.sensorRepo.Update(ctx, sensor); err != nil {
		return err
	}
	s.invalidateTokenCache(ctx, sensor.Token)
	return recordAudit(ctx, s.auditRepo, "sensor.updated", actorID(actor), "Sensor", sensor.ID.String(), nil)
}

// DeleteSensor removes a sensor and everything that cascades with it
func (s *service) DeleteSensor(ctx context.Context, id string, actor *models.User) error {
	sensor, err := s.sensorRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if err := recordAudit(ctx, s.auditRepo, "sensor.deleted", actorID(actor), "Sensor", sensor.ID.String(), nil); err != nil {
		return err
	}
	if err := s.sensorRepo.Delete(ctx, sensor); err != nil {
		return err
	}
	s.invalidateTokenCache(ctx, sensor.Token)
	return nil
}

func (s *service) GetSensor(ctx context.Context, id string) (*models.Sensor, error) {
	return s.sensorRepo.GetByID(ctx, id)
}

func (s *service) ListSensors(ctx context.Context, filter repository.SensorFilter) ([]*models.Sensor, error) {
	return s.sensorRepo.List(ctx, filter)
}

// CreateUser persists a new operator account with a generated API token
func (s *service) CreateUser(ctx context.Context, user *models.User, actor *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.APIToken == "" {
		user.APIToken = generateToken()
	}
	if user.Role == "" {
		user.Role = models.RoleViewer
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return err
	}
	return recordAudit(ctx, s.auditRepo, "user.created", actorID(actor), "User", user.ID.String(), nil)
}

func (s *service) UpdateUser(ctx context.Context, user *models.User, actor *models.User) error {
	if err := s.userRepo.Update(ctx, user); err != nil {
		return err
	}
	return recordAudit(ctx, s.auditRepo, "user.updated", actorID(actor), "User", user.ID.String(), nil)
}

func (s *service) GetUser(ctx context.Context, id string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *service) GetUserByAPIToken(ctx context.Context, token string) (*models.User, error) {
	return s.userRepo.GetByAPIToken(ctx, token)
}

func (s *service) ListUsers(ctx context.Context) ([]*models.User, error) {
	return s.userRepo.List(ctx)
}

const tokenCachePrefix = "sensor:token:"

// resolveSensorToken maps an ingestion token to its sensor, consulting the
// cache before the database. A missing token maps to ErrUnknownToken with no
// side effects.
func (s *service) resolveSensorToken(ctx context.Context, token string) (*models.Sensor, error) {
	if s.cache != nil {
		if id, err := s.cache.Get(ctx, tokenCachePrefix+token); err == nil && id != "" {
			if sensor, err := s.sensorRepo.GetByID(ctx, id); err == nil {
				return sensor, nil
			}
		}
	}

	sensor, err := s.sensorRepo.GetByToken(ctx, token)
	if err != nil {
		if err == repository.ErrNotFound {
			return nil, ErrUnknownToken
		}
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, tokenCachePrefix+token, sensor.ID.String(), 10*time.Minute); err != nil {
			s.log.WithError(err).Warn("Failed to cache sensor token")
		}
	}
	return sensor, nil
}

func (s *service) invalidateTokenCache(ctx context.Context, token string) {
	if s.cache == nil || token == "" {
		return
	}
	if err := s.cache.Delete(ctx, tokenCachePrefix+token); err != nil {
		s.log.WithError(err).Warn("Failed to invalidate sensor token cache")
	}
}
