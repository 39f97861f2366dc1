package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"
)

// AlertFilter narrows alert listings
type AlertFilter struct {
	SensorID string
	Status   models.AlertStatus
	Severity models.AlertSeverity
	Limit    int
}

// AlertRepository defines data access for alerts
type AlertRepository interface {
	Create(ctx context.Context, alert *models.Alert) error
	Update(ctx context.Context, alert *models.Alert) error
	Delete(ctx context.Context, alert *models.Alert) error
	GetByID(ctx context.Context, id string) (*models.Alert, error)
	List(ctx context.Context, filter AlertFilter) ([]*models.Alert, error)
}

type alertRepository struct {
	db *gorm.DB
}

// NewAlertRepository creates a new alert repository
func NewAlertRepository(db *gorm.DB) AlertRepository {
	return &alertRepository{db: db}
}

func (r *alertRepository) Create(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Create(alert).Error
}

func (r *alertRepository) Update(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Save(alert).Error
}

func (r *alertRepository) Delete(ctx context.Context, alert *models.Alert) error {
	return r.db.WithContext(ctx).Delete(alert).Error
}

func (r *alertRepository) GetByID(ctx context.Context, id string) (*models.Alert, error) {
	var alert models.Alert
	err := r.db.WithContext(ctx).
		Preload("Sensor").
		Preload("Measurement").
		Where("id = ?", id).
		First(&alert).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &alert, nil
}

func (r *alertRepository) List(ctx context.Context, filter AlertFilter) ([]*models.Alert, error) {
	var alerts []*models.Alert
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.SensorID != "" {
		query = query.Where("sensor_id = ?", filter.SensorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Severity != "" {
		query = query.Where("severity = ?", filter.Severity)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&alerts).Error; err != nil {
		return nil, err
	}
	return alerts, nil
}
