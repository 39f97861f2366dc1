package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"
)

// AlertRuleRepository defines data access for alert rules
type AlertRuleRepository interface {
	Create(ctx context.Context, rule *models.AlertRule) error
	Update(ctx context.Context, rule *models.AlertRule) error
	Delete(ctx context.Context, rule *models.AlertRule) error
	GetByID(ctx context.Context, id string) (*models.AlertRule, error)
	List(ctx context.Context) ([]*models.AlertRule, error)
	FindActiveForSensor(ctx context.Context, sensorID string) ([]*models.AlertRule, error)
}

type alertRuleRepository struct {
	db *gorm.DB
}

// NewAlertRuleRepository creates a new alert rule repository
func NewAlertRuleRepository(db *gorm.DB) AlertRuleRepository {
	return &alertRuleRepository{db: db}
}

func (r *alertRuleRepository) Create(ctx context.Context, rule *models.AlertRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *alertRuleRepository) Update(ctx context.Context, rule *models.AlertRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *alertRuleRepository) Delete(ctx context.Context, rule *models.AlertRule) error {
	return r.db.WithContext(ctx).Delete(rule).Error
}

func (r *alertRuleRepository) GetByID(ctx context.Context, id string) (*models.AlertRule, error) {
	var rule models.AlertRule
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rule).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rule, nil
}

func (r *alertRuleRepository) List(ctx context.Context) ([]*models.AlertRule, error) {
	var rules []*models.AlertRule
	if err := r.db.WithContext(ctx).Order("name").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

// FindActiveForSensor returns active rules that are global or scoped to the sensor
func (r *alertRuleRepository) FindActiveForSensor(ctx context.Context, sensorID string) ([]*models.AlertRule, error) {
	var rules []*models.AlertRule
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Where("sensor_id IS NULL OR sensor_id = ?", sensorID).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
