package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"
)

// MeasurementFilter narrows measurement listings
type MeasurementFilter struct {
	SensorID string
	Status   models.MeasurementStatus
	Limit    int
}

// MeasurementRepository defines data access for measurements
type MeasurementRepository interface {
	Create(ctx context.Context, measurement *models.Measurement) error
	Update(ctx context.Context, measurement *models.Measurement) error
	Delete(ctx context.Context, measurement *models.Measurement) error
	GetByID(ctx context.Context, id string) (*models.Measurement, error)
	List(ctx context.Context, filter MeasurementFilter) ([]*models.Measurement, error)
}

type measurementRepository struct {
	db *gorm.DB
}

// NewMeasurementRepository creates a new measurement repository
func NewMeasurementRepository(db *gorm.DB) MeasurementRepository {
	return &measurementRepository{db: db}
}

func (r *measurementRepository) Create(ctx context.Context, measurement *models.Measurement) error {
	return r.db.WithContext(ctx).Create(measurement).Error
}

func (r *measurementRepository) Update(ctx context.Context, measurement *models.Measurement) error {
	return r.db.WithContext(ctx).Save(measurement).Error
}

func (r *measurementRepository) Delete(ctx context.Context, measurement *models.Measurement) error {
	return r.db.WithContext(ctx).Delete(measurement).Error
}

func (r *measurementRepository) GetByID(ctx context.Context, id string) (*models.Measurement, error) {
	var measurement models.Measurement
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&measurement).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &measurement, nil
}

// List returns measurements ordered by newest reading first
func (r *measurementRepository) List(ctx context.Context, filter MeasurementFilter) ([]*models.Measurement, error) {
	var measurements []*models.Measurement
	query := r.db.WithContext(ctx).Order("recorded_at DESC")
	if filter.SensorID != "" {
		query = query.Where("sensor_id = ?", filter.SensorID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&measurements).Error; err != nil {
		return nil, err
	}
	return measurements, nil
}
