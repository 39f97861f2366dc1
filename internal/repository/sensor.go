package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"
)

// SensorFilter narrows sensor listings
type SensorFilter struct {
	IsActive *bool
	Location string
}

// SensorRepository defines data access for sensors
type SensorRepository interface {
	Create(ctx context.Context, sensor *models.Sensor) error
	Update(ctx context.Context, sensor *models.Sensor) error
	Delete(ctx context.Context, sensor *models.Sensor) error
	GetByID(ctx context.Context, id string) (*models.Sensor, error)
	GetByToken(ctx context.Context, token string) (*models.Sensor, error)
	List(ctx context.Context, filter SensorFilter) ([]*models.Sensor, error)
}

type sensorRepository struct {
	db *gorm.DB
}

// NewSensorRepository creates a new sensor repository
func NewSensorRepository(db *gorm.DB) SensorRepository {
	return &sensorRepository{db: db}
}

func (r *sensorRepository) Create(ctx context.Context, sensor *models.Sensor) error {
	return r.db.WithContext(ctx).Create(sensor).Error
}

func (r *sensorRepository) Update(ctx context.Context, sensor *models.Sensor) error {
	return r.db.WithContext(ctx).Save(sensor).Error
}

// Delete removes a sensor; measurements and alerts cascade at the database level
func (r *sensorRepository) Delete(ctx context.Context, sensor *models.Sensor) error {
	return r.db.WithContext(ctx).Delete(sensor).Error
}

func (r *sensorRepository) GetByID(ctx context.Context, id string) (*models.Sensor, error) {
	var sensor models.Sensor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sensor).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sensor, nil
}

func (r *sensorRepository) GetByToken(ctx context.Context, token string) (*models.Sensor, error) {
	var sensor models.Sensor
	err := r.db.WithContext(ctx).Where("token = ?", token).First(&sensor).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &sensor, nil
}

func (r *sensorRepository) List(ctx context.Context, filter SensorFilter) ([]*models.Sensor, error) {
	var sensors []*models.Sensor
	query := r.db.WithContext(ctx).Order("name")
	if filter.IsActive != nil {
		query = query.Where("is_active = ?", *filter.IsActive)
	}
	if filter.Location != "" {
		query = query.Where("location = ?", filter.Location)
	}
	if err := query.Find(&sensors).Error; err != nil {
		return nil, err
	}
	return sensors, nil
}
