package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/coldchain/internal/models"
)

// AuditFilter narrows audit log listings
type AuditFilter struct {
	Action  string
	ActorID string
	Limit   int
}

// AuditLogRepository defines data access for audit entries. The log is
// append-only: entries are never updated or deleted.
type AuditLogRepository interface {
	Append(ctx context.Context, entry *models.AuditLog) error
	List(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, error)
}

type auditLogRepository struct {
	db *gorm.DB
}

// NewAuditLogRepository creates a new audit log repository
func NewAuditLogRepository(db *gorm.DB) AuditLogRepository {
	return &auditLogRepository{db: db}
}

func (r *auditLogRepository) Append(ctx context.Context, entry *models.AuditLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *auditLogRepository) List(ctx context.Context, filter AuditFilter) ([]*models.AuditLog, error) {
	var entries []*models.AuditLog
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}
	if filter.ActorID != "" {
		query = query.Where("actor_id = ?", filter.ActorID)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
