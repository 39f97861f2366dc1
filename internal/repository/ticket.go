package repository

import (
	"context"

	"gorm.io/gorm"

	"example.com/coldchain/internal/database"
	"example.com/coldchain/internal/models"
)

// TicketFilter narrows ticket listings
type TicketFilter struct {
	Status   models.TicketStatus
	Priority models.TicketPriority
	Limit    int
}

// TicketRepository defines data access for tickets
type TicketRepository interface {
	Create(ctx context.Context, ticket *models.Ticket) error
	Update(ctx context.Context, ticket *models.Ticket) error
	Delete(ctx context.Context, ticket *models.Ticket) error
	GetByID(ctx context.Context, id string) (*models.Ticket, error)
	GetByAlertID(ctx context.Context, alertID string) (*models.Ticket, error)
	// GetOrCreateForAlert returns the existing ticket for the alert, or
	// persists the given ticket when none exists yet. The second return
	// value reports whether a new ticket was created.
	GetOrCreateForAlert(ctx context.Context, ticket *models.Ticket) (*models.Ticket, bool, error)
	List(ctx context.Context, filter TicketFilter) ([]*models.Ticket, error)
}

type ticketRepository struct {
	db *gorm.DB
}

// NewTicketRepository creates a new ticket repository
func NewTicketRepository(db *gorm.DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Create(ticket).Error
}

func (r *ticketRepository) Update(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Save(ticket).Error
}

func (r *ticketRepository) Delete(ctx context.Context, ticket *models.Ticket) error {
	return r.db.WithContext(ctx).Delete(ticket).Error
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&ticket).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (r *ticketRepository) GetByAlertID(ctx context.Context, alertID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := r.db.WithContext(ctx).Where("alert_id = ?", alertID).First(&ticket).Error
	if err != nil {
		if database.IsRecordNotFoundError(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

// GetOrCreateForAlert is keyed on the alert reference. The unique index on
// alert_id closes the race between two concurrent creates: the loser of the
// insert fetches the winner's row.
func (r *ticketRepository) GetOrCreateForAlert(ctx context.Context, ticket *models.Ticket) (*models.Ticket, bool, error) {
	if ticket.AlertID == nil {
		if err := r.Create(ctx, ticket); err != nil {
			return nil, false, err
		}
		return ticket, true, nil
	}

	existing, err := r.GetByAlertID(ctx, ticket.AlertID.String())
	if err == nil {
		return existing, false, nil
	}
	if err != ErrNotFound {
		return nil, false, err
	}

	if err := r.Create(ctx, ticket); err != nil {
		// Unique constraint hit means another writer got there first
		existing, fetchErr := r.GetByAlertID(ctx, ticket.AlertID.String())
		if fetchErr == nil {
			return existing, false, nil
		}
		return nil, false, err
	}
	return ticket, true, nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]*models.Ticket, error) {
	var tickets []*models.Ticket
	query := r.db.WithContext(ctx).Order("created_at DESC")
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}
	if err := query.Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}
