package repository

import (
	"context"
	"errors"

	"github.com/energyhub/marketplace/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrVersionConflict is returned when an optimistic update finds the row
// already modified by a concurrent writer.
var ErrVersionConflict = errors.New("order version conflict")

// OrderFilter narrows list queries.
type OrderFilter struct {
	UserID      *uuid.UUID
	Status      *models.OrderStatus
	NeedsAction bool
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	FindByIDOrNumber(ctx context.Context, key string) (*models.Order, error)
	Find(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error)
	Update(ctx context.Context, order *models.Order) error
	UpdateWithCancellation(ctx context.Context, order *models.Order, cr *models.CancellationRequest) error
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository.
func NewGormOrderRepository(db *gorm.DB) OrderRepository {
	return &GormOrderRepository{db: db}
}

// Create inserts a new order.
func (r *GormOrderRepository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

// FindByIDOrNumber retrieves an order by its UUID or its human-facing order
// number, with any cancellation sub-record preloaded.
func (r *GormOrderRepository) FindByIDOrNumber(ctx context.Context, key string) (*models.Order, error) {
	var order models.Order
	query := r.db.WithContext(ctx).Preload("Cancellation")
	if id, err := uuid.Parse(key); err == nil {
		query = query.Where("id = ?", id)
	} else {
		query = query.Where("order_number = ?", key)
	}
	if err := query.First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// Find retrieves orders matching the filter, newest first, with pagination.
func (r *GormOrderRepository) Find(ctx context.Context, filter OrderFilter, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.WithContext(ctx).Model(&models.Order{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.NeedsAction {
		query = query.Where("status IN ?", []models.OrderStatus{
			models.StatusReviewing, models.StatusPending, models.StatusCancelRequested,
		})
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.
		Preload("Cancellation").
		Offset(offset).
		Limit(limit).
		Order("created_at DESC").
		Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// Update persists a mutated order with a version compare-and-swap: the write
// succeeds only if no other writer touched the row since it was read. On
// success the in-memory version advances along with the stored one.
func (r *GormOrderRepository) Update(ctx context.Context, order *models.Order) error {
	return updateOrder(r.db.WithContext(ctx), order)
}

// UpdateWithCancellation persists the order mutation and its cancellation
// sub-record atomically.
func (r *GormOrderRepository) UpdateWithCancellation(ctx context.Context, order *models.Order, cr *models.CancellationRequest) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := updateOrder(tx, order); err != nil {
			return err
		}
		return tx.Save(cr).Error
	})
}

func updateOrder(tx *gorm.DB, order *models.Order) error {
	prev := order.Version
	order.Version = prev + 1

	result := tx.Model(&models.Order{}).
		Where("id = ? AND version = ?", order.ID, prev).
		Select("*").
		Omit("id", "order_number", "created_at", "Cancellation").
		Updates(order)
	if result.Error != nil {
		order.Version = prev
		return result.Error
	}
	if result.RowsAffected == 0 {
		order.Version = prev
		return ErrVersionConflict
	}
	return nil
}
