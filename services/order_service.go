package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/energyhub/marketplace/models"
	"github.com/energyhub/marketplace/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// OrderView is an order payload with its fulfillment checklist attached.
// Every read and every successful mutation returns one.
type OrderView struct {
	models.Order
	StatusSteps []models.StatusStep `json:"status_steps"`
}

// OrderListResponse is a paginated order listing.
type OrderListResponse struct {
	Orders []OrderView `json:"orders"`
	Meta   MetaData    `json:"meta"`
}

// MetaData describes a result page.
type MetaData struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	TotalOrders int64 `json:"total_orders"`
	TotalPages  int64 `json:"total_pages"`
	HasMore     bool  `json:"has_more"`
}

// OrderService owns the order lifecycle: creation, reads, transitions,
// cancellation negotiation, and the gated admin override. No other component
// mutates order status.
type OrderService struct {
	orderRepo repository.OrderRepository
	promo     PromoService
	taxRate   float64
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrderService creates a new OrderService. promo may be nil when the
// promo module is disabled; checkout then rejects promo codes outright.
func NewOrderService(orderRepo repository.OrderRepository, promo PromoService, taxRate float64, logger *zap.Logger) *OrderService {
	return &OrderService{
		orderRepo: orderRepo,
		promo:     promo,
		taxRate:   taxRate,
		logger:    logger,
		now:       time.Now,
	}
}

// CreateOrder handles checkout: pricing, promo application, order number
// generation, and the initial Reviewing status.
func (s *OrderService) CreateOrder(ctx context.Context, actor models.Actor, req *models.CreateOrderRequest) (*OrderView, *ServiceError) {
	if actor.Role != models.RoleBuyer {
		return nil, errForbidden("Only buyers can place orders")
	}
	userID, err := uuid.Parse(actor.ID)
	if err != nil {
		return nil, errValidation("Invalid user ID format")
	}

	now := s.now()
	subtotal := round2(req.UnitPrice * float64(req.Quantity))

	var discount float64
	var promoCode *string
	if req.PromoCode != "" {
		if s.promo == nil {
			return nil, errValidation("Promo codes are not supported")
		}
		d, svcErr := s.promo.ApplyCode(ctx, req.PromoCode, subtotal)
		if svcErr != nil {
			return nil, svcErr
		}
		discount = round2(d)
		code := strings.ToUpper(req.PromoCode)
		promoCode = &code
	}

	order := &models.Order{
		OrderNumber:   generateOrderNumber(now),
		UserID:        userID,
		CustomerName:  req.CustomerName,
		CustomerEmail: req.CustomerEmail,
		ProductID:     req.ProductID,
		ProductName:   req.ProductName,
		ProductImage:  req.ProductImage,
		UnitPrice:     req.UnitPrice,
		Quantity:      req.Quantity,
		Subtotal:      subtotal,
		ShippingCost:  req.ShippingCost,
		Tax:           round2(subtotal * s.taxRate),
		Discount:      discount,
		PromoCode:     promoCode,
		Status:        models.StatusReviewing,
	}

	if err := s.orderRepo.Create(ctx, order); err != nil {
		s.logger.Error("Failed to persist order", zap.Error(err))
		return nil, errPersistence("Failed to create order")
	}

	// usage is counted only for persisted orders; the order stands even if
	// the count cannot be written
	if promoCode != nil {
		if svcErr := s.promo.RedeemCode(ctx, req.PromoCode); svcErr != nil {
			s.logger.Warn("Promo code use not counted",
				zap.String("order_number", order.OrderNumber),
				zap.String("code", *promoCode),
			)
		}
	}

	s.logger.Info("Order created",
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", actor.ID),
	)
	return view(order), nil
}

// ListOrders retrieves paginated orders matching the filter.
func (s *OrderService) ListOrders(ctx context.Context, filter repository.OrderFilter, page, limit int) (*OrderListResponse, *ServiceError) {
	orders, total, err := s.orderRepo.Find(ctx, filter, page, limit)
	if err != nil {
		s.logger.Error("Failed to fetch orders", zap.Error(err))
		return nil, errPersistence("Failed to fetch orders")
	}

	views := make([]OrderView, 0, len(orders))
	for i := range orders {
		views = append(views, *view(&orders[i]))
	}

	return &OrderListResponse{
		Orders: views,
		Meta: MetaData{
			Page:        page,
			Limit:       limit,
			TotalOrders: total,
			TotalPages:  calculateTotalPages(total, limit),
			HasMore:     total > int64(page*limit),
		},
	}, nil
}

// GetOrder retrieves a single order by UUID or order number.
func (s *OrderService) GetOrder(ctx context.Context, key string) (*OrderView, *ServiceError) {
	order, svcErr := s.load(ctx, key)
	if svcErr != nil {
		return nil, svcErr
	}
	return view(order), nil
}

// ApplyAction runs one lifecycle transition (confirm, reject,
// startProcessing, ship, deliver) against the order.
func (s *OrderService) ApplyAction(ctx context.Context, key string, action Action, actor models.Actor, in TransitionInput) (*OrderView, *ServiceError) {
	order, svcErr := s.load(ctx, key)
	if svcErr != nil {
		return nil, svcErr
	}

	if svcErr := ApplyTransition(order, action, actor, in, s.now()); svcErr != nil {
		return nil, svcErr
	}

	if svcErr := s.save(ctx, order); svcErr != nil {
		return nil, svcErr
	}

	s.logger.Info("Order transitioned",
		zap.String("order_number", order.OrderNumber),
		zap.String("action", string(action)),
		zap.String("status", string(order.Status)),
		zap.String("actor", actor.ID),
	)
	return view(order), nil
}

// RequestCancellation opens a cancellation negotiation on behalf of the
// buyer who owns the order.
func (s *OrderService) RequestCancellation(ctx context.Context, key string, actor models.Actor, reason string) (*OrderView, *ServiceError) {
	if actor.Role != models.RoleBuyer {
		return nil, errForbidden("Only buyers can request cancellation")
	}

	order, svcErr := s.load(ctx, key)
	if svcErr != nil {
		return nil, svcErr
	}
	if order.UserID.String() != actor.ID {
		return nil, errForbidden("Order belongs to a different buyer")
	}

	if svcErr := RequestCancellation(order, reason, actor.ID, s.now()); svcErr != nil {
		return nil, svcErr
	}

	if svcErr := s.saveWithCancellation(ctx, order); svcErr != nil {
		return nil, svcErr
	}

	s.logger.Info("Cancellation requested",
		zap.String("order_number", order.OrderNumber),
		zap.String("requested_by", actor.ID),
	)
	return view(order), nil
}

// ApproveCancellation resolves a pending cancellation in the buyer's favor.
func (s *OrderService) ApproveCancellation(ctx context.Context, key string, actor models.Actor, refundAmount *float64, notes string) (*OrderView, *ServiceError) {
	if actor.Role != models.RoleSeller {
		return nil, errForbidden("Only sellers can approve cancellation")
	}

	order, svcErr := s.load(ctx, key)
	if svcErr != nil {
		return nil, svcErr
	}

	if svcErr := ApproveCancellation(order, actor.ID, refundAmount, notes, s.now()); svcErr != nil {
		return nil, svcErr
	}

	if svcErr := s.saveWithCancellation(ctx, order); svcErr != nil {
		return nil, svcErr
	}

	s.logger.Info("Cancellation approved",
		zap.String("order_number", order.OrderNumber),
		zap.Float64("refund_amount", *order.Cancellation.RefundAmount),
	)
	return view(order), nil
}

// RejectCancellation resolves a pending cancellation in the seller's favor,
// restoring the pre-cancellation status.
func (s *OrderService) RejectCancellation(ctx context.Context, key string, actor models.Actor, reason string) (*OrderView, *ServiceError) {
	if actor.Role != models.RoleSeller {
		return nil, errForbidden("Only sellers can reject cancellation")
	}

	order, svcErr := s.load(ctx, key)
	if svcErr != nil {
		return nil, svcErr
	}

	if svcErr := RejectCancellation(order, actor.ID, reason, s.now()); svcErr != nil {
		return nil, svcErr
	}

	if svcErr := s.saveWithCancellation(ctx, order); svcErr != nil {
		return nil, svcErr
	}

	s.logger.Info("Cancellation rejected",
		zap.String("order_number", order.OrderNumber),
		zap.String("restored_status", string(order.Status)),
	)
	return view(order), nil
}

// OverrideStatus is the gated replacement for the legacy free-form status
// write: admin role only, closed-set statuses only, with an audit line
// appended to the order's note history.
func (s *OrderService) OverrideStatus(ctx context.Context, key string, actor models.Actor, status models.OrderStatus, note string) (*OrderView, *ServiceError) {
	if actor.Role != models.RoleAdmin {
		return nil, errForbidden("Status override requires the admin role")
	}
	if !status.Valid() {
		return nil, errValidation(fmt.Sprintf("Unknown status %q", status))
	}

	order, svcErr := s.load(ctx, key)
	if svcErr != nil {
		return nil, svcErr
	}

	now := s.now()
	previous := order.Status
	order.Status = status
	line := fmt.Sprintf("%s: %s -> %s by %s: %s",
		now.Format(time.RFC3339), previous, status, actor.ID, note)
	if order.AdminNote != "" {
		line = order.AdminNote + "\n" + line
	}
	order.AdminNote = line
	order.UpdatedAt = now

	if svcErr := s.save(ctx, order); svcErr != nil {
		return nil, svcErr
	}

	s.logger.Warn("Order status overridden",
		zap.String("order_number", order.OrderNumber),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.String("admin", actor.ID),
	)
	return view(order), nil
}

func (s *OrderService) load(ctx context.Context, key string) (*models.Order, *ServiceError) {
	order, err := s.orderRepo.FindByIDOrNumber(ctx, key)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errNotFound("Order not found")
		}
		s.logger.Error("Failed to fetch order", zap.String("key", key), zap.Error(err))
		return nil, errPersistence("Failed to fetch order")
	}
	if !order.Status.Valid() {
		// A status outside the closed set is corrupt data, not a state.
		s.logger.Error("Order has unknown status",
			zap.String("order_number", order.OrderNumber),
			zap.String("status", string(order.Status)),
		)
		return nil, errPersistence("Order record has an unknown status")
	}
	return order, nil
}

func (s *OrderService) save(ctx context.Context, order *models.Order) *ServiceError {
	if err := s.orderRepo.Update(ctx, order); err != nil {
		return s.mapWriteError(order, err)
	}
	return nil
}

func (s *OrderService) saveWithCancellation(ctx context.Context, order *models.Order) *ServiceError {
	if err := s.orderRepo.UpdateWithCancellation(ctx, order, order.Cancellation); err != nil {
		return s.mapWriteError(order, err)
	}
	return nil
}

func (s *OrderService) mapWriteError(order *models.Order, err error) *ServiceError {
	if errors.Is(err, repository.ErrVersionConflict) {
		return errConflict("Order was modified concurrently, re-fetch and retry")
	}
	s.logger.Error("Failed to persist order update",
		zap.String("order_number", order.OrderNumber),
		zap.Error(err),
	)
	return errPersistence("Failed to update order")
}

func view(order *models.Order) *OrderView {
	return &OrderView{
		Order:       *order,
		StatusSteps: models.ProjectSteps(order.Status),
	}
}

// generateOrderNumber builds the human-facing, immutable order number.
func generateOrderNumber(now time.Time) string {
	suffix := strings.ToUpper(uuid.NewString()[:6])
	return fmt.Sprintf("EH-%s-%s", now.Format("20060102"), suffix)
}

func calculateTotalPages(total int64, limit int) int64 {
	if limit == 0 {
		return 0
	}
	return (total + int64(limit) - 1) / int64(limit)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
