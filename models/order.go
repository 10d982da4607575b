package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Actor roles supplied by the fronting auth layer. The service trusts these
// as already-verified claims; it never authenticates.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
	RoleAdmin  = "admin"
)

// Actor identifies the caller of a request.
type Actor struct {
	ID   string
	Role string
}

// Order is a single purchase moving through the fulfillment lifecycle.
type Order struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderNumber string    `gorm:"type:varchar(32);uniqueIndex;not null" json:"order_number"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`

	CustomerName  string `gorm:"type:varchar(128)" json:"customer_name"`
	CustomerEmail string `gorm:"type:varchar(256)" json:"customer_email"`

	ProductID    uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`
	ProductName  string    `gorm:"type:varchar(256);not null" json:"product_name"`
	ProductImage string    `gorm:"type:varchar(1024)" json:"product_image,omitempty"`

	UnitPrice    float64 `gorm:"not null" json:"unit_price"`
	Quantity     int     `gorm:"not null" json:"quantity"`
	Subtotal     float64 `gorm:"not null" json:"subtotal"`
	ShippingCost float64 `gorm:"not null;default:0" json:"shipping_cost"`
	Tax          float64 `gorm:"not null;default:0" json:"tax"`
	Discount     float64 `gorm:"not null;default:0" json:"discount"`
	PromoCode    *string `gorm:"type:varchar(64)" json:"promo_code,omitempty"`

	Status        OrderStatus `gorm:"type:varchar(20);not null;default:'Reviewing'" json:"status"`
	PaymentStatus string      `gorm:"type:varchar(20);not null;default:'unpaid'" json:"payment_status"`

	// Version guards every mutation with a compare-and-swap; a mismatch on
	// write means a concurrent update won and the caller gets a conflict.
	Version int `gorm:"not null;default:1" json:"version"`

	TrackingNumber    string     `gorm:"type:varchar(128)" json:"tracking_number,omitempty"`
	Carrier           string     `gorm:"type:varchar(64)" json:"carrier,omitempty"`
	EstimatedDelivery *time.Time `json:"estimated_delivery,omitempty"`
	SellerNotes       string     `gorm:"type:varchar(1024)" json:"seller_notes,omitempty"`
	AdminNote         string     `gorm:"type:text" json:"admin_note,omitempty"`

	ConfirmedAt *time.Time `json:"confirmed_at,omitempty"`
	ShippedAt   *time.Time `json:"shipped_at,omitempty"`
	DeliveredAt *time.Time `json:"delivered_at,omitempty"`

	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Cancellation *CancellationRequest `gorm:"foreignKey:OrderID" json:"cancellation,omitempty"`
}

// BeforeCreate assigns an app-side UUID when the driver has no server-side
// default (the local sqlite store).
func (o *Order) BeforeCreate(_ *gorm.DB) error {
	if o.ID == uuid.Nil {
		o.ID = uuid.New()
	}
	return nil
}

// Total is the amount the buyer pays, and the default refund on an approved
// cancellation.
func (o *Order) Total() float64 {
	return o.Subtotal + o.ShippingCost + o.Tax - o.Discount
}

// HasPendingCancellation reports whether a cancellation request is awaiting
// a seller decision.
func (o *Order) HasPendingCancellation() bool {
	return o.Cancellation != nil && o.Cancellation.Status == CancellationPending
}

// CancellationStatus tracks the resolution of a buyer's cancellation request.
type CancellationStatus string

const (
	CancellationPending  CancellationStatus = "pending"
	CancellationApproved CancellationStatus = "approved"
	CancellationRejected CancellationStatus = "rejected"
)

// CancellationRequest is the negotiation sub-record layered on top of the
// order's top-level status. A pending row exists only while the order sits
// in Cancel Requested.
type CancellationRequest struct {
	ID          uuid.UUID          `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OrderID     uuid.UUID          `gorm:"type:uuid;not null;uniqueIndex" json:"order_id"`
	Reason      string             `gorm:"type:varchar(1024);not null" json:"reason"`
	RequestedBy string             `gorm:"type:varchar(128);not null" json:"requested_by"`
	RequestedAt time.Time          `gorm:"not null" json:"requested_at"`
	Status      CancellationStatus `gorm:"type:varchar(16);not null;default:'pending'" json:"status"`

	// OriginalStatus is the order's top-level status at request time, used
	// to restore it on rejection. Rows written before this column existed
	// fall back to Processing.
	OriginalStatus OrderStatus `gorm:"type:varchar(20)" json:"original_status,omitempty"`

	ApprovedBy   string     `gorm:"type:varchar(128)" json:"approved_by,omitempty"`
	RejectedBy   string     `gorm:"type:varchar(128)" json:"rejected_by,omitempty"`
	RefundAmount *float64   `json:"refund_amount,omitempty"`
	Notes        string     `gorm:"type:varchar(1024)" json:"notes,omitempty"`
	ResolvedAt   *time.Time `json:"resolved_at,omitempty"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (c *CancellationRequest) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	ProductID     uuid.UUID `json:"product_id" binding:"required"`
	ProductName   string    `json:"product_name" binding:"required"`
	ProductImage  string    `json:"product_image"`
	UnitPrice     float64   `json:"unit_price" binding:"required,gt=0"`
	Quantity      int       `json:"quantity" binding:"required,min=1"`
	ShippingCost  float64   `json:"shipping_cost" binding:"gte=0"`
	PromoCode     string    `json:"promo_code"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email" binding:"omitempty,email"`
}

// ShipOrderRequest is the payload for marking an order shipped. Tracking
// number and carrier are mandatory.
type ShipOrderRequest struct {
	TrackingNumber    string     `json:"tracking_number" binding:"required"`
	Carrier           string     `json:"carrier" binding:"required"`
	ShippingCost      *float64   `json:"shipping_cost" binding:"omitempty,gte=0"`
	SellerNotes       string     `json:"seller_notes"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
}

// RejectOrderRequest carries the seller's reason for declining an order.
type RejectOrderRequest struct {
	Note string `json:"note"`
}

// CancelOrderRequest is the buyer's cancellation request payload.
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ApproveCancellationRequest is the seller's approval payload.
type ApproveCancellationRequest struct {
	RefundAmount *float64 `json:"refund_amount" binding:"omitempty,gte=0"`
	Notes        string   `json:"notes"`
}

// RejectCancellationRequest is the seller's rejection payload.
type RejectCancellationRequest struct {
	Reason string `json:"reason"`
}

// AdminStatusUpdateRequest is the gated override payload for
// PATCH /orders/:id. The new status must be a member of the closed set.
type AdminStatusUpdateRequest struct {
	Status OrderStatus `json:"status" binding:"required"`
	Note   string      `json:"note"`
}
