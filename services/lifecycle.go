package services

import (
	"fmt"
	"time"

	"github.com/energyhub/marketplace/models"
)

// Action is a named lifecycle transition a caller may request.
type Action string

const (
	ActionConfirm         Action = "confirm"
	ActionReject          Action = "reject"
	ActionStartProcessing Action = "startProcessing"
	ActionShip            Action = "ship"
	ActionDeliver         Action = "deliver"
)

// estimatedDeliveryWindow is added to the confirmation time when no explicit
// estimate is supplied later at ship time.
const estimatedDeliveryWindow = 7 * 24 * time.Hour

// TransitionInput carries the optional and action-specific fields a
// transition may consume.
type TransitionInput struct {
	TrackingNumber    string
	Carrier           string
	ShippingCost      *float64
	SellerNotes       string
	EstimatedDelivery *time.Time
	Note              string
}

// transitionRule is one row of the lifecycle table: which statuses the
// action is legal from, which role may invoke it, and the mutation it
// applies on success.
type transitionRule struct {
	from  []models.OrderStatus
	role  string
	apply func(o *models.Order, in TransitionInput, now time.Time) *ServiceError
}

// transitionTable is the single source of truth for order lifecycle moves.
// Any (status, action) pair absent from it is rejected; there is no
// free-form branching over status strings anywhere else.
var transitionTable = map[Action]transitionRule{
	ActionConfirm: {
		from: []models.OrderStatus{models.StatusReviewing, models.StatusPending},
		role: models.RoleSeller,
		apply: func(o *models.Order, _ TransitionInput, now time.Time) *ServiceError {
			o.Status = models.StatusConfirmed
			o.ConfirmedAt = &now
			est := now.Add(estimatedDeliveryWindow)
			o.EstimatedDelivery = &est
			return nil
		},
	},
	ActionReject: {
		from: []models.OrderStatus{models.StatusReviewing, models.StatusPending},
		role: models.RoleSeller,
		apply: func(o *models.Order, in TransitionInput, _ time.Time) *ServiceError {
			o.Status = models.StatusRejected
			if in.Note != "" {
				o.SellerNotes = in.Note
			}
			return nil
		},
	},
	ActionStartProcessing: {
		from: []models.OrderStatus{models.StatusConfirmed},
		role: models.RoleSeller,
		apply: func(o *models.Order, _ TransitionInput, _ time.Time) *ServiceError {
			o.Status = models.StatusProcessing
			return nil
		},
	},
	ActionShip: {
		from: []models.OrderStatus{models.StatusProcessing},
		role: models.RoleSeller,
		apply: func(o *models.Order, in TransitionInput, now time.Time) *ServiceError {
			if in.TrackingNumber == "" {
				return errValidation("Tracking number is required to ship an order")
			}
			if in.Carrier == "" {
				return errValidation("Carrier is required to ship an order")
			}
			o.Status = models.StatusShipped
			o.TrackingNumber = in.TrackingNumber
			o.Carrier = in.Carrier
			o.ShippedAt = &now
			if in.ShippingCost != nil {
				o.ShippingCost = *in.ShippingCost
			}
			if in.SellerNotes != "" {
				o.SellerNotes = in.SellerNotes
			}
			if in.EstimatedDelivery != nil {
				o.EstimatedDelivery = in.EstimatedDelivery
			}
			return nil
		},
	},
	ActionDeliver: {
		from: []models.OrderStatus{models.StatusShipped},
		role: models.RoleSeller,
		apply: func(o *models.Order, _ TransitionInput, now time.Time) *ServiceError {
			o.Status = models.StatusDelivered
			o.DeliveredAt = &now
			return nil
		},
	},
}

// ApplyTransition validates and applies a lifecycle action in place. On any
// error the order is left untouched, including its UpdatedAt.
func ApplyTransition(o *models.Order, action Action, actor models.Actor, in TransitionInput, now time.Time) *ServiceError {
	rule, ok := transitionTable[action]
	if !ok {
		return errValidation(fmt.Sprintf("Unknown action %q", action))
	}
	if actor.Role != rule.role {
		return errForbidden(fmt.Sprintf("Action %q requires the %s role", action, rule.role))
	}
	if !statusIn(o.Status, rule.from) {
		return errInvalidState(fmt.Sprintf("Cannot %s an order in status %q", action, o.Status))
	}
	if err := rule.apply(o, in, now); err != nil {
		return err
	}
	o.UpdatedAt = now
	return nil
}

// RequestCancellation opens the negotiation: the order moves to Cancel
// Requested and a pending sub-record captures the reason and the status to
// restore on rejection. An order holds at most one sub-record; a re-request
// after a rejected round overwrites the resolved one.
func RequestCancellation(o *models.Order, reason, requestedBy string, now time.Time) *ServiceError {
	if reason == "" {
		return errValidation("A cancellation reason is required")
	}
	if !o.Status.Cancellable() {
		return errCannotCancel(fmt.Sprintf("Order in status %q can no longer be cancelled", o.Status))
	}
	cr := &models.CancellationRequest{
		OrderID:        o.ID,
		Reason:         reason,
		RequestedBy:    requestedBy,
		RequestedAt:    now,
		Status:         models.CancellationPending,
		OriginalStatus: o.Status,
	}
	if o.Cancellation != nil {
		// keep the row; order_id is unique on cancellation_requests
		cr.ID = o.Cancellation.ID
	}
	o.Cancellation = cr
	o.Status = models.StatusCancelRequested
	o.UpdatedAt = now
	return nil
}

// ApproveCancellation resolves a pending request in the buyer's favor. The
// refund defaults to the order total when the seller does not name one.
func ApproveCancellation(o *models.Order, approvedBy string, refundAmount *float64, notes string, now time.Time) *ServiceError {
	if !o.HasPendingCancellation() {
		return errNoPendingRequest("Order has no pending cancellation request")
	}
	refund := o.Total()
	if refundAmount != nil {
		refund = *refundAmount
	}
	cr := o.Cancellation
	cr.Status = models.CancellationApproved
	cr.ApprovedBy = approvedBy
	cr.RefundAmount = &refund
	cr.Notes = notes
	cr.ResolvedAt = &now
	o.Status = models.StatusCancelled
	o.UpdatedAt = now
	return nil
}

// RejectCancellation resolves a pending request in the seller's favor and
// restores the order's pre-cancellation status. Legacy sub-records without a
// recorded original status fall back to Processing.
func RejectCancellation(o *models.Order, rejectedBy, reason string, now time.Time) *ServiceError {
	if !o.HasPendingCancellation() {
		return errNoPendingRequest("Order has no pending cancellation request")
	}
	cr := o.Cancellation
	restored := cr.OriginalStatus
	if restored == "" {
		restored = models.StatusProcessing
	}
	cr.Status = models.CancellationRejected
	cr.RejectedBy = rejectedBy
	if reason != "" {
		cr.Notes = reason
	}
	cr.ResolvedAt = &now
	o.Status = restored
	o.UpdatedAt = now
	return nil
}

func statusIn(s models.OrderStatus, set []models.OrderStatus) bool {
	for _, candidate := range set {
		if s == candidate {
			return true
		}
	}
	return false
}
