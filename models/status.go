package models

// OrderStatus is the lifecycle state of an order. The set is closed: any
// value outside it is a data-integrity error, never a new state.
type OrderStatus string

const (
	StatusReviewing       OrderStatus = "Reviewing"
	StatusPending         OrderStatus = "Pending" // legacy initial status, same rank as Reviewing
	StatusConfirmed       OrderStatus = "Confirmed"
	StatusProcessing      OrderStatus = "Processing"
	StatusShipped         OrderStatus = "Shipped"
	StatusDelivered       OrderStatus = "Delivered"
	StatusRejected        OrderStatus = "Rejected"
	StatusCancelRequested OrderStatus = "Cancel Requested"
	StatusCancelled       OrderStatus = "Cancelled"
)

// AllStatuses lists every member of the closed status set.
var AllStatuses = []OrderStatus{
	StatusReviewing,
	StatusPending,
	StatusConfirmed,
	StatusProcessing,
	StatusShipped,
	StatusDelivered,
	StatusRejected,
	StatusCancelRequested,
	StatusCancelled,
}

// Valid reports whether s is a member of the closed status set.
func (s OrderStatus) Valid() bool {
	for _, known := range AllStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// Cancellable reports whether a buyer may still request cancellation.
// Orders that have shipped, resolved, or already carry a pending request
// are past the window.
func (s OrderStatus) Cancellable() bool {
	switch s {
	case StatusReviewing, StatusPending, StatusProcessing:
		return true
	}
	return false
}

// NeedsAction reports whether the order sits in a state that requires a
// seller decision before it can progress.
func (s OrderStatus) NeedsAction() bool {
	switch s {
	case StatusReviewing, StatusPending, StatusCancelRequested:
		return true
	}
	return false
}

// StatusStep is one entry of the fulfillment progress checklist rendered by
// the storefront and returned on every order payload.
type StatusStep struct {
	Label     string `json:"label"`
	Completed bool   `json:"completed"`
}

// stepLabels are the four canonical fulfillment steps, in ship-flow order.
var stepLabels = [...]string{"Reviewing", "Processing", "Shipping", "Delivered"}

// fulfillmentRank maps each status to the last canonical step it has
// completed. Statuses outside the map (Rejected, Cancelled, Cancel
// Requested) are out-of-band: they fall back to rank 0, marking only
// Reviewing complete.
var fulfillmentRank = map[OrderStatus]int{
	StatusReviewing:  0,
	StatusPending:    0,
	StatusConfirmed:  0,
	StatusProcessing: 1,
	StatusShipped:    2,
	StatusDelivered:  3,
}

// ProjectSteps derives the fulfillment checklist for a status. It is pure
// and deterministic: a step is completed iff the status has reached that
// step or a later one, so completed sets only ever grow as an order
// advances. All API responses and UI rendering consume this one function.
func ProjectSteps(s OrderStatus) []StatusStep {
	rank, ok := fulfillmentRank[s]
	if !ok {
		rank = 0
	}
	steps := make([]StatusStep, len(stepLabels))
	for i, label := range stepLabels {
		steps[i] = StatusStep{Label: label, Completed: i <= rank}
	}
	return steps
}
