package services_test

import (
	"testing"
	"time"

	"github.com/energyhub/marketplace/models"
	"github.com/energyhub/marketplace/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	seller = models.Actor{ID: "seller-1", Role: models.RoleSeller}
	buyer  = models.Actor{ID: "buyer-1", Role: models.RoleBuyer}
)

func orderInStatus(status models.OrderStatus) *models.Order {
	return &models.Order{
		ID:          uuid.New(),
		OrderNumber: "EH-20260101-ABC123",
		UserID:      uuid.New(),
		ProductName: "400W Solar Panel",
		UnitPrice:   100,
		Quantity:    2,
		Subtotal:    200,
		Status:      status,
		Version:     1,
		UpdatedAt:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func shipInput() services.TransitionInput {
	return services.TransitionInput{TrackingNumber: "1Z999AA10123456784", Carrier: "FedEx"}
}

func TestApplyTransition_ValidMatrix(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name   string
		from   models.OrderStatus
		action services.Action
		in     services.TransitionInput
		want   models.OrderStatus
	}{
		{"confirm from Reviewing", models.StatusReviewing, services.ActionConfirm, services.TransitionInput{}, models.StatusConfirmed},
		{"confirm from legacy Pending", models.StatusPending, services.ActionConfirm, services.TransitionInput{}, models.StatusConfirmed},
		{"reject from Reviewing", models.StatusReviewing, services.ActionReject, services.TransitionInput{Note: "out of stock"}, models.StatusRejected},
		{"process from Confirmed", models.StatusConfirmed, services.ActionStartProcessing, services.TransitionInput{}, models.StatusProcessing},
		{"ship from Processing", models.StatusProcessing, services.ActionShip, shipInput(), models.StatusShipped},
		{"deliver from Shipped", models.StatusShipped, services.ActionDeliver, services.TransitionInput{}, models.StatusDelivered},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := orderInStatus(tt.from)
			err := services.ApplyTransition(o, tt.action, seller, tt.in, now)
			require.Nil(t, err)
			assert.Equal(t, tt.want, o.Status)
			assert.Equal(t, now, o.UpdatedAt)
		})
	}
}

func TestApplyTransition_InvalidMatrix(t *testing.T) {
	now := time.Now()

	tests := []struct {
		from   models.OrderStatus
		action services.Action
	}{
		{models.StatusConfirmed, services.ActionConfirm},
		{models.StatusProcessing, services.ActionConfirm},
		{models.StatusShipped, services.ActionConfirm},
		{models.StatusDelivered, services.ActionConfirm},
		{models.StatusConfirmed, services.ActionReject},
		{models.StatusReviewing, services.ActionStartProcessing},
		{models.StatusShipped, services.ActionStartProcessing},
		{models.StatusReviewing, services.ActionShip},
		{models.StatusConfirmed, services.ActionShip},
		{models.StatusShipped, services.ActionShip},
		{models.StatusReviewing, services.ActionDeliver},
		{models.StatusProcessing, services.ActionDeliver},
		{models.StatusDelivered, services.ActionDeliver}, // deliver twice is rejected, not re-applied
		{models.StatusCancelled, services.ActionConfirm},
		{models.StatusRejected, services.ActionConfirm},
		{models.StatusCancelRequested, services.ActionShip},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"_"+string(tt.action), func(t *testing.T) {
			o := orderInStatus(tt.from)
			before := *o

			err := services.ApplyTransition(o, tt.action, seller, shipInput(), now)
			require.NotNil(t, err)
			assert.Equal(t, services.KindInvalidState, err.Kind)
			assert.Equal(t, 400, err.StatusCode)
			assert.Equal(t, before.Status, o.Status)
			assert.Equal(t, before.UpdatedAt, o.UpdatedAt)
		})
	}
}

func TestApplyTransition_RoleGating(t *testing.T) {
	o := orderInStatus(models.StatusReviewing)
	before := o.UpdatedAt

	err := services.ApplyTransition(o, services.ActionConfirm, buyer, services.TransitionInput{}, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, services.KindForbidden, err.Kind)
	assert.Equal(t, models.StatusReviewing, o.Status)
	assert.Equal(t, before, o.UpdatedAt)
}

func TestApplyTransition_UnknownAction(t *testing.T) {
	o := orderInStatus(models.StatusReviewing)

	err := services.ApplyTransition(o, services.Action("teleport"), seller, services.TransitionInput{}, time.Now())
	require.NotNil(t, err)
	assert.Equal(t, services.KindValidation, err.Kind)
}

func TestApplyTransition_ConfirmSetsEstimatedDelivery(t *testing.T) {
	o := orderInStatus(models.StatusReviewing)
	now := time.Now()

	err := services.ApplyTransition(o, services.ActionConfirm, seller, services.TransitionInput{}, now)
	require.Nil(t, err)
	require.NotNil(t, o.ConfirmedAt)
	require.NotNil(t, o.EstimatedDelivery)
	assert.Equal(t, now, *o.ConfirmedAt)
	assert.Equal(t, now.Add(7*24*time.Hour), *o.EstimatedDelivery)
}

func TestApplyTransition_ShipRequiresTrackingAndCarrier(t *testing.T) {
	now := time.Now()

	o := orderInStatus(models.StatusProcessing)
	err := services.ApplyTransition(o, services.ActionShip, seller, services.TransitionInput{Carrier: "FedEx"}, now)
	require.NotNil(t, err)
	assert.Equal(t, services.KindValidation, err.Kind)
	assert.Equal(t, models.StatusProcessing, o.Status)

	err = services.ApplyTransition(o, services.ActionShip, seller, services.TransitionInput{TrackingNumber: "1Z9"}, now)
	require.NotNil(t, err)
	assert.Equal(t, services.KindValidation, err.Kind)

	cost := 25.0
	err = services.ApplyTransition(o, services.ActionShip, seller, services.TransitionInput{
		TrackingNumber: "1Z999AA10123456784",
		Carrier:        "FedEx",
		ShippingCost:   &cost,
		SellerNotes:    "fragile",
	}, now)
	require.Nil(t, err)
	assert.Equal(t, models.StatusShipped, o.Status)
	assert.Equal(t, "1Z999AA10123456784", o.TrackingNumber)
	assert.Equal(t, "FedEx", o.Carrier)
	assert.Equal(t, 25.0, o.ShippingCost)
	assert.Equal(t, "fragile", o.SellerNotes)
	require.NotNil(t, o.ShippedAt)
	assert.Equal(t, now, *o.ShippedAt)
}

func TestApplyTransition_DeliverSetsDeliveredAt(t *testing.T) {
	o := orderInStatus(models.StatusShipped)
	now := time.Now()

	err := services.ApplyTransition(o, services.ActionDeliver, seller, services.TransitionInput{}, now)
	require.Nil(t, err)
	require.NotNil(t, o.DeliveredAt)
	assert.Equal(t, now, *o.DeliveredAt)
}

func TestRequestCancellation_FromCancellableStatuses(t *testing.T) {
	now := time.Now()

	for _, from := range []models.OrderStatus{models.StatusReviewing, models.StatusPending, models.StatusProcessing} {
		o := orderInStatus(from)
		err := services.RequestCancellation(o, "changed mind", "buyer-1", now)
		require.Nil(t, err, "from %s", from)
		assert.Equal(t, models.StatusCancelRequested, o.Status)
		require.NotNil(t, o.Cancellation)
		assert.Equal(t, models.CancellationPending, o.Cancellation.Status)
		assert.Equal(t, "changed mind", o.Cancellation.Reason)
		assert.Equal(t, "buyer-1", o.Cancellation.RequestedBy)
		assert.Equal(t, from, o.Cancellation.OriginalStatus)
		assert.Equal(t, now, o.Cancellation.RequestedAt)
	}
}

func TestRequestCancellation_PastWindow(t *testing.T) {
	for _, from := range []models.OrderStatus{
		models.StatusShipped,
		models.StatusDelivered,
		models.StatusCancelled,
		models.StatusRejected,
		models.StatusCancelRequested,
	} {
		o := orderInStatus(from)
		err := services.RequestCancellation(o, "too late", "buyer-1", time.Now())
		require.NotNil(t, err, "from %s", from)
		assert.Equal(t, services.KindCannotCancel, err.Kind)
		assert.Equal(t, from, o.Status)
		assert.Nil(t, o.Cancellation)
	}
}

func TestRequestCancellation_RequiresReason(t *testing.T) {
	o := orderInStatus(models.StatusProcessing)
	err := services.RequestCancellation(o, "", "buyer-1", time.Now())
	require.NotNil(t, err)
	assert.Equal(t, services.KindValidation, err.Kind)
}

func TestCancellation_ApproveDefaultsRefundToTotal(t *testing.T) {
	now := time.Now()
	o := orderInStatus(models.StatusProcessing)
	o.ShippingCost = 15
	o.Tax = 16
	o.Discount = 20

	require.Nil(t, services.RequestCancellation(o, "changed mind", "buyer-1", now))
	require.Nil(t, services.ApproveCancellation(o, "seller-1", nil, "", now))

	assert.Equal(t, models.StatusCancelled, o.Status)
	assert.Equal(t, models.CancellationApproved, o.Cancellation.Status)
	assert.Equal(t, "seller-1", o.Cancellation.ApprovedBy)
	require.NotNil(t, o.Cancellation.RefundAmount)
	assert.InDelta(t, o.Total(), *o.Cancellation.RefundAmount, 1e-9)
	require.NotNil(t, o.Cancellation.ResolvedAt)
}

func TestCancellation_ApproveWithExplicitRefund(t *testing.T) {
	now := time.Now()
	o := orderInStatus(models.StatusProcessing)

	require.Nil(t, services.RequestCancellation(o, "changed mind", "buyer-1", now))
	refund := 150.0
	require.Nil(t, services.ApproveCancellation(o, "seller-1", &refund, "partial restock fee", now))

	assert.Equal(t, 150.0, *o.Cancellation.RefundAmount)
	assert.Equal(t, "partial restock fee", o.Cancellation.Notes)
}

func TestCancellation_RejectRestoresOriginalStatus(t *testing.T) {
	now := time.Now()

	for _, from := range []models.OrderStatus{models.StatusReviewing, models.StatusProcessing} {
		o := orderInStatus(from)
		require.Nil(t, services.RequestCancellation(o, "changed mind", "buyer-1", now))
		require.Equal(t, models.StatusCancelRequested, o.Status)

		require.Nil(t, services.RejectCancellation(o, "seller-1", "already being built", now))
		assert.Equal(t, from, o.Status, "original status restored exactly")
		assert.Equal(t, models.CancellationRejected, o.Cancellation.Status)
		assert.Equal(t, "seller-1", o.Cancellation.RejectedBy)
		assert.Equal(t, "already being built", o.Cancellation.Notes)
	}
}

func TestCancellation_RejectLegacyRowFallsBackToProcessing(t *testing.T) {
	now := time.Now()
	o := orderInStatus(models.StatusCancelRequested)
	o.Cancellation = &models.CancellationRequest{
		OrderID:     o.ID,
		Reason:      "changed mind",
		RequestedBy: "buyer-1",
		Status:      models.CancellationPending,
		// legacy row: no OriginalStatus recorded
	}

	require.Nil(t, services.RejectCancellation(o, "seller-1", "", now))
	assert.Equal(t, models.StatusProcessing, o.Status)
}

func TestCancellation_ResolveWithoutPendingRequest(t *testing.T) {
	now := time.Now()

	o := orderInStatus(models.StatusProcessing)
	before := *o

	err := services.ApproveCancellation(o, "seller-1", nil, "", now)
	require.NotNil(t, err)
	assert.Equal(t, services.KindNoPendingRequest, err.Kind)
	assert.Equal(t, before.Status, o.Status)
	assert.Equal(t, before.UpdatedAt, o.UpdatedAt)

	err = services.RejectCancellation(o, "seller-1", "", now)
	require.NotNil(t, err)
	assert.Equal(t, services.KindNoPendingRequest, err.Kind)
}

func TestCancellation_ResolveAlreadyResolved(t *testing.T) {
	now := time.Now()
	o := orderInStatus(models.StatusProcessing)

	require.Nil(t, services.RequestCancellation(o, "changed mind", "buyer-1", now))
	require.Nil(t, services.ApproveCancellation(o, "seller-1", nil, "", now))

	err := services.ApproveCancellation(o, "seller-1", nil, "", now)
	require.NotNil(t, err)
	assert.Equal(t, services.KindNoPendingRequest, err.Kind)
}
