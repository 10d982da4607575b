package controllers

import (
	"net/http"
	"strconv"

	"github.com/energyhub/marketplace/middleware"
	"github.com/energyhub/marketplace/models"
	"github.com/energyhub/marketplace/repository"
	"github.com/energyhub/marketplace/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrderController handles HTTP requests for the order lifecycle.
type OrderController struct {
	orderService *services.OrderService
}

// NewOrderController creates a new OrderController.
func NewOrderController(orderService *services.OrderService) *OrderController {
	return &OrderController{orderService: orderService}
}

// CreateOrder handles POST /orders (checkout).
func (oc *OrderController) CreateOrder(ctx *gin.Context) {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CreateOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": services.KindValidation, "details": err.Error()})
		return
	}

	order, svcErr := oc.orderService.CreateOrder(ctx.Request.Context(), actor, &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{"order": order})
}

// ListOrders handles GET /orders?userId=&status=&needsAction=&page=&limit=
func (oc *OrderController) ListOrders(ctx *gin.Context) {
	var filter repository.OrderFilter

	if raw := ctx.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid userId format", "kind": services.KindValidation})
			return
		}
		filter.UserID = &id
	}
	if raw := ctx.Query("status"); raw != "" {
		status := models.OrderStatus(raw)
		if !status.Valid() {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Unknown status filter", "kind": services.KindValidation})
			return
		}
		filter.Status = &status
	}
	if raw := ctx.Query("needsAction"); raw != "" {
		needs, err := strconv.ParseBool(raw)
		if err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid needsAction flag", "kind": services.KindValidation})
			return
		}
		filter.NeedsAction = needs
	}

	page, limit := parsePaginationParams(ctx)

	result, svcErr := oc.orderService.ListOrders(ctx.Request.Context(), filter, page, limit)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}

	ctx.JSON(http.StatusOK, result)
}

// GetOrder handles GET /orders/:id, where :id is a UUID or an order number.
func (oc *OrderController) GetOrder(ctx *gin.Context) {
	order, svcErr := oc.orderService.GetOrder(ctx.Request.Context(), ctx.Param("id"))
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// ConfirmOrder handles POST /orders/:id/confirm.
func (oc *OrderController) ConfirmOrder(ctx *gin.Context) {
	oc.applyAction(ctx, services.ActionConfirm, services.TransitionInput{})
}

// RejectOrder handles POST /orders/:id/reject.
func (oc *OrderController) RejectOrder(ctx *gin.Context) {
	var req models.RejectOrderRequest
	// body is optional; a bare POST rejects without a note
	_ = ctx.ShouldBindJSON(&req)
	oc.applyAction(ctx, services.ActionReject, services.TransitionInput{Note: req.Note})
}

// StartProcessing handles POST /orders/:id/process.
func (oc *OrderController) StartProcessing(ctx *gin.Context) {
	oc.applyAction(ctx, services.ActionStartProcessing, services.TransitionInput{})
}

// ShipOrder handles POST /orders/:id/ship.
func (oc *OrderController) ShipOrder(ctx *gin.Context) {
	var req models.ShipOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Tracking number and carrier are required", "kind": services.KindValidation, "details": err.Error()})
		return
	}
	oc.applyAction(ctx, services.ActionShip, services.TransitionInput{
		TrackingNumber:    req.TrackingNumber,
		Carrier:           req.Carrier,
		ShippingCost:      req.ShippingCost,
		SellerNotes:       req.SellerNotes,
		EstimatedDelivery: req.EstimatedDelivery,
	})
}

// DeliverOrder handles POST /orders/:id/deliver.
func (oc *OrderController) DeliverOrder(ctx *gin.Context) {
	oc.applyAction(ctx, services.ActionDeliver, services.TransitionInput{})
}

// RequestCancellation handles POST /orders/:id/cancel-request.
func (oc *OrderController) RequestCancellation(ctx *gin.Context) {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.CancelOrderRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "A cancellation reason is required", "kind": services.KindValidation})
		return
	}

	order, svcErr := oc.orderService.RequestCancellation(ctx.Request.Context(), ctx.Param("id"), actor, req.Reason)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// ApproveCancellation handles POST /orders/:id/cancel-approve.
func (oc *OrderController) ApproveCancellation(ctx *gin.Context) {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.ApproveCancellationRequest
	_ = ctx.ShouldBindJSON(&req)

	order, svcErr := oc.orderService.ApproveCancellation(ctx.Request.Context(), ctx.Param("id"), actor, req.RefundAmount, req.Notes)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// RejectCancellation handles POST /orders/:id/cancel-reject.
func (oc *OrderController) RejectCancellation(ctx *gin.Context) {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.RejectCancellationRequest
	_ = ctx.ShouldBindJSON(&req)

	order, svcErr := oc.orderService.RejectCancellation(ctx.Request.Context(), ctx.Param("id"), actor, req.Reason)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

// OverrideStatus handles PATCH /orders/:id (admin only).
func (oc *OrderController) OverrideStatus(ctx *gin.Context) {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	var req models.AdminStatusUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "A status is required", "kind": services.KindValidation})
		return
	}

	order, svcErr := oc.orderService.OverrideStatus(ctx.Request.Context(), ctx.Param("id"), actor, req.Status, req.Note)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

func (oc *OrderController) applyAction(ctx *gin.Context, action services.Action, in services.TransitionInput) {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return
	}

	order, svcErr := oc.orderService.ApplyAction(ctx.Request.Context(), ctx.Param("id"), action, actor, in)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"order": order})
}

func respondError(ctx *gin.Context, svcErr *services.ServiceError) {
	ctx.JSON(svcErr.StatusCode, gin.H{"error": svcErr.Message, "kind": svcErr.Kind})
}

// parsePaginationParams extracts and validates pagination parameters.
func parsePaginationParams(ctx *gin.Context) (int, int) {
	const MaxLimit = 100
	const DefaultPage = 1
	const DefaultLimit = 10

	page := ctx.DefaultQuery("page", "1")
	limit := ctx.DefaultQuery("limit", "10")

	pageInt := DefaultPage
	limitInt := DefaultLimit

	if p, err := strconv.Atoi(page); err == nil && p > 0 {
		pageInt = p
	}

	if l, err := strconv.Atoi(limit); err == nil && l > 0 {
		limitInt = l
		if limitInt > MaxLimit {
			limitInt = MaxLimit
		}
	}

	return pageInt, limitInt
}
