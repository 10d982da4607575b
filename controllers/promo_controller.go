package controllers

import (
	"net/http"

	"github.com/energyhub/marketplace/middleware"
	"github.com/energyhub/marketplace/models"
	"github.com/energyhub/marketplace/services"
	"github.com/gin-gonic/gin"
)

// PromoController handles promo code management endpoints.
type PromoController struct {
	promoService services.PromoService
}

// NewPromoController creates a new PromoController.
func NewPromoController(promoService services.PromoService) *PromoController {
	return &PromoController{promoService: promoService}
}

// CreateCoupon handles POST /promos (seller only).
func (pc *PromoController) CreateCoupon(ctx *gin.Context) {
	if !requireSeller(ctx) {
		return
	}

	var req models.CreateCouponRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request", "kind": services.KindValidation, "details": err.Error()})
		return
	}

	coupon, svcErr := pc.promoService.CreateCoupon(ctx.Request.Context(), &req)
	if svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"coupon": coupon})
}

// DeactivateCoupon handles DELETE /promos/:code (seller only).
func (pc *PromoController) DeactivateCoupon(ctx *gin.Context) {
	if !requireSeller(ctx) {
		return
	}

	if svcErr := pc.promoService.DeactivateCoupon(ctx.Request.Context(), ctx.Param("code")); svcErr != nil {
		respondError(ctx, svcErr)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"message": "Promo code deactivated"})
}

func requireSeller(ctx *gin.Context) bool {
	actor, err := middleware.GetActor(ctx)
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
		return false
	}
	if actor.Role != models.RoleSeller && actor.Role != models.RoleAdmin {
		ctx.JSON(http.StatusForbidden, gin.H{"error": "Seller access required", "kind": services.KindForbidden})
		return false
	}
	return true
}
