package routes

import (
	"github.com/energyhub/marketplace/controllers"
	"github.com/energyhub/marketplace/middleware"
	"github.com/gin-gonic/gin"
)

// RegisterOrderRoutes sets up the order lifecycle and cancellation routes.
func RegisterOrderRoutes(r *gin.Engine, oc *controllers.OrderController) {
	orders := r.Group("/orders")
	orders.Use(middleware.AuthMiddleware())

	orders.POST("", oc.CreateOrder)
	orders.GET("", oc.ListOrders)
	orders.GET("/:id", oc.GetOrder)
	orders.PATCH("/:id", oc.OverrideStatus)

	orders.POST("/:id/confirm", oc.ConfirmOrder)
	orders.POST("/:id/reject", oc.RejectOrder)
	orders.POST("/:id/process", oc.StartProcessing)
	orders.POST("/:id/ship", oc.ShipOrder)
	orders.POST("/:id/deliver", oc.DeliverOrder)

	orders.POST("/:id/cancel-request", oc.RequestCancellation)
	orders.POST("/:id/cancel-approve", oc.ApproveCancellation)
	orders.POST("/:id/cancel-reject", oc.RejectCancellation)
}

// RegisterPromoRoutes sets up promo code management routes.
func RegisterPromoRoutes(r *gin.Engine, pc *controllers.PromoController) {
	promos := r.Group("/promos")
	promos.Use(middleware.AuthMiddleware())

	promos.POST("", pc.CreateCoupon)
	promos.DELETE("/:code", pc.DeactivateCoupon)
}

// RegisterAssistantRoutes sets up the Q&A helper route.
func RegisterAssistantRoutes(r *gin.Engine, ac *controllers.AssistantController) {
	assistant := r.Group("/assistant")
	assistant.Use(middleware.AuthMiddleware())

	assistant.POST("/ask", ac.Ask)
}
