package controllers

import (
	"net/http"

	"github.com/energyhub/marketplace/services"
	"github.com/gin-gonic/gin"
)

// AssistantController handles the product Q&A helper endpoint.
type AssistantController struct {
	assistant *services.AssistantService
}

// NewAssistantController creates a new AssistantController.
func NewAssistantController(assistant *services.AssistantService) *AssistantController {
	return &AssistantController{assistant: assistant}
}

// Ask handles POST /assistant/ask. Upstream failures never surface as
// errors; the response carries a fallback answer instead.
func (ac *AssistantController) Ask(ctx *gin.Context) {
	var req services.AskRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "A question is required", "kind": services.KindValidation})
		return
	}

	ctx.JSON(http.StatusOK, ac.assistant.Ask(ctx.Request.Context(), req.Question))
}
