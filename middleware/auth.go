package middleware

import (
	"errors"
	"net/http"

	"github.com/energyhub/marketplace/models"
	"github.com/gin-gonic/gin"
)

const (
	UserContextKey = "userID"
	RoleContextKey = "userRole"
)

// AuthMiddleware reads the identity claims set by the fronting auth layer.
// The claims arrive already verified; this service only requires their
// presence and a recognized role.
func AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		role := c.GetHeader("X-User-Role")
		if userID == "" || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		switch role {
		case models.RoleBuyer, models.RoleSeller, models.RoleAdmin:
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Unknown role"})
			return
		}
		c.Set(UserContextKey, userID)
		c.Set(RoleContextKey, role)
		c.Next()
	}
}

// GetActor returns the caller's identity claims from the request context.
func GetActor(c *gin.Context) (models.Actor, error) {
	id, _ := c.Get(UserContextKey)
	role, _ := c.Get(RoleContextKey)
	actor := models.Actor{}
	if s, ok := id.(string); ok {
		actor.ID = s
	}
	if s, ok := role.(string); ok {
		actor.Role = s
	}
	if actor.ID == "" || actor.Role == "" {
		return models.Actor{}, errors.New("actor not found in context")
	}
	return actor, nil
}
