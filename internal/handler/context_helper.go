package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/kurskollen/kurskollen-api/internal/middleware"
	"github.com/kurskollen/kurskollen-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}

// identityFromContext derives the visibility identity for the request:
// cached claims when authenticated, the blank guest identity otherwise.
func identityFromContext(c *gin.Context) models.AcademicIdentity {
	claims := claimsFromContext(c)
	if claims == nil {
		return models.AcademicIdentity{}
	}
	return claims.VisibilityIdentity()
}
