package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/asetdigital/plant-moc-api/internal/middleware"
	"github.com/asetdigital/plant-moc-api/internal/models"
)

func claimsFromContext(c *gin.Context) *models.JWTClaims {
	value, exists := c.Get(middleware.ContextClaimsKey)
	if !exists {
		return nil
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return nil
	}
	return claims
}
