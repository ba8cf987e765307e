package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/beaconaid/foundation-api/internal/middleware"
	"github.com/beaconaid/foundation-api/internal/models"
	"github.com/beaconaid/foundation-api/internal/service"
	"github.com/beaconaid/foundation-api/pkg/response"
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

func requestMeta(c *gin.Context) models.RequestMeta {
	return models.RequestMeta{IP: c.ClientIP(), UserAgent: c.GetHeader("User-Agent")}
}

// foundationScope resolves the foundation a request targets: super_admins may
// select one with the foundation_id query parameter, everyone else is scoped
// to their own.
func foundationScope(c *gin.Context, claims *models.JWTClaims) *string {
	if fid := c.Query("foundation_id"); fid != "" {
		return &fid
	}
	if claims == nil {
		return nil
	}
	return claims.FoundationID
}

// authorize runs the access gate for the named operation and writes the error
// response on failure.
func authorize(c *gin.Context, gate *service.AccessService, foundationID *string, operation string) (*models.User, bool) {
	claims := claimsFromContext(c)
	user, err := gate.Authorize(c.Request.Context(), claims.Identity(), foundationID, service.AllowedRoles(operation)...)
	if err != nil {
		response.Error(c, err)
		return nil, false
	}
	return user, true
}
