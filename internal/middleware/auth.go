package middleware

import (
	"net/http"
	"strings"

	"github.com/bioqa/manager/internal/models"
	"github.com/bioqa/manager/pkg/utils"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthJWT rejects requests without a valid bearer token and stores the
// caller identity in the request context.
func AuthJWT(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity, ok := identityFromHeader(c, jwtSecret)
		if !ok {
			utils.ErrorResponse(c, http.StatusUnauthorized, "Invalid or missing token", nil)
			c.Abort()
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// OptionalAuth stores the caller identity when a valid token is present and
// lets the request through either way. Read endpoints use this to report
// who is asking without requiring login.
func OptionalAuth(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if identity, ok := identityFromHeader(c, jwtSecret); ok {
			c.Set(identityKey, identity)
		}
		c.Next()
	}
}

// GetIdentity returns the caller identity set by the auth middleware.
// The zero identity means an anonymous caller.
func GetIdentity(c *gin.Context) models.Identity {
	if v, exists := c.Get(identityKey); exists {
		if identity, ok := v.(models.Identity); ok {
			return identity
		}
	}
	return models.Identity{}
}

func identityFromHeader(c *gin.Context, jwtSecret string) (models.Identity, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		return models.Identity{}, false
	}

	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return models.Identity{}, false
	}

	claims, err := utils.ParseToken(jwtSecret, parts[1])
	if err != nil {
		return models.Identity{}, false
	}

	return models.Identity{
		Email: claims.Email,
		Roles: claims.Roles,
	}, true
}
