package jwt

import (
	"strings"

	"MediVision/internal/config"
	"MediVision/pkg/back"
	"MediVision/pkg/util/myjwt"
	"MediVision/pkg/xerr"

	"github.com/gin-gonic/gin"
)

// Auth guards the admin routes with a Bearer token signed by our own
// jwt config.
func Auth(jc config.JwtConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			back.Error(c, xerr.Unauthorized, "missing or invalid authorization header")
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := myjwt.ParseToken(jc, tokenString)
		if err != nil {
			back.Error(c, xerr.Unauthorized, "invalid token")
			c.Abort()
			return
		}

		c.Set("subject", claims.Subject)
		c.Set("role", claims.Role)
		c.Next()
	}
}
