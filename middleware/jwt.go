package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tieubaoca/pdfchat-be/types"
	"github.com/tieubaoca/pdfchat-be/utils"
)

const (
	userIDKey     = "user_id"
	userClaimsKey = "user_claims"
)

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, types.DataResponse{
		Status:  false,
		Message: msg,
	})
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter for WebSocket clients that cannot set headers.
func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		token := c.Query("token")
		return token, token != ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

func AuthMiddleware(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			unauthorized(c, "Authorization header format must be Bearer {token}")
			return
		}
		claims, err := utils.ParseUserToken(token, secret)
		if err != nil {
			unauthorized(c, "Invalid token")
			return
		}
		c.Set(userIDKey, claims.Subject)
		c.Set(userClaimsKey, claims)
		c.Next()
	}
}

// UserID is empty when the request did not pass AuthMiddleware.
func UserID(c *gin.Context) string {
	return c.GetString(userIDKey)
}

func Claims(c *gin.Context) *utils.UserClaims {
	if v, ok := c.Get(userClaimsKey); ok {
		if claims, ok := v.(*utils.UserClaims); ok {
			return claims
		}
	}
	return nil
}
