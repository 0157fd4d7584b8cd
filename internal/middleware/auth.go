package middleware

import (
	"net/http"
	"strings"

	"github.com/Farhaan1111/ethnic-qr-scanner-backend/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	ClaimsKey = "claims"
)

// JWTClaims are the custom claims embedded in every access token.
type JWTClaims struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Role     string `json:"role"`
	// Use is TokenUseAccess or TokenUseRefresh.
	Use string `json:"use"`
	jwt.RegisteredClaims
}

const (
	TokenUseAccess  = "access"
	TokenUseRefresh = "refresh"
)

// JWTAuth validates the Bearer token on every protected route.
func JWTAuth(secret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("authentication required"))
			return
		}

		tokenStr := strings.TrimPrefix(header, "Bearer ")
		claims := &JWTClaims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})

		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("invalid or expired token"))
			return
		}
		if claims.Use == TokenUseRefresh {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apierror.New("refresh tokens cannot access the API"))
			return
		}

		c.Set(ClaimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects requests whose JWT role is not in the allowed list.
func RequireRole(roles ...string) gin.HandlerFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil || !allowed[claims.Role] {
			c.AbortWithStatusJSON(http.StatusForbidden, apierror.New("insufficient permissions"))
			return
		}
		c.Next()
	}
}

// GetClaims is a helper to retrieve typed claims from the Gin context.
func GetClaims(c *gin.Context) *JWTClaims {
	v, ok := c.Get(ClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*JWTClaims)
	return claims
}

// Actor names the user behind the request for the audit trail.
func Actor(c *gin.Context) string {
	if claims := GetClaims(c); claims != nil && claims.Username != "" {
		return claims.Username
	}
	return "system"
}
