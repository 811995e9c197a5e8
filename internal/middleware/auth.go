package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/user/shortlink/internal/models"
)

// ownerKey is the gin context key the verified owner identity is
// stored under.
const ownerKey = "owner"

// Auth verifies session tokens issued by the identity
// collaborator. Only verification happens here; sign-in and token
// issuance live outside this service.
type Auth struct {
	secret []byte
}

// NewAuth creates auth middleware verifying HS256 tokens signed
// with secret.
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// RequireAuth rejects requests without a valid bearer token and
// attaches the token's email claim to the context as the owner.
func (a *Auth) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		raw, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || raw == "" {
			a.reject(c, "Missing bearer token")
			return
		}

		claims := jwt.MapClaims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return a.secret, nil
		})
		if err != nil || !token.Valid {
			a.reject(c, "Invalid or expired token")
			return
		}

		email, _ := claims["email"].(string)
		if email == "" {
			a.reject(c, "Token carries no identity")
			return
		}

		c.Set(ownerKey, email)
		c.Next()
	}
}

func (a *Auth) reject(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error: msg,
		Code:  models.ErrCodeUnauthorized,
	})
}

// Owner returns the verified owner identity attached by
// RequireAuth, or "" on unauthenticated routes.
func Owner(c *gin.Context) string {
	owner, _ := c.Get(ownerKey)
	email, _ := owner.(string)
	return email
}
