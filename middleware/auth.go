package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/M051719/npivault/access"
	"github.com/M051719/npivault/ccc/logging"
)

// Context keys set by the middleware for downstream handlers.
const (
	ContextSubjectID      = "subjectID"
	ContextRequestContext = "requestContext"
)

// identityClaims are the claims the external auth provider puts in its
// bearer tokens. Only the subject identity is consumed here; identity
// proofing is entirely the provider's concern.
type identityClaims struct {
	jwt.RegisteredClaims
	SubjectID string `json:"sub_id"`
}

// AuthMiddleware extracts the caller identity from bearer tokens minted by
// the external auth provider and captures the request metadata every audit
// entry records.
type AuthMiddleware struct {
	logger      logging.Logger
	tokenSecret []byte
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(logger logging.Logger, tokenSecret []byte) *AuthMiddleware {
	if logger == nil {
		logger = logging.NopLogger
	}

	return &AuthMiddleware{
		logger:      logger,
		tokenSecret: tokenSecret,
	}
}

// RequireIdentity middleware that requires a valid bearer token
func (m *AuthMiddleware) RequireIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			m.logger.Warn("Missing Authorization header")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Missing Authorization header"})
			c.Abort()
			return
		}

		if !strings.HasPrefix(authHeader, "Bearer ") {
			m.logger.Warn("Invalid Authorization header format")
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid Authorization header format"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		subjectID, err := m.parseToken(tokenString)
		if err != nil {
			m.logger.Warn("Token verification failed", "error", err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid credentials"})
			c.Abort()
			return
		}

		// Make the identity and the audit request context available to handlers
		c.Set(ContextSubjectID, subjectID)
		c.Set(ContextRequestContext, access.RequestContext{
			IPAddress: c.ClientIP(),
			UserAgent: c.Request.UserAgent(),
		})

		c.Next()
	}
}

// parseToken verifies the token signature and extracts the subject identity
func (m *AuthMiddleware) parseToken(tokenString string) (string, error) {
	claims := &identityClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.tokenSecret, nil
	})
	if err != nil {
		return "", err
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	subjectID := claims.SubjectID
	if subjectID == "" {
		subjectID = claims.Subject
	}
	if subjectID == "" {
		return "", fmt.Errorf("token carries no subject identity")
	}

	return subjectID, nil
}

// SubjectID retrieves the authenticated identity set by RequireIdentity.
func SubjectID(c *gin.Context) (string, bool) {
	value, exists := c.Get(ContextSubjectID)
	if !exists {
		return "", false
	}
	subjectID, ok := value.(string)
	return subjectID, ok
}

// RequestContext retrieves the audit request context set by RequireIdentity.
func RequestContext(c *gin.Context) access.RequestContext {
	value, exists := c.Get(ContextRequestContext)
	if !exists {
		return access.RequestContext{}
	}
	rctx, ok := value.(access.RequestContext)
	if !ok {
		return access.RequestContext{}
	}
	return rctx
}
