package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ai-shadow/shadow-backend/internal/errordata"
	"github.com/ai-shadow/shadow-backend/internal/logger"
	"github.com/ai-shadow/shadow-backend/internal/requestdata"
	"github.com/ai-shadow/shadow-backend/internal/services"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid or expired token."
)

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{log: log.With("middleware", "AuthMiddleware"), authService: authService}
}

// RequireAuth rejects requests without a bearer token (401) or with one that
// does not verify (403), and stores the caller's identity on the request context.
func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := extractToken(c)
		if tokenString == "" {
			abortWithMessage(c, http.StatusUnauthorized, msgNoToken)
			return
		}
		ctx, err := am.authService.SetContextFromToken(c.Request.Context(), tokenString)
		if err != nil {
			am.log.Debug("Token rejected", "error", err)
			abortWithMessage(c, http.StatusForbidden, msgInvalidToken)
			return
		}
		rd := requestdata.GetRequestData(ctx)
		if rd == nil || rd.UserID == uuid.Nil {
			abortWithMessage(c, http.StatusForbidden, msgInvalidToken)
			return
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// extractToken prefers the Authorization header. Browsers cannot set headers
// on a websocket upgrade, so ?token= is accepted as a fallback.
func extractToken(c *gin.Context) string {
	authHeader := strings.TrimSpace(c.GetHeader("Authorization"))
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	return strings.TrimSpace(c.Query("token"))
}

func abortWithMessage(c *gin.Context, status int, msg string) {
	if ed := errordata.GetErrorData(c.Request.Context()); ed != nil {
		ed.SetMessage(msg)
	}
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": msg})
}
