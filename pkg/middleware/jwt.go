package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fitlog/fitness-api/internal/model"
	"fitlog/fitness-api/internal/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AccessVerifier checks an access token and returns the user ID it was issued to
type AccessVerifier interface {
	VerifyAccess(token string) (string, error)
}

type UserFinder interface {
	FindByID(ctx context.Context, id string) (*model.User, error)
}

// NewJWTMiddleware authenticates requests carrying an access token in the
// Authorization header. The user is stored as "user" and their ID as "userID".
func NewJWTMiddleware(tokens AccessVerifier, users UserFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetString("requestID")

		header := c.GetHeader("Authorization")
		tokenStr, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Please authenticate",
				"requestID": requestID,
			})
			return
		}

		userID, err := tokens.VerifyAccess(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error":     "Please authenticate",
				"requestID": requestID,
			})

			zap.L().Debug("Rejected access token", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error":     "Please authenticate",
					"requestID": requestID,
				})
				return
			}

			c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{
				"error":     "Service temporarily unavailable, please try again",
				"requestID": requestID,
			})

			zap.L().Error("Failed to check if user exists", zap.Error(err), zap.String("requestID", requestID))
			return
		}

		c.Set("userID", user.ID)
		c.Set("user", user)
		c.Next()
	}
}
