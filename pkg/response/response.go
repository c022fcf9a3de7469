// Package response writes error responses in the shape every endpoint uses
package response

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fitlog/fitness-api/internal/apperr"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// Error aborts the request with the status matching err's kind. Errors
// that aren't *apperr.Error are reported as internal errors.
func Error(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	e, ok := apperr.As(err)
	if !ok {
		e = apperr.Internal(err)
	}

	status := e.Kind.Status()
	if status >= http.StatusInternalServerError {
		zap.L().Error(e.Message, zap.Error(err), zap.String("kind", e.Kind.String()), zap.String("requestID", requestID))
	} else {
		zap.L().Debug(e.Message, zap.Error(err), zap.String("kind", e.Kind.String()), zap.String("requestID", requestID))
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error":     e.Message,
		"requestID": requestID,
	})
}

// BindError aborts the request after a failed ShouldBind call
func BindError(c *gin.Context, err error) {
	requestID := c.GetString("requestID")

	msg := "Invalid request body"

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		parts := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			parts = append(parts, fieldMessage(fe))
		}
		msg = strings.Join(parts, ", ")
	}

	zap.L().Debug("Can't bind request", zap.Error(err), zap.String("requestID", requestID))

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
		"error":     msg,
		"requestID": requestID,
	})
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "password":
		return fmt.Sprintf("%s must be at least 8 characters and contain a lower case letter, an upper case letter, a number and a special character", field)
	case "otp":
		return fmt.Sprintf("%s must be a 6 digit code", field)
	default:
		return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
	}
}
