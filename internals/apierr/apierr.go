// Package apierr renders the service's JSON error envelope:
//
//	{"error": {"code": "NOT_FOUND", "message": "User not found"}}
package apierr

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

const (
	CodeInvalidRequest = "INVALID_REQUEST"
	CodeNotFound       = "NOT_FOUND"
	CodeEmailExists    = "EMAIL_EXISTS"
	CodeInternal       = "INTERNAL_ERROR"
	CodeUnavailable    = "UNAVAILABLE"
)

func Write(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
}

// InvalidRequest answers 400 for a body, query or path value that failed to bind.
func InvalidRequest(c *gin.Context, err error) {
	slog.Warn("Invalid request", "path", c.FullPath(), "err", err)
	Write(c, http.StatusBadRequest, CodeInvalidRequest, describe(err))
}

func NotFound(c *gin.Context, message string) {
	Write(c, http.StatusNotFound, CodeNotFound, message)
}

// Internal logs err and answers 500 without leaking it to the client.
func Internal(c *gin.Context, message string, err error) {
	slog.Error(message, "path", c.FullPath(), "err", err)
	Write(c, http.StatusInternalServerError, CodeInternal, message)
}

func describe(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}

	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%s is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%s must be a valid email address", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%s must be at least %s", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%s must be at most %s characters", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid", field))
		}
	}
	return strings.Join(msgs, "; ")
}
