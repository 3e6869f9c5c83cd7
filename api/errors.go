package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/LhacenMed/admin-dashboard/internal/domain"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

func statusFor(err error) int {
	switch {
	case domain.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrSeatNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUploadRejected):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeError records err on the context for the request logger and writes {"error": msg}.
// Internal failures are not echoed to the client.
func writeError(c *gin.Context, err error) {
	_ = c.Error(err)
	code := statusFor(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = "internal error"
	}
	c.AbortWithStatusJSON(code, gin.H{"error": msg})
}

// writeBindError reports a request body that failed to decode or failed its binding tags.
// Only the first failing field is reported.
func writeBindError(c *gin.Context, err error) {
	var fields validator.ValidationErrors
	if errors.As(err, &fields) && len(fields) > 0 {
		fe := fields[0]
		name := jsonName(fe.Field())
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": fieldMessage(name, fe), "field": name})
		return
	}
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

func fieldMessage(name string, fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return name + " is required"
	case "email":
		return "invalid email address"
	case "min":
		return fmt.Sprintf("%s must be at least %s characters", name, fe.Param())
	case "eqfield":
		return "passwords do not match"
	}
	return fmt.Sprintf("%s is invalid", name)
}

func jsonName(field string) string {
	if field == "" {
		return field
	}
	return strings.ToLower(field[:1]) + field[1:]
}
