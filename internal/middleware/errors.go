package middleware

import (
	"net/http"
	"sort"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/waste3d/edemy-api/internal/domain"
	"github.com/waste3d/edemy-api/internal/logger"
)

// StatusFor maps the domain error taxonomy onto HTTP statuses.
func StatusFor(err error) int {
	var (
		verr  *domain.ValidationError
		verrs validator.ValidationErrors
		aerr  *domain.AuthorizationError
		nerr  *domain.NotFoundError
	)
	switch {
	case errors.As(err, &verr), errors.As(err, &verrs):
		return http.StatusBadRequest
	case errors.As(err, &aerr):
		if aerr.Authenticated {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case errors.As(err, &nerr):
		return http.StatusNotFound
	case domain.IsTransient(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// ErrorHandler writes the last error a handler attached with c.Error as
// {success:false, message}. Unexpected errors are logged and their text hidden.
func ErrorHandler(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		last := c.Errors.Last()
		if last == nil || c.Writer.Written() {
			return
		}
		err := last.Err
		status := StatusFor(err)

		body := gin.H{"success": false}
		switch status {
		case http.StatusInternalServerError:
			log.Error(c.Request.Method+" "+c.FullPath(), err, IdentityFrom(c))
			body["message"] = "Internal server error"
		case http.StatusServiceUnavailable:
			log.Warn(c.Request.Method+" "+c.FullPath(), err)
			body["message"] = "Service temporarily unavailable, please retry"
		case http.StatusBadRequest:
			fields := domain.FieldMessages(err)
			body["message"] = validationMessage(err, fields)
			if len(fields) > 0 {
				body["errors"] = fields
			}
		default:
			body["message"] = err.Error()
		}
		c.AbortWithStatusJSON(status, body)
	}
}

func validationMessage(err error, fields map[string]string) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err.Error()
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	msgs := make([]string, 0, len(keys))
	for _, k := range keys {
		msgs = append(msgs, fields[k])
	}
	return strings.Join(msgs, "; ")
}
