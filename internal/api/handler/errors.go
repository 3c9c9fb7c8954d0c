package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"resolveit/backend/internal/apperr"
	"resolveit/backend/internal/logging"
)

type errorDetail struct {
	Kind    apperr.Kind `json:"kind"`
	Message string      `json:"message"`
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindAuthorization:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindInvalidTransition:
		return http.StatusConflict
	case apperr.KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes the structured error body and aborts the chain.
// Server-side failures are logged with their goerr values and replaced by
// a generic message.
func respondError(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := StatusFor(kind)
	msg := err.Error()

	if status >= http.StatusInternalServerError {
		logging.Default().Error("request failed",
			append([]any{"method", c.Request.Method, "path", c.FullPath(), "kind", kind}, logging.ErrAttrs(err)...)...)
		if kind == apperr.KindInternal {
			msg = "internal server error"
		}
	}
	c.AbortWithStatusJSON(status, errorBody{Error: errorDetail{Kind: kind, Message: msg}})
}

func badRequest(field, msg string) error {
	return apperr.NewValidationError(field, msg)
}

func notFoundRoute(c *gin.Context) error {
	return apperr.NewNotFoundError("route", c.Request.Method+" "+c.Request.URL.Path)
}
