package http

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chatwave/chatwave-server/internal/apperr"
)

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error      string `json:"error"`
	RetryAfter int    `json:"retryAfter,omitempty"`
}

// writeError translates a service error into an HTTP response. Unknown
// errors are reported as internal errors without leaking detail.
func writeError(c *gin.Context, logger *zerolog.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("unhandled error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: appErr.Message})
	case apperr.KindAuthorization:
		c.JSON(http.StatusForbidden, ErrorResponse{Error: appErr.Message})
	case apperr.KindNotFound:
		c.JSON(http.StatusNotFound, ErrorResponse{Error: appErr.Message})
	case apperr.KindRateLimited:
		retryAfter := int(math.Ceil(appErr.RetryAfter.Seconds()))
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, ErrorResponse{Error: appErr.Message, RetryAfter: retryAfter})
	default:
		logger.Error().Err(err).Str("path", c.Request.URL.Path).Msg("storage error")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
	}
}
