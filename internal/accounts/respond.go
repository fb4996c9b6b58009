package accounts

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// StatusCode maps service errors onto HTTP status codes
func StatusCode(err error) int {
	switch {
	case IsNotFound(err):
		return http.StatusNotFound
	case IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Detail returns the client-facing message for err. Unexpected errors are not
// leaked to clients.
func Detail(err error) string {
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return nf.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Message
	}
	return "Internal server error"
}

// RespondError writes the error body for err and logs it. Client errors are
// logged at debug level, everything else at error level.
func RespondError(c *gin.Context, logger *zap.Logger, operation string, err error) {
	status := StatusCode(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("operation", operation),
			zap.String("path", c.Request.URL.Path),
			zap.Error(err))
	} else {
		logger.Debug("Request rejected",
			zap.String("operation", operation),
			zap.Int("status", status),
			zap.Error(err))
	}

	_ = c.Error(err)
	c.JSON(status, gin.H{"detail": Detail(err)})
}

// BindJSON decodes the request body into obj, turning decode failures into a
// ValidationError response. It returns false when a response was written.
func BindJSON(c *gin.Context, logger *zap.Logger, operation string, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			_ = c.Error(err)
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"detail": "Request body too large"})
			return false
		}
		RespondError(c, logger, operation, NewValidationErrorWithCause("body", nil, "Invalid request body", err))
		return false
	}
	return true
}
