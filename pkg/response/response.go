package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/vimquiz/pkg/errors"
)

// JSON writes an arbitrary success payload.
func JSON(c *gin.Context, statusCode int, payload interface{}) {
	c.JSON(statusCode, payload)
}

// Results writes the quiz API payload consumed by the front end.
func Results(c *gin.Context, results interface{}) {
	c.JSON(http.StatusOK, gin.H{"results": results})
}

// Error writes a JSON error response derived from an AppError. Only the
// public message crosses the HTTP boundary; internal detail stays in logs.
func Error(c *gin.Context, err error) {
	if err == nil {
		err = apperrors.ErrInternalServer
	}

	appErr := apperrors.FromError(err)
	status := appErr.StatusCode
	if status == 0 {
		status = http.StatusInternalServerError
	}

	c.JSON(status, gin.H{"error": appErr.Message})
}
