package middleware

import (
	"crypto/subtle"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "github.com/charlesng35/vimquiz/pkg/errors"
	"github.com/charlesng35/vimquiz/pkg/response"
)

// AdminTokenHeader carries the static admin credential.
const AdminTokenHeader = "X-Admin-Token"

// AdminToken gates a route behind a static token. An empty expected token
// rejects every request rather than opening the route.
func AdminToken(expected string) gin.HandlerFunc {
	expected = strings.TrimSpace(expected)

	return func(c *gin.Context) {
		supplied := strings.TrimSpace(c.GetHeader(AdminTokenHeader))
		if expected == "" || subtle.ConstantTimeCompare([]byte(supplied), []byte(expected)) != 1 {
			response.Error(c, apperrors.ErrUnauthorized)
			c.Abort()
			return
		}
		c.Next()
	}
}
