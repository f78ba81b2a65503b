package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func TestAdminToken(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/ai-costs", AdminToken("secret"), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	tests := []struct {
		name     string
		token    string
		expected int
	}{
		{name: "valid token", token: "secret", expected: http.StatusOK},
		{name: "wrong token", token: "nope", expected: http.StatusUnauthorized},
		{name: "missing token", token: "", expected: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodGet, "/ai-costs", nil)
			if tc.token != "" {
				req.Header.Set(AdminTokenHeader, tc.token)
			}
			router.ServeHTTP(rec, req)
			require.Equal(t, tc.expected, rec.Code)
		})
	}
}

func TestAdminTokenEmptyExpectedRejectsAll(t *testing.T) {
	gin.SetMode(gin.TestMode)

	router := gin.New()
	router.GET("/ai-costs", AdminToken(""), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ai-costs", nil)
	req.Header.Set(AdminTokenHeader, "")
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)
}
