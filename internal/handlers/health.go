package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/vimquiz/internal/cache"
	"github.com/charlesng35/vimquiz/internal/middleware"
	"github.com/charlesng35/vimquiz/pkg/response"
)

// Health reports the liveness of the database, cache, and rate limiter.
// The endpoint answers 503 when the database is unreachable.
func Health(db *gorm.DB, store *cache.MemoryStore, limiter *middleware.RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		dbStatus := "healthy"
		dbMessage := "database connection is working"
		if err := pingDatabase(db); err != nil {
			dbStatus = "unhealthy"
			dbMessage = err.Error()
		}

		services := gin.H{
			"database": gin.H{
				"status":  dbStatus,
				"message": dbMessage,
			},
		}
		if store != nil {
			services["cache"] = gin.H{
				"status": "healthy",
				"size":   store.Size(),
				"keys":   store.Keys(),
			}
		}
		if limiter != nil {
			stats := limiter.Stats()
			services["rate_limiter"] = gin.H{
				"status":        "healthy",
				"total_entries": len(stats),
				"entries":       stats,
			}
		}

		status := http.StatusOK
		overall := "healthy"
		if dbStatus != "healthy" {
			status = http.StatusServiceUnavailable
			overall = "unhealthy"
		}

		response.JSON(c, status, gin.H{
			"status":    overall,
			"timestamp": time.Now().UTC().Format(time.RFC3339),
			"services":  services,
		})
	}
}

func pingDatabase(db *gorm.DB) error {
	if db == nil {
		return gorm.ErrInvalidDB
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
