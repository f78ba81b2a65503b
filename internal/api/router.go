package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/charlesng35/vimquiz/internal/app"
	"github.com/charlesng35/vimquiz/internal/cache"
	"github.com/charlesng35/vimquiz/internal/handlers"
	"github.com/charlesng35/vimquiz/internal/middleware"
)

// Dependencies collects everything the router wires together. All fields
// are required except MemoryCache, which only feeds health reporting.
type Dependencies struct {
	DB          *gorm.DB
	Quiz        handlers.QuestionAcquirer
	Ledger      handlers.CostReader
	Limiter     *middleware.RateLimiter
	MemoryCache *cache.MemoryStore
}

// NewRouter builds the Gin engine, wires middleware and registers routes.
func NewRouter(cfg *app.Config, deps Dependencies) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.Quiz == nil {
		return nil, fmt.Errorf("quiz service must be provided")
	}
	if deps.Ledger == nil {
		return nil, fmt.Errorf("cost ledger must be provided")
	}
	if deps.Limiter == nil {
		return nil, fmt.Errorf("rate limiter must be provided")
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(cors.New(corsConfig(cfg)))

	// Health endpoint (public)
	r.GET("/health", handlers.Health(deps.DB, deps.MemoryCache, deps.Limiter))

	questionHandler := handlers.NewQuestionHandler(deps.Quiz)
	v1 := r.Group("/api/v1")
	v1.Use(middleware.RateLimit(deps.Limiter, cfg.RateLimit.Requests, cfg.RateLimit.Window))
	{
		v1.GET("/questions", questionHandler.Get)
	}

	// The cost report stays dark unless the feature flag opts in, and even
	// then requires the static admin token plus a stricter rate limit.
	if cfg.Admin.CostsEndpoint {
		costHandler := handlers.NewAdminCostHandler(deps.Ledger)
		admin := r.Group("/api/admin")
		admin.Use(middleware.AdminToken(cfg.Admin.Token))
		admin.Use(middleware.RateLimit(deps.Limiter, cfg.RateLimit.AdminRequests, cfg.RateLimit.AdminWindow))
		{
			admin.GET("/ai-costs", costHandler.Get)
		}
	}

	// Metrics endpoint
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// NotFound fallback: disabled admin routes answer 404 through here.
	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}

func corsConfig(cfg *app.Config) cors.Config {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", middleware.AdminTokenHeader}
	corsCfg.MaxAge = 12 * time.Hour

	origins := cfg.Server.CORSOrigins
	if len(origins) == 1 && origins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = origins
	}
	return corsCfg
}
