package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/vimquiz/internal/ai"
	"github.com/charlesng35/vimquiz/internal/api"
	"github.com/charlesng35/vimquiz/internal/app"
	"github.com/charlesng35/vimquiz/internal/cache"
	"github.com/charlesng35/vimquiz/internal/costs"
	"github.com/charlesng35/vimquiz/internal/database"
	"github.com/charlesng35/vimquiz/internal/middleware"
	"github.com/charlesng35/vimquiz/internal/services"
	"github.com/charlesng35/vimquiz/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if err := run(ctx, os.Args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			os.Exit(0)
		}
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("vimquiz-server", flag.ContinueOnError)
	fs.SetOutput(os.Stdout)

	var configPath string
	fs.StringVar(&configPath, "config", "", "Path to configuration directory or file")

	if err := fs.Parse(args); err != nil {
		return err
	}

	// Local development keeps secrets in .env; absence is not an error.
	_ = godotenv.Load()

	cfg, err := loadApplicationConfig(configPath)
	if err != nil {
		return err
	}

	if err := app.ConfigureLogging(cfg.Server.LogLevel); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer logger.Sync() // best effort

	log := logger.WithModule("bootstrap")

	if strings.TrimSpace(cfg.OpenAI.APIKey) == "" {
		return errors.New("openai.api_key must be configured")
	}

	db, err := initialiseDatabase(cfg)
	if err != nil {
		return err
	}
	defer closeDatabase(db, log)

	memoryCache := cache.NewMemoryStore()

	var sharedCache cache.Store = memoryCache
	if strings.EqualFold(strings.TrimSpace(cfg.Cache.Driver), "database") {
		sharedCache = cache.NewDatabaseStore(db)
		log.Info("using database-backed cache")
	}

	limiter := middleware.NewRateLimiter()
	defer limiter.Stop()

	ledger, err := costs.NewLedger(db, sharedCache)
	if err != nil {
		return fmt.Errorf("initialise cost ledger: %w", err)
	}

	client, err := ai.NewOpenAIClient(ai.ClientConfig{
		APIKey:      cfg.OpenAI.APIKey,
		Model:       cfg.OpenAI.Model,
		BaseURL:     cfg.OpenAI.BaseURL,
		Temperature: cfg.OpenAI.Temperature,
		MaxTokens:   cfg.OpenAI.MaxTokens,
		Timeout:     cfg.OpenAI.Timeout,
	})
	if err != nil {
		return fmt.Errorf("initialise openai client: %w", err)
	}

	generator, err := ai.NewGenerator(client, ledger)
	if err != nil {
		return fmt.Errorf("initialise generator: %w", err)
	}

	questionStore, err := services.NewQuestionStore(db)
	if err != nil {
		return fmt.Errorf("initialise question store: %w", err)
	}

	quizService, err := services.NewQuizService(sharedCache, generator, questionStore)
	if err != nil {
		return fmt.Errorf("initialise quiz service: %w", err)
	}

	router, err := api.NewRouter(cfg, api.Dependencies{
		DB:          db,
		Quiz:        quizService,
		Ledger:      ledger,
		Limiter:     limiter,
		MemoryCache: memoryCache,
	})
	if err != nil {
		return fmt.Errorf("build api router: %w", err)
	}

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info("server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received")
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	if err, ok := <-serverErr; ok && err != nil {
		return fmt.Errorf("server error: %w", err)
	}

	log.Info("server stopped gracefully")
	return nil
}

func loadApplicationConfig(path string) (*app.Config, error) {
	switch {
	case strings.TrimSpace(path) == "":
		return app.LoadConfig()
	default:
		info, err := os.Stat(path)
		if err == nil {
			if info.IsDir() {
				return app.LoadConfig(path)
			}
			return app.LoadConfig(filepath.Dir(path))
		}
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config path %q does not exist", path)
		}
		return nil, fmt.Errorf("stat config path: %w", err)
	}
}

func initialiseDatabase(cfg *app.Config) (*gorm.DB, error) {
	dbCfg := database.Config{
		Driver: strings.ToLower(strings.TrimSpace(cfg.Database.Driver)),
		Path:   strings.TrimSpace(cfg.Database.Path),
		URL:    strings.TrimSpace(cfg.Database.URL),
		CACert: strings.TrimSpace(cfg.Database.CACert),
	}

	db, err := database.Open(dbCfg)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := database.AutoMigrateAndSeed(db); err != nil {
		return nil, fmt.Errorf("auto-migrate database: %w", err)
	}

	log := logger.WithModule("database")
	log.Info("database connected", zap.String("driver", dbCfg.Driver))

	return db, nil
}

func closeDatabase(db *gorm.DB, log *zap.Logger) {
	if db == nil {
		return
	}

	sqlDB, err := db.DB()
	if err != nil {
		log.Warn("failed to obtain underlying sql DB for closing", zap.Error(err))
		return
	}

	if err := sqlDB.Close(); err != nil {
		log.Warn("failed to close database", zap.Error(err))
	}
}
