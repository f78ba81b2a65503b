package costs

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/charlesng35/vimquiz/internal/cache"
	"github.com/charlesng35/vimquiz/internal/models"
	"github.com/charlesng35/vimquiz/pkg/logger"
)

const (
	// fallbackCacheKey holds ledger entries that could not be written durably.
	fallbackCacheKey = "ai:costs"
	fallbackTTL      = 24 * time.Hour
	// fallbackCap bounds the in-memory list during a prolonged outage.
	fallbackCap = 1000

	// DefaultReadLimit is applied when a caller asks for zero entries.
	DefaultReadLimit = 500
)

// Ledger persists model-call cost entries to the ai_cost_entries table,
// degrading to the shared cache when the database is unavailable. Quiz
// delivery never fails because accounting failed: Append absorbs all errors.
type Ledger struct {
	db    *gorm.DB
	cache cache.Store
	log   *zap.Logger

	migrate sync.Once
	// fallbackMu serialises the read-modify-write on the fallback list so
	// concurrent appends cannot drop entries.
	fallbackMu sync.Mutex
}

// NewLedger constructs a Ledger. The cache is required; the database handle
// may be nil, in which case every entry goes through the fallback path.
func NewLedger(db *gorm.DB, store cache.Store) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("cost ledger: cache store is required")
	}
	return &Ledger{
		db:    db,
		cache: store,
		log:   logger.WithModule("costs"),
	}, nil
}

// Append records one entry, durably when possible and via the cache
// fallback otherwise. Exactly one of the two paths receives the entry.
func (l *Ledger) Append(ctx context.Context, entry models.CostEntry) {
	if l == nil {
		return
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if l.db != nil {
		l.ensureTable(ctx)
		err := l.db.WithContext(ctx).Create(&entry).Error
		if err == nil {
			return
		}
		l.log.Warn("durable cost write failed, using cache fallback", zap.Error(err))
	}

	l.appendFallback(ctx, entry)
}

// Read returns the most recent limit entries, newest first. When the table
// cannot be read the fallback cache list is returned instead; its ordering
// is whatever order the entries arrived in.
func (l *Ledger) Read(ctx context.Context, limit int) ([]models.CostEntry, error) {
	if l == nil {
		return nil, errors.New("cost ledger: not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = DefaultReadLimit
	}

	if l.db != nil {
		l.ensureTable(ctx)
		var entries []models.CostEntry
		err := l.db.WithContext(ctx).
			Order("timestamp DESC").
			Limit(limit).
			Find(&entries).Error
		if err == nil {
			return entries, nil
		}
		l.log.Warn("durable cost read failed, using cache fallback", zap.Error(err))
	}

	return l.readFallback(ctx), nil
}

func (l *Ledger) ensureTable(ctx context.Context) {
	l.migrate.Do(func() {
		if err := l.db.WithContext(ctx).AutoMigrate(&models.CostEntry{}); err != nil {
			l.log.Warn("cost table migration failed", zap.Error(err))
		}
	})
}

func (l *Ledger) appendFallback(ctx context.Context, entry models.CostEntry) {
	l.fallbackMu.Lock()
	defer l.fallbackMu.Unlock()

	entries := l.readFallback(ctx)
	entries = append(entries, entry)
	if len(entries) > fallbackCap {
		entries = entries[len(entries)-fallbackCap:]
	}

	payload, err := json.Marshal(entries)
	if err != nil {
		l.log.Error("encode fallback cost entries", zap.Error(err))
		return
	}
	if err := l.cache.Set(ctx, fallbackCacheKey, payload, fallbackTTL); err != nil {
		l.log.Error("cache fallback cost write failed", zap.Error(err))
	}
}

func (l *Ledger) readFallback(ctx context.Context) []models.CostEntry {
	payload, ok, err := l.cache.Get(ctx, fallbackCacheKey)
	if err != nil || !ok {
		return nil
	}

	var entries []models.CostEntry
	if err := json.Unmarshal(payload, &entries); err != nil {
		l.log.Warn("decode fallback cost entries", zap.Error(err))
		return nil
	}
	return entries
}
