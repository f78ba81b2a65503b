package costs_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/vimquiz/internal/cache"
	"github.com/charlesng35/vimquiz/internal/costs"
	"github.com/charlesng35/vimquiz/internal/database/testutil"
	"github.com/charlesng35/vimquiz/internal/models"
)

func sampleEntry(ts time.Time, totalUSD float64) models.CostEntry {
	return models.CostEntry{
		Timestamp:        ts,
		Endpoint:         "/api/v1/questions",
		Model:            "gpt-3.5-turbo",
		PromptTokens:     120,
		CompletionTokens: 480,
		TotalTokens:      600,
		InputCostUSD:     totalUSD / 4,
		OutputCostUSD:    totalUSD / 4 * 3,
		TotalCostUSD:     totalUSD,
	}
}

func TestLedgerDurableAppendAndRead(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewMemoryStore()

	ledger, err := costs.NewLedger(db, store)
	require.NoError(t, err)

	ctx := context.Background()
	older := time.Now().UTC().Add(-time.Hour)
	newer := time.Now().UTC()

	ledger.Append(ctx, sampleEntry(older, 0.002))
	ledger.Append(ctx, sampleEntry(newer, 0.004))

	entries, err := ledger.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	require.InDelta(t, 0.004, entries[0].TotalCostUSD, 1e-9)
	require.InDelta(t, 0.002, entries[1].TotalCostUSD, 1e-9)

	// Nothing ended up in the fallback list.
	_, ok, err := store.Get(ctx, "ai:costs")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestLedgerReadLimit(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewMemoryStore()

	ledger, err := costs.NewLedger(db, store)
	require.NoError(t, err)

	ctx := context.Background()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		ledger.Append(ctx, sampleEntry(base.Add(time.Duration(i)*time.Minute), 0.001))
	}

	entries, err := ledger.Read(ctx, 3)
	require.NoError(t, err)
	require.Len(t, entries, 3)
}

func TestLedgerFallbackWhenDatabaseUnavailable(t *testing.T) {
	store := cache.NewMemoryStore()

	ledger, err := costs.NewLedger(nil, store)
	require.NoError(t, err)

	ctx := context.Background()
	ledger.Append(ctx, sampleEntry(time.Now().UTC(), 0.002))

	entries, err := ledger.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "gpt-3.5-turbo", entries[0].Model)

	// Entries accumulate in the shared cache under the fallback key.
	_, ok, err := store.Get(ctx, "ai:costs")
	require.NoError(t, err)
	require.True(t, ok)
}

func TestLedgerFallbackOnWriteFailure(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())
	store := cache.NewMemoryStore()

	ledger, err := costs.NewLedger(db, store)
	require.NoError(t, err)

	// Sever the connection so durable writes start failing.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	ctx := context.Background()
	ledger.Append(ctx, sampleEntry(time.Now().UTC(), 0.003))

	entries, err := ledger.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.InDelta(t, 0.003, entries[0].TotalCostUSD, 1e-9)
}

func TestLedgerFallbackConcurrentAppends(t *testing.T) {
	store := cache.NewMemoryStore()

	ledger, err := costs.NewLedger(nil, store)
	require.NoError(t, err)

	ctx := context.Background()
	const writers = 8

	// Release all writers at once so their read-modify-write cycles on the
	// fallback list overlap; every entry must survive.
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			<-start
			ledger.Append(ctx, sampleEntry(time.Now().UTC(), float64(n)*0.001))
		}(i)
	}
	close(start)
	wg.Wait()

	entries, err := ledger.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, writers)
}

func TestLedgerAppendSetsTimestamp(t *testing.T) {
	store := cache.NewMemoryStore()

	ledger, err := costs.NewLedger(nil, store)
	require.NoError(t, err)

	ctx := context.Background()
	ledger.Append(ctx, models.CostEntry{Model: "gpt-3.5-turbo"})

	entries, err := ledger.Read(ctx, 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.False(t, entries[0].Timestamp.IsZero())
}

func TestLedgerRequiresCache(t *testing.T) {
	_, err := costs.NewLedger(nil, nil)
	require.Error(t, err)
}
