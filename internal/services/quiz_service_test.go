package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/vimquiz/internal/cache"
	"github.com/charlesng35/vimquiz/internal/models"
	"github.com/charlesng35/vimquiz/internal/services"
	apperrors "github.com/charlesng35/vimquiz/pkg/errors"
)

type fakeGenerator struct {
	calls     int
	questions []models.QuizQuestion
	err       error
}

func (g *fakeGenerator) Generate(_ context.Context, _ int, _ string, _ []string) ([]models.QuizQuestion, error) {
	g.calls++
	if g.err != nil {
		return nil, g.err
	}
	return g.questions, nil
}

type fakeSource struct {
	calls     int
	questions []models.QuizQuestion
	err       error
}

func (s *fakeSource) Fetch(_ context.Context, count int, _ string) ([]models.QuizQuestion, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	if len(s.questions) > count {
		return s.questions[:count], nil
	}
	return s.questions, nil
}

func makeQuestions(n int) []models.QuizQuestion {
	questions := make([]models.QuizQuestion, 0, n)
	for i := 0; i < n; i++ {
		questions = append(questions, models.QuizQuestion{
			Question:         fmt.Sprintf("What does command %d do?", i),
			CorrectAnswer:    fmt.Sprintf("answer-%d", i),
			IncorrectAnswers: []string{"a", "b", "c"},
		})
	}
	return questions
}

func cacheQuestions(t *testing.T, store cache.Store, difficulty string, count int, questions []models.QuizQuestion) {
	t.Helper()
	payload, err := json.Marshal(questions)
	require.NoError(t, err)
	key := fmt.Sprintf("questions:%s:%d", difficulty, count)
	require.NoError(t, store.Set(context.Background(), key, payload, time.Minute))
}

func TestQuizServiceServesFromCache(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{}
	source := &fakeSource{}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	cached := makeQuestions(10)
	cacheQuestions(t, store, "intermediate", 10, cached)

	questions, from, err := svc.Acquire(context.Background(), 10, "intermediate", nil)
	require.NoError(t, err)
	require.Equal(t, services.SourceCache, from)
	require.Equal(t, cached, questions)
	require.Zero(t, generator.calls)
	require.Zero(t, source.calls)
}

func TestQuizServiceCacheHitFiltersExcluded(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{}
	source := &fakeSource{}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	cached := makeQuestions(12)
	cacheQuestions(t, store, "intermediate", 10, cached)

	exclude := []string{cached[0].Question, cached[1].Question}
	questions, from, err := svc.Acquire(context.Background(), 10, "intermediate", exclude)
	require.NoError(t, err)
	require.Equal(t, services.SourceCache, from)
	require.Len(t, questions, 10)
	for _, q := range questions {
		require.NotContains(t, exclude, q.Question)
	}
	require.Zero(t, generator.calls)
}

func TestQuizServiceCacheTooSmallAfterExclusion(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{questions: makeQuestions(10)}
	source := &fakeSource{}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	cached := makeQuestions(10)
	cacheQuestions(t, store, "intermediate", 10, cached)

	// Excluding one cached question leaves 9 of 10: a miss, not a short set.
	_, from, err := svc.Acquire(context.Background(), 10, "intermediate", []string{cached[0].Question})
	require.NoError(t, err)
	require.Equal(t, services.SourceGenerated, from)
	require.Equal(t, 1, generator.calls)
}

func TestQuizServiceGeneratesOnMiss(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{questions: makeQuestions(10)}
	source := &fakeSource{}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	questions, from, err := svc.Acquire(context.Background(), 10, "beginner", nil)
	require.NoError(t, err)
	require.Equal(t, services.SourceGenerated, from)
	require.Len(t, questions, 10)
	require.Equal(t, 1, generator.calls)
	require.Zero(t, source.calls)

	// The generated set is now cached for the next caller.
	payload, ok, err := store.Get(context.Background(), "questions:beginner:10")
	require.NoError(t, err)
	require.True(t, ok)

	var persisted []models.QuizQuestion
	require.NoError(t, json.Unmarshal(payload, &persisted))
	require.Len(t, persisted, 10)
}

func TestQuizServiceTrimsOversizedGeneration(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{questions: makeQuestions(14)}
	source := &fakeSource{}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	questions, from, err := svc.Acquire(context.Background(), 10, "beginner", nil)
	require.NoError(t, err)
	require.Equal(t, services.SourceGenerated, from)
	require.Len(t, questions, 10)

	// The full generated set is cached even though the response is trimmed.
	payload, ok, err := store.Get(context.Background(), "questions:beginner:10")
	require.NoError(t, err)
	require.True(t, ok)

	var persisted []models.QuizQuestion
	require.NoError(t, json.Unmarshal(payload, &persisted))
	require.Len(t, persisted, 14)
}

func TestQuizServiceFallsBackToDatabase(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{err: errors.New("model unavailable")}
	source := &fakeSource{questions: makeQuestions(6)}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	questions, from, err := svc.Acquire(context.Background(), 10, "intermediate", nil)
	require.NoError(t, err)
	require.Equal(t, services.SourceFallback, from)
	require.Len(t, questions, 6)
	require.Equal(t, 1, generator.calls)
	require.Equal(t, 1, source.calls)

	// Fallback results are never cached.
	_, ok, err := store.Get(context.Background(), "questions:intermediate:10")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestQuizServiceFallbackFiltersExcluded(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{err: errors.New("model unavailable")}
	fetched := makeQuestions(6)
	source := &fakeSource{questions: fetched}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	exclude := []string{fetched[0].Question}
	questions, from, err := svc.Acquire(context.Background(), 10, "intermediate", exclude)
	require.NoError(t, err)
	require.Equal(t, services.SourceFallback, from)
	require.Len(t, questions, 5)
	for _, q := range questions {
		require.NotEqual(t, fetched[0].Question, q.Question)
	}
}

func TestQuizServiceBothPathsFail(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{err: errors.New("model unavailable")}
	source := &fakeSource{err: services.ErrNoQuestions}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	_, _, err = svc.Acquire(context.Background(), 10, "intermediate", nil)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	require.Equal(t, apperrors.ErrQuestionsUnavailable.Code, appErr.Code)
	require.ErrorIs(t, err, services.ErrNoQuestions)
}

func TestQuizServiceCorruptCacheTreatedAsMiss(t *testing.T) {
	store := cache.NewMemoryStore()
	generator := &fakeGenerator{questions: makeQuestions(10)}
	source := &fakeSource{}

	svc, err := services.NewQuizService(store, generator, source)
	require.NoError(t, err)

	require.NoError(t, store.Set(context.Background(), "questions:beginner:10", []byte("not json"), time.Minute))

	_, from, err := svc.Acquire(context.Background(), 10, "beginner", nil)
	require.NoError(t, err)
	require.Equal(t, services.SourceGenerated, from)
	require.Equal(t, 1, generator.calls)
}
