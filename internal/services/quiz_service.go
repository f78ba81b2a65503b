package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/vimquiz/internal/cache"
	"github.com/charlesng35/vimquiz/internal/models"
	apperrors "github.com/charlesng35/vimquiz/pkg/errors"
	"github.com/charlesng35/vimquiz/pkg/logger"
	"github.com/charlesng35/vimquiz/pkg/metrics"
)

// Source identifies which path served a question set.
type Source string

const (
	SourceCache     Source = "cache"
	SourceGenerated Source = "generated"
	SourceFallback  Source = "fallback"
)

// questionCacheTTL is how long a freshly generated set stays reusable.
const questionCacheTTL = time.Hour

// QuestionGenerator produces fresh question sets, typically via an
// external model.
type QuestionGenerator interface {
	Generate(ctx context.Context, count int, difficulty string, exclude []string) ([]models.QuizQuestion, error)
}

// QuestionSource serves previously authored questions.
type QuestionSource interface {
	Fetch(ctx context.Context, count int, difficulty string) ([]models.QuizQuestion, error)
}

// QuizService ties cache, generator, and database store together into one
// question-acquisition operation with fallback semantics. Each of the
// generate and fallback steps is attempted exactly once per call; the HTTP
// caller's deadline is the only retry budget.
type QuizService struct {
	cache     cache.Store
	generator QuestionGenerator
	store     QuestionSource
	log       *zap.Logger
}

// NewQuizService constructs a QuizService.
func NewQuizService(store cache.Store, generator QuestionGenerator, questions QuestionSource) (*QuizService, error) {
	if store == nil {
		return nil, errors.New("quiz service: cache store is required")
	}
	if generator == nil {
		return nil, errors.New("quiz service: generator is required")
	}
	if questions == nil {
		return nil, errors.New("quiz service: question source is required")
	}
	return &QuizService{
		cache:     store,
		generator: generator,
		store:     questions,
		log:       logger.WithModule("quiz"),
	}, nil
}

// Acquire returns count questions for the difficulty, excluding any whose
// text appears in exclude. It consults the cache, then the generator, then
// the database, and reports which source served the result.
func (s *QuizService) Acquire(ctx context.Context, count int, difficulty string, exclude []string) ([]models.QuizQuestion, Source, error) {
	if s == nil {
		return nil, "", errors.New("quiz service: not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	cacheKey := fmt.Sprintf("questions:%s:%d", difficulty, count)

	if questions, ok := s.fromCache(ctx, cacheKey, count, exclude); ok {
		metrics.QuestionsServed.WithLabelValues(string(SourceCache)).Inc()
		return questions, SourceCache, nil
	}

	generated, genErr := s.generator.Generate(ctx, count, difficulty, exclude)
	if genErr == nil {
		s.storeInCache(ctx, cacheKey, generated)
		if len(generated) > count {
			generated = generated[:count]
		}
		metrics.QuestionsServed.WithLabelValues(string(SourceGenerated)).Inc()
		return generated, SourceGenerated, nil
	}
	s.log.Warn("generation failed, falling back to database",
		zap.String("difficulty", difficulty),
		zap.Int("count", count),
		zap.Error(genErr),
	)

	fetched, dbErr := s.store.Fetch(ctx, count, difficulty)
	if dbErr != nil {
		s.log.Error("database fallback failed",
			zap.String("difficulty", difficulty),
			zap.Error(dbErr),
		)
		return nil, "", apperrors.ErrQuestionsUnavailable.WithInternal(errors.Join(genErr, dbErr))
	}

	// The fallback result is served uncached: it was selected randomly and
	// caching it would pin one arbitrary subset for an hour.
	metrics.QuestionsServed.WithLabelValues(string(SourceFallback)).Inc()
	return filterQuestions(fetched, exclude), SourceFallback, nil
}

// fromCache reports a usable cached set. Cache errors degrade to a miss;
// they must never abort acquisition.
func (s *QuizService) fromCache(ctx context.Context, key string, count int, exclude []string) ([]models.QuizQuestion, bool) {
	payload, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.log.Warn("cache read failed, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var cached []models.QuizQuestion
	if err := json.Unmarshal(payload, &cached); err != nil {
		s.log.Warn("cached payload unreadable, treating as miss", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	remaining := filterQuestions(cached, exclude)
	if len(remaining) < count {
		return nil, false
	}
	return remaining[:count], true
}

func (s *QuizService) storeInCache(ctx context.Context, key string, questions []models.QuizQuestion) {
	payload, err := json.Marshal(questions)
	if err != nil {
		s.log.Warn("encode questions for cache", zap.Error(err))
		return
	}
	if err := s.cache.Set(ctx, key, payload, questionCacheTTL); err != nil {
		s.log.Warn("cache write failed", zap.String("key", key), zap.Error(err))
	}
}

func filterQuestions(questions []models.QuizQuestion, exclude []string) []models.QuizQuestion {
	if len(exclude) == 0 {
		return questions
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, text := range exclude {
		excluded[text] = struct{}{}
	}

	kept := make([]models.QuizQuestion, 0, len(questions))
	for _, q := range questions {
		if _, skip := excluded[q.Question]; !skip {
			kept = append(kept, q)
		}
	}
	return kept
}
