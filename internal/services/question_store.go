package services

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/vimquiz/internal/models"
)

// ErrNoQuestions indicates the database holds no questions matching the
// request. It marks the question source as exhausted.
var ErrNoQuestions = errors.New("question store: no questions available")

// maxIncorrectAnswers caps how many wrong answers are attached per
// question; excess rows are ignored, not an error.
const maxIncorrectAnswers = 3

// QuestionStore serves previously authored questions from the database.
// It is read-only; authoring happens through seeding and administration.
type QuestionStore struct {
	db *gorm.DB
}

// NewQuestionStore constructs a QuestionStore.
func NewQuestionStore(db *gorm.DB) (*QuestionStore, error) {
	if db == nil {
		return nil, errors.New("question store: db is required")
	}
	return &QuestionStore{db: db}, nil
}

// Fetch selects count random questions, filtered by difficulty only when
// the schema carries a difficulty column (older deployments may not have
// been migrated). Exclusion filtering is the caller's responsibility.
func (s *QuestionStore) Fetch(ctx context.Context, count int, difficulty string) ([]models.QuizQuestion, error) {
	if s == nil {
		return nil, errors.New("question store: not initialised")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if count <= 0 {
		return nil, errors.New("question store: count must be positive")
	}

	query := s.db.WithContext(ctx).Model(&models.Question{})

	difficulty = strings.ToLower(strings.TrimSpace(difficulty))
	if difficulty != "" && s.hasDifficultyColumn() {
		query = query.Where("difficulty = ?", difficulty)
	}

	var ids []string
	if err := query.Order(s.randomOrder()).Limit(count).Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, ErrNoQuestions
	}

	var rows []models.Question
	err := s.db.WithContext(ctx).
		Preload("IncorrectAnswers").
		Where("id IN ?", ids).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	questions := make([]models.QuizQuestion, 0, len(rows))
	for _, row := range rows {
		incorrect := make([]string, 0, maxIncorrectAnswers)
		for _, answer := range row.IncorrectAnswers {
			if len(incorrect) == maxIncorrectAnswers {
				break
			}
			incorrect = append(incorrect, answer.IncorrectAnswer)
		}
		questions = append(questions, models.QuizQuestion{
			Question:         row.Question,
			CorrectAnswer:    row.CorrectAnswer,
			IncorrectAnswers: incorrect,
		})
	}

	return questions, nil
}

func (s *QuestionStore) hasDifficultyColumn() bool {
	return s.db.Migrator().HasColumn(&models.Question{}, "difficulty")
}

// randomOrder returns the dialect's random ordering expression.
func (s *QuestionStore) randomOrder() string {
	if s.db.Dialector.Name() == "mysql" {
		return "RAND()"
	}
	return "RANDOM()"
}
