package handlers

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/vimquiz/internal/models"
	"github.com/charlesng35/vimquiz/internal/services"
	apperrors "github.com/charlesng35/vimquiz/pkg/errors"
	"github.com/charlesng35/vimquiz/pkg/response"
)

// questionCount is the size of a served quiz round.
const questionCount = 10

// QuestionAcquirer is the orchestrator contract the handler depends on.
type QuestionAcquirer interface {
	Acquire(ctx context.Context, count int, difficulty string, exclude []string) ([]models.QuizQuestion, services.Source, error)
}

// QuestionHandler serves quiz question sets to the front end.
type QuestionHandler struct {
	svc QuestionAcquirer
}

// NewQuestionHandler constructs a QuestionHandler.
func NewQuestionHandler(svc QuestionAcquirer) *QuestionHandler {
	return &QuestionHandler{svc: svc}
}

// Get handles GET /api/v1/questions.
func (h *QuestionHandler) Get(c *gin.Context) {
	if h == nil || h.svc == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	difficulty := strings.ToLower(strings.TrimSpace(c.DefaultQuery("difficulty", models.DifficultyIntermediate)))
	if !models.ValidDifficulty(difficulty) {
		response.Error(c, apperrors.NewBadRequest("difficulty must be beginner, intermediate, or advanced"))
		return
	}

	exclude := make([]string, 0)
	for _, text := range c.QueryArray("exclude") {
		if text = strings.TrimSpace(text); text != "" {
			exclude = append(exclude, text)
		}
	}

	questions, source, err := h.svc.Acquire(c.Request.Context(), questionCount, difficulty, exclude)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("X-Cache", cacheHeader(source))
	response.Results(c, questions)
}

func cacheHeader(source services.Source) string {
	switch source {
	case services.SourceCache:
		return "HIT"
	case services.SourceFallback:
		return "FALLBACK"
	default:
		return "MISS"
	}
}
