package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/charlesng35/vimquiz/internal/costs"
	"github.com/charlesng35/vimquiz/internal/models"
	"github.com/charlesng35/vimquiz/pkg/logger"
	"github.com/charlesng35/vimquiz/pkg/metrics"
)

// Generation failures all match ErrInvalidOutput so the orchestrator can
// treat them uniformly while logs keep the specific cause.
var (
	ErrInvalidOutput    = errors.New("ai: model returned invalid output")
	ErrNoContent        = fmt.Errorf("%w: empty response content", ErrInvalidOutput)
	ErrMalformedJSON    = fmt.Errorf("%w: response is not valid JSON", ErrInvalidOutput)
	ErrEmptyResult      = fmt.Errorf("%w: response contained no questions", ErrInvalidOutput)
	ErrNoValidQuestions = fmt.Errorf("%w: no structurally valid questions", ErrInvalidOutput)
)

// excludeSampleSize bounds how many excluded question texts are echoed into
// the prompt. The hint reduces duplicates; the model may still ignore it.
const excludeSampleSize = 5

const systemPrompt = "You are a Vim expert creating quiz questions. Be precise and technically accurate."

// fencedBlock matches a markdown code fence, optionally tagged json.
var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ChatClient is the subset of the OpenAI client the generator depends on.
type ChatClient interface {
	ChatCompletion(ctx context.Context, messages []Message) (string, Usage, error)
	Model() string
}

// CostRecorder receives one entry per successful external model call.
type CostRecorder interface {
	Append(ctx context.Context, entry models.CostEntry)
}

// Generator produces quiz questions by prompting an external model and
// validating its output.
type Generator struct {
	client ChatClient
	ledger CostRecorder
	log    *zap.Logger
}

// NewGenerator constructs a Generator.
func NewGenerator(client ChatClient, ledger CostRecorder) (*Generator, error) {
	if client == nil {
		return nil, errors.New("ai: chat client is required")
	}
	if ledger == nil {
		return nil, errors.New("ai: cost recorder is required")
	}
	return &Generator{
		client: client,
		ledger: ledger,
		log:    logger.WithModule("ai"),
	}, nil
}

// Generate requests count questions at the given difficulty, excluding any
// whose text appears in exclude. One cost entry is recorded for every call
// that reaches the model successfully, whether or not its output parses.
func (g *Generator) Generate(ctx context.Context, count int, difficulty string, exclude []string) ([]models.QuizQuestion, error) {
	prompt := buildPrompt(count, difficulty, exclude)
	model := g.client.Model()

	content, usage, err := g.client.ChatCompletion(ctx, []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: prompt},
	})
	if err != nil {
		metrics.ModelCalls.WithLabelValues(model, "error").Inc()
		return nil, err
	}
	metrics.ModelCalls.WithLabelValues(model, "ok").Inc()

	g.recordCost(ctx, model, usage)

	questions, err := parseQuestions(content)
	if err != nil {
		g.log.Warn("model output rejected",
			zap.String("model", model),
			zap.Error(err),
		)
		return nil, err
	}

	return filterExcluded(questions, exclude), nil
}

func (g *Generator) recordCost(ctx context.Context, model string, usage Usage) {
	promptTokens := usage.PromptTokens
	completionTokens := usage.CompletionTokens
	totalTokens := usage.TotalTokens
	if totalTokens == 0 {
		totalTokens = promptTokens + completionTokens
	}

	cost := costs.Calculate(model, promptTokens, completionTokens)
	if !cost.PricingKnown {
		g.log.Warn("no pricing for model, recording zero cost", zap.String("model", model))
	}
	metrics.ModelCostUSD.WithLabelValues(model).Add(cost.TotalUSD)

	g.ledger.Append(ctx, models.CostEntry{
		Timestamp:        time.Now().UTC(),
		Endpoint:         "chat.completions",
		Model:            model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      totalTokens,
		InputCostUSD:     cost.InputUSD,
		OutputCostUSD:    cost.OutputUSD,
		TotalCostUSD:     cost.TotalUSD,
	})
}

func buildPrompt(count int, difficulty string, exclude []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Generate %d unique Vim quiz questions for %s users.\n", count, difficulty)
	b.WriteString(`Each question should have:
- A clear, specific question about Vim usage or concepts
- 1 correct answer (must be a valid Vim command or concept)
- 3 incorrect but plausible answers
- Format as a valid JSON array of objects with these exact properties:
  - question: string
  - correct_answer: string
  - incorrect_answers: string[] (exactly 3 items)

Example:
[{
  "question": "How do you delete the current line in Vim?",
  "correct_answer": "dd",
  "incorrect_answers": ["dl", "D", "d$"]
}]

Important:
- Only include valid Vim commands and concepts
- Make sure answers are technically accurate
- Questions should be varied and cover different aspects of Vim
`)

	if len(exclude) > 0 {
		sample := exclude
		if len(sample) > excludeSampleSize {
			sample = sample[:excludeSampleSize]
		}
		fmt.Fprintf(&b, "- Exclude these questions: %s\n", strings.Join(sample, "; "))
	}

	return b.String()
}

// parseQuestions extracts the JSON array from the model's free-form reply.
// A fenced code block takes precedence; otherwise the raw text is parsed.
func parseQuestions(content string) ([]models.QuizQuestion, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrNoContent
	}

	jsonContent := content
	if match := fencedBlock.FindStringSubmatch(content); match != nil {
		jsonContent = strings.TrimSpace(match[1])
	}

	var raw []models.QuizQuestion
	if err := json.Unmarshal([]byte(jsonContent), &raw); err != nil {
		return nil, ErrMalformedJSON
	}
	if len(raw) == 0 {
		return nil, ErrEmptyResult
	}

	valid := make([]models.QuizQuestion, 0, len(raw))
	for _, q := range raw {
		if q.Valid() {
			valid = append(valid, q)
		}
	}
	if len(valid) == 0 {
		return nil, ErrNoValidQuestions
	}

	return valid, nil
}

func filterExcluded(questions []models.QuizQuestion, exclude []string) []models.QuizQuestion {
	if len(exclude) == 0 {
		return questions
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, text := range exclude {
		excluded[text] = struct{}{}
	}

	kept := questions[:0]
	for _, q := range questions {
		if _, skip := excluded[q.Question]; !skip {
			kept = append(kept, q)
		}
	}
	return kept
}
