package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/vimquiz/internal/costs"
	"github.com/charlesng35/vimquiz/internal/models"
	apperrors "github.com/charlesng35/vimquiz/pkg/errors"
	"github.com/charlesng35/vimquiz/pkg/response"
)

// CostReader exposes the ledger's read side.
type CostReader interface {
	Read(ctx context.Context, limit int) ([]models.CostEntry, error)
}

// AdminCostHandler reports accumulated model-call costs to operators.
type AdminCostHandler struct {
	ledger CostReader
}

// NewAdminCostHandler constructs an AdminCostHandler.
func NewAdminCostHandler(ledger CostReader) *AdminCostHandler {
	return &AdminCostHandler{ledger: ledger}
}

type costTotals struct {
	Calls            int     `json:"calls"`
	PromptTokens     int     `json:"prompt_tokens"`
	CompletionTokens int     `json:"completion_tokens"`
	TotalTokens      int     `json:"total_tokens"`
	InputCostUSD     float64 `json:"input_cost_usd"`
	OutputCostUSD    float64 `json:"output_cost_usd"`
	TotalCostUSD     float64 `json:"total_cost_usd"`
}

func (t *costTotals) add(entry models.CostEntry) {
	t.Calls++
	t.PromptTokens += entry.PromptTokens
	t.CompletionTokens += entry.CompletionTokens
	t.TotalTokens += entry.TotalTokens
	t.InputCostUSD += entry.InputCostUSD
	t.OutputCostUSD += entry.OutputCostUSD
	t.TotalCostUSD += entry.TotalCostUSD
}

// Get handles GET /api/admin/ai-costs.
func (h *AdminCostHandler) Get(c *gin.Context) {
	if h == nil || h.ledger == nil {
		response.Error(c, apperrors.ErrNotFound)
		return
	}

	entries, err := h.ledger.Read(c.Request.Context(), costs.DefaultReadLimit)
	if err != nil {
		response.Error(c, apperrors.Wrap(err, "read cost entries"))
		return
	}

	totals := costTotals{}
	byModel := make(map[string]*costTotals)
	for _, entry := range entries {
		totals.add(entry)

		model := entry.Model
		if model == "" {
			model = "unknown"
		}
		if byModel[model] == nil {
			byModel[model] = &costTotals{}
		}
		byModel[model].add(entry)
	}

	response.JSON(c, http.StatusOK, gin.H{
		"entries":  entries,
		"totals":   totals,
		"by_model": byModel,
	})
}
