package costs

// ModelPricing holds USD prices per 1K tokens for a model.
type ModelPricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// pricing is the static price table for the models this service may call.
var pricing = map[string]ModelPricing{
	"gpt-3.5-turbo": {InputPer1K: 0.0005, OutputPer1K: 0.0015},
	"gpt-4o-mini":   {InputPer1K: 0.00015, OutputPer1K: 0.0006},
	"gpt-4o":        {InputPer1K: 0.0025, OutputPer1K: 0.01},
}

// Cost is the result of a price calculation.
type Cost struct {
	InputUSD     float64
	OutputUSD    float64
	TotalUSD     float64
	PricingKnown bool
}

// Calculate maps token counts to a monetary estimate for the named model.
// Unknown models yield zero costs with PricingKnown false so the caller can
// still log the call.
func Calculate(model string, promptTokens, completionTokens int) Cost {
	price, ok := pricing[model]
	if !ok {
		return Cost{}
	}

	input := float64(promptTokens) / 1000 * price.InputPer1K
	output := float64(completionTokens) / 1000 * price.OutputPer1K

	return Cost{
		InputUSD:     input,
		OutputUSD:    output,
		TotalUSD:     input + output,
		PricingKnown: true,
	}
}
