package match

// Pricing holds a model's per-1000-token rates in USD.
type Pricing struct {
	InputPer1K  float64
	OutputPer1K float64
}

// Cost computes the dollar cost of a request from its token counts.
func (p Pricing) Cost(inputTokens, outputTokens int) float64 {
	return float64(inputTokens)/1000*p.InputPer1K + float64(outputTokens)/1000*p.OutputPer1K
}

// Published rates for the supported remote models. Unknown models fall back
// to zero-cost accounting rather than guessing.
var modelPricing = map[string]Pricing{
	"deepseek-chat":    {InputPer1K: 0.00014, OutputPer1K: 0.00028},
	"gemini-2.0-flash": {InputPer1K: 0.000075, OutputPer1K: 0.0003},
}

// PricingFor returns the rates for a model, or a zero Pricing when unknown.
func PricingFor(model string) Pricing {
	return modelPricing[model]
}
