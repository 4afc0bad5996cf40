// Package gemini implements the matching provider backed by the Google
// Gemini API.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match"
	"github.com/sanketmuchhala/ApplicationAgent/internal/profile"
	"github.com/sanketmuchhala/ApplicationAgent/internal/util"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	// ProviderID identifies gemini bindings and errors.
	ProviderID = "gemini"

	defaultModel = "gemini-2.0-flash"

	maxLogLength = 200
)

// Provider matches fields through the Gemini API. Construction validates the
// configuration; the first request is the first network contact.
type Provider struct {
	client    *genai.Client
	modelName string
	logger    *zap.Logger

	usageMu     sync.Mutex
	totalTokens int
	totalCost   float64
}

// New creates a Gemini-backed provider. A missing API key is a configuration
// error raised before any network attempt.
func New(ctx context.Context, apiKey, model string, logger *zap.Logger) (*Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &match.ConfigError{Provider: ProviderID, Reason: "api key is required"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	if model = strings.TrimSpace(model); model == "" {
		model = defaultModel
	}

	return &Provider{client: client, modelName: model, logger: logger}, nil
}

func (p *Provider) ID() string { return ProviderID }

// Model returns the configured model name.
func (p *Provider) Model() string {
	if p == nil {
		return ""
	}
	return p.modelName
}

// Usage returns cumulative token and cost accounting for this provider.
func (p *Provider) Usage() (tokens int, cost float64) {
	p.usageMu.Lock()
	defer p.usageMu.Unlock()
	return p.totalTokens, p.totalCost
}

// TestConnection sends a minimal probe request. Probe traffic is excluded
// from usage accounting.
func (p *Provider) TestConnection(ctx context.Context) (bool, error) {
	_, _, err := p.generate(ctx, "Reply with the single word: ok")
	if err != nil {
		return false, err
	}
	return true, nil
}

// MatchFields asks Gemini to bind the fields to profile values. A reply that
// fails shape validation yields zero bindings, never a partial guess.
func (p *Provider) MatchFields(ctx context.Context, fields []detect.Field, rec *profile.Record, jobContext map[string]string) ([]match.Binding, error) {
	userPrompt, err := match.BuildMatchPrompt(fields, rec, jobContext)
	if err != nil {
		return nil, err
	}
	prompt := match.MatchSystemPrompt + "\n\n" + userPrompt

	p.logger.Debug("gemini matching request",
		zap.Int("fields", len(fields)),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", util.TruncateForLog(prompt, maxLogLength)),
	)

	raw, tokens, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	p.record(tokens)

	p.logger.Debug("gemini matching response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, maxLogLength)),
	)

	bindings, err := match.ParseBindings(ProviderID, raw, fields)
	if err != nil {
		return nil, err
	}

	p.logger.Info("gemini matching complete",
		zap.Int("fields", len(fields)),
		zap.Int("bindings", len(bindings)),
	)

	return bindings, nil
}

// GenerateValue synthesizes a free-text answer for one field.
func (p *Provider) GenerateValue(ctx context.Context, field detect.Field, rec *profile.Record, jobContext map[string]string) (*match.Generated, error) {
	userPrompt, err := match.BuildGeneratePrompt(field, rec, jobContext)
	if err != nil {
		return nil, err
	}
	prompt := match.GenerateSystemPrompt + "\n\n" + userPrompt

	raw, tokens, err := p.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	cost := p.record(tokens)

	generated, err := match.ParseGenerated(ProviderID, raw)
	if err != nil {
		return nil, err
	}

	generated.TokensUsed = tokens.total()
	generated.Cost = cost
	return generated, nil
}

type tokenUsage struct {
	input  int
	output int
}

func (t tokenUsage) total() int { return t.input + t.output }

func (p *Provider) generate(ctx context.Context, prompt string) (string, tokenUsage, error) {
	var usage tokenUsage

	if p == nil || p.client == nil {
		return "", usage, &match.ConfigError{Provider: ProviderID, Reason: "provider is not initialized"}
	}

	resp, err := p.client.Models.GenerateContent(ctx, p.modelName, genai.Text(prompt), nil)
	if err != nil {
		return "", usage, &match.NetworkError{Provider: ProviderID, Err: err}
	}

	if resp.UsageMetadata != nil {
		usage.input = int(resp.UsageMetadata.PromptTokenCount)
		usage.output = int(resp.UsageMetadata.CandidatesTokenCount)
	}

	var builder strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if builder.Len() > 0 {
				builder.WriteString("\n")
			}
			builder.WriteString(text)
		}
	}

	output := strings.TrimSpace(builder.String())
	if output == "" {
		return "", usage, &match.ResponseError{Provider: ProviderID, Err: errors.New("empty response")}
	}

	return output, usage, nil
}

func (p *Provider) record(usage tokenUsage) float64 {
	cost := match.PricingFor(p.modelName).Cost(usage.input, usage.output)

	p.usageMu.Lock()
	defer p.usageMu.Unlock()
	p.totalTokens += usage.total()
	p.totalCost += cost

	return cost
}
