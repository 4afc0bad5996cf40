// Package deepseek implements the matching provider backed by the DeepSeek
// chat-completions API. The API is OpenAI-compatible, so requests are built
// with the openai-go message helpers and posted to the DeepSeek endpoint.
package deepseek

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/openai/openai-go"
	"github.com/pkoukk/tiktoken-go"
	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match"
	"github.com/sanketmuchhala/ApplicationAgent/internal/profile"
	"github.com/sanketmuchhala/ApplicationAgent/internal/util"
	"go.uber.org/zap"
)

const (
	// ProviderID identifies deepseek bindings and errors.
	ProviderID = "deepseek"

	// DefaultBaseURL is the hosted DeepSeek endpoint.
	DefaultBaseURL = "https://api.deepseek.com/v1"

	defaultModel = "deepseek-chat"

	maxLogLength = 200
)

// Provider matches fields through the DeepSeek API.
type Provider struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	model      string
	logger     *zap.Logger

	usageMu     sync.Mutex
	totalTokens int
	totalCost   float64
}

// Option configures a Provider.
type Option func(*Provider)

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(p *Provider) {
		if model = strings.TrimSpace(model); model != "" {
			p.model = model
		}
	}
}

// WithBaseURL points the provider at a different OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) Option {
	return func(p *Provider) {
		if baseURL = strings.TrimSpace(baseURL); baseURL != "" {
			p.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithHTTPClient replaces the transport client.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Provider) {
		if client != nil {
			p.httpClient = client
		}
	}
}

// New creates a DeepSeek-backed provider. A missing API key is a
// configuration error raised before any network attempt.
func New(apiKey string, logger *zap.Logger, opts ...Option) (*Provider, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, &match.ConfigError{Provider: ProviderID, Reason: "api key is required"}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	p := &Provider{
		httpClient: &http.Client{},
		apiKey:     apiKey,
		baseURL:    DefaultBaseURL,
		model:      defaultModel,
		logger:     logger,
	}
	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

func (p *Provider) ID() string { return ProviderID }

// Model returns the configured model name.
func (p *Provider) Model() string { return p.model }

// Usage returns cumulative token and cost accounting for this provider.
func (p *Provider) Usage() (tokens int, cost float64) {
	p.usageMu.Lock()
	defer p.usageMu.Unlock()
	return p.totalTokens, p.totalCost
}

// TestConnection sends a minimal probe request. Probe traffic is excluded
// from usage accounting.
func (p *Provider) TestConnection(ctx context.Context) (bool, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage("Reply with the single word: ok"),
	}
	_, _, err := p.complete(ctx, messages)
	if err != nil {
		return false, err
	}
	return true, nil
}

// MatchFields asks DeepSeek to bind the fields to profile values. A reply
// that fails shape validation yields zero bindings, never a partial guess.
func (p *Provider) MatchFields(ctx context.Context, fields []detect.Field, rec *profile.Record, jobContext map[string]string) ([]match.Binding, error) {
	userPrompt, err := match.BuildMatchPrompt(fields, rec, jobContext)
	if err != nil {
		return nil, err
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(match.MatchSystemPrompt),
		openai.UserMessage(userPrompt),
	}

	p.logger.Debug("deepseek matching request",
		zap.Int("fields", len(fields)),
		zap.Int("prompt_length", utf8.RuneCountInString(userPrompt)),
		zap.String("prompt_preview", util.TruncateForLog(userPrompt, maxLogLength)),
	)

	raw, tokens, err := p.complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	if tokens.total() == 0 {
		tokens = estimateUsage(match.MatchSystemPrompt+userPrompt, raw)
	}
	p.record(tokens)

	p.logger.Debug("deepseek matching response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", util.TruncateForLog(raw, maxLogLength)),
	)

	bindings, err := match.ParseBindings(ProviderID, raw, fields)
	if err != nil {
		return nil, err
	}

	p.logger.Info("deepseek matching complete",
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

	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(match.GenerateSystemPrompt),
		openai.UserMessage(userPrompt),
	}

	raw, tokens, err := p.complete(ctx, messages)
	if err != nil {
		return nil, err
	}
	if tokens.total() == 0 {
		tokens = estimateUsage(match.GenerateSystemPrompt+userPrompt, raw)
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

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (p *Provider) complete(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, tokenUsage, error) {
	var usage tokenUsage

	reqBody := map[string]any{
		"model":    p.model,
		"messages": messages,
		"stream":   false,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return "", usage, fmt.Errorf("marshal request: %w", err)
	}

	url := p.baseURL + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", usage, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", usage, &match.NetworkError{Provider: ProviderID, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", usage, &match.NetworkError{Provider: ProviderID, Status: resp.StatusCode, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", usage, &match.NetworkError{
			Provider: ProviderID,
			Status:   resp.StatusCode,
			Err:      fmt.Errorf("%s", strings.TrimSpace(string(body))),
		}
	}

	var parsed completionResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", usage, &match.ResponseError{Provider: ProviderID, Err: fmt.Errorf("parse completion: %w", err)}
	}
	if len(parsed.Choices) == 0 {
		return "", usage, &match.ResponseError{Provider: ProviderID, Err: errors.New("completion has no choices")}
	}

	content := strings.TrimSpace(parsed.Choices[0].Message.Content)
	if content == "" {
		return "", usage, &match.ResponseError{Provider: ProviderID, Err: errors.New("empty response")}
	}

	usage.input = parsed.Usage.PromptTokens
	usage.output = parsed.Usage.CompletionTokens

	return content, usage, nil
}

// estimateUsage falls back to local tokenization when the API omits usage
// numbers. cl100k_base is close enough for cost accounting.
func estimateUsage(prompt, reply string) tokenUsage {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		// Rough heuristic: ~4 characters per token.
		return tokenUsage{
			input:  len(prompt) / 4,
			output: len(reply) / 4,
		}
	}
	return tokenUsage{
		input:  len(enc.Encode(prompt, nil, nil)),
		output: len(enc.Encode(reply, nil, nil)),
	}
}

func (p *Provider) record(usage tokenUsage) float64 {
	cost := match.PricingFor(p.model).Cost(usage.input, usage.output)

	p.usageMu.Lock()
	defer p.usageMu.Unlock()
	p.totalTokens += usage.total()
	p.totalCost += cost

	return cost
}
