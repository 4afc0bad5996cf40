package match

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/profile"
)

// Shared prompt construction and response validation for the remote
// providers. Every remote variant sends the same instruction shape and is
// held to the same strict reply contract.

const MatchSystemPrompt = `You fill job application forms from a stored applicant profile.
Given form fields and the profile, decide which profile value belongs in each field.
Respond with a single JSON object of the shape:
{"bindings": [{"field_id": "...", "value": "...", "confidence": 0-100}]}
Only include fields you are confident about. Never invent profile data.
For select/radio/checkbox fields the value must suit the field's options.`

const GenerateSystemPrompt = `You write short, professional answers for job application questions.
Use only the applicant profile and job context provided.
Respond with a single JSON object of the shape:
{"value": "...", "confidence": 0-100}`

// BuildMatchPrompt serializes fields, profile and optional job context into
// the user message of a matching request.
func BuildMatchPrompt(fields []detect.Field, rec *profile.Record, jobContext map[string]string) (string, error) {
	type promptField struct {
		FieldID     string `json:"field_id"`
		Label       string `json:"label"`
		Kind        string `json:"kind"`
		Category    string `json:"category"`
		Placeholder string `json:"placeholder,omitempty"`
		Required    bool   `json:"required"`
	}

	pf := make([]promptField, 0, len(fields))
	for i := range fields {
		f := &fields[i]
		pf = append(pf, promptField{
			FieldID:     f.ID,
			Label:       f.Label,
			Kind:        string(f.Kind),
			Category:    string(f.Category),
			Placeholder: f.Placeholder,
			Required:    f.Required,
		})
	}

	payload := map[string]any{
		"fields":  pf,
		"profile": rec,
	}
	if len(jobContext) > 0 {
		payload["job_context"] = jobContext
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal matching payload: %w", err)
	}

	return "Match these form fields to the profile:\n" + string(data), nil
}

// BuildGeneratePrompt serializes a single field for free-text synthesis.
func BuildGeneratePrompt(field detect.Field, rec *profile.Record, jobContext map[string]string) (string, error) {
	payload := map[string]any{
		"field": map[string]any{
			"label":       field.Label,
			"kind":        string(field.Kind),
			"placeholder": field.Placeholder,
		},
		"profile": rec,
	}
	if maxLen := field.Attributes["maxlength"]; maxLen != "" {
		payload["max_length"] = maxLen
	}
	if len(jobContext) > 0 {
		payload["job_context"] = jobContext
	}

	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal generation payload: %w", err)
	}

	return "Answer this application question:\n" + string(data), nil
}

type bindingPayload struct {
	FieldID    string `mapstructure:"field_id"`
	Value      any    `mapstructure:"value"`
	Confidence any    `mapstructure:"confidence"`
}

// ParseBindings validates a remote matching reply against the expected
// shape. Validation is strict: a reply that is not a JSON object with a
// bindings array yields an error and zero bindings. Unknown field ids are
// dropped; scalar types are coerced but fields are never invented.
func ParseBindings(providerID, raw string, fields []detect.Field) ([]Binding, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &ResponseError{Provider: providerID, Err: fmt.Errorf("parse reply: %w", err)}
	}

	rawBindings, ok := data["bindings"]
	if !ok {
		return nil, &ResponseError{Provider: providerID, Err: fmt.Errorf("reply has no bindings array")}
	}

	var payload []bindingPayload
	if err := mapstructure.Decode(rawBindings, &payload); err != nil {
		return nil, &ResponseError{Provider: providerID, Err: fmt.Errorf("decode bindings: %w", err)}
	}

	byID := make(map[string]*detect.Field, len(fields))
	for i := range fields {
		byID[fields[i].ID] = &fields[i]
	}

	accepted := make(map[string]Binding, len(payload))
	for _, p := range payload {
		f, ok := byID[p.FieldID]
		if !ok {
			continue
		}
		if _, dup := accepted[p.FieldID]; dup {
			continue
		}
		value := coerceString(p.Value)
		if value == "" {
			continue
		}

		confidence := coerceFloat(p.Confidence)
		if math.IsNaN(confidence) {
			confidence = 0
		}

		accepted[p.FieldID] = Binding{
			FieldID:    f.ID,
			Category:   f.Category,
			Label:      f.Label,
			Value:      value,
			Confidence: ClampConfidence(confidence),
			Provider:   providerID,
		}
	}

	// Bindings follow the field list, not the reply, so the fill pass keeps
	// its priority order regardless of how the model ordered its answer.
	bindings := make([]Binding, 0, len(accepted))
	for i := range fields {
		if b, ok := accepted[fields[i].ID]; ok {
			bindings = append(bindings, b)
		}
	}

	return bindings, nil
}

// ParseGenerated validates a free-text synthesis reply.
func ParseGenerated(providerID, raw string) (*Generated, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, &ResponseError{Provider: providerID, Err: fmt.Errorf("parse reply: %w", err)}
	}

	value := coerceString(data["value"])
	if value == "" {
		return nil, &ResponseError{Provider: providerID, Err: fmt.Errorf("reply has no value")}
	}

	confidence := coerceFloat(data["confidence"])
	if math.IsNaN(confidence) {
		confidence = 0
	}

	return &Generated{
		Value:      value,
		Confidence: ClampConfidence(confidence),
	}, nil
}

// extractJSON strips markdown code fences models like to wrap JSON in.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case bool:
		return strconv.FormatBool(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	default:
		return ""
	}
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}
