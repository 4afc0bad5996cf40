// Package match turns extracted field descriptors and a stored profile into
// confidence-scored bindings. Providers are selected explicitly by the host;
// there is no automatic failover between them.
package match

import (
	"context"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/profile"
)

// Binding associates one field with the value to write into it. At most one
// binding exists per field id per matching pass; the fill executor reads
// bindings but never mutates them.
type Binding struct {
	FieldID    string          `json:"field_id"`
	Category   detect.Category `json:"category"`
	Label      string          `json:"label"`
	Value      string          `json:"value"`
	Confidence float64         `json:"confidence"`
	Provider   string          `json:"provider"`
}

// Generated is the outcome of single-field free-text synthesis.
type Generated struct {
	Value      string  `json:"value"`
	Confidence float64 `json:"confidence"`
	TokensUsed int     `json:"tokens_used"`
	Cost       float64 `json:"cost"`
}

// Provider is the pluggable matching strategy. Variants differ in cost,
// network dependency and accuracy; all share this contract.
type Provider interface {
	// ID identifies the provider in bindings and errors.
	ID() string

	// TestConnection performs a lightweight capability probe. It must not
	// touch usage accounting.
	TestConnection(ctx context.Context) (bool, error)

	// MatchFields maps the fields onto profile values. A response that fails
	// validation yields zero bindings and an error, never a partial guess.
	MatchFields(ctx context.Context, fields []detect.Field, rec *profile.Record, jobContext map[string]string) ([]Binding, error)

	// GenerateValue synthesizes a free-text answer for a single field.
	GenerateValue(ctx context.Context, field detect.Field, rec *profile.Record, jobContext map[string]string) (*Generated, error)
}

// ClampConfidence forces a confidence score into [0,100].
func ClampConfidence(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
