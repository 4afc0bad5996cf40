package match

import (
	"errors"
	"strings"
	"testing"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
)

func promptFields() []detect.Field {
	return []detect.Field{
		{ID: "first_name", Label: "First Name", Kind: dom.KindText, Category: detect.CategoryPersonal},
		{ID: "email", Label: "Email", Kind: dom.KindEmail, Category: detect.CategoryContact},
	}
}

func TestParseBindings(t *testing.T) {
	fields := promptFields()

	raw := `{"bindings": [
		{"field_id": "first_name", "value": "Jordan", "confidence": 95},
		{"field_id": "email", "value": "jordan@example.com", "confidence": "88"},
		{"field_id": "unknown_field", "value": "dropped", "confidence": 99}
	]}`

	bindings, err := ParseBindings("test", raw, fields)
	if err != nil {
		t.Fatalf("ParseBindings returned error: %v", err)
	}
	if len(bindings) != 2 {
		t.Fatalf("expected 2 bindings, got %d: %+v", len(bindings), bindings)
	}
	if bindings[0].FieldID != "first_name" || bindings[0].Value != "Jordan" || bindings[0].Confidence != 95 {
		t.Fatalf("unexpected first binding: %+v", bindings[0])
	}
	if bindings[1].Confidence != 88 {
		t.Fatalf("expected string confidence coerced to 88, got %v", bindings[1].Confidence)
	}
	if bindings[1].Category != detect.CategoryContact {
		t.Fatalf("expected category carried from field, got %q", bindings[1].Category)
	}
}

func TestParseBindingsFencedReply(t *testing.T) {
	raw := "```json\n{\"bindings\": [{\"field_id\": \"email\", \"value\": \"a@b.c\", \"confidence\": 70}]}\n```"

	bindings, err := ParseBindings("test", raw, promptFields())
	if err != nil {
		t.Fatalf("ParseBindings returned error: %v", err)
	}
	if len(bindings) != 1 || bindings[0].Value != "a@b.c" {
		t.Fatalf("unexpected bindings: %+v", bindings)
	}
}

func TestParseBindingsClampsConfidence(t *testing.T) {
	raw := `{"bindings": [
		{"field_id": "first_name", "value": "x", "confidence": 150},
		{"field_id": "email", "value": "y", "confidence": -20}
	]}`

	bindings, err := ParseBindings("test", raw, promptFields())
	if err != nil {
		t.Fatalf("ParseBindings returned error: %v", err)
	}
	if bindings[0].Confidence != 100 {
		t.Fatalf("expected 150 clamped to 100, got %v", bindings[0].Confidence)
	}
	if bindings[1].Confidence != 0 {
		t.Fatalf("expected -20 clamped to 0, got %v", bindings[1].Confidence)
	}
}

func TestParseBindingsRejectsMalformedReplies(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"not json", "sure, here are the matches you asked for"},
		{"missing bindings key", `{"matches": []}`},
		{"bindings not an array", `{"bindings": "none"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bindings, err := ParseBindings("test", tt.raw, promptFields())
			if err == nil {
				t.Fatal("expected error")
			}
			var respErr *ResponseError
			if !errors.As(err, &respErr) {
				t.Fatalf("expected ResponseError, got %T: %v", err, err)
			}
			if len(bindings) != 0 {
				t.Fatalf("malformed reply must yield zero bindings, got %+v", bindings)
			}
		})
	}
}

func TestParseBindingsDropsDuplicatesAndEmptyValues(t *testing.T) {
	raw := `{"bindings": [
		{"field_id": "email", "value": "first@example.com", "confidence": 80},
		{"field_id": "email", "value": "second@example.com", "confidence": 90},
		{"field_id": "first_name", "value": "", "confidence": 50}
	]}`

	bindings, err := ParseBindings("test", raw, promptFields())
	if err != nil {
		t.Fatalf("ParseBindings returned error: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d: %+v", len(bindings), bindings)
	}
	if bindings[0].Value != "first@example.com" {
		t.Fatalf("expected first occurrence to win, got %q", bindings[0].Value)
	}
}

func TestParseBindingsFollowFieldOrder(t *testing.T) {
	fields := []detect.Field{
		{ID: "first_name", Label: "First Name", Kind: dom.KindText, Category: detect.CategoryPersonal, Priority: 100},
		{ID: "email", Label: "Email", Kind: dom.KindEmail, Category: detect.CategoryContact, Priority: 90},
		{ID: "school", Label: "School", Kind: dom.KindText, Category: detect.CategoryEducation, Priority: 70},
	}

	// The reply lists a low-priority field first; the fill pass still has to
	// walk fields in priority order.
	raw := `{"bindings": [
		{"field_id": "school", "value": "State University", "confidence": 70},
		{"field_id": "email", "value": "jordan@example.com", "confidence": 90},
		{"field_id": "first_name", "value": "Jordan", "confidence": 95}
	]}`

	bindings, err := ParseBindings("test", raw, fields)
	if err != nil {
		t.Fatalf("ParseBindings returned error: %v", err)
	}
	if len(bindings) != 3 {
		t.Fatalf("expected 3 bindings, got %d: %+v", len(bindings), bindings)
	}
	for i, want := range []string{"first_name", "email", "school"} {
		if bindings[i].FieldID != want {
			t.Fatalf("expected binding %d to be %q, got %q", i, want, bindings[i].FieldID)
		}
	}
}

func TestParseGenerated(t *testing.T) {
	generated, err := ParseGenerated("test", `{"value": "I enjoy building reliable systems.", "confidence": 85}`)
	if err != nil {
		t.Fatalf("ParseGenerated returned error: %v", err)
	}
	if generated.Value != "I enjoy building reliable systems." {
		t.Fatalf("unexpected value %q", generated.Value)
	}
	if generated.Confidence != 85 {
		t.Fatalf("unexpected confidence %v", generated.Confidence)
	}

	if _, err := ParseGenerated("test", `{"confidence": 85}`); err == nil {
		t.Fatal("expected error for reply without value")
	}
}

func TestBuildMatchPromptIncludesFieldsAndContext(t *testing.T) {
	prompt, err := BuildMatchPrompt(promptFields(), testRecord(), map[string]string{"company": "Acme"})
	if err != nil {
		t.Fatalf("BuildMatchPrompt returned error: %v", err)
	}
	for _, want := range []string{"first_name", "jordan@example.com", "job_context", "Acme"} {
		if !strings.Contains(prompt, want) {
			t.Fatalf("prompt missing %q:\n%s", want, prompt)
		}
	}
}
