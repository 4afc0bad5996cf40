package deepseek

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match"
	"github.com/sanketmuchhala/ApplicationAgent/internal/profile"
)

func completionReply(content string, promptTokens, completionTokens int) string {
	reply := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"role": "assistant", "content": content}},
		},
		"usage": map[string]any{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
		},
	}
	data, _ := json.Marshal(reply)
	return string(data)
}

func testFields() []detect.Field {
	return []detect.Field{
		{ID: "first_name", Label: "First Name", Category: detect.CategoryPersonal},
		{ID: "email", Label: "Email", Category: detect.CategoryContact},
	}
}

func testRecord() *profile.Record {
	return &profile.Record{
		Personal: profile.Personal{FirstName: "Jordan", LastName: "Reyes"},
		Contact:  profile.Contact{Email: "jordan@example.com"},
	}
}

func TestNewRequiresAPIKey(t *testing.T) {
	_, err := New("", nil)
	if err == nil {
		t.Fatal("expected error for empty api key")
	}
	var cfgErr *match.ConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("expected ConfigError, got %T: %v", err, err)
	}
}

func TestMatchFields(t *testing.T) {
	var gotAuth string
	var gotPath string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path

		content := `{"bindings": [{"field_id": "first_name", "value": "Jordan", "confidence": 92}]}`
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionReply(content, 120, 30)))
	}))
	defer server.Close()

	p, err := New("test-key", nil, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	bindings, err := p.MatchFields(context.Background(), testFields(), testRecord(), nil)
	if err != nil {
		t.Fatalf("MatchFields returned error: %v", err)
	}

	if gotAuth != "Bearer test-key" {
		t.Fatalf("expected bearer auth header, got %q", gotAuth)
	}
	if gotPath != "/chat/completions" {
		t.Fatalf("expected /chat/completions, got %q", gotPath)
	}
	if len(bindings) != 1 {
		t.Fatalf("expected 1 binding, got %d", len(bindings))
	}
	if bindings[0].Provider != ProviderID {
		t.Fatalf("expected provider %q, got %q", ProviderID, bindings[0].Provider)
	}

	tokens, cost := p.Usage()
	if tokens != 150 {
		t.Fatalf("expected 150 tokens recorded, got %d", tokens)
	}
	if cost <= 0 {
		t.Fatalf("expected positive cost, got %v", cost)
	}
}

func TestMatchFieldsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	p, err := New("test-key", nil, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	bindings, err := p.MatchFields(context.Background(), testFields(), testRecord(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var netErr *match.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("expected NetworkError, got %T: %v", err, err)
	}
	if netErr.Status != http.StatusTooManyRequests {
		t.Fatalf("expected status 429, got %d", netErr.Status)
	}
	if len(bindings) != 0 {
		t.Fatalf("expected zero bindings on failure, got %+v", bindings)
	}
}

func TestMatchFieldsMalformedReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionReply("I could not find anything useful.", 10, 10)))
	}))
	defer server.Close()

	p, err := New("test-key", nil, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	bindings, err := p.MatchFields(context.Background(), testFields(), testRecord(), nil)
	if err == nil {
		t.Fatal("expected error")
	}
	var respErr *match.ResponseError
	if !errors.As(err, &respErr) {
		t.Fatalf("expected ResponseError, got %T: %v", err, err)
	}
	if len(bindings) != 0 {
		t.Fatalf("expected zero bindings on malformed reply, got %+v", bindings)
	}
}

func TestGenerateValue(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		content := `{"value": "Six years of backend work.", "confidence": 80}`
		w.Write([]byte(completionReply(content, 200, 40)))
	}))
	defer server.Close()

	p, err := New("test-key", nil, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	field := detect.Field{ID: "about", Label: "Tell us about yourself"}
	generated, err := p.GenerateValue(context.Background(), field, testRecord(), nil)
	if err != nil {
		t.Fatalf("GenerateValue returned error: %v", err)
	}
	if generated.Value != "Six years of backend work." {
		t.Fatalf("unexpected value %q", generated.Value)
	}
	if generated.TokensUsed != 240 {
		t.Fatalf("expected 240 tokens, got %d", generated.TokensUsed)
	}
	if generated.Cost <= 0 {
		t.Fatalf("expected positive cost, got %v", generated.Cost)
	}
}

func TestTestConnection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(completionReply("ok", 5, 1)))
	}))
	defer server.Close()

	p, err := New("test-key", nil, WithBaseURL(server.URL))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	ok, err := p.TestConnection(context.Background())
	if err != nil {
		t.Fatalf("TestConnection returned error: %v", err)
	}
	if !ok {
		t.Fatal("expected successful probe")
	}

	tokens, cost := p.Usage()
	if tokens != 0 || cost != 0 {
		t.Fatalf("probe must not touch usage accounting, got tokens=%d cost=%v", tokens, cost)
	}
}
