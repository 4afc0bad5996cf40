package detect

import (
	"testing"

	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom/domtest"
)

func extractFrom(els ...*domtest.FakeElement) []Field {
	fields, _ := newExtractor().extract(domtest.NewForm("Application", els...))
	return fields
}

func fieldByID(t *testing.T, fields []Field, id string) *Field {
	t.Helper()
	for i := range fields {
		if fields[i].ID == id {
			return &fields[i]
		}
	}
	t.Fatalf("no field with id %q in %+v", id, fields)
	return nil
}

func TestExtractSkipsNonInteractive(t *testing.T) {
	fields := extractFrom(
		domtest.NewInput("name", "name", "text"),
		domtest.NewInput("tok", "tok", "hidden"),
		domtest.NewInput("go", "go", "submit"),
		domtest.NewInput("btn", "btn", "button"),
		domtest.NewInput("clear", "clear", "reset"),
	)
	if len(fields) != 1 {
		t.Fatalf("expected only the text input extracted, got %+v", fields)
	}
}

func TestExtractAssignsStableUniqueIDs(t *testing.T) {
	withID := domtest.NewInput("email", "contact_email", "email")
	nameOnly := domtest.NewInput("", "phone", "tel")
	anonymous := domtest.NewInput("", "", "text")
	duplicate := domtest.NewInput("email", "other", "text")

	fields := extractFrom(withID, nameOnly, anonymous, duplicate)
	if len(fields) != 4 {
		t.Fatalf("expected 4 fields, got %d", len(fields))
	}

	ids := map[string]bool{}
	for _, f := range fields {
		if ids[f.ID] {
			t.Fatalf("duplicate field id %q", f.ID)
		}
		ids[f.ID] = true
	}

	for _, want := range []string{"email", "phone", "field_1", "email_2"} {
		if !ids[want] {
			t.Fatalf("expected id %q among %v", want, ids)
		}
	}
}

func TestLabelInferenceOrder(t *testing.T) {
	direct := domtest.NewInput("a", "a", "text")
	direct.Label = "First Name *"
	direct.AncestorLabel = "should lose"

	wrapped := domtest.NewInput("b", "b", "text")
	wrapped.AncestorLabel = "Phone 555-0100"
	wrapped.CurrentValue = "555-0100"

	preceding := domtest.NewInput("c", "c", "text")
	preceding.Preceding = "Email address:"

	container := domtest.NewInput("d", "d", "text")
	container.Parent = "Expected salary"

	placeholder := domtest.NewInput("e", "e", "text")
	placeholder.PlaceholderText = "City of residence"

	nameFallback := domtest.NewInput("", "last_name", "text")

	fields := extractFrom(direct, wrapped, preceding, container, placeholder, nameFallback)

	tests := []struct {
		id   string
		want string
	}{
		{"a", "First Name"},
		{"b", "Phone"},
		{"c", "Email address"},
		{"d", "Expected salary"},
		{"e", "City of residence"},
		{"last_name", "last_name"},
	}
	for _, tt := range tests {
		if got := fieldByID(t, fields, tt.id).Label; got != tt.want {
			t.Fatalf("field %s: expected label %q, got %q", tt.id, tt.want, got)
		}
	}
}

func TestLabelInferenceLengthLimits(t *testing.T) {
	long := domtest.NewInput("a", "a", "text")
	long.Preceding = "This preceding paragraph talks at length about the company culture and the role and everything else around it."
	long.PlaceholderText = "Short label"

	wordy := domtest.NewInput("b", "b", "text")
	wordy.Parent = "a container with far too many words to be a plausible label"
	wordy.PlaceholderText = "Also short"

	fields := extractFrom(long, wordy)
	if got := fieldByID(t, fields, "a").Label; got != "Short label" {
		t.Fatalf("expected over-long preceding text rejected, got %q", got)
	}
	if got := fieldByID(t, fields, "b").Label; got != "Also short" {
		t.Fatalf("expected wordy container text rejected, got %q", got)
	}
}

func TestExtractOrdersByPriority(t *testing.T) {
	color := domtest.NewInput("color", "color", "text")
	color.Label = "Favorite color"
	email := domtest.NewInput("email", "email", "email")
	email.Label = "Email"
	first := domtest.NewInput("first", "first_name", "text")
	first.Label = "First Name"
	school := domtest.NewInput("school", "school", "text")
	school.Label = "School"
	requiredEmail := domtest.NewInput("email2", "email2", "email")
	requiredEmail.Label = "Backup Email"
	requiredEmail.IsRequired = true

	fields := extractFrom(color, email, first, school, requiredEmail)

	var ids []string
	for _, f := range fields {
		ids = append(ids, f.ID)
	}

	want := []string{"first", "email2", "email", "school", "color"}
	for i := range want {
		if ids[i] != want[i] {
			t.Fatalf("priority order mismatch: got %v, want %v", ids, want)
		}
	}
}

func TestExtractOrderingIsStableAcrossPasses(t *testing.T) {
	els := []*domtest.FakeElement{}
	for _, id := range []string{"a", "b", "c", "d"} {
		el := domtest.NewInput(id, id, "text")
		el.Label = "Misc " + id
		els = append(els, el)
	}

	first := extractFrom(els...)
	for pass := 0; pass < 5; pass++ {
		again := extractFrom(els...)
		for i := range first {
			if again[i].ID != first[i].ID {
				t.Fatalf("pass %d: order changed at %d: %q vs %q", pass, i, again[i].ID, first[i].ID)
			}
		}
	}
}

func TestFieldMetadata(t *testing.T) {
	el := domtest.NewInput("email", "email", "email")
	el.Label = "Work Email"
	el.IsRequired = true
	el.PlaceholderText = "you@company.com"
	el.CurrentValue = "old@company.com"

	fields := extractFrom(el)
	f := fieldByID(t, fields, "email")

	if f.Kind != dom.KindEmail {
		t.Fatalf("expected email kind, got %q", f.Kind)
	}
	if f.Category != CategoryContact {
		t.Fatalf("expected contact category, got %q", f.Category)
	}
	if f.Priority != 100 {
		t.Fatalf("expected priority 90+10, got %d", f.Priority)
	}
	if !f.Required {
		t.Fatal("expected required flag carried")
	}
	if f.CurrentValue != "old@company.com" {
		t.Fatalf("expected current value captured, got %q", f.CurrentValue)
	}
}
