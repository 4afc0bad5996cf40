package fill

import (
	"context"
	"strings"
	"testing"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom/domtest"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match"
)

func scanOneForm(t *testing.T, els ...*domtest.FakeElement) *detect.Form {
	t.Helper()

	doc := &domtest.FakeDocument{
		PageURL:  "https://boards.greenhouse.io/acme/jobs/123",
		PageText: "Apply for this position",
		FormList: []*domtest.FakeContainer{domtest.NewForm("Application form", els...)},
	}

	result := detect.NewClassifier(nil).Scan(doc)
	if len(result.Forms) != 1 {
		t.Fatalf("expected one form, got %d", len(result.Forms))
	}
	return result.Forms[0]
}

func binding(fieldID, value string) match.Binding {
	return match.Binding{
		FieldID:    fieldID,
		Value:      value,
		Confidence: 90,
		Provider:   match.HeuristicID,
	}
}

func TestFillTextField(t *testing.T) {
	el := domtest.NewInput("first_name", "first_name", "text")
	el.Label = "First Name"
	form := scanOneForm(t, el)

	result, err := NewExecutor(nil).Fill(context.Background(), form, []match.Binding{
		binding("first_name", "Jordan"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	if result.FilledCount != 1 {
		t.Fatalf("expected 1 filled, got %d", result.FilledCount)
	}
	if el.CurrentValue != "Jordan" {
		t.Fatalf("expected value written, got %q", el.CurrentValue)
	}
	if el.EventNames() != "input,change,blur" {
		t.Fatalf("expected input,change,blur events, got %q", el.EventNames())
	}
}

func TestFillInvisibleFieldIsSkipped(t *testing.T) {
	visible := domtest.NewInput("email", "email", "email")
	visible.Label = "Email"
	hidden := domtest.NewInput("phone", "phone", "tel")
	hidden.Label = "Phone"
	hidden.IsVisible = false

	form := scanOneForm(t, visible, hidden)

	var states []State
	exec := NewExecutor(nil, WithProgress(func(fieldID string, state State) {
		if fieldID == "phone" {
			states = append(states, state)
		}
	}))

	result, err := exec.Fill(context.Background(), form, []match.Binding{
		binding("email", "a@b.c"),
		binding("phone", "+1 512 555 0100"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	if result.FilledCount != 1 {
		t.Fatalf("expected 1 filled, got %d", result.FilledCount)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("invisible field must not produce an error, got %+v", result.Errors)
	}
	if hidden.CurrentValue != "" {
		t.Fatalf("invisible field must not be written, got %q", hidden.CurrentValue)
	}
	if len(states) == 0 || states[len(states)-1] != StateSkipped {
		t.Fatalf("expected final state skipped, got %v", states)
	}
}

func TestFillSkippedFieldsExcludedFromCounts(t *testing.T) {
	var els []*domtest.FakeElement
	var bindings []match.Binding
	for _, id := range []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"} {
		el := domtest.NewInput(id, id, "text")
		el.Label = "Field " + id
		if id == "b" || id == "e" || id == "h" {
			el.IsVisible = false
		}
		els = append(els, el)
		bindings = append(bindings, binding(id, "value-"+id))
	}

	form := scanOneForm(t, els...)

	result, err := NewExecutor(nil).Fill(context.Background(), form, bindings)
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	if result.FilledCount != 7 {
		t.Fatalf("expected 7 filled, got %d", result.FilledCount)
	}
	if result.TotalFields != 10 {
		t.Fatalf("expected 10 total, got %d", result.TotalFields)
	}
	if len(result.Errors) != 0 {
		t.Fatalf("expected no errors, got %+v", result.Errors)
	}
}

func TestFillCheckbox(t *testing.T) {
	tests := []struct {
		name        string
		value       string
		alreadySet  bool
		wantChecked bool
	}{
		{"yes checks", "yes", false, true},
		{"true checks", "true", false, true},
		{"numeric one checks", "1", false, true},
		{"no unchecks", "no", true, false},
		{"idempotent when already checked", "checked", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := domtest.NewInput("agree", "agree", "checkbox")
			el.Label = "I agree to the terms"
			el.IsChecked = tt.alreadySet
			form := scanOneForm(t, el)

			result, err := NewExecutor(nil).Fill(context.Background(), form, []match.Binding{
				binding("agree", tt.value),
			})
			if err != nil {
				t.Fatalf("Fill returned error: %v", err)
			}
			if result.FilledCount != 1 {
				t.Fatalf("checkbox fill must succeed, got %+v", result)
			}
			if el.IsChecked != tt.wantChecked {
				t.Fatalf("expected checked=%v, got %v", tt.wantChecked, el.IsChecked)
			}
			if tt.alreadySet == tt.wantChecked && len(el.Events) != 0 {
				t.Fatalf("no-op write must not dispatch events, got %q", el.EventNames())
			}
		})
	}
}

func TestFillSelect(t *testing.T) {
	options := []dom.Option{
		{Value: "", Text: "Select a country"},
		{Value: "us", Text: "United States"},
		{Value: "ca", Text: "Canada"},
	}

	tests := []struct {
		name      string
		value     string
		wantValue string
		wantErr   bool
	}{
		{"exact text match", "United States", "us", false},
		{"exact value match case-insensitive", "CA", "ca", false},
		{"containment match", "States", "us", false},
		{"reverse containment match", "Canada (CA)", "ca", false},
		{"no match is an error", "Germany", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			el := domtest.NewTag("country", "country", "select")
			el.Label = "Country"
			el.Opts = options
			form := scanOneForm(t, el)

			result, err := NewExecutor(nil).Fill(context.Background(), form, []match.Binding{
				binding("country", tt.value),
			})
			if err != nil {
				t.Fatalf("Fill returned error: %v", err)
			}

			if tt.wantErr {
				if len(result.Errors) != 1 {
					t.Fatalf("expected one field error, got %+v", result)
				}
				return
			}
			if result.FilledCount != 1 {
				t.Fatalf("expected fill success, got %+v", result)
			}
			if el.CurrentValue != tt.wantValue {
				t.Fatalf("expected option %q selected, got %q", tt.wantValue, el.CurrentValue)
			}
		})
	}
}

func TestFillRadioGroup(t *testing.T) {
	yes := domtest.NewInput("auth_yes", "authorized", "radio")
	yes.CurrentValue = "yes"
	yes.Label = "Yes"
	no := domtest.NewInput("auth_no", "authorized", "radio")
	no.CurrentValue = "no"
	no.Label = "No"

	form := scanOneForm(t, yes, no)

	result, err := NewExecutor(nil).Fill(context.Background(), form, []match.Binding{
		binding("auth_yes", "yes"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	if result.FilledCount != 1 {
		t.Fatalf("expected fill success, got %+v", result)
	}
	if !yes.IsChecked {
		t.Fatal("expected yes option checked")
	}
	if no.IsChecked {
		t.Fatal("expected no option untouched")
	}
}

func TestFillRadioSubstringFallback(t *testing.T) {
	a := domtest.NewInput("visa_a", "visa", "radio")
	a.CurrentValue = "citizen_or_permanent"
	a.Label = "US Citizen or Permanent Resident"
	b := domtest.NewInput("visa_b", "visa", "radio")
	b.CurrentValue = "needs_sponsorship"
	b.Label = "Requires visa sponsorship"

	form := scanOneForm(t, a, b)

	result, err := NewExecutor(nil).Fill(context.Background(), form, []match.Binding{
		binding("visa_a", "Citizen"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}
	if result.FilledCount != 1 {
		t.Fatalf("expected fill success, got %+v", result)
	}
	if !a.IsChecked {
		t.Fatal("expected substring match to check the citizen option")
	}
}

func TestFillFileInputIsSkipped(t *testing.T) {
	resume := domtest.NewInput("resume", "resume", "file")
	resume.Label = "Upload resume"
	form := scanOneForm(t, resume)

	result, err := NewExecutor(nil).Fill(context.Background(), form, []match.Binding{
		binding("resume", "/tmp/resume.pdf"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	if result.FilledCount != 0 || len(result.Errors) != 0 {
		t.Fatalf("file input must be skipped, got %+v", result)
	}
	if resume.CurrentValue != "" {
		t.Fatalf("file input must not be written, got %q", resume.CurrentValue)
	}
}

func TestFillFrameworkInputTypesPerCharacter(t *testing.T) {
	el := domtest.NewInput("city", "city", "text")
	el.Label = "City"
	el.Attrs["class"] = "react-input form-control"
	form := scanOneForm(t, el)

	exec := NewExecutor(nil, WithTypeDelay(1))
	result, err := exec.Fill(context.Background(), form, []match.Binding{
		binding("city", "Austin"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}
	if result.FilledCount != 1 {
		t.Fatalf("expected fill success, got %+v", result)
	}
	if el.CurrentValue != "Austin" {
		t.Fatalf("expected full value typed, got %q", el.CurrentValue)
	}

	// One clear plus one write per character.
	if len(el.SetValues) != len("Austin")+1 {
		t.Fatalf("expected %d writes, got %d: %v", len("Austin")+1, len(el.SetValues), el.SetValues)
	}
	if got := strings.Count(el.EventNames(), "input"); got != len("Austin") {
		t.Fatalf("expected %d input events, got %d", len("Austin"), got)
	}
}

func TestFillPreviewTouchesNothing(t *testing.T) {
	el := domtest.NewInput("email", "email", "email")
	el.Label = "Email"
	form := scanOneForm(t, el)

	exec := NewExecutor(nil, WithPreview(true))
	result, err := exec.Fill(context.Background(), form, []match.Binding{
		binding("email", "a@b.c"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	if result.FilledCount != 1 {
		t.Fatalf("preview still walks the state machine, got %+v", result)
	}
	if el.CurrentValue != "" || len(el.Events) != 0 {
		t.Fatalf("preview must not touch elements, value=%q events=%q", el.CurrentValue, el.EventNames())
	}
}

func TestFillErrorDoesNotAbortPass(t *testing.T) {
	bad := domtest.NewTag("country", "country", "select")
	bad.Label = "Country"
	bad.Opts = []dom.Option{{Value: "us", Text: "United States"}}
	good := domtest.NewInput("email", "email", "email")
	good.Label = "Email"

	form := scanOneForm(t, bad, good)

	result, err := NewExecutor(nil).Fill(context.Background(), form, []match.Binding{
		binding("country", "Atlantis"),
		binding("email", "a@b.c"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}

	if result.FilledCount != 1 {
		t.Fatalf("expected the good field filled, got %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].FieldID != "country" {
		t.Fatalf("expected one error for country, got %+v", result.Errors)
	}
	if good.CurrentValue != "a@b.c" {
		t.Fatalf("expected later field still filled, got %q", good.CurrentValue)
	}
}

func TestFillUnknownFieldIsError(t *testing.T) {
	el := domtest.NewInput("email", "email", "email")
	el.Label = "Email"
	form := scanOneForm(t, el)

	result, err := NewExecutor(nil).Fill(context.Background(), form, []match.Binding{
		binding("missing", "value"),
	})
	if err != nil {
		t.Fatalf("Fill returned error: %v", err)
	}
	if len(result.Errors) != 1 {
		t.Fatalf("expected one error, got %+v", result)
	}
}

func TestFillCancelledContextStopsBetweenFields(t *testing.T) {
	a := domtest.NewInput("a", "a", "text")
	a.Label = "Field a"
	b := domtest.NewInput("b", "b", "text")
	b.Label = "Field b"
	form := scanOneForm(t, a, b)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := NewExecutor(nil).Fill(ctx, form, []match.Binding{
		binding("a", "one"),
		binding("b", "two"),
	})
	if err == nil {
		t.Fatal("expected context error")
	}
	if result.FilledCount != 0 {
		t.Fatalf("expected nothing filled after cancellation, got %+v", result)
	}
}
