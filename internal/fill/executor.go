// Package fill writes matched values into form elements. Execution is
// sequential in document priority order; each field moves through an
// explicit state machine and failures are isolated per field.
package fill

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match"
	"go.uber.org/zap"
)

// State tracks one field through a fill pass.
type State string

const (
	StatePending State = "pending"
	StateFilling State = "filling"
	StateSuccess State = "success"
	StateError   State = "error"
	StateSkipped State = "skipped"
)

// FieldError records one per-field failure. Failures never abort the pass.
type FieldError struct {
	FieldID string `json:"field_id"`
	Message string `json:"message"`
}

// Result summarizes a completed fill pass. FilledCount counts successes
// only; skipped fields appear in neither FilledCount nor Errors.
type Result struct {
	FilledCount int           `json:"filled_count"`
	TotalFields int           `json:"total_fields"`
	Errors      []FieldError  `json:"errors,omitempty"`
	Duration    time.Duration `json:"duration"`
}

// Success reports whether the pass wrote at least one field.
func (r *Result) Success() bool {
	return r.FilledCount > 0
}

// Progress observes per-field state transitions during a pass.
type Progress func(fieldID string, state State)

// truthy values accepted for checkbox bindings.
var checkboxTruthy = map[string]bool{
	"true":    true,
	"yes":     true,
	"1":       true,
	"on":      true,
	"checked": true,
}

// Framework markers that indicate value writes will be ignored unless the
// page observes keystroke-level input.
var (
	frameworkClassMarkers = []string{"react", "ng-", "vue", "ember", "Mui", "ant-"}
	frameworkAttrMarkers  = []string{"data-reactid", "ng-model", "v-model", "data-framework"}
)

// Executor writes bindings into a detected form.
type Executor struct {
	typeDelay time.Duration
	preview   bool
	progress  Progress
	logger    *zap.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithTypeDelay sets the per-character delay used for framework-rendered
// inputs.
func WithTypeDelay(d time.Duration) ExecutorOption {
	return func(e *Executor) {
		if d > 0 {
			e.typeDelay = d
		}
	}
}

// WithPreview makes the executor walk the full state machine without
// touching any element.
func WithPreview(preview bool) ExecutorOption {
	return func(e *Executor) { e.preview = preview }
}

// WithProgress registers a per-field state observer.
func WithProgress(p Progress) ExecutorOption {
	return func(e *Executor) { e.progress = p }
}

const defaultTypeDelay = 30 * time.Millisecond

// NewExecutor returns a fill executor.
func NewExecutor(logger *zap.Logger, opts ...ExecutorOption) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{typeDelay: defaultTypeDelay, logger: logger}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Fill writes the bindings into the form one field at a time, in the order
// the bindings are given. A cancelled context stops between fields; the
// field being written is finished first.
func (e *Executor) Fill(ctx context.Context, form *detect.Form, bindings []match.Binding) (*Result, error) {
	start := time.Now()
	result := &Result{TotalFields: len(bindings)}

	for i := range bindings {
		if err := ctx.Err(); err != nil {
			result.Duration = time.Since(start)
			return result, err
		}

		b := &bindings[i]
		e.report(b.FieldID, StatePending)

		state, err := e.fillOne(ctx, form, b)
		switch state {
		case StateSuccess:
			result.FilledCount++
		case StateError:
			msg := "fill failed"
			if err != nil {
				msg = err.Error()
			}
			result.Errors = append(result.Errors, FieldError{FieldID: b.FieldID, Message: msg})
			e.logger.Warn("field fill failed",
				zap.String("field_id", b.FieldID),
				zap.String("error", msg),
			)
		case StateSkipped:
			// Not counted as filled and not an error.
		}
		e.report(b.FieldID, state)
	}

	result.Duration = time.Since(start)
	e.logger.Info("fill pass complete",
		zap.Int("filled", result.FilledCount),
		zap.Int("total", result.TotalFields),
		zap.Int("errors", len(result.Errors)),
		zap.Duration("duration", result.Duration),
	)

	return result, nil
}

func (e *Executor) fillOne(ctx context.Context, form *detect.Form, b *match.Binding) (State, error) {
	el, ok := form.Element(b.FieldID)
	if !ok {
		return StateError, fmt.Errorf("field %s not present in form", b.FieldID)
	}

	if !el.Visible() {
		e.logger.Debug("skipping invisible field", zap.String("field_id", b.FieldID))
		return StateSkipped, nil
	}

	kind := el.Kind()
	if kind == dom.KindFile {
		// File inputs cannot be scripted; leave them to the user.
		return StateSkipped, nil
	}

	e.report(b.FieldID, StateFilling)
	if e.preview {
		return StateSuccess, nil
	}

	var err error
	switch kind {
	case dom.KindCheckbox:
		err = e.fillCheckbox(el, b.Value)
	case dom.KindRadio:
		err = e.fillRadio(form, el, b.Value)
	case dom.KindSelect:
		err = e.fillSelect(el, b.Value)
	default:
		err = e.fillText(ctx, el, b.Value)
	}
	if err != nil {
		return StateError, err
	}
	return StateSuccess, nil
}

// fillText clears and rewrites a text-like element, then dispatches the
// events page scripts listen for. Framework-rendered inputs are typed
// character by character instead of being assigned in one write.
func (e *Executor) fillText(ctx context.Context, el dom.Element, value string) error {
	if needsTyping(el) {
		return e.typeValue(ctx, el, value)
	}

	if err := el.SetValue(value); err != nil {
		return fmt.Errorf("set value: %w", err)
	}
	return dispatchAll(el, dom.EventInput, dom.EventChange, dom.EventBlur)
}

// fillCheckbox interprets the bound value as a desired checked state. The
// write is idempotent: a box already in the desired state is left alone.
func (e *Executor) fillCheckbox(el dom.Element, value string) error {
	want := checkboxTruthy[strings.ToLower(strings.TrimSpace(value))]
	if el.Checked() == want {
		return nil
	}
	if err := el.SetChecked(want); err != nil {
		return fmt.Errorf("set checked: %w", err)
	}
	return dispatchAll(el, dom.EventChange)
}

// fillRadio picks the member of the element's radio group whose value or
// inferred label matches, exact match first, then substring.
func (e *Executor) fillRadio(form *detect.Form, el dom.Element, value string) error {
	members := form.GroupMembers(el.Name())
	if len(members) == 0 {
		members = []dom.Element{el}
	}

	target := strings.ToLower(strings.TrimSpace(value))

	var pick dom.Element
	for _, m := range members {
		if strings.ToLower(strings.TrimSpace(m.Value())) == target ||
			strings.ToLower(strings.TrimSpace(m.LabelText())) == target {
			pick = m
			break
		}
	}
	if pick == nil {
		for _, m := range members {
			if strings.Contains(strings.ToLower(m.Value()), target) ||
				strings.Contains(strings.ToLower(m.LabelText()), target) {
				pick = m
				break
			}
		}
	}
	if pick == nil {
		return fmt.Errorf("no radio option matches %q", value)
	}

	if pick.Checked() {
		return nil
	}
	if err := pick.SetChecked(true); err != nil {
		return fmt.Errorf("check radio: %w", err)
	}
	return dispatchAll(pick, dom.EventChange)
}

// fillSelect resolves the bound value against the select's options: exact
// case-insensitive match on value or text first, then containment in either
// direction. No match is an error, not a best guess.
func (e *Executor) fillSelect(el dom.Element, value string) error {
	target := strings.ToLower(strings.TrimSpace(value))
	options := el.Options()

	var pick *dom.Option
	for i := range options {
		o := &options[i]
		if strings.ToLower(strings.TrimSpace(o.Value)) == target ||
			strings.ToLower(strings.TrimSpace(o.Text)) == target {
			pick = o
			break
		}
	}
	if pick == nil {
		for i := range options {
			o := &options[i]
			text := strings.ToLower(strings.TrimSpace(o.Text))
			if text == "" || target == "" {
				continue
			}
			if strings.Contains(text, target) || strings.Contains(target, text) {
				pick = o
				break
			}
		}
	}
	if pick == nil {
		return fmt.Errorf("no option matches %q", value)
	}

	if err := el.SelectValue(pick.Value); err != nil {
		return fmt.Errorf("select option: %w", err)
	}
	return dispatchAll(el, dom.EventChange)
}

func (e *Executor) report(fieldID string, state State) {
	if e.progress != nil {
		e.progress(fieldID, state)
	}
}

// needsTyping reports whether the element carries framework markers that
// make single-write assignment unreliable.
func needsTyping(el dom.Element) bool {
	class := el.Attr("class")
	for _, marker := range frameworkClassMarkers {
		if strings.Contains(class, marker) {
			return true
		}
	}
	for _, attr := range frameworkAttrMarkers {
		if el.Attr(attr) != "" {
			return true
		}
	}
	return false
}

func dispatchAll(el dom.Element, events ...dom.Event) error {
	for _, ev := range events {
		if err := el.Dispatch(ev); err != nil {
			return fmt.Errorf("dispatch %s: %w", ev, err)
		}
	}
	return nil
}
