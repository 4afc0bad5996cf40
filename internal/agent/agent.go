// Package agent ties detection, matching and fill into the single facade the
// command layer drives.
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"github.com/sanketmuchhala/ApplicationAgent/internal/fill"
	"github.com/sanketmuchhala/ApplicationAgent/internal/match"
	"github.com/sanketmuchhala/ApplicationAgent/internal/profile"
	"go.uber.org/zap"
)

// Agent owns one document and the detection state computed from it. All
// methods are safe for concurrent use; fill passes are serialized per form.
type Agent struct {
	doc        dom.Document
	classifier *detect.Classifier
	provider   match.Provider
	rec        *profile.Record
	executor   *fill.Executor
	logger     *zap.Logger

	mu        sync.Mutex
	result    *detect.Result
	filling   map[string]bool
	scheduler *detect.Scheduler
}

// Option configures an Agent.
type Option func(*Agent)

// WithExecutor replaces the default fill executor.
func WithExecutor(e *fill.Executor) Option {
	return func(a *Agent) {
		if e != nil {
			a.executor = e
		}
	}
}

// WithRescanInterval starts a mutation scheduler with the given debounce
// window. Without this option mutations re-scan only on explicit Scan calls.
func WithRescanInterval(interval time.Duration) Option {
	return func(a *Agent) {
		a.scheduler = detect.NewScheduler(interval, func() { a.Scan() }, a.logger)
	}
}

// New creates an agent for one document.
func New(doc dom.Document, provider match.Provider, rec *profile.Record, logger *zap.Logger, opts ...Option) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &Agent{
		doc:        doc,
		classifier: detect.NewClassifier(logger),
		provider:   provider,
		rec:        rec,
		executor:   fill.NewExecutor(logger),
		logger:     logger,
		filling:    map[string]bool{},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Scan runs a full detection pass and replaces the cached result. Bindings
// and form ids from earlier passes are invalid afterwards.
func (a *Agent) Scan() *detect.Result {
	result := a.classifier.Scan(a.doc)

	a.mu.Lock()
	a.result = result
	a.mu.Unlock()

	a.logger.Info("detection pass complete",
		zap.Int("forms", len(result.Forms)),
		zap.Int("fields", result.TotalFields()),
		zap.Int("context_confidence", result.ContextConfidence),
	)

	return result
}

// Result returns the cached detection result, scanning first if none exists.
func (a *Agent) Result() *detect.Result {
	a.mu.Lock()
	cached := a.result
	a.mu.Unlock()

	if cached != nil {
		return cached
	}
	return a.Scan()
}

// NotifyMutation reports a structural document change. With a scheduler
// configured the re-scan is debounced; otherwise the call is a no-op.
func (a *Agent) NotifyMutation() {
	a.mu.Lock()
	s := a.scheduler
	a.mu.Unlock()

	if s != nil {
		s.NotifyMutation()
	}
}

// Match asks the configured provider for bindings covering one form's
// fields.
func (a *Agent) Match(ctx context.Context, formID string, jobContext map[string]string) ([]match.Binding, error) {
	form, err := a.form(formID)
	if err != nil {
		return nil, err
	}
	return a.provider.MatchFields(ctx, form.Fields, a.rec, jobContext)
}

// Generate synthesizes a free-text answer for one field of a form.
func (a *Agent) Generate(ctx context.Context, formID, fieldID string, jobContext map[string]string) (*match.Generated, error) {
	form, err := a.form(formID)
	if err != nil {
		return nil, err
	}
	field, ok := form.Field(fieldID)
	if !ok {
		return nil, fmt.Errorf("form %s has no field %s", formID, fieldID)
	}
	return a.provider.GenerateValue(ctx, *field, a.rec, jobContext)
}

// Fill writes bindings into one form. At most one fill pass runs per form
// at a time; a second call while one is in flight fails immediately.
func (a *Agent) Fill(ctx context.Context, formID string, bindings []match.Binding) (*fill.Result, error) {
	form, err := a.form(formID)
	if err != nil {
		return nil, err
	}

	a.mu.Lock()
	if a.filling[formID] {
		a.mu.Unlock()
		return nil, fmt.Errorf("fill already in progress for form %s", formID)
	}
	a.filling[formID] = true
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.filling, formID)
		a.mu.Unlock()
	}()

	return a.executor.Fill(ctx, form, bindings)
}

// TestProvider probes the configured matching provider.
func (a *Agent) TestProvider(ctx context.Context) (bool, error) {
	return a.provider.TestConnection(ctx)
}

// Provider exposes the configured provider id.
func (a *Agent) Provider() string {
	return a.provider.ID()
}

// Stop cancels any pending debounced re-scan.
func (a *Agent) Stop() {
	a.mu.Lock()
	s := a.scheduler
	a.mu.Unlock()

	if s != nil {
		s.Stop()
	}
}

func (a *Agent) form(formID string) (*detect.Form, error) {
	result := a.Result()
	for _, f := range result.Forms {
		if f.ID == formID {
			return f, nil
		}
	}
	return nil, fmt.Errorf("no form with id %s in current scan", formID)
}
