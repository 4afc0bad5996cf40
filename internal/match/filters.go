package match

import (
	"fmt"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"

	"go.uber.org/zap"
)

// Filter represents a single filtering step applied to bindings before a fill
// pass. Filters drop bindings; they never rewrite values or confidences.
type Filter interface {
	Name() string
	Apply(bindings []Binding) ([]Binding, Step, error)
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int
	Dropped int
	Left    int
}

// RunFilters executes the supplied filters sequentially and returns the
// surviving bindings.
func RunFilters(logger *zap.Logger, steps []Filter, bindings []Binding) ([]Binding, error) {
	for _, step := range steps {
		next, info, err := step.Apply(bindings)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		if logger != nil && info.Dropped > 0 {
			logger.Info("filter step",
				zap.String("name", step.Name()),
				zap.Int("initial", info.Initial),
				zap.Int("dropped", info.Dropped),
				zap.Int("left", info.Left),
			)
		}

		bindings = next
	}

	return bindings, nil
}

type minConfidenceFilter struct {
	threshold float64
}

// NewMinConfidence creates a filter that removes bindings scored below the
// given threshold. A non-positive threshold keeps everything.
func NewMinConfidence(threshold float64) Filter {
	return &minConfidenceFilter{threshold: threshold}
}

func (f *minConfidenceFilter) Name() string { return "min_confidence" }

func (f *minConfidenceFilter) Apply(bindings []Binding) ([]Binding, Step, error) {
	initial := len(bindings)
	if f.threshold <= 0 {
		return bindings, Step{Initial: initial, Left: initial}, nil
	}
	if f.threshold > 100 {
		return nil, Step{}, fmt.Errorf("threshold %.2f is out of the [0,100] range", f.threshold)
	}

	kept := bindings[:0:0]
	for _, b := range bindings {
		if b.Confidence >= f.threshold {
			kept = append(kept, b)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type excludeCategoriesFilter struct {
	excluded map[detect.Category]bool
}

// NewExcludedCategories creates a filter that removes bindings for the
// configured field categories.
func NewExcludedCategories(categories []string) Filter {
	excluded := make(map[detect.Category]bool, len(categories))
	for _, c := range categories {
		excluded[detect.Category(c)] = true
	}

	return &excludeCategoriesFilter{excluded: excluded}
}

func (f *excludeCategoriesFilter) Name() string { return "excluded_categories" }

func (f *excludeCategoriesFilter) Apply(bindings []Binding) ([]Binding, Step, error) {
	initial := len(bindings)
	if len(f.excluded) == 0 {
		return bindings, Step{Initial: initial, Left: initial}, nil
	}

	kept := bindings[:0:0]
	for _, b := range bindings {
		if !f.excluded[b.Category] {
			kept = append(kept, b)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}

type prefilledFilter struct {
	fields []detect.Field
}

// NewSkipPrefilled creates a filter that removes bindings whose target field
// already holds a value, so a rerun never overwrites earlier input.
func NewSkipPrefilled(fields []detect.Field) Filter {
	return &prefilledFilter{fields: fields}
}

func (f *prefilledFilter) Name() string { return "skip_prefilled" }

func (f *prefilledFilter) Apply(bindings []Binding) ([]Binding, Step, error) {
	initial := len(bindings)

	prefilled := make(map[string]bool, len(f.fields))
	for _, fd := range f.fields {
		// Checkboxes and radios carry a constant value attribute, and a
		// select reports its default option; neither is user input.
		if fd.Kind == dom.KindCheckbox || fd.Kind == dom.KindRadio || fd.Kind == dom.KindSelect {
			continue
		}
		if fd.CurrentValue != "" {
			prefilled[fd.ID] = true
		}
	}
	if len(prefilled) == 0 {
		return bindings, Step{Initial: initial, Left: initial}, nil
	}

	kept := bindings[:0:0]
	for _, b := range bindings {
		if !prefilled[b.FieldID] {
			kept = append(kept, b)
		}
	}

	return kept, Step{Initial: initial, Dropped: initial - len(kept), Left: len(kept)}, nil
}
