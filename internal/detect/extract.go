package detect

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
)

const (
	maxPrecedingTextLen    = 100
	maxContainerLabelWords = 5
)

// Field is the normalized descriptor of one interactive input. Descriptors
// are owned by the detection pass that created them and are recomputed from
// scratch on every re-scan.
type Field struct {
	ID           string            `json:"id"`
	Label        string            `json:"label"`
	Name         string            `json:"name"`
	Identifier   string            `json:"identifier"`
	Kind         dom.Kind          `json:"kind"`
	Placeholder  string            `json:"placeholder,omitempty"`
	CurrentValue string            `json:"current_value,omitempty"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	Category     Category          `json:"category"`
	Priority     int               `json:"priority"`
	Required     bool              `json:"required"`
}

// SearchText concatenates the texts categorization and matching run against.
func (f *Field) SearchText() string {
	return strings.ToLower(strings.Join([]string{f.Label, f.Name, f.Identifier, f.Placeholder}, " "))
}

// capturedAttrs are the markup attributes carried on descriptors for
// downstream consumers (value constraints, framework markers).
var capturedAttrs = []string{"maxlength", "pattern", "autocomplete", "class"}

func captureAttrs(el dom.Element) map[string]string {
	var attrs map[string]string
	for _, name := range capturedAttrs {
		if v := el.Attr(name); v != "" {
			if attrs == nil {
				attrs = make(map[string]string)
			}
			attrs[name] = v
		}
	}
	return attrs
}

// extractor builds field descriptors for one container, keeping ids unique
// within the pass.
type extractor struct {
	used map[string]bool
	seq  int
}

func newExtractor() *extractor {
	return &extractor{used: map[string]bool{}}
}

// extract returns descriptors for the container's interactive descendants in
// priority order, plus the element behind each descriptor id.
func (x *extractor) extract(c dom.Container) ([]Field, map[string]dom.Element) {
	fields := make([]Field, 0)
	elements := make(map[string]dom.Element)

	for _, el := range c.Elements() {
		kind := el.Kind()
		if dom.NonInteractive(kind) {
			continue
		}

		id := x.assignID(el)
		f := Field{
			ID:           id,
			Label:        inferLabel(el),
			Name:         el.Name(),
			Identifier:   el.ID(),
			Kind:         kind,
			Placeholder:  el.Placeholder(),
			CurrentValue: el.Value(),
			Attributes:   captureAttrs(el),
			Required:     el.Required(),
		}
		f.Category = Categorize(f.SearchText())
		f.Priority = PriorityFor(f.Category, f.Required)

		fields = append(fields, f)
		elements[id] = el
	}

	// Priority descending; document order breaks ties, so re-scans of an
	// unchanged page produce identical ordering.
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Priority > fields[j].Priority
	})

	return fields, elements
}

func (x *extractor) assignID(el dom.Element) string {
	base := el.ID()
	if base == "" {
		base = el.Name()
	}
	if base == "" {
		x.seq++
		base = fmt.Sprintf("field_%d", x.seq)
	}

	id := base
	for n := 2; x.used[id]; n++ {
		id = fmt.Sprintf("%s_%d", base, n)
	}
	x.used[id] = true
	return id
}

// inferLabel resolves a human label for the element. Strategies are tried in
// order; the first non-empty result wins.
func inferLabel(el dom.Element) string {
	if l := cleanLabel(el.LabelText()); l != "" {
		return l
	}

	if l := cleanLabel(stripValue(el.AncestorLabelText(), el.Value())); l != "" {
		return l
	}

	if l := cleanLabel(el.PrecedingText()); l != "" && len(l) <= maxPrecedingTextLen {
		return l
	}

	if l := cleanLabel(stripValue(el.ContainerText(), el.Value())); l != "" {
		if len(strings.Fields(l)) <= maxContainerLabelWords {
			return l
		}
	}

	if p := strings.TrimSpace(el.Placeholder()); p != "" {
		return p
	}
	if n := el.Name(); n != "" {
		return n
	}
	return el.ID()
}

func stripValue(text, value string) string {
	if value == "" {
		return text
	}
	return strings.ReplaceAll(text, value, "")
}

// cleanLabel collapses whitespace and drops trailing label decorations.
func cleanLabel(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	s = strings.TrimRight(s, " *:")
	return strings.TrimSpace(s)
}
