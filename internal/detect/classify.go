package detect

import (
	"fmt"
	"strings"

	"github.com/sanketmuchhala/ApplicationAgent/internal/dom"
	"go.uber.org/zap"
)

// FormKind distinguishes native forms from framework-rendered groupings.
type FormKind string

const (
	FormNative    FormKind = "native"
	FormContainer FormKind = "container"
)

// Form is one qualifying container with its extracted fields and computed
// confidence of being a job-application form.
type Form struct {
	ID         string   `json:"id"`
	Kind       FormKind `json:"kind"`
	Confidence float64  `json:"confidence"`
	Fields     []Field  `json:"fields"`

	container dom.Container
	elements  map[string]dom.Element
}

// Element resolves a descriptor id to the live element captured at scan time.
func (f *Form) Element(fieldID string) (dom.Element, bool) {
	el, ok := f.elements[fieldID]
	return el, ok
}

// GroupMembers returns all elements of the form sharing a radio group name,
// in document order.
func (f *Form) GroupMembers(name string) []dom.Element {
	if name == "" || f.container == nil {
		return nil
	}
	var members []dom.Element
	for _, el := range f.container.Elements() {
		if el.Kind() == dom.KindRadio && el.Name() == name {
			members = append(members, el)
		}
	}
	return members
}

// Field returns the descriptor with the given id.
func (f *Form) Field(fieldID string) (*Field, bool) {
	for i := range f.Fields {
		if f.Fields[i].ID == fieldID {
			return &f.Fields[i], true
		}
	}
	return nil, false
}

// Result is the outcome of one detection pass. It is discarded wholesale and
// recomputed on re-scan; nothing is patched incrementally.
type Result struct {
	ContextConfidence int     `json:"context_confidence"`
	Forms             []*Form `json:"forms"`
}

// TotalFields sums extracted fields across detected forms.
func (r *Result) TotalFields() int {
	n := 0
	for _, f := range r.Forms {
		n += len(f.Fields)
	}
	return n
}

// BestConfidence returns the highest form confidence of the pass.
func (r *Result) BestConfidence() float64 {
	best := 0.0
	for _, f := range r.Forms {
		if f.Confidence > best {
			best = f.Confidence
		}
	}
	return best
}

const (
	atsURLScore           = 30
	contextKeywordScore   = 10
	contextKeywordCeiling = 20
	maxConfidence         = 100

	fieldKeywordScore   = 5
	sectionPhraseScore  = 10
	relevantFieldScore  = 3
	containerThreshold  = 15
	minInteractiveCount = 3
)

// atsHosts are substrings of known job-site and applicant-tracking-system
// URLs.
var atsHosts = []string{
	"greenhouse.io", "lever.co", "myworkdayjobs", "workday", "taleo",
	"icims", "ashbyhq", "smartrecruiters", "jobvite", "bamboohr",
	"breezy.hr", "workable", "recruitee", "linkedin.com/jobs",
	"indeed.com", "glassdoor", "/careers", "/jobs",
}

// contextKeywords hint that the page itself is a job-application context.
var contextKeywords = []string{
	"job application", "apply now", "apply for this", "careers",
	"employment", "candidate", "cover letter", "resume", "hiring",
	"position", "equal opportunity",
}

// fieldKeywords hint that a container collects applicant data.
var fieldKeywords = []string{
	"first name", "last name", "full name", "email", "phone", "resume",
	"cover letter", "linkedin", "experience", "education", "salary",
	"sponsorship", "address", "why do you want",
}

// sectionPhrases are headings of classic application form sections.
var sectionPhrases = []string{
	"personal information", "contact information", "applicant information",
	"personal details", "contact details",
}

var submitKeywords = []string{"submit", "apply"}

// groupMarkers qualify a non-form container as a candidate when found in its
// role, test-id or class attributes.
var (
	groupMarkerRoles = []string{"form", "group"}
	groupMarkerAttrs = []string{"data-testid", "data-test-id", "data-test"}
	groupMarkerClass = []string{"form", "application", "apply"}
)

// Classifier scores pages and containers and runs full detection passes.
type Classifier struct {
	logger *zap.Logger
}

// NewClassifier returns a Classifier logging through the provided logger.
func NewClassifier(logger *zap.Logger) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Classifier{logger: logger}
}

// ClassifyContext scores how likely the page is a job-application context.
// URL hits against known job sites add 30; each keyword found in title or
// body adds 10, with the keyword contribution saturating at 20. The result
// is capped at 100.
func (c *Classifier) ClassifyContext(pageURL, pageTitle, pageText string) int {
	conf := 0

	u := strings.ToLower(pageURL)
	for _, host := range atsHosts {
		if strings.Contains(u, host) {
			conf += atsURLScore
			break
		}
	}

	haystack := strings.ToLower(pageTitle + " " + pageText)
	kwTotal := 0
	for _, kw := range contextKeywords {
		if kwTotal >= contextKeywordCeiling {
			break
		}
		if strings.Contains(haystack, kw) {
			kwTotal += contextKeywordScore
		}
	}
	conf += kwTotal

	if conf > maxConfidence {
		conf = maxConfidence
	}
	return conf
}

// ScoreContainer decides whether a container qualifies as an application
// form and returns its raw keyword score. Containers with fewer than three
// interactive descendants never qualify.
func (c *Classifier) ScoreContainer(container dom.Container, fields []Field) (bool, int) {
	interactive := 0
	for _, el := range container.Elements() {
		if !dom.NonInteractive(el.Kind()) {
			interactive++
		}
	}
	if interactive < minInteractiveCount {
		return false, 0
	}

	text := strings.ToLower(container.Text())
	score := 0
	for _, kw := range fieldKeywords {
		if strings.Contains(text, kw) {
			score += fieldKeywordScore
		}
	}
	for _, phrase := range sectionPhrases {
		if strings.Contains(text, phrase) {
			score += sectionPhraseScore
		}
	}
	for i := range fields {
		if fields[i].Category != CategoryOther {
			score += relevantFieldScore
		}
	}

	return score >= containerThreshold, score
}

// Scan runs one full detection pass over the document: classify the page,
// qualify native forms and marker-discovered groupings, extract fields and
// aggregate per-form confidence.
func (c *Classifier) Scan(doc dom.Document) *Result {
	res := &Result{
		ContextConfidence: c.ClassifyContext(doc.URL(), doc.Title(), doc.Text()),
	}

	seq := 0
	claimed := map[string]bool{}
	consider := func(container dom.Container, kind FormKind) {
		x := newExtractor()
		fields, elements := x.extract(container)

		// Native forms qualify by existing; the keyword gate only filters
		// marker-discovered groupings.
		if kind == FormNative {
			if len(fields) == 0 {
				return
			}
		} else if ok, _ := c.ScoreContainer(container, fields); !ok {
			return
		}

		// A grouping wrapper inside an already-detected form (a Bootstrap
		// form-group, say) re-extracts the same inputs. Skip groups whose
		// fields are all claimed by an earlier form.
		if kind == FormContainer && allClaimed(claimed, fields) {
			c.logger.Debug("group overlaps an earlier form", zap.Int("fields", len(fields)))
			return
		}
		for i := range fields {
			claimed[fieldSignature(&fields[i])] = true
		}

		seq++
		form := &Form{
			ID:        fmt.Sprintf("form_%d", seq),
			Kind:      kind,
			Fields:    fields,
			container: container,
			elements:  elements,
		}
		form.Confidence = formConfidence(res.ContextConfidence, container, fields)
		res.Forms = append(res.Forms, form)

		c.logger.Debug("form qualified",
			zap.String("form_id", form.ID),
			zap.String("kind", string(kind)),
			zap.Float64("confidence", form.Confidence),
			zap.Int("fields", len(fields)),
		)
	}

	for _, f := range doc.Forms() {
		consider(f, FormNative)
	}
	for _, g := range doc.Groups() {
		if isCandidateGroup(g) {
			consider(g, FormContainer)
		}
	}

	c.logger.Debug("detection pass complete",
		zap.Int("context_confidence", res.ContextConfidence),
		zap.Int("forms", len(res.Forms)),
		zap.Int("total_fields", res.TotalFields()),
	)

	return res
}

// fieldSignature identifies an input across containers that wrap the same
// elements. Hosts hand out fresh wrappers per query, so pointer identity
// cannot tell two views of one input apart.
func fieldSignature(f *Field) string {
	return strings.Join([]string{string(f.Kind), f.Name, f.Identifier, f.Placeholder}, "\x00")
}

func allClaimed(claimed map[string]bool, fields []Field) bool {
	if len(fields) == 0 {
		return false
	}
	for i := range fields {
		if !claimed[fieldSignature(&fields[i])] {
			return false
		}
	}
	return true
}

// isCandidateGroup applies the structural/attribute heuristics that admit
// framework-rendered groupings without a native form wrapper.
func isCandidateGroup(g dom.Container) bool {
	role := strings.ToLower(g.Attr("role"))
	for _, r := range groupMarkerRoles {
		if role == r {
			return true
		}
	}

	for _, attr := range groupMarkerAttrs {
		v := strings.ToLower(g.Attr(attr))
		if v == "" {
			continue
		}
		if strings.Contains(v, "form") || strings.Contains(v, "application") {
			return true
		}
	}

	class := strings.ToLower(g.Attr("class"))
	for _, marker := range groupMarkerClass {
		if strings.Contains(class, marker) {
			return true
		}
	}

	return false
}

// formConfidence aggregates the page score, the share of job-relevant
// fields, category spread and a submit/apply marker into [0,100].
func formConfidence(contextConfidence int, container dom.Container, fields []Field) float64 {
	if len(fields) == 0 {
		return 0
	}

	relevant := 0
	distinct := map[Category]bool{}
	for i := range fields {
		if fields[i].Category != CategoryOther {
			relevant++
		}
		distinct[fields[i].Category] = true
	}

	conf := 0.30*float64(contextConfidence) +
		40*float64(relevant)/float64(len(fields)) +
		5*float64(len(distinct))

	text := strings.ToLower(container.Text())
	for _, kw := range submitKeywords {
		if strings.Contains(text, kw) {
			conf += 10
			break
		}
	}

	if conf > maxConfidence {
		conf = maxConfidence
	}
	if conf < 0 {
		conf = 0
	}
	return conf
}
