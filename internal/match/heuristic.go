package match

import (
	"context"
	"errors"
	"strings"

	"github.com/sanketmuchhala/ApplicationAgent/internal/detect"
	"github.com/sanketmuchhala/ApplicationAgent/internal/profile"
	"go.uber.org/zap"
)

// HeuristicID is the provider id of the deterministic keyword matcher.
const HeuristicID = "heuristic"

// HeuristicConfidence is the fixed confidence of every heuristic match.
const HeuristicConfidence = 75

var errNoSummary = errors.New("profile has no summary to answer free-text fields with")

type patternEntry struct {
	path     string
	patterns []string
}

// heuristicDict maps field text patterns to profile attribute paths. Order
// matters: specific patterns come before greedy ones ("name" is last so
// "first name" wins).
var heuristicDict = []patternEntry{
	{"personal.first_name", []string{"first name", "firstname", "given name", "forename"}},
	{"personal.last_name", []string{"last name", "lastname", "surname", "family name"}},
	{"contact.email", []string{"email", "e-mail"}},
	{"contact.phone", []string{"phone", "telephone", "mobile", "cell", "contact number"}},
	{"contact.linkedin_url", []string{"linkedin", "linked in"}},
	{"contact.github_url", []string{"github", "git hub"}},
	{"contact.portfolio_url", []string{"portfolio", "personal site", "website"}},
	{"personal.address_line1", []string{"address line 1", "street address", "address"}},
	{"personal.city", []string{"city", "town"}},
	{"personal.state", []string{"state", "province", "region"}},
	{"personal.postal_code", []string{"zip", "postal", "postcode"}},
	{"personal.country", []string{"country", "nation"}},
	{"personal.work_authorization", []string{"work authorization", "authorized to work", "sponsorship", "visa", "citizen"}},
	{"professional.years_experience", []string{"years of experience", "experience years", "total experience"}},
	{"professional.current_title", []string{"current title", "job title", "current position", "current role"}},
	{"professional.current_company", []string{"current company", "current employer", "company name"}},
	{"professional.current_salary", []string{"current salary", "present salary"}},
	{"professional.desired_salary", []string{"desired salary", "expected salary", "salary expectation", "salary"}},
	{"professional.notice_period", []string{"notice period", "availability", "start date"}},
	{"education.school", []string{"school", "university", "college", "alma mater"}},
	{"education.degree", []string{"degree", "qualification"}},
	{"education.major", []string{"major", "field of study"}},
	{"education.graduation_year", []string{"graduation"}},
	{"skills.list", []string{"skills", "technologies"}},
	{"professional.summary", []string{"summary", "about you", "tell us about"}},
	{"personal.full_name", []string{"full name", "complete name", "your name", "name"}},
}

// Heuristic is the deterministic keyword provider: no network, no cost,
// always available. It is the default when no credential is configured;
// switching to a remote provider is an explicit host decision.
type Heuristic struct {
	logger *zap.Logger
}

// NewHeuristic returns the keyword provider.
func NewHeuristic(logger *zap.Logger) *Heuristic {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Heuristic{logger: logger}
}

func (h *Heuristic) ID() string { return HeuristicID }

// TestConnection always succeeds: there is nothing to connect to.
func (h *Heuristic) TestConnection(_ context.Context) (bool, error) {
	return true, nil
}

// MatchFields resolves each field against the keyword dictionary and returns
// a binding per hit with the fixed confidence.
func (h *Heuristic) MatchFields(_ context.Context, fields []detect.Field, rec *profile.Record, _ map[string]string) ([]Binding, error) {
	bindings := make([]Binding, 0, len(fields))

	for i := range fields {
		f := &fields[i]
		path, ok := resolvePath(f.SearchText())
		if !ok {
			continue
		}
		value, ok := rec.Lookup(path)
		if !ok {
			continue
		}

		bindings = append(bindings, Binding{
			FieldID:    f.ID,
			Category:   f.Category,
			Label:      f.Label,
			Value:      value,
			Confidence: HeuristicConfidence,
			Provider:   HeuristicID,
		})
	}

	h.logger.Debug("heuristic matching complete",
		zap.Int("fields", len(fields)),
		zap.Int("bindings", len(bindings)),
	)

	return bindings, nil
}

// GenerateValue falls back to the profile summary for free-text fields; the
// heuristic provider cannot synthesize new prose.
func (h *Heuristic) GenerateValue(_ context.Context, field detect.Field, rec *profile.Record, _ map[string]string) (*Generated, error) {
	value, ok := rec.Lookup("professional.summary")
	if !ok {
		return nil, errNoSummary
	}

	return &Generated{
		Value:      value,
		Confidence: HeuristicConfidence,
	}, nil
}

func resolvePath(text string) (string, bool) {
	for _, entry := range heuristicDict {
		for _, p := range entry.patterns {
			if strings.Contains(text, p) {
				return entry.path, true
			}
		}
	}
	return "", false
}
