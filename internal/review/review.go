// Package review implements a lexical, rule based static analyzer for source files.
// Results depend only on the input text, the language and the review type.
package review

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/gig-assistant/internal/apperr"
)

// ReviewType selects the rule subset that runs.
type ReviewType string

const (
	General     ReviewType = "general"
	Security    ReviewType = "security"
	Performance ReviewType = "performance"
)

// ParseReviewType validates a review type. An empty value means general.
func ParseReviewType(value string) (ReviewType, error) {
	switch rt := ReviewType(strings.ToLower(strings.TrimSpace(value))); rt {
	case "":
		return General, nil
	case General, Security, Performance:
		return rt, nil
	default:
		return "", apperr.Errorf("analyze", apperr.InvalidReviewType, "review_type", "unknown review type %q", value)
	}
}

// Severity of a finding. Higher values sort first.
type Severity string

const (
	Info    Severity = "info"
	Warning Severity = "warning"
	Error   Severity = "error"
)

func (s Severity) rank() int {
	switch s {
	case Error:
		return 2
	case Warning:
		return 1
	default:
		return 0
	}
}

// Finding is a single issue detected in source text.
type Finding struct {
	RuleID   string   `json:"rule_id"`
	Severity Severity `json:"severity"`
	Line     int      `json:"line"`
	Message  string   `json:"message"`
	// SuggestedFix is the full replacement for Line when a mechanical fix exists.
	SuggestedFix *string `json:"suggested_fix,omitempty"`
}

// HasFix reports whether the finding carries a mechanical fix.
func (f Finding) HasFix() bool {
	return f.SuggestedFix != nil
}

func (f Finding) String() string {
	return fmt.Sprintf("%d: %s [%s] %s", f.Line, f.Severity, f.RuleID, f.Message)
}

// Analyze runs the rules selected by reviewType over text. languageHint may be a
// language name or an extension; when empty the language is guessed from content.
func Analyze(text, languageHint string, reviewType ReviewType) ([]Finding, error) {
	rt, err := ParseReviewType(string(reviewType))
	if err != nil {
		return nil, err
	}

	lang := ResolveLanguage(text, languageHint)
	src := &source{lang: lang, lines: mask(text, lang)}

	findings := make([]Finding, 0)
	for _, r := range registry {
		if r.reviewType != rt || !r.appliesTo(lang) {
			continue
		}
		findings = append(findings, r.check(src)...)
	}

	sortFindings(findings)
	return findings, nil
}

// sortFindings orders by severity descending, then line ascending. Equal keys keep
// rule registration order.
func sortFindings(findings []Finding) {
	sort.SliceStable(findings, func(i, j int) bool {
		a, b := findings[i], findings[j]
		if a.Severity.rank() != b.Severity.rank() {
			return a.Severity.rank() > b.Severity.rank()
		}
		return a.Line < b.Line
	})
}

// Quality grades a finding list the way the code_review report does: no warnings or
// errors is Good, fewer than three is Needs Improvement.
func Quality(findings []Finding) string {
	issues := 0
	for _, f := range findings {
		if f.Severity.rank() > 0 {
			issues++
		}
	}

	switch {
	case issues == 0:
		return "Good"
	case issues < 3:
		return "Needs Improvement"
	default:
		return "Poor"
	}
}
