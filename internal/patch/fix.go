package patch

import (
	"github.com/spigell/gig-assistant/internal/review"
)

// DefaultMaxPasses covers the most fixable rules that can share a single line.
const DefaultMaxPasses = 4

// Analyzer produces findings for text.
type Analyzer func(text string) ([]review.Finding, error)

// Result is the outcome of repeated analyze, plan and apply passes.
type Result struct {
	Text    string    `json:"-"`
	Applied int       `json:"applied"`
	Passes  int       `json:"passes"`
	Edits   []Edit    `json:"edits"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// Fix applies auto fixes until analysis yields no applicable edit or maxPasses is
// reached. Edits skipped for overlapping are retried on the following pass.
func Fix(text string, analyze Analyzer, maxPasses int) (*Result, error) {
	if maxPasses <= 0 {
		maxPasses = DefaultMaxPasses
	}

	res := &Result{Text: text, Edits: []Edit{}}
	for pass := 0; pass < maxPasses; pass++ {
		findings, err := analyze(res.Text)
		if err != nil {
			return nil, err
		}

		plan, err := BuildPlan(res.Text, findings, Auto)
		if err != nil {
			return nil, err
		}
		if len(plan.Edits) == 0 {
			res.Skipped = nil
			return res, nil
		}

		next, applied, err := Apply(res.Text, plan)
		if err != nil {
			return nil, err
		}

		res.Text = next
		res.Applied += applied
		res.Passes++
		res.Edits = append(res.Edits, plan.Edits...)
		res.Skipped = plan.Skipped
	}

	return res, nil
}
