// Package patch turns analyzer findings into line edits and applies them to text.
// Plans are plain values; nothing here touches the filesystem.
package patch

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/review"
)

// FixType selects how a plan is built.
type FixType string

const (
	// Auto takes every finding that carries a suggested fix.
	Auto FixType = "auto"
	// Review builds no edits from findings; callers supply explicit line edits.
	Review FixType = "review"
)

const manualRule = "manual"

// ParseFixType validates a fix type. An empty value means auto.
func ParseFixType(value string) (FixType, error) {
	switch ft := FixType(strings.ToLower(strings.TrimSpace(value))); ft {
	case "":
		return Auto, nil
	case Auto, Review:
		return ft, nil
	default:
		return "", apperr.Errorf("build_plan", apperr.InvalidFixType, "fix_type", "unknown fix type %q", value)
	}
}

// Edit replaces lines StartLine..EndLine (inclusive). Original holds the replaced lines
// joined with "\n" as they were when the plan was built. A Delete edit removes the range
// together with its line terminators.
type Edit struct {
	StartLine   int    `json:"start_line"`
	EndLine     int    `json:"end_line"`
	Original    string `json:"original"`
	Replacement string `json:"replacement"`
	Delete      bool   `json:"delete,omitempty"`
	RuleID      string `json:"rule_id"`
}

func (e Edit) overlaps(o Edit) bool {
	return e.StartLine <= o.EndLine && o.StartLine <= e.EndLine
}

// Skipped is a candidate edit that was left out of the plan.
type Skipped struct {
	RuleID string `json:"rule_id"`
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// Plan is an ordered set of non-overlapping edits.
type Plan struct {
	Edits   []Edit    `json:"edits"`
	Skipped []Skipped `json:"skipped,omitempty"`
}

// LineEdit is a caller supplied replacement used in review mode. An empty Replacement
// deletes the lines.
type LineEdit struct {
	StartLine   int    `json:"start_line" mapstructure:"start_line" validate:"gte=1"`
	EndLine     int    `json:"end_line" mapstructure:"end_line" validate:"gte=1"`
	Replacement string `json:"replacement" mapstructure:"replacement"`
}

// BuildPlan converts findings into edits. Findings are taken in the given order; an edit
// overlapping one already accepted is recorded as skipped.
func BuildPlan(text string, findings []review.Finding, fixType FixType) (*Plan, error) {
	const op = "build_plan"

	ft, err := ParseFixType(string(fixType))
	if err != nil {
		return nil, err
	}

	plan := &Plan{Edits: []Edit{}}
	if ft == Review {
		return plan, nil
	}

	doc := parse(text)
	for _, f := range findings {
		if !f.HasFix() {
			continue
		}
		if !doc.inRange(f.Line, f.Line) {
			return nil, apperr.Errorf(op, apperr.PlanOutOfRange, f.RuleID, "line %d outside text of %d lines", f.Line, doc.len())
		}

		edit := Edit{
			StartLine:   f.Line,
			EndLine:     f.Line,
			Original:    doc.lines[f.Line-1],
			Replacement: *f.SuggestedFix,
			RuleID:      f.RuleID,
		}
		if edit.Replacement == edit.Original {
			continue
		}

		plan.accept(edit)
	}

	plan.sort()
	return plan, nil
}

// ManualPlan builds a plan from explicit line edits, capturing the current text of each
// range.
func ManualPlan(text string, edits []LineEdit) (*Plan, error) {
	const op = "build_plan"

	doc := parse(text)
	plan := &Plan{Edits: []Edit{}}

	for _, e := range edits {
		if !doc.inRange(e.StartLine, e.EndLine) {
			return nil, apperr.Errorf(op, apperr.PlanOutOfRange, fmt.Sprintf("lines %d-%d", e.StartLine, e.EndLine),
				"range outside text of %d lines", doc.len())
		}

		plan.accept(Edit{
			StartLine:   e.StartLine,
			EndLine:     e.EndLine,
			Original:    doc.span(e.StartLine, e.EndLine),
			Replacement: e.Replacement,
			Delete:      e.Replacement == "",
			RuleID:      manualRule,
		})
	}

	plan.sort()
	return plan, nil
}

func (p *Plan) accept(edit Edit) {
	for _, existing := range p.Edits {
		if existing.overlaps(edit) {
			p.Skipped = append(p.Skipped, Skipped{
				RuleID: edit.RuleID,
				Line:   edit.StartLine,
				Reason: fmt.Sprintf("overlaps %s at line %d", existing.RuleID, existing.StartLine),
			})
			return
		}
	}
	p.Edits = append(p.Edits, edit)
}

func (p *Plan) sort() {
	sort.SliceStable(p.Edits, func(i, j int) bool {
		return p.Edits[i].StartLine < p.Edits[j].StartLine
	})
}

// Apply returns text with every edit of plan applied and the number of edits. Either
// all edits apply or an error is returned with no text.
func Apply(text string, plan *Plan) (string, int, error) {
	const op = "apply"

	if plan == nil || len(plan.Edits) == 0 {
		return text, 0, nil
	}

	doc := parse(text)
	edits := append([]Edit(nil), plan.Edits...)
	sort.SliceStable(edits, func(i, j int) bool { return edits[i].StartLine < edits[j].StartLine })

	for i, e := range edits {
		subject := fmt.Sprintf("lines %d-%d", e.StartLine, e.EndLine)
		if !doc.inRange(e.StartLine, e.EndLine) {
			return "", 0, apperr.Errorf(op, apperr.PlanOutOfRange, subject, "range outside text of %d lines", doc.len())
		}
		if i > 0 && edits[i-1].overlaps(e) {
			return "", 0, apperr.Errorf(op, apperr.PlanOutOfRange, subject, "overlaps edit at line %d", edits[i-1].StartLine)
		}
		if doc.span(e.StartLine, e.EndLine) != e.Original {
			return "", 0, apperr.Errorf(op, apperr.PlanOutOfRange, subject, "text changed since the plan was built")
		}
	}

	var b strings.Builder
	b.Grow(len(text))

	next := 0
	for line := 1; line <= doc.len(); line++ {
		if next < len(edits) && edits[next].StartLine == line {
			e := edits[next]
			writeReplacement(&b, doc, e)
			line = e.EndLine
			next++
			continue
		}
		b.WriteString(doc.lines[line-1])
		b.WriteString(doc.ends[line-1])
	}

	return b.String(), len(edits), nil
}

// writeReplacement emits the replacement lines; the last one keeps the terminator of
// the last replaced line so a missing final newline stays missing.
func writeReplacement(b *strings.Builder, doc document, e Edit) {
	if e.Delete {
		return
	}

	last := doc.ends[e.EndLine-1]
	eol := last
	if eol != "\n" && eol != "\r\n" {
		eol = doc.newline()
	}

	parts := strings.Split(e.Replacement, "\n")
	for i, part := range parts {
		b.WriteString(strings.TrimSuffix(part, "\r"))
		if i < len(parts)-1 {
			b.WriteString(eol)
		} else {
			b.WriteString(last)
		}
	}
}
