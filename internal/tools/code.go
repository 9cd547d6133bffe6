package tools

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/patch"
	"github.com/spigell/gig-assistant/internal/review"
	"github.com/spigell/gig-assistant/internal/sandbox"
	"github.com/spigell/gig-assistant/internal/validate"
)

// Debug statuses.
const (
	StatusFixed        = "Fixed automatically"
	StatusEditsApplied = "Edits applied"
	StatusDryRun       = "Dry run - no changes written"
	StatusManualReview = "Manual review required"
	StatusClean        = "No issues found"
)

// DebugSuggestions are returned with every code_debug result.
var DebugSuggestions = []string{
	"Review the changes before committing",
	"Test the code after applying fixes",
	"Consider running linting tools for additional checks",
}

// ReviewInput selects a file and the rule set to run on it. Language overrides the
// extension based detection.
type ReviewInput struct {
	Path       string `json:"file_path" validate:"required"`
	ReviewType string `json:"review_type,omitempty"`
	Language   string `json:"language,omitempty"`
}

// ReviewResult is the analysis of one file.
type ReviewResult struct {
	FilePath   string            `json:"file_path"`
	Language   review.Language   `json:"language"`
	ReviewType review.ReviewType `json:"review_type"`
	Metrics    review.Metrics    `json:"metrics"`
	Findings   []review.Finding  `json:"findings"`
	Fixable    int               `json:"fixable"`
	Quality    string            `json:"overall_quality"`
}

// CodeReview reads a file from the sandbox and analyzes it. The file is never modified.
func (s *Service) CodeReview(_ context.Context, in ReviewInput) (res *ReviewResult, err error) {
	started := time.Now()
	defer func() {
		err = s.finish(OpCodeReview, started, err, zap.String("path", in.Path))
	}()

	if err := validate.Struct(OpCodeReview, apperr.InvalidInput, in); err != nil {
		return nil, err
	}
	rt, err := review.ParseReviewType(in.ReviewType)
	if err != nil {
		return nil, err
	}

	files, err := s.files(OpCodeReview)
	if err != nil {
		return nil, err
	}
	text, err := files.Read(in.Path)
	if err != nil {
		return nil, err
	}

	lang := resolveLanguage(in.Path, in.Language, text)
	findings, err := review.Analyze(text, string(lang), rt)
	if err != nil {
		return nil, err
	}

	fixable := 0
	for _, f := range findings {
		if f.HasFix() {
			fixable++
		}
	}

	return &ReviewResult{
		FilePath:   in.Path,
		Language:   lang,
		ReviewType: rt,
		Metrics:    review.Measure(text, lang),
		Findings:   findings,
		Fixable:    fixable,
		Quality:    review.Quality(findings),
	}, nil
}

// DebugInput describes a repair. With fix type auto every mechanical fix is applied,
// optionally restricted to Rules. With fix type review only Edits are applied.
type DebugInput struct {
	Path             string           `json:"file_path" validate:"required"`
	IssueDescription string           `json:"issue_description,omitempty"`
	FixType          string           `json:"fix_type,omitempty"`
	Language         string           `json:"language,omitempty"`
	Rules            []string         `json:"rules,omitempty" validate:"dive,required"`
	Edits            []patch.LineEdit `json:"edits,omitempty" validate:"dive"`
	DryRun           bool             `json:"dry_run,omitempty"`
	MaxPasses        int              `json:"max_passes,omitempty" validate:"gte=0,lte=10"`
}

// DebugResult reports what was changed and where the previous content was saved.
type DebugResult struct {
	FilePath         string                `json:"file_path"`
	Language         review.Language       `json:"language"`
	FixType          patch.FixType         `json:"fix_type"`
	IssueDescription string                `json:"issue_description,omitempty"`
	Status           string                `json:"status"`
	ChangesMade      bool                  `json:"changes_made"`
	Written          bool                  `json:"written"`
	Applied          int                   `json:"applied"`
	Passes           int                   `json:"passes"`
	Edits            []patch.Edit          `json:"edits"`
	Skipped          []patch.Skipped       `json:"skipped,omitempty"`
	Remaining        []review.Finding      `json:"remaining_findings"`
	Backup           *sandbox.BackupRecord `json:"backup,omitempty"`
	Suggestions      []string              `json:"suggestions"`
}

// CodeDebug analyzes a sandboxed file, builds and applies a patch, and writes the result
// back through the accessor unless DryRun is set. A write always leaves a backup.
func (s *Service) CodeDebug(_ context.Context, in DebugInput) (res *DebugResult, err error) {
	started := time.Now()
	defer func() {
		fields := []zap.Field{zap.String("path", in.Path)}
		if res != nil {
			fields = append(fields, zap.Int("applied", res.Applied), zap.Bool("written", res.Written))
		}
		err = s.finish(OpCodeDebug, started, err, fields...)
	}()

	if err := validate.Struct(OpCodeDebug, apperr.InvalidInput, in); err != nil {
		return nil, err
	}
	fixType, err := patch.ParseFixType(in.FixType)
	if err != nil {
		return nil, err
	}
	if err := checkRules(in.Rules); err != nil {
		return nil, err
	}

	files, err := s.files(OpCodeDebug)
	if err != nil {
		return nil, err
	}
	text, err := files.Read(in.Path)
	if err != nil {
		return nil, err
	}

	lang := resolveLanguage(in.Path, in.Language, text)
	analyze := analyzer(lang, in.Rules)

	res = &DebugResult{
		FilePath:         in.Path,
		Language:         lang,
		FixType:          fixType,
		IssueDescription: in.IssueDescription,
		Suggestions:      append([]string(nil), DebugSuggestions...),
	}

	next := text
	switch fixType {
	case patch.Review:
		plan, err := patch.ManualPlan(text, in.Edits)
		if err != nil {
			return nil, err
		}
		out, applied, err := patch.Apply(text, plan)
		if err != nil {
			return nil, err
		}
		next = out
		res.Applied = applied
		res.Edits = plan.Edits
		res.Skipped = plan.Skipped
		if applied > 0 {
			res.Passes = 1
		}
	default:
		fixed, err := patch.Fix(text, analyze, in.MaxPasses)
		if err != nil {
			return nil, err
		}
		next = fixed.Text
		res.Applied = fixed.Applied
		res.Passes = fixed.Passes
		res.Edits = fixed.Edits
		res.Skipped = fixed.Skipped
	}

	res.Remaining, err = review.Analyze(next, string(lang), review.General)
	if err != nil {
		return nil, err
	}

	res.ChangesMade = next != text
	switch {
	case !res.ChangesMade && len(res.Remaining) == 0:
		res.Status = StatusClean
	case !res.ChangesMade:
		res.Status = StatusManualReview
	case in.DryRun:
		res.Status = StatusDryRun
	default:
		backup, err := files.Write(in.Path, next)
		if err != nil {
			return nil, err
		}
		res.Backup = backup
		res.Written = true
		res.Status = StatusFixed
		if fixType == patch.Review {
			res.Status = StatusEditsApplied
		}
	}

	return res, nil
}

// resolveLanguage prefers an explicit hint, then the file extension, then the content.
func resolveLanguage(path, hint, text string) review.Language {
	if hint == "" {
		if lang := review.DetectLanguage(path); lang != review.Unknown {
			return lang
		}
	}
	return review.ResolveLanguage(text, hint)
}

// analyzer runs the general rules, keeping only findings of the listed rules when any
// are given.
func analyzer(lang review.Language, rules []string) patch.Analyzer {
	return func(text string) ([]review.Finding, error) {
		findings, err := review.Analyze(text, string(lang), review.General)
		if err != nil || len(rules) == 0 {
			return findings, err
		}

		kept := findings[:0]
		for _, f := range findings {
			if slices.Contains(rules, f.RuleID) {
				kept = append(kept, f)
			}
		}
		return kept, nil
	}
}

func checkRules(rules []string) error {
	known := review.RuleIDs()
	for i, id := range rules {
		if !slices.Contains(known, id) {
			return apperr.Errorf(OpCodeDebug, apperr.InvalidInput, fmt.Sprintf("rules[%d]", i), "unknown rule %q", id)
		}
	}
	return nil
}
