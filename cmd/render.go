package cmd

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/spigell/gig-assistant/internal/advisory"
	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/filtering"
	"github.com/spigell/gig-assistant/internal/fit"
	"github.com/spigell/gig-assistant/internal/patch"
	"github.com/spigell/gig-assistant/internal/review"
	"github.com/spigell/gig-assistant/internal/tools"
	"github.com/spigell/gig-assistant/internal/tracking"
)

var (
	red    = color.New(color.FgRed)
	yellow = color.New(color.FgYellow)
	cyan   = color.New(color.FgCyan)
	green  = color.New(color.FgGreen)
	bold   = color.New(color.Bold)
)

func newTable(w io.Writer, header ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(w)
	table.SetHeader(header)
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	return table
}

func severity(s review.Severity) string {
	switch s {
	case review.Error:
		return red.Sprint(s)
	case review.Warning:
		return yellow.Sprint(s)
	default:
		return cyan.Sprint(s)
	}
}

func renderFindings(w io.Writer, findings []review.Finding) {
	if len(findings) == 0 {
		green.Fprintln(w, "No findings.")
		return
	}

	table := newTable(w, "Line", "Severity", "Rule", "Message", "Fix")
	for _, f := range findings {
		fix := ""
		if f.HasFix() {
			fix = "auto"
		}
		table.Append([]string{strconv.Itoa(f.Line), severity(f.Severity), f.RuleID, f.Message, fix})
	}
	table.Render()
}

func renderReview(w io.Writer, res *tools.ReviewResult) {
	bold.Fprintf(w, "%s (%s, %s review)\n", res.FilePath, res.Language, res.ReviewType)
	fmt.Fprintf(w, "lines: %d total, %d code, %d comment (%.1f%%), complexity %d\n",
		res.Metrics.TotalLines, res.Metrics.CodeLines, res.Metrics.CommentLines, res.Metrics.CommentRatio, res.Metrics.Complexity)
	renderFindings(w, res.Findings)
	fmt.Fprintf(w, "quality: %s, fixable: %d\n", res.Quality, res.Fixable)
}

func renderEdits(w io.Writer, edits []patch.Edit) {
	if len(edits) == 0 {
		return
	}
	table := newTable(w, "Lines", "Rule", "Before", "After")
	for _, e := range edits {
		lines := strconv.Itoa(e.StartLine)
		if e.EndLine != e.StartLine {
			lines = fmt.Sprintf("%d-%d", e.StartLine, e.EndLine)
		}
		table.Append([]string{lines, e.RuleID, red.Sprint(e.Original), green.Sprint(e.Replacement)})
	}
	table.Render()
}

func renderDebug(w io.Writer, res *tools.DebugResult) {
	bold.Fprintf(w, "%s: %s\n", res.FilePath, res.Status)
	fmt.Fprintf(w, "applied %d edit(s) in %d pass(es)\n", res.Applied, res.Passes)
	renderEdits(w, res.Edits)
	for _, s := range res.Skipped {
		yellow.Fprintf(w, "skipped %s at line %d: %s\n", s.RuleID, s.Line, s.Reason)
	}
	if res.Backup != nil {
		fmt.Fprintf(w, "backup: %s\n", res.Backup.BackupPath)
	}
	if len(res.Remaining) > 0 {
		fmt.Fprintln(w, "remaining findings:")
		renderFindings(w, res.Remaining)
	}
}

func renderReport(w io.Writer, report *fit.Report) {
	bold.Fprintf(w, "fit score: %d/100\n", report.Score.Overall)

	table := newTable(w, "Criterion", "Weight", "Value")
	for _, c := range report.Score.Breakdown {
		table.Append([]string{c.Name, fmt.Sprintf("%.2f", c.Weight), fmt.Sprintf("%.2f", c.Contribution)})
	}
	table.Render()

	fmt.Fprintf(w, "matched: %s\n", joinOrDash(report.MatchedSkills))
	fmt.Fprintf(w, "missing: %s\n", joinOrDash(report.MissingSkills))
	fmt.Fprintf(w, "competition: %s, client: %s\n", report.CompetitionLevel, report.ClientQuality)
	fmt.Fprintln(w, report.Recommendation)
}

func renderSearch(w io.Writer, res *tools.SearchResult) {
	table := newTable(w, "Score", "ID", "Platform", "Title", "Budget", "Matched", "Proposals")
	for _, hit := range res.Gigs {
		table.Append([]string{
			strconv.Itoa(hit.MatchScore),
			hit.ID,
			hit.Platform,
			hit.Title,
			hit.Budget,
			strings.Join(hit.MatchedSkills, ", "),
			strconv.Itoa(hit.ProposalsCount),
		})
	}
	table.SetFooter([]string{"", "", "", "", "", "Found", strconv.Itoa(res.TotalFound)})
	table.Render()

	renderFilterReports(w, res.Filters)
}

func renderFilterReports(w io.Writer, reports []filtering.Report) {
	for _, r := range reports {
		if r.Dropped > 0 {
			fmt.Fprintf(w, "filter %s dropped %d of %d\n", r.Name, r.Dropped, r.Initial)
		}
	}
}

func renderAdvisory(w io.Writer, adv *advisory.Advisory) {
	bold.Fprintf(w, "%s advisory %s\n\n", adv.Kind, adv.ID)
	fmt.Fprintln(w, adv.Body)
	fmt.Fprintln(w)

	switch in := adv.Insights.(type) {
	case advisory.NegotiationInsights:
		fmt.Fprintf(w, "increase: %g%%\nstrategy: %s\nsuccess probability: %s\n", in.RateIncreasePercent, in.Strategy, in.SuccessProbability)
		for _, alt := range in.Alternatives {
			fmt.Fprintf(w, "  - %s\n", alt)
		}
	case advisory.ProposalInsights:
		fmt.Fprintf(w, "fit score: %d, estimated hours: %g, total: $%.2f, words: %d\n",
			in.FitScore, in.EstimatedHours, in.TotalEstimate, in.WordCount)
	case advisory.OptimizationInsights:
		for _, item := range in.ActionItems {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}

func renderSummary(w io.Writer, s *tracking.Summary) {
	bold.Fprintf(w, "applications: %d, success rate: %g%%\n", s.TotalApplications, s.SuccessRate)

	table := newTable(w, "Status", "Count")
	for _, status := range sortedKeys(s.StatusBreakdown) {
		table.Append([]string{status, strconv.Itoa(s.StatusBreakdown[status])})
	}
	table.Render()

	for _, line := range slices.Concat(s.Insights, s.Recommendations) {
		fmt.Fprintf(w, "  - %s\n", line)
	}
}

func renderError(w io.Writer, err error) {
	d := apperr.Describe(err)
	if d.Op == "" {
		red.Fprintf(w, "error: %s\n", d.Message)
		return
	}
	red.Fprintf(w, "%s failed: %s", d.Op, d.Kind)
	if d.Subject != "" {
		fmt.Fprintf(w, " (%s)", d.Subject)
	}
	fmt.Fprintf(w, ": %s\n", d.Message)
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, ", ")
}

func sortedKeys(m map[string]int) []string {
	return slices.Sorted(maps.Keys(m))
}
