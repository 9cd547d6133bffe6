// Package tracking summarises how a freelancer's applications are doing.
package tracking

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/spigell/gig-assistant/internal/apperr"
)

const (
	StatusPending = "pending"
	unknown       = "unknown"
)

var successStatuses = map[string]struct{}{
	"accepted":        {},
	"hired":           {},
	"contract_signed": {},
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// Recommendations are returned with every summary.
var Recommendations = []string{
	"Follow up on pending applications after 3-5 days",
	"A/B test different proposal templates",
	"Focus on gigs with <10 proposals for better chances",
	"Maintain consistent application schedule",
}

// Application is one submitted proposal. Dates are ISO 8601.
type Application struct {
	GigID        string `json:"gig_id,omitempty" yaml:"gig_id" mapstructure:"gig_id"`
	Platform     string `json:"platform,omitempty" yaml:"platform" mapstructure:"platform"`
	Status       string `json:"status,omitempty" yaml:"status" mapstructure:"status"`
	AppliedDate  string `json:"applied_date,omitempty" yaml:"applied_date" mapstructure:"applied_date"`
	ResponseDate string `json:"response_date,omitempty" yaml:"response_date" mapstructure:"response_date"`
}

// Metrics are derived ratios of a summary.
type Metrics struct {
	ResponseRate           float64 `json:"response_rate"`
	BestPerformingPlatform string  `json:"best_performing_platform"`
	ApplicationTrend       string  `json:"application_trend"`
}

// Summary is the outcome of Summarize. Percentages and averages carry one decimal.
type Summary struct {
	TotalApplications       int            `json:"total_applications"`
	SuccessRate             float64        `json:"success_rate"`
	StatusBreakdown         map[string]int `json:"status_breakdown"`
	PlatformBreakdown       map[string]int `json:"platform_breakdown"`
	AverageResponseTimeDays float64        `json:"average_response_time_days"`
	Insights                []string       `json:"insights"`
	Recommendations         []string       `json:"recommendations"`
	PerformanceMetrics      Metrics        `json:"performance_metrics"`
}

// Summarize computes success and response statistics. Applications whose dates do not
// parse are counted but left out of response times.
func Summarize(apps []Application) (*Summary, error) {
	const op = "track_applications"

	if len(apps) == 0 {
		return nil, apperr.Errorf(op, apperr.InvalidInput, "applications", "no applications provided")
	}

	statuses := map[string]int{}
	platforms := map[string]int{}
	var platformOrder []string
	var responseDays []float64
	successes := 0

	for _, app := range apps {
		status := normalize(app.Status, StatusPending)
		statuses[status]++
		if _, ok := successStatuses[status]; ok {
			successes++
		}

		platform := normalize(app.Platform, unknown)
		if platforms[platform] == 0 {
			platformOrder = append(platformOrder, platform)
		}
		platforms[platform]++

		if days, ok := responseTime(app); ok {
			responseDays = append(responseDays, days)
		}
	}

	total := len(apps)
	successRate := float64(successes) / float64(total) * 100

	avgResponse := 0.0
	if len(responseDays) > 0 {
		sum := 0.0
		for _, d := range responseDays {
			sum += d
		}
		avgResponse = sum / float64(len(responseDays))
	}

	best := platformOrder[0]
	for _, p := range platformOrder[1:] {
		if platforms[p] > platforms[best] {
			best = p
		}
	}

	var insights []string
	switch {
	case successRate < 10:
		insights = append(insights, "Low success rate - consider improving proposal quality or targeting better-fit gigs")
	case successRate > 25:
		insights = append(insights, "Excellent success rate! Consider applying to more premium gigs")
	}
	if avgResponse > 7 {
		insights = append(insights, "Slow client responses - may indicate low-quality clients or poor proposal targeting")
	}
	insights = append(insights, fmt.Sprintf("Most active on %s - consider focusing efforts here", best))

	return &Summary{
		TotalApplications:       total,
		SuccessRate:             round1(successRate),
		StatusBreakdown:         statuses,
		PlatformBreakdown:       platforms,
		AverageResponseTimeDays: round1(avgResponse),
		Insights:                insights,
		Recommendations:         append([]string(nil), Recommendations...),
		PerformanceMetrics: Metrics{
			ResponseRate:           round1(float64(len(responseDays)) / float64(total) * 100),
			BestPerformingPlatform: best,
			ApplicationTrend:       "Stable",
		},
	}, nil
}

// responseTime is the number of whole days between applying and the response.
func responseTime(app Application) (float64, bool) {
	if app.AppliedDate == "" || app.ResponseDate == "" {
		return 0, false
	}

	applied, ok := parseDate(app.AppliedDate)
	if !ok {
		return 0, false
	}
	responded, ok := parseDate(app.ResponseDate)
	if !ok {
		return 0, false
	}

	return math.Floor(responded.Sub(applied).Hours() / 24), true
}

func parseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func normalize(value, fallback string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return fallback
	}
	return value
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
