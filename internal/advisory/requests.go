package advisory

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/fit"
	"github.com/spigell/gig-assistant/internal/utils"
	"github.com/spigell/gig-assistant/internal/validate"
)

// Request is one of ProposalRequest, NegotiationRequest or OptimizationRequest.
type Request interface {
	Kind() Kind

	validate(op string) error
	template() string
	fields() map[string]string
	insights(body string) any
}

// Tone of a generated proposal.
type Tone string

const (
	ToneProfessional Tone = "professional"
	ToneFriendly     Tone = "friendly"
	ToneConfident    Tone = "confident"
)

// Market figures used by profile optimisation.
const (
	MarketAverageRate         = 50.0
	SuccessRateTarget         = 95.0
	PortfolioItemsRecommended = 5
	DefaultNiche              = "General development"
)

// HotSkills are the skills profile optimisation suggests learning.
var HotSkills = []string{"AI/ML", "React", "Python", "TypeScript", "Cloud Computing"}

// DefaultJustification is used when a negotiation request has no points of its own.
var DefaultJustification = []string{
	"Extensive experience in required technologies",
	"Strong track record of successful project delivery",
	"Additional value through code review and optimization",
}

// ProposalRequest asks for a proposal for gig written on behalf of profile.
type ProposalRequest struct {
	Profile fit.Profile `json:"profile" mapstructure:"profile"`
	Gig     fit.Gig     `json:"gig" mapstructure:"gig"`
	Name    string      `json:"name,omitempty" mapstructure:"name"`
	Title   string      `json:"title,omitempty" mapstructure:"title"`
	Tone    Tone        `json:"tone,omitempty" mapstructure:"tone" validate:"omitempty,oneof=professional friendly confident"`
	// IncludePortfolio defaults to true when omitted.
	IncludePortfolio *bool `json:"include_portfolio,omitempty" mapstructure:"include_portfolio"`
	// ProposedRate defaults to the profile's hourly rate.
	ProposedRate  float64 `json:"proposed_rate,omitempty" mapstructure:"proposed_rate" validate:"gte=0"`
	CustomMessage string  `json:"custom_message,omitempty" mapstructure:"custom_message"`
}

// ProposalInsights are the deterministic parts of a proposal advisory.
type ProposalInsights struct {
	FitScore       int     `json:"fit_score"`
	EstimatedHours float64 `json:"estimated_hours"`
	ProposedRate   float64 `json:"proposed_rate"`
	TotalEstimate  float64 `json:"total_estimate"`
	Tone           Tone    `json:"tone"`
	WordCount      int     `json:"word_count"`
}

func (ProposalRequest) Kind() Kind { return KindProposal }

func (r ProposalRequest) validate(op string) error {
	if _, err := fit.Score(r.Profile, r.Gig); err != nil {
		return apperr.WithOp(err, op)
	}
	return validate.Struct(op, apperr.InvalidInput, r)
}

func (ProposalRequest) template() string { return "proposal.md" }

func (r ProposalRequest) tone() Tone {
	if r.Tone == "" {
		return ToneProfessional
	}
	return r.Tone
}

func (r ProposalRequest) includePortfolio() bool {
	return r.IncludePortfolio == nil || *r.IncludePortfolio
}

func (r ProposalRequest) rate() float64 {
	if r.ProposedRate > 0 {
		return r.ProposedRate
	}
	return r.Profile.HourlyRate
}

func (r ProposalRequest) fields() map[string]string {
	score, _ := fit.Score(r.Profile, r.Gig)

	budget := money(r.Gig.Budget)
	if r.Gig.ProjectType == fit.Hourly {
		budget += "/hr"
	}

	return map[string]string{
		"TONE":              string(r.tone()),
		"INCLUDE_PORTFOLIO": strconv.FormatBool(r.includePortfolio()),
		"USER_INSTRUCTIONS": sanitizeBlock(r.CustomMessage),
		"GIG_TITLE":         orDefault(sanitizeLine(r.Gig.Title, maxFieldRunes), "untitled"),
		"GIG_PLATFORM":      orDefault(sanitizeLine(r.Gig.Platform, maxFieldRunes), "unknown"),
		"GIG_PROJECT_TYPE":  string(r.Gig.ProjectType),
		"GIG_BUDGET":        budget,
		"GIG_COMPLEXITY":    orDefault(string(r.Gig.Complexity), string(fit.Medium)),
		"GIG_SKILLS":        joinOrNone(sanitizeList(r.Gig.RequiredSkills)),
		"GIG_DESCRIPTION":   orDefault(sanitizeLine(r.Gig.Description, maxDescriptionRunes), "none"),
		"PROFILE_NAME":      orDefault(sanitizeLine(r.Name, maxFieldRunes), "not provided"),
		"PROFILE_TITLE":     orDefault(sanitizeLine(r.Title, maxFieldRunes), "not provided"),
		"PROFILE_SKILLS":    joinOrNone(sanitizeList(r.Profile.Skills)),
		"PROFILE_YEARS":     formatNumber(r.Profile.YearsExperience),
		"PROFILE_RATE":      money(r.rate()) + "/hr",
		"FIT_SCORE":         strconv.Itoa(score.Overall),
		"ESTIMATED_HOURS":   formatNumber(EstimatedHours(r.Gig.ProjectType)),
	}
}

func (r ProposalRequest) insights(body string) any {
	score, _ := fit.Score(r.Profile, r.Gig)
	hours := EstimatedHours(r.Gig.ProjectType)

	return ProposalInsights{
		FitScore:       score.Overall,
		EstimatedHours: hours,
		ProposedRate:   r.rate(),
		TotalEstimate:  hours * r.rate(),
		Tone:           r.tone(),
		WordCount:      utils.WordCount(body),
	}
}

// EstimatedHours is the effort assumed when quoting a proposal.
func EstimatedHours(t fit.ProjectType) float64 {
	if t == fit.FixedPrice {
		return 20
	}
	return 40
}

// NegotiationRequest asks for a message moving a client from CurrentRate to TargetRate.
type NegotiationRequest struct {
	CurrentRate         float64        `json:"current_rate" mapstructure:"current_rate" validate:"gt=0"`
	TargetRate          float64        `json:"target_rate" mapstructure:"target_rate" validate:"gt=0"`
	Complexity          fit.Complexity `json:"project_complexity,omitempty" mapstructure:"project_complexity" validate:"omitempty,oneof=low medium high"`
	JustificationPoints []string       `json:"justification_points,omitempty" mapstructure:"justification_points"`
}

// NegotiationInsights are the deterministic parts of a negotiation advisory.
type NegotiationInsights struct {
	CurrentRate         float64  `json:"current_rate"`
	TargetRate          float64  `json:"target_rate"`
	RateIncreasePercent float64  `json:"rate_increase_percent"`
	Strategy            string   `json:"strategy"`
	SuccessProbability  string   `json:"success_probability"`
	Alternatives        []string `json:"alternatives"`
	JustificationPoints []string `json:"justification_points"`
}

func (NegotiationRequest) Kind() Kind { return KindNegotiation }

func (r NegotiationRequest) validate(op string) error {
	return validate.Struct(op, apperr.InvalidInput, r)
}

func (NegotiationRequest) template() string { return "negotiation.md" }

func (r NegotiationRequest) justification() []string {
	points := sanitizeList(r.JustificationPoints)
	if len(points) == 0 {
		return DefaultJustification
	}
	return points
}

func (r NegotiationRequest) fields() map[string]string {
	in := r.derive()

	return map[string]string{
		"CURRENT_RATE":  money(r.CurrentRate),
		"TARGET_RATE":   money(r.TargetRate),
		"RATE_CHANGE":   formatNumber(in.RateIncreasePercent),
		"COMPLEXITY":    orDefault(string(r.Complexity), string(fit.Medium)),
		"STRATEGY":      in.Strategy,
		"ALTERNATIVES":  strings.Join(in.Alternatives, "; "),
		"JUSTIFICATION": bulletList(in.JustificationPoints),
	}
}

func (r NegotiationRequest) insights(string) any {
	return r.derive()
}

func (r NegotiationRequest) derive() NegotiationInsights {
	increase := (r.TargetRate - r.CurrentRate) / r.CurrentRate * 100
	strategy, probability := NegotiationStrategy(increase)

	return NegotiationInsights{
		CurrentRate:         r.CurrentRate,
		TargetRate:          r.TargetRate,
		RateIncreasePercent: round1(increase),
		Strategy:            strategy,
		SuccessProbability:  probability,
		Alternatives: []string{
			fmt.Sprintf("Offer trial rate of $%.2f/hr for first 10 hours", (r.CurrentRate+r.TargetRate)/2),
			"Suggest performance bonus structure",
			"Propose higher rate for rush deliveries or after-hours work",
		},
		JustificationPoints: r.justification(),
	}
}

// NegotiationStrategy picks the approach and its odds for a requested increase in percent.
func NegotiationStrategy(increase float64) (strategy, probability string) {
	switch {
	case increase <= 20:
		return "Direct approach - reasonable increase", "High (70-80%)"
	case increase <= 50:
		return "Value-focused approach - emphasize unique skills", "Medium (40-60%)"
	default:
		return "Gradual approach - suggest trial period or bonus structure", "Low (20-40%)"
	}
}

// OptimizationRequest asks for improvements to a profile.
type OptimizationRequest struct {
	Profile fit.Profile `json:"profile" mapstructure:"profile"`
	Title   string      `json:"title,omitempty" mapstructure:"title"`
	// SuccessRate in percent; nil when the freelancer has no history yet.
	SuccessRate *float64 `json:"success_rate,omitempty" mapstructure:"success_rate" validate:"omitempty,gte=0,lte=100"`
	TargetNiche string   `json:"target_niche,omitempty" mapstructure:"target_niche"`
}

// OptimizationInsights are the deterministic parts of a profile optimisation advisory.
type OptimizationInsights struct {
	MarketAverageRate         float64  `json:"market_average_rate"`
	RateBelowMarket           bool     `json:"rate_below_market"`
	HotSkills                 []string `json:"hot_skills"`
	MissingHotSkills          []string `json:"missing_hot_skills"`
	SuccessRateTarget         float64  `json:"success_rate_target"`
	PortfolioItemsRecommended int      `json:"portfolio_items_recommended"`
	TargetNiche               string   `json:"target_niche"`
	ActionItems               []string `json:"action_items"`
	NextSteps                 []string `json:"next_steps"`
}

func (OptimizationRequest) Kind() Kind { return KindProfileOptimization }

func (r OptimizationRequest) validate(op string) error {
	if err := fit.ValidateProfile(op, r.Profile); err != nil {
		return err
	}
	return validate.Struct(op, apperr.InvalidInput, r)
}

func (OptimizationRequest) template() string { return "profile_optimization.md" }

func (r OptimizationRequest) niche() string {
	return orDefault(sanitizeLine(r.TargetNiche, maxFieldRunes), DefaultNiche)
}

func (r OptimizationRequest) fields() map[string]string {
	successRate := "unknown"
	if r.SuccessRate != nil {
		successRate = formatNumber(*r.SuccessRate) + "%"
	}

	return map[string]string{
		"MARKET_RATE":        money(MarketAverageRate),
		"PROFILE_TITLE":      orDefault(sanitizeLine(r.Title, maxFieldRunes), "not provided"),
		"PROFILE_SKILLS":     joinOrNone(sanitizeList(r.Profile.Skills)),
		"PROFILE_RATE":       money(r.Profile.HourlyRate) + "/hr",
		"PROFILE_YEARS":      formatNumber(r.Profile.YearsExperience),
		"SUCCESS_RATE":       successRate,
		"TARGET_NICHE":       r.niche(),
		"MISSING_HOT_SKILLS": joinOrNone(missingHotSkills(r.Profile.Skills)),
	}
}

func (r OptimizationRequest) insights(string) any {
	missing := missingHotSkills(r.Profile.Skills)
	belowMarket := r.Profile.HourlyRate < MarketAverageRate*0.8

	actions := []string{}
	if belowMarket {
		actions = append(actions, fmt.Sprintf("Consider increasing rates - market average is $%g/hr", MarketAverageRate))
	}
	if len(missing) > 0 {
		actions = append(actions, "Consider learning: "+strings.Join(missing[:min(3, len(missing))], ", "))
	}
	if r.SuccessRate != nil && *r.SuccessRate < SuccessRateTarget {
		actions = append(actions, "Focus on improving success rate to 95%+ for better visibility")
	}

	return OptimizationInsights{
		MarketAverageRate:         MarketAverageRate,
		RateBelowMarket:           belowMarket,
		HotSkills:                 HotSkills,
		MissingHotSkills:          missing,
		SuccessRateTarget:         SuccessRateTarget,
		PortfolioItemsRecommended: PortfolioItemsRecommended,
		TargetNiche:               r.niche(),
		ActionItems:               actions,
		NextSteps: []string{
			"Update profile title and description",
			"Add 2-3 portfolio pieces showcasing best work",
			"Consider obtaining relevant certifications",
			"Set up automated bid responses for matching gigs",
		},
	}
}

func missingHotSkills(skills []string) []string {
	have := make(map[string]struct{}, len(skills))
	for _, s := range skills {
		have[strings.ToLower(strings.TrimSpace(s))] = struct{}{}
	}

	missing := []string{}
	for _, hot := range HotSkills {
		if _, ok := have[strings.ToLower(hot)]; !ok {
			missing = append(missing, hot)
		}
	}
	return missing
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(round1(v), 'f', -1, 64)
}
