// Package fit scores how well a freelancer profile matches a gig posting. Scores are
// pure functions of their inputs and carry a per-criterion breakdown.
package fit

import (
	"math"
	"strings"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/validate"
)

// ProjectType is how a gig is paid.
type ProjectType string

const (
	FixedPrice ProjectType = "fixed_price"
	Hourly     ProjectType = "hourly"
)

// Complexity tier of a gig. The empty value is treated as Medium.
type Complexity string

const (
	Low    Complexity = "low"
	Medium Complexity = "medium"
	High   Complexity = "high"
)

func (c Complexity) orDefault() Complexity {
	if c == "" {
		return Medium
	}
	return c
}

// Profile describes a freelancer.
type Profile struct {
	Skills                   []string `json:"skills" yaml:"skills" mapstructure:"skills" validate:"dive,required"`
	HourlyRate               float64  `json:"hourly_rate" yaml:"hourly_rate" mapstructure:"hourly_rate" validate:"gt=0"`
	YearsExperience          float64  `json:"years_experience" yaml:"years_experience" mapstructure:"years_experience" validate:"gte=0"`
	PortfolioScore           float64  `json:"portfolio_score" yaml:"portfolio_score" mapstructure:"portfolio_score" validate:"gte=0,lte=1"`
	AvailabilityHoursPerWeek float64  `json:"availability_hours_per_week" yaml:"availability_hours_per_week" mapstructure:"availability_hours_per_week" validate:"gte=0"`
}

// Gig describes a posting. Budget is the total for fixed price gigs and the hourly
// ceiling for hourly ones.
type Gig struct {
	ID             string      `json:"id,omitempty" yaml:"id" mapstructure:"id"`
	Title          string      `json:"title,omitempty" yaml:"title" mapstructure:"title"`
	Description    string      `json:"description,omitempty" yaml:"description" mapstructure:"description"`
	Platform       string      `json:"platform,omitempty" yaml:"platform" mapstructure:"platform"`
	RequiredSkills []string    `json:"required_skills" yaml:"required_skills" mapstructure:"required_skills" validate:"dive,required"`
	Budget         float64     `json:"budget" yaml:"budget" mapstructure:"budget" validate:"gte=0"`
	ProjectType    ProjectType `json:"project_type" yaml:"project_type" mapstructure:"project_type" validate:"required,oneof=fixed_price hourly"`
	Complexity     Complexity  `json:"complexity,omitempty" yaml:"complexity" mapstructure:"complexity" validate:"omitempty,oneof=low medium high"`
	ClientRating   float64     `json:"client_rating,omitempty" yaml:"client_rating" mapstructure:"client_rating" validate:"gte=0,lte=5"`
	ProposalsCount int         `json:"proposals_count,omitempty" yaml:"proposals_count" mapstructure:"proposals_count" validate:"gte=0"`
}

// Criterion names in breakdown order.
const (
	CriterionSkills     = "skill_match"
	CriterionBudget     = "budget_alignment"
	CriterionExperience = "experience"
	CriterionPortfolio  = "portfolio"
)

// Criterion is one weighted input of the overall score. Contribution is the raw
// criterion value in [0,1].
type Criterion struct {
	Name         string  `json:"criterion"`
	Weight       float64 `json:"weight"`
	Contribution float64 `json:"contribution"`
}

// FitScore is the result of Score. Overall is round(100 * Σ weight·contribution).
type FitScore struct {
	Overall         int         `json:"overall"`
	SkillMatchRatio float64     `json:"skill_match_ratio"`
	BudgetAlignment float64     `json:"budget_alignment"`
	Breakdown       []Criterion `json:"breakdown"`
}

// ValidateProfile reports the first invalid profile field.
func ValidateProfile(op string, p Profile) error {
	return validate.Struct(op, apperr.InvalidProfile, p)
}

// ValidateGig reports the first invalid gig field.
func ValidateGig(op string, g Gig) error {
	return validate.Struct(op, apperr.InvalidGig, g)
}

// Score computes the fit between profile and gig.
func Score(profile Profile, gig Gig) (*FitScore, error) {
	const op = "score"

	if err := ValidateProfile(op, profile); err != nil {
		return nil, err
	}
	if err := ValidateGig(op, gig); err != nil {
		return nil, err
	}

	return score(profile, gig), nil
}

func score(profile Profile, gig Gig) *FitScore {
	complexity := gig.Complexity.orDefault()
	w := weights[complexity]

	matched, _ := compareSkills(profile.Skills, gig.RequiredSkills)
	required := len(normalizeSkills(gig.RequiredSkills))

	skills := float64(len(matched)) / float64(max(1, required))
	budget := budgetAlignment(profile.HourlyRate, gig.Budget, gig.ProjectType, complexity)
	experience := experienceAdequacy(profile.YearsExperience, experienceThreshold[complexity])
	portfolio := profile.PortfolioScore

	breakdown := []Criterion{
		{Name: CriterionSkills, Weight: w.Skills, Contribution: skills},
		{Name: CriterionBudget, Weight: w.Budget, Contribution: budget},
		{Name: CriterionExperience, Weight: w.Experience, Contribution: experience},
		{Name: CriterionPortfolio, Weight: w.Portfolio, Contribution: portfolio},
	}

	return &FitScore{
		Overall:         overall(breakdown),
		SkillMatchRatio: skills,
		BudgetAlignment: budget,
		Breakdown:       breakdown,
	}
}

// overall rounds half up. The epsilon keeps exact halves that float arithmetic lands
// just below from rounding down.
func overall(breakdown []Criterion) int {
	sum := 0.0
	for _, c := range breakdown {
		sum += c.Weight * c.Contribution
	}
	return int(math.Floor(100*sum + 0.5 + 1e-9))
}

func budgetAlignment(rate, budget float64, projectType ProjectType, complexity Complexity) float64 {
	if projectType == Hourly {
		if budget >= rate {
			return 1
		}
		half := rate / 2
		return clamp((budget-half)/half, 0, 1)
	}

	implied := budget / assumedHours[complexity]
	return 1 - clamp(math.Abs(implied-rate)/rate, 0, 1)
}

// experienceAdequacy grows linearly to 0.8 at the threshold, then approaches 1 with
// diminishing returns.
func experienceAdequacy(years, threshold float64) float64 {
	if years <= 0 {
		return 0
	}
	if years < threshold {
		return 0.8 * years / threshold
	}
	return 0.8 + 0.2*(1-math.Exp(-(years-threshold)/threshold))
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// normalizeSkills lowercases, trims and deduplicates, keeping first-seen order and the
// original spelling of each skill.
func normalizeSkills(skills []string) []skill {
	seen := make(map[string]bool, len(skills))
	out := make([]skill, 0, len(skills))
	for _, s := range skills {
		name := strings.TrimSpace(s)
		key := strings.ToLower(name)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, skill{key: key, name: name})
	}
	return out
}

type skill struct {
	key  string
	name string
}

// compareSkills splits the gig's required skills into those the profile has and
// those it lacks, in the gig's order.
func compareSkills(have, required []string) (matched, missing []string) {
	owned := make(map[string]bool, len(have))
	for _, s := range normalizeSkills(have) {
		owned[s.key] = true
	}

	matched = []string{}
	missing = []string{}
	for _, s := range normalizeSkills(required) {
		if owned[s.key] {
			matched = append(matched, s.name)
		} else {
			missing = append(missing, s.name)
		}
	}
	return matched, missing
}
