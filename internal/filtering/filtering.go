package filtering

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/fit"
)

// Filter represents a single filtering step applied to gigs.
type Filter interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(cfg *Config) error
	Apply(ctx context.Context, deps Deps, gigs Gigs) (Gigs, Step, error)
}

// Deps aggregates dependencies shared across all filtering steps.
type Deps struct {
	Logger *zap.Logger
}

// Step describes the result of executing a filtering step.
type Step struct {
	Initial int `json:"initial"`
	Dropped int `json:"dropped"`
	Left    int `json:"left"`
}

// Report is the outcome of one executed step.
type Report struct {
	Name string `json:"name"`
	Step
}

// Config contains the criteria consumed by the filters. Zero values disable a criterion.
type Config struct {
	Platforms       []string        `json:"platforms,omitempty" mapstructure:"platforms"`
	ProjectType     fit.ProjectType `json:"project_type,omitempty" mapstructure:"project_type" validate:"omitempty,oneof=fixed_price hourly"`
	MinBudget       float64         `json:"min_budget,omitempty" mapstructure:"min_budget" validate:"gte=0"`
	MaxBudget       float64         `json:"max_budget,omitempty" mapstructure:"max_budget" validate:"gte=0"`
	MinClientRating float64         `json:"min_client_rating,omitempty" mapstructure:"min_client_rating" validate:"gte=0,lte=5"`
	MaxProposals    int             `json:"max_proposals,omitempty" mapstructure:"max_proposals" validate:"gte=0"`
	// ExcludeFile is a YAML list of gig ids. It is only settable from local config.
	ExcludeFile string `json:"-" mapstructure:"exclude-file"`
}

// Status represents runtime information about a filter.
type Status struct {
	Name    string            `json:"name"`
	Enabled bool              `json:"enabled"`
	Reason  string            `json:"reason,omitempty"`
	Details map[string]string `json:"details,omitempty"`
}

// statusProvider is implemented by filters that can supply detailed status information.
type statusProvider interface {
	Status() Status
}

// Default returns the standard filter chain in execution order.
func Default() []Filter {
	return []Filter{
		NewExcludeFile(),
		NewPlatforms(),
		NewProjectType(),
		NewBudget(),
		NewClientRating(),
		NewCompetition(),
	}
}

// DisableByName marks a filter with the provided name as disabled while keeping it in the list.
func DisableByName(steps []Filter, name, reason string) {
	for _, step := range steps {
		if step.Name() == name {
			step.Disable(reason)
		}
	}
}

// Run executes the supplied filters sequentially, returning the remaining gigs and a
// report per executed step.
func Run(ctx context.Context, cfg *Config, deps Deps, steps []Filter, gigs Gigs) (Gigs, []Report, error) {
	if cfg == nil {
		cfg = &Config{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	for _, step := range steps {
		if !step.IsEnabled() {
			continue
		}
		if err := step.Validate(cfg); err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}
	}

	reports := make([]Report, 0, len(steps))
	for _, step := range steps {
		if !step.IsEnabled() {
			deps.Logger.Debug("filter disabled", zap.String("name", step.Name()))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		next, info, err := step.Apply(ctx, deps, gigs)
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", step.Name(), err)
		}

		deps.Logger.Debug("filter step",
			zap.String("name", step.Name()),
			zap.Int("initial", info.Initial),
			zap.Int("dropped", info.Dropped),
			zap.Int("left", info.Left),
		)

		gigs = next
		reports = append(reports, Report{Name: step.Name(), Step: info})
	}

	return gigs, reports, nil
}

// Describe returns status entries for the provided filters.
func Describe(steps []Filter) []Status {
	statuses := make([]Status, 0, len(steps))
	for _, step := range steps {
		if reporter, ok := step.(statusProvider); ok {
			statuses = append(statuses, reporter.Status())
			continue
		}

		statuses = append(statuses, Status{
			Name:    step.Name(),
			Enabled: step.IsEnabled(),
		})
	}
	return statuses
}
