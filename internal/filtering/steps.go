package filtering

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spigell/gig-assistant/internal/fit"
)

type excludeFileFilter struct {
	path string
}

// NewExcludeFile creates a filter that removes gigs listed in the exclude file.
func NewExcludeFile() Filter {
	return &excludeFileFilter{}
}

func (f *excludeFileFilter) Name() string { return "exclude_file" }

func (f *excludeFileFilter) Disable(string) {}

func (f *excludeFileFilter) IsEnabled() bool { return true }

func (f *excludeFileFilter) Validate(cfg *Config) error {
	f.path = strings.TrimSpace(cfg.ExcludeFile)
	return nil
}

func (f *excludeFileFilter) Apply(_ context.Context, deps Deps, gigs Gigs) (Gigs, Step, error) {
	initial := gigs.Len()
	if f.path == "" {
		return gigs, Step{Initial: initial, Dropped: 0, Left: gigs.Len()}, nil
	}

	ids, err := readExcludedIDs(f.path)
	if err != nil {
		return gigs, Step{}, fmt.Errorf("getting excluded gigs from file: %w", err)
	}

	left, removed := gigs.Exclude(func(g fit.Gig) bool {
		_, ok := ids[g.ID]
		return ok
	})
	if len(removed) > 0 {
		deps.Logger.Info("excluding gigs based on exclude file",
			zap.String("path", f.path),
			zap.Strings("excluded_gigs", removed),
			zap.Int("gigs_left", left.Len()),
		)
	}

	return left, Step{Initial: initial, Dropped: len(removed), Left: left.Len()}, nil
}

func (f *excludeFileFilter) Status() Status {
	details := map[string]string{}
	if f.path != "" {
		details["path"] = f.path
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

// readExcludedIDs loads a YAML sequence of gig ids. A missing file excludes nothing.
func readExcludedIDs(path string) (map[string]struct{}, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]struct{}{}, nil
	}
	if err != nil {
		return nil, err
	}

	var list []string
	if err := yaml.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	ids := make(map[string]struct{}, len(list))
	for _, id := range list {
		if id = strings.TrimSpace(id); id != "" {
			ids[id] = struct{}{}
		}
	}
	return ids, nil
}

type platformsFilter struct {
	platforms []string
}

// NewPlatforms creates a filter that keeps gigs from the configured platforms.
func NewPlatforms() Filter {
	return &platformsFilter{}
}

func (f *platformsFilter) Name() string { return "platforms" }

func (f *platformsFilter) Disable(string) {}

func (f *platformsFilter) IsEnabled() bool { return true }

func (f *platformsFilter) Validate(cfg *Config) error {
	f.platforms = nil
	for _, p := range cfg.Platforms {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			f.platforms = append(f.platforms, p)
		}
	}
	return nil
}

func (f *platformsFilter) Apply(_ context.Context, deps Deps, gigs Gigs) (Gigs, Step, error) {
	initial := gigs.Len()
	if len(f.platforms) == 0 {
		return gigs, Step{Initial: initial, Dropped: 0, Left: gigs.Len()}, nil
	}

	left, excluded := gigs.Exclude(func(g fit.Gig) bool {
		platform := strings.ToLower(strings.TrimSpace(g.Platform))
		for _, p := range f.platforms {
			if p == platform {
				return false
			}
		}
		return true
	})
	if len(excluded) > 0 {
		deps.Logger.Debug("excluding gigs from other platforms",
			zap.Strings("platforms", f.platforms),
			zap.Strings("excluded_gigs", excluded),
		)
	}

	return left, Step{Initial: initial, Dropped: len(excluded), Left: left.Len()}, nil
}

func (f *platformsFilter) Status() Status {
	details := map[string]string{}
	if len(f.platforms) > 0 {
		details["platforms"] = strings.Join(f.platforms, ",")
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type projectTypeFilter struct {
	projectType fit.ProjectType
}

// NewProjectType creates a filter that keeps gigs of the configured project type.
func NewProjectType() Filter {
	return &projectTypeFilter{}
}

func (f *projectTypeFilter) Name() string { return "project_type" }

func (f *projectTypeFilter) Disable(string) {}

func (f *projectTypeFilter) IsEnabled() bool { return true }

func (f *projectTypeFilter) Validate(cfg *Config) error {
	f.projectType = fit.ProjectType(strings.ToLower(strings.TrimSpace(string(cfg.ProjectType))))
	switch f.projectType {
	case "", fit.FixedPrice, fit.Hourly:
		return nil
	default:
		return fmt.Errorf("unknown project type %q", cfg.ProjectType)
	}
}

func (f *projectTypeFilter) Apply(_ context.Context, _ Deps, gigs Gigs) (Gigs, Step, error) {
	initial := gigs.Len()
	if f.projectType == "" {
		return gigs, Step{Initial: initial, Dropped: 0, Left: gigs.Len()}, nil
	}

	left, excluded := gigs.Exclude(func(g fit.Gig) bool {
		return g.ProjectType != f.projectType
	})
	return left, Step{Initial: initial, Dropped: len(excluded), Left: left.Len()}, nil
}

func (f *projectTypeFilter) Status() Status {
	details := map[string]string{}
	if f.projectType != "" {
		details["project_type"] = string(f.projectType)
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type budgetFilter struct {
	min float64
	max float64
}

// NewBudget creates a filter that keeps gigs whose budget lies within the configured bounds.
func NewBudget() Filter {
	return &budgetFilter{}
}

func (f *budgetFilter) Name() string { return "budget" }

func (f *budgetFilter) Disable(string) {}

func (f *budgetFilter) IsEnabled() bool { return true }

func (f *budgetFilter) Validate(cfg *Config) error {
	f.min, f.max = cfg.MinBudget, cfg.MaxBudget
	if f.min < 0 || f.max < 0 {
		return errors.New("budget bounds must not be negative")
	}
	if f.max > 0 && f.min > f.max {
		return fmt.Errorf("min budget %.2f exceeds max budget %.2f", f.min, f.max)
	}
	return nil
}

func (f *budgetFilter) Apply(_ context.Context, _ Deps, gigs Gigs) (Gigs, Step, error) {
	initial := gigs.Len()
	if f.min == 0 && f.max == 0 {
		return gigs, Step{Initial: initial, Dropped: 0, Left: gigs.Len()}, nil
	}

	left, excluded := gigs.Exclude(func(g fit.Gig) bool {
		if f.max > 0 && g.Budget > f.max {
			return true
		}
		return f.min > 0 && g.Budget < f.min
	})
	return left, Step{Initial: initial, Dropped: len(excluded), Left: left.Len()}, nil
}

func (f *budgetFilter) Status() Status {
	details := map[string]string{}
	if f.min > 0 {
		details["min"] = strconv.FormatFloat(f.min, 'f', -1, 64)
	}
	if f.max > 0 {
		details["max"] = strconv.FormatFloat(f.max, 'f', -1, 64)
	}
	return Status{Name: f.Name(), Enabled: true, Details: details}
}

type clientRatingFilter struct {
	min float64
}

// NewClientRating creates a filter that removes gigs from clients rated below the minimum.
// Gigs without a rating are kept.
func NewClientRating() Filter {
	return &clientRatingFilter{}
}

func (f *clientRatingFilter) Name() string { return "client_rating" }

func (f *clientRatingFilter) Disable(string) {}

func (f *clientRatingFilter) IsEnabled() bool { return true }

func (f *clientRatingFilter) Validate(cfg *Config) error {
	f.min = cfg.MinClientRating
	return nil
}

func (f *clientRatingFilter) Apply(_ context.Context, _ Deps, gigs Gigs) (Gigs, Step, error) {
	initial := gigs.Len()
	if f.min == 0 {
		return gigs, Step{Initial: initial, Dropped: 0, Left: gigs.Len()}, nil
	}

	left, excluded := gigs.Exclude(func(g fit.Gig) bool {
		return g.ClientRating > 0 && g.ClientRating < f.min
	})
	return left, Step{Initial: initial, Dropped: len(excluded), Left: left.Len()}, nil
}

type competitionFilter struct {
	disabled     bool
	reason       string
	maxProposals int
}

// NewCompetition creates a filter that removes gigs that already drew too many proposals.
func NewCompetition() Filter {
	return &competitionFilter{}
}

func (f *competitionFilter) Name() string { return "competition" }

func (f *competitionFilter) Disable(reason string) {
	f.disabled = true
	f.reason = reason
}

func (f *competitionFilter) IsEnabled() bool { return !f.disabled }

func (f *competitionFilter) Validate(cfg *Config) error {
	f.maxProposals = cfg.MaxProposals
	return nil
}

func (f *competitionFilter) Apply(_ context.Context, deps Deps, gigs Gigs) (Gigs, Step, error) {
	initial := gigs.Len()
	if f.maxProposals == 0 {
		return gigs, Step{Initial: initial, Dropped: 0, Left: gigs.Len()}, nil
	}

	left, excluded := gigs.Exclude(func(g fit.Gig) bool {
		return g.ProposalsCount > f.maxProposals
	})
	if len(excluded) > 0 {
		deps.Logger.Debug("excluding crowded gigs",
			zap.Int("max_proposals", f.maxProposals),
			zap.Strings("excluded_gigs", excluded),
		)
	}

	return left, Step{Initial: initial, Dropped: len(excluded), Left: left.Len()}, nil
}

func (f *competitionFilter) Status() Status {
	details := map[string]string{}
	if f.maxProposals > 0 {
		details["max_proposals"] = strconv.Itoa(f.maxProposals)
	}
	return Status{Name: f.Name(), Enabled: f.IsEnabled(), Reason: f.reason, Details: details}
}
