package tools

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/filtering"
	"github.com/spigell/gig-assistant/internal/fit"
	"github.com/spigell/gig-assistant/internal/utils"
	"github.com/spigell/gig-assistant/internal/validate"
)

const descriptionPreviewRunes = 200

// SearchInput ranks Gigs against Profile after applying Filters.
type SearchInput struct {
	Profile fit.Profile      `json:"profile"`
	Gigs    []fit.Gig        `json:"gigs" validate:"required"`
	Filters filtering.Config `json:"filters"`
	Limit   int              `json:"limit,omitempty" validate:"gte=0,lte=100"`
}

// SearchHit is one ranked gig.
type SearchHit struct {
	ID              string          `json:"id"`
	Platform        string          `json:"platform,omitempty"`
	Title           string          `json:"title,omitempty"`
	Description     string          `json:"description,omitempty"`
	Budget          string          `json:"budget"`
	ProjectType     fit.ProjectType `json:"project_type"`
	RequiredSkills  []string        `json:"skills_required"`
	MatchedSkills   []string        `json:"skill_matches"`
	MatchScore      int             `json:"match_score"`
	SkillMatchRatio float64         `json:"skill_match_ratio"`
	ProposalsCount  int             `json:"proposals_count"`
	ClientRating    float64         `json:"client_rating,omitempty"`
}

// SearchResult lists the best matches and what each filter removed.
type SearchResult struct {
	TotalFound int                `json:"total_found"`
	Gigs       []SearchHit        `json:"gigs"`
	Filters    []filtering.Report `json:"filters"`
}

// Search filters the supplied gigs, scores the rest concurrently and returns the best
// matches. Gigs sharing no skill with the profile are left out.
func (s *Service) Search(ctx context.Context, in SearchInput) (res *SearchResult, err error) {
	started := time.Now()
	defer func() {
		err = s.finish(OpSearch, started, err, zap.Int("gigs", len(in.Gigs)))
	}()

	if err := fit.ValidateProfile(OpSearch, in.Profile); err != nil {
		return nil, apperr.Qualify(err, "profile")
	}
	if err := validate.Struct(OpSearch, apperr.InvalidInput, in); err != nil {
		return nil, err
	}
	for i, gig := range in.Gigs {
		if err := fit.ValidateGig(OpSearch, gig); err != nil {
			return nil, apperr.Qualify(err, fmt.Sprintf("gigs[%d]", i))
		}
	}

	left, reports, err := filtering.Run(ctx, &in.Filters, filtering.Deps{Logger: s.log()}, filtering.Default(), filtering.Gigs(in.Gigs))
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, apperr.E(OpSearch, apperr.InvalidInput, "filters", err)
	}

	ranked, err := fit.Rank(ctx, in.Profile, left, in.Limit)
	if err != nil {
		return nil, err
	}

	hits := make([]SearchHit, 0, len(ranked))
	for _, r := range ranked {
		hits = append(hits, SearchHit{
			ID:              r.Gig.ID,
			Platform:        r.Gig.Platform,
			Title:           r.Gig.Title,
			Description:     utils.Truncate(r.Gig.Description, descriptionPreviewRunes),
			Budget:          budgetLabel(r.Gig),
			ProjectType:     r.Gig.ProjectType,
			RequiredSkills:  r.Gig.RequiredSkills,
			MatchedSkills:   r.MatchedSkills,
			MatchScore:      r.Score.Overall,
			SkillMatchRatio: r.Score.SkillMatchRatio,
			ProposalsCount:  r.Gig.ProposalsCount,
			ClientRating:    r.Gig.ClientRating,
		})
	}

	return &SearchResult{TotalFound: len(hits), Gigs: hits, Filters: reports}, nil
}

// FitInput pairs a profile with one gig.
type FitInput struct {
	Profile fit.Profile `json:"profile"`
	Gig     fit.Gig     `json:"gig"`
}

// AnalyzeFit scores one gig and explains the result.
func (s *Service) AnalyzeFit(_ context.Context, in FitInput) (report *fit.Report, err error) {
	started := time.Now()
	defer func() {
		err = s.finish(OpAnalyzeFit, started, err, zap.String("gig_id", in.Gig.ID))
	}()

	if err := fit.ValidateProfile(OpAnalyzeFit, in.Profile); err != nil {
		return nil, apperr.Qualify(err, "profile")
	}
	if err := fit.ValidateGig(OpAnalyzeFit, in.Gig); err != nil {
		return nil, apperr.Qualify(err, "gig")
	}

	return fit.Analyze(in.Profile, in.Gig)
}

func budgetLabel(g fit.Gig) string {
	if g.ProjectType == fit.Hourly {
		return fmt.Sprintf("$%.2f/hr", g.Budget)
	}
	return fmt.Sprintf("$%.2f", g.Budget)
}
