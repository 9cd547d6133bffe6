package fit

import (
	"context"
	"fmt"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/spigell/gig-assistant/internal/apperr"
)

// DefaultRankLimit is used when Rank is called without a positive limit.
const DefaultRankLimit = 10

// Ranked pairs a gig with its score.
type Ranked struct {
	Gig           Gig       `json:"gig"`
	Score         *FitScore `json:"score"`
	MatchedSkills []string  `json:"skill_matches"`
}

// Rank scores every gig against profile concurrently and returns the best matches.
// Gigs sharing no skill with the profile are dropped. Ties are broken by gig ID.
func Rank(ctx context.Context, profile Profile, gigs []Gig, limit int) ([]Ranked, error) {
	const op = "rank"

	if err := ValidateProfile(op, profile); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRankLimit
	}

	results := make([]*Ranked, len(gigs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))

	for i, gig := range gigs {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := ValidateGig(op, gig); err != nil {
				return qualify(err, i, gig.ID)
			}

			s := score(profile, gig)
			if s.SkillMatchRatio == 0 {
				return nil
			}

			matched, _ := compareSkills(profile.Skills, gig.RequiredSkills)
			results[i] = &Ranked{Gig: gig, Score: s, MatchedSkills: matched}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	ranked := make([]Ranked, 0, len(gigs))
	for _, r := range results {
		if r != nil {
			ranked = append(ranked, *r)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score.Overall != ranked[j].Score.Overall {
			return ranked[i].Score.Overall > ranked[j].Score.Overall
		}
		return ranked[i].Gig.ID < ranked[j].Gig.ID
	})

	if len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked, nil
}

// qualify prefixes the offending field with the gig's position so the caller can find it.
func qualify(err error, index int, id string) error {
	ref := fmt.Sprintf("gigs[%d]", index)
	if id != "" {
		ref = fmt.Sprintf("gigs[%d](%s)", index, id)
	}
	return apperr.Qualify(err, ref)
}
