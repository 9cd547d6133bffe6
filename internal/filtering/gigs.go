package filtering

import (
	"github.com/spigell/gig-assistant/internal/fit"
)

// Gigs is the list a filter chain narrows down.
type Gigs []fit.Gig

func (g Gigs) Len() int {
	return len(g)
}

// IDs returns the gig ids in order.
func (g Gigs) IDs() []string {
	ids := make([]string, 0, len(g))
	for _, gig := range g {
		ids = append(ids, gig.ID)
	}
	return ids
}

// Exclude drops every gig matching drop and returns what is left plus the dropped ids.
// The receiver is not modified.
func (g Gigs) Exclude(drop func(fit.Gig) bool) (Gigs, []string) {
	kept := make(Gigs, 0, len(g))
	var dropped []string
	for _, gig := range g {
		if drop(gig) {
			dropped = append(dropped, gig.ID)
			continue
		}
		kept = append(kept, gig)
	}
	return kept, dropped
}
