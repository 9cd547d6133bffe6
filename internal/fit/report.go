package fit

// Report explains a fit score in terms a freelancer can act on.
type Report struct {
	GigID            string    `json:"gig_id,omitempty"`
	GigTitle         string    `json:"gig_title,omitempty"`
	Score            *FitScore `json:"score"`
	MatchedSkills    []string  `json:"skill_matches"`
	MissingSkills    []string  `json:"missing_skills"`
	Recommendation   string    `json:"recommendation"`
	CompetitionLevel string    `json:"competition_level"`
	ClientQuality    string    `json:"client_quality"`
}

// Analyze scores profile against gig and derives the recommendation, competition level
// and client quality.
func Analyze(profile Profile, gig Gig) (*Report, error) {
	const op = "analyze_fit"

	if err := ValidateProfile(op, profile); err != nil {
		return nil, err
	}
	if err := ValidateGig(op, gig); err != nil {
		return nil, err
	}

	s := score(profile, gig)
	matched, missing := compareSkills(profile.Skills, gig.RequiredSkills)

	return &Report{
		GigID:            gig.ID,
		GigTitle:         gig.Title,
		Score:            s,
		MatchedSkills:    matched,
		MissingSkills:    missing,
		Recommendation:   Recommendation(s.Overall),
		CompetitionLevel: CompetitionLevel(gig.ProposalsCount),
		ClientQuality:    ClientQuality(gig.ClientRating),
	}, nil
}

// Recommendation maps an overall score to advice.
func Recommendation(overall int) string {
	switch {
	case overall >= 80:
		return "Excellent match! Apply immediately."
	case overall >= 60:
		return "Good match. Consider applying with emphasis on transferable skills."
	case overall >= 40:
		return "Moderate match. May require additional learning or lower rate."
	default:
		return "Poor match. Consider focusing on better-aligned opportunities."
	}
}

// CompetitionLevel buckets the number of proposals already submitted.
func CompetitionLevel(proposals int) string {
	switch {
	case proposals > 15:
		return "High"
	case proposals > 5:
		return "Medium"
	default:
		return "Low"
	}
}

// ClientQuality buckets a client rating on a five point scale.
func ClientQuality(rating float64) string {
	switch {
	case rating > 4.5:
		return "Excellent"
	case rating > 4.0:
		return "Good"
	default:
		return "Average"
	}
}
