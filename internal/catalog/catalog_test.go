package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/fit"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadProfileYAML(t *testing.T) {
	path := writeFile(t, "profile.yaml", `
name: Ann Lee
title: Backend engineer
success_rate: 97.5
skills: [Go, PostgreSQL, Docker]
hourly_rate: 45
years_experience: 6
portfolio_score: 0.8
`)

	p, err := LoadProfile(path)
	require.NoError(t, err)

	assert.Equal(t, "Ann Lee", p.Name)
	assert.Equal(t, "Backend engineer", p.Title)
	require.NotNil(t, p.SuccessRate)
	assert.Equal(t, 97.5, *p.SuccessRate)
	assert.Equal(t, fit.Profile{
		Skills:          []string{"Go", "PostgreSQL", "Docker"},
		HourlyRate:      45,
		YearsExperience: 6,
		PortfolioScore:  0.8,
	}, p.Profile)
}

func TestLoadProfileJSON(t *testing.T) {
	path := writeFile(t, "profile.json", `{"skills": ["python"], "hourly_rate": 30, "portfolio_score": 0.5}`)

	p, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"python"}, p.Skills)
	assert.Nil(t, p.SuccessRate)
}

func TestLoadProfileInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		kind    apperr.Kind
		subject string
	}{
		{"zero rate", "skills: [go]\nhourly_rate: 0\n", apperr.InvalidProfile, "hourly_rate"},
		{"portfolio above one", "skills: [go]\nhourly_rate: 10\nportfolio_score: 2\n", apperr.InvalidProfile, "portfolio_score"},
		{"success rate", "skills: [go]\nhourly_rate: 10\nsuccess_rate: 101\n", apperr.InvalidProfile, "success_rate"},
		{"not yaml", "skills: [go\n", apperr.InvalidInput, ""},
		{"empty", "", apperr.InvalidInput, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadProfile(writeFile(t, "profile.yaml", tt.content))

			var tagged *apperr.Error
			require.True(t, errors.As(err, &tagged), "expected tagged error, got %v", err)
			assert.Equal(t, tt.kind, tagged.Kind)
			if tt.subject != "" {
				assert.Equal(t, tt.subject, tagged.Subject)
			}
		})
	}
}

func TestLoadProfileMissing(t *testing.T) {
	_, err := LoadProfile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.True(t, apperr.Is(err, apperr.NotFound))
}

func TestLoadGigs(t *testing.T) {
	listing := `
gigs:
  - id: gig_100
    title: Payment service
    platform: upwork
    required_skills: [Go, Kafka]
    budget: 1500
    project_type: fixed_price
    complexity: high
  - title: Dashboard
    required_skills: [React]
    budget: 60
    project_type: hourly
`
	gigs, err := LoadGigs(writeFile(t, "gigs.yaml", listing))
	require.NoError(t, err)
	require.Len(t, gigs, 2)

	assert.Equal(t, "gig_100", gigs[0].ID)
	assert.Equal(t, fit.High, gigs[0].Complexity)
	assert.Equal(t, "gig_002", gigs[1].ID)
	assert.Equal(t, fit.Hourly, gigs[1].ProjectType)

	sequence := `[{"id": "a", "required_skills": ["go"], "budget": 10, "project_type": "hourly"}]`
	gigs, err = LoadGigs(writeFile(t, "gigs.json", sequence))
	require.NoError(t, err)
	assert.Equal(t, []string{"go"}, gigs[0].RequiredSkills)
}

func TestLoadGigsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		subject string
	}{
		{
			"bad project type",
			"- {id: a, required_skills: [go], project_type: hourly}\n- {id: b, required_skills: [go], project_type: contest}\n",
			"gigs[1].project_type",
		},
		{
			"duplicate id",
			"- {id: a, required_skills: [go], project_type: hourly}\n- {id: a, required_skills: [go], project_type: hourly}\n",
			"gigs[1].id",
		},
		{"no gigs key", "items: []\n", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadGigs(writeFile(t, "gigs.yaml", tt.content))

			var tagged *apperr.Error
			require.True(t, errors.As(err, &tagged), "expected tagged error, got %v", err)
			assert.Equal(t, apperr.InvalidGig, tagged.Kind)
			assert.Equal(t, "load_gigs", tagged.Op)
			if tt.subject != "" {
				assert.Equal(t, tt.subject, tagged.Subject)
			}
		})
	}
}

func TestLoadApplications(t *testing.T) {
	path := writeFile(t, "apps.yaml", `
applications:
  - gig_id: gig_001
    platform: upwork
    status: hired
    applied_date: "2026-01-01"
    response_date: "2026-01-03"
`)

	apps, err := LoadApplications(path)
	require.NoError(t, err)
	require.Len(t, apps, 1)
	assert.Equal(t, "hired", apps[0].Status)
	assert.Equal(t, "2026-01-03", apps[0].ResponseDate)
}
