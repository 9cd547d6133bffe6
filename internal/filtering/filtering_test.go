package filtering

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/gig-assistant/internal/fit"
)

func sampleGigs() Gigs {
	return Gigs{
		{ID: "gig_001", Platform: "Upwork", ProjectType: fit.FixedPrice, Budget: 1500, ClientRating: 4.8, ProposalsCount: 12},
		{ID: "gig_002", Platform: "fiverr", ProjectType: fit.Hourly, Budget: 45, ClientRating: 3.9, ProposalsCount: 3},
		{ID: "gig_003", Platform: "toptal", ProjectType: fit.Hourly, Budget: 120, ProposalsCount: 30},
		{ID: "gig_004", Platform: "upwork", ProjectType: fit.FixedPrice, Budget: 400, ClientRating: 4.2},
	}
}

func TestRunCriteria(t *testing.T) {
	tests := []struct {
		name string
		cfg  Config
		want []string
	}{
		{"no criteria", Config{}, []string{"gig_001", "gig_002", "gig_003", "gig_004"}},
		{"platforms case insensitive", Config{Platforms: []string{" UPWORK "}}, []string{"gig_001", "gig_004"}},
		{"project type", Config{ProjectType: fit.Hourly}, []string{"gig_002", "gig_003"}},
		{"max budget", Config{MaxBudget: 500}, []string{"gig_002", "gig_003", "gig_004"}},
		{"min budget", Config{MinBudget: 100}, []string{"gig_001", "gig_003", "gig_004"}},
		{"client rating keeps unrated", Config{MinClientRating: 4}, []string{"gig_001", "gig_003", "gig_004"}},
		{"competition", Config{MaxProposals: 10}, []string{"gig_002", "gig_004"}},
		{"combined", Config{Platforms: []string{"upwork"}, MaxBudget: 1000}, []string{"gig_004"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			left, reports, err := Run(context.Background(), &tt.cfg, Deps{}, Default(), sampleGigs())
			require.NoError(t, err)

			assert.Equal(t, tt.want, left.IDs())
			require.Len(t, reports, len(Default()))
			assert.Equal(t, 4, reports[0].Initial)
			assert.Equal(t, len(tt.want), reports[len(reports)-1].Left)
		})
	}
}

func TestRunDoesNotModifyInput(t *testing.T) {
	gigs := sampleGigs()
	_, _, err := Run(context.Background(), &Config{MaxBudget: 100}, Deps{}, Default(), gigs)
	require.NoError(t, err)
	assert.Equal(t, sampleGigs(), gigs)
}

func TestRunValidation(t *testing.T) {
	_, _, err := Run(context.Background(), &Config{MinBudget: 500, MaxBudget: 100}, Deps{}, Default(), sampleGigs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "budget")

	_, _, err = Run(context.Background(), &Config{ProjectType: "contest"}, Deps{}, Default(), sampleGigs())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project_type")
}

func TestDisabledFilterIsSkipped(t *testing.T) {
	core, observed := observer.New(zapcore.DebugLevel)
	steps := Default()
	DisableByName(steps, "competition", "requested")

	left, reports, err := Run(context.Background(), &Config{MaxProposals: 1}, Deps{Logger: zap.New(core)}, steps, sampleGigs())
	require.NoError(t, err)

	assert.Len(t, left, 4)
	assert.Len(t, reports, len(steps)-1)
	assert.Equal(t, 1, observed.FilterMessage("filter disabled").Len())

	for _, status := range Describe(steps) {
		if status.Name == "competition" {
			assert.False(t, status.Enabled)
			assert.Equal(t, "requested", status.Reason)
		}
	}
}

func TestExcludeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "exclude.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- gig_002\n- gig_004\n"), 0o600))

	left, reports, err := Run(context.Background(), &Config{ExcludeFile: path}, Deps{}, Default(), sampleGigs())
	require.NoError(t, err)
	assert.Equal(t, []string{"gig_001", "gig_003"}, left.IDs())
	assert.Equal(t, Report{Name: "exclude_file", Step: Step{Initial: 4, Dropped: 2, Left: 2}}, reports[0])

	missing := filepath.Join(dir, "missing.yaml")
	left, _, err = Run(context.Background(), &Config{ExcludeFile: missing}, Deps{}, Default(), sampleGigs())
	require.NoError(t, err)
	assert.Len(t, left, 4)

	require.NoError(t, os.WriteFile(path, []byte("ids: [broken"), 0o600))
	_, _, err = Run(context.Background(), &Config{ExcludeFile: path}, Deps{}, Default(), sampleGigs())
	require.Error(t, err)
}

func TestRunHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := Run(ctx, nil, Deps{}, Default(), sampleGigs())
	require.ErrorIs(t, err, context.Canceled)
}
