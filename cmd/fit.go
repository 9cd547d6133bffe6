package cmd

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/spigell/gig-assistant/internal/apperr"
	"github.com/spigell/gig-assistant/internal/catalog"
	"github.com/spigell/gig-assistant/internal/fit"
	"github.com/spigell/gig-assistant/internal/tools"
)

var fitCmd = &cobra.Command{
	Use:   "fit",
	Short: "Score how well the profile fits one gig",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := setup(cmd.Context(), "stderr")
		if err != nil {
			return err
		}
		defer env.logger.Sync()

		profile, err := catalog.LoadProfile(flagString(cmd, "profile"))
		if err != nil {
			return err
		}
		gig, err := pickGig(flagString(cmd, "gigs"), flagString(cmd, "gig"))
		if err != nil {
			return err
		}

		report, err := env.service.AnalyzeFit(cmd.Context(), tools.FitInput{Profile: profile.Profile, Gig: *gig})
		if err != nil {
			return err
		}

		return emit(cmd, report, func() { renderReport(cmd.OutOrStdout(), report) })
	},
}

var searchCmd = &cobra.Command{
	Use:   "search",
	Short: "Filter a gig listing and rank it by fit with the profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := setup(cmd.Context(), "stderr")
		if err != nil {
			return err
		}
		defer env.logger.Sync()

		profile, err := catalog.LoadProfile(flagString(cmd, "profile"))
		if err != nil {
			return err
		}
		gigs, err := catalog.LoadGigs(flagString(cmd, "gigs"))
		if err != nil {
			return err
		}

		filters := env.config.Filters
		flags := cmd.Flags()
		if flags.Changed("platform") {
			filters.Platforms, _ = flags.GetStringSlice("platform")
		}
		if flags.Changed("project-type") {
			filters.ProjectType = fit.ProjectType(flagString(cmd, "project-type"))
		}
		if flags.Changed("min-budget") {
			filters.MinBudget, _ = flags.GetFloat64("min-budget")
		}
		if flags.Changed("max-budget") {
			filters.MaxBudget, _ = flags.GetFloat64("max-budget")
		}
		if flags.Changed("min-client-rating") {
			filters.MinClientRating, _ = flags.GetFloat64("min-client-rating")
		}
		if flags.Changed("max-proposals") {
			filters.MaxProposals, _ = flags.GetInt("max-proposals")
		}
		if flags.Changed("exclude-file") {
			filters.ExcludeFile = flagString(cmd, "exclude-file")
		}
		limit, _ := flags.GetInt("limit")

		res, err := env.service.Search(cmd.Context(), tools.SearchInput{
			Profile: profile.Profile,
			Gigs:    gigs,
			Filters: filters,
			Limit:   limit,
		})
		if err != nil {
			return err
		}

		return emit(cmd, res, func() { renderSearch(cmd.OutOrStdout(), res) })
	},
}

func init() {
	rootCmd.AddCommand(fitCmd, searchCmd)

	for _, c := range []*cobra.Command{fitCmd, searchCmd} {
		c.Flags().StringP("profile", "p", "profile.yaml", "profile file (yaml or json)")
		c.Flags().StringP("gigs", "g", "gigs.yaml", "gig listing file (yaml or json)")
		addRawFlag(c)
	}

	fitCmd.Flags().String("gig", "", "id of the gig to score; may be omitted when the listing holds one gig")

	searchCmd.Flags().StringSlice("platform", nil, "keep only gigs from these platforms")
	searchCmd.Flags().String("project-type", "", "keep only fixed_price or hourly gigs")
	searchCmd.Flags().Float64("min-budget", 0, "minimum budget")
	searchCmd.Flags().Float64("max-budget", 0, "maximum budget")
	searchCmd.Flags().Float64("min-client-rating", 0, "minimum client rating; unrated clients are kept")
	searchCmd.Flags().Int("max-proposals", 0, "drop gigs with more proposals than this")
	searchCmd.Flags().StringP("exclude-file", "e", "", "yaml list of gig ids to skip")
	searchCmd.Flags().IntP("limit", "l", fit.DefaultRankLimit, "number of gigs to return")
}

// pickGig loads a listing and returns the gig with id, or the only gig when id is empty.
func pickGig(path, id string) (*fit.Gig, error) {
	const op = "pick_gig"

	gigs, err := catalog.LoadGigs(path)
	if err != nil {
		return nil, err
	}

	if id == "" {
		if len(gigs) != 1 {
			return nil, apperr.Errorf(op, apperr.InvalidInput, "gig", "%s holds %d gigs; choose one with --gig", path, len(gigs))
		}
		return &gigs[0], nil
	}

	for i := range gigs {
		if gigs[i].ID == id {
			return &gigs[i], nil
		}
	}
	return nil, apperr.E(op, apperr.NotFound, id, errors.New("no gig with this id in "+path))
}

func flagString(cmd *cobra.Command, name string) string {
	value, _ := cmd.Flags().GetString(name)
	return value
}

func addRawFlag(c *cobra.Command) {
	c.Flags().Bool("raw", false, "print the result as JSON")
}

// emit prints v as JSON when --raw is set and calls human otherwise.
func emit(cmd *cobra.Command, v any, human func()) error {
	if raw, _ := cmd.Flags().GetBool("raw"); raw {
		return printJSON(cmd.OutOrStdout(), v)
	}
	human()
	return nil
}
