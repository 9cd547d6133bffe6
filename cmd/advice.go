package cmd

import (
	"github.com/spf13/cobra"

	"github.com/spigell/gig-assistant/internal/advisory"
	"github.com/spigell/gig-assistant/internal/catalog"
	"github.com/spigell/gig-assistant/internal/fit"
	"github.com/spigell/gig-assistant/internal/tools"
)

var negotiateCmd = &cobra.Command{
	Use:   "negotiate",
	Short: "Draft a rate negotiation message",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		flags := cmd.Flags()
		current, _ := flags.GetFloat64("current")
		target, _ := flags.GetFloat64("target")
		points, _ := flags.GetStringSlice("justification")

		return compose(cmd, func(env *env) (*advisory.Advisory, error) {
			return env.service.NegotiateRate(cmd.Context(), advisory.NegotiationRequest{
				CurrentRate:         current,
				TargetRate:          target,
				Complexity:          fit.Complexity(flagString(cmd, "complexity")),
				JustificationPoints: points,
			})
		})
	},
}

var proposalCmd = &cobra.Command{
	Use:   "proposal",
	Short: "Draft a proposal for a gig",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		profile, err := catalog.LoadProfile(flagString(cmd, "profile"))
		if err != nil {
			return err
		}
		gig, err := pickGig(flagString(cmd, "gigs"), flagString(cmd, "gig"))
		if err != nil {
			return err
		}

		flags := cmd.Flags()
		rate, _ := flags.GetFloat64("rate")
		noPortfolio, _ := flags.GetBool("no-portfolio")
		include := !noPortfolio

		return compose(cmd, func(env *env) (*advisory.Advisory, error) {
			return env.service.GenerateProposal(cmd.Context(), advisory.ProposalRequest{
				Profile:          profile.Profile,
				Gig:              *gig,
				Name:             profile.Name,
				Title:            profile.Title,
				Tone:             advisory.Tone(flagString(cmd, "tone")),
				IncludePortfolio: &include,
				ProposedRate:     rate,
				CustomMessage:    flagString(cmd, "message"),
			})
		})
	},
}

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Suggest improvements to the profile",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		profile, err := catalog.LoadProfile(flagString(cmd, "profile"))
		if err != nil {
			return err
		}

		return compose(cmd, func(env *env) (*advisory.Advisory, error) {
			return env.service.OptimizeProfile(cmd.Context(), advisory.OptimizationRequest{
				Profile:     profile.Profile,
				Title:       profile.Title,
				SuccessRate: profile.SuccessRate,
				TargetNiche: flagString(cmd, "niche"),
			})
		})
	},
}

var trackCmd = &cobra.Command{
	Use:   "track",
	Short: "Summarise application outcomes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		env, err := setup(cmd.Context(), "stderr")
		if err != nil {
			return err
		}
		defer env.logger.Sync()

		apps, err := catalog.LoadApplications(flagString(cmd, "applications"))
		if err != nil {
			return err
		}

		summary, err := env.service.TrackApplications(cmd.Context(), tools.TrackInput{Applications: apps})
		if err != nil {
			return err
		}

		return emit(cmd, summary, func() { renderSummary(cmd.OutOrStdout(), summary) })
	},
}

func init() {
	rootCmd.AddCommand(negotiateCmd, proposalCmd, optimizeCmd, trackCmd)

	for _, c := range []*cobra.Command{negotiateCmd, proposalCmd, optimizeCmd, trackCmd} {
		addRawFlag(c)
	}
	for _, c := range []*cobra.Command{proposalCmd, optimizeCmd} {
		c.Flags().StringP("profile", "p", "profile.yaml", "profile file (yaml or json)")
	}

	negotiateCmd.Flags().Float64("current", 0, "rate currently offered per hour")
	negotiateCmd.Flags().Float64("target", 0, "rate asked for per hour")
	negotiateCmd.Flags().String("complexity", "", "project complexity: low, medium or high")
	negotiateCmd.Flags().StringSlice("justification", nil, "points justifying the rate; defaults are used when empty")

	proposalCmd.Flags().StringP("gigs", "g", "gigs.yaml", "gig listing file (yaml or json)")
	proposalCmd.Flags().String("gig", "", "id of the gig; may be omitted when the listing holds one gig")
	proposalCmd.Flags().String("tone", string(advisory.ToneProfessional), "professional, friendly or confident")
	proposalCmd.Flags().Float64("rate", 0, "proposed hourly rate; defaults to the profile rate")
	proposalCmd.Flags().String("message", "", "extra instructions for the proposal")
	proposalCmd.Flags().Bool("no-portfolio", false, "do not reference portfolio work")

	optimizeCmd.Flags().String("niche", "", "niche to position the profile for")

	trackCmd.Flags().StringP("applications", "a", "applications.yaml", "application log file (yaml or json)")
}

// compose runs an advisory operation and prints the advisory.
func compose(cmd *cobra.Command, run func(*env) (*advisory.Advisory, error)) error {
	env, err := setup(cmd.Context(), "stderr")
	if err != nil {
		return err
	}
	defer env.logger.Sync()

	adv, err := run(env)
	if err != nil {
		return err
	}

	return emit(cmd, adv, func() { renderAdvisory(cmd.OutOrStdout(), adv) })
}
