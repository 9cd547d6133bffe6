package cmd

import (
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/spigell/gig-assistant/internal/patch"
	"github.com/spigell/gig-assistant/internal/review"
	"github.com/spigell/gig-assistant/internal/tools"
)

const (
	PromptYes = "Yes"
	PromptNo  = "No"
)

var errDeclined = errors.New("changes were not written")

var reviewCmd = &cobra.Command{
	Use:   "review FILE",
	Short: "Run static analysis on a file inside the sandbox",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context(), "stderr")
		if err != nil {
			return err
		}
		defer env.logger.Sync()

		res, err := env.service.CodeReview(cmd.Context(), tools.ReviewInput{
			Path:       args[0],
			ReviewType: flagString(cmd, "type"),
			Language:   flagString(cmd, "language"),
		})
		if err != nil {
			return err
		}

		return emit(cmd, res, func() { renderReview(cmd.OutOrStdout(), res) })
	},
}

var debugCmd = &cobra.Command{
	Use:   "debug FILE",
	Short: "Fix a file inside the sandbox, keeping a backup of the previous content",
	Long: `Fix a file inside the sandbox.

With --fix-type auto every mechanical fix the analyzer knows is applied, optionally
restricted with --rule. With --fix-type review nothing is changed; the findings are
listed for manual work. The planned changes are shown and confirmed before anything
is written, unless --yes or --dry-run is given.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := setup(cmd.Context(), "stderr")
		if err != nil {
			return err
		}
		defer env.logger.Sync()

		flags := cmd.Flags()
		dryRun, _ := flags.GetBool("dry-run")
		yes, _ := flags.GetBool("yes")
		rules, _ := flags.GetStringSlice("rule")
		maxPasses, _ := flags.GetInt("max-passes")

		in := tools.DebugInput{
			Path:             args[0],
			IssueDescription: flagString(cmd, "issue"),
			FixType:          flagString(cmd, "fix-type"),
			Language:         flagString(cmd, "language"),
			Rules:            rules,
			MaxPasses:        maxPasses,
			DryRun:           true,
		}

		preview, err := env.service.CodeDebug(cmd.Context(), in)
		if err != nil {
			return err
		}
		if dryRun || !preview.ChangesMade {
			return emit(cmd, preview, func() { renderDebug(cmd.OutOrStdout(), preview) })
		}

		if !yes {
			renderDebug(cmd.ErrOrStderr(), preview)
			if err := confirm(fmt.Sprintf("Write %d change(s) to %s?", preview.Applied, preview.FilePath)); err != nil {
				env.logger.Info("exiting", zap.String("reason", err.Error()))
				return nil
			}
		}

		in.DryRun = false
		res, err := env.service.CodeDebug(cmd.Context(), in)
		if err != nil {
			return err
		}

		return emit(cmd, res, func() { renderDebug(cmd.OutOrStdout(), res) })
	},
}

func init() {
	rootCmd.AddCommand(reviewCmd, debugCmd)

	for _, c := range []*cobra.Command{reviewCmd, debugCmd} {
		c.Flags().String("language", "", "language override (name, alias or extension)")
		addRawFlag(c)
	}

	reviewCmd.Flags().StringP("type", "t", string(review.General), "review type: general, security or performance")

	debugCmd.Flags().String("fix-type", string(patch.Auto), "auto or review")
	debugCmd.Flags().String("issue", "", "description of the issue being fixed")
	debugCmd.Flags().StringSlice("rule", nil, "apply only fixes of these rules")
	debugCmd.Flags().Int("max-passes", patch.DefaultMaxPasses, "fix passes before giving up")
	debugCmd.Flags().Bool("dry-run", false, "show the changes without writing them")
	debugCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation")
}

func confirm(label string) error {
	prompt := promptui.Select{
		Label: label,
		Items: []string{PromptYes, PromptNo},
	}

	_, answer, err := prompt.Run()
	if err != nil {
		return err
	}
	if answer != PromptYes {
		return errDeclined
	}
	return nil
}
