package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tacogips/nodestage/internal/app"
	"github.com/tacogips/nodestage/internal/logging"
	"github.com/tacogips/nodestage/internal/stage/model"
)

// stageCmd represents the stage-protocols command
var stageCmd = &cobra.Command{
	Use:   "stage-protocols",
	Short: "Install and configure every published protocol version",
	Long: `Bring every protocol version published for the network to the Staged state.

For each version in catalog order:
  Unstaged      download config and bin archives, then render config.toml
  NoConfig      render config.toml only
  Staged        nothing to do
  BinOnly       reported, never repaired automatically
  ConfigOnly    reported, never repaired automatically
  WrongNetwork  reported, the chainspec belongs to another network

An existing config.toml is never overwritten; the rendered file is written
next to it as config.toml.new instead.

Examples:
  nodestage stage-protocols --ip 203.0.113.5
  nodestage stage-protocols -n casper-test --ip 203.0.113.5 --overrides ./overrides.toml
  nodestage stage-protocols --ip 203.0.113.5 --output json`,
	Args: cobra.NoArgs,
	RunE: runStage,
}

// stage-protocols flags
var (
	stageIP        string
	stageOverrides string
	stageOutput    string
)

func init() {
	stageCmd.Flags().StringVar(&stageIP, FlagIP, "", DescIP)
	stageCmd.Flags().StringVar(&stageOverrides, FlagOverrides, "", DescOverrides)
	stageCmd.Flags().StringVarP(&stageOutput, FlagOutput, "o", OutputText, DescOutput)
	stageCmd.Flags().BoolVar(&noProgress, FlagNoProgress, false, DescNoProgress)
}

func runStage(cmd *cobra.Command, args []string) error {
	logging.DebugSection(cmd.Name())
	if err := ValidateOutputFormat(stageOutput); err != nil {
		return err
	}
	address, err := resolveAddress(stageIP)
	if err != nil {
		return err
	}

	_, session, svc, err := setup(address, stageOverrides, stageOutput == OutputText)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if stageOutput == OutputText {
		printProgress(fmt.Sprintf("Staging protocol versions for %s", session.Profile.NetworkName))
	}

	result, err := app.StageProtocols(ctx, app.StageOptions{Session: session, Services: svc})
	if err != nil {
		return err
	}

	if done, err := printStructured(stageOutput, result); done {
		if err != nil {
			return err
		}
	} else {
		printStageText(result)
	}

	if !result.Success() {
		return errRunFailed
	}
	return nil
}

// printStageText prints the per-version outcome table and summary.
func printStageText(result *app.StageResult) {
	printHeader(fmt.Sprintf("Protocol versions (%s)", result.Network))
	for _, v := range result.Versions {
		switch {
		case v.Action == app.ActionSkipped:
			printWarning(fmt.Sprintf("%-10s skipped", v.Version))
			continue
		case v.Action == app.ActionFailed:
			printErrorMsg(fmt.Sprintf("%-10s %s", v.Version, v.Error))
			continue
		}

		line := fmt.Sprintf("%-10s %-12s", v.Version, formatStatus(v.Final))
		if v.Action != app.ActionNone {
			line += fmt.Sprintf(" (%s, was %s)", v.Action, v.Initial)
		}
		if v.ConfigPath != "" {
			line += " -> " + v.ConfigPath
		}
		if v.Ok() {
			printSuccess(line)
		} else {
			printErrorMsg(line)
			if v.Error != "" {
				printErrorMsg("  " + v.Error)
			}
		}
	}

	fmt.Fprintln(stdout)
	if result.Interrupted {
		printWarning("Interrupted: remaining versions were not processed")
	}
	if result.Success() {
		printSuccess(fmt.Sprintf("All %d versions staged (%d installed, %d rendered)",
			len(result.Versions), result.Count(app.ActionInstall), result.Count(app.ActionRender)))
		return
	}
	groups := result.ByStatus()
	for _, st := range model.AllStatuses() {
		if vs, ok := groups[st]; ok {
			printErrorMsg(fmt.Sprintf("%s: %v", st, vs))
		}
	}
}
