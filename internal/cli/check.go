package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacogips/nodestage/internal/app"
)

// checkCmd represents the check-protocols command
var checkCmd = &cobra.Command{
	Use:   "check-protocols",
	Short: "Report the staging status of every published protocol version",
	Long: `Classify every protocol version in the network catalog without changing anything.

Exits non-zero when any version is not Staged.

Examples:
  nodestage check-protocols
  nodestage check-protocols -n casper-test --output yaml`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

// listVersionsCmd represents the list-versions command
var listVersionsCmd = &cobra.Command{
	Use:   "list-versions",
	Short: "List the protocol versions published for the network",
	Args:  cobra.NoArgs,
	RunE:  runListVersions,
}

var (
	checkOutput string
	listOutput  string
)

func init() {
	checkCmd.Flags().StringVarP(&checkOutput, FlagOutput, "o", OutputText, DescOutput)
	listVersionsCmd.Flags().StringVarP(&listOutput, FlagOutput, "o", OutputText, DescOutput)
}

func runCheck(cmd *cobra.Command, args []string) error {
	if err := ValidateOutputFormat(checkOutput); err != nil {
		return err
	}
	cfg, session, svc, err := setup("", "", false)
	if err != nil {
		return err
	}

	result, err := app.CheckProtocols(context.Background(), app.CheckOptions{
		Session:     session,
		Services:    svc,
		Parallelism: cfg.StatusParallelism,
	})
	if err != nil {
		return err
	}

	if done, err := printStructured(checkOutput, result); done {
		if err != nil {
			return err
		}
	} else {
		printCheckText(result)
	}

	if !result.AllStaged() {
		return errRunFailed
	}
	return nil
}

func printCheckText(result *app.CheckResult) {
	printHeader(fmt.Sprintf("Protocol versions (%s)", result.Network))
	for _, r := range result.Versions {
		printInfo(fmt.Sprintf("%-10s %s", r.Version, formatStatus(r.Status)))
	}
}

func runListVersions(cmd *cobra.Command, args []string) error {
	if err := ValidateOutputFormat(listOutput); err != nil {
		return err
	}
	_, session, svc, err := setup("", "", false)
	if err != nil {
		return err
	}

	versions, err := app.ListVersions(context.Background(), session, svc)
	if err != nil {
		return err
	}

	if done, err := printStructured(listOutput, versions); done {
		return err
	}
	for _, v := range versions {
		fmt.Fprintln(stdout, v)
	}
	return nil
}
