package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacogips/nodestage/internal/app"
	"github.com/tacogips/nodestage/internal/stage/model"
)

// unstageCmd represents the unstage-protocol command
var unstageCmd = &cobra.Command{
	Use:   "unstage-protocol <protocol-version>",
	Short: "Remove the config and bin directories of a protocol version",
	Long: `Delete {config_root}/<version> and {bin_root}/<version>.

Useful to clear a BinOnly or ConfigOnly version so stage-protocols can install it again.

Examples:
  nodestage unstage-protocol 1_5_0
  nodestage unstage-protocol 1_5_0 --yes`,
	Args: cobra.ExactArgs(1),
	RunE: runUnstage,
}

var unstageYes bool

func init() {
	unstageCmd.Flags().BoolVarP(&unstageYes, FlagYes, "y", false, DescYes)
}

func runUnstage(cmd *cobra.Command, args []string) error {
	version := model.ProtocolVersion(args[0])

	cfg, svc, err := layoutOnly()
	if err != nil {
		return err
	}

	if !unstageYes {
		layout := cfg.Layout()
		ok, err := confirm(fmt.Sprintf("Delete %s and %s?", layout.ConfigDir(version), layout.BinDir(version)))
		if err != nil {
			return err
		}
		if !ok {
			printInfo("Aborted")
			return nil
		}
	}

	result, err := app.UnstageProtocol(app.UnstageOptions{Services: svc, Version: version})
	if err != nil {
		return err
	}
	if len(result.Removed) == 0 {
		printInfo(fmt.Sprintf("%s is not staged", version))
		return nil
	}
	for _, dir := range result.Removed {
		printSuccess("Removed " + dir)
	}
	return nil
}
