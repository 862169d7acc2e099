package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tacogips/nodestage/internal/app"
	"github.com/tacogips/nodestage/internal/stage/model"
)

// generateCmd represents the generate-config command
var generateCmd = &cobra.Command{
	Use:   "generate-config <protocol-version>",
	Short: "Render config.toml for one installed protocol version",
	Long: `Render config.toml from config-example.toml of an installed protocol version.

When config.toml already exists the result is written to config.toml.new.

Examples:
  nodestage generate-config 1_5_0 --ip 203.0.113.5
  nodestage generate-config 1_5_0 --ip 203.0.113.5 --overrides ./overrides.toml`,
	Args: cobra.ExactArgs(1),
	RunE: runGenerate,
}

var (
	generateIP        string
	generateOverrides string
)

func init() {
	generateCmd.Flags().StringVar(&generateIP, FlagIP, "", DescIP)
	generateCmd.Flags().StringVar(&generateOverrides, FlagOverrides, "", DescOverrides)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	version := model.ProtocolVersion(args[0])

	address, err := resolveAddress(generateIP)
	if err != nil {
		return err
	}
	cfg, svc, err := layoutOnly()
	if err != nil {
		return err
	}
	session := app.NewSession(model.NetworkProfile{}, cfg.Layout(), address, generateOverrides)

	result, err := app.GenerateConfig(app.GenerateOptions{Session: session, Services: svc, Version: version})
	if err != nil {
		return err
	}

	if result.Sibling {
		printWarning(fmt.Sprintf("%s exists; wrote %s", session.Layout.ConfigFile(version), result.Path))
		return nil
	}
	printSuccess(fmt.Sprintf("Wrote %s", result.Path))
	return nil
}
