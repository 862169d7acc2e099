package cli

import (
	"github.com/spf13/cobra"

	"github.com/tacogips/nodestage/internal/app"
	"github.com/tacogips/nodestage/internal/stage/model"
)

// knownAddressesCmd represents the known-addresses command
var knownAddressesCmd = &cobra.Command{
	Use:   "known-addresses <protocol-version>",
	Short: "Print [network] known_addresses from a version's config.toml",
	Args:  cobra.ExactArgs(1),
	RunE:  runKnownAddresses,
}

var knownOutput string

func init() {
	knownAddressesCmd.Flags().StringVarP(&knownOutput, FlagOutput, "o", OutputText, DescOutput)
}

func runKnownAddresses(cmd *cobra.Command, args []string) error {
	if err := ValidateOutputFormat(knownOutput); err != nil {
		return err
	}
	cfg, svc, err := layoutOnly()
	if err != nil {
		return err
	}
	session := app.NewSession(model.NetworkProfile{}, cfg.Layout(), "", "")

	addrs, err := app.KnownAddresses(session, svc, model.ProtocolVersion(args[0]))
	if err != nil {
		return err
	}
	if done, err := printStructured(knownOutput, addrs); done {
		return err
	}
	for _, a := range addrs {
		printInfo(a)
	}
	return nil
}
