package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/tacogips/nodestage/internal/app"
	"github.com/tacogips/nodestage/internal/build"
	"github.com/tacogips/nodestage/internal/config"
	"github.com/tacogips/nodestage/internal/logging"
	"github.com/tacogips/nodestage/internal/stage/model"
)

// Version information, overridable from main.
var (
	Version   = build.Version()
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Global flags
var (
	globalConfig  string
	globalNetwork string
	globalNoColor bool
	globalQuiet   bool
	globalDebug   bool
)

// errRunFailed marks a command that completed but must exit non-zero.
// Its details have already been printed.
var errRunFailed = errors.New("run failed")

// env binds NODESTAGE_* variables and changed persistent flags.
var env = config.NewViper()

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "nodestage",
	Short: "Stage protocol versions of a node",
	Long: `nodestage keeps a node's per-protocol-version binaries and configs in step
with the versions published for its network.

Use "nodestage stage-protocols --ip <address>" to:
  1. Fetch the network's protocol version catalog
  2. Download and unpack every version missing on disk
  3. Render config.toml for each version from its config-example.toml

Versions that are only half present, or staged for another network,
are reported and left for the operator.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logging.SetDebug(globalDebug)
		logging.SetNoColor(globalNoColor)
		logging.SetQuiet(globalQuiet)
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errRunFailed) {
			printError(err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&globalConfig, FlagConfig, "c", "", DescConfig)
	rootCmd.PersistentFlags().StringVarP(&globalNetwork, FlagNetwork, "n", "", DescNetwork)
	rootCmd.PersistentFlags().BoolVar(&globalNoColor, FlagNoColor, false, DescNoColor)
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, FlagQuiet, "q", false, DescQuiet)
	rootCmd.PersistentFlags().BoolVar(&globalDebug, FlagDebug, false, DescDebug)
	rootCmd.PersistentFlags().String(FlagConfigRoot, "", DescConfigRoot)
	rootCmd.PersistentFlags().String(FlagBinRoot, "", DescBinRoot)
	rootCmd.PersistentFlags().String(FlagProfileDir, "", DescProfileDir)

	// flags override env, which overrides the config file
	bindFlags(rootCmd.PersistentFlags(), map[string]string{
		config.KeyConfigRoot: FlagConfigRoot,
		config.KeyBinRoot:    FlagBinRoot,
		config.KeyProfileDir: FlagProfileDir,
	})

	rootCmd.AddCommand(stageCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(listVersionsCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(unstageCmd)
	rootCmd.AddCommand(knownAddressesCmd)
	rootCmd.AddCommand(versionCmd)
}

// bindFlags binds each named flag to its config key in env.
func bindFlags(flags *pflag.FlagSet, keys map[string]string) {
	for key, name := range keys {
		if f := flags.Lookup(name); f != nil {
			_ = env.BindPFlag(key, f)
		}
	}
}

// loadConfig reads the config file, then applies environment overrides.
func loadConfig(v *viper.Viper) (*config.Config, error) {
	path := globalConfig
	explicit := path != ""
	if !explicit {
		path = config.DefaultConfigPath()
	}
	path, err := config.ExpandPath(path)
	if err != nil {
		return nil, err
	}

	loader := config.NewLoader()
	var cfg *config.Config
	if explicit {
		cfg, err = loader.Load(path)
	} else {
		cfg, err = loader.LoadOrDefault(path)
	}
	if err != nil {
		return nil, err
	}

	config.Overlay(cfg, v)
	if err := loader.Validate(cfg); err != nil {
		return nil, err
	}
	logging.Debug("[cli] config loaded from %s (config_root=%s, bin_root=%s)", path, cfg.ConfigRoot, cfg.BinRoot)
	return cfg, nil
}

// resolveNetwork picks --network, then default_network.
func resolveNetwork(cfg *config.Config) (string, error) {
	if globalNetwork != "" {
		return globalNetwork, nil
	}
	if cfg.DefaultNetwork != "" {
		return cfg.DefaultNetwork, nil
	}
	return "", fmt.Errorf("no network selected: pass --%s or set default_network", FlagNetwork)
}

// setup builds the configuration, session and services shared by every staging command.
func setup(address, overridesPath string, withProgress bool) (*config.Config, *app.Session, app.Services, error) {
	cfg, err := loadConfig(env)
	if err != nil {
		return nil, nil, app.Services{}, err
	}
	network, err := resolveNetwork(cfg)
	if err != nil {
		return nil, nil, app.Services{}, err
	}
	profile, err := config.LoadProfile(cfg.ProfileDir, network)
	if err != nil {
		return nil, nil, app.Services{}, err
	}

	log := logging.Logger()
	svc := app.NewServices(cfg, log, progressFunc(withProgress))
	session := app.NewSession(profile, cfg.Layout(), address, overridesPath)
	logging.Debug("[cli] run %s on %s (%s)", session.RunID, profile.NetworkName, profile.SourceURL)
	return cfg, session, svc, nil
}

// layoutOnly builds services that never touch the network profile.
func layoutOnly() (*config.Config, app.Services, error) {
	cfg, err := loadConfig(env)
	if err != nil {
		return nil, app.Services{}, err
	}
	return cfg, app.NewServices(cfg, logging.Logger(), nil), nil
}

// printError prints an error message to stderr
func printError(err error) {
	var se *model.StageError
	if errors.As(err, &se) && logging.Level() <= zerolog.DebugLevel {
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", se.Kind, err)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}
