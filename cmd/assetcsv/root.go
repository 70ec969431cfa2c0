package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/assetcsv/internal/logging"
	"github.com/mesh-intelligence/assetcsv/internal/paths"
	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

// app holds global flag values and the configuration loaded for a command.
type app struct {
	configDir string
	dataDir   string
	jsonOut   bool
	logLevel  string
	logFormat string

	cfg    types.Config
	logger *slog.Logger
}

// newRootCmd creates the top-level command with global flags and all
// subcommands registered.
func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "assetcsv",
		Short: "Round-trip typed asset records through CSV sheets",
		Long: `assetcsv keeps typed asset records in a local store and exports them to
one CSV sheet per record type, so they can be edited in a spreadsheet and
imported back. Record types and their fields are declared in config.yaml.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $(CWD)/.assetcsv or the platform config dir)")
	pf.StringVar(&a.dataDir, "data-dir", "", "data directory (default: $(CWD)/.assetcsv-db)")
	pf.BoolVar(&a.jsonOut, "json", false, "output as JSON")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVar(&a.logFormat, "log-format", "", "log format: text, json")

	root.AddCommand(
		newVersionCmd(),
		a.newInitCmd(),
		a.newTypesCmd(),
		a.newAssetCmd(),
		a.newExportCmd(),
		a.newImportCmd(),
		a.newWatchCmd(),
		a.newOpenCmd(),
	)
	return root
}

// setup resolves the config directory, loads config.yaml, and installs the
// logger on the command context. The version command needs none of it.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	if cmd.Name() == "version" {
		return nil
	}

	configDir, err := paths.ResolveConfigDir(a.configDir)
	if err != nil {
		return systemError(fmt.Errorf("resolve config dir: %w", err))
	}
	a.configDir = configDir

	v, err := loadConfig(configDir)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		v.Set(cfgKeyLogLevel, a.logLevel)
	}
	if a.logFormat != "" {
		v.Set(cfgKeyLogFormat, a.logFormat)
	}
	a.logger = logging.Setup(cmd.ErrOrStderr(), v.GetString(cfgKeyLogLevel), v.GetString(cfgKeyLogFormat))
	cmd.SetContext(logging.NewContext(cmd.Context(), a.logger))

	cfg, err := decodeConfig(v)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger.Debug("configuration loaded", "config_dir", configDir, "file", v.ConfigFileUsed(), "types", len(cfg.Types))
	return nil
}
