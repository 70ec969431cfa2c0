package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/assetcsv/internal/paths"
)

func (a *app) newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Initialize configuration, store, and sheet directory",
		Long: `Create the configuration directory with a default config.yaml, the data
directory with an empty asset store, and the CSV sheet root. Existing files
are left untouched, so init is safe to run again.`,
		Args: cobra.NoArgs,
		RunE: a.runInit,
	}
}

func (a *app) runInit(cmd *cobra.Command, args []string) error {
	if err := os.MkdirAll(a.configDir, 0o755); err != nil {
		return systemError(fmt.Errorf("create config directory: %w", err))
	}
	wrote, err := writeConfigIfMissing(a.configDir, a.dataDir)
	if err != nil {
		return systemError(fmt.Errorf("write config: %w", err))
	}
	if wrote {
		// Reload so the declared example type is part of this run.
		v, err := loadConfig(a.configDir)
		if err != nil {
			return err
		}
		if a.cfg, err = decodeConfig(v); err != nil {
			return err
		}
	}

	backend, err := a.attachBackend()
	if err != nil {
		return err
	}
	if err := backend.Detach(); err != nil {
		return systemError(fmt.Errorf("finalize store: %w", err))
	}

	opts, err := a.sheetOptions()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(opts.CSVRoot, 0o755); err != nil {
		return systemError(fmt.Errorf("create csv directory: %w", err))
	}

	out := cmd.OutOrStdout()
	configPath := filepath.Join(a.configDir, configFileExt)
	if a.jsonOut {
		dataDir, _ := paths.ResolveDataDir(a.dataDir, a.cfg.DataDir)
		return printJSON(out, map[string]any{
			"config":         configPath,
			"config_created": wrote,
			"data_dir":       dataDir,
			"csv_dir":        opts.CSVRoot,
		})
	}
	if wrote {
		fmt.Fprintf(out, "Wrote %s\n", configPath)
	}
	fmt.Fprintln(out, "assetcsv initialized successfully")
	return nil
}
