// Package paths resolves the configuration, data, and sheet locations used
// by the assetcsv command.
package paths

import (
	"os"
	"path/filepath"
	"runtime"
)

// App is the directory name used under platform config and data roots.
const App = "assetcsv"

// CWD-relative directory names.
const (
	DefaultConfigDirName = ".assetcsv"
	DefaultDataDirName   = ".assetcsv-db"
)

// Environment variable names for directory overrides.
const (
	EnvConfigDir = "ASSETCSV_CONFIG_DIR"
	EnvDataDir   = "ASSETCSV_DATA_DIR"
	EnvCSVDir    = "ASSETCSV_CSV_DIR"
)

// SheetExt is the extension of every CSV sheet.
const SheetExt = ".csv"

// platformDir holds platform-detection functions that can be overridden in tests.
var platformDir = struct {
	homeDir       func() (string, error)
	userConfigDir func() (string, error)
}{
	homeDir:       os.UserHomeDir,
	userConfigDir: os.UserConfigDir,
}

// DefaultConfigDir returns the platform-specific default configuration directory.
//
// Linux:   $XDG_CONFIG_HOME/assetcsv (fallback ~/.config/assetcsv)
// macOS:   ~/Library/Application Support/assetcsv
// Windows: %APPDATA%/assetcsv
func DefaultConfigDir() (string, error) {
	if runtime.GOOS == "linux" {
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, App), nil
		}
		home, err := platformDir.homeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, ".config", App), nil
	}
	dir, err := platformDir.userConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, App), nil
}

// ResolveConfigDir returns the configuration directory following the
// precedence chain: flag > ASSETCSV_CONFIG_DIR env > ./.assetcsv when it
// exists > DefaultConfigDir().
func ResolveConfigDir(flag string) (string, error) {
	if flag != "" {
		return filepath.Abs(flag)
	}
	if env := os.Getenv(EnvConfigDir); env != "" {
		return filepath.Abs(env)
	}
	if info, err := os.Stat(DefaultConfigDirName); err == nil && info.IsDir() {
		return filepath.Abs(DefaultConfigDirName)
	}
	return DefaultConfigDir()
}

// ResolveDataDir returns the store directory following the precedence chain:
// flag > configYAMLValue > ASSETCSV_DATA_DIR env > $(CWD)/.assetcsv-db.
func ResolveDataDir(flag, configYAMLValue string) (string, error) {
	return resolveProjectDir(flag, configYAMLValue, EnvDataDir, DefaultDataDirName)
}

// ResolveCSVDir returns the sheet root following the precedence chain:
// flag > configYAMLValue > ASSETCSV_CSV_DIR env > $(CWD)/fallback.
func ResolveCSVDir(flag, configYAMLValue, fallback string) (string, error) {
	return resolveProjectDir(flag, configYAMLValue, EnvCSVDir, fallback)
}

func resolveProjectDir(flag, configYAMLValue, envName, fallback string) (string, error) {
	for _, v := range []string{flag, configYAMLValue, os.Getenv(envName)} {
		if v != "" {
			return filepath.Abs(v)
		}
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	return filepath.Join(cwd, fallback), nil
}

// SheetDir returns the directory holding the sheets of typeName.
func SheetDir(csvRoot, typeName string) string {
	return filepath.Join(csvRoot, typeName)
}

// SheetFile returns the export path of typeName, <csvRoot>/<Type>/<Type>.csv.
func SheetFile(csvRoot, typeName string) string {
	return filepath.Join(csvRoot, typeName, typeName+SheetExt)
}
