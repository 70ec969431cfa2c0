package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/assetcsv/pkg/types"
)

const (
	configFileName = "config"
	configFileType = "yaml"
	configFileExt  = "config.yaml"

	cfgKeyBackend       = "backend"
	cfgKeyDataDir       = "data_dir"
	cfgKeyCSVDir        = "csv_dir"
	cfgKeyAssetDir      = "asset_dir"
	cfgKeyCreateMissing = "create_missing"
	cfgKeyImportPattern = "import_pattern"
	cfgKeyLogLevel      = "log.level"
	cfgKeyLogFormat     = "log.format"
	cfgKeyTypes         = "types"

	defaultBackend   = types.BackendSQLite
	defaultLogLevel  = "info"
	defaultLogFormat = "text"
)

// loadConfig reads config.yaml from configDir using Viper. A missing
// config.yaml is not an error; defaults apply.
func loadConfig(configDir string) (*viper.Viper, error) {
	v := viper.New()
	v.SetDefault(cfgKeyBackend, defaultBackend)
	v.SetDefault(cfgKeyCSVDir, types.DefaultCSVDir)
	v.SetDefault(cfgKeyAssetDir, types.DefaultAssetDir)
	v.SetDefault(cfgKeyCreateMissing, false)
	v.SetDefault(cfgKeyImportPattern, types.DefaultImportPattern)
	v.SetDefault(cfgKeyLogLevel, defaultLogLevel)
	v.SetDefault(cfgKeyLogFormat, defaultLogFormat)
	v.SetConfigName(configFileName)
	v.SetConfigType(configFileType)
	v.AddConfigPath(configDir)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return v, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	return v, nil
}

// decodeConfig builds a validated types.Config from the loaded settings.
func decodeConfig(v *viper.Viper) (types.Config, error) {
	cfg := types.Config{
		Backend:       v.GetString(cfgKeyBackend),
		DataDir:       v.GetString(cfgKeyDataDir),
		CSVDir:        v.GetString(cfgKeyCSVDir),
		AssetDir:      v.GetString(cfgKeyAssetDir),
		CreateMissing: v.GetBool(cfgKeyCreateMissing),
		ImportPattern: v.GetString(cfgKeyImportPattern),
	}
	if err := v.UnmarshalKey(cfgKeyTypes, &cfg.Types); err != nil {
		return types.Config{}, fmt.Errorf("decode %s: %w", cfgKeyTypes, err)
	}
	if err := cfg.Validate(); err != nil {
		return types.Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// configFile is the document init writes to config.yaml.
type configFile struct {
	Backend       string             `yaml:"backend"`
	DataDir       string             `yaml:"data_dir,omitempty"`
	CSVDir        string             `yaml:"csv_dir"`
	AssetDir      string             `yaml:"asset_dir"`
	CreateMissing bool               `yaml:"create_missing"`
	ImportPattern string             `yaml:"import_pattern"`
	Log           logConfig          `yaml:"log"`
	Types         []types.TypeConfig `yaml:"types"`
}

type logConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// defaultConfig is the starting configuration, declaring one example type.
func defaultConfig(dataDir string) configFile {
	return configFile{
		Backend:       defaultBackend,
		DataDir:       dataDir,
		CSVDir:        types.DefaultCSVDir,
		AssetDir:      types.DefaultAssetDir,
		ImportPattern: types.DefaultImportPattern,
		Log:           logConfig{Level: defaultLogLevel, Format: defaultLogFormat},
		Types: []types.TypeConfig{{
			Name: "Item",
			Base: types.RootType,
			Fields: []types.FieldConfig{
				{Name: "name", Kind: "string"},
				{Name: "power", Kind: "int32"},
			},
		}},
	}
}

// writeConfigIfMissing creates config.yaml in configDir with default values.
// An existing file is left alone. Reports whether the file was written.
func writeConfigIfMissing(configDir, dataDir string) (bool, error) {
	path := filepath.Join(configDir, configFileExt)
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("stat config file: %w", err)
	}

	data, err := yaml.Marshal(defaultConfig(dataDir))
	if err != nil {
		return false, fmt.Errorf("marshal config: %w", err)
	}
	header := "# assetcsv configuration\n# Declare record types under types; each field kind is one of\n# bool, int32, int64, float32, float64, string.\n"
	if err := os.WriteFile(path, append([]byte(header), data...), 0o644); err != nil {
		return false, err
	}
	return true, nil
}
