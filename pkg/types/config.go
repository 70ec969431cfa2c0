package types

import (
	"errors"
	"fmt"
)

// Config holds store selection, directory layout, and declared record types.
type Config struct {
	Backend       string       `json:"backend" yaml:"backend" mapstructure:"backend"`
	DataDir       string       `json:"data_dir" yaml:"data_dir" mapstructure:"data_dir"`
	CSVDir        string       `json:"csv_dir" yaml:"csv_dir" mapstructure:"csv_dir"`
	AssetDir      string       `json:"asset_dir" yaml:"asset_dir" mapstructure:"asset_dir"`
	CreateMissing bool         `json:"create_missing" yaml:"create_missing" mapstructure:"create_missing"`
	ImportPattern string       `json:"import_pattern" yaml:"import_pattern" mapstructure:"import_pattern"`
	Types         []TypeConfig `json:"types" yaml:"types" mapstructure:"types"`
}

// TypeConfig declares a record type and its fields in declaration order.
type TypeConfig struct {
	Name   string        `json:"name" yaml:"name" mapstructure:"name"`
	Base   string        `json:"base,omitempty" yaml:"base,omitempty" mapstructure:"base"`
	Fields []FieldConfig `json:"fields" yaml:"fields" mapstructure:"fields"`
}

// FieldConfig declares one field. Hidden fields are stored but not exported.
type FieldConfig struct {
	Name   string `json:"name" yaml:"name" mapstructure:"name"`
	Kind   string `json:"kind" yaml:"kind" mapstructure:"kind"`
	Hidden bool   `json:"hidden,omitempty" yaml:"hidden,omitempty" mapstructure:"hidden"`
}

// Supported backend names.
const (
	BackendSQLite = "sqlite"
)

// Defaults applied by the CLI when configuration leaves a value empty.
const (
	DefaultCSVDir        = "Resources/CSV/Data"
	DefaultAssetDir      = "Assets"
	DefaultImportPattern = "*.csv"
)

// Config validation errors.
var (
	ErrBackendEmpty   = errors.New("backend must not be empty")
	ErrBackendUnknown = errors.New("unknown backend")
	ErrTypeNameEmpty  = errors.New("type name must not be empty")
	ErrDuplicateType  = errors.New("duplicate type name")
	ErrFieldNameEmpty = errors.New("field name must not be empty")
)

// knownBackends lists the backends that Validate accepts.
var knownBackends = map[string]bool{
	BackendSQLite: true,
}

// Validate checks that the Config is well-formed. Type base links are checked
// when the types are registered.
func (c Config) Validate() error {
	if c.Backend == "" {
		return ErrBackendEmpty
	}
	if !knownBackends[c.Backend] {
		return ErrBackendUnknown
	}
	seen := make(map[string]bool, len(c.Types))
	for _, tc := range c.Types {
		if tc.Name == "" {
			return ErrTypeNameEmpty
		}
		if seen[tc.Name] {
			return fmt.Errorf("%w: %s", ErrDuplicateType, tc.Name)
		}
		seen[tc.Name] = true
		for _, fc := range tc.Fields {
			if fc.Name == "" {
				return fmt.Errorf("%w: type %s", ErrFieldNameEmpty, tc.Name)
			}
			if _, err := ParseKind(fc.Kind); err != nil {
				return fmt.Errorf("type %s field %s: %w", tc.Name, fc.Name, err)
			}
		}
	}
	return nil
}
