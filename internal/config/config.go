// Package config provides the run configuration for gpkgclean.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/maviz991/gpkgclean/internal/sanitize"
)

// InvalidPolicy selects what happens to structurally invalid geometries
// during a database import.
type InvalidPolicy int

const (
	// KeepInvalid imports invalid geometries as-is.
	KeepInvalid InvalidPolicy = 0
	// SkipInvalid drops invalid rows and imports the rest.
	SkipInvalid InvalidPolicy = 1
	// AbortOnInvalid fails the whole layer on the first invalid row.
	AbortOnInvalid InvalidPolicy = 2
)

// DuplicatePolicy selects how cross-layer sanitized table-name collisions
// are handled.
type DuplicatePolicy int

const (
	// SuffixDuplicate disambiguates with a numeric suffix.
	SuffixDuplicate DuplicatePolicy = iota
	// ErrorDuplicate fails the colliding layer.
	ErrorDuplicate
)

// Config holds all options for one run. It is built once and passed by value
// into every stage; nothing mutates it mid-run.
type Config struct {
	// Source
	InputGPKG string `yaml:"input_gpkg"`

	// Local output container
	OutputGPKG   string `yaml:"output_gpkg"`   // "" = alongside the input
	OutputPrefix string `yaml:"output_prefix"` // filename prefix for the generated file

	// Database destination
	ConnectionName string `yaml:"connection"`
	Schema         string `yaml:"schema"`
	GeometryColumn string `yaml:"geometry_column"`

	// Naming
	TablePrefix   string              `yaml:"table_prefix"`
	TruncateLimit int                 `yaml:"truncate_limit"`
	Convention    sanitize.Convention `yaml:"-"`
	ConventionStr string              `yaml:"convention"`

	// Layer selection: zero-based indices into the enumerated layers.
	// Empty means all layers.
	LayerFilter []int `yaml:"layer_filter"`

	// NumberTables inserts the layer's sequence number into the table name
	// (prefix_01_name), matching the naming of staged bulk imports.
	NumberTables bool `yaml:"number_tables"`

	// Stage switches
	WriteLocalGPKG   bool `yaml:"write_local_gpkg"`
	WriteLocalStyles bool `yaml:"write_local_styles"`
	UploadToPostGIS  bool `yaml:"upload_to_postgis"`
	UploadStyles     bool `yaml:"upload_styles"`
	WriteSLDFiles    bool `yaml:"write_sld_files"`
	FixGeometries    bool `yaml:"fix_geometries"`

	SLDFolder string `yaml:"sld_folder"` // "" = <output dir>/SLD

	// Import behavior
	Overwrite     bool            `yaml:"overwrite"`
	CreateIndex   bool            `yaml:"create_index"`
	Invalid       InvalidPolicy   `yaml:"-"`
	InvalidInt    int             `yaml:"invalid_features_filter"`
	OnDuplicate   DuplicatePolicy `yaml:"-"`
	OnDuplicateS  string          `yaml:"on_duplicate"`
	ConnectionsFn string          `yaml:"connections_file"`
}

// Default returns a Config with the same defaults the batch scripts shipped
// with.
func Default() Config {
	return Config{
		OutputPrefix:     "limpo_",
		Schema:           "public",
		GeometryColumn:   "geom",
		TruncateLimit:    sanitize.DefaultMaxLen,
		WriteLocalGPKG:   true,
		WriteLocalStyles: true,
		UploadToPostGIS:  true,
		UploadStyles:     true,
		Overwrite:        true,
		CreateIndex:      true,
		Invalid:          SkipInvalid,
		InvalidInt:       int(SkipInvalid),
	}
}

// ParseConvention converts a naming-convention string to a Convention.
// Valid values: "snake", "camel".
func ParseConvention(s string) (sanitize.Convention, error) {
	switch strings.ToLower(s) {
	case "", "snake":
		return sanitize.Snake, nil
	case "camel":
		return sanitize.Camel, nil
	default:
		return sanitize.Snake, fmt.Errorf("invalid naming convention: %s (use 'snake' or 'camel')", s)
	}
}

// ParseInvalidPolicy converts the numeric invalid-geometry policy.
// Valid values: 0 (keep), 1 (skip), 2 (abort).
func ParseInvalidPolicy(n int) (InvalidPolicy, error) {
	switch n {
	case 0:
		return KeepInvalid, nil
	case 1:
		return SkipInvalid, nil
	case 2:
		return AbortOnInvalid, nil
	default:
		return KeepInvalid, fmt.Errorf("invalid geometry policy: %d (use 0=keep, 1=skip, 2=abort)", n)
	}
}

// ParseDuplicatePolicy converts a duplicate-table-name policy string.
// Valid values: "suffix", "error".
func ParseDuplicatePolicy(s string) (DuplicatePolicy, error) {
	switch strings.ToLower(s) {
	case "", "suffix":
		return SuffixDuplicate, nil
	case "error":
		return ErrorDuplicate, nil
	default:
		return SuffixDuplicate, fmt.Errorf("invalid duplicate policy: %s (use 'suffix' or 'error')", s)
	}
}

// Validate checks the configuration before a run starts. Configuration
// errors abort the whole run.
func (c *Config) Validate() error {
	if c.InputGPKG == "" {
		return fmt.Errorf("input GeoPackage path is required")
	}
	if _, err := os.Stat(c.InputGPKG); err != nil {
		return fmt.Errorf("input GeoPackage not found: %s", c.InputGPKG)
	}
	if (c.UploadToPostGIS || c.UploadStyles) && c.ConnectionName == "" {
		return fmt.Errorf("a saved connection name is required to upload to PostGIS")
	}
	if c.TruncateLimit <= 0 {
		return fmt.Errorf("truncate limit must be positive, got %d", c.TruncateLimit)
	}
	if c.GeometryColumn == "" {
		return fmt.Errorf("geometry column name cannot be empty")
	}
	for _, idx := range c.LayerFilter {
		if idx < 0 {
			return fmt.Errorf("layer filter contains negative index %d", idx)
		}
	}
	return nil
}

// Load reads a YAML run-config file and resolves the enum fields. Values not
// present in the file keep the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("error opening config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return cfg, fmt.Errorf("error decoding YAML: %w", err)
	}
	if err := cfg.ResolveEnums(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ResolveEnums converts the serialized enum fields (convention string,
// numeric invalid policy, duplicate policy string) into their typed forms.
func (c *Config) ResolveEnums() error {
	conv, err := ParseConvention(c.ConventionStr)
	if err != nil {
		return err
	}
	c.Convention = conv

	pol, err := ParseInvalidPolicy(c.InvalidInt)
	if err != nil {
		return err
	}
	c.Invalid = pol

	dup, err := ParseDuplicatePolicy(c.OnDuplicateS)
	if err != nil {
		return err
	}
	c.OnDuplicate = dup
	return nil
}
