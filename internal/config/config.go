// Package config provides configuration loading and structs for hansardclean.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug   bool          `yaml:"debug"`
	Input   InputConfig   `yaml:"input"`
	Output  OutputConfig  `yaml:"output"`
	Rules   RulesConfig   `yaml:"rules"`
	Server  ServerConfig  `yaml:"server"`
	Storage StorageConfig `yaml:"storage"`
	Watch   WatchConfig   `yaml:"watch"`
}

// InputConfig describes where raw transcripts are read from.
type InputConfig struct {
	Directory  string   `yaml:"directory"`
	Extensions []string `yaml:"extensions"`
	// ReplaceInvalidUTF8 substitutes U+FFFD for undecodable bytes instead of
	// failing the file. The replacement characters are then stripped as OCR noise.
	ReplaceInvalidUTF8 bool `yaml:"replace_invalid_utf8"`
}

// OutputConfig describes where cleaned transcripts are written.
type OutputConfig struct {
	Directory  string `yaml:"directory"`
	LineEnding string `yaml:"line_ending"` // "lf" or "crlf"
}

// RulesConfig is the normalizer rule set. Header and artifact patterns are
// corpus-specific, so they live here rather than in code.
type RulesConfig struct {
	// Headers replaces the built-in header/footer list when non-nil.
	Headers []HeaderSpec `yaml:"headers"`
	// ExtraHeaders is appended to Headers (or to the built-in list).
	ExtraHeaders  []HeaderSpec    `yaml:"extra_headers,omitempty"`
	PageNumbers   *bool           `yaml:"page_numbers"`
	Artifacts     ArtifactsConfig `yaml:"artifacts"`
	MaxBlankLines *int            `yaml:"max_blank_lines"`
}

// HeaderSpec matches one header/footer line. Exactly one of Literal or Pattern
// should be set. Following drops that many non-blank lines after a match.
type HeaderSpec struct {
	Literal   string `yaml:"literal,omitempty"`
	Pattern   string `yaml:"pattern,omitempty"`
	Following int    `yaml:"following,omitempty"`
}

// ArtifactsConfig controls OCR noise removal.
type ArtifactsConfig struct {
	SeparatorChars  string   `yaml:"separator_chars"`
	SeparatorMinRun int      `yaml:"separator_min_run"`
	Tokens          []string `yaml:"tokens,omitempty"`
	Patterns        []string `yaml:"patterns,omitempty"`
	// StrictCharset keeps only letters and marks of Scripts, digits, whitespace
	// and common punctuation.
	StrictCharset bool     `yaml:"strict_charset"`
	Scripts       []string `yaml:"scripts"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// StorageConfig holds the run ledger location.
type StorageConfig struct {
	DatabasePath string `yaml:"database_path"`
	Disabled     bool   `yaml:"disabled"`
}

// WatchConfig holds input directory watch settings.
type WatchConfig struct {
	Recursive  *bool `yaml:"recursive"`
	DebounceMS int   `yaml:"debounce_ms"`
}

// RecursiveOrDefault returns whether to watch recursively; defaults to false when unset,
// since batch runs only read the top level of the input directory.
func (w *WatchConfig) RecursiveOrDefault() bool {
	if w.Recursive != nil {
		return *w.Recursive
	}
	return false
}

// PageNumbersEnabled reports whether the page-number rule runs; defaults to true.
func (r *RulesConfig) PageNumbersEnabled() bool {
	if r.PageNumbers != nil {
		return *r.PageNumbers
	}
	return true
}

// AllHeaders returns Headers followed by ExtraHeaders.
func (r *RulesConfig) AllHeaders() []HeaderSpec {
	out := make([]HeaderSpec, 0, len(r.Headers)+len(r.ExtraHeaders))
	out = append(out, r.Headers...)
	return append(out, r.ExtraHeaders...)
}

// Default returns a config with every default applied and no file behind it.
func Default() *Config {
	cfg := &Config{}
	ApplyDefaults(cfg)
	return cfg
}

// Load reads and parses the config file at path, expands paths, and applies defaults.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	configDir := filepath.Dir(path)
	cfg.Input.Directory = expandPath(cfg.Input.Directory, configDir)
	cfg.Output.Directory = expandPath(cfg.Output.Directory, configDir)
	cfg.Storage.DatabasePath = expandPath(cfg.Storage.DatabasePath, configDir)

	return &cfg, nil
}

// Save writes the config to path.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

// Validate checks values that defaults cannot repair.
func Validate(cfg *Config) error {
	switch cfg.Output.LineEnding {
	case "lf", "crlf":
	default:
		return fmt.Errorf("invalid output.line_ending %q: use lf or crlf", cfg.Output.LineEnding)
	}
	if cfg.Rules.MaxBlankLines != nil && *cfg.Rules.MaxBlankLines < 0 {
		return fmt.Errorf("rules.max_blank_lines must not be negative")
	}
	for i, h := range cfg.Rules.AllHeaders() {
		if (h.Literal == "") == (h.Pattern == "") {
			return fmt.Errorf("rules header %d: set exactly one of literal or pattern", i)
		}
		if h.Following < 0 {
			return fmt.Errorf("rules header %d: following must not be negative", i)
		}
	}
	return nil
}

// expandPath resolves paths starting with "./" against configDir. Other relative
// paths stay relative to the working directory, matching the defaults.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
