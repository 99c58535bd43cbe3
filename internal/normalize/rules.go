package normalize

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/hansardclean/internal/config"
	"github.com/hyperjump/hansardclean/internal/fileid"
)

// DefaultRules builds the standard chain from a rule config, in this order:
// headers, page numbers, artifacts, whitespace, blank lines. Whitespace runs
// after artifact removal so removed tokens do not leave double spaces.
func DefaultRules(cfg *config.RulesConfig) ([]Rule, error) {
	headers, err := NewHeaderRule(cfg.AllHeaders())
	if err != nil {
		return nil, err
	}
	artifacts, err := NewArtifactRule(cfg.Artifacts)
	if err != nil {
		return nil, err
	}
	maxBlank := 1
	if cfg.MaxBlankLines != nil {
		maxBlank = *cfg.MaxBlankLines
	}

	rules := []Rule{headers}
	if cfg.PageNumbersEnabled() {
		rules = append(rules, NewPageNumberRule())
	}
	rules = append(rules,
		artifacts,
		NewWhitespaceRule(),
		NewBlankLineRule(maxBlank),
	)
	return rules, nil
}

// FromConfig builds a Normalizer from the rules and output sections of cfg.
// Invalid patterns are reported here so Normalize itself never fails.
func FromConfig(cfg *config.Config) (*Normalizer, error) {
	rules, err := DefaultRules(&cfg.Rules)
	if err != nil {
		return nil, fmt.Errorf("build rules: %w", err)
	}
	fp, err := Fingerprint(cfg)
	if err != nil {
		return nil, err
	}
	opts := []Option{WithFingerprint(fp)}
	if cfg.Output.LineEnding == "crlf" {
		opts = append(opts, WithCRLF())
	}
	return New(rules, opts...), nil
}

// Fingerprint hashes everything that affects cleaned output. A change in
// rules or line endings invalidates previously cleaned files.
func Fingerprint(cfg *config.Config) (string, error) {
	data, err := yaml.Marshal(struct {
		Rules      config.RulesConfig `yaml:"rules"`
		LineEnding string             `yaml:"line_ending"`
	}{cfg.Rules, cfg.Output.LineEnding})
	if err != nil {
		return "", fmt.Errorf("fingerprint rules: %w", err)
	}
	return fileid.ContentHash(data), nil
}
