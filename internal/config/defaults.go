package config

const (
	// DefaultInputDir and DefaultOutputDir are relative to the working directory.
	DefaultInputDir  = "raw_texts"
	DefaultOutputDir = "cleaned_texts"

	defaultSeparatorChars  = ".-_=*~·•…"
	defaultSeparatorMinRun = 4
	defaultMaxBlankLines   = 1
)

// DefaultHeaders is the built-in header/footer list for Sri Lankan Hansard
// transcripts in English, Sinhala and Tamil.
func DefaultHeaders() []HeaderSpec {
	return []HeaderSpec{
		{Literal: "PARLIAMENTARY DEBATES (HANSARD)"},
		{Pattern: `(?i)parliamentary debates\s*\(?hansard\)?.*`},
		{Pattern: `(?i)parliament of (the democratic socialist republic of )?sri lanka`},
		{Pattern: `(?i)page\s+\p{Nd}+(\s*(of|/)\s*\p{Nd}+)?`},
		{Pattern: `(?i)(volume|vol\.)\s*\p{Nd}+\s*[-–,]?\s*(no\.?|number)\s*\p{Nd}+`},
		// The Sinhala banner is followed by a date/session line.
		{Pattern: "පාර්ලිමේන්තු විවාද.*", Following: 1},
		{Pattern: ".*ශ්\u200dරී ලංකා ප්\u200dරජාතාන්ත්\u200dරික සමාජවාදී ජනරජයේ පාර්ලිමේන්තුව.*"},
		{Pattern: "பாராளுமன்ற விவாதங்கள்.*"},
	}
}

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Input.Directory == "" {
		cfg.Input.Directory = DefaultInputDir
	}
	if cfg.Input.Extensions == nil {
		cfg.Input.Extensions = []string{".txt"}
	}
	if cfg.Output.Directory == "" {
		cfg.Output.Directory = DefaultOutputDir
	}
	if cfg.Output.LineEnding == "" {
		cfg.Output.LineEnding = "lf"
	}
	if cfg.Rules.Headers == nil {
		cfg.Rules.Headers = DefaultHeaders()
	}
	if cfg.Rules.PageNumbers == nil {
		t := true
		cfg.Rules.PageNumbers = &t
	}
	if cfg.Rules.MaxBlankLines == nil {
		n := defaultMaxBlankLines
		cfg.Rules.MaxBlankLines = &n
	}
	if cfg.Rules.Artifacts.SeparatorChars == "" {
		cfg.Rules.Artifacts.SeparatorChars = defaultSeparatorChars
	}
	if cfg.Rules.Artifacts.SeparatorMinRun == 0 {
		cfg.Rules.Artifacts.SeparatorMinRun = defaultSeparatorMinRun
	}
	if cfg.Rules.Artifacts.Scripts == nil {
		cfg.Rules.Artifacts.Scripts = []string{"Sinhala", "Tamil", "Latin", "Inherited"}
	}
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8090
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = ".hansardclean/ledger.db"
	}
	if cfg.Watch.DebounceMS == 0 {
		cfg.Watch.DebounceMS = 400
	}
}
