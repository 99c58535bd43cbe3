package models

// Usage summarises the files under a directory.
type Usage struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

// Status describes the cleaner's directories, rule set and ledger totals.
type Status struct {
	InputDir         string               `json:"input_dir"`
	OutputDir        string               `json:"output_dir"`
	Extensions       []string             `json:"extensions"`
	RulesFingerprint string               `json:"rules_fingerprint"`
	LedgerEnabled    bool                 `json:"ledger_enabled"`
	OutputUsage      *Usage               `json:"output_usage,omitempty"`
	Files            map[FileStatus]int64 `json:"files,omitempty"`
	LatestRun        *RunSummary          `json:"latest_run,omitempty"`
}
