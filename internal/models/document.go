// Package models defines core data structures for documents, per-file results, and runs.
package models

import "time"

// Document is one input file's text as an ordered sequence of lines.
type Document struct {
	Name  string   `json:"name"`
	Lines []string `json:"lines"`
}

// FileStatus is the outcome of processing one file.
type FileStatus string

const (
	StatusCleaned FileStatus = "cleaned"
	StatusSkipped FileStatus = "skipped"
	StatusFailed  FileStatus = "failed"
)

// Issues counts residual problems found in cleaned text.
type Issues struct {
	IsolatedNumbers     int `json:"isolated_numbers" db:"isolated_numbers"`
	ExcessiveWhitespace int `json:"excessive_whitespace" db:"excessive_whitespace"`
	EmptyLines          int `json:"empty_lines" db:"empty_lines"`
}

// Any reports whether any issue count is non-zero.
func (i Issues) Any() bool {
	return i.IsolatedNumbers > 0 || i.ExcessiveWhitespace > 0 || i.EmptyLines > 0
}

// FileResult is the outcome of cleaning one input file. It doubles as the
// ledger row for that file.
type FileResult struct {
	ID         string     `json:"id" db:"id"`
	Name       string     `json:"name" db:"name"`
	SourcePath string     `json:"source_path" db:"source_path"`
	OutputPath string     `json:"output_path,omitempty" db:"output_path"`
	SourceHash string     `json:"source_hash,omitempty" db:"source_hash"`
	RulesHash  string     `json:"rules_hash,omitempty" db:"rules_hash"`
	Status     FileStatus `json:"status" db:"status"`
	Error      string     `json:"error,omitempty" db:"error"`
	LinesIn    int        `json:"lines_in" db:"lines_in"`
	LinesOut   int        `json:"lines_out" db:"lines_out"`
	Issues     Issues     `json:"issues"`
	RunID      string     `json:"run_id,omitempty" db:"run_id"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}
