// Package cli provides output helpers for the hansardclean command.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/hyperjump/hansardclean/internal/models"
)

// OutputFormat is the format for command output.
type OutputFormat string

const (
	// OutputText is human-readable text (default).
	OutputText OutputFormat = "text"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseOutputFormat validates a -output-format value.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case OutputText, OutputJSON:
		return f, nil
	case "":
		return OutputText, nil
	default:
		return "", fmt.Errorf("unknown output format %q; use text or json", s)
	}
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteSummary writes a run summary to w. The text form lists failed files
// and files with residual issues after the totals.
func WriteSummary(w io.Writer, summary *models.RunSummary, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, summary)
	}
	elapsed := summary.FinishedAt.Sub(summary.StartedAt)
	if summary.FinishedAt.IsZero() || elapsed < 0 {
		elapsed = 0
	}
	fmt.Fprintf(w, "Processed %d files in %s (%d cleaned, %d skipped, %d failed)\n",
		summary.Total(), elapsed.Round(time.Millisecond), summary.Cleaned, summary.Skipped, summary.Failed)
	fmt.Fprintf(w, "  input:  %s\n  output: %s\n", summary.InputDir, summary.OutputDir)

	if failures := summary.Failures(); len(failures) > 0 {
		fmt.Fprintln(w, "\nFailed:")
		for _, res := range failures {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, Truncate(res.Error, 120))
		}
	}
	var flagged []*models.FileResult
	for _, res := range summary.Files {
		if res.Status != models.StatusFailed && res.Issues.Any() {
			flagged = append(flagged, res)
		}
	}
	if len(flagged) > 0 {
		fmt.Fprintln(w, "\nPotential issues:")
		for _, res := range flagged {
			fmt.Fprintf(w, "  %s: %s\n", res.Name, FormatIssues(res.Issues))
		}
	}
	return nil
}

// FormatIssues renders the non-zero issue counts, e.g.
// "2 isolated numbers, 1 excessive whitespace".
func FormatIssues(i models.Issues) string {
	var parts []string
	if i.IsolatedNumbers > 0 {
		parts = append(parts, fmt.Sprintf("%d isolated numbers", i.IsolatedNumbers))
	}
	if i.ExcessiveWhitespace > 0 {
		parts = append(parts, fmt.Sprintf("%d excessive whitespace", i.ExcessiveWhitespace))
	}
	if i.EmptyLines > 0 {
		parts = append(parts, fmt.Sprintf("%d empty line runs", i.EmptyLines))
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, ", ")
}

// WriteStatus writes the cleaner status to w.
func WriteStatus(w io.Writer, status *models.Status, format OutputFormat) error {
	if format == OutputJSON {
		return writeJSON(w, status)
	}
	fmt.Fprintf(w, "input_dir:          %s\n", status.InputDir)
	fmt.Fprintf(w, "output_dir:         %s\n", status.OutputDir)
	fmt.Fprintf(w, "extensions:         %s\n", strings.Join(status.Extensions, " "))
	fmt.Fprintf(w, "rules_fingerprint:  %s\n", Truncate(status.RulesFingerprint, 16))
	if status.OutputUsage != nil {
		fmt.Fprintf(w, "output_files:       %d   # %d bytes on disk\n", status.OutputUsage.Files, status.OutputUsage.Bytes)
	}
	if !status.LedgerEnabled {
		fmt.Fprintln(w, "ledger:             disabled")
		return nil
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "# ledger")
	fmt.Fprintf(w, "cleaned:            %d\n", status.Files[models.StatusCleaned])
	fmt.Fprintf(w, "skipped:            %d\n", status.Files[models.StatusSkipped])
	fmt.Fprintf(w, "failed:             %d\n", status.Files[models.StatusFailed])
	if run := status.LatestRun; run != nil {
		fmt.Fprintf(w, "latest_run:         %s   # started %s\n", run.ID, run.StartedAt.Format(time.RFC3339))
	}
	return nil
}

// Truncate truncates s to maxLen runes and appends "..." if truncated.
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
