package models

import "time"

// RunSummary collects the results of one batch run.
type RunSummary struct {
	ID         string        `json:"id"`
	InputDir   string        `json:"input_dir"`
	OutputDir  string        `json:"output_dir"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at,omitempty"`
	Cleaned    int           `json:"cleaned"`
	Skipped    int           `json:"skipped"`
	Failed     int           `json:"failed"`
	Files      []*FileResult `json:"files,omitempty"`
}

// Add appends a file result and updates the totals.
func (s *RunSummary) Add(res *FileResult) {
	s.Files = append(s.Files, res)
	switch res.Status {
	case StatusCleaned:
		s.Cleaned++
	case StatusSkipped:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}

// Total returns the number of files seen in the run.
func (s *RunSummary) Total() int {
	return s.Cleaned + s.Skipped + s.Failed
}

// Failures returns the failed file results in processing order.
func (s *RunSummary) Failures() []*FileResult {
	var out []*FileResult
	for _, f := range s.Files {
		if f.Status == StatusFailed {
			out = append(out, f)
		}
	}
	return out
}
