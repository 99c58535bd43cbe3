// Package storage persists cleaning runs and per-file outcomes.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/hansardclean/internal/models"
)

// ErrNotFound is returned when a requested run or file has no ledger row.
var ErrNotFound = errors.New("not found")

// Ledger records runs and the latest outcome for every source file.
type Ledger interface {
	// Run operations
	BeginRun(ctx context.Context, run *models.RunSummary) error
	FinishRun(ctx context.Context, run *models.RunSummary) error
	LatestRun(ctx context.Context) (*models.RunSummary, error)

	// File operations, keyed by source path
	RecordFile(ctx context.Context, res *models.FileResult) error
	GetFile(ctx context.Context, sourcePath string) (*models.FileResult, error)
	GetFileByName(ctx context.Context, name string) (*models.FileResult, error)
	GetFileByOutput(ctx context.Context, outputPath string) (*models.FileResult, error)
	ListFiles(ctx context.Context, offset, limit int) ([]*models.FileResult, error)
	DeleteFile(ctx context.Context, sourcePath string) error

	// Stats
	CountByStatus(ctx context.Context) (map[models.FileStatus]int64, error)

	Close() error
}
