package processor

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/hyperjump/hansardclean/internal/models"
	"github.com/hyperjump/hansardclean/internal/storage"
)

// Status reports the directories, rule fingerprint, output disk usage and,
// when a ledger is configured, per-status file counts and the latest run.
func (p *Processor) Status(ctx context.Context, inDir, outDir string) (*models.Status, error) {
	status := &models.Status{
		InputDir:         inDir,
		OutputDir:        outDir,
		Extensions:       p.Extensions(),
		RulesFingerprint: p.RulesFingerprint(),
		LedgerEnabled:    p.ledger != nil,
	}
	if usage, err := storage.DirUsage(outDir); err == nil {
		status.OutputUsage = &usage
	} else {
		p.logger.Warn("output usage failed", zap.String("dir", outDir), zap.Error(err))
	}
	if p.ledger == nil {
		return status, nil
	}

	counts, err := p.ledger.CountByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count files: %w", err)
	}
	status.Files = counts
	run, err := p.ledger.LatestRun(ctx)
	switch {
	case err == nil:
		status.LatestRun = run
	case !errors.Is(err, storage.ErrNotFound):
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return status, nil
}
