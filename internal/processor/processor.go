// Package processor runs the cleaning pipeline over files and directories:
// read, normalize, verify, write atomically, and record in the ledger.
package processor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/hansardclean/internal/extract"
	"github.com/hyperjump/hansardclean/internal/fileid"
	"github.com/hyperjump/hansardclean/internal/models"
	"github.com/hyperjump/hansardclean/internal/normalize"
	"github.com/hyperjump/hansardclean/internal/storage"
	"github.com/hyperjump/hansardclean/internal/verify"
)

// ErrSameDirectory is returned when the input and output directories resolve
// to the same path; cleaning in place would overwrite the raw transcripts.
var ErrSameDirectory = errors.New("input and output directories must differ")

// Processor cleans transcript files. Runs are serialized, so batch, watch and
// HTTP callers may share one Processor.
type Processor struct {
	normalizer *normalize.Normalizer
	extractor  *extract.Extractor
	ledger     storage.Ledger // optional
	exts       []string
	force      bool
	logger     *zap.Logger

	mu     sync.Mutex
	owners map[string]string // output path -> source path that last wrote it
}

// Option configures a Processor.
type Option func(*Processor)

// WithLedger records every file outcome and enables skipping unchanged files.
func WithLedger(l storage.Ledger) Option {
	return func(p *Processor) { p.ledger = l }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.logger = l }
}

// WithForce reprocesses files even when the ledger says they are unchanged.
func WithForce(force bool) Option {
	return func(p *Processor) { p.force = force }
}

// WithExtensions sets which input files a directory run picks up (default ".txt").
func WithExtensions(exts []string) Option {
	return func(p *Processor) { p.exts = exts }
}

// New creates a Processor. extractor may be nil, in which case every file is
// read as strict UTF-8 plain text.
func New(n *normalize.Normalizer, extractor *extract.Extractor, opts ...Option) *Processor {
	if extractor == nil {
		extractor = extract.NewExtractor()
	}
	p := &Processor{
		normalizer: n,
		extractor:  extractor,
		exts:       []string{".txt"},
		logger:     zap.NewNop(),
		owners:     make(map[string]string),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extensions returns the input extensions a directory run picks up.
func (p *Processor) Extensions() []string {
	return append([]string(nil), p.exts...)
}

// RulesFingerprint identifies the rule set outputs are cleaned with.
func (p *Processor) RulesFingerprint() string {
	return p.normalizer.Fingerprint()
}

// Clean normalizes text and reports residual issues. It touches no files.
func (p *Processor) Clean(text string) (string, models.Issues) {
	cleaned := p.normalizer.Normalize(text)
	return cleaned, verify.Check(cleaned)
}

// ProcessDirectory cleans every matching file directly inside inDir into outDir,
// in name order. Both directories are created if absent. A file that fails is
// recorded in the summary and the run continues; the returned error covers only
// batch-level problems and context cancellation, which stops the run between files.
func (p *Processor) ProcessDirectory(ctx context.Context, inDir, outDir string) (*models.RunSummary, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	absIn, absOut, err := resolveDirs(inDir, outDir)
	if err != nil {
		return nil, err
	}
	for _, dir := range []string{absIn, absOut} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	paths, err := p.listInputs(absIn)
	if err != nil {
		return nil, err
	}

	run := &models.RunSummary{
		ID:        uuid.New().String(),
		InputDir:  absIn,
		OutputDir: absOut,
		StartedAt: time.Now(),
	}
	// Run bookkeeping outlives cancellation so an interrupted run is still closed.
	ledgerCtx := context.WithoutCancel(ctx)
	if p.ledger != nil {
		if err := p.ledger.BeginRun(ledgerCtx, run); err != nil {
			p.logger.Warn("ledger begin run failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	p.logger.Info("run started",
		zap.String("run_id", run.ID),
		zap.String("input", absIn),
		zap.String("output", absOut),
		zap.Int("files", len(paths)))

	claimed := make(map[string]string, len(paths))
	var runErr error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		outName := extract.OutputName(path)
		if first, ok := claimed[outName]; ok {
			run.Add(p.fail(ctx, p.newResult(path, run.ID), outputInUse(outName, first)))
			continue
		}
		if owner := p.outputOwner(ctx, filepath.Join(absOut, outName), path); owner != "" {
			run.Add(p.fail(ctx, p.newResult(path, run.ID), outputInUse(outName, owner)))
			continue
		}
		claimed[outName] = path
		run.Add(p.processFile(ctx, path, absOut, run.ID))
	}

	run.FinishedAt = time.Now()
	if p.ledger != nil {
		if err := p.ledger.FinishRun(ledgerCtx, run); err != nil {
			p.logger.Warn("ledger finish run failed", zap.String("run_id", run.ID), zap.Error(err))
		}
	}
	p.logger.Info("run finished",
		zap.String("run_id", run.ID),
		zap.Int("cleaned", run.Cleaned),
		zap.Int("skipped", run.Skipped),
		zap.Int("failed", run.Failed),
		zap.Duration("elapsed", run.FinishedAt.Sub(run.StartedAt)))
	return run, runErr
}

// ProcessFile cleans one file into outDir, creating outDir if needed. The
// outcome, including failure, is reported in the result rather than as an error.
func (p *Processor) ProcessFile(ctx context.Context, path, outDir string) *models.FileResult {
	p.mu.Lock()
	defer p.mu.Unlock()

	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return p.fail(ctx, p.newResult(path, ""), fmt.Errorf("absolute path: %w", err))
	}
	if err := os.MkdirAll(absOut, 0755); err != nil {
		return p.fail(ctx, p.newResult(path, ""), fmt.Errorf("create directory %s: %w", absOut, err))
	}
	return p.processFile(ctx, path, absOut, "")
}

// RemoveOutput deletes the cleaned counterpart of an input file and its ledger row.
// A missing output file is not an error. An output written by another, still
// present source is left in place.
func (p *Processor) RemoveOutput(ctx context.Context, path, outDir string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return fmt.Errorf("absolute path: %w", err)
	}
	outPath := filepath.Join(absOut, extract.OutputName(absPath))
	if owner := p.outputOwner(ctx, outPath, absPath); owner != "" {
		p.logger.Debug("output belongs to another source",
			zap.String("file", filepath.Base(absPath)), zap.String("owner", filepath.Base(owner)))
	} else {
		if err := os.Remove(outPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("remove output: %w", err)
		}
		delete(p.owners, outPath)
	}
	if p.ledger != nil {
		if err := p.ledger.DeleteFile(ctx, absPath); err != nil {
			return fmt.Errorf("ledger delete: %w", err)
		}
	}
	p.logger.Info("output removed", zap.String("file", filepath.Base(absPath)), zap.String("output", outPath))
	return nil
}

// Accepts reports whether path names an input file a directory run would pick up.
func (p *Processor) Accepts(path string) bool {
	base := filepath.Base(path)
	return !strings.HasPrefix(base, ".") && extract.MatchExtension(base, p.exts)
}

func (p *Processor) processFile(ctx context.Context, path, outDir, runID string) *models.FileResult {
	res := p.newResult(path, runID)
	outPath := filepath.Join(outDir, extract.OutputName(res.SourcePath))
	p.logger.Debug("processing file", zap.String("file", res.Name))

	if owner := p.outputOwner(ctx, outPath, res.SourcePath); owner != "" {
		return p.fail(ctx, res, outputInUse(filepath.Base(outPath), owner))
	}

	content, err := os.ReadFile(res.SourcePath)
	if err != nil {
		return p.discard(ctx, res, outPath, fmt.Errorf("read file: %w", err))
	}
	res.SourceHash = fileid.ContentHash(content)
	res.RulesHash = p.normalizer.Fingerprint()

	if prev := p.unchanged(ctx, res, outPath); prev != nil {
		res.Status = models.StatusSkipped
		res.OutputPath = outPath
		res.LinesIn, res.LinesOut, res.Issues = prev.LinesIn, prev.LinesOut, prev.Issues
		p.logger.Debug("skipping unchanged file", zap.String("file", res.Name))
		p.owners[outPath] = res.SourcePath
		p.record(ctx, res)
		return res
	}

	text, err := p.extractor.ExtractBytes(content, strings.ToLower(filepath.Ext(res.SourcePath)))
	if err != nil {
		return p.discard(ctx, res, outPath, err)
	}
	cleaned := p.normalizer.Normalize(text)
	res.LinesIn = len(normalize.SplitLines(text))
	res.LinesOut = len(normalize.SplitLines(cleaned))
	res.Issues = verify.Check(cleaned)

	if err := writeAtomic(outPath, []byte(cleaned)); err != nil {
		return p.discard(ctx, res, outPath, err)
	}
	res.OutputPath = outPath
	res.Status = models.StatusCleaned
	p.owners[outPath] = res.SourcePath

	p.logger.Info("file cleaned",
		zap.String("file", res.Name),
		zap.Int("lines_in", res.LinesIn),
		zap.Int("lines_out", res.LinesOut))
	if res.Issues.Any() {
		p.logger.Warn("potential issues found",
			zap.String("file", res.Name),
			zap.Int("isolated_numbers", res.Issues.IsolatedNumbers),
			zap.Int("excessive_whitespace", res.Issues.ExcessiveWhitespace),
			zap.Int("empty_lines", res.Issues.EmptyLines))
	}
	p.record(ctx, res)
	return res
}

func (p *Processor) newResult(path, runID string) *models.FileResult {
	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = filepath.Clean(path)
	}
	return &models.FileResult{
		ID:         fileid.PathID(absPath),
		Name:       filepath.Base(absPath),
		SourcePath: absPath,
		RunID:      runID,
	}
}

// unchanged returns the previous ledger row when the file can be skipped: same
// source bytes, same rule set, last attempt succeeded, output still present.
func (p *Processor) unchanged(ctx context.Context, res *models.FileResult, outPath string) *models.FileResult {
	if p.force || p.ledger == nil {
		return nil
	}
	prev, err := p.ledger.GetFile(ctx, res.SourcePath)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			p.logger.Warn("ledger lookup failed", zap.String("file", res.Name), zap.Error(err))
		}
		return nil
	}
	if prev.Status == models.StatusFailed ||
		prev.SourceHash != res.SourceHash ||
		prev.RulesHash != res.RulesHash ||
		prev.OutputPath != outPath {
		return nil
	}
	if _, err := os.Stat(outPath); err != nil {
		return nil
	}
	return prev
}

func (p *Processor) fail(ctx context.Context, res *models.FileResult, err error) *models.FileResult {
	res.Status = models.StatusFailed
	res.Error = err.Error()
	p.logger.Error("file failed", zap.String("file", res.Name), zap.Error(err))
	p.record(ctx, res)
	return res
}

// outputOwner returns the source path, other than source, whose cleaned text
// occupies outPath. Claims by sources that no longer exist are dropped.
func (p *Processor) outputOwner(ctx context.Context, outPath, source string) string {
	owner := p.owners[outPath]
	if owner == "" && p.ledger != nil {
		prev, err := p.ledger.GetFileByOutput(ctx, outPath)
		switch {
		case err == nil:
			owner = prev.SourcePath
		case !errors.Is(err, storage.ErrNotFound):
			p.logger.Warn("ledger output lookup failed", zap.String("output", outPath), zap.Error(err))
		}
	}
	if owner == "" || owner == source {
		return ""
	}
	if _, err := os.Stat(owner); err != nil {
		delete(p.owners, outPath)
		return ""
	}
	return owner
}

func outputInUse(outName, owner string) error {
	return fmt.Errorf("output name %s already used by %s", outName, filepath.Base(owner))
}

// discard fails res and removes the output left by an earlier successful
// clean of the same source, so a failed file never keeps stale text.
func (p *Processor) discard(ctx context.Context, res *models.FileResult, outPath string, err error) *models.FileResult {
	if info, statErr := os.Lstat(outPath); statErr == nil && info.Mode().IsRegular() {
		if rmErr := os.Remove(outPath); rmErr != nil {
			p.logger.Warn("remove stale output failed", zap.String("output", outPath), zap.Error(rmErr))
		} else {
			p.logger.Info("stale output removed", zap.String("file", res.Name), zap.String("output", outPath))
		}
	}
	if p.owners[outPath] == res.SourcePath {
		delete(p.owners, outPath)
	}
	return p.fail(ctx, res, err)
}

func (p *Processor) record(ctx context.Context, res *models.FileResult) {
	res.UpdatedAt = time.Now()
	if p.ledger == nil {
		return
	}
	if err := p.ledger.RecordFile(ctx, res); err != nil {
		p.logger.Warn("ledger record failed", zap.String("file", res.Name), zap.Error(err))
	}
}

// listInputs returns matching regular files directly inside dir, sorted by name.
// Hidden files and subdirectories are ignored; symlinks to regular files count.
func (p *Processor) listInputs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("list input directory: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !p.Accepts(entry.Name()) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := os.Stat(path)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func resolveDirs(inDir, outDir string) (string, string, error) {
	absIn, err := filepath.Abs(inDir)
	if err != nil {
		return "", "", fmt.Errorf("absolute path: %w", err)
	}
	absOut, err := filepath.Abs(outDir)
	if err != nil {
		return "", "", fmt.Errorf("absolute path: %w", err)
	}
	if absIn == absOut {
		return "", "", fmt.Errorf("%w: %s", ErrSameDirectory, absIn)
	}
	return absIn, absOut, nil
}
