// Package main is the hansardclean CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/hansardclean/internal/cli"
	"github.com/hyperjump/hansardclean/internal/config"
	"github.com/hyperjump/hansardclean/internal/extract"
	"github.com/hyperjump/hansardclean/internal/models"
	"github.com/hyperjump/hansardclean/internal/normalize"
	"github.com/hyperjump/hansardclean/internal/processor"
	"github.com/hyperjump/hansardclean/internal/report"
	"github.com/hyperjump/hansardclean/internal/server"
	"github.com/hyperjump/hansardclean/internal/storage"
	"github.com/hyperjump/hansardclean/internal/watcher"
	"github.com/hyperjump/hansardclean/pkg/utils"
)

var version = "dev"

const (
	defaultConfigName = "config.yaml"
	defaultEnvFile    = ".env"
	exportPageSize    = 1000
)

// errFilesFailed makes a finished run exit non-zero when any file failed.
var errFilesFailed = errors.New("one or more files failed")

// options are the flags shared by every subcommand.
type options struct {
	configPath string
	input      string
	output     string
	force      bool
	debug      bool
	format     string
}

func (o *options) register(fs *flag.FlagSet) {
	fs.StringVar(&o.configPath, "config", "", "config file path (default: ./config.yaml if present, else built-in defaults)")
	fs.StringVar(&o.input, "input", "", "input directory (overrides config)")
	fs.StringVar(&o.output, "output", "", "output directory (overrides config)")
	fs.BoolVar(&o.force, "force", false, "reprocess files the ledger reports as unchanged")
	fs.BoolVar(&o.debug, "debug", false, "enable debug logging")
	fs.StringVar(&o.format, "output-format", "text", "output format: text or json")
}

// loadConfig loads config from path. With an empty path it uses config.yaml in
// the current directory when present and the built-in defaults otherwise.
// It returns the config and the path actually loaded ("" for defaults).
func loadConfig(path string) (*config.Config, string, error) {
	if path == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return config.Default(), "", nil
		}
		fallback := filepath.Join(cwd, defaultConfigName)
		if _, err := os.Stat(fallback); err != nil {
			return config.Default(), "", nil
		}
		path = fallback
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, "", err
	}
	return cfg, path, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

// splitCommand returns the subcommand and its arguments. Without a leading
// subcommand the batch run is implied.
func splitCommand(args []string) (string, []string) {
	if len(args) == 0 || strings.HasPrefix(args[0], "-") {
		return "run", args
	}
	return args[0], args[1:]
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	command, rest := splitCommand(args)
	switch command {
	case "version", "--version", "-v":
		fmt.Fprintf(stdout, "hansardclean version %s\n", version)
		return 0
	case "help", "--help", "-h":
		printUsage(stdout)
		return 0
	case "run", "clean", "watch", "server", "status", "export":
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", command)
		printUsage(stderr)
		return 2
	}

	fs := flag.NewFlagSet(command, flag.ContinueOnError)
	fs.SetOutput(stderr)
	var opts options
	opts.register(fs)
	serverURL := ""
	if command == "status" {
		fs.StringVar(&serverURL, "server", "", "query a running server (e.g. http://localhost:8090) instead of the local ledger")
	}
	if err := fs.Parse(rest); err != nil {
		return 2
	}
	format, err := cli.ParseOutputFormat(opts.format)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	cfg, resolvedConfigPath, err := loadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load config: %v\n", err)
		return 1
	}
	env, err := config.Env(defaultEnvFile)
	if err == nil {
		err = config.ApplyEnv(cfg, env)
	}
	if err != nil {
		fmt.Fprintf(stderr, "Failed to load environment: %v\n", err)
		return 1
	}
	applyFlags(cfg, &opts)

	logger, err := utils.NewLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = logger.Sync() }()
	logger.Debug("config loaded",
		zap.String("config_path", resolvedConfigPath),
		zap.String("input", cfg.Input.Directory),
		zap.String("output", cfg.Output.Directory))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &app{cfg: cfg, opts: &opts, format: format, logger: logger, stdin: stdin, stdout: stdout}
	switch command {
	case "run":
		err = app.runBatch(ctx)
	case "clean":
		err = app.runClean(fs.Args())
	case "watch":
		err = app.runWatch(ctx)
	case "server":
		err = app.runServer(ctx)
	case "status":
		err = app.runStatus(ctx, serverURL)
	case "export":
		err = app.runExport(ctx, fs.Args())
	}
	if err != nil {
		if !errors.Is(err, errFilesFailed) {
			fmt.Fprintf(stderr, "%s failed: %v\n", command, err)
		}
		return 1
	}
	return 0
}

func applyFlags(cfg *config.Config, opts *options) {
	if opts.input != "" {
		cfg.Input.Directory = opts.input
	}
	if opts.output != "" {
		cfg.Output.Directory = opts.output
	}
	if opts.debug {
		cfg.Debug = true
	}
}

type app struct {
	cfg    *config.Config
	opts   *options
	format cli.OutputFormat
	logger *zap.Logger
	stdin  io.Reader
	stdout io.Writer
}

// components are the long-lived pieces a subcommand works with.
type components struct {
	proc      *processor.Processor
	extractor *extract.Extractor
	ledger    storage.Ledger // nil when disabled or not requested
	closer    io.Closer
}

func (c *components) Close() {
	if c.closer != nil {
		_ = c.closer.Close()
	}
}

func (a *app) initializeComponents(withLedger bool) (*components, error) {
	n, err := normalize.FromConfig(a.cfg)
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	c := &components{
		extractor: extract.NewExtractor(extract.WithReplaceInvalidUTF8(a.cfg.Input.ReplaceInvalidUTF8)),
	}
	procOpts := []processor.Option{
		processor.WithLogger(a.logger),
		processor.WithForce(a.opts.force),
		processor.WithExtensions(a.cfg.Input.Extensions),
	}
	if withLedger && !a.cfg.Storage.Disabled {
		ledger, err := storage.NewSQLiteLedger(a.cfg.Storage.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("open ledger: %w", err)
		}
		c.ledger = ledger
		c.closer = ledger
		procOpts = append(procOpts, processor.WithLedger(ledger))
	}
	c.proc = processor.New(n, c.extractor, procOpts...)
	return c, nil
}

func (a *app) runBatch(ctx context.Context) error {
	c, err := a.initializeComponents(true)
	if err != nil {
		return err
	}
	defer c.Close()

	summary, err := c.proc.ProcessDirectory(ctx, a.cfg.Input.Directory, a.cfg.Output.Directory)
	if summary != nil {
		if werr := cli.WriteSummary(a.stdout, summary, a.format); werr != nil {
			return werr
		}
	}
	if err != nil {
		return err
	}
	if summary.Failed > 0 {
		return errFilesFailed
	}
	return nil
}

// runClean prints the cleaned text of one file, or of stdin for "-".
func (a *app) runClean(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: hansardclean clean [flags] <file|->")
	}
	c, err := a.initializeComponents(false)
	if err != nil {
		return err
	}
	defer c.Close()

	var text string
	if args[0] == "-" {
		content, err := io.ReadAll(a.stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text, err = c.extractor.ExtractBytes(content, ".txt")
		if err != nil {
			return err
		}
	} else {
		text, err = c.extractor.Extract(args[0])
		if err != nil {
			return err
		}
	}

	cleaned, issues := c.proc.Clean(text)
	if a.format == cli.OutputJSON {
		enc := json.NewEncoder(a.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(struct {
			Text   string        `json:"text"`
			Issues models.Issues `json:"issues"`
		}{cleaned, issues})
	}
	if issues.Any() {
		a.logger.Warn("potential issues found", zap.String("issues", cli.FormatIssues(issues)))
	}
	_, err = io.WriteString(a.stdout, cleaned)
	return err
}

func (a *app) newWatcher(ctx context.Context, c *components) (*watcher.Watcher, error) {
	outDir, err := filepath.Abs(a.cfg.Output.Directory)
	if err != nil {
		return nil, err
	}
	accept := func(path string) bool {
		return c.proc.Accepts(path) && !within(outDir, path)
	}
	w := watcher.New(
		a.cfg.Input.Directory,
		func(path string) {
			res := c.proc.ProcessFile(ctx, path, outDir)
			if res.Status == models.StatusFailed {
				a.logger.Warn("watch clean failed", zap.String("path", path), zap.String("error", res.Error))
			}
		},
		func(path string) {
			if err := c.proc.RemoveOutput(ctx, path, outDir); err != nil {
				a.logger.Warn("watch remove failed", zap.String("path", path), zap.Error(err))
			}
		},
		watcher.WithLogger(a.logger),
		watcher.WithFilter(accept),
		watcher.WithRecursive(a.cfg.Watch.RecursiveOrDefault()),
		watcher.WithDebounce(time.Duration(a.cfg.Watch.DebounceMS)*time.Millisecond),
	)
	return w, nil
}

// within reports whether path is dir or lies under it.
func within(dir, path string) bool {
	abs, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	rel, err := filepath.Rel(dir, abs)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func (a *app) runWatch(ctx context.Context) error {
	c, err := a.initializeComponents(true)
	if err != nil {
		return err
	}
	defer c.Close()

	in, _ := filepath.Abs(a.cfg.Input.Directory)
	out, _ := filepath.Abs(a.cfg.Output.Directory)
	if in == out {
		return fmt.Errorf("%w: %s", processor.ErrSameDirectory, in)
	}
	w, err := a.newWatcher(ctx, c)
	if err != nil {
		return err
	}
	if err := w.Start(ctx); err != nil {
		return fmt.Errorf("start watcher: %w", err)
	}
	defer w.Stop()
	w.SyncExisting()

	<-ctx.Done()
	a.logger.Info("Shutting down...")
	return nil
}

func (a *app) runServer(ctx context.Context) error {
	c, err := a.initializeComponents(true)
	if err != nil {
		return err
	}
	defer c.Close()

	srv := server.NewServer(c.proc, c.ledger, a.cfg, a.logger)
	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	a.logger.Info("Shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(shutdownCtx)
}

func (a *app) runStatus(ctx context.Context, serverURL string) error {
	var status *models.Status
	if serverURL != "" {
		s, err := statusViaHTTP(ctx, serverURL)
		if err != nil {
			return err
		}
		status = s
	} else {
		c, err := a.initializeComponents(true)
		if err != nil {
			return err
		}
		defer c.Close()
		status, err = c.proc.Status(ctx, a.cfg.Input.Directory, a.cfg.Output.Directory)
		if err != nil {
			return err
		}
	}
	return cli.WriteStatus(a.stdout, status, a.format)
}

func statusViaHTTP(ctx context.Context, serverURL string) (*models.Status, error) {
	u, err := url.JoinPath(serverURL, "/api/v1/status")
	if err != nil {
		return nil, fmt.Errorf("server url: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("server returned %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}
	var status models.Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return &status, nil
}

// runExport writes every ledger row to an XLSX workbook.
func (a *app) runExport(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return errors.New("usage: hansardclean export [flags] <file.xlsx>")
	}
	if a.cfg.Storage.Disabled {
		return errors.New("export needs the ledger; storage is disabled in config")
	}
	c, err := a.initializeComponents(true)
	if err != nil {
		return err
	}
	defer c.Close()

	files, err := allFiles(ctx, c.ledger)
	if err != nil {
		return err
	}
	if err := report.WriteXLSX(args[0], files); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Exported %d files to %s\n", len(files), args[0])
	return nil
}

func allFiles(ctx context.Context, ledger storage.Ledger) ([]*models.FileResult, error) {
	var all []*models.FileResult
	for offset := 0; ; offset += exportPageSize {
		page, err := ledger.ListFiles(ctx, offset, exportPageSize)
		if err != nil {
			return nil, fmt.Errorf("list files: %w", err)
		}
		all = append(all, page...)
		if len(page) < exportPageSize {
			return all, nil
		}
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `hansardclean - clean OCR-extracted Hansard transcripts

Usage:
  hansardclean [flags]                 Same as "hansardclean run"
  hansardclean run [flags]             Clean every input file into the output directory
  hansardclean clean [flags] <file|->  Print the cleaned text of one file (or stdin)
  hansardclean watch [flags]           Clean files as they change in the input directory
  hansardclean server [flags]          Start the HTTP API
  hansardclean status [flags]          Show directories, rule fingerprint and ledger totals
  hansardclean export [flags] <file>   Export the ledger as an XLSX workbook
  hansardclean version                 Show version
  hansardclean help                    Show this help

Flags:
  --config string         Config file path (default: ./config.yaml if present, else built-in defaults)
  --input string          Input directory (default: raw_texts)
  --output string         Output directory (default: cleaned_texts)
  --force                 Reprocess files the ledger reports as unchanged
  --debug                 Enable debug logging
  --output-format string  Output format: text or json (default: text)

Status Flags:
  --server string         Query a running server instead of the local ledger

Examples:
  hansardclean
  hansardclean --input scans/2019 --output cleaned/2019
  hansardclean clean raw_texts/2019-03-05.txt
  cat page.txt | hansardclean clean -
  hansardclean status --output-format json
  hansardclean export ledger.xlsx`)
}
