package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/hansardclean/internal/config"
	"github.com/hyperjump/hansardclean/internal/models"
	"github.com/hyperjump/hansardclean/internal/report"
)

const rawSitting = "PARLIAMENTARY DEBATES (HANSARD)\n\nThe House met at 9.30 a.m.\n\n\n\n12\nPAPERS   PRESENTED\n"

// testWorkspace writes a config whose input, output and ledger all live in a
// temp dir, and returns the config path and the input/output directories.
func testWorkspace(t *testing.T) (cfgPath, in, out string) {
	t.Helper()
	dir := t.TempDir()
	cfgPath = filepath.Join(dir, "config.yaml")
	content := `
input:
  directory: "./raw_texts"
output:
  directory: "./cleaned_texts"
storage:
  database_path: "./state/ledger.db"
`
	if err := os.WriteFile(cfgPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}
	in = filepath.Join(dir, "raw_texts")
	out = filepath.Join(dir, "cleaned_texts")
	if err := os.MkdirAll(in, 0755); err != nil {
		t.Fatal(err)
	}
	return cfgPath, in, out
}

func runCLI(t *testing.T, stdin string, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, strings.NewReader(stdin), &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestSplitCommand(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCmd  string
		wantRest []string
	}{
		{"no args runs batch", nil, "run", nil},
		{"flags only runs batch", []string{"-force"}, "run", []string{"-force"}},
		{"explicit command", []string{"clean", "-"}, "clean", []string{"-"}},
		{"command with flags", []string{"status", "-output-format", "json"}, "status", []string{"-output-format", "json"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, rest := splitCommand(tt.args)
			if cmd != tt.wantCmd || !reflect.DeepEqual(rest, tt.wantRest) {
				t.Errorf("splitCommand(%v) = %q, %v; want %q, %v", tt.args, cmd, rest, tt.wantCmd, tt.wantRest)
			}
		})
	}
}

func TestLoadConfig_prefersCwdConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("debug: true\n"), 0600); err != nil {
		t.Fatal(err)
	}
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	// On macOS, cwd can be /private/var/... while t.TempDir() is /var/...; compare canonical paths.
	resolvedCanon, _ := filepath.EvalSymlinks(resolved)
	configPathCanon, _ := filepath.EvalSymlinks(configPath)
	if resolvedCanon != configPathCanon {
		t.Errorf("resolved path = %s, want %s", resolved, configPath)
	}
	if !cfg.Debug {
		t.Error("debug should be true from cwd config.yaml")
	}
}

func TestLoadConfig_defaultsWithoutFile(t *testing.T) {
	origWd, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = os.Chdir(origWd) }()
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatal(err)
	}

	cfg, resolved, err := loadConfig("")
	if err != nil {
		t.Fatal(err)
	}
	if resolved != "" {
		t.Errorf("resolved = %q, want empty for built-in defaults", resolved)
	}
	if cfg.Input.Directory != config.DefaultInputDir || cfg.Output.Directory != config.DefaultOutputDir {
		t.Errorf("directories = %q, %q", cfg.Input.Directory, cfg.Output.Directory)
	}
}

func TestLoadConfig_explicitPathErrors(t *testing.T) {
	if _, _, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for a missing explicit config")
	}
}

func TestApplyFlags(t *testing.T) {
	cfg := config.Default()
	applyFlags(cfg, &options{input: "scans", output: "clean", debug: true})
	if cfg.Input.Directory != "scans" || cfg.Output.Directory != "clean" || !cfg.Debug {
		t.Errorf("flags not applied: %+v", cfg)
	}
	cfg = config.Default()
	applyFlags(cfg, &options{})
	if cfg.Input.Directory != config.DefaultInputDir {
		t.Errorf("empty flag overrode input: %q", cfg.Input.Directory)
	}
}

func TestRun_batch(t *testing.T) {
	cfgPath, in, out := testWorkspace(t)
	if err := os.WriteFile(filepath.Join(in, "2019-03-05.txt"), []byte(rawSitting), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout, stderr := runCLI(t, "", "-config", cfgPath)
	if code != 0 {
		t.Fatalf("exit code %d, stderr: %s", code, stderr)
	}
	if !strings.Contains(stdout, "1 cleaned, 0 skipped, 0 failed") {
		t.Errorf("summary = %q", stdout)
	}
	got, err := os.ReadFile(filepath.Join(out, "2019-03-05.txt"))
	if err != nil {
		t.Fatal(err)
	}
	want := "The House met at 9.30 a.m.\n\nPAPERS PRESENTED\n"
	if string(got) != want {
		t.Errorf("cleaned = %q, want %q", got, want)
	}

	// A second run skips the unchanged file; -force reprocesses it.
	code, stdout, _ = runCLI(t, "", "run", "-config", cfgPath)
	if code != 0 || !strings.Contains(stdout, "0 cleaned, 1 skipped") {
		t.Errorf("second run: code %d, %q", code, stdout)
	}
	code, stdout, _ = runCLI(t, "", "run", "-config", cfgPath, "-force")
	if code != 0 || !strings.Contains(stdout, "1 cleaned, 0 skipped") {
		t.Errorf("forced run: code %d, %q", code, stdout)
	}
}

func TestRun_failedFileExitsNonZero(t *testing.T) {
	cfgPath, in, out := testWorkspace(t)
	if err := os.WriteFile(filepath.Join(in, "a.txt"), []byte("good\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "b.txt"), []byte("bad\xff\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, stdout, _ := runCLI(t, "", "run", "-config", cfgPath, "-output-format", "json")
	if code != 1 {
		t.Errorf("exit code %d, want 1", code)
	}
	var summary models.RunSummary
	if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
		t.Fatalf("summary is not JSON: %v\n%s", err, stdout)
	}
	if summary.Cleaned != 1 || summary.Failed != 1 {
		t.Errorf("summary = %+v", summary)
	}
	if _, err := os.Stat(filepath.Join(out, "a.txt")); err != nil {
		t.Errorf("good file should still be written: %v", err)
	}
}

func TestRun_overrideDirectories(t *testing.T) {
	cfgPath, _, _ := testWorkspace(t)
	dir := t.TempDir()
	in := filepath.Join(dir, "scans")
	out := filepath.Join(dir, "clean")
	if err := os.MkdirAll(in, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(in, "x.txt"), []byte("  text  \n"), 0644); err != nil {
		t.Fatal(err)
	}
	code, _, stderr := runCLI(t, "", "-config", cfgPath, "-input", in, "-output", out)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if got, err := os.ReadFile(filepath.Join(out, "x.txt")); err != nil || string(got) != "text\n" {
		t.Errorf("output = %q, %v", got, err)
	}
}

func TestRun_cleanStdin(t *testing.T) {
	cfgPath, _, _ := testWorkspace(t)
	code, stdout, stderr := runCLI(t, rawSitting, "clean", "-config", cfgPath, "-")
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if stdout != "The House met at 9.30 a.m.\n\nPAPERS PRESENTED\n" {
		t.Errorf("stdout = %q", stdout)
	}

	code, stdout, _ = runCLI(t, "x   y\n", "clean", "-config", cfgPath, "-output-format", "json", "-")
	if code != 0 {
		t.Fatalf("json clean exit code %d", code)
	}
	var resp struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(stdout), &resp); err != nil || resp.Text != "x y\n" {
		t.Errorf("json clean = %q, %v", stdout, err)
	}
}

func TestRun_cleanFile(t *testing.T) {
	cfgPath, in, _ := testWorkspace(t)
	path := filepath.Join(in, "page.txt")
	if err := os.WriteFile(path, []byte("Page 3 of 10\nORDER\n"), 0644); err != nil {
		t.Fatal(err)
	}
	code, stdout, _ := runCLI(t, "", "clean", "-config", cfgPath, path)
	if code != 0 || stdout != "ORDER\n" {
		t.Errorf("clean file: code %d, stdout %q", code, stdout)
	}
	if code, _, _ := runCLI(t, "", "clean", "-config", cfgPath); code != 1 {
		t.Errorf("clean without a file: code %d, want 1", code)
	}
}

func TestRun_statusAndExport(t *testing.T) {
	cfgPath, in, _ := testWorkspace(t)
	if err := os.WriteFile(filepath.Join(in, "2019-03-05.txt"), []byte(rawSitting), 0644); err != nil {
		t.Fatal(err)
	}
	if code, _, stderr := runCLI(t, "", "-config", cfgPath); code != 0 {
		t.Fatalf("run: %s", stderr)
	}

	code, stdout, stderr := runCLI(t, "", "status", "-config", cfgPath, "-output-format", "json")
	if code != 0 {
		t.Fatalf("status exit code %d: %s", code, stderr)
	}
	var status models.Status
	if err := json.Unmarshal([]byte(stdout), &status); err != nil {
		t.Fatalf("status is not JSON: %v\n%s", err, stdout)
	}
	if !status.LedgerEnabled || status.Files[models.StatusCleaned] != 1 || status.LatestRun == nil {
		t.Errorf("status = %+v", status)
	}

	xlsx := filepath.Join(t.TempDir(), "ledger.xlsx")
	code, stdout, stderr = runCLI(t, "", "export", "-config", cfgPath, xlsx)
	if code != 0 {
		t.Fatalf("export exit code %d: %s", code, stderr)
	}
	if !strings.Contains(stdout, "Exported 1 files") {
		t.Errorf("export output = %q", stdout)
	}
	f, err := excelize.OpenFile(xlsx)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := f.GetRows(report.SheetName)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 || rows[1][0] != "2019-03-05.txt" {
		t.Errorf("rows = %v", rows)
	}
}

func TestRun_misc(t *testing.T) {
	if code, stdout, _ := runCLI(t, "", "version"); code != 0 || !strings.Contains(stdout, "hansardclean version") {
		t.Errorf("version: code %d, %q", code, stdout)
	}
	if code, stdout, _ := runCLI(t, "", "help"); code != 0 || !strings.Contains(stdout, "Usage:") {
		t.Errorf("help: code %d", code)
	}
	if code, _, stderr := runCLI(t, "", "frobnicate"); code != 2 || !strings.Contains(stderr, "Unknown command") {
		t.Errorf("unknown command: code %d, %q", code, stderr)
	}
	if code, _, _ := runCLI(t, "", "run", "-output-format", "yaml"); code != 2 {
		t.Errorf("bad output format: code %d, want 2", code)
	}
}

func TestWithin(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "data", "out")
	tests := []struct {
		path string
		want bool
	}{
		{filepath.Join(dir, "a.txt"), true},
		{dir, true},
		{filepath.Join(dir, "sub", "b.txt"), true},
		{filepath.Join(string(filepath.Separator), "data", "outside.txt"), false},
		{filepath.Join(string(filepath.Separator), "data", "out2", "c.txt"), false},
	}
	for _, tt := range tests {
		if got := within(dir, tt.path); got != tt.want {
			t.Errorf("within(%q, %q) = %v, want %v", dir, tt.path, got, tt.want)
		}
	}
}

func TestRun_environmentOverridesConfig(t *testing.T) {
	cfgPath, in, _ := testWorkspace(t)
	envOut := filepath.Join(t.TempDir(), "from_env")
	t.Setenv("HANSARDCLEAN_OUTPUT_DIR", envOut)
	t.Setenv("HANSARDCLEAN_LEDGER_DISABLED", "true")
	if err := os.WriteFile(filepath.Join(in, "a.txt"), []byte("12\nBODY\n"), 0644); err != nil {
		t.Fatal(err)
	}

	code, _, stderr := runCLI(t, "", "-config", cfgPath)
	if code != 0 {
		t.Fatalf("exit code %d: %s", code, stderr)
	}
	if got, err := os.ReadFile(filepath.Join(envOut, "a.txt")); err != nil || string(got) != "BODY\n" {
		t.Errorf("output = %q, %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(cfgPath), "state", "ledger.db")); !os.IsNotExist(err) {
		t.Errorf("ledger should not be created when disabled: %v", err)
	}

	// Flags still win over the environment.
	flagOut := filepath.Join(t.TempDir(), "from_flag")
	if code, _, _ := runCLI(t, "", "-config", cfgPath, "-output", flagOut); code != 0 {
		t.Fatalf("exit code %d", code)
	}
	if _, err := os.Stat(filepath.Join(flagOut, "a.txt")); err != nil {
		t.Errorf("flag output missing: %v", err)
	}

	t.Setenv("HANSARDCLEAN_DEBUG", "maybe")
	if code, _, stderr := runCLI(t, "", "-config", cfgPath); code != 1 || !strings.Contains(stderr, "HANSARDCLEAN_DEBUG") {
		t.Errorf("invalid env: code %d, %q", code, stderr)
	}
}
