package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/xlinspect-go/internal/testutil"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	t.Setenv("XLINSPECT_CONFIG_DIR", t.TempDir())
	var stdout, stderr bytes.Buffer
	code := execute(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestNoAction(t *testing.T) {
	book := testutil.NewSimpleWorkbook(t, "book.xlsx")

	code, _, stderr := runCLI(t, book)
	assert.Equal(t, exitProblem, code)
	assert.Contains(t, stderr, "No valid action selected. Use --help for more options.")
}

func TestCheck(t *testing.T) {
	book := testutil.NewSimpleWorkbook(t, "book.xlsx")

	code, stdout, _ := runCLI(t, "--check", book)
	assert.Equal(t, exitOK, code)
	assert.Equal(t, "[OK] Excel structure looks valid.\n", stdout)

	text := filepath.Join(t.TempDir(), "notes.xlsx")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))
	code, stdout, _ = runCLI(t, "--check", text)
	assert.Equal(t, exitProblem, code)
	assert.Contains(t, stdout, "[ERROR] Not a valid ZIP file")

	code, stdout, _ = runCLI(t, "--check", filepath.Join(t.TempDir(), "missing.xlsx"))
	assert.Equal(t, exitProblem, code)
	assert.Contains(t, stdout, "[ERROR] File not found")
}

func TestAnalyzeJSONKeepsArgumentOrder(t *testing.T) {
	first := testutil.NewInspectionWorkbook(t)
	second := testutil.NewSimpleWorkbook(t, "second.xlsx")

	code, stdout, _ := runCLI(t, "--analyze", "--json", "--jobs", "2", first, second)
	require.Equal(t, exitOK, code)

	var results []struct {
		Path     string `json:"path"`
		Analysis struct {
			SheetCount int `json:"sheet_count"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(stdout), &results))
	require.Len(t, results, 2)
	assert.Equal(t, first, results[0].Path)
	assert.Equal(t, 4, results[0].Analysis.SheetCount)
	assert.Equal(t, second, results[1].Path)
	assert.Equal(t, 1, results[1].Analysis.SheetCount)
}

func TestAnalyzeHumanOutput(t *testing.T) {
	book := testutil.NewInspectionWorkbook(t)

	code, stdout, _ := runCLI(t, "--analyze", "--mode", "light", book)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "(xlsx, light mode)")
	assert.Contains(t, stdout, "Sheets: 4 (1 hidden)")
}

func TestAnalyzeFailure(t *testing.T) {
	text := filepath.Join(t.TempDir(), "notes.xlsx")
	require.NoError(t, os.WriteFile(text, []byte("hello"), 0o644))

	code, _, stderr := runCLI(t, "--analyze", text)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "analysis failed")
}

func TestReport(t *testing.T) {
	book := testutil.NewSimpleWorkbook(t, "book.xlsx")
	reportPath := filepath.Join(t.TempDir(), "out.html")

	code, stdout, _ := runCLI(t, "--report", reportPath, book)
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Report generated at "+reportPath)
	assert.FileExists(t, reportPath)
	assert.FileExists(t, reportPath+".json")
}

func TestCleanupStyles(t *testing.T) {
	book := testutil.NewInspectionWorkbook(t)
	out := filepath.Join(t.TempDir(), "clean.xlsx")

	code, stdout, _ := runCLI(t, "--cleanup_styles", "-o", out, book)
	require.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "Cleaning sheet: Data\n")
	assert.Contains(t, stdout, "Operations: styles\n")
	assert.Contains(t, stdout, "Saved: "+out)
	assert.FileExists(t, out)
}

func TestCleanupDefaultOutput(t *testing.T) {
	book := testutil.NewSimpleWorkbook(t, "book.xlsx")

	code, _, _ := runCLI(t, "--cleanup", book)
	require.Equal(t, exitOK, code)
	assert.FileExists(t, filepath.Join(filepath.Dir(book), "book_CLEANED.xlsx"))
}

func TestRejectsOutputWithManyFiles(t *testing.T) {
	a := testutil.NewSimpleWorkbook(t, "a.xlsx")
	b := testutil.NewSimpleWorkbook(t, "b.xlsx")

	code, _, stderr := runCLI(t, "--cleanup", "-o", "out.xlsx", a, b)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "--output can only be used with a single input file")
}

func TestInvalidMode(t *testing.T) {
	book := testutil.NewSimpleWorkbook(t, "book.xlsx")

	code, _, stderr := runCLI(t, "--analyze", "--mode", "deep", book)
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "invalid mode: deep")
}

func TestConfigFileErrors(t *testing.T) {
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("unknown: 1\n"), 0o644))

	code, _, stderr := runCLI(t, "--config", cfg, "version")
	assert.Equal(t, exitError, code)
	assert.Contains(t, stderr, "strict config parse error")
}

func TestVersion(t *testing.T) {
	code, stdout, _ := runCLI(t, "version")
	assert.Equal(t, exitOK, code)
	assert.Contains(t, stdout, "xlinspect dev")
}
