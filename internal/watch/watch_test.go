package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ukaji3/xlinspect-go/internal/testutil"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
)

func TestRelevant(t *testing.T) {
	w := &Watcher{opts: Options{CleanupSuffix: "_CLEANED"}}

	tests := []struct {
		path string
		want bool
	}{
		{"/data/book.xlsx", true},
		{"/data/Book.XLSM", true},
		{"/data/legacy.xls", true},
		{"/data/~$book.xlsx", false},
		{"/data/book_CLEANED.xlsx", false},
		{"/data/book.xlsx.report.html", false},
		{"/data/book.xlsx.report.html.json", false},
		{"/data/.book.xlsx123", false},
		{"/data/notes.txt", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, w.Relevant(tt.path), tt.path)
	}
}

func TestNewRejectsFile(t *testing.T) {
	file := testutil.NewSimpleWorkbook(t, "book.xlsx")
	_, err := New(file, Options{})
	assert.Error(t, err)

	_, err = New(filepath.Join(t.TempDir(), "missing"), Options{})
	assert.Error(t, err)
}

func TestWatcherWritesReports(t *testing.T) {
	defer goleak.VerifyNone(t)

	dir := t.TempDir()
	existing := filepath.Join(dir, "existing.xlsx")
	copyFile(t, testutil.NewSimpleWorkbook(t, "src.xlsx"), existing)

	results := make(chan Result, 8)
	w, err := New(dir, Options{
		Debounce: 100 * time.Millisecond,
		Initial:  true,
		OnResult: func(r Result) { results <- r },
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	first := waitResult(t, results)
	assert.Equal(t, existing, first.Path)
	assert.Equal(t, models.StatusOK, first.Check.Status)
	require.NoError(t, first.Err)
	assert.FileExists(t, existing+ReportSuffix)
	assert.FileExists(t, existing+ReportSuffix+".json")

	// A new workbook plus files the watcher must ignore.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "~$lock.xlsx"), []byte("lock"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))
	broken := filepath.Join(dir, "broken.xlsx")
	require.NoError(t, os.WriteFile(broken, []byte("not a workbook"), 0o644))

	second := waitResult(t, results)
	assert.Equal(t, broken, second.Path)
	assert.Equal(t, models.StatusError, second.Check.Status)
	report, err := os.ReadFile(broken + ReportSuffix)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Not a valid ZIP file")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}

	select {
	case r := <-results:
		t.Errorf("unexpected extra result for %s", r.Path)
	default:
	}
}

func TestProcessLegacyWorkbook(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "legacy.xls")
	copyFile(t, testutil.NewLegacyWorkbook(t, "src.xls"), path)

	var got Result
	w, err := New(dir, Options{OnResult: func(r Result) { got = r }})
	require.NoError(t, err)
	defer w.fsw.Close()

	w.process(context.Background(), path)

	assert.Equal(t, models.StatusError, got.Check.Status)
	require.NotNil(t, got.Report)
	assert.Equal(t, 2, got.Report.SheetCount)
	report, err := os.ReadFile(path + ReportSuffix)
	require.NoError(t, err)
	assert.Contains(t, string(report), "Legacy .xls (OLE2) workbook")
	assert.Contains(t, string(report), "<td>Data</td>")
	data, err := os.ReadFile(path + ReportSuffix + ".json")
	require.NoError(t, err)
	assert.Contains(t, string(data), `"Title": "Quarterly"`)
}

func waitResult(t *testing.T, results <-chan Result) Result {
	t.Helper()
	select {
	case r := <-results:
		return r
	case <-time.After(10 * time.Second):
		t.Fatal("timed out waiting for a report")
		return Result{}
	}
}

func copyFile(t *testing.T, src, dst string) {
	t.Helper()
	data, err := os.ReadFile(src)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(dst, data, 0o644))
}
