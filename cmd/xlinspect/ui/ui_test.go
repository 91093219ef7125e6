package ui

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ukaji3/xlinspect-go/internal/testutil"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/cleanup"
)

func runeKey(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	model, ok := next.(Model)
	require.True(t, ok)
	return model, cmd
}

func loadedModel(t *testing.T, path string) Model {
	t.Helper()
	ctx := context.Background()
	m := New(ctx, Options{Dir: filepath.Dir(path), Analyze: xlinspect.DefaultOptions()})
	m, _ = update(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(t, m, analyzeCmd(ctx, path, m.opts.Analyze)())
	return m
}

func TestAnalysisShowsReport(t *testing.T) {
	path := testutil.NewInspectionWorkbook(t)
	m := loadedModel(t, path)

	assert.Equal(t, stateReport, m.state)
	require.NotNil(t, m.result)
	view := m.View()
	assert.Contains(t, view, "[OK] Excel structure looks valid.")
	assert.Contains(t, view, "Sheets: 4")
	assert.Contains(t, view, "c: full cleanup")
}

func TestAnalysisShowsCheckFailure(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))
	m := loadedModel(t, path)

	assert.Equal(t, stateReport, m.state)
	assert.Nil(t, m.result)
	assert.Contains(t, m.View(), "[ERROR] Not a valid ZIP file")
}

func TestAnalysisOfLegacyWorkbook(t *testing.T) {
	m := loadedModel(t, testutil.NewLegacyWorkbook(t, "legacy.xls"))

	assert.Equal(t, stateReport, m.state)
	require.NotNil(t, m.result)
	assert.Equal(t, 2, m.result.SheetCount)
	view := m.View()
	assert.Contains(t, view, "[ERROR] Legacy .xls (OLE2) workbook")
	assert.Contains(t, view, "Sheets: 2")
	assert.NotContains(t, view, "Analysis failed")
}

func TestAnalysisFailureShown(t *testing.T) {
	path := testutil.WriteCompoundFile(t, "broken.xls", []testutil.Entry{
		{Name: "Workbook", Data: testutil.LegacyWorkbook(testutil.LegacySheet{
			Name:  "Broken",
			Cells: []testutil.LegacyCell{{Row: 0, Col: 0, Value: testutil.SSTIndex(1)}},
		})},
	})
	m := loadedModel(t, path)

	assert.Equal(t, stateReport, m.state)
	assert.Nil(t, m.result)
	assert.Contains(t, m.View(), "Analysis failed: failed to open workbook")
}

func TestWriteReportKey(t *testing.T) {
	path := testutil.NewSimpleWorkbook(t, "book.xlsx")
	m := loadedModel(t, path)

	m, cmd := update(t, m, runeKey('r'))
	require.NotNil(t, cmd)
	m, _ = update(t, m, cmd())

	assert.FileExists(t, path+".report.html")
	assert.Contains(t, m.View(), "Report written to "+path+".report.html")
}

func TestCleanupResultShown(t *testing.T) {
	path := testutil.NewInspectionWorkbook(t)
	m := loadedModel(t, path)

	m, cmd := update(t, m, runeKey('s'))
	require.NotNil(t, cmd)
	assert.Equal(t, stateBusy, m.state)
	assert.Contains(t, m.View(), "Cleaning "+path+" (styles)")

	out := cleanup.DefaultOutputPath(path, "")
	m, _ = update(t, m, cleanupCmd(context.Background(), path, out, cleanup.StylesOnly)())

	assert.Equal(t, stateReport, m.state)
	assert.FileExists(t, out)
	assert.Contains(t, m.body, "Cleaning sheet: Data")
	assert.Contains(t, m.View(), "Saved "+out)
}

func TestCleanupRejectsLegacy(t *testing.T) {
	m := New(context.Background(), Options{})
	m.state = stateReport
	m.check.Format = string(xlinspect.FormatXLS)

	m, cmd := update(t, m, runeKey('c'))
	assert.Nil(t, cmd)
	assert.Equal(t, stateReport, m.state)
	assert.Contains(t, m.View(), "Cleanup needs an .xlsx or .xlsm workbook")
}

func TestNavigationKeys(t *testing.T) {
	m := New(context.Background(), Options{Dir: t.TempDir()})
	m.state = stateReport

	m, _ = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, statePicking, m.state)
	assert.True(t, strings.Contains(m.View(), "Select a workbook"))

	_, cmd := update(t, m, runeKey('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}
