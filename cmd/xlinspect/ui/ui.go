// Package ui implements the interactive terminal front end: a file picker
// and a scrollable report window with cleanup actions.
package ui

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	xlog "github.com/ukaji3/xlinspect-go/internal/log"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/cleanup"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/models"
	"github.com/ukaji3/xlinspect-go/pkg/xlinspect/output"
)

// AllowedTypes are the extensions the picker offers.
var AllowedTypes = []string{".xlsx", ".xlsm", ".xls"}

// Options configures the terminal UI.
type Options struct {
	// Dir is the starting directory of the picker. Empty uses the working directory.
	Dir string
	// Analyze holds the analysis options.
	Analyze xlinspect.Options
	// CleanupSuffix names cleanup outputs. Empty uses cleanup.DefaultSuffix.
	CleanupSuffix string
}

type state int

const (
	statePicking state = iota
	stateBusy
	stateReport
)

type (
	analysisMsg struct {
		path   string
		check  models.CheckResult
		report *models.Report
		err    error
	}
	cleanupMsg struct {
		result *models.CleanupResult
		err    error
	}
	reportWrittenMsg struct {
		path string
		err  error
	}
)

// Model is the bubbletea model of the terminal UI.
type Model struct {
	ctx     context.Context
	opts    Options
	styles  Styles
	state   state
	picker  filepicker.Model
	spinner spinner.Model
	report  viewport.Model

	path     string
	busyText string
	check    models.CheckResult
	result   *models.Report
	body     string
	status   string
	width    int
	height   int
}

// New creates the UI model.
func New(ctx context.Context, opts Options) Model {
	if opts.CleanupSuffix == "" {
		opts.CleanupSuffix = cleanup.DefaultSuffix
	}
	fp := filepicker.New()
	fp.AllowedTypes = AllowedTypes
	fp.CurrentDirectory = opts.Dir
	if fp.CurrentDirectory == "" {
		if wd, err := os.Getwd(); err == nil {
			fp.CurrentDirectory = wd
		}
	}
	fp.AutoHeight = true

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	return Model{
		ctx:     ctx,
		opts:    opts,
		styles:  DefaultStyles(),
		picker:  fp,
		spinner: sp,
		report:  viewport.New(80, 20),
	}
}

// Run starts the terminal UI and blocks until the user quits or ctx is canceled.
func Run(ctx context.Context, opts Options) error {
	p := tea.NewProgram(New(ctx, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if err != nil && ctx.Err() != nil {
		return nil
	}
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.picker.Init()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.report.Width = msg.Width
		m.report.Height = max(msg.Height-4, 3)
		var cmd tea.Cmd
		m.picker, cmd = m.picker.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

	case spinner.TickMsg:
		if m.state != stateBusy {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case analysisMsg:
		m.state = stateReport
		m.path = msg.path
		m.check = msg.check
		m.result = msg.report
		m.status = ""
		if msg.err != nil {
			m.status = m.styles.Bad.Render("Analysis failed: " + msg.err.Error())
		}
		m.setBody(m.renderReport())
		return m, nil

	case cleanupMsg:
		m.state = stateReport
		if msg.err != nil {
			m.status = m.styles.Bad.Render("Cleanup failed: " + msg.err.Error())
			return m, nil
		}
		var b strings.Builder
		_ = output.WriteCleanupText(&b, msg.result)
		m.setBody(m.renderReport() + "\n" + m.styles.Title.Render("Cleanup") + "\n" + b.String())
		m.status = m.styles.OK.Render("Saved " + msg.result.Output)
		return m, nil

	case reportWrittenMsg:
		m.state = stateReport
		if msg.err != nil {
			m.status = m.styles.Bad.Render("Report failed: " + msg.err.Error())
		} else {
			m.status = m.styles.OK.Render("Report written to " + msg.path)
		}
		return m, nil
	}

	switch m.state {
	case statePicking:
		return m.updatePicker(msg)
	case stateReport:
		return m.updateReport(msg)
	}
	return m, nil
}

func (m Model) updatePicker(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "q" {
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.picker, cmd = m.picker.Update(msg)

	if ok, path := m.picker.DidSelectFile(msg); ok {
		start := m.startAnalysis(path)
		return m, tea.Batch(cmd, start)
	}
	if ok, path := m.picker.DidSelectDisabledFile(msg); ok {
		m.status = m.styles.Warning.Render(path + " is not a workbook (.xlsx, .xlsm, .xls)")
	}
	return m, cmd
}

func (m Model) updateReport(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "q":
			return m, tea.Quit
		case "esc":
			m.state = statePicking
			m.status = ""
			return m, nil
		case "c", "s":
			ops := cleanup.Full
			if key.String() == "s" {
				ops = cleanup.StylesOnly
			}
			cmd := m.startCleanup(ops)
			return m, cmd
		case "r":
			return m, m.writeReport()
		}
	}
	var cmd tea.Cmd
	m.report, cmd = m.report.Update(msg)
	return m, cmd
}

func (m *Model) startAnalysis(path string) tea.Cmd {
	m.state = stateBusy
	m.path = path
	m.busyText = "Analyzing " + path
	m.status = ""
	return tea.Batch(m.spinner.Tick, analyzeCmd(m.ctx, path, m.opts.Analyze))
}

func (m *Model) startCleanup(ops cleanup.Op) tea.Cmd {
	if !xlinspect.Format(m.check.Format).IsOOXML() {
		m.status = m.styles.Warning.Render("Cleanup needs an .xlsx or .xlsm workbook")
		return nil
	}
	m.state = stateBusy
	m.busyText = fmt.Sprintf("Cleaning %s (%s)", m.path, ops)
	out := cleanup.DefaultOutputPath(m.path, m.opts.CleanupSuffix)
	return tea.Batch(m.spinner.Tick, cleanupCmd(m.ctx, m.path, out, ops))
}

func (m *Model) writeReport() tea.Cmd {
	path, check, report := m.path, m.check, m.result
	return func() tea.Msg {
		target := path + ".report.html"
		return reportWrittenMsg{path: target, err: output.WriteReport(target, report, &check)}
	}
}

func analyzeCmd(ctx context.Context, path string, opts xlinspect.Options) tea.Cmd {
	return func() tea.Msg {
		logger := xlog.WithFile("ui", path)
		msg := analysisMsg{path: path, check: xlinspect.Check(ctx, path)}
		if xlinspect.Analyzable(msg.check) {
			msg.report, msg.err = xlinspect.Analyze(ctx, path, opts)
		}
		logger.Debug().Str("status", string(msg.check.Status)).Err(msg.err).Msg("analysis finished")
		return msg
	}
}

func cleanupCmd(ctx context.Context, path, out string, ops cleanup.Op) tea.Cmd {
	return func() tea.Msg {
		res, err := cleanup.Cleanup(ctx, path, out, ops)
		return cleanupMsg{result: res, err: err}
	}
}

func (m *Model) setBody(s string) {
	m.body = s
	m.report.SetContent(s)
	m.report.GotoTop()
}

func (m Model) renderReport() string {
	var b strings.Builder
	b.WriteString(m.renderStatus(m.check))
	b.WriteString("\n\n")
	if m.result != nil {
		if err := output.WriteText(&b, m.result); err != nil {
			b.WriteString(err.Error())
		}
	}
	return b.String()
}

func (m Model) renderStatus(c models.CheckResult) string {
	label := "[" + string(c.Status) + "]"
	switch c.Status {
	case models.StatusOK:
		label = m.styles.OK.Render(label)
	case models.StatusWarning:
		label = m.styles.Warning.Render(label)
	default:
		label = m.styles.Bad.Render(label)
	}
	return label + " " + c.Message
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	switch m.state {
	case statePicking:
		b.WriteString(m.styles.Title.Render("Select a workbook"))
		b.WriteString("\n")
		b.WriteString(m.picker.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("enter: open  q: quit"))
	case stateBusy:
		b.WriteString(m.spinner.View() + " " + m.styles.Status.Render(m.busyText))
	case stateReport:
		b.WriteString(m.styles.Title.Render(m.path))
		b.WriteString("\n")
		b.WriteString(m.report.View())
		b.WriteString("\n")
		b.WriteString(m.styles.Help.Render("c: full cleanup  s: styles only  r: write report  esc: back  q: quit"))
	}
	if m.status != "" {
		b.WriteString("\n")
		b.WriteString(m.status)
	}
	return b.String()
}
