package ui

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/nconklindev/sheetsync/internal/session"
	"github.com/nconklindev/sheetsync/internal/types"

	"github.com/charmbracelet/bubbles/filepicker"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type state int

const (
	stateFilePicker state = iota
	stateLoading
	stateMapping
	stateSubmitting
	stateComplete
	stateError
)

// Options wires the model to a session.
type Options struct {
	// Locations are files chosen up front; when empty a file picker is shown.
	Locations []string
	Session   session.Options
	Creator   session.RecordCreator
	// Overrides are applied to the mapping after it is seeded.
	Overrides map[string]string
	DryRun    bool
}

type Model struct {
	state      state
	opts       Options
	filepicker filepicker.Model
	files      []string
	session    *session.Session
	cursor     int
	result     *types.ImportResult
	err        error
	width      int
	height     int
	progress   progress.Model
	spinner    spinner.Model

	progressChan chan float64
	resultChan   chan sessionLoadedMsg
}

type sessionLoadedMsg struct {
	session *session.Session
	err     error
}

type submitCompleteMsg struct {
	result types.ImportResult
	err    error
}

type progressMsg float64

type waitForProgressMsg struct{}

func InitialModel(opts Options) Model {
	fp := filepicker.New()
	fp.AllowedTypes = []string{".csv", ".xlsx", ".xlsm"}
	fp.CurrentDirectory, _ = os.Getwd()

	fp.Styles.Cursor = lipgloss.NewStyle().Foreground(accent)
	fp.Styles.Symlink = lipgloss.NewStyle().Foreground(highlight)
	fp.Styles.Directory = lipgloss.NewStyle().Foreground(highlight)
	fp.Styles.File = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF"))
	fp.Styles.Permission = lipgloss.NewStyle().Foreground(muted)
	fp.Styles.Selected = lipgloss.NewStyle().Foreground(accent).Bold(true)
	fp.Styles.FileSize = lipgloss.NewStyle().Foreground(muted)

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(accent)

	m := Model{
		state:      stateFilePicker,
		opts:       opts,
		filepicker: fp,
		files:      slices.Clone(opts.Locations),
		progress:   progress.New(progress.WithGradient("#2BB673", "#7BE0AD")),
		spinner:    sp,

		progressChan: make(chan float64, 100),
		resultChan:   make(chan sessionLoadedMsg, 1),
	}
	if len(m.files) > 0 {
		m.state = stateLoading
	}
	return m
}

func (m Model) Init() tea.Cmd {
	if m.state == stateLoading {
		_, cmd := m.startSession()
		return cmd
	}
	return m.filepicker.Init()
}

// Result returns the import result once the model reached the complete state.
func (m Model) Result() (*types.ImportResult, error) {
	return m.result, m.err
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		height := msg.Height - 16
		if height < 5 {
			height = 5
		}
		m.filepicker.SetHeight(height)

		return m, nil

	case tea.KeyMsg:
		switch m.state {
		case stateFilePicker:
			switch msg.String() {
			case "ctrl+c", "q":
				return m, tea.Quit
			case "tab":
				if len(m.files) > 0 {
					m.state = stateLoading
					return m.startSession()
				}
				return m, nil
			}

		case stateLoading, stateSubmitting:
			if msg.String() == "ctrl+c" {
				return m, tea.Quit
			}

		case stateMapping:
			return m.updateMapping(msg)

		case stateComplete, stateError:
			switch msg.String() {
			case "ctrl+c", "q", "enter", "esc":
				return m, tea.Quit
			}
		}

	case sessionLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.session = msg.session
		for col, id := range m.opts.Overrides {
			if err := m.session.Override(col, id); err != nil {
				m.err = err
				m.state = stateError
				return m, nil
			}
		}
		m.cursor = 0
		m.state = stateMapping
		return m, nil

	case submitCompleteMsg:
		if msg.err != nil {
			m.err = msg.err
			m.state = stateError
			return m, nil
		}
		m.result = &msg.result
		m.state = stateComplete
		return m, nil

	case progress.FrameMsg:
		progressModel, cmd := m.progress.Update(msg)
		m.progress = progressModel.(progress.Model)
		return m, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case progressMsg:
		if m.state == stateLoading {
			cmd := m.progress.SetPercent(float64(msg))
			return m, tea.Batch(cmd, waitForProgress(m.progressChan, m.resultChan))
		}
		return m, nil

	case waitForProgressMsg:
		return m, waitForProgress(m.progressChan, m.resultChan)
	}

	if m.state == stateFilePicker {
		var cmd tea.Cmd
		m.filepicker, cmd = m.filepicker.Update(msg)

		if didSelect, path := m.filepicker.DidSelectFile(msg); didSelect {
			if !slices.Contains(m.files, path) {
				m.files = append(m.files, path)
			}
		}

		return m, cmd
	}

	return m, nil
}

func (m Model) updateMapping(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	columns := m.session.Columns

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(columns)-1 {
			m.cursor++
		}
	case "enter":
		m.state = stateSubmitting
		return m, tea.Batch(m.spinner.Tick, m.submit())
	}

	if len(columns) == 0 {
		return m, nil
	}

	switch msg.String() {
	case "right", "l":
		if err := m.cycleField(1); err != nil {
			m.err = err
			m.state = stateError
		}
	case "left", "h":
		if err := m.cycleField(-1); err != nil {
			m.err = err
			m.state = stateError
		}
	case "x":
		m.session.Mapping.Unset(columns[m.cursor])
	case "r":
		m.session.Mapping.Reset()
	}
	return m, nil
}

// cycleField moves the current column's choice through
// [unset, field 1, ..., field n] by step, wrapping around.
func (m Model) cycleField(step int) error {
	col := m.session.Columns[m.cursor]
	fields := m.session.Fields
	n := len(fields) + 1

	pos := 0
	if id, ok := m.session.Mapping.Get(col); ok {
		for i, f := range fields {
			if f.ID == id {
				pos = i + 1
				break
			}
		}
	}

	pos = ((pos+step)%n + n) % n
	if pos == 0 {
		m.session.Mapping.Unset(col)
		return nil
	}
	return m.session.Override(col, fields[pos-1].ID)
}

// startSession runs session.Start in the background. A model starts at most
// one session, so the channels made in InitialModel are used once.
func (m Model) startSession() (Model, tea.Cmd) {
	progressChan := m.progressChan
	resultChan := m.resultChan
	opts := m.opts.Session
	opts.Locations = slices.Clone(m.files)
	opts.Load.Progress = progressChan

	cmd := tea.Batch(
		func() tea.Msg {
			go func() {
				s, err := session.Start(context.Background(), opts)

				resultChan <- sessionLoadedMsg{session: s, err: err}

				close(progressChan)
				close(resultChan)
			}()

			return waitForProgressMsg{}
		},
		m.progress.Init(),
	)

	return m, cmd
}

func (m Model) submit() tea.Cmd {
	s := m.session
	creator := m.opts.Creator
	dryRun := m.opts.DryRun

	return func() tea.Msg {
		if dryRun || creator == nil {
			return submitCompleteMsg{result: s.Result()}
		}
		res, err := s.Submit(context.Background(), creator)
		return submitCompleteMsg{result: res, err: err}
	}
}

func waitForProgress(progressChan chan float64, resultChan chan sessionLoadedMsg) tea.Cmd {
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}

		p, ok := <-progressChan
		if !ok {
			res, ok := <-resultChan
			if ok {
				return res
			}
			return nil
		}

		return progressMsg(p)
	}
}

func (m Model) View() string {
	switch m.state {
	case stateFilePicker:
		return m.viewFilePicker()
	case stateLoading:
		return m.viewLoading()
	case stateMapping:
		return m.viewMapping()
	case stateSubmitting:
		return m.viewSubmitting()
	case stateComplete:
		return m.viewComplete()
	case stateError:
		return m.viewError()
	}
	return ""
}

func (m Model) viewFilePicker() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⇪ sheetsync - Spreadsheet to Bitable"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render("Select one or more CSV or XLSX files to import"))
	s.WriteString("\n\n")

	if len(m.files) > 0 {
		for _, f := range m.files {
			s.WriteString(CheckedStyle.Render("✓ " + filepath.Base(f)))
			s.WriteString("\n")
		}
		s.WriteString("\n")
	}

	s.WriteString(m.filepicker.View())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("enter: add file • tab: continue • q: quit"))

	return s.String()
}

func (m Model) viewLoading() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⇪ Reading files..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("Parsing %d file(s) and fetching table fields", len(m.files)))
	s.WriteString("\n\n")
	s.WriteString(m.progress.View())

	return BoxStyle.Render(s.String())
}

func (m Model) viewMapping() string {
	var s strings.Builder
	sess := m.session

	s.WriteString(TitleStyle.Render("⇪ Map Columns to Fields"))
	s.WriteString("\n")
	s.WriteString(SubtitleStyle.Render(fmt.Sprintf("%d row(s) from %d file(s) • %d of %d column(s) mapped",
		len(sess.Rows), len(sess.Files), sess.Mapping.Len(), len(sess.Columns))))
	s.WriteString("\n")

	for _, w := range sess.Warnings {
		s.WriteString(WarningStyle.Render("! " + w.String()))
		s.WriteString("\n")
	}
	if sess.SchemaErr != nil {
		s.WriteString(ErrorStyle.Render("! " + sess.SchemaErr.Error()))
		s.WriteString("\n")
	}
	s.WriteString("\n")

	for i, col := range sess.Columns {
		cursor := " "
		if m.cursor == i {
			cursor = ">"
		}

		target := "unset"
		id, mapped := sess.Mapping.Get(col)
		if mapped {
			target = fmt.Sprintf("%s (%s)", sess.FieldName(id), id)
		}

		line := fmt.Sprintf("%s %-20s → %s", cursor, col, target)

		if sg, ok := sess.Suggestion(col); ok && sg.Matched && mapped && sg.Field.ID == id {
			line += fmt.Sprintf("  [%s %.2f]", sg.Tier, sg.Score)
		}

		switch {
		case m.cursor == i:
			line = SelectedStyle.Render(line)
		case mapped:
			line = CheckedStyle.Render(line)
		default:
			line = UnselectedStyle.Render(line)
		}

		s.WriteString(line)
		if m.cursor == i {
			if sample, ok := firstValue(sess.Rows, col); ok {
				s.WriteString(HelpStyle.UnsetMarginTop().Render(fmt.Sprintf("  e.g. %v", sample)))
			}
		}
		s.WriteString("\n")
	}

	s.WriteString("\n")
	if m.opts.DryRun {
		s.WriteString(WarningStyle.Render("Dry run: nothing will be submitted"))
		s.WriteString("\n")
	}
	s.WriteString(HelpStyle.Render("↑/↓: navigate • ←/→: change field • x: unset • r: reset • enter: import • q: quit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewSubmitting() string {
	var s strings.Builder

	s.WriteString(TitleStyle.Render("⇪ Importing..."))
	s.WriteString("\n\n")
	s.WriteString(fmt.Sprintf("%s Submitting %d record(s)", m.spinner.View(), len(m.session.Rows)))

	return BoxStyle.Render(s.String())
}

func (m Model) viewComplete() string {
	var s strings.Builder

	if m.result.DryRun {
		s.WriteString(TitleStyle.Render("✓ Dry Run Complete"))
	} else {
		s.WriteString(TitleStyle.Render("✓ Import Complete!"))
	}
	s.WriteString("\n\n")

	s.WriteString(fmt.Sprintf("Files:   %s\n", strings.Join(m.result.Files, ", ")))
	s.WriteString(fmt.Sprintf("Columns mapped: %d of %d\n", m.result.ColumnsMapped, len(m.result.ColumnsFound)))
	s.WriteString(fmt.Sprintf("Rows processed: %d\n", m.result.RowsProcessed))
	if !m.result.DryRun {
		s.WriteString(SuccessStyle.Render(fmt.Sprintf("Records created: %d", m.result.RecordsCreated)))
		s.WriteString("\n")
	}
	s.WriteString("\n")
	s.WriteString(HelpStyle.Render("q/enter/esc: exit"))

	return BoxStyle.Render(s.String())
}

func (m Model) viewError() string {
	var s strings.Builder

	s.WriteString(ErrorStyle.Render("✗ Error"))
	s.WriteString("\n\n")
	s.WriteString(m.err.Error())
	s.WriteString("\n\n")
	s.WriteString(HelpStyle.Render("q/enter/esc: exit"))

	return BoxStyle.Render(s.String())
}

func firstValue(rows []types.SourceRow, column string) (types.CellValue, bool) {
	for _, row := range rows {
		if v, ok := row[column]; ok {
			return v, true
		}
	}
	return nil, false
}
