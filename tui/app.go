// Package tui is the interactive front-end: a small form for the input
// and output paths, a progress bar while the merge runs, and a log pane.
// It follows the bubbletea model/update/view architecture; the pipeline
// runs in a background goroutine and reports back through typed
// messages on a channel.
package tui

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deckmerge/deckmerge/combine"
	"github.com/deckmerge/deckmerge/observability"
	"github.com/deckmerge/deckmerge/office"
)

// appState is which screen the app is on.
type appState int

const (
	stateForm    appState = iota // editing paths and options
	stateRunning                 // pipeline running in the background
	stateDone                    // finished or failed, showing the report
)

const (
	fieldInputDir = iota
	fieldOutput
	fieldCount
)

const maxLogLines = 200

// Messages delivered from the pipeline goroutine.
type logMsg string
type progressMsg combine.Progress
type doneMsg struct {
	report *combine.Report
	err    error
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#AAAAAA"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6BCB77"))
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("#444444")).Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")).MarginTop(1)
)

// App is the bubbletea model holding all TUI state.
type App struct {
	state appState

	inputs [fieldCount]textinput.Model
	focus  int

	strategy    combine.Strategy
	matchAspect bool

	prog      progress.Model
	statusMsg string

	logLines []string
	report   *combine.Report
	err      error

	cancel context.CancelFunc
	events chan tea.Msg

	width  int
	height int
}

// NewApp builds the form pre-filled with the given defaults.
func NewApp(inputDir, outputPath string) *App {
	a := &App{
		prog: progress.New(progress.WithDefaultGradient()),
	}

	in := textinput.New()
	in.Placeholder = "folder with .pptx and .pdf files"
	in.SetValue(inputDir)
	in.Focus()
	a.inputs[fieldInputDir] = in

	out := textinput.New()
	out.Placeholder = "combined_presentation.pptx"
	out.SetValue(outputPath)
	a.inputs[fieldOutput] = out

	return a
}

// Run starts the interactive program and blocks until it exits.
func Run(inputDir, outputPath string) error {
	_, err := tea.NewProgram(NewApp(inputDir, outputPath), tea.WithAltScreen()).Run()
	return err
}

func (a *App) Init() tea.Cmd {
	return textinput.Blink
}

// listen re-arms the channel receive so pipeline messages keep flowing.
func listen(ch chan tea.Msg) tea.Cmd {
	return func() tea.Msg { return <-ch }
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.prog.Width = maxInt(20, msg.Width-10)
		return a, nil

	case logMsg:
		a.appendLog(string(msg))
		return a, listen(a.events)

	case progressMsg:
		a.statusMsg = fmt.Sprintf("Processing %s (%d/%d)", msg.Name, msg.FileIndex+1, msg.FileCount)
		cmd := a.prog.SetPercent(float64(msg.FileIndex) / float64(msg.FileCount))
		return a, tea.Batch(cmd, listen(a.events))

	case doneMsg:
		a.state = stateDone
		a.report = msg.report
		a.err = msg.err
		a.cancel = nil
		if msg.err == nil {
			a.statusMsg = fmt.Sprintf("Saved %s", msg.report.OutputPath)
		} else {
			a.statusMsg = ""
		}
		return a, a.prog.SetPercent(1.0)

	case progress.FrameMsg:
		pm, cmd := a.prog.Update(msg)
		a.prog = pm.(progress.Model)
		return a, cmd

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	return a, a.updateFocusedInput(msg)
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if a.cancel != nil {
			a.cancel()
		}
		return a, tea.Quit

	case "esc":
		switch a.state {
		case stateRunning:
			if a.cancel != nil {
				a.statusMsg = "Cancelling..."
				a.cancel()
			}
			return a, nil
		case stateDone:
			a.state = stateForm
			a.err = nil
			a.report = nil
			return a, nil
		}
		return a, tea.Quit

	case "tab", "down":
		if a.state == stateForm {
			a.setFocus((a.focus + 1) % fieldCount)
			return a, nil
		}

	case "shift+tab", "up":
		if a.state == stateForm {
			a.setFocus((a.focus + fieldCount - 1) % fieldCount)
			return a, nil
		}

	case "ctrl+s":
		if a.state == stateForm {
			a.strategy = (a.strategy + 1) % 3
			return a, nil
		}

	case "ctrl+a":
		if a.state == stateForm {
			a.matchAspect = !a.matchAspect
			return a, nil
		}

	case "enter":
		switch a.state {
		case stateForm:
			return a, a.startRun()
		case stateDone:
			return a, tea.Quit
		}
	}

	if a.state == stateForm {
		return a, a.updateFocusedInput(msg)
	}
	return a, nil
}

func (a *App) setFocus(i int) {
	a.inputs[a.focus].Blur()
	a.focus = i
	a.inputs[a.focus].Focus()
}

func (a *App) updateFocusedInput(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	a.inputs[a.focus], cmd = a.inputs[a.focus].Update(msg)
	return cmd
}

// startRun validates the form and launches the pipeline goroutine.
func (a *App) startRun() tea.Cmd {
	dir := strings.TrimSpace(a.inputs[fieldInputDir].Value())
	out := strings.TrimSpace(a.inputs[fieldOutput].Value())
	if dir == "" {
		a.statusMsg = "Input folder is required"
		return nil
	}
	if out == "" {
		out = "combined_presentation.pptx"
	}
	out = combine.EnsurePptxExt(out)
	a.inputs[fieldOutput].SetValue(out)

	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel
	a.events = make(chan tea.Msg, 64)
	a.logLines = nil
	a.state = stateRunning
	a.statusMsg = "Starting..."

	ch := a.events
	opts := combine.Options{
		Strategy:         a.strategy,
		MatchFirstAspect: a.matchAspect,
		Logger:           &observability.FuncLogger{Fn: func(line string) { ch <- logMsg(line) }},
		OnProgress:       func(p combine.Progress) { ch <- progressMsg(p) },
	}
	if a.strategy == combine.StrategyRasterize {
		if conv, err := office.Detect(); err == nil {
			opts.Office = conv
		}
	}

	go func() {
		report, err := combine.New(opts).Run(ctx, dir, out)
		ch <- doneMsg{report: report, err: err}
	}()

	return tea.Batch(listen(ch), a.prog.SetPercent(0))
}

func (a *App) appendLog(line string) {
	a.logLines = append(a.logLines, line)
	if len(a.logLines) > maxLogLines {
		a.logLines = a.logLines[len(a.logLines)-maxLogLines:]
	}
}

func (a *App) View() string {
	var body string
	switch a.state {
	case stateForm:
		body = a.viewForm()
	case stateRunning:
		body = a.viewRunning()
	default:
		body = a.viewDone()
	}

	sections := []string{titleStyle.Render("DECKMERGE"), body}
	if pane := a.viewLogPane(); pane != "" {
		sections = append(sections, pane)
	}
	sections = append(sections, footerStyle.Render(a.footerHint()))
	return strings.Join(sections, "\n")
}

func (a *App) viewForm() string {
	lines := []string{
		labelStyle.Render("Input folder"),
		a.inputs[fieldInputDir].View(),
		labelStyle.Render("Output file"),
		a.inputs[fieldOutput].View(),
		"",
		fmt.Sprintf("%s  strategy: %s", labelStyle.Render("Ctrl+S"), a.strategy),
		fmt.Sprintf("%s  match first aspect: %s", labelStyle.Render("Ctrl+A"), checkbox(a.matchAspect)),
	}
	if a.statusMsg != "" {
		lines = append(lines, "", errorStyle.Render(a.statusMsg))
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) viewRunning() string {
	lines := []string{
		a.statusMsg,
		"",
		a.prog.View(),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) viewDone() string {
	var lines []string
	switch {
	case a.report != nil && a.report.Cancelled:
		lines = append(lines, errorStyle.Render("Cancelled, nothing was saved"))
	case a.err != nil:
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Failed: %v", a.err)))
	case a.report != nil:
		lines = append(lines,
			okStyle.Render(a.statusMsg),
			fmt.Sprintf("%d slides total, %d added", a.report.TotalSlides, a.report.SlidesAdded()),
		)
		if n := a.report.FilesSkipped(); n > 0 {
			lines = append(lines, errorStyle.Render(fmt.Sprintf("%d file(s) skipped", n)))
		}
		if n := a.report.ShapesSkipped(); n > 0 {
			lines = append(lines, labelStyle.Render(fmt.Sprintf("%d shape(s) not transferred", n)))
		}
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

func (a *App) viewLogPane() string {
	if len(a.logLines) == 0 {
		return ""
	}
	tail := a.logLines
	if len(tail) > 8 {
		tail = tail[len(tail)-8:]
	}
	head := titleStyle.Render("LOG")
	body := labelStyle.Render(strings.Join(tail, "\n"))
	return boxStyle.Render(head + "\n" + body)
}

func (a *App) footerHint() string {
	switch a.state {
	case stateRunning:
		return "Esc → cancel    Ctrl+C → quit"
	case stateDone:
		return "Enter → quit    Esc → back to form"
	default:
		return "Enter → combine    Tab → next field    Esc → quit"
	}
}

func checkbox(on bool) string {
	if on {
		return "[x]"
	}
	return "[ ]"
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
