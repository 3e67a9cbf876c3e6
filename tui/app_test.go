package tui

import (
	"errors"
	"fmt"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/deckmerge/deckmerge/combine"
)

func TestAppendLogCap(t *testing.T) {
	a := NewApp(".", "out.pptx")
	for i := 0; i < maxLogLines+50; i++ {
		a.appendLog(fmt.Sprintf("line %d", i))
	}
	if len(a.logLines) != maxLogLines {
		t.Errorf("log kept %d lines, want %d", len(a.logLines), maxLogLines)
	}
	if a.logLines[len(a.logLines)-1] != fmt.Sprintf("line %d", maxLogLines+49) {
		t.Errorf("last line = %q", a.logLines[len(a.logLines)-1])
	}
}

func TestDoneMsgTransitions(t *testing.T) {
	a := NewApp(".", "out.pptx")
	a.state = stateRunning

	report := &combine.Report{OutputPath: "out.pptx", TotalSlides: 3}
	model, _ := a.Update(doneMsg{report: report})
	got := model.(*App)
	if got.state != stateDone {
		t.Errorf("state = %v, want stateDone", got.state)
	}
	if got.report != report || got.err != nil {
		t.Errorf("report/err not recorded: %v %v", got.report, got.err)
	}

	a.state = stateRunning
	fail := errors.New("boom")
	model, _ = a.Update(doneMsg{err: fail})
	got = model.(*App)
	if got.state != stateDone || got.err != fail {
		t.Errorf("failure not recorded: state=%v err=%v", got.state, got.err)
	}
}

func TestFormFocusCycle(t *testing.T) {
	a := NewApp(".", "out.pptx")
	if a.focus != fieldInputDir {
		t.Fatalf("initial focus = %d", a.focus)
	}
	model, _ := a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = model.(*App)
	if a.focus != fieldOutput {
		t.Errorf("focus after tab = %d, want %d", a.focus, fieldOutput)
	}
	model, _ = a.Update(tea.KeyMsg{Type: tea.KeyTab})
	a = model.(*App)
	if a.focus != fieldInputDir {
		t.Errorf("focus wrapped to %d, want %d", a.focus, fieldInputDir)
	}
}

func TestStartRunRequiresInputDir(t *testing.T) {
	a := NewApp("", "out.pptx")
	if cmd := a.startRun(); cmd != nil {
		t.Error("startRun started without an input folder")
	}
	if a.state != stateForm {
		t.Errorf("state = %v, want stateForm", a.state)
	}
}
