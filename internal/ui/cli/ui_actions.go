package cli

import (
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

func handleKeyActions(msg tea.KeyMsg, m model) (tea.Model, tea.Cmd) {
	if m.sourceList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.sourceList, cmd = m.sourceList.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "enter":
		m.showDetails = !m.showDetails
		return m, nil
	case "t":
		m.showTrend = !m.showTrend
		if m.showTrend {
			m = refreshTrend(m)
		}
		return m, nil
	case "o":
		target, ok := selectedSourceTarget(m)
		if !ok {
			m.jumpStatus = statusStyle.Render("No source target available.")
			return m, nil
		}
		return m, jumpToSourceCmd(target)
	}

	var cmd tea.Cmd
	m.sourceList, cmd = m.sourceList.Update(msg)
	return m, cmd
}

func refreshTrend(m model) model {
	m.trend = nil
	m.trendErr = ""
	if m.loadTrend == nil {
		return m
	}
	f, ok := m.selected()
	if !ok {
		return m
	}
	report, err := m.loadTrend(f.Path)
	if err != nil {
		m.trendErr = err.Error()
		return m
	}
	m.trend = &report
	return m
}

type sourceTarget struct {
	file string
	line int
}

// selectedSourceTarget points at the first diagnostic of the selected
// source, or its first line when it compiled cleanly.
func selectedSourceTarget(m model) (sourceTarget, bool) {
	f, ok := m.selected()
	if !ok || f.Path == "" {
		return sourceTarget{}, false
	}
	line := 1
	if len(f.Result.Diagnostics) > 0 && f.Result.Diagnostics[0].Line > 0 {
		line = f.Result.Diagnostics[0].Line
	}
	return sourceTarget{file: f.Path, line: line}, true
}

func jumpToSourceCmd(target sourceTarget) tea.Cmd {
	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	args := []string{target.file}
	if strings.Contains(editor, "vim") || strings.Contains(editor, "nvim") || strings.HasSuffix(editor, "vi") {
		args = []string{fmt.Sprintf("+%d", target.line), target.file}
	}
	cmd := exec.Command(editor, args...)
	label := fmt.Sprintf("%s:%d", target.file, target.line)
	return tea.ExecProcess(cmd, func(err error) tea.Msg {
		return sourceJumpResultMsg{target: label, err: err}
	})
}
