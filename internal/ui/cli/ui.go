package cli

import (
	"fmt"
	"strings"
	"time"

	coreapp "umlc/internal/core/app"
	"umlc/internal/data/history"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

// trendLoader fetches the trend report of one source; nil when history is off.
type trendLoader func(path string) (history.TrendReport, error)

type model struct {
	sourceList  list.Model
	files       []coreapp.FileResult
	update      coreapp.Update
	lastUpdate  time.Time
	showDetails bool
	showTrend   bool
	loadTrend   trendLoader
	trend       *history.TrendReport
	trendErr    string
	jumpStatus  string
}

type updateMsg struct {
	update coreapp.Update
}

type sourceJumpResultMsg struct {
	target string
	err    error
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return handleKeyActions(msg, m)
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		height := msg.Height - v - 10
		if height < 5 {
			height = 5
		}
		m.sourceList.SetSize(msg.Width-h, height)
	case updateMsg:
		m.update = msg.update
		m.files = msg.update.Files
		m.lastUpdate = time.Now()

		items := make([]list.Item, 0, len(m.files))
		for _, f := range m.files {
			items = append(items, item{title: f.Path, desc: describeFile(f)})
		}
		m.sourceList.SetItems(items)
		if m.showTrend {
			m = refreshTrend(m)
		}
	case sourceJumpResultMsg:
		if msg.err != nil {
			m.jumpStatus = statusStyle.Render(fmt.Sprintf("Source jump failed: %v", msg.err))
		} else {
			m.jumpStatus = statusStyle.Render(fmt.Sprintf("Opened source: %s", msg.target))
		}
	}

	var cmd tea.Cmd
	m.sourceList, cmd = m.sourceList.Update(msg)
	return m, cmd
}

func describeFile(f coreapp.FileResult) string {
	counts := fmt.Sprintf("%d entities | %d relationships | %s",
		len(f.Result.Diagram.Entities), len(f.Result.Diagram.Relationships), f.Duration.Round(time.Microsecond))
	if f.Result.Valid {
		return "ok | " + counts
	}
	first := f.Result.Diagnostics[0]
	return fmt.Sprintf("%d diagnostics, first at %d:%d: %s", len(f.Result.Diagnostics), first.Line, first.Column, first.Message)
}

func (m model) selected() (coreapp.FileResult, bool) {
	idx := m.sourceList.Index()
	if idx < 0 || idx >= len(m.files) {
		return coreapp.FileResult{}, false
	}
	return m.files[idx], true
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d sources | %d entities | %d relationships",
		m.lastUpdate.Format("15:04:05"), m.update.FileCount, m.update.EntityCount, m.update.RelationshipCount))

	summary := successStyle.Render("All sources valid")
	if m.update.InvalidCount > 0 {
		summary = errorStyle.Render(fmt.Sprintf("%d invalid | %d diagnostics", m.update.InvalidCount, m.update.DiagnosticCount))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("UML Diagram Compiler"), status, summary)
	body := m.sourceList.View()
	if m.showDetails {
		body += "\n\n" + renderDetails(m)
	}
	if m.showTrend {
		body += "\n\n" + renderTrendOverlay(m)
	}
	if m.jumpStatus != "" {
		body += "\n\n" + m.jumpStatus
	}
	return docStyle.Render(header + "\n" + renderHelp() + "\n\n" + body)
}

func renderHelp() string {
	return statusStyle.Render("Keys: / filter | enter details | t trend | o open at first diagnostic | q quit")
}

func renderDetails(m model) string {
	f, ok := m.selected()
	if !ok {
		return statusStyle.Render("No source selected.")
	}
	lines := []string{fmt.Sprintf("Source: %s", f.Path)}
	if len(f.Outputs) > 0 {
		lines = append(lines, fmt.Sprintf("  Outputs: %s", strings.Join(f.Outputs, ", ")))
	}
	implicit := 0
	for _, e := range f.Result.Diagram.Entities {
		if e.IsImplicit {
			implicit++
		}
	}
	lines = append(lines, fmt.Sprintf("  Entities: %d (%d implicit)", len(f.Result.Diagram.Entities), implicit))
	if len(f.Result.Diagnostics) == 0 {
		lines = append(lines, successStyle.Render("  No diagnostics"))
	}
	for _, d := range f.Result.Diagnostics {
		lines = append(lines, errorStyle.Render(fmt.Sprintf("  %d:%d %s", d.Line, d.Column, d.Message)))
	}
	return strings.Join(lines, "\n")
}

func renderTrendOverlay(m model) string {
	if m.trendErr != "" {
		return statusStyle.Render("Trend unavailable: " + m.trendErr)
	}
	if m.trend == nil || len(m.trend.Points) == 0 {
		return statusStyle.Render("Trend unavailable (enable --history to record runs).")
	}
	last := m.trend.Points[len(m.trend.Points)-1]
	return strings.Join([]string{
		"Trend Overlay",
		fmt.Sprintf("  Window: %s | Runs: %d", m.trend.Window, m.trend.RunCount),
		fmt.Sprintf("  Entities: %d (%+d) | Implicit: %d (%+d)", last.EntityCount, last.DeltaEntities, last.ImplicitCount, last.DeltaImplicit),
		fmt.Sprintf("  Relationships: %d (%+d)", last.RelationshipCount, last.DeltaRelationships),
		fmt.Sprintf("  Diagnostics: %d (%+d), window avg %.2f", last.DiagnosticCount, last.DeltaDiagnostics, last.AvgDiagnostics),
	}, "\n")
}

func initialModel(loadTrend trendLoader) model {
	sourceList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	sourceList.Title = "Diagram Sources"
	sourceList.SetShowStatusBar(false)
	sourceList.SetFilteringEnabled(true)

	return model{
		sourceList: sourceList,
		loadTrend:  loadTrend,
		lastUpdate: time.Now(),
	}
}
