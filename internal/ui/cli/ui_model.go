package cli

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"time"

	coreapp "czar/internal/core/app"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type fileState int

const (
	stateOK fileState = iota
	stateCached
	stateWarning
	stateFailed
)

// fileItem is one input's latest build outcome.
type fileItem struct {
	input  string
	state  fileState
	detail string
	at     time.Time
}

func (i fileItem) Title() string {
	switch i.state {
	case stateFailed:
		return "✗ " + i.input
	case stateWarning:
		return "! " + i.input
	case stateCached:
		return "· " + i.input
	}
	return "✓ " + i.input
}

func (i fileItem) Description() string {
	return fmt.Sprintf("%s  %s", i.at.Format("15:04:05"), i.detail)
}

func (i fileItem) FilterValue() string { return i.input }

func itemFor(r coreapp.BuildResult, at time.Time) fileItem {
	it := fileItem{input: r.Input, at: at}
	switch {
	case r.Err != nil:
		it.state = stateFailed
		it.detail = r.Err.Error()
	case len(r.Warnings) > 0:
		it.state = stateWarning
		it.detail = r.Warnings[0].Error()
		if len(r.Warnings) > 1 {
			it.detail += fmt.Sprintf(" (+%d more)", len(r.Warnings)-1)
		}
	case r.Cached:
		it.state = stateCached
		it.detail = "up to date"
	default:
		it.detail = filepath.Base(r.Header) + " " + filepath.Base(r.Source)
	}
	return it
}

type model struct {
	list       list.Model
	files      map[string]fileItem
	roots      []string
	lastUpdate time.Time
	builds     int
}

type updateMsg struct {
	update coreapp.Update
	at     time.Time
}

func initialModel(roots []string) model {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Inputs"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return model{
		list:       l,
		files:      make(map[string]fileItem),
		roots:      roots,
		lastUpdate: time.Now(),
	}
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		if len(msg.update.Results) == 0 {
			return m, nil
		}
		m.builds++
		m.lastUpdate = msg.at
		for _, r := range msg.update.Results {
			m.files[r.Input] = itemFor(r, msg.at)
		}
		cmd := m.list.SetItems(m.items())
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// items orders failures first, then warnings, then by path.
func (m model) items() []list.Item {
	sorted := make([]fileItem, 0, len(m.files))
	for _, it := range m.files {
		sorted = append(sorted, it)
	}
	sort.Slice(sorted, func(a, b int) bool {
		if sorted[a].state != sorted[b].state {
			return sorted[a].state > sorted[b].state
		}
		return sorted[a].input < sorted[b].input
	})
	out := make([]list.Item, len(sorted))
	for i, it := range sorted {
		out[i] = it
	}
	return out
}

func (m model) counts() (failed, warned int) {
	for _, it := range m.files {
		switch it.state {
		case stateFailed:
			failed++
		case stateWarning:
			warned++
		}
	}
	return failed, warned
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last build: %v | %d files | %d builds",
		m.lastUpdate.Format("15:04:05"), len(m.files), m.builds))

	var summary string
	failed, warned := m.counts()
	if failed == 0 && warned == 0 {
		summary = successStyle.Render("All inputs translated")
	} else {
		summary = fmt.Sprintf("%s | %s",
			failedStyle.Render(fmt.Sprintf("%d Failed", failed)),
			warningStyle.Render(fmt.Sprintf("%d With warnings", warned)))
	}

	watching := statusStyle.Render("Watching: " + strings.Join(m.roots, ", "))
	header := fmt.Sprintf("%s\n%s | %s\n%s\n", titleStyle("CZar Watch"), status, summary, watching)
	return docStyle.Render(header + "\n" + m.list.View())
}
