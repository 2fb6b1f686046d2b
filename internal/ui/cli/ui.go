package cli

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	coreapp "loadscript/internal/core/app"
	"loadscript/internal/data/history"
	"loadscript/internal/output"
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

	issueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type panelMode int

const (
	panelIssues panelMode = iota
	panelDocuments
)

type model struct {
	issueList    list.Model
	documentList list.Model
	mode         panelMode
	root         string

	documents  []output.Document
	totals     output.Totals
	changed    int
	lastUpdate time.Time

	// Document drill-down on the documents panel.
	showDetails bool
	selected    output.Document

	runs        []history.Run
	runsErr     string
	showHistory bool
	historySvc  *history.Store
}

type updateMsg struct {
	update coreapp.Update
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if next, cmd, handled := handleKey(msg, m); handled {
			return next, cmd
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		width := msg.Width - h
		height := msg.Height - v - 8
		if height < 5 {
			height = 5
		}
		m.issueList.SetSize(width, height)
		m.documentList.SetSize(width, height)
	case updateMsg:
		m = applyUpdate(m, msg.update)
	}

	var cmd tea.Cmd
	if m.mode == panelIssues {
		m.issueList, cmd = m.issueList.Update(msg)
	} else {
		m.documentList, cmd = m.documentList.Update(msg)
	}
	return m, cmd
}

func applyUpdate(m model, u coreapp.Update) model {
	m.documents = u.Documents
	m.totals = u.Totals
	m.changed = len(u.Changed)
	m.lastUpdate = time.Now()

	issues := []list.Item{}
	docs := make([]list.Item, 0, len(u.Documents))
	for _, doc := range u.Documents {
		path := relPath(m.root, doc.Path)
		docs = append(docs, item{title: path, desc: documentSummary(doc)})

		if doc.Failed() {
			issues = append(issues, item{
				title: "Conversion Failed",
				desc:  fmt.Sprintf("%s: %v", path, doc.Err),
			})
		}
		if doc.Result == nil {
			continue
		}
		for _, issue := range doc.Result.Issues() {
			scenario := issue.Scenario
			if scenario == "" {
				scenario = "default"
			}
			issues = append(issues, item{
				title: string(issue.Kind),
				desc:  fmt.Sprintf("%s [%s] %s", path, scenario, issue.Message()),
			})
		}
	}
	m.issueList.SetItems(issues)
	m.documentList.SetItems(docs)

	if m.showDetails {
		for _, doc := range u.Documents {
			if doc.Path == m.selected.Path {
				m.selected = doc
			}
		}
	}
	if m.showHistory {
		m = refreshHistory(m)
	}
	return m
}

func handleKey(msg tea.KeyMsg, m model) (model, tea.Cmd, bool) {
	filtering := m.issueList.FilterState() == list.Filtering || m.documentList.FilterState() == list.Filtering
	if filtering {
		return m, nil, false
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit, true
	case "tab":
		if m.mode == panelIssues {
			m.mode = panelDocuments
		} else {
			m.mode = panelIssues
		}
		m.showDetails = false
		return m, nil, true
	case "enter":
		if m.mode != panelDocuments || len(m.documents) == 0 {
			return m, nil, false
		}
		idx := m.documentList.Index()
		if idx < 0 || idx >= len(m.documents) {
			return m, nil, true
		}
		m.selected = m.documents[idx]
		m.showDetails = true
		return m, nil, true
	case "esc":
		if m.showDetails {
			m.showDetails = false
			return m, nil, true
		}
	case "h":
		m.showHistory = !m.showHistory
		if m.showHistory {
			m = refreshHistory(m)
		}
		return m, nil, true
	}
	return m, nil, false
}

func refreshHistory(m model) model {
	if m.historySvc == nil {
		m.runs = nil
		m.runsErr = ""
		return m
	}
	runs, err := m.historySvc.Recent(5)
	if err != nil {
		m.runsErr = err.Error()
		return m
	}
	m.runs = runs
	m.runsErr = ""
	return m
}

func (m model) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last update: %v | %d documents | %d changed",
		m.lastUpdate.Format("15:04:05"), m.totals.Documents, m.changed))

	var summary string
	if m.totals.Failed == 0 && m.totals.Issues == 0 {
		summary = successStyle.Render("All documents clean")
	} else {
		summary = fmt.Sprintf("%s | %s",
			failedStyle.Render(fmt.Sprintf("%d failed", m.totals.Failed)),
			issueStyle.Render(fmt.Sprintf("%d issues", m.totals.Issues)))
	}

	header := fmt.Sprintf("%s\n%s | %s | %d rewrites\n", titleStyle("Load Test Converter"), status, summary, m.totals.Rewrites)
	help := renderHelp(m)

	body := m.issueList.View()
	if m.mode == panelDocuments {
		body = renderDocumentPanel(m)
	}
	if m.showHistory {
		body += "\n\n" + renderHistoryOverlay(m)
	}

	return docStyle.Render(header + "\n" + help + "\n\n" + body)
}

func initialModel(root string, store *history.Store) model {
	issueList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	issueList.Title = "Detected Issues"
	issueList.SetShowStatusBar(false)
	issueList.SetFilteringEnabled(true)

	documentList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	documentList.Title = "Documents"
	documentList.SetShowStatusBar(false)
	documentList.SetFilteringEnabled(true)

	return model{
		issueList:    issueList,
		documentList: documentList,
		mode:         panelIssues,
		root:         root,
		historySvc:   store,
		lastUpdate:   time.Now(),
	}
}

func relPath(root, path string) string {
	if root == "" {
		return path
	}
	if rel, err := filepath.Rel(root, path); err == nil {
		return filepath.ToSlash(rel)
	}
	return path
}
