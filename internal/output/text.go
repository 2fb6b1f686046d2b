package output

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true)

	failedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	issueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B"))
)

// Totals aggregates a batch of converted documents.
type Totals struct {
	Documents    int
	Failed       int
	Issues       int
	Rewrites     int
	Declarations int
}

func Summarize(docs []Document) Totals {
	var t Totals
	for _, doc := range docs {
		t.Documents++
		if doc.Failed() {
			t.Failed++
		}
		if doc.Result == nil {
			continue
		}
		t.Issues += doc.IssueCount()
		t.Rewrites += doc.Result.Rewrites()
		t.Declarations += doc.Result.Declarations()
	}
	return t
}

// GenerateText renders a human readable summary: one line per document,
// its issues indented below it, and the totals last.
func GenerateText(root string, docs []Document) string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("loadscript conversion summary"))
	b.WriteString("\n\n")

	for _, doc := range docs {
		path := relativeURI(root, doc.Path)
		switch {
		case doc.Failed():
			fmt.Fprintf(&b, "%s %s: %v\n", failedStyle.Render("FAIL"), path, doc.Err)
		case doc.Result == nil:
			continue
		case doc.IssueCount() > 0:
			fmt.Fprintf(&b, "%s %s\n", issueStyle.Render("WARN"), path)
		default:
			fmt.Fprintf(&b, "%s %s\n", okStyle.Render("OK  "), path)
		}
		if doc.Result == nil {
			continue
		}
		fmt.Fprintf(&b, "     %s\n", detailStyle.Render(fmt.Sprintf(
			"%d scenario(s), %d declaration(s), %d rewrite(s), %s",
			len(doc.Result.Scenarios), doc.Result.Declarations(), doc.Result.Rewrites(), doc.Duration.Round(time.Millisecond))))
		for _, issue := range doc.Result.Issues() {
			fmt.Fprintf(&b, "     - [%s] %s: %s\n", scenarioName(issue.Scenario), issue.Kind, issue.Message())
		}
	}

	t := Summarize(docs)
	fmt.Fprintf(&b, "\n%d document(s), %d failed, %d issue(s), %d rewrite(s)\n",
		t.Documents, t.Failed, t.Issues, t.Rewrites)
	return b.String()
}
