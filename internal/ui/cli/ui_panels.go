package cli

import (
	"fmt"
	"strings"
	"time"

	"loadscript/internal/output"
)

func renderHelp(m model) string {
	keys := "Keys: tab panel | / filter | enter details | esc back | h history | q quit"
	if m.mode == panelIssues {
		keys = "Keys: tab panel | / filter | h history | q quit"
	}
	return statusStyle.Render(keys)
}

func documentSummary(doc output.Document) string {
	if doc.Result == nil {
		return "failed: " + errorText(doc.Err)
	}
	desc := fmt.Sprintf("scenarios=%d declarations=%d issues=%d rewrites=%d",
		len(doc.Result.Scenarios), doc.Result.Declarations(), doc.IssueCount(), doc.Result.Rewrites())
	if doc.Failed() {
		desc = "rejected: " + desc
	}
	return desc
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func renderDocumentPanel(m model) string {
	summary := m.documentList.View()
	if !m.showDetails {
		return summary + "\n\n" + statusStyle.Render("Press enter for scenario and issue details.")
	}
	return summary + "\n\n" + renderDocumentDetails(m)
}

func renderDocumentDetails(m model) string {
	d := m.selected
	lines := []string{
		fmt.Sprintf("Document: %s", relPath(m.root, d.Path)),
		fmt.Sprintf("  Converted in %s", d.Duration.Round(time.Millisecond)),
	}
	if d.Err != nil {
		lines = append(lines, failedStyle.Render("  Error: "+d.Err.Error()))
	}
	if d.Result != nil {
		for _, s := range d.Result.Scenarios {
			name := s.Scenario
			if name == "" {
				name = "default"
			}
			lines = append(lines, fmt.Sprintf("  Scenario %s: %d declarations, %d issues, %d rewrites",
				name, len(s.Analysis.Declarations), len(s.Issues), s.Rewrites))
			for _, issue := range s.Issues {
				lines = append(lines, fmt.Sprintf("    - %s", issue.Message()))
			}
		}
	}
	lines = append(lines, "  Press esc to exit details.")
	return strings.Join(lines, "\n")
}

func renderHistoryOverlay(m model) string {
	if m.historySvc == nil {
		return statusStyle.Render("History unavailable (set history.enabled = true to record runs).")
	}
	if m.runsErr != "" {
		return failedStyle.Render("History error: " + m.runsErr)
	}
	if len(m.runs) == 0 {
		return statusStyle.Render("No runs recorded yet.")
	}
	lines := []string{"Recent Runs"}
	for _, r := range m.runs {
		lines = append(lines, fmt.Sprintf("  %s %-6s %s issues=%d rewrites=%d (%s)",
			r.Timestamp.Local().Format("15:04:05"), r.Outcome, relPath(m.root, r.Path),
			r.IssueCount, r.RewriteCount, r.Duration))
	}
	return strings.Join(lines, "\n")
}
