package cli

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	coreapp "loadscript/internal/core/app"
	"loadscript/internal/data/history"
	"loadscript/internal/engine/ir"
	"loadscript/internal/engine/passes"
	"loadscript/internal/output"
)

func testUpdate(t *testing.T) coreapp.Update {
	t.Helper()
	p, err := passes.NewPipeline(nil)
	if err != nil {
		t.Fatal(err)
	}
	res, err := passes.ApplyToTest(p, ir.NewTest(ir.NewScenario("", ir.Log(ir.Ident("missing")))))
	if err != nil {
		t.Fatal(err)
	}
	docs := []output.Document{
		{Path: "/root/a.json", Result: res},
		{Path: "/root/b.json", Err: errors.New("bad version")},
	}
	return coreapp.Update{Documents: docs, Totals: output.Summarize(docs), Changed: []string{"/root/a.json"}}
}

func TestModel_PanelsAndDrillDown(t *testing.T) {
	m := initialModel("/root", nil)

	updated, _ := m.Update(updateMsg{update: testUpdate(t)})
	state := updated.(model)
	if len(state.issueList.Items()) != 2 {
		t.Fatalf("expected 2 issue items, got %d", len(state.issueList.Items()))
	}
	if len(state.documentList.Items()) != 2 {
		t.Fatalf("expected 2 document items, got %d", len(state.documentList.Items()))
	}
	view := state.View()
	if !strings.Contains(view, "1 failed") || !strings.Contains(view, "1 issues") {
		t.Fatalf("unexpected header:\n%s", view)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelDocuments {
		t.Fatalf("expected documents panel after tab, got %v", state.mode)
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyEnter})
	state = updated.(model)
	if !state.showDetails || state.selected.Path != "/root/a.json" {
		t.Fatalf("expected drill-down into a.json, got %+v", state.selected)
	}
	if !strings.Contains(renderDocumentDetails(state), "Scenario default: 0 declarations, 1 issues") {
		t.Fatalf("unexpected details:\n%s", renderDocumentDetails(state))
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyEsc})
	state = updated.(model)
	if state.showDetails {
		t.Fatal("expected esc to close details")
	}

	updated, _ = state.Update(tea.KeyMsg{Type: tea.KeyTab})
	state = updated.(model)
	if state.mode != panelIssues {
		t.Fatalf("expected issues panel after second tab, got %v", state.mode)
	}

	_, cmd := state.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if cmd == nil {
		t.Fatal("expected quit command")
	}
}

func TestModel_HistoryOverlay(t *testing.T) {
	m := initialModel("/root", nil)
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	state := updated.(model)
	if !strings.Contains(renderHistoryOverlay(state), "History unavailable") {
		t.Fatal("expected unavailable message without a store")
	}

	store, err := history.Open(filepath.Join(t.TempDir(), "h.db"), 0)
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	if _, err := store.Record(history.Run{Path: "/root/a.json", IssueCount: 1}); err != nil {
		t.Fatal(err)
	}

	m = initialModel("/root", store)
	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("h")})
	state = updated.(model)
	if !state.showHistory || len(state.runs) != 1 {
		t.Fatalf("expected one run in the overlay, got %+v", state.runs)
	}
	if !strings.Contains(renderHistoryOverlay(state), "a.json issues=1") {
		t.Fatalf("unexpected overlay:\n%s", renderHistoryOverlay(state))
	}
}

func TestDocumentSummary(t *testing.T) {
	if got := documentSummary(output.Document{Err: errors.New("boom")}); got != "failed: boom" {
		t.Fatalf("unexpected summary %q", got)
	}
}
