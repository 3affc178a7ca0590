package tui

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/vvka-141/pgbulk/pkg/pgbulk"
)

func TestProgressModel_RunDoneQuits(t *testing.T) {
	m := newProgressModel("Loading bronze tables", func() {})

	want := &pgbulk.RunResult{ID: uuid.New()}
	updated, cmd := m.Update(runDoneMsg{result: want, err: nil})

	got := updated.(progressModel)
	if !got.quitting {
		t.Error("expected model to be quitting after runDoneMsg")
	}
	if got.result != want {
		t.Error("expected run result to be captured")
	}
	if cmd == nil {
		t.Error("expected tea.Quit command")
	}
}

func TestProgressModel_RunDoneCapturesError(t *testing.T) {
	m := newProgressModel("Loading", func() {})

	wantErr := errors.New("copy failed")
	updated, _ := m.Update(runDoneMsg{result: nil, err: wantErr})

	got := updated.(progressModel)
	if !errors.Is(got.err, wantErr) {
		t.Errorf("err = %v, want %v", got.err, wantErr)
	}
}

func TestProgressModel_CtrlCCancelsButKeepsRunning(t *testing.T) {
	canceled := false
	m := newProgressModel("Loading", func() { canceled = true })

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})

	got := updated.(progressModel)
	if !canceled {
		t.Error("expected cancel func to be called on ctrl+c")
	}
	if got.quitting {
		t.Error("model must not quit on ctrl+c; it waits for the run to report")
	}
	if cmd != nil {
		t.Error("expected no command on ctrl+c")
	}
	if !strings.Contains(got.View(), "canceling") {
		t.Errorf("View() = %q, want canceling notice", got.View())
	}
}

func TestProgressModel_ViewShowsTitle(t *testing.T) {
	m := newProgressModel("Loading bronze tables", func() {})

	if view := m.View(); !strings.Contains(view, "Loading bronze tables") {
		t.Errorf("View() = %q, want title included", view)
	}
}

func TestProgressModel_ViewEmptyWhenQuitting(t *testing.T) {
	m := newProgressModel("Loading", func() {})
	updated, _ := m.Update(runDoneMsg{})

	if view := updated.(progressModel).View(); view != "" {
		t.Errorf("View() = %q, want empty after quit", view)
	}
}

func TestRunWithProgress_NonInteractivePassthrough(t *testing.T) {
	t.Setenv("PGBULK_NON_INTERACTIVE", "1")

	want := &pgbulk.RunResult{ID: uuid.New()}
	called := false
	got, err := RunWithProgress(context.Background(), "Loading", func(ctx context.Context) (*pgbulk.RunResult, error) {
		called = true
		return want, nil
	})

	if !called {
		t.Fatal("expected run func to be called directly")
	}
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Error("expected result passed through unchanged")
	}
}

func TestRenderSummary(t *testing.T) {
	result := &pgbulk.RunResult{
		ID:      uuid.New(),
		Elapsed: 3 * time.Second,
	}
	result.Add(pgbulk.TableResult{
		Table:       "bronze.crm_cust_info",
		Rows:        18493,
		CopyElapsed: 2 * time.Second,
	})
	result.Add(pgbulk.TableResult{
		Table:    "bronze.erp_loc_a101",
		Rows:     500,
		Rejected: 3,
	})

	out := RenderSummary(result)

	for _, want := range []string{
		"Load complete",
		"bronze.crm_cust_info",
		"18493 rows",
		"bronze.erp_loc_a101",
		"(3 rejected)",
		"2 table(s), 18993 rows, 3 rejected",
		result.ID.String(),
	} {
		if !strings.Contains(out, want) {
			t.Errorf("RenderSummary() missing %q in:\n%s", want, out)
		}
	}
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{123456 * time.Microsecond, "123ms"},
		{2512345678 * time.Nanosecond, "2.51s"},
	}
	for _, tt := range tests {
		if got := formatDuration(tt.in); got != tt.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
