package server

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ziadkadry99/vaultpilot/internal/action"
	"github.com/ziadkadry99/vaultpilot/internal/audit"
	"github.com/ziadkadry99/vaultpilot/internal/dashboard"
	"github.com/ziadkadry99/vaultpilot/internal/db"
	"github.com/ziadkadry99/vaultpilot/internal/plan"
	"github.com/ziadkadry99/vaultpilot/internal/recovery"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
)

func newTestServer(t *testing.T) (*Server, *vault.Vault, *plan.Generator) {
	t.Helper()

	v, err := vault.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := v.EnsureLayout(); err != nil {
		t.Fatal(err)
	}

	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errs := recovery.NewErrorLog(v.Logs(), "test", logger)
	audits := audit.NewStore(database)
	trail := audit.NewTrail(v.Logs(), "test", audits, errs)
	store := action.NewStore(v, database, trail)
	gate := plan.NewGate(v, trail)
	failed := recovery.NewFailedStore(v.FailedActions(), errs, 3)
	checker := recovery.NewChecker(v, errs, failed)
	board := dashboard.New(v.Dashboard())
	if err := board.Init(); err != nil {
		t.Fatal(err)
	}

	return New(store, gate, checker, trail, audits, board, logger), v, plan.NewGenerator(v, trail, false)
}

func TestHealthEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d, body %s", rec.Code, rec.Body.String())
	}

	var report recovery.HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("bad health body: %v", err)
	}
	if !report.VaultAccessible {
		t.Error("vault should be accessible")
	}
}

func TestActionsEndpoint(t *testing.T) {
	srv, v, _ := newTestServer(t)

	recFile := action.Record{
		Path:  filepath.Join(v.NeedsAction(), "ACTION_x.md"),
		Meta:  action.NewFrontMatter(action.Classify(".csv"), "x.csv"),
		Body:  "body",
		Valid: true,
	}
	data, err := action.Render(recFile)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(recFile.Path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/actions/pending", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ACTION_x") {
		t.Errorf("body missing action: %s", rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "data_analysis") {
		t.Errorf("body missing classification: %s", rec.Body.String())
	}
}

func TestApprovalDecisionEndpoints(t *testing.T) {
	srv, v, gen := newTestServer(t)

	actionRec := action.Record{
		Path:  filepath.Join(v.NeedsAction(), "ACTION_invoice.md"),
		Meta:  action.NewFrontMatter(action.Classify(".pdf"), "invoice.pdf"),
		Body:  "pay the invoice",
		Valid: true,
	}
	if _, created, err := gen.MaybeGenerateApproval(actionRec); err != nil || !created {
		t.Fatalf("approval setup: created=%v err=%v", created, err)
	}

	router := srv.Router()

	req := httptest.NewRequest(http.MethodPost, "/api/approvals/ACTION_invoice/approve", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("approve status: got %d, body %s", rec.Code, rec.Body.String())
	}

	// Decisions are final.
	req = httptest.NewRequest(http.MethodPost, "/api/approvals/ACTION_invoice/reject", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Errorf("second decision status: got %d, want conflict", rec.Code)
	}
}

func TestDashboardEndpointRendersHTML(t *testing.T) {
	srv, _, _ := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "<h1") || !strings.Contains(body, "VaultPilot Dashboard") {
		t.Errorf("dashboard not rendered as HTML: %s", body)
	}
}

func TestAuditQueryEndpoint(t *testing.T) {
	srv, _, _ := newTestServer(t)

	if _, err := srv.trail.Append(audit.Event{
		EventType: audit.EventActionCreated,
		Actor:     audit.ActorSystem,
		Result:    audit.ResultSuccess,
	}); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/audit?type=action_created", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status: got %d", rec.Code)
	}

	var events []audit.Event
	if err := json.Unmarshal(rec.Body.Bytes(), &events); err != nil {
		t.Fatalf("bad body: %v", err)
	}
	if len(events) != 1 {
		t.Errorf("expected 1 event, got %d", len(events))
	}
}
