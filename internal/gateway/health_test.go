package gateway

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/figmenta/copilot/internal/memory"
)

func TestHealth_OK(t *testing.T) {
	t.Parallel()

	g, mux := newTestGateway(t)
	if err := g.manager.Append(context.Background(), "c1", memory.RoleUser, "hello", "alice", "general"); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rr.Code, http.StatusOK)
	}

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" {
		t.Errorf("Status = %q, want %q", resp.Status, "ok")
	}
	if !resp.DurableStore {
		t.Error("DurableStore = false, want true")
	}
	if resp.ActiveChannels != 1 {
		t.Errorf("ActiveChannels = %d, want 1", resp.ActiveChannels)
	}
}

func TestHealth_DegradedWithoutStore(t *testing.T) {
	t.Parallel()

	g := &Gateway{
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		manager: memory.NewManager(nil),
	}
	g.config.defaults()
	mux := g.buildRouter()

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)

	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" {
		t.Errorf("Status = %q, want %q", resp.Status, "degraded")
	}
}
