package benchapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/park285/benchview/pkg/benchdto"
)

func TestListEngines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/engines" || r.Method != http.MethodGet {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		json.NewEncoder(w).Encode(benchdto.EnginesResponse{Engines: []benchdto.EngineInfo{
			{ID: "stockfish-16", Name: "Stockfish 16", Author: "SF Team"},
			{ID: "lc0-0.30", Name: "Leela Chess Zero", Author: "Lc0 Team"},
		}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	engines, err := c.ListEngines(context.Background())
	if err != nil {
		t.Fatalf("ListEngines: %v", err)
	}
	if len(engines) != 2 || engines[0].ID != "stockfish-16" || engines[1].ID != "lc0-0.30" {
		t.Fatalf("unexpected engines: %+v", engines)
	}
}

func TestListEngines_RetriesServerError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(benchdto.EnginesResponse{Engines: []benchdto.EngineInfo{{ID: "sf"}}})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(3))
	engines, err := c.ListEngines(context.Background())
	if err != nil {
		t.Fatalf("ListEngines: %v", err)
	}
	if len(engines) != 1 || atomic.LoadInt32(&calls) != 2 {
		t.Fatalf("engines=%+v calls=%d", engines, calls)
	}
}

func TestCreateMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/match" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		var req benchdto.MatchCreateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.WhiteEngineID != "sf" || req.BlackEngineID != "lc0" || req.TimeControl.InitialMs != 300000 {
			t.Errorf("unexpected payload: %+v", req)
		}
		json.NewEncoder(w).Encode(benchdto.MatchCreateResponse{MatchID: "match-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.CreateMatch(context.Background(), benchdto.MatchCreateRequest{
		WhiteEngineID: "sf",
		BlackEngineID: "lc0",
		TimeControl:   benchdto.TimeControl{InitialMs: 300000},
	})
	if err != nil {
		t.Fatalf("CreateMatch: %v", err)
	}
	if resp.MatchID != "match-1" {
		t.Fatalf("match id = %q", resp.MatchID)
	}
}

func TestCreateMatch_NoRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithRetry(5))
	if _, err := c.CreateMatch(context.Background(), benchdto.MatchCreateRequest{}); err == nil {
		t.Fatalf("expected error")
	}
	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("create match retried: %d calls", got)
	}
}

func TestCreateMatch_BadRequestSurfaced(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"white and black engines must differ"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.CreateMatch(context.Background(), benchdto.MatchCreateRequest{})
	if err == nil {
		t.Fatalf("expected error")
	}
}

func TestMatchStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/match/m-42" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode(benchdto.MatchStatusResponse{
			MatchID:    "m-42",
			Status:     "running",
			CurrentFEN: benchdto.StartFEN,
			Clocks:     benchdto.ClockEvent{WhiteMs: 1000, BlackMs: 2000},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	st, err := c.MatchStatus(context.Background(), "m-42")
	if err != nil {
		t.Fatalf("MatchStatus: %v", err)
	}
	if st.MatchID != "m-42" || st.Status != "running" || st.Clocks.BlackMs != 2000 {
		t.Fatalf("unexpected status: %+v", st)
	}
}
