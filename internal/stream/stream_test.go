package stream

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/park285/benchview/internal/feed"
	"github.com/park285/benchview/pkg/benchdto"
)

func sseHandler(t *testing.T, frames []string, hold bool) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		flusher, ok := w.(http.Flusher)
		if !ok {
			t.Error("response writer is not a flusher")
			return
		}
		w.Header().Set("Content-Type", "text/event-stream")
		w.WriteHeader(http.StatusOK)
		flusher.Flush()
		for _, frame := range frames {
			fmt.Fprint(w, frame)
			flusher.Flush()
		}
		if hold {
			<-r.Context().Done()
		}
	}
}

func frame(kind, body string) string {
	return fmt.Sprintf("event: %s\ndata: %s\n\n", kind, body)
}

func recvEvent(t *testing.T, ch <-chan any) any {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for event")
		return nil
	}
}

func collector(ch chan<- any) feed.Handlers {
	return feed.Handlers{
		OnOpen:         func() { ch <- "open" },
		OnError:        func() { ch <- "error" },
		OnMatchStarted: func(ev benchdto.MatchStartedEvent) { ch <- ev },
		OnClock:        func(ev benchdto.ClockEvent) { ch <- ev },
		OnMove:         func(ev benchdto.MoveEvent) { ch <- ev },
		OnResult:       func(ev benchdto.ResultEvent) { ch <- ev },
	}
}

func TestOpen_DispatchesEvents(t *testing.T) {
	frames := []string{
		frame(benchdto.EventMatchStarted, `{"match_id":"m1","start_fen":"`+benchdto.StartFEN+`"}`),
		frame(benchdto.EventClock, `{"white_ms":299800,"black_ms":299800}`),
		frame(benchdto.EventMove, `{"ply":1,"uci":"e2e4","san":"e4","fen":"fen1","pgn":"1. e4"}`),
		frame(benchdto.EventResult, `{"result":"1-0","reason":"checkmate"}`),
	}
	srv := httptest.NewServer(sseHandler(t, frames, true))
	defer srv.Close()

	ch := make(chan any, 16)
	s, err := Open(srv.URL, "m1", collector(ch))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	if got := recvEvent(t, ch); got != "open" {
		t.Fatalf("first notification = %v, want open", got)
	}
	started, ok := recvEvent(t, ch).(benchdto.MatchStartedEvent)
	if !ok || started.MatchID != "m1" || started.StartFEN != benchdto.StartFEN {
		t.Fatalf("unexpected match_started: %+v", started)
	}
	clock, ok := recvEvent(t, ch).(benchdto.ClockEvent)
	if !ok || clock.WhiteMs != 299800 || clock.BlackMs != 299800 {
		t.Fatalf("unexpected clock: %+v", clock)
	}
	move, ok := recvEvent(t, ch).(benchdto.MoveEvent)
	if !ok || move.Ply != 1 || move.UCI != "e2e4" || move.SAN != "e4" || move.PGN != "1. e4" {
		t.Fatalf("unexpected move: %+v", move)
	}
	result, ok := recvEvent(t, ch).(benchdto.ResultEvent)
	if !ok || result.Result != "1-0" || result.Reason != benchdto.ReasonCheckmate {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestOpen_MalformedBodySkipped(t *testing.T) {
	frames := []string{
		frame(benchdto.EventMove, `{"ply": not-json`),
		frame(benchdto.EventClock, `{"white_ms":1000,"black_ms":900}`),
	}
	srv := httptest.NewServer(sseHandler(t, frames, true))
	defer srv.Close()

	ch := make(chan any, 16)
	s, err := Open(srv.URL, "m1", collector(ch))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	recvEvent(t, ch) // open
	clock, ok := recvEvent(t, ch).(benchdto.ClockEvent)
	if !ok || clock.WhiteMs != 1000 || clock.BlackMs != 900 {
		t.Fatalf("expected clock after malformed move, got %+v", clock)
	}
}

func TestOpen_UnknownEventSkipped(t *testing.T) {
	frames := []string{
		frame("telemetry", `{"foo":1}`),
		frame(benchdto.EventClock, `{"white_ms":500,"black_ms":500}`),
	}
	srv := httptest.NewServer(sseHandler(t, frames, true))
	defer srv.Close()

	ch := make(chan any, 16)
	s, err := Open(srv.URL, "m1", collector(ch))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	recvEvent(t, ch) // open
	if _, ok := recvEvent(t, ch).(benchdto.ClockEvent); !ok {
		t.Fatalf("expected clock after unknown event")
	}
}

func TestOpen_ErrorOnServerDrop(t *testing.T) {
	frames := []string{frame(benchdto.EventClock, `{"white_ms":100,"black_ms":100}`)}
	srv := httptest.NewServer(sseHandler(t, frames, false))
	defer srv.Close()

	ch := make(chan any, 16)
	s, err := Open(srv.URL, "m1", collector(ch))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	recvEvent(t, ch) // open
	recvEvent(t, ch) // clock
	if got := recvEvent(t, ch); got != "error" {
		t.Fatalf("expected error notification, got %v", got)
	}
}

func TestOpen_RejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"match not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	ch := make(chan any, 16)
	if _, err := Open(srv.URL, "missing", collector(ch)); err == nil {
		t.Fatalf("expected error for 404 stream")
	}
	select {
	case ev := <-ch:
		t.Fatalf("no handler should fire on failed open, got %v", ev)
	default:
	}
}

func TestClose_Idempotent(t *testing.T) {
	srv := httptest.NewServer(sseHandler(t, nil, true))
	defer srv.Close()

	ch := make(chan any, 16)
	s, err := Open(srv.URL, "m1", collector(ch))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	recvEvent(t, ch) // open

	// Close before any frame arrived, then again.
	s.Close()
	s.Close()

	time.Sleep(50 * time.Millisecond)
	select {
	case ev := <-ch:
		t.Fatalf("no notification expected after close, got %v", ev)
	default:
	}
}
