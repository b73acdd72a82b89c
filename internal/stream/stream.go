// Package stream is the live event client for a single match. It holds
// one SSE connection to the chessbench server, parses named events into
// typed payloads and dispatches them to a handler set. Reconnection is
// deliberately not handled here: the right resume policy belongs to the
// session layer, the transport only reports that it broke.
package stream

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/park285/benchview/internal/feed"
	"github.com/park285/benchview/pkg/benchdto"
)

type Stream struct {
	matchID  string
	handlers feed.Handlers
	log      *zap.Logger

	resp *fasthttp.Response

	stopCh   chan struct{}
	stopOnce sync.Once
}

type Option func(*Stream)

func WithLogger(log *zap.Logger) Option {
	return func(s *Stream) { s.log = log }
}

// Open connects to GET {base}/api/match/{id}/stream and starts
// dispatching events. A non-2xx response or dial failure is returned
// directly; no handler fires in that case.
func Open(baseURL, matchID string, h feed.Handlers, opts ...Option) (*Stream, error) {
	s := &Stream{
		matchID:  matchID,
		handlers: h,
		log:      zap.NewNop(),
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}

	// The feed stays open for the whole match, so the body must be
	// streamed and must never hit a read deadline.
	client := &fasthttp.Client{
		StreamResponseBody: true,
		WriteTimeout:       10 * time.Second,
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)

	// The response outlives this call and its body stream is shared
	// with the reader goroutine, so it must not come from the pool.
	resp := &fasthttp.Response{}

	req.Header.SetMethod(fasthttp.MethodGet)
	req.SetRequestURI(strings.TrimRight(baseURL, "/") + "/api/match/" + matchID + "/stream")
	req.Header.Set("Accept", "text/event-stream")

	if err := client.Do(req, resp); err != nil {
		return nil, fmt.Errorf("open stream: %w", err)
	}
	if code := resp.StatusCode(); code < 200 || code >= 300 {
		_ = resp.CloseBodyStream()
		return nil, fmt.Errorf("open stream: status=%d", code)
	}

	s.resp = resp
	if s.handlers.OnOpen != nil {
		s.handlers.OnOpen()
	}

	go s.listen()
	return s, nil
}

func (s *Stream) listen() {
	scanner := bufio.NewScanner(s.resp.BodyStream())
	scanner.Buffer(make([]byte, 0, 4096), 1<<20)

	var kind string
	var data []string
	for scanner.Scan() {
		if s.isStopping() {
			return
		}
		line := scanner.Text()

		switch {
		case line == "":
			if kind != "" && len(data) > 0 {
				s.dispatch(kind, strings.Join(data, "\n"))
			}
			kind = ""
			data = nil
		case strings.HasPrefix(line, ":"):
			// comment / keep-alive
		case strings.HasPrefix(line, "event:"):
			kind = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
		case strings.HasPrefix(line, "data:"):
			data = append(data, strings.TrimPrefix(strings.TrimPrefix(line, "data:"), " "))
		default:
			// id:, retry: and anything else the server may add
		}
	}

	if s.isStopping() {
		return
	}
	s.log.Warn("match stream interrupted",
		zap.String("match_id", s.matchID),
		zap.Error(scanner.Err()))
	if s.handlers.OnError != nil {
		s.handlers.OnError()
	}
}

// dispatch decodes one event body and invokes the matching handler. A
// body that fails to decode is dropped; a single bad message must not
// take the stream down.
func (s *Stream) dispatch(kind, body string) {
	switch kind {
	case benchdto.EventMatchStarted:
		var ev benchdto.MatchStartedEvent
		if !s.unmarshal(kind, body, &ev) {
			return
		}
		if s.handlers.OnMatchStarted != nil {
			s.handlers.OnMatchStarted(ev)
		}
	case benchdto.EventClock:
		var ev benchdto.ClockEvent
		if !s.unmarshal(kind, body, &ev) {
			return
		}
		if s.handlers.OnClock != nil {
			s.handlers.OnClock(ev)
		}
	case benchdto.EventMove:
		var ev benchdto.MoveEvent
		if !s.unmarshal(kind, body, &ev) {
			return
		}
		if s.handlers.OnMove != nil {
			s.handlers.OnMove(ev)
		}
	case benchdto.EventResult:
		var ev benchdto.ResultEvent
		if !s.unmarshal(kind, body, &ev) {
			return
		}
		if s.handlers.OnResult != nil {
			s.handlers.OnResult(ev)
		}
	default:
		s.log.Debug("unknown stream event", zap.String("kind", kind))
	}
}

func (s *Stream) unmarshal(kind, body string, out any) bool {
	if err := json.Unmarshal([]byte(body), out); err != nil {
		s.log.Warn("drop malformed stream event",
			zap.String("kind", kind),
			zap.String("match_id", s.matchID),
			zap.Error(err))
		return false
	}
	return true
}

// Close terminates the connection. Safe to call repeatedly and before
// any event has arrived.
func (s *Stream) Close() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if s.resp != nil {
			_ = s.resp.CloseBodyStream()
		}
	})
}

func (s *Stream) isStopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

// Opener adapts Open to the feed contract for a fixed base URL.
func Opener(baseURL string, log *zap.Logger) feed.Opener {
	return func(matchID string, h feed.Handlers) (feed.Source, error) {
		return Open(baseURL, matchID, h, WithLogger(log))
	}
}
