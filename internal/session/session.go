// Package session owns the authoritative client-side view of one live
// match. Events from an event source (live stream or simulator) are
// folded into a single State; transport failures feed a reconnect loop
// that keeps retrying until a result arrives or the caller stops the
// session. Nothing outside this package mutates the State.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/park285/benchview/internal/feed"
	"github.com/park285/benchview/pkg/benchdto"
)

const defaultReconnectDelay = 1500 * time.Millisecond

var (
	ErrNoMatchID        = errors.New("match id is required")
	ErrEnginesRequired  = errors.New("both engines must be selected")
	ErrEnginesIdentical = errors.New("white and black engines must differ")
	ErrBadTimeControl   = errors.New("initial time must be positive")
)

// MatchCreator is the slice of the REST client the session needs for
// StartNew; *benchapi.Client satisfies it.
type MatchCreator interface {
	CreateMatch(ctx context.Context, req benchdto.MatchCreateRequest) (*benchdto.MatchCreateResponse, error)
}

type Session struct {
	open     feed.Opener
	clock    clockwork.Clock
	delay    time.Duration
	log      *zap.Logger
	listener func(State)

	mu     sync.Mutex
	state  State
	source feed.Source
	retry  clockwork.Timer

	// gen invalidates callbacks and timers from earlier attempts; it
	// moves on every Start and Stop so a stale reconnect cannot revive
	// a session the caller already tore down.
	gen uint64
}

type Option func(*Session)

func WithClock(c clockwork.Clock) Option {
	return func(s *Session) { s.clock = c }
}

func WithReconnectDelay(d time.Duration) Option {
	return func(s *Session) { s.delay = d }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithListener registers a read-only observer invoked with a State
// copy after every fold. It runs outside the session lock but on the
// event source's goroutine, so it should return quickly.
func WithListener(fn func(State)) Option {
	return func(s *Session) { s.listener = fn }
}

func New(open feed.Opener, opts ...Option) *Session {
	s := &Session{
		open:  open,
		clock: clockwork.NewRealClock(),
		delay: defaultReconnectDelay,
		log:   zap.NewNop(),
		state: newState(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens the event source for an existing match. Any previous
// attempt, including a pending reconnect, is cancelled first.
func (s *Session) Start(matchID string) error {
	if matchID == "" {
		return ErrNoMatchID
	}

	s.mu.Lock()
	gen := s.bumpLocked()
	s.state.MatchID = matchID
	s.state.Status = StatusConnecting
	s.state.MovesText = ""
	s.state.Result = nil
	s.state.Err = ""
	st := s.state
	src := s.source
	s.source = nil
	s.mu.Unlock()

	if src != nil {
		src.Close()
	}
	s.notify(st)

	s.connect(gen, matchID)
	return nil
}

// StartNew creates a match through the collaborator API and then
// starts streaming it. Precondition failures are returned synchronously
// without touching the state machine; a failed create surfaces as a
// terminal error status since setup calls are one-shot, unlike the
// transport retry loop.
func (s *Session) StartNew(ctx context.Context, api MatchCreator, whiteID, blackID string, initialMs int64) (string, error) {
	if whiteID == "" || blackID == "" {
		return "", ErrEnginesRequired
	}
	if whiteID == blackID {
		return "", ErrEnginesIdentical
	}
	if initialMs <= 0 {
		return "", ErrBadTimeControl
	}

	s.mu.Lock()
	s.bumpLocked()
	s.state = newState()
	s.state.Status = StatusLoading
	st := s.state
	src := s.source
	s.source = nil
	s.mu.Unlock()
	if src != nil {
		src.Close()
	}
	s.notify(st)

	resp, err := api.CreateMatch(ctx, benchdto.MatchCreateRequest{
		WhiteEngineID: whiteID,
		BlackEngineID: blackID,
		TimeControl:   benchdto.TimeControl{InitialMs: initialMs},
	})
	if err != nil {
		s.mu.Lock()
		s.state.Status = StatusError
		s.state.Err = fmt.Sprintf("create match: %v", err)
		st := s.state
		s.mu.Unlock()
		s.notify(st)
		return "", err
	}

	return resp.MatchID, s.Start(resp.MatchID)
}

// Stop tears the session down to idle: cancels any pending reconnect,
// closes the source and resets the state to its defaults. Idempotent.
func (s *Session) Stop() {
	s.mu.Lock()
	s.bumpLocked()
	src := s.source
	s.source = nil
	s.state = newState()
	st := s.state
	s.mu.Unlock()

	if src != nil {
		src.Close()
	}
	s.notify(st)
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// bumpLocked advances the attempt generation and cancels a pending
// reconnect timer. Caller holds the lock.
func (s *Session) bumpLocked() uint64 {
	s.gen++
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	return s.gen
}

// connect opens the source for one attempt. The opener may fire
// handlers synchronously (the simulator does), so the lock must not be
// held across the call.
func (s *Session) connect(gen uint64, matchID string) {
	src, err := s.open(matchID, s.handlersFor(gen))

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		if src != nil {
			src.Close()
		}
		return
	}
	if err != nil {
		s.log.Warn("event source open failed",
			zap.String("match_id", matchID),
			zap.Error(err))
		st := s.toReconnectingLocked(gen, matchID)
		s.mu.Unlock()
		s.notify(st)
		return
	}
	s.source = src
	s.mu.Unlock()
}

// toReconnectingLocked flips the state to reconnecting and arms the
// single deferred retry. Caller holds the lock and sends the returned
// snapshot to the listener after unlocking.
func (s *Session) toReconnectingLocked(gen uint64, matchID string) State {
	s.state.Status = StatusReconnecting
	s.retry = s.clock.AfterFunc(s.delay, func() {
		s.mu.Lock()
		if gen != s.gen || s.state.Status != StatusReconnecting {
			s.mu.Unlock()
			return
		}
		s.mu.Unlock()
		s.connect(gen, matchID)
	})
	return s.state
}

func (s *Session) handlersFor(gen uint64) feed.Handlers {
	return feed.Handlers{
		OnOpen:         func() { s.foldOpen(gen) },
		OnError:        func() { s.foldError(gen) },
		OnMatchStarted: func(ev benchdto.MatchStartedEvent) { s.foldMatchStarted(gen, ev) },
		OnClock:        func(ev benchdto.ClockEvent) { s.foldClock(gen, ev) },
		OnMove:         func(ev benchdto.MoveEvent) { s.foldMove(gen, ev) },
		OnResult:       func(ev benchdto.ResultEvent) { s.foldResult(gen, ev) },
	}
}

func (s *Session) foldOpen(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	// Resuming after a transport drop carries all accumulated state
	// over; only the status flips back.
	if s.state.Status == StatusConnecting || s.state.Status == StatusReconnecting {
		s.state.Status = StatusRunning
	}
	st := s.state
	s.mu.Unlock()
	s.notify(st)
}

// foldMatchStarted is the canonical session reset point: distinct from
// a mere transport open, it pins the start position and clears the
// accumulated move list and result.
func (s *Session) foldMatchStarted(gen uint64, ev benchdto.MatchStartedEvent) {
	s.mu.Lock()
	if gen != s.gen || !s.liveLocked() {
		s.mu.Unlock()
		return
	}
	if ev.MatchID != "" {
		s.state.MatchID = ev.MatchID
	}
	if ev.StartFEN != "" {
		s.state.FEN = ev.StartFEN
	}
	s.state.MovesText = ""
	s.state.Result = nil
	s.state.Ply = 0
	s.state.LastMove = ""
	if s.state.Status == StatusConnecting || s.state.Status == StatusReconnecting {
		s.state.Status = StatusRunning
	}
	st := s.state
	s.mu.Unlock()
	s.notify(st)
}

func (s *Session) foldClock(gen uint64, ev benchdto.ClockEvent) {
	s.mu.Lock()
	if gen != s.gen || !s.liveLocked() {
		s.mu.Unlock()
		return
	}
	s.state.Clocks = &benchdto.ClockEvent{WhiteMs: ev.WhiteMs, BlackMs: ev.BlackMs}
	st := s.state
	s.mu.Unlock()
	s.notify(st)
}

func (s *Session) foldMove(gen uint64, ev benchdto.MoveEvent) {
	s.mu.Lock()
	if gen != s.gen || !s.liveLocked() {
		s.mu.Unlock()
		return
	}
	// Ply is informational: an out-of-order move points at a transport
	// problem, and each move event carries the full position and move
	// list, so latest-wins is still coherent. Log it, don't resequence.
	if ev.Ply <= s.state.Ply {
		s.log.Warn("move ply did not advance",
			zap.Int("ply", ev.Ply),
			zap.Int("last_ply", s.state.Ply))
	}
	s.state.FEN = ev.FEN
	s.state.MovesText = ev.PGN
	s.state.LastMove = ev.UCI
	s.state.Ply = ev.Ply
	st := s.state
	s.mu.Unlock()
	s.notify(st)
}

func (s *Session) foldResult(gen uint64, ev benchdto.ResultEvent) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	s.state.Result = &benchdto.ResultEvent{Result: ev.Result, Reason: ev.Reason}
	s.state.Status = StatusFinished
	if s.retry != nil {
		s.retry.Stop()
		s.retry = nil
	}
	src := s.source
	s.source = nil
	st := s.state
	s.mu.Unlock()

	if src != nil {
		src.Close()
	}
	s.notify(st)
}

func (s *Session) foldError(gen uint64) {
	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		return
	}
	switch s.state.Status {
	case StatusConnecting, StatusRunning, StatusReconnecting:
	default:
		// finished or stopped sessions ignore trailing transport noise
		s.mu.Unlock()
		return
	}
	src := s.source
	s.source = nil
	st := s.toReconnectingLocked(gen, s.state.MatchID)
	s.mu.Unlock()

	if src != nil {
		src.Close()
	}
	s.notify(st)
}

// liveLocked reports whether the session is still in a phase that
// accepts match events. Caller holds the lock.
func (s *Session) liveLocked() bool {
	switch s.state.Status {
	case StatusConnecting, StatusRunning, StatusReconnecting:
		return true
	}
	return false
}

func (s *Session) notify(st State) {
	if s.listener != nil {
		s.listener(st)
	}
}
