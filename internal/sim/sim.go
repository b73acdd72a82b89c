// Package sim is a protocol-faithful local stand-in for the chessbench
// match stream. It replays a fixed script on two virtual tickers and
// emits the same event vocabulary as internal/stream, so the session
// layer cannot tell the two apart. A simulator is single-shot: once the
// script is exhausted or Close is called, a fresh instance is needed.
package sim

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/park285/benchview/internal/board"
	"github.com/park285/benchview/internal/feed"
	"github.com/park285/benchview/pkg/benchdto"
)

const (
	clockCadence = 200 * time.Millisecond
	moveCadence  = 1200 * time.Millisecond
)

var ErrAlreadyOpened = errors.New("simulator already opened")

type Simulator struct {
	matchID  string
	script   *Script
	handlers feed.Handlers
	clock    clockwork.Clock
	log      *zap.Logger

	grid    board.Grid
	whiteMs int64
	blackMs int64
	pgn     string
	next    int

	mu       sync.Mutex
	opened   bool
	stopCh   chan struct{}
	stopOnce sync.Once
}

type Option func(*Simulator)

// WithClock swaps the wall clock for a fake one in tests.
func WithClock(c clockwork.Clock) Option {
	return func(s *Simulator) { s.clock = c }
}

func WithLogger(log *zap.Logger) Option {
	return func(s *Simulator) { s.log = log }
}

func New(initialClockMs int64, script *Script, h feed.Handlers, opts ...Option) *Simulator {
	if script == nil {
		script = DefaultScript()
	}
	grid, _ := board.ParsePlacement(benchdto.StartFEN)
	s := &Simulator{
		matchID:  "sim-" + uuid.NewString(),
		script:   script,
		handlers: h,
		clock:    clockwork.NewRealClock(),
		log:      zap.NewNop(),
		grid:     grid,
		whiteMs:  initialClockMs,
		blackMs:  initialClockMs,
		stopCh:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MatchID returns the generated identifier announced in match_started.
func (s *Simulator) MatchID() string { return s.matchID }

// Open fires onOpen and match_started synchronously, then starts the
// two tickers. Calling Open twice is an error; the simulator cannot be
// restarted.
func (s *Simulator) Open() error {
	s.mu.Lock()
	if s.opened {
		s.mu.Unlock()
		return ErrAlreadyOpened
	}
	s.opened = true
	s.mu.Unlock()

	if s.handlers.OnOpen != nil {
		s.handlers.OnOpen()
	}
	if s.handlers.OnMatchStarted != nil {
		s.handlers.OnMatchStarted(benchdto.MatchStartedEvent{
			MatchID:  s.matchID,
			StartFEN: benchdto.StartFEN,
		})
	}

	go s.run()
	return nil
}

func (s *Simulator) run() {
	clockT := s.clock.NewTicker(clockCadence)
	defer clockT.Stop()
	moveT := s.clock.NewTicker(moveCadence)
	defer moveT.Stop()

	for {
		select {
		case <-s.stopCh:
			return
		case <-clockT.Chan():
			if s.isStopping() {
				return
			}
			s.tickClock()
		case <-moveT.Chan():
			if s.isStopping() || s.tickMove() {
				return
			}
		}
	}
}

func (s *Simulator) tickClock() {
	s.whiteMs = clampMs(s.whiteMs - int64(clockCadence/time.Millisecond))
	s.blackMs = clampMs(s.blackMs - int64(clockCadence/time.Millisecond))
	if s.handlers.OnClock != nil {
		s.handlers.OnClock(benchdto.ClockEvent{WhiteMs: s.whiteMs, BlackMs: s.blackMs})
	}
}

// tickMove plays the next scripted ply, or emits the terminal result on
// the firing after the last move. Returns true once the match is over.
func (s *Simulator) tickMove() bool {
	if s.next >= len(s.script.Moves) {
		if s.handlers.OnResult != nil {
			s.handlers.OnResult(benchdto.ResultEvent{
				Result: s.script.Result,
				Reason: s.script.Reason,
			})
		}
		return true
	}

	mv := s.script.Moves[s.next]
	if err := board.ApplyMove(&s.grid, mv.UCI); err != nil {
		s.log.Error("scripted move rejected by board",
			zap.String("uci", mv.UCI),
			zap.Int("ply", s.next+1),
			zap.Error(err))
		return true
	}

	if s.next%2 == 0 {
		if s.pgn != "" {
			s.pgn += " "
		}
		s.pgn += fmt.Sprintf("%d. %s", s.next/2+1, mv.SAN)
	} else {
		s.pgn += " " + mv.SAN
	}
	s.next++

	if s.handlers.OnMove != nil {
		s.handlers.OnMove(benchdto.MoveEvent{
			Ply: s.next,
			UCI: mv.UCI,
			SAN: mv.SAN,
			FEN: s.fen(),
			PGN: s.pgn,
		})
	}
	return false
}

// fen encodes the internal board after the move at index next-1. The
// castling and en passant fields are not tracked; observers only read
// the placement and side to move.
func (s *Simulator) fen() string {
	stm := "w"
	if s.next%2 == 1 {
		stm = "b"
	}
	fullmove := s.next/2 + 1
	return fmt.Sprintf("%s %s - - 0 %d", s.grid.Placement(), stm, fullmove)
}

// Close stops both tickers immediately. Idempotent.
func (s *Simulator) Close() {
	s.stopOnce.Do(func() { close(s.stopCh) })
}

func (s *Simulator) isStopping() bool {
	select {
	case <-s.stopCh:
		return true
	default:
		return false
	}
}

func clampMs(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// Opener adapts the simulator to the feed contract. The matchID the
// session asks for is ignored; the simulator announces its own.
func Opener(initialClockMs int64, script *Script, log *zap.Logger) feed.Opener {
	return func(_ string, h feed.Handlers) (feed.Source, error) {
		s := New(initialClockMs, script, h, WithLogger(log))
		if err := s.Open(); err != nil {
			return nil, err
		}
		return s, nil
	}
}
