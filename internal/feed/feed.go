// Package feed defines the contract shared by every match event
// source. The live stream client and the local simulator both emit the
// same four event kinds through a Handlers set, so the session layer
// never knows which one is driving it.
package feed

import "github.com/park285/benchview/pkg/benchdto"

// Handlers carries one optional callback per stream event plus the two
// transport-level notifications. Nil callbacks are skipped.
type Handlers struct {
	OnOpen  func()
	OnError func()

	OnMatchStarted func(benchdto.MatchStartedEvent)
	OnClock        func(benchdto.ClockEvent)
	OnMove         func(benchdto.MoveEvent)
	OnResult       func(benchdto.ResultEvent)
}

// Source is a live handle on an open event source. Close must be
// idempotent and safe to call before any event has been delivered.
type Source interface {
	Close()
}

// Opener produces a connected Source for a match. The session machine
// calls it on start and again on every reconnect attempt.
type Opener func(matchID string, h Handlers) (Source, error)
