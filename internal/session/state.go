package session

import "github.com/park285/benchview/pkg/benchdto"

// Status is the session lifecycle phase. The string values line up
// with the server's own status serialisation where the two overlap.
type Status string

const (
	StatusIdle         Status = "idle"
	StatusLoading      Status = "loading"
	StatusConnecting   Status = "connecting"
	StatusRunning      Status = "running"
	StatusReconnecting Status = "reconnecting"
	StatusFinished     Status = "finished"
	StatusError        Status = "error"
)

// State is the single aggregate of everything the client currently
// believes about the match. The session machine is its only writer;
// observers get copies via Snapshot or the listener.
type State struct {
	MatchID   string
	Status    Status
	FEN       string
	MovesText string
	Clocks    *benchdto.ClockEvent
	Ply       int
	LastMove  string
	Result    *benchdto.ResultEvent
	Err       string
}

func newState() State {
	return State{
		Status: StatusIdle,
		FEN:    benchdto.StartFEN,
	}
}
