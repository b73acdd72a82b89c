package benchdto

// Event kinds pushed on the match stream. Each SSE frame names one of
// these and carries the matching JSON body.
const (
	EventMatchStarted = "match_started"
	EventClock        = "clock"
	EventMove         = "move"
	EventResult       = "result"
)

// StartFEN is the standard initial position the server announces in
// match_started and that a fresh session assumes before any event.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

type MatchStartedEvent struct {
	MatchID  string `json:"match_id"`
	StartFEN string `json:"start_fen"`
}

type ClockEvent struct {
	WhiteMs int64 `json:"white_ms"`
	BlackMs int64 `json:"black_ms"`
}

type MoveEvent struct {
	Ply int    `json:"ply"`
	UCI string `json:"uci"`
	SAN string `json:"san"`
	FEN string `json:"fen"`
	PGN string `json:"pgn"`
}

type ResultEvent struct {
	Result string `json:"result"`
	Reason string `json:"reason"`
}

// Result reasons emitted by the server.
const (
	ReasonCheckmate   = "checkmate"
	ReasonStalemate   = "stalemate"
	ReasonTimeout     = "timeout"
	ReasonIllegal     = "illegal"
	ReasonResignation = "resignation"
	ReasonDraw        = "draw"
	ReasonError       = "error"
)
