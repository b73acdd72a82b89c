package benchdto

type EngineInfo struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Author string `json:"author"`
}

type EnginesResponse struct {
	Engines []EngineInfo `json:"engines"`
}

type TimeControl struct {
	InitialMs int64 `json:"initial_ms"`
}

type MatchCreateRequest struct {
	WhiteEngineID string      `json:"white_engine_id"`
	BlackEngineID string      `json:"black_engine_id"`
	TimeControl   TimeControl `json:"time_control"`
}

type MatchCreateResponse struct {
	MatchID string `json:"match_id"`
}

// MatchStatusResponse is the one-shot snapshot from GET /api/match/:id,
// usable as a resume point without replaying the stream.
type MatchStatusResponse struct {
	MatchID    string       `json:"match_id"`
	Status     string       `json:"status"`
	CurrentFEN string       `json:"current_fen"`
	PGN        string       `json:"pgn"`
	Clocks     ClockEvent   `json:"clocks"`
	Result     *ResultEvent `json:"result,omitempty"`
}
