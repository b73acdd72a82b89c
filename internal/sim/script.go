package sim

import (
	"fmt"
	"os"

	yaml "gopkg.in/yaml.v3"

	"github.com/park285/benchview/internal/board"
	"github.com/park285/benchview/pkg/benchdto"
)

// ScriptMove is one scripted ply: the coordinate code the board
// projector consumes and the display notation shown to observers.
type ScriptMove struct {
	UCI string `yaml:"uci"`
	SAN string `yaml:"san"`
}

// Script is the fixed game a simulator replays, ending in a terminal
// result once the moves run out.
type Script struct {
	Moves  []ScriptMove `yaml:"moves"`
	Result string       `yaml:"result"`
	Reason string       `yaml:"reason"`
}

// DefaultScript is a seven-ply scholar's mate, short enough that the
// whole lifecycle including the terminal result plays out in under ten
// seconds of simulated time.
func DefaultScript() *Script {
	return &Script{
		Moves: []ScriptMove{
			{UCI: "e2e4", SAN: "e4"},
			{UCI: "e7e5", SAN: "e5"},
			{UCI: "d1h5", SAN: "Qh5"},
			{UCI: "b8c6", SAN: "Nc6"},
			{UCI: "f1c4", SAN: "Bc4"},
			{UCI: "g8f6", SAN: "Nf6"},
			{UCI: "h5f7", SAN: "Qxf7#"},
		},
		Result: "1-0",
		Reason: benchdto.ReasonCheckmate,
	}
}

// LoadScript reads a YAML script file and validates it.
func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (s *Script) Validate() error {
	if len(s.Moves) == 0 {
		return fmt.Errorf("script has no moves")
	}
	for i, mv := range s.Moves {
		if len(mv.UCI) != 4 && len(mv.UCI) != 5 {
			return fmt.Errorf("move %d: uci %q must be 4 or 5 characters", i+1, mv.UCI)
		}
		if _, _, err := board.SquareToCoord(mv.UCI[:2]); err != nil {
			return fmt.Errorf("move %d: %w", i+1, err)
		}
		if _, _, err := board.SquareToCoord(mv.UCI[2:4]); err != nil {
			return fmt.Errorf("move %d: %w", i+1, err)
		}
		if mv.SAN == "" {
			return fmt.Errorf("move %d: empty san", i+1)
		}
	}
	switch s.Result {
	case "1-0", "0-1", "1/2-1/2", "*":
	default:
		return fmt.Errorf("unknown result %q", s.Result)
	}
	return nil
}
