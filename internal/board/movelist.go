package board

import (
	"strings"
)

// MoveRow is one numbered row of a move list; Black is empty when the
// list ends on a White move.
type MoveRow struct {
	Number int
	White  string
	Black  string
}

// ParseMoveList tokenizes PGN-style move text into numbered rows.
// Comments in braces and parenthesised variations are stripped first;
// move-number tokens and game-result tokens are discarded.
func ParseMoveList(movesText string) []MoveRow {
	cleaned := stripDelimited(movesText, '{', '}')
	cleaned = stripDelimited(cleaned, '(', ')')

	var sans []string
	for _, tok := range strings.Fields(cleaned) {
		if isMoveNumber(tok) || isResultToken(tok) {
			continue
		}
		sans = append(sans, tok)
	}
	if len(sans) == 0 {
		return nil
	}

	rows := make([]MoveRow, 0, (len(sans)+1)/2)
	for i := 0; i < len(sans); i += 2 {
		row := MoveRow{Number: i/2 + 1, White: sans[i]}
		if i+1 < len(sans) {
			row.Black = sans[i+1]
		}
		rows = append(rows, row)
	}
	return rows
}

// stripDelimited removes open..close spans, tolerating nesting.
// Unbalanced closers are dropped on the floor.
func stripDelimited(s string, open, close byte) string {
	var b strings.Builder
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case open:
			depth++
		case close:
			if depth > 0 {
				depth--
			}
		default:
			if depth == 0 {
				b.WriteByte(s[i])
			}
		}
	}
	return b.String()
}

// isMoveNumber matches "1." as well as the "3..." continuation form.
func isMoveNumber(tok string) bool {
	dot := strings.IndexByte(tok, '.')
	if dot <= 0 {
		return false
	}
	for i := 0; i < dot; i++ {
		if tok[i] < '0' || tok[i] > '9' {
			return false
		}
	}
	return strings.Trim(tok[dot:], ".") == ""
}

func isResultToken(tok string) bool {
	switch tok {
	case "1-0", "0-1", "1/2-1/2", "*":
		return true
	}
	return false
}
