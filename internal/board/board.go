// Package board holds the pure position model: FEN placement parsing,
// square coordinates and a no-legality move projector. It never talks
// to the network and keeps no state between calls.
package board

import (
	"errors"
	"fmt"
	"strings"
)

// Piece is a single FEN piece letter; 0 marks an empty square.
// Uppercase is White, lowercase is Black.
type Piece = byte

// Grid is the 8x8 board with row 0 = rank 8 (top of a displayed board)
// and column 0 = file a.
type Grid [8][8]Piece

var ErrMalformedPosition = errors.New("malformed position")

const pieceLetters = "pnbrqkPNBRQK"

// ParsePlacement parses the placement field of a FEN string into a
// grid. A full six-field FEN is accepted; only the first field is read.
func ParsePlacement(text string) (Grid, error) {
	var g Grid

	placement := strings.TrimSpace(text)
	if i := strings.IndexByte(placement, ' '); i >= 0 {
		placement = placement[:i]
	}
	if placement == "" {
		return g, fmt.Errorf("%w: empty placement", ErrMalformedPosition)
	}

	ranks := strings.Split(placement, "/")
	if len(ranks) != 8 {
		return g, fmt.Errorf("%w: %d ranks", ErrMalformedPosition, len(ranks))
	}

	for row, rank := range ranks {
		col := 0
		for i := 0; i < len(rank); i++ {
			c := rank[i]
			switch {
			case c >= '1' && c <= '8':
				col += int(c - '0')
			case strings.IndexByte(pieceLetters, c) >= 0:
				if col >= 8 {
					return g, fmt.Errorf("%w: rank %d overflows", ErrMalformedPosition, 8-row)
				}
				g[row][col] = c
				col++
			default:
				return g, fmt.Errorf("%w: bad character %q in rank %d", ErrMalformedPosition, c, 8-row)
			}
		}
		if col != 8 {
			return g, fmt.Errorf("%w: rank %d has %d squares", ErrMalformedPosition, 8-row, col)
		}
	}
	return g, nil
}

// Placement encodes the grid back into a FEN placement field.
func (g Grid) Placement() string {
	var b strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			b.WriteByte('/')
		}
		empty := 0
		for col := 0; col < 8; col++ {
			p := g[row][col]
			if p == 0 {
				empty++
				continue
			}
			if empty > 0 {
				b.WriteByte(byte('0' + empty))
				empty = 0
			}
			b.WriteByte(p)
		}
		if empty > 0 {
			b.WriteByte(byte('0' + empty))
		}
	}
	return b.String()
}

// SquareToCoord maps algebraic notation ("e2") to grid coordinates.
func SquareToCoord(square string) (file, row int, err error) {
	if len(square) != 2 {
		return 0, 0, fmt.Errorf("%w: square %q", ErrMalformedPosition, square)
	}
	f := square[0]
	r := square[1]
	if f < 'a' || f > 'h' || r < '1' || r > '8' {
		return 0, 0, fmt.Errorf("%w: square %q", ErrMalformedPosition, square)
	}
	return int(f - 'a'), int('8' - r), nil
}

// CoordToSquare is the inverse of SquareToCoord.
func CoordToSquare(file, row int) string {
	return string([]byte{byte('a' + file), byte('8' - row)})
}

// ApplyMove relocates the piece named by a UCI move code, clearing the
// origin square. The four king castling codes also hop the matching
// corner rook, and a fifth character replaces the moved piece with the
// promotion letter cased to the mover's side. No legality is checked;
// this projects board state, it does not arbitrate it.
func ApplyMove(g *Grid, uci string) error {
	if len(uci) != 4 && len(uci) != 5 {
		return fmt.Errorf("%w: uci %q", ErrMalformedPosition, uci)
	}
	fromFile, fromRow, err := SquareToCoord(uci[:2])
	if err != nil {
		return err
	}
	toFile, toRow, err := SquareToCoord(uci[2:4])
	if err != nil {
		return err
	}

	moved := g[fromRow][fromFile]
	g[fromRow][fromFile] = 0

	if len(uci) == 5 {
		promo := uci[4]
		if strings.IndexByte("nbrq", lower(promo)) < 0 {
			return fmt.Errorf("%w: promotion %q", ErrMalformedPosition, promo)
		}
		if isWhite(moved) {
			moved = upper(promo)
		} else {
			moved = lower(promo)
		}
	}
	g[toRow][toFile] = moved

	// Castling rook hop, only when the mover really is the king.
	switch {
	case uci == "e1g1" && moved == 'K':
		relocate(g, "h1", "f1")
	case uci == "e1c1" && moved == 'K':
		relocate(g, "a1", "d1")
	case uci == "e8g8" && moved == 'k':
		relocate(g, "h8", "f8")
	case uci == "e8c8" && moved == 'k':
		relocate(g, "a8", "d8")
	}
	return nil
}

func relocate(g *Grid, from, to string) {
	ff, fr, _ := SquareToCoord(from)
	tf, tr, _ := SquareToCoord(to)
	g[tr][tf] = g[fr][ff]
	g[fr][ff] = 0
}

func isWhite(p Piece) bool { return p >= 'A' && p <= 'Z' }

func lower(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + 'a' - 'A'
	}
	return c
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
