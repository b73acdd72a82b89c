package board

import (
	"reflect"
	"testing"
)

func TestParseMoveList(t *testing.T) {
	cases := []struct {
		name string
		text string
		want []MoveRow
	}{
		{
			name: "empty",
			text: "",
			want: nil,
		},
		{
			name: "pairs",
			text: "1. e4 e5 2. Nf3 Nc6",
			want: []MoveRow{
				{Number: 1, White: "e4", Black: "e5"},
				{Number: 2, White: "Nf3", Black: "Nc6"},
			},
		},
		{
			name: "dangling white move",
			text: "1. e4 e5 2. Nf3",
			want: []MoveRow{
				{Number: 1, White: "e4", Black: "e5"},
				{Number: 2, White: "Nf3"},
			},
		},
		{
			name: "comments and variations stripped",
			text: "1. e4 {best by test} e5 (1... c5 2. Nf3) 2. Nf3 Nc6",
			want: []MoveRow{
				{Number: 1, White: "e4", Black: "e5"},
				{Number: 2, White: "Nf3", Black: "Nc6"},
			},
		},
		{
			name: "nested variation",
			text: "1. d4 (1. e4 e5 (1... c5)) d5",
			want: []MoveRow{
				{Number: 1, White: "d4", Black: "d5"},
			},
		},
		{
			name: "result token dropped",
			text: "1. e4 e5 2. Qh5 Nc6 3. Bc4 Nf6 4. Qxf7# 1-0",
			want: []MoveRow{
				{Number: 1, White: "e4", Black: "e5"},
				{Number: 2, White: "Qh5", Black: "Nc6"},
				{Number: 3, White: "Bc4", Black: "Nf6"},
				{Number: 4, White: "Qxf7#"},
			},
		},
		{
			name: "continuation numbers dropped",
			text: "1. e4 e5 2. Nf3 2... Nc6 *",
			want: []MoveRow{
				{Number: 1, White: "e4", Black: "e5"},
				{Number: 2, White: "Nf3", Black: "Nc6"},
			},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := ParseMoveList(c.text)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("ParseMoveList(%q) = %+v, want %+v", c.text, got, c.want)
			}
		})
	}
}

func TestParseMoveList_RowCount(t *testing.T) {
	// ceil(plies/2) rows, last black slot empty when odd.
	text := ""
	plies := []string{"e4", "e5", "Nf3", "Nc6", "Bb5"}
	for i, san := range plies {
		if i%2 == 0 {
			if text != "" {
				text += " "
			}
			text += "3. " // move numbers are discarded, the value is irrelevant
		} else {
			text += " "
		}
		text += san
	}

	rows := ParseMoveList(text)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	if rows[2].Black != "" {
		t.Fatalf("last black slot = %q, want empty", rows[2].Black)
	}
}
