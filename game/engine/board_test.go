package engine

import (
	"errors"
	"testing"
)

// capCards returns the 16 cards whose attributes only take their first two
// values. No three of them form a set.
func capCards() []Card {
	var cards []Card
	for _, c := range AllCards() {
		ok := true
		for _, v := range c.attributes() {
			if v > 1 {
				ok = false
			}
		}
		if ok {
			cards = append(cards, c)
		}
	}
	return cards
}

// stackedDeck returns a deck that deals board in order, followed by rest.
func stackedDeck(board, rest []Card) *Deck {
	cards := make([]Card, 0, len(board)+len(rest))
	for i := len(rest) - 1; i >= 0; i-- {
		cards = append(cards, rest[i])
	}
	for i := len(board) - 1; i >= 0; i-- {
		cards = append(cards, board[i])
	}
	return NewOrderedDeck(cards)
}

// excluding returns the cards of AllCards not in used.
func excluding(used ...[]Card) []Card {
	skip := make(map[Card]bool)
	for _, cards := range used {
		for _, c := range cards {
			skip[c] = true
		}
	}
	var out []Card
	for _, c := range AllCards() {
		if !skip[c] {
			out = append(out, c)
		}
	}
	return out
}

func TestCapCards_HaveNoSet(t *testing.T) {
	cards := capCards()
	if len(cards) != 16 {
		t.Fatalf("Expected 16 cards, got %d", len(cards))
	}
	eachTriple(len(cards), func(i, j, k int) bool {
		if IsSet(cards[i], cards[j], cards[k]) {
			t.Fatalf("Unexpected set %s %s %s", cards[i], cards[j], cards[k])
		}
		return true
	})
}

func TestNewBoard(t *testing.T) {
	deck := NewDeck(nil)
	board, err := NewBoard(deck)
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}

	if board.NumRows() != 3 || board.NumCols() != 4 {
		t.Errorf("Expected 3x4 board, got %dx%d", board.NumRows(), board.NumCols())
	}
	if board.NumCards() != 12 {
		t.Errorf("Expected 12 cards, got %d", board.NumCards())
	}
	if deck.Remaining() != 69 {
		t.Errorf("Expected 69 cards left in deck, got %d", deck.Remaining())
	}
}

func TestNewBoard_DealsRowMajor(t *testing.T) {
	layout := capCards()[:12]
	board, err := NewBoard(stackedDeck(layout, nil))
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}

	for i, want := range layout {
		cell, err := board.CellAt(i/4, i%4)
		if err != nil {
			t.Fatalf("CellAt(%d,%d) failed: %v", i/4, i%4, err)
		}
		if cell.Card != want {
			t.Errorf("Cell (%d,%d): expected %s, got %s", i/4, i%4, want, cell.Card)
		}
	}
}

func TestNewBoard_ShortDeck(t *testing.T) {
	deck := NewOrderedDeck(AllCards()[:11])
	if _, err := NewBoard(deck); !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("Expected ErrEmptyDeck, got %v", err)
	}
	if deck.Remaining() != 11 {
		t.Errorf("Expected deck untouched with 11 cards, got %d", deck.Remaining())
	}
}

func TestBoard_CellAtOutOfBounds(t *testing.T) {
	board, err := NewBoard(NewDeck(nil))
	if err != nil {
		t.Fatalf("NewBoard failed: %v", err)
	}

	tests := []struct {
		name     string
		row, col int
	}{
		{"negative row", -1, 0},
		{"negative col", 0, -1},
		{"row past end", 3, 0},
		{"col past end", 0, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := board.CellAt(tt.row, tt.col); !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("Expected ErrOutOfBounds, got %v", err)
			}
			if err := board.ReplaceCard(Card{}, tt.row, tt.col); !errors.Is(err, ErrOutOfBounds) {
				t.Errorf("Expected ErrOutOfBounds from ReplaceCard, got %v", err)
			}
		})
	}
}

func TestBoard_ReplaceCard(t *testing.T) {
	layout := capCards()[:12]
	board, _ := NewBoard(stackedDeck(layout, nil))

	replacement := excluding(layout)[0]
	if err := board.ReplaceCard(replacement, 1, 2); err != nil {
		t.Fatalf("ReplaceCard failed: %v", err)
	}

	cell, _ := board.CellAt(1, 2)
	if cell.Card != replacement {
		t.Errorf("Expected %s at (1,2), got %s", replacement, cell.Card)
	}
	if board.NumCards() != 12 {
		t.Errorf("Expected 12 cards, got %d", board.NumCards())
	}
}

func TestBoard_Compress(t *testing.T) {
	layout := capCards()[:12]
	board, _ := NewBoard(stackedDeck(layout, nil))

	var remove []Cell
	for _, p := range []Position{{0, 1}, {1, 3}, {2, 0}} {
		c, _ := board.CellAt(p.Row, p.Col)
		remove = append(remove, c)
	}

	if err := board.Compress(remove); err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	if board.NumRows() != 3 || board.NumCols() != 3 {
		t.Fatalf("Expected 3x3 board, got %dx%d", board.NumRows(), board.NumCols())
	}

	removed := map[Card]bool{}
	for _, c := range remove {
		removed[c.Card] = true
	}
	var survivors []Card
	for _, c := range layout {
		if !removed[c] {
			survivors = append(survivors, c)
		}
	}

	positions := map[Position]bool{}
	for i, cell := range board.Cells() {
		if positions[cell.Position()] {
			t.Errorf("Position %s appears twice", cell.Position())
		}
		positions[cell.Position()] = true
		if cell.Card != survivors[i] {
			t.Errorf("Cell %d: expected %s, got %s", i, survivors[i], cell.Card)
		}
		if cell.Row != i/3 || cell.Col != i%3 {
			t.Errorf("Cell %d: expected position (%d,%d), got %s", i, i/3, i%3, cell.Position())
		}
	}
	if len(positions) != 9 {
		t.Errorf("Expected 9 distinct positions, got %d", len(positions))
	}
}

func TestBoard_CompressStaleCell(t *testing.T) {
	layout := capCards()[:12]
	board, _ := NewBoard(stackedDeck(layout, nil))

	a, _ := board.CellAt(0, 0)
	b, _ := board.CellAt(0, 1)
	stale := Cell{Card: excluding(layout)[0], Row: 0, Col: 2}

	err := board.Compress([]Cell{a, b, stale})
	if !errors.Is(err, ErrUnevenBoard) {
		t.Fatalf("Expected ErrUnevenBoard, got %v", err)
	}
	if board.NumCards() != 12 {
		t.Errorf("Expected board unchanged with 12 cards, got %d", board.NumCards())
	}
}

func TestBoard_Add3(t *testing.T) {
	layout := capCards()[:12]
	rest := excluding(layout)[:6]
	deck := stackedDeck(layout, rest)
	board, _ := NewBoard(deck)

	var remove []Cell
	for _, p := range []Position{{0, 0}, {1, 1}, {2, 2}} {
		c, _ := board.CellAt(p.Row, p.Col)
		remove = append(remove, c)
	}
	if err := board.Compress(remove); err != nil {
		t.Fatalf("Compress failed: %v", err)
	}
	before := board.Cells()

	if err := board.Add3(deck); err != nil {
		t.Fatalf("Add3 failed: %v", err)
	}
	if board.NumCols() != 4 || board.NumCards() != 12 {
		t.Fatalf("Expected 3x4 board, got %dx%d", board.NumRows(), board.NumCols())
	}
	if deck.Remaining() != 3 {
		t.Errorf("Expected 3 cards left in deck, got %d", deck.Remaining())
	}

	for _, old := range before {
		cell, err := board.CellAt(old.Row, old.Col)
		if err != nil {
			t.Fatalf("CellAt%s failed: %v", old.Position(), err)
		}
		if cell.Card != old.Card {
			t.Errorf("Cell %s moved: expected %s, got %s", old.Position(), old.Card, cell.Card)
		}
	}
	for row := 0; row < 3; row++ {
		cell, _ := board.CellAt(row, 3)
		if cell.Card != rest[row] {
			t.Errorf("New cell (%d,3): expected %s, got %s", row, rest[row], cell.Card)
		}
	}
}

func TestBoard_Add3ShortDeck(t *testing.T) {
	layout := capCards()[:12]
	deck := stackedDeck(layout, excluding(layout)[:2])
	board, _ := NewBoard(deck)

	var remove []Cell
	for _, p := range []Position{{0, 0}, {0, 1}, {0, 2}} {
		c, _ := board.CellAt(p.Row, p.Col)
		remove = append(remove, c)
	}
	if err := board.Compress(remove); err != nil {
		t.Fatalf("Compress failed: %v", err)
	}

	if err := board.Add3(deck); !errors.Is(err, ErrEmptyDeck) {
		t.Fatalf("Expected ErrEmptyDeck, got %v", err)
	}
	if board.NumRows() != 3 || board.NumCols() != 3 {
		t.Errorf("Expected board to stay 3x3, got %dx%d", board.NumRows(), board.NumCols())
	}
	if deck.Remaining() != 2 {
		t.Errorf("Expected 2 cards left in deck, got %d", deck.Remaining())
	}
}
