package engine

import "fmt"

const (
	// BoardRows is the fixed number of rows on the board.
	BoardRows = 3
	// InitialColumns is the width of a freshly dealt board.
	InitialColumns = 4
	// StandardBoardSize is the number of cards the board is replenished towards.
	StandardBoardSize = BoardRows * InitialColumns
)

// Position addresses a board cell by row and column
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.Row, p.Col)
}

// Cell is a snapshot of one board square. Coordinates are only valid until
// the next Add3 or Compress.
type Cell struct {
	Card Card `json:"card"`
	Row  int  `json:"row"`
	Col  int  `json:"col"`
}

// Position returns the cell's coordinates.
func (c Cell) Position() Position {
	return Position{Row: c.Row, Col: c.Col}
}

// Board is a rectangular tableau with BoardRows rows. Cards are kept in one
// dense row-major slice and a cell's coordinates are derived from its index,
// so every row always has the same length.
type Board struct {
	cards []Card
}

// NewBoard deals a 3x4 board from the deck, row by row.
func NewBoard(deck *Deck) (*Board, error) {
	if deck.Remaining() < StandardBoardSize {
		return nil, fmt.Errorf("deal board: need %d cards, deck has %d: %w",
			StandardBoardSize, deck.Remaining(), ErrEmptyDeck)
	}

	b := &Board{cards: make([]Card, 0, StandardBoardSize)}
	for i := 0; i < StandardBoardSize; i++ {
		card, err := deck.Draw()
		if err != nil {
			return nil, err
		}
		b.cards = append(b.cards, card)
	}
	return b, nil
}

// NumRows returns the number of rows.
func (b *Board) NumRows() int {
	return BoardRows
}

// NumCols returns the width shared by every row.
func (b *Board) NumCols() int {
	return len(b.cards) / BoardRows
}

// NumCards returns the number of cells on the board.
func (b *Board) NumCards() int {
	return len(b.cards)
}

func (b *Board) index(row, col int) (int, error) {
	if row < 0 || row >= b.NumRows() || col < 0 || col >= b.NumCols() {
		return 0, fmt.Errorf("%w: (%d,%d) on %dx%d board", ErrOutOfBounds, row, col, b.NumRows(), b.NumCols())
	}
	return row*b.NumCols() + col, nil
}

func (b *Board) cellAtIndex(i int) Cell {
	cols := b.NumCols()
	return Cell{Card: b.cards[i], Row: i / cols, Col: i % cols}
}

// CellAt returns the cell at the given position.
func (b *Board) CellAt(row, col int) (Cell, error) {
	i, err := b.index(row, col)
	if err != nil {
		return Cell{}, err
	}
	return b.cellAtIndex(i), nil
}

// ReplaceCard overwrites the card at the given position.
func (b *Board) ReplaceCard(card Card, row, col int) error {
	i, err := b.index(row, col)
	if err != nil {
		return err
	}
	b.cards[i] = card
	return nil
}

// Cells returns every cell in row-major order.
func (b *Board) Cells() []Cell {
	cells := make([]Cell, len(b.cards))
	for i := range b.cards {
		cells[i] = b.cellAtIndex(i)
	}
	return cells
}

// Add3 grows the board by one column, drawing one card per row from the
// deck. Either every row grows or, if the deck cannot cover all rows,
// nothing changes and ErrEmptyDeck is returned.
func (b *Board) Add3(deck *Deck) error {
	rows := b.NumRows()
	if deck.Remaining() < rows {
		return fmt.Errorf("add column: need %d cards, deck has %d: %w", rows, deck.Remaining(), ErrEmptyDeck)
	}

	oldCols := b.NumCols()
	newCols := oldCols + 1
	grown := make([]Card, 0, rows*newCols)
	for row := 0; row < rows; row++ {
		card, err := deck.Draw()
		if err != nil {
			return err
		}
		grown = append(grown, b.cards[row*oldCols:(row+1)*oldCols]...)
		grown = append(grown, card)
	}
	b.cards = grown
	return nil
}

// Compress removes the given cells and packs the survivors, in row-major
// order, back into BoardRows equal rows. A cell is removed only if both its
// position and its card match. If the survivors cannot fill equal rows the
// board is left unchanged and ErrUnevenBoard is returned.
func (b *Board) Compress(remove []Cell) error {
	drop := make(map[Cell]bool, len(remove))
	for _, c := range remove {
		drop[c] = true
	}

	kept := make([]Card, 0, len(b.cards))
	for i := range b.cards {
		if !drop[b.cellAtIndex(i)] {
			kept = append(kept, b.cards[i])
		}
	}

	if len(kept)%BoardRows != 0 {
		return fmt.Errorf("compress: %d cells left: %w", len(kept), ErrUnevenBoard)
	}

	b.cards = kept
	return nil
}
