package engine

import (
	"fmt"
	"math/rand"

	"github.com/google/uuid"
)

// SelectionSize is the number of cards a player proposes as a set.
const SelectionSize = 3

// Game ties a deck, a board and the player's current selection together.
// A Game is not safe for concurrent use; starting a new game means building
// a new Game rather than resetting this one.
type Game struct {
	id       string
	deck     *Deck
	board    *Board
	selected []Position
	maxCards int
}

// Option configures a Game at construction.
type Option func(*gameOptions)

type gameOptions struct {
	deck     *Deck
	rng      *rand.Rand
	maxCards int
}

// WithDeck deals the game from the given deck instead of a shuffled one.
func WithDeck(d *Deck) Option {
	return func(o *gameOptions) { o.deck = d }
}

// WithRand shuffles the deck with the given source.
func WithRand(rng *rand.Rand) Option {
	return func(o *gameOptions) { o.rng = rng }
}

// WithMaxCards caps how many cards Add3 may lay out. Zero means no cap.
func WithMaxCards(n int) Option {
	return func(o *gameOptions) { o.maxCards = n }
}

// NewGame shuffles a deck and deals the opening 3x4 board.
func NewGame(opts ...Option) (*Game, error) {
	var o gameOptions
	for _, opt := range opts {
		opt(&o)
	}
	if o.maxCards < 0 {
		return nil, fmt.Errorf("max cards must not be negative, got %d", o.maxCards)
	}

	deck := o.deck
	if deck == nil {
		deck = NewDeck(o.rng)
	}

	board, err := NewBoard(deck)
	if err != nil {
		return nil, err
	}

	return &Game{
		id:       uuid.NewString(),
		deck:     deck,
		board:    board,
		selected: make([]Position, 0, SelectionSize),
		maxCards: o.maxCards,
	}, nil
}

// ID identifies this game instance.
func (g *Game) ID() string {
	return g.id
}

// NumRows returns the number of board rows.
func (g *Game) NumRows() int {
	return g.board.NumRows()
}

// NumCols returns the number of board columns.
func (g *Game) NumCols() int {
	return g.board.NumCols()
}

// NumCardsOnBoard returns the number of face-up cards.
func (g *Game) NumCardsOnBoard() int {
	return g.board.NumCards()
}

// MaxCards returns the board size cap, zero if uncapped.
func (g *Game) MaxCards() int {
	return g.maxCards
}

// CardsRemaining returns the number of cards left in the deck.
func (g *Game) CardsRemaining() int {
	return g.deck.Remaining()
}

// OutOfCards reports whether the deck is exhausted.
func (g *Game) OutOfCards() bool {
	return g.deck.IsEmpty()
}

// CellView is a board cell together with its selection state
type CellView struct {
	Cell
	Selected bool `json:"selected"`
}

// CellAt returns the cell at the given position.
func (g *Game) CellAt(row, col int) (CellView, error) {
	cell, err := g.board.CellAt(row, col)
	if err != nil {
		return CellView{}, err
	}
	return CellView{Cell: cell, Selected: g.IsSelected(row, col)}, nil
}

// Cells returns every board cell in row-major order.
func (g *Game) Cells() []CellView {
	cells := g.board.Cells()
	views := make([]CellView, len(cells))
	for i, c := range cells {
		views[i] = CellView{Cell: c, Selected: g.IsSelected(c.Row, c.Col)}
	}
	return views
}

// NumSelected returns how many cells are selected.
func (g *Game) NumSelected() int {
	return len(g.selected)
}

// GetSelected returns the selected positions in selection order.
func (g *Game) GetSelected() []Position {
	out := make([]Position, len(g.selected))
	copy(out, g.selected)
	return out
}

// IsSelected reports whether the position is part of the selection.
func (g *Game) IsSelected(row, col int) bool {
	return g.selectedIndex(Position{Row: row, Col: col}) >= 0
}

func (g *Game) selectedIndex(p Position) int {
	for i, s := range g.selected {
		if s == p {
			return i
		}
	}
	return -1
}

// AddToSelected selects the cell at the given position. Selecting an
// already selected cell does nothing. A fourth selection fails with
// ErrInvalidSelectionSize; call TestSelected once three are selected.
func (g *Game) AddToSelected(row, col int) error {
	if _, err := g.board.CellAt(row, col); err != nil {
		return err
	}
	p := Position{Row: row, Col: col}
	if g.selectedIndex(p) >= 0 {
		return nil
	}
	if len(g.selected) >= SelectionSize {
		return fmt.Errorf("select %s: %d cells already selected: %w", p, len(g.selected), ErrInvalidSelectionSize)
	}
	g.selected = append(g.selected, p)
	return nil
}

// RemoveSelected deselects the cell at the given position. Deselecting a
// cell that is not selected does nothing.
func (g *Game) RemoveSelected(row, col int) error {
	if _, err := g.board.CellAt(row, col); err != nil {
		return err
	}
	if i := g.selectedIndex(Position{Row: row, Col: col}); i >= 0 {
		g.selected = append(g.selected[:i], g.selected[i+1:]...)
	}
	return nil
}

// ToggleSelected flips the selection of a cell and reports whether it is
// now selected.
func (g *Game) ToggleSelected(row, col int) (bool, error) {
	if g.IsSelected(row, col) {
		return false, g.RemoveSelected(row, col)
	}
	if err := g.AddToSelected(row, col); err != nil {
		return false, err
	}
	return true, nil
}

// ClearSelection deselects every cell.
func (g *Game) ClearSelection() {
	g.selected = g.selected[:0]
}

// SelectedCells returns the cells currently selected, in selection order.
func (g *Game) SelectedCells() ([]Cell, error) {
	cells := make([]Cell, 0, len(g.selected))
	for _, p := range g.selected {
		c, err := g.board.CellAt(p.Row, p.Col)
		if err != nil {
			return nil, err
		}
		cells = append(cells, c)
	}
	return cells, nil
}

// TestSelected checks whether the three selected cards form a set and
// clears the selection. On a set the board is replenished:
//   - 12 cards on the board and cards left: the three cards are replaced in place
//   - fewer than 12 and cards left: the board is compressed and grown by a column
//   - otherwise: the board is compressed
//
// The board is left untouched when the cards are not a set.
func (g *Game) TestSelected() (bool, error) {
	if len(g.selected) != SelectionSize {
		return false, fmt.Errorf("test selection: %d cells selected, need %d: %w",
			len(g.selected), SelectionSize, ErrInvalidSelectionSize)
	}

	cells, err := g.SelectedCells()
	if err != nil {
		return false, err
	}
	g.ClearSelection()

	isSet := IsSet(cells[0].Card, cells[1].Card, cells[2].Card)
	if !isSet {
		return false, nil
	}

	if err := g.replenish(cells); err != nil {
		return true, err
	}
	return true, nil
}

func (g *Game) replenish(matched []Cell) error {
	canDraw := g.deck.Remaining() >= len(matched)
	onBoard := g.board.NumCards()

	switch {
	case canDraw && onBoard == StandardBoardSize:
		for _, c := range matched {
			card, err := g.deck.Draw()
			if err != nil {
				return err
			}
			if err := g.board.ReplaceCard(card, c.Row, c.Col); err != nil {
				return err
			}
		}
		return nil
	case canDraw && onBoard < StandardBoardSize:
		if err := g.board.Compress(matched); err != nil {
			return err
		}
		return g.board.Add3(g.deck)
	default:
		return g.board.Compress(matched)
	}
}

// Add3 lays out one more card in every row. The selection stays valid
// because existing cells keep their positions.
func (g *Game) Add3() error {
	if g.maxCards > 0 && g.board.NumCards()+g.board.NumRows() > g.maxCards {
		return fmt.Errorf("add cards: %d on board, limit %d: %w", g.board.NumCards(), g.maxCards, ErrBoardFull)
	}
	return g.board.Add3(g.deck)
}

// FindSet returns the first set on the board, scanning every combination
// of three distinct cells once in row-major index order.
func (g *Game) FindSet() ([SelectionSize]Cell, bool) {
	var found [SelectionSize]Cell
	ok := false
	cells := g.board.Cells()
	eachTriple(len(cells), func(i, j, k int) bool {
		if IsSet(cells[i].Card, cells[j].Card, cells[k].Card) {
			found = [SelectionSize]Cell{cells[i], cells[j], cells[k]}
			ok = true
			return false
		}
		return true
	})
	return found, ok
}

// CountSets returns how many sets are on the board.
func (g *Game) CountSets() int {
	n := 0
	cells := g.board.Cells()
	eachTriple(len(cells), func(i, j, k int) bool {
		if IsSet(cells[i].Card, cells[j].Card, cells[k].Card) {
			n++
		}
		return true
	})
	return n
}

// IsOver reports whether play cannot continue: the deck is empty and the
// board holds no set.
func (g *Game) IsOver() bool {
	if !g.deck.IsEmpty() {
		return false
	}
	_, ok := g.FindSet()
	return !ok
}

// eachTriple calls fn for every i < j < k below n until fn returns false.
func eachTriple(n int, fn func(i, j, k int) bool) {
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				if !fn(i, j, k) {
					return
				}
			}
		}
	}
}
