package engine

// GameState is a serializable snapshot of a game for presentation layers.
type GameState struct {
	GameID         string     `json:"game_id"`
	Rows           int        `json:"rows"`
	Cols           int        `json:"cols"`
	Cells          []CellView `json:"cells"`
	CardsOnBoard   int        `json:"cards_on_board"`
	CardsRemaining int        `json:"cards_remaining"`
	OutOfCards     bool       `json:"out_of_cards"`
	Selected       []Position `json:"selected"`
	NumSelected    int        `json:"num_selected"`
	MaxCards       int        `json:"max_cards,omitempty"`
	SetsOnBoard    int        `json:"sets_on_board"`
	GameOver       bool       `json:"game_over"`
}

// State returns a snapshot of the game.
func (g *Game) State() *GameState {
	sets := g.CountSets()
	return &GameState{
		GameID:         g.id,
		Rows:           g.NumRows(),
		Cols:           g.NumCols(),
		Cells:          g.Cells(),
		CardsOnBoard:   g.NumCardsOnBoard(),
		CardsRemaining: g.CardsRemaining(),
		OutOfCards:     g.OutOfCards(),
		Selected:       g.GetSelected(),
		NumSelected:    g.NumSelected(),
		MaxCards:       g.maxCards,
		SetsOnBoard:    sets,
		GameOver:       g.OutOfCards() && sets == 0,
	}
}

// CellAt returns the snapshot cell at the given position, if present.
func (s *GameState) CellAt(row, col int) (CellView, bool) {
	if row < 0 || row >= s.Rows || col < 0 || col >= s.Cols {
		return CellView{}, false
	}
	i := row*s.Cols + col
	if i >= len(s.Cells) {
		return CellView{}, false
	}
	return s.Cells[i], true
}
