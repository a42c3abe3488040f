package service

import (
	"time"

	"github.com/wricardo/set-game/game/engine"
)

// Event types reported in results and history.
const (
	EventSetFound   = "set_found"
	EventNotASet    = "not_a_set"
	EventCardsAdded = "cards_added"
	EventDeckEmpty  = "deck_empty"
	EventGameOver   = "game_over"
	EventNewGame    = "new_game"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	GamesStarted   int               `json:"games_started"`
	GameState      *engine.GameState `json:"game_state"`
}

// SelectionResult is returned after a select or deselect.
type SelectionResult struct {
	Selected    []engine.Position `json:"selected"`
	NumSelected int               `json:"num_selected"`
	ReadyToTest bool              `json:"ready_to_test"`
	GameState   *engine.GameState `json:"game_state"`
	Message     string            `json:"message"`
}

// TestResult contains the outcome of testing a selection
type TestResult struct {
	IsSet     bool                      `json:"is_set"`
	Cards     []engine.Cell             `json:"cards"`
	Verdicts  []engine.AttributeVerdict `json:"verdicts"`
	GameState *engine.GameState         `json:"game_state"`
	Message   string                    `json:"message"`
	Events    []GameEvent               `json:"events,omitempty"`
}

// ActionResult is returned by operations that change the board without a
// selection: adding cards and starting a new game.
type ActionResult struct {
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// HintResult reports a set on the board, if there is one.
type HintResult struct {
	Found     bool              `json:"found"`
	Cells     []engine.Cell     `json:"cells,omitempty"`
	SetsCount int               `json:"sets_on_board"`
	GameState *engine.GameState `json:"game_state"`
	Message   string            `json:"message"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// HistoryEntry records one action taken in a session.
type HistoryEntry struct {
	Seq            int               `json:"seq"`
	Game           int               `json:"game"`
	Action         string            `json:"action"`
	Positions      []engine.Position `json:"positions,omitempty"`
	Cards          []string          `json:"cards,omitempty"`
	IsSet          *bool             `json:"is_set,omitempty"`
	CardsOnBoard   int               `json:"cards_on_board"`
	CardsRemaining int               `json:"cards_remaining"`
	Timestamp      time.Time         `json:"timestamp"`
}

// HistoryOptions configures history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains a page of session history
type HistoryResponse struct {
	Entries      []HistoryEntry `json:"entries"`
	TotalEntries int            `json:"total_entries"`
	Page         int            `json:"page"`
	PageSize     int            `json:"page_size"`
	TotalPages   int            `json:"total_pages"`
	HasNext      bool           `json:"has_next"`
	HasPrevious  bool           `json:"has_previous"`
}
