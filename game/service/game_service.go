package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/set-game/game/engine"
)

// ErrSessionNotFound is returned when a session ID does not match any session.
var ErrSessionNotFound = errors.New("session not found")

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	NewGame(ctx context.Context, sessionID string) (*ActionResult, error)
	Select(ctx context.Context, sessionID string, row, col int) (*SelectionResult, error)
	Deselect(ctx context.Context, sessionID string, row, col int) (*SelectionResult, error)
	TestSelected(ctx context.Context, sessionID string) (*TestResult, error)
	SubmitSet(ctx context.Context, sessionID string, positions []engine.Position) (*TestResult, error)
	AddThree(ctx context.Context, sessionID string) (*ActionResult, error)
	FindSet(ctx context.Context, sessionID string) (*HintResult, error)

	// Game State
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)
	GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id string, game *engine.Game) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// GameFactory builds a freshly dealt game.
type GameFactory func() (*engine.Game, error)

// Session represents an active game session. Game is replaced wholesale
// when the player starts a new game.
type Session struct {
	ID             string
	Game           *engine.Game
	History        []HistoryEntry
	GamesStarted   int
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
