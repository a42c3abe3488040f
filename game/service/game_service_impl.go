package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/wricardo/set-game/game/engine"
)

const (
	// maxHistoryEntries bounds the per-session action log; the oldest
	// entries are dropped first.
	maxHistoryEntries = 1000

	defaultHistoryLimit = 20
	maxHistoryLimit     = 100
)

// History actions.
const (
	ActionNewGame  = "new_game"
	ActionTest     = "test"
	ActionAddThree = "add_three"
	ActionHint     = "hint"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	newGame  GameFactory
	logger   *zap.Logger
	mu       sync.Mutex
}

// Option configures the game service.
type Option func(*gameServiceImpl)

// WithLogger sets the logger game events are written to. The default
// discards them.
func WithLogger(logger *zap.Logger) Option {
	return func(s *gameServiceImpl) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewGameService creates a new game service instance. newGame deals every
// game the service hands out, including the first game of a session.
func NewGameService(sessions SessionManager, newGame GameFactory, opts ...Option) GameService {
	if newGame == nil {
		newGame = func() (*engine.Game, error) { return engine.NewGame() }
	}
	s := &gameServiceImpl{
		sessions: sessions,
		newGame:  newGame,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSession creates a new game session with a freshly dealt game
func (s *gameServiceImpl) CreateSession(ctx context.Context) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	game, err := s.newGame()
	if err != nil {
		return nil, fmt.Errorf("failed to deal game: %w", err)
	}

	// Let session manager generate a proper 4-character ID
	sess, err := s.sessions.Create("", game)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}
	sess.GamesStarted = 1
	s.record(sess, ActionNewGame, nil, nil, nil)
	s.logger.Info("session created",
		zap.String("session_id", sess.ID),
		zap.String("game_id", game.ID()),
	)

	return sessionInfo(sess), nil
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sessionInfo(sess), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}
	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sessions.Delete(sessionID); err != nil {
		return fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.logger.Info("session deleted", zap.String("session_id", sessionID))
	return nil
}

// NewGame discards the session's game and deals a new one.
func (s *gameServiceImpl) NewGame(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	game, err := s.newGame()
	if err != nil {
		return nil, fmt.Errorf("failed to deal game: %w", err)
	}
	sess.Game = game
	sess.GamesStarted++
	s.record(sess, ActionNewGame, nil, nil, nil)
	s.logger.Info("new game dealt",
		zap.String("session_id", sess.ID),
		zap.String("game_id", game.ID()),
		zap.Int("games_started", sess.GamesStarted),
	)

	return &ActionResult{
		GameState: game.State(),
		Message:   fmt.Sprintf("New game dealt, %d cards left in the deck", game.CardsRemaining()),
		Events:    []GameEvent{newEvent(EventNewGame, fmt.Sprintf("Game %d started", sess.GamesStarted))},
	}, nil
}

// Select adds a cell to the selection
func (s *gameServiceImpl) Select(ctx context.Context, sessionID string, row, col int) (*SelectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Game.AddToSelected(row, col); err != nil {
		return nil, err
	}

	msg := fmt.Sprintf("Selected (%d,%d)", row, col)
	if sess.Game.NumSelected() == engine.SelectionSize {
		msg += ", three cards selected: test the selection"
	}
	return selectionResult(sess.Game, msg), nil
}

// Deselect removes a cell from the selection
func (s *gameServiceImpl) Deselect(ctx context.Context, sessionID string, row, col int) (*SelectionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.Game.RemoveSelected(row, col); err != nil {
		return nil, err
	}
	return selectionResult(sess.Game, fmt.Sprintf("Deselected (%d,%d)", row, col)), nil
}

// TestSelected tests the current selection
func (s *gameServiceImpl) TestSelected(ctx context.Context, sessionID string) (*TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return s.testSelection(sess)
}

// SubmitSet replaces the selection with the given positions and tests it.
// All positions are validated before the selection is touched.
func (s *gameServiceImpl) SubmitSet(ctx context.Context, sessionID string, positions []engine.Position) (*TestResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	if len(positions) != engine.SelectionSize {
		return nil, fmt.Errorf("submit: got %d positions, need %d: %w",
			len(positions), engine.SelectionSize, engine.ErrInvalidSelectionSize)
	}
	seen := make(map[engine.Position]bool, len(positions))
	for _, p := range positions {
		if seen[p] {
			return nil, fmt.Errorf("submit: position %s given twice: %w", p, engine.ErrInvalidSelectionSize)
		}
		seen[p] = true
		if _, err := sess.Game.CellAt(p.Row, p.Col); err != nil {
			return nil, err
		}
	}

	sess.Game.ClearSelection()
	for _, p := range positions {
		if err := sess.Game.AddToSelected(p.Row, p.Col); err != nil {
			return nil, err
		}
	}
	return s.testSelection(sess)
}

// testSelection runs the engine test and records it. Callers hold s.mu.
func (s *gameServiceImpl) testSelection(sess *Session) (*TestResult, error) {
	game := sess.Game
	cells, err := game.SelectedCells()
	if err != nil {
		return nil, err
	}
	wasOut := game.OutOfCards()

	isSet, err := game.TestSelected()
	if err != nil {
		return nil, err
	}

	verdicts := engine.Explain(cells[0].Card, cells[1].Card, cells[2].Card)
	positions := make([]engine.Position, len(cells))
	codes := make([]string, len(cells))
	for i, c := range cells {
		positions[i] = c.Position()
		codes[i] = c.Card.Code()
	}
	s.record(sess, ActionTest, positions, codes, &isSet)
	s.logger.Debug("selection tested",
		zap.String("session_id", sess.ID),
		zap.Strings("cards", codes),
		zap.Bool("is_set", isSet),
		zap.Int("cards_on_board", game.NumCardsOnBoard()),
		zap.Int("cards_remaining", game.CardsRemaining()),
	)

	result := &TestResult{
		IsSet:     isSet,
		Cards:     cells,
		Verdicts:  verdicts,
		GameState: game.State(),
	}

	if !isSet {
		result.Message = "Not a set: " + describeFailure(verdicts)
		result.Events = []GameEvent{newEvent(EventNotASet, result.Message)}
		return result, nil
	}

	result.Message = fmt.Sprintf("Set! %s, %s and %s. %d cards on the board, %d left in the deck",
		codes[0], codes[1], codes[2], game.NumCardsOnBoard(), game.CardsRemaining())
	result.Events = []GameEvent{newEvent(EventSetFound, result.Message)}
	if !wasOut && game.OutOfCards() {
		result.Events = append(result.Events, newEvent(EventDeckEmpty, "The deck is empty"))
	}
	if result.GameState.GameOver {
		result.Events = append(result.Events, newEvent(EventGameOver, "No sets left, game over"))
		s.logger.Info("game over",
			zap.String("session_id", sess.ID),
			zap.String("game_id", game.ID()),
			zap.Int("cards_left", game.NumCardsOnBoard()),
		)
	}
	return result, nil
}

// AddThree lays out three more cards
func (s *gameServiceImpl) AddThree(ctx context.Context, sessionID string) (*ActionResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	game := sess.Game
	if err := game.Add3(); err != nil {
		s.logger.Debug("add three refused", zap.String("session_id", sess.ID), zap.Error(err))
		return nil, err
	}
	s.record(sess, ActionAddThree, nil, nil, nil)
	s.logger.Debug("cards added",
		zap.String("session_id", sess.ID),
		zap.Int("cards_on_board", game.NumCardsOnBoard()),
		zap.Int("cards_remaining", game.CardsRemaining()),
	)

	msg := fmt.Sprintf("Added 3 cards, %d on the board", game.NumCardsOnBoard())
	events := []GameEvent{newEvent(EventCardsAdded, msg)}
	if game.OutOfCards() {
		events = append(events, newEvent(EventDeckEmpty, "The deck is empty"))
	}
	return &ActionResult{
		GameState: game.State(),
		Message:   msg,
		Events:    events,
	}, nil
}

// FindSet looks for a set on the board
func (s *gameServiceImpl) FindSet(ctx context.Context, sessionID string) (*HintResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	game := sess.Game
	found, ok := game.FindSet()
	state := game.State()
	result := &HintResult{
		Found:     ok,
		SetsCount: state.SetsOnBoard,
		GameState: state,
	}

	switch {
	case ok:
		result.Cells = found[:]
		positions := make([]engine.Position, len(found))
		codes := make([]string, len(found))
		parts := make([]string, len(found))
		for i, c := range found {
			positions[i] = c.Position()
			codes[i] = c.Card.Code()
			parts[i] = fmt.Sprintf("%s %s", c.Position(), c.Card.Code())
		}
		s.record(sess, ActionHint, positions, codes, nil)
		result.Message = "Set at " + strings.Join(parts, ", ")
	case game.OutOfCards():
		s.record(sess, ActionHint, nil, nil, nil)
		result.Message = "No set on the board and the deck is empty. Game over"
	default:
		s.record(sess, ActionHint, nil, nil, nil)
		result.Message = "No set on the board. Add three cards"
	}
	return result, nil
}

// GetGameState retrieves the current game state
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}
	return sess.Game.State(), nil
}

// GetHistory returns a page of the session's action log
func (s *gameServiceImpl) GetHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.lookup(sessionID)
	if err != nil {
		return nil, err
	}

	history := sess.History
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = defaultHistoryLimit
	}
	if opts.Limit > maxHistoryLimit {
		opts.Limit = maxHistoryLimit
	}
	if opts.Order == "" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	entries := []HistoryEntry{}
	if opts.Order == "desc" {
		// Most recent first
		for i := total - 1 - start; i >= 0 && i >= total-end; i-- {
			entries = append(entries, history[i])
		}
	} else if start < total {
		entries = append(entries, history[start:end]...)
	}

	return &HistoryResponse{
		Entries:      entries,
		TotalEntries: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}, nil
}

// lookup fetches a session and marks it as accessed. Callers hold s.mu.
func (s *gameServiceImpl) lookup(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session %s: %w", sessionID, err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

func (s *gameServiceImpl) record(sess *Session, action string, positions []engine.Position, cards []string, isSet *bool) {
	seq := 1
	if n := len(sess.History); n > 0 {
		seq = sess.History[n-1].Seq + 1
	}
	sess.History = append(sess.History, HistoryEntry{
		Seq:            seq,
		Game:           sess.GamesStarted,
		Action:         action,
		Positions:      positions,
		Cards:          cards,
		IsSet:          isSet,
		CardsOnBoard:   sess.Game.NumCardsOnBoard(),
		CardsRemaining: sess.Game.CardsRemaining(),
		Timestamp:      time.Now(),
	})
	if over := len(sess.History) - maxHistoryEntries; over > 0 {
		sess.History = append([]HistoryEntry(nil), sess.History[over:]...)
	}
}

func sessionInfo(sess *Session) *SessionInfo {
	return &SessionInfo{
		ID:             sess.ID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt,
		GamesStarted:   sess.GamesStarted,
		GameState:      sess.Game.State(),
	}
}

func selectionResult(game *engine.Game, msg string) *SelectionResult {
	return &SelectionResult{
		Selected:    game.GetSelected(),
		NumSelected: game.NumSelected(),
		ReadyToTest: game.NumSelected() == engine.SelectionSize,
		GameState:   game.State(),
		Message:     msg,
	}
}

func newEvent(eventType, msg string) GameEvent {
	return GameEvent{Type: eventType, Message: msg, Timestamp: time.Now()}
}

// describeFailure names each attribute that is neither all the same nor all
// different, e.g. "shading is mixed (solid, striped, solid)".
func describeFailure(verdicts []engine.AttributeVerdict) string {
	var parts []string
	for _, v := range verdicts {
		if !v.OK() {
			parts = append(parts, fmt.Sprintf("%s is mixed (%s)", v.Attribute, strings.Join(v.Values, ", ")))
		}
	}
	return strings.Join(parts, "; ")
}
