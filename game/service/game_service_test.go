package service_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/wricardo/set-game/game/engine"
	"github.com/wricardo/set-game/game/service"
)

// MockSessionManager implements service.SessionManager for testing
type MockSessionManager struct {
	sessions map[string]*service.Session
}

func NewMockSessionManager() *MockSessionManager {
	return &MockSessionManager{
		sessions: make(map[string]*service.Session),
	}
}

func (m *MockSessionManager) Create(id string, game *engine.Game) (*service.Session, error) {
	// Generate ID if empty (mimics real session manager behavior)
	if id == "" {
		id = fmt.Sprintf("test_%d", len(m.sessions)+1)
	}
	if _, exists := m.sessions[id]; exists {
		return nil, errors.New("session already exists")
	}

	session := &service.Session{
		ID:             id,
		Game:           game,
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	m.sessions[id] = session
	return session, nil
}

func (m *MockSessionManager) Get(id string) (*service.Session, error) {
	session, exists := m.sessions[id]
	if !exists {
		return nil, service.ErrSessionNotFound
	}
	return session, nil
}

func (m *MockSessionManager) List() []*service.Session {
	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}
	return result
}

func (m *MockSessionManager) Delete(id string) error {
	if _, exists := m.sessions[id]; !exists {
		return service.ErrSessionNotFound
	}
	delete(m.sessions, id)
	return nil
}

func (m *MockSessionManager) UpdateLastAccessed(id string) error {
	if session, exists := m.sessions[id]; exists {
		session.LastAccessedAt = time.Now()
		return nil
	}
	return service.ErrSessionNotFound
}

// oneSetLayout deals a board whose only set sits at (0,0), (1,1) and (1,3).
var oneSetLayout = []string{
	"RSO1", "RSO2", "RSS1", "RSS2",
	"RTO1", "PSO1", "RTO2", "GSO1",
	"RTS1", "RTS2", "PSO2", "PSS1",
}

var oneSetPositions = []engine.Position{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 3}}

// spareCards refill the board without creating a set when the first three
// replace the one set.
var spareCards = []string{"PSS2", "PTO1", "PTO2", "PTS1", "PTS2", "GOD3"}

func stackedFactory(t *testing.T, layout, rest []string, opts ...engine.Option) service.GameFactory {
	t.Helper()
	var cards []engine.Card
	for i := len(rest) - 1; i >= 0; i-- {
		cards = append(cards, mustParse(t, rest[i]))
	}
	for i := len(layout) - 1; i >= 0; i-- {
		cards = append(cards, mustParse(t, layout[i]))
	}
	return func() (*engine.Game, error) {
		return engine.NewGame(append([]engine.Option{engine.WithDeck(engine.NewOrderedDeck(cards))}, opts...)...)
	}
}

func mustParse(t *testing.T, code string) engine.Card {
	t.Helper()
	c, err := engine.ParseCard(code)
	if err != nil {
		t.Fatalf("ParseCard(%q) failed: %v", code, err)
	}
	return c
}

func newTestService(t *testing.T, opts ...engine.Option) (service.GameService, *service.SessionInfo) {
	t.Helper()
	svc := service.NewGameService(NewMockSessionManager(), stackedFactory(t, oneSetLayout, spareCards, opts...))
	info, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("Failed to create session: %v", err)
	}
	return svc, info
}

func TestGameService_CreateSession(t *testing.T) {
	svc, info := newTestService(t)

	if info.ID == "" {
		t.Fatal("Expected a session ID")
	}
	if info.GamesStarted != 1 {
		t.Errorf("Expected 1 game started, got %d", info.GamesStarted)
	}
	if info.GameState == nil || info.GameState.CardsOnBoard != 12 {
		t.Fatalf("Expected a 12 card board, got %+v", info.GameState)
	}
	if info.GameState.CardsRemaining != len(spareCards) {
		t.Errorf("Expected %d cards remaining, got %d", len(spareCards), info.GameState.CardsRemaining)
	}

	sessions, err := svc.ListSessions(context.Background())
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != info.ID {
		t.Errorf("Expected the new session to be listed, got %v", sessions)
	}
}

func TestGameService_DefaultFactory(t *testing.T) {
	svc := service.NewGameService(NewMockSessionManager(), nil)
	info, err := svc.CreateSession(context.Background())
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if info.GameState.CardsRemaining != engine.DeckSize-engine.StandardBoardSize {
		t.Errorf("Expected a standard deal, got %d remaining", info.GameState.CardsRemaining)
	}
}

func TestGameService_LogsGameEvents(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	svc := service.NewGameService(NewMockSessionManager(), stackedFactory(t, oneSetLayout, spareCards),
		service.WithLogger(zap.New(core)))
	ctx := context.Background()

	info, err := svc.CreateSession(ctx)
	if err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	positions := []engine.Position{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 1, Col: 3}}
	if _, err := svc.SubmitSet(ctx, info.ID, positions); err != nil {
		t.Fatalf("SubmitSet failed: %v", err)
	}

	created := logs.FilterMessage("session created").All()
	if len(created) != 1 || created[0].ContextMap()["session_id"] != info.ID {
		t.Errorf("Expected one session created entry for %s, got %v", info.ID, created)
	}
	tested := logs.FilterMessage("selection tested").All()
	if len(tested) != 1 {
		t.Fatalf("Expected one selection tested entry, got %d", len(tested))
	}
	if tested[0].ContextMap()["is_set"] != true {
		t.Errorf("Expected is_set=true, got %v", tested[0].ContextMap())
	}
}

func TestGameService_NilLoggerIsIgnored(t *testing.T) {
	svc := service.NewGameService(NewMockSessionManager(), nil, service.WithLogger(nil))
	if _, err := svc.CreateSession(context.Background()); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
}

func TestGameService_SessionNotFound(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	calls := map[string]func() error{
		"GetSession": func() error { _, err := svc.GetSession(ctx, "nope"); return err },
		"NewGame":    func() error { _, err := svc.NewGame(ctx, "nope"); return err },
		"Select":     func() error { _, err := svc.Select(ctx, "nope", 0, 0); return err },
		"Deselect":   func() error { _, err := svc.Deselect(ctx, "nope", 0, 0); return err },
		"Test":       func() error { _, err := svc.TestSelected(ctx, "nope"); return err },
		"Submit":     func() error { _, err := svc.SubmitSet(ctx, "nope", oneSetPositions); return err },
		"AddThree":   func() error { _, err := svc.AddThree(ctx, "nope"); return err },
		"FindSet":    func() error { _, err := svc.FindSet(ctx, "nope"); return err },
		"State":      func() error { _, err := svc.GetGameState(ctx, "nope"); return err },
		"History": func() error {
			_, err := svc.GetHistory(ctx, "nope", service.HistoryOptions{})
			return err
		},
		"Delete": func() error { return svc.DeleteSession(ctx, "nope") },
	}

	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			if err := call(); !errors.Is(err, service.ErrSessionNotFound) {
				t.Errorf("Expected ErrSessionNotFound, got %v", err)
			}
		})
	}
}

func TestGameService_SelectAndDeselect(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	for i, p := range oneSetPositions {
		result, err := svc.Select(ctx, info.ID, p.Row, p.Col)
		if err != nil {
			t.Fatalf("Select%s failed: %v", p, err)
		}
		if result.NumSelected != i+1 {
			t.Errorf("Expected %d selected, got %d", i+1, result.NumSelected)
		}
		if result.ReadyToTest != (i == 2) {
			t.Errorf("Unexpected ReadyToTest=%v after %d selections", result.ReadyToTest, i+1)
		}
	}

	if _, err := svc.Select(ctx, info.ID, 2, 2); !errors.Is(err, engine.ErrInvalidSelectionSize) {
		t.Errorf("Expected ErrInvalidSelectionSize, got %v", err)
	}
	if _, err := svc.Select(ctx, info.ID, 5, 0); !errors.Is(err, engine.ErrOutOfBounds) {
		t.Errorf("Expected ErrOutOfBounds, got %v", err)
	}

	result, err := svc.Deselect(ctx, info.ID, 1, 1)
	if err != nil {
		t.Fatalf("Deselect failed: %v", err)
	}
	if result.NumSelected != 2 || result.ReadyToTest {
		t.Errorf("Expected 2 selected after deselect, got %+v", result)
	}
}

func TestGameService_TestSelected(t *testing.T) {
	ctx := context.Background()

	t.Run("set", func(t *testing.T) {
		svc, info := newTestService(t)
		for _, p := range oneSetPositions {
			if _, err := svc.Select(ctx, info.ID, p.Row, p.Col); err != nil {
				t.Fatalf("Select failed: %v", err)
			}
		}

		result, err := svc.TestSelected(ctx, info.ID)
		if err != nil {
			t.Fatalf("TestSelected failed: %v", err)
		}
		if !result.IsSet {
			t.Fatalf("Expected a set, got %s", result.Message)
		}
		if len(result.Cards) != 3 || len(result.Verdicts) != engine.NumAttributes {
			t.Errorf("Expected 3 cards and %d verdicts, got %d and %d", engine.NumAttributes, len(result.Cards), len(result.Verdicts))
		}
		if result.GameState.CardsOnBoard != 12 || result.GameState.CardsRemaining != 3 {
			t.Errorf("Expected cards replaced in place, got %d on board and %d left",
				result.GameState.CardsOnBoard, result.GameState.CardsRemaining)
		}
		if result.GameState.NumSelected != 0 {
			t.Errorf("Expected selection cleared, got %d", result.GameState.NumSelected)
		}
		if len(result.Events) == 0 || result.Events[0].Type != service.EventSetFound {
			t.Errorf("Expected a set_found event, got %v", result.Events)
		}
	})

	t.Run("not a set", func(t *testing.T) {
		svc, info := newTestService(t)
		for _, p := range []engine.Position{{Row: 0, Col: 0}, {Row: 0, Col: 1}, {Row: 1, Col: 1}} {
			if _, err := svc.Select(ctx, info.ID, p.Row, p.Col); err != nil {
				t.Fatalf("Select failed: %v", err)
			}
		}

		result, err := svc.TestSelected(ctx, info.ID)
		if err != nil {
			t.Fatalf("TestSelected failed: %v", err)
		}
		if result.IsSet {
			t.Fatal("Expected not a set")
		}
		if !strings.Contains(result.Message, "number is mixed") {
			t.Errorf("Expected message to explain the number mismatch, got %q", result.Message)
		}
		if result.GameState.CardsRemaining != len(spareCards) {
			t.Errorf("Expected deck untouched, got %d", result.GameState.CardsRemaining)
		}
	})

	t.Run("too few selected", func(t *testing.T) {
		svc, info := newTestService(t)
		if _, err := svc.Select(ctx, info.ID, 0, 0); err != nil {
			t.Fatalf("Select failed: %v", err)
		}
		if _, err := svc.TestSelected(ctx, info.ID); !errors.Is(err, engine.ErrInvalidSelectionSize) {
			t.Errorf("Expected ErrInvalidSelectionSize, got %v", err)
		}
		state, _ := svc.GetGameState(ctx, info.ID)
		if state.NumSelected != 1 {
			t.Errorf("Expected selection untouched, got %d", state.NumSelected)
		}
	})
}

func TestGameService_SubmitSet(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		positions []engine.Position
		wantErr   error
	}{
		{
			name:      "two positions",
			positions: oneSetPositions[:2],
			wantErr:   engine.ErrInvalidSelectionSize,
		},
		{
			name:      "duplicate position",
			positions: []engine.Position{{Row: 0, Col: 0}, {Row: 0, Col: 0}, {Row: 1, Col: 3}},
			wantErr:   engine.ErrInvalidSelectionSize,
		},
		{
			name:      "out of bounds",
			positions: []engine.Position{{Row: 0, Col: 0}, {Row: 1, Col: 1}, {Row: 3, Col: 0}},
			wantErr:   engine.ErrOutOfBounds,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, info := newTestService(t)
			if _, err := svc.Select(ctx, info.ID, 2, 3); err != nil {
				t.Fatalf("Select failed: %v", err)
			}

			if _, err := svc.SubmitSet(ctx, info.ID, tt.positions); !errors.Is(err, tt.wantErr) {
				t.Fatalf("Expected %v, got %v", tt.wantErr, err)
			}

			state, _ := svc.GetGameState(ctx, info.ID)
			if state.NumSelected != 1 || state.Selected[0] != (engine.Position{Row: 2, Col: 3}) {
				t.Errorf("Expected earlier selection untouched, got %v", state.Selected)
			}
		})
	}

	t.Run("valid set", func(t *testing.T) {
		svc, info := newTestService(t)
		if _, err := svc.Select(ctx, info.ID, 2, 3); err != nil {
			t.Fatalf("Select failed: %v", err)
		}

		result, err := svc.SubmitSet(ctx, info.ID, oneSetPositions)
		if err != nil {
			t.Fatalf("SubmitSet failed: %v", err)
		}
		if !result.IsSet {
			t.Errorf("Expected a set, got %s", result.Message)
		}
		for i, c := range result.Cards {
			if c.Position() != oneSetPositions[i] {
				t.Errorf("Card %d: expected %s, got %s", i, oneSetPositions[i], c.Position())
			}
		}
	})
}

func TestGameService_AddThree(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t, engine.WithMaxCards(15))

	result, err := svc.AddThree(ctx, info.ID)
	if err != nil {
		t.Fatalf("AddThree failed: %v", err)
	}
	if result.GameState.CardsOnBoard != 15 || result.GameState.Cols != 5 {
		t.Errorf("Expected a 3x5 board, got %dx%d", result.GameState.Rows, result.GameState.Cols)
	}
	if result.Events[0].Type != service.EventCardsAdded {
		t.Errorf("Expected cards_added event, got %v", result.Events)
	}

	if _, err := svc.AddThree(ctx, info.ID); !errors.Is(err, engine.ErrBoardFull) {
		t.Errorf("Expected ErrBoardFull, got %v", err)
	}
}

func TestGameService_AddThreeDrainsDeck(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	if _, err := svc.AddThree(ctx, info.ID); err != nil {
		t.Fatalf("AddThree failed: %v", err)
	}
	result, err := svc.AddThree(ctx, info.ID)
	if err != nil {
		t.Fatalf("AddThree failed: %v", err)
	}
	if !result.GameState.OutOfCards {
		t.Error("Expected deck to be empty")
	}
	last := result.Events[len(result.Events)-1]
	if last.Type != service.EventDeckEmpty {
		t.Errorf("Expected deck_empty event, got %v", result.Events)
	}

	if _, err := svc.AddThree(ctx, info.ID); !errors.Is(err, engine.ErrEmptyDeck) {
		t.Errorf("Expected ErrEmptyDeck, got %v", err)
	}
}

func TestGameService_FindSet(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	hint, err := svc.FindSet(ctx, info.ID)
	if err != nil {
		t.Fatalf("FindSet failed: %v", err)
	}
	if !hint.Found || hint.SetsCount != 1 {
		t.Fatalf("Expected exactly one set, got %+v", hint)
	}
	for i, c := range hint.Cells {
		if c.Position() != oneSetPositions[i] {
			t.Errorf("Hint cell %d: expected %s, got %s", i, oneSetPositions[i], c.Position())
		}
	}

	if _, err := svc.SubmitSet(ctx, info.ID, oneSetPositions); err != nil {
		t.Fatalf("SubmitSet failed: %v", err)
	}
	hint, err = svc.FindSet(ctx, info.ID)
	if err != nil {
		t.Fatalf("FindSet failed: %v", err)
	}
	if hint.Found {
		t.Errorf("Expected no set after replacing with spare cards, got %v", hint.Cells)
	}
	if !strings.Contains(hint.Message, "Add three") {
		t.Errorf("Expected advice to add cards, got %q", hint.Message)
	}
}

func TestGameService_NewGame(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	if _, err := svc.SubmitSet(ctx, info.ID, oneSetPositions); err != nil {
		t.Fatalf("SubmitSet failed: %v", err)
	}
	before, _ := svc.GetGameState(ctx, info.ID)

	result, err := svc.NewGame(ctx, info.ID)
	if err != nil {
		t.Fatalf("NewGame failed: %v", err)
	}
	if result.GameState.GameID == before.GameID {
		t.Error("Expected a new game ID")
	}
	if result.GameState.CardsRemaining != len(spareCards) {
		t.Errorf("Expected a fresh deck, got %d remaining", result.GameState.CardsRemaining)
	}

	session, _ := svc.GetSession(ctx, info.ID)
	if session.GamesStarted != 2 {
		t.Errorf("Expected 2 games started, got %d", session.GamesStarted)
	}
}

func TestGameService_GetHistory(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	// new_game, then four hints
	for i := 0; i < 4; i++ {
		if _, err := svc.FindSet(ctx, info.ID); err != nil {
			t.Fatalf("FindSet failed: %v", err)
		}
	}

	tests := []struct {
		name     string
		opts     service.HistoryOptions
		wantSeqs []int
		hasNext  bool
		hasPrev  bool
	}{
		{"defaults", service.HistoryOptions{}, []int{5, 4, 3, 2, 1}, false, false},
		{"first page desc", service.HistoryOptions{Page: 1, Limit: 2}, []int{5, 4}, true, false},
		{"second page asc", service.HistoryOptions{Page: 2, Limit: 2, Order: "asc"}, []int{3, 4}, true, true},
		{"last page asc", service.HistoryOptions{Page: 3, Limit: 2, Order: "asc"}, []int{5}, false, true},
		{"past the end", service.HistoryOptions{Page: 9, Limit: 2}, []int{}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := svc.GetHistory(ctx, info.ID, tt.opts)
			if err != nil {
				t.Fatalf("GetHistory failed: %v", err)
			}
			if resp.TotalEntries != 5 {
				t.Errorf("Expected 5 entries, got %d", resp.TotalEntries)
			}
			if len(resp.Entries) != len(tt.wantSeqs) {
				t.Fatalf("Expected %d entries, got %d", len(tt.wantSeqs), len(resp.Entries))
			}
			for i, seq := range tt.wantSeqs {
				if resp.Entries[i].Seq != seq {
					t.Errorf("Entry %d: expected seq %d, got %d", i, seq, resp.Entries[i].Seq)
				}
			}
			if resp.HasNext != tt.hasNext || resp.HasPrevious != tt.hasPrev {
				t.Errorf("Expected next=%v prev=%v, got next=%v prev=%v", tt.hasNext, tt.hasPrev, resp.HasNext, resp.HasPrevious)
			}
		})
	}

	resp, _ := svc.GetHistory(ctx, info.ID, service.HistoryOptions{Order: "asc"})
	if resp.Entries[0].Action != service.ActionNewGame || resp.Entries[1].Action != service.ActionHint {
		t.Errorf("Unexpected actions %s, %s", resp.Entries[0].Action, resp.Entries[1].Action)
	}
}

func TestGameService_HistoryRecordsTests(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	if _, err := svc.SubmitSet(ctx, info.ID, oneSetPositions); err != nil {
		t.Fatalf("SubmitSet failed: %v", err)
	}

	resp, err := svc.GetHistory(ctx, info.ID, service.HistoryOptions{Limit: 1})
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	entry := resp.Entries[0]
	if entry.Action != service.ActionTest || entry.IsSet == nil || !*entry.IsSet {
		t.Fatalf("Expected a successful test entry, got %+v", entry)
	}
	want := []string{"RSO1", "PSO1", "GSO1"}
	for i, code := range want {
		if entry.Cards[i] != code {
			t.Errorf("Card %d: expected %s, got %s", i, code, entry.Cards[i])
		}
	}
}

func TestGameService_DeleteSession(t *testing.T) {
	ctx := context.Background()
	svc, info := newTestService(t)

	if err := svc.DeleteSession(ctx, info.ID); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := svc.GetSession(ctx, info.ID); !errors.Is(err, service.ErrSessionNotFound) {
		t.Errorf("Expected ErrSessionNotFound after delete, got %v", err)
	}
}
