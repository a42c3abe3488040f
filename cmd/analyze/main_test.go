package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"
)

func TestSimulate_AccountsForEveryCard(t *testing.T) {
	for seed := int64(1); seed <= 20; seed++ {
		stats, err := simulate(seed, 0)
		if err != nil {
			t.Fatalf("seed %d: simulate failed: %v", seed, err)
		}
		if got := stats.SetsFound*3 + stats.CardsLeft; got != 81 {
			t.Errorf("seed %d: %d sets and %d cards left account for %d cards, expected 81",
				seed, stats.SetsFound, stats.CardsLeft, got)
		}
		if stats.Stuck {
			t.Errorf("seed %d: an uncapped game should never get stuck", seed)
		}
		if stats.MaxBoard < 12 || stats.MaxBoard > 21 {
			t.Errorf("seed %d: largest board %d out of range", seed, stats.MaxBoard)
		}
		if stats.CardsLeft > 20 {
			t.Errorf("seed %d: %d cards left, a board with 21 cards always holds a set", seed, stats.CardsLeft)
		}
	}
}

func TestSimulate_SeedIsReproducible(t *testing.T) {
	a, err := simulate(42, 0)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	b, err := simulate(42, 0)
	if err != nil {
		t.Fatalf("simulate failed: %v", err)
	}
	if a != b {
		t.Errorf("Same seed gave different games: %+v vs %+v", a, b)
	}
}

func TestSimulate_BoardLimit(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		stats, err := simulate(seed, 12)
		if err != nil {
			t.Fatalf("seed %d: simulate failed: %v", seed, err)
		}
		if stats.MaxBoard != 12 {
			t.Errorf("seed %d: board grew to %d past the limit", seed, stats.MaxBoard)
		}
		if stats.Add3Calls != 0 {
			t.Errorf("seed %d: expected no add3 at the limit, got %d", seed, stats.Add3Calls)
		}
	}
}

func TestSummary_Add(t *testing.T) {
	var s Summary
	s.add(GameStats{SetsFound: 27, MaxBoard: 15, CardsLeft: 0, Add3Calls: 1, NoSetBoards: 1})
	s.add(GameStats{SetsFound: 24, MaxBoard: 12, CardsLeft: 9, Stuck: true, NoSetBoards: 1})

	if s.Games != 2 || s.TotalSets != 51 || s.TotalAdd3 != 1 {
		t.Errorf("Unexpected totals %+v", s)
	}
	if s.MaxBoard != 15 || s.MaxCardsLeft != 9 {
		t.Errorf("Unexpected maxima %+v", s)
	}
	if s.Cleared != 1 || s.Stuck != 1 || s.NoSetBoards != 2 {
		t.Errorf("Unexpected counts %+v", s)
	}
}

func TestCommand_Run(t *testing.T) {
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out

	if err := cmd.Run(context.Background(), []string{"analyze", "-n", "3", "--seed", "7", "-v"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	got := out.String()
	if !strings.Contains(got, "=== 3 games ===") {
		t.Errorf("Expected summary header, got:\n%s", got)
	}
	for _, seed := range []string{"seed 7:", "seed 8:", "seed 9:"} {
		if !strings.Contains(got, seed) {
			t.Errorf("Expected a line for %q, got:\n%s", seed, got)
		}
	}
	if strings.Contains(got, "board limit") {
		t.Errorf("Uncapped games should not report the board limit:\n%s", got)
	}
}

func TestCommand_RunAtLimit(t *testing.T) {
	var out bytes.Buffer
	cmd := newCommand()
	cmd.Writer = &out

	if err := cmd.Run(context.Background(), []string{"analyze", "-n", "50", "--max-cards", "12"}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !strings.Contains(out.String(), "Largest board: 12") {
		t.Errorf("Expected the board to stay at 12, got:\n%s", out.String())
	}
}

func TestCommand_InvalidFlags(t *testing.T) {
	tests := [][]string{
		{"analyze", "-n", "0"},
		{"analyze", "--max-cards", "-3"},
	}

	for _, args := range tests {
		cmd := newCommand()
		cmd.Writer = io.Discard
		cmd.ErrWriter = io.Discard
		if err := cmd.Run(context.Background(), args); err == nil {
			t.Errorf("%v: expected an error", args)
		}
	}
}

func TestCommand_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cmd := newCommand()
	cmd.Writer = io.Discard
	if err := cmd.Run(ctx, []string{"analyze", "-n", "2"}); err == nil {
		t.Error("Expected an error for a cancelled context")
	}
}
