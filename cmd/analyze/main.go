// Command analyze plays seeded Set games to completion with the engine's own
// set finder and prints quick, human-readable statistics: how many sets were
// taken, how often the board had to grow, the largest board seen and how
// many cards were stranded when the game ended.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/set-game/game/engine"
)

// GameStats summarizes one simulated game.
type GameStats struct {
	Seed        int64
	SetsFound   int
	Add3Calls   int
	MaxBoard    int
	CardsLeft   int
	Stuck       bool
	NoSetBoards int
	OpeningSets int
}

// Summary aggregates a batch of simulated games.
type Summary struct {
	Games        int
	TotalSets    int
	TotalAdd3    int
	MaxBoard     int
	MaxCardsLeft int
	Cleared      int
	Stuck        int
	NoSetBoards  int
}

func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:  "analyze",
		Usage: "Play seeded Set games automatically and report statistics",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "games", Aliases: []string{"n"}, Value: 100, Usage: "Number of games to play"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Seed of the first game; game i uses seed+i"},
			&cli.IntFlag{Name: "max-cards", Value: 0, Usage: "Board limit for add three, 0 for no limit"},
			&cli.BoolFlag{Name: "verbose", Aliases: []string{"v"}, Usage: "Print one line per game"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			games := cmd.Int("games")
			if games <= 0 {
				return fmt.Errorf("games must be positive, got %d", games)
			}
			maxCards := cmd.Int("max-cards")
			if maxCards < 0 {
				return fmt.Errorf("max-cards must not be negative, got %d", maxCards)
			}

			out := cmd.Root().Writer
			var sum Summary
			seed := cmd.Int64("seed")
			for i := 0; i < games; i++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				stats, err := simulate(seed+int64(i), maxCards)
				if err != nil {
					return fmt.Errorf("game with seed %d: %w", seed+int64(i), err)
				}
				if cmd.Bool("verbose") {
					printGame(out, stats)
				}
				sum.add(stats)
			}
			printSummary(out, sum)
			return nil
		},
	}
}

// simulate plays one game: take the first set on the board while there is
// one, otherwise deal three more cards, until the game is over or the board
// limit stops it.
func simulate(seed int64, maxCards int) (GameStats, error) {
	stats := GameStats{Seed: seed}
	game, err := engine.NewGame(
		engine.WithRand(rand.New(rand.NewSource(seed))),
		engine.WithMaxCards(maxCards),
	)
	if err != nil {
		return stats, err
	}
	stats.OpeningSets = game.CountSets()
	stats.MaxBoard = game.NumCardsOnBoard()

	for !game.IsOver() {
		cells, ok := game.FindSet()
		if !ok {
			stats.NoSetBoards++
			if err := game.Add3(); err != nil {
				if errors.Is(err, engine.ErrBoardFull) {
					stats.Stuck = true
					break
				}
				return stats, err
			}
			stats.Add3Calls++
		} else {
			for _, c := range cells {
				if err := game.AddToSelected(c.Row, c.Col); err != nil {
					return stats, err
				}
			}
			isSet, err := game.TestSelected()
			if err != nil {
				return stats, err
			}
			if !isSet {
				return stats, fmt.Errorf("found cells %v are not a set", cells)
			}
			stats.SetsFound++
		}
		if n := game.NumCardsOnBoard(); n > stats.MaxBoard {
			stats.MaxBoard = n
		}
	}

	stats.CardsLeft = game.NumCardsOnBoard() + game.CardsRemaining()
	return stats, nil
}

func (s *Summary) add(g GameStats) {
	s.Games++
	s.TotalSets += g.SetsFound
	s.TotalAdd3 += g.Add3Calls
	s.NoSetBoards += g.NoSetBoards
	if g.MaxBoard > s.MaxBoard {
		s.MaxBoard = g.MaxBoard
	}
	if g.CardsLeft > s.MaxCardsLeft {
		s.MaxCardsLeft = g.CardsLeft
	}
	if g.CardsLeft == 0 {
		s.Cleared++
	}
	if g.Stuck {
		s.Stuck++
	}
}

func printGame(w io.Writer, g GameStats) {
	status := "over"
	if g.Stuck {
		status = "stuck at limit"
	}
	fmt.Fprintf(w, "seed %d: %d sets on the opening board, %d sets taken, %d add3, largest board %d, %d cards left (%s)\n",
		g.Seed, g.OpeningSets, g.SetsFound, g.Add3Calls, g.MaxBoard, g.CardsLeft, status)
}

func printSummary(w io.Writer, s Summary) {
	fmt.Fprintf(w, "\n=== %d games ===\n", s.Games)
	fmt.Fprintf(w, "Average sets per game: %.2f\n", float64(s.TotalSets)/float64(s.Games))
	fmt.Fprintf(w, "Average add3 per game: %.2f\n", float64(s.TotalAdd3)/float64(s.Games))
	fmt.Fprintf(w, "Boards without a set: %d\n", s.NoSetBoards)
	fmt.Fprintf(w, "Largest board: %d\n", s.MaxBoard)
	fmt.Fprintf(w, "Most cards left at the end: %d\n", s.MaxCardsLeft)
	fmt.Fprintf(w, "Games cleared completely: %d\n", s.Cleared)
	if s.Stuck > 0 {
		fmt.Fprintf(w, "⚠️  %d games stopped at the board limit\n", s.Stuck)
	}
}
