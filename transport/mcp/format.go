package mcp

import (
	"fmt"
	"strings"

	"github.com/wricardo/set-game/game/engine"
	"github.com/wricardo/set-game/game/service"
)

func formatSessionInfo(session *service.SessionInfo) string {
	s := fmt.Sprintf("%s: created %s, last used %s, games started %d",
		session.ID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.LastAccessedAt.Format("2006-01-02 15:04:05"),
		session.GamesStarted)
	if st := session.GameState; st != nil {
		s += fmt.Sprintf(", %d on board, %d in deck", st.CardsOnBoard, st.CardsRemaining)
		if st.GameOver {
			s += ", game over"
		}
	}
	return s
}

// formatGameState renders the board as a grid of card codes. Selected
// cards are wrapped in brackets.
func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "Game state unavailable"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Board %dx%d | %d cards on board | %d left in deck | %d set(s) on board\n\n",
		state.Rows, state.Cols, state.CardsOnBoard, state.CardsRemaining, state.SetsOnBoard)

	b.WriteString("     ")
	for col := 0; col < state.Cols; col++ {
		fmt.Fprintf(&b, "  %-5d", col)
	}
	b.WriteString("\n")

	for row := 0; row < state.Rows; row++ {
		fmt.Fprintf(&b, "%3d  ", row)
		for col := 0; col < state.Cols; col++ {
			cell, ok := state.CellAt(row, col)
			switch {
			case !ok:
				b.WriteString("  .... ")
			case cell.Selected:
				fmt.Fprintf(&b, " [%s]", cell.Card.Code())
			default:
				fmt.Fprintf(&b, "  %s ", cell.Card.Code())
			}
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "\nSelected: %d/%d", state.NumSelected, engine.SelectionSize)
	if len(state.Selected) > 0 {
		positions := make([]string, len(state.Selected))
		for i, p := range state.Selected {
			positions[i] = p.String()
		}
		b.WriteString(" " + strings.Join(positions, " "))
	}
	b.WriteString("\n")

	switch {
	case state.GameOver:
		b.WriteString("GAME OVER: the deck is empty and no set is left\n")
	case state.SetsOnBoard == 0 && !state.OutOfCards:
		b.WriteString("No set on the board, use add_three\n")
	}
	return b.String()
}

func formatTestResult(result *service.TestResult) string {
	var b strings.Builder
	if result.IsSet {
		b.WriteString("✓ ")
	} else {
		b.WriteString("✗ ")
	}
	b.WriteString(result.Message + "\n")

	for _, cell := range result.Cards {
		fmt.Fprintf(&b, "  (%d,%d) %s  %s\n", cell.Row, cell.Col, cell.Card.Code(), cell.Card.Describe())
	}
	if len(result.Verdicts) > 0 {
		b.WriteString(formatVerdicts(result.Verdicts))
	}
	for _, e := range result.Events {
		if e.Type == service.EventDeckEmpty || e.Type == service.EventGameOver {
			b.WriteString("! " + e.Message + "\n")
		}
	}

	b.WriteString("\n" + formatGameState(result.GameState))
	return b.String()
}

func formatVerdicts(verdicts []engine.AttributeVerdict) string {
	var b strings.Builder
	for _, v := range verdicts {
		mark := "ok"
		if !v.OK() {
			mark = "BREAKS THE RULE"
		}
		fmt.Fprintf(&b, "  %-8s %-9s (%s) %s\n", v.Attribute, v.Pattern, strings.Join(v.Values, ", "), mark)
	}
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Action History (Page %d/%d), %d total\n\n",
		history.Page, history.TotalPages, history.TotalEntries)

	for _, entry := range history.Entries {
		fmt.Fprintf(&b, "#%d game %d %s", entry.Seq, entry.Game, entry.Action)
		if len(entry.Cards) > 0 {
			b.WriteString(" " + strings.Join(entry.Cards, " "))
		}
		if entry.IsSet != nil {
			if *entry.IsSet {
				b.WriteString(" ✓")
			} else {
				b.WriteString(" ✗")
			}
		}
		fmt.Fprintf(&b, " [board %d, deck %d]\n", entry.CardsOnBoard, entry.CardsRemaining)
	}
	return b.String()
}

const instructions = `Set Card Game - Complete Instructions

GAME OBJECTIVE:
Find as many sets as you can. The game ends when the deck is empty and the
board holds no set.

THE CARDS:
There are 81 cards. Each card has four attributes, each with three values:
  color:   red, purple, green
  shading: solid, striped, outlined
  shape:   oval, squiggle, diamond
  number:  one, two, three

CARD CODES:
Cards are written as four characters: color, shading, shape, number.
  color:   R=red  P=purple  G=green
  shading: S=solid  T=striped  O=outlined
  shape:   O=oval  S=squiggle  D=diamond
  number:  1  2  3
Example: GTD2 is two striped green diamonds.

WHAT IS A SET:
Three cards form a set when, for EACH attribute on its own, the three cards
are either all the same or all different. If two cards share a value and the
third does not, it is not a set.
  RSO1 PSO2 GSO3  set: colors differ, shading same, shape same, numbers differ
  RSO1 RSO2 PSO3  not a set: two red and one purple

Any two cards complete to exactly one third card.

THE BOARD:
The board has 3 rows and starts with 4 columns (12 cards). Positions are
(row,col) counted from 0.

PLAYING:
  select_card / deselect_card   build a selection of three cards
  test_selection                test it
  submit_set                    or test three cards in one call
A set is removed. With a 12 card board the cards are replaced where they
were. A smaller board is tightened up and gets a new column. A larger board,
or an empty deck, just closes the gaps. A selection that is not a set is
cleared and the board stays as it was.

STUCK?
  add_three   adds a column of three cards, up to the board limit
  find_set    reveals one set

STRATEGY:
- Pick two cards and work out the unique third card, then look for it.
- Scan one attribute at a time: a board with only two colors cannot hold a
  set with all different colors.
- Before asking for more cards, check game_state: "sets on board" tells you
  whether a set exists.

Have fun!`
