package terminal

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/wsxiaoys/terminal/color"

	"github.com/wricardo/set-game/game/engine"
	"github.com/wricardo/set-game/game/service"
)

const labels = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"

var (
	colorTags = [engine.NumAttributeValues]string{"@r", "@m", "@g"}
	// symbols[shape][shading]
	symbols = [engine.NumAttributeValues][engine.NumAttributeValues]string{
		{"●", "◉", "○"},
		{"■", "▣", "□"},
		{"◆", "◈", "◇"},
	}
)

// Player runs an interactive game against a GameService.
type Player struct {
	svc       service.GameService
	in        *bufio.Scanner
	out       io.Writer
	colors    bool
	sessionID string
}

// Option configures a Player.
type Option func(*Player)

// WithColor switches ANSI colors on or off. Colors are on by default.
func WithColor(on bool) Option {
	return func(p *Player) { p.colors = on }
}

// NewPlayer creates a Player reading commands from in and drawing to out.
func NewPlayer(svc service.GameService, in io.Reader, out io.Writer, opts ...Option) *Player {
	p := &Player{
		svc:    svc,
		in:     bufio.NewScanner(in),
		out:    out,
		colors: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// SessionID returns the session the player is using, once Run has started.
func (p *Player) SessionID() string {
	return p.sessionID
}

// Run creates a session and plays until the input ends, the player quits or
// ctx is cancelled. The session is deleted on return.
func (p *Player) Run(ctx context.Context) error {
	info, err := p.svc.CreateSession(ctx)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	p.sessionID = info.ID
	defer p.svc.DeleteSession(context.Background(), p.sessionID)

	p.printHelp()
	state := info.GameState
	for {
		p.printBoard(state)
		fmt.Fprint(p.out, "\n> ")

		if !p.in.Scan() {
			fmt.Fprintln(p.out)
			return p.in.Err()
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		next, quit, err := p.handle(ctx, strings.TrimSpace(p.in.Text()), state)
		if err != nil {
			return err
		}
		if quit {
			fmt.Fprintln(p.out, "Bye.")
			return nil
		}
		if next != nil {
			state = next
		}
	}
}

// handle executes one command line. A nil state means the board did not
// change.
func (p *Player) handle(ctx context.Context, line string, state *engine.GameState) (*engine.GameState, bool, error) {
	switch line {
	case "":
		return nil, false, nil
	case "q", "quit", "exit":
		return nil, true, nil
	case "h", "help":
		p.printHelp()
		return nil, false, nil
	case "n", "new":
		result, err := p.svc.NewGame(ctx, p.sessionID)
		if err != nil {
			return nil, false, err
		}
		fmt.Fprintln(p.out, result.Message)
		return result.GameState, false, nil
	case "+", "add":
		result, err := p.svc.AddThree(ctx, p.sessionID)
		switch {
		case errors.Is(err, engine.ErrBoardFull):
			fmt.Fprintln(p.out, "The board is full. There is a set somewhere, keep looking or type ? for a hint.")
			return nil, false, nil
		case errors.Is(err, engine.ErrEmptyDeck):
			fmt.Fprintln(p.out, "The deck is empty.")
			return nil, false, nil
		case err != nil:
			return nil, false, err
		}
		return result.GameState, false, nil
	case "?", "hint":
		result, err := p.svc.FindSet(ctx, p.sessionID)
		if err != nil {
			return nil, false, err
		}
		if !result.Found {
			fmt.Fprintln(p.out, result.Message)
			return nil, false, nil
		}
		names := make([]string, len(result.Cells))
		for i, c := range result.Cells {
			names[i] = label(c.Row*state.Cols + c.Col)
		}
		fmt.Fprintf(p.out, "Try %s.\n", strings.Join(names, " "))
		return nil, false, nil
	}

	positions, err := parseCandidate(line, state)
	if err != nil {
		fmt.Fprintf(p.out, "%v. Type h for help.\n", err)
		return nil, false, nil
	}

	result, err := p.svc.SubmitSet(ctx, p.sessionID, positions)
	if err != nil {
		if errors.Is(err, engine.ErrOutOfBounds) || errors.Is(err, engine.ErrInvalidSelectionSize) {
			fmt.Fprintf(p.out, "%v\n", err)
			return nil, false, nil
		}
		return nil, false, err
	}

	cards := make([]string, len(result.Cards))
	for i, c := range result.Cards {
		cards[i] = p.renderCard(c.Card)
	}
	if result.IsSet {
		p.printf("@g✔@| %s @g✔@|\n", strings.Join(cards, " "))
	} else {
		p.printf("@r✘@| %s @r✘@|\n", strings.Join(cards, " "))
		fmt.Fprintln(p.out, result.Message)
	}
	return result.GameState, false, nil
}

// parseCandidate reads three cell labels, either run together ("adg") or
// separated by spaces.
func parseCandidate(line string, state *engine.GameState) ([]engine.Position, error) {
	tokens := strings.Fields(line)
	if len(tokens) == 1 && len(tokens[0]) == engine.SelectionSize {
		tokens = strings.Split(tokens[0], "")
	}
	if len(tokens) != engine.SelectionSize {
		return nil, fmt.Errorf("name %d cards", engine.SelectionSize)
	}

	positions := make([]engine.Position, len(tokens))
	for i, tok := range tokens {
		idx, ok := parseLabel(tok)
		if !ok || idx >= state.CardsOnBoard {
			return nil, fmt.Errorf("no card %q", tok)
		}
		positions[i] = engine.Position{Row: idx / state.Cols, Col: idx % state.Cols}
	}
	return positions, nil
}

// label names the cell at a row-major index. Boards past 52 cards fall back
// to numbers.
func label(i int) string {
	if i < len(labels) {
		return string(labels[i])
	}
	return strconv.Itoa(i)
}

func parseLabel(s string) (int, bool) {
	if len(s) == 1 {
		if i := strings.Index(labels, s); i >= 0 {
			return i, true
		}
	}
	if n, err := strconv.Atoi(s); err == nil && n >= len(labels) {
		return n, true
	}
	return 0, false
}

func (p *Player) renderCard(c engine.Card) string {
	if !p.colors {
		return "[" + c.Code() + "]"
	}
	n := int(c.Number)
	shape := strings.Repeat(" "+symbols[c.Shape][c.Shading], n+1)
	pad := strings.Repeat(" ", 2-n)
	return color.Sprint("[" + pad + colorTags[c.Color] + shape + pad + "@| ]")
}

func (p *Player) printBoard(state *engine.GameState) {
	fmt.Fprintln(p.out)
	for row := 0; row < state.Rows; row++ {
		for col := 0; col < state.Cols; col++ {
			cell, ok := state.CellAt(row, col)
			if !ok {
				continue
			}
			if col > 0 {
				fmt.Fprint(p.out, "  ")
			}
			fmt.Fprintf(p.out, "%2s.%s", label(row*state.Cols+col), p.renderCard(cell.Card))
		}
		fmt.Fprintln(p.out)
	}
	fmt.Fprintf(p.out, "\n%d cards in the deck, %d set(s) on the board.\n", state.CardsRemaining, state.SetsOnBoard)
	switch {
	case state.GameOver:
		fmt.Fprintln(p.out, "No more sets. Game over. Type n for a new game or q to quit.")
	case state.SetsOnBoard == 0:
		fmt.Fprintln(p.out, "No set here. Type + for three more cards.")
	}
}

func (p *Player) printHelp() {
	fmt.Fprint(p.out, `Find three cards where each attribute is all the same or all different.
  adg     test the cards labelled a, d and g
  +       add three cards
  ?       hint
  n       new game
  q       quit
`)
}

// printf writes a message with color tags, or with the tags stripped.
func (p *Player) printf(format string, args ...interface{}) {
	if p.colors {
		color.Fprintf(p.out, format, args...)
		return
	}
	fmt.Fprintf(p.out, stripTags(format), args...)
}

func stripTags(s string) string {
	for _, tag := range []string{"@r", "@g", "@|"} {
		s = strings.ReplaceAll(s, tag, "")
	}
	return s
}
