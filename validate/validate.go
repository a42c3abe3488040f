// Command validate checks board layout files and card triples.
//
// A layout file is JSON listing the cards of a board row by row:
//
//	{"name": "no set", "rows": [["RSO1", "RSO2"], ...], "expect_sets": 0}
//
// Each layout is checked for:
//   - JSON structure and a non-empty board of three equal rows
//   - valid card codes with no card used twice
//   - the number of sets on the board, compared with expect_sets when given
//
// The check subcommand explains, attribute by attribute, whether three card
// codes form a set.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/set-game/game/engine"
)

const boardRows = 3

var (
	errInvalidLayout = errors.New("invalid layout")
	errNotASet       = errors.New("not a set")
)

// Layout mirrors the JSON schema of a layout file.
type Layout struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Rows        [][]string `json:"rows"`
	ExpectSets  *int       `json:"expect_sets,omitempty"`
}

// ValidationResult captures the outcome of validating a single file.
// Info holds the report lines of a valid layout; Errors the problems found
// in an invalid one.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...any) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateLayout loads and validates a single layout file.
func validateLayout(filePath string) ValidationResult {
	result := ValidationResult{File: filepath.Base(filePath), Valid: true}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	var layout Layout
	if err := json.Unmarshal(data, &layout); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	cards := checkGrid(&result, layout.Rows)
	if !result.Valid {
		return result
	}

	sets := boardSets(cards)
	if layout.ExpectSets != nil && *layout.ExpectSets != len(sets) {
		result.fail("Expected %d set(s), found %d", *layout.ExpectSets, len(sets))
		return result
	}

	if layout.Name != "" {
		result.Info = append(result.Info, "✓ Name: "+layout.Name)
	}
	result.Info = append(result.Info,
		fmt.Sprintf("✓ Board: %dx%d, %d cards", len(layout.Rows), len(layout.Rows[0]), len(cards)),
		fmt.Sprintf("✓ Sets on board: %d", len(sets)))
	for _, set := range sets {
		result.Info = append(result.Info, "    "+strings.Join(set, " "))
	}
	return result
}

// checkGrid validates the shape and card codes of a layout and returns its
// cards in row-major order.
func checkGrid(result *ValidationResult, rows [][]string) []engine.Card {
	if len(rows) == 0 {
		result.fail("Layout is empty")
		return nil
	}
	if len(rows) != boardRows {
		result.fail("Board must have %d rows, got %d", boardRows, len(rows))
	}

	width := len(rows[0])
	if width == 0 {
		result.fail("Row 1 is empty")
	}

	var cards []engine.Card
	seen := make(map[engine.Card]string)
	for i, row := range rows {
		if len(row) != width {
			result.fail("Inconsistent row length at row %d: expected %d, got %d", i+1, width, len(row))
		}
		for j, code := range row {
			card, err := engine.ParseCard(code)
			if err != nil {
				result.fail("Invalid card %q at position [%d,%d]: %v", code, i, j, err)
				continue
			}
			pos := fmt.Sprintf("[%d,%d]", i, j)
			if prev, ok := seen[card]; ok {
				result.fail("Card %s at %s already used at %s", card.Code(), pos, prev)
				continue
			}
			seen[card] = pos
			cards = append(cards, card)
		}
	}
	return cards
}

// boardSets lists every set among cards as card codes.
func boardSets(cards []engine.Card) [][]string {
	var sets [][]string
	for i := 0; i < len(cards); i++ {
		for j := i + 1; j < len(cards); j++ {
			for k := j + 1; k < len(cards); k++ {
				if engine.IsSet(cards[i], cards[j], cards[k]) {
					sets = append(sets, []string{cards[i].Code(), cards[j].Code(), cards[k].Code()})
				}
			}
		}
	}
	return sets
}

// checkTriple parses three card codes and reports whether they form a set.
func checkTriple(codes []string) (bool, []engine.AttributeVerdict, error) {
	if len(codes) != engine.SelectionSize {
		return false, nil, fmt.Errorf("need %d card codes, got %d", engine.SelectionSize, len(codes))
	}
	var cards [engine.SelectionSize]engine.Card
	for i, code := range codes {
		card, err := engine.ParseCard(code)
		if err != nil {
			return false, nil, err
		}
		cards[i] = card
	}
	if cards[0] == cards[1] || cards[0] == cards[2] || cards[1] == cards[2] {
		return false, nil, errors.New("the three cards must be different")
	}
	return engine.IsSet(cards[0], cards[1], cards[2]), engine.Explain(cards[0], cards[1], cards[2]), nil
}

// layoutFiles expands the arguments into layout files: directories
// contribute their *.json files.
func layoutFiles(args []string) ([]string, error) {
	var files []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, arg)
			continue
		}
		matches, err := filepath.Glob(filepath.Join(arg, "*.json"))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	return files, nil
}

func printResult(w io.Writer, result ValidationResult) {
	fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)
	if result.Valid {
		fmt.Fprintln(w, "✅ VALID")
		for _, info := range result.Info {
			fmt.Fprintln(w, "  "+info)
		}
		return
	}
	fmt.Fprintln(w, "❌ INVALID")
	for _, err := range result.Errors {
		fmt.Fprintln(w, "  ❌ "+err)
	}
}

func newCommand() *cli.Command {
	return &cli.Command{
		Name:      "validate",
		Usage:     "Validate board layout files",
		ArgsUsage: "[file or directory ...]",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			args := cmd.Args().Slice()
			if len(args) == 0 {
				args = []string{"layouts"}
			}
			files, err := layoutFiles(args)
			if err != nil {
				return err
			}
			if len(files) == 0 {
				return errors.New("no layout files found")
			}

			out := cmd.Root().Writer
			invalid := 0
			for _, file := range files {
				result := validateLayout(file)
				printResult(out, result)
				if !result.Valid {
					invalid++
				}
			}

			fmt.Fprintf(out, "\n%s\n", strings.Repeat("=", 40))
			if invalid > 0 {
				fmt.Fprintln(out, "❌ Some layouts have errors")
				return fmt.Errorf("%d of %d layouts: %w", invalid, len(files), errInvalidLayout)
			}
			fmt.Fprintln(out, "✅ All layouts are valid!")
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:      "check",
				Usage:     "Explain whether three cards form a set",
				ArgsUsage: "CODE CODE CODE",
				Action: func(ctx context.Context, cmd *cli.Command) error {
					isSet, verdicts, err := checkTriple(cmd.Args().Slice())
					if err != nil {
						return err
					}
					out := cmd.Root().Writer
					for _, v := range verdicts {
						mark := "✓"
						if !v.OK() {
							mark = "✗"
						}
						fmt.Fprintf(out, "%s %-8s %-9s %s\n", mark, v.Attribute, v.Pattern, strings.Join(v.Values, ", "))
					}
					if !isSet {
						fmt.Fprintln(out, "❌ Not a set")
						return errNotASet
					}
					fmt.Fprintln(out, "✅ Set")
					return nil
				},
			},
		},
	}
}

// main validates the layouts named on the command line, or ./layouts, and
// exits with non-zero status if any are invalid.
func main() {
	if err := newCommand().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
