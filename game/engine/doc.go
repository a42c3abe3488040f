// Package engine implements the rules of the card game Set.
//
// The engine package provides:
//   - Card values over four three-valued attributes and the set predicate
//   - A shuffled 81 card deck
//   - A three row board that grows by a column and compacts after a match
//   - The selection protocol, replenishment policy and set search
//
// Core Types:
//
// Card is an immutable value. Deck deals cards from its top. Board keeps the
// face-up cards in a dense row-major slice with three rows, so a cell's
// row and column are always derived from its place in that slice. Game owns
// one Deck, one Board and the set of selected positions.
//
// Usage:
//
//	game, err := engine.NewGame(engine.WithMaxCards(18))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	game.AddToSelected(0, 0)
//	game.AddToSelected(1, 2)
//	game.AddToSelected(2, 3)
//	if game.NumSelected() == 3 {
//		isSet, err := game.TestSelected()
//		...
//	}
//
//	if cells, ok := game.FindSet(); ok {
//		fmt.Println(cells[0].Card, cells[1].Card, cells[2].Card)
//	}
//
// Selection Protocol:
//
// AddToSelected only records a position. The caller decides when to call
// TestSelected, normally as soon as NumSelected reports three. TestSelected
// always clears the selection. When the three cards form a set the board is
// replenished toward twelve cards, or compacted once the deck runs dry.
//
// Errors:
//
// ErrEmptyDeck, ErrOutOfBounds, ErrInvalidSelectionSize and ErrBoardFull
// report caller mistakes. A failing operation leaves the game unchanged.
// Any Cell held across Add3 or a successful TestSelected must be fetched
// again by position.
package engine
