package engine

import "errors"

var (
	ErrEmptyDeck            = errors.New("deck is empty")
	ErrOutOfBounds          = errors.New("position out of bounds")
	ErrInvalidSelectionSize = errors.New("invalid selection size")
	ErrBoardFull            = errors.New("board is full")
	ErrUnevenBoard          = errors.New("board cells not divisible into rows")
)
