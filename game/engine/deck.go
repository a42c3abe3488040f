package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"math/rand"
	"time"
)

// Deck is an ordered pile of cards. The top of the deck is the end of the
// slice.
type Deck struct {
	cards []Card
}

// NewDeck returns all 81 cards in a uniformly shuffled order. A nil rng is
// replaced by a freshly seeded source.
func NewDeck(rng *rand.Rand) *Deck {
	if rng == nil {
		rng = newSeededRand()
	}

	cards := AllCards()
	rng.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})

	return &Deck{cards: cards}
}

// NewOrderedDeck returns a deck holding a copy of cards in the given order;
// the last card is drawn first.
func NewOrderedDeck(cards []Card) *Deck {
	d := &Deck{cards: make([]Card, len(cards))}
	copy(d.cards, cards)
	return d
}

// Draw removes and returns the top card.
func (d *Deck) Draw() (Card, error) {
	if len(d.cards) == 0 {
		return Card{}, ErrEmptyDeck
	}
	top := d.cards[len(d.cards)-1]
	d.cards = d.cards[:len(d.cards)-1]
	return top, nil
}

// Remaining returns the number of cards left in the deck.
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// IsEmpty reports whether the deck is exhausted.
func (d *Deck) IsEmpty() bool {
	return len(d.cards) == 0
}

// newSeededRand returns a math/rand source seeded from crypto/rand, falling
// back to the clock if the system source fails.
func newSeededRand() *rand.Rand {
	var b [8]byte
	seed := time.Now().UnixNano()
	if _, err := crand.Read(b[:]); err == nil {
		seed = int64(binary.LittleEndian.Uint64(b[:]))
	}
	return rand.New(rand.NewSource(seed))
}
