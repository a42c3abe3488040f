package engine

import (
	"fmt"
	"strings"
)

const (
	// NumAttributes is the number of independent attributes on a card.
	NumAttributes = 4
	// NumAttributeValues is the number of values each attribute can take.
	NumAttributeValues = 3
	// DeckSize is the number of distinct cards, NumAttributeValues^NumAttributes.
	DeckSize = 81
)

// Color is the color of the symbols on a card
type Color uint8

const (
	Red Color = iota
	Purple
	Green
)

// Shading is the fill of the symbols on a card
type Shading uint8

const (
	Solid Shading = iota
	Striped
	Outlined
)

// Shape is the symbol drawn on a card
type Shape uint8

const (
	Oval Shape = iota
	Squiggle
	Diamond
)

// Number is how many symbols a card shows
type Number uint8

const (
	One Number = iota
	Two
	Three
)

var (
	colorNames   = [NumAttributeValues]string{"red", "purple", "green"}
	shadingNames = [NumAttributeValues]string{"solid", "striped", "outlined"}
	shapeNames   = [NumAttributeValues]string{"oval", "squiggle", "diamond"}
	numberNames  = [NumAttributeValues]string{"one", "two", "three"}

	colorCodes   = [NumAttributeValues]byte{'R', 'P', 'G'}
	shadingCodes = [NumAttributeValues]byte{'S', 'T', 'O'}
	shapeCodes   = [NumAttributeValues]byte{'O', 'S', 'D'}
	numberCodes  = [NumAttributeValues]byte{'1', '2', '3'}
)

func (c Color) String() string   { return attrName(colorNames, uint8(c)) }
func (s Shading) String() string { return attrName(shadingNames, uint8(s)) }
func (s Shape) String() string   { return attrName(shapeNames, uint8(s)) }
func (n Number) String() string  { return attrName(numberNames, uint8(n)) }

func (c Color) MarshalText() ([]byte, error)   { return []byte(c.String()), nil }
func (s Shading) MarshalText() ([]byte, error) { return []byte(s.String()), nil }
func (s Shape) MarshalText() ([]byte, error)   { return []byte(s.String()), nil }
func (n Number) MarshalText() ([]byte, error)  { return []byte(n.String()), nil }

func (c *Color) UnmarshalText(text []byte) error {
	v, err := parseAttrName("color", colorNames, string(text))
	*c = Color(v)
	return err
}

func (s *Shading) UnmarshalText(text []byte) error {
	v, err := parseAttrName("shading", shadingNames, string(text))
	*s = Shading(v)
	return err
}

func (s *Shape) UnmarshalText(text []byte) error {
	v, err := parseAttrName("shape", shapeNames, string(text))
	*s = Shape(v)
	return err
}

func (n *Number) UnmarshalText(text []byte) error {
	v, err := parseAttrName("number", numberNames, string(text))
	*n = Number(v)
	return err
}

func attrName(names [NumAttributeValues]string, v uint8) string {
	if int(v) >= len(names) {
		return fmt.Sprintf("invalid(%d)", v)
	}
	return names[v]
}

func parseAttrName(attr string, names [NumAttributeValues]string, s string) (uint8, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range names {
		if name == s {
			return uint8(i), nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", attr, s)
}

// Card is an immutable Set card. Two cards are equal when all four
// attributes are equal.
type Card struct {
	Color   Color   `json:"color"`
	Shading Shading `json:"shading"`
	Shape   Shape   `json:"shape"`
	Number  Number  `json:"number"`
}

// attributes returns the card's attribute values in a fixed order:
// color, shading, shape, number.
func (c Card) attributes() [NumAttributes]uint8 {
	return [NumAttributes]uint8{uint8(c.Color), uint8(c.Shading), uint8(c.Shape), uint8(c.Number)}
}

// Valid reports whether every attribute holds one of its three values.
func (c Card) Valid() bool {
	for _, v := range c.attributes() {
		if v >= NumAttributeValues {
			return false
		}
	}
	return true
}

// Code returns the four character card code: color (R/P/G), shading
// (S/T/O for solid/striped/outlined), shape (O/S/D) and number (1/2/3).
func (c Card) Code() string {
	if !c.Valid() {
		return "????"
	}
	return string([]byte{colorCodes[c.Color], shadingCodes[c.Shading], shapeCodes[c.Shape], numberCodes[c.Number]})
}

func (c Card) String() string {
	return c.Code()
}

// Describe returns a readable phrase such as "two striped green diamonds".
func (c Card) Describe() string {
	shape := c.Shape.String()
	if c.Number != One {
		shape += "s"
	}
	return fmt.Sprintf("%s %s %s %s", c.Number, c.Shading, c.Color, shape)
}

// ParseCard parses a card code as produced by Card.Code. Parsing is case
// insensitive.
func ParseCard(code string) (Card, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if len(code) != NumAttributes {
		return Card{}, fmt.Errorf("card code %q must have %d characters", code, NumAttributes)
	}

	var vals [NumAttributes]uint8
	tables := [NumAttributes][NumAttributeValues]byte{colorCodes, shadingCodes, shapeCodes, numberCodes}
	labels := [NumAttributes]string{"color", "shading", "shape", "number"}
	for i, table := range tables {
		idx := strings.IndexByte(string(table[:]), code[i])
		if idx < 0 {
			return Card{}, fmt.Errorf("card code %q: invalid %s %q", code, labels[i], code[i])
		}
		vals[i] = uint8(idx)
	}

	return Card{
		Color:   Color(vals[0]),
		Shading: Shading(vals[1]),
		Shape:   Shape(vals[2]),
		Number:  Number(vals[3]),
	}, nil
}

// AllCards returns every distinct card exactly once. Card i takes its
// attribute values from the base-3 digits of i.
func AllCards() []Card {
	cards := make([]Card, DeckSize)
	for i := range cards {
		var vals [NumAttributes]uint8
		div := 1
		for j := range vals {
			vals[j] = uint8((i / div) % NumAttributeValues)
			div *= NumAttributeValues
		}
		cards[i] = Card{
			Color:   Color(vals[0]),
			Shading: Shading(vals[1]),
			Shape:   Shape(vals[2]),
			Number:  Number(vals[3]),
		}
	}
	return cards
}

// IsSet reports whether three cards form a set: for every attribute the
// three values are either all the same or all different.
func IsSet(a, b, c Card) bool {
	av, bv, cv := a.attributes(), b.attributes(), c.attributes()
	for i := range av {
		if attributePattern(av[i], bv[i], cv[i]) == PatternMixed {
			return false
		}
	}
	return true
}

// Pattern classifies one attribute across three cards.
type Pattern string

const (
	PatternSame      Pattern = "same"
	PatternDifferent Pattern = "different"
	PatternMixed     Pattern = "mixed"
)

// attributePattern folds the three values into a bitmask: one bit set means
// all the same, three bits set means all different.
func attributePattern(a, b, c uint8) Pattern {
	mask := 1<<a | 1<<b | 1<<c
	switch {
	case mask&(mask-1) == 0:
		return PatternSame
	case mask == 1<<NumAttributeValues-1:
		return PatternDifferent
	default:
		return PatternMixed
	}
}

// AttributeVerdict is the pattern of a single attribute across a triple.
type AttributeVerdict struct {
	Attribute string   `json:"attribute"`
	Pattern   Pattern  `json:"pattern"`
	Values    []string `json:"values"`
}

// OK reports whether the attribute satisfies the set rule.
func (v AttributeVerdict) OK() bool {
	return v.Pattern != PatternMixed
}

// Explain reports, attribute by attribute, why a triple is or is not a set.
func Explain(a, b, c Card) []AttributeVerdict {
	return []AttributeVerdict{
		verdict("color", uint8(a.Color), uint8(b.Color), uint8(c.Color), a.Color.String(), b.Color.String(), c.Color.String()),
		verdict("shading", uint8(a.Shading), uint8(b.Shading), uint8(c.Shading), a.Shading.String(), b.Shading.String(), c.Shading.String()),
		verdict("shape", uint8(a.Shape), uint8(b.Shape), uint8(c.Shape), a.Shape.String(), b.Shape.String(), c.Shape.String()),
		verdict("number", uint8(a.Number), uint8(b.Number), uint8(c.Number), a.Number.String(), b.Number.String(), c.Number.String()),
	}
}

func verdict(attr string, a, b, c uint8, names ...string) AttributeVerdict {
	return AttributeVerdict{
		Attribute: attr,
		Pattern:   attributePattern(a, b, c),
		Values:    names,
	}
}
