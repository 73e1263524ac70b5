// Package plan splits a tall page into top-aligned rectangles for publication.
// Left and width of every rectangle are implicit: they always span the full page.
package plan

import (
	"errors"
	"fmt"
)

// ErrInvalidRules is returned for non-positive heights or negative options
var ErrInvalidRules = errors.New("invalid partition rules")

// Mode is the variant of the partition policy, it's decided by which optional fields are set
type Mode int

const (
	// Uniform walks the page in steps of Rules.Regular
	Uniform Mode = iota
	// OneTrailingSpecial reserves Rules.Final at the bottom of the page
	OneTrailingSpecial
	// TwoTrailingSpecial reserves Rules.SecondToLast, and Rules.Final if set
	TwoTrailingSpecial
)

func (m Mode) String() string {
	switch m {
	case OneTrailingSpecial:
		return "one-trailing-special"
	case TwoTrailingSpecial:
		return "two-trailing-special"
	default:
		return "uniform"
	}
}

// Kind of a rectangle, it tells which rule produced it
type Kind int

const (
	// Regular interior chunk, or the short predecessor of a special chunk
	Regular Kind = iota
	// SecondToLast chunk, always exactly Rules.SecondToLast tall
	SecondToLast
	// Final chunk reserved by Rules.Final
	Final
	// Whole page in one chunk, the page is too short to split
	Whole
)

func (k Kind) String() string {
	switch k {
	case SecondToLast:
		return "second-to-last"
	case Final:
		return "final"
	case Whole:
		return "whole"
	default:
		return "regular"
	}
}

// Rules to partition a page. Zero means absent for the optional fields.
type Rules struct {
	// Regular height of interior chunks, required
	Regular int `yaml:"regular" json:"regular"`

	// Final height reserved for the last chunk, such as a footer banner
	Final int `yaml:"final,omitempty" json:"final,omitempty"`

	// SecondToLast height of the chunk right before the final one
	SecondToLast int `yaml:"second_to_last,omitempty" json:"second_to_last,omitempty"`

	// MinHeight below which the chunk before the second-to-last one is merged into the
	// regular chunk before it. It only applies to TwoTrailingSpecial.
	// Zero keeps every non-empty remainder as its own chunk.
	MinHeight int `yaml:"min_height,omitempty" json:"min_height,omitempty"`
}

// Mode of the rules
func (r Rules) Mode() Mode {
	switch {
	case r.SecondToLast > 0:
		return TwoTrailingSpecial
	case r.Final > 0:
		return OneTrailingSpecial
	default:
		return Uniform
	}
}

// Nominal height a rectangle of the kind was planned to fill.
// It returns 0 for Whole, which has no nominal size.
func (r Rules) Nominal(k Kind) int {
	switch k {
	case Regular:
		return r.Regular
	case SecondToLast:
		return r.SecondToLast
	case Final:
		return r.Final
	default:
		return 0
	}
}

// Validate the rules
func (r Rules) Validate() error {
	if r.Regular <= 0 {
		return fmt.Errorf("%w: regular height must be positive, got %d", ErrInvalidRules, r.Regular)
	}
	if r.Final < 0 {
		return fmt.Errorf("%w: final height can't be negative, got %d", ErrInvalidRules, r.Final)
	}
	if r.SecondToLast < 0 {
		return fmt.Errorf("%w: second-to-last height can't be negative, got %d", ErrInvalidRules, r.SecondToLast)
	}
	if r.MinHeight < 0 {
		return fmt.Errorf("%w: min height can't be negative, got %d", ErrInvalidRules, r.MinHeight)
	}
	return nil
}
