package plan

import "fmt"

// Rect is a full-width slice of the page
type Rect struct {
	Top    int  `json:"top"`
	Height int  `json:"height"`
	Kind   Kind `json:"kind"`
}

// Bottom of the rect, exclusive
func (r Rect) Bottom() int {
	return r.Top + r.Height
}

func (r Rect) String() string {
	return fmt.Sprintf("%s[%d,%d)", r.Kind, r.Top, r.Bottom())
}

// Plan the rectangles that cover [0, total) with no gap or overlap.
// The result only depends on the arguments.
func Plan(total int, rules Rules) ([]Rect, error) {
	if total <= 0 {
		return nil, fmt.Errorf("%w: total height must be positive, got %d", ErrInvalidRules, total)
	}
	if err := rules.Validate(); err != nil {
		return nil, err
	}

	switch rules.Mode() {
	case OneTrailingSpecial:
		return oneTrailing(total, rules), nil
	case TwoTrailingSpecial:
		return twoTrailing(total, rules), nil
	default:
		return uniform(nil, 0, total, rules), nil
	}
}

// Verify that list covers [0, total) in order with positive heights
func Verify(list []Rect, total int) error {
	top := 0
	for i, r := range list {
		if r.Height <= 0 {
			return fmt.Errorf("rect %d has non-positive height %d", i, r.Height)
		}
		if r.Top != top {
			return fmt.Errorf("rect %d starts at %d, expected %d", i, r.Top, top)
		}
		top = r.Bottom()
	}
	if top != total {
		return fmt.Errorf("rects end at %d, expected %d", top, total)
	}
	return nil
}

// uniform appends regular chunks over [from, to), the last one may be shorter.
// A short tail is never merged, so it always yields ceil((to-from)/r.Regular) chunks.
func uniform(list []Rect, from, to int, r Rules) []Rect {
	for top := from; top < to; top += r.Regular {
		h := r.Regular
		if rest := to - top; rest < h {
			h = rest
		}
		list = append(list, Rect{Top: top, Height: h, Kind: Regular})
	}
	return list
}

// appendPredecessor drops an empty predecessor of the second-to-last chunk, and merges it into
// the regular chunk before it when it's below r.MinHeight.
func appendPredecessor(list []Rect, top, h int, r Rules) []Rect {
	if h <= 0 {
		return list
	}

	if h < r.MinHeight && h < r.Regular && len(list) > 0 && list[len(list)-1].Kind == Regular {
		list[len(list)-1].Height += h
		return list
	}

	return append(list, Rect{Top: top, Height: h, Kind: Regular})
}

func oneTrailing(total int, r Rules) []Rect {
	start := total - r.Final
	if start <= 0 {
		return []Rect{{Top: 0, Height: total, Kind: Whole}}
	}

	list := uniform(nil, 0, start, r)
	return append(list, Rect{Top: start, Height: total - start, Kind: Final})
}

// twoTrailing keeps the second-to-last chunk exactly r.SecondToLast tall,
// the chunk before it absorbs the irregular remainder.
func twoTrailing(total int, r Rules) []Rect {
	start := total - r.Final
	if total <= r.SecondToLast || start <= 0 {
		return []Rect{{Top: 0, Height: total, Kind: Whole}}
	}

	var list []Rect
	threshold := r.Regular + r.SecondToLast

	top := 0
	for start-top > threshold {
		list = append(list, Rect{Top: top, Height: r.Regular, Kind: Regular})
		top += r.Regular
	}

	remaining := start - top
	if remaining <= r.SecondToLast {
		// only reachable when the final chunk leaves less than r.SecondToLast above it
		list = append(list, Rect{Top: top, Height: remaining, Kind: SecondToLast})
	} else {
		list = appendPredecessor(list, top, remaining-r.SecondToLast, r)
		list = append(list, Rect{Top: start - r.SecondToLast, Height: r.SecondToLast, Kind: SecondToLast})
	}

	if r.Final > 0 {
		list = append(list, Rect{Top: start, Height: total - start, Kind: Final})
	}

	return list
}
