package feedshot

import (
	"context"

	"github.com/feedshot/feedshot/lib/plan"
	"github.com/ysmood/goob"
)

// EventRendered is published after the page screenshot is taken
type EventRendered struct {
	URL        string
	Width      int
	Height     int
	Screenshot string
}

// EventPlanned is published after the page is partitioned
type EventPlanned struct {
	Height int
	Rects  []plan.Rect
}

// EventPart is published after a part is written. With concurrent workers
// the parts may arrive out of order.
type EventPart struct {
	// Index is 1-based
	Index int
	Rect  plan.Rect
	Path  string
}

// EventDone is published after all the parts are written
type EventDone struct {
	Dir   string
	Parts []string
}

// Subscribe to the progress events of the slicer, the subscription ends when ctx is done.
// The channel never blocks the publisher.
func (s *Slicer) Subscribe(ctx context.Context) <-chan goob.Event {
	return s.event.Subscribe(ctx)
}
