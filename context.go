package feedshot

import (
	"context"
	"time"
)

// Context creates a clone with a context that inherits the previous one
func (s *Slicer) Context(ctx context.Context) *Slicer {
	if ctx == s.ctx {
		return s
	}

	ctx, cancel := context.WithCancel(ctx)
	newObj := *s
	newObj.ctx = ctx
	newObj.ctxCancel = cancel
	return &newObj
}

// Cancel the context of this slicer. Clones made by Context or Timeout inherit it and are
// canceled too, canceling a clone never affects the slicer it was made from.
func (s *Slicer) Cancel() *Slicer {
	s.ctxCancel()
	return s
}

// Timeout for the whole run, including the render and the server startup
func (s *Slicer) Timeout(d time.Duration) *Slicer {
	ctx, cancel := context.WithTimeout(s.ctx, d)
	newObj := s.Context(ctx)
	newObj.timeoutCancel = cancel
	return newObj
}

// CancelTimeout stops the timer set by Timeout and cancels the run context of the clone it
// returned. It's a no-op on a slicer without a timeout, the parent of the clone is untouched.
func (s *Slicer) CancelTimeout() *Slicer {
	if s.timeoutCancel != nil {
		s.timeoutCancel()
	}
	return s
}
