// Package main ...
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/feedshot/feedshot"
	"github.com/feedshot/feedshot/lib/config"
	"github.com/feedshot/feedshot/lib/plan"
)

// Serve the current dir, slice its index page and print the progress
func main() {
	cfg := config.Default()
	cfg.Rules = plan.Rules{Regular: 1200, SecondToLast: 900, Final: 1600}
	cfg.Pad = true

	s := feedshot.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		for e := range s.Subscribe(ctx) {
			switch e := e.(type) {
			case *feedshot.EventRendered:
				fmt.Printf("rendered %s, %dx%d\n", e.URL, e.Width, e.Height)
			case *feedshot.EventPart:
				fmt.Println("wrote", e.Path, e.Rect)
			}
		}
	}()

	if _, err := s.SliceDir("."); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
