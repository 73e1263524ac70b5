// Package main ...
package main

import (
	"fmt"
	"log"

	"github.com/feedshot/feedshot"
	"github.com/feedshot/feedshot/lib/config"
)

// To slice a page with a browser that is already running
func main() {
	// Launch your local browser first:
	//
	//     chrome --headless --remote-debugging-port=9222
	//
	// Or use docker:
	//
	//     docker run -p 9222:9222 ghcr.io/go-rod/rod chrome --headless --no-sandbox --remote-debugging-port=9222 --remote-debugging-address=0.0.0.0
	//
	cfg := config.Default()
	cfg.Browser.Remote = "9222"

	res := feedshot.New(cfg).Logger(log.Default()).MustSliceURL("https://mdn.dev/")

	fmt.Println(res.Parts)
}
