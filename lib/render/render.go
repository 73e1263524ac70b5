// Package render takes full page screenshots with a headless Chrome.
package render

import (
	"context"
	"time"

	"github.com/feedshot/feedshot/lib/defaults"
	"github.com/feedshot/feedshot/lib/utils"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// Chrome renders pages to PNG. The zero value is not usable, use New.
type Chrome struct {
	width  int
	height int

	bin       string
	remote    string
	show      bool
	noSandbox bool
	trace     bool

	settle  time.Duration
	timeout time.Duration

	logger utils.Logger
}

// New renderer with the options from lib/defaults and a 900x1200 viewport
func New() *Chrome {
	return &Chrome{
		width:     900,
		height:    1200,
		bin:       defaults.Bin,
		remote:    defaults.Remote,
		show:      defaults.Show,
		noSandbox: defaults.NoSandbox,
		trace:     defaults.Trace,
		timeout:   defaults.Timeout,
		logger:    utils.LoggerQuiet,
	}
}

// Viewport of the page. The screenshot is as wide as the viewport and as tall as the page.
func (c *Chrome) Viewport(width, height int) *Chrome {
	c.width = width
	c.height = height
	return c
}

// Bin of the browser, empty means auto detect or download
func (c *Chrome) Bin(path string) *Chrome {
	c.bin = path
	return c
}

// Show the browser window
func (c *Chrome) Show(enable bool) *Chrome {
	c.show = enable
	return c
}

// NoSandbox for chrome
func (c *Chrome) NoSandbox(enable bool) *Chrome {
	c.noSandbox = enable
	return c
}

// Trace the cdp calls
func (c *Chrome) Trace(enable bool) *Chrome {
	c.trace = enable
	return c
}

// Remote address of a running browser, such as "127.0.0.1:9222".
// If it's set no browser will be launched.
func (c *Chrome) Remote(u string) *Chrome {
	c.remote = u
	return c
}

// Settle waits until the DOM stops changing for d after the load event, 0 to disable
func (c *Chrome) Settle(d time.Duration) *Chrome {
	c.settle = d
	return c
}

// Timeout of a render, 0 means no timeout
func (c *Chrome) Timeout(d time.Duration) *Chrome {
	c.timeout = d
	return c
}

// Logger for the progress
func (c *Chrome) Logger(l utils.Logger) *Chrome {
	c.logger = l
	return c
}

// Render u and return the full page screenshot in PNG
func (c *Chrome) Render(ctx context.Context, u string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel func()
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	// canceling it drops the cdp connection, a remote browser keeps running
	ctx, disconnect := context.WithCancel(ctx)
	defer disconnect()

	controlURL, release, err := c.browserURL(ctx)
	if err != nil {
		return nil, err
	}
	defer release()

	browser := rod.New().ControlURL(controlURL).Context(ctx).Trace(c.trace).Logger(c.logger)
	if err := browser.Connect(); err != nil {
		return nil, err
	}
	if c.remote == "" {
		// the browser belongs to this render
		defer func() { _ = browser.Close() }()
	}

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, err
	}
	defer func() { _ = page.Close() }()

	err = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.width,
		Height:            c.height,
		DeviceScaleFactor: 1,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Println("[render] navigate", u)

	if err := page.Navigate(u); err != nil {
		return nil, err
	}
	if err := page.WaitLoad(); err != nil {
		return nil, err
	}
	if c.settle > 0 {
		if err := page.WaitStable(c.settle); err != nil {
			return nil, err
		}
	}

	bin, err := page.Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, err
	}

	c.logger.Println("[render] captured", u, len(bin), "bytes")
	return bin, nil
}

// Screenshot renders u and writes the PNG to path
func (c *Chrome) Screenshot(ctx context.Context, u, path string) error {
	bin, err := c.Render(ctx, u)
	if err != nil {
		return err
	}
	return utils.OutputFile(path, bin)
}

// MustRender is similar to Render
func (c *Chrome) MustRender(u string) []byte {
	bin, err := c.Render(context.Background(), u)
	utils.E(err)
	return bin
}

// Screenshot of u with the default renderer, written to path
func Screenshot(ctx context.Context, u, path string) error {
	return New().Screenshot(ctx, u, path)
}

// browserURL returns the control url and the function to release the browser
func (c *Chrome) browserURL(ctx context.Context) (string, func(), error) {
	if c.remote != "" {
		u, err := ResolveURL(ctx, c.remote)
		return u, func() {}, err
	}

	l := launcher.New().
		Context(ctx).
		Headless(!c.show).
		NoSandbox(c.noSandbox)

	if c.bin != "" {
		l = l.Bin(c.bin)
	}

	c.logger.Println("[render] launch browser")

	u, err := l.Launch()
	if err != nil {
		return "", nil, err
	}

	return u, func() {
		l.Kill()
		l.Cleanup()
	}, nil
}

// Available reports whether a browser can be used without downloading one
func Available() bool {
	if defaults.Remote != "" || defaults.Bin != "" {
		return true
	}
	_, has := launcher.LookPath()
	return has
}
