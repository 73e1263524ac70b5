// Package config holds the job configuration of a feedshot run.
//
// Values are resolved in this order, later ones win:
//
//  1. Default()
//  2. the yaml file passed to Load
//  3. FEEDSHOT_* environment variables
//  4. command line flags, applied by the caller
package config

import (
	"fmt"
	"image/color"
	"time"

	"github.com/feedshot/feedshot/lib/codec"
	"github.com/feedshot/feedshot/lib/defaults"
	"github.com/feedshot/feedshot/lib/plan"
)

// Config of a run. It's passed by value, the pipeline never modifies it.
type Config struct {
	// Width of the page viewport and of every part
	Width int `yaml:"width"`

	// ViewportHeight of the browser window, the screenshot still covers the full page
	ViewportHeight int `yaml:"viewport_height"`

	// Rules to partition the page
	Rules plan.Rules `yaml:"rules"`

	// OutDir is removed and created again at the start of every run
	OutDir string `yaml:"out_dir"`

	// Prefix of the part file names
	Prefix string `yaml:"prefix"`

	// Digits is the minimum width of the zero padded part index
	Digits int `yaml:"digits"`

	// Format of the parts, "png" or "jpeg"
	Format string `yaml:"format"`

	// Quality of jpeg parts
	Quality int `yaml:"quality"`

	// Pad parts shorter than their nominal height with Background
	Pad bool `yaml:"pad"`

	// Background color used by Pad
	Background string `yaml:"background"`

	// Trim the borders of the page image before planning
	Trim bool `yaml:"trim"`

	// TrimThreshold is the max channel difference treated as border color
	TrimThreshold int `yaml:"trim_threshold"`

	// Workers that write parts concurrently, 1 or less means sequential
	Workers int `yaml:"workers"`

	// Screenshot is where the full page screenshot is stored during a run,
	// empty means a temp file
	Screenshot string `yaml:"screenshot"`

	// KeepScreenshot after the run instead of removing it
	KeepScreenshot bool `yaml:"keep_screenshot"`

	Browser Browser `yaml:"browser"`

	Server Server `yaml:"server"`
}

// Browser options of the renderer
type Browser struct {
	Bin       string        `yaml:"bin"`
	Remote    string        `yaml:"remote"`
	Show      bool          `yaml:"show"`
	NoSandbox bool          `yaml:"no_sandbox"`
	Trace     bool          `yaml:"trace"`
	Settle    time.Duration `yaml:"settle"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Server options to serve a local dir for rendering
type Server struct {
	// Addr to listen to, empty means a random local port
	Addr string `yaml:"addr"`

	// Command runs an external server instead of the builtin one,
	// such as ["python", "-u", "-m", "http.server", "8000"]
	Command []string `yaml:"command"`

	// URL of the page served by Command
	URL string `yaml:"url"`

	// Ready is the text Command prints once it accepts requests,
	// empty means polling URL until it responds
	Ready string `yaml:"ready"`

	// StartTimeout for Command to become ready
	StartTimeout time.Duration `yaml:"start_timeout"`
}

// Default config, it mirrors a 900px wide feed with 1200px tall posts
func Default() Config {
	return Config{
		Width:          900,
		ViewportHeight: 1200,
		Rules:          plan.Rules{Regular: 1200},
		OutDir:         "processed_images",
		Prefix:         "part_",
		Digits:         2,
		Format:         "png",
		Quality:        90,
		Background:     "white",
		TrimThreshold:  10,
		Workers:        1,
		Browser: Browser{
			Bin:       defaults.Bin,
			Remote:    defaults.Remote,
			Show:      defaults.Show,
			NoSandbox: defaults.NoSandbox,
			Trace:     defaults.Trace,
			Timeout:   defaults.Timeout,
		},
		Server: Server{
			Ready:        "Serving HTTP",
			StartTimeout: 30 * time.Second,
		},
	}
}

// Validate the config
func (c Config) Validate() error {
	if c.Width <= 0 {
		return &Error{Field: "width", Err: fmt.Errorf("must be positive, got %d", c.Width)}
	}
	if c.ViewportHeight <= 0 {
		return &Error{Field: "viewport_height", Err: fmt.Errorf("must be positive, got %d", c.ViewportHeight)}
	}
	if err := c.Rules.Validate(); err != nil {
		return &Error{Field: "rules", Err: err}
	}
	if c.OutDir == "" {
		return &Error{Field: "out_dir", Err: fmt.Errorf("can't be empty")}
	}
	if c.Digits < 0 {
		return &Error{Field: "digits", Err: fmt.Errorf("can't be negative, got %d", c.Digits)}
	}
	if c.TrimThreshold < 0 || c.TrimThreshold > 255 {
		return &Error{Field: "trim_threshold", Err: fmt.Errorf("must be in [0, 255], got %d", c.TrimThreshold)}
	}
	if _, err := codec.New(c.Format, c.Quality); err != nil {
		return &Error{Field: "format", Err: err}
	}
	if _, err := codec.ParseColor(c.Background); err != nil {
		return &Error{Field: "background", Err: err}
	}
	return nil
}

// Codec for the parts
func (c Config) Codec() (*codec.Codec, error) {
	return codec.New(c.Format, c.Quality)
}

// BackgroundColor of the padding
func (c Config) BackgroundColor() (color.NRGBA, error) {
	return codec.ParseColor(c.Background)
}

// Error of the config
type Error struct {
	Path  string
	Field string
	Err   error
}

func (e *Error) Error() string {
	switch {
	case e.Path != "":
		return fmt.Sprintf("config %s: %v", e.Path, e.Err)
	case e.Field != "":
		return fmt.Sprintf("config field %s: %v", e.Field, e.Err)
	default:
		return fmt.Sprintf("config: %v", e.Err)
	}
}

// Unwrap the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}
