// A cli tool to render a page, slice the full page screenshot and write the parts as numbered images
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/feedshot/feedshot"
	"github.com/feedshot/feedshot/lib/config"
	"github.com/feedshot/feedshot/lib/defaults"
	"github.com/feedshot/feedshot/lib/utils"
	"github.com/spf13/cobra"
	"github.com/ysmood/kit"
)

func main() {
	startReaper()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, kit.C(err.Error(), "red"))
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "feedshot",
		Short: "Slice a rendered page into feed sized images",
		Long: `Render a page with a headless browser, partition the full page screenshot
into vertical chunks and write every chunk as a numbered image file,
such as processed_images/part_01.png, part_02.png, ...`,
		Version:       defaults.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	f := root.PersistentFlags()
	f.String("config", "", "yaml config file")
	f.BoolP("quiet", "q", false, "silent the progress log")

	f.Int("width", 0, "page width")
	f.Int("viewport-height", 0, "browser viewport height")
	f.Int("chunk-height", 0, "height of the regular parts")
	f.Int("final-height", 0, "height of the last part, 0 to disable")
	f.Int("second-to-last-height", 0, "height of the part before the last one, 0 to disable")
	f.Int("min-height", 0, "with --second-to-last-height, merge a shorter part before the second-to-last one into its predecessor")
	f.StringP("out", "o", "", "output dir, it's cleared before every run")
	f.String("prefix", "", "file name prefix of the parts")
	f.Int("digits", 0, "min digits of the part index")
	f.String("format", "", "png or jpeg")
	f.Int("quality", 0, "jpeg quality")
	f.Bool("pad", false, "pad parts shorter than their nominal height")
	f.String("background", "", "padding color, such as white or #fff")
	f.Bool("trim", false, "trim the borders of the page before slicing")
	f.Int("workers", 0, "number of parts written concurrently")
	f.String("screenshot", "", "where to store the full page screenshot")
	f.Bool("keep-screenshot", false, "keep the full page screenshot")

	f.String("bin", "", "browser executable path")
	f.String("remote", "", "control a running browser at this address instead of launching one")
	f.Bool("show", false, "show the browser window")
	f.Bool("no-sandbox", false, "disable the chrome sandbox")
	f.Bool("trace", false, "log the browser and server details")
	f.Duration("settle", 0, "wait until the page stops changing for this long")
	f.Duration("timeout", 0, "timeout of the page render")

	root.AddCommand(
		newServeCmd(),
		newURLCmd(),
		newImageCmd(),
		newShotCmd(),
		newPlanCmd(),
		newVersionCmd(),
	)

	return root
}

// loadConfig resolves the config file, the env vars and the flags of cmd
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	f := cmd.Flags()

	p, _ := f.GetString("config")
	cfg, err := config.Load(p)
	if err != nil {
		return cfg, err
	}

	ints := map[string]*int{
		"width":                 &cfg.Width,
		"viewport-height":       &cfg.ViewportHeight,
		"chunk-height":          &cfg.Rules.Regular,
		"final-height":          &cfg.Rules.Final,
		"second-to-last-height": &cfg.Rules.SecondToLast,
		"min-height":            &cfg.Rules.MinHeight,
		"digits":                &cfg.Digits,
		"quality":               &cfg.Quality,
		"workers":               &cfg.Workers,
	}
	strs := map[string]*string{
		"out":        &cfg.OutDir,
		"prefix":     &cfg.Prefix,
		"format":     &cfg.Format,
		"background": &cfg.Background,
		"screenshot": &cfg.Screenshot,
		"bin":        &cfg.Browser.Bin,
		"remote":     &cfg.Browser.Remote,
	}
	bools := map[string]*bool{
		"pad":             &cfg.Pad,
		"trim":            &cfg.Trim,
		"keep-screenshot": &cfg.KeepScreenshot,
		"show":            &cfg.Browser.Show,
		"no-sandbox":      &cfg.Browser.NoSandbox,
		"trace":           &cfg.Browser.Trace,
	}
	durations := map[string]*time.Duration{
		"settle":  &cfg.Browser.Settle,
		"timeout": &cfg.Browser.Timeout,
	}

	for name, v := range ints {
		if f.Changed(name) {
			*v, _ = f.GetInt(name)
		}
	}
	for name, v := range strs {
		if f.Changed(name) {
			*v, _ = f.GetString(name)
		}
	}
	for name, v := range bools {
		if f.Changed(name) {
			*v, _ = f.GetBool(name)
		}
	}
	for name, v := range durations {
		if f.Changed(name) {
			*v, _ = f.GetDuration(name)
		}
	}

	return cfg, cfg.Validate()
}

func newLogger(cmd *cobra.Command) utils.Logger {
	if quiet, _ := cmd.Flags().GetBool("quiet"); quiet {
		return utils.LoggerQuiet
	}
	return log.New(cmd.ErrOrStderr(), "", log.Ltime)
}

func newSlicer(cmd *cobra.Command) (*feedshot.Slicer, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	return feedshot.New(cfg).Context(cmd.Context()).Logger(newLogger(cmd)), nil
}

func report(out io.Writer, res *feedshot.Result) {
	for _, p := range res.Parts {
		fmt.Fprintln(out, p)
	}
	if res.Screenshot != "" {
		fmt.Fprintln(out, "screenshot:", res.Screenshot)
	}
	fmt.Fprintln(out, kit.C(fmt.Sprintf("%d parts written to %s", len(res.Parts), res.Dir), "green"))
}
