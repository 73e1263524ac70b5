package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/feedshot/feedshot"
	"github.com/feedshot/feedshot/lib/defaults"
	"github.com/feedshot/feedshot/lib/plan"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	"github.com/ysmood/kit"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve [dir]",
		Short: "Serve a dir, render its index page and slice it",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			f := cmd.Flags()
			if f.Changed("cmd") {
				line, _ := f.GetString("cmd")
				cfg.Server.Command = strings.Fields(line)
			}
			if f.Changed("url") {
				cfg.Server.URL, _ = f.GetString("url")
			}
			if f.Changed("ready") {
				cfg.Server.Ready, _ = f.GetString("ready")
			}
			if f.Changed("addr") {
				cfg.Server.Addr, _ = f.GetString("addr")
			}

			res, err := feedshot.New(cfg).Context(cmd.Context()).Logger(newLogger(cmd)).SliceDir(dir)
			if err != nil {
				return err
			}

			report(cmd.OutOrStdout(), res)
			return nil
		},
	}

	f := cmd.Flags()
	f.String("cmd", "", `run an external server instead of the builtin one, such as "python -u -m http.server 8000"`)
	f.String("url", "", "url of the page served by --cmd")
	f.String("ready", "", "text --cmd prints once it accepts requests, empty to poll --url")
	f.String("addr", "", "address of the builtin server, default is a random local port")

	return cmd
}

func newURLCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "url <url>",
		Short: "Render a reachable url and slice it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSlicer(cmd)
			if err != nil {
				return err
			}

			res, err := s.SliceURL(args[0])
			if err != nil {
				return err
			}

			report(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <file>",
		Short: "Slice a pre-existing image, use --trim to cut its borders first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSlicer(cmd)
			if err != nil {
				return err
			}

			res, err := s.SliceFile(args[0])
			if err != nil {
				return err
			}

			report(cmd.OutOrStdout(), res)
			return nil
		},
	}
}

func newShotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "shot <url>",
		Short: "Only take the full page screenshot of the url",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			p, _ := cmd.Flags().GetString("file")

			r := feedshot.NewRenderer(cfg).Logger(newLogger(cmd))
			if err := r.Screenshot(cmd.Context(), args[0], p); err != nil {
				return &feedshot.Error{Code: feedshot.ErrRender, Err: err, Details: args[0]}
			}

			fmt.Fprintln(cmd.OutOrStdout(), kit.C(p, "green"))
			return nil
		},
	}

	cmd.Flags().StringP("file", "f", "screenshot.png", "where to write the screenshot")

	return cmd
}

func newPlanCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print the rectangles of a page height as json",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			height, _ := cmd.Flags().GetInt("height")

			list, err := plan.Plan(height, cfg.Rules)
			if err != nil {
				return err
			}

			out, err := planJSON(height, cfg.Rules, list)
			if err != nil {
				return err
			}

			fmt.Fprint(cmd.OutOrStdout(), gjson.Get(out, "@pretty").Raw)
			return nil
		},
	}

	cmd.Flags().Int("height", 0, "total height of the page")
	_ = cmd.MarkFlagRequired("height")

	return cmd
}

func planJSON(height int, rules plan.Rules, list []plan.Rect) (string, error) {
	out := `{"rects":[]}`

	set := func(path string, v interface{}) (err error) {
		out, err = sjson.Set(out, path, v)
		return
	}

	if err := set("height", height); err != nil {
		return "", err
	}
	if err := set("mode", rules.Mode().String()); err != nil {
		return "", err
	}

	for i, r := range list {
		prefix := "rects." + strconv.Itoa(i) + "."

		fields := []struct {
			key string
			val interface{}
		}{
			{"top", r.Top},
			{"height", r.Height},
			{"bottom", r.Bottom()},
			{"kind", r.Kind.String()},
		}
		for _, f := range fields {
			if err := set(prefix+f.key, f.val); err != nil {
				return "", err
			}
		}
	}

	return out, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "feedshot version:", defaults.Version)
		},
	}
}
