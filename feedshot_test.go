package feedshot_test

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"time"

	"github.com/feedshot/feedshot"
	"github.com/feedshot/feedshot/lib/codec"
	"github.com/feedshot/feedshot/lib/plan"
	"github.com/feedshot/feedshot/lib/utils"
)

func (s *S) TestSliceImage() {
	cfg := s.cfg()
	src := page(900, 2700)

	res, err := feedshot.New(cfg).SliceImage(src)
	s.Require().NoError(err)

	s.Equal([]string{"part_01.png", "part_02.png", "part_03.png"}, s.files(cfg.OutDir))
	s.Equal(cfg.OutDir, res.Dir)
	s.Equal(900, res.Width)
	s.Equal(2700, res.Height)
	s.Equal([]plan.Rect{
		{Top: 0, Height: 1200, Kind: plan.Regular},
		{Top: 1200, Height: 1200, Kind: plan.Regular},
		{Top: 2400, Height: 300, Kind: plan.Regular},
	}, res.Rects)

	for i, r := range res.Rects {
		s.equal(src, r.Top, res.Parts[i])
	}
}

func (s *S) TestSliceImageTwoTrailing() {
	cfg := s.cfg()
	cfg.Rules = plan.Rules{Regular: 1200, SecondToLast: 900, Final: 1600}
	src := page(900, 4000)

	res, err := feedshot.New(cfg).SliceImage(src)
	s.Require().NoError(err)

	heights := []int{}
	for i, r := range res.Rects {
		heights = append(heights, r.Height)
		s.equal(src, r.Top, res.Parts[i])
	}
	s.Equal([]int{1200, 300, 900, 1600}, heights)
	s.Len(s.files(cfg.OutDir), 4)
}

func (s *S) TestSliceImageWholePage() {
	cfg := s.cfg()
	cfg.Rules = plan.Rules{Regular: 1200, SecondToLast: 900}

	res, err := feedshot.New(cfg).SliceImage(page(900, 500))
	s.Require().NoError(err)
	s.Equal([]plan.Rect{{Top: 0, Height: 500, Kind: plan.Whole}}, res.Rects)
	s.Equal([]string{"part_01.png"}, s.files(cfg.OutDir))
}

func (s *S) TestSliceImageWiderPage() {
	cfg := s.cfg()
	src := page(1000, 1300)

	res, err := feedshot.New(cfg).SliceImage(src)
	s.Require().NoError(err)

	part, err := codec.Open(res.Parts[1])
	s.Require().NoError(err)
	s.Equal(image.Pt(900, 100), part.Bounds().Size())
	s.equal(src, 1200, res.Parts[1])
}

func (s *S) TestPad() {
	cfg := s.cfg()
	cfg.Pad = true
	cfg.Background = "#00f"
	src := page(900, 3000)

	res, err := feedshot.New(cfg).SliceImage(src)
	s.Require().NoError(err)

	last, err := codec.Open(res.Parts[2])
	s.Require().NoError(err)
	s.Equal(image.Pt(900, 1200), last.Bounds().Size())

	s.Equal(color.NRGBAModel.Convert(src.At(3, 2410)), color.NRGBAModel.Convert(last.At(3, 10)))
	s.Equal(color.NRGBA{0, 0, 255, 255}, color.NRGBAModel.Convert(last.At(3, 1100)))
}

func (s *S) TestResetOutDir() {
	cfg := s.cfg()
	s.Require().NoError(utils.OutputFile(filepath.Join(cfg.OutDir, "part_09.png"), []byte("stale")))
	s.Require().NoError(utils.OutputFile(filepath.Join(cfg.OutDir, "sub", "x"), []byte("stale")))

	_, err := feedshot.New(cfg).SliceImage(page(900, 1300))
	s.Require().NoError(err)
	s.Equal([]string{"part_01.png", "part_02.png"}, s.files(cfg.OutDir))
}

func (s *S) TestExtractFailure() {
	cfg := s.cfg()
	s.Require().NoError(utils.OutputFile(filepath.Join(cfg.OutDir, "old.png"), []byte("stale")))

	_, err := feedshot.New(cfg).SliceImage(page(800, 2700))
	s.True(feedshot.IsError(err, feedshot.ErrExtract))
	s.ErrorIs(err, codec.ErrOutOfBounds)
	s.Empty(s.files(cfg.OutDir), "no partial output")
}

func (s *S) TestIOFailure() {
	cfg := s.cfg()

	// a file where the output dir should be created
	parent := filepath.Join(s.T().TempDir(), "file")
	s.Require().NoError(os.WriteFile(parent, nil, 0o644))
	cfg.OutDir = filepath.Join(parent, "out")

	_, err := feedshot.New(cfg).SliceImage(page(900, 100))
	s.True(feedshot.IsError(err, feedshot.ErrIO))
}

func (s *S) TestConfigError() {
	cfg := s.cfg()
	cfg.Width = 0

	_, err := feedshot.New(cfg).SliceImage(page(900, 100))
	s.True(feedshot.IsError(err, feedshot.ErrConfig))
	s.NoDirExists(cfg.OutDir)

	cfg = s.cfg()
	cfg.Rules.Regular = -1
	_, err = feedshot.New(cfg).SliceURL("http://localhost")
	s.True(feedshot.IsError(err, feedshot.ErrConfig))
	s.ErrorIs(err, plan.ErrInvalidRules)
}

func (s *S) TestEmptyImage() {
	cfg := s.cfg()

	_, err := feedshot.New(cfg).SliceImage(image.NewNRGBA(image.Rect(0, 0, 900, 0)))
	s.True(feedshot.IsError(err, feedshot.ErrConfig))
	s.False(feedshot.IsError(err, feedshot.ErrExtract))
	s.ErrorIs(err, plan.ErrInvalidRules)
	s.NoDirExists(cfg.OutDir)
}

func (s *S) TestDigits() {
	cfg := s.cfg()
	cfg.Rules = plan.Rules{Regular: 10}
	cfg.Width = 20

	res, err := feedshot.New(cfg).SliceImage(page(20, 1005))
	s.Require().NoError(err)
	s.Len(res.Parts, 101)
	s.Equal(filepath.Join(cfg.OutDir, "part_001.png"), res.Parts[0])
	s.Equal(filepath.Join(cfg.OutDir, "part_101.png"), res.Parts[100])
	s.equal(page(20, 1005), 1000, res.Parts[100])
}

func (s *S) TestWorkers() {
	cfg := s.cfg()
	cfg.Rules = plan.Rules{Regular: 100}
	cfg.Workers = 4
	src := page(900, 1050)

	res, err := feedshot.New(cfg).SliceImage(src)
	s.Require().NoError(err)
	s.Len(s.files(cfg.OutDir), 11)

	for i, r := range res.Rects {
		s.equal(src, r.Top, res.Parts[i])
	}
}

func (s *S) TestWorkersFailure() {
	cfg := s.cfg()
	cfg.Rules = plan.Rules{Regular: 100}
	cfg.Workers = 4
	s.Require().NoError(utils.OutputFile(filepath.Join(cfg.OutDir, "old.png"), []byte("stale")))

	slicer := feedshot.New(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := slicer.Subscribe(ctx)

	lines := []string{}
	_, err := slicer.Logger(utils.Log(func(msg ...interface{}) {
		lines = append(lines, fmt.Sprint(msg...))
	})).SliceImage(page(800, 1050))

	s.True(feedshot.IsError(err, feedshot.ErrExtract))
	s.ErrorIs(err, codec.ErrOutOfBounds)
	s.NotErrorIs(err, context.Canceled, "the first failure is reported, not the cancellation")
	s.Empty(s.files(cfg.OutDir), "no partial output")
	s.Len(lines, 1, "only the plan is logged")

	// the plan is the last event, no part or done is published
	for e := range events {
		_, ok := e.(*feedshot.EventPlanned)
		s.True(ok, "%T", e)
		cancel()
	}
}

func (s *S) TestJPEG() {
	cfg := s.cfg()
	cfg.Format = "jpeg"
	cfg.Prefix = "post-"

	_, err := feedshot.New(cfg).SliceImage(page(900, 1300))
	s.Require().NoError(err)
	s.Equal([]string{"post-01.jpg", "post-02.jpg"}, s.files(cfg.OutDir))
}

func (s *S) TestCustomCodec() {
	cfg := s.cfg()

	c, err := codec.New("jpg", 50)
	s.Require().NoError(err)

	_, err = feedshot.New(cfg).Codec(c).SliceImage(page(900, 100))
	s.Require().NoError(err)
	s.Equal([]string{"part_01.jpg"}, s.files(cfg.OutDir))
}

func (s *S) TestTrim() {
	cfg := s.cfg()
	cfg.Trim = true

	src := image.NewNRGBA(image.Rect(0, 0, 1000, 1400))
	for y := 0; y < 1400; y++ {
		for x := 0; x < 1000; x++ {
			c := color.NRGBA{255, 255, 255, 255}
			if x >= 50 && x < 950 && y >= 100 && y < 1300 {
				c = color.NRGBA{uint8(x), uint8(y), 0, 255}
			}
			src.SetNRGBA(x, y, c)
		}
	}

	res, err := feedshot.New(cfg).SliceImage(src)
	s.Require().NoError(err)
	s.Equal(1200, res.Height)
	s.Equal([]string{"part_01.png"}, s.files(cfg.OutDir))
}

func (s *S) TestSliceFile() {
	cfg := s.cfg()
	src := page(900, 2700)

	p := filepath.Join(s.T().TempDir(), "page.png")
	s.Require().NoError(codec.Default().Write(src, p))

	res, err := feedshot.New(cfg).SliceFile(p)
	s.Require().NoError(err)
	s.Len(res.Parts, 3)
	s.equal(src, 2400, res.Parts[2])

	_, err = feedshot.New(cfg).SliceFile(filepath.Join(s.T().TempDir(), "none.png"))
	s.True(feedshot.IsError(err, feedshot.ErrIO))
}

func (s *S) TestSliceURL() {
	cfg := s.cfg()
	src := page(900, 2700)
	r := &fakeRenderer{img: src}

	res, err := feedshot.New(cfg).Renderer(r).SliceURL("http://feed.test/")
	s.Require().NoError(err)

	s.Equal([]string{"http://feed.test/"}, r.urls)
	s.Len(res.Parts, 3)
	s.equal(src, 1200, res.Parts[1])
	s.Empty(res.Screenshot)
	s.NoFileExists(cfg.Screenshot, "the screenshot is removed")
}

func (s *S) TestKeepScreenshot() {
	cfg := s.cfg()
	cfg.KeepScreenshot = true

	res, err := feedshot.New(cfg).Renderer(&fakeRenderer{img: page(900, 1300)}).SliceURL("http://feed.test/")
	s.Require().NoError(err)
	s.Equal(cfg.Screenshot, res.Screenshot)
	s.FileExists(cfg.Screenshot)

	cfg.Screenshot = ""
	res, err = feedshot.New(cfg).Renderer(&fakeRenderer{img: page(900, 1300)}).SliceURL("http://feed.test/")
	s.Require().NoError(err)
	s.FileExists(res.Screenshot)
	s.NoError(os.Remove(res.Screenshot))
}

func (s *S) TestRenderFailure() {
	cfg := s.cfg()

	_, err := feedshot.New(cfg).Renderer(&fakeRenderer{err: errRender}).SliceURL("http://feed.test/")
	s.True(feedshot.IsError(err, feedshot.ErrRender))
	s.ErrorIs(err, errRender)
	s.NoFileExists(cfg.Screenshot)
	s.NoDirExists(cfg.OutDir)

	_, err = feedshot.New(cfg).Renderer(&fakeRenderer{}).SliceURL("http://feed.test/")
	s.True(feedshot.IsError(err, feedshot.ErrRender))
	s.NoFileExists(cfg.Screenshot, "removed on failure too")
}

func (s *S) TestSliceDir() {
	cfg := s.cfg()
	src := page(900, 2700)

	dir := s.T().TempDir()
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "index.html"), []byte("<p>my feed</p>"), 0o644))

	r := &fakeRenderer{img: src, expect: "my feed"}
	res, err := feedshot.New(cfg).Renderer(r).SliceDir(dir)
	s.Require().NoError(err)
	s.Len(res.Parts, 3)

	// the server is stopped after the run
	s.Require().Len(r.urls, 1)
	_, err = r.Render(context.Background(), r.urls[0])
	s.Error(err)
}

func (s *S) TestSliceDirErrors() {
	cfg := s.cfg()

	_, err := feedshot.New(cfg).Renderer(&fakeRenderer{}).SliceDir(filepath.Join(s.T().TempDir(), "none"))
	s.True(feedshot.IsError(err, feedshot.ErrRender))

	cfg.Server.Command = []string{"python"}
	cfg.Server.URL = ""
	_, err = feedshot.New(cfg).Renderer(&fakeRenderer{}).SliceDir(s.T().TempDir())
	s.True(feedshot.IsError(err, feedshot.ErrRender))
}

func (s *S) TestEvents() {
	cfg := s.cfg()

	slicer := feedshot.New(cfg).Renderer(&fakeRenderer{img: page(900, 2700)})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events := slicer.Subscribe(ctx)

	_, err := slicer.SliceURL("http://feed.test/")
	s.Require().NoError(err)

	var rendered *feedshot.EventRendered
	var planned *feedshot.EventPlanned
	parts := 0

	for e := range events {
		switch e := e.(type) {
		case *feedshot.EventRendered:
			rendered = e
		case *feedshot.EventPlanned:
			planned = e
		case *feedshot.EventPart:
			parts++
		case *feedshot.EventDone:
			s.Equal(cfg.OutDir, e.Dir)
			s.Len(e.Parts, 3)
			cancel()
		}
		if parts == 3 && rendered != nil && planned != nil && ctx.Err() != nil {
			break
		}
	}

	s.Require().NotNil(rendered)
	s.Equal(2700, rendered.Height)
	s.Require().NotNil(planned)
	s.Len(planned.Rects, 3)
	s.Equal(3, parts)
}

func (s *S) TestContext() {
	cfg := s.cfg()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := feedshot.New(cfg).Context(ctx).SliceImage(page(900, 2700))
	s.ErrorIs(err, context.Canceled)
	s.Empty(s.files(cfg.OutDir))

	// canceling a clone leaves the origin untouched
	slicer := feedshot.New(cfg)
	slicer.Context(context.Background()).Cancel()
	_, err = slicer.SliceImage(page(900, 100))
	s.NoError(err)

	slicer = feedshot.New(cfg).Timeout(time.Minute)
	_, err = slicer.SliceImage(page(900, 100))
	s.NoError(err)
	slicer.CancelTimeout()

	_, err = slicer.SliceImage(page(900, 100))
	s.ErrorIs(err, context.Canceled)

	// canceling the origin cancels its clones
	origin := feedshot.New(cfg)
	clone := origin.Timeout(time.Minute)
	defer clone.CancelTimeout()
	origin.Cancel()
	_, err = clone.SliceImage(page(900, 100))
	s.ErrorIs(err, context.Canceled)

	_, err = feedshot.New(cfg).CancelTimeout().SliceImage(page(900, 100))
	s.NoError(err, "no timeout to cancel")
}

func (s *S) TestMust() {
	cfg := s.cfg()

	res := feedshot.New(cfg).MustSliceImage(page(900, 1300))
	s.Len(res.Parts, 2)

	s.Panics(func() {
		feedshot.New(cfg).MustSliceImage(page(100, 1300))
	})
	s.Panics(func() {
		feedshot.New(cfg).Renderer(&fakeRenderer{err: errRender}).MustSliceURL("http://feed.test/")
	})
	s.Panics(func() {
		feedshot.New(cfg).MustSliceFile("")
	})
	s.Panics(func() {
		feedshot.New(cfg).MustSliceDir("")
	})
}

func (s *S) TestLogger() {
	cfg := s.cfg()

	lines := 0
	_, err := feedshot.New(cfg).
		Logger(utils.Log(func(_ ...interface{}) { lines++ })).
		SliceImage(page(900, 1300))
	s.Require().NoError(err)
	s.Equal(4, lines)
}

func (s *S) TestIsError() {
	err := &feedshot.Error{Code: feedshot.ErrIO, Err: os.ErrPermission, Details: "a.png"}

	s.True(feedshot.IsError(err, feedshot.ErrIO))
	s.False(feedshot.IsError(err, feedshot.ErrRender))
	s.False(feedshot.IsError(nil, feedshot.ErrIO))
	s.True(feedshot.IsError(fmt.Errorf("run: %w", err), feedshot.ErrIO))
	s.ErrorIs(err, os.ErrPermission)
	s.Equal("[feedshot] io failed: permission denied\na.png", err.Error())
	s.Equal("[feedshot] invalid config: permission denied", (&feedshot.Error{Code: feedshot.ErrConfig, Err: os.ErrPermission}).Error())
}
