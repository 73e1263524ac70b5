// Package feedshot renders a page, partitions the full page screenshot into
// vertical chunks and writes every chunk as a numbered image file.
//
// The partition itself lives in lib/plan, it's pure and can be used alone.
package feedshot

import (
	"context"
	"image"
	"path/filepath"

	"github.com/feedshot/feedshot/lib/codec"
	"github.com/feedshot/feedshot/lib/config"
	"github.com/feedshot/feedshot/lib/plan"
	"github.com/feedshot/feedshot/lib/render"
	"github.com/feedshot/feedshot/lib/server"
	"github.com/feedshot/feedshot/lib/utils"
	"github.com/ysmood/goob"
	"golang.org/x/sync/errgroup"
)

// Renderer takes the full page screenshot of url in an encoded image format, usually PNG.
// It may block for the whole page load.
type Renderer interface {
	Render(ctx context.Context, url string) ([]byte, error)
}

// Slicer runs the render, plan and write pipeline.
// Runs against the same output directory must not overlap.
type Slicer struct {
	ctx           context.Context
	ctxCancel     func()
	timeoutCancel func()

	cfg      config.Config
	renderer Renderer
	codec    *codec.Codec
	logger   utils.Logger

	event *goob.Observable
}

// Result of a successful run
type Result struct {
	// Dir that holds the parts
	Dir string

	// Parts are the written file paths in page order
	Parts []string

	// Rects of the parts, Rects[i] is the area of Parts[i]
	Rects []plan.Rect

	// Width and Height of the sliced page
	Width  int
	Height int

	// Screenshot is the path of the kept full page screenshot, empty if it's removed
	Screenshot string
}

// New slicer with the cfg
func New(cfg config.Config) *Slicer {
	ctx, cancel := context.WithCancel(context.Background())

	return &Slicer{
		ctx:       ctx,
		ctxCancel: cancel,
		cfg:       cfg,
		logger:    utils.LoggerQuiet,
		event:     goob.New(context.Background()),
	}
}

// Config of the slicer
func (s *Slicer) Config() config.Config {
	return s.cfg
}

// Renderer to take the screenshot, the default one is a headless Chrome built from Config.Browser
func (s *Slicer) Renderer(r Renderer) *Slicer {
	s.renderer = r
	return s
}

// Codec to write the parts, the default one is built from Config.Format and Config.Quality
func (s *Slicer) Codec(c *codec.Codec) *Slicer {
	s.codec = c
	return s
}

// Logger for the progress
func (s *Slicer) Logger(l utils.Logger) *Slicer {
	s.logger = l
	return s
}

// SliceDir serves dir, then slices the page it serves.
// The server is stopped before it returns.
func (s *Slicer) SliceDir(dir string) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	srv, err := s.serve(dir)
	if err != nil {
		return nil, &Error{Code: ErrRender, Err: err, Details: dir}
	}
	defer func() { _ = srv.Close() }()

	return s.SliceURL(srv.URL)
}

// SliceURL renders u, then slices the screenshot
func (s *Slicer) SliceURL(u string) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	s.logger.Println("[feedshot] render", u)

	bin, err := s.getRenderer().Render(s.ctx, u)
	if err != nil {
		return nil, &Error{Code: ErrRender, Err: err, Details: u}
	}

	shot, release, err := s.storeScreenshot(bin)
	if err != nil {
		return nil, &Error{Code: ErrIO, Err: err, Details: shot}
	}
	defer release()

	img, err := codec.Decode(bin)
	if err != nil {
		return nil, &Error{Code: ErrRender, Err: err, Details: u}
	}

	b := img.Bounds()
	s.event.Publish(&EventRendered{URL: u, Width: b.Dx(), Height: b.Dy(), Screenshot: shot})

	res, err := s.slice(img)
	if err != nil {
		return nil, err
	}

	if s.cfg.KeepScreenshot {
		res.Screenshot = shot
	}
	return res, nil
}

// SliceFile slices a pre-existing image file
func (s *Slicer) SliceFile(path string) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}

	img, err := codec.Open(path)
	if err != nil {
		return nil, &Error{Code: ErrIO, Err: err, Details: path}
	}

	return s.slice(img)
}

// SliceImage partitions img and writes every part to Config.OutDir.
// The dir is reset once before the first write. If any part fails the dir is cleared again,
// so after a run it holds either all the parts or nothing.
func (s *Slicer) SliceImage(img image.Image) (*Result, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	return s.slice(img)
}

func (s *Slicer) slice(img image.Image) (res *Result, err error) {
	cfg := s.cfg

	if cfg.Trim {
		img = codec.Trim(img, uint8(cfg.TrimThreshold))
	}

	b := img.Bounds()

	// the rules are validated already, only an empty page can fail here
	list, err := plan.Plan(b.Dy(), cfg.Rules)
	if err != nil {
		return nil, &Error{Code: ErrConfig, Err: err, Details: b}
	}

	s.logger.Println("[feedshot] planned", len(list), "parts for height", b.Dy())
	s.event.Publish(&EventPlanned{Height: b.Dy(), Rects: list})

	if err := utils.ResetDir(cfg.OutDir); err != nil {
		return nil, &Error{Code: ErrIO, Err: err, Details: cfg.OutDir}
	}
	defer func() {
		if err != nil {
			_ = utils.ResetDir(cfg.OutDir)
		}
	}()

	c := s.getCodec()
	digits := partDigits(len(list), cfg.Digits)

	parts := make([]string, len(list))
	for i := range list {
		parts[i] = filepath.Join(cfg.OutDir, partName(cfg.Prefix, i+1, digits, c.Ext()))
	}

	g, ctx := errgroup.WithContext(s.ctx)
	g.SetLimit(max(cfg.Workers, 1))

	for i, r := range list {
		i, r := i, r
		g.Go(func() error {
			return s.writePart(ctx, img, c, i, r, parts[i])
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Println("[feedshot] done", cfg.OutDir)
	s.event.Publish(&EventDone{Dir: cfg.OutDir, Parts: parts})

	return &Result{
		Dir:    cfg.OutDir,
		Parts:  parts,
		Rects:  list,
		Width:  b.Dx(),
		Height: b.Dy(),
	}, nil
}

func (s *Slicer) writePart(ctx context.Context, img image.Image, c *codec.Codec, i int, r plan.Rect, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	part, err := codec.Extract(img, r.Top, 0, s.cfg.Width, r.Height)
	if err != nil {
		return &Error{Code: ErrExtract, Err: err, Details: r}
	}

	if s.cfg.Pad {
		if h := s.cfg.Rules.Nominal(r.Kind); h > r.Height {
			bg, _ := s.cfg.BackgroundColor()
			part = codec.Pad(part, s.cfg.Width, h, bg)
		}
	}

	if err := c.Write(part, path); err != nil {
		return &Error{Code: ErrIO, Err: err, Details: path}
	}

	s.logger.Println("[feedshot] part", i+1, r, path)
	s.event.Publish(&EventPart{Index: i + 1, Rect: r, Path: path})
	return nil
}

func (s *Slicer) validate() error {
	if err := s.cfg.Validate(); err != nil {
		return &Error{Code: ErrConfig, Err: err}
	}
	return nil
}

func (s *Slicer) getCodec() *codec.Codec {
	if s.codec != nil {
		return s.codec
	}

	// the format is validated already
	c, err := s.cfg.Codec()
	utils.E(err)
	return c
}

func (s *Slicer) getRenderer() Renderer {
	if s.renderer != nil {
		return s.renderer
	}

	return NewRenderer(s.cfg).Logger(s.logger)
}

// NewRenderer creates the headless Chrome renderer from cfg.Browser, the viewport is
// Config.Width x Config.ViewportHeight
func NewRenderer(cfg config.Config) *render.Chrome {
	b := cfg.Browser

	return render.New().
		Viewport(cfg.Width, cfg.ViewportHeight).
		Bin(b.Bin).
		Remote(b.Remote).
		Show(b.Show).
		NoSandbox(b.NoSandbox).
		Trace(b.Trace).
		Settle(b.Settle).
		Timeout(b.Timeout)
}

func (s *Slicer) serve(dir string) (*server.Server, error) {
	opts := s.cfg.Server

	logger := utils.LoggerQuiet
	if s.cfg.Browser.Trace {
		logger = s.logger
	}

	if len(opts.Command) == 0 {
		return server.Static(dir, opts.Addr, logger)
	}

	return server.Command(s.ctx, server.CommandOptions{
		Name:    opts.Command[0],
		Args:    opts.Command[1:],
		Dir:     dir,
		URL:     opts.URL,
		Ready:   opts.Ready,
		Timeout: opts.StartTimeout,
		Logger:  logger,
	})
}
