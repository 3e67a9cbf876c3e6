// Package combine implements the merge pipeline: collect the input
// files, pick or create the accumulator presentation, append every
// source in name order, and save the result. One broken input never
// aborts the run; only setup and save errors do.
package combine

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/deckmerge/deckmerge/deck"
	"github.com/deckmerge/deckmerge/geo"
	"github.com/deckmerge/deckmerge/observability"
	"github.com/deckmerge/deckmerge/office"
	"github.com/deckmerge/deckmerge/raster"
)

// ErrNoCandidates is returned when the input directory holds no
// presentation or PDF files. An output of zero sources would be an
// empty deck, which is never what the user meant.
var ErrNoCandidates = errors.New("combine: no presentation or PDF files found")

// Strategy selects how source presentations are transferred.
type Strategy int

const (
	// StrategySafe rebuilds supported shapes on blank slides. Default.
	StrategySafe Strategy = iota
	// StrategyInherit carries each source slide's layout graph across,
	// falling back per slide to a raw move onto a blank layout.
	StrategyInherit
	// StrategyRasterize exports each presentation to PDF through
	// LibreOffice and inserts page images. Degrades to StrategySafe
	// when LibreOffice is missing.
	StrategyRasterize
)

func (s Strategy) String() string {
	switch s {
	case StrategyInherit:
		return "inherit"
	case StrategyRasterize:
		return "rasterize"
	default:
		return "safe"
	}
}

// ParseStrategy maps a flag value to a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "safe":
		return StrategySafe, nil
	case "inherit":
		return StrategyInherit, nil
	case "rasterize":
		return StrategyRasterize, nil
	}
	return StrategySafe, fmt.Errorf("combine: unknown strategy %q (want safe, inherit or rasterize)", name)
}

// Progress is reported once per input file, before it is processed.
type Progress struct {
	FileIndex int // zero-based position in the collected list
	FileCount int
	Name      string
}

// Options configures a Combiner. The zero value is usable: safe
// strategy, MuPDF renderer, no logging.
type Options struct {
	Strategy Strategy

	// MatchFirstAspect resizes the canvas to the first rendered page's
	// aspect ratio. Only honored while the accumulator is still empty.
	MatchFirstAspect bool

	// MaxImageWidth caps embedded page images in pixels. Zero keeps the
	// rendered size.
	MaxImageWidth int

	Renderer   raster.Renderer
	Office     *office.Converter
	Logger     observability.Logger
	OnProgress func(Progress)
}

// Combiner runs the merge pipeline.
type Combiner struct {
	opts Options
	log  observability.Logger
}

// New returns a Combiner with defaults filled in.
func New(opts Options) *Combiner {
	if opts.Logger == nil {
		opts.Logger = observability.NopLogger{}
	}
	if opts.Renderer == nil {
		opts.Renderer = raster.NewFitzRenderer(0)
	}
	return &Combiner{opts: opts, log: opts.Logger}
}

// Run collects inputs from inputDir, merges them and saves the result
// to outputPath. The returned Report covers every collected file even
// when Run also returns an error. On cancellation nothing is saved.
func (c *Combiner) Run(ctx context.Context, inputDir, outputPath string) (*Report, error) {
	files, err := Collect(inputDir)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoCandidates, inputDir)
	}
	c.log.Info("collected inputs",
		observability.Int(observability.MetricFilesCollected, len(files)),
		observability.String("dir", inputDir))

	if c.opts.Strategy == StrategyRasterize && c.opts.Office == nil {
		c.log.Warn("LibreOffice not configured; presentations will be copied at safe fidelity")
	}

	report := &Report{OutputPath: outputPath}

	var pres *deck.Presentation
	start := 0
	matchAspect := false
	if files[0].Kind == KindPresentation {
		pres, err = deck.Open(files[0].Path)
		if err != nil {
			return nil, fmt.Errorf("open base presentation %s: %w", files[0].Name(), err)
		}
		report.Files = append(report.Files, FileResult{
			Name:   files[0].Name(),
			Kind:   KindPresentation,
			Status: FileBase,
			Slides: pres.SlideCount(),
		})
		c.log.Info("using base presentation",
			observability.String("file", files[0].Name()),
			observability.Int("slides", pres.SlideCount()))
		start = 1
	} else {
		pres, err = deck.New()
		if err != nil {
			return nil, err
		}
		matchAspect = c.opts.MatchFirstAspect
	}

	for i := start; i < len(files); i++ {
		if err := ctx.Err(); err != nil {
			report.Cancelled = true
			return report, err
		}
		f := files[i]
		if c.opts.OnProgress != nil {
			c.opts.OnProgress(Progress{FileIndex: i, FileCount: len(files), Name: f.Name()})
		}

		var res FileResult
		switch f.Kind {
		case KindPresentation:
			res = c.addPresentation(ctx, pres, f, &matchAspect)
		default:
			res = c.addPDF(ctx, pres, f, &matchAspect)
		}
		report.Files = append(report.Files, res)

		if ctx.Err() != nil {
			report.Cancelled = true
			return report, ctx.Err()
		}
	}

	saveStart := time.Now()
	if err := pres.Save(outputPath); err != nil {
		return report, fmt.Errorf("save %s: %w", outputPath, err)
	}
	report.TotalSlides = pres.SlideCount()
	c.log.Info("saved output",
		observability.String("path", outputPath),
		observability.Int(observability.MetricSlidesAdded, report.SlidesAdded()),
		observability.Int(observability.MetricShapesSkipped, report.ShapesSkipped()),
		observability.Int64(observability.MetricSaveTime, time.Since(saveStart).Milliseconds()))
	return report, nil
}

// addPresentation appends every slide of a source presentation.
func (c *Combiner) addPresentation(ctx context.Context, dst *deck.Presentation, f InputFile, matchAspect *bool) FileResult {
	log := c.log.With(observability.String("file", f.Name()))

	if c.opts.Strategy == StrategyRasterize && c.opts.Office != nil {
		res, ok := c.rasterizePresentation(ctx, dst, f, matchAspect, log)
		if ok {
			return res
		}
		log.Warn("falling back to safe shape copy")
	}

	res := FileResult{Name: f.Name(), Kind: f.Kind, Status: FileAdded}
	src, err := deck.Open(f.Path)
	if err != nil {
		log.Warn("skipping unreadable presentation", observability.Error("err", err))
		res.Status, res.Err = FileSkipped, err
		return res
	}
	slides, err := src.Slides()
	if err != nil {
		log.Warn("skipping presentation with broken slide list", observability.Error("err", err))
		res.Status, res.Err = FileSkipped, err
		return res
	}

	for _, sl := range slides {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		var shapes []deck.ShapeResult
		switch c.opts.Strategy {
		case StrategyInherit:
			shapes, err = dst.CopySlide(sl, deck.FidelityInherit)
			if err != nil {
				log.Warn("layout transfer failed, retrying on blank layout",
					observability.String("slide", sl.PartName()),
					observability.Error("err", err))
				shapes, err = dst.CopySlide(sl, deck.FidelityBlankRaw)
			}
		default:
			shapes, err = dst.CopySlide(sl, deck.FidelityReconstruct)
		}
		if err != nil {
			log.Error("slide transfer failed", observability.String("slide", sl.PartName()), observability.Error("err", err))
			res.Status, res.Err = FileFailed, err
			return res
		}

		res.Slides++
		res.Shapes = append(res.Shapes, shapes...)
		for _, sh := range shapes {
			if sh.Status != deck.ShapeCopied {
				log.Debug("shape not transferred",
					observability.String("slide", sl.PartName()),
					observability.Int("shape", sh.Index),
					observability.String("kind", sh.Kind.String()),
					observability.String("status", sh.Status.String()))
			}
		}
	}
	log.Info("added presentation", observability.Int("slides", res.Slides))
	return res
}

// addPDF renders a PDF and inserts one slide per page.
func (c *Combiner) addPDF(ctx context.Context, dst *deck.Presentation, f InputFile, matchAspect *bool) FileResult {
	res := FileResult{Name: f.Name(), Kind: f.Kind, Status: FileAdded}
	log := c.log.With(observability.String("file", f.Name()))

	renderStart := time.Now()
	pages, err := c.opts.Renderer.Render(ctx, f.Path)
	if err != nil {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res
		}
		switch {
		case errors.Is(err, raster.ErrUnavailable):
			log.Warn("no PDF renderer available, skipping file", observability.Error("err", err))
		case errors.Is(err, raster.ErrBadPDF):
			log.Warn("skipping unreadable PDF", observability.Error("err", err))
		default:
			log.Warn("skipping PDF after render failure", observability.Error("err", err))
		}
		res.Status, res.Err = FileSkipped, err
		return res
	}
	log.Debug("rendered PDF",
		observability.Int("pages", len(pages)),
		observability.Int64(observability.MetricRenderTime, time.Since(renderStart).Milliseconds()))

	c.addPages(ctx, dst, pages, matchAspect, &res, log)
	if res.Status == FileAdded {
		log.Info("added PDF", observability.Int("slides", res.Slides))
	}
	return res
}

// rasterizePresentation exports a .pptx to PDF through LibreOffice and
// inserts page images. ok is false when the export path is unusable and
// the caller should fall back to a shape copy.
func (c *Combiner) rasterizePresentation(ctx context.Context, dst *deck.Presentation, f InputFile, matchAspect *bool, log observability.Logger) (FileResult, bool) {
	res := FileResult{Name: f.Name(), Kind: f.Kind, Status: FileAdded}

	tmp, err := os.MkdirTemp("", "deckmerge-office-")
	if err != nil {
		log.Warn("cannot create temp dir for office export", observability.Error("err", err))
		return res, false
	}
	defer os.RemoveAll(tmp)

	pdfPath, err := c.opts.Office.ExportPDF(ctx, f.Path, tmp)
	if err != nil {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res, true
		}
		log.Warn("office export failed", observability.Error("err", err))
		return res, false
	}

	pages, err := c.opts.Renderer.Render(ctx, pdfPath)
	if err != nil {
		if ctx.Err() != nil {
			res.Err = ctx.Err()
			return res, true
		}
		log.Warn("rendering exported PDF failed", observability.Error("err", err))
		return res, false
	}

	c.addPages(ctx, dst, pages, matchAspect, &res, log)
	if res.Status == FileAdded {
		log.Info("added rasterized presentation", observability.Int("slides", res.Slides))
	}
	return res, true
}

// addPages inserts rendered pages as full-bleed picture slides. A page
// that will not encode is skipped; a slide that will not append fails
// the file.
func (c *Combiner) addPages(ctx context.Context, dst *deck.Presentation, pages []raster.Page, matchAspect *bool, res *FileResult, log observability.Logger) {
	for _, pg := range pages {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return
		}

		b := pg.Image.Bounds()
		if *matchAspect && dst.SlideCount() == 0 {
			if size, err := geo.MatchCanvas(dst.SlideSize(), b.Dx(), b.Dy()); err == nil {
				if err := dst.SetSlideSize(size); err == nil {
					log.Debug("matched canvas to first page",
						observability.Int64("w", int64(size.W)),
						observability.Int64("h", int64(size.H)))
				}
			}
			*matchAspect = false
		}

		data, w, h, err := raster.EncodePNG(pg.Image, c.opts.MaxImageWidth)
		if err != nil {
			log.Warn("skipping page that failed to encode",
				observability.Int("page", pg.Index),
				observability.Error("err", err))
			res.Shapes = append(res.Shapes, deck.ShapeResult{
				Index: pg.Index, Kind: deck.ShapePicture, Status: deck.ShapeFailed, Err: err,
			})
			continue
		}
		frame, err := geo.AspectFit(w, h, dst.SlideSize())
		if err != nil {
			log.Warn("skipping degenerate page image", observability.Int("page", pg.Index))
			res.Shapes = append(res.Shapes, deck.ShapeResult{
				Index: pg.Index, Kind: deck.ShapePicture, Status: deck.ShapeSkipped, Err: err,
			})
			continue
		}

		sl, err := dst.AppendBlankSlide()
		if err != nil {
			res.Status, res.Err = FileFailed, err
			return
		}
		if err := sl.AddPicture(data, "png", frame); err != nil {
			res.Status, res.Err = FileFailed, err
			return
		}
		res.Slides++
	}
}
