package raster

import (
	"context"
	"fmt"
	"image"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"

	_ "image/png" // pdftoppm output decoder
)

const popplerBinary = "pdftoppm"

// PopplerRenderer shells out to poppler's pdftoppm, the same backend the
// pdf2image ecosystem uses. It is the fallback when MuPDF is not wanted.
type PopplerRenderer struct {
	Binary string
	DPI    float64
}

// DetectPoppler looks for pdftoppm on PATH. A missing binary yields
// ErrUnavailable so callers can degrade with a clear message.
func DetectPoppler(dpi float64) (*PopplerRenderer, error) {
	bin, err := exec.LookPath(popplerBinary)
	if err != nil {
		return nil, fmt.Errorf("%w: %s not found in PATH (install poppler-utils)", ErrUnavailable, popplerBinary)
	}
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &PopplerRenderer{Binary: bin, DPI: dpi}, nil
}

// Render converts the PDF to PNG pages in a scratch directory, then
// decodes them in page order.
func (r *PopplerRenderer) Render(ctx context.Context, pdfPath string) ([]Page, error) {
	if r.Binary == "" {
		return nil, fmt.Errorf("%w: poppler renderer not detected", ErrUnavailable)
	}
	if _, err := Probe(pdfPath); err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp("", "deckmerge-poppler-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(tmp)

	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	prefix := filepath.Join(tmp, "page")
	cmd := exec.CommandContext(ctx, r.Binary,
		"-png", "-r", strconv.Itoa(int(dpi)), pdfPath, prefix)
	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("raster: %s failed for %s: %v: %s", popplerBinary, pdfPath, err, out)
	}

	names, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("raster: %s produced no pages for %s", popplerBinary, pdfPath)
	}
	// pdftoppm zero-pads page numbers, so a lexical sort is page order.
	sort.Strings(names)

	pages := make([]Page, 0, len(names))
	for i, name := range names {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		f, err := os.Open(name)
		if err != nil {
			return pages, err
		}
		img, _, err := image.Decode(f)
		f.Close()
		if err != nil {
			return pages, fmt.Errorf("raster: decode %s: %w", name, err)
		}
		pages = append(pages, Page{Index: i, Image: img})
	}
	return pages, nil
}
