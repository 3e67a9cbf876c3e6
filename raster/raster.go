// Package raster turns PDF pages into slide-ready bitmaps. Rendering is
// behind the Renderer interface so the pipeline can run on the in-process
// MuPDF backend, the poppler CLI, or a test stub interchangeably.
package raster

import (
	"context"
	"errors"
	"fmt"
	"image"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// DefaultDPI is the render resolution used when the caller does not
// choose one.
const DefaultDPI = 150

// ErrUnavailable marks a renderer whose native backend is not present on
// this machine. Callers distinguish it from decode failures so the user
// is told to install the dependency instead of blaming the file.
var ErrUnavailable = errors.New("raster: renderer backend unavailable")

// ErrBadPDF marks input that is not a readable PDF.
var ErrBadPDF = errors.New("raster: not a readable PDF")

// Page is one rendered PDF page. Pages are transient: the pipeline
// consumes each into a single slide and drops it.
type Page struct {
	Index int // zero-based page number
	Image image.Image
}

// Renderer renders every page of a PDF file, in order.
type Renderer interface {
	Render(ctx context.Context, pdfPath string) ([]Page, error)
}

// Probe checks that a file parses as a PDF and returns its page count.
// It runs before rendering so a broken source file is reported as ErrBadPDF
// rather than as a backend failure.
func Probe(pdfPath string) (int, error) {
	n, err := api.PageCountFile(pdfPath)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrBadPDF, pdfPath, err)
	}
	if n < 1 {
		return 0, fmt.Errorf("%w: %s: no pages", ErrBadPDF, pdfPath)
	}
	return n, nil
}
