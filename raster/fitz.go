package raster

import (
	"context"
	"fmt"

	"github.com/gen2brain/go-fitz"
)

// FitzRenderer renders PDFs in-process through MuPDF. It needs no
// external binary but does need the MuPDF native library at build time.
type FitzRenderer struct {
	// DPI is the render resolution; DefaultDPI when zero.
	DPI float64
}

// NewFitzRenderer returns a MuPDF-backed renderer at the given DPI
// (DefaultDPI when dpi <= 0).
func NewFitzRenderer(dpi float64) *FitzRenderer {
	if dpi <= 0 {
		dpi = DefaultDPI
	}
	return &FitzRenderer{DPI: dpi}
}

// Render renders every page of the PDF. The context is checked between
// pages; rendering a single page is not interruptible.
func (r *FitzRenderer) Render(ctx context.Context, pdfPath string) ([]Page, error) {
	if _, err := Probe(pdfPath); err != nil {
		return nil, err
	}
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("raster: open %s: %w", pdfPath, err)
	}
	defer doc.Close()

	dpi := r.DPI
	if dpi <= 0 {
		dpi = DefaultDPI
	}

	n := doc.NumPage()
	pages := make([]Page, 0, n)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return pages, err
		}
		img, err := doc.ImageDPI(i, dpi)
		if err != nil {
			return pages, fmt.Errorf("raster: render page %d of %s: %w", i+1, pdfPath, err)
		}
		pages = append(pages, Page{Index: i, Image: img})
	}
	return pages, nil
}
