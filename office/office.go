// Package office drives a headless LibreOffice to export presentations
// to PDF. It exists for the maximum-fidelity transfer mode: a slide
// rendered by a real presentation application looks exactly right, at
// the cost of editability and of requiring the application at all.
package office

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
)

// ErrUnavailable means no usable LibreOffice binary was found; callers
// degrade to the reconstructive copy.
var ErrUnavailable = errors.New("office: LibreOffice not found")

// macOS installs LibreOffice outside PATH.
const darwinSofficePath = "/Applications/LibreOffice.app/Contents/MacOS/soffice"

// Converter exports presentation files to PDF through soffice.
type Converter struct {
	Binary string
}

// Detect locates the soffice binary. PATH first, then the platform
// install location.
func Detect() (*Converter, error) {
	if bin, err := exec.LookPath("soffice"); err == nil {
		return &Converter{Binary: bin}, nil
	}
	if runtime.GOOS == "darwin" {
		if _, err := os.Stat(darwinSofficePath); err == nil {
			return &Converter{Binary: darwinSofficePath}, nil
		}
	}
	return nil, fmt.Errorf("%w: install LibreOffice or put soffice on PATH", ErrUnavailable)
}

// ExportPDF converts the presentation to a PDF inside outDir and returns
// the PDF path. soffice names the output after the input's stem.
func (c *Converter) ExportPDF(ctx context.Context, inputPath, outDir string) (string, error) {
	if c == nil || c.Binary == "" {
		return "", ErrUnavailable
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", err
	}

	cmd := exec.CommandContext(ctx, c.Binary,
		"--headless", "--convert-to", "pdf", "--outdir", outDir, inputPath)
	out, err := cmd.CombinedOutput()
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("office: convert %s: %v: %s", inputPath, err, out)
	}

	stem := strings.TrimSuffix(filepath.Base(inputPath), filepath.Ext(inputPath))
	pdfPath := filepath.Join(outDir, stem+".pdf")
	if st, err := os.Stat(pdfPath); err != nil || st.Size() == 0 {
		return "", fmt.Errorf("office: convert %s: no output produced (%s)", inputPath, strings.TrimSpace(string(out)))
	}
	return pdfPath, nil
}
