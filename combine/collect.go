package combine

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Kind classifies a candidate input file.
type Kind int

const (
	KindPresentation Kind = iota
	KindPDF
)

func (k Kind) String() string {
	if k == KindPDF {
		return "pdf"
	}
	return "pptx"
}

// InputFile is one collected source file. Immutable once collected.
type InputFile struct {
	Path string
	Kind Kind
}

// Name returns the file's base name.
func (f InputFile) Name() string { return filepath.Base(f.Path) }

// lockPrefix marks editor lock/temp files that must never be treated as
// sources.
const lockPrefix = "~$"

// EnsurePptxExt appends .pptx to an output name that lacks it, so a user
// typing "combined" still gets a file PowerPoint will open.
func EnsurePptxExt(name string) string {
	if strings.HasSuffix(strings.ToLower(name), ".pptx") {
		return name
	}
	return name + ".pptx"
}

// ErrNoInputDir is returned when the input directory does not exist.
var ErrNoInputDir = errors.New("combine: input directory does not exist")

// Collect scans a directory for candidate inputs: .pptx and .pdf files
// (case-insensitive suffix), excluding lock files, sorted by name. The
// result is a pure function of the directory contents at call time; an
// empty directory yields an empty list, a missing one an error.
func Collect(dir string) ([]InputFile, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNoInputDir, dir)
		}
		return nil, err
	}

	var files []InputFile
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if strings.HasPrefix(name, lockPrefix) {
			continue
		}
		lower := strings.ToLower(name)
		switch {
		case strings.HasSuffix(lower, ".pptx"):
			files = append(files, InputFile{Path: filepath.Join(dir, name), Kind: KindPresentation})
		case strings.HasSuffix(lower, ".pdf"):
			files = append(files, InputFile{Path: filepath.Join(dir, name), Kind: KindPDF})
		}
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name() < files[j].Name()
	})
	return files, nil
}
