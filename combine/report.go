package combine

import "github.com/deckmerge/deckmerge/deck"

// FileStatus is the outcome of processing one input file.
type FileStatus int

const (
	// FileBase marks the first .pptx, used as the accumulator.
	FileBase FileStatus = iota
	// FileAdded means at least the file was processed and its content
	// appended; individual shapes may still have been skipped.
	FileAdded
	// FileSkipped means the file contributed nothing but the run went on.
	FileSkipped
	// FileFailed means processing the file aborted partway.
	FileFailed
)

func (s FileStatus) String() string {
	switch s {
	case FileBase:
		return "base"
	case FileAdded:
		return "added"
	case FileSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// FileResult is the per-file record of a run. Every collected file gets
// exactly one, in input order.
type FileResult struct {
	Name   string
	Kind   Kind
	Status FileStatus
	Slides int // slides this file contributed to the output
	Shapes []deck.ShapeResult
	Err    error
}

// Report is the full account of one combine run.
type Report struct {
	OutputPath  string
	Files       []FileResult
	TotalSlides int
	Cancelled   bool
}

// SlidesAdded is the number of slides contributed by non-base files.
func (r *Report) SlidesAdded() int {
	n := 0
	for _, f := range r.Files {
		if f.Status != FileBase {
			n += f.Slides
		}
	}
	return n
}

// ShapesSkipped counts shapes that could not be transferred.
func (r *Report) ShapesSkipped() int {
	n := 0
	for _, f := range r.Files {
		for _, sh := range f.Shapes {
			if sh.Status != deck.ShapeCopied {
				n++
			}
		}
	}
	return n
}

// FilesSkipped counts inputs that contributed nothing.
func (r *Report) FilesSkipped() int {
	n := 0
	for _, f := range r.Files {
		if f.Status == FileSkipped || f.Status == FileFailed {
			n++
		}
	}
	return n
}
