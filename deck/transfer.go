package deck

import (
	"fmt"

	"github.com/beevik/etree"

	"github.com/deckmerge/deckmerge/opc"
)

// Fidelity selects how a source slide is transferred into the
// accumulator. The tiers trade visual fidelity against robustness.
type Fidelity int

const (
	// FidelityReconstruct rebuilds supported shapes from scratch:
	// pictures from raw bytes, text boxes and auto shapes with plain
	// text plus first-run bold/size. Unsupported shapes are skipped.
	// Loses most formatting but cannot corrupt the destination.
	FidelityReconstruct Fidelity = iota

	// FidelityInherit imports the source slide's layout graph (layout,
	// master, theme, media) and moves the shape elements across.
	// Highest fidelity; an incompatible layout makes it fail.
	FidelityInherit

	// FidelityBlankRaw moves the shape elements onto the destination's
	// own blank layout. Keeps shape geometry and effects, loses the
	// source theme.
	FidelityBlankRaw
)

func (f Fidelity) String() string {
	switch f {
	case FidelityInherit:
		return "inherit"
	case FidelityBlankRaw:
		return "blank-raw"
	default:
		return "reconstruct"
	}
}

// ShapeStatus is the outcome of transferring one shape.
type ShapeStatus int

const (
	ShapeCopied ShapeStatus = iota
	ShapeSkipped
	ShapeFailed
)

func (s ShapeStatus) String() string {
	switch s {
	case ShapeCopied:
		return "copied"
	case ShapeSkipped:
		return "skipped"
	default:
		return "failed"
	}
}

// ShapeResult records the outcome for one source shape.
type ShapeResult struct {
	Index  int
	Kind   ShapeKind
	Name   string
	Status ShapeStatus
	Err    error
}

// CopySlide appends a copy of src to the presentation using the given
// fidelity. The reconstructive tier never returns an error for shape
// trouble; it records per-shape outcomes instead. The raw tiers fail the
// whole slide on the first bad shape, leaving fallback policy to the
// caller.
func (p *Presentation) CopySlide(src *Slide, fidelity Fidelity) ([]ShapeResult, error) {
	switch fidelity {
	case FidelityInherit:
		return p.copySlideInherit(src)
	case FidelityBlankRaw:
		return p.copySlideRaw(src, "")
	default:
		return p.copySlideReconstruct(src)
	}
}

func (p *Presentation) copySlideInherit(src *Slide) ([]ShapeResult, error) {
	srcLayout, err := src.layoutPartName()
	if err != nil {
		return nil, err
	}
	layout, err := p.importerFor(src.pres.pkg).Import(srcLayout)
	if err != nil {
		return nil, fmt.Errorf("deck: import layout %q: %w", srcLayout, err)
	}

	// The imported layout's master must be listed in the presentation
	// or the file will not open.
	layoutRels, err := p.pkg.Rels(layout)
	if err != nil {
		return nil, err
	}
	if rel, ok := layoutRels.FirstOfType(opc.RelTypeSlideMaster); ok {
		master := opc.ResolveTarget(layout, rel.Target)
		if _, err := p.registerMaster(master); err != nil {
			return nil, err
		}
	}
	return p.copySlideRaw(src, layout)
}

// copySlideRaw creates the destination slide (on the given layout, or the
// blank layout when empty) and moves deep copies of the source shape
// elements into it, remapping relationship-backed attributes.
func (p *Presentation) copySlideRaw(src *Slide, layout string) ([]ShapeResult, error) {
	var (
		dst *Slide
		err error
	)
	if layout == "" {
		dst, err = p.AppendBlankSlide()
	} else {
		dst, err = p.appendSlideOnLayout(layout)
	}
	if err != nil {
		return nil, err
	}

	var results []ShapeResult
	for i, shape := range src.Shapes() {
		copied := shape.element().Copy()
		if err := dst.remapRelAttrs(copied, src); err != nil {
			return results, p.dropFailedSlide(dst, fmt.Errorf("deck: shape %d (%s): %w", i, shape.Kind(), err))
		}
		if err := dst.insertShape(copied); err != nil {
			return results, p.dropFailedSlide(dst, err)
		}
		results = append(results, ShapeResult{Index: i, Kind: shape.Kind(), Name: shape.Name(), Status: ShapeCopied})
	}
	return results, dst.flush()
}

// dropFailedSlide rolls the half-built destination slide back out of the
// presentation so a failed copy never leaves a partial slide behind, then
// returns the original failure.
func (p *Presentation) dropFailedSlide(dst *Slide, cause error) error {
	if err := p.removeSlide(dst.partName); err != nil {
		return fmt.Errorf("deck: removing failed slide: %v (after: %w)", err, cause)
	}
	return cause
}

// remapRelAttrs walks a copied element tree and rewrites every r:
// attribute to a relationship owned by the destination slide, copying the
// referenced parts across. An unresolvable reference is an error; leaving
// it dangling would corrupt the output.
func (dst *Slide) remapRelAttrs(el *etree.Element, src *Slide) error {
	srcRels, err := src.pres.pkg.Rels(src.partName)
	if err != nil {
		return err
	}
	dstRels, err := dst.pres.pkg.Rels(dst.partName)
	if err != nil {
		return err
	}
	changed := false
	var walk func(e *etree.Element) error
	walk = func(e *etree.Element) error {
		for i := range e.Attr {
			attr := &e.Attr[i]
			if attr.Space != "r" {
				continue
			}
			rel, ok := srcRels.ByID(attr.Value)
			if !ok {
				return fmt.Errorf("relationship %s not present on source slide", attr.Value)
			}
			var newID string
			if rel.External() {
				newID = dstRels.AddExternal(rel.Type, rel.Target)
			} else {
				target := opc.ResolveTarget(src.partName, rel.Target)
				imported, err := dst.pres.importerFor(src.pres.pkg).Import(target)
				if err != nil {
					return err
				}
				newID = dstRels.Add(rel.Type, opc.RelativeTarget(dst.partName, imported))
			}
			attr.Value = newID
			changed = true
		}
		for _, child := range e.ChildElements() {
			if err := walk(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(el); err != nil {
		return err
	}
	if changed {
		return dst.pres.pkg.SetRels(dst.partName, dstRels)
	}
	return nil
}

// copySlideReconstruct rebuilds each supported shape on a fresh blank
// slide. Shape failures are recorded and skipped; the slide always
// completes.
func (p *Presentation) copySlideReconstruct(src *Slide) ([]ShapeResult, error) {
	dst, err := p.AppendBlankSlide()
	if err != nil {
		return nil, err
	}

	var results []ShapeResult
	for i, shape := range src.Shapes() {
		res := ShapeResult{Index: i, Kind: shape.Kind(), Name: shape.Name()}
		res.Status, res.Err = reconstructShape(dst, shape)
		results = append(results, res)
	}
	return results, nil
}

func reconstructShape(dst *Slide, shape *Shape) (ShapeStatus, error) {
	frame, ok := shape.Frame()
	if !ok {
		return ShapeSkipped, fmt.Errorf("no explicit placement")
	}
	switch shape.Kind() {
	case ShapePicture:
		data, ext, err := shape.PictureBytes()
		if err != nil {
			return ShapeFailed, err
		}
		if err := dst.AddPicture(data, ext, frame); err != nil {
			return ShapeFailed, err
		}
		return ShapeCopied, nil
	case ShapeTextBox:
		if err := dst.AddTextBox(frame, shape.Text(), shape.FirstRunStyle()); err != nil {
			return ShapeFailed, err
		}
		return ShapeCopied, nil
	case ShapeAutoShape:
		if err := dst.AddAutoShape(shape.AutoShapePreset(), frame, shape.Text(), shape.FirstRunStyle()); err != nil {
			return ShapeFailed, err
		}
		return ShapeCopied, nil
	default:
		return ShapeSkipped, fmt.Errorf("unsupported shape kind %s", shape.Kind())
	}
}
