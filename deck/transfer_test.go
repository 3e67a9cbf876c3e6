package deck

import (
	"path"
	"testing"

	"github.com/beevik/etree"

	"github.com/deckmerge/deckmerge/geo"
)

// sourceWithShapes builds a presentation holding one slide with a
// picture, a text box, an auto shape, and (optionally) a graphic frame
// the reconstructive copy does not support.
func sourceWithShapes(t *testing.T, withUnsupported bool) *Presentation {
	t.Helper()
	src, err := New()
	if err != nil {
		t.Fatal(err)
	}
	s, err := src.AppendBlankSlide()
	if err != nil {
		t.Fatal(err)
	}
	if err := s.AddPicture(pngBytes(t, 8, 8), "png", geo.Rect{Left: 0, Top: 0, W: 100, H: 100}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddTextBox(geo.Rect{Left: 10, Top: 10, W: 200, H: 50}, "title", TextStyle{}); err != nil {
		t.Fatal(err)
	}
	if err := s.AddAutoShape("roundRect", geo.Rect{Left: 30, Top: 30, W: 80, H: 80}, "", TextStyle{}); err != nil {
		t.Fatal(err)
	}
	if withUnsupported {
		frame := etree.NewElement("p:graphicFrame")
		nv := frame.CreateElement("p:nvGraphicFramePr")
		cNvPr := nv.CreateElement("p:cNvPr")
		cNvPr.CreateAttr("id", "99")
		cNvPr.CreateAttr("name", "Table 99")
		nv.CreateElement("p:cNvGraphicFramePr")
		nv.CreateElement("p:nvPr")
		xfrm := frame.CreateElement("p:xfrm")
		off := xfrm.CreateElement("a:off")
		off.CreateAttr("x", "0")
		off.CreateAttr("y", "0")
		ext := xfrm.CreateElement("a:ext")
		ext.CreateAttr("cx", "10")
		ext.CreateAttr("cy", "10")
		frame.CreateElement("a:graphic")
		if err := s.insertShape(frame); err != nil {
			t.Fatal(err)
		}
	}
	return src
}

func srcSlide(t *testing.T, p *Presentation) *Slide {
	t.Helper()
	slides, err := p.Slides()
	if err != nil {
		t.Fatal(err)
	}
	if len(slides) == 0 {
		t.Fatal("source has no slides")
	}
	return slides[0]
}

func TestCopySlideReconstruct(t *testing.T) {
	src := sourceWithShapes(t, true)
	dst, err := New()
	if err != nil {
		t.Fatal(err)
	}

	results, err := dst.CopySlide(srcSlide(t, src), FidelityReconstruct)
	if err != nil {
		t.Fatalf("CopySlide: %v", err)
	}
	if len(results) != 4 {
		t.Fatalf("got %d results, want 4", len(results))
	}

	copied, skipped := 0, 0
	for _, r := range results {
		switch r.Status {
		case ShapeCopied:
			copied++
		case ShapeSkipped:
			skipped++
		default:
			t.Errorf("shape %d (%s) failed: %v", r.Index, r.Kind, r.Err)
		}
	}
	if copied != 3 || skipped != 1 {
		t.Errorf("copied=%d skipped=%d, want 3/1", copied, skipped)
	}

	// The unsupported shape is dropped; the supported three survive a
	// round trip.
	got := reopen(t, dst)
	slides, err := got.Slides()
	if err != nil {
		t.Fatal(err)
	}
	if len(slides) != 1 {
		t.Fatalf("dst has %d slides, want 1", len(slides))
	}
	shapes := slides[0].Shapes()
	if len(shapes) != 3 {
		t.Fatalf("dst slide has %d shapes, want 3", len(shapes))
	}
	if shapes[0].Kind() != ShapePicture {
		t.Errorf("shape 0 kind = %s", shapes[0].Kind())
	}
	if _, _, err := shapes[0].PictureBytes(); err != nil {
		t.Errorf("reconstructed picture unreadable: %v", err)
	}
	if shapes[1].Text() != "title" {
		t.Errorf("shape 1 text = %q", shapes[1].Text())
	}
	if shapes[2].AutoShapePreset() != "roundRect" {
		t.Errorf("shape 2 preset = %q", shapes[2].AutoShapePreset())
	}
}

func TestCopySlideBlankRaw(t *testing.T) {
	src := sourceWithShapes(t, false)
	dst, err := New()
	if err != nil {
		t.Fatal(err)
	}

	results, err := dst.CopySlide(srcSlide(t, src), FidelityBlankRaw)
	if err != nil {
		t.Fatalf("CopySlide: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	got := reopen(t, dst)
	slides, _ := got.Slides()
	shapes := slides[0].Shapes()
	if len(shapes) != 3 {
		t.Fatalf("dst slide has %d shapes, want 3", len(shapes))
	}
	// The moved picture element must reference a relationship that
	// resolves inside the destination package.
	data, ext, err := shapes[0].PictureBytes()
	if err != nil {
		t.Fatalf("moved picture unresolvable: %v", err)
	}
	if ext != "png" || len(data) == 0 {
		t.Errorf("moved picture payload: ext=%q len=%d", ext, len(data))
	}
}

func TestCopySlideInherit(t *testing.T) {
	src := sourceWithShapes(t, false)
	dst, err := New()
	if err != nil {
		t.Fatal(err)
	}

	if _, err := dst.CopySlide(srcSlide(t, src), FidelityInherit); err != nil {
		t.Fatalf("CopySlide: %v", err)
	}

	got := reopen(t, dst)

	// The source layout graph was imported: a second master is
	// registered and the new slide's layout is not the destination's own.
	masters, err := got.masterPartNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(masters) != 2 {
		t.Fatalf("got %d masters, want 2", len(masters))
	}
	slides, err := got.Slides()
	if err != nil {
		t.Fatal(err)
	}
	layout, err := slides[0].layoutPartName()
	if err != nil {
		t.Fatal(err)
	}
	if layout == "ppt/slideLayouts/slideLayout1.xml" {
		t.Error("inherit copy used the destination blank layout")
	}
	if !got.pkg.HasPart(layout) {
		t.Errorf("imported layout %q missing from package", layout)
	}
	if len(slides[0].Shapes()) != 3 {
		t.Errorf("inherited slide has %d shapes, want 3", len(slides[0].Shapes()))
	}
}

func TestCopySlideInheritSharesImportedGraph(t *testing.T) {
	src := sourceWithShapes(t, false)
	sl := srcSlide(t, src)
	dst, err := New()
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		if _, err := dst.CopySlide(sl, FidelityInherit); err != nil {
			t.Fatalf("copy %d: %v", i, err)
		}
	}
	if n := dst.SlideCount(); n != 3 {
		t.Fatalf("dst has %d slides, want 3", n)
	}

	// The layout graph and media are imported once and shared; repeated
	// copies must not stack up masters, themes, or image parts.
	countParts := func(dir string) int {
		n := 0
		for _, name := range dst.pkg.Names() {
			if path.Dir(name) == dir {
				n++
			}
		}
		return n
	}
	if got := countParts("ppt/slideMasters"); got != 2 {
		t.Errorf("%d master parts, want 2 (own + one imported)", got)
	}
	if got := countParts("ppt/slideLayouts"); got != 2 {
		t.Errorf("%d layout parts, want 2", got)
	}
	if got := countParts("ppt/theme"); got != 2 {
		t.Errorf("%d theme parts, want 2", got)
	}
	if got := countParts("ppt/media"); got != 1 {
		t.Errorf("%d media parts, want 1", got)
	}

	masters, err := dst.masterPartNames()
	if err != nil {
		t.Fatal(err)
	}
	if len(masters) != 2 {
		t.Errorf("%d registered masters, want 2", len(masters))
	}
}

func TestCopySlideRawFailsOnDanglingRef(t *testing.T) {
	src := sourceWithShapes(t, false)
	slide := srcSlide(t, src)

	// Corrupt the source: point the picture at a relationship that does
	// not exist. Raw copy must fail the slide rather than emit a broken
	// reference.
	blip := slide.doc.FindElement("//a:blip")
	if blip == nil {
		t.Fatal("no blip in source slide")
	}
	blip.CreateAttr("r:embed", "rId999")

	dst, err := New()
	if err != nil {
		t.Fatal(err)
	}
	if _, err := dst.CopySlide(slide, FidelityBlankRaw); err == nil {
		t.Fatal("raw copy of slide with dangling relationship succeeded")
	}

	// The failed slide is rolled back: nothing in the slide list, no
	// orphan slide part, so a retry at another fidelity cannot duplicate
	// the source slide.
	if n := dst.SlideCount(); n != 0 {
		t.Errorf("failed copy left %d slide(s) in the accumulator", n)
	}
	if dst.pkg.HasPart("ppt/slides/slide1.xml") {
		t.Error("failed copy left its slide part behind")
	}
	good := sourceWithShapes(t, false)
	if _, err := dst.CopySlide(srcSlide(t, good), FidelityReconstruct); err != nil {
		t.Fatalf("copy after rollback: %v", err)
	}
	if n := dst.SlideCount(); n != 1 {
		t.Errorf("accumulator has %d slide(s) after retry, want 1", n)
	}

	// The reconstructive tier records the failure and completes.
	dst2, err := New()
	if err != nil {
		t.Fatal(err)
	}
	results, err := dst2.CopySlide(slide, FidelityReconstruct)
	if err != nil {
		t.Fatalf("reconstruct: %v", err)
	}
	var failed, copied int
	for _, r := range results {
		switch r.Status {
		case ShapeFailed:
			failed++
		case ShapeCopied:
			copied++
		}
	}
	if failed != 1 || copied != 2 {
		t.Errorf("failed=%d copied=%d, want 1/2", failed, copied)
	}
}
