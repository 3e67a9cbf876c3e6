package deck

import (
	"fmt"
	"path"
	"strconv"
	"strings"

	"github.com/beevik/etree"

	"github.com/deckmerge/deckmerge/geo"
	"github.com/deckmerge/deckmerge/opc"
)

// Slide is one slide of an open presentation. Mutating methods write the
// slide part back into the package before returning.
type Slide struct {
	pres     *Presentation
	partName string
	doc      *etree.Document
}

// PartName returns the slide's package part name.
func (s *Slide) PartName() string { return s.partName }

func (s *Slide) flush() error {
	data, err := s.doc.WriteToBytes()
	if err != nil {
		return err
	}
	s.pres.pkg.SetPart(s.partName, data)
	return nil
}

// spTree returns the slide's shape tree element.
func (s *Slide) spTree() *etree.Element {
	cSld := s.doc.Root().SelectElement("p:cSld")
	if cSld == nil {
		return nil
	}
	return cSld.SelectElement("p:spTree")
}

// Shapes returns the slide's top-level shapes in document order.
func (s *Slide) Shapes() []*Shape {
	tree := s.spTree()
	if tree == nil {
		return nil
	}
	var shapes []*Shape
	for _, el := range tree.ChildElements() {
		if kind := shapeKindOf(el); kind != shapeNotAShape {
			shapes = append(shapes, &Shape{slide: s, el: el, kind: kind})
		}
	}
	return shapes
}

// layoutPartName resolves the slide's layout part.
func (s *Slide) layoutPartName() (string, error) {
	rels, err := s.pres.pkg.Rels(s.partName)
	if err != nil {
		return "", err
	}
	rel, ok := rels.FirstOfType(opc.RelTypeSlideLayout)
	if !ok {
		return "", fmt.Errorf("deck: slide %q has no layout relationship", s.partName)
	}
	return opc.ResolveTarget(s.partName, rel.Target), nil
}

// nextShapeID allocates a shape id above every id already on the slide.
func (s *Slide) nextShapeID() int {
	max := 1
	for _, el := range s.doc.FindElements("//p:cNvPr") {
		if id, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && id > max {
			max = id
		}
	}
	return max + 1
}

// insertShape places a shape element at the end of the shape tree, before
// a trailing p:extLst if one is present.
func (s *Slide) insertShape(el *etree.Element) error {
	tree := s.spTree()
	if tree == nil {
		return fmt.Errorf("deck: slide %q has no shape tree", s.partName)
	}
	if ext := tree.SelectElement("p:extLst"); ext != nil {
		tree.InsertChildAt(ext.Index(), el)
	} else {
		tree.AddChild(el)
	}
	return s.flush()
}

// contentTypeForImageExt maps an image filename extension to its MIME type.
func contentTypeForImageExt(ext string) string {
	switch strings.ToLower(strings.TrimPrefix(ext, ".")) {
	case "png":
		return "image/png"
	case "jpg", "jpeg":
		return "image/jpeg"
	case "gif":
		return "image/gif"
	case "bmp":
		return "image/bmp"
	case "tif", "tiff":
		return "image/tiff"
	case "emf":
		return "image/x-emf"
	case "wmf":
		return "image/x-wmf"
	default:
		return ""
	}
}

// addMedia stores image bytes as a media part and relates it to the
// slide, returning the relationship id.
func (s *Slide) addMedia(data []byte, ext string) (string, error) {
	ext = strings.ToLower(strings.TrimPrefix(ext, "."))
	ct := contentTypeForImageExt(ext)
	if ct == "" {
		return "", fmt.Errorf("deck: unsupported image extension %q", ext)
	}
	name := s.pres.nextMediaName(ext)
	s.pres.pkg.SetPart(name, data)
	if !s.pres.pkg.Types().HasDefault(ext) {
		s.pres.pkg.Types().SetDefault(ext, ct)
	}
	rels, err := s.pres.pkg.Rels(s.partName)
	if err != nil {
		return "", err
	}
	rid := rels.Add(opc.RelTypeImage, opc.RelativeTarget(s.partName, name))
	if err := s.pres.pkg.SetRels(s.partName, rels); err != nil {
		return "", err
	}
	return rid, nil
}

// nextMediaName allocates ppt/media/image<n>.<ext>.
func (p *Presentation) nextMediaName(ext string) string {
	max := 0
	for _, n := range p.pkg.Names() {
		if path.Dir(n) != "ppt/media" {
			continue
		}
		base := path.Base(n)
		base = strings.TrimSuffix(base, path.Ext(base))
		var num int
		if _, err := fmt.Sscanf(base, "image%d", &num); err == nil && num > max {
			max = num
		}
	}
	return fmt.Sprintf("ppt/media/image%d.%s", max+1, ext)
}

// AddPicture embeds image bytes as a picture shape at the given frame.
func (s *Slide) AddPicture(data []byte, ext string, frame geo.Rect) error {
	rid, err := s.addMedia(data, ext)
	if err != nil {
		return err
	}
	id := s.nextShapeID()

	pic := etree.NewElement("p:pic")
	nv := pic.CreateElement("p:nvPicPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", fmt.Sprintf("Picture %d", id))
	cNvPicPr := nv.CreateElement("p:cNvPicPr")
	cNvPicPr.CreateElement("a:picLocks").CreateAttr("noChangeAspect", "1")
	nv.CreateElement("p:nvPr")

	fill := pic.CreateElement("p:blipFill")
	fill.CreateElement("a:blip").CreateAttr("r:embed", rid)
	fill.CreateElement("a:stretch").CreateElement("a:fillRect")

	spPr := pic.CreateElement("p:spPr")
	writeXfrm(spPr, frame)
	prst := spPr.CreateElement("a:prstGeom")
	prst.CreateAttr("prst", "rect")
	prst.CreateElement("a:avLst")

	return s.insertShape(pic)
}

// TextStyle carries the best-effort run formatting the reconstructive
// copy preserves: size in centipoints and bold, each optional.
type TextStyle struct {
	Size *int
	Bold *bool
}

// AddTextBox adds a text-box shape holding plain text. Paragraphs are
// split on newlines; style applies to every run.
func (s *Slide) AddTextBox(frame geo.Rect, text string, style TextStyle) error {
	id := s.nextShapeID()

	sp := etree.NewElement("p:sp")
	nv := sp.CreateElement("p:nvSpPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", fmt.Sprintf("TextBox %d", id))
	nv.CreateElement("p:cNvSpPr").CreateAttr("txBox", "1")
	nv.CreateElement("p:nvPr")

	spPr := sp.CreateElement("p:spPr")
	writeXfrm(spPr, frame)
	prst := spPr.CreateElement("a:prstGeom")
	prst.CreateAttr("prst", "rect")
	prst.CreateElement("a:avLst")
	spPr.CreateElement("a:noFill")

	writeTxBody(sp, text, style)
	return s.insertShape(sp)
}

// AddAutoShape adds a preset-geometry shape, optionally with text.
func (s *Slide) AddAutoShape(preset string, frame geo.Rect, text string, style TextStyle) error {
	if preset == "" {
		preset = "rect"
	}
	id := s.nextShapeID()

	sp := etree.NewElement("p:sp")
	nv := sp.CreateElement("p:nvSpPr")
	cNvPr := nv.CreateElement("p:cNvPr")
	cNvPr.CreateAttr("id", strconv.Itoa(id))
	cNvPr.CreateAttr("name", fmt.Sprintf("Shape %d", id))
	nv.CreateElement("p:cNvSpPr")
	nv.CreateElement("p:nvPr")

	spPr := sp.CreateElement("p:spPr")
	writeXfrm(spPr, frame)
	prst := spPr.CreateElement("a:prstGeom")
	prst.CreateAttr("prst", preset)
	prst.CreateElement("a:avLst")

	writeTxBody(sp, text, style)
	return s.insertShape(sp)
}

func writeXfrm(spPr *etree.Element, frame geo.Rect) {
	xfrm := spPr.CreateElement("a:xfrm")
	off := xfrm.CreateElement("a:off")
	off.CreateAttr("x", strconv.FormatInt(int64(frame.Left), 10))
	off.CreateAttr("y", strconv.FormatInt(int64(frame.Top), 10))
	ext := xfrm.CreateElement("a:ext")
	ext.CreateAttr("cx", strconv.FormatInt(int64(frame.W), 10))
	ext.CreateAttr("cy", strconv.FormatInt(int64(frame.H), 10))
}

func writeTxBody(sp *etree.Element, text string, style TextStyle) {
	tx := sp.CreateElement("p:txBody")
	tx.CreateElement("a:bodyPr").CreateAttr("wrap", "square")
	tx.CreateElement("a:lstStyle")
	paras := strings.Split(text, "\n")
	if text == "" {
		paras = []string{""}
	}
	for _, para := range paras {
		pEl := tx.CreateElement("a:p")
		if para == "" {
			continue
		}
		r := pEl.CreateElement("a:r")
		rPr := r.CreateElement("a:rPr")
		rPr.CreateAttr("lang", "en-US")
		if style.Size != nil {
			rPr.CreateAttr("sz", strconv.Itoa(*style.Size))
		}
		if style.Bold != nil && *style.Bold {
			rPr.CreateAttr("b", "1")
		}
		r.CreateElement("a:t").SetText(para)
	}
}
