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

// ShapeKind classifies a slide shape for the reconstructive copy.
type ShapeKind int

const (
	shapeNotAShape ShapeKind = iota - 1
	ShapeUnknown
	ShapePicture
	ShapeTextBox
	ShapeAutoShape
	ShapePlaceholder
	ShapeConnector
	ShapeGraphicFrame
	ShapeGroup
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePicture:
		return "picture"
	case ShapeTextBox:
		return "textbox"
	case ShapeAutoShape:
		return "autoshape"
	case ShapePlaceholder:
		return "placeholder"
	case ShapeConnector:
		return "connector"
	case ShapeGraphicFrame:
		return "graphicframe"
	case ShapeGroup:
		return "group"
	default:
		return "unknown"
	}
}

// shapeKindOf classifies a direct child of a shape tree. Non-shape
// children (the group properties, extension lists) yield shapeNotAShape.
func shapeKindOf(el *etree.Element) ShapeKind {
	if el.Space != "p" {
		return shapeNotAShape
	}
	switch el.Tag {
	case "pic":
		return ShapePicture
	case "graphicFrame":
		return ShapeGraphicFrame
	case "cxnSp":
		return ShapeConnector
	case "grpSp":
		return ShapeGroup
	case "sp":
		if nv := el.SelectElement("p:nvSpPr"); nv != nil {
			if nvPr := nv.SelectElement("p:nvPr"); nvPr != nil && nvPr.SelectElement("p:ph") != nil {
				return ShapePlaceholder
			}
			if c := nv.SelectElement("p:cNvSpPr"); c != nil && c.SelectAttrValue("txBox", "") == "1" {
				return ShapeTextBox
			}
		}
		if spPr := el.SelectElement("p:spPr"); spPr != nil && spPr.SelectElement("a:prstGeom") != nil {
			return ShapeAutoShape
		}
		return ShapeUnknown
	default:
		return shapeNotAShape
	}
}

// Shape is a read-only view of one source shape.
type Shape struct {
	slide *Slide
	el    *etree.Element
	kind  ShapeKind
}

// Kind returns the shape classification.
func (sh *Shape) Kind() ShapeKind { return sh.kind }

// Name returns the shape's declared name, if any.
func (sh *Shape) Name() string {
	if el := sh.el.FindElement(".//p:cNvPr"); el != nil {
		return el.SelectAttrValue("name", "")
	}
	return ""
}

// Frame returns the shape's placement. Shapes without an explicit
// transform (placeholders inheriting from the layout) report ok=false.
func (sh *Shape) Frame() (geo.Rect, bool) {
	var xfrm *etree.Element
	switch sh.kind {
	case ShapeGraphicFrame:
		xfrm = sh.el.SelectElement("p:xfrm")
	default:
		if spPr := sh.el.SelectElement("p:spPr"); spPr != nil {
			xfrm = spPr.SelectElement("a:xfrm")
		}
	}
	if xfrm == nil {
		return geo.Rect{}, false
	}
	off := xfrm.SelectElement("a:off")
	ext := xfrm.SelectElement("a:ext")
	if off == nil || ext == nil {
		return geo.Rect{}, false
	}
	x, _ := strconv.ParseInt(off.SelectAttrValue("x", "0"), 10, 64)
	y, _ := strconv.ParseInt(off.SelectAttrValue("y", "0"), 10, 64)
	cx, _ := strconv.ParseInt(ext.SelectAttrValue("cx", "0"), 10, 64)
	cy, _ := strconv.ParseInt(ext.SelectAttrValue("cy", "0"), 10, 64)
	return geo.Rect{Left: geo.EMU(x), Top: geo.EMU(y), W: geo.EMU(cx), H: geo.EMU(cy)}, true
}

// HasTextFrame reports whether the shape carries a text body.
func (sh *Shape) HasTextFrame() bool {
	return sh.el.SelectElement("p:txBody") != nil
}

// Text returns the shape's plain text, paragraphs joined with newlines.
func (sh *Shape) Text() string {
	tx := sh.el.SelectElement("p:txBody")
	if tx == nil {
		return ""
	}
	var paras []string
	for _, p := range tx.SelectElements("a:p") {
		var b strings.Builder
		for _, t := range p.FindElements(".//a:t") {
			b.WriteString(t.Text())
		}
		paras = append(paras, b.String())
	}
	return strings.Join(paras, "\n")
}

// FirstRunStyle returns the first run's size and bold attributes, the
// only formatting the reconstructive copy carries over.
func (sh *Shape) FirstRunStyle() TextStyle {
	var style TextStyle
	rPr := sh.el.FindElement("p:txBody/a:p/a:r/a:rPr")
	if rPr == nil {
		return style
	}
	if sz := rPr.SelectAttrValue("sz", ""); sz != "" {
		if n, err := strconv.Atoi(sz); err == nil {
			style.Size = &n
		}
	}
	if b := rPr.SelectAttrValue("b", ""); b != "" {
		bold := b == "1" || b == "true"
		style.Bold = &bold
	}
	return style
}

// AutoShapePreset returns the shape's preset geometry name ("rect",
// "ellipse", ...), empty when none is declared.
func (sh *Shape) AutoShapePreset() string {
	if spPr := sh.el.SelectElement("p:spPr"); spPr != nil {
		if prst := spPr.SelectElement("a:prstGeom"); prst != nil {
			return prst.SelectAttrValue("prst", "")
		}
	}
	return ""
}

// PictureBytes extracts a picture shape's raw image payload and its
// filename extension by following the blip's embed relationship.
func (sh *Shape) PictureBytes() ([]byte, string, error) {
	if sh.kind != ShapePicture {
		return nil, "", fmt.Errorf("deck: shape %q is not a picture", sh.Name())
	}
	blip := sh.el.FindElement("p:blipFill/a:blip")
	if blip == nil {
		return nil, "", fmt.Errorf("deck: picture %q has no blip", sh.Name())
	}
	rid := blip.SelectAttrValue("r:embed", "")
	if rid == "" {
		return nil, "", fmt.Errorf("deck: picture %q is linked, not embedded", sh.Name())
	}
	rels, err := sh.slide.pres.pkg.Rels(sh.slide.partName)
	if err != nil {
		return nil, "", err
	}
	rel, ok := rels.ByID(rid)
	if !ok {
		return nil, "", fmt.Errorf("deck: picture %q: relationship %s missing", sh.Name(), rid)
	}
	target := opc.ResolveTarget(sh.slide.partName, rel.Target)
	data, ok := sh.slide.pres.pkg.Part(target)
	if !ok {
		return nil, "", fmt.Errorf("deck: picture %q: media part %q missing", sh.Name(), target)
	}
	ext := strings.TrimPrefix(strings.ToLower(path.Ext(target)), ".")
	return data, ext, nil
}

// element returns the underlying XML element; the raw-copy strategies
// move deep copies of it between documents.
func (sh *Shape) element() *etree.Element { return sh.el }
