// Package deck is a presentation document model over the opc container:
// enough of PresentationML to open, build, and merge slide decks. It is
// the accumulator the combine pipeline writes into.
package deck

import (
	"errors"
	"fmt"
	"io"
	"path"
	"strconv"

	"github.com/beevik/etree"

	"github.com/deckmerge/deckmerge/geo"
	"github.com/deckmerge/deckmerge/opc"
)

const presentationPart = "ppt/presentation.xml"

// ErrSlidesExist is returned by SetSlideSize once the presentation holds
// any slide; the canvas is fixed from the first slide onward.
var ErrSlidesExist = errors.New("deck: slide size is immutable once slides exist")

// Presentation is an open presentation document. It is not safe for
// concurrent use.
type Presentation struct {
	pkg *opc.Package
	doc *etree.Document // ppt/presentation.xml

	// importers is keyed by source package so part graphs shared by
	// several slides of one source (master, theme, media) are copied in
	// exactly once.
	importers map[*opc.Package]*opc.Importer
}

// Open loads a presentation from a .pptx file.
func Open(name string) (*Presentation, error) {
	pkg, err := opc.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return fromPackage(pkg)
}

// OpenReader loads a presentation from an io.ReaderAt.
func OpenReader(r io.ReaderAt, size int64) (*Presentation, error) {
	pkg, err := opc.ReadFrom(r, size)
	if err != nil {
		return nil, err
	}
	return fromPackage(pkg)
}

// New creates an empty presentation from the embedded blank template:
// 4:3 canvas, one master, one blank layout, no slides.
func New() (*Presentation, error) {
	return fromPackage(newTemplatePackage())
}

func fromPackage(pkg *opc.Package) (*Presentation, error) {
	data, ok := pkg.Part(presentationPart)
	if !ok {
		return nil, fmt.Errorf("deck: package has no %s", presentationPart)
	}
	doc, err := opc.ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("deck: parse %s: %w", presentationPart, err)
	}
	if doc.Root() == nil {
		return nil, fmt.Errorf("deck: %s has no root element", presentationPart)
	}
	return &Presentation{
		pkg:       pkg,
		doc:       doc,
		importers: make(map[*opc.Package]*opc.Importer),
	}, nil
}

// importerFor returns the cached importer for a source package.
func (p *Presentation) importerFor(src *opc.Package) *opc.Importer {
	im, ok := p.importers[src]
	if !ok {
		im = opc.NewImporter(p.pkg, src)
		p.importers[src] = im
	}
	return im
}

// flush serializes the presentation document back into the package.
func (p *Presentation) flush() error {
	data, err := p.doc.WriteToBytes()
	if err != nil {
		return err
	}
	p.pkg.SetPart(presentationPart, data)
	return nil
}

// Write serializes the whole package.
func (p *Presentation) Write(w io.Writer) error {
	if err := p.flush(); err != nil {
		return err
	}
	return p.pkg.WriteTo(w)
}

// Save writes the presentation to a .pptx file.
func (p *Presentation) Save(name string) error {
	if err := p.flush(); err != nil {
		return err
	}
	return p.pkg.SaveFile(name)
}

// SlideSize returns the canvas size in EMU.
func (p *Presentation) SlideSize() geo.Size {
	el := p.doc.Root().SelectElement("p:sldSz")
	if el == nil {
		return geo.Size{}
	}
	cx, _ := strconv.ParseInt(el.SelectAttrValue("cx", "0"), 10, 64)
	cy, _ := strconv.ParseInt(el.SelectAttrValue("cy", "0"), 10, 64)
	return geo.Size{W: geo.EMU(cx), H: geo.EMU(cy)}
}

// SetSlideSize changes the canvas. Legal only while the presentation has
// no slides; callers use this to match the first raster's aspect ratio.
func (p *Presentation) SetSlideSize(size geo.Size) error {
	if p.SlideCount() > 0 {
		return ErrSlidesExist
	}
	el := p.doc.Root().SelectElement("p:sldSz")
	if el == nil {
		el = p.doc.Root().CreateElement("p:sldSz")
	}
	el.CreateAttr("cx", strconv.FormatInt(int64(size.W), 10))
	el.CreateAttr("cy", strconv.FormatInt(int64(size.H), 10))
	el.RemoveAttr("type")
	return p.flush()
}

// SlideCount returns the number of slides.
func (p *Presentation) SlideCount() int {
	lst := p.doc.Root().SelectElement("p:sldIdLst")
	if lst == nil {
		return 0
	}
	return len(lst.SelectElements("p:sldId"))
}

// slidePartNames returns slide part names in presentation order.
func (p *Presentation) slidePartNames() ([]string, error) {
	rels, err := p.pkg.Rels(presentationPart)
	if err != nil {
		return nil, err
	}
	lst := p.doc.Root().SelectElement("p:sldIdLst")
	if lst == nil {
		return nil, nil
	}
	var names []string
	for _, sldID := range lst.SelectElements("p:sldId") {
		rid := sldID.SelectAttrValue("r:id", "")
		rel, ok := rels.ByID(rid)
		if !ok {
			return nil, fmt.Errorf("deck: slide relationship %q missing", rid)
		}
		names = append(names, opc.ResolveTarget(presentationPart, rel.Target))
	}
	return names, nil
}

// Slides returns the slides in presentation order.
func (p *Presentation) Slides() ([]*Slide, error) {
	names, err := p.slidePartNames()
	if err != nil {
		return nil, err
	}
	slides := make([]*Slide, 0, len(names))
	for _, name := range names {
		s, err := p.slide(name)
		if err != nil {
			return nil, err
		}
		slides = append(slides, s)
	}
	return slides, nil
}

func (p *Presentation) slide(partName string) (*Slide, error) {
	data, ok := p.pkg.Part(partName)
	if !ok {
		return nil, fmt.Errorf("deck: slide part %q missing", partName)
	}
	doc, err := opc.ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("deck: parse slide %q: %w", partName, err)
	}
	return &Slide{pres: p, partName: partName, doc: doc}, nil
}

// masterPartNames returns slide master part names in document order.
func (p *Presentation) masterPartNames() ([]string, error) {
	rels, err := p.pkg.Rels(presentationPart)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, rel := range rels.AllOfType(opc.RelTypeSlideMaster) {
		names = append(names, opc.ResolveTarget(presentationPart, rel.Target))
	}
	return names, nil
}

// layoutPartNames returns the first master's layout part names in the
// master's declared order.
func (p *Presentation) layoutPartNames() ([]string, error) {
	masters, err := p.masterPartNames()
	if err != nil {
		return nil, err
	}
	if len(masters) == 0 {
		return nil, errors.New("deck: presentation has no slide master")
	}
	master := masters[0]
	data, ok := p.pkg.Part(master)
	if !ok {
		return nil, fmt.Errorf("deck: master part %q missing", master)
	}
	doc, err := opc.ParseXML(data)
	if err != nil {
		return nil, err
	}
	rels, err := p.pkg.Rels(master)
	if err != nil {
		return nil, err
	}
	lst := doc.Root().SelectElement("p:sldLayoutIdLst")
	if lst == nil {
		return nil, fmt.Errorf("deck: master %q declares no layouts", master)
	}
	var names []string
	for _, idEl := range lst.SelectElements("p:sldLayoutId") {
		rel, ok := rels.ByID(idEl.SelectAttrValue("r:id", ""))
		if !ok {
			continue
		}
		names = append(names, opc.ResolveTarget(master, rel.Target))
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("deck: master %q declares no layouts", master)
	}
	return names, nil
}

// blankLayout picks the layout new image/reconstructed slides are created
// from: index 6 when the master has more than six layouts (the blank
// layout's conventional position), otherwise the last layout.
func (p *Presentation) blankLayout() (string, error) {
	layouts, err := p.layoutPartNames()
	if err != nil {
		return "", err
	}
	if len(layouts) > 6 {
		return layouts[6], nil
	}
	return layouts[len(layouts)-1], nil
}

// AppendBlankSlide appends a slide built on the blank layout.
func (p *Presentation) AppendBlankSlide() (*Slide, error) {
	layout, err := p.blankLayout()
	if err != nil {
		return nil, err
	}
	return p.appendSlideOnLayout(layout)
}

// appendSlideOnLayout creates an empty slide part referencing the given
// layout and registers it at the end of the slide list.
func (p *Presentation) appendSlideOnLayout(layoutPart string) (*Slide, error) {
	if !p.pkg.HasPart(layoutPart) {
		return nil, fmt.Errorf("deck: layout part %q missing", layoutPart)
	}
	name := p.nextSlideName()
	p.pkg.SetPart(name, templatePart("slide.xml"))
	p.pkg.Types().SetOverride(name, opc.CTSlide)

	slideRels, err := p.pkg.Rels(name)
	if err != nil {
		return nil, err
	}
	slideRels.Add(opc.RelTypeSlideLayout, opc.RelativeTarget(name, layoutPart))
	if err := p.pkg.SetRels(name, slideRels); err != nil {
		return nil, err
	}

	presRels, err := p.pkg.Rels(presentationPart)
	if err != nil {
		return nil, err
	}
	rid := presRels.Add(opc.RelTypeSlide, opc.RelativeTarget(presentationPart, name))
	if err := p.pkg.SetRels(presentationPart, presRels); err != nil {
		return nil, err
	}

	root := p.doc.Root()
	lst := root.SelectElement("p:sldIdLst")
	if lst == nil {
		lst = root.CreateElement("p:sldIdLst")
	}
	sldID := lst.CreateElement("p:sldId")
	sldID.CreateAttr("id", strconv.Itoa(p.nextSlideID()))
	sldID.CreateAttr("r:id", rid)
	if err := p.flush(); err != nil {
		return nil, err
	}
	return p.slide(name)
}

// nextSlideName allocates ppt/slides/slide<n>.xml for the lowest unused n
// above the current maximum.
func (p *Presentation) nextSlideName() string {
	max := 0
	for _, n := range p.pkg.Names() {
		dir, base := path.Dir(n), path.Base(n)
		if dir != "ppt/slides" {
			continue
		}
		var num int
		if _, err := fmt.Sscanf(base, "slide%d.xml", &num); err == nil && num > max {
			max = num
		}
	}
	return fmt.Sprintf("ppt/slides/slide%d.xml", max+1)
}

// nextSlideID allocates a slide id; PresentationML requires ids >= 256.
func (p *Presentation) nextSlideID() int {
	max := 255
	if lst := p.doc.Root().SelectElement("p:sldIdLst"); lst != nil {
		for _, el := range lst.SelectElements("p:sldId") {
			if id, err := strconv.Atoi(el.SelectAttrValue("id", "")); err == nil && id > max {
				max = id
			}
		}
	}
	return max + 1
}

// removeSlide unregisters a slide from the slide list and presentation
// relationships and drops its part. Used to roll back a slide whose
// content could not be transferred, so a failed copy leaves the slide
// count and order untouched.
func (p *Presentation) removeSlide(partName string) error {
	presRels, err := p.pkg.Rels(presentationPart)
	if err != nil {
		return err
	}
	rid := ""
	for _, rel := range presRels.AllOfType(opc.RelTypeSlide) {
		if opc.ResolveTarget(presentationPart, rel.Target) == partName {
			rid = rel.ID
			break
		}
	}
	if rid != "" {
		presRels.Remove(rid)
		if err := p.pkg.SetRels(presentationPart, presRels); err != nil {
			return err
		}
		if lst := p.doc.Root().SelectElement("p:sldIdLst"); lst != nil {
			for _, el := range lst.SelectElements("p:sldId") {
				if el.SelectAttrValue("r:id", "") == rid {
					lst.RemoveChild(el)
					break
				}
			}
		}
	}
	p.pkg.RemovePart(partName)
	return p.flush()
}

// registerMaster adds an imported master part to the presentation's
// master list if it is not already registered. Returns the master's rId.
func (p *Presentation) registerMaster(masterPart string) (string, error) {
	presRels, err := p.pkg.Rels(presentationPart)
	if err != nil {
		return "", err
	}
	for _, rel := range presRels.AllOfType(opc.RelTypeSlideMaster) {
		if opc.ResolveTarget(presentationPart, rel.Target) == masterPart {
			return rel.ID, nil
		}
	}
	rid := presRels.Add(opc.RelTypeSlideMaster, opc.RelativeTarget(presentationPart, masterPart))
	if err := p.pkg.SetRels(presentationPart, presRels); err != nil {
		return "", err
	}

	root := p.doc.Root()
	lst := root.SelectElement("p:sldMasterIdLst")
	if lst == nil {
		lst = root.CreateElement("p:sldMasterIdLst")
	}
	max := int64(2147483647) // master ids start at 2^31
	for _, el := range lst.SelectElements("p:sldMasterId") {
		if id, err := strconv.ParseInt(el.SelectAttrValue("id", ""), 10, 64); err == nil && id > max {
			max = id
		}
	}
	idEl := lst.CreateElement("p:sldMasterId")
	idEl.CreateAttr("id", strconv.FormatInt(max+1, 10))
	idEl.CreateAttr("r:id", rid)
	return rid, p.flush()
}
