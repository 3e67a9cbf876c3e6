// Package opc implements the small slice of the Open Packaging Conventions
// that presentation files need: a zip-backed part store, content types,
// and per-part relationship lists. It is a container layer, not an OOXML
// semantics engine; part payloads are opaque bytes to this package.
package opc

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"
)

// Relationship type URIs used by presentation packages.
const (
	RelTypeOfficeDocument = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/officeDocument"
	RelTypeSlide          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slide"
	RelTypeSlideLayout    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideLayout"
	RelTypeSlideMaster    = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/slideMaster"
	RelTypeTheme          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/theme"
	RelTypeImage          = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/image"
	RelTypeCoreProps      = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/core-properties"
	RelTypeExtendedProps  = "http://schemas.openxmlformats.org/officeDocument/2006/relationships/extended-properties"
)

// Content types used by presentation packages.
const (
	CTPresentation  = "application/vnd.openxmlformats-officedocument.presentationml.presentation.main+xml"
	CTSlide         = "application/vnd.openxmlformats-officedocument.presentationml.slide+xml"
	CTSlideLayout   = "application/vnd.openxmlformats-officedocument.presentationml.slideLayout+xml"
	CTSlideMaster   = "application/vnd.openxmlformats-officedocument.presentationml.slideMaster+xml"
	CTTheme         = "application/vnd.openxmlformats-officedocument.theme+xml"
	CTCoreProps     = "application/vnd.openxmlformats-package.core-properties+xml"
	CTExtendedProps = "application/vnd.openxmlformats-officedocument.extended-properties+xml"
)

const contentTypesName = "[Content_Types].xml"

// Package is an ordered set of named parts plus their content types and
// relationships. Part names use the zip form without a leading slash,
// e.g. "ppt/slides/slide1.xml".
type Package struct {
	names []string
	parts map[string][]byte
	types *ContentTypes
}

// NewPackage returns an empty package with empty content types.
func NewPackage() *Package {
	return &Package{
		parts: make(map[string][]byte),
		types: newContentTypes(),
	}
}

// ReadFile opens an OPC package from disk.
func ReadFile(name string) (*Package, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	st, err := f.Stat()
	if err != nil {
		return nil, err
	}
	return ReadFrom(f, st.Size())
}

// ReadFrom reads an OPC package from an io.ReaderAt.
func ReadFrom(r io.ReaderAt, size int64) (*Package, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("opc: open container: %w", err)
	}
	pkg := &Package{parts: make(map[string][]byte)}
	for _, zf := range zr.File {
		if strings.HasSuffix(zf.Name, "/") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("opc: open part %s: %w", zf.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("opc: read part %s: %w", zf.Name, err)
		}
		if zf.Name == contentTypesName {
			ct, err := parseContentTypes(data)
			if err != nil {
				return nil, err
			}
			pkg.types = ct
			continue
		}
		pkg.names = append(pkg.names, zf.Name)
		pkg.parts[zf.Name] = data
	}
	if pkg.types == nil {
		return nil, fmt.Errorf("opc: package has no %s", contentTypesName)
	}
	return pkg, nil
}

// Part returns a part's payload.
func (p *Package) Part(name string) ([]byte, bool) {
	data, ok := p.parts[name]
	return data, ok
}

// HasPart reports whether the package contains the named part.
func (p *Package) HasPart(name string) bool {
	_, ok := p.parts[name]
	return ok
}

// SetPart stores a payload, appending the name to the part order if new.
func (p *Package) SetPart(name string, data []byte) {
	if _, ok := p.parts[name]; !ok {
		p.names = append(p.names, name)
	}
	p.parts[name] = data
}

// RemovePart drops a part and its relationships part, if any.
func (p *Package) RemovePart(name string) {
	if _, ok := p.parts[name]; !ok {
		return
	}
	delete(p.parts, name)
	for i, n := range p.names {
		if n == name {
			p.names = append(p.names[:i], p.names[i+1:]...)
			break
		}
	}
	p.types.RemoveOverride(name)
	if rels := relsNameFor(name); p.HasPart(rels) {
		p.RemovePart(rels)
	}
}

// Names returns part names in package order.
func (p *Package) Names() []string {
	out := make([]string, len(p.names))
	copy(out, p.names)
	return out
}

// Types exposes the content-types index.
func (p *Package) Types() *ContentTypes { return p.types }

// Rels returns the relationship list owned by the named part. Pass "" for
// the package root. A part with no relationships yields an empty list that
// can be populated and stored with SetRels.
func (p *Package) Rels(partName string) (*Relationships, error) {
	relsName := relsNameFor(partName)
	data, ok := p.parts[relsName]
	if !ok {
		return &Relationships{source: partName}, nil
	}
	return parseRelationships(partName, data)
}

// SetRels serializes a relationship list back into the package.
func (p *Package) SetRels(partName string, rels *Relationships) error {
	data, err := rels.marshal()
	if err != nil {
		return err
	}
	p.SetPart(relsNameFor(partName), data)
	return nil
}

// WriteTo serializes the package as a zip archive. Content types are
// written first, then parts in package order.
func (p *Package) WriteTo(w io.Writer) error {
	zw := zip.NewWriter(w)
	ctData, err := p.types.marshal()
	if err != nil {
		return err
	}
	if err := writeEntry(zw, contentTypesName, ctData); err != nil {
		return err
	}
	for _, name := range p.names {
		if err := writeEntry(zw, name, p.parts[name]); err != nil {
			return err
		}
	}
	return zw.Close()
}

// SaveFile writes the package to disk.
func (p *Package) SaveFile(name string) error {
	f, err := os.Create(name)
	if err != nil {
		return err
	}
	if err := p.WriteTo(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func writeEntry(zw *zip.Writer, name string, data []byte) error {
	w, err := zw.Create(name)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// relsNameFor maps a part name to its relationships part name. The package
// root ("") maps to "_rels/.rels".
func relsNameFor(partName string) string {
	if partName == "" {
		return "_rels/.rels"
	}
	dir, base := path.Split(partName)
	return dir + "_rels/" + base + ".rels"
}

// ResolveTarget resolves a relationship target relative to its source part.
func ResolveTarget(sourcePart, target string) string {
	if strings.HasPrefix(target, "/") {
		return strings.TrimPrefix(target, "/")
	}
	dir := path.Dir(sourcePart)
	if sourcePart == "" {
		dir = "."
	}
	return path.Clean(path.Join(dir, target))
}

// RelativeTarget expresses targetPart relative to sourcePart's directory,
// the form relationship targets are written in.
func RelativeTarget(sourcePart, targetPart string) string {
	srcDir := path.Dir(sourcePart)
	if sourcePart == "" || srcDir == "." {
		return targetPart
	}
	prefix := ""
	for !strings.HasPrefix(targetPart+"/", srcDir+"/") {
		parent := path.Dir(srcDir)
		prefix += "../"
		if parent == "." || parent == srcDir {
			srcDir = ""
			break
		}
		srcDir = parent
	}
	rel := strings.TrimPrefix(targetPart, srcDir)
	rel = strings.TrimPrefix(rel, "/")
	return prefix + rel
}

// ParseXML parses part payload into an element tree, tolerating declared
// non-UTF8 charsets.
func ParseXML(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = charset.NewReaderLabel
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// SortedNames returns part names sorted lexically; used by tests and
// diagnostics that want deterministic listings.
func (p *Package) SortedNames() []string {
	out := p.Names()
	sort.Strings(out)
	return out
}
