package opc

import (
	"path"
	"sort"
	"strings"

	"github.com/beevik/etree"
)

const ctNamespace = "http://schemas.openxmlformats.org/package/2006/content-types"

// ContentTypes indexes the package's [Content_Types].xml: extension
// defaults plus per-part overrides.
type ContentTypes struct {
	defaults  map[string]string // extension (lowercase, no dot) -> type
	overrides map[string]string // part name -> type
}

func newContentTypes() *ContentTypes {
	return &ContentTypes{
		defaults:  map[string]string{"rels": "application/vnd.openxmlformats-package.relationships+xml", "xml": "application/xml"},
		overrides: make(map[string]string),
	}
}

func parseContentTypes(data []byte) (*ContentTypes, error) {
	doc, err := ParseXML(data)
	if err != nil {
		return nil, err
	}
	ct := &ContentTypes{
		defaults:  make(map[string]string),
		overrides: make(map[string]string),
	}
	root := doc.Root()
	if root == nil {
		return newContentTypes(), nil
	}
	for _, el := range root.ChildElements() {
		switch el.Tag {
		case "Default":
			ext := strings.ToLower(el.SelectAttrValue("Extension", ""))
			ct.defaults[ext] = el.SelectAttrValue("ContentType", "")
		case "Override":
			name := strings.TrimPrefix(el.SelectAttrValue("PartName", ""), "/")
			ct.overrides[name] = el.SelectAttrValue("ContentType", "")
		}
	}
	return ct, nil
}

// SetDefault registers a content type for a file extension.
func (ct *ContentTypes) SetDefault(ext, contentType string) {
	ct.defaults[strings.ToLower(strings.TrimPrefix(ext, "."))] = contentType
}

// SetOverride registers a content type for a single part.
func (ct *ContentTypes) SetOverride(partName, contentType string) {
	ct.overrides[partName] = contentType
}

// RemoveOverride drops a part's override.
func (ct *ContentTypes) RemoveOverride(partName string) {
	delete(ct.overrides, partName)
}

// TypeOf reports the effective content type for a part name: override
// first, extension default second, empty when unknown.
func (ct *ContentTypes) TypeOf(partName string) string {
	if t, ok := ct.overrides[partName]; ok {
		return t
	}
	ext := strings.ToLower(strings.TrimPrefix(path.Ext(partName), "."))
	return ct.defaults[ext]
}

// HasDefault reports whether the extension has a registered default.
func (ct *ContentTypes) HasDefault(ext string) bool {
	_, ok := ct.defaults[strings.ToLower(strings.TrimPrefix(ext, "."))]
	return ok
}

func (ct *ContentTypes) marshal() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Types")
	root.CreateAttr("xmlns", ctNamespace)

	for _, ext := range sortedKeys(ct.defaults) {
		el := root.CreateElement("Default")
		el.CreateAttr("Extension", ext)
		el.CreateAttr("ContentType", ct.defaults[ext])
	}
	for _, name := range sortedKeys(ct.overrides) {
		el := root.CreateElement("Override")
		el.CreateAttr("PartName", "/"+name)
		el.CreateAttr("ContentType", ct.overrides[name])
	}
	return doc.WriteToBytes()
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
