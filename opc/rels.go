package opc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

const relsNamespace = "http://schemas.openxmlformats.org/package/2006/relationships"

// Relationship is one edge from a source part to a target.
type Relationship struct {
	ID     string
	Type   string
	Target string
	// Mode is "External" for targets outside the package, empty otherwise.
	Mode string
}

// External reports whether the target lives outside the package.
func (r Relationship) External() bool { return r.Mode == "External" }

// Relationships is the ordered relationship list owned by one source part.
type Relationships struct {
	source string
	items  []Relationship
}

func parseRelationships(source string, data []byte) (*Relationships, error) {
	doc, err := ParseXML(data)
	if err != nil {
		return nil, fmt.Errorf("opc: parse relationships of %q: %w", source, err)
	}
	rels := &Relationships{source: source}
	root := doc.Root()
	if root == nil {
		return rels, nil
	}
	for _, el := range root.ChildElements() {
		if el.Tag != "Relationship" {
			continue
		}
		rels.items = append(rels.items, Relationship{
			ID:     el.SelectAttrValue("Id", ""),
			Type:   el.SelectAttrValue("Type", ""),
			Target: el.SelectAttrValue("Target", ""),
			Mode:   el.SelectAttrValue("TargetMode", ""),
		})
	}
	return rels, nil
}

// Source returns the owning part name ("" for the package root).
func (r *Relationships) Source() string { return r.source }

// All returns the relationships in document order.
func (r *Relationships) All() []Relationship {
	out := make([]Relationship, len(r.items))
	copy(out, r.items)
	return out
}

// Len returns the number of relationships.
func (r *Relationships) Len() int { return len(r.items) }

// ByID looks a relationship up by its rId.
func (r *Relationships) ByID(id string) (Relationship, bool) {
	for _, rel := range r.items {
		if rel.ID == id {
			return rel, true
		}
	}
	return Relationship{}, false
}

// FirstOfType returns the first relationship of the given type URI.
func (r *Relationships) FirstOfType(relType string) (Relationship, bool) {
	for _, rel := range r.items {
		if rel.Type == relType {
			return rel, true
		}
	}
	return Relationship{}, false
}

// AllOfType returns every relationship of the given type URI, in order.
func (r *Relationships) AllOfType(relType string) []Relationship {
	var out []Relationship
	for _, rel := range r.items {
		if rel.Type == relType {
			out = append(out, rel)
		}
	}
	return out
}

// Add appends a relationship with a freshly allocated rId and returns it.
func (r *Relationships) Add(relType, target string) string {
	id := r.nextID()
	r.items = append(r.items, Relationship{ID: id, Type: relType, Target: target})
	return id
}

// AddExternal appends an external-mode relationship with a fresh rId.
func (r *Relationships) AddExternal(relType, target string) string {
	id := r.nextID()
	r.items = append(r.items, Relationship{ID: id, Type: relType, Target: target, Mode: "External"})
	return id
}

// AddWithID appends a relationship under a caller-chosen ID. Used when
// importing parts whose XML already references specific rIds.
func (r *Relationships) AddWithID(rel Relationship) {
	r.items = append(r.items, rel)
}

// Remove deletes the relationship with the given rId and reports whether
// it was present.
func (r *Relationships) Remove(id string) bool {
	for i, rel := range r.items {
		if rel.ID == id {
			r.items = append(r.items[:i], r.items[i+1:]...)
			return true
		}
	}
	return false
}

// nextID allocates rId<n+1> where n is the highest numeric suffix in use.
func (r *Relationships) nextID() string {
	max := 0
	for _, rel := range r.items {
		if n, ok := ridNumber(rel.ID); ok && n > max {
			max = n
		}
	}
	return fmt.Sprintf("rId%d", max+1)
}

func ridNumber(id string) (int, bool) {
	if !strings.HasPrefix(id, "rId") {
		return 0, false
	}
	n, err := strconv.Atoi(id[3:])
	if err != nil {
		return 0, false
	}
	return n, true
}

func (r *Relationships) marshal() ([]byte, error) {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8" standalone="yes"`)
	root := doc.CreateElement("Relationships")
	root.CreateAttr("xmlns", relsNamespace)
	for _, rel := range r.items {
		el := root.CreateElement("Relationship")
		el.CreateAttr("Id", rel.ID)
		el.CreateAttr("Type", rel.Type)
		el.CreateAttr("Target", rel.Target)
		if rel.Mode != "" {
			el.CreateAttr("TargetMode", rel.Mode)
		}
	}
	return doc.WriteToBytes()
}
