package opc

import (
	"fmt"
	"path"
	"strconv"
	"strings"
)

// Importer copies part graphs from src into dst. It remembers every part
// it has copied, so importing graphs that share parts (slides on one
// master, shapes reusing one image) reuses the existing copies instead of
// duplicating them. Use one Importer per source package for the lifetime
// of the destination.
type Importer struct {
	dst, src *Package
	mapping  map[string]string
}

// NewImporter returns an Importer copying from src into dst.
func NewImporter(dst, src *Package) *Importer {
	return &Importer{dst: dst, src: src, mapping: make(map[string]string)}
}

// Import copies the named part from src into dst together with every part
// reachable through its relationships, renaming on collision and
// rewriting relationship targets. Relationship IDs are preserved so rId
// references inside the copied XML stay valid. Returns the part's name in
// dst; parts imported by an earlier call are not copied again.
//
// The walk is cycle-safe: slide masters and their layouts reference each
// other, so a part is registered in the mapping before its relationships
// are followed.
func (im *Importer) Import(partName string) (string, error) {
	return im.importPart(partName)
}

// Imported returns the destination name of an already-imported source
// part.
func (im *Importer) Imported(srcName string) (string, bool) {
	name, ok := im.mapping[srcName]
	return name, ok
}

// ImportPartGraph is the one-shot form of Importer: it copies the named
// part graph with a fresh mapping and returns src name -> dst name for
// everything imported.
func ImportPartGraph(dst, src *Package, partName string) (map[string]string, error) {
	imp := NewImporter(dst, src)
	if _, err := imp.importPart(partName); err != nil {
		return nil, err
	}
	return imp.mapping, nil
}

func (im *Importer) importPart(name string) (string, error) {
	if mapped, ok := im.mapping[name]; ok {
		return mapped, nil
	}
	data, ok := im.src.Part(name)
	if !ok {
		return "", fmt.Errorf("opc: import: source part %q not found", name)
	}

	newName := freePartName(im.dst, name)
	im.mapping[name] = newName
	im.dst.SetPart(newName, data)
	im.copyContentType(name, newName)

	srcRels, err := im.src.Rels(name)
	if err != nil {
		return "", err
	}
	if srcRels.Len() == 0 {
		return newName, nil
	}

	newRels := &Relationships{source: newName}
	for _, rel := range srcRels.All() {
		if rel.External() {
			newRels.AddWithID(rel)
			continue
		}
		target := ResolveTarget(name, rel.Target)
		imported, err := im.importPart(target)
		if err != nil {
			return "", err
		}
		newRels.AddWithID(Relationship{
			ID:     rel.ID,
			Type:   rel.Type,
			Target: RelativeTarget(newName, imported),
		})
	}
	if err := im.dst.SetRels(newName, newRels); err != nil {
		return "", err
	}
	return newName, nil
}

func (im *Importer) copyContentType(srcName, dstName string) {
	if t, ok := im.src.types.overrides[srcName]; ok {
		im.dst.types.SetOverride(dstName, t)
		return
	}
	ext := strings.TrimPrefix(path.Ext(srcName), ".")
	if ext == "" {
		return
	}
	if !im.dst.types.HasDefault(ext) {
		if t := im.src.types.TypeOf(srcName); t != "" {
			im.dst.types.SetDefault(ext, t)
		}
	}
}

// freePartName keeps the original name when unused, otherwise bumps the
// trailing number: /ppt/slideLayouts/slideLayout3.xml becomes
// slideLayout<n+1>.xml for the highest n already present in the directory.
func freePartName(dst *Package, name string) string {
	if !dst.HasPart(name) {
		return name
	}
	dir := path.Dir(name)
	base := path.Base(name)
	ext := path.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	i := len(stem)
	for i > 0 && stem[i-1] >= '0' && stem[i-1] <= '9' {
		i--
	}
	prefix := stem[:i]

	max := 0
	for _, n := range dst.Names() {
		if path.Dir(n) != dir || path.Ext(n) != ext {
			continue
		}
		nb := strings.TrimSuffix(path.Base(n), ext)
		if !strings.HasPrefix(nb, prefix) {
			continue
		}
		if d, err := strconv.Atoi(nb[len(prefix):]); err == nil && d > max {
			max = d
		}
	}
	return path.Join(dir, fmt.Sprintf("%s%d%s", prefix, max+1, ext))
}
