package opc

import (
	"bytes"
	"testing"
)

func TestPackageRoundTrip(t *testing.T) {
	pkg := NewPackage()
	pkg.Types().SetDefault("png", "image/png")
	pkg.Types().SetOverride("ppt/presentation.xml", CTPresentation)
	pkg.SetPart("ppt/presentation.xml", []byte("<p:presentation/>"))
	pkg.SetPart("ppt/media/image1.png", []byte{0x89, 'P', 'N', 'G'})

	rels := &Relationships{source: ""}
	rels.Add(RelTypeOfficeDocument, "ppt/presentation.xml")
	if err := pkg.SetRels("", rels); err != nil {
		t.Fatalf("SetRels: %v", err)
	}

	var buf bytes.Buffer
	if err := pkg.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	got, err := ReadFrom(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	if err != nil {
		t.Fatalf("ReadFrom: %v", err)
	}
	if data, ok := got.Part("ppt/presentation.xml"); !ok || string(data) != "<p:presentation/>" {
		t.Errorf("presentation part lost: %q %v", data, ok)
	}
	if got.Types().TypeOf("ppt/presentation.xml") != CTPresentation {
		t.Errorf("override lost: %q", got.Types().TypeOf("ppt/presentation.xml"))
	}
	if got.Types().TypeOf("ppt/media/image1.png") != "image/png" {
		t.Errorf("default lost: %q", got.Types().TypeOf("ppt/media/image1.png"))
	}
	rootRels, err := got.Rels("")
	if err != nil {
		t.Fatalf("Rels: %v", err)
	}
	rel, ok := rootRels.FirstOfType(RelTypeOfficeDocument)
	if !ok || rel.Target != "ppt/presentation.xml" {
		t.Errorf("root relationship lost: %+v %v", rel, ok)
	}
}

func TestRemovePart(t *testing.T) {
	pkg := NewPackage()
	pkg.SetPart("ppt/slides/slide1.xml", []byte("<p:sld/>"))
	pkg.Types().SetOverride("ppt/slides/slide1.xml", CTSlide)
	rels := &Relationships{source: "ppt/slides/slide1.xml"}
	rels.Add(RelTypeSlideLayout, "../slideLayouts/slideLayout1.xml")
	if err := pkg.SetRels("ppt/slides/slide1.xml", rels); err != nil {
		t.Fatal(err)
	}

	pkg.RemovePart("ppt/slides/slide1.xml")
	if pkg.HasPart("ppt/slides/slide1.xml") {
		t.Error("part still present")
	}
	if pkg.HasPart("ppt/slides/_rels/slide1.xml.rels") {
		t.Error("rels part still present")
	}
	if pkg.Types().TypeOf("ppt/slides/slide1.xml") == CTSlide {
		t.Error("override still present")
	}
}

func TestRelIDAllocation(t *testing.T) {
	rels := &Relationships{source: "ppt/presentation.xml"}
	rels.AddWithID(Relationship{ID: "rId7", Type: RelTypeSlide, Target: "slides/slide1.xml"})
	id := rels.Add(RelTypeSlide, "slides/slide2.xml")
	if id != "rId8" {
		t.Errorf("Add allocated %s, want rId8", id)
	}
	if _, ok := rels.ByID("rId7"); !ok {
		t.Error("rId7 lost")
	}
}

func TestTargetResolution(t *testing.T) {
	tests := []struct {
		source, target, want string
	}{
		{"ppt/presentation.xml", "slides/slide1.xml", "ppt/slides/slide1.xml"},
		{"ppt/slides/slide1.xml", "../media/image1.png", "ppt/media/image1.png"},
		{"ppt/slides/slide1.xml", "../slideLayouts/slideLayout1.xml", "ppt/slideLayouts/slideLayout1.xml"},
		{"", "ppt/presentation.xml", "ppt/presentation.xml"},
		{"ppt/slides/slide1.xml", "/ppt/media/image2.png", "ppt/media/image2.png"},
	}
	for _, tt := range tests {
		if got := ResolveTarget(tt.source, tt.target); got != tt.want {
			t.Errorf("ResolveTarget(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.want)
		}
	}

	relTests := []struct {
		source, target, want string
	}{
		{"ppt/presentation.xml", "ppt/slides/slide1.xml", "slides/slide1.xml"},
		{"ppt/slides/slide1.xml", "ppt/media/image1.png", "../media/image1.png"},
		{"", "ppt/presentation.xml", "ppt/presentation.xml"},
		{"ppt/slides/slide1.xml", "ppt/slideLayouts/slideLayout2.xml", "../slideLayouts/slideLayout2.xml"},
	}
	for _, tt := range relTests {
		if got := RelativeTarget(tt.source, tt.target); got != tt.want {
			t.Errorf("RelativeTarget(%q, %q) = %q, want %q", tt.source, tt.target, got, tt.want)
		}
	}
}

func TestImportPartGraph(t *testing.T) {
	src := NewPackage()
	src.Types().SetDefault("png", "image/png")
	src.Types().SetOverride("ppt/slideLayouts/slideLayout1.xml", CTSlideLayout)
	src.Types().SetOverride("ppt/slideMasters/slideMaster1.xml", CTSlideMaster)
	src.SetPart("ppt/slideLayouts/slideLayout1.xml", []byte("<p:sldLayout/>"))
	src.SetPart("ppt/slideMasters/slideMaster1.xml", []byte("<p:sldMaster/>"))
	src.SetPart("ppt/media/image1.png", []byte{1, 2, 3})

	// layout -> master and master -> layout form a cycle; master also
	// references an image.
	layoutRels := &Relationships{source: "ppt/slideLayouts/slideLayout1.xml"}
	layoutRels.AddWithID(Relationship{ID: "rId1", Type: RelTypeSlideMaster, Target: "../slideMasters/slideMaster1.xml"})
	if err := src.SetRels("ppt/slideLayouts/slideLayout1.xml", layoutRels); err != nil {
		t.Fatal(err)
	}
	masterRels := &Relationships{source: "ppt/slideMasters/slideMaster1.xml"}
	masterRels.AddWithID(Relationship{ID: "rId1", Type: RelTypeSlideLayout, Target: "../slideLayouts/slideLayout1.xml"})
	masterRels.AddWithID(Relationship{ID: "rId2", Type: RelTypeImage, Target: "../media/image1.png"})
	if err := src.SetRels("ppt/slideMasters/slideMaster1.xml", masterRels); err != nil {
		t.Fatal(err)
	}

	// Destination already owns a slideLayout1, forcing a rename.
	dst := NewPackage()
	dst.SetPart("ppt/slideLayouts/slideLayout1.xml", []byte("<existing/>"))

	mapping, err := ImportPartGraph(dst, src, "ppt/slideLayouts/slideLayout1.xml")
	if err != nil {
		t.Fatalf("ImportPartGraph: %v", err)
	}

	newLayout := mapping["ppt/slideLayouts/slideLayout1.xml"]
	if newLayout != "ppt/slideLayouts/slideLayout2.xml" {
		t.Errorf("layout renamed to %q, want slideLayout2.xml", newLayout)
	}
	if !dst.HasPart(mapping["ppt/slideMasters/slideMaster1.xml"]) {
		t.Error("master not imported")
	}
	if !dst.HasPart(mapping["ppt/media/image1.png"]) {
		t.Error("image not imported")
	}
	if dst.Types().TypeOf(newLayout) != CTSlideLayout {
		t.Errorf("layout content type = %q", dst.Types().TypeOf(newLayout))
	}
	if dst.Types().TypeOf(mapping["ppt/media/image1.png"]) != "image/png" {
		t.Error("png default not carried")
	}

	// The imported layout's rels must point at the imported master under
	// the preserved rId.
	gotRels, err := dst.Rels(newLayout)
	if err != nil {
		t.Fatal(err)
	}
	rel, ok := gotRels.ByID("rId1")
	if !ok {
		t.Fatal("layout rId1 missing after import")
	}
	if resolved := ResolveTarget(newLayout, rel.Target); resolved != mapping["ppt/slideMasters/slideMaster1.xml"] {
		t.Errorf("layout master target %q resolves to %q, want %q",
			rel.Target, resolved, mapping["ppt/slideMasters/slideMaster1.xml"])
	}
}
