package deck

import (
	"embed"

	"github.com/deckmerge/deckmerge/opc"
)

//go:embed template/*.xml
var templateFS embed.FS

func templatePart(name string) []byte {
	data, err := templateFS.ReadFile("template/" + name)
	if err != nil {
		// The template ships inside the binary; a missing file is a
		// build defect, not a runtime condition.
		panic("deck: embedded template part missing: " + name)
	}
	return data
}

// newTemplatePackage assembles the blank presentation an accumulator
// starts from when the first input is not a native presentation: one
// master, one blank layout, the default theme and document properties.
func newTemplatePackage() *opc.Package {
	pkg := opc.NewPackage()
	ct := pkg.Types()
	ct.SetOverride(presentationPart, opc.CTPresentation)
	ct.SetOverride("ppt/slideMasters/slideMaster1.xml", opc.CTSlideMaster)
	ct.SetOverride("ppt/slideLayouts/slideLayout1.xml", opc.CTSlideLayout)
	ct.SetOverride("ppt/theme/theme1.xml", opc.CTTheme)
	ct.SetOverride("docProps/core.xml", opc.CTCoreProps)
	ct.SetOverride("docProps/app.xml", opc.CTExtendedProps)

	pkg.SetPart(presentationPart, templatePart("presentation.xml"))
	pkg.SetPart("ppt/slideMasters/slideMaster1.xml", templatePart("slideMaster1.xml"))
	pkg.SetPart("ppt/slideLayouts/slideLayout1.xml", templatePart("slideLayout1.xml"))
	pkg.SetPart("ppt/theme/theme1.xml", templatePart("theme1.xml"))
	pkg.SetPart("docProps/core.xml", templatePart("core.xml"))
	pkg.SetPart("docProps/app.xml", templatePart("app.xml"))

	// Root, presentation, master and layout relationship wiring.
	root, _ := pkg.Rels("")
	root.Add(opc.RelTypeOfficeDocument, "ppt/presentation.xml")
	root.Add(opc.RelTypeCoreProps, "docProps/core.xml")
	root.Add(opc.RelTypeExtendedProps, "docProps/app.xml")
	pkg.SetRels("", root)

	pres, _ := pkg.Rels(presentationPart)
	pres.Add(opc.RelTypeSlideMaster, "slideMasters/slideMaster1.xml")
	pres.Add(opc.RelTypeTheme, "theme/theme1.xml")
	pkg.SetRels(presentationPart, pres)

	master, _ := pkg.Rels("ppt/slideMasters/slideMaster1.xml")
	master.Add(opc.RelTypeSlideLayout, "../slideLayouts/slideLayout1.xml")
	master.Add(opc.RelTypeTheme, "../theme/theme1.xml")
	pkg.SetRels("ppt/slideMasters/slideMaster1.xml", master)

	layout, _ := pkg.Rels("ppt/slideLayouts/slideLayout1.xml")
	layout.Add(opc.RelTypeSlideMaster, "../slideMasters/slideMaster1.xml")
	pkg.SetRels("ppt/slideLayouts/slideLayout1.xml", layout)

	return pkg
}
