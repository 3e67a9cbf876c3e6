package geo

// EMU is an English Metric Unit, the native coordinate unit of OOXML
// drawing markup. 914400 EMU equal one inch.
type EMU int64

const (
	EMUPerInch EMU = 914400

	// EMUPerPixel assumes the nominal 96 DPI that presentation
	// applications use when placing raster content.
	EMUPerPixel EMU = 9525
)

// FromPixels converts a pixel count to EMU at 96 DPI.
func FromPixels(px int) EMU { return EMU(px) * EMUPerPixel }

// Inches converts inches to EMU.
func Inches(in float64) EMU { return EMU(in * float64(EMUPerInch)) }

// Inches returns the unit expressed in inches.
func (e EMU) Inches() float64 { return float64(e) / float64(EMUPerInch) }

// Size is a width/height pair in EMU.
type Size struct {
	W, H EMU
}

// Ratio returns W/H, or 0 when the height is zero.
func (s Size) Ratio() float64 {
	if s.H == 0 {
		return 0
	}
	return float64(s.W) / float64(s.H)
}

// Rect is a placement on a slide canvas: offset from the top-left corner
// plus extent, all in EMU.
type Rect struct {
	Left, Top EMU
	W, H      EMU
}
