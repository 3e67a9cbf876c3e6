package geo

import "errors"

// ErrDegenerateImage is returned when a raster has a non-positive
// dimension and therefore no defined aspect ratio.
var ErrDegenerateImage = errors.New("geo: image has non-positive dimensions")

// AspectFit computes the placement that inscribes an imgW×imgH raster in
// the canvas at maximum size, preserving the raster's aspect ratio and
// centering it on the unused axis. Exactly one of the returned extents
// equals the matching canvas extent.
func AspectFit(imgW, imgH int, canvas Size) (Rect, error) {
	if imgW <= 0 || imgH <= 0 {
		return Rect{}, ErrDegenerateImage
	}
	if canvas.W <= 0 || canvas.H <= 0 {
		return Rect{}, errors.New("geo: canvas has non-positive dimensions")
	}

	imageRatio := float64(imgW) / float64(imgH)
	canvasRatio := canvas.Ratio()

	var r Rect
	if imageRatio > canvasRatio {
		// Wider than the canvas: fit to width, center vertically.
		r.W = canvas.W
		r.H = EMU(float64(canvas.W) / imageRatio)
		r.Top = (canvas.H - r.H) / 2
	} else {
		// Taller or equal: fit to height, center horizontally.
		r.H = canvas.H
		r.W = EMU(float64(canvas.H) * imageRatio)
		r.Left = (canvas.W - r.W) / 2
	}
	return r, nil
}

// MatchCanvas returns a canvas whose width is unchanged and whose height
// is recomputed so the canvas ratio equals the raster's ratio. Used once
// per run, before any slide exists, so the first inserted raster defines
// the working aspect ratio of the whole output.
func MatchCanvas(canvas Size, imgW, imgH int) (Size, error) {
	if imgW <= 0 || imgH <= 0 {
		return Size{}, ErrDegenerateImage
	}
	ratio := float64(imgW) / float64(imgH)
	return Size{W: canvas.W, H: EMU(float64(canvas.W) / ratio)}, nil
}
