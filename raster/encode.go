package raster

import (
	"bytes"
	"image"
	"image/png"

	xdraw "golang.org/x/image/draw"
)

// EncodePNG re-encodes a rendered page as PNG, the single image format
// the accumulator embeds. When maxWidth is positive and the image is
// wider, it is downscaled to maxWidth with Catmull-Rom resampling to keep
// output files reasonable at high render DPI.
func EncodePNG(img image.Image, maxWidth int) ([]byte, int, int, error) {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()

	if maxWidth > 0 && w > maxWidth {
		// Integer division can hit zero on extreme panoramas.
		sh := h * maxWidth / w
		if sh < 1 {
			sh = 1
		}
		scaled := image.NewRGBA(image.Rect(0, 0, maxWidth, sh))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Over, nil)
		img = scaled
		w, h = scaled.Bounds().Dx(), scaled.Bounds().Dy()
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, 0, 0, err
	}
	return buf.Bytes(), w, h, nil
}
