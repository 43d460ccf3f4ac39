package colour

import (
	"image"
	"image/draw"
)

// SamplePixels converts an interleaved RGBA buffer into the opaque pixels it
// holds. Pixels with alpha 0 are dropped; everything else passes through in
// buffer order, regardless of partial transparency. A trailing partial pixel
// is ignored.
func SamplePixels(buf []uint8) []RGB {
	pixels := make([]RGB, 0, len(buf)/4)
	for i := 0; i+3 < len(buf); i += 4 {
		if buf[i+3] == 0 {
			continue
		}
		pixels = append(pixels, RGB{R: buf[i], G: buf[i+1], B: buf[i+2]})
	}
	return pixels
}

// SampleImage samples every pixel of img, row-major, using the same rules as
// SamplePixels. Channels are read non-premultiplied.
func SampleImage(img image.Image) []RGB {
	return SamplePixels(RGBABuffer(img))
}

// RGBABuffer returns the row-major, non-premultiplied RGBA bytes of img with
// no row padding.
func RGBABuffer(img image.Image) []uint8 {
	bounds := img.Bounds()
	nrgba, ok := img.(*image.NRGBA)
	if !ok {
		nrgba = image.NewNRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), img, bounds.Min, draw.Src)
	}

	b := nrgba.Bounds()
	rowLen := b.Dx() * 4
	if nrgba.Stride == rowLen && b.Min == (image.Point{}) {
		return nrgba.Pix[:rowLen*b.Dy()]
	}

	buf := make([]uint8, 0, rowLen*b.Dy())
	for y := b.Min.Y; y < b.Max.Y; y++ {
		start := nrgba.PixOffset(b.Min.X, y)
		buf = append(buf, nrgba.Pix[start:start+rowLen]...)
	}
	return buf
}
