package image

import (
	"image"
	"image/color"
)

// toNRGBA returns img as tightly packed, non-premultiplied RGBA anchored at
// the origin. Images that already have that layout are returned as is.
func toNRGBA(img image.Image) *image.NRGBA {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if n, ok := img.(*image.NRGBA); ok && bounds.Min == (image.Point{}) && n.Stride == 4*width {
		return n
	}

	dst := image.NewNRGBA(image.Rect(0, 0, width, height))

	switch src := img.(type) {
	case *image.NRGBA:
		for y := 0; y < height; y++ {
			srcStart := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			dstStart := dst.PixOffset(0, y)
			copy(dst.Pix[dstStart:dstStart+4*width], src.Pix[srcStart:srcStart+4*width])
		}
	case *image.YCbCr:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				sx := bounds.Min.X + x
				sy := bounds.Min.Y + y
				yOffset := src.YOffset(sx, sy)
				cOffset := src.COffset(sx, sy)
				r, g, b := color.YCbCrToRGB(src.Y[yOffset], src.Cb[cOffset], src.Cr[cOffset])

				offset := dst.PixOffset(x, y)
				dst.Pix[offset] = r
				dst.Pix[offset+1] = g
				dst.Pix[offset+2] = b
				dst.Pix[offset+3] = 255
			}
		}
	default:
		// NRGBAModel keeps straight-alpha palette entries exact.
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				dst.SetNRGBA(x, y, c)
			}
		}
	}

	return dst
}
