package image

// Perceptual colour distance in YIQ space, after "Measuring perceived color
// difference using YIQ NTSC transmission color space in mobile applications"
// (Kotsarenko and Ramos, 2010), and the anti-aliasing detector from
// "Anti-aliased Pixel and Intensity Slope Detector" (Vysniauskas, 2009).

// maxYIQDelta is the largest possible value returned by colorDelta.
const maxYIQDelta = 35215

// colorDelta compares the pixels at offsets k of pix1 and m of pix2. The
// result is negative when the first pixel is brighter. With yOnly set only
// the luminance difference is returned.
func colorDelta(pix1 []uint8, pix2 []uint8, k int, m int, yOnly bool) float64 {
	r1 := float64(pix1[k])
	g1 := float64(pix1[k+1])
	b1 := float64(pix1[k+2])
	a1 := float64(pix1[k+3])

	r2 := float64(pix2[m])
	g2 := float64(pix2[m+1])
	b2 := float64(pix2[m+2])
	a2 := float64(pix2[m+3])

	if a1 == a2 && r1 == r2 && g1 == g2 && b1 == b2 {
		return 0
	}

	if a1 < 255 {
		a1 /= 255
		r1 = blend(r1, a1)
		g1 = blend(g1, a1)
		b1 = blend(b1, a1)
	}

	if a2 < 255 {
		a2 /= 255
		r2 = blend(r2, a2)
		g2 = blend(g2, a2)
		b2 = blend(b2, a2)
	}

	y1 := rgb2y(r1, g1, b1)
	y2 := rgb2y(r2, g2, b2)
	y := y1 - y2

	if yOnly {
		return y
	}

	i := rgb2i(r1, g1, b1) - rgb2i(r2, g2, b2)
	q := rgb2q(r1, g1, b1) - rgb2q(r2, g2, b2)

	delta := 0.5053*y*y + 0.299*i*i + 0.1957*q*q

	if y1 > y2 {
		return -delta
	}
	return delta
}

// antialiased reports whether the pixel at (x1, y1) of pix looks like part of
// an anti-aliased edge, checking the darkest and brightest neighbours against
// both images.
func antialiased(pix []uint8, other []uint8, x1 int, y1 int, width int, height int) bool {
	x0 := max(x1-1, 0)
	y0 := max(y1-1, 0)
	x2 := min(x1+1, width-1)
	y2 := min(y1+1, height-1)
	pos := (y1*width + x1) * 4

	zeroes := 0
	if x1 == x0 || x1 == x2 || y1 == y0 || y1 == y2 {
		zeroes = 1
	}

	var minDelta, maxDelta float64
	var minX, minY, maxX, maxY int

	for x := x0; x <= x2; x++ {
		for y := y0; y <= y2; y++ {
			if x == x1 && y == y1 {
				continue
			}

			delta := colorDelta(pix, pix, pos, (y*width+x)*4, true)

			if delta == 0 {
				zeroes++
				if zeroes > 2 {
					return false
				}
			} else if delta < minDelta {
				minDelta = delta
				minX = x
				minY = y
			} else if delta > maxDelta {
				maxDelta = delta
				maxX = x
				maxY = y
			}
		}
	}

	if minDelta == 0 || maxDelta == 0 {
		return false
	}

	return (hasManySiblings(pix, minX, minY, width, height) && hasManySiblings(other, minX, minY, width, height)) ||
		(hasManySiblings(pix, maxX, maxY, width, height) && hasManySiblings(other, maxX, maxY, width, height))
}

// hasManySiblings reports whether at least three neighbours of (x1, y1),
// counting the image border as one, have exactly the same colour.
func hasManySiblings(pix []uint8, x1 int, y1 int, width int, height int) bool {
	x0 := max(x1-1, 0)
	y0 := max(y1-1, 0)
	x2 := min(x1+1, width-1)
	y2 := min(y1+1, height-1)
	pos := (y1*width + x1) * 4

	zeroes := 0
	if x1 == x0 || x1 == x2 || y1 == y0 || y1 == y2 {
		zeroes = 1
	}

	for x := x0; x <= x2; x++ {
		for y := y0; y <= y2; y++ {
			if x == x1 && y == y1 {
				continue
			}

			pos2 := (y*width + x) * 4
			if pix[pos] == pix[pos2] && pix[pos+1] == pix[pos2+1] && pix[pos+2] == pix[pos2+2] && pix[pos+3] == pix[pos2+3] {
				zeroes++
			}

			if zeroes > 2 {
				return true
			}
		}
	}

	return false
}

func rgb2y(r float64, g float64, b float64) float64 {
	return r*0.29889531 + g*0.58662247 + b*0.11448223
}

func rgb2i(r float64, g float64, b float64) float64 {
	return r*0.59597799 - g*0.27417610 - b*0.32180189
}

func rgb2q(r float64, g float64, b float64) float64 {
	return r*0.21147017 - g*0.52261711 + b*0.31114694
}

// blend composites c with opacity a over white.
func blend(c float64, a float64) float64 {
	return 255 + (c-255)*a
}
