package image

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"runtime"
	"sync"
)

type PixelConfig struct {
	// Threshold in [0, 1]; smaller is more sensitive.
	Threshold float64
	// IncludeAA counts anti-aliased pixels as differences.
	IncludeAA bool
	// Alpha is the opacity of unchanged pixels in the rendered diff.
	Alpha float64

	AAColor   color.NRGBA
	DiffColor color.NRGBA
	// DiffColorAlt, when set, marks differences where the baseline is
	// brighter than the target.
	DiffColorAlt *color.NRGBA

	// DiffMask renders only differences over a transparent background.
	DiffMask bool
}

func DefaultPixelConfig() PixelConfig {
	return PixelConfig{
		Threshold: 0.1,
		Alpha:     0.1,
		AAColor:   color.NRGBA{R: 255, G: 255, B: 0, A: 255},
		DiffColor: color.NRGBA{R: 255, G: 0, B: 0, A: 255},
	}
}

type PixelDiff struct {
	config PixelConfig
}

func NewPixelDiff(p PixelConfig) *PixelDiff {
	return &PixelDiff{
		config: p,
	}
}

type pixelClass uint8

const (
	pixelSame pixelClass = iota
	pixelAntialiased
	pixelChanged
	// pixelChangedDarker is a difference where the target is darker.
	pixelChangedDarker
)

func (c pixelClass) changed() bool {
	return c == pixelChanged || c == pixelChangedDarker
}

func (p *PixelDiff) Calculate(baseline image.Image, target image.Image) (*DiffResult, error) {
	if err := checkDimensions(baseline, target); err != nil {
		return nil, err
	}

	baselineNRGBA := toNRGBA(baseline)
	targetNRGBA := toNRGBA(target)

	classes, count := p.classify(baselineNRGBA, targetNRGBA)

	return &DiffResult{
		Image:      p.render(baselineNRGBA, classes),
		DiffCount:  count,
		DiffAmount: diffAmount(count, baselineNRGBA.Rect.Size()),
	}, nil
}

// classify labels every pixel of two equally sized images and returns the
// number of pixels labelled as changed.
func (p *PixelDiff) classify(baseline *image.NRGBA, target *image.NRGBA) ([]pixelClass, int) {
	width := baseline.Rect.Dx()
	height := baseline.Rect.Dy()
	classes := make([]pixelClass, width*height)

	if len(classes) == 0 || baseline == target || bytes.Equal(baseline.Pix, target.Pix) {
		return classes, 0
	}

	maxDelta := maxYIQDelta * p.config.Threshold * p.config.Threshold

	// Use GOMAXPROCS instead of runtime.NumCPU() to consider cgroup.
	numWorkers := min(runtime.GOMAXPROCS(0), height)
	rowsPerWorker := height / numWorkers
	counts := make([]int, numWorkers)

	var wg sync.WaitGroup
	wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		startY := i * rowsPerWorker
		endY := startY + rowsPerWorker
		if i == numWorkers-1 {
			endY = height
		}

		go func(i int, startY int, endY int) {
			defer wg.Done()
			counts[i] = p.classifyRows(baseline.Pix, target.Pix, classes, width, height, maxDelta, startY, endY)
		}(i, startY, endY)
	}
	wg.Wait()

	count := 0
	for _, c := range counts {
		count += c
	}

	return classes, count
}

func (p *PixelDiff) classifyRows(baseline []uint8, target []uint8, classes []pixelClass, width int, height int, maxDelta float64, startY int, endY int) int {
	count := 0

	for y := startY; y < endY; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			pos := i * 4

			delta := colorDelta(baseline, target, pos, pos, false)
			if math.Abs(delta) <= maxDelta {
				continue
			}

			if !p.config.IncludeAA && (antialiased(baseline, target, x, y, width, height) || antialiased(target, baseline, x, y, width, height)) {
				classes[i] = pixelAntialiased
				continue
			}

			if delta < 0 {
				classes[i] = pixelChangedDarker
			} else {
				classes[i] = pixelChanged
			}
			count++
		}
	}

	return count
}

func (p *PixelDiff) render(baseline *image.NRGBA, classes []pixelClass) *image.NRGBA {
	diff := image.NewNRGBA(baseline.Rect)

	for i, class := range classes {
		pos := i * 4

		switch class {
		case pixelSame:
			if !p.config.DiffMask {
				v := grayValue(baseline.Pix, pos, p.config.Alpha)
				setOpaque(diff.Pix, pos, color.NRGBA{R: v, G: v, B: v})
			}
		case pixelAntialiased:
			if !p.config.DiffMask {
				setOpaque(diff.Pix, pos, p.config.AAColor)
			}
		case pixelChangedDarker:
			if p.config.DiffColorAlt != nil {
				setOpaque(diff.Pix, pos, *p.config.DiffColorAlt)
			} else {
				setOpaque(diff.Pix, pos, p.config.DiffColor)
			}
		case pixelChanged:
			setOpaque(diff.Pix, pos, p.config.DiffColor)
		}
	}

	return diff
}

// grayValue fades the luminance of a pixel towards white.
func grayValue(pix []uint8, pos int, alpha float64) uint8 {
	y := rgb2y(float64(pix[pos]), float64(pix[pos+1]), float64(pix[pos+2]))
	return uint8(blend(y, alpha*float64(pix[pos+3])/255))
}

func setOpaque(pix []uint8, pos int, c color.NRGBA) {
	pix[pos] = c.R
	pix[pos+1] = c.G
	pix[pos+2] = c.B
	pix[pos+3] = 255
}
