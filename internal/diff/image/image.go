package image

import (
	"fmt"
	"image"
)

type DiffResult struct {
	Image image.Image
	// DiffCount is the number of pixels classified as different.
	DiffCount int
	// DiffAmount is DiffCount divided by the number of pixels of the baseline.
	DiffAmount float64
}

// Percentage returns DiffAmount scaled to [0, 100].
func (r *DiffResult) Percentage() float64 {
	return r.DiffAmount * 100
}

type Differ interface {
	Calculate(baseline image.Image, target image.Image) (*DiffResult, error)
}

type DimensionMismatchError struct {
	Baseline image.Point
	Target   image.Point
}

func (e *DimensionMismatchError) Error() string {
	return fmt.Sprintf("dimension mismatch: baseline is %dx%d, target is %dx%d", e.Baseline.X, e.Baseline.Y, e.Target.X, e.Target.Y)
}

func checkDimensions(baseline image.Image, target image.Image) error {
	b := baseline.Bounds().Size()
	t := target.Bounds().Size()
	if b != t {
		return &DimensionMismatchError{Baseline: b, Target: t}
	}
	return nil
}

func diffAmount(count int, size image.Point) float64 {
	total := size.X * size.Y
	if total <= 0 {
		return 0.0
	}
	return float64(count) / float64(total)
}
