package image

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
)

const (
	outlineWidth = 3
	// mergeDistance is how close two regions may be before they are drawn
	// as one.
	mergeDistance = 10
)

// RectangleDiff classifies pixels like PixelDiff and outlines the changed
// regions on top of the target image.
type RectangleDiff struct {
	pixel *PixelDiff
	color color.NRGBA
}

func NewRectangleDiff(p PixelConfig) *RectangleDiff {
	return &RectangleDiff{
		pixel: NewPixelDiff(p),
		color: p.DiffColor,
	}
}

func (r *RectangleDiff) Calculate(baseline image.Image, target image.Image) (*DiffResult, error) {
	if err := checkDimensions(baseline, target); err != nil {
		return nil, err
	}

	baselineNRGBA := toNRGBA(baseline)
	targetNRGBA := toNRGBA(target)

	classes, count := r.pixel.classify(baselineNRGBA, targetNRGBA)

	bounds := targetNRGBA.Rect
	result := image.NewNRGBA(bounds)
	copy(result.Pix, targetNRGBA.Pix)

	for _, rect := range r.findRectangles(classes, bounds.Dx(), bounds.Dy()) {
		r.outline(result, rect)
	}

	return &DiffResult{
		Image:      result,
		DiffCount:  count,
		DiffAmount: diffAmount(count, baselineNRGBA.Rect.Size()),
	}, nil
}

func (r *RectangleDiff) findRectangles(classes []pixelClass, width int, height int) []image.Rectangle {
	visited := make([]bool, len(classes))

	var rectangles []image.Rectangle
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*width + x
			if classes[i].changed() && !visited[i] {
				rectangles = append(rectangles, r.findBoundingBox(classes, visited, x, y, width, height))
			}
		}
	}

	return r.mergeRectangles(rectangles)
}

// findBoundingBox flood-fills the 8-connected region of changed pixels
// containing (startX, startY).
func (r *RectangleDiff) findBoundingBox(classes []pixelClass, visited []bool, startX int, startY int, width int, height int) image.Rectangle {
	box := image.Rect(startX, startY, startX+1, startY+1)

	queue := []image.Point{{X: startX, Y: startY}}
	visited[startY*width+startX] = true

	for len(queue) > 0 {
		point := queue[0]
		queue = queue[1:]

		box = box.Union(image.Rect(point.X, point.Y, point.X+1, point.Y+1))

		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if dx == 0 && dy == 0 {
					continue
				}

				nx := point.X + dx
				ny := point.Y + dy
				if nx < 0 || nx >= width || ny < 0 || ny >= height {
					continue
				}

				i := ny*width + nx
				if classes[i].changed() && !visited[i] {
					visited[i] = true
					queue = append(queue, image.Point{X: nx, Y: ny})
				}
			}
		}
	}

	return box
}

// mergeRectangles unions rectangles closer than mergeDistance until no two
// remaining rectangles are that close.
func (r *RectangleDiff) mergeRectangles(rects []image.Rectangle) []image.Rectangle {
	merged := append([]image.Rectangle(nil), rects...)

	for changed := true; changed; {
		changed = false
		for i := 0; i < len(merged); i++ {
			for j := i + 1; j < len(merged); j++ {
				if !merged[i].Inset(-mergeDistance).Overlaps(merged[j].Inset(-mergeDistance)) {
					continue
				}

				merged[i] = merged[i].Union(merged[j])
				merged = append(merged[:j], merged[j+1:]...)
				changed = true
				j = i
			}
		}
	}

	return merged
}

// outline strokes a border of outlineWidth pixels just outside rect. Where
// rect touches the image edge the border moves inside it.
func (r *RectangleDiff) outline(dst *image.NRGBA, rect image.Rectangle) {
	outer := rect.Inset(-outlineWidth).Intersect(dst.Rect)
	inner := image.Rectangle{
		Min: outer.Min.Add(image.Pt(outlineWidth, outlineWidth)),
		Max: outer.Max.Sub(image.Pt(outlineWidth, outlineWidth)),
	}
	src := &image.Uniform{C: r.color}

	if inner.Empty() {
		draw.Draw(dst, outer, src, image.Point{}, draw.Src)
		return
	}

	for _, band := range []image.Rectangle{
		{Min: outer.Min, Max: image.Pt(outer.Max.X, inner.Min.Y)},
		{Min: image.Pt(outer.Min.X, inner.Max.Y), Max: outer.Max},
		{Min: image.Pt(outer.Min.X, inner.Min.Y), Max: image.Pt(inner.Min.X, inner.Max.Y)},
		{Min: image.Pt(inner.Max.X, inner.Min.Y), Max: image.Pt(outer.Max.X, inner.Max.Y)},
	} {
		draw.Draw(dst, band, src, image.Point{}, draw.Src)
	}
}
