package model

import (
	"errors"
	"fmt"
	"math"
)

// Geometry value types for annotations. All stored coordinates are
// normalized: expressed as a proportion (0-1) of the image's pixel width or
// height, independent of resolution. Bounding boxes are top-left anchored.
// Polygon points follow the same normalized contract as bounding boxes.

// BoundingBox is a rectangle {x, y, width, height}. In the stored
// representation all four values are proportions of the image size and
// (X, Y) is the top-left corner.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Validate rejects non-finite values and non-positive dimensions.
func (b BoundingBox) Validate() error {
	for _, v := range [...]float64{b.X, b.Y, b.Width, b.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.New("bounding box values must be finite")
		}
	}
	if b.Width <= 0 || b.Height <= 0 {
		return fmt.Errorf("bounding box dimensions must be positive, got %vx%v", b.Width, b.Height)
	}
	return nil
}

// ToAbsolute scales a normalized box to absolute pixel coordinates for an
// image of the given dimensions.
func (b BoundingBox) ToAbsolute(imgWidth, imgHeight int) (BoundingBox, error) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return BoundingBox{}, fmt.Errorf("image dimensions must be positive, got %dx%d", imgWidth, imgHeight)
	}
	w := float64(imgWidth)
	h := float64(imgHeight)
	return BoundingBox{
		X:      b.X * w,
		Y:      b.Y * h,
		Width:  b.Width * w,
		Height: b.Height * h,
	}, nil
}

// ToNormalized is the inverse of ToAbsolute.
func (b BoundingBox) ToNormalized(imgWidth, imgHeight int) (BoundingBox, error) {
	if imgWidth <= 0 || imgHeight <= 0 {
		return BoundingBox{}, fmt.Errorf("image dimensions must be positive, got %dx%d", imgWidth, imgHeight)
	}
	w := float64(imgWidth)
	h := float64(imgHeight)
	return BoundingBox{
		X:      b.X / w,
		Y:      b.Y / h,
		Width:  b.Width / w,
		Height: b.Height / h,
	}, nil
}

// TopLeftToCenter re-anchors the box so (X, Y) is its center. Width and
// Height are unchanged.
func (b BoundingBox) TopLeftToCenter() BoundingBox {
	b.X += b.Width / 2
	b.Y += b.Height / 2
	return b
}

// CenterToTopLeft is the inverse of TopLeftToCenter.
func (b BoundingBox) CenterToTopLeft() BoundingBox {
	b.X -= b.Width / 2
	b.Y -= b.Height / 2
	return b
}

// Area returns Width * Height in the box's current unit system.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// Point is a single normalized coordinate pair.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Polygon is an ordered sequence of at least three points.
type Polygon []Point

// MinPolygonPoints is the minimum number of vertices a polygon must have.
const MinPolygonPoints = 3

// Validate rejects polygons with fewer than three points or non-finite
// coordinates.
func (p Polygon) Validate() error {
	if len(p) < MinPolygonPoints {
		return fmt.Errorf("polygon requires at least %d points, got %d", MinPolygonPoints, len(p))
	}
	for _, pt := range p {
		if math.IsNaN(pt.X) || math.IsInf(pt.X, 0) || math.IsNaN(pt.Y) || math.IsInf(pt.Y, 0) {
			return errors.New("polygon coordinates must be finite")
		}
	}
	return nil
}
