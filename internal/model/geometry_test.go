package model

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBox_Validate(t *testing.T) {
	tests := []struct {
		name    string
		box     BoundingBox
		wantErr bool
	}{
		{name: "valid", box: BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: 0.4}},
		{name: "zero width", box: BoundingBox{X: 0.1, Y: 0.2, Width: 0, Height: 0.4}, wantErr: true},
		{name: "negative height", box: BoundingBox{X: 0.1, Y: 0.2, Width: 0.3, Height: -0.1}, wantErr: true},
		{name: "NaN", box: BoundingBox{X: math.NaN(), Y: 0, Width: 0.1, Height: 0.1}, wantErr: true},
		{name: "Inf", box: BoundingBox{X: 0, Y: math.Inf(1), Width: 0.1, Height: 0.1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestBoundingBox_ToAbsolute(t *testing.T) {
	b := BoundingBox{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2}

	abs, err := b.ToAbsolute(100, 100)
	require.NoError(t, err)
	assert.Equal(t, BoundingBox{X: 10, Y: 10, Width: 20, Height: 20}, abs)

	_, err = b.ToAbsolute(0, 100)
	assert.Error(t, err)
	_, err = b.ToAbsolute(100, -1)
	assert.Error(t, err)
}

// Converting to absolute pixels and back returns the original values within
// floating-point tolerance.
func TestBoundingBox_RoundTrip(t *testing.T) {
	const tol = 1e-6

	boxes := []BoundingBox{
		{X: 0.1, Y: 0.1, Width: 0.2, Height: 0.2},
		{X: 0, Y: 0, Width: 1, Height: 1},
		{X: 0.333, Y: 0.667, Width: 0.111, Height: 0.05},
		{X: 0.9999, Y: 0.0001, Width: 0.0001, Height: 0.5},
	}
	dims := [][2]int{{100, 100}, {1920, 1080}, {7, 13}}

	for _, b := range boxes {
		for _, d := range dims {
			abs, err := b.ToAbsolute(d[0], d[1])
			require.NoError(t, err)

			back, err := abs.ToNormalized(d[0], d[1])
			require.NoError(t, err)

			assert.InDelta(t, b.X, back.X, tol)
			assert.InDelta(t, b.Y, back.Y, tol)
			assert.InDelta(t, b.Width, back.Width, tol)
			assert.InDelta(t, b.Height, back.Height, tol)

			// anchor conversion round-trips too
			rt := abs.TopLeftToCenter().CenterToTopLeft()
			assert.InDelta(t, abs.X, rt.X, tol)
			assert.InDelta(t, abs.Y, rt.Y, tol)
		}
	}
}

func TestBoundingBox_TopLeftToCenter(t *testing.T) {
	b := BoundingBox{X: 10, Y: 10, Width: 20, Height: 20}
	c := b.TopLeftToCenter()
	assert.Equal(t, BoundingBox{X: 20, Y: 20, Width: 20, Height: 20}, c)
	assert.Equal(t, b, c.CenterToTopLeft())
}

func TestBoundingBox_Area(t *testing.T) {
	b := BoundingBox{Width: 20, Height: 20}
	assert.Equal(t, 400.0, b.Area())
}

func TestPolygon_Validate(t *testing.T) {
	valid := Polygon{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.1}, {X: 0.3, Y: 0.6}}
	assert.NoError(t, valid.Validate())

	tooFew := Polygon{{X: 0.1, Y: 0.1}, {X: 0.5, Y: 0.1}}
	assert.Error(t, tooFew.Validate())

	nonFinite := Polygon{{X: 0.1, Y: 0.1}, {X: math.NaN(), Y: 0.1}, {X: 0.3, Y: 0.6}}
	assert.Error(t, nonFinite.Validate())
}
