package mosaic

import (
	"fmt"
)

// Axis indices into Point5d and Extents, in storage order.
const (
	AxisX uint8 = iota
	AxisY
	AxisC
	AxisZ
	AxisT
)

// NumAxes is the dimensionality of the voxel grid.
const NumAxes = 5

// Point2d is a 2d point, each coordinate of which is int32.
type Point2d [2]int32

// NumDims returns the dimensionality of this point.
func (p Point2d) NumDims() uint8 {
	return 2
}

// Value returns the point's value for the specified dimension without checking dim bounds.
func (p Point2d) Value(dim uint8) int32 {
	return p[dim]
}

func (p Point2d) Equals(p2 Point2d) bool {
	return p[0] == p2[0] && p[1] == p2[1]
}

func (p Point2d) String() string {
	return fmt.Sprintf("(%d,%d)", p[0], p[1])
}

// Point5d is a point in the 5d (X, Y, C, Z, T) voxel grid, each coordinate
// of which is int32.
type Point5d [5]int32

// NumDims returns the dimensionality of this point.
func (p Point5d) NumDims() uint8 {
	return NumAxes
}

// Value returns the point's value for the specified dimension without checking dim bounds.
func (p Point5d) Value(dim uint8) int32 {
	return p[dim]
}

// CheckedValue returns the point's value for the specified dimension and checks dim bounds.
func (p Point5d) CheckedValue(dim uint8) (int32, error) {
	if dim >= NumAxes {
		return 0, fmt.Errorf("cannot return dimension %d of 5d point", dim)
	}
	return p[dim], nil
}

// Add returns the addition of two points.
func (p Point5d) Add(p2 Point5d) Point5d {
	return Point5d{p[0] + p2[0], p[1] + p2[1], p[2] + p2[2], p[3] + p2[3], p[4] + p2[4]}
}

// Sub returns the subtraction of the passed point from the receiver.
func (p Point5d) Sub(p2 Point5d) Point5d {
	return Point5d{p[0] - p2[0], p[1] - p2[1], p[2] - p2[2], p[3] - p2[3], p[4] - p2[4]}
}

// AddScalar adds a scalar value to every coordinate of the point.
func (p Point5d) AddScalar(n int32) Point5d {
	return Point5d{p[0] + n, p[1] + n, p[2] + n, p[3] + n, p[4] + n}
}

// Max returns a point where each coordinate is the maximum of the two points' coordinates.
func (p Point5d) Max(p2 Point5d) Point5d {
	pm := p
	for i := uint8(0); i < NumAxes; i++ {
		if p2[i] > pm[i] {
			pm[i] = p2[i]
		}
	}
	return pm
}

// Min returns a point where each coordinate is the minimum of the two points' coordinates.
func (p Point5d) Min(p2 Point5d) Point5d {
	pm := p
	for i := uint8(0); i < NumAxes; i++ {
		if p2[i] < pm[i] {
			pm[i] = p2[i]
		}
	}
	return pm
}

// Prod returns the product of the point's coordinates.
func (p Point5d) Prod() int64 {
	return int64(p[0]) * int64(p[1]) * int64(p[2]) * int64(p[3]) * int64(p[4])
}

func (p Point5d) Equals(p2 Point5d) bool {
	return p == p2
}

func (p Point5d) String() string {
	return fmt.Sprintf("(%d,%d,%d,%d,%d)", p[0], p[1], p[2], p[3], p[4])
}
