package pixels

import (
	"fmt"

	"github.com/cajal-labs/mosaic/mosaic"
)

// Volume is the dense floating-point output of a read: float64 voxel values
// for a resolved subvolume, packed in [t][z][c][y][x] order.  The buffer is
// exclusively owned by the caller once returned.
type Volume struct {
	bounds mosaic.Subvolume
	values []float64
}

// NewVolume allocates a Volume sized exactly to the given bounds.
func NewVolume(bounds mosaic.Subvolume) *Volume {
	return &Volume{
		bounds: bounds,
		values: make([]float64, bounds.NumVoxels()),
	}
}

// Bounds returns the resolved subvolume this buffer covers.
func (v *Volume) Bounds() mosaic.Subvolume {
	return v.bounds
}

// Size returns the per-axis sizes of the buffer.
func (v *Volume) Size() mosaic.Point5d {
	return v.bounds.Size()
}

// NumVoxels returns the number of voxel values held.
func (v *Volume) NumVoxels() int64 {
	return int64(len(v.values))
}

// Values returns the flat backing slice in [t][z][c][y][x] order.
func (v *Volume) Values() []float64 {
	return v.values
}

// Value returns the voxel at buffer-local coordinates.
func (v *Volume) Value(x, y, c, z, t int32) float64 {
	size := v.bounds.Size()
	i := int64(t)
	i = i*int64(size[mosaic.AxisZ]) + int64(z)
	i = i*int64(size[mosaic.AxisC]) + int64(c)
	i = i*int64(size[mosaic.AxisY]) + int64(y)
	i = i*int64(size[mosaic.AxisX]) + int64(x)
	return v.values[i]
}

// PlaneValues returns the slice of values for one plane at buffer-local
// (c, z, t), sized sizeY*sizeX in row-major order.
func (v *Volume) PlaneValues(c, z, t int32) []float64 {
	size := v.bounds.Size()
	planeVoxels := int64(size[mosaic.AxisX]) * int64(size[mosaic.AxisY])
	i := (int64(t)*int64(size[mosaic.AxisZ])+int64(z))*int64(size[mosaic.AxisC]) + int64(c)
	return v.values[i*planeVoxels : (i+1)*planeVoxels]
}

func (v *Volume) String() string {
	return fmt.Sprintf("float64 volume of %s", v.bounds)
}

// RawVolume is the packed raw-byte output of a read: one byte sequence per
// (t,z,c) plane slot, each sizeY*sizeX*bpp bytes in (y*width+x)*bpp+i order,
// where bpp is the caller-supplied bytes per pixel.  Interpreting the bytes
// requires knowing the pixel type's own byte order and width; the bytes are
// copied verbatim from the remote tiles.
type RawVolume struct {
	bounds mosaic.Subvolume
	bpp    int32
	planes [][]byte
}

// NewRawVolume allocates a RawVolume sized exactly to the given bounds at
// the given bytes per pixel.
func NewRawVolume(bounds mosaic.Subvolume, bytesPerPixel int32) *RawVolume {
	size := bounds.Size()
	numPlanes := int64(size[mosaic.AxisC]) * int64(size[mosaic.AxisZ]) * int64(size[mosaic.AxisT])
	planeBytes := int64(size[mosaic.AxisX]) * int64(size[mosaic.AxisY]) * int64(bytesPerPixel)
	planes := make([][]byte, numPlanes)
	for i := range planes {
		planes[i] = make([]byte, planeBytes)
	}
	return &RawVolume{
		bounds: bounds,
		bpp:    bytesPerPixel,
		planes: planes,
	}
}

// Bounds returns the resolved subvolume this buffer covers.
func (v *RawVolume) Bounds() mosaic.Subvolume {
	return v.bounds
}

// Size returns the per-axis sizes of the buffer.
func (v *RawVolume) Size() mosaic.Point5d {
	return v.bounds.Size()
}

// BytesPerPixel returns the caller-supplied packing width.
func (v *RawVolume) BytesPerPixel() int32 {
	return v.bpp
}

// NumBytes returns the total payload size across all plane slots.
func (v *RawVolume) NumBytes() int64 {
	var n int64
	for _, plane := range v.planes {
		n += int64(len(plane))
	}
	return n
}

// Plane returns the packed bytes for one plane at buffer-local (c, z, t).
func (v *RawVolume) Plane(c, z, t int32) []byte {
	size := v.bounds.Size()
	i := (int64(t)*int64(size[mosaic.AxisZ])+int64(z))*int64(size[mosaic.AxisC]) + int64(c)
	return v.planes[i]
}

func (v *RawVolume) String() string {
	return fmt.Sprintf("%d bytes/pixel raw volume of %s", v.bpp, v.bounds)
}
