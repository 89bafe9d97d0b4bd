package mosaic

import (
	"fmt"
)

// Plane identifies one 2d (X,Y) slice of the voxel grid by its channel,
// section, and timepoint.
type Plane struct {
	C, Z, T int32
}

func (p Plane) String() string {
	return fmt.Sprintf("plane (c=%d, z=%d, t=%d)", p.C, p.Z, p.T)
}

// Tile is a rectangle of voxel values for one plane, fetched from a remote
// pixel source.  Data holds Width*Height*Type.Bytes() bytes in row-major
// order, so the bytes of the voxel at local (x, y) start at
// (y*Width+x)*Type.Bytes().  Tiles are transient: they are produced by a
// fetch and consumed immediately during assembly.
type Tile struct {
	Plane  Plane
	Origin Point2d
	Width  int32
	Height int32
	Type   PixelType
	Data   []byte
}

// NumBytes returns the expected payload size for the tile's geometry and type.
func (t *Tile) NumBytes() int64 {
	return int64(t.Width) * int64(t.Height) * int64(t.Type.Bytes())
}

// Validate checks the payload length against the tile's geometry and type.
func (t *Tile) Validate() error {
	if t.Width < 0 || t.Height < 0 {
		return fmt.Errorf("tile at %s has bad geometry %d x %d", t.Origin, t.Width, t.Height)
	}
	if got, want := int64(len(t.Data)), t.NumBytes(); got != want {
		return fmt.Errorf("tile at %s has %d byte payload, expected %d for %d x %d %s",
			t.Origin, got, want, t.Width, t.Height, t.Type)
	}
	return nil
}

// Value returns the voxel value at tile-local (x, y) as a float64.
func (t *Tile) Value(x, y int32) float64 {
	return t.Type.Value(t.Data, int64(y)*int64(t.Width)+int64(x))
}
