/*
	Package pixels reads 5d (X, Y, C, Z, T) sub-volumes of an image's voxel
	grid from a remote source that serves bounded rectangular tiles one
	plane at a time.  Reads resolve the requested region against the image
	extents, walk the plane and tile grid sequentially, and reassemble the
	fetched tiles into a dense float64 volume or a packed raw byte volume.
*/
package pixels

import (
	"fmt"

	"github.com/cajal-labs/mosaic/mosaic"
)

// MaxTileEdge is the maximum width or height in voxels of a single tile
// request, bounding per-request memory and network cost on the remote side.
const MaxTileEdge = 5000

// Pixels reads sub-volumes of one image's voxel grid.  The image extents
// and pixel type come from the image's metadata and are read-only here.
type Pixels struct {
	ext      mosaic.Extents
	ptype    mosaic.PixelType
	tileEdge int32
}

// NewPixels returns a Pixels for an image with the given extents and type.
func NewPixels(ext mosaic.Extents, ptype mosaic.PixelType) *Pixels {
	return &Pixels{
		ext:      ext,
		ptype:    ptype,
		tileEdge: MaxTileEdge,
	}
}

// Extents returns the per-axis sizes of the image's voxel grid.
func (p *Pixels) Extents() mosaic.Extents {
	return p.ext
}

// PixelType returns the storage type of the image's voxels.
func (p *Pixels) PixelType() mosaic.PixelType {
	return p.ptype
}

// SetTileEdge lowers the tile edge used to split fetches, e.g., to match a
// remote with a smaller per-request limit.  The edge is clamped to
// [1, MaxTileEdge].  Assembled output is identical for any edge setting.
func (p *Pixels) SetTileEdge(edge int32) {
	if edge < 1 {
		edge = 1
	}
	if edge > MaxTileEdge {
		edge = MaxTileEdge
	}
	p.tileEdge = edge
}

// TileEdge returns the tile edge currently in force.
func (p *Pixels) TileEdge() int32 {
	return p.tileEdge
}

// ReadValues fetches the requested region as float64 voxel values.  The
// session's remote access is opened if this call needs to, and released on
// every exit path, success or failure, if this call opened it.  Values pass
// through unchanged from the remote tiles.
func (p *Pixels) ReadValues(s *Session, region mosaic.Region) (*Volume, error) {
	bounds := region.Resolve(p.ext)
	created, err := s.ensureOpen()
	if err != nil {
		return nil, err
	}
	defer s.release(created)

	timedLog := mosaic.NewTimeLog()
	vol := NewVolume(bounds)
	size := bounds.Size()
	start := bounds.StartPoint()
	planeVoxels := int64(size[mosaic.AxisX]) * int64(size[mosaic.AxisY])
	planeI := int64(0)
	for t := int32(0); t < size[mosaic.AxisT]; t++ {
		for z := int32(0); z < size[mosaic.AxisZ]; z++ {
			for c := int32(0); c < size[mosaic.AxisC]; c++ {
				plane := mosaic.Plane{
					C: start[mosaic.AxisC] + c,
					Z: start[mosaic.AxisZ] + z,
					T: start[mosaic.AxisT] + t,
				}
				dst := vol.values[planeI*planeVoxels : (planeI+1)*planeVoxels]
				if err := p.readPlaneValues(s, plane, start, size, dst); err != nil {
					return nil, err
				}
				planeI++
			}
		}
	}
	timedLog.Debugf("read %d voxel values from %s", vol.NumVoxels(), bounds)
	return vol, nil
}

// readPlaneValues fetches one plane of the resolved bounds tile by tile and
// decodes each tile's values into dst, a sizeY*sizeX row-major slice.
func (p *Pixels) readPlaneValues(s *Session, plane mosaic.Plane, start, size mosaic.Point5d, dst []float64) error {
	sizeX := size[mosaic.AxisX]
	sizeY := size[mosaic.AxisY]
	for relX := int32(0); relX < sizeX; relX += p.tileEdge {
		tileW := p.tileEdge
		if sizeX-relX < tileW {
			tileW = sizeX - relX
		}
		for relY := int32(0); relY < sizeY; relY += p.tileEdge {
			tileH := p.tileEdge
			if sizeY-relY < tileH {
				tileH = sizeY - relY
			}
			origin := mosaic.Point2d{start[mosaic.AxisX] + relX, start[mosaic.AxisY] + relY}
			tile, err := s.fetch(plane, origin, tileW, tileH)
			if err != nil {
				return AccessError{Op: readTileOp, Plane: plane, Origin: origin, Err: err}
			}
			for y := int32(0); y < tileH; y++ {
				dstI := int64(relY+y)*int64(sizeX) + int64(relX)
				for x := int32(0); x < tileW; x++ {
					dst[dstI] = tile.Value(x, y)
					dstI++
				}
			}
		}
	}
	return nil
}

// ReadRaw fetches the requested region as packed raw bytes at the given
// bytes per pixel.  bytesPerPixel must match the pixel type's storage width
// for the bytes to be meaningful; they are copied verbatim either way.  The
// session's remote access is opened if this call needs to, and released on
// every exit path, success or failure, if this call opened it.
func (p *Pixels) ReadRaw(s *Session, region mosaic.Region, bytesPerPixel int32) (*RawVolume, error) {
	if bytesPerPixel < 1 {
		return nil, fmt.Errorf("bytes per pixel must be positive, got %d", bytesPerPixel)
	}
	bounds := region.Resolve(p.ext)
	created, err := s.ensureOpen()
	if err != nil {
		return nil, err
	}
	defer s.release(created)

	timedLog := mosaic.NewTimeLog()
	vol := NewRawVolume(bounds, bytesPerPixel)
	size := bounds.Size()
	start := bounds.StartPoint()
	planeI := int64(0)
	for t := int32(0); t < size[mosaic.AxisT]; t++ {
		for z := int32(0); z < size[mosaic.AxisZ]; z++ {
			for c := int32(0); c < size[mosaic.AxisC]; c++ {
				plane := mosaic.Plane{
					C: start[mosaic.AxisC] + c,
					Z: start[mosaic.AxisZ] + z,
					T: start[mosaic.AxisT] + t,
				}
				if err := p.readPlaneRaw(s, plane, start, size, bytesPerPixel, vol.planes[planeI]); err != nil {
					return nil, err
				}
				planeI++
			}
		}
	}
	timedLog.Debugf("read %d raw bytes from %s", vol.NumBytes(), bounds)
	return vol, nil
}

// readPlaneRaw fetches one plane of the resolved bounds tile by tile and
// copies each tile's payload into dst row by row, preserving per-pixel byte
// order.
func (p *Pixels) readPlaneRaw(s *Session, plane mosaic.Plane, start, size mosaic.Point5d, bpp int32, dst []byte) error {
	sizeX := size[mosaic.AxisX]
	sizeY := size[mosaic.AxisY]
	for relX := int32(0); relX < sizeX; relX += p.tileEdge {
		tileW := p.tileEdge
		if sizeX-relX < tileW {
			tileW = sizeX - relX
		}
		for relY := int32(0); relY < sizeY; relY += p.tileEdge {
			tileH := p.tileEdge
			if sizeY-relY < tileH {
				tileH = sizeY - relY
			}
			origin := mosaic.Point2d{start[mosaic.AxisX] + relX, start[mosaic.AxisY] + relY}
			tile, err := s.fetch(plane, origin, tileW, tileH)
			if err != nil {
				return AccessError{Op: readRawTileOp, Plane: plane, Origin: origin, Err: err}
			}
			if got, want := int64(len(tile.Data)), int64(tileW)*int64(tileH)*int64(bpp); got != want {
				err := fmt.Errorf("tile payload is %d bytes, expected %d at %d bytes/pixel", got, want, bpp)
				return AccessError{Op: readRawTileOp, Plane: plane, Origin: origin, Err: err}
			}
			rowBytes := int64(tileW) * int64(bpp)
			srcI := int64(0)
			for y := int32(0); y < tileH; y++ {
				dstI := (int64(relY+y)*int64(sizeX) + int64(relX)) * int64(bpp)
				copy(dst[dstI:dstI+rowBytes], tile.Data[srcI:srcI+rowBytes])
				srcI += rowBytes
			}
		}
	}
	return nil
}
