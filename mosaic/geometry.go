package mosaic

import (
	"fmt"
	"strconv"
	"strings"
)

// Extents holds the authoritative per-axis sizes (X, Y, C, Z, T) of an
// image's voxel grid.
type Extents Point5d

// Size returns the extents as a point of per-axis sizes.
func (e Extents) Size() Point5d {
	return Point5d(e)
}

// MaxPoint returns the maximum valid coordinate on each axis, i.e., size - 1.
func (e Extents) MaxPoint() Point5d {
	return Point5d(e).AddScalar(-1)
}

// NumVoxels returns the total number of voxels within the extents.
func (e Extents) NumVoxels() int64 {
	return Point5d(e).Prod()
}

// Contains returns true if the given point falls within the extents.
func (e Extents) Contains(p Point5d) bool {
	for i := uint8(0); i < NumAxes; i++ {
		if p[i] < 0 || p[i] >= e[i] {
			return false
		}
	}
	return true
}

func (e Extents) String() string {
	return Point5d(e).String()
}

// Span optionally restricts one axis of a read to the inclusive range
// [lo, hi].  A nil or single-element span leaves the axis unrestricted.
type Span []int32

// StringToSpan parses a "lo:hi" string into a Span.  An empty string returns
// a nil span, leaving the axis unrestricted.
func StringToSpan(str string) (Span, error) {
	if str == "" {
		return nil, nil
	}
	elems := strings.Split(str, ":")
	if len(elems) != 2 {
		return nil, fmt.Errorf("bad span %q, expected lo:hi", str)
	}
	span := make(Span, 2)
	for i, elem := range elems {
		n, err := strconv.ParseInt(strings.TrimSpace(elem), 10, 32)
		if err != nil {
			return nil, fmt.Errorf("bad span %q: %v", str, err)
		}
		span[i] = int32(n)
	}
	return span, nil
}

// Region restricts a read to part of the voxel grid.  The zero value reads
// the full grid.
type Region struct {
	X, Y, C, Z, T Span
}

func (r Region) spans() [NumAxes]Span {
	return [NumAxes]Span{r.X, r.Y, r.C, r.Z, r.T}
}

// Resolve clamps the region against the given extents and returns the
// canonical start+size box to read.  Per axis: an unrestricted span yields
// the full [0, extent-1] range; a [lo, hi] span is clamped to max(0, lo) and
// min(extent-1, hi).  An inverted or degenerate span is not an error and
// resolves to a zero size on that axis.
func (r Region) Resolve(ext Extents) Subvolume {
	var offset, size Point5d
	for i, span := range r.spans() {
		lo := int32(0)
		hi := ext[i] - 1
		if len(span) >= 2 {
			if span[0] > lo {
				lo = span[0]
			}
			if span[1] < hi {
				hi = span[1]
			}
		}
		offset[i] = lo
		if hi < lo {
			size[i] = 0
		} else {
			size[i] = hi - lo + 1
		}
	}
	return Subvolume{offset, size}
}

func (r Region) String() string {
	var parts []string
	for i, span := range r.spans() {
		if len(span) >= 2 {
			parts = append(parts, fmt.Sprintf("%c=[%d,%d]", "xyczt"[i], span[0], span[1]))
		}
	}
	if len(parts) == 0 {
		return "full region"
	}
	return strings.Join(parts, " ")
}

// Subvolume describes an axis-aligned 5d box.  The "Sub" prefix emphasizes
// that the data is usually a smaller portion of the full image volume.
// Subvolumes are produced by Region.Resolve rather than constructed directly,
// so offset and size are always within the image extents.
type Subvolume struct {
	offset Point5d
	size   Point5d
}

// NewSubvolume returns a Subvolume given the box's origin and size.
func NewSubvolume(offset, size Point5d) Subvolume {
	return Subvolume{offset, size}
}

// StartPoint returns the origin of the box.
func (s Subvolume) StartPoint() Point5d {
	return s.offset
}

// Size returns the per-axis sizes of the box.
func (s Subvolume) Size() Point5d {
	return s.size
}

// EndPoint returns offset + size - 1.  It is only meaningful when every axis
// size is positive.
func (s Subvolume) EndPoint() Point5d {
	return s.offset.Add(s.size.AddScalar(-1))
}

// NumVoxels returns the number of voxels within the box.
func (s Subvolume) NumVoxels() int64 {
	return s.size.Prod()
}

func (s Subvolume) String() string {
	return fmt.Sprintf("%s-voxel box at %s", s.size, s.offset)
}
