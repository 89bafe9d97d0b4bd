package pixels

import (
	"fmt"

	"github.com/cajal-labs/mosaic/mosaic"
)

// Operation messages attached to an AccessError by the two read paths.
const (
	readTileOp    = "cannot read tile"
	readRawTileOp = "cannot read raw tile"
)

// InstantiationError means the remote pixel access resource could not be
// created.  It is returned before any tile is fetched and is fatal to the
// whole read.
type InstantiationError struct {
	Err error
}

func (e InstantiationError) Error() string {
	return fmt.Sprintf("cannot create pixel access: %v", e.Err)
}

func (e InstantiationError) Unwrap() error {
	return e.Err
}

// AccessError means a single tile fetch failed at the data-source level.
// It is fatal to the whole read: no retry is attempted and no partial result
// is returned.  Op records whether the floating-point or raw-byte path was
// reading when the failure occurred.
type AccessError struct {
	Op     string
	Plane  mosaic.Plane
	Origin mosaic.Point2d
	Err    error
}

func (e AccessError) Error() string {
	return fmt.Sprintf("%s at %s, origin %s: %v", e.Op, e.Plane, e.Origin, e.Err)
}

func (e AccessError) Unwrap() error {
	return e.Err
}
