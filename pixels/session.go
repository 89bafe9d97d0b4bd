package pixels

import (
	"fmt"

	"github.com/cajal-labs/mosaic/mosaic"
)

// TileSource can open access to one image's remote pixel data.  It is the
// only boundary between volume assembly and the surrounding system.
type TileSource interface {
	// OpenAccess instantiates the stateful remote tile resource.
	OpenAccess() (TileAccess, error)
}

// TileAccess is an open handle to the remote tile resource.  It is stateful
// and not safe for concurrent use.
type TileAccess interface {
	// FetchTile reads one rectangle of the given plane.  Width and height
	// never exceed MaxTileEdge.
	FetchTile(plane mosaic.Plane, origin mosaic.Point2d, width, height int32) (*mosaic.Tile, error)

	// Close releases the remote resource.
	Close() error
}

// Session tracks one open TileAccess across one or more reads.  A read opens
// the access lazily if the session holds none, and closes it on the way out
// only if that read opened it, so a caller batching several reads can call
// Open once, run the reads, and Close when done.  A Session is not safe for
// concurrent use; concurrent readers need separate sessions.
type Session struct {
	src    TileSource
	access TileAccess
}

// NewSession returns a Session that will open access through the given source.
func NewSession(src TileSource) *Session {
	return &Session{src: src}
}

// IsOpen returns true if the session currently holds an open access.
func (s *Session) IsOpen() bool {
	return s.access != nil
}

// Open makes sure the session holds an open access, instantiating one if
// needed.  Reads made while the session is open will not close it.
func (s *Session) Open() error {
	_, err := s.ensureOpen()
	return err
}

// Close releases the open access if the session holds one.  Calling Close on
// a never-opened or already-closed session is a no-op.
func (s *Session) Close() error {
	if s.access == nil {
		return nil
	}
	err := s.access.Close()
	s.access = nil
	return err
}

// ensureOpen opens the remote access if none is open, returning whether this
// call performed the open.
func (s *Session) ensureOpen() (created bool, err error) {
	if s.access != nil {
		return false, nil
	}
	if s.src == nil {
		return false, InstantiationError{Err: fmt.Errorf("session has no tile source")}
	}
	access, err := s.src.OpenAccess()
	if err != nil {
		return false, InstantiationError{Err: err}
	}
	s.access = access
	return true, nil
}

// release closes the access only if the calling read created it.  Errors on
// close are logged rather than returned so they cannot mask a read failure.
func (s *Session) release(created bool) {
	if !created {
		return
	}
	if err := s.Close(); err != nil {
		mosaic.Errorf("error closing pixel access: %v\n", err)
	}
}

// fetch issues exactly one remote read for the rectangle and validates the
// returned payload.  No retry is attempted.
func (s *Session) fetch(plane mosaic.Plane, origin mosaic.Point2d, width, height int32) (*mosaic.Tile, error) {
	if s.access == nil {
		return nil, fmt.Errorf("no open pixel access")
	}
	tile, err := s.access.FetchTile(plane, origin, width, height)
	if err != nil {
		return nil, err
	}
	if err := tile.Validate(); err != nil {
		return nil, err
	}
	return tile, nil
}
