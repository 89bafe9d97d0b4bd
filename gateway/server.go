package gateway

import (
	"strings"
	"sync"

	"github.com/valyala/gorpc"

	"github.com/cajal-labs/mosaic/mosaic"
)

// Handler serves the remote side of the gateway protocol.  Production
// servers live outside this library; tests serve synthetic handlers over
// unix sockets.
type Handler interface {
	// Hello registers a client token and returns the server's semantic
	// version string.
	Hello(token string) (version string, err error)

	// PixelsMeta returns the metadata JSON for one pixels instance.
	PixelsMeta(id string) ([]byte, error)

	// OpenPixels instantiates a tile access for one pixels instance and
	// returns its handle.
	OpenPixels(id string) (uint64, error)

	// FetchTile reads one rectangle of one plane through an open access,
	// returning packed little-endian bytes in row-major order.
	FetchTile(access uint64, plane mosaic.Plane, origin mosaic.Point2d, width, height int32) ([]byte, error)

	// ClosePixels releases an open tile access.
	ClosePixels(access uint64) error
}

var (
	handler   Handler
	handlerMu sync.RWMutex
)

// StartServer serves the gateway protocol at the given address using the
// supplied handler.  Addresses prefixed with "unix:" are served on a unix
// socket, which tests use for in-process round trips.  Only one handler
// serves per process.
func StartServer(addr string, h Handler) (*gorpc.Server, error) {
	handlerMu.Lock()
	handler = h
	handlerMu.Unlock()

	var s *gorpc.Server
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		s = gorpc.NewUnixServer(path, dispatcher.NewHandlerFunc())
	} else {
		s = gorpc.NewTCPServer(addr, dispatcher.NewHandlerFunc())
	}
	if err := s.Start(); err != nil {
		return nil, err
	}
	return s, nil
}

// StopServer stops a server started with StartServer and detaches its
// handler.
func StopServer(s *gorpc.Server) {
	s.Stop()
	handlerMu.Lock()
	handler = nil
	handlerMu.Unlock()
}
