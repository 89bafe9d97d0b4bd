/*
	Package gateway implements the wire protocol between mosaic and a remote
	pixel server using gorpc.  The protocol mirrors the narrow surface the
	pixels package consumes: a hello exchange, pixels metadata lookup, and
	open/fetch/close of a stateful tile access.
*/
package gateway

import (
	"fmt"

	"github.com/valyala/gorpc"

	"github.com/cajal-labs/mosaic/mosaic"
)

// Names of the remote calls routed by the gateway dispatcher.
const (
	helloCall = "gateway.Hello"
	metaCall  = "gateway.PixelsMeta"
	openCall  = "gateway.OpenPixels"
	fetchCall = "gateway.FetchTile"
	closeCall = "gateway.ClosePixels"
)

// HelloRequest opens a connection.  Token identifies this client in server
// logs and is generated per Dial.
type HelloRequest struct {
	Token string
}

// HelloResponse carries the server's semantic version.
type HelloResponse struct {
	Version string
}

// MetaRequest asks for the metadata of one pixels instance.
type MetaRequest struct {
	ID string
}

// MetaResponse carries pixels metadata as a JSON document.
type MetaResponse struct {
	JSON []byte
}

// OpenRequest instantiates a tile access for one pixels instance.
type OpenRequest struct {
	ID string
}

// OpenResponse carries the handle of the opened tile access.
type OpenResponse struct {
	Access uint64
}

// TileRequest reads one rectangle of one plane through an open access.
type TileRequest struct {
	Access  uint64
	C, Z, T int32
	X, Y    int32
	Width   int32
	Height  int32
}

// TileResponse carries the packed bytes of the requested rectangle.
type TileResponse struct {
	Data []byte
}

// CloseRequest releases an open tile access.
type CloseRequest struct {
	Access uint64
}

var dispatcher *gorpc.Dispatcher

func init() {
	gorpc.RegisterType(&HelloRequest{})
	gorpc.RegisterType(&HelloResponse{})
	gorpc.RegisterType(&MetaRequest{})
	gorpc.RegisterType(&MetaResponse{})
	gorpc.RegisterType(&OpenRequest{})
	gorpc.RegisterType(&OpenResponse{})
	gorpc.RegisterType(&TileRequest{})
	gorpc.RegisterType(&TileResponse{})
	gorpc.RegisterType(&CloseRequest{})

	// The dispatcher routes calls to whatever Handler is serving.  The same
	// dispatcher validates call names and payload types on the client side.
	d := gorpc.NewDispatcher()
	d.AddFunc(helloCall, func(req *HelloRequest) (*HelloResponse, error) {
		h, err := servingHandler()
		if err != nil {
			return nil, err
		}
		version, err := h.Hello(req.Token)
		if err != nil {
			return nil, err
		}
		return &HelloResponse{Version: version}, nil
	})
	d.AddFunc(metaCall, func(req *MetaRequest) (*MetaResponse, error) {
		h, err := servingHandler()
		if err != nil {
			return nil, err
		}
		jsonData, err := h.PixelsMeta(req.ID)
		if err != nil {
			return nil, err
		}
		return &MetaResponse{JSON: jsonData}, nil
	})
	d.AddFunc(openCall, func(req *OpenRequest) (*OpenResponse, error) {
		h, err := servingHandler()
		if err != nil {
			return nil, err
		}
		access, err := h.OpenPixels(req.ID)
		if err != nil {
			return nil, err
		}
		return &OpenResponse{Access: access}, nil
	})
	d.AddFunc(fetchCall, func(req *TileRequest) (*TileResponse, error) {
		h, err := servingHandler()
		if err != nil {
			return nil, err
		}
		plane := mosaic.Plane{C: req.C, Z: req.Z, T: req.T}
		origin := mosaic.Point2d{req.X, req.Y}
		data, err := h.FetchTile(req.Access, plane, origin, req.Width, req.Height)
		if err != nil {
			return nil, err
		}
		return &TileResponse{Data: data}, nil
	})
	d.AddFunc(closeCall, func(req *CloseRequest) error {
		h, err := servingHandler()
		if err != nil {
			return err
		}
		return h.ClosePixels(req.Access)
	})
	dispatcher = d
}

func servingHandler() (Handler, error) {
	handlerMu.RLock()
	h := handler
	handlerMu.RUnlock()
	if h == nil {
		return nil, fmt.Errorf("no gateway handler is serving")
	}
	return h, nil
}
