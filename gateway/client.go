package gateway

import (
	"fmt"
	"strings"

	"github.com/blang/semver"
	"github.com/twinj/uuid"
	"github.com/valyala/gorpc"

	"github.com/cajal-labs/mosaic/mosaic"
	"github.com/cajal-labs/mosaic/pixels"
)

// MinServerVersion is the oldest pixel server this client can talk to.
var MinServerVersion = semver.MustParse("1.0.0")

// Client is a connection to a remote pixel server.  It is safe to share
// across goroutines, but the tile accesses it opens are not.
type Client struct {
	addr    string
	token   string
	version semver.Version

	c  *gorpc.Client
	dc *gorpc.DispatcherClient
}

// Dial connects to a pixel server, performs the hello exchange, and checks
// the server's version against MinServerVersion.  Addresses prefixed with
// "unix:" dial a unix socket.
func Dial(addr string) (*Client, error) {
	var c *gorpc.Client
	if path, ok := strings.CutPrefix(addr, "unix:"); ok {
		c = gorpc.NewUnixClient(path)
	} else {
		c = gorpc.NewTCPClient(addr)
	}
	c.Start()
	dc := dispatcher.NewFuncClient(c)
	if dc == nil {
		c.Stop()
		return nil, fmt.Errorf("can't create dispatcher client for %q", addr)
	}

	token := uuid.NewV4().String()
	resp, err := dc.Call(helloCall, &HelloRequest{Token: token})
	if err != nil {
		c.Stop()
		return nil, fmt.Errorf("hello to pixel server %q failed: %v", addr, err)
	}
	hello, ok := resp.(*HelloResponse)
	if !ok {
		c.Stop()
		return nil, fmt.Errorf("pixel server %q returned %v instead of hello response", addr, resp)
	}
	version, err := semver.Parse(hello.Version)
	if err != nil {
		c.Stop()
		return nil, fmt.Errorf("pixel server %q sent bad version %q: %v", addr, hello.Version, err)
	}
	if version.LT(MinServerVersion) {
		c.Stop()
		return nil, fmt.Errorf("pixel server %q is version %s, need at least %s", addr, version, MinServerVersion)
	}
	mosaic.Infof("Connected to pixel server %s, version %s\n", addr, version)
	return &Client{
		addr:    addr,
		token:   token,
		version: version,
		c:       c,
		dc:      dc,
	}, nil
}

// Addr returns the dialed server address.
func (c *Client) Addr() string {
	return c.addr
}

// Token returns the client token sent in the hello exchange.
func (c *Client) Token() string {
	return c.token
}

// ServerVersion returns the version reported by the server.
func (c *Client) ServerVersion() semver.Version {
	return c.version
}

// Close stops the underlying connection.
func (c *Client) Close() {
	c.c.Stop()
}

// Pixels fetches and validates the metadata of one pixels instance and
// returns a tile source for it alongside the parsed metadata.
func (c *Client) Pixels(id string) (*RemoteSource, *PixelsInfo, error) {
	resp, err := c.dc.Call(metaCall, &MetaRequest{ID: id})
	if err != nil {
		return nil, nil, fmt.Errorf("cannot get metadata for pixels %q: %v", id, err)
	}
	meta, ok := resp.(*MetaResponse)
	if !ok {
		return nil, nil, fmt.Errorf("pixel server returned %v instead of metadata for pixels %q", resp, id)
	}
	info, err := ParsePixelsInfo(meta.JSON)
	if err != nil {
		return nil, nil, fmt.Errorf("bad metadata for pixels %q: %v", id, err)
	}
	return &RemoteSource{c: c, id: id, ptype: info.Type}, info, nil
}

// RemoteSource opens tile accesses for one pixels instance over a dialed
// client.  It implements pixels.TileSource.
type RemoteSource struct {
	c     *Client
	id    string
	ptype mosaic.PixelType
}

// OpenAccess instantiates the remote tile resource for this pixels instance.
func (s *RemoteSource) OpenAccess() (pixels.TileAccess, error) {
	resp, err := s.c.dc.Call(openCall, &OpenRequest{ID: s.id})
	if err != nil {
		return nil, fmt.Errorf("cannot open pixel access for %q: %v", s.id, err)
	}
	opened, ok := resp.(*OpenResponse)
	if !ok {
		return nil, fmt.Errorf("pixel server returned %v instead of access for %q", resp, s.id)
	}
	return &remoteAccess{c: s.c, access: opened.Access, ptype: s.ptype}, nil
}

// remoteAccess is an open handle to a remote tile resource.  Stateful, not
// safe for concurrent use.
type remoteAccess struct {
	c      *Client
	access uint64
	ptype  mosaic.PixelType
}

func (a *remoteAccess) FetchTile(plane mosaic.Plane, origin mosaic.Point2d, width, height int32) (*mosaic.Tile, error) {
	resp, err := a.c.dc.Call(fetchCall, &TileRequest{
		Access: a.access,
		C:      plane.C,
		Z:      plane.Z,
		T:      plane.T,
		X:      origin[0],
		Y:      origin[1],
		Width:  width,
		Height: height,
	})
	if err != nil {
		return nil, err
	}
	tileResp, ok := resp.(*TileResponse)
	if !ok {
		return nil, fmt.Errorf("pixel server returned %v instead of tile data", resp)
	}
	return &mosaic.Tile{
		Plane:  plane,
		Origin: origin,
		Width:  width,
		Height: height,
		Type:   a.ptype,
		Data:   tileResp.Data,
	}, nil
}

func (a *remoteAccess) Close() error {
	_, err := a.c.dc.Call(closeCall, &CloseRequest{Access: a.access})
	return err
}
