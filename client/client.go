/*
	Package client ties the mosaic pieces together for application code: it
	loads a TOML configuration, dials the remote pixel server, wires the
	optional tile cache, and hands out image handles whose reads are timed
	and reported as activity.
*/
package client

import (
	"fmt"
	"time"

	"github.com/cajal-labs/mosaic/cache"
	"github.com/cajal-labs/mosaic/gateway"
	"github.com/cajal-labs/mosaic/mosaic"
	"github.com/cajal-labs/mosaic/pixels"
)

// Conn is an established connection to a remote pixel server plus the
// client-side services around it.
type Conn struct {
	config *Config
	client *gateway.Client
	store  *cache.Store
}

// Dial connects using the given configuration: sets up logging, activity
// reporting, the tile cache, and the gateway connection.
func Dial(config *Config) (*Conn, error) {
	config.Logging.SetLogger()
	if err := config.Kafka.Initialize(config.Server.Address); err != nil {
		return nil, fmt.Errorf("cannot initialize kafka activity logging: %v", err)
	}

	var store *cache.Store
	if config.Cache.RAMSize > 0 || config.Cache.Path != "" {
		var err error
		if store, err = cache.NewStore(config.Cache); err != nil {
			return nil, err
		}
	}

	client, err := gateway.Dial(config.Server.Address)
	if err != nil {
		if store != nil {
			store.Close()
		}
		return nil, err
	}
	return &Conn{config: config, client: client, store: store}, nil
}

// Gateway returns the underlying gateway client.
func (c *Conn) Gateway() *gateway.Client {
	return c.client
}

// CacheStats returns tile cache statistics, or zero stats if no cache is
// configured.
func (c *Conn) CacheStats() cache.Stats {
	if c.store == nil {
		return cache.Stats{}
	}
	return c.store.Stats()
}

// Close releases the connection, the cache, and the activity producer.
func (c *Conn) Close() {
	c.client.Close()
	if c.store != nil {
		c.store.Close()
	}
	KafkaShutdown()
}

// Pixels fetches the metadata for one pixels instance and returns a handle
// for reading its voxels.  The handle's session batches reads: Open it to
// keep the remote access alive across several reads, or leave lifecycle to
// the individual reads.
func (c *Conn) Pixels(id string) (*Image, error) {
	remote, info, err := c.client.Pixels(id)
	if err != nil {
		return nil, err
	}
	var src pixels.TileSource = remote
	if c.store != nil {
		src = c.store.WrapSource(remote, id, info.Type)
	}
	return &Image{
		info:    info,
		pixels:  pixels.NewPixels(info.Extents, info.Type),
		session: pixels.NewSession(src),
	}, nil
}

// Image is a read handle for one pixels instance.
type Image struct {
	info    *gateway.PixelsInfo
	pixels  *pixels.Pixels
	session *pixels.Session
}

// Info returns the parsed metadata for this image.
func (img *Image) Info() *gateway.PixelsInfo {
	return img.info
}

// Pixels returns the read engine for this image.
func (img *Image) Pixels() *pixels.Pixels {
	return img.pixels
}

// Session returns the session reads on this image go through.  Callers
// batching several reads can Open it once and Close it when done.
func (img *Image) Session() *pixels.Session {
	return img.session
}

// Close releases any remote access the session still holds.
func (img *Image) Close() error {
	return img.session.Close()
}

// ReadValues reads a region of the image as float64 voxel values, timing
// the call and reporting it as activity.
func (img *Image) ReadValues(region mosaic.Region) (*pixels.Volume, error) {
	timedLog := mosaic.NewTimeLog()
	start := time.Now()
	vol, err := img.pixels.ReadValues(img.session, region)
	activity := map[string]interface{}{
		"action":      "read-values",
		"pixels":      img.info.ID,
		"region":      region.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		activity["error"] = err.Error()
		LogActivity(activity)
		return nil, err
	}
	activity["voxels"] = vol.NumVoxels()
	LogActivity(activity)
	timedLog.Infof("read %d voxel values of pixels %s", vol.NumVoxels(), img.info.ID)
	return vol, nil
}

// ReadRaw reads a region of the image as packed raw bytes at the given
// bytes per pixel, timing the call and reporting it as activity.
func (img *Image) ReadRaw(region mosaic.Region, bytesPerPixel int32) (*pixels.RawVolume, error) {
	timedLog := mosaic.NewTimeLog()
	start := time.Now()
	vol, err := img.pixels.ReadRaw(img.session, region, bytesPerPixel)
	activity := map[string]interface{}{
		"action":      "read-raw",
		"pixels":      img.info.ID,
		"region":      region.String(),
		"duration_ms": time.Since(start).Milliseconds(),
	}
	if err != nil {
		activity["error"] = err.Error()
		LogActivity(activity)
		return nil, err
	}
	activity["bytes"] = vol.NumBytes()
	LogActivity(activity)
	timedLog.Infof("read %d raw bytes of pixels %s", vol.NumBytes(), img.info.ID)
	return vol, nil
}
