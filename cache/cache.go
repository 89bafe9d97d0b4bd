/*
	Package cache layers an optional tile cache over any pixels.TileSource.
	A RAM tier (freecache) answers first, then a disk tier (badger); misses
	fall through to the wrapped source and populate both tiers.  Entries are
	stored in the mosaic serialization envelope, so a corrupt disk entry is
	detected by its checksum and treated as a miss.  Caching never changes
	read semantics: the wrapped source still opens and closes the remote
	access exactly as an unwrapped one would.
*/
package cache

import (
	"fmt"
	"sync/atomic"

	"github.com/DmitriyVTitov/size"
	"github.com/coocood/freecache"
	"github.com/dustin/go-humanize"

	"github.com/cajal-labs/mosaic/mosaic"
	"github.com/cajal-labs/mosaic/pixels"
)

// Config sizes the cache tiers.  A zero RAMSize disables the RAM tier; an
// empty Path disables the disk tier.
type Config struct {
	RAMSize int    `toml:"ram_size"` // bytes
	Path    string `toml:"path"`
}

// Store is a two-tier tile cache.  It is safe for concurrent use.
type Store struct {
	ram  *freecache.Cache
	disk *badgerTier

	attempts uint64
	ramHits  uint64
	diskHits uint64
}

// NewStore opens the tiers given by the config.  A config with neither tier
// enabled yields a store that only counts misses.
func NewStore(config Config) (*Store, error) {
	s := new(Store)
	if config.RAMSize > 0 {
		s.ram = freecache.NewCache(config.RAMSize)
		mosaic.Infof("Created tile cache RAM tier of ~ %d MB.\n", config.RAMSize>>20)
	}
	if config.Path != "" {
		disk, err := openBadgerTier(config.Path)
		if err != nil {
			return nil, fmt.Errorf("cannot open tile cache disk tier at %q: %v", config.Path, err)
		}
		s.disk = disk
	}
	return s, nil
}

// Close releases the disk tier.  The store must not be used afterwards.
func (s *Store) Close() {
	if s.disk != nil {
		s.disk.close()
	}
}

// tileKey identifies one cached tile by pixels instance, plane, origin, and
// geometry.
func tileKey(pixelsID string, plane mosaic.Plane, origin mosaic.Point2d, width, height int32) []byte {
	return []byte(fmt.Sprintf("%s|%d,%d,%d|%d,%d|%dx%d",
		pixelsID, plane.C, plane.Z, plane.T, origin[0], origin[1], width, height))
}

// get returns the cached payload for the key or nil on a miss.  A disk hit
// is promoted into the RAM tier.
func (s *Store) get(key []byte) []byte {
	atomic.AddUint64(&s.attempts, 1)
	if s.ram != nil {
		wrapped, err := s.ram.Get(key)
		if err == nil {
			if payload := s.unwrap(key, wrapped); payload != nil {
				atomic.AddUint64(&s.ramHits, 1)
				return payload
			}
		} else if err != freecache.ErrNotFound {
			mosaic.Errorf("error on tile cache RAM get: %v\n", err)
		}
	}
	if s.disk != nil {
		wrapped, err := s.disk.get(key)
		if err != nil {
			mosaic.Errorf("error on tile cache disk get: %v\n", err)
			return nil
		}
		if wrapped != nil {
			if payload := s.unwrap(key, wrapped); payload != nil {
				atomic.AddUint64(&s.diskHits, 1)
				if s.ram != nil {
					s.ram.Set(key, wrapped, 0)
				}
				return payload
			}
		}
	}
	return nil
}

func (s *Store) unwrap(key, wrapped []byte) []byte {
	payload, _, err := mosaic.DeserializeData(wrapped, true)
	if err != nil {
		mosaic.Errorf("discarding corrupt tile cache entry %s: %v\n", key, err)
		return nil
	}
	return payload
}

// put stores the payload in every enabled tier, wrapped in the
// serialization envelope.  Failures are logged, not returned: the cache is
// best effort.
func (s *Store) put(key, payload []byte) {
	wrapped, err := mosaic.SerializeData(payload, mosaic.Snappy, mosaic.CRC32)
	if err != nil {
		mosaic.Errorf("cannot serialize tile cache entry: %v\n", err)
		return
	}
	if s.ram != nil {
		if err := s.ram.Set(key, wrapped, 0); err != nil {
			mosaic.Debugf("tile cache RAM tier rejected %d byte entry: %v\n", len(wrapped), err)
		}
	}
	if s.disk != nil {
		if err := s.disk.put(key, wrapped); err != nil {
			mosaic.Errorf("error on tile cache disk put: %v\n", err)
		}
	}
}

// Stats reports cache effectiveness and rough sizing.
type Stats struct {
	Attempts   uint64
	RAMHits    uint64
	DiskHits   uint64
	RAMEntries int64
	RAMBytes   uint64
}

// Stats returns a snapshot of the store's counters.  RAMBytes is measured
// from the live tier structures.
func (s *Store) Stats() Stats {
	stats := Stats{
		Attempts: atomic.LoadUint64(&s.attempts),
		RAMHits:  atomic.LoadUint64(&s.ramHits),
		DiskHits: atomic.LoadUint64(&s.diskHits),
	}
	if s.ram != nil {
		stats.RAMEntries = s.ram.EntryCount()
		stats.RAMBytes = uint64(size.Of(s.ram))
	}
	return stats
}

func (st Stats) String() string {
	return fmt.Sprintf("%d attempts, %d RAM hits, %d disk hits, %d RAM entries using %s",
		st.Attempts, st.RAMHits, st.DiskHits, st.RAMEntries, humanize.Bytes(st.RAMBytes))
}

// WrapSource decorates a tile source so fetches consult the cache before
// the remote.  The pixels id distinguishes entries across images; the pixel
// type is needed to rebuild tiles from cached payloads.
func (s *Store) WrapSource(src pixels.TileSource, pixelsID string, ptype mosaic.PixelType) pixels.TileSource {
	return &cachedSource{store: s, src: src, id: pixelsID, ptype: ptype}
}

type cachedSource struct {
	store *Store
	src   pixels.TileSource
	id    string
	ptype mosaic.PixelType
}

func (cs *cachedSource) OpenAccess() (pixels.TileAccess, error) {
	access, err := cs.src.OpenAccess()
	if err != nil {
		return nil, err
	}
	return &cachedAccess{src: cs, access: access}, nil
}

type cachedAccess struct {
	src    *cachedSource
	access pixels.TileAccess
}

func (ca *cachedAccess) FetchTile(plane mosaic.Plane, origin mosaic.Point2d, width, height int32) (*mosaic.Tile, error) {
	key := tileKey(ca.src.id, plane, origin, width, height)
	if payload := ca.src.store.get(key); payload != nil {
		return &mosaic.Tile{
			Plane:  plane,
			Origin: origin,
			Width:  width,
			Height: height,
			Type:   ca.src.ptype,
			Data:   payload,
		}, nil
	}
	tile, err := ca.access.FetchTile(plane, origin, width, height)
	if err != nil {
		return nil, err
	}
	ca.src.store.put(key, tile.Data)
	return tile, nil
}

func (ca *cachedAccess) Close() error {
	return ca.access.Close()
}
