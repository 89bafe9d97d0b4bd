package cache

import (
	"path/filepath"
	"testing"

	"github.com/twinj/uuid"

	"github.com/cajal-labs/mosaic/mosaic"
	"github.com/cajal-labs/mosaic/pixels"
)

// countingSource serves deterministic tiles and counts opens, closes, and
// fetches so tests can tell cache hits from remote reads.
type countingSource struct {
	ptype   mosaic.PixelType
	opens   int
	closes  int
	fetches int
}

func (src *countingSource) value(x, y int32, plane mosaic.Plane) float64 {
	return float64(uint8(uint32(x)*3 + uint32(y)*7 + uint32(plane.C)*11 + uint32(plane.Z)*13 + uint32(plane.T)*17))
}

func (src *countingSource) OpenAccess() (pixels.TileAccess, error) {
	src.opens++
	return &countingAccess{src: src}, nil
}

type countingAccess struct {
	src *countingSource
}

func (a *countingAccess) FetchTile(plane mosaic.Plane, origin mosaic.Point2d, width, height int32) (*mosaic.Tile, error) {
	a.src.fetches++
	tile := &mosaic.Tile{
		Plane:  plane,
		Origin: origin,
		Width:  width,
		Height: height,
		Type:   a.src.ptype,
		Data:   make([]byte, int64(width)*int64(height)*int64(a.src.ptype.Bytes())),
	}
	for y := int32(0); y < height; y++ {
		for x := int32(0); x < width; x++ {
			tile.Type.PutValue(tile.Data, int64(y)*int64(width)+int64(x),
				a.src.value(origin[0]+x, origin[1]+y, plane))
		}
	}
	return tile, nil
}

func (a *countingAccess) Close() error {
	a.src.closes++
	return nil
}

func readAll(t *testing.T, src pixels.TileSource, ext mosaic.Extents, edge int32) *pixels.Volume {
	t.Helper()
	p := pixels.NewPixels(ext, mosaic.T_uint8)
	p.SetTileEdge(edge)
	vol, err := p.ReadValues(pixels.NewSession(src), mosaic.Region{})
	if err != nil {
		t.Fatalf("read failed: %v\n", err)
	}
	return vol
}

func sameValues(a, b *pixels.Volume) bool {
	av, bv := a.Values(), b.Values()
	if len(av) != len(bv) {
		return false
	}
	for i := range av {
		if av[i] != bv[i] {
			return false
		}
	}
	return true
}

func TestRAMTierServesRepeatReads(t *testing.T) {
	store, err := NewStore(Config{RAMSize: 8 * mosaic.Mega})
	if err != nil {
		t.Fatalf("cannot create store: %v\n", err)
	}
	defer store.Close()

	ext := mosaic.Extents{32, 24, 2, 1, 1}
	src := &countingSource{ptype: mosaic.T_uint8}
	wrapped := store.WrapSource(src, "42", mosaic.T_uint8)

	first := readAll(t, wrapped, ext, 16)
	remoteFetches := src.fetches
	if remoteFetches == 0 {
		t.Fatalf("expected remote fetches on a cold cache\n")
	}

	second := readAll(t, wrapped, ext, 16)
	if src.fetches != remoteFetches {
		t.Errorf("warm read hit the remote: %d fetches, expected %d\n", src.fetches, remoteFetches)
	}
	if !sameValues(first, second) {
		t.Errorf("cached read returned different voxel values\n")
	}

	// Caching must not change the session lifecycle against the remote.
	if src.opens != 2 || src.closes != 2 {
		t.Errorf("expected 2 opens and 2 closes, got %d and %d\n", src.opens, src.closes)
	}

	stats := store.Stats()
	if stats.RAMHits != uint64(remoteFetches) {
		t.Errorf("stats %s: expected %d RAM hits\n", stats, remoteFetches)
	}
	if stats.Attempts != uint64(2*remoteFetches) {
		t.Errorf("stats %s: expected %d attempts\n", stats, 2*remoteFetches)
	}
}

func TestCacheKeysSeparatePixelsInstances(t *testing.T) {
	store, err := NewStore(Config{RAMSize: 8 * mosaic.Mega})
	if err != nil {
		t.Fatalf("cannot create store: %v\n", err)
	}
	defer store.Close()

	ext := mosaic.Extents{8, 8, 1, 1, 1}
	src1 := &countingSource{ptype: mosaic.T_uint8}
	src2 := &countingSource{ptype: mosaic.T_uint8}

	readAll(t, store.WrapSource(src1, "1", mosaic.T_uint8), ext, 8)
	readAll(t, store.WrapSource(src2, "2", mosaic.T_uint8), ext, 8)
	if src2.fetches == 0 {
		t.Errorf("read of pixels 2 was served from pixels 1 cache entries\n")
	}
}

func TestDiskTierSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), uuid.NewV4().String())
	ext := mosaic.Extents{16, 16, 1, 1, 1}

	store, err := NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("cannot create store: %v\n", err)
	}
	src := &countingSource{ptype: mosaic.T_uint8}
	first := readAll(t, store.WrapSource(src, "42", mosaic.T_uint8), ext, 8)
	coldFetches := src.fetches
	store.Close()

	store, err = NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("cannot reopen store: %v\n", err)
	}
	defer store.Close()
	second := readAll(t, store.WrapSource(src, "42", mosaic.T_uint8), ext, 8)
	if src.fetches != coldFetches {
		t.Errorf("reopened disk tier missed: %d fetches, expected %d\n", src.fetches, coldFetches)
	}
	if !sameValues(first, second) {
		t.Errorf("disk-cached read returned different voxel values\n")
	}
	if hits := store.Stats().DiskHits; hits == 0 {
		t.Errorf("expected disk hits after reopen\n")
	}
}

func TestCorruptDiskEntryIsAMiss(t *testing.T) {
	path := filepath.Join(t.TempDir(), uuid.NewV4().String())
	store, err := NewStore(Config{Path: path})
	if err != nil {
		t.Fatalf("cannot create store: %v\n", err)
	}
	defer store.Close()

	plane := mosaic.Plane{C: 0, Z: 0, T: 0}
	origin := mosaic.Point2d{0, 0}
	key := tileKey("42", plane, origin, 4, 4)

	// A valid envelope whose payload bytes were then flipped must fail its
	// checksum and read as a miss, falling through to the remote.
	wrapped, err := mosaic.SerializeData(make([]byte, 16), mosaic.Snappy, mosaic.CRC32)
	if err != nil {
		t.Fatalf("cannot serialize: %v\n", err)
	}
	wrapped[len(wrapped)-1] ^= 0xff
	if err := store.disk.put(key, wrapped); err != nil {
		t.Fatalf("cannot store corrupt entry: %v\n", err)
	}

	src := &countingSource{ptype: mosaic.T_uint8}
	vol := readAll(t, store.WrapSource(src, "42", mosaic.T_uint8), mosaic.Extents{4, 4, 1, 1, 1}, 4)
	if src.fetches != 1 {
		t.Errorf("expected the corrupt entry to force 1 remote fetch, got %d\n", src.fetches)
	}
	if got, want := vol.Value(1, 1, 0, 0, 0), src.value(1, 1, plane); got != want {
		t.Errorf("voxel (1,1) = %g, expected %g\n", got, want)
	}
}

func TestStoreWithNoTiers(t *testing.T) {
	store, err := NewStore(Config{})
	if err != nil {
		t.Fatalf("cannot create store: %v\n", err)
	}
	defer store.Close()

	ext := mosaic.Extents{8, 4, 1, 1, 1}
	src := &countingSource{ptype: mosaic.T_uint8}
	wrapped := store.WrapSource(src, "42", mosaic.T_uint8)
	readAll(t, wrapped, ext, 8)
	readAll(t, wrapped, ext, 8)
	if src.fetches != 2 {
		t.Errorf("tierless store should always miss: %d fetches, expected 2\n", src.fetches)
	}
	if stats := store.Stats(); stats.RAMHits != 0 || stats.DiskHits != 0 {
		t.Errorf("tierless store reported hits: %s\n", stats)
	}
}

func TestTileKeyUniqueness(t *testing.T) {
	keys := map[string]bool{}
	planes := []mosaic.Plane{{C: 0, Z: 0, T: 0}, {C: 1, Z: 0, T: 0}, {C: 0, Z: 1, T: 0}, {C: 0, Z: 0, T: 1}}
	for _, id := range []string{"1", "2"} {
		for _, plane := range planes {
			for _, origin := range []mosaic.Point2d{{0, 0}, {0, 16}, {16, 0}} {
				for _, edge := range []int32{8, 16} {
					k := string(tileKey(id, plane, origin, edge, edge))
					if keys[k] {
						t.Fatalf("duplicate cache key %s\n", k)
					}
					keys[k] = true
				}
			}
		}
	}
	if len(keys) != 2*len(planes)*3*2 {
		t.Errorf("unexpected key count %d\n", len(keys))
	}
}
