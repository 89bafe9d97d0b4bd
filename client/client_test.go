package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/cajal-labs/mosaic/gateway"
	"github.com/cajal-labs/mosaic/mosaic"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "mosaic.toml")
	content := `
[server]
address = "pixels.example.org:8002"

[logging]
logfile = "logs/mosaic.log"
max_log_size = 500
max_log_age = 30

[cache]
ram_size = 1048576
path = "tilecache"

[kafka]
servers = ["kafka1:9092", "kafka2:9092"]
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("cannot write config: %v\n", err)
	}

	c, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("cannot load config: %v\n", err)
	}
	if c.Server.Address != "pixels.example.org:8002" {
		t.Errorf("server address %q\n", c.Server.Address)
	}
	if want := filepath.Join(dir, "logs/mosaic.log"); c.Logging.Logfile != want {
		t.Errorf("logfile %q, expected absolute %q\n", c.Logging.Logfile, want)
	}
	if c.Logging.MaxSize != 500 || c.Logging.MaxAge != 30 {
		t.Errorf("log rotation settings %d MB, %d days\n", c.Logging.MaxSize, c.Logging.MaxAge)
	}
	if want := filepath.Join(dir, "tilecache"); c.Cache.Path != want {
		t.Errorf("cache path %q, expected absolute %q\n", c.Cache.Path, want)
	}
	if c.Cache.RAMSize != 1048576 {
		t.Errorf("cache ram_size %d\n", c.Cache.RAMSize)
	}
	if len(c.Kafka.Servers) != 2 {
		t.Errorf("kafka servers %v\n", c.Kafka.Servers)
	}
}

func TestLoadConfigRequiresAddress(t *testing.T) {
	dir := t.TempDir()
	configPath := filepath.Join(dir, "mosaic.toml")
	if err := os.WriteFile(configPath, []byte("[logging]\nlogfile = \"x.log\"\n"), 0644); err != nil {
		t.Fatalf("cannot write config: %v\n", err)
	}
	if _, err := LoadConfig(configPath); err == nil {
		t.Fatalf("expected error for config without server address\n")
	}
	if _, err := LoadConfig(""); err == nil {
		t.Fatalf("expected error for empty config path\n")
	}
}

func TestKafkaDisabledWithoutServers(t *testing.T) {
	var kc KafkaConfig
	if err := kc.Initialize("testhost"); err != nil {
		t.Fatalf("kafka initialization without servers must be a no-op, got %v\n", err)
	}
	// Publishing with no producer must not panic or block.
	LogActivity(map[string]interface{}{"action": "read-values"})
	KafkaShutdown()
}

// testHandler serves one uint8 pixels instance with voxel value
// (x + 2y + c) over the gateway protocol.
type testHandler struct {
	ext     mosaic.Extents
	fetches int
}

func (h *testHandler) Hello(token string) (string, error) { return "1.0.0", nil }

func (h *testHandler) PixelsMeta(id string) ([]byte, error) {
	return json.Marshal(map[string]interface{}{
		"id":     id,
		"type":   "uint8",
		"size_x": h.ext[mosaic.AxisX],
		"size_y": h.ext[mosaic.AxisY],
		"size_c": h.ext[mosaic.AxisC],
		"size_z": h.ext[mosaic.AxisZ],
		"size_t": h.ext[mosaic.AxisT],
	})
}

func (h *testHandler) OpenPixels(id string) (uint64, error) { return 1, nil }

func (h *testHandler) FetchTile(access uint64, plane mosaic.Plane, origin mosaic.Point2d, width, height int32) ([]byte, error) {
	if access != 1 {
		return nil, fmt.Errorf("access %d is not open", access)
	}
	h.fetches++
	data := make([]byte, int64(width)*int64(height))
	for y := int32(0); y < height; y++ {
		for x := int32(0); x < width; x++ {
			data[int64(y)*int64(width)+int64(x)] = uint8(origin[0] + x + 2*(origin[1]+y) + plane.C)
		}
	}
	return data, nil
}

func (h *testHandler) ClosePixels(access uint64) error { return nil }

func TestConnReadWithCache(t *testing.T) {
	dir := t.TempDir()
	addr := "unix:" + filepath.Join(dir, "gateway.sock")
	handler := &testHandler{ext: mosaic.Extents{24, 16, 2, 1, 1}}
	server, err := gateway.StartServer(addr, handler)
	if err != nil {
		t.Fatalf("cannot start gateway server: %v\n", err)
	}
	defer gateway.StopServer(server)

	config := &Config{}
	config.Server.Address = addr
	config.Cache.RAMSize = 4 * mosaic.Mega
	conn, err := Dial(config)
	if err != nil {
		t.Fatalf("cannot dial: %v\n", err)
	}
	defer conn.Close()

	img, err := conn.Pixels("7")
	if err != nil {
		t.Fatalf("cannot get pixels: %v\n", err)
	}
	defer img.Close()
	if img.Info().Type != mosaic.T_uint8 {
		t.Fatalf("parsed type %s\n", img.Info().Type)
	}

	region := mosaic.Region{X: mosaic.Span{2, 9}, Y: mosaic.Span{1, 4}, C: mosaic.Span{1, 1}}
	vol, err := img.ReadValues(region)
	if err != nil {
		t.Fatalf("read failed: %v\n", err)
	}
	if !vol.Size().Equals(mosaic.Point5d{8, 4, 1, 1, 1}) {
		t.Fatalf("read size %s\n", vol.Size())
	}
	if got, want := vol.Value(0, 0, 0, 0, 0), float64(uint8(2+2*1+1)); got != want {
		t.Errorf("voxel (0,0) = %g, expected %g\n", got, want)
	}

	// A repeat read must be served by the RAM tier.
	coldFetches := handler.fetches
	if _, err := img.ReadValues(region); err != nil {
		t.Fatalf("warm read failed: %v\n", err)
	}
	if handler.fetches != coldFetches {
		t.Errorf("warm read hit the remote: %d fetches, expected %d\n", handler.fetches, coldFetches)
	}
	if stats := conn.CacheStats(); stats.RAMHits == 0 {
		t.Errorf("expected RAM hits in cache stats, got %s\n", stats)
	}

	// Raw path through the same session and cache.
	raw, err := img.ReadRaw(region, img.Info().Type.Bytes())
	if err != nil {
		t.Fatalf("raw read failed: %v\n", err)
	}
	if raw.NumBytes() != 8*4 {
		t.Errorf("raw read %d bytes, expected 32\n", raw.NumBytes())
	}
}
