package mosaic

import (
	"testing"
)

func TestTileValueLookup(t *testing.T) {
	// 3 x 2 uint16 tile with values row by row: 10 11 12 / 20 21 22.
	tile := &Tile{
		Plane:  Plane{C: 1, Z: 0, T: 2},
		Origin: Point2d{100, 200},
		Width:  3,
		Height: 2,
		Type:   T_uint16,
		Data:   make([]byte, 12),
	}
	values := [][]float64{{10, 11, 12}, {20, 21, 22}}
	for y := int32(0); y < 2; y++ {
		for x := int32(0); x < 3; x++ {
			tile.Type.PutValue(tile.Data, int64(y)*3+int64(x), values[y][x])
		}
	}
	if err := tile.Validate(); err != nil {
		t.Fatalf("valid tile failed validation: %v\n", err)
	}
	for y := int32(0); y < 2; y++ {
		for x := int32(0); x < 3; x++ {
			if got := tile.Value(x, y); got != values[y][x] {
				t.Errorf("tile value (%d,%d) = %g, expected %g\n", x, y, got, values[y][x])
			}
		}
	}
}

func TestTileValidate(t *testing.T) {
	tile := &Tile{Width: 4, Height: 4, Type: T_uint8, Data: make([]byte, 15)}
	if err := tile.Validate(); err == nil {
		t.Errorf("expected error on short payload\n")
	}
	tile.Data = make([]byte, 16)
	if err := tile.Validate(); err != nil {
		t.Errorf("unexpected error on exact payload: %v\n", err)
	}
	tile.Width = -1
	if err := tile.Validate(); err == nil {
		t.Errorf("expected error on negative width\n")
	}
}
