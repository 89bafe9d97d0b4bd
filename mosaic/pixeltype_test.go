package mosaic

import (
	"testing"
)

func TestPixelTypeNames(t *testing.T) {
	for pt, name := range typeNames {
		got, err := PixelTypeByName(name)
		if err != nil {
			t.Fatalf("error looking up pixel type %q: %v\n", name, err)
		}
		if got != pt {
			t.Errorf("PixelTypeByName(%q) = %s\n", name, got)
		}
	}
	if _, err := PixelTypeByName("complex128"); err == nil {
		t.Errorf("expected error on unsupported pixel type name\n")
	}
}

func TestPixelTypeValues(t *testing.T) {
	// One representative value per type, including signed and fractional cases.
	tests := []struct {
		ptype PixelType
		value float64
	}{
		{T_uint8, 200},
		{T_int8, -100},
		{T_uint16, 40000},
		{T_int16, -12345},
		{T_uint32, 3000000000},
		{T_int32, -2000000},
		{T_float32, 0.5},
		{T_float64, -3.25},
	}
	for _, test := range tests {
		data := make([]byte, 3*test.ptype.Bytes())
		test.ptype.PutValue(data, 1, test.value)
		got := test.ptype.Value(data, 1)
		if got != test.value {
			t.Errorf("%s: stored %g, read back %g\n", test.ptype, test.value, got)
		}
		if v := test.ptype.Value(data, 0); v != 0 {
			t.Errorf("%s: untouched slot read back %g\n", test.ptype, v)
		}
	}
}

func TestPixelTypeBytes(t *testing.T) {
	if T_uint8.Bytes() != 1 || T_uint16.Bytes() != 2 || T_float64.Bytes() != 8 {
		t.Errorf("bad storage widths: %d %d %d\n",
			T_uint8.Bytes(), T_uint16.Bytes(), T_float64.Bytes())
	}
}
