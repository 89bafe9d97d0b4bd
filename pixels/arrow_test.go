package pixels

import (
	"bytes"
	"testing"

	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"

	"github.com/cajal-labs/mosaic/mosaic"
)

func TestWriteVolumeArrow(t *testing.T) {
	ext := mosaic.Extents{4, 3, 2, 1, 2}
	src := newTestSource(mosaic.T_uint16)
	vol, err := NewPixels(ext, mosaic.T_uint16).ReadValues(NewSession(src), mosaic.Region{})
	if err != nil {
		t.Fatalf("error on read: %v\n", err)
	}

	var buf bytes.Buffer
	if err := WriteVolumeArrow(&buf, vol); err != nil {
		t.Fatalf("error writing arrow stream: %v\n", err)
	}

	reader, err := ipc.NewReader(&buf)
	if err != nil {
		t.Fatalf("error opening arrow stream: %v\n", err)
	}
	defer reader.Release()

	// One record per plane in [t][z][c] order.
	wantPlanes := []mosaic.Plane{
		{C: 0, Z: 0, T: 0}, {C: 1, Z: 0, T: 0},
		{C: 0, Z: 0, T: 1}, {C: 1, Z: 0, T: 1},
	}
	var recs int
	for reader.Next() {
		rec := reader.Record()
		if rec.NumRows() != 1 {
			t.Fatalf("record %d has %d rows\n", recs, rec.NumRows())
		}
		if recs >= len(wantPlanes) {
			t.Fatalf("more records than planes\n")
		}
		want := wantPlanes[recs]
		tCol := rec.Column(0).(*array.Int32)
		zCol := rec.Column(1).(*array.Int32)
		cCol := rec.Column(2).(*array.Int32)
		if tCol.Value(0) != want.T || zCol.Value(0) != want.Z || cCol.Value(0) != want.C {
			t.Errorf("record %d is plane (c=%d,z=%d,t=%d), expected %s\n",
				recs, cCol.Value(0), zCol.Value(0), tCol.Value(0), want)
		}
		valuesCol := rec.Column(3).(*array.List)
		planeValues := valuesCol.ListValues().(*array.Float64)
		begin, end := valuesCol.ValueOffsets(0)
		if end-begin != 4*3 {
			t.Fatalf("record %d has %d values, expected 12\n", recs, end-begin)
		}
		for y := int32(0); y < 3; y++ {
			for x := int32(0); x < 4; x++ {
				want := src.value(x, y, wantPlanes[recs])
				if got := planeValues.Value(int(begin) + int(y*4+x)); got != want {
					t.Errorf("record %d value (%d,%d) = %g, expected %g\n", recs, x, y, got, want)
				}
			}
		}
		recs++
	}
	if recs != len(wantPlanes) {
		t.Fatalf("stream held %d records, expected %d\n", recs, len(wantPlanes))
	}
}

func TestWriteRawVolumeArrow(t *testing.T) {
	ext := mosaic.Extents{2, 2, 1, 2, 1}
	src := newTestSource(mosaic.T_uint16)
	vol, err := NewPixels(ext, mosaic.T_uint16).ReadRaw(NewSession(src), mosaic.Region{}, 2)
	if err != nil {
		t.Fatalf("error on raw read: %v\n", err)
	}

	var buf bytes.Buffer
	if err := WriteRawVolumeArrow(&buf, vol); err != nil {
		t.Fatalf("error writing arrow stream: %v\n", err)
	}

	reader, err := ipc.NewReader(&buf)
	if err != nil {
		t.Fatalf("error opening arrow stream: %v\n", err)
	}
	defer reader.Release()

	var recs int32
	for reader.Next() {
		rec := reader.Record()
		dataCol := rec.Column(3).(*array.Binary)
		if got := dataCol.Value(0); !bytes.Equal(got, vol.Plane(0, recs, 0)) {
			t.Errorf("record %d bytes differ from plane slot\n", recs)
		}
		recs++
	}
	if recs != 2 {
		t.Fatalf("stream held %d records, expected 2\n", recs)
	}
}
