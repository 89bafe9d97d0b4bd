package pixels

import (
	"io"

	"github.com/apache/arrow/go/v14/arrow"
	"github.com/apache/arrow/go/v14/arrow/array"
	"github.com/apache/arrow/go/v14/arrow/ipc"
	"github.com/apache/arrow/go/v14/arrow/memory"

	"github.com/cajal-labs/mosaic/mosaic"
)

// Volumes are exported as Arrow IPC streams with one record per plane, in
// the same [t][z][c] order as the buffers.  The t, z, c columns hold global
// plane coordinates.
var volumeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "t", Type: arrow.PrimitiveTypes.Int32},
	{Name: "z", Type: arrow.PrimitiveTypes.Int32},
	{Name: "c", Type: arrow.PrimitiveTypes.Int32},
	{Name: "values", Type: arrow.ListOf(arrow.PrimitiveTypes.Float64)},
}, nil)

var rawVolumeSchema = arrow.NewSchema([]arrow.Field{
	{Name: "t", Type: arrow.PrimitiveTypes.Int32},
	{Name: "z", Type: arrow.PrimitiveTypes.Int32},
	{Name: "c", Type: arrow.PrimitiveTypes.Int32},
	{Name: "data", Type: arrow.BinaryTypes.Binary},
}, nil)

// WriteVolumeArrow writes the volume to w as an Arrow IPC stream, one record
// per plane with the plane's values as a float64 list column.
func WriteVolumeArrow(w io.Writer, vol *Volume) error {
	writer := ipc.NewWriter(w, ipc.WithSchema(volumeSchema))
	pool := memory.NewGoAllocator()
	size := vol.bounds.Size()
	start := vol.bounds.StartPoint()
	for t := int32(0); t < size[mosaic.AxisT]; t++ {
		for z := int32(0); z < size[mosaic.AxisZ]; z++ {
			for c := int32(0); c < size[mosaic.AxisC]; c++ {
				plane := mosaic.Plane{
					C: start[mosaic.AxisC] + c,
					Z: start[mosaic.AxisZ] + z,
					T: start[mosaic.AxisT] + t,
				}
				if err := writeValuePlane(writer, pool, plane, vol.PlaneValues(c, z, t)); err != nil {
					writer.Close()
					return err
				}
			}
		}
	}
	return writer.Close()
}

func writeValuePlane(writer *ipc.Writer, pool memory.Allocator, plane mosaic.Plane, values []float64) error {
	tBuilder := array.NewInt32Builder(pool)
	zBuilder := array.NewInt32Builder(pool)
	cBuilder := array.NewInt32Builder(pool)
	valuesBuilder := array.NewListBuilder(pool, arrow.PrimitiveTypes.Float64)
	defer func() {
		tBuilder.Release()
		zBuilder.Release()
		cBuilder.Release()
		valuesBuilder.Release()
	}()

	tBuilder.Append(plane.T)
	zBuilder.Append(plane.Z)
	cBuilder.Append(plane.C)
	valuesBuilder.Append(true)
	valueValues := valuesBuilder.ValueBuilder().(*array.Float64Builder)
	for _, v := range values {
		valueValues.Append(v)
	}

	tArray := tBuilder.NewArray()
	zArray := zBuilder.NewArray()
	cArray := cBuilder.NewArray()
	valuesArray := valuesBuilder.NewArray()
	defer func() {
		tArray.Release()
		zArray.Release()
		cArray.Release()
		valuesArray.Release()
	}()

	record := array.NewRecord(volumeSchema, []arrow.Array{tArray, zArray, cArray, valuesArray}, 1)
	defer record.Release()
	return writer.Write(record)
}

// WriteRawVolumeArrow writes the raw volume to w as an Arrow IPC stream, one
// record per plane with the plane's packed bytes as a binary column.
func WriteRawVolumeArrow(w io.Writer, vol *RawVolume) error {
	writer := ipc.NewWriter(w, ipc.WithSchema(rawVolumeSchema))
	pool := memory.NewGoAllocator()
	size := vol.bounds.Size()
	start := vol.bounds.StartPoint()
	for t := int32(0); t < size[mosaic.AxisT]; t++ {
		for z := int32(0); z < size[mosaic.AxisZ]; z++ {
			for c := int32(0); c < size[mosaic.AxisC]; c++ {
				plane := mosaic.Plane{
					C: start[mosaic.AxisC] + c,
					Z: start[mosaic.AxisZ] + z,
					T: start[mosaic.AxisT] + t,
				}
				if err := writeRawPlane(writer, pool, plane, vol.Plane(c, z, t)); err != nil {
					writer.Close()
					return err
				}
			}
		}
	}
	return writer.Close()
}

func writeRawPlane(writer *ipc.Writer, pool memory.Allocator, plane mosaic.Plane, data []byte) error {
	tBuilder := array.NewInt32Builder(pool)
	zBuilder := array.NewInt32Builder(pool)
	cBuilder := array.NewInt32Builder(pool)
	dataBuilder := array.NewBinaryBuilder(pool, arrow.BinaryTypes.Binary)
	defer func() {
		tBuilder.Release()
		zBuilder.Release()
		cBuilder.Release()
		dataBuilder.Release()
	}()

	tBuilder.Append(plane.T)
	zBuilder.Append(plane.Z)
	cBuilder.Append(plane.C)
	dataBuilder.Append(data)

	tArray := tBuilder.NewArray()
	zArray := zBuilder.NewArray()
	cArray := cBuilder.NewArray()
	dataArray := dataBuilder.NewArray()
	defer func() {
		tArray.Release()
		zArray.Release()
		cArray.Release()
		dataArray.Release()
	}()

	record := array.NewRecord(rawVolumeSchema, []arrow.Array{tArray, zArray, cArray, dataArray}, 1)
	defer record.Release()
	return writer.Write(record)
}
