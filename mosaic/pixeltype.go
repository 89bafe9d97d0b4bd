package mosaic

import (
	"encoding/binary"
	"fmt"
	"math"
)

// PixelType is the enumeration of storage types for a voxel value.
type PixelType uint8

const (
	T_uint8 PixelType = iota
	T_int8
	T_uint16
	T_int16
	T_uint32
	T_int32
	T_float32
	T_float64
)

var typeBytes = map[PixelType]int32{
	T_uint8:   1,
	T_int8:    1,
	T_uint16:  2,
	T_int16:   2,
	T_uint32:  4,
	T_int32:   4,
	T_float32: 4,
	T_float64: 8,
}

var typeNames = map[PixelType]string{
	T_uint8:   "uint8",
	T_int8:    "int8",
	T_uint16:  "uint16",
	T_int16:   "int16",
	T_uint32:  "uint32",
	T_int32:   "int32",
	T_float32: "float32",
	T_float64: "float64",
}

// PixelTypeByName returns the PixelType corresponding to a type name as used
// in pixels metadata, e.g., "uint16".
func PixelTypeByName(name string) (PixelType, error) {
	for t, n := range typeNames {
		if n == name {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown pixel type %q", name)
}

func (t PixelType) String() string {
	name, found := typeNames[t]
	if !found {
		return fmt.Sprintf("unknown pixel type (%d)", uint8(t))
	}
	return name
}

// Bytes returns the number of bytes used to store one voxel of this type.
func (t PixelType) Bytes() int32 {
	return typeBytes[t]
}

// Value decodes the i-th voxel of little-endian packed data as a float64.
// The caller must make sure data holds at least (i+1)*t.Bytes() bytes.
func (t PixelType) Value(data []byte, i int64) float64 {
	switch t {
	case T_uint8:
		return float64(data[i])
	case T_int8:
		return float64(int8(data[i]))
	case T_uint16:
		return float64(binary.LittleEndian.Uint16(data[i*2:]))
	case T_int16:
		return float64(int16(binary.LittleEndian.Uint16(data[i*2:])))
	case T_uint32:
		return float64(binary.LittleEndian.Uint32(data[i*4:]))
	case T_int32:
		return float64(int32(binary.LittleEndian.Uint32(data[i*4:])))
	case T_float32:
		return float64(math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:])))
	case T_float64:
		return math.Float64frombits(binary.LittleEndian.Uint64(data[i*8:]))
	}
	return 0
}

// PutValue encodes a float64 into the i-th voxel slot of little-endian packed
// data, truncating to the storage type.
func (t PixelType) PutValue(data []byte, i int64, value float64) {
	switch t {
	case T_uint8:
		data[i] = uint8(value)
	case T_int8:
		data[i] = byte(int8(value))
	case T_uint16:
		binary.LittleEndian.PutUint16(data[i*2:], uint16(value))
	case T_int16:
		binary.LittleEndian.PutUint16(data[i*2:], uint16(int16(value)))
	case T_uint32:
		binary.LittleEndian.PutUint32(data[i*4:], uint32(value))
	case T_int32:
		binary.LittleEndian.PutUint32(data[i*4:], uint32(int32(value)))
	case T_float32:
		binary.LittleEndian.PutUint32(data[i*4:], math.Float32bits(float32(value)))
	case T_float64:
		binary.LittleEndian.PutUint64(data[i*8:], math.Float64bits(value))
	}
}
