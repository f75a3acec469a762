package scyjava

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Primitive arrays cross the wire packed little-endian, tagged with a kind
// code matching the JVM descriptor letters:
//
//	z boolean  b byte  s short  c char  i int  j long  f float  d double
//
// The Go representations are []bool, []byte, []int16, []uint16, []int,
// []int64, []float32 and []float64 respectively.

// isPrimitiveSlice reports whether the value packs into a Java primitive
// array.
func isPrimitiveSlice(obj interface{}) bool {
	switch obj.(type) {
	case []bool, []byte, []int16, []uint16, []int, []int32, []int64, []float32, []float64:
		return true
	}
	return false
}

// packArray encodes a primitive slice as a tagged wire array.
func packArray(obj interface{}) (interface{}, error) {
	var kind string
	var packed []byte
	var length int

	switch v := obj.(type) {
	case []bool:
		kind, length = "z", len(v)
		packed = make([]byte, len(v))
		for i, b := range v {
			if b {
				packed[i] = 1
			}
		}
	case []byte:
		kind, length = "b", len(v)
		packed = v
	case []int16:
		kind, length = "s", len(v)
		packed = make([]byte, 2*len(v))
		for i, n := range v {
			binary.LittleEndian.PutUint16(packed[2*i:], uint16(n))
		}
	case []uint16:
		kind, length = "c", len(v)
		packed = make([]byte, 2*len(v))
		for i, n := range v {
			binary.LittleEndian.PutUint16(packed[2*i:], n)
		}
	case []int:
		kind, length = "i", len(v)
		packed = make([]byte, 4*len(v))
		for i, n := range v {
			if n < math.MinInt32 || n > math.MaxInt32 {
				return nil, fmt.Errorf("element %d overflows java int: %d", i, n)
			}
			binary.LittleEndian.PutUint32(packed[4*i:], uint32(int32(n)))
		}
	case []int32:
		kind, length = "i", len(v)
		packed = make([]byte, 4*len(v))
		for i, n := range v {
			binary.LittleEndian.PutUint32(packed[4*i:], uint32(n))
		}
	case []int64:
		kind, length = "j", len(v)
		packed = make([]byte, 8*len(v))
		for i, n := range v {
			binary.LittleEndian.PutUint64(packed[8*i:], uint64(n))
		}
	case []float32:
		kind, length = "f", len(v)
		packed = make([]byte, 4*len(v))
		for i, f := range v {
			binary.LittleEndian.PutUint32(packed[4*i:], math.Float32bits(f))
		}
	case []float64:
		kind, length = "d", len(v)
		packed = make([]byte, 8*len(v))
		for i, f := range v {
			binary.LittleEndian.PutUint64(packed[8*i:], math.Float64bits(f))
		}
	default:
		return nil, fmt.Errorf("not a primitive slice: %T", obj)
	}

	return map[string]interface{}{
		"t":     "array",
		"k":     kind,
		"shape": []interface{}{int64(length)},
		"v":     packed,
	}, nil
}

// unpackArray decodes a tagged wire array into the matching Go slice.
func unpackArray(taggedMap map[string]interface{}) (interface{}, error) {
	kind, _ := taggedMap["k"].(string)
	packed, _ := taggedMap["v"].([]byte)

	switch kind {
	case "z":
		result := make([]bool, len(packed))
		for i, b := range packed {
			result[i] = b != 0
		}
		return result, nil
	case "b":
		return packed, nil
	case "s":
		result := make([]int16, len(packed)/2)
		for i := range result {
			result[i] = int16(binary.LittleEndian.Uint16(packed[2*i:]))
		}
		return result, nil
	case "c":
		result := make([]uint16, len(packed)/2)
		for i := range result {
			result[i] = binary.LittleEndian.Uint16(packed[2*i:])
		}
		return result, nil
	case "i":
		result := make([]int, len(packed)/4)
		for i := range result {
			result[i] = int(int32(binary.LittleEndian.Uint32(packed[4*i:])))
		}
		return result, nil
	case "j":
		result := make([]int64, len(packed)/8)
		for i := range result {
			result[i] = int64(binary.LittleEndian.Uint64(packed[8*i:]))
		}
		return result, nil
	case "f":
		result := make([]float32, len(packed)/4)
		for i := range result {
			result[i] = math.Float32frombits(binary.LittleEndian.Uint32(packed[4*i:]))
		}
		return result, nil
	case "d":
		result := make([]float64, len(packed)/8)
		for i := range result {
			result[i] = math.Float64frombits(binary.LittleEndian.Uint64(packed[8*i:]))
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unknown array kind: %q", kind)
	}
}

// NewJArray allocates an array on the JVM and returns a handle to it. The
// kind is a single-letter primitive code (z, b, c, s, i, j, f, d) or a
// fully qualified class name for object arrays. Multiple lengths build a
// rectangular multi-dimensional array.
func NewJArray(kind string, lengths ...int) (*JObject, error) {
	if len(lengths) == 0 {
		return nil, fmt.Errorf("array needs at least one dimension")
	}
	for _, n := range lengths {
		if n < 0 {
			return nil, fmt.Errorf("negative array length: %d", n)
		}
	}
	gateway, err := ActiveGateway()
	if err != nil {
		return nil, err
	}

	shape := make([]interface{}, len(lengths))
	for i, n := range lengths {
		shape[i] = int64(n)
	}
	result, err := gateway.Call("array_new", 0, map[string]interface{}{
		"kind":  kind,
		"shape": shape,
	})
	if err != nil {
		return nil, err
	}
	decoded, err := structuralFromWire(gateway, result)
	if err != nil {
		return nil, err
	}
	obj, ok := decoded.(*JObject)
	if !ok {
		return nil, fmt.Errorf("expected array handle, got %T", decoded)
	}
	return obj, nil
}

// JArrayToSlice pulls the contents of a JVM-side array object into a Go
// slice. The handle must refer to a Java array; primitive arrays come back
// as typed slices, object arrays as []interface{}.
func JArrayToSlice(obj *JObject) (interface{}, error) {
	result, err := obj.gateway.Call("array_get", 0, map[string]interface{}{"ref": obj.ID})
	if err != nil {
		return nil, err
	}
	return fromWire(obj.gateway, result)
}
