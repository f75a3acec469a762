package scyjava

import (
	"fmt"
	"math"
	"math/big"
	"reflect"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Converter priorities. Converters are tried from highest priority to
// lowest; the first whose Supports returns true wins.
const (
	PriorityFirst         = 1e300
	PriorityExtremelyHigh = 1e6
	PriorityVeryHigh      = 1e4
	PriorityHigh          = 1e2
	PriorityNormal        = 0.0
	PriorityLow           = -1e2
	PriorityVeryLow       = -1e4
	PriorityExtremelyLow  = -1e6
	PriorityLast          = -1e300
)

// Hints influence conversion of ambiguous values. The "type" hint selects
// a numeric target for Go ints and floats:
//
//	int   + {"type": "byte"}   -> java.lang.Byte (if in range)
//	int   + {"type": "short"}  -> java.lang.Short (if in range)
//	int   + {"type": "bigint"} -> java.math.BigInteger
//	float + {"type": "double"} -> java.lang.Double
//	float + {"type": "bigdec"} -> java.math.BigDecimal
//
// Short forms ("b", "s", "bi", "d", "bd") and class names ("Byte", ...)
// are accepted too.
type Hints map[string]string

// Converter converts values in one direction across the language boundary.
// Supports is consulted in priority order; Convert runs for the first
// converter that supports the value.
type Converter struct {
	// Name describes the conversion for debugging.
	Name string

	// Supports reports whether this converter can handle the value.
	Supports func(obj interface{}, hints Hints) bool

	// Convert performs the conversion.
	Convert func(obj interface{}, hints Hints) (interface{}, error)

	// Priority orders converters; higher priorities are tried first.
	Priority float64
}

var (
	convertMu      sync.RWMutex
	javaConverters []Converter
	goConverters   []Converter
)

func init() {
	javaConverters = stockJavaConverters()
	goConverters = stockGoConverters()
	sortConverters(javaConverters)
	sortConverters(goConverters)
}

// sortConverters orders ascending by priority. Equal priorities keep their
// insertion order, so registration order breaks ties.
func sortConverters(converters []Converter) {
	sort.SliceStable(converters, func(i, j int) bool {
		return converters[i].Priority < converters[j].Priority
	})
}

// AddJavaConverter registers a converter used by ToJava.
func AddJavaConverter(c Converter) {
	convertMu.Lock()
	defer convertMu.Unlock()
	javaConverters = append(javaConverters, c)
	sortConverters(javaConverters)
}

// AddGoConverter registers a converter used by ToGo.
func AddGoConverter(c Converter) {
	convertMu.Lock()
	defer convertMu.Unlock()
	goConverters = append(goConverters, c)
	sortConverters(goConverters)
}

// convert walks the converter list from highest priority to lowest and
// applies the first supporting converter.
func convert(obj interface{}, converters []Converter, hints Hints) (interface{}, error) {
	for i := len(converters) - 1; i >= 0; i-- {
		c := converters[i]
		if c.Supports(obj, hints) {
			Logger().Debug("converting", zap.String("converter", c.Name))
			return c.Convert(obj, hints)
		}
	}
	return nil, fmt.Errorf("unsupported type: %T", obj)
}

// ToJava converts a Go value to its wire form for the gateway JVM.
//
// Supported types out of the box:
//   - nil, bool, string, rune slices and strings
//   - int kinds -> Integer when the value fits in 32 bits, else Long;
//     Byte/Short/BigInteger on request via hints
//   - float kinds -> Float when the value fits, else Double;
//     BigDecimal on request via hints
//   - *big.Int -> BigInteger, *big.Float -> BigDecimal
//   - primitive slices -> Java arrays (packed transfer)
//   - []interface{} and other slices -> java.util.List
//   - maps -> java.util.Map, Set -> java.util.Set
//   - *JObject and collection views pass through by identity
//
// Conversion is extensible via AddJavaConverter.
func ToJava(obj interface{}, hints ...Hints) (interface{}, error) {
	merged := Hints{}
	for _, h := range hints {
		for k, v := range h {
			merged[k] = v
		}
	}

	convertMu.RLock()
	converters := javaConverters
	convertMu.RUnlock()
	return convert(obj, converters, merged)
}

// ToGo converts a value received from the gateway to a Go value, applying
// registered converters. Java collections become live views (JavaList,
// JavaMap, JavaSet); unconvertible values produce an error.
func ToGo(obj interface{}) (interface{}, error) {
	convertMu.RLock()
	converters := goConverters
	convertMu.RUnlock()
	return convert(obj, converters, nil)
}

// ToGoGentle is ToGo, except unconvertible values are returned unchanged
// instead of raising an error.
func ToGoGentle(obj interface{}) interface{} {
	converted, err := ToGo(obj)
	if err != nil {
		return obj
	}
	return converted
}

// IsJava reports whether the value is a handle to a JVM-side object,
// directly or through a collection view.
func IsJava(obj interface{}) bool {
	return jObjectOf(obj) != nil
}

// jObjectOf extracts the underlying JObject from handles and views.
func jObjectOf(obj interface{}) *JObject {
	switch v := obj.(type) {
	case *JObject:
		return v
	case *JavaList:
		return v.obj
	case *JavaMap:
		return v.obj
	case *JavaSet:
		return v.obj
	case *JavaCollection:
		return v.obj
	case *JavaIterable:
		return v.obj
	case *JavaIterator:
		return v.obj
	default:
		return nil
	}
}

// hintIs reports whether the "type" hint matches one of the accepted
// spellings, or is absent and absentOK.
func hintIs(hints Hints, absentOK bool, spellings ...string) bool {
	t, ok := hints["type"]
	if !ok {
		return absentOK
	}
	for _, s := range spellings {
		if t == s {
			return true
		}
	}
	return false
}

// tagged builds a wire value map.
func tagged(kind string, value interface{}) map[string]interface{} {
	return map[string]interface{}{"t": kind, "v": value}
}

func isInt(obj interface{}) bool {
	switch obj.(type) {
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return true
	}
	return false
}

func isFloat(obj interface{}) bool {
	switch obj.(type) {
	case float32, float64:
		return true
	}
	return false
}

// asInt64 widens any Go integer kind to int64.
func asInt64(obj interface{}) int64 {
	switch v := obj.(type) {
	case int:
		return int64(v)
	case int8:
		return int64(v)
	case int16:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint:
		return int64(v)
	case uint8:
		return int64(v)
	case uint16:
		return int64(v)
	case uint32:
		return int64(v)
	case uint64:
		return int64(v)
	}
	return 0
}

// fitsInt64 reports whether the integer value is representable as int64.
// Only uint and uint64 can exceed the range.
func fitsInt64(obj interface{}) bool {
	switch v := obj.(type) {
	case uint:
		return uint64(v) <= math.MaxInt64
	case uint64:
		return v <= math.MaxInt64
	}
	return true
}

// bigIntString renders any Go integer as a decimal string, including
// uint64 values beyond the int64 range.
func bigIntString(obj interface{}) string {
	switch v := obj.(type) {
	case uint:
		return new(big.Int).SetUint64(uint64(v)).String()
	case uint64:
		return new(big.Int).SetUint64(v).String()
	}
	return fmt.Sprintf("%d", asInt64(obj))
}

// asFloat64 widens any Go numeric kind to float64.
func asFloat64(obj interface{}) float64 {
	switch v := obj.(type) {
	case float32:
		return float64(v)
	case float64:
		return v
	}
	return float64(asInt64(obj))
}

func stockJavaConverters() []Converter {
	return []Converter{
		{
			Name:     "nil -> null",
			Supports: func(obj interface{}, hints Hints) bool { return obj == nil },
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("null", nil), nil
			},
			Priority: PriorityExtremelyHigh + 1,
		},
		{
			Name:     "Java object identity",
			Supports: func(obj interface{}, hints Hints) bool { return IsJava(obj) },
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return jObjectOf(obj).wireRef(), nil
			},
			Priority: PriorityExtremelyHigh,
		},
		{
			Name:     "string -> java.lang.String",
			Supports: func(obj interface{}, hints Hints) bool { _, ok := obj.(string); return ok },
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("str", obj), nil
			},
			Priority: PriorityNormal,
		},
		{
			Name:     "bool -> java.lang.Boolean",
			Supports: func(obj interface{}, hints Hints) bool { _, ok := obj.(bool); return ok },
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("bool", obj), nil
			},
			Priority: PriorityNormal + 1,
		},
		{
			Name: "int -> java.lang.Byte",
			Supports: func(obj interface{}, hints Hints) bool {
				return isInt(obj) && fitsInt64(obj) && hintIs(hints, false, "b", "byte", "Byte") &&
					asInt64(obj) >= math.MinInt8 && asInt64(obj) <= math.MaxInt8
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("byte", asInt64(obj)), nil
			},
			Priority: PriorityHigh,
		},
		{
			Name: "int -> java.lang.Short",
			Supports: func(obj interface{}, hints Hints) bool {
				return isInt(obj) && fitsInt64(obj) && hintIs(hints, false, "s", "short", "Short") &&
					asInt64(obj) >= math.MinInt16 && asInt64(obj) <= math.MaxInt16
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("short", asInt64(obj)), nil
			},
			Priority: PriorityHigh,
		},
		{
			Name: "int -> java.lang.Integer",
			Supports: func(obj interface{}, hints Hints) bool {
				return isInt(obj) && fitsInt64(obj) && hintIs(hints, true, "i", "int", "Integer") &&
					asInt64(obj) >= math.MinInt32 && asInt64(obj) <= math.MaxInt32
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("int", asInt64(obj)), nil
			},
			Priority: PriorityNormal,
		},
		{
			Name: "int -> java.lang.Long",
			Supports: func(obj interface{}, hints Hints) bool {
				return isInt(obj) && fitsInt64(obj) && hintIs(hints, true, "j", "l", "long", "Long")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("long", asInt64(obj)), nil
			},
			Priority: PriorityNormal - 1,
		},
		{
			Name: "int -> java.math.BigInteger",
			Supports: func(obj interface{}, hints Hints) bool {
				return isInt(obj) && hintIs(hints, true, "bi", "bigint", "BigInteger")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("bigint", bigIntString(obj)), nil
			},
			Priority: PriorityNormal - 2,
		},
		{
			Name: "*big.Int -> java.math.BigInteger",
			Supports: func(obj interface{}, hints Hints) bool {
				_, ok := obj.(*big.Int)
				return ok
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("bigint", obj.(*big.Int).String()), nil
			},
			Priority: PriorityNormal + 1,
		},
		{
			Name: "float -> java.lang.Float",
			Supports: func(obj interface{}, hints Hints) bool {
				if !isFloat(obj) || !hintIs(hints, true, "f", "float", "Float") {
					return false
				}
				f := asFloat64(obj)
				return math.IsInf(f, 0) || math.IsNaN(f) ||
					(f >= -math.MaxFloat32 && f <= math.MaxFloat32)
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("float", asFloat64(obj)), nil
			},
			Priority: PriorityNormal,
		},
		{
			Name: "float -> java.lang.Double",
			Supports: func(obj interface{}, hints Hints) bool {
				return isFloat(obj) && hintIs(hints, true, "d", "double", "Double")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("double", asFloat64(obj)), nil
			},
			Priority: PriorityNormal - 1,
		},
		{
			Name: "float -> java.math.BigDecimal",
			Supports: func(obj interface{}, hints Hints) bool {
				return isFloat(obj) && hintIs(hints, true, "bd", "bigdec", "BigDecimal")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("bigdec", fmt.Sprintf("%v", asFloat64(obj))), nil
			},
			Priority: PriorityNormal - 2,
		},
		{
			Name: "*big.Float -> java.math.BigDecimal",
			Supports: func(obj interface{}, hints Hints) bool {
				_, ok := obj.(*big.Float)
				return ok
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return tagged("bigdec", obj.(*big.Float).Text('g', -1)), nil
			},
			Priority: PriorityNormal + 1,
		},
		{
			Name:     "primitive slice -> Java array",
			Supports: func(obj interface{}, hints Hints) bool { return isPrimitiveSlice(obj) },
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return packArray(obj)
			},
			Priority: PriorityNormal + 1,
		},
		{
			Name: "Set -> java.util.Set",
			Supports: func(obj interface{}, hints Hints) bool {
				_, ok := obj.(Set)
				return ok
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				items := make([]interface{}, 0, len(obj.(Set)))
				for item := range obj.(Set) {
					wire, err := ToJava(item, hints)
					if err != nil {
						return nil, err
					}
					items = append(items, wire)
				}
				return tagged("set", items), nil
			},
			Priority: PriorityNormal,
		},
		{
			Name: "map -> java.util.Map",
			Supports: func(obj interface{}, hints Hints) bool {
				if _, isSet := obj.(Set); isSet {
					return false
				}
				return obj != nil && reflect.TypeOf(obj).Kind() == reflect.Map
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				v := reflect.ValueOf(obj)
				pairs := make([]interface{}, 0, v.Len())
				iter := v.MapRange()
				for iter.Next() {
					key, err := ToJava(iter.Key().Interface(), hints)
					if err != nil {
						return nil, err
					}
					value, err := ToJava(iter.Value().Interface(), hints)
					if err != nil {
						return nil, err
					}
					pairs = append(pairs, []interface{}{key, value})
				}
				return tagged("map", pairs), nil
			},
			Priority: PriorityNormal,
		},
		{
			Name: "slice -> java.util.List",
			Supports: func(obj interface{}, hints Hints) bool {
				if obj == nil {
					return false
				}
				kind := reflect.TypeOf(obj).Kind()
				return kind == reflect.Slice || kind == reflect.Array
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				v := reflect.ValueOf(obj)
				items := make([]interface{}, v.Len())
				for i := 0; i < v.Len(); i++ {
					wire, err := ToJava(v.Index(i).Interface(), hints)
					if err != nil {
						return nil, err
					}
					items[i] = wire
				}
				return tagged("list", items), nil
			},
			Priority: PriorityNormal - 1,
		},
	}
}

func stockGoConverters() []Converter {
	return []Converter{
		{
			Name:     "Go value identity",
			Supports: func(obj interface{}, hints Hints) bool { return !IsJava(obj) },
			Convert:  func(obj interface{}, hints Hints) (interface{}, error) { return obj, nil },
			Priority: PriorityExtremelyHigh,
		},
		{
			Name: "java.util.List -> JavaList",
			Supports: func(obj interface{}, hints Hints) bool {
				o, ok := obj.(*JObject)
				return ok && o.IsInstanceOf("java.util.List")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return &JavaList{obj: obj.(*JObject)}, nil
			},
			Priority: PriorityNormal,
		},
		{
			Name: "java.util.Map -> JavaMap",
			Supports: func(obj interface{}, hints Hints) bool {
				o, ok := obj.(*JObject)
				return ok && o.IsInstanceOf("java.util.Map")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return &JavaMap{obj: obj.(*JObject)}, nil
			},
			Priority: PriorityNormal,
		},
		{
			Name: "java.util.Set -> JavaSet",
			Supports: func(obj interface{}, hints Hints) bool {
				o, ok := obj.(*JObject)
				return ok && o.IsInstanceOf("java.util.Set")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return &JavaSet{obj: obj.(*JObject)}, nil
			},
			Priority: PriorityNormal,
		},
		{
			Name: "java.util.Collection -> JavaCollection",
			Supports: func(obj interface{}, hints Hints) bool {
				o, ok := obj.(*JObject)
				return ok && o.IsInstanceOf("java.util.Collection")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return &JavaCollection{obj: obj.(*JObject)}, nil
			},
			Priority: PriorityNormal - 1,
		},
		{
			Name: "java.lang.Iterable -> JavaIterable",
			Supports: func(obj interface{}, hints Hints) bool {
				o, ok := obj.(*JObject)
				return ok && o.IsInstanceOf("java.lang.Iterable")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return &JavaIterable{obj: obj.(*JObject)}, nil
			},
			Priority: PriorityNormal - 2,
		},
		{
			Name: "java.util.Iterator -> JavaIterator",
			Supports: func(obj interface{}, hints Hints) bool {
				o, ok := obj.(*JObject)
				return ok && o.IsInstanceOf("java.util.Iterator")
			},
			Convert: func(obj interface{}, hints Hints) (interface{}, error) {
				return &JavaIterator{obj: obj.(*JObject)}, nil
			},
			Priority: PriorityNormal,
		},
	}
}

// fromWire decodes a tagged wire value received from the gateway into a Go
// value, then gently applies the registered Go converters so collection
// handles come back as live views.
func fromWire(gw *GatewayProcess, wire interface{}) (interface{}, error) {
	structural, err := structuralFromWire(gw, wire)
	if err != nil {
		return nil, err
	}
	return ToGoGentle(structural), nil
}

// structuralFromWire maps tagged wire values onto the Go numeric model:
// Byte, Short and Integer become int; Long becomes int64; BigInteger
// becomes *big.Int; Float and Double become float64; BigDecimal becomes
// *big.Float; Character and String become string; refs become *JObject.
func structuralFromWire(gw *GatewayProcess, wire interface{}) (interface{}, error) {
	if wire == nil {
		return nil, nil
	}
	taggedMap, ok := wire.(map[string]interface{})
	if !ok {
		return nil, fmt.Errorf("malformed wire value: %v", wire)
	}
	kind, _ := taggedMap["t"].(string)
	v := taggedMap["v"]

	switch kind {
	case "null":
		return nil, nil
	case "bool":
		return v, nil
	case "byte", "short", "int":
		return int(asInt64(v)), nil
	case "long":
		return asInt64(v), nil
	case "bigint":
		s, _ := v.(string)
		n, ok := new(big.Int).SetString(s, 10)
		if !ok {
			return nil, fmt.Errorf("malformed BigInteger value: %q", s)
		}
		return n, nil
	case "float", "double":
		return asFloat64(v), nil
	case "bigdec":
		s, _ := v.(string)
		f, _, err := big.ParseFloat(s, 10, big.MaxPrec, big.ToNearestEven)
		if err != nil {
			return nil, fmt.Errorf("malformed BigDecimal value: %q", s)
		}
		return f, nil
	case "char", "str":
		return v, nil
	case "ref":
		obj := &JObject{gateway: gw, ID: asInt64(v)}
		obj.Class, _ = taggedMap["cls"].(string)
		if ifaces, ok := taggedMap["ifaces"].([]interface{}); ok {
			obj.Interfaces = make([]string, 0, len(ifaces))
			for _, iface := range ifaces {
				if s, ok := iface.(string); ok {
					obj.Interfaces = append(obj.Interfaces, s)
				}
			}
		}
		return obj, nil
	case "array":
		return unpackArray(taggedMap)
	case "oarray":
		items, _ := v.([]interface{})
		result := make([]interface{}, len(items))
		for i, item := range items {
			decoded, err := fromWire(gw, item)
			if err != nil {
				return nil, err
			}
			result[i] = decoded
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unknown wire kind: %q", kind)
	}
}
