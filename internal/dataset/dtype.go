package dataset

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Kind is the numpy type character of a dtype.
type Kind byte

const (
	KindBool     Kind = 'b'
	KindInt      Kind = 'i'
	KindUint     Kind = 'u'
	KindFloat    Kind = 'f'
	KindDatetime Kind = 'M'
	KindDuration Kind = 'm'
	KindBytes    Kind = 'S'
	KindUnicode  Kind = 'U'
)

// DType describes the element type of an array.
type DType struct {
	Kind  Kind
	Size  int
	Order binary.ByteOrder
	// Unit is the datetime64/timedelta64 resolution, e.g. "ns".
	Unit string
}

// ParseDType parses a numpy type string such as "<f4", "|u1" or "<M8[ns]".
func ParseDType(s string) (DType, error) {
	if len(s) < 3 {
		return DType{}, fmt.Errorf("invalid dtype %q", s)
	}
	var dt DType
	switch s[0] {
	case '<', '|':
		dt.Order = binary.LittleEndian
	case '>':
		dt.Order = binary.BigEndian
	default:
		return DType{}, fmt.Errorf("invalid dtype %q: missing byte order", s)
	}
	dt.Kind = Kind(s[1])
	rest := s[2:]
	if i := strings.IndexByte(rest, '['); i >= 0 {
		if !strings.HasSuffix(rest, "]") {
			return DType{}, fmt.Errorf("invalid dtype %q", s)
		}
		dt.Unit = rest[i+1 : len(rest)-1]
		rest = rest[:i]
	}
	size, err := strconv.Atoi(rest)
	if err != nil || size <= 0 {
		return DType{}, fmt.Errorf("invalid dtype %q: bad item size", s)
	}
	dt.Size = size
	switch dt.Kind {
	case KindBool, KindInt, KindUint, KindFloat, KindBytes, KindUnicode:
	case KindDatetime, KindDuration:
		if dt.Unit == "" {
			return DType{}, fmt.Errorf("invalid dtype %q: missing time unit", s)
		}
	default:
		return DType{}, fmt.Errorf("unsupported dtype %q", s)
	}
	return dt, nil
}

// MustParseDType is ParseDType that panics on error.
func MustParseDType(s string) DType {
	dt, err := ParseDType(s)
	if err != nil {
		panic(err)
	}
	return dt
}

// String returns the numpy-style name, e.g. "float32" or "datetime64[ns]".
func (d DType) String() string {
	bits := strconv.Itoa(d.Size * 8)
	switch d.Kind {
	case KindBool:
		return "bool"
	case KindInt:
		return "int" + bits
	case KindUint:
		return "uint" + bits
	case KindFloat:
		return "float" + bits
	case KindDatetime:
		return "datetime64[" + d.Unit + "]"
	case KindDuration:
		return "timedelta64[" + d.Unit + "]"
	case KindBytes, KindUnicode:
		return "string"
	}
	return "unknown"
}

// Numeric reports whether elements can be decoded as numbers.
func (d DType) Numeric() bool {
	switch d.Kind {
	case KindInt, KindUint, KindFloat, KindDatetime, KindDuration, KindBool:
		return true
	}
	return false
}

// decode converts raw little- or big-endian bytes into values.
func (d DType) decode(raw []byte, n int) (*values, error) {
	if len(raw) < n*d.Size {
		return nil, fmt.Errorf("chunk holds %d bytes, need %d", len(raw), n*d.Size)
	}
	order := d.Order
	if order == nil {
		order = binary.LittleEndian
	}
	out := &values{}
	switch d.Kind {
	case KindFloat:
		out.floats = make([]float64, n)
		for i := range n {
			b := raw[i*d.Size:]
			switch d.Size {
			case 4:
				out.floats[i] = float64(math.Float32frombits(order.Uint32(b)))
			case 8:
				out.floats[i] = math.Float64frombits(order.Uint64(b))
			default:
				return nil, fmt.Errorf("unsupported float size %d", d.Size)
			}
		}
	case KindInt, KindDatetime, KindDuration:
		out.ints = make([]int64, n)
		for i := range n {
			b := raw[i*d.Size:]
			switch d.Size {
			case 1:
				out.ints[i] = int64(int8(b[0]))
			case 2:
				out.ints[i] = int64(int16(order.Uint16(b)))
			case 4:
				out.ints[i] = int64(int32(order.Uint32(b)))
			case 8:
				out.ints[i] = int64(order.Uint64(b))
			default:
				return nil, fmt.Errorf("unsupported integer size %d", d.Size)
			}
		}
	case KindUint, KindBool:
		out.ints = make([]int64, n)
		for i := range n {
			b := raw[i*d.Size:]
			switch d.Size {
			case 1:
				out.ints[i] = int64(b[0])
			case 2:
				out.ints[i] = int64(order.Uint16(b))
			case 4:
				out.ints[i] = int64(order.Uint32(b))
			case 8:
				out.ints[i] = int64(order.Uint64(b))
			default:
				return nil, fmt.Errorf("unsupported integer size %d", d.Size)
			}
		}
	default:
		return nil, fmt.Errorf("cannot decode values of dtype %s", d)
	}
	return out, nil
}
