package nd

import (
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Dtype is an element type following the NumPy array protocol type string
// (typestr) format. The format consists of 3 parts:
//   - One character describing the byteorder of the data:
//     "<": little-endian; ">": big-endian; "|": not-relevant
//   - One character code giving the basic type of the array:
//     "b" boolean, "i" integer, "u" unsigned integer, "f" floating point,
//     "c" complex, "m" timedelta, "M" datetime, "S" string, "U" unicode,
//     "V" other
//   - An integer specifying the number of bytes the type uses.
//
// Arrays in this module always hold float64 working values; the Dtype
// records what the values are stored as.
type Dtype struct {
	ByteOrder ByteOrder
	BasicType BasicType
	ByteSize  int
	Units     string
}

var (
	_ json.Unmarshaler = (*Dtype)(nil)
	_ json.Marshaler   = (*Dtype)(nil)
)

// Commonly used element types.
var (
	Float64 = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 8}
	Float32 = Dtype{ByteOrder: BOLittleEndian, BasicType: BTFloatingPoint, ByteSize: 4}
	Uint16  = Dtype{ByteOrder: BOLittleEndian, BasicType: BTUnsigned, ByteSize: 2}
	Uint8   = Dtype{ByteOrder: BONotRelevant, BasicType: BTUnsigned, ByteSize: 1}
)

func ParseDtype(s string) (dt Dtype, err error) {
	// python writers sometimes HTML-escape the byte order
	s = strings.Replace(s, "&lt;", "<", 1)
	s = strings.Replace(s, "&gt;", ">", 1)

	if len(s) < 3 {
		return dt, fmt.Errorf("invalid Dtype string. %q is too short", s)
	}

	boByte, s := s[0], s[1:]
	dt.ByteOrder, err = ParseByteOrder(rune(boByte))
	if err != nil {
		return dt, err
	}

	typeByte, s := s[0], s[1:]
	dt.BasicType, err = ParseBasicType(rune(typeByte))
	if err != nil {
		return dt, err
	}

	sizeStr, unitStr := s, ""
	if i := strings.IndexByte(s, '['); i >= 0 {
		sizeStr, unitStr = s[:i], s[i:]
	}

	size, err := strconv.ParseInt(sizeStr, 10, 0)
	if err != nil {
		return dt, err
	}
	dt.ByteSize = int(size)
	dt.Units = unitStr

	return dt, nil
}

// MustParseDtype is like ParseDtype but panics on error.
func MustParseDtype(s string) Dtype {
	dt, err := ParseDtype(s)
	if err != nil {
		panic(err)
	}
	return dt
}

func (dt Dtype) String() string {
	s := fmt.Sprintf("%s%s%d", string(dt.ByteOrder), string(dt.BasicType), dt.ByteSize)
	if dt.Units != "" {
		s += dt.Units
	}
	return s
}

func (dt Dtype) MarshalJSON() ([]byte, error) {
	return []byte(`"` + dt.String() + `"`), nil
}

func (dt *Dtype) UnmarshalJSON(d []byte) error {
	var s string
	if err := json.Unmarshal(d, &s); err != nil {
		return err
	}
	t, err := ParseDtype(s)
	if err != nil {
		return err
	}

	*dt = t
	return nil
}

func (dt Dtype) order() binary.ByteOrder {
	if dt.ByteOrder == BOLittleEndian {
		return binary.LittleEndian
	}
	return binary.BigEndian
}

// Decode reads n elements of type dt from r and widens them to float64.
func (dt Dtype) Decode(r io.Reader, n int) ([]float64, error) {
	raw, err := dt.newBuffer(n)
	if err != nil {
		return nil, err
	}
	if err := binary.Read(r, dt.order(), raw); err != nil {
		return nil, err
	}

	out := make([]float64, n)
	switch v := raw.(type) {
	case []bool:
		for i, x := range v {
			if x {
				out[i] = 1
			}
		}
	case []int8:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []int16:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []int32:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []int64:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []uint8:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []uint16:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []uint32:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []uint64:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []float32:
		for i, x := range v {
			out[i] = float64(x)
		}
	case []float64:
		copy(out, v)
	}
	return out, nil
}

// ErrOutOfRange is returned by Encode for values an integer dtype cannot hold.
var ErrOutOfRange = errors.New("value out of range")

// Encode narrows values to dt and writes them to w. Integer dtypes truncate
// toward zero and reject NaN and values outside their range with
// ErrOutOfRange. float32 rounds, overflowing to ±Inf.
func (dt Dtype) Encode(w io.Writer, values []float64) error {
	raw, err := dt.newBuffer(len(values))
	if err != nil {
		return err
	}
	if err := dt.checkRange(values); err != nil {
		return err
	}

	switch v := raw.(type) {
	case []bool:
		for i, x := range values {
			v[i] = x != 0
		}
	case []int8:
		for i, x := range values {
			v[i] = int8(x)
		}
	case []int16:
		for i, x := range values {
			v[i] = int16(x)
		}
	case []int32:
		for i, x := range values {
			v[i] = int32(x)
		}
	case []int64:
		for i, x := range values {
			v[i] = int64(x)
		}
	case []uint8:
		for i, x := range values {
			v[i] = uint8(x)
		}
	case []uint16:
		for i, x := range values {
			v[i] = uint16(x)
		}
	case []uint32:
		for i, x := range values {
			v[i] = uint32(x)
		}
	case []uint64:
		for i, x := range values {
			v[i] = uint64(x)
		}
	case []float32:
		for i, x := range values {
			v[i] = float32(x)
		}
	case []float64:
		copy(v, values)
	}
	return binary.Write(w, dt.order(), raw)
}

// checkRange accepts values whose truncation toward zero fits dt.
func (dt Dtype) checkRange(values []float64) error {
	var lo, hi float64
	switch dt.BasicType {
	case BTInteger:
		hi = math.Ldexp(1, 8*dt.ByteSize-1)
		lo = -hi
	case BTUnsigned:
		hi = math.Ldexp(1, 8*dt.ByteSize)
	default:
		return nil
	}
	for i, x := range values {
		if math.IsNaN(x) || x <= lo-1 || x >= hi {
			return fmt.Errorf("%w: element %d is %v, not representable as %s", ErrOutOfRange, i, x, dt)
		}
	}
	return nil
}

func (dt Dtype) newBuffer(size int) (interface{}, error) {
	switch dt.BasicType {
	case BTBoolean:
		return make([]bool, size), nil
	case BTInteger:
		switch dt.ByteSize {
		case 1:
			return make([]int8, size), nil
		case 2:
			return make([]int16, size), nil
		case 4:
			return make([]int32, size), nil
		case 8:
			return make([]int64, size), nil
		}
	case BTUnsigned:
		switch dt.ByteSize {
		case 1:
			return make([]uint8, size), nil
		case 2:
			return make([]uint16, size), nil
		case 4:
			return make([]uint32, size), nil
		case 8:
			return make([]uint64, size), nil
		}
	case BTFloatingPoint:
		switch dt.ByteSize {
		case 4:
			return make([]float32, size), nil
		case 8:
			return make([]float64, size), nil
		}
	}
	return nil, fmt.Errorf("unsupported element type %q", dt.String())
}

type ByteOrder rune

func ParseByteOrder(r rune) (ByteOrder, error) {
	o := ByteOrder(r)
	if _, ok := byteOrders[o]; !ok {
		return o, fmt.Errorf("unsupported byte order format: %q", r)
	}
	return o, nil
}

const (
	BONotRelevant  ByteOrder = '|'
	BOLittleEndian ByteOrder = '<'
	BOBigEndian    ByteOrder = '>'
)

var byteOrders = map[ByteOrder]struct{}{
	BONotRelevant:  {},
	BOLittleEndian: {},
	BOBigEndian:    {},
}

type BasicType rune

func ParseBasicType(r rune) (BasicType, error) {
	t := BasicType(r)
	if _, ok := supportedBasicTypes[t]; !ok {
		return t, fmt.Errorf("unsupported basic type: %q", r)
	}
	return t, nil
}

func (bt BasicType) Human() string {
	return supportedBasicTypes[bt]
}

const (
	BTBoolean       BasicType = 'b'
	BTInteger       BasicType = 'i'
	BTUnsigned      BasicType = 'u'
	BTFloatingPoint BasicType = 'f'
	BTComplex       BasicType = 'c'
	BTTimedelta     BasicType = 'm'
	BTDatetime      BasicType = 'M'
	BTString        BasicType = 'S'
	BTUnicode       BasicType = 'U'
	BTOther         BasicType = 'V'
)

var supportedBasicTypes = map[BasicType]string{
	BTBoolean:       "bool",
	BTInteger:       "int",
	BTUnsigned:      "uint",
	BTFloatingPoint: "float",
	BTComplex:       "complex",
	BTTimedelta:     "timeDelta",
	BTDatetime:      "dateTime",
	BTString:        "string",
	BTUnicode:       "unicode",
	BTOther:         "other",
}
