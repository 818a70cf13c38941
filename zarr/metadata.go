package zarr

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/probonopd/LiberTEM/nd"
)

type MetaType string

const (
	// MTAttributes stores userland metadata keyed by array name
	MTAttributes MetaType = ".zattrs"
	// MTArray is the key for storing metadata on an array store
	MTArray MetaType = ".zarray"
	// MTGroup is the key for storing group definitions on an array store
	MTGroup MetaType = ".zgroup"
	// MTMetadata is the key for composite metadata
	MTMetadata MetaType = ".zmetadata"
)

type MetaTyper interface {
	MetaType() MetaType
}

var metaTypes = map[MetaType]struct{}{
	MTAttributes: {},
	MTArray:      {},
	MTGroup:      {},
}

// relies on the fact that all keynames are 7 characters long
func KeyMetaType(s string) (mt MetaType, ok bool) {
	if len(s) < 7 {
		return mt, false
	}
	mt = MetaType(s[len(s)-7:])
	_, ok = metaTypes[mt]
	return mt, ok
}

type Attributes map[string]interface{}

func (Attributes) MetaType() MetaType { return MTAttributes }

type ConsolidatedMetadata struct {
	ConsolidatedFormat int                  `json:"zarr_consolidated_format"`
	Metadata           map[string]MetaTyper `json:"metadata"`
}

type consolidatedMetaDecoder struct {
	ConsolidatedFormat int                        `json:"zarr_consolidated_format"`
	Metadata           map[string]json.RawMessage `json:"metadata"`
}

func (m *ConsolidatedMetadata) UnmarshalJSON(d []byte) error {
	cd := consolidatedMetaDecoder{}
	if err := json.Unmarshal(d, &cd); err != nil {
		return err
	}
	cm := ConsolidatedMetadata{
		ConsolidatedFormat: cd.ConsolidatedFormat,
		Metadata:           map[string]MetaTyper{},
	}

	for key, data := range cd.Metadata {
		kt, ok := KeyMetaType(key)
		if !ok {
			return fmt.Errorf("invalid consolidated metadata key: %q", key)
		}
		v, err := decodeMeta(kt, data)
		if err != nil {
			return fmt.Errorf("reading %q metadata: %w", key, err)
		}
		cm.Metadata[key] = v
	}

	*m = cm
	return nil
}

// decodeMeta parses one metadata document of type mt.
func decodeMeta(mt MetaType, data []byte) (MetaTyper, error) {
	switch mt {
	case MTArray:
		arr := &ArrayMeta{}
		if err := json.Unmarshal(data, arr); err != nil {
			return nil, err
		}
		return arr, nil
	case MTAttributes:
		attr := Attributes{}
		if err := json.Unmarshal(data, &attr); err != nil {
			return nil, err
		}
		return attr, nil
	case MTGroup:
		grp := Group{}
		if err := json.Unmarshal(data, &grp); err != nil {
			return nil, err
		}
		return grp, nil
	}
	return nil, fmt.Errorf("%w: metadata type %q", ErrUnsupported, mt)
}

func (m *ConsolidatedMetadata) add(p Path, v MetaTyper) {
	m.Metadata[p.Join(string(v.MetaType())).String()] = v
}

// Arrays lists the array metadata in m keyed by array path.
func (m *ConsolidatedMetadata) Arrays() map[string]*ArrayMeta {
	out := map[string]*ArrayMeta{}
	for key, v := range m.Metadata {
		if a, ok := v.(*ArrayMeta); ok {
			p := key[:len(key)-len(MTArray)]
			if len(p) > 0 && p[len(p)-1] == '/' {
				p = p[:len(p)-1]
			}
			out[p] = a
		}
	}
	return out
}

// Each array requires essential configuration metadata to be stored,
// enabling correct interpretation of the stored data.
// This metadata is encoded using JSON and stored as the value of the
// “.zarray” key within an array store.
type ArrayMeta struct {
	// An integer defining the version of the storage specification to which
	// the array store adheres.
	ZarrFormat int `json:"zarr_format"`
	// A list of integers defining the length of each dimension of the array.
	Shape []int `json:"shape"`
	// A list of integers defining the length of each dimension of a chunk of
	// the array. All chunks within an array have the same shape; chunks on the
	// upper edges extend past the array and their excess is ignored.
	Chunks []int `json:"chunks"`
	// A string or list defining a valid data type for the array.
	Dtype StructuredType `json:"dtype"`
	// Identifies the primary compression codec, or null if no compressor is
	// used.
	Compressor *CompressionMeta `json:"compressor"`

	// A scalar value providing the default value to use for uninitialized
	// portions of the array, or null if no fill_value is to be used.
	FillValue interface{} `json:"fill_value"`
	// Either “C” or “F”, defining the layout of bytes within each chunk of the
	// array. Only “C” (row-major) is supported for reading.
	Order string `json:"order"`
	// Codec configurations applied before compression, or null.
	Filters []Filter `json:"filters"`

	// optional fields

	// If present, either the string "." or "/"" definining the separator placed
	// between the dimensions of a chunk. If the value is not set, then the
	// default MUST be assumed to be ".", leading to chunk keys of the form “0.0”.
	DimensionSeparator string `json:"dimension_separator,omitempty"`
}

func (a ArrayMeta) MetaType() MetaType { return MTArray }

// Validate checks that a can be used to read and write chunks.
func (a *ArrayMeta) Validate() error {
	if len(a.Shape) != len(a.Chunks) {
		return &nd.ShapeError{Op: "chunk arity", Want: a.Shape, Got: a.Chunks}
	}
	for i, c := range a.Chunks {
		if c <= 0 || a.Shape[i] < 0 {
			return &nd.ShapeError{Op: "chunk shape", Want: a.Shape, Got: a.Chunks}
		}
	}
	if a.Order != "" && a.Order != "C" {
		return fmt.Errorf("%w: order %q", ErrUnsupported, a.Order)
	}
	if len(a.Filters) > 0 {
		return fmt.Errorf("%w: filters", ErrUnsupported)
	}
	if _, err := a.Dtype.Basic(); err != nil {
		return err
	}
	switch a.DimensionSeparator {
	case "", ".", "/":
	default:
		return fmt.Errorf("%w: dimension separator %q", ErrUnsupported, a.DimensionSeparator)
	}
	return nil
}

// Fill returns the fill value as a number. Missing or null fill values are
// zero.
func (a *ArrayMeta) Fill() float64 {
	switch v := a.FillValue.(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case bool:
		if v {
			return 1
		}
	case string:
		switch v {
		case FillValueNaN:
			return math.NaN()
		case FillValueInfinity:
			return math.Inf(1)
		case FillValueNegativeInfinity:
			return math.Inf(-1)
		}
	}
	return 0
}

type Filter struct {
	ID     string `json:"id"`
	Delta  string `json:"delta,omitempty"`
	Dtype  string `json:"dtype,omitempty"`
	AsType string `json:"astype,omitempty"`
}

const (
	// Not a Number
	FillValueNaN = "NaN"
	// Infinity
	FillValueInfinity = "Infinity"
	// -Infinity
	FillValueNegativeInfinity = "-Infinity"
)
