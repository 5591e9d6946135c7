// Package dataset exposes an opened gridded dataset as a read-only Handle:
// dimensions, coordinates with their values, data variables with dtype and
// chunking metadata, and attributes. Handles are built either by opening a
// Zarr store (local or object storage) or in memory with a Builder; both
// produce the same structure.
package dataset

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"time"
)

// ErrNoValues is returned when values are requested from a variable whose
// values were not loaded, such as a data variable.
var ErrNoValues = errors.New("variable values are not loaded")

// Dimension is a named axis and its length.
type Dimension struct {
	Name string
	Size int
}

// Handle is an opened dataset. It is immutable and safe for concurrent use.
type Handle struct {
	source string
	format string
	dims   []Dimension
	attrs  Attrs
	vars   map[string]*Variable
	coords []string
	data   []string
}

// Source returns the path or URI the dataset was opened from.
func (h *Handle) Source() string { return h.source }

// Format names the backing format, e.g. "zarr" or "memory".
func (h *Handle) Format() string { return h.format }

// Dims returns the dimensions in first-seen order.
func (h *Handle) Dims() []Dimension { return slices.Clone(h.dims) }

// DimSize returns the length of the named dimension.
func (h *Handle) DimSize(name string) (int, bool) {
	for _, d := range h.dims {
		if d.Name == name {
			return d.Size, true
		}
	}
	return 0, false
}

// Attrs returns the global attributes.
func (h *Handle) Attrs() Attrs { return h.attrs.clone() }

// Attr returns a single global attribute.
func (h *Handle) Attr(key string) (any, bool) {
	v, ok := h.attrs[key]
	return v, ok
}

// CoordNames returns the coordinate variable names, sorted.
func (h *Handle) CoordNames() []string { return slices.Clone(h.coords) }

// DataVarNames returns the data variable names, sorted.
func (h *Handle) DataVarNames() []string { return slices.Clone(h.data) }

// Coord returns the named coordinate variable.
func (h *Handle) Coord(name string) (*Variable, bool) {
	v, ok := h.vars[name]
	if !ok || !v.coord {
		return nil, false
	}
	return v, true
}

// DataVar returns the named data variable.
func (h *Handle) DataVar(name string) (*Variable, bool) {
	v, ok := h.vars[name]
	if !ok || v.coord {
		return nil, false
	}
	return v, true
}

// Variable returns a coordinate or data variable by name.
func (h *Handle) Variable(name string) (*Variable, bool) {
	v, ok := h.vars[name]
	return v, ok
}

// DataVars returns the data variables in name order.
func (h *Handle) DataVars() []*Variable {
	out := make([]*Variable, 0, len(h.data))
	for _, name := range h.data {
		out = append(out, h.vars[name])
	}
	return out
}

func newHandle(source, format string, dims []Dimension, attrs Attrs, vars map[string]*Variable) *Handle {
	h := &Handle{
		source: source,
		format: format,
		dims:   dims,
		attrs:  attrs,
		vars:   vars,
	}
	for name, v := range vars {
		if v.coord {
			h.coords = append(h.coords, name)
		} else {
			h.data = append(h.data, name)
		}
	}
	sort.Strings(h.coords)
	sort.Strings(h.data)
	return h
}

// Variable is a coordinate or data variable. Coordinate values are loaded
// when the dataset is opened; data variable values never are.
type Variable struct {
	name       string
	dims       []string
	shape      []int
	chunks     []int
	dtype      DType
	compressor string
	attrs      Attrs
	coord      bool

	values  *values
	loadErr error
}

func (v *Variable) Name() string { return v.name }

// Dims returns the dimension names in axis order.
func (v *Variable) Dims() []string { return slices.Clone(v.dims) }

// Shape returns the length along each axis.
func (v *Variable) Shape() []int { return slices.Clone(v.shape) }

// Chunks returns the chunk length along each axis.
func (v *Variable) Chunks() []int { return slices.Clone(v.chunks) }

func (v *Variable) DType() DType { return v.dtype }

// Compressor names the chunk compressor, or "" when chunks are stored raw.
func (v *Variable) Compressor() string { return v.compressor }

func (v *Variable) Attrs() Attrs      { return v.attrs.clone() }
func (v *Variable) IsCoordinate() bool { return v.coord }

// Attr returns a single attribute.
func (v *Variable) Attr(key string) (any, bool) {
	a, ok := v.attrs[key]
	return a, ok
}

// Len returns the total number of elements.
func (v *Variable) Len() int {
	n := 1
	for _, s := range v.shape {
		n *= s
	}
	return n
}

// ChunkBytes returns the uncompressed size of one chunk.
func (v *Variable) ChunkBytes() int64 {
	n := int64(v.dtype.Size)
	for _, c := range v.chunks {
		n *= int64(c)
	}
	return n
}

func (v *Variable) loaded() (*values, error) {
	if v.loadErr != nil {
		return nil, fmt.Errorf("reading %q: %w", v.name, v.loadErr)
	}
	if v.values == nil {
		return nil, fmt.Errorf("%q: %w", v.name, ErrNoValues)
	}
	return v.values, nil
}

// Float64s returns the values converted to float64.
func (v *Variable) Float64s() ([]float64, error) {
	vals, err := v.loaded()
	if err != nil {
		return nil, err
	}
	if vals.floats != nil {
		return slices.Clone(vals.floats), nil
	}
	out := make([]float64, len(vals.ints))
	for i, x := range vals.ints {
		out[i] = float64(x)
	}
	return out, nil
}

// IsTime reports whether the variable decodes to timestamps, either because
// of a datetime64 dtype or CF "<unit> since <reference>" units.
func (v *Variable) IsTime() bool {
	if v.dtype.Kind == KindDatetime {
		return true
	}
	units, _ := v.attrs.String("units")
	_, _, err := parseCFUnits(units)
	return err == nil
}

// Times decodes the values to UTC timestamps.
func (v *Variable) Times() ([]time.Time, error) {
	vals, err := v.loaded()
	if err != nil {
		return nil, err
	}
	if v.dtype.Kind == KindDatetime {
		unit, err := datetimeUnit(v.dtype.Unit)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", v.name, err)
		}
		return decodeOffsets(v.name, vals, unit, time.Unix(0, 0).UTC())
	}
	units, _ := v.attrs.String("units")
	unit, ref, err := parseCFUnits(units)
	if err != nil {
		return nil, fmt.Errorf("%q is not a time variable: %w", v.name, err)
	}
	if cal, ok := v.attrs.String("calendar"); ok && !standardCalendar(cal) {
		return nil, fmt.Errorf("%q uses unsupported calendar %q", v.name, cal)
	}
	return decodeOffsets(v.name, vals, unit, ref)
}

// values holds decoded array contents. Exactly one slice is set.
type values struct {
	ints   []int64
	floats []float64
}
