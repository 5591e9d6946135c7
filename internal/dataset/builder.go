package dataset

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"time"
)

// Builder assembles a Handle in memory. Handles built this way are
// indistinguishable from opened ones apart from Format.
//
//	h, err := dataset.NewBuilder().
//		Attr("license", "CC-BY-4.0").
//		Coord("time", times).
//		Coord("x", xs, dataset.WithAttrs(dataset.Attrs{"units": "m"})).
//		DataVar("rr", []string{"time", "y", "x"}, "<f4").
//		Build()
type Builder struct {
	source string
	dims   []Dimension
	attrs  Attrs
	vars   map[string]*Variable
	errs   []error
}

// VarOption configures a variable added to a Builder.
type VarOption func(*Variable)

// WithAttrs sets variable attributes.
func WithAttrs(a Attrs) VarOption {
	return func(v *Variable) {
		maps.Copy(v.attrs, a)
	}
}

// WithDims overrides the dimensions of a coordinate, which otherwise is
// one-dimensional along the dimension of the same name.
func WithDims(dims ...string) VarOption {
	return func(v *Variable) {
		v.dims = slices.Clone(dims)
	}
}

// WithChunks sets the chunk shape. The default is one chunk.
func WithChunks(chunks ...int) VarOption {
	return func(v *Variable) {
		v.chunks = slices.Clone(chunks)
	}
}

// WithCompressor names the chunk compressor.
func WithCompressor(id string) VarOption {
	return func(v *Variable) {
		v.compressor = id
	}
}

// WithReadError marks the variable's values as unreadable. Reading them
// returns err.
func WithReadError(err error) VarOption {
	return func(v *Variable) {
		v.values = nil
		v.loadErr = err
	}
}

// NewBuilder returns an empty Builder.
func NewBuilder() *Builder {
	return &Builder{
		source: "memory://",
		attrs:  Attrs{},
		vars:   make(map[string]*Variable),
	}
}

// Source sets the reported source of the built Handle.
func (b *Builder) Source(source string) *Builder {
	b.source = source
	return b
}

// Attr sets a global attribute.
func (b *Builder) Attr(key string, value any) *Builder {
	b.attrs[key] = value
	return b
}

// Attrs merges global attributes.
func (b *Builder) Attrs(a Attrs) *Builder {
	maps.Copy(b.attrs, a)
	return b
}

// Dim declares a dimension. Coordinates declare their dimension implicitly.
func (b *Builder) Dim(name string, size int) *Builder {
	b.setDim(name, size)
	return b
}

func (b *Builder) setDim(name string, size int) {
	for _, d := range b.dims {
		if d.Name == name {
			if d.Size != size {
				b.errs = append(b.errs, fmt.Errorf("dimension %q has conflicting sizes %d and %d", name, d.Size, size))
			}
			return
		}
	}
	b.dims = append(b.dims, Dimension{Name: name, Size: size})
}

// Coord adds a coordinate. data is one of []time.Time, []float64, []float32,
// []int64, []int32 or []int; nil adds a coordinate without values.
func (b *Builder) Coord(name string, data any, opts ...VarOption) *Builder {
	v := &Variable{name: name, dims: []string{name}, attrs: Attrs{}, coord: true}
	var n int
	switch d := data.(type) {
	case nil:
		n = -1
	case []time.Time:
		v.dtype = MustParseDType("<M8[ns]")
		vals := &values{ints: make([]int64, len(d))}
		for i, t := range d {
			vals.ints[i] = t.UnixNano()
		}
		v.values, n = vals, len(d)
	case []float64:
		v.dtype = MustParseDType("<f8")
		v.values, n = &values{floats: slices.Clone(d)}, len(d)
	case []float32:
		v.dtype = MustParseDType("<f4")
		vals := &values{floats: make([]float64, len(d))}
		for i, x := range d {
			vals.floats[i] = float64(x)
		}
		v.values, n = vals, len(d)
	case []int64:
		v.dtype = MustParseDType("<i8")
		v.values, n = &values{ints: slices.Clone(d)}, len(d)
	case []int32:
		v.dtype = MustParseDType("<i4")
		vals := &values{ints: make([]int64, len(d))}
		for i, x := range d {
			vals.ints[i] = int64(x)
		}
		v.values, n = vals, len(d)
	case []int:
		v.dtype = MustParseDType("<i8")
		vals := &values{ints: make([]int64, len(d))}
		for i, x := range d {
			vals.ints[i] = int64(x)
		}
		v.values, n = vals, len(d)
	default:
		b.errs = append(b.errs, fmt.Errorf("coordinate %q: unsupported data type %T", name, data))
		return b
	}
	for _, o := range opts {
		o(v)
	}
	if n >= 0 && len(v.dims) == 1 {
		b.setDim(v.dims[0], n)
	}
	if v.dtype.Kind == 0 {
		v.dtype = MustParseDType("<f8")
	}
	b.add(v)
	return b
}

// DataVar adds a data variable with the given dimensions and numpy dtype.
func (b *Builder) DataVar(name string, dims []string, dtype string, opts ...VarOption) *Builder {
	dt, err := ParseDType(dtype)
	if err != nil {
		b.errs = append(b.errs, fmt.Errorf("data variable %q: %w", name, err))
		return b
	}
	v := &Variable{name: name, dims: slices.Clone(dims), dtype: dt, attrs: Attrs{}}
	for _, o := range opts {
		o(v)
	}
	b.add(v)
	return b
}

func (b *Builder) add(v *Variable) {
	if _, dup := b.vars[v.name]; dup {
		b.errs = append(b.errs, fmt.Errorf("variable %q added twice", v.name))
		return
	}
	b.vars[v.name] = v
}

// Build validates shapes and returns the Handle. The Builder must not be
// reused afterwards.
func (b *Builder) Build() (*Handle, error) {
	errs := slices.Clone(b.errs)
	sizes := make(map[string]int, len(b.dims))
	for _, d := range b.dims {
		sizes[d.Name] = d.Size
	}
	for _, name := range slices.Sorted(maps.Keys(b.vars)) {
		v := b.vars[name]
		v.shape = make([]int, len(v.dims))
		for i, dim := range v.dims {
			size, ok := sizes[dim]
			if !ok {
				errs = append(errs, fmt.Errorf("variable %q uses undeclared dimension %q", name, dim))
				continue
			}
			v.shape[i] = size
		}
		if v.chunks == nil {
			v.chunks = slices.Clone(v.shape)
		} else if len(v.chunks) != len(v.dims) {
			errs = append(errs, fmt.Errorf("variable %q has %d chunk lengths for %d dimensions", name, len(v.chunks), len(v.dims)))
		}
		if v.values != nil && v.Len() != valueCount(v.values) {
			errs = append(errs, fmt.Errorf("variable %q holds %d values for shape %v", name, valueCount(v.values), v.shape))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return newHandle(b.source, "memory", slices.Clone(b.dims), b.attrs.clone(), b.vars), nil
}

// MustBuild is Build that panics on error.
func (b *Builder) MustBuild() *Handle {
	h, err := b.Build()
	if err != nil {
		panic(err)
	}
	return h
}

func valueCount(v *values) int {
	if v.floats != nil {
		return len(v.floats)
	}
	return len(v.ints)
}
