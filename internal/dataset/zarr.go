package dataset

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const (
	consolidatedKey = ".zmetadata"
	groupKey        = ".zgroup"
	attrsKey        = ".zattrs"
	arrayKey        = ".zarray"
	dimensionsAttr  = "_ARRAY_DIMENSIONS"
)

// zstdDecoder is shared; DecodeAll is safe for concurrent use.
var zstdDecoder, _ = zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))

type zarrArray struct {
	ZarrFormat         int             `json:"zarr_format"`
	Shape              []int           `json:"shape"`
	Chunks             []int           `json:"chunks"`
	DType              json.RawMessage `json:"dtype"`
	Compressor         *zarrCodec      `json:"compressor"`
	FillValue          json.RawMessage `json:"fill_value"`
	Order              string          `json:"order"`
	Filters            []zarrCodec     `json:"filters"`
	DimensionSeparator string          `json:"dimension_separator"`
}

type zarrCodec struct {
	ID string `json:"id"`
}

type zarrGroup struct {
	ZarrFormat int `json:"zarr_format"`
}

type zarrMetadata struct {
	attrs      Attrs
	arrays     map[string]*zarrArray
	arrayAttrs map[string]Attrs
}

// OpenStore reads the Zarr v2 group at the root of store. source is reported
// by the Handle and in errors.
func OpenStore(ctx context.Context, store Store, source string) (*Handle, error) {
	meta, err := readZarrMetadata(ctx, store)
	if err != nil {
		return nil, &OpenError{Source: source, Err: err}
	}
	h, err := buildZarrHandle(ctx, store, source, meta)
	if err != nil {
		return nil, &OpenError{Source: source, Err: err}
	}
	return h, nil
}

func readZarrMetadata(ctx context.Context, store Store) (*zarrMetadata, error) {
	data, err := store.Get(ctx, consolidatedKey)
	switch {
	case err == nil:
		slog.Debug("reading consolidated zarr metadata", "store", store.String())
		return parseConsolidated(data)
	case !errors.Is(err, ErrKeyNotFound):
		return nil, err
	}

	data, err = store.Get(ctx, groupKey)
	if errors.Is(err, ErrKeyNotFound) {
		if _, v3err := store.Get(ctx, "zarr.json"); v3err == nil {
			return nil, errors.New("zarr format 3 stores are not supported")
		}
		return nil, fmt.Errorf("no zarr group at %s (missing %s)", store.String(), groupKey)
	}
	if err != nil {
		return nil, err
	}
	var group zarrGroup
	if err := json.Unmarshal(data, &group); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", groupKey, err)
	}
	if group.ZarrFormat != 2 {
		return nil, fmt.Errorf("unsupported zarr_format %d", group.ZarrFormat)
	}

	meta := &zarrMetadata{
		arrays:     make(map[string]*zarrArray),
		arrayAttrs: make(map[string]Attrs),
	}
	if meta.attrs, err = readAttrs(ctx, store, attrsKey); err != nil {
		return nil, err
	}

	names, err := store.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", store.String(), err)
	}
	slices.Sort(names)
	names = slices.Compact(names)
	for _, name := range names {
		if strings.HasPrefix(name, ".") {
			continue
		}
		data, err := store.Get(ctx, name+"/"+arrayKey)
		if errors.Is(err, ErrKeyNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var arr zarrArray
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, fmt.Errorf("parsing %s/%s: %w", name, arrayKey, err)
		}
		meta.arrays[name] = &arr
		if meta.arrayAttrs[name], err = readAttrs(ctx, store, name+"/"+attrsKey); err != nil {
			return nil, err
		}
	}
	slog.Debug("read zarr metadata by listing", "store", store.String(), "arrays", len(meta.arrays))
	return meta, nil
}

func readAttrs(ctx context.Context, store Store, key string) (Attrs, error) {
	data, err := store.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return Attrs{}, nil
	}
	if err != nil {
		return nil, err
	}
	attrs := Attrs{}
	if err := json.Unmarshal(data, &attrs); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", key, err)
	}
	return attrs, nil
}

func parseConsolidated(data []byte) (*zarrMetadata, error) {
	var doc struct {
		Format   int                        `json:"zarr_consolidated_format"`
		Metadata map[string]json.RawMessage `json:"metadata"`
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", consolidatedKey, err)
	}
	if doc.Format != 1 {
		return nil, fmt.Errorf("unsupported zarr_consolidated_format %d", doc.Format)
	}

	meta := &zarrMetadata{
		attrs:      Attrs{},
		arrays:     make(map[string]*zarrArray),
		arrayAttrs: make(map[string]Attrs),
	}
	if _, ok := doc.Metadata[groupKey]; !ok {
		return nil, fmt.Errorf("%s does not describe a root group", consolidatedKey)
	}
	for key, raw := range doc.Metadata {
		dir, file, nested := strings.Cut(key, "/")
		if !nested {
			if key == attrsKey {
				if err := json.Unmarshal(raw, &meta.attrs); err != nil {
					return nil, fmt.Errorf("parsing %s: %w", key, err)
				}
			}
			continue
		}
		// Arrays in nested groups are outside the root group's namespace.
		if strings.Contains(file, "/") {
			continue
		}
		switch file {
		case arrayKey:
			var arr zarrArray
			if err := json.Unmarshal(raw, &arr); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", key, err)
			}
			meta.arrays[dir] = &arr
		case attrsKey:
			attrs := Attrs{}
			if err := json.Unmarshal(raw, &attrs); err != nil {
				return nil, fmt.Errorf("parsing %s: %w", key, err)
			}
			meta.arrayAttrs[dir] = attrs
		}
	}
	return meta, nil
}

func buildZarrHandle(ctx context.Context, store Store, source string, meta *zarrMetadata) (*Handle, error) {
	names := make([]string, 0, len(meta.arrays))
	for name := range meta.arrays {
		names = append(names, name)
	}
	slices.Sort(names)

	var dims []Dimension
	sizes := make(map[string]int)
	vars := make(map[string]*Variable, len(names))
	coordNames := make(map[string]bool)
	markCoords := func(attrs Attrs) {
		if s, ok := attrs.String("coordinates"); ok {
			for _, c := range strings.Fields(s) {
				coordNames[c] = true
			}
		}
	}
	markCoords(meta.attrs)

	for _, name := range names {
		arr := meta.arrays[name]
		attrs := meta.arrayAttrs[name]
		if attrs == nil {
			attrs = Attrs{}
		}
		varDims, err := arrayDims(name, attrs, len(arr.Shape))
		if err != nil {
			return nil, err
		}
		delete(attrs, dimensionsAttr)
		markCoords(attrs)

		for i, d := range varDims {
			size, seen := sizes[d]
			if !seen {
				sizes[d] = arr.Shape[i]
				dims = append(dims, Dimension{Name: d, Size: arr.Shape[i]})
				continue
			}
			if size != arr.Shape[i] {
				return nil, fmt.Errorf("dimension %q has conflicting sizes %d and %d", d, size, arr.Shape[i])
			}
		}

		v := &Variable{
			name:   name,
			dims:   varDims,
			shape:  slices.Clone(arr.Shape),
			chunks: slices.Clone(arr.Chunks),
			attrs:  attrs,
		}
		if arr.Compressor != nil {
			v.compressor = arr.Compressor.ID
		}
		var dtypeText string
		if err := json.Unmarshal(arr.DType, &dtypeText); err != nil {
			v.loadErr = fmt.Errorf("structured dtype %s is not supported", string(arr.DType))
		} else if v.dtype, err = ParseDType(dtypeText); err != nil {
			v.loadErr = err
		}
		vars[name] = v
	}

	for name, v := range vars {
		if coordNames[name] || (len(v.dims) == 1 && v.dims[0] == name) {
			v.coord = true
		}
		if !v.coord || len(v.dims) != 1 || v.loadErr != nil {
			continue
		}
		v.values, v.loadErr = readArray1D(ctx, store, name, meta.arrays[name], v.dtype)
		if v.loadErr != nil {
			slog.Debug("coordinate values unreadable", "variable", name, "error", v.loadErr)
		}
	}

	return newHandle(source, "zarr", dims, meta.attrs, vars), nil
}

func arrayDims(name string, attrs Attrs, ndim int) ([]string, error) {
	raw, ok := attrs[dimensionsAttr]
	if !ok {
		if ndim == 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("array %q has no %s attribute", name, dimensionsAttr)
	}
	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("array %q: %s is not a list", name, dimensionsAttr)
	}
	dims := make([]string, len(list))
	for i, d := range list {
		s, ok := d.(string)
		if !ok {
			return nil, fmt.Errorf("array %q: %s holds a non-string entry", name, dimensionsAttr)
		}
		dims[i] = s
	}
	if len(dims) != ndim {
		return nil, fmt.Errorf("array %q has %d dimension names for %d axes", name, len(dims), ndim)
	}
	return dims, nil
}

func readArray1D(ctx context.Context, store Store, name string, arr *zarrArray, dt DType) (*values, error) {
	if len(arr.Filters) > 0 {
		return nil, fmt.Errorf("filter %q is not supported", arr.Filters[0].ID)
	}
	if !dt.Numeric() {
		return nil, fmt.Errorf("cannot decode values of dtype %s", dt)
	}
	if len(arr.Chunks) != 1 || arr.Chunks[0] <= 0 {
		return nil, fmt.Errorf("invalid chunk shape %v", arr.Chunks)
	}
	n, chunk := arr.Shape[0], arr.Chunks[0]
	fill, err := parseFillValue(arr.FillValue)
	if err != nil {
		return nil, err
	}

	out := &values{}
	isFloat := dt.Kind == KindFloat
	if isFloat {
		out.floats = make([]float64, 0, n)
	} else {
		out.ints = make([]int64, 0, n)
	}
	for c := 0; c*chunk < n; c++ {
		count := min(chunk, n-c*chunk)
		raw, err := store.Get(ctx, name+"/"+strconv.Itoa(c))
		if errors.Is(err, ErrKeyNotFound) {
			for range count {
				if isFloat {
					out.floats = append(out.floats, fill.float)
				} else {
					out.ints = append(out.ints, fill.int)
				}
			}
			continue
		}
		if err != nil {
			return nil, err
		}
		decoded, err := decompress(arr.Compressor, raw)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c, err)
		}
		vals, err := dt.decode(decoded, count)
		if err != nil {
			return nil, fmt.Errorf("chunk %d: %w", c, err)
		}
		out.floats = append(out.floats, vals.floats...)
		out.ints = append(out.ints, vals.ints...)
	}
	return out, nil
}

type fillValue struct {
	int   int64
	float float64
}

func parseFillValue(raw json.RawMessage) (fillValue, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return fillValue{float: math.NaN()}, nil
	}
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		switch text {
		case "NaN":
			return fillValue{float: math.NaN()}, nil
		case "Infinity":
			return fillValue{float: math.Inf(1)}, nil
		case "-Infinity":
			return fillValue{float: math.Inf(-1)}, nil
		}
		return fillValue{}, fmt.Errorf("unsupported fill_value %q", text)
	}
	num := strings.TrimSpace(string(raw))
	if i, err := strconv.ParseInt(num, 10, 64); err == nil {
		return fillValue{int: i, float: float64(i)}, nil
	}
	f, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return fillValue{}, fmt.Errorf("unsupported fill_value %s", num)
	}
	return fillValue{int: int64(f), float: f}, nil
}

func decompress(codec *zarrCodec, raw []byte) ([]byte, error) {
	if codec == nil {
		return raw, nil
	}
	switch codec.ID {
	case "blosc":
		return decodeBlosc(raw)
	case "zstd":
		return zstdDecoder.DecodeAll(raw, nil)
	case "gzip":
		r, err := gzip.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	case "zlib":
		r, err := zlib.NewReader(bytes.NewReader(raw))
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return io.ReadAll(r)
	}
	return nil, fmt.Errorf("compressor %q is not supported", codec.ID)
}
