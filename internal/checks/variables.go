package checks

import (
	"fmt"
	"slices"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

const bytesPerMB = 1_000_000

// DataVariablePresent passes when a data variable carries one of the
// standard names.
func DataVariablePresent(standardNames []string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		if _, ok := findDataVar(ds, standardNames); ok {
			return spec.Pass(), nil
		}
		return spec.Failf("no data variable has a standard_name in %s (data variables: %s)",
			quoteList(standardNames), strings.Join(ds.DataVarNames(), ", ")), nil
	}
}

// VariableDimensions passes when the selected variable has exactly the given
// dimensions in order.
func VariableDimensions(standardNames, dims []string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		v, err := requireDataVar(ds, standardNames)
		if err != nil {
			return spec.Result{}, err
		}
		if got := v.Dims(); !slices.Equal(got, dims) {
			return spec.Failf("%s has dimensions (%s), expected (%s)",
				v.Name(), strings.Join(got, ", "), strings.Join(dims, ", ")), nil
		}
		return spec.Pass(), nil
	}
}

// VariableDType passes when the selected variable's dtype, by numpy name
// ("float32", "int16"), is one of dtypes.
func VariableDType(standardNames, dtypes []string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		v, err := requireDataVar(ds, standardNames)
		if err != nil {
			return spec.Result{}, err
		}
		if got := v.DType().String(); !slices.Contains(dtypes, got) {
			return spec.Failf("%s has dtype %s, expected one of %s", v.Name(), got, strings.Join(dtypes, ", ")), nil
		}
		return spec.Pass(), nil
	}
}

// VariableAttributes passes when the selected variable has every attribute in
// required and every attribute in values with the given value.
func VariableAttributes(standardNames, required []string, values map[string]string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		v, err := requireDataVar(ds, standardNames)
		if err != nil {
			return spec.Result{}, err
		}
		attrs := v.Attrs()
		var missing, wrong []string
		for _, key := range required {
			if strings.TrimSpace(attrs.Text(key)) == "" {
				missing = append(missing, key)
			}
		}
		for _, key := range sortedKeys(values) {
			if !attrs.Has(key) {
				if !slices.Contains(missing, key) {
					missing = append(missing, key)
				}
				continue
			}
			if got := attrs.Text(key); got != values[key] {
				wrong = append(wrong, fmt.Sprintf("%s is %q, expected %q", key, got, values[key]))
			}
		}
		var problems []string
		if len(missing) > 0 {
			problems = append(problems, fmt.Sprintf("%s is missing attributes: %s", v.Name(), strings.Join(missing, ", ")))
		}
		problems = append(problems, wrong...)
		if len(problems) > 0 {
			return spec.Fail(strings.Join(problems, "; ")), nil
		}
		return spec.Pass(), nil
	}
}

// VariableChunking passes when the selected variable's chunks hold at most
// maxTimeChunk steps along timeDim and, when maxChunkMB is positive, at most
// maxChunkMB megabytes uncompressed.
func VariableChunking(standardNames []string, timeDim string, maxTimeChunk int, maxChunkMB float64) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		v, err := requireDataVar(ds, standardNames)
		if err != nil {
			return spec.Result{}, err
		}
		dims, chunks := v.Dims(), v.Chunks()
		var problems []string
		axis := slices.Index(dims, timeDim)
		switch {
		case axis < 0:
			problems = append(problems, fmt.Sprintf("%s has no %q dimension", v.Name(), timeDim))
		case maxTimeChunk > 0 && axis < len(chunks) && chunks[axis] > maxTimeChunk:
			problems = append(problems, fmt.Sprintf("%s chunks hold %d steps along %q, at most %d allowed",
				v.Name(), chunks[axis], timeDim, maxTimeChunk))
		}
		if mb := float64(v.ChunkBytes()) / bytesPerMB; maxChunkMB > 0 && mb > maxChunkMB {
			problems = append(problems, fmt.Sprintf("%s chunks are %.1f MB uncompressed, at most %g MB allowed",
				v.Name(), mb, maxChunkMB))
		}
		if len(problems) > 0 {
			return spec.Fail(strings.Join(problems, "; ")), nil
		}
		return spec.Pass(), nil
	}
}

// VariableCompression passes when the selected variable's chunks are
// compressed.
func VariableCompression(standardNames []string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		v, err := requireDataVar(ds, standardNames)
		if err != nil {
			return spec.Result{}, err
		}
		if v.Compressor() == "" {
			return spec.Failf("%s is stored without a compressor", v.Name()), nil
		}
		return spec.Pass(), nil
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
