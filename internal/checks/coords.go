package checks

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

// CoordinatePresent passes when name is a coordinate of the dataset.
func CoordinatePresent(name string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		if _, ok := ds.Coord(name); ok {
			return spec.Pass(), nil
		}
		if _, ok := ds.DataVar(name); ok {
			return spec.Failf("%q is a data variable, not a coordinate", name), nil
		}
		return spec.Failf("missing %q coordinate", name), nil
	}
}

// GridSpacing passes when every named one-dimensional coordinate is evenly
// spaced within relTolerance and, when maxSpacing is positive, its spacing
// does not exceed maxSpacing (in the coordinate's units).
func GridSpacing(coords []string, maxSpacing, relTolerance float64) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		var problems []string
		for _, name := range coords {
			v, err := requireCoord(ds, name)
			if err != nil {
				return spec.Result{}, err
			}
			vals, err := v.Float64s()
			if err != nil {
				return spec.Result{}, err
			}
			if len(vals) < 2 {
				problems = append(problems, fmt.Sprintf("%s has fewer than two points", name))
				continue
			}
			step := vals[1] - vals[0]
			if step == 0 || math.IsNaN(step) {
				problems = append(problems, fmt.Sprintf("%s has a zero or undefined spacing", name))
				continue
			}
			for i := 2; i < len(vals); i++ {
				d := vals[i] - vals[i-1]
				if math.IsNaN(d) || math.Abs(d-step) > relTolerance*math.Abs(step) {
					problems = append(problems, fmt.Sprintf("%s is not evenly spaced (step %g at index %d, expected %g)", name, d, i, step))
					break
				}
			}
			if maxSpacing > 0 && math.Abs(step) > maxSpacing {
				problems = append(problems, fmt.Sprintf("%s spacing %g exceeds %g", name, math.Abs(step), maxSpacing))
			}
		}
		if len(problems) > 0 {
			return spec.Fail(strings.Join(problems, "; ")), nil
		}
		return spec.Pass(), nil
	}
}

var projectionStandardNames = map[string]string{
	"x": "projection_x_coordinate",
	"y": "projection_y_coordinate",
}

var lengthUnits = []string{"m", "km", "metre", "meter", "metres", "meters"}

// ProjectionCoordinates passes when the x and y coordinates carry the CF
// projection standard names and length units.
func ProjectionCoordinates(x, y string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		var problems []string
		for _, axis := range []struct{ name, kind string }{{x, "x"}, {y, "y"}} {
			v, err := requireCoord(ds, axis.name)
			if err != nil {
				return spec.Result{}, err
			}
			attrs := v.Attrs()
			want := projectionStandardNames[axis.kind]
			if sn := attrs.Text("standard_name"); sn != want {
				problems = append(problems, fmt.Sprintf("%s standard_name is %q, expected %q", axis.name, sn, want))
			}
			if units := attrs.Text("units"); !slices.Contains(lengthUnits, units) {
				problems = append(problems, fmt.Sprintf("%s units %q are not a length unit", axis.name, units))
			}
		}
		if len(problems) > 0 {
			return spec.Fail(strings.Join(problems, "; ")), nil
		}
		return spec.Pass(), nil
	}
}
