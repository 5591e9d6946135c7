package checks

import (
	"fmt"
	"strings"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

// GridMapping passes when the selected variable's grid_mapping attribute
// names a variable of the dataset.
func GridMapping(standardNames []string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		v, err := requireDataVar(ds, standardNames)
		if err != nil {
			return spec.Result{}, err
		}
		name, ok := v.Attrs().String("grid_mapping")
		if !ok || strings.TrimSpace(name) == "" {
			return spec.Failf("%s has no grid_mapping attribute", v.Name()), nil
		}
		if _, ok := ds.Variable(name); !ok {
			return spec.Failf("%s grid_mapping refers to %q, which is not a variable of the dataset", v.Name(), name), nil
		}
		return spec.Pass(), nil
	}
}

// CRSDefinition passes when the grid-mapping variable has a
// grid_mapping_name and a non-empty value for at least one of the CRS
// attributes (typically crs_wkt or spatial_ref).
func CRSDefinition(standardNames, crsAttributes []string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		v, err := requireDataVar(ds, standardNames)
		if err != nil {
			return spec.Result{}, err
		}
		name, _ := v.Attrs().String("grid_mapping")
		if name == "" {
			return spec.Failf("%s has no grid_mapping attribute, so no CRS is defined", v.Name()), nil
		}
		gm, ok := ds.Variable(name)
		if !ok {
			return spec.Failf("grid mapping variable %q not found", name), nil
		}
		attrs := gm.Attrs()
		var problems []string
		if strings.TrimSpace(attrs.Text("grid_mapping_name")) == "" {
			problems = append(problems, fmt.Sprintf("%s has no grid_mapping_name", name))
		}
		defined := false
		for _, key := range crsAttributes {
			if strings.TrimSpace(attrs.Text(key)) != "" {
				defined = true
				break
			}
		}
		if !defined {
			problems = append(problems, fmt.Sprintf("%s defines none of %s", name, strings.Join(crsAttributes, ", ")))
		}
		if len(problems) > 0 {
			return spec.Fail(strings.Join(problems, "; ")), nil
		}
		return spec.Pass(), nil
	}
}
