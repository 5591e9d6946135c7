// Package checks implements the predicates specifications are assembled from.
// Each kind is a constructor taking typed parameters and returning a
// spec.Predicate; Create builds one from a kind name and a parameter map as
// found in a specification definition.
package checks

import (
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/go-viper/mapstructure/v2"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

type Kind string

const (
	KindCoordinatePresent     Kind = "coordinate_present"
	KindGridSpacing           Kind = "grid_spacing"
	KindProjectionCoordinates Kind = "projection_coordinates"

	KindTimeOrdering       Kind = "time_ordering"
	KindTimeCoverage       Kind = "time_coverage"
	KindTimestepRegularity Kind = "timestep_regularity"
	KindMissingTimes       Kind = "missing_times"

	KindDataVariablePresent Kind = "data_variable_present"
	KindVariableDimensions  Kind = "variable_dimensions"
	KindVariableDType       Kind = "variable_dtype"
	KindVariableAttributes  Kind = "variable_attributes"
	KindVariableChunking    Kind = "variable_chunking"
	KindVariableCompression Kind = "variable_compression"

	KindGridMapping   Kind = "grid_mapping"
	KindCRSDefinition Kind = "crs_definition"

	KindLicense           Kind = "license"
	KindAttributeISO8601  Kind = "attribute_iso8601"
	KindCreatedBy         Kind = "created_by"
	KindCreatedWith       Kind = "created_with"
	KindVersionString     Kind = "version_string"
	KindIdentifierFormat  Kind = "identifier_format"
	KindDatasetIdentifier Kind = "dataset_identifier"
)

// Kinds returns every known kind, sorted.
func Kinds() []Kind {
	kinds := []Kind{
		KindCoordinatePresent, KindGridSpacing, KindProjectionCoordinates,
		KindTimeOrdering, KindTimeCoverage, KindTimestepRegularity, KindMissingTimes,
		KindDataVariablePresent, KindVariableDimensions, KindVariableDType,
		KindVariableAttributes, KindVariableChunking, KindVariableCompression,
		KindGridMapping, KindCRSDefinition,
		KindLicense, KindAttributeISO8601, KindCreatedBy, KindCreatedWith,
		KindVersionString, KindIdentifierFormat, KindDatasetIdentifier,
	}
	slices.Sort(kinds)
	return kinds
}

// Params are the parameters a check is built from.
type Params struct {
	// Shared applies to every check of a definition. Keys a kind does not
	// use are ignored.
	Shared map[string]any
	// Own belongs to one check and overrides Shared. Every key must be used
	// by the kind.
	Own map[string]any
}

// Create builds the predicate for kind from shared parameters only; keys the
// kind does not use are ignored.
func Create(kind Kind, params map[string]any) (spec.Predicate, error) {
	return NewPredicate(kind, Params{Shared: params})
}

// NewPredicate builds the predicate for kind. A key in params.Own that the
// kind does not recognise is an error.
func NewPredicate(kind Kind, params Params) (spec.Predicate, error) {
	switch kind {
	case KindCoordinatePresent:
		v := struct {
			Name string `mapstructure:"name"`
		}{}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		if v.Name == "" {
			return nil, fmt.Errorf("'%s' requires a coordinate name", kind)
		}
		return CoordinatePresent(v.Name), nil

	case KindGridSpacing:
		v := struct {
			Coordinates  []string `mapstructure:"coordinates"`
			MaxSpacing   float64  `mapstructure:"max_spacing"`
			RelTolerance float64  `mapstructure:"rel_tolerance"`
		}{Coordinates: []string{"x", "y"}, RelTolerance: DefaultRelTolerance}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		return GridSpacing(v.Coordinates, v.MaxSpacing, v.RelTolerance), nil

	case KindProjectionCoordinates:
		v := struct {
			X string `mapstructure:"x"`
			Y string `mapstructure:"y"`
		}{X: "x", Y: "y"}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		return ProjectionCoordinates(v.X, v.Y), nil

	case KindTimeOrdering:
		v := struct {
			Time string `mapstructure:"time"`
		}{Time: DefaultTimeCoordinate}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		return TimeOrdering(v.Time), nil

	case KindTimeCoverage:
		v := struct {
			Time     string  `mapstructure:"time"`
			MinYears float64 `mapstructure:"min_years"`
		}{Time: DefaultTimeCoordinate}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		return TimeCoverage(v.Time, v.MinYears), nil

	case KindTimestepRegularity, KindMissingTimes:
		v := struct {
			Time                  string `mapstructure:"time"`
			MissingTimes          string `mapstructure:"missing_times"`
			AllowVariableTimestep bool   `mapstructure:"allow_variable_timestep"`
		}{Time: DefaultTimeCoordinate, MissingTimes: DefaultMissingTimesVariable}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		if kind == KindTimestepRegularity {
			return TimestepRegularity(v.Time, v.MissingTimes, v.AllowVariableTimestep), nil
		}
		return MissingTimes(v.Time, v.MissingTimes, v.AllowVariableTimestep), nil

	case KindDataVariablePresent, KindVariableCompression, KindGridMapping:
		v := struct {
			StandardNames []string `mapstructure:"standard_names"`
		}{}
		if err := decodeSelector(kind, params, &v, &v.StandardNames); err != nil {
			return nil, err
		}
		switch kind {
		case KindDataVariablePresent:
			return DataVariablePresent(v.StandardNames), nil
		case KindVariableCompression:
			return VariableCompression(v.StandardNames), nil
		}
		return GridMapping(v.StandardNames), nil

	case KindVariableDimensions:
		v := struct {
			StandardNames []string `mapstructure:"standard_names"`
			Dimensions    []string `mapstructure:"dimensions"`
		}{}
		if err := decodeSelector(kind, params, &v, &v.StandardNames); err != nil {
			return nil, err
		}
		if len(v.Dimensions) == 0 {
			return nil, fmt.Errorf("'%s' requires dimensions", kind)
		}
		return VariableDimensions(v.StandardNames, v.Dimensions), nil

	case KindVariableDType:
		v := struct {
			StandardNames []string `mapstructure:"standard_names"`
			DTypes        []string `mapstructure:"dtypes"`
		}{}
		if err := decodeSelector(kind, params, &v, &v.StandardNames); err != nil {
			return nil, err
		}
		if len(v.DTypes) == 0 {
			return nil, fmt.Errorf("'%s' requires dtypes", kind)
		}
		return VariableDType(v.StandardNames, v.DTypes), nil

	case KindVariableAttributes:
		v := struct {
			StandardNames []string          `mapstructure:"standard_names"`
			Attributes    []string          `mapstructure:"attributes"`
			Values        map[string]string `mapstructure:"values"`
		}{}
		if err := decodeSelector(kind, params, &v, &v.StandardNames); err != nil {
			return nil, err
		}
		return VariableAttributes(v.StandardNames, v.Attributes, v.Values), nil

	case KindVariableChunking:
		v := struct {
			StandardNames []string `mapstructure:"standard_names"`
			TimeDimension string   `mapstructure:"time_dimension"`
			MaxTimeChunk  int      `mapstructure:"max_time_chunk"`
			MaxChunkMB    float64  `mapstructure:"max_chunk_mb"`
		}{TimeDimension: DefaultTimeCoordinate, MaxTimeChunk: 1}
		if err := decodeSelector(kind, params, &v, &v.StandardNames); err != nil {
			return nil, err
		}
		return VariableChunking(v.StandardNames, v.TimeDimension, v.MaxTimeChunk, v.MaxChunkMB), nil

	case KindCRSDefinition:
		v := struct {
			StandardNames []string `mapstructure:"standard_names"`
			Attributes    []string `mapstructure:"attributes"`
		}{Attributes: []string{"crs_wkt", "spatial_ref"}}
		if err := decodeSelector(kind, params, &v, &v.StandardNames); err != nil {
			return nil, err
		}
		return CRSDefinition(v.StandardNames, v.Attributes), nil

	case KindLicense:
		v := struct {
			Attribute string   `mapstructure:"attribute"`
			Allowed   []string `mapstructure:"allowed"`
		}{Attribute: "license"}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		if len(v.Allowed) == 0 {
			return nil, fmt.Errorf("'%s' requires a list of allowed licenses", kind)
		}
		return License(v.Attribute, v.Allowed), nil

	case KindAttributeISO8601, KindCreatedBy, KindVersionString:
		v := struct {
			Attribute string `mapstructure:"attribute"`
		}{}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		if v.Attribute == "" {
			return nil, fmt.Errorf("'%s' requires an attribute name", kind)
		}
		switch kind {
		case KindAttributeISO8601:
			return AttributeISO8601(v.Attribute), nil
		case KindCreatedBy:
			return CreatedBy(v.Attribute), nil
		}
		return VersionString(v.Attribute), nil

	case KindCreatedWith:
		v := struct {
			Attribute         string `mapstructure:"attribute"`
			GitHubOrg         string `mapstructure:"github_org"`
			RepositoryPattern string `mapstructure:"repository_pattern"`
		}{
			Attribute:         "mlcast_created_with",
			GitHubOrg:         DefaultGitHubOrg,
			RepositoryPattern: DefaultRepositoryPattern,
		}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		return CreatedWith(v.Attribute, v.GitHubOrg, v.RepositoryPattern)

	case KindIdentifierFormat:
		v := struct {
			Attribute     string `mapstructure:"attribute"`
			DefaultFormat string `mapstructure:"default_format"`
		}{Attribute: DatasetIdentifierFormatAttribute, DefaultFormat: DefaultIdentifierFormat}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		return IdentifierFormat(v.Attribute, v.DefaultFormat), nil

	case KindDatasetIdentifier:
		v := struct {
			Attribute       string `mapstructure:"attribute"`
			FormatAttribute string `mapstructure:"format_attribute"`
			DefaultFormat   string `mapstructure:"default_format"`
		}{
			Attribute:       DatasetIdentifierAttribute,
			FormatAttribute: DatasetIdentifierFormatAttribute,
			DefaultFormat:   DefaultIdentifierFormat,
		}
		if err := decode(params, &v); err != nil {
			return nil, err
		}
		return DatasetIdentifier(v.Attribute, v.FormatAttribute, v.DefaultFormat), nil

	default:
		return nil, fmt.Errorf("'%s' is not a valid check kind", kind)
	}
}

func decode(params Params, out any) error {
	if len(params.Own) > 0 {
		// Every own key must be recognised by the kind.
		scratch := reflect.New(reflect.TypeOf(out).Elem()).Interface()
		dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
			ErrorUnused: true,
			Result:      scratch,
		})
		if err != nil {
			return err
		}
		if err := dec.Decode(params.Own); err != nil {
			return fmt.Errorf("decoding parameters: %w", err)
		}
	}

	merged := maps.Clone(params.Shared)
	if merged == nil {
		merged = make(map[string]any, len(params.Own))
	}
	maps.Copy(merged, params.Own)
	if err := mapstructure.Decode(merged, out); err != nil {
		return fmt.Errorf("decoding parameters: %w", err)
	}
	return nil
}

// decodeSelector decodes params into out and requires the decoded
// standard_names list to be non-empty.
func decodeSelector(kind Kind, params Params, out any, standardNames *[]string) error {
	if err := decode(params, out); err != nil {
		return err
	}
	if len(*standardNames) == 0 {
		return fmt.Errorf("'%s' requires standard_names", kind)
	}
	return nil
}
