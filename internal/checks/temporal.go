package checks

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/mlcast-community/mlcast-dataset-validator/internal/dataset"
	"github.com/mlcast-community/mlcast-dataset-validator/internal/spec"
)

// ConsistentTimestepStartAttribute marks where a variable-timestep archive
// switches to its regular timestep.
const ConsistentTimestepStartAttribute = "consistent_timestep_start"

const daysPerYear = 365.25

// maxListedTimes caps how many timestamps a failure message spells out.
const maxListedTimes = 20

// TimeOrdering passes when the time coordinate is strictly increasing.
func TimeOrdering(name string) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		times, err := requireTimes(ds, name)
		if err != nil {
			return spec.Result{}, err
		}
		for i := 1; i < len(times); i++ {
			if !times[i].After(times[i-1]) {
				return spec.Failf("time coordinate must be strictly increasing: %s at index %d follows %s",
					formatTime(times[i]), i, formatTime(times[i-1])), nil
			}
		}
		return spec.Pass(), nil
	}
}

// TimeCoverage passes when the whole days between the first and last
// timestamp amount to at least minYears years of 365.25 days.
func TimeCoverage(name string, minYears float64) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		times, err := requireTimes(ds, name)
		if err != nil {
			return spec.Result{}, err
		}
		if len(times) == 0 {
			return spec.Fail("time coordinate is empty"), nil
		}
		days := int(times[len(times)-1].Sub(times[0]).Hours() / 24)
		years := float64(days) / daysPerYear
		if years < minYears {
			return spec.Failf("temporal coverage is %.1f years (%s to %s), at least %g years required",
				years, formatTime(times[0]), formatTime(times[len(times)-1]), minYears), nil
		}
		return spec.Pass(), nil
	}
}

// TimestepRegularity passes when variable timesteps are allowed, or when the
// time coordinate, with the timestamps listed in missingName filled back in,
// advances by a single timestep.
func TimestepRegularity(name, missingName string, allowVariable bool) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		times, err := requireTimes(ds, name)
		if err != nil {
			return spec.Result{}, err
		}
		if allowVariable {
			return spec.Pass(), nil
		}
		all := slices.Clone(times)
		if mv, ok := ds.Variable(missingName); ok {
			missing, err := mv.Times()
			if err != nil {
				return spec.Result{}, err
			}
			all = append(all, missing...)
		}
		slices.SortFunc(all, func(a, b time.Time) int { return a.Compare(b) })
		distinct := distinctSteps(all)
		if len(distinct) > 1 {
			return spec.Failf("found %d distinct timesteps (%s) but a single timestep is required",
				len(distinct), formatDurations(distinct)), nil
		}
		return spec.Pass(), nil
	}
}

// MissingTimes checks that gaps in the time coordinate are declared.
//
// The series may start with an irregular period ending just before the
// instant in the consistent_timestep_start global attribute (honoured only
// when variable timesteps are allowed). In the irregular period timesteps
// must shrink monotonically unless a missing-times variable is present. In
// the regular period every timestamp on the grid implied by the smallest
// timestep that is absent from the time coordinate must be listed in the
// missing-times variable; without that variable the period must use a single
// timestep. Listed missing times must never also appear in the time
// coordinate.
func MissingTimes(name, missingName string, allowVariable bool) spec.Predicate {
	return func(ds *dataset.Handle) (spec.Result, error) {
		times, err := requireTimes(ds, name)
		if err != nil {
			return spec.Result{}, err
		}

		var regularStart *time.Time
		if allowVariable {
			if raw, ok := ds.Attr(ConsistentTimestepStartAttribute); ok {
				t, err := parseTimestamp(fmt.Sprint(raw))
				if err != nil {
					return spec.Failf("failed to parse %q: %v", ConsistentTimestepStartAttribute, err), nil
				}
				regularStart = &t
			}
		}

		var missing []time.Time
		mv, missingPresent := ds.Variable(missingName)
		if missingPresent {
			if !mv.IsTime() {
				return spec.Failf("%q must contain datetime values", missingName), nil
			}
			if missing, err = mv.Times(); err != nil {
				return spec.Result{}, err
			}
			if overlap := intersectTimes(times, missing); len(overlap) > 0 {
				return spec.Failf("%q values must not appear in the main time coordinate: %s",
					missingName, formatTimes(overlap, maxListedTimes)), nil
			}
		}

		irregular, regular := splitAt(times, regularStart)
		_, missingRegular := splitAt(missing, regularStart)

		var problems []string
		if regularStart != nil {
			if msg := checkIrregularPeriod(irregular, missingPresent, missingName); msg != "" {
				problems = append(problems, msg)
			}
		}
		if msg := checkRegularPeriod(regular, missingRegular, missingPresent, missingName); msg != "" {
			problems = append(problems, msg)
		}
		if len(problems) > 0 {
			return spec.Fail(strings.Join(problems, "; ")), nil
		}
		return spec.Pass(), nil
	}
}

func checkIrregularPeriod(times []time.Time, missingPresent bool, missingName string) string {
	if len(times) < 3 {
		return ""
	}
	diffs := steps(times)
	shrinking := true
	for i := 1; i < len(diffs); i++ {
		if diffs[i] > diffs[i-1] {
			shrinking = false
			break
		}
	}
	if shrinking || missingPresent {
		return ""
	}
	return fmt.Sprintf("timesteps before %s do not decrease monotonically and no %q variable is present",
		ConsistentTimestepStartAttribute, missingName)
}

func checkRegularPeriod(times, missing []time.Time, missingPresent bool, missingName string) string {
	if len(times) < 2 {
		return ""
	}
	if !missingPresent {
		if distinct := distinctSteps(times); len(distinct) > 1 {
			return fmt.Sprintf("timesteps vary (%s) and no %q variable lists the missing timestamps",
				formatDurations(distinct), missingName)
		}
		return ""
	}

	step := slices.Min(steps(times))
	if step <= 0 {
		return "time coordinate is not strictly increasing"
	}
	present := make(map[int64]struct{}, len(times))
	for _, t := range times {
		present[t.UnixNano()] = struct{}{}
	}
	listed := make(map[int64]struct{}, len(missing))
	for _, t := range missing {
		listed[t.UnixNano()] = struct{}{}
	}

	var unlisted []time.Time
	last := times[len(times)-1]
	for t := times[0]; !t.After(last); t = t.Add(step) {
		key := t.UnixNano()
		if _, ok := present[key]; ok {
			continue
		}
		if _, ok := listed[key]; !ok {
			unlisted = append(unlisted, t)
		}
	}
	if len(unlisted) == 0 {
		return ""
	}
	return fmt.Sprintf("inferred missing timestamps are not listed in %q: %s; define these in %q if the data is actually missing",
		missingName, formatTimes(unlisted, maxListedTimes), missingName)
}

// splitAt divides sorted times into those before start and the rest. A nil
// start puts everything in the second half.
func splitAt(times []time.Time, start *time.Time) (before, after []time.Time) {
	if start == nil {
		return nil, times
	}
	for _, t := range times {
		if t.Before(*start) {
			before = append(before, t)
		} else {
			after = append(after, t)
		}
	}
	return before, after
}

func steps(times []time.Time) []time.Duration {
	out := make([]time.Duration, 0, max(len(times)-1, 0))
	for i := 1; i < len(times); i++ {
		out = append(out, times[i].Sub(times[i-1]))
	}
	return out
}

// distinctSteps returns the distinct positive timesteps, sorted.
func distinctSteps(times []time.Time) []time.Duration {
	seen := make(map[time.Duration]struct{})
	var out []time.Duration
	for _, d := range steps(times) {
		if _, dup := seen[d]; d > 0 && !dup {
			seen[d] = struct{}{}
			out = append(out, d)
		}
	}
	slices.Sort(out)
	return out
}

func intersectTimes(a, b []time.Time) []time.Time {
	set := make(map[int64]struct{}, len(a))
	for _, t := range a {
		set[t.UnixNano()] = struct{}{}
	}
	var out []time.Time
	for _, t := range b {
		if _, ok := set[t.UnixNano()]; ok {
			out = append(out, t)
		}
	}
	return out
}

func formatDurations(ds []time.Duration) string {
	parts := make([]string, len(ds))
	for i, d := range ds {
		parts[i] = d.String()
	}
	return strings.Join(parts, ", ")
}
