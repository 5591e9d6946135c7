package models

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Verdict is the outcome attached to a check or aggregated over a group.
type Verdict string

const (
	// VerdictPass means the predicate ran to completion and the dataset complies.
	VerdictPass Verdict = "PASS"
	// VerdictFail means the predicate ran to completion and found a non-compliance.
	VerdictFail Verdict = "FAIL"
	// VerdictSkipped means a prerequisite check did not pass, so the predicate never ran.
	VerdictSkipped Verdict = "SKIPPED"
	// VerdictError means the predicate could not complete because of a tooling fault.
	VerdictError Verdict = "ERROR"
)

// Verdicts lists every verdict in precedence order, most blocking first.
var Verdicts = []Verdict{VerdictFail, VerdictError, VerdictSkipped, VerdictPass}

// Valid reports whether v is one of the four known verdicts.
func (v Verdict) Valid() bool {
	switch v {
	case VerdictPass, VerdictFail, VerdictSkipped, VerdictError:
		return true
	}
	return false
}

// Blocking reports whether v makes a parent group fail.
func (v Verdict) Blocking() bool {
	return v == VerdictFail || v == VerdictError
}

// ParseVerdict parses a verdict name case-insensitively.
func ParseVerdict(s string) (Verdict, error) {
	v := Verdict(strings.ToUpper(strings.TrimSpace(s)))
	if !v.Valid() {
		return "", fmt.Errorf("unknown verdict %q", s)
	}
	return v, nil
}

func (v *Verdict) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseVerdict(s)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// Aggregate folds the verdicts of a group's immediate children into the
// group's verdict. FAIL and ERROR both yield FAIL, otherwise any SKIPPED
// yields SKIPPED, otherwise PASS. An empty group passes.
func Aggregate(children ...Verdict) Verdict {
	result := VerdictPass
	for _, v := range children {
		if v.Blocking() {
			return VerdictFail
		}
		if v == VerdictSkipped {
			result = VerdictSkipped
		}
	}
	return result
}
