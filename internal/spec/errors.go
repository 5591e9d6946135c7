package spec

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is matched by LookupError.
var ErrNotFound = errors.New("not found")

// LookupError reports a path that does not resolve to a node.
type LookupError struct {
	Path string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no check or group at path %q", e.Path)
}

func (e *LookupError) Is(target error) bool {
	return target == ErrNotFound
}

// MalformedError lists authoring defects found while building a
// specification.
type MalformedError struct {
	Spec     string
	Problems []string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("malformed specification %s: %s", e.Spec, strings.Join(e.Problems, "; "))
}
