package release

import "fmt"

// MalformedVersionError is returned when a release identifier contains a
// segment that is not a non-negative integer.
type MalformedVersionError struct {
	Release string
	Segment string
	Err     error
}

// Error implements the error interface
func (e *MalformedVersionError) Error() string {
	if e.Release == "" {
		return "malformed release id: empty identifier"
	}
	return fmt.Sprintf("malformed release id %q: invalid segment %q", e.Release, e.Segment)
}

// Unwrap returns the underlying parse error, if any
func (e *MalformedVersionError) Unwrap() error {
	return e.Err
}
