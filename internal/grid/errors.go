package grid

import "fmt"

// MalformedInputError reports input that cannot describe a grid, e.g.
// missing dimensions or an undeterminable grid spacing. Compute never starts
// after one of these.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return fmt.Sprintf("malformed input: %s", e.Reason)
}

// Malformed returns a *MalformedInputError with a formatted reason.
func Malformed(format string, args ...interface{}) error {
	return &MalformedInputError{Reason: fmt.Sprintf(format, args...)}
}
