// Package validate decides whether a door's modeled orientation agrees with
// the measured flow field on either side of it.
package validate

import "fmt"

// Validity is the tri-state outcome of a door check.
type Validity int

const (
	// Unknown means the door was not checked or there was not enough
	// measured data near it.
	Unknown Validity = iota
	// Valid means the field value drops across the door from the near to
	// the far probe.
	Valid
	// Invalid means the field value does not drop across the door.
	Invalid
)

func (v Validity) String() string {
	switch v {
	case Unknown:
		return "unknown"
	case Valid:
		return "valid"
	case Invalid:
		return "invalid"
	}
	return fmt.Sprintf("Validity(%d)", int(v))
}

// Status is the report severity attached to a validity.
type Status string

const (
	StatusUnknown Status = "UNKNOWN"
	StatusNotice  Status = "NOTICE"
	StatusError   Status = "ERROR"
)

// Status maps every Validity to its report status. It panics on values
// outside the enumeration.
func (v Validity) Status() Status {
	switch v {
	case Unknown:
		return StatusUnknown
	case Valid:
		return StatusNotice
	case Invalid:
		return StatusError
	}
	panic(fmt.Sprintf("validate: no status for %v", v))
}

// ParseStatus is the inverse of Validity.Status.
func ParseStatus(s string) (Validity, error) {
	switch Status(s) {
	case StatusUnknown:
		return Unknown, nil
	case StatusNotice:
		return Valid, nil
	case StatusError:
		return Invalid, nil
	}
	return Unknown, fmt.Errorf("unknown status %q", s)
}
