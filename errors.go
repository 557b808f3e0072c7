package dnp3

import (
	"errors"
	"fmt"
)

// Decode error taxonomy (spec.md §4.6/§7). Each case the parser can reject a
// fragment for is a distinct sentinel so callers can errors.Is against the
// exact cause, with category predicates below for the common "not enough
// data" and "illegal qualifier" groupings.
var (
	ErrNotEnoughDataForHeader  = errors.New("dnp3: not enough data for apdu header")
	ErrNotEnoughDataForObject  = errors.New("dnp3: not enough data for object header")
	ErrNotEnoughDataForRange   = errors.New("dnp3: not enough data for range")
	ErrNotEnoughDataForPrefix  = errors.New("dnp3: not enough data for index/size prefix")
	ErrNotEnoughDataForPayload = errors.New("dnp3: not enough data for object payload")

	ErrUnknownObject            = errors.New("dnp3: unknown group/variation")
	ErrUnknownQualifier         = errors.New("dnp3: unknown qualifier code")
	ErrIllegalObjectQualifier   = errors.New("dnp3: qualifier not legal for this group/variation")
	ErrInvalidRange             = fmt.Errorf("%w: range stop is before range start", ErrIllegalObjectQualifier)
	ErrUnreasonableObjectCount  = errors.New("dnp3: object count exceeds configured limit")
	ErrFixedSizeObjectMismatch  = errors.New("dnp3: fixed size object does not divide remaining data")
)

// IsNotEnoughData reports whether err is any of the truncated-fragment
// sentinels above, regardless of which stage of decode detected it.
func IsNotEnoughData(err error) bool {
	switch {
	case errors.Is(err, ErrNotEnoughDataForHeader),
		errors.Is(err, ErrNotEnoughDataForObject),
		errors.Is(err, ErrNotEnoughDataForRange),
		errors.Is(err, ErrNotEnoughDataForPrefix),
		errors.Is(err, ErrNotEnoughDataForPayload):
		return true
	default:
		return false
	}
}

// IsIllegalQualifier reports whether err reflects a qualifier code that is
// either unknown or not legal for the group/variation it was paired with.
// ErrInvalidRange wraps ErrIllegalObjectQualifier, so an inverted range
// also matches.
func IsIllegalQualifier(err error) bool {
	return errors.Is(err, ErrUnknownQualifier) || errors.Is(err, ErrIllegalObjectQualifier)
}
