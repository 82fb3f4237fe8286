// Package targeting validates an ability against its actor and target on the
// board and produces the set of characters it affects.
package targeting

import (
	"errors"
	"fmt"
)

// Rejection reasons. A rejected play never changes match state.
var (
	ErrInsufficientResources  = errors.New("insufficient resources")
	ErrOutOfRange             = errors.New("out of range")
	ErrWrongAntagonist        = errors.New("wrong antagonist")
	ErrBlockedByWall          = errors.New("blocked by wall")
	ErrInvalidFocusTarget     = errors.New("invalid focus target")
	ErrCharacterIncapacitated = errors.New("character incapacitated")
)

// Rejection is a recoverable refusal of a play. Reason is one of the Err*
// sentinels above, so errors.Is(rej, ErrOutOfRange) works on a *Rejection.
type Rejection struct {
	Reason error
	Detail string
}

// Reject builds a Rejection with a formatted detail.
func Reject(reason error, format string, args ...any) *Rejection {
	return &Rejection{Reason: reason, Detail: fmt.Sprintf(format, args...)}
}

func (r *Rejection) Error() string {
	if r.Detail == "" {
		return r.Reason.Error()
	}
	return r.Reason.Error() + ": " + r.Detail
}

// Unwrap exposes the reason sentinel.
func (r *Rejection) Unwrap() error { return r.Reason }

// AsRejection reports whether err is a *Rejection and returns it.
func AsRejection(err error) (*Rejection, bool) {
	var rej *Rejection
	if errors.As(err, &rej) {
		return rej, true
	}
	return nil, false
}
