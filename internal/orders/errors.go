package orders

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound covers both an absent order and one owned by someone else;
	// callers must not be able to tell the two apart.
	ErrNotFound = errors.New("order not found")

	ErrInvalidState = errors.New("only pending orders can be canceled")
)

type InvalidTransitionError struct {
	From    Status
	To      Status
	Allowed []Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("cannot transition from %q to %q, allowed: %v", e.From, e.To, e.Allowed)
}
