// Package manage implements the dashboard mutation operations over the
// directory store: service CRUD, incident creation and the append-only
// update log, and team membership. Nothing here mutates local projections;
// every change flows through the store and fans back out through the
// subscriptions, including the writer's own.
package manage

import (
	"errors"
	"fmt"
)

// ErrValidation wraps rejected input: empty required fields, unknown enum
// values, duplicate invites. Checked before any write is issued.
var ErrValidation = errors.New("validation failed")

func validationf(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrValidation}, args...)...)
}
