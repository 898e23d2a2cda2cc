package memory

import (
	"fmt"

	"github.com/monteirok/popmart-tracker/internal/order"
)

func errRequired(column string) error {
	return fmt.Errorf("null value in column %q violates not-null constraint", column)
}

func errInvalidStatus(s order.Status) error {
	return fmt.Errorf("invalid status %q", string(s))
}

func errConstraint(msg string) error {
	return fmt.Errorf("check constraint violated: %s", msg)
}
