package loyalty

import (
	"errors"
	"fmt"
)

// NotFoundError reports a referenced entity that does not exist.
// errors.Is matches any NotFoundError of the same entity when the target has no ID.
type NotFoundError struct {
	Entity string
	ID     uint
}

func (e *NotFoundError) Error() string {
	if e.ID == 0 {
		return e.Entity + " not found"
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	t, ok := target.(*NotFoundError)
	if !ok {
		return false
	}
	return t.Entity == e.Entity && (t.ID == 0 || t.ID == e.ID)
}

// StorageError wraps a persistence failure with the operation that hit it.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return "loyalty: " + e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

var (
	ErrCustomerNotFound error = &NotFoundError{Entity: "customer"}

	// ErrDuplicateCode is returned by a RedemptionRepository when the code is already taken.
	ErrDuplicateCode = errors.New("redemption code already exists")
)

// storageErr wraps err unless it is already a NotFoundError or StorageError.
func storageErr(op string, err error) error {
	var nf *NotFoundError
	var se *StorageError
	if errors.As(err, &nf) || errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
