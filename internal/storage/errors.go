package storage

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound     = errors.New("object not found")
	ErrKeyExists    = errors.New("object already exists")
	ErrInvalidKey   = errors.New("invalid storage key") // empty, absolute or escaping the root
	ErrTooLarge     = errors.New("object exceeds size limit")
	ErrAccessDenied = errors.New("storage access denied")
)

// StorageError records which backend call failed and on which key.
type StorageError struct {
	Op  string // Put, Get, Delete or Exists
	Key string
	Err error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsNotFound reports whether err means the key holds no object.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsTooLarge reports whether a write stopped at PutOptions.MaxSize.
func IsTooLarge(err error) bool { return errors.Is(err, ErrTooLarge) }
