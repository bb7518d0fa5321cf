package utils

import (
	"errors"
	"fmt"
)

var ErrorRecordNotFound = errors.New("record not found")

// StorageError marks the underlying store as unavailable or broken.
// Callers must treat it differently from an empty result set.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error in %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

// InputError rejects a request before any storage mutation.
// Field names the offending input.
type InputError struct {
	Field   string
	Message string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func NewInputError(field string, message string) error {
	return &InputError{Field: field, Message: message}
}

func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

func ErrorPanic(err error) {
	if err != nil {
		panic(err)
	}
}
