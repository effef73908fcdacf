package bench

import (
	"errors"
	"fmt"
)

var (
	// ErrEngineUnavailable means the initial connection to the engine failed.
	// Nothing has been created on the engine when it is returned.
	ErrEngineUnavailable = errors.New("engine unavailable")

	// ErrStorageFailure means a DDL, DML or query was rejected mid-session.
	ErrStorageFailure = errors.New("storage failure")

	// ErrConfiguration means the session parameters are invalid.
	ErrConfiguration = errors.New("configuration error")
)

// StorageError records the failed operation. It matches ErrStorageFailure.
type StorageError struct {
	Op    string
	Table string
	Err   error
}

func (e *StorageError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("%s: %s: %v", ErrStorageFailure, e.Op, e.Err)
	}
	return fmt.Sprintf("%s: %s %s: %v", ErrStorageFailure, e.Op, e.Table, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

func storageErr(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Table: table, Err: err}
}

func unavailable(engine string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrEngineUnavailable, engine, err)
}
