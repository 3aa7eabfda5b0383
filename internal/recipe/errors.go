package recipe

import (
	"errors"
	"fmt"
)

// Sentinel errors. The typed errors below match them with errors.Is.
var (
	ErrValidation   = errors.New("validation failed")
	ErrRetrieval    = errors.New("retrieval failed")
	ErrNotFound     = errors.New("not found")
	ErrPartialWrite = errors.New("partial write")
)

// ValidationError reports malformed or missing request fields.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid recipe: %s", e.Message)
	}
	return fmt.Sprintf("invalid recipe %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// RetrievalError reports that a recipe source could not be read.
type RetrievalError struct {
	Op  string
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

func (e *RetrievalError) Is(target error) bool {
	return target == ErrRetrieval
}

// NotFoundError reports an operation against an id that does not exist.
type NotFoundError struct {
	ID ID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("recipe %q not found", string(e.ID))
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PartialWriteError reports that a recipe row was written but some of its
// ingredient rows were not. It only comes out of the legacy create path.
type PartialWriteError struct {
	RecipeID ID
	Failed   int
	Err      error
}

func (e *PartialWriteError) Error() string {
	return fmt.Sprintf("recipe %s created but %d ingredient(s) not saved: %v", e.RecipeID, e.Failed, e.Err)
}

func (e *PartialWriteError) Unwrap() error {
	return e.Err
}

func (e *PartialWriteError) Is(target error) bool {
	return target == ErrPartialWrite
}
