package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// ErrNotFound covers both a missing record and a record owned by someone
// else, so callers cannot probe for existence.
var ErrNotFound = errors.New("analysis not found")

// ValidationError is a malformed request. It never mutates persisted state.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// IngestionError is a fatal adapter failure: a structural parse error or a
// crawl that extracted nothing. Details carry the adapter's accumulated
// error list.
type IngestionError struct {
	Msg     string
	Details []string
}

func (e *IngestionError) Error() string { return e.Msg }

func mapStoreErr(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrNotFound
	}
	return err
}
