package predictor

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput marks requests whose records cannot be turned into
	// features: unparseable timestamps, missing fields, ragged rows.
	ErrMalformedInput = errors.New("malformed input")
	// ErrModelFailure marks errors raised while fitting or predicting.
	ErrModelFailure = errors.New("model failure")
)

func MalformedInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

func ModelFailure(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrModelFailure, fmt.Sprintf(format, args...))
}
