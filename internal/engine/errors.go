package engine

import (
	"errors"
	"fmt"

	"github.com/dshills/textcore/internal/engine/buffer"
	"github.com/dshills/textcore/internal/engine/lines"
	"github.com/dshills/textcore/internal/engine/marker"
)

// Errors returned by Document operations. Causes from the lower packages
// are wrapped alongside these, so errors.Is matches either.
var (
	// ErrRange indicates an offset or length outside the document.
	ErrRange = errors.New("engine: range error")

	// ErrInvalidOperation indicates a call that is not allowed in the
	// document's current state, such as searching before a pattern is set.
	ErrInvalidOperation = errors.New("engine: invalid operation")

	// ErrCapacity indicates a line or query longer than lines.MaxLineLength.
	ErrCapacity = errors.New("engine: capacity exceeded")
)

// classify wraps err with the taxonomy error it belongs to.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, lines.ErrLineTooLong):
		return fmt.Errorf("%w: %w", ErrCapacity, err)
	case errors.Is(err, buffer.ErrOffsetOutOfRange),
		errors.Is(err, buffer.ErrRangeInvalid),
		errors.Is(err, lines.ErrRowOutOfRange),
		errors.Is(err, marker.ErrInvalidSpan):
		return fmt.Errorf("%w: %w", ErrRange, err)
	}
	return err
}

func rangeError(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{ErrRange}, args...)...)
}
