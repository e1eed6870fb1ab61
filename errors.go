package recall

import "errors"

// Sentinel errors for the recall package.
// Use errors.Is to check: errors.Is(err, recall.ErrInvalidGrade)
var (
	ErrInvalidGrade      = errors.New("recall: invalid grade")
	ErrInvalidState      = errors.New("recall: invalid state")
	ErrInvalidPolicy     = errors.New("recall: invalid scheduling policy")
	ErrInvalidParameters = errors.New("recall: parameters out of bounds")
	ErrCardIDMismatch    = errors.New("recall: card ID mismatch in review log")

	// errComputation marks a non-finite or out-of-range intermediate value.
	// It never leaves the package; the scheduler falls back instead.
	errComputation = errors.New("recall: computation fault")
)
