package model

import "errors"

// Error kinds shared by every stage. Wrap them with fmt.Errorf("...: %w", Err...) and
// test with errors.Is.
var (
	// ErrMissingSource means no raw, clean or enriched artifact exists for the requested
	// date or period. Callers looping over dates usually skip and continue.
	ErrMissingSource = errors.New("missing source")
	// ErrInvalidRecord marks a row that failed validation during cleaning. Such rows are
	// dropped and counted, never returned to callers as a failure of the run.
	ErrInvalidRecord = errors.New("invalid record")
	// ErrEmptyDataset means a period matched zero rows. Reports are still produced, zero valued.
	ErrEmptyDataset = errors.New("empty dataset")
	// ErrMisconfiguredInput is a caller contract violation (bad stock map, inverted range,
	// unknown record type, artifact missing a required column).
	ErrMisconfiguredInput = errors.New("misconfigured input")
)
