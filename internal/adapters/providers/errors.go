package providers

import "errors"

// Sentinel errors for this package. Callers match with errors.Is.
var (
	// ErrNotAvailable means the provider completed the call but produced no
	// image. Distinguished from transient failures so the fan-out can skip
	// quietly instead of logging an error.
	ErrNotAvailable = errors.New("image not available")

	// ErrNoCandidates is returned when an entire fan-out produced zero
	// candidates. It is the only fatal condition of the generation stage.
	ErrNoCandidates = errors.New("no candidates produced")

	// ErrUnknownProvider is returned by the registry for unconfigured names.
	ErrUnknownProvider = errors.New("unknown provider")
)
