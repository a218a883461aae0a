package app

import "errors"

// Sentinel errors for hard pipeline failures. Callers match with errors.Is.
var (
	// ErrAllGatedOut means every candidate failed the sanity or
	// local-quality floors. Distinct from the all-duplicates case, which is
	// benign.
	ErrAllGatedOut = errors.New("all candidates failed quality gating")

	// ErrPersist means run artifacts could not be written.
	ErrPersist = errors.New("persisting run artifacts failed")

	// ErrPost means publishing failed after selection succeeded.
	ErrPost = errors.New("posting failed")
)
