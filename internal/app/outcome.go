package app

// Outcome is the terminal state of one pipeline run.
type Outcome string

const (
	// OutcomePosted: winner published and recorded.
	OutcomePosted Outcome = "posted"
	// OutcomeDryRun: everything persisted, posting skipped on purpose.
	OutcomeDryRun Outcome = "dry_run"
	// OutcomeNoCandidates: fan-out produced nothing. Hard failure.
	OutcomeNoCandidates Outcome = "no_candidates"
	// OutcomeAllGatedOut: every candidate failed sanity or local-quality
	// floors. Hard failure, distinct from the duplicate case.
	OutcomeAllGatedOut Outcome = "all_gated_out"
	// OutcomeAllDuplicates: every ranked candidate is a near-duplicate of
	// history. Benign end of run.
	OutcomeAllDuplicates Outcome = "all_duplicates"
	// OutcomeHumanRejected: the human rejected all candidates. Benign.
	OutcomeHumanRejected Outcome = "human_rejected"
	// OutcomeHumanTimeout: no human response within the timeout. Benign.
	OutcomeHumanTimeout Outcome = "human_timeout"
	// OutcomePersistFailed: run artifacts could not be written. Hard
	// failure.
	OutcomePersistFailed Outcome = "persist_failed"
	// OutcomePostFailed: posting failed after selection succeeded; run
	// artifacts are persisted regardless. Hard failure.
	OutcomePostFailed Outcome = "post_failed"
)

// Benign reports whether the outcome ends the process with exit code 0.
func (o Outcome) Benign() bool {
	switch o {
	case OutcomeNoCandidates, OutcomeAllGatedOut, OutcomePersistFailed, OutcomePostFailed:
		return false
	default:
		return true
	}
}

// RunResult is the structured summary of one run.
type RunResult struct {
	Outcome           Outcome
	Theme             string
	Candidates        int
	SlotFailures      int
	FailedVariants    int
	GatedOut          int
	FallbackScores    int
	DuplicatesSkipped int
	OutputDir         string
	PostID            string
}
