package model

// ImportCandidate is one decoded record heading into a bulk import. Label
// identifies the record in error messages (its title, or a positional
// fallback like "row 3"). A non-nil Err marks a record the decoder could
// not fully parse; the import pipeline reports it without aborting the
// batch.
type ImportCandidate struct {
	Label string
	Input ItemInput
	Err   error
}

// ImportSummary reports the outcome of a bulk import.
type ImportSummary struct {
	BatchID string   `json:"batch_id"`
	Created int      `json:"created"`
	Errors  []string `json:"errors"`
}
