package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/gmlakar/zbirka/internal/model"
)

// ImportItems inserts a batch of decoded candidates in a single
// transaction. Candidate-level problems (decode errors carried on the
// candidate, validation failures) are collected into the summary under the
// candidate's label and do not stop the batch. Storage faults abort the
// whole import. The commit at the end covers whatever subset succeeded.
func ImportItems(ctx context.Context, db *sql.DB, candidates []model.ImportCandidate) (*model.ImportSummary, error) {
	summary := &model.ImportSummary{
		BatchID: uuid.NewString(),
		Errors:  []string{},
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning import transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range candidates {
		if c.Err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", c.Label, c.Err))
			continue
		}

		input, err := normalizeInput(c.Input)
		if err != nil {
			summary.Errors = append(summary.Errors, fmt.Sprintf("%s: %v", c.Label, err))
			continue
		}

		if _, err := insertItem(ctx, tx, input); err != nil {
			return nil, fmt.Errorf("importing %s: %w", c.Label, err)
		}
		summary.Created++
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing import: %w", err)
	}

	return summary, nil
}
