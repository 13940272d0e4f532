package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"hunt-event-service/internal/domain"
)

// CatalogImporter bulk loads the question catalog into Postgres.
type CatalogImporter struct {
	pool *pgxpool.Pool
}

func NewCatalogImporter(pool *pgxpool.Pool) *CatalogImporter {
	return &CatalogImporter{pool: pool}
}

// UpsertQuestions copies questions into a temporary table and merges them into
// "Questions" in one transaction. Existing counters are kept.
func (i *CatalogImporter) UpsertQuestions(ctx context.Context, questions []domain.Question) (int, error) {
	if len(questions) == 0 {
		return 0, nil
	}
	tx, err := i.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	if _, err := tx.Exec(ctx, `CREATE TEMP TABLE questions_import (LIKE "Questions" INCLUDING DEFAULTS) ON COMMIT DROP`); err != nil {
		return 0, fmt.Errorf("create import table: %w", err)
	}

	rows := make([][]interface{}, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, []interface{}{q.ID, q.Difficulty, q.Question, q.Answer})
	}
	copied, err := tx.CopyFrom(ctx,
		pgx.Identifier{"questions_import"},
		[]string{"ID", "Difficulty", "Question", "Answer"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return 0, fmt.Errorf("copy questions: %w", err)
	}

	_, err = tx.Exec(ctx, `
INSERT INTO "Questions" ("ID", "Difficulty", "Question", "Answer")
SELECT "ID", "Difficulty", "Question", "Answer" FROM questions_import
ON CONFLICT ("ID") DO UPDATE SET
	"Difficulty" = EXCLUDED."Difficulty",
	"Question" = EXCLUDED."Question",
	"Answer" = EXCLUDED."Answer"`)
	if err != nil {
		return 0, fmt.Errorf("merge questions: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	return int(copied), nil
}
