package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examforge/examforge-backend/internal/model"
)

// TestRepository handles assembled test and version data access.
type TestRepository struct {
	pool *pgxpool.Pool
}

// NewTestRepository creates a new TestRepository.
func NewTestRepository(pool *pgxpool.Pool) *TestRepository {
	return &TestRepository{pool: pool}
}

const testColumns = `id, author_id, bank_id, tos_id, title, target_count, base_seed,
	question_ids, constraints, balance_score, coverage_score, constraints_satisfied,
	warnings, status, created_at, updated_at`

func scanTest(row pgx.Row) (*model.Test, error) {
	var t model.Test
	var constraints, warnings []byte
	err := row.Scan(&t.ID, &t.AuthorID, &t.BankID, &t.TOSID, &t.Title, &t.TargetCount,
		&t.BaseSeed, &t.QuestionIDs, &constraints, &t.BalanceScore, &t.CoverageScore,
		&t.ConstraintsSatisfied, &warnings, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(constraints) > 0 {
		if err := json.Unmarshal(constraints, &t.Constraints); err != nil {
			return nil, fmt.Errorf("decode constraints: %w", err)
		}
	}
	if len(warnings) > 0 {
		if err := json.Unmarshal(warnings, &t.Warnings); err != nil {
			return nil, fmt.Errorf("decode warnings: %w", err)
		}
	}
	return &t, nil
}

// Create inserts a freshly assembled test.
func (r *TestRepository) Create(ctx context.Context, t *model.Test) error {
	constraints, err := json.Marshal(t.Constraints)
	if err != nil {
		return fmt.Errorf("encode constraints: %w", err)
	}
	warnings, err := json.Marshal(t.Warnings)
	if err != nil {
		return fmt.Errorf("encode warnings: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO tests (author_id, bank_id, tos_id, title, target_count, base_seed,
		     question_ids, constraints, balance_score, coverage_score,
		     constraints_satisfied, warnings, status)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		 RETURNING id, created_at, updated_at`,
		t.AuthorID, t.BankID, t.TOSID, t.Title, t.TargetCount, t.BaseSeed,
		t.QuestionIDs, constraints, t.BalanceScore, t.CoverageScore,
		t.ConstraintsSatisfied, warnings, t.Status,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

// GetByID retrieves a test.
func (r *TestRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error) {
	t, err := scanTest(r.pool.QueryRow(ctx,
		`SELECT `+testColumns+` FROM tests WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// ListByAuthor retrieves a teacher's tests with pagination.
func (r *TestRepository) ListByAuthor(ctx context.Context, authorID, limit, offset int) ([]model.Test, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tests WHERE author_id = $1`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+testColumns+`
		 FROM tests WHERE author_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`, authorID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var tests []model.Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, 0, err
		}
		tests = append(tests, *t)
	}
	return tests, total, rows.Err()
}

// UpdateStatus moves a test between DRAFT, FINALIZED and ARCHIVED.
func (r *TestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.TestStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tests SET status = $1, updated_at = NOW() WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a test and cascades to its versions.
func (r *TestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tests WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Versions ──────────────────────────────────────────────────────

// InsertVersions bulk-inserts parallel forms for a test.
func (r *TestRepository) InsertVersions(ctx context.Context, versions []model.TestVersion) error {
	if len(versions) == 0 {
		return nil
	}

	n := len(versions)
	ids := make([]uuid.UUID, 0, n)
	testIDs := make([]uuid.UUID, 0, n)
	labels := make([]string, 0, n)
	orders := make([][]byte, 0, n)
	seeds := make([]string, 0, n)
	keys := make([][]byte, 0, n)

	for _, v := range versions {
		order, err := json.Marshal(v.QuestionOrder)
		if err != nil {
			return fmt.Errorf("encode question order: %w", err)
		}
		key, err := json.Marshal(v.AnswerKey)
		if err != nil {
			return fmt.Errorf("encode answer key: %w", err)
		}
		ids = append(ids, v.ID)
		testIDs = append(testIDs, v.TestID)
		labels = append(labels, v.Label)
		orders = append(orders, order)
		seeds = append(seeds, v.ShuffleSeed)
		keys = append(keys, key)
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO test_versions (id, test_id, label, question_order, shuffle_seed, answer_key)
		 SELECT u.id, u.test_id, u.label, u.qo, u.seed, u.ak
		 FROM UNNEST($1::uuid[], $2::uuid[], $3::text[], $4::jsonb[], $5::text[], $6::jsonb[])
		     AS u (id, test_id, label, qo, seed, ak)
		 ON CONFLICT (id) DO NOTHING`,
		ids, testIDs, labels, orders, seeds, keys,
	)
	return err
}

// GetVersion retrieves one version of a test.
func (r *TestRepository) GetVersion(ctx context.Context, testID, versionID uuid.UUID) (*model.TestVersion, error) {
	var v model.TestVersion
	var order, key []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, test_id, label, question_order, shuffle_seed, answer_key, created_at
		 FROM test_versions WHERE id = $1 AND test_id = $2`, versionID, testID,
	).Scan(&v.ID, &v.TestID, &v.Label, &order, &v.ShuffleSeed, &key, &v.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(order, &v.QuestionOrder); err != nil {
		return nil, fmt.Errorf("decode question order: %w", err)
	}
	if err := json.Unmarshal(key, &v.AnswerKey); err != nil {
		return nil, fmt.Errorf("decode answer key: %w", err)
	}
	return &v, nil
}

// ListVersions retrieves all versions of a test in generation order.
// Labels sort by length first so numbered overflow labels (V27, V28,
// ...) come after the single-letter run instead of interleaving.
func (r *TestRepository) ListVersions(ctx context.Context, testID uuid.UUID) ([]model.TestVersion, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, test_id, label, question_order, shuffle_seed, answer_key, created_at
		 FROM test_versions WHERE test_id = $1
		 ORDER BY length(label), label`, testID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var versions []model.TestVersion
	for rows.Next() {
		var v model.TestVersion
		var order, key []byte
		if err := rows.Scan(&v.ID, &v.TestID, &v.Label, &order, &v.ShuffleSeed, &key, &v.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(order, &v.QuestionOrder); err != nil {
			return nil, fmt.Errorf("decode question order: %w", err)
		}
		if err := json.Unmarshal(key, &v.AnswerKey); err != nil {
			return nil, fmt.Errorf("decode answer key: %w", err)
		}
		versions = append(versions, v)
	}
	return versions, rows.Err()
}
