package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/examforge/examforge-backend/internal/model"
)

// QuestionRepository handles question bank and question data access.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

// ─── Question banks ────────────────────────────────────────────────

// ListBanksByAuthor retrieves banks owned by a teacher with pagination
// and optional name search.
func (r *QuestionRepository) ListBanksByAuthor(ctx context.Context, authorID, limit, offset int, search string) ([]model.QuestionBank, int, error) {
	where := "WHERE author_id = $1"
	args := []interface{}{authorID}
	if search != "" {
		where += " AND name ILIKE $2"
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM question_banks "+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(
		`SELECT id, author_id, name, description, subject, created_at, updated_at
		 FROM question_banks %s
		 ORDER BY updated_at DESC
		 LIMIT $%d OFFSET $%d`, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var banks []model.QuestionBank
	for rows.Next() {
		var b model.QuestionBank
		if err := rows.Scan(&b.ID, &b.AuthorID, &b.Name, &b.Description, &b.Subject, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, 0, err
		}
		banks = append(banks, b)
	}
	return banks, total, rows.Err()
}

// GetBank retrieves a single question bank.
func (r *QuestionRepository) GetBank(ctx context.Context, bankID uuid.UUID) (*model.QuestionBank, error) {
	var b model.QuestionBank
	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, name, description, subject, created_at, updated_at
		 FROM question_banks WHERE id = $1`, bankID,
	).Scan(&b.ID, &b.AuthorID, &b.Name, &b.Description, &b.Subject, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// CreateBank inserts a new question bank.
func (r *QuestionRepository) CreateBank(ctx context.Context, b *model.QuestionBank) error {
	return r.pool.QueryRow(ctx,
		`INSERT INTO question_banks (author_id, name, description, subject)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at, updated_at`,
		b.AuthorID, b.Name, b.Description, b.Subject,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

// UpdateBank updates a bank's mutable fields.
func (r *QuestionRepository) UpdateBank(ctx context.Context, b *model.QuestionBank) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE question_banks
		 SET name = $1, description = $2, subject = $3, updated_at = NOW()
		 WHERE id = $4`,
		b.Name, b.Description, b.Subject, b.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteBank deletes a bank and, via cascade, its questions.
func (r *QuestionRepository) DeleteBank(ctx context.Context, bankID uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM question_banks WHERE id = $1`, bankID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ─── Questions ─────────────────────────────────────────────────────

const questionColumns = `id, bank_id, topic, bloom_level, difficulty, question_type,
	question_text, choices, correct_label, points, estimated_seconds, approved,
	created_at, updated_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	var q model.Question
	var choices []byte
	err := row.Scan(&q.ID, &q.BankID, &q.Topic, &q.BloomLevel, &q.Difficulty,
		&q.QuestionType, &q.QuestionText, &choices, &q.CorrectLabel,
		&q.Points, &q.EstimatedSeconds, &q.Approved, &q.CreatedAt, &q.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(choices) > 0 {
		if err := json.Unmarshal(choices, &q.Choices); err != nil {
			return nil, fmt.Errorf("decode choices: %w", err)
		}
	}
	return &q, nil
}

// ListByBank retrieves all questions of a bank, newest first.
func (r *QuestionRepository) ListByBank(ctx context.Context, bankID uuid.UUID) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+`
		 FROM questions WHERE bank_id = $1
		 ORDER BY created_at DESC`, bankID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var questions []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// GetQuestion retrieves a single question.
func (r *QuestionRepository) GetQuestion(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return q, nil
}

// CreateQuestion inserts a new question.
func (r *QuestionRepository) CreateQuestion(ctx context.Context, q *model.Question) error {
	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return fmt.Errorf("encode choices: %w", err)
	}
	return r.pool.QueryRow(ctx,
		`INSERT INTO questions (bank_id, topic, bloom_level, difficulty, question_type,
		     question_text, choices, correct_label, points, estimated_seconds, approved)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		 RETURNING id, created_at, updated_at`,
		q.BankID, q.Topic, q.BloomLevel, q.Difficulty, q.QuestionType,
		q.QuestionText, choices, q.CorrectLabel, q.Points, q.EstimatedSeconds, q.Approved,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
}

// UpdateQuestion replaces a question's mutable fields.
func (r *QuestionRepository) UpdateQuestion(ctx context.Context, q *model.Question) error {
	choices, err := json.Marshal(q.Choices)
	if err != nil {
		return fmt.Errorf("encode choices: %w", err)
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions
		 SET topic = $1, bloom_level = $2, difficulty = $3, question_type = $4,
		     question_text = $5, choices = $6, correct_label = $7, points = $8,
		     estimated_seconds = $9, updated_at = NOW()
		 WHERE id = $10`,
		q.Topic, q.BloomLevel, q.Difficulty, q.QuestionType,
		q.QuestionText, choices, q.CorrectLabel, q.Points, q.EstimatedSeconds, q.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// SetApproved flips the approval flag of a question.
func (r *QuestionRepository) SetApproved(ctx context.Context, id uuid.UUID, approved bool) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE questions SET approved = $1, updated_at = NOW() WHERE id = $2`,
		approved, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteQuestion removes a question.
func (r *QuestionRepository) DeleteQuestion(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM questions WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Pool retrieves a bank's question snapshot for an assembly run,
// filtered by topic, Bloom level, difficulty and approval. Rows come
// back in insertion order so assembly tie-breaking is stable.
func (r *QuestionRepository) Pool(ctx context.Context, bankID uuid.UUID, filter model.PoolFilter) ([]model.Question, error) {
	clauses := []string{"bank_id = $1"}
	args := []interface{}{bankID}

	if filter.ApprovedOnly {
		clauses = append(clauses, "approved = TRUE")
	}
	if len(filter.Topics) > 0 {
		args = append(args, filter.Topics)
		clauses = append(clauses, fmt.Sprintf("topic = ANY($%d)", len(args)))
	}
	if len(filter.BloomLevels) > 0 {
		levels := make([]string, len(filter.BloomLevels))
		for i, l := range filter.BloomLevels {
			levels[i] = string(l)
		}
		args = append(args, levels)
		clauses = append(clauses, fmt.Sprintf("bloom_level = ANY($%d)", len(args)))
	}
	if len(filter.Difficulties) > 0 {
		bands := make([]string, len(filter.Difficulties))
		for i, d := range filter.Difficulties {
			bands[i] = string(d)
		}
		args = append(args, bands)
		clauses = append(clauses, fmt.Sprintf("difficulty = ANY($%d)", len(args)))
	}

	query := `SELECT ` + questionColumns + `
		 FROM questions WHERE ` + strings.Join(clauses, " AND ") + `
		 ORDER BY created_at, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var pool []model.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		pool = append(pool, *q)
	}
	return pool, rows.Err()
}

// QuestionsByIDs loads the given questions preserving the id order.
// Used when rebuilding a version's form from its stored question order.
func (r *QuestionRepository) QuestionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	byID := make(map[uuid.UUID]model.Question, len(ids))
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		byID[q.ID] = *q
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	ordered := make([]model.Question, 0, len(ids))
	for _, id := range ids {
		q, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("question %s: %w", id, ErrNotFound)
		}
		ordered = append(ordered, q)
	}
	return ordered, nil
}
