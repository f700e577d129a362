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

// TOSRepository handles Table-of-Specification document data access.
// The matrix and its input topics are stored as JSONB; the matrix is
// always recomputed wholesale on input change, never patched.
type TOSRepository struct {
	pool *pgxpool.Pool
}

// NewTOSRepository creates a new TOSRepository.
func NewTOSRepository(pool *pgxpool.Pool) *TOSRepository {
	return &TOSRepository{pool: pool}
}

// Create inserts a TOS document.
func (r *TOSRepository) Create(ctx context.Context, doc *model.TOSDocument) error {
	topics, err := json.Marshal(doc.Topics)
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	matrix, err := json.Marshal(doc.Matrix)
	if err != nil {
		return fmt.Errorf("encode matrix: %w", err)
	}

	return r.pool.QueryRow(ctx,
		`INSERT INTO tos_documents (author_id, title, topics, total_items, matrix)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		doc.AuthorID, doc.Title, topics, doc.TotalItems, matrix,
	).Scan(&doc.ID, &doc.CreatedAt, &doc.UpdatedAt)
}

// Update replaces a document's input and recomputed matrix.
func (r *TOSRepository) Update(ctx context.Context, doc *model.TOSDocument) error {
	topics, err := json.Marshal(doc.Topics)
	if err != nil {
		return fmt.Errorf("encode topics: %w", err)
	}
	matrix, err := json.Marshal(doc.Matrix)
	if err != nil {
		return fmt.Errorf("encode matrix: %w", err)
	}

	tag, err := r.pool.Exec(ctx,
		`UPDATE tos_documents
		 SET title = $1, topics = $2, total_items = $3, matrix = $4, updated_at = NOW()
		 WHERE id = $5`,
		doc.Title, topics, doc.TotalItems, matrix, doc.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetByID retrieves a TOS document.
func (r *TOSRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.TOSDocument, error) {
	var doc model.TOSDocument
	var topics, matrix []byte

	err := r.pool.QueryRow(ctx,
		`SELECT id, author_id, title, topics, total_items, matrix, created_at, updated_at
		 FROM tos_documents WHERE id = $1`, id,
	).Scan(&doc.ID, &doc.AuthorID, &doc.Title, &topics, &doc.TotalItems, &matrix,
		&doc.CreatedAt, &doc.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(topics, &doc.Topics); err != nil {
		return nil, fmt.Errorf("decode topics: %w", err)
	}
	if err := json.Unmarshal(matrix, &doc.Matrix); err != nil {
		return nil, fmt.Errorf("decode matrix: %w", err)
	}
	return &doc, nil
}

// ListByAuthor retrieves a teacher's TOS documents with pagination.
func (r *TOSRepository) ListByAuthor(ctx context.Context, authorID, limit, offset int) ([]model.TOSDocument, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tos_documents WHERE author_id = $1`, authorID,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, author_id, title, topics, total_items, matrix, created_at, updated_at
		 FROM tos_documents WHERE author_id = $1
		 ORDER BY updated_at DESC
		 LIMIT $2 OFFSET $3`, authorID, limit, offset,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var docs []model.TOSDocument
	for rows.Next() {
		var doc model.TOSDocument
		var topics, matrix []byte
		if err := rows.Scan(&doc.ID, &doc.AuthorID, &doc.Title, &topics, &doc.TotalItems,
			&matrix, &doc.CreatedAt, &doc.UpdatedAt); err != nil {
			return nil, 0, err
		}
		if err := json.Unmarshal(topics, &doc.Topics); err != nil {
			return nil, 0, fmt.Errorf("decode topics: %w", err)
		}
		if err := json.Unmarshal(matrix, &doc.Matrix); err != nil {
			return nil, 0, fmt.Errorf("decode matrix: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, total, rows.Err()
}

// Delete removes a TOS document.
func (r *TOSRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tos_documents WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
