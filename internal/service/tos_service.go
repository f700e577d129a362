package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/tos"
)

// Domain errors.
var ErrNotTOSOwner = errors.New("not the owner of this TOS document")

// TOSStore is the persistence surface TOSService needs. Satisfied by
// *repository.TOSRepository.
type TOSStore interface {
	Create(ctx context.Context, doc *model.TOSDocument) error
	Update(ctx context.Context, doc *model.TOSDocument) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.TOSDocument, error)
	ListByAuthor(ctx context.Context, authorID, limit, offset int) ([]model.TOSDocument, int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// TOSService handles Table-of-Specification business logic.
type TOSService struct {
	repo     TOSStore
	notifier Notifier
	log      zerolog.Logger
}

// NewTOSService creates a new TOSService.
func NewTOSService(repo TOSStore, notifier Notifier, log zerolog.Logger) *TOSService {
	return &TOSService{
		repo:     repo,
		notifier: notifier,
		log:      log.With().Str("component", "tos_service").Logger(),
	}
}

// Calculate runs a stateless matrix calculation without persisting.
func (s *TOSService) Calculate(topics []model.TopicAllocation, totalItems int) (*model.TOSMatrix, error) {
	return tos.Calculate(topics, totalItems)
}

// Create calculates the matrix for the given input and persists it as
// a new document.
func (s *TOSService) Create(ctx context.Context, authorID int, title string, topics []model.TopicAllocation, totalItems int) (*model.TOSDocument, error) {
	matrix, err := tos.Calculate(topics, totalItems)
	if err != nil {
		return nil, err
	}

	doc := &model.TOSDocument{
		AuthorID:   authorID,
		Title:      title,
		Topics:     topics,
		TotalItems: totalItems,
		Matrix:     *matrix,
	}

	if err := s.repo.Create(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist tos: %w", err)
	}

	s.notifier.NotifyDocChange(ctx, "tos", doc.ID.String(), "created")
	return doc, nil
}

// Update recomputes a document wholesale from new input. Matrices are
// never patched incrementally.
func (s *TOSService) Update(ctx context.Context, docID uuid.UUID, authorID int, title string, topics []model.TopicAllocation, totalItems int) (*model.TOSDocument, error) {
	doc, err := s.Get(ctx, docID, authorID)
	if err != nil {
		return nil, err
	}

	matrix, err := tos.Calculate(topics, totalItems)
	if err != nil {
		return nil, err
	}

	doc.Title = title
	doc.Topics = topics
	doc.TotalItems = totalItems
	doc.Matrix = *matrix

	if err := s.repo.Update(ctx, doc); err != nil {
		return nil, fmt.Errorf("persist tos: %w", err)
	}

	s.notifier.NotifyDocChange(ctx, "tos", doc.ID.String(), "updated")
	return doc, nil
}

// Get retrieves a document owned by authorID.
func (s *TOSService) Get(ctx context.Context, docID uuid.UUID, authorID int) (*model.TOSDocument, error) {
	doc, err := s.repo.GetByID(ctx, docID)
	if err != nil {
		return nil, err
	}
	if doc.AuthorID != authorID {
		return nil, ErrNotTOSOwner
	}
	return doc, nil
}

// List retrieves a teacher's documents with pagination.
func (s *TOSService) List(ctx context.Context, authorID, page, perPage int) ([]model.TOSDocument, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	docs, total, err := s.repo.ListByAuthor(ctx, authorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}

	if docs == nil {
		docs = []model.TOSDocument{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return docs, pagination, nil
}

// Delete removes a document owned by authorID.
func (s *TOSService) Delete(ctx context.Context, docID uuid.UUID, authorID int) error {
	if _, err := s.Get(ctx, docID, authorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, docID); err != nil {
		return err
	}
	s.notifier.NotifyDocChange(ctx, "tos", docID.String(), "deleted")
	return nil
}
