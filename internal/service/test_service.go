package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/assembly"
	"github.com/examforge/examforge-backend/internal/config"
	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/response"
)

// Domain errors.
var (
	ErrNotTestAuthor = errors.New("not the author of this test")
	ErrTestArchived  = errors.New("test is archived")
)

// TestStore is the persistence surface TestService needs. Satisfied by
// *repository.TestRepository.
type TestStore interface {
	Create(ctx context.Context, t *model.Test) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Test, error)
	ListByAuthor(ctx context.Context, authorID, limit, offset int) ([]model.Test, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status model.TestStatus) error
	Delete(ctx context.Context, id uuid.UUID) error
	GetVersion(ctx context.Context, testID, versionID uuid.UUID) (*model.TestVersion, error)
	ListVersions(ctx context.Context, testID uuid.UUID) ([]model.TestVersion, error)
}

// PoolSource supplies question snapshots for assembly runs. Satisfied
// by *QuestionService.
type PoolSource interface {
	Pool(ctx context.Context, bankID uuid.UUID, filter model.PoolFilter) ([]model.Question, error)
}

// QuestionLoader loads questions by id preserving order. Satisfied by
// *repository.QuestionRepository.
type QuestionLoader interface {
	QuestionsByIDs(ctx context.Context, ids []uuid.UUID) ([]model.Question, error)
}

// TestService handles test assembly, parallel forms and the length
// optimizer.
type TestService struct {
	testRepo  TestStore
	pools     PoolSource
	questions QuestionLoader
	rdb       *redis.Client
	notifier  Notifier
	log       zerolog.Logger
}

// NewTestService creates a new TestService.
func NewTestService(testRepo TestStore, pools PoolSource, questions QuestionLoader, rdb *redis.Client, notifier Notifier, log zerolog.Logger) *TestService {
	return &TestService{
		testRepo:  testRepo,
		pools:     pools,
		questions: questions,
		rdb:       rdb,
		notifier:  notifier,
		log:       log.With().Str("component", "test_service").Logger(),
	}
}

// Assemble runs the assembly engine over a bank's approved pool and
// persists the outcome as a DRAFT test.
func (s *TestService) Assemble(ctx context.Context, authorID int, req *model.AssembleTestRequest) (*model.Test, *assembly.Result, error) {
	filter := req.Filter
	filter.ApprovedOnly = true

	pool, err := s.pools.Pool(ctx, req.BankID, filter)
	if err != nil {
		return nil, nil, fmt.Errorf("load pool: %w", err)
	}

	constraints := make([]model.Constraint, len(req.Constraints))
	for i, c := range req.Constraints {
		constraints[i] = c.ToConstraint()
	}

	result, err := assembly.Assemble(pool, constraints, req.TargetCount)
	if err != nil {
		return nil, nil, err
	}

	baseSeed := req.BaseSeed
	if baseSeed == "" {
		baseSeed = uuid.New().String()
	}

	questionIDs := make([]uuid.UUID, len(result.Selected))
	for i, q := range result.Selected {
		questionIDs[i] = q.ID
	}

	test := &model.Test{
		AuthorID:             authorID,
		BankID:               req.BankID,
		TOSID:                req.TOSID,
		Title:                req.Title,
		TargetCount:          req.TargetCount,
		BaseSeed:             baseSeed,
		QuestionIDs:          questionIDs,
		Constraints:          constraints,
		BalanceScore:         result.BalanceScore,
		CoverageScore:        result.CoverageScore,
		ConstraintsSatisfied: result.ConstraintsSatisfied,
		Warnings:             result.Warnings,
		Status:               model.TestStatusDraft,
	}

	if err := s.testRepo.Create(ctx, test); err != nil {
		return nil, nil, fmt.Errorf("persist test: %w", err)
	}

	s.cacheMetadata(ctx, test)
	s.notifier.NotifyDocChange(ctx, "test", test.ID.String(), "created")

	s.log.Info().
		Str("test_id", test.ID.String()).
		Int("selected", len(result.Selected)).
		Float64("balance", result.BalanceScore).
		Bool("satisfied", result.ConstraintsSatisfied).
		Msg("Test assembled")

	return test, result, nil
}

// OptimizeLength scans candidate lengths for the shortest satisfiable
// test over a bank's approved pool. Purely advisory; nothing persists.
func (s *TestService) OptimizeLength(ctx context.Context, req *model.OptimizeLengthRequest) (*assembly.LengthResult, error) {
	filter := req.Filter
	filter.ApprovedOnly = true

	pool, err := s.pools.Pool(ctx, req.BankID, filter)
	if err != nil {
		return nil, fmt.Errorf("load pool: %w", err)
	}

	constraints := make([]model.Constraint, len(req.Constraints))
	for i, c := range req.Constraints {
		constraints[i] = c.ToConstraint()
	}

	return assembly.OptimizeLength(pool, constraints, assembly.OptimizeOptions{
		MinLength:       req.MinLength,
		MaxLength:       req.MaxLength,
		Step:            req.Step,
		MaxBalanceScore: req.MaxBalanceScore,
	})
}

// Get retrieves a test owned by authorID.
func (s *TestService) Get(ctx context.Context, testID uuid.UUID, authorID int) (*model.Test, error) {
	test, err := s.testRepo.GetByID(ctx, testID)
	if err != nil {
		return nil, err
	}
	if test.AuthorID != authorID {
		return nil, ErrNotTestAuthor
	}
	return test, nil
}

// List retrieves a teacher's tests with pagination.
func (s *TestService) List(ctx context.Context, authorID, page, perPage int) ([]model.Test, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	tests, total, err := s.testRepo.ListByAuthor(ctx, authorID, perPage, (page-1)*perPage)
	if err != nil {
		return nil, nil, err
	}
	if tests == nil {
		tests = []model.Test{}
	}

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: (total + perPage - 1) / perPage,
	}
	return tests, pagination, nil
}

// SetStatus moves a test between lifecycle states.
func (s *TestService) SetStatus(ctx context.Context, testID uuid.UUID, authorID int, status model.TestStatus) error {
	if _, err := s.Get(ctx, testID, authorID); err != nil {
		return err
	}
	if err := s.testRepo.UpdateStatus(ctx, testID, status); err != nil {
		return err
	}
	s.notifier.NotifyDocChange(ctx, "test", testID.String(), "updated")
	return nil
}

// Delete removes a test and its versions.
func (s *TestService) Delete(ctx context.Context, testID uuid.UUID, authorID int) error {
	if _, err := s.Get(ctx, testID, authorID); err != nil {
		return err
	}
	if err := s.testRepo.Delete(ctx, testID); err != nil {
		return err
	}
	s.notifier.NotifyDocChange(ctx, "test", testID.String(), "deleted")
	return nil
}

// GenerateVersions produces count new parallel forms for a test and
// queues them for persistence. Version indices continue after existing
// versions so labels and seeds never collide across calls.
func (s *TestService) GenerateVersions(ctx context.Context, testID uuid.UUID, authorID, count int) ([]model.TestVersion, []assembly.Form, error) {
	test, err := s.Get(ctx, testID, authorID)
	if err != nil {
		return nil, nil, err
	}
	if test.Status == model.TestStatusArchived {
		return nil, nil, ErrTestArchived
	}

	result, err := s.baseResult(ctx, test)
	if err != nil {
		return nil, nil, err
	}

	existing, err := s.testRepo.ListVersions(ctx, testID)
	if err != nil {
		return nil, nil, fmt.Errorf("list versions: %w", err)
	}
	offset := len(existing)

	versions := make([]model.TestVersion, 0, count)
	forms := make([]assembly.Form, 0, count)
	for i := 0; i < count; i++ {
		index := offset + i
		form, err := assembly.BuildForm(result, assembly.VersionLabel(index), assembly.VersionSeed(test.BaseSeed, index))
		if err != nil {
			return nil, nil, err
		}

		order := make([]uuid.UUID, len(form.Questions))
		for j, q := range form.Questions {
			order[j] = q.ID
		}

		version := model.TestVersion{
			ID:            uuid.New(),
			TestID:        testID,
			Label:         form.Label,
			QuestionOrder: order,
			ShuffleSeed:   form.Seed,
			AnswerKey:     form.AnswerKey,
		}

		if err := s.enqueueVersion(ctx, &version); err != nil {
			return nil, nil, err
		}

		versions = append(versions, version)
		forms = append(forms, *form)
	}

	s.notifier.NotifyDocChange(ctx, "test", testID.String(), "versions_generated")
	return versions, forms, nil
}

// ListVersions retrieves all persisted versions of a test.
func (s *TestService) ListVersions(ctx context.Context, testID uuid.UUID, authorID int) ([]model.TestVersion, error) {
	if _, err := s.Get(ctx, testID, authorID); err != nil {
		return nil, err
	}
	return s.testRepo.ListVersions(ctx, testID)
}

// RebuildForm reconstructs one version's rendered form from its stored
// seed. Same seed, same input, byte-identical form.
func (s *TestService) RebuildForm(ctx context.Context, testID, versionID uuid.UUID, authorID int) (*model.Test, *assembly.Form, error) {
	test, err := s.Get(ctx, testID, authorID)
	if err != nil {
		return nil, nil, err
	}

	version, err := s.testRepo.GetVersion(ctx, testID, versionID)
	if err != nil {
		return nil, nil, err
	}

	result, err := s.baseResult(ctx, test)
	if err != nil {
		return nil, nil, err
	}

	form, err := assembly.BuildForm(result, version.Label, version.ShuffleSeed)
	if err != nil {
		return nil, nil, err
	}
	return test, form, nil
}

// baseResult rebuilds the assembly result a test was persisted from:
// the selected questions in their original selection order.
func (s *TestService) baseResult(ctx context.Context, test *model.Test) (*assembly.Result, error) {
	selected, err := s.questions.QuestionsByIDs(ctx, test.QuestionIDs)
	if err != nil {
		return nil, fmt.Errorf("load selected questions: %w", err)
	}
	return &assembly.Result{Selected: selected}, nil
}

func (s *TestService) enqueueVersion(ctx context.Context, v *model.TestVersion) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode version: %w", err)
	}
	if err := s.rdb.RPush(ctx, config.WorkerKey.PersistVersionsQueue, payload).Err(); err != nil {
		return fmt.Errorf("enqueue version: %w", err)
	}
	return nil
}

// cacheMetadata stores assembly diagnostics in Redis so dashboards can
// poll them without hitting Postgres.
func (s *TestService) cacheMetadata(ctx context.Context, test *model.Test) {
	meta := map[string]interface{}{
		"balance_score":         test.BalanceScore,
		"coverage_score":        test.CoverageScore,
		"constraints_satisfied": test.ConstraintsSatisfied,
		"warnings":              test.Warnings,
	}
	raw, err := json.Marshal(meta)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, config.CacheKey.TestMetadataKey(test.ID.String()), raw, 0).Err(); err != nil {
		s.log.Warn().Err(err).Msg("metadata cache write failed")
	}
}
