package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/examforge/examforge-backend/internal/config"
	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/repository"
	"github.com/examforge/examforge-backend/internal/response"
)

// Domain errors.
var ErrNotBankOwner = errors.New("not the owner of this question bank")

// QuestionService handles question bank business logic and the Redis
// pool snapshot cache.
type QuestionService struct {
	questionRepo *repository.QuestionRepository
	rdb          *redis.Client
	notifier     Notifier
	cfg          *config.Config
	log          zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(questionRepo *repository.QuestionRepository, rdb *redis.Client, notifier Notifier, cfg *config.Config, log zerolog.Logger) *QuestionService {
	return &QuestionService{
		questionRepo: questionRepo,
		rdb:          rdb,
		notifier:     notifier,
		cfg:          cfg,
		log:          log.With().Str("component", "question_service").Logger(),
	}
}

// ListBanks retrieves a teacher's question banks with pagination.
func (s *QuestionService) ListBanks(ctx context.Context, authorID, page, perPage int, search string) ([]model.QuestionBank, *response.Pagination, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	if perPage > 100 {
		perPage = 100
	}

	limit := perPage
	offset := (page - 1) * perPage

	banks, total, err := s.questionRepo.ListBanksByAuthor(ctx, authorID, limit, offset, search)
	if err != nil {
		return nil, nil, err
	}

	if banks == nil {
		banks = []model.QuestionBank{}
	}

	totalPages := (total + perPage - 1) / perPage

	pagination := &response.Pagination{
		Page:       page,
		PerPage:    perPage,
		TotalItems: total,
		TotalPages: totalPages,
	}

	return banks, pagination, nil
}

// GetBank retrieves a bank owned by authorID.
func (s *QuestionService) GetBank(ctx context.Context, bankID uuid.UUID, authorID int) (*model.QuestionBank, error) {
	bank, err := s.questionRepo.GetBank(ctx, bankID)
	if err != nil {
		return nil, err
	}
	if bank.AuthorID != authorID {
		return nil, ErrNotBankOwner
	}
	return bank, nil
}

// CreateBank creates a new question bank.
func (s *QuestionService) CreateBank(ctx context.Context, bank *model.QuestionBank) error {
	if err := s.questionRepo.CreateBank(ctx, bank); err != nil {
		return err
	}
	s.notifier.NotifyDocChange(ctx, "bank", bank.ID.String(), "created")
	return nil
}

// UpdateBank updates a bank owned by the caller.
func (s *QuestionService) UpdateBank(ctx context.Context, bank *model.QuestionBank) error {
	if err := s.questionRepo.UpdateBank(ctx, bank); err != nil {
		return err
	}
	s.invalidatePool(ctx, bank.ID)
	s.notifier.NotifyDocChange(ctx, "bank", bank.ID.String(), "updated")
	return nil
}

// DeleteBank deletes a bank and its questions.
func (s *QuestionService) DeleteBank(ctx context.Context, bankID uuid.UUID) error {
	if err := s.questionRepo.DeleteBank(ctx, bankID); err != nil {
		return err
	}
	s.invalidatePool(ctx, bankID)
	s.notifier.NotifyDocChange(ctx, "bank", bankID.String(), "deleted")
	return nil
}

// ListQuestions retrieves all questions of a bank.
func (s *QuestionService) ListQuestions(ctx context.Context, bankID uuid.UUID) ([]model.Question, error) {
	return s.questionRepo.ListByBank(ctx, bankID)
}

// GetQuestion retrieves one question, verifying it belongs to bankID.
func (s *QuestionService) GetQuestion(ctx context.Context, bankID, questionID uuid.UUID) (*model.Question, error) {
	q, err := s.questionRepo.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if q.BankID != bankID {
		return nil, repository.ErrNotFound
	}
	return q, nil
}

// CreateQuestion adds a question to a bank.
func (s *QuestionService) CreateQuestion(ctx context.Context, q *model.Question) error {
	if err := s.questionRepo.CreateQuestion(ctx, q); err != nil {
		return err
	}
	s.invalidatePool(ctx, q.BankID)
	s.notifier.NotifyDocChange(ctx, "bank", q.BankID.String(), "updated")
	return nil
}

// UpdateQuestion replaces a question's fields.
func (s *QuestionService) UpdateQuestion(ctx context.Context, q *model.Question) error {
	if err := s.questionRepo.UpdateQuestion(ctx, q); err != nil {
		return err
	}
	s.invalidatePool(ctx, q.BankID)
	s.notifier.NotifyDocChange(ctx, "bank", q.BankID.String(), "updated")
	return nil
}

// ApproveQuestion marks a question ready for assembly.
func (s *QuestionService) ApproveQuestion(ctx context.Context, bankID, questionID uuid.UUID, approved bool) error {
	if err := s.questionRepo.SetApproved(ctx, questionID, approved); err != nil {
		return err
	}
	s.invalidatePool(ctx, bankID)
	s.notifier.NotifyDocChange(ctx, "bank", bankID.String(), "updated")
	return nil
}

// DeleteQuestion removes a question from its bank.
func (s *QuestionService) DeleteQuestion(ctx context.Context, bankID, questionID uuid.UUID) error {
	if err := s.questionRepo.DeleteQuestion(ctx, questionID); err != nil {
		return err
	}
	s.invalidatePool(ctx, bankID)
	s.notifier.NotifyDocChange(ctx, "bank", bankID.String(), "updated")
	return nil
}

// Pool returns a bank's question snapshot for an assembly run. The
// unfiltered approved pool is cached in Redis; filtered requests go to
// Postgres directly since filter combinations rarely repeat.
func (s *QuestionService) Pool(ctx context.Context, bankID uuid.UUID, filter model.PoolFilter) ([]model.Question, error) {
	cacheable := filter.ApprovedOnly &&
		len(filter.Topics) == 0 && len(filter.BloomLevels) == 0 && len(filter.Difficulties) == 0

	key := config.CacheKey.BankPoolKey(bankID.String())
	if cacheable {
		raw, err := s.rdb.Get(ctx, key).Result()
		if err == nil {
			var pool []model.Question
			if err := json.Unmarshal([]byte(raw), &pool); err == nil {
				return pool, nil
			}
			s.log.Warn().Str("bank_id", bankID.String()).Msg("corrupt pool cache entry, reloading")
		} else if !errors.Is(err, redis.Nil) {
			s.log.Warn().Err(err).Msg("pool cache read failed")
		}
	}

	pool, err := s.questionRepo.Pool(ctx, bankID, filter)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if raw, err := json.Marshal(pool); err == nil {
			if err := s.rdb.Set(ctx, key, raw, s.cfg.PoolCacheTTL).Err(); err != nil {
				s.log.Warn().Err(err).Msg("pool cache write failed")
			}
		}
	}

	return pool, nil
}

func (s *QuestionService) invalidatePool(ctx context.Context, bankID uuid.UUID) {
	if err := s.rdb.Del(ctx, config.CacheKey.BankPoolKey(bankID.String())).Err(); err != nil {
		s.log.Warn().Err(err).Str("bank_id", bankID.String()).Msg("pool cache invalidation failed")
	}
}
