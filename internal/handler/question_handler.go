package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examforge/examforge-backend/internal/middleware"
	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/repository"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
	"github.com/examforge/examforge-backend/internal/validator"
)

// QuestionHandler handles question bank and question endpoints.
type QuestionHandler struct {
	questionService *service.QuestionService
}

// NewQuestionHandler creates a new QuestionHandler.
func NewQuestionHandler(questionService *service.QuestionService) *QuestionHandler {
	return &QuestionHandler{questionService: questionService}
}

// failBankError maps service errors to API responses.
func failBankError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotBankOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// ─── Banks ──────────────────────────────────────────────────────────

// ListBanks godoc
// GET /api/v1/teacher/banks
// Lists the caller's question banks with pagination and search.
func (h *QuestionHandler) ListBanks(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))
	search := c.Query("search")

	banks, pagination, err := h.questionService.ListBanks(c.Request.Context(), claims.TeacherID, page, perPage, search)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if banks == nil {
		banks = []model.QuestionBank{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"banks": banks}, pagination)
}

// CreateBank godoc
// POST /api/v1/teacher/banks
// Creates a question bank owned by the caller.
func (h *QuestionHandler) CreateBank(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateQuestionBankRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	bank := &model.QuestionBank{
		AuthorID:    claims.TeacherID,
		Name:        req.Name,
		Description: req.Description,
		Subject:     req.Subject,
	}

	if err := h.questionService.CreateBank(c.Request.Context(), bank); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"bank": bank})
}

// GetBank godoc
// GET /api/v1/teacher/banks/:bank_id
// Returns one bank owned by the caller.
func (h *QuestionHandler) GetBank(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, err := uuid.Parse(c.Param("bank_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	bank, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID)
	if err != nil {
		failBankError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bank": bank})
}

// UpdateBank godoc
// PUT /api/v1/teacher/banks/:bank_id
// Updates a bank's metadata.
func (h *QuestionHandler) UpdateBank(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, err := uuid.Parse(c.Param("bank_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.UpdateQuestionBankRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	bank, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID)
	if err != nil {
		failBankError(c, err)
		return
	}

	if req.Name != "" {
		bank.Name = req.Name
	}
	if req.Description != "" {
		bank.Description = req.Description
	}
	if req.Subject != "" {
		bank.Subject = req.Subject
	}

	if err := h.questionService.UpdateBank(c.Request.Context(), bank); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"bank": bank})
}

// DeleteBank godoc
// DELETE /api/v1/teacher/banks/:bank_id
// Deletes a bank and all of its questions.
func (h *QuestionHandler) DeleteBank(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, err := uuid.Parse(c.Param("bank_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID); err != nil {
		failBankError(c, err)
		return
	}

	if err := h.questionService.DeleteBank(c.Request.Context(), bankID); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// ─── Questions ──────────────────────────────────────────────────────

// ListQuestions godoc
// GET /api/v1/teacher/banks/:bank_id/questions
// Lists all questions of a bank.
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, err := uuid.Parse(c.Param("bank_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID); err != nil {
		failBankError(c, err)
		return
	}

	questions, err := h.questionService.ListQuestions(c.Request.Context(), bankID)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if questions == nil {
		questions = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": questions})
}

// AddQuestion godoc
// POST /api/v1/teacher/banks/:bank_id/questions
// Adds a question to a bank.
func (h *QuestionHandler) AddQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, err := uuid.Parse(c.Param("bank_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.AddQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID); err != nil {
		failBankError(c, err)
		return
	}

	question := &model.Question{
		BankID:           bankID,
		Topic:            req.Topic,
		BloomLevel:       model.BloomLevel(req.BloomLevel),
		Difficulty:       model.Difficulty(req.Difficulty),
		QuestionType:     model.QuestionType(req.QuestionType),
		QuestionText:     req.QuestionText,
		Choices:          req.Choices,
		CorrectLabel:     req.CorrectLabel,
		Points:           req.Points,
		EstimatedSeconds: req.EstimatedSeconds,
	}

	if fields := question.ValidateChoices(); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.questionService.CreateQuestion(c.Request.Context(), question); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"question": question})
}

// GetQuestion godoc
// GET /api/v1/teacher/banks/:bank_id/questions/:question_id
// Returns one question of a bank.
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, questionID, ok := parseBankQuestionIDs(c)
	if !ok {
		return
	}

	if _, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID); err != nil {
		failBankError(c, err)
		return
	}

	question, err := h.questionService.GetQuestion(c.Request.Context(), bankID, questionID)
	if err != nil {
		failBankError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// UpdateQuestion godoc
// PUT /api/v1/teacher/banks/:bank_id/questions/:question_id
// Partially updates a question's fields.
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, questionID, ok := parseBankQuestionIDs(c)
	if !ok {
		return
	}

	var req model.UpdateQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID); err != nil {
		failBankError(c, err)
		return
	}

	question, err := h.questionService.GetQuestion(c.Request.Context(), bankID, questionID)
	if err != nil {
		failBankError(c, err)
		return
	}

	applyQuestionUpdate(question, &req)

	// Validate the patched state, not the patch: a type change to
	// multiple-choice must not leave stale or missing choices behind.
	if fields := question.ValidateChoices(); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.questionService.UpdateQuestion(c.Request.Context(), question); err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"question": question})
}

// ApproveQuestion godoc
// PATCH /api/v1/teacher/banks/:bank_id/questions/:question_id/approve
// Toggles a question's approval flag. Only approved questions enter
// assembly pools.
func (h *QuestionHandler) ApproveQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, questionID, ok := parseBankQuestionIDs(c)
	if !ok {
		return
	}

	var req model.ApproveQuestionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if _, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID); err != nil {
		failBankError(c, err)
		return
	}

	if err := h.questionService.ApproveQuestion(c.Request.Context(), bankID, questionID, *req.Approved); err != nil {
		failBankError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"approved": *req.Approved})
}

// DeleteQuestion godoc
// DELETE /api/v1/teacher/banks/:bank_id/questions/:question_id
// Removes a question from its bank.
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, questionID, ok := parseBankQuestionIDs(c)
	if !ok {
		return
	}

	if _, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID); err != nil {
		failBankError(c, err)
		return
	}

	if err := h.questionService.DeleteQuestion(c.Request.Context(), bankID, questionID); err != nil {
		failBankError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Pool godoc
// GET /api/v1/teacher/banks/:bank_id/pool
// Previews a bank's assembly pool, optionally filtered by topic, Bloom
// level and difficulty query params.
func (h *QuestionHandler) Pool(c *gin.Context) {
	claims := middleware.GetClaims(c)
	bankID, err := uuid.Parse(c.Param("bank_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if _, err := h.questionService.GetBank(c.Request.Context(), bankID, claims.TeacherID); err != nil {
		failBankError(c, err)
		return
	}

	var filter model.PoolFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
		return
	}
	filter.ApprovedOnly = true

	pool, err := h.questionService.Pool(c.Request.Context(), bankID, filter)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if pool == nil {
		pool = []model.Question{}
	}

	response.Success(c, http.StatusOK, gin.H{"questions": pool, "count": len(pool)})
}

// ─── Helpers ────────────────────────────────────────────────────────

func parseBankQuestionIDs(c *gin.Context) (bankID, questionID uuid.UUID, ok bool) {
	bankID, err := uuid.Parse(c.Param("bank_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, uuid.Nil, false
	}
	questionID, err = uuid.Parse(c.Param("question_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, uuid.Nil, false
	}
	return bankID, questionID, true
}

func applyQuestionUpdate(q *model.Question, req *model.UpdateQuestionRequest) {
	if req.Topic != "" {
		q.Topic = req.Topic
	}
	if req.BloomLevel != "" {
		q.BloomLevel = model.BloomLevel(req.BloomLevel)
	}
	if req.Difficulty != "" {
		q.Difficulty = model.Difficulty(req.Difficulty)
	}
	if req.QuestionType != "" {
		q.QuestionType = model.QuestionType(req.QuestionType)
	}
	if req.QuestionText != "" {
		q.QuestionText = req.QuestionText
	}
	if req.Choices != nil {
		q.Choices = req.Choices
	}
	if req.CorrectLabel != "" {
		q.CorrectLabel = req.CorrectLabel
	}
	if req.Points != nil {
		q.Points = *req.Points
	}
	if req.EstimatedSeconds != nil {
		q.EstimatedSeconds = *req.EstimatedSeconds
	}
}
