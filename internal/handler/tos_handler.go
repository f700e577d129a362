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
	"github.com/examforge/examforge-backend/internal/tos"
	"github.com/examforge/examforge-backend/internal/validator"
)

// TOSHandler handles Table-of-Specification endpoints.
type TOSHandler struct {
	tosService    *service.TOSService
	exportService *service.ExportService
}

// NewTOSHandler creates a new TOSHandler.
func NewTOSHandler(tosService *service.TOSService, exportService *service.ExportService) *TOSHandler {
	return &TOSHandler{tosService: tosService, exportService: exportService}
}

// isAllocationError reports whether err came from TOS input validation
// rather than persistence.
func isAllocationError(err error) bool {
	return errors.Is(err, tos.ErrNoTopics) ||
		errors.Is(err, tos.ErrNonPositiveHours) ||
		errors.Is(err, tos.ErrNonPositiveItems)
}

func failTOSError(c *gin.Context, err error) {
	switch {
	case isAllocationError(err):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidAllocation)
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotTOSOwner):
		response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Calculate godoc
// POST /api/v1/teacher/tos/calculate
// Computes a TOS matrix without persisting anything.
func (h *TOSHandler) Calculate(c *gin.Context) {
	var req model.CalculateTOSRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	matrix, err := h.tosService.Calculate(toAllocations(req.Topics), req.TotalItems)
	if err != nil {
		failTOSError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"matrix": matrix})
}

// Create godoc
// POST /api/v1/teacher/tos
// Computes and persists a TOS document.
func (h *TOSHandler) Create(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.CreateTOSRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	doc, err := h.tosService.Create(c.Request.Context(), claims.TeacherID, req.Title, toAllocations(req.Topics), req.TotalItems)
	if err != nil {
		failTOSError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"tos": doc})
}

// List godoc
// GET /api/v1/teacher/tos
// Lists the caller's TOS documents with pagination.
func (h *TOSHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	docs, pagination, err := h.tosService.List(c.Request.Context(), claims.TeacherID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if docs == nil {
		docs = []model.TOSDocument{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"tos": docs}, pagination)
}

// Get godoc
// GET /api/v1/teacher/tos/:tos_id
// Returns one TOS document owned by the caller.
func (h *TOSHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	docID, err := uuid.Parse(c.Param("tos_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	doc, err := h.tosService.Get(c.Request.Context(), docID, claims.TeacherID)
	if err != nil {
		failTOSError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tos": doc})
}

// Update godoc
// PUT /api/v1/teacher/tos/:tos_id
// Replaces a TOS document's input and recomputes its matrix.
func (h *TOSHandler) Update(c *gin.Context) {
	claims := middleware.GetClaims(c)
	docID, err := uuid.Parse(c.Param("tos_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.CreateTOSRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	doc, err := h.tosService.Update(c.Request.Context(), docID, claims.TeacherID, req.Title, toAllocations(req.Topics), req.TotalItems)
	if err != nil {
		failTOSError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"tos": doc})
}

// Delete godoc
// DELETE /api/v1/teacher/tos/:tos_id
// Deletes a TOS document.
func (h *TOSHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	docID, err := uuid.Parse(c.Param("tos_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.tosService.Delete(c.Request.Context(), docID, claims.TeacherID); err != nil {
		failTOSError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// Export godoc
// GET /api/v1/teacher/tos/:tos_id/export
// Streams a TOS document as an XLSX workbook.
func (h *TOSHandler) Export(c *gin.Context) {
	claims := middleware.GetClaims(c)
	docID, err := uuid.Parse(c.Param("tos_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	doc, err := h.tosService.Get(c.Request.Context(), docID, claims.TeacherID)
	if err != nil {
		failTOSError(c, err)
		return
	}

	f, err := h.exportService.TOSWorkbook(doc)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer f.Close()

	writeWorkbook(c, f, "tos-"+doc.ID.String()+".xlsx")
}

func toAllocations(reqs []model.TopicAllocationRequest) []model.TopicAllocation {
	topics := make([]model.TopicAllocation, len(reqs))
	for i, t := range reqs {
		topics[i] = model.TopicAllocation{Topic: t.Topic, Hours: t.Hours}
	}
	return topics
}
