package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/examforge/examforge-backend/internal/assembly"
	"github.com/examforge/examforge-backend/internal/middleware"
	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/repository"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
	"github.com/examforge/examforge-backend/internal/validator"
)

// TestHandler handles test assembly and version endpoints.
type TestHandler struct {
	testService   *service.TestService
	exportService *service.ExportService
}

// NewTestHandler creates a new TestHandler.
func NewTestHandler(testService *service.TestService, exportService *service.ExportService) *TestHandler {
	return &TestHandler{testService: testService, exportService: exportService}
}

func failTestError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, repository.ErrNotFound):
		response.Fail(c, http.StatusNotFound, response.ErrNotFound)
	case errors.Is(err, service.ErrNotTestAuthor):
		response.Fail(c, http.StatusForbidden, response.ErrNotOwner)
	case errors.Is(err, service.ErrTestArchived):
		response.Fail(c, http.StatusConflict, response.ErrTestArchived)
	case errors.Is(err, assembly.ErrUnknownConstraint):
		response.Fail(c, http.StatusBadRequest, response.ErrUnknownConstraint)
	case errors.Is(err, assembly.ErrNonPositiveTarget):
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidPayload)
	case errors.Is(err, assembly.ErrNoSelection):
		response.Fail(c, http.StatusConflict, response.ErrEmptyPool)
	default:
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
	}
}

// Assemble godoc
// POST /api/v1/teacher/tests/assemble
// Runs the assembly engine against a bank pool and persists the result
// as a DRAFT test.
func (h *TestHandler) Assemble(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.AssembleTestRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	test, result, err := h.testService.Assemble(c.Request.Context(), claims.TeacherID, &req)
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"test":     test,
		"selected": result.Selected,
		"warnings": result.Warnings,
	})
}

// OptimizeLength godoc
// POST /api/v1/teacher/tests/optimize-length
// Scans candidate lengths and reports the shortest one whose assembly
// satisfies all constraints. Advisory only, nothing is persisted.
func (h *TestHandler) OptimizeLength(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.OptimizeLengthRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	result, err := h.testService.OptimizeLength(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, assembly.ErrInvalidLengthRange) {
			response.Fail(c, http.StatusBadRequest, response.ErrInvalidLengthRange)
			return
		}
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"optimization": result})
}

// List godoc
// GET /api/v1/teacher/tests
// Lists the caller's tests with pagination.
func (h *TestHandler) List(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	perPage, _ := strconv.Atoi(c.DefaultQuery("per_page", "10"))

	tests, pagination, err := h.testService.List(c.Request.Context(), claims.TeacherID, page, perPage)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	if tests == nil {
		tests = []model.Test{}
	}

	response.SuccessWithPagination(c, http.StatusOK, gin.H{"tests": tests}, pagination)
}

// Get godoc
// GET /api/v1/teacher/tests/:test_id
// Returns one test owned by the caller.
func (h *TestHandler) Get(c *gin.Context) {
	claims := middleware.GetClaims(c)
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	test, err := h.testService.Get(c.Request.Context(), testID, claims.TeacherID)
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"test": test})
}

// SetStatus godoc
// PATCH /api/v1/teacher/tests/:test_id/status
// Moves a test between DRAFT, FINALIZED and ARCHIVED.
func (h *TestHandler) SetStatus(c *gin.Context) {
	claims := middleware.GetClaims(c)
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req struct {
		Status string `json:"status" binding:"required,oneof=DRAFT FINALIZED ARCHIVED"`
	}
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.testService.SetStatus(c.Request.Context(), testID, claims.TeacherID, model.TestStatus(req.Status)); err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"status": req.Status})
}

// Delete godoc
// DELETE /api/v1/teacher/tests/:test_id
// Deletes a test and its versions.
func (h *TestHandler) Delete(c *gin.Context) {
	claims := middleware.GetClaims(c)
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	if err := h.testService.Delete(c.Request.Context(), testID, claims.TeacherID); err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{})
}

// GenerateVersions godoc
// POST /api/v1/teacher/tests/:test_id/versions
// Produces parallel forms with seeded shuffles. Persistence goes
// through the background worker queue.
func (h *TestHandler) GenerateVersions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	var req model.GenerateVersionsRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	versions, forms, err := h.testService.GenerateVersions(c.Request.Context(), testID, claims.TeacherID, req.Count)
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"versions": versions,
		"forms":    forms,
	})
}

// ListVersions godoc
// GET /api/v1/teacher/tests/:test_id/versions
// Lists the persisted versions of a test.
func (h *TestHandler) ListVersions(c *gin.Context) {
	claims := middleware.GetClaims(c)
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return
	}

	versions, err := h.testService.ListVersions(c.Request.Context(), testID, claims.TeacherID)
	if err != nil {
		failTestError(c, err)
		return
	}

	if versions == nil {
		versions = []model.TestVersion{}
	}

	response.Success(c, http.StatusOK, gin.H{"versions": versions})
}

// GetVersion godoc
// GET /api/v1/teacher/tests/:test_id/versions/:version_id
// Rebuilds one version's rendered form from its stored seed.
func (h *TestHandler) GetVersion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	testID, versionID, ok := parseTestVersionIDs(c)
	if !ok {
		return
	}

	_, form, err := h.testService.RebuildForm(c.Request.Context(), testID, versionID, claims.TeacherID)
	if err != nil {
		failTestError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"form": form})
}

// ExportVersion godoc
// GET /api/v1/teacher/tests/:test_id/versions/:version_id/export
// Streams one version as an XLSX workbook with paper and answer key
// sheets.
func (h *TestHandler) ExportVersion(c *gin.Context) {
	claims := middleware.GetClaims(c)
	testID, versionID, ok := parseTestVersionIDs(c)
	if !ok {
		return
	}

	test, form, err := h.testService.RebuildForm(c.Request.Context(), testID, versionID, claims.TeacherID)
	if err != nil {
		failTestError(c, err)
		return
	}

	f, err := h.exportService.VersionWorkbook(test, form)
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	defer f.Close()

	filename := "test-" + test.ID.String() + "-" + strings.ToLower(form.Label) + ".xlsx"
	writeWorkbook(c, f, filename)
}

func parseTestVersionIDs(c *gin.Context) (testID, versionID uuid.UUID, ok bool) {
	testID, err := uuid.Parse(c.Param("test_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, uuid.Nil, false
	}
	versionID, err = uuid.Parse(c.Param("version_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, uuid.Nil, false
	}
	return testID, versionID, true
}
