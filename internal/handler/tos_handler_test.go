package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/examforge-backend/internal/middleware"
	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/repository"
	"github.com/examforge/examforge-backend/internal/response"
	"github.com/examforge/examforge-backend/internal/service"
	"github.com/examforge/examforge-backend/internal/tos"
	"github.com/examforge/examforge-backend/internal/validator"
)

func init() {
	gin.SetMode(gin.TestMode)
	validator.Setup()
}

// brokenTOSStore fails every write so persistence errors can be
// observed at the HTTP layer.
type brokenTOSStore struct{}

func (brokenTOSStore) Create(context.Context, *model.TOSDocument) error { return errors.New("down") }
func (brokenTOSStore) Update(context.Context, *model.TOSDocument) error { return errors.New("down") }
func (brokenTOSStore) GetByID(context.Context, uuid.UUID) (*model.TOSDocument, error) {
	return nil, repository.ErrNotFound
}
func (brokenTOSStore) ListByAuthor(context.Context, int, int, int) ([]model.TOSDocument, int, error) {
	return nil, 0, errors.New("down")
}
func (brokenTOSStore) Delete(context.Context, uuid.UUID) error { return errors.New("down") }

type noopNotifier struct{}

func (noopNotifier) NotifyDocChange(context.Context, string, string, string) {}

type errEnvelope struct {
	Error *struct {
		Code string `json:"code"`
	} `json:"error"`
}

func newTOSRouter(store service.TOSStore) *gin.Engine {
	svc := service.NewTOSService(store, noopNotifier{}, zerolog.Nop())
	h := NewTOSHandler(svc, nil)

	r := gin.New()
	r.POST("/tos", func(c *gin.Context) {
		c.Set(middleware.ContextKeyClaims, &service.Claims{TeacherID: 7})
		h.Create(c)
	})
	return r
}

func TestTOSCreateStoreFailureReturnsInternal(t *testing.T) {
	r := newTOSRouter(brokenTOSStore{})

	body := `{"title":"Unit One TOS","topics":[{"topic":"algebra","hours":10}],"total_items":20}`
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/tos", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var env errEnvelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	require.NotNil(t, env.Error)
	assert.Equal(t, string(response.ErrInternal), env.Error.Code)
}

func TestFailTOSErrorDistinguishesAllocationFromPersistence(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   response.ErrCode
	}{
		{"no topics", tos.ErrNoTopics, http.StatusBadRequest, response.ErrInvalidAllocation},
		{"wrapped hours", fmt.Errorf("topic %q: %w", "algebra", tos.ErrNonPositiveHours), http.StatusBadRequest, response.ErrInvalidAllocation},
		{"non-positive items", tos.ErrNonPositiveItems, http.StatusBadRequest, response.ErrInvalidAllocation},
		{"store failure", errors.New("connection refused"), http.StatusInternalServerError, response.ErrInternal},
		{"missing doc", repository.ErrNotFound, http.StatusNotFound, response.ErrNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			failTOSError(c, tc.err)

			assert.Equal(t, tc.wantStatus, w.Code)
			var env errEnvelope
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
			require.NotNil(t, env.Error)
			assert.Equal(t, string(tc.wantCode), env.Error.Code)
		})
	}
}
