package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/examforge/examforge-backend/internal/model"
	"github.com/examforge/examforge-backend/internal/repository"
)

// stubTOSStore keeps documents in a map and records nothing else.
type stubTOSStore struct {
	docs    map[uuid.UUID]*model.TOSDocument
	failing bool
}

func newStubTOSStore() *stubTOSStore {
	return &stubTOSStore{docs: make(map[uuid.UUID]*model.TOSDocument)}
}

func (s *stubTOSStore) Create(_ context.Context, doc *model.TOSDocument) error {
	if s.failing {
		return errors.New("store down")
	}
	doc.ID = uuid.New()
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *stubTOSStore) Update(_ context.Context, doc *model.TOSDocument) error {
	if s.failing {
		return errors.New("store down")
	}
	if _, ok := s.docs[doc.ID]; !ok {
		return repository.ErrNotFound
	}
	copied := *doc
	s.docs[doc.ID] = &copied
	return nil
}

func (s *stubTOSStore) GetByID(_ context.Context, id uuid.UUID) (*model.TOSDocument, error) {
	doc, ok := s.docs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copied := *doc
	return &copied, nil
}

func (s *stubTOSStore) ListByAuthor(_ context.Context, authorID, limit, offset int) ([]model.TOSDocument, int, error) {
	var all []model.TOSDocument
	for _, doc := range s.docs {
		if doc.AuthorID == authorID {
			all = append(all, *doc)
		}
	}
	total := len(all)
	if offset >= total {
		return nil, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (s *stubTOSStore) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := s.docs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(s.docs, id)
	return nil
}

// recordingNotifier captures published events for assertions.
type recordingNotifier struct {
	events []string
}

func (n *recordingNotifier) NotifyDocChange(_ context.Context, docType, docID, action string) {
	n.events = append(n.events, docType+":"+action)
}

func newTOSServiceForTest() (*TOSService, *stubTOSStore, *recordingNotifier) {
	store := newStubTOSStore()
	notifier := &recordingNotifier{}
	return NewTOSService(store, notifier, zerolog.Nop()), store, notifier
}

func TestTOSServiceCreatePersistsMatrix(t *testing.T) {
	svc, store, notifier := newTOSServiceForTest()

	topics := []model.TopicAllocation{
		{Topic: "Algebra", Hours: 10},
		{Topic: "Geometry", Hours: 10},
		{Topic: "Statistics", Hours: 5},
	}

	doc, err := svc.Create(context.Background(), 1, "Midterm TOS", topics, 50)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, doc.ID)
	assert.Equal(t, 50, doc.Matrix.TotalItems)
	assert.Len(t, store.docs, 1)
	assert.Equal(t, []string{"tos:created"}, notifier.events)

	totals := make([]int, 0, 3)
	for _, row := range doc.Matrix.Topics {
		totals = append(totals, row.Total)
	}
	assert.Equal(t, []int{20, 20, 10}, totals)
}

func TestTOSServiceCreateRejectsInvalidInput(t *testing.T) {
	svc, store, notifier := newTOSServiceForTest()

	_, err := svc.Create(context.Background(), 1, "Empty", nil, 50)
	assert.Error(t, err)
	assert.Empty(t, store.docs)
	assert.Empty(t, notifier.events)
}

func TestTOSServiceUpdateRecomputesWholesale(t *testing.T) {
	svc, _, notifier := newTOSServiceForTest()

	doc, err := svc.Create(context.Background(), 1, "Before", []model.TopicAllocation{
		{Topic: "Algebra", Hours: 10},
	}, 20)
	require.NoError(t, err)

	updated, err := svc.Update(context.Background(), doc.ID, 1, "After", []model.TopicAllocation{
		{Topic: "Algebra", Hours: 5},
		{Topic: "Geometry", Hours: 5},
	}, 30)
	require.NoError(t, err)

	assert.Equal(t, "After", updated.Title)
	assert.Equal(t, 30, updated.Matrix.TotalItems)
	assert.Len(t, updated.Matrix.Topics, 2)
	assert.Equal(t, []string{"tos:created", "tos:updated"}, notifier.events)
}

func TestTOSServiceOwnershipEnforced(t *testing.T) {
	svc, _, _ := newTOSServiceForTest()

	doc, err := svc.Create(context.Background(), 1, "Mine", []model.TopicAllocation{
		{Topic: "Algebra", Hours: 10},
	}, 20)
	require.NoError(t, err)

	_, err = svc.Get(context.Background(), doc.ID, 2)
	assert.ErrorIs(t, err, ErrNotTOSOwner)

	err = svc.Delete(context.Background(), doc.ID, 2)
	assert.ErrorIs(t, err, ErrNotTOSOwner)

	_, err = svc.Update(context.Background(), doc.ID, 2, "Stolen", []model.TopicAllocation{
		{Topic: "Algebra", Hours: 1},
	}, 10)
	assert.ErrorIs(t, err, ErrNotTOSOwner)
}

func TestTOSServiceGetUnknownID(t *testing.T) {
	svc, _, _ := newTOSServiceForTest()

	_, err := svc.Get(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestTOSServiceDeleteNotifies(t *testing.T) {
	svc, store, notifier := newTOSServiceForTest()

	doc, err := svc.Create(context.Background(), 1, "Gone soon", []model.TopicAllocation{
		{Topic: "Algebra", Hours: 10},
	}, 20)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), doc.ID, 1))
	assert.Empty(t, store.docs)
	assert.Equal(t, []string{"tos:created", "tos:deleted"}, notifier.events)
}

func TestTOSServiceListClampsPagination(t *testing.T) {
	svc, _, _ := newTOSServiceForTest()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(context.Background(), 7, "Doc", []model.TopicAllocation{
			{Topic: "Algebra", Hours: 10},
		}, 20)
		require.NoError(t, err)
	}

	docs, pagination, err := svc.List(context.Background(), 7, 0, -5)
	require.NoError(t, err)

	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 10, pagination.PerPage)
	assert.Equal(t, 3, pagination.TotalItems)
	assert.Equal(t, 1, pagination.TotalPages)
	assert.Len(t, docs, 3)
}
