package service

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"anoa.com/studentmanager/internal/entity"
	"github.com/google/uuid"
	"github.com/meilisearch/meilisearch-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMeili struct {
	mu       sync.Mutex
	requests []string
	bodies   map[string]string
}

func (f *fakeMeili) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	key := r.Method + " " + r.URL.Path

	f.mu.Lock()
	f.requests = append(f.requests, key)
	f.bodies[key] = string(body)
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if strings.HasSuffix(r.URL.Path, "/search") {
		_, _ = w.Write([]byte(`{"hits":[{"id":"a"},{"id":"b"}],"query":"x","processingTimeMs":1,"limit":20,"offset":0,"estimatedTotalHits":2}`))
		return
	}
	w.WriteHeader(http.StatusAccepted)
	_, _ = w.Write([]byte(`{"taskUid":1,"indexUid":"students","status":"enqueued","type":"documentAdditionOrUpdate","enqueuedAt":"2024-01-01T00:00:00Z"}`))
}

func newFake(t *testing.T) (*fakeMeili, SearchService) {
	fake := &fakeMeili{bodies: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return fake, NewMeiliSearchService(meilisearch.New(srv.URL), logger)
}

func TestMeili_IndexStudent(t *testing.T) {
	fake, svc := newFake(t)

	student := &entity.Student{
		ID:       uuid.New(),
		FullName: "Nguyen Van A",
		Username: "nguyenvana",
		Gender:   entity.GenderMale,
		Class:    &entity.Class{Name: "10A1"},
	}
	require.NoError(t, svc.IndexStudent(student))

	body := fake.bodies["POST /indexes/students/documents"]
	require.NotEmpty(t, body)

	var docs []map[string]any
	require.NoError(t, json.Unmarshal([]byte(body), &docs))
	require.Len(t, docs, 1)
	assert.Equal(t, student.ID.String(), docs[0]["id"])
	assert.Equal(t, "10A1", docs[0]["class_name"])
}

func TestMeili_SearchReturnsIDs(t *testing.T) {
	_, svc := newFake(t)

	ids, err := svc.SearchBooks("go", 20)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
	assert.True(t, svc.Enabled())
}

func TestNoopSearch(t *testing.T) {
	svc := NewNoopSearchService()
	assert.False(t, svc.Enabled())
	assert.NoError(t, svc.IndexBook(&entity.Book{}))

	ids, err := svc.SearchStudents("x", 10)
	assert.NoError(t, err)
	assert.Empty(t, ids)
}
