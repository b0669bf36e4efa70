package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"eventify/internal/config"
	"eventify/internal/model"
	"eventify/internal/repository"
	"eventify/internal/service"
)

type testEnv struct {
	store  *repository.Store
	router http.Handler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	db, err := repository.NewDB(config.DatabaseConfig{
		Driver:    "sqlite",
		URL:       filepath.Join(t.TempDir(), "eventify.db"),
		PoolLimit: 4,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	store := repository.NewStore(db)
	h := NewHandler(service.NewEventService(store), service.NewCategoryService(store), store)
	return &testEnv{store: store, router: NewRouter(h, RouterConfig{CORSOrigin: "*"})}
}

func (e *testEnv) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func errorOf(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[errorBody](t, w).Error
}

func (e *testEnv) createEvent(t *testing.T, body string) model.Event {
	t.Helper()
	w := e.do(t, http.MethodPost, "/api/events", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return decode[model.Event](t, w)
}

func TestCreateEventWithNewCategory(t *testing.T) {
	env := newTestEnv(t)

	ev := env.createEvent(t, `{"title":"Exam","date":"2024-05-01","category":"Study","priority":"High"}`)
	require.NotNil(t, ev.Category)
	assert.Equal(t, "Study", *ev.Category)
	assert.False(t, ev.Done)
	assert.Equal(t, model.PriorityHigh, ev.Priority)
	require.NotNil(t, ev.CategoryID)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/events?category_id=%d", *ev.CategoryID), "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]model.Event](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, ev.ID, list[0].ID)

	again := env.createEvent(t, `{"title":"Revision","date":"2024-04-30","category":"Study"}`)
	assert.Equal(t, *ev.CategoryID, *again.CategoryID)
	assert.Equal(t, model.PriorityMedium, again.Priority)

	w = env.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Category](t, w), 1)
}

func TestCreateEventValidation(t *testing.T) {
	env := newTestEnv(t)

	cases := []struct {
		body string
		want string
	}{
		{``, "title is required"},
		{`{"date":"2024-05-01"}`, "title is required"},
		{`{"title":"x"}`, "date is required (YYYY-MM-DD)"},
		{`{"title":"x","date":"2024-05-01","priority":"Urgent"}`, "priority must be Low, Medium, or High"},
		{`{"title":"x","date":"2024-05-01","category_id":"abc"}`, "category_id must be a number"},
		{`{"title":"x","date":"2024-05-01","category_id":77}`, "category_id does not reference an existing category"},
		{`{"title":`, "invalid JSON body"},
		{`"title"`, "request body must be a JSON object"},
	}
	for _, tc := range cases {
		w := env.do(t, http.MethodPost, "/api/events", tc.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, tc.body)
		assert.Equal(t, tc.want, errorOf(t, w), tc.body)
	}

	w := env.do(t, http.MethodGet, "/api/events", "")
	assert.Empty(t, decode[[]model.Event](t, w))
}

func TestGetEvent(t *testing.T) {
	env := newTestEnv(t)
	ev := env.createEvent(t, `{"title":"Call mom","date":"2024-05-01","time":"18:00"}`)

	w := env.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d", ev.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Event](t, w)
	assert.Equal(t, "Call mom", got.Title)
	require.NotNil(t, got.Time)
	assert.Equal(t, "18:00", *got.Time)
	assert.Nil(t, got.Category)

	for _, path := range []string{"/api/events/999", "/api/events/abc", "/api/events/-1"} {
		w = env.do(t, http.MethodGet, path, "")
		assert.Equal(t, http.StatusNotFound, w.Code, path)
		assert.Equal(t, "Event not found", errorOf(t, w))
	}
}

func TestPatchEvent(t *testing.T) {
	env := newTestEnv(t)
	ev := env.createEvent(t, `{"title":"Run","date":"2024-05-01","notes":"5k"}`)
	path := fmt.Sprintf("/api/events/%d", ev.ID)

	w := env.do(t, http.MethodPatch, path, `{"title":"Long run","category":"Sport","unknown":1}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	got := decode[model.Event](t, w)
	assert.Equal(t, "Long run", got.Title)
	require.NotNil(t, got.Category)
	assert.Equal(t, "Sport", *got.Category)
	assert.Equal(t, "5k", *got.Notes)

	w = env.do(t, http.MethodPatch, path, `{"notes":"","time":null}`)
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[model.Event](t, w)
	assert.Nil(t, got.Notes)
	assert.Nil(t, got.Time)
}

func TestPatchEventNoRecognizedFields(t *testing.T) {
	env := newTestEnv(t)
	ev := env.createEvent(t, `{"title":"Run","date":"2024-05-01"}`)
	path := fmt.Sprintf("/api/events/%d", ev.ID)

	for _, body := range []string{`{}`, `{"colour":"red"}`, ``} {
		w := env.do(t, http.MethodPatch, path, body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "No valid fields to update", errorOf(t, w))
	}

	w := env.do(t, http.MethodGet, path, "")
	got := decode[model.Event](t, w)
	assert.Equal(t, ev.Title, got.Title)
	assert.Equal(t, ev.UpdatedAt.UTC(), got.UpdatedAt.UTC())
}

func TestPatchMissingEvent(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPatch, "/api/events/999999", `{"title":"x"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Event not found", errorOf(t, w))

	w = env.do(t, http.MethodPatch, "/api/events/999999/done", `{"done":true}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestToggleDoneMatchesPatch(t *testing.T) {
	env := newTestEnv(t)
	a := env.createEvent(t, `{"title":"a","date":"2024-05-01"}`)
	b := env.createEvent(t, `{"title":"a","date":"2024-05-01"}`)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/api/events/%d/done", a.ID), `{"done":1}`)
	require.Equal(t, http.StatusOK, w.Code)
	viaToggle := decode[model.Event](t, w)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/events/%d", b.ID), `{"done":"1"}`)
	require.Equal(t, http.StatusOK, w.Code)
	viaPatch := decode[model.Event](t, w)

	assert.True(t, viaToggle.Done)
	assert.Equal(t, viaToggle.Done, viaPatch.Done)

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/events/%d/done", a.ID), `{"done":"maybe"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "done must be 0/1 or true/false", errorOf(t, w))

	w = env.do(t, http.MethodPatch, fmt.Sprintf("/api/events/%d/done", a.ID), `{}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/events?done=1", "")
	assert.Len(t, decode[[]model.Event](t, w), 2)
	w = env.do(t, http.MethodGet, "/api/events?done=0", "")
	assert.Empty(t, decode[[]model.Event](t, w))
	w = env.do(t, http.MethodGet, "/api/events?done=yes", "")
	assert.Len(t, decode[[]model.Event](t, w), 2)
}

func TestListEventsDateRange(t *testing.T) {
	env := newTestEnv(t)
	before := env.createEvent(t, `{"title":"before","date":"2024-04-30"}`)
	first := env.createEvent(t, `{"title":"first","date":"2024-05-01","time":"10:00"}`)
	early := env.createEvent(t, `{"title":"early","date":"2024-05-01","time":"08:00"}`)
	last := env.createEvent(t, `{"title":"last","date":"2024-05-31"}`)
	after := env.createEvent(t, `{"title":"after","date":"2024-06-01"}`)

	w := env.do(t, http.MethodGet, "/api/events?dateFrom=2024-05-01&dateTo=2024-05-31", "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]model.Event](t, w)

	var got []uint
	for _, e := range list {
		got = append(got, e.ID)
	}
	assert.Equal(t, []uint{early.ID, first.ID, last.ID}, got)
	assert.NotContains(t, got, before.ID)
	assert.NotContains(t, got, after.ID)

	w = env.do(t, http.MethodGet, "/api/events?q=ear", "")
	list = decode[[]model.Event](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, early.ID, list[0].ID)

	w = env.do(t, http.MethodGet, "/api/events?category_id=abc", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Event](t, w))
}

func TestDeleteEvent(t *testing.T) {
	env := newTestEnv(t)
	ev := env.createEvent(t, `{"title":"x","date":"2024-05-01"}`)
	path := fmt.Sprintf("/api/events/%d", ev.ID)

	w := env.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[okBody](t, w).OK)

	w = env.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCategoryCRUD(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/categories", `{"description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "name is required", errorOf(t, w))

	w = env.do(t, http.MethodPost, "/api/categories", `{"name":" Work ","description":"office"}`)
	require.Equal(t, http.StatusCreated, w.Code)
	work := decode[model.Category](t, w)
	assert.Equal(t, "Work", work.Name)
	require.NotNil(t, work.Description)
	assert.Equal(t, "office", *work.Description)

	w = env.do(t, http.MethodPost, "/api/categories", `{"name":"Work"}`)
	assert.Equal(t, http.StatusConflict, w.Code)

	path := fmt.Sprintf("/api/categories/%d", work.ID)
	w = env.do(t, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Work", decode[model.Category](t, w).Name)

	w = env.do(t, http.MethodPut, path, `{"name":"Job"}`)
	require.Equal(t, http.StatusOK, w.Code)
	job := decode[model.Category](t, w)
	assert.Equal(t, "Job", job.Name)
	assert.Nil(t, job.Description)

	w = env.do(t, http.MethodPut, path, `{"name":""}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodPut, "/api/categories/4242", `{"name":"Ghost"}`)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Category not found", errorOf(t, w))

	w = env.do(t, http.MethodDelete, path, "")
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	w = env.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDeleteCategoryInUse(t *testing.T) {
	env := newTestEnv(t)
	ev := env.createEvent(t, `{"title":"Exam","date":"2024-05-01","category":"Study"}`)
	path := fmt.Sprintf("/api/categories/%d", *ev.CategoryID)

	w := env.do(t, http.MethodDelete, path, "")
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Cannot delete category: it is used by events", errorOf(t, w))

	w = env.do(t, http.MethodGet, path, "")
	assert.Equal(t, http.StatusOK, w.Code)
	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/events/%d", ev.ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Study", *decode[model.Event](t, w).Category)
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("dial tcp: connection refused") }

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/health", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"ok":true,"db":"connected"}`, w.Body.String())

	h := NewHandler(nil, nil, failingPinger{})
	router := NewRouter(h, RouterConfig{CORSOrigin: "*"})
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"ok":false,"db":"disconnected","error":"dial tcp: connection refused"}`, w.Body.String())
}

func TestUnknownRoute(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not found", errorOf(t, w))
}

// parallel sends n requests at once and returns the status codes by count,
// along with one failure body per status.
func (e *testEnv) parallel(n int, req func(i int) (method, path, body string)) (map[int]int, map[int]string) {
	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		codes  = map[int]int{}
		bodies = map[int]string{}
	)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			method, path, body := req(i)
			r := httptest.NewRequest(method, path, strings.NewReader(body))
			r.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			e.router.ServeHTTP(w, r)

			mu.Lock()
			defer mu.Unlock()
			codes[w.Code]++
			bodies[w.Code] = w.Body.String()
		}(i)
	}
	wg.Wait()
	return codes, bodies
}

func TestConcurrentPatchesWithCategories(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 10; i++ {
		env.createEvent(t, fmt.Sprintf(`{"title":"e%d","date":"2024-05-01"}`, i))
	}

	codes, bodies := env.parallel(200, func(i int) (string, string, string) {
		return http.MethodPatch, fmt.Sprintf("/api/events/%d", i%10+1), fmt.Sprintf(`{"category":"C%d","notes":"n"}`, i%7)
	})
	assert.Equal(t, map[int]int{http.StatusOK: 200}, codes, bodies)

	w := env.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Category](t, w), 7)
}

func TestConcurrentCreatesShareNewCategory(t *testing.T) {
	env := newTestEnv(t)

	codes, bodies := env.parallel(50, func(i int) (string, string, string) {
		return http.MethodPost, "/api/events", fmt.Sprintf(`{"title":"e%d","date":"2024-05-01","category":"Same"}`, i)
	})
	assert.Equal(t, map[int]int{http.StatusCreated: 50}, codes, bodies)

	w := env.do(t, http.MethodGet, "/api/categories", "")
	require.Equal(t, http.StatusOK, w.Code)
	categories := decode[[]model.Category](t, w)
	require.Len(t, categories, 1)
	assert.Equal(t, "Same", categories[0].Name)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/api/events?category_id=%d", categories[0].ID), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]model.Event](t, w), 50)
}

func TestCreateEventRejectsOverlongTime(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/events", `{"title":"x","date":"2024-05-01","time":"10:00:00.000 extra"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "time must be at most 8 characters (HH:MM)", errorOf(t, w))

	w = env.do(t, http.MethodGet, "/api/events", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]model.Event](t, w))
}
