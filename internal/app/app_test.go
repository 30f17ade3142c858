package app

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyellow/companion-nlu-go/internal/config"
	"github.com/garyellow/companion-nlu-go/internal/course"
	"github.com/garyellow/companion-nlu-go/internal/engine"
	apperrors "github.com/garyellow/companion-nlu-go/internal/errors"
	"github.com/garyellow/companion-nlu-go/internal/logger"
	"github.com/garyellow/companion-nlu-go/internal/metrics"
	"github.com/garyellow/companion-nlu-go/internal/model"
	"github.com/garyellow/companion-nlu-go/internal/nlu"
	"github.com/garyellow/companion-nlu-go/internal/ratelimit"
	"github.com/garyellow/companion-nlu-go/internal/session"
	"github.com/garyellow/companion-nlu-go/internal/storage"
)

// setupTestApp creates an Application backed by an in-memory database,
// rule-based model services and no background jobs.
func setupTestApp(t *testing.T, perMinute int) (*Application, *gin.Engine) {
	t.Helper()

	db, err := storage.NewTestDB()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	events := make(chan course.AmbiguityEvent, 8)

	a := &Application{
		cfg:      &config.Config{MetricsUsername: "prometheus"},
		logger:   logger.NewWithWriter("error", io.Discard),
		db:       db,
		metrics:  m,
		registry: registry,
		inbox:    session.NewInbox(10, time.Minute),
		events:   events,
		limiter: ratelimit.NewKeyedLimiter(ratelimit.KeyedConfig{
			Name:      "user",
			PerMinute: perMinute,
			Burst:     1,
			Metrics:   m,
		}),
		provider: config.ProviderLocal,
	}
	a.sessions = session.NewManager(session.Config{
		Engine: engine.Config{
			Services: model.RuleServices(nil),
			Events:   events,
			Metrics:  m,
		},
		Store: db,
	})
	return a, a.newRouter()
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var r io.Reader = http.NoBody
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	w := do(t, router, http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alive", decode[map[string]any](t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = do(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	ready := decode[map[string]any](t, w)
	assert.Equal(t, "ready", ready["status"])
	assert.Equal(t, "connected", ready["database"])

	w = do(t, router, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestReady_DatabaseClosed(t *testing.T) {
	t.Parallel()
	a, router := setupTestApp(t, 0)
	require.NoError(t, a.db.Close())

	w := do(t, router, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestRequestIDPropagated(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(requestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, "req-123", w.Header().Get(requestIDHeader))
}

func TestParse_WithStoredRoster(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	w := do(t, router, http.MethodPut, "/v1/users/u1/courses", coursesRequest{
		Courses: []string{"Organic Chemistry", "organic chemistry", "Calculus II"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Organic Chemistry", "Calculus II"}, decode[map[string]any](t, w)["courses"])

	w = do(t, router, http.MethodPut, "/v1/users/u1/aliases/Orgo", aliasRequest{Course: "Organic Chemistry"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "orgo", decode[map[string]any](t, w)["alias"])

	w = do(t, router, http.MethodPost, "/v1/parse", parseRequest{
		UserID: "u1",
		Text:   "got 44.5 percent on the orgo midterm worth 20%",
	})
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[parseResponse](t, w)
	assert.Equal(t, nlu.IntentGradeTracking, got.Intent)
	assert.Equal(t, nlu.Entities{
		nlu.SlotCourseName:    "Organic Chemistry",
		nlu.SlotAssignment:    "midterm",
		nlu.SlotScoreValue:    "44.5",
		nlu.SlotWeightPercent: "20",
	}, got.Entities)
	assert.Equal(t, nlu.SourceKeywordNoModel, got.Source)
	assert.InDelta(t, 0.5, got.Confidence, 1e-9)
	assert.Empty(t, got.MissingFields)
	assert.Empty(t, got.FollowUp)
}

func TestParse_FollowUp(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	w := do(t, router, http.MethodPost, "/v1/parse", parseRequest{UserID: "u2", Text: "got 92% on the quiz"})
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[parseResponse](t, w)
	assert.Equal(t, nlu.IntentGradeTracking, got.Intent)
	require.NotEmpty(t, got.MissingFields)
	assert.Equal(t, nlu.SlotCourseName, got.MissingFields[0])
	assert.Equal(t, "Which course is this for?", got.FollowUp)
}

func TestParse_Empty(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	w := do(t, router, http.MethodPost, "/v1/parse", parseRequest{UserID: "u1", Text: "  "})
	require.Equal(t, http.StatusOK, w.Code)

	got := decode[parseResponse](t, w)
	assert.Equal(t, nlu.IntentUnknown, got.Intent)
	assert.Equal(t, nlu.SourceEmpty, got.Source)
	assert.NotNil(t, got.MissingFields)
	assert.Empty(t, got.MissingFields)
}

func TestParse_BadRequests(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	w := do(t, router, http.MethodPost, "/v1/parse", parseRequest{Text: "hello"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["error"], "user_id")

	req := httptest.NewRequest(http.MethodPost, "/v1/parse", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestParse_RateLimited(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 1)

	body := parseRequest{UserID: "u1", Text: "got 92% on the quiz"}
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/v1/parse", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(t, router, http.MethodPost, "/v1/parse", body).Code)

	body.UserID = "u2"
	assert.Equal(t, http.StatusOK, do(t, router, http.MethodPost, "/v1/parse", body).Code)
}

func TestIntentFields(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	w := do(t, router, http.MethodGet, "/v1/intents/event_reminder/fields", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"EVENT", "TIME"}, decode[map[string]any](t, w)["fields"])

	w = do(t, router, http.MethodGet, "/v1/intents/unknown/fields", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode[map[string]any](t, w)["fields"])

	w = do(t, router, http.MethodGet, "/v1/intents/chitchat/fields", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[map[string]any](t, w)["error"], "unknown intent")
}

func TestRequestIntent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		label string
		want  nlu.Intent
	}{
		{"grade_tracking", nlu.IntentGradeTracking},
		{" Event_Reminder ", nlu.IntentEventReminder},
		{"unknown", nlu.IntentUnknown},
		{"UNKNOWN", nlu.IntentUnknown},
	}
	for _, tt := range tests {
		got, err := requestIntent(tt.label)
		require.NoError(t, err, tt.label)
		assert.Equal(t, tt.want, got)
	}

	for _, label := range []string{"", "chitchat"} {
		_, err := requestIntent(label)
		assert.ErrorIs(t, err, apperrors.ErrUnknownIntent, label)
	}
}

func TestMissingFields(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	w := do(t, router, http.MethodPost, "/v1/missing", missingRequest{
		Intent:   "event_reminder",
		Entities: map[string]string{"EVENT": "call mom"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[map[string]any](t, w)
	assert.Equal(t, []any{"TIME"}, got["missing_fields"])
	assert.Equal(t, []any{"What time should I remind you?"}, got["questions"])

	w = do(t, router, http.MethodPost, "/v1/missing", missingRequest{
		Intent:   "grade_tracking",
		Entities: map[string]string{"COURSE_CODE": "CS101", "ASSIGNMENT": "quiz", "SCORE_VALUE": "90", "WEIGHT": "10"},
	})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode[map[string]any](t, w)["missing_fields"])

	w = do(t, router, http.MethodPost, "/v1/missing", missingRequest{Intent: "unknown"})
	require.Equal(t, http.StatusOK, w.Code)
	got = decode[map[string]any](t, w)
	assert.Equal(t, []any{}, got["missing_fields"])
	assert.Equal(t, []any{}, got["questions"])

	w = do(t, router, http.MethodPost, "/v1/missing", missingRequest{Intent: "chitchat"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoursesAndAliases(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	w := do(t, router, http.MethodGet, "/v1/users/u1/courses", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{}, decode[map[string]any](t, w)["courses"])

	do(t, router, http.MethodPut, "/v1/users/u1/courses", coursesRequest{
		Courses: []string{"Organic Chemistry", "Linear Algebra", "Physical Chemistry"},
	})

	w = do(t, router, http.MethodGet, "/v1/users/u1/courses?q=chem", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []any{"Organic Chemistry", "Physical Chemistry"}, decode[map[string]any](t, w)["courses"])

	w = do(t, router, http.MethodPut, "/v1/users/u1/aliases/linalg", aliasRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, router, http.MethodPut, "/v1/users/u1/aliases/linalg", aliasRequest{Course: "Linear Algebra"})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, router, http.MethodDelete, "/v1/users/u1/aliases/linalg", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = do(t, router, http.MethodDelete, "/v1/users/u1/aliases/linalg", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestReplaceCourses_ReloadsCachedSession(t *testing.T) {
	t.Parallel()
	_, router := setupTestApp(t, 0)

	do(t, router, http.MethodPut, "/v1/users/u1/courses", coursesRequest{Courses: []string{"Biology"}})
	w := do(t, router, http.MethodPost, "/v1/parse", parseRequest{UserID: "u1", Text: "calc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotEqual(t, "Calculus II", decode[parseResponse](t, w).Entities.Get(nlu.SlotCourseName))

	do(t, router, http.MethodPut, "/v1/users/u1/courses", coursesRequest{Courses: []string{"Calculus II"}})
	w = do(t, router, http.MethodPost, "/v1/parse", parseRequest{UserID: "u1", Text: "calc"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Calculus II", decode[parseResponse](t, w).Entities.Get(nlu.SlotCourseName))
}

func TestAmbiguityInbox(t *testing.T) {
	t.Parallel()
	a, router := setupTestApp(t, 0)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go a.inbox.Run(ctx, a.events)

	w := do(t, router, http.MethodGet, "/v1/users/u3/ambiguity", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	do(t, router, http.MethodPut, "/v1/users/u3/courses", coursesRequest{Courses: []string{"Organic Chemistry"}})
	w = do(t, router, http.MethodPost, "/v1/parse", parseRequest{UserID: "u3", Text: "got 90 on the pottery quiz"})
	require.Equal(t, http.StatusOK, w.Code)

	var ev course.AmbiguityEvent
	require.Eventually(t, func() bool {
		w := do(t, router, http.MethodGet, "/v1/users/u3/ambiguity", nil)
		if w.Code != http.StatusOK {
			return false
		}
		ev = decode[course.AmbiguityEvent](t, w)
		return true
	}, time.Second, 5*time.Millisecond)

	assert.Equal(t, "u3", ev.Owner)
	assert.Equal(t, "got 90 on the pottery quiz", ev.Raw)
	assert.Equal(t, []string{"Organic Chemistry"}, ev.Roster)

	w = do(t, router, http.MethodGet, "/v1/users/u3/ambiguity", nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}
