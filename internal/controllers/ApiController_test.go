package controllers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lfd/internal/models"
	"lfd/internal/providers"
	"lfd/internal/services"
	"lfd/internal/structures"
	"lfd/internal/testutil"
)

// --- local mocks (scoped to controller tests) ---

type mockLogger struct{}

func (m *mockLogger) Errorf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Warnf(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Debugf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Infof(_ providers.TypeEnum, _ string, _ ...interface{})  {}
func (m *mockLogger) Fatalf(_ providers.TypeEnum, _ string, _ ...interface{}) {}
func (m *mockLogger) Close()                                                  {}

type mockCache struct {
	data map[string][]byte
}

func newMockCache() *mockCache                     { return &mockCache{data: make(map[string][]byte)} }
func (m *mockCache) Get(key string) ([]byte, bool) { v, ok := m.data[key]; return v, ok }
func (m *mockCache) Set(key string, value []byte)  { m.data[key] = value }

// --- helpers ---

func testConfig() *structures.Config {
	return &structures.Config{
		Feedback: structures.FeedbackConfig{
			FlushInterval: 10 * time.Second,
			LectureTTL:    time.Hour,
		},
	}
}

type controllerFixture struct {
	feedback   services.FeedbackServiceInterface
	discussion services.DiscussionServiceInterface
	archiver   *testutil.MockArchiver
	cache      *mockCache
	metrics    *testutil.MockMetrics
	ac         *ApiController
}

func newFixture() *controllerFixture {
	conf := testConfig()
	f := &controllerFixture{
		feedback:   services.NewFeedbackService(conf),
		discussion: services.NewDiscussionService(conf),
		archiver:   testutil.NewMockArchiver(),
		cache:      newMockCache(),
		metrics:    testutil.NewMockMetrics(),
	}
	f.ac = NewApiController(&mockLogger{}, f.feedback, f.discussion, f.archiver, f.cache, f.metrics)
	f.ac.nowMs = func() int64 { return 123456 }
	return f
}

// --- ReceiveFeedback tests ---

func TestReceiveFeedback_ValidPayload(t *testing.T) {
	f := newFixture()

	payload := `{"lec":"algebra","timestampMs":5000,"type":"GOOD"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	f.ac.ReceiveFeedback(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, f.feedback.GetBufferSize())
}

func TestReceiveFeedback_LectureFromQuery(t *testing.T) {
	f := newFixture()

	payload := `{"timestampMs":0,"type":"BAD"}`
	req := httptest.NewRequest(http.MethodPost, "/?lec=algebra", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	f.ac.ReceiveFeedback(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	f.feedback.FlushEvents()
	assert.Len(t, f.feedback.GetEvents("algebra"), 1)
}

func TestReceiveFeedback_InvalidJSON(t *testing.T) {
	f := newFixture()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{nope"))
	rr := httptest.NewRecorder()

	f.ac.ReceiveFeedback(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestReceiveFeedback_UnknownType(t *testing.T) {
	f := newFixture()

	payload := `{"timestampMs":0,"type":"SHRUG"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	f.ac.ReceiveFeedback(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1, f.metrics.MalformedRecords)
}

// --- GetChart tests ---

func TestGetChart_UnknownLectureIsEmptyChart(t *testing.T) {
	f := newFixture()

	rr := httptest.NewRecorder()
	f.ac.GetChart(rr, httptest.NewRequest(http.MethodGet, "/chart?lec=nope", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var chart models.Chart
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chart))
	assert.Empty(t, chart.IntervalsSec)
	assert.JSONEq(t, `{"intervalsSec":[],"goodCounts":[],"badCounts":[],"tooFastCounts":[],"tooSlowCounts":[]}`, rr.Body.String())
}

func TestGetChart_BucketsEvents(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.feedback.AddEvent(&models.FeedbackEvent{Lecture: "algebra", TimestampMs: 0, Type: models.TypeGood}))
	require.NoError(t, f.feedback.AddEvent(&models.FeedbackEvent{Lecture: "algebra", TimestampMs: 15000, Type: models.TypeTooFast}))
	f.feedback.FlushEvents()

	rr := httptest.NewRecorder()
	f.ac.GetChart(rr, httptest.NewRequest(http.MethodGet, "/chart?lec=algebra", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var chart models.Chart
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chart))
	assert.Equal(t, []int64{0, 10}, chart.IntervalsSec)
	assert.Equal(t, []int{1, 0}, chart.GoodCounts)
	assert.Equal(t, []int{0, 1}, chart.TooFastCounts)
}

func TestGetChart_ServedFromCache(t *testing.T) {
	f := newFixture()
	f.cache.Set("chart:algebra", []byte(`{"cached":true}`))

	rr := httptest.NewRecorder()
	f.ac.GetChart(rr, httptest.NewRequest(http.MethodGet, "/chart?lec=algebra", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, `{"cached":true}`, rr.Body.String())
}

func TestGetChart_RestoresFromArchive(t *testing.T) {
	f := newFixture()
	f.archiver.Archived["algebra"] = &models.LectureData{
		Events:   []*models.FeedbackEvent{{Lecture: "algebra", TimestampMs: 0, Type: models.TypeBad}},
		Comments: []*models.Comment{},
	}

	rr := httptest.NewRecorder()
	f.ac.GetChart(rr, httptest.NewRequest(http.MethodGet, "/chart?lec=algebra", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var chart models.Chart
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &chart))
	assert.Equal(t, []int{1}, chart.BadCounts)
	// Moved back into memory, gone from the archive.
	assert.NotContains(t, f.archiver.Archived, "algebra")
}

// --- ReceiveComment tests ---

func TestReceiveComment_AssignsIDAndTimestamp(t *testing.T) {
	f := newFixture()

	payload := `{"type":"ROOT","content":"first!"}`
	req := httptest.NewRequest(http.MethodPost, "/comment?lec=algebra", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	f.ac.ReceiveComment(rr, req)

	require.Equal(t, http.StatusCreated, rr.Code)
	var created models.Comment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID())
	assert.Equal(t, int64(123456), created.CreatedMs)
	assert.Equal(t, 1, f.discussion.CommentCount("algebra"))
}

func TestReceiveComment_ReplyLinksToParent(t *testing.T) {
	f := newFixture()

	_, err := f.discussion.AddComments("algebra", []*models.Comment{
		{Key: models.CommentKey{ID: "c1"}, Type: models.CommentRoot},
	})
	require.NoError(t, err)

	payload := `{"commentKey":{"id":"c2"},"parentKey":{"value":{"id":"c1"}},"type":"REPLY"}`
	req := httptest.NewRequest(http.MethodPost, "/comment?lec=algebra", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	f.ac.ReceiveComment(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	thread := f.discussion.GetThread("algebra")
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
	assert.Equal(t, "c2", thread[0].Replies[0].ID())
}

func TestReceiveComment_OrphanedReplyIsConflict(t *testing.T) {
	f := newFixture()

	payload := `{"commentKey":{"id":"c2"},"parentKey":{"value":{"id":"ghost"}},"type":"REPLY"}`
	req := httptest.NewRequest(http.MethodPost, "/comment?lec=algebra", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	f.ac.ReceiveComment(rr, req)
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, 1, f.metrics.OrphanedReplies)
}

func TestReceiveComment_UnknownTypeIsBadRequest(t *testing.T) {
	f := newFixture()

	payload := `{"commentKey":{"id":"c1"},"type":"SHOUT"}`
	req := httptest.NewRequest(http.MethodPost, "/comment", strings.NewReader(payload))
	rr := httptest.NewRecorder()

	f.ac.ReceiveComment(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, 1, f.metrics.MalformedRecords)
}

func TestReceiveComment_DuplicateIsOK(t *testing.T) {
	f := newFixture()

	payload := `{"commentKey":{"id":"c1"},"type":"ROOT"}`
	req := httptest.NewRequest(http.MethodPost, "/comment?lec=algebra", strings.NewReader(payload))
	rr := httptest.NewRecorder()
	f.ac.ReceiveComment(rr, req)
	require.Equal(t, http.StatusCreated, rr.Code)

	req = httptest.NewRequest(http.MethodPost, "/comment?lec=algebra", strings.NewReader(payload))
	rr = httptest.NewRecorder()
	f.ac.ReceiveComment(rr, req)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, f.discussion.CommentCount("algebra"))
}

// --- GetComments / GetThread tests ---

func TestGetComments_FlatWireShape(t *testing.T) {
	f := newFixture()
	_, err := f.discussion.AddComments("algebra", []*models.Comment{
		{Key: models.CommentKey{ID: "c1"}, Type: models.CommentRoot, CreatedMs: 100},
		{Key: models.CommentKey{ID: "c2"}, Type: models.CommentReply, ParentRef: &models.ParentKey{Value: &models.CommentKey{ID: "c1"}}, CreatedMs: 200},
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	f.ac.GetComments(rr, httptest.NewRequest(http.MethodGet, "/comments?lec=algebra", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	body := rr.Body.String()
	assert.Contains(t, body, `"commentKey":{"id":"c1"}`)
	assert.Contains(t, body, `"parentKey":{"value":{"id":"c1"}}`)
	assert.NotContains(t, body, `"replies"`)
}

func TestGetComments_SinceFilter(t *testing.T) {
	f := newFixture()
	_, err := f.discussion.AddComments("algebra", []*models.Comment{
		{Key: models.CommentKey{ID: "c1"}, Type: models.CommentRoot, CreatedMs: 100},
		{Key: models.CommentKey{ID: "c2"}, Type: models.CommentRoot, CreatedMs: 200},
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	f.ac.GetComments(rr, httptest.NewRequest(http.MethodGet, "/comments?lec=algebra&since=150", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var comments []*models.Comment
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &comments))
	require.Len(t, comments, 1)
	assert.Equal(t, "c2", comments[0].ID())
}

func TestGetComments_UnknownLectureIsEmptyList(t *testing.T) {
	f := newFixture()

	rr := httptest.NewRecorder()
	f.ac.GetComments(rr, httptest.NewRequest(http.MethodGet, "/comments?lec=nope", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())
}

func TestGetThread_NestedShape(t *testing.T) {
	f := newFixture()
	_, err := f.discussion.AddComments("algebra", []*models.Comment{
		{Key: models.CommentKey{ID: "c1"}, Type: models.CommentRoot},
		{Key: models.CommentKey{ID: "c2"}, Type: models.CommentReply, ParentRef: &models.ParentKey{Value: &models.CommentKey{ID: "c1"}}},
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	f.ac.GetThread(rr, httptest.NewRequest(http.MethodGet, "/thread?lec=algebra", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var thread []*models.ThreadNode
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &thread))
	require.Len(t, thread, 1)
	require.Len(t, thread[0].Replies, 1)
}

// --- GetLectures tests ---

func TestGetLectures_UnionOfBothServices(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.feedback.AddEvent(&models.FeedbackEvent{Lecture: "algebra", TimestampMs: 0, Type: models.TypeGood}))
	f.feedback.FlushEvents()
	_, err := f.discussion.AddComments("biology", []*models.Comment{
		{Key: models.CommentKey{ID: "c1"}, Type: models.CommentRoot},
	})
	require.NoError(t, err)

	rr := httptest.NewRecorder()
	f.ac.GetLectures(rr, httptest.NewRequest(http.MethodGet, "/lectures", nil))

	require.Equal(t, http.StatusOK, rr.Code)
	var lectures []string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &lectures))
	assert.Equal(t, []string{"algebra", "biology"}, lectures)
}
