package providers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// accessLogRecorder captures which log channel each request line hits.
type accessLogRecorder struct {
	testLogger
	types []TypeEnum
}

func (l *accessLogRecorder) Infof(t TypeEnum, _ string, _ ...interface{}) {
	l.types = append(l.types, t)
}

func TestMetricsMiddleware_CountsRequests(t *testing.T) {
	metrics := &testMetrics{}
	handler := MetricsMiddleware(&testLogger{}, metrics, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusCreated, rr.Code)
	assert.Equal(t, 1, metrics.requests)
}

func TestMetricsMiddleware_DefaultStatusIs200(t *testing.T) {
	metrics := &testMetrics{}
	handler := MetricsMiddleware(&testLogger{}, metrics, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/chart", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 1, metrics.requests)
}

func TestMetricsMiddleware_LogsRequestsPerChannel(t *testing.T) {
	logger := &accessLogRecorder{}
	handler := MetricsMiddleware(logger, &testMetrics{}, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/chart", nil))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/comment", nil))

	require.Len(t, logger.types, 2)
	assert.Equal(t, TypeGet, logger.types[0])
	assert.Equal(t, TypePost, logger.types[1])
}

func TestHttpStatusBucket(t *testing.T) {
	assert.Equal(t, "1xx", httpStatusBucket(100))
	assert.Equal(t, "2xx", httpStatusBucket(201))
	assert.Equal(t, "3xx", httpStatusBucket(302))
	assert.Equal(t, "4xx", httpStatusBucket(404))
	assert.Equal(t, "5xx", httpStatusBucket(500))
}
