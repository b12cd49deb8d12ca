package fetch

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"bdtdharvest/internal/logging"
)

const (
	testInterval      = 10 * time.Millisecond
	testRetryInterval = 50 * time.Millisecond
)

// sleepRecorder replaces the fetcher's sleep so tests can count delays
// instead of waiting for them.
type sleepRecorder struct {
	delays []time.Duration
}

func (s *sleepRecorder) sleep(_ context.Context, d time.Duration) {
	s.delays = append(s.delays, d)
}

func newTestFetcher(t *testing.T, maxRetries int) (*Fetcher, *sleepRecorder) {
	t.Helper()
	f := New(Options{
		Headers:       map[string]string{"User-Agent": "test-agent"},
		Timeout:       time.Second,
		MaxRetries:    maxRetries,
		Interval:      testInterval,
		RetryInterval: testRetryInterval,
	}, logging.NewWithWriter(io.Discard, "error"))

	rec := &sleepRecorder{}
	f.sleep = rec.sleep
	return f, rec
}

func TestGetSuccess(t *testing.T) {
	t.Parallel()

	var gotAgent atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAgent.Store(r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte("<html>ok</html>"))
	}))
	defer server.Close()

	f, rec := newTestFetcher(t, 3)
	res := f.Get(context.Background(), server.URL)

	require.Equal(t, "test-agent", gotAgent.Load())
	require.True(t, res.OK())
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, []byte("<html>ok</html>"), res.Body)
	require.Equal(t, 1, res.Attempts)

	// exactly one rate-limit pause, no retry pauses
	require.Equal(t, []time.Duration{testInterval}, rec.delays)
}

func TestGetRetriesExhausted(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	f, rec := newTestFetcher(t, 3)
	res := f.Get(context.Background(), server.URL)

	require.False(t, res.OK())
	require.Equal(t, 3, res.Attempts)
	require.EqualValues(t, 3, calls.Load())

	// the inter-retry delay runs between attempts only: R-1 times
	require.Equal(t, []time.Duration{testRetryInterval, testRetryInterval}, rec.delays)
}

func TestGetPermanentFailureShortCircuits(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f, rec := newTestFetcher(t, 3)
	res := f.Get(context.Background(), server.URL)

	require.False(t, res.OK())
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	require.Equal(t, 1, res.Attempts)
	require.EqualValues(t, 1, calls.Load())
	require.Empty(t, rec.delays)
}

func TestGetRecoversAfterTransientFailure(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("recovered"))
	}))
	defer server.Close()

	f, rec := newTestFetcher(t, 3)
	res := f.Get(context.Background(), server.URL)

	require.True(t, res.OK())
	require.Equal(t, 3, res.Attempts)
	require.Equal(t, []byte("recovered"), res.Body)
	require.Equal(t, []time.Duration{testRetryInterval, testRetryInterval, testInterval}, rec.delays)
}

func TestGetReportsFinalURLAfterRedirect(t *testing.T) {
	t.Parallel()

	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landed", http.StatusFound)
	})
	mux.HandleFunc("/landed", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("here"))
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	f, _ := newTestFetcher(t, 1)
	res := f.Get(context.Background(), server.URL+"/start")

	require.True(t, res.OK())
	require.Equal(t, server.URL+"/landed", res.FinalURL)
}

func TestGetTransportError(t *testing.T) {
	t.Parallel()

	f, rec := newTestFetcher(t, 2)
	// a closed server guarantees a connection error
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := server.URL
	server.Close()

	res := f.Get(context.Background(), deadURL)

	require.False(t, res.OK())
	require.Error(t, res.Err)
	require.Equal(t, 2, res.Attempts)
	require.Equal(t, []time.Duration{testRetryInterval}, rec.delays)
}
