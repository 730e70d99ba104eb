package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstrumentHandlerUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(InstrumentHandler("test"))
	r.Get("/posts/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequests.WithLabelValues("test", "GET", "/posts/{id}", "404"))
	for _, path := range []string{"/posts/1", "/posts/2"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues("test", "GET", "/posts/{id}", "404"))

	assert.Equal(t, 2.0, after-before)
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordBatch(2, 1)
	RecordJobRun("session_cleanup", true)
	WSConnected("test")
	WSDisconnected("test")

	srv := httptest.NewServer(Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Contains(t, string(body), "blogstack_async_batch_items_total")
	assert.Contains(t, string(body), "blogstack_jobs_runs_total")
}
