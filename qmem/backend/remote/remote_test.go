package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/becomeliminal/qmem-go-sdk/qmem"
)

// queueServer is a minimal in-memory job queue: jobs advance one state per
// status poll, QUEUED -> RUNNING -> <final>.
type queueServer struct {
	mu        sync.Mutex
	submitted []submitRequest
	headers   []http.Header
	polls     map[string]int
	final     string
	counts    map[string]int
}

func newQueueServer(final string, counts map[string]int) *queueServer {
	return &queueServer{polls: make(map[string]int), final: final, counts: counts}
}

func (s *queueServer) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /jobs", func(w http.ResponseWriter, r *http.Request) {
		var req submitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.submitted = append(s.submitted, req)
		s.headers = append(s.headers, r.Header.Clone())
		id := "job-1"
		s.mu.Unlock()
		json.NewEncoder(w).Encode(jobResponse{ID: id, Status: "queued"})
	})
	mux.HandleFunc("GET /jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		s.mu.Lock()
		s.polls[id]++
		n := s.polls[id]
		s.mu.Unlock()
		status := "queued"
		switch {
		case n == 2:
			status = "running"
		case n > 2:
			status = s.final
		}
		json.NewEncoder(w).Encode(jobResponse{ID: id, Status: status})
	})
	mux.HandleFunc("GET /jobs/{id}/result", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(resultResponse{Counts: s.counts})
	})
	return mux
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	client, err := New(Config{
		BaseURL: srv.URL,
		Backend: "test-qpu",
		Credentials: qmem.RemoteCredentials{
			Token:    "secret-token",
			Identity: "alice",
		},
		HTTPClient: srv.Client(),
	})
	require.NoError(t, err)
	return client
}

func TestRunSubmitsProgramWithAuth(t *testing.T) {
	qs := newQueueServer("completed", map[string]int{"00": 16})
	srv := httptest.NewServer(qs.handler())
	defer srv.Close()
	client := newTestClient(t, srv)

	circ := qmem.NewCircuit("slot-2", 2)
	circ.Rotate(qmem.AxisY, 1.5, 0)
	job, err := client.Run(context.Background(), circ.WithMeasurement(), 16)

	require.NoError(t, err)
	assert.Equal(t, "job-1", job.ID())
	require.Len(t, qs.submitted, 1)
	assert.Equal(t, "test-qpu", qs.submitted[0].Backend)
	assert.Equal(t, 16, qs.submitted[0].Shots)
	assert.Contains(t, qs.submitted[0].Program, "OPENQASM 2.0;")
	assert.Contains(t, qs.submitted[0].Program, "ry(1.5) q[0];")
	assert.Contains(t, qs.submitted[0].Program, "measure q[1] -> c[1];")
	assert.Equal(t, "Bearer secret-token", qs.headers[0].Get("Authorization"))
	assert.NotEmpty(t, qs.headers[0].Get("Idempotency-Key"))
}

func TestJobCompletesThroughPolling(t *testing.T) {
	qs := newQueueServer("completed", map[string]int{"01": 10, "00": 6})
	srv := httptest.NewServer(qs.handler())
	defer srv.Close()
	client := newTestClient(t, srv)

	job, err := client.Run(context.Background(), qmem.NewCircuit("c", 2).WithMeasurement(), 16)
	require.NoError(t, err)

	state, err := qmem.AwaitJob(context.Background(), job, time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, qmem.JobDone, state)

	counts, err := job.Result(context.Background())
	require.NoError(t, err)
	assert.Equal(t, qmem.Counts{"01": 10, "00": 6}, counts)
}

func TestJobReportsBackendFailure(t *testing.T) {
	qs := newQueueServer("failed", nil)
	srv := httptest.NewServer(qs.handler())
	defer srv.Close()
	client := newTestClient(t, srv)

	job, err := client.Run(context.Background(), qmem.NewCircuit("c", 1).WithMeasurement(), 4)
	require.NoError(t, err)

	state, err := qmem.AwaitJob(context.Background(), job, time.Millisecond, time.Second)
	require.NoError(t, err)
	assert.Equal(t, qmem.JobError, state)
}

func TestClientSurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()
	client := newTestClient(t, srv)

	_, err := client.Run(context.Background(), qmem.NewCircuit("c", 1).WithMeasurement(), 4)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Backend: "b", Credentials: qmem.RemoteCredentials{Token: "t"}})
	assert.Error(t, err, "missing base URL")

	_, err = New(Config{BaseURL: "http://q", Credentials: qmem.RemoteCredentials{Token: "t"}})
	assert.Error(t, err, "missing backend name")

	_, err = New(Config{BaseURL: "http://q", Backend: "b"})
	assert.Error(t, err, "missing token")
}

func TestMapStatus(t *testing.T) {
	cases := map[string]qmem.JobState{
		"queued":    qmem.JobQueued,
		"pending":   qmem.JobQueued,
		"running":   qmem.JobRunning,
		"completed": qmem.JobDone,
		"done":      qmem.JobDone,
		"failed":    qmem.JobError,
		"cancelled": qmem.JobCancelled,
	}
	for wire, want := range cases {
		got, err := mapStatus(wire)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := mapStatus("exploded")
	assert.Error(t, err)
}
