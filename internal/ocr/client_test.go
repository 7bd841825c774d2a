package ocr

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
)

type fakeOCRServer struct {
	mu        sync.Mutex
	created   int
	uploaded  int
	processed int
	polled    int
	deleted   int

	pendingPolls int
	failProcess  bool
	results      []engineResult
}

func (f *fakeOCRServer) handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/recognitions", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.created++
		f.mu.Unlock()
		json.NewEncoder(w).Encode(map[string]string{"id": "rec-1"})
	})
	mux.HandleFunc("POST /v1/recognitions/rec-1/file", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.uploaded++
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("POST /v1/recognitions/rec-1/process", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.processed++
		fail := f.failProcess
		f.mu.Unlock()
		if fail {
			http.Error(w, "engine farm unavailable", http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusAccepted)
	})
	mux.HandleFunc("GET /v1/recognitions/rec-1/results", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.polled++
		pending := f.polled <= f.pendingPolls
		results := f.results
		f.mu.Unlock()
		if pending {
			json.NewEncoder(w).Encode(resultsResponse{Status: "processing"})
			return
		}
		json.NewEncoder(w).Encode(resultsResponse{Status: "done", Results: results})
	})
	mux.HandleFunc("DELETE /v1/recognitions/rec-1", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.deleted++
		f.mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	})

	return mux
}

func newTestClient(url string) *Client {
	c := NewClient(url, "test-key", 5*time.Second)
	c.pollInterval = time.Millisecond
	return c
}

func TestRecognize(t *testing.T) {
	t.Run("picks the engine with highest mean confidence", func(t *testing.T) {
		fake := &fakeOCRServer{
			results: []engineResult{
				{Engine: "tesseract", Blocks: []string{"Nr.ap.  Suprafata", "1  50,5"}, Confidences: []float64{0.6, 0.7}},
				{Engine: "abbyy", Blocks: []string{"Nr.ap.  Suprafata", "1  50,5"}, Confidences: []float64{0.9, 0.95}},
			},
		}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		result, err := newTestClient(srv.URL).Recognize(context.Background(), "scan.pdf", []byte("pdf"))
		require.NoError(t, err)

		assert.Equal(t, "abbyy", result.Engine)
		assert.InDelta(t, 0.925, result.MeanConfidence, 1e-9)
		assert.Contains(t, result.Text, "50,5")
		assert.Equal(t, 1, fake.deleted, "session must be torn down")
	})

	t.Run("polls until recognition is done", func(t *testing.T) {
		fake := &fakeOCRServer{
			pendingPolls: 3,
			results: []engineResult{
				{Engine: "tesseract", Blocks: []string{"a b c"}, Confidences: []float64{0.5}},
			},
		}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		_, err := newTestClient(srv.URL).Recognize(context.Background(), "scan.pdf", []byte("pdf"))
		require.NoError(t, err)
		assert.Equal(t, 4, fake.polled)
	})

	t.Run("tears the session down when processing fails", func(t *testing.T) {
		fake := &fakeOCRServer{failProcess: true}
		srv := httptest.NewServer(fake.handler())
		defer srv.Close()

		_, err := newTestClient(srv.URL).Recognize(context.Background(), "scan.pdf", []byte("pdf"))
		require.Error(t, err)
		assert.Equal(t, 1, fake.deleted, "teardown must run on the failure path too")
	})

	t.Run("fails when the collaborator is unreachable", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")
		_, err := client.Recognize(context.Background(), "scan.pdf", []byte("pdf"))
		assert.Error(t, err)
	})
}

func TestBreaker(t *testing.T) {
	t.Run("opens after consecutive failures and fails fast", func(t *testing.T) {
		client := newTestClient("http://127.0.0.1:1")
		client.breaker = newBreaker(2, time.Minute)

		for i := 0; i < 2; i++ {
			_, err := client.Recognize(context.Background(), "scan.pdf", []byte("pdf"))
			require.Error(t, err)
		}

		_, err := client.Recognize(context.Background(), "scan.pdf", []byte("pdf"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "circuit open")
	})

	t.Run("closes again after the cool-down", func(t *testing.T) {
		b := newBreaker(1, 10*time.Millisecond)
		b.RecordFailure()
		assert.False(t, b.Allow())
		time.Sleep(20 * time.Millisecond)
		assert.True(t, b.Allow())
	})
}

func TestPickBest(t *testing.T) {
	t.Run("ignores engines without blocks", func(t *testing.T) {
		best := pickBest([]engineResult{
			{Engine: "tesseract", Blocks: nil, Confidences: []float64{0.99}},
			{Engine: "abbyy", Blocks: []string{"text"}, Confidences: []float64{0.4}},
		})
		require.NotNil(t, best)
		assert.Equal(t, "abbyy", best.Engine)
	})

	t.Run("nil when nothing usable", func(t *testing.T) {
		assert.Nil(t, pickBest(nil))
	})
}
