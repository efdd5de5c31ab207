package ocr_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/valpere/perelay/internal/ocr"
	"github.com/valpere/perelay/internal/poll"
)

func fastPoll() poll.Policy {
	return poll.Policy{Initial: time.Millisecond, Multiplier: 1, Cap: time.Millisecond, MaxAttempts: 20}
}

func TestAsyncDoc_SubmitAndPoll(t *testing.T) {
	var checks atomic.Int32

	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]string{
			"job_id":    "job-1",
			"check_url": srv.URL + "/v1/jobs/job-1",
		})
	})
	mux.HandleFunc("/v1/jobs/job-1", func(w http.ResponseWriter, r *http.Request) {
		// Two rounds of "processing" before completion.
		if checks.Add(1) < 3 {
			json.NewEncoder(w).Encode(map[string]string{"status": "processing"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"status": "complete",
			"result": map[string]any{
				"pages": []map[string]string{{"markdown": "# Recognized\n\nJob output text."}},
			},
		})
	})

	b := ocr.NewAsyncDocBackend(ocr.AsyncDocConfig{Endpoint: srv.URL, APIKey: "k", Poll: fastPoll()})
	res, err := b.Process(context.Background(), []byte("img"), "image/png")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(res.Markdown, "Job output text.") {
		t.Errorf("markdown = %q", res.Markdown)
	}
	if checks.Load() < 3 {
		t.Errorf("expected at least 3 status checks, got %d", checks.Load())
	}
}

func TestAsyncDoc_JobFailed(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"job_id":    "job-2",
			"check_url": srv.URL + "/v1/jobs/job-2",
		})
	})
	mux.HandleFunc("/v1/jobs/job-2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "failed", "error": "corrupt file"})
	})

	b := ocr.NewAsyncDocBackend(ocr.AsyncDocConfig{Endpoint: srv.URL, APIKey: "k", Poll: fastPoll()})
	_, err := b.Process(context.Background(), []byte("img"), "image/png")
	if err == nil {
		t.Fatal("expected error for failed job")
	}
	if !strings.Contains(err.Error(), "corrupt file") {
		t.Errorf("error should carry the backend reason: %v", err)
	}
}

func TestAsyncDoc_CompleteWithZeroPages(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"job_id":    "job-3",
			"check_url": srv.URL + "/v1/jobs/job-3",
		})
	})
	mux.HandleFunc("/v1/jobs/job-3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"status": "complete",
			"result": map[string]any{"pages": []map[string]string{}},
		})
	})

	b := ocr.NewAsyncDocBackend(ocr.AsyncDocConfig{Endpoint: srv.URL, APIKey: "k", Poll: fastPoll()})
	_, err := b.Process(context.Background(), []byte("img"), "image/png")
	if err == nil {
		t.Fatal("expected error for zero-page completion")
	}
	if !strings.Contains(err.Error(), "zero pages") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAsyncDoc_MissingCheckURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"job_id": "job-4"})
	}))
	t.Cleanup(srv.Close)

	b := ocr.NewAsyncDocBackend(ocr.AsyncDocConfig{Endpoint: srv.URL, APIKey: "k", Poll: fastPoll()})
	if _, err := b.Process(context.Background(), []byte("img"), "image/png"); err == nil {
		t.Fatal("expected error when submit response has no check URL")
	}
}

func TestAsyncDoc_PollExhaustion(t *testing.T) {
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/v1/jobs", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"job_id":    "job-5",
			"check_url": srv.URL + "/v1/jobs/job-5",
		})
	})
	mux.HandleFunc("/v1/jobs/job-5", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "processing"})
	})

	cfg := ocr.AsyncDocConfig{Endpoint: srv.URL, APIKey: "k", Poll: fastPoll()}
	cfg.Poll.MaxAttempts = 3
	b := ocr.NewAsyncDocBackend(cfg)

	_, err := b.Process(context.Background(), []byte("img"), "image/png")
	if !errors.Is(err, poll.ErrExhausted) {
		t.Fatalf("expected poll exhaustion, got %v", err)
	}
}
