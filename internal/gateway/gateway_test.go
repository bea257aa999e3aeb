package gateway

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/soochol/litsearch-mcp/internal/litsearcherr"
)

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(200)
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	g := New(NewRateLimiter(HostPolicy{RefillRate: 100, Burst: 100}), "test-agent/1.0")
	resp, err := g.Fetch(context.Background(), srv.URL, "GET", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.Status != 200 || string(resp.Body) != "ok" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(404)
	}))
	defer srv.Close()

	g := New(NewRateLimiter(HostPolicy{RefillRate: 100, Burst: 100}), "test-agent/1.0")
	_, err := g.Fetch(context.Background(), srv.URL, "GET", nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if !litsearcherr.Is(err, litsearcherr.Upstream) {
		t.Errorf("expected Upstream kind, got %v", litsearcherr.KindOf(err))
	}
	if calls != 1 {
		t.Errorf("expected exactly one attempt for 4xx, got %d", calls)
	}
}

func TestFetch_ServerErrorRetriesThenSucceeds(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			w.WriteHeader(503)
			return
		}
		w.WriteHeader(200)
		w.Write([]byte("recovered"))
	}))
	defer srv.Close()

	g := New(NewRateLimiter(HostPolicy{RefillRate: 100, Burst: 100}), "test-agent/1.0")
	g2 := g
	// The gateway keeps the default backoff (500ms base, doubling, +-20% jitter),
	// so the two retries here wait 1.2s-1.8s in total, acceptable for a short test.
	resp, err := g2.Fetch(context.Background(), srv.URL, "GET", nil, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(resp.Body) != "recovered" {
		t.Fatalf("unexpected body: %s", resp.Body)
	}
	if calls != 3 {
		t.Errorf("expected 3 attempts, got %d", calls)
	}
}

func TestFetch_OversizeBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 100))
	}))
	defer srv.Close()

	g := New(NewRateLimiter(HostPolicy{RefillRate: 100, Burst: 100}), "test-agent/1.0", WithMaxBodyBytes(10))
	_, err := g.Fetch(context.Background(), srv.URL, "GET", nil, nil)
	if err == nil {
		t.Fatal("expected oversize error")
	}
	if !litsearcherr.Is(err, litsearcherr.Upstream) {
		t.Errorf("expected Upstream kind for oversize, got %v", litsearcherr.KindOf(err))
	}
}

func TestFetch_Coalescing(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		w.WriteHeader(200)
		w.Write([]byte("shared"))
	}))
	defer srv.Close()

	g := New(NewRateLimiter(HostPolicy{RefillRate: 100, Burst: 100}), "test-agent/1.0")

	results := make(chan *Response, 2)
	for i := 0; i < 2; i++ {
		go func() {
			resp, err := g.Fetch(context.Background(), srv.URL, "GET", nil, nil)
			if err != nil {
				t.Errorf("unexpected error: %v", err)
				results <- nil
				return
			}
			results <- resp
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)

	for i := 0; i < 2; i++ {
		resp := <-results
		if resp == nil || string(resp.Body) != "shared" {
			t.Fatalf("unexpected coalesced response: %+v", resp)
		}
	}
	if calls != 1 {
		t.Errorf("expected exactly 1 upstream call, got %d", calls)
	}
}

func TestRateLimiter_BlocksUntilTokenAvailable(t *testing.T) {
	rl := NewRateLimiter(HostPolicy{RefillRate: 10, Burst: 1})
	ctx := context.Background()
	if err := rl.Acquire(ctx, "example.com"); err != nil {
		t.Fatal(err)
	}
	start := time.Now()
	if err := rl.Acquire(ctx, "example.com"); err != nil {
		t.Fatal(err)
	}
	if elapsed := time.Since(start); elapsed < 50*time.Millisecond {
		t.Errorf("expected to wait for refill, only waited %v", elapsed)
	}
}

func TestRateLimiter_TimesOut(t *testing.T) {
	rl := NewRateLimiter(HostPolicy{RefillRate: 0.1, Burst: 1})
	ctx := context.Background()
	_ = rl.Acquire(ctx, "slow.example.com")

	ctx2, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := rl.Acquire(ctx2, "slow.example.com")
	if err == nil {
		t.Fatal("expected timeout error")
	}
}
