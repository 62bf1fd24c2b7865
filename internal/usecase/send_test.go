package usecase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func freshPage() *mockPage {
	return &mockPage{
		slug: "post-1",
		url:  "https://example.test/post-1",
		date: time.Now().Add(-24 * time.Hour),
	}
}

func TestSendTooOldSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendService(srv.URL, 14, 10*time.Second, nil)
	page := freshPage()
	page.date = time.Now().Add(-20 * 24 * time.Hour)

	got := s.Send(context.Background(), page)
	if got.Success {
		t.Fatalf("expected failure for a 20 day old page")
	}
	if !strings.Contains(got.Message, "too old") {
		t.Fatalf("message: got %q", got.Message)
	}
	if calls != 0 {
		t.Fatalf("pre-check failure must not reach the network, got %d calls", calls)
	}
}

func TestSendNoBridgeSkipsNetwork(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusAccepted)
	}))
	defer srv.Close()

	s := NewSendService(srv.URL, 14, 10*time.Second, nil)
	page := freshPage()
	page.noBridge = true

	got := s.Send(context.Background(), page)
	if got.Success {
		t.Fatalf("expected failure when nobridge is set")
	}
	if calls != 0 {
		t.Fatalf("nobridge must not reach the network")
	}
}

func TestSendSuccessStatuses(t *testing.T) {
	for _, status := range []int{http.StatusCreated, http.StatusAccepted} {
		var form map[string][]string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if ct := r.Header.Get("Content-Type"); ct != "application/x-www-form-urlencoded" {
				t.Errorf("content type: got %q", ct)
			}
			r.ParseForm()
			form = r.PostForm
			w.WriteHeader(status)
		}))

		s := NewSendService(srv.URL, 14, 10*time.Second, nil)
		got := s.Send(context.Background(), freshPage())
		srv.Close()

		if !got.Success {
			t.Fatalf("status %d: expected success, got %q", status, got.Message)
		}
		if form["source"][0] != "https://example.test/post-1" {
			t.Fatalf("source form field: got %v", form["source"])
		}
		if form["target"][0] != bridgeTarget {
			t.Fatalf("target form field: got %v", form["target"])
		}
	}
}

func TestSendFailureCarriesStatusAndBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("bridge unavailable"))
	}))
	defer srv.Close()

	s := NewSendService(srv.URL, 14, 10*time.Second, nil)
	got := s.Send(context.Background(), freshPage())

	if got.Success {
		t.Fatalf("expected failure for 502")
	}
	if got.Message != "HTTP 502: bridge unavailable" {
		t.Fatalf("message: got %q", got.Message)
	}
}

func TestSendEmptyBodyReportsNoResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := NewSendService(srv.URL, 14, 10*time.Second, nil)
	got := s.Send(context.Background(), freshPage())

	if got.Message != "HTTP 500: No response" {
		t.Fatalf("message: got %q", got.Message)
	}
}

func TestSendTransportErrorNeverRaises(t *testing.T) {
	s := NewSendService("http://127.0.0.1:1", 14, time.Second, nil)
	got := s.Send(context.Background(), freshPage())

	if got.Success {
		t.Fatalf("expected failure for unreachable bridge")
	}
	if !strings.HasPrefix(got.Message, "Exception: ") {
		t.Fatalf("message: got %q", got.Message)
	}
}

func TestSendReplyTargetsRemotePost(t *testing.T) {
	var form map[string][]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.ParseForm()
		form = r.PostForm
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	s := NewSendService(srv.URL, 14, 10*time.Second, nil)

	// Replies skip the age check.
	page := freshPage()
	page.date = time.Now().Add(-365 * 24 * time.Hour)

	got := s.SendReply(context.Background(), page, "https://remote.example/@user/123")
	if !got.Success {
		t.Fatalf("expected success, got %q", got.Message)
	}
	if form["target"][0] != "https://remote.example/@user/123" {
		t.Fatalf("target: got %v", form["target"])
	}
}

func TestSendReplyHonorsNoBridge(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))
	defer srv.Close()

	s := NewSendService(srv.URL, 14, 10*time.Second, nil)
	page := freshPage()
	page.noBridge = true

	got := s.SendReply(context.Background(), page, "https://remote.example/@user/123")
	if got.Success || calls != 0 {
		t.Fatalf("nobridge must block replies too")
	}
}
