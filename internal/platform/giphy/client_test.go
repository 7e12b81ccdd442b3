package giphy

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

const samplePayload = `{"data":[{"id":"abc","title":"happy cat",
	"images":{"fixed_height":{"url":"https://media.test/abc/200.gif"},
	"original":{"url":"https://media.test/abc/full.gif"}}}]}`

func TestClient_Search_UsesSearchEndpoint(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gifs/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("q") != "cat" {
			t.Errorf("expected query cat, got %q", q.Get("q"))
		}
		if q.Get("api_key") != "key-1" {
			t.Errorf("expected api key forwarded, got %q", q.Get("api_key"))
		}
		if q.Get("limit") != "20" {
			t.Errorf("expected default limit 20, got %q", q.Get("limit"))
		}
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	client := NewClient("key-1", srv.URL)
	gifs, err := client.Search(context.Background(), "cat", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(gifs) != 1 {
		t.Fatalf("expected 1 gif, got %d", len(gifs))
	}
	if gifs[0].Preview != "https://media.test/abc/200.gif" {
		t.Errorf("expected fixed-height preview, got %s", gifs[0].Preview)
	}
	if gifs[0].Original != "https://media.test/abc/full.gif" {
		t.Errorf("expected original url, got %s", gifs[0].Original)
	}
}

func TestClient_Search_EmptyQueryIsTrending(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/gifs/trending" {
			t.Errorf("expected trending endpoint, got %s", r.URL.Path)
		}
		w.Write([]byte(samplePayload))
	}))
	defer srv.Close()

	client := NewClient("key-1", srv.URL)
	if _, err := client.Search(context.Background(), "", 20); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestClient_Search_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	client := NewClient("key-1", srv.URL)
	if _, err := client.Search(context.Background(), "cat", 20); err == nil {
		t.Fatal("expected error on upstream failure")
	}
}
