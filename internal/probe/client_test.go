package probe

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestClient_Get(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	res := client.Get(context.Background(), server.URL, NewJar())
	if res.Err != nil {
		t.Fatalf("Get() error = %v", res.Err)
	}
	if res.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, http.StatusOK)
	}
}

func TestClient_SetsUserAgent(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	res := client.Get(context.Background(), server.URL, NewJar())
	if res.Err != nil {
		t.Fatalf("Get() error = %v", res.Err)
	}
	if gotUA != "cookieprof" {
		t.Errorf("User-Agent = %q, want %q", gotUA, "cookieprof")
	}
}

// TestClient_JarCapturesCookies verifies the caller's jar accumulates
// server cookies and replays them on subsequent requests.
func TestClient_JarCapturesCookies(t *testing.T) {
	var sawReplay bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if c, err := r.Cookie("lb"); err == nil && c.Value == "node1" {
			sawReplay = true
			return
		}
		http.SetCookie(w, &http.Cookie{Name: "lb", Value: "node1", Path: "/"})
	}))
	defer server.Close()

	client := NewClient()
	defer client.Close()

	jar := NewJar()
	res := client.Get(context.Background(), server.URL, jar)
	if res.Err != nil {
		t.Fatalf("first Get() error = %v", res.Err)
	}
	if len(res.Cookies) != 1 || res.Cookies[0].Name != "lb" || res.Cookies[0].Value != "node1" {
		t.Fatalf("Cookies = %v, want lb=node1", res.Cookies)
	}

	// same jar: the cookie must be replayed
	res = client.Get(context.Background(), server.URL, jar)
	if res.Err != nil {
		t.Fatalf("second Get() error = %v", res.Err)
	}
	if !sawReplay {
		t.Error("server did not see the cookie replayed")
	}

	// fresh jar: no cookie presented
	sawReplay = false
	res = client.Get(context.Background(), server.URL, NewJar())
	if res.Err != nil {
		t.Fatalf("fresh jar Get() error = %v", res.Err)
	}
	if sawReplay {
		t.Error("fresh jar replayed a cookie from another jar")
	}
}

// TestClient_DoesNotFollowRedirects verifies a 3xx surfaces as-is with
// its Location header instead of being followed.
func TestClient_DoesNotFollowRedirects(t *testing.T) {
	var targetHit bool
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/elsewhere", http.StatusFound)
	})
	mux.HandleFunc("/elsewhere", func(w http.ResponseWriter, r *http.Request) {
		targetHit = true
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	client := NewClient()
	defer client.Close()

	res := client.Get(context.Background(), server.URL, NewJar())
	if res.Err != nil {
		t.Fatalf("Get() error = %v", res.Err)
	}
	if res.StatusCode != http.StatusFound {
		t.Errorf("StatusCode = %d, want %d", res.StatusCode, http.StatusFound)
	}
	if loc := res.Header.Get("Location"); !strings.Contains(loc, "/elsewhere") {
		t.Errorf("Location = %q, want it to point at /elsewhere", loc)
	}
	if targetHit {
		t.Error("redirect was followed")
	}
}

func TestClient_TransportErrorInResult(t *testing.T) {
	client := NewClient()
	defer client.Close()

	// closed server guarantees a connect failure
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	res := client.Get(context.Background(), url, NewJar())
	if res.Err == nil {
		t.Fatal("Get() against closed server returned nil error")
	}
	if res.StatusCode != 0 {
		t.Errorf("failed request StatusCode = %d, want 0", res.StatusCode)
	}
}

func TestClient_ContextCancellation(t *testing.T) {
	block := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer server.Close()
	defer close(block)

	client := NewClient()
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	res := client.Get(ctx, server.URL, NewJar())
	if res.Err == nil {
		t.Fatal("Get() with cancelled context returned nil error")
	}
}

func TestClient_InvalidURL(t *testing.T) {
	client := NewClient()
	defer client.Close()

	res := client.Get(context.Background(), "http://[::1]:namedport", NewJar())
	if res.Err == nil {
		t.Fatal("Get() with invalid URL returned nil error")
	}
}
