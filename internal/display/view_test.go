package display

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jhalloran/cookieprof/internal/store"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// syncBuffer guards a bytes.Buffer so the test can read while the view
// goroutine writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestView_RendersPendingSites(t *testing.T) {
	st := store.NewMemoryStore()
	var buf bytes.Buffer

	v := New(st, &buf, []string{"alpha", "beta"}, false, testLogger())
	v.redraw()

	out := buf.String()
	if !strings.Contains(out, "=== alpha\nwaiting for first poll") {
		t.Errorf("output missing pending block for alpha:\n%s", out)
	}
	if !strings.Contains(out, "=== beta\nwaiting for first poll") {
		t.Errorf("output missing pending block for beta:\n%s", out)
	}
}

func TestView_RendersSummaryBlocks(t *testing.T) {
	st := store.NewMemoryStore()
	st.Update(store.SiteStatus{
		Name:    "alpha",
		URL:     "https://alpha.example.com",
		Summary: "responses:   3\navg latency: 0.150s",
	})

	var buf bytes.Buffer
	v := New(st, &buf, []string{"alpha"}, false, testLogger())
	v.redraw()

	out := buf.String()
	want := "=== alpha (https://alpha.example.com)\nresponses:   3\navg latency: 0.150s\n"
	if out != want {
		t.Errorf("redraw output = %q, want %q", out, want)
	}
}

func TestView_BlocksSeparatedByBlankLine(t *testing.T) {
	st := store.NewMemoryStore()
	st.Update(store.SiteStatus{Name: "alpha", URL: "http://a", Summary: "responses:   1"})
	st.Update(store.SiteStatus{Name: "beta", URL: "http://b", Summary: "responses:   2"})

	var buf bytes.Buffer
	v := New(st, &buf, []string{"alpha", "beta"}, false, testLogger())
	v.redraw()

	out := buf.String()
	if !strings.Contains(out, "responses:   1\n\n=== beta") {
		t.Errorf("blocks not separated by a blank line:\n%s", out)
	}
}

func TestView_ANSIClearsScreen(t *testing.T) {
	st := store.NewMemoryStore()
	var buf bytes.Buffer

	v := New(st, &buf, []string{"alpha"}, true, testLogger())
	v.redraw()

	if !strings.HasPrefix(buf.String(), clearScreen) {
		t.Errorf("ANSI redraw does not start with clear sequence: %q", buf.String())
	}
}

func TestView_OrderIsConfigurationOrder(t *testing.T) {
	st := store.NewMemoryStore()
	// store updates in reverse order
	st.Update(store.SiteStatus{Name: "beta", URL: "http://b", Summary: "x"})
	st.Update(store.SiteStatus{Name: "alpha", URL: "http://a", Summary: "y"})

	var buf bytes.Buffer
	v := New(st, &buf, []string{"alpha", "beta"}, false, testLogger())
	v.redraw()

	out := buf.String()
	if strings.Index(out, "=== alpha") > strings.Index(out, "=== beta") {
		t.Errorf("sites not in configuration order:\n%s", out)
	}
}

// TestView_RedrawsOnUpdates verifies the running view redraws after a
// store update and exits on context cancellation.
func TestView_RedrawsOnUpdates(t *testing.T) {
	st := store.NewMemoryStore()
	buf := &syncBuffer{}

	v := New(st, buf, []string{"alpha"}, false, testLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		v.Run(ctx)
	}()

	// wait for the initial draw, then push an update
	waitFor(t, func() bool { return strings.Contains(buf.String(), "waiting for first poll") })

	st.Update(store.SiteStatus{Name: "alpha", URL: "http://a", Summary: "responses:   1"})
	waitFor(t, func() bool { return strings.Contains(buf.String(), "responses:   1") })

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("view did not exit on context cancellation")
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}
