package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// mockLB is a small fake load balancer for demos.
//
// Requests without an affinity cookie are assigned a backend node
// round-robin and get a Set-Cookie in the response. Requests that
// replay the cookie stay pinned to their node, like a sticky balancer
// in front of a real pool.
type mockLB struct {
	cookieName string
	nodes      []string

	mu   sync.Mutex
	next int
}

func newMockLB(cookieName string, nodes []string) *mockLB {
	return &mockLB{cookieName: cookieName, nodes: nodes}
}

// assign returns the next node round-robin.
func (lb *mockLB) assign() string {
	lb.mu.Lock()
	defer lb.mu.Unlock()
	node := lb.nodes[lb.next%len(lb.nodes)]
	lb.next++
	return node
}

// knownNode reports whether name is one of the configured backends.
func (lb *mockLB) knownNode(name string) bool {
	for _, n := range lb.nodes {
		if n == name {
			return true
		}
	}
	return false
}

func (lb *mockLB) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// simulate small latency variance
	time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)

	node := ""
	if c, err := r.Cookie(lb.cookieName); err == nil && lb.knownNode(c.Value) {
		// sticky: a replayed cookie stays pinned
		node = c.Value
	} else {
		node = lb.assign()
		http.SetCookie(w, &http.Cookie{
			Name:  lb.cookieName,
			Value: node,
			Path:  "/",
		})
	}

	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintf(w, "served by %s\n", node)
}

// StartMockLoadBalancer runs a sticky mock load balancer on addr.
// Call this in a goroutine before creating cookieprof sites.
func StartMockLoadBalancer(addr, cookieName string, nodes []string) {
	mux := http.NewServeMux()
	mux.Handle("/", newMockLB(cookieName, nodes))

	if err := http.ListenAndServe(addr, mux); err != nil {
		slog.Error("mock load balancer error", "error", err)
	}
}
