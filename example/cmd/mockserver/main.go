// Standalone mock load balancer for testing the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/cookieprof run --hook lb:node1 --cookie lb http://localhost:9999/
package main

import (
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"
)

func main() {
	fmt.Println("Mock load balancer starting on :9999")
	fmt.Println("Backends: node1, node2, node3 (round-robin, sticky on lb cookie)")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	var (
		nodes = []string{"node1", "node2", "node3"}
		mu    sync.Mutex
		next  int
	)

	known := func(name string) bool {
		for _, n := range nodes {
			if n == name {
				return true
			}
		}
		return false
	}

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(time.Duration(20+rand.Intn(80)) * time.Millisecond)

		node := ""
		if c, err := r.Cookie("lb"); err == nil && known(c.Value) {
			node = c.Value
		} else {
			mu.Lock()
			node = nodes[next%len(nodes)]
			next++
			mu.Unlock()
			http.SetCookie(w, &http.Cookie{Name: "lb", Value: node, Path: "/"})
		}

		fmt.Fprintf(w, "served by %s\n", node)
	})

	if err := http.ListenAndServe(":9999", nil); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}
