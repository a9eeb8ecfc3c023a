package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jhalloran/cookieprof"
)

func main() {
	// start mock load balancer (see mock_server.go)
	go StartMockLoadBalancer(":9999", "lb", []string{"node1", "node2", "node3"})
	time.Sleep(100 * time.Millisecond)

	// two views of the same balancer: one fresh-client stream only, one
	// with a session-affine stream gated on landing on node1
	plain, err := cookieprof.NewSite("round robin", "http://localhost:9999/")
	if err != nil {
		slog.Error("failed to create site", "error", err)
		os.Exit(1)
	}
	sticky, err := cookieprof.NewSite("sticky", "http://localhost:9999/",
		cookieprof.WithHook("lb:node1"),
	)
	if err != nil {
		slog.Error("failed to create site", "error", err)
		os.Exit(1)
	}

	// keep logs out of the live display
	logFile, err := os.Create("example.log")
	if err != nil {
		slog.Error("failed to create log file", "error", err)
		os.Exit(1)
	}
	defer logFile.Close()
	logger := slog.New(slog.NewJSONHandler(logFile, nil))

	prof, err := cookieprof.New(
		cookieprof.WithSites(plain, sticky),
		cookieprof.WithTimeout(5*time.Second),
		cookieprof.WithCookieName("lb"),
		cookieprof.WithDisplay(os.Stdout, true),
		cookieprof.WithLogger(logger),
	)
	if err != nil {
		slog.Error("failed to create profiler", "error", err)
		os.Exit(1)
	}

	fmt.Println("cookieprof demo: polling a mock sticky load balancer on :9999")
	fmt.Println("Press Ctrl+C to stop and print the final report")
	fmt.Println()

	// set up context with signal handling for graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := prof.Start(ctx); err != nil {
		slog.Error("cookieprof error", "error", err)
		os.Exit(1)
	}

	// final report with every observed cookie value
	fmt.Println()
	for _, r := range prof.Reports() {
		fmt.Printf("=== %s (%s)\n%s\n\n", r.SiteName, r.URL, r.Summary)
	}
}
