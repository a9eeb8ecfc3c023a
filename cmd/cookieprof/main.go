// Package main is the entry point for the cookieprof CLI.
//
// cookieprof can be run either as a library (SDK) or as a standalone binary.
// This CLI provides the standalone binary approach.
//
// Usage:
//
//	cookieprof run https://www.example.com     # Poll a single site
//	cookieprof run -c drill.yaml               # Poll sites from config
//	cookieprof validate -c drill.yaml          # Validate configuration
//	cookieprof version                         # Show version info
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information - set by GoReleaser at build time via ldflags.
// Example: go build -ldflags "-X main.version=1.0.0"
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCmd is the base command when called without subcommands.
// It just displays help - actual functionality is in subcommands.
var rootCmd = &cobra.Command{
	Use:   "cookieprof",
	Short: "A load balancer session affinity profiler",
	Long: `cookieprof continuously polls HTTP sites and profiles the cookies
the load balancer in front of them hands out.

For each site it drives two parallel request streams: a session-less
stream that presents no cookies (each poll looks like a brand new
client) and, when session tracking is enabled, a session-affine stream
that replays cookies like a returning browser would. Comparing the two
shows whether affinity is sticky, how traffic spreads across nodes,
and whether failover redirects clients away.

Quick start:
  1. cookieprof run --session https://www.example.com
  2. Watch the per-site terminal blocks update live
  3. Ctrl+C writes the full report to log.txt

Example config:
  timeout: 10s
  cookie: lb
  sites:
    - name: primary
      url: https://www.example.com
      session: true
      hook: "lb:node1"`,
	// No Run/RunE means this just shows help when called without subcommands
}

// Execute runs the root command.
// This is the main entry point called from main().
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		// Cobra already prints the error, just exit with code 1
		os.Exit(1)
	}
}

func main() {
	Execute()
}

// versionCmd prints version information.
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print the version, commit hash, and build date of this cookieprof binary.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("cookieprof %s\n", version)
		fmt.Printf("  commit: %s\n", commit)
		fmt.Printf("  built:  %s\n", date)
	},
}

func init() {
	// Register subcommands with root
	rootCmd.AddCommand(versionCmd)
}
