package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/jhalloran/cookieprof"
	"github.com/jhalloran/cookieprof/config"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"
)

// newLogger creates a JSON logger for CLI use.
//
// When logFile is non-empty, logs go to a size-rotated file so they do
// not fight the live terminal display for the screen. Otherwise they go
// to stderr.
func newLogger(logFile string) *slog.Logger {
	var out io.Writer = os.Stderr
	if logFile != "" {
		out = &lumberjack.Logger{
			Filename:   logFile,
			MaxSize:    10, // megabytes
			MaxBackups: 3,
			MaxAge:     7, // days
		}
	}
	return slog.New(slog.NewJSONHandler(out, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// runCmd starts polling and renders live per-site statistics.
var runCmd = &cobra.Command{
	Use:   "run [url ...]",
	Short: "Poll sites and profile their affinity cookies",
	Long: `Poll sites continuously and profile their affinity cookies.

Sites come either from a YAML config file (-c) or from URLs given
directly on the command line. The two are mutually exclusive.

While running, each site gets a terminal block showing response count,
latency and the distribution of cookie values seen so far. On
interrupt (Ctrl+C) or SIGTERM the full report is written to the output
file before exit.

Examples:
  cookieprof run https://www.example.com
  cookieprof run --session --hook lb:node1 https://www.example.com
  cookieprof run -c drill.yaml
  cookieprof run -c drill.yaml --log-file cookieprof.json`,
	RunE: runRun,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringP("config", "c", "", "path to config file")
	runCmd.Flags().Bool("session", false, "enable session-affine tracking (URL mode)")
	runCmd.Flags().String("hook", "", "session hook as name:value (URL mode, implies --session)")
	runCmd.Flags().String("cookie", "", "restrict summaries to this cookie name")
	runCmd.Flags().DurationP("timeout", "t", 10*time.Second, "stall deadline and sweep interval")
	runCmd.Flags().StringP("out", "o", "log.txt", "path the final report is written to")
	runCmd.Flags().String("log-file", "", "write JSON logs to this rotated file instead of stderr")
	runCmd.Flags().Bool("plain", false, "append display blocks instead of clearing the screen")
}

func runRun(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	logFile, _ := cmd.Flags().GetString("log-file")
	plain, _ := cmd.Flags().GetBool("plain")

	if configFile != "" && len(args) > 0 {
		return fmt.Errorf("cannot combine a config file with command line URLs")
	}
	if configFile == "" && len(args) == 0 {
		return fmt.Errorf("no sites: pass URLs or a config file with -c")
	}

	logger := newLogger(logFile)

	var sites []cookieprof.Site
	cookieName, _ := cmd.Flags().GetString("cookie")
	timeout, _ := cmd.Flags().GetDuration("timeout")
	outPath, _ := cmd.Flags().GetString("out")

	if configFile != "" {
		cfg, err := config.Load(configFile)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		sites, err = config.BuildSites(cfg)
		if err != nil {
			return fmt.Errorf("failed to build sites: %w", err)
		}

		// config values win over flag defaults, explicit flags win over both
		if !cmd.Flags().Changed("timeout") {
			timeout = cfg.Timeout.Duration()
		}
		if !cmd.Flags().Changed("cookie") {
			cookieName = cfg.Cookie
		}
		if !cmd.Flags().Changed("out") {
			outPath = cfg.Out
		}

		logger.Info("config loaded",
			"sites", len(cfg.Sites),
			"grids", len(cfg.Grids),
		)
	} else {
		var err error
		sites, err = sitesFromArgs(cmd, args)
		if err != nil {
			return err
		}
	}

	if len(sites) == 0 {
		return fmt.Errorf("no sites configured")
	}

	logger.Info("starting profiler",
		"sites", len(sites),
		"timeout", timeout.String(),
		"out", outPath,
	)

	opts := []cookieprof.Option{
		cookieprof.WithSites(sites...),
		cookieprof.WithTimeout(timeout),
		cookieprof.WithLogger(logger),
		cookieprof.WithDisplay(os.Stdout, !plain),
	}
	if cookieName != "" {
		opts = append(opts, cookieprof.WithCookieName(cookieName))
	}

	prof, err := cookieprof.New(opts...)
	if err != nil {
		return fmt.Errorf("failed to create profiler: %w", err)
	}

	// cancel on SIGINT/SIGTERM
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// blocks until context cancelled
	if err := prof.Start(ctx); err != nil {
		return fmt.Errorf("profiler error: %w", err)
	}

	if err := writeReport(outPath, prof.Reports()); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	logger.Info("report written", "path", outPath)
	return nil
}

// sitesFromArgs builds Site values from positional URLs, applying the
// --session and --hook flags to each.
func sitesFromArgs(cmd *cobra.Command, args []string) ([]cookieprof.Site, error) {
	session, _ := cmd.Flags().GetBool("session")
	hook, _ := cmd.Flags().GetString("hook")

	var siteOpts []cookieprof.SiteOption
	if hook != "" {
		siteOpts = append(siteOpts, cookieprof.WithHook(hook))
	} else if session {
		siteOpts = append(siteOpts, cookieprof.WithSessionTracking())
	}

	sites := make([]cookieprof.Site, 0, len(args))
	seen := make(map[string]int)
	for _, raw := range args {
		name, err := siteName(raw, seen)
		if err != nil {
			return nil, err
		}

		site, err := cookieprof.NewSite(name, raw, siteOpts...)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// siteName derives a display name from a URL's host, numbering
// duplicates so every site name stays unique.
func siteName(rawURL string, seen map[string]int) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("invalid URL %q: %w", rawURL, err)
	}

	name := u.Host
	if name == "" {
		name = rawURL
	}

	seen[name]++
	if n := seen[name]; n > 1 {
		name = fmt.Sprintf("%s #%d", name, n)
	}
	return name, nil
}

// writeReport writes the final per-site report to path, one block per
// site separated by a blank line.
func writeReport(path string, reports []cookieprof.Report) error {
	var b strings.Builder
	for i, r := range reports {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "=== %s (%s)\n%s\n", r.SiteName, r.URL, r.Summary)
	}
	return os.WriteFile(path, []byte(b.String()), 0644)
}
