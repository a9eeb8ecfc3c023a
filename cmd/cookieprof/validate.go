package main

import (
	"fmt"

	"github.com/jhalloran/cookieprof/config"
	"github.com/spf13/cobra"
)

// validateCmd validates a config file without starting the profiler.
var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a config file",
	Long: `Validate a cookieprof configuration file without polling anything.

This command parses the YAML, expands environment variables, and validates
all fields. It's useful for CI/CD pipelines or pre-drill checks.

Exit codes:
  0 - Config is valid
  1 - Config is invalid (error details printed to stderr)

Example:
  cookieprof validate -c drill.yaml
  cookieprof validate --config /etc/cookieprof/drill.yaml`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().StringP("config", "c", "", "path to config file (required)")
	_ = validateCmd.MarkFlagRequired("config")
}

func runValidate(cmd *cobra.Command, args []string) error {
	configFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configFile)
	if err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	// Count total sites (direct + from grids)
	directSites := len(cfg.Sites)
	gridSites := 0
	for _, g := range cfg.Grids {
		// Calculate cartesian product size
		size := 1
		for _, vals := range g.Dimensions {
			size *= len(vals)
		}
		gridSites += size
	}

	fmt.Printf("Config is valid!\n")
	fmt.Printf("  Timeout: %s\n", cfg.Timeout.Duration())
	if cfg.Cookie != "" {
		fmt.Printf("  Cookie:  %s\n", cfg.Cookie)
	}
	fmt.Printf("  Report:  %s\n", cfg.Out)
	fmt.Printf("  Sites:   %d direct + %d from grids = %d total\n",
		directSites, gridSites, directSites+gridSites)

	return nil
}
