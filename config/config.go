// Package config provides YAML configuration parsing for cookieprof.
//
// This package enables running cookieprof as a standalone binary with a
// configuration file, as an alternative to the programmatic SDK approach.
//
// Example configuration:
//
//	timeout: 10s
//	cookie: lb
//
//	sites:
//	  - name: primary
//	    url: https://www.example.com
//	    session: true
//	    hook: "lb:node1"
//
//	grids:
//	  - name: node
//	    url_template: "https://{{.node}}.example.com"
//	    dimensions:
//	      node: [web1, web2]
//	    session: true
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strings"
	"text/template"
	"time"

	"gopkg.in/yaml.v3"
)

// minTimeout is the minimum allowed stall deadline. The sweep runs at
// this interval; anything shorter would cancel healthy slow responses.
const minTimeout = 1 * time.Second

// Config is the root configuration structure for cookieprof.
//
// It maps directly to the YAML configuration file structure.
// Use [Load] or [Parse] to create a Config from YAML.
type Config struct {
	// Timeout is the stall deadline and sweep interval.
	// Accepts duration strings like "10s", "1m", "500ms".
	// Defaults to 10s.
	Timeout Duration `yaml:"timeout"`

	// Cookie optionally restricts summaries to one cookie name.
	Cookie string `yaml:"cookie"`

	// Session enables session-affine tracking for every site that does
	// not set its own flag.
	Session bool `yaml:"session"`

	// Hook is the default "name:value" session hook applied to
	// session-tracked sites that do not set their own.
	Hook string `yaml:"hook"`

	// Out is the path the final per-site report is written to on
	// shutdown. Defaults to "log.txt".
	Out string `yaml:"out"`

	// Sites defines individual drill targets.
	Sites []SiteConfig `yaml:"sites"`

	// Grids defines site grids that expand via cartesian product.
	Grids []GridConfig `yaml:"grids"`
}

// SiteConfig defines a single drill target.
type SiteConfig struct {
	// Name is the display name shown in the terminal view and report.
	Name string `yaml:"name"`

	// URL is the target URL.
	// Supports environment variable substitution: ${VAR} or ${VAR:-default}
	URL string `yaml:"url"`

	// Session enables the session-affine polling path for this site.
	Session bool `yaml:"session"`

	// Hook is the "name:value" cookie observation that gates session
	// cookie accounting for this site. Implies session tracking.
	Hook string `yaml:"hook"`
}

// GridConfig defines a site grid that expands via cartesian product.
//
// For example, with dimensions {node: [web1, web2], env: [prod, dr]},
// the grid expands to 4 sites: web1/prod, web1/dr, web2/prod, web2/dr.
// Grids are how a failover drill enumerates the individual nodes behind
// a balanced hostname.
type GridConfig struct {
	// Name is the base name for generated sites.
	Name string `yaml:"name"`

	// URLTemplate is a Go template for generating site URLs.
	// Dimension keys are available as template variables: {{.node}}
	// Supports environment variable substitution in the template.
	URLTemplate string `yaml:"url_template"`

	// Dimensions maps dimension names to their possible values.
	// The cartesian product of all dimensions generates the sites.
	Dimensions map[string][]string `yaml:"dimensions"`

	// Session enables the session-affine path for all generated sites.
	Session bool `yaml:"session"`

	// Hook is the session hook for all generated sites.
	Hook string `yaml:"hook"`
}

// Duration wraps time.Duration for YAML unmarshalling.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler for Duration.
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}

	*d = Duration(parsed)
	return nil
}

// Duration returns the underlying time.Duration value.
func (d Duration) Duration() time.Duration {
	return time.Duration(d)
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
// Group 1: variable name
// Group 2: the ":-default" part (if present, indicates a default was specified)
// Group 3: the default value (may be empty for ${VAR:-})
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(:-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns with environment values.
func expandEnvVars(s string) (string, error) {
	var firstErr error

	result := envVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		// already have an error, skip processing
		if firstErr != nil {
			return match
		}

		submatches := envVarPattern.FindStringSubmatch(match)
		if len(submatches) < 2 {
			return match
		}

		varName := submatches[1]
		// submatches[2] is ":-..." (non-empty if default syntax was used)
		// submatches[3] is the actual default value (may be empty for ${VAR:-})
		hasDefault := len(submatches) > 2 && submatches[2] != ""
		defaultVal := ""
		if hasDefault && len(submatches) > 3 {
			defaultVal = submatches[3]
		}

		value, exists := os.LookupEnv(varName)
		if !exists {
			if hasDefault {
				return defaultVal
			}
			firstErr = fmt.Errorf("environment variable %q is not set", varName)
			return match
		}
		return value
	})

	if firstErr != nil {
		return "", firstErr
	}
	return result, nil
}

// Load reads and parses a YAML configuration file.
//
// Environment variables in the file are expanded before parsing.
// Returns an error if the file cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(data)
}

// Parse parses YAML configuration data.
//
// Environment variables are expanded in URL and URLTemplate values.
// Defaults are applied for Timeout (10s) and Out ("log.txt").
// Validation fails fast: a malformed hook or URL aborts startup before
// any polling begins.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if cfg.Timeout == 0 {
		cfg.Timeout = Duration(10 * time.Second)
	}
	if cfg.Out == "" {
		cfg.Out = "log.txt"
	}

	if err := cfg.expandAndValidate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// expandAndValidate expands environment variables and validates the config.
func (c *Config) expandAndValidate() error {
	if c.Timeout.Duration() < minTimeout {
		return fmt.Errorf("timeout must be at least %s, got %s", minTimeout, c.Timeout.Duration())
	}

	if c.Hook != "" {
		if err := validateHook(c.Hook, "hook"); err != nil {
			return err
		}
	}

	for i := range c.Sites {
		sc := &c.Sites[i]

		if sc.Name == "" {
			return fmt.Errorf("sites[%d]: name is required", i)
		}

		if sc.URL == "" {
			return fmt.Errorf("sites[%d] (%s): url is required", i, sc.Name)
		}
		expanded, err := expandEnvVars(sc.URL)
		if err != nil {
			return fmt.Errorf("sites[%d] (%s): url: %w", i, sc.Name, err)
		}
		sc.URL = expanded

		parsedURL, err := url.Parse(sc.URL)
		if err != nil {
			return fmt.Errorf("sites[%d] (%s): invalid url: %w", i, sc.Name, err)
		}
		if parsedURL.Scheme == "" {
			return fmt.Errorf("sites[%d] (%s): url must have a scheme (http:// or https://)", i, sc.Name)
		}
		if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			return fmt.Errorf("sites[%d] (%s): url scheme must be http or https, got %q", i, sc.Name, parsedURL.Scheme)
		}

		if sc.Hook != "" {
			if err := validateHook(sc.Hook, fmt.Sprintf("sites[%d] (%s): hook", i, sc.Name)); err != nil {
				return err
			}
		}
	}

	for i := range c.Grids {
		g := &c.Grids[i]

		if g.Name == "" {
			return fmt.Errorf("grids[%d]: name is required", i)
		}

		if g.URLTemplate == "" {
			return fmt.Errorf("grids[%d] (%s): url_template is required", i, g.Name)
		}
		expanded, err := expandEnvVars(g.URLTemplate)
		if err != nil {
			return fmt.Errorf("grids[%d] (%s): url_template: %w", i, g.Name, err)
		}
		g.URLTemplate = expanded

		// fail fast before the builder tries to use an invalid template
		if _, err := template.New("").Parse(g.URLTemplate); err != nil {
			return fmt.Errorf("grids[%d] (%s): invalid url_template: %w", i, g.Name, err)
		}

		if len(g.Dimensions) == 0 {
			return fmt.Errorf("grids[%d] (%s): at least one dimension is required", i, g.Name)
		}
		for dimName, dimValues := range g.Dimensions {
			if len(dimValues) == 0 {
				return fmt.Errorf("grids[%d] (%s): dimension %q has no values", i, g.Name, dimName)
			}
			seen := make(map[string]struct{}, len(dimValues))
			for _, v := range dimValues {
				if _, exists := seen[v]; exists {
					return fmt.Errorf("grids[%d] (%s): dimension %q has duplicate value %q", i, g.Name, dimName, v)
				}
				seen[v] = struct{}{}
			}
		}

		if g.Hook != "" {
			if err := validateHook(g.Hook, fmt.Sprintf("grids[%d] (%s): hook", i, g.Name)); err != nil {
				return err
			}
		}
	}

	if len(c.Sites) == 0 && len(c.Grids) == 0 {
		return errors.New("at least one site or grid must be defined")
	}

	return nil
}

// validateHook checks the "name:value" hook syntax.
func validateHook(hook, context string) error {
	idx := strings.Index(hook, ":")
	if idx == -1 {
		return fmt.Errorf("%s: %q must be of the form name:value", context, hook)
	}
	if idx == 0 {
		return fmt.Errorf("%s: %q has an empty cookie name", context, hook)
	}
	return nil
}
