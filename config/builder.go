package config

import (
	"bytes"
	"fmt"
	"sort"
	"text/template"

	"github.com/jhalloran/cookieprof"
)

// BuildSites converts parsed configuration into SDK Site objects.
//
// It processes both direct sites and grids, returning a combined slice.
// Grid dimensions are expanded via cartesian product. The config-level
// session flag and hook apply to every site that does not set its own.
func BuildSites(cfg *Config) ([]cookieprof.Site, error) {
	var sites []cookieprof.Site

	// convert direct sites
	for _, sc := range cfg.Sites {
		site, err := buildSite(cfg, sc)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	// convert grids (cartesian product expansion)
	for _, gc := range cfg.Grids {
		gridSites, err := buildGridSites(cfg, gc)
		if err != nil {
			return nil, err
		}
		sites = append(sites, gridSites...)
	}

	return sites, nil
}

// buildSite converts a single SiteConfig to an SDK Site, applying the
// config-level session/hook defaults.
func buildSite(cfg *Config, sc SiteConfig) (cookieprof.Site, error) {
	var opts []cookieprof.SiteOption

	hook := sc.Hook
	if hook == "" {
		hook = cfg.Hook
	}

	// WithHook implies session tracking
	if hook != "" {
		opts = append(opts, cookieprof.WithHook(hook))
	} else if sc.Session || cfg.Session {
		opts = append(opts, cookieprof.WithSessionTracking())
	}

	return cookieprof.NewSite(sc.Name, sc.URL, opts...)
}

// buildGridSites expands a GridConfig into multiple sites via cartesian product.
func buildGridSites(cfg *Config, gc GridConfig) ([]cookieprof.Site, error) {
	// use missingkey=error to fail fast on missing template variables
	tmpl, err := template.New("url").Option("missingkey=error").Parse(gc.URLTemplate)
	if err != nil {
		return nil, err
	}

	// generate all dimension combinations
	combinations := cartesianProduct(gc.Dimensions)

	var sites []cookieprof.Site
	for _, combo := range combinations {
		// execute template with this combination
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, combo); err != nil {
			return nil, fmt.Errorf("grid (%s) with dimensions %v: template execution failed: %w", gc.Name, combo, err)
		}
		url := buf.String()

		// build name from combination values
		name := buildGridName(gc.Name, combo)

		sc := SiteConfig{
			Name:    name,
			URL:     url,
			Session: gc.Session,
			Hook:    gc.Hook,
		}

		site, err := buildSite(cfg, sc)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}

	return sites, nil
}

// buildGridName creates a display name for a grid site.
func buildGridName(baseName string, combo map[string]string) string {
	// sort keys for deterministic ordering
	keys := make([]string, 0, len(combo))
	for k := range combo {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	name := baseName
	for _, k := range keys {
		name += " " + combo[k]
	}
	return name
}

// cartesianProduct generates all combinations of dimension values.
func cartesianProduct(dimensions map[string][]string) []map[string]string {
	if len(dimensions) == 0 {
		return nil
	}

	// sort dimension keys for deterministic ordering
	keys := make([]string, 0, len(dimensions))
	for k := range dimensions {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	// start with single empty combination
	result := []map[string]string{{}}

	for _, key := range keys {
		values := dimensions[key]
		var newResult []map[string]string

		for _, combo := range result {
			for _, val := range values {
				// copy existing combo and add new dimension
				newCombo := make(map[string]string)
				for k, v := range combo {
					newCombo[k] = v
				}
				newCombo[key] = val
				newResult = append(newResult, newCombo)
			}
		}
		result = newResult
	}

	return result
}
