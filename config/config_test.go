package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParse_MinimalConfig(t *testing.T) {
	yaml := `
sites:
  - name: primary
    url: https://example.com
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// check defaults applied
	if cfg.Timeout.Duration() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout.Duration())
	}
	if cfg.Out != "log.txt" {
		t.Errorf("Out = %q, want %q", cfg.Out, "log.txt")
	}
	if len(cfg.Sites) != 1 {
		t.Errorf("len(Sites) = %d, want 1", len(cfg.Sites))
	}
}

func TestParse_FullSiteConfig(t *testing.T) {
	yaml := `
timeout: 30s
cookie: lb
out: drill-report.txt

sites:
  - name: primary
    url: https://www.example.com
    session: true
    hook: "lb:node1"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if cfg.Timeout.Duration() != 30*time.Second {
		t.Errorf("Timeout = %v, want 30s", cfg.Timeout.Duration())
	}
	if cfg.Cookie != "lb" {
		t.Errorf("Cookie = %q, want %q", cfg.Cookie, "lb")
	}
	if cfg.Out != "drill-report.txt" {
		t.Errorf("Out = %q, want %q", cfg.Out, "drill-report.txt")
	}

	sc := cfg.Sites[0]
	if sc.Name != "primary" {
		t.Errorf("Name = %q, want %q", sc.Name, "primary")
	}
	if sc.URL != "https://www.example.com" {
		t.Errorf("URL = %q, want %q", sc.URL, "https://www.example.com")
	}
	if !sc.Session {
		t.Error("Session = false, want true")
	}
	if sc.Hook != "lb:node1" {
		t.Errorf("Hook = %q, want %q", sc.Hook, "lb:node1")
	}
}

func TestParse_GridConfig(t *testing.T) {
	yaml := `
grids:
  - name: node
    url_template: "https://{{.node}}.example.com"
    dimensions:
      node: [web1, web2]
    session: true
    hook: "lb:node1"
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(cfg.Grids) != 1 {
		t.Fatalf("len(Grids) = %d, want 1", len(cfg.Grids))
	}

	g := cfg.Grids[0]
	if g.Name != "node" {
		t.Errorf("Name = %q, want %q", g.Name, "node")
	}
	if g.URLTemplate != "https://{{.node}}.example.com" {
		t.Errorf("URLTemplate = %q", g.URLTemplate)
	}
	if len(g.Dimensions["node"]) != 2 {
		t.Errorf("Dimensions[node] = %v, want 2 values", g.Dimensions["node"])
	}
	if !g.Session {
		t.Error("Session = false, want true")
	}
	if g.Hook != "lb:node1" {
		t.Errorf("Hook = %q, want %q", g.Hook, "lb:node1")
	}
}

func TestParse_GlobalSessionAndHook(t *testing.T) {
	yaml := `
session: true
hook: "lb:node1"
sites:
  - name: primary
    url: https://example.com
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if !cfg.Session {
		t.Error("Session = false, want true")
	}
	if cfg.Hook != "lb:node1" {
		t.Errorf("Hook = %q, want %q", cfg.Hook, "lb:node1")
	}
}

func TestParse_InvalidYAML(t *testing.T) {
	_, err := Parse([]byte("sites: [unclosed"))
	if err == nil {
		t.Fatal("Parse() expected error for invalid YAML, got nil")
	}
	if !strings.Contains(err.Error(), "failed to parse YAML") {
		t.Errorf("error = %v, want YAML parse failure", err)
	}
}

func TestParse_NoSites(t *testing.T) {
	_, err := Parse([]byte("timeout: 10s"))
	if err == nil {
		t.Fatal("Parse() expected error for empty config, got nil")
	}
	if !strings.Contains(err.Error(), "at least one site or grid") {
		t.Errorf("error = %v, want missing sites message", err)
	}
}

func TestParse_TimeoutTooShort(t *testing.T) {
	yaml := `
timeout: 200ms
sites:
  - name: primary
    url: https://example.com
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for sub-second timeout, got nil")
	}
	if !strings.Contains(err.Error(), "timeout must be at least") {
		t.Errorf("error = %v, want minimum timeout message", err)
	}
}

func TestParse_InvalidDuration(t *testing.T) {
	yaml := `
timeout: not-a-duration
sites:
  - name: primary
    url: https://example.com
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for invalid duration, got nil")
	}
	if !strings.Contains(err.Error(), "invalid duration") {
		t.Errorf("error = %v, want invalid duration message", err)
	}
}

func TestParse_SiteValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing name",
			yaml: `
sites:
  - url: https://example.com
`,
			wantErr: "name is required",
		},
		{
			name: "missing url",
			yaml: `
sites:
  - name: primary
`,
			wantErr: "url is required",
		},
		{
			name: "url without scheme",
			yaml: `
sites:
  - name: primary
    url: example.com
`,
			wantErr: "must have a scheme",
		},
		{
			name: "url with bad scheme",
			yaml: `
sites:
  - name: primary
    url: ftp://example.com
`,
			wantErr: "scheme must be http or https",
		},
		{
			name: "hook without colon",
			yaml: `
sites:
  - name: primary
    url: https://example.com
    hook: lbnode1
`,
			wantErr: "name:value",
		},
		{
			name: "hook with empty name",
			yaml: `
sites:
  - name: primary
    url: https://example.com
    hook: ":node1"
`,
			wantErr: "empty cookie name",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_GridValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name: "missing name",
			yaml: `
grids:
  - url_template: "https://{{.node}}.example.com"
    dimensions:
      node: [web1]
`,
			wantErr: "name is required",
		},
		{
			name: "missing template",
			yaml: `
grids:
  - name: node
    dimensions:
      node: [web1]
`,
			wantErr: "url_template is required",
		},
		{
			name: "invalid template",
			yaml: `
grids:
  - name: node
    url_template: "https://{{.node.example.com"
    dimensions:
      node: [web1]
`,
			wantErr: "invalid url_template",
		},
		{
			name: "no dimensions",
			yaml: `
grids:
  - name: node
    url_template: "https://{{.node}}.example.com"
`,
			wantErr: "at least one dimension",
		},
		{
			name: "empty dimension",
			yaml: `
grids:
  - name: node
    url_template: "https://{{.node}}.example.com"
    dimensions:
      node: []
`,
			wantErr: "has no values",
		},
		{
			name: "duplicate dimension value",
			yaml: `
grids:
  - name: node
    url_template: "https://{{.node}}.example.com"
    dimensions:
      node: [web1, web1]
`,
			wantErr: "duplicate value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatal("Parse() expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %v, want it to contain %q", err, tt.wantErr)
			}
		})
	}
}

func TestParse_EnvVarExpansion(t *testing.T) {
	t.Setenv("COOKIEPROF_HOST", "lb.example.com")

	yaml := `
sites:
  - name: primary
    url: https://${COOKIEPROF_HOST}/login
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := "https://lb.example.com/login"
	if cfg.Sites[0].URL != want {
		t.Errorf("URL = %q, want %q", cfg.Sites[0].URL, want)
	}
}

func TestParse_EnvVarDefault(t *testing.T) {
	yaml := `
sites:
  - name: primary
    url: https://${COOKIEPROF_UNSET_HOST:-fallback.example.com}/login
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := "https://fallback.example.com/login"
	if cfg.Sites[0].URL != want {
		t.Errorf("URL = %q, want %q", cfg.Sites[0].URL, want)
	}
}

func TestParse_EnvVarMissing(t *testing.T) {
	yaml := `
sites:
  - name: primary
    url: https://${COOKIEPROF_DEFINITELY_UNSET}/login
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for unset env var, got nil")
	}
	if !strings.Contains(err.Error(), "COOKIEPROF_DEFINITELY_UNSET") {
		t.Errorf("error = %v, want it to name the variable", err)
	}
}

func TestParse_EnvVarInGridTemplate(t *testing.T) {
	t.Setenv("COOKIEPROF_DOMAIN", "example.com")

	yaml := `
grids:
  - name: node
    url_template: "https://{{.node}}.${COOKIEPROF_DOMAIN}"
    dimensions:
      node: [web1]
`
	cfg, err := Parse([]byte(yaml))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	want := "https://{{.node}}.example.com"
	if cfg.Grids[0].URLTemplate != want {
		t.Errorf("URLTemplate = %q, want %q", cfg.Grids[0].URLTemplate, want)
	}
}

func TestParse_GlobalHookValidated(t *testing.T) {
	yaml := `
hook: "no-colon-here"
sites:
  - name: primary
    url: https://example.com
`
	_, err := Parse([]byte(yaml))
	if err == nil {
		t.Fatal("Parse() expected error for malformed global hook, got nil")
	}
}

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "drill.yaml")

	content := `
timeout: 15s
sites:
  - name: primary
    url: https://example.com
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Timeout.Duration() != 15*time.Second {
		t.Errorf("Timeout = %v, want 15s", cfg.Timeout.Duration())
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/drill.yaml")
	if err == nil {
		t.Fatal("Load() expected error for missing file, got nil")
	}
	if !strings.Contains(err.Error(), "failed to read") {
		t.Errorf("error = %v, want read failure message", err)
	}
}
