package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/topoviz/topoviz/pkg/pipeline"
)

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
[layout]
algorithm = "bottomup"
padding = 12.5
leaf_radius = 8

[render]
formats = ["svg", "png"]
labels = true

[serve]
addr = ":9090"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}

	if cfg.Layout.Algorithm != "bottomup" {
		t.Errorf("Algorithm = %q, want %q", cfg.Layout.Algorithm, "bottomup")
	}
	if cfg.Layout.Padding != 12.5 {
		t.Errorf("Padding = %v, want 12.5", cfg.Layout.Padding)
	}
	if len(cfg.Render.Formats) != 2 {
		t.Errorf("Formats = %v, want 2 entries", cfg.Render.Formats)
	}
	if cfg.Serve.Addr != ":9090" {
		t.Errorf("Addr = %q, want %q", cfg.Serve.Addr, ":9090")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatalf("LoadConfig() on missing file error: %v", err)
	}
	if cfg.Layout.Algorithm != "" {
		t.Errorf("missing file should yield empty config, got %+v", cfg)
	}
}

func TestConfigApply(t *testing.T) {
	cfg := &Config{
		Layout: LayoutConfig{Algorithm: "bottomup", Padding: 20},
		Render: RenderConfig{Labels: true},
	}

	var opts pipeline.Options
	cfg.Apply(&opts)

	if opts.Algorithm != "bottomup" {
		t.Errorf("Algorithm = %q, want %q", opts.Algorithm, "bottomup")
	}
	if opts.Padding != 20 {
		t.Errorf("Padding = %v, want 20", opts.Padding)
	}
	if !opts.Labels {
		t.Error("Labels should be true")
	}
}

func TestConfigApplyEmpty(t *testing.T) {
	var opts pipeline.Options
	(&Config{}).Apply(&opts)
	opts.SetLayoutDefaults()

	// Empty config must not mask the built-in defaults.
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}
