package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chrissnell/rehabtrack/pkg/config"
)

const sampleYAML = `
server:
  port: 8088
storage:
  sqlite:
    path: /var/lib/rehabtrack/sessions.db
segmentation:
  fps: 25
  phase-names: [Descent, Hold, Ascent]
`

func writeYAML(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestConvert(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.db")
	opts := options{yamlPath: writeYAML(t), sqlitePath: target, verify: true}

	var out bytes.Buffer
	if err := convert(&out, opts); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if !strings.Contains(out.String(), "Verified") {
		t.Errorf("expected verification line, got:\n%s", out.String())
	}

	provider, err := config.NewSQLiteProvider(target)
	if err != nil {
		t.Fatal(err)
	}
	cfg, err := provider.LoadConfig()
	provider.Close()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 8088 || cfg.Segmentation.FPS != 25 {
		t.Errorf("unexpected stored config: %+v", cfg)
	}

	if err := convert(&out, opts); !errors.Is(err, errTargetExists) {
		t.Errorf("expected errTargetExists on second run, got %v", err)
	}
	opts.force = true
	if err := convert(&out, opts); err != nil {
		t.Errorf("forced convert: %v", err)
	}
}

func TestConvertDryRun(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.db")
	var out bytes.Buffer
	if err := convert(&out, options{yamlPath: writeYAML(t), sqlitePath: target, dryRun: true}); err != nil {
		t.Fatalf("convert: %v", err)
	}
	if _, err := os.Stat(target); !os.IsNotExist(err) {
		t.Errorf("dry run created %s", target)
	}
	if !strings.Contains(out.String(), "storage     sqlite /var/lib/rehabtrack/sessions.db") {
		t.Errorf("summary missing storage line:\n%s", out.String())
	}
}
