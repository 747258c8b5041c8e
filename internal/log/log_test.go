package log

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestInitWithOptionsWritesRotatedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rehabtrack.log")

	if err := InitWithOptions(Options{File: path, MaxSizeMB: 1}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	Infow("session processed", "user", "u-1", "metrics", 13)
	Debugf("not written at info level")
	Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected log file: %v", err)
	}
	if !strings.Contains(string(data), `"msg":"session processed"`) {
		t.Errorf("expected JSON entry in log file, got %q", data)
	}
	if strings.Contains(string(data), "not written") {
		t.Errorf("debug entry written at info level")
	}
}

func TestGetSugaredLoggerFallback(t *testing.T) {
	log, baseLogger, helpers = nil, nil, nil
	if GetSugaredLogger() == nil {
		t.Fatal("expected fallback logger")
	}
	if GetZapLogger() == nil {
		t.Fatal("expected fallback base logger")
	}

	log, baseLogger, helpers = nil, nil, nil
	Infof("helpers initialize the fallback too")
	if helpers == nil || log == nil {
		t.Fatal("expected package helpers to install a fallback logger")
	}
}
