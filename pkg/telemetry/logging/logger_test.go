package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "warn", "warning", "error"} {
		if _, err := New(Config{Level: level}); err != nil {
			t.Errorf("New(level=%q) error = %v", level, err)
		}
	}
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Error("New(level=loud) error = nil, want parse failure")
	}
	if _, err := New(Config{Format: "yaml"}); err == nil {
		t.Error("New(format=yaml) error = nil, want parse failure")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Level: "warn", Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("quiet")
	logger.Warn("loud")

	out := buf.String()
	if strings.Contains(out, "quiet") {
		t.Error("info record emitted below the configured level")
	}
	if !strings.Contains(out, "loud") {
		t.Error("warn record missing")
	}
}

func TestSecretMasking(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Config{Writer: &buf})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	logger.Info("refreshed",
		"access_token", "aoaAAAAGVzC4444abcdefghijklmnop",
		"credential", "acct-1",
	)

	var record map[string]any
	if err := json.Unmarshal(buf.Bytes(), &record); err != nil {
		t.Fatalf("output not JSON: %v", err)
	}
	got, _ := record["access_token"].(string)
	if strings.Contains(got, "abcdefghijklmnop") {
		t.Errorf("access_token = %q, want masked", got)
	}
	if !strings.HasPrefix(got, "aoaAAAAG") || !strings.HasSuffix(got, "...") {
		t.Errorf("access_token = %q, want prefix + ellipsis form", got)
	}
	if record["credential"] != "acct-1" {
		t.Errorf("credential = %v, want untouched", record["credential"])
	}
}

func TestMaskValueShortSecrets(t *testing.T) {
	if got := maskValue("short"); got != "***" {
		t.Errorf("maskValue(short) = %q, want ***", got)
	}
}
