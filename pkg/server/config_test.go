package server

import (
	"os"
	"path/filepath"
	"testing"
)

func TestApplyConfigYAMLPartial(t *testing.T) {
	cfg := DefaultConfig()
	data := []byte("addr: \":6000\"\nmotd: Be nice.\n")

	if err := ApplyConfigYAML(data, &cfg); err != nil {
		t.Fatalf("ApplyConfigYAML: %v", err)
	}
	if cfg.Addr != ":6000" {
		t.Errorf("Addr = %q, want :6000", cfg.Addr)
	}
	if cfg.MOTD != "Be nice." {
		t.Errorf("MOTD = %q, want Be nice.", cfg.MOTD)
	}
	// Untouched fields keep their defaults.
	if cfg.DBPath != DefaultConfig().DBPath {
		t.Errorf("DBPath = %q, want default", cfg.DBPath)
	}
	if cfg.HistoryLimit != DefaultConfig().HistoryLimit {
		t.Errorf("HistoryLimit = %d, want default", cfg.HistoryLimit)
	}
}

func TestApplyConfigYAMLDisablesMetrics(t *testing.T) {
	cfg := DefaultConfig()
	data := []byte("metrics_addr: \"\"\nhistory_limit: 5\n")

	if err := ApplyConfigYAML(data, &cfg); err != nil {
		t.Fatalf("ApplyConfigYAML: %v", err)
	}
	if cfg.MetricsAddr != "" {
		t.Errorf("MetricsAddr = %q, want empty (disabled)", cfg.MetricsAddr)
	}
	if cfg.HistoryLimit != 5 {
		t.Errorf("HistoryLimit = %d, want 5", cfg.HistoryLimit)
	}
}

func TestApplyConfigYAMLInvalid(t *testing.T) {
	cfg := DefaultConfig()
	if err := ApplyConfigYAML([]byte(":\tnot yaml"), &cfg); err == nil {
		t.Fatal("ApplyConfigYAML: expected error for malformed YAML")
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gotalk.yaml")
	if err := os.WriteFile(path, []byte("db_path: /tmp/chat.db\n"), 0o600); err != nil {
		t.Fatalf("write temp config: %v", err)
	}

	cfg := DefaultConfig()
	if err := LoadConfigFile(path, &cfg); err != nil {
		t.Fatalf("LoadConfigFile: %v", err)
	}
	if cfg.DBPath != "/tmp/chat.db" {
		t.Errorf("DBPath = %q, want /tmp/chat.db", cfg.DBPath)
	}

	if err := LoadConfigFile(filepath.Join(t.TempDir(), "missing.yaml"), &cfg); err == nil {
		t.Fatal("LoadConfigFile: expected error for missing file")
	}
}
