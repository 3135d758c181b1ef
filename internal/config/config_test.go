package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig_Defaults(t *testing.T) {
	c := &Config{}

	if got := c.GetHTTPAddr(); got != DefaultHTTPAddr {
		t.Errorf("GetHTTPAddr() default = %q, want %q", got, DefaultHTTPAddr)
	}
	if got := c.GetSSHTimeoutSeconds(); got != DefaultSSHTimeoutSeconds {
		t.Errorf("GetSSHTimeoutSeconds() default = %d, want %d", got, DefaultSSHTimeoutSeconds)
	}
	if got := c.GetSSHPoolSize(); got != DefaultSSHPoolSize {
		t.Errorf("GetSSHPoolSize() default = %d, want %d", got, DefaultSSHPoolSize)
	}
	if got := c.GetAuditMaxSizeMB(); got != DefaultAuditMaxSizeMB {
		t.Errorf("GetAuditMaxSizeMB() default = %d, want %d", got, DefaultAuditMaxSizeMB)
	}
	if c.RedisAddr != "" {
		t.Error("RedisAddr should default empty (single-process mode)")
	}
}

func TestConfig_Overrides(t *testing.T) {
	c := &Config{
		HTTPAddr:          "0.0.0.0:9090",
		SSHTimeoutSeconds: 5,
		SSHPoolSize:       20,
	}

	if got := c.GetHTTPAddr(); got != "0.0.0.0:9090" {
		t.Errorf("GetHTTPAddr() = %q", got)
	}
	if got := c.GetSSHTimeoutSeconds(); got != 5 {
		t.Errorf("GetSSHTimeoutSeconds() = %d", got)
	}
	if got := c.GetSSHPoolSize(); got != 20 {
		t.Errorf("GetSSHPoolSize() = %d", got)
	}
}

func TestConfig_SaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")

	c := &Config{HTTPAddr: "127.0.0.1:9999", RedisAddr: "127.0.0.1:6379"}
	if err := c.SaveTo(path); err != nil {
		t.Fatalf("SaveTo failed: %v", err)
	}

	loaded, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom failed: %v", err)
	}
	if loaded.HTTPAddr != c.HTTPAddr {
		t.Errorf("HTTPAddr = %q, want %q", loaded.HTTPAddr, c.HTTPAddr)
	}
	if loaded.RedisAddr != c.RedisAddr {
		t.Errorf("RedisAddr = %q, want %q", loaded.RedisAddr, c.RedisAddr)
	}
}

func TestConfig_LoadFromMissingFile(t *testing.T) {
	dir := t.TempDir()
	c, err := LoadFrom(filepath.Join(dir, "nonexistent.json"))
	if err != nil {
		t.Fatalf("LoadFrom missing file should not error: %v", err)
	}
	if c.GetHTTPAddr() != DefaultHTTPAddr {
		t.Errorf("expected defaults for missing config, got %q", c.GetHTTPAddr())
	}
}

func TestConfig_LoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "netval.yaml")
	content := "http_addr: 127.0.0.1:9742\nssh_pool_size: 3\nrollback_retention_hours: 48\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFrom(path)
	if err != nil {
		t.Fatalf("LoadFrom yaml failed: %v", err)
	}
	if c.HTTPAddr != "127.0.0.1:9742" {
		t.Errorf("HTTPAddr = %q", c.HTTPAddr)
	}
	if c.SSHPoolSize != 3 {
		t.Errorf("SSHPoolSize = %d", c.SSHPoolSize)
	}
	if got := c.GetRollbackRetentionHours(); got != 48 {
		t.Errorf("GetRollbackRetentionHours() = %d", got)
	}
}

func TestConfig_RollbackRetentionDefault(t *testing.T) {
	c := &Config{}
	if got := c.GetRollbackRetentionHours(); got != DefaultRollbackRetentionHours {
		t.Errorf("GetRollbackRetentionHours() default = %d, want %d", got, DefaultRollbackRetentionHours)
	}
}

func TestConfig_Clear(t *testing.T) {
	c := &Config{HTTPAddr: "x", RedisAddr: "y"}
	c.Clear()
	if c.HTTPAddr != "" || c.RedisAddr != "" {
		t.Error("Clear should reset all fields")
	}
}
