// Package config manages netvald's persistent service configuration, loaded
// from a JSON file under the user's home directory
// or a YAML file for operators who prefer a hand-edited static config.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultDBPath is the default embedded-database location.
const DefaultDBPath = ".netval/netval.db"

// DefaultVaultPath is the default credential vault file location. The
// service always uses this file-backed vault (see pkg/vault); there is no
// host OS secret store backend.
const DefaultVaultPath = ".netval/vault.json"

const (
	// DefaultAuditMaxSizeMB is the default maximum audit log size in megabytes.
	DefaultAuditMaxSizeMB = 10
	// DefaultAuditMaxBackups is the default maximum number of rotated audit log files.
	DefaultAuditMaxBackups = 10
	// DefaultHTTPAddr is the default bind address for the HTTP/WebSocket
	// surface: loopback only, port 8742.
	DefaultHTTPAddr = "127.0.0.1:8742"
	// DefaultSSHTimeoutSeconds is the default reported for ssh_timeout_seconds.
	// pkg/sshpool does not read this setting; it applies its own fixed 15s
	// connect and 30s per-command timeouts.
	DefaultSSHTimeoutSeconds = 15
	// DefaultSSHPoolSize bounds the number of concurrent SSH sessions across all devices.
	DefaultSSHPoolSize = 5
	// DefaultAIBridgeTimeoutSeconds bounds calls to the optional AI explanation bridge.
	DefaultAIBridgeTimeoutSeconds = 30
	// DefaultRollbackRetentionHours is how long an applied remediation plan
	// remains rollback-eligible.
	DefaultRollbackRetentionHours = 24
)

// Config holds persistent service preferences. Zero values mean "use the
// default"; Get* accessors apply defaults so callers never branch on zero.
type Config struct {
	// DBPath overrides the default embedded-database path.
	DBPath string `json:"db_path,omitempty" yaml:"db_path,omitempty"`

	// VaultPath overrides the default credential vault path.
	VaultPath string `json:"vault_path,omitempty" yaml:"vault_path,omitempty"`

	// HTTPAddr overrides the default HTTP/WebSocket bind address.
	HTTPAddr string `json:"http_addr,omitempty" yaml:"http_addr,omitempty"`

	// UIOrigin restricts CORS to the local UI origin. Empty allows any
	// origin, for local development.
	UIOrigin string `json:"ui_origin,omitempty" yaml:"ui_origin,omitempty"`

	// SSHTimeoutSeconds overrides the reported SSH timeout; pkg/sshpool does
	// not read it.
	SSHTimeoutSeconds int `json:"ssh_timeout_seconds,omitempty" yaml:"ssh_timeout_seconds,omitempty"`

	// SSHPoolSize overrides the default SSH worker pool concurrency.
	SSHPoolSize int `json:"ssh_pool_size,omitempty" yaml:"ssh_pool_size,omitempty"`

	// RedisAddr, when set, enables Job Manager fan-out mirroring across
	// processes. Empty means single-process, in-memory only.
	RedisAddr string `json:"redis_addr,omitempty" yaml:"redis_addr,omitempty"`

	// AIBridgeURL points at a local Ollama-shaped HTTP endpoint. Empty
	// disables the AI explanation bridge entirely.
	AIBridgeURL string `json:"ai_bridge_url,omitempty" yaml:"ai_bridge_url,omitempty"`

	// AIBridgeModel names the model the AI bridge asks for.
	AIBridgeModel string `json:"ai_bridge_model,omitempty" yaml:"ai_bridge_model,omitempty"`

	// AIBridgeTimeoutSeconds overrides the default AI bridge call timeout.
	AIBridgeTimeoutSeconds int `json:"ai_bridge_timeout_seconds,omitempty" yaml:"ai_bridge_timeout_seconds,omitempty"`

	// RollbackRetentionHours overrides how long an applied plan stays
	// rollback-eligible.
	RollbackRetentionHours int `json:"rollback_retention_hours,omitempty" yaml:"rollback_retention_hours,omitempty"`

	// AuditLogPath overrides the default audit log path.
	AuditLogPath string `json:"audit_log_path,omitempty" yaml:"audit_log_path,omitempty"`

	// AuditMaxSizeMB is the max audit log size in MB before rotation.
	AuditMaxSizeMB int `json:"audit_max_size_mb,omitempty" yaml:"audit_max_size_mb,omitempty"`

	// AuditMaxBackups is the max number of rotated audit log files.
	AuditMaxBackups int `json:"audit_max_backups,omitempty" yaml:"audit_max_backups,omitempty"`
}

// DefaultConfigPath returns the default path for the config file.
func DefaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "/tmp/netval_config.json"
	}
	return filepath.Join(home, ".netval", "config.json")
}

// Load reads config from the default location. A YAML file beside the
// default JSON path (`config.yaml`) wins when both exist, so operators can
// keep a hand-edited static config without the service rewriting it.
func Load() (*Config, error) {
	yamlPath := filepath.Join(filepath.Dir(DefaultConfigPath()), "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return LoadFrom(yamlPath)
	}
	return LoadFrom(DefaultConfigPath())
}

// LoadFrom reads config from a specific path, decoding by file extension
// (.yaml/.yml via gopkg.in/yaml.v3, everything else JSON). A missing file
// yields zero values (i.e. all defaults), not an error.
func LoadFrom(path string) (*Config, error) {
	c := &Config{}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, err
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		err = json.Unmarshal(data, c)
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

// Save writes config to the default location.
func (c *Config) Save() error {
	return c.SaveTo(DefaultConfigPath())
}

// SaveTo writes config to a specific path.
func (c *Config) SaveTo(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

func homeJoin(rel string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", filepath.Base(rel))
	}
	return filepath.Join(home, rel)
}

// GetDBPath returns the embedded-database path, with fallback.
func (c *Config) GetDBPath() string {
	if c.DBPath != "" {
		return c.DBPath
	}
	return homeJoin(DefaultDBPath)
}

// GetVaultPath returns the credential vault path, with fallback.
func (c *Config) GetVaultPath() string {
	if c.VaultPath != "" {
		return c.VaultPath
	}
	return homeJoin(DefaultVaultPath)
}

// GetHTTPAddr returns the HTTP bind address, with fallback.
func (c *Config) GetHTTPAddr() string {
	if c.HTTPAddr != "" {
		return c.HTTPAddr
	}
	return DefaultHTTPAddr
}

// GetSSHTimeoutSeconds returns the SSH operation timeout, with fallback.
func (c *Config) GetSSHTimeoutSeconds() int {
	if c.SSHTimeoutSeconds > 0 {
		return c.SSHTimeoutSeconds
	}
	return DefaultSSHTimeoutSeconds
}

// GetSSHPoolSize returns the SSH worker pool size, with fallback.
func (c *Config) GetSSHPoolSize() int {
	if c.SSHPoolSize > 0 {
		return c.SSHPoolSize
	}
	return DefaultSSHPoolSize
}

// GetAIBridgeTimeoutSeconds returns the AI bridge call timeout, with fallback.
func (c *Config) GetAIBridgeTimeoutSeconds() int {
	if c.AIBridgeTimeoutSeconds > 0 {
		return c.AIBridgeTimeoutSeconds
	}
	return DefaultAIBridgeTimeoutSeconds
}

// GetUIOrigin returns the CORS origin restriction, empty meaning any.
func (c *Config) GetUIOrigin() string {
	return c.UIOrigin
}

// GetRollbackRetentionHours returns the rollback retention window, with
// default.
func (c *Config) GetRollbackRetentionHours() int {
	if c.RollbackRetentionHours > 0 {
		return c.RollbackRetentionHours
	}
	return DefaultRollbackRetentionHours
}

// GetRedisAddr returns the optional Redis mirror address, empty meaning
// in-process fan-out only.
func (c *Config) GetRedisAddr() string {
	return c.RedisAddr
}

// GetAIBridgeURL returns the AI bridge endpoint, empty meaning disabled.
func (c *Config) GetAIBridgeURL() string {
	return c.AIBridgeURL
}

// GetAIBridgeModel returns the AI bridge model name, with default.
func (c *Config) GetAIBridgeModel() string {
	if c.AIBridgeModel != "" {
		return c.AIBridgeModel
	}
	return "llama3"
}

// GetAuditLogPath returns the audit log path, with fallback under ~/.netval.
func (c *Config) GetAuditLogPath() string {
	if c.AuditLogPath != "" {
		return c.AuditLogPath
	}
	return homeJoin(filepath.Join(".netval", "audit.log"))
}

// GetAuditMaxSizeMB returns the audit max size in MB, with default.
func (c *Config) GetAuditMaxSizeMB() int {
	if c.AuditMaxSizeMB > 0 {
		return c.AuditMaxSizeMB
	}
	return DefaultAuditMaxSizeMB
}

// GetAuditMaxBackups returns the audit max backups, with default.
func (c *Config) GetAuditMaxBackups() int {
	if c.AuditMaxBackups > 0 {
		return c.AuditMaxBackups
	}
	return DefaultAuditMaxBackups
}

// Clear resets all config to defaults.
func (c *Config) Clear() {
	*c = Config{}
}
