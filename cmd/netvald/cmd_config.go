package main

import (
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"netval/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage persistent service configuration",
	Long: `Manage persistent configuration stored in ~/.netval/config.json.

A hand-edited ~/.netval/config.yaml takes precedence when present; "config
set" always writes the JSON file.

Examples:
  netvald config show
  netvald config set http_addr 127.0.0.1:9742
  netvald config set ssh_pool_size 10
  netvald config clear`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration with defaults applied",
	RunE: func(cmd *cobra.Command, args []string) error {
		c := app.cfg

		fmt.Printf("Config file: %s\n\n", config.DefaultConfigPath())

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "SETTING\tVALUE")
		fmt.Fprintln(w, "-------\t-----")
		fmt.Fprintf(w, "db_path\t%s\n", c.GetDBPath())
		fmt.Fprintf(w, "vault_path\t%s\n", c.GetVaultPath())
		fmt.Fprintf(w, "http_addr\t%s\n", c.GetHTTPAddr())
		fmt.Fprintf(w, "ui_origin\t%s\n", orUnset(c.GetUIOrigin()))
		fmt.Fprintf(w, "ssh_pool_size\t%d\n", c.GetSSHPoolSize())
		fmt.Fprintf(w, "ssh_timeout_seconds\t%d\n", c.GetSSHTimeoutSeconds())
		fmt.Fprintf(w, "redis_addr\t%s\n", orUnset(c.GetRedisAddr()))
		fmt.Fprintf(w, "ai_bridge_url\t%s\n", orUnset(c.GetAIBridgeURL()))
		fmt.Fprintf(w, "ai_bridge_model\t%s\n", c.GetAIBridgeModel())
		fmt.Fprintf(w, "ai_bridge_timeout_seconds\t%d\n", c.GetAIBridgeTimeoutSeconds())
		fmt.Fprintf(w, "rollback_retention_hours\t%d\n", c.GetRollbackRetentionHours())
		fmt.Fprintf(w, "audit_log_path\t%s\n", c.GetAuditLogPath())
		fmt.Fprintf(w, "audit_max_size_mb\t%d\n", c.GetAuditMaxSizeMB())
		fmt.Fprintf(w, "audit_max_backups\t%d\n", c.GetAuditMaxBackups())
		return w.Flush()
	},
}

func orUnset(s string) string {
	if s == "" {
		return "(not set)"
	}
	return s
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		c := app.cfg

		intVal := func() (int, error) {
			n, err := strconv.Atoi(value)
			if err != nil || n < 0 {
				return 0, fmt.Errorf("%s must be a non-negative integer, got %q", key, value)
			}
			return n, nil
		}

		var err error
		switch key {
		case "db_path":
			c.DBPath = value
		case "vault_path":
			c.VaultPath = value
		case "http_addr":
			c.HTTPAddr = value
		case "ui_origin":
			c.UIOrigin = value
		case "ssh_pool_size":
			c.SSHPoolSize, err = intVal()
		case "ssh_timeout_seconds":
			c.SSHTimeoutSeconds, err = intVal()
		case "redis_addr":
			c.RedisAddr = value
		case "ai_bridge_url":
			c.AIBridgeURL = value
		case "ai_bridge_model":
			c.AIBridgeModel = value
		case "ai_bridge_timeout_seconds":
			c.AIBridgeTimeoutSeconds, err = intVal()
		case "rollback_retention_hours":
			c.RollbackRetentionHours, err = intVal()
		case "audit_log_path":
			c.AuditLogPath = value
		case "audit_max_size_mb":
			c.AuditMaxSizeMB, err = intVal()
		case "audit_max_backups":
			c.AuditMaxBackups, err = intVal()
		default:
			return fmt.Errorf("unknown setting: %s", key)
		}
		if err != nil {
			return err
		}

		if err := c.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Printf("%s = %s\n", key, value)
		return nil
	},
}

var configClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Reset all configuration to defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		app.cfg.Clear()
		if err := app.cfg.Save(); err != nil {
			return fmt.Errorf("saving config: %w", err)
		}
		fmt.Println("Configuration cleared")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configClearCmd)
}
