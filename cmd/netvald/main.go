// Netvald - Campus Network Pre-Deployment Validation Service
//
// A local service that validates campus network designs before deployment:
//   - Topology modeling (devices, interfaces, VLANs, links) in an embedded store
//   - A deterministic check pipeline (VLAN continuity, SVI anchoring,
//     wireless join chains, routing blackholes,...)
//   - Remediation planning with per-item approval, SSH push, and rollback
//   - REST + WebSocket surface for the topology editor UI
//
// Examples:
//
//	netvald serve                       # run the service on 127.0.0.1:8742
//	netvald serve --addr 127.0.0.1:9000
//	netvald config show
//	netvald config set db_path /tmp/netval.db
//	netvald audit list --last 24h
//	netvald version
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"netval/internal/config"
	"netval/pkg/util"
)

// App holds CLI state shared across all commands.
type App struct {
	// Option flags
	configPath string
	verbose    bool
	jsonLogs   bool

	// Initialized state (set in PersistentPreRunE)
	cfg *config.Config
}

var app = &App{}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:               "netvald",
	Short:             "Campus network pre-deployment validation service",
	SilenceUsage:      true,
	SilenceErrors:     true,
	CompletionOptions: cobra.CompletionOptions{HiddenDefaultCmd: true},
	Long: `Netvald validates campus network designs before deployment.

The service holds projects of devices and links, parses IOS-family running
configurations, runs a deterministic check pipeline over the assembled
topology, and can plan, push, and roll back CLI remediations over SSH.

Run "netvald serve" to start the service; the topology editor UI talks to
it over REST and WebSocket on the loopback interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if app.configPath != "" {
			app.cfg, err = config.LoadFrom(app.configPath)
		} else {
			app.cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if app.verbose {
			util.SetLogLevel("debug")
		} else {
			util.SetLogLevel("info")
		}
		if app.jsonLogs {
			util.SetJSONFormat()
		}
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&app.configPath, "config", "c", "", "Config file path (default ~/.netval/config.json)")
	rootCmd.PersistentFlags().BoolVarP(&app.verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&app.jsonLogs, "json-logs", false, "Emit logs as JSON")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(auditCmd)
	rootCmd.AddCommand(versionCmd)
}
