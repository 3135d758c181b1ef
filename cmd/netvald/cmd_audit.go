package main

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"netval/internal/store"
	"netval/pkg/audit"
	"netval/pkg/cli"
)

var auditCmd = &cobra.Command{
	Use:   "audit",
	Short: "View the audit log",
	Long: `View the audit log of topology and device changes.

Every mutating operation is logged with a timestamp, actor, project,
affected device, and detail. The store is the authoritative source; the
rotating audit file is a secondary sink. The store does not record an
operation's outcome: every event read from it is listed as ok, and
--failures does not narrow the list.

Examples:
  netvald audit list --project 6f3a...
  netvald audit list --last 24h
  netvald audit list --failures`,
}

var (
	auditProject  string
	auditDevice   string
	auditLast     string
	auditLimit    int
	auditFailures bool
	auditJSON     bool
)

var auditListCmd = &cobra.Command{
	Use:   "list",
	Short: "List audit events",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := store.Open(app.cfg.GetDBPath())
		if err != nil {
			return fmt.Errorf("opening store: %w", err)
		}
		defer st.Close()

		filter := audit.Filter{
			ProjectID:   auditProject,
			Device:      auditDevice,
			Limit:       auditLimit,
			FailureOnly: auditFailures,
		}
		if auditLast != "" {
			duration, err := time.ParseDuration(auditLast)
			if err != nil {
				return fmt.Errorf("invalid duration: %s", auditLast)
			}
			filter.StartTime = time.Now().Add(-duration)
		}

		events, err := audit.NewStoreLogger(st).Query(filter)
		if err != nil {
			return fmt.Errorf("querying audit log: %w", err)
		}

		if auditJSON {
			return json.NewEncoder(os.Stdout).Encode(events)
		}

		if len(events) == 0 {
			fmt.Println("No audit events found")
			return nil
		}

		t := cli.NewTable("TIMESTAMP", "ACTOR", "PROJECT", "DEVICE", "OPERATION", "STATUS", "DETAIL")
		for _, event := range events {
			status := cli.Green("ok")
			if !event.Success {
				status = cli.Red("failed")
			}
			t.Row(
				event.Timestamp.Format("2006-01-02 15:04:05"),
				event.Actor,
				event.ProjectID,
				event.Device,
				event.Operation,
				status,
				event.Detail,
			)
		}
		t.Flush()
		return nil
	},
}

func init() {
	auditListCmd.Flags().StringVar(&auditProject, "project", "", "Filter by project id")
	auditListCmd.Flags().StringVar(&auditDevice, "device", "", "Filter by device")
	auditListCmd.Flags().StringVar(&auditLast, "last", "", "Only events within this duration (e.g. 24h)")
	auditListCmd.Flags().IntVar(&auditLimit, "limit", 100, "Maximum events to show")
	auditListCmd.Flags().BoolVar(&auditFailures, "failures", false, "Only failed operations (the store keeps no outcome, so this has no effect)")
	auditListCmd.Flags().BoolVar(&auditJSON, "json", false, "Output as JSON")

	auditCmd.AddCommand(auditListCmd)
}
