package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/view"
)

var pushCmd = &cobra.Command{
	Use:     "push",
	GroupID: "sync",
	Short:   "Replace the cloud copy with local data",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.ws.PushToCloud(cmd.Context())
	},
}

var pullCmd = &cobra.Command{
	Use:     "pull",
	GroupID: "sync",
	Short:   "Replace local data with the cloud copy",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		_, err := application.ws.PullFromCloud(cmd.Context())
		return err
	},
}

var autosyncCmd = &cobra.Command{
	Use:       "autosync <on|off>",
	GroupID:   "sync",
	Short:     "Push automatically shortly after each change",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"on", "off"},
	RunE: func(cmd *cobra.Command, args []string) error {
		switch args[0] {
		case "on":
			application.ws.SetAutoSync(true)
		case "off":
			application.ws.SetAutoSync(false)
		default:
			return fmt.Errorf("expected on or off, got %q", args[0])
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Auto-sync %s\n", args[0])
		return nil
	},
}

var statusCmd = &cobra.Command{
	Use:     "status",
	GroupID: "sync",
	Short:   "Show sync state and totals",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		cloud := application.ws.CloudSync()

		signedIn := "cloud sync unavailable"
		if svc, err := application.requireAuth(); err == nil {
			if user, err := svc.CurrentUser(cmd.Context()); err == nil {
				signedIn = displayName(user)
			} else {
				signedIn = "not signed in"
			}
		}

		fmt.Fprintf(out, "Account:    %s\n", signedIn)
		fmt.Fprintf(out, "Last push:  %s\n", formatMillis(cloud.LastPush))
		fmt.Fprintf(out, "Last pull:  %s\n", formatMillis(cloud.LastPull))
		fmt.Fprintf(out, "Auto-sync:  %s\n", onOff(cloud.AutoSyncEnabled))
		fmt.Fprintf(out, "Pending:    %s\n", yesNo(cloud.SyncPending))

		totals := view.Aggregate(application.ws.Accounts())
		fmt.Fprintf(out, "Devices:    %d\n", len(application.ws.Devices()))
		fmt.Fprintln(out, renderTotals(totals))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pushCmd, pullCmd, autosyncCmd, statusCmd)
}

func formatMillis(ms *int64) string {
	if ms == nil {
		return "never"
	}
	return time.UnixMilli(*ms).Local().Format("2006-01-02 15:04:05")
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
