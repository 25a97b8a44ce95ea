// Command p2pdash manages devices, bank accounts and withdrawals locally and
// syncs them with the cloud.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	configFile  string
	application *app
)

var rootCmd = &cobra.Command{
	Use:           "p2pdash",
	Short:         "P2P operations dashboard",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if application != nil {
			return nil
		}
		a, err := newApp(cmd.Context(), configFile, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		application = a
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: ./p2pdash.yaml or the data dir)")

	rootCmd.AddGroup(
		&cobra.Group{ID: "data", Title: "Devices and accounts:"},
		&cobra.Group{ID: "sync", Title: "Cloud sync:"},
		&cobra.Group{ID: "io", Title: "Import and export:"},
	)
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	err := rootCmd.ExecuteContext(ctx)
	if application != nil {
		application.shutdown(ctx)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
