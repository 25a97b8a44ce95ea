package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/device"
	apperrors "github.com/hirosato/p2p-ops-dashboard/internal/domain/errors"
)

var deviceCmd = &cobra.Command{
	Use:     "device",
	GroupID: "data",
	Short:   "Manage devices",
}

var deviceAddCmd = &cobra.Command{
	Use:   "add <name>",
	Short: "Add a device",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		fop, _ := cmd.Flags().GetBool("fop")
		d, err := application.ws.AddDevice(args[0], fop)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), d.ID)
		return nil
	},
}

var deviceRmCmd = &cobra.Command{
	Use:     "rm <device>",
	Aliases: []string{"remove"},
	Short:   "Remove a device and every account linked to it",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := resolveDevice(application.ws.Devices(), args[0])
		if err != nil {
			return err
		}
		application.ws.RemoveDevice(d.ID)
		return nil
	},
}

var deviceLsCmd = &cobra.Command{
	Use:     "ls",
	Aliases: []string{"list"},
	Short:   "List devices",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		devices := application.ws.Devices()
		counts := make(map[string]int)
		for _, a := range application.ws.Accounts() {
			counts[a.DeviceID]++
		}

		t := table.New().
			Border(lipgloss.NormalBorder()).
			Headers("ID", "Name", "FOP", "Accounts")
		for _, d := range devices {
			fop := ""
			if d.IsFOP() {
				fop = "yes"
			}
			t.Row(d.ID, d.Name, fop, fmt.Sprint(counts[d.ID]))
		}
		fmt.Fprintln(cmd.OutOrStdout(), t.Render())
		return nil
	},
}

func init() {
	deviceAddCmd.Flags().Bool("fop", false, "FOP device (500,000 UAH monthly limit)")

	deviceCmd.AddCommand(deviceAddCmd, deviceRmCmd, deviceLsCmd)
	rootCmd.AddCommand(deviceCmd)
}

// resolveDevice finds a device by id or, ignoring case, by name
func resolveDevice(devices []device.Device, ref string) (device.Device, error) {
	ref = strings.TrimSpace(ref)
	if d, ok := device.Find(devices, ref); ok {
		return d, nil
	}
	for _, d := range devices {
		if strings.EqualFold(d.Name, ref) {
			return d, nil
		}
	}
	return device.Device{}, apperrors.NewNotFoundError(fmt.Sprintf("device %q not found", ref))
}
