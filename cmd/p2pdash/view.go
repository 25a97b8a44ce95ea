package main

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/view"
)

var (
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	overStyle    = numberStyle.Foreground(lipgloss.Color("1"))
	blockedStyle = cellStyle.Foreground(lipgloss.Color("8"))
)

var viewCmd = &cobra.Command{
	Use:     "view",
	GroupID: "data",
	Short:   "Show the filtered account list with totals",
	Example: `  p2pdash view --bank Monobank --active-only
  p2pdash view --device Alpha --device Beta --search mono`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		v := application.ws.View(filter)
		out := cmd.OutOrStdout()

		fmt.Fprintln(out, renderRows(v.Rows))
		fmt.Fprintln(out, renderTotals(v.Totals))

		if showOuts, _ := cmd.Flags().GetBool("outs"); showOuts {
			renderOuts(out, v.Rows)
		}
		return nil
	},
}

func init() {
	addFilterFlags(viewCmd)
	viewCmd.Flags().Bool("outs", false, "list withdrawals under the table")
	rootCmd.AddCommand(viewCmd)
}

func addFilterFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("search", "", "match device name or bank, ignoring case")
	f.String("bank", "", "only this bank")
	f.StringArray("device", nil, "only these devices, by id or name (repeatable)")
	f.Bool("active-only", false, "only active accounts")
}

func filterFromFlags(cmd *cobra.Command) (account.Filter, error) {
	f := cmd.Flags()
	var filter account.Filter
	filter.SearchTerm, _ = f.GetString("search")
	filter.Bank, _ = f.GetString("bank")
	filter.ActiveOnly, _ = f.GetBool("active-only")

	refs, _ := f.GetStringArray("device")
	devices := application.ws.Devices()
	for _, ref := range refs {
		d, err := resolveDevice(devices, ref)
		if err != nil {
			return account.Filter{}, err
		}
		if !filter.HasDevice(d.ID) {
			filter = filter.ToggleDevice(d.ID)
		}
	}
	return filter, nil
}

func renderRows(rows []view.Row) string {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		Headers("Device", "Bank", "Balance", "Sent", "Remaining", "Active", "Monthly", "Notes", "ID")

	for _, r := range rows {
		device := r.DeviceName
		if device == "" {
			device = r.Account.DeviceID
		}
		active := "No"
		if r.Account.Active {
			active = "Yes"
		}
		if r.Account.Blocked {
			active = "Blocked"
		}
		monthly := view.FormatMoney(decimal.NewFromFloat(r.Account.MonthlyReceived)) +
			" / " + view.FormatMoney(decimal.NewFromFloat(r.Account.MonthlyLimit))
		t.Row(
			device,
			r.Account.Bank,
			view.FormatMoney(decimal.NewFromFloat(r.Account.Balance)),
			view.FormatMoney(r.Sent),
			view.FormatMoney(r.Remaining),
			active,
			monthly,
			r.Account.Notes,
			r.Account.ID,
		)
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headerStyle
		}
		r := rows[row]
		switch {
		case col == 6 && !r.MonthlyOK:
			return overStyle
		case col >= 2 && col <= 6:
			return numberStyle
		case r.Account.Blocked:
			return blockedStyle
		default:
			return cellStyle
		}
	})
	return t.Render()
}

func renderTotals(t view.Totals) string {
	return fmt.Sprintf("Balance %s   Sent %s   Remaining %s   Active %d/%d",
		view.FormatMoney(t.TotalBalance),
		view.FormatMoney(t.TotalSent),
		view.FormatMoney(t.TotalRemaining),
		t.ActiveCount,
		t.TotalCount)
}

func renderOuts(w io.Writer, rows []view.Row) {
	for _, r := range rows {
		if len(r.Account.Outs) == 0 {
			continue
		}
		fmt.Fprintf(w, "\n%s / %s (%s)\n", r.DeviceName, r.Account.Bank, r.Account.ID)
		for i, o := range r.Account.Outs {
			ts := time.UnixMilli(o.Timestamp).Local().Format("2006-01-02 15:04")
			line := fmt.Sprintf("  %d. %s  %s UAH", i+1, ts, view.FormatMoney(decimal.NewFromFloat(o.Amount)))
			if o.Note != "" {
				line += "  " + o.Note
			}
			fmt.Fprintln(w, line)
		}
	}
}
