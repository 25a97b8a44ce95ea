package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hirosato/p2p-ops-dashboard/internal/common/utils"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/account"
)

var accountCmd = &cobra.Command{
	Use:     "account",
	GroupID: "data",
	Short:   "Manage bank accounts",
}

var accountAddCmd = &cobra.Command{
	Use:   "add <device> <bank>",
	Short: "Link a bank account to a device",
	Long:  "Link a bank account to a device. Known banks: " + joinBanks(),
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := resolveDevice(application.ws.Devices(), args[0])
		if err != nil {
			return err
		}
		a, err := application.ws.AddAccount(d.ID, args[1])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), a.ID)
		return nil
	},
}

var accountRmCmd = &cobra.Command{
	Use:     "rm <account-id>",
	Aliases: []string{"remove"},
	Short:   "Delete an account",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.ValidateEntityID(args[0]); err != nil {
			return err
		}
		application.ws.DeleteAccount(args[0])
		return nil
	},
}

var accountSetCmd = &cobra.Command{
	Use:   "set <account-id>",
	Short: "Edit account fields",
	Example: `  p2pdash account set ACC_01J... --balance 12500 --active
  p2pdash account set ACC_01J... --monthly-received 40000 --notes "card reissued"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := utils.ValidateEntityID(args[0]); err != nil {
			return err
		}
		patch, err := patchFromFlags(cmd)
		if err != nil {
			return err
		}
		if patch.IsEmpty() {
			return fmt.Errorf("nothing to change: pass at least one field flag")
		}
		return application.ws.UpdateAccount(args[0], patch)
	},
}

var accountBlockCmd = &cobra.Command{
	Use:   "block <account-id>",
	Short: "Mark an account blocked, capturing its remaining amount",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		reason, _ := cmd.Flags().GetString("reason")
		return application.ws.BlockAccount(args[0], reason)
	},
}

var accountUnblockCmd = &cobra.Command{
	Use:   "unblock <account-id>",
	Short: "Clear the blocked status of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return application.ws.UnblockAccount(args[0])
	},
}

func init() {
	f := accountSetCmd.Flags()
	f.Float64("balance", 0, "current balance")
	f.Bool("active", false, "whether the account is in use")
	f.String("notes", "", "free-form notes")
	f.Float64("monthly-received", 0, "amount received this month")
	f.Float64("monthly-limit", 0, "monthly receiving limit")
	f.String("drop-name", "", "name of the account holder")

	accountBlockCmd.Flags().String("reason", "", "why the account was blocked")

	accountCmd.AddCommand(accountAddCmd, accountRmCmd, accountSetCmd, accountBlockCmd, accountUnblockCmd)
	rootCmd.AddCommand(accountCmd)
}

// patchFromFlags sets only the fields whose flags were given
func patchFromFlags(cmd *cobra.Command) (account.Patch, error) {
	var p account.Patch
	f := cmd.Flags()

	floatFlag := func(name string, dst **float64) error {
		if !f.Changed(name) {
			return nil
		}
		v, err := f.GetFloat64(name)
		if err != nil {
			return err
		}
		*dst = &v
		return nil
	}
	stringFlag := func(name string, dst **string) {
		if f.Changed(name) {
			v, _ := f.GetString(name)
			*dst = &v
		}
	}

	if err := floatFlag("balance", &p.Balance); err != nil {
		return p, err
	}
	if err := floatFlag("monthly-received", &p.MonthlyReceived); err != nil {
		return p, err
	}
	if err := floatFlag("monthly-limit", &p.MonthlyLimit); err != nil {
		return p, err
	}
	if f.Changed("active") {
		v, _ := f.GetBool("active")
		p.Active = &v
	}
	stringFlag("notes", &p.Notes)
	stringFlag("drop-name", &p.DropName)
	return p, nil
}

func joinBanks() string {
	return strings.Join(account.Banks, ", ")
}

var outCmd = &cobra.Command{
	Use:     "out",
	GroupID: "data",
	Short:   "Record and remove withdrawals",
}

var outAddCmd = &cobra.Command{
	Use:   "add <account-id> <amount>",
	Short: "Record a withdrawal",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q", args[1])
		}
		note, _ := cmd.Flags().GetString("note")
		_, err = application.ws.AddOut(args[0], amount, note)
		return err
	},
}

var outRmCmd = &cobra.Command{
	Use:   "rm <account-id> <n>",
	Short: "Remove the n-th withdrawal (1-based, as listed by view --outs)",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := strconv.Atoi(args[1])
		if err != nil || n < 1 {
			return fmt.Errorf("invalid position %q", args[1])
		}
		application.ws.DeleteOut(args[0], n-1)
		return nil
	},
}

var outResetCmd = &cobra.Command{
	Use:   "reset <account-id>",
	Short: "Remove every withdrawal of an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application.ws.ResetOuts(args[0])
		return nil
	},
}

var resetCmd = &cobra.Command{
	Use:     "reset",
	GroupID: "data",
	Short:   "Reset fields across every account (monthly limits are kept)",
	Example: `  p2pdash reset --balance --outs
  p2pdash reset --all`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		f := cmd.Flags()
		var opts account.ResetOptions
		if all, _ := f.GetBool("all"); all {
			opts = account.AllResetOptions()
		} else {
			opts.Balance, _ = f.GetBool("balance")
			opts.Active, _ = f.GetBool("active")
			opts.Outs, _ = f.GetBool("outs")
			opts.Notes, _ = f.GetBool("notes")
			opts.MonthlyReceived, _ = f.GetBool("monthly-received")
		}
		if len(opts.Labels()) == 0 {
			return fmt.Errorf("select at least one field to reset, or --all")
		}
		n := application.ws.ResetSelected(opts)
		fmt.Fprintf(cmd.OutOrStdout(), "%d accounts reset\n", n)
		return nil
	},
}

func init() {
	outAddCmd.Flags().String("note", "", "note for the withdrawal")
	outCmd.AddCommand(outAddCmd, outRmCmd, outResetCmd)
	rootCmd.AddCommand(outCmd)

	f := resetCmd.Flags()
	f.Bool("all", false, "reset every field below")
	f.Bool("balance", false, "zero balances")
	f.Bool("active", false, "mark accounts inactive")
	f.Bool("outs", false, "remove withdrawals")
	f.Bool("notes", false, "clear notes")
	f.Bool("monthly-received", false, "zero monthly received")
	rootCmd.AddCommand(resetCmd)
}
