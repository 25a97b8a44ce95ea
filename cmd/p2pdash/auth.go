package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/hirosato/p2p-ops-dashboard/internal/common/utils"
	"github.com/hirosato/p2p-ops-dashboard/internal/domain/auth"
)

var loginCmd = &cobra.Command{
	Use:     "login <email>",
	GroupID: "sync",
	Short:   "Sign in to enable cloud sync",
	Long: `Sign in with your dashboard account. The password is read from the
terminal without echo, or from the first line of stdin when piped.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := application.requireAuth()
		if err != nil {
			return err
		}
		email := strings.TrimSpace(args[0])
		if err := utils.ValidateEmail(email); err != nil {
			return err
		}

		password, err := readPassword(cmd.InOrStdin(), cmd.ErrOrStderr())
		if err != nil {
			return err
		}

		user, err := svc.Login(cmd.Context(), auth.LoginInput{Email: email, Password: password})
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", displayName(user))
		return nil
	},
}

var logoutCmd = &cobra.Command{
	Use:     "logout",
	GroupID: "sync",
	Short:   "Sign out and forget the local session",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := application.requireAuth()
		if err != nil {
			return err
		}
		if err := svc.Logout(cmd.Context()); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
		return nil
	},
}

var whoamiCmd = &cobra.Command{
	Use:     "whoami",
	GroupID: "sync",
	Short:   "Show the signed-in user",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := application.requireAuth()
		if err != nil {
			return err
		}
		user, err := svc.CurrentUser(cmd.Context())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "User:    %s\n", displayName(user))
		fmt.Fprintf(out, "ID:      %s\n", user.ID)
		if !user.TokenMetadata.ExpiresAt.IsZero() {
			fmt.Fprintf(out, "Expires: %s\n", user.TokenMetadata.ExpiresAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd, logoutCmd, whoamiCmd)
}

func displayName(u auth.User) string {
	switch {
	case u.Email != "":
		return u.Email
	case u.Username != "":
		return u.Username
	default:
		return u.ID
	}
}

func readPassword(in io.Reader, prompt io.Writer) (string, error) {
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(prompt, "Password: ")
		raw, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(prompt)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(raw), nil
	}

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}
