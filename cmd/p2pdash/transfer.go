package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:     "export",
	GroupID: "io",
	Short:   "Export data as JSON or CSV",
}

var exportJSONCmd = &cobra.Command{
	Use:   "json",
	Short: "Write a full JSON backup",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withOutput(cmd, func(w io.Writer) error {
			return application.ws.ExportJSON(w)
		})
	},
}

var exportCSVCmd = &cobra.Command{
	Use:   "csv",
	Short: "Write the filtered account list as CSV",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		filter, err := filterFromFlags(cmd)
		if err != nil {
			return err
		}
		return withOutput(cmd, func(w io.Writer) error {
			return application.ws.ExportCSV(w, filter)
		})
	},
}

var importCmd = &cobra.Command{
	Use:     "import <file|->",
	GroupID: "io",
	Short:   "Load a JSON backup, replacing the slices it contains",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if args[0] == "-" {
			return application.ws.ImportSnapshot(cmd.InOrStdin())
		}
		f, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer f.Close()
		return application.ws.ImportSnapshot(f)
	},
}

func init() {
	for _, c := range []*cobra.Command{exportJSONCmd, exportCSVCmd} {
		c.Flags().StringP("output", "o", "", "write to this file instead of stdout")
	}
	addFilterFlags(exportCSVCmd)

	exportCmd.AddCommand(exportJSONCmd, exportCSVCmd)
	rootCmd.AddCommand(exportCmd, importCmd)
}

// withOutput runs write against stdout or the --output file
func withOutput(cmd *cobra.Command, write func(io.Writer) error) error {
	path, _ := cmd.Flags().GetString("output")
	if path == "" {
		return write(cmd.OutOrStdout())
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
