package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var listCVsCmd = &cobra.Command{
	Use:   "list-cvs",
	Short: "List the CV presentations available in the CV directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService("")
		if err != nil {
			return err
		}
		files, err := svc.ListCVs(cmd.Context())
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Fprintln(cmd.OutOrStdout(), f)
		}
		return nil
	},
}

var inspectCmd = &cobra.Command{
	Use:   "inspect NAME",
	Short: "Show the record extracted for one consultant",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService("")
		if err != nil {
			return err
		}
		out, err := svc.Inspect(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}
