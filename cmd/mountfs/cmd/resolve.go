package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aweris/mountfs"
)

var resolveCmd = &cobra.Command{
	Use:   "resolve <path>",
	Short: "Show which mount serves a path",
	Long:  "Print the mount path, the remainder passed to its store and the store type. Nothing is opened.",
	Args:  cobra.ExactArgs(1),
	RunE:  runResolve,
}

func init() {
	rootCmd.AddCommand(resolveCmd)
}

func runResolve(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd)
	if err != nil {
		return err
	}

	r, ok := table.Resolve(args[0])
	if !ok {
		return fmt.Errorf("%s: %w", args[0], mountfs.ErrNotFound)
	}

	rest := r.Rest
	if rest == "" {
		rest = "."
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%T\n", r.Mount, rest, r.Store)
	return nil
}
