package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/aweris/mountfs"
)

var catCmd = &cobra.Command{
	Use:   "cat <path>...",
	Short: "Print files",
	Long:  "Open each path through the mount table and copy it to stdout.",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCat,
}

func init() {
	rootCmd.AddCommand(catCmd)
}

func runCat(cmd *cobra.Command, args []string) error {
	table, err := loadTable(cmd)
	if err != nil {
		return err
	}

	for _, name := range args {
		if err := catFile(cmd.OutOrStdout(), table, name); err != nil {
			return err
		}
	}
	return nil
}

func catFile(w io.Writer, s mountfs.Store, name string) (err error) {
	f, err := s.Open(name)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	return nil
}
