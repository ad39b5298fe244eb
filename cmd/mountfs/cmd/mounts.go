package cmd

import (
	"github.com/spf13/cobra"

	"github.com/aweris/mountfs/internal/config"
)

var mountsCmd = &cobra.Command{
	Use:   "mounts",
	Short: "Print the mount table",
	Long:  "Print the configured mounts, including --mount flags, as YAML. Stores are not opened.",
	Args:  cobra.NoArgs,
	RunE:  runMounts,
}

func init() {
	rootCmd.AddCommand(mountsCmd)
}

func runMounts(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = cmd.OutOrStdout().Write(data)
	return err
}
