package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/aweris/mountfs"
	"github.com/aweris/mountfs/internal/config"
)

var log = logrus.New()

// configErr is the config file error of the current run, if it must fail.
var configErr error

var rootCmd = &cobra.Command{
	Use:   "mountfs",
	Short: "Virtual filesystem overlay CLI",
	Long:  "Read files through a mount table of merged local, archive, image and git stores.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return configErr
	},
	SilenceUsage: true,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	log.SetOutput(os.Stderr)

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("config", "", "config file (default: ~/.config/mountfs/config.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log mount resolution")
	rootCmd.PersistentFlags().StringArray("mount", nil, "mount a local directory, as path=dir (repeatable)")
	rootCmd.PersistentFlags().Int("concurrency", config.DefaultConcurrency, "number of stores or paths opened at once")

	bindFlags()
}

func bindFlags() {
	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("concurrency", rootCmd.PersistentFlags().Lookup("concurrency"))
}

func initConfig() {
	log.SetLevel(logrus.InfoLevel)
	if viper.GetBool("verbose") {
		log.SetLevel(logrus.DebugLevel)
	}

	explicit := rootCmd.PersistentFlags().Lookup("config").Value.String()
	if explicit != "" {
		viper.SetConfigFile(explicit)
	} else {
		viper.AddConfigPath(configDir())
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("MOUNTFS")
	viper.AutomaticEnv()

	configErr = nil
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			log.WithError(err).Debug("no config file loaded")
			return
		}
		configErr = fmt.Errorf("read config: %w", err)
		return
	}
	log.WithField("file", viper.ConfigFileUsed()).Debug("config loaded")
}

func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "mountfs")
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".config", "mountfs")
	}
	return ".mountfs"
}

// loadConfig reads the configured mounts and appends the --mount flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, err
	}

	flags, err := cmd.Flags().GetStringArray("mount")
	if err != nil {
		return nil, err
	}
	for _, m := range flags {
		path, dir, err := parseMount(m)
		if err != nil {
			return nil, err
		}
		cfg.AddLocal(path, dir)
	}
	return cfg, nil
}

func loadTable(cmd *cobra.Command) (*mountfs.Table, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}
	if len(cfg.Mounts) == 0 {
		return nil, fmt.Errorf("no mounts configured; use --config or --mount")
	}

	stores := 0
	for _, m := range cfg.Mounts {
		stores += len(m.Stores)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "[build] opening %d stores in %d mounts...\n", stores, len(cfg.Mounts))

	table, err := config.Build(cmd.Context(), cfg, mountfs.WithLogger(log))
	if err != nil {
		return nil, fmt.Errorf("build mount table: %w", err)
	}
	return table, nil
}

func parseMount(s string) (path, dir string, err error) {
	path, dir, ok := strings.Cut(s, "=")
	if !ok || path == "" || dir == "" {
		return "", "", fmt.Errorf("invalid mount %q: want path=dir", s)
	}
	return path, dir, nil
}
