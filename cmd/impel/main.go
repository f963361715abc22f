package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/san-kum/impel/internal/logging"
	"github.com/san-kum/impel/internal/storage"
)

// app carries the settings and services shared by every command.
type app struct {
	v   *viper.Viper
	log *logging.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	rootCmd := &cobra.Command{
		Use:           "impel",
		Short:         "frame-stepped motion lab",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.log != nil {
				a.log.Close()
			}
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("settings", "", "settings file (default $HOME/.config/impel/settings.yaml)")
	pf.String("data", ".impel", "data directory")
	pf.String("log-level", logging.LevelWarn, "log level ("+strings.Join(logging.ValidLevels(), ", ")+")")
	pf.Bool("log-file", false, "write JSON logs to <data>/logs instead of stderr")
	_ = a.v.BindPFlag("settings", pf.Lookup("settings"))
	_ = a.v.BindPFlag("data_dir", pf.Lookup("data"))
	_ = a.v.BindPFlag("log_level", pf.Lookup("log-level"))
	_ = a.v.BindPFlag("log_file", pf.Lookup("log-file"))

	rootCmd.AddCommand(
		a.runCmd(),
		a.presetsCmd(),
		a.listCmd(),
		a.plotCmd(),
		a.analyzeCmd(),
		a.exportCmd(),
		a.deleteCmd(),
		a.tuneCmd(),
		a.liveCmd(),
	)
	return rootCmd
}

// init resolves settings from flags, IMPEL_* environment variables and the
// optional settings file, then builds the logger.
func (a *app) init(cmd *cobra.Command) error {
	a.v.SetDefault("fps", 30)

	if file := a.v.GetString("settings"); file != "" {
		a.v.SetConfigFile(file)
	} else {
		a.v.SetConfigName("settings")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath("$HOME/.config/impel")
		a.v.AddConfigPath(".")
	}

	a.v.SetEnvPrefix("IMPEL")
	a.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("read settings: %w", err)
		}
	}

	level := a.v.GetString("log_level")
	if !slices.Contains(logging.ValidLevels(), strings.ToUpper(level)) {
		return fmt.Errorf("unknown log level %q", level)
	}

	// the live view owns the terminal, so it always logs to a file
	if a.v.GetBool("log_file") || cmd.Name() == "live" {
		log, err := logging.NewFile(filepath.Join(a.dataDir(), "logs"), level)
		if err != nil {
			return err
		}
		a.log = log
	} else {
		a.log = logging.New(cmd.ErrOrStderr(), level)
	}
	return nil
}

func (a *app) dataDir() string { return a.v.GetString("data_dir") }

func (a *app) store() *storage.Store { return storage.New(a.dataDir()) }
