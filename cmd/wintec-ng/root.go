package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"wintec-ng/internal/config"
	"wintec-ng/internal/logging"
)

const (
	ConfigOptionName   = "config"
	LogLevelOptionName = "log-level"
)

// app carries the loaded configuration from the root command to the
// subcommands.
type app struct {
	configPath string
	logLevel   string
	cfg        config.Config
}

func (a *app) load() error {
	cfg := config.Default()
	if path := strings.TrimSpace(a.configPath); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return fmt.Errorf("config load failed: %w", err)
		}
		cfg = loaded
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg
	return nil
}

func NewRootCommand(out io.Writer) *cobra.Command {
	a := &app{}
	cmd := &cobra.Command{
		Use:           "wintec-ng",
		Short:         "Tools for Wintec WBT-201 and WSG-1000 GPS loggers",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.load(); err != nil {
				return err
			}
			return logging.Init(cmd.ErrOrStderr(), a.cfg.Log.Level)
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(newReadlogCommand(a))
	cmd.AddCommand(newSplitCommand(a))
	cmd.AddCommand(newRebuildCommand(a))
	cmd.AddCommand(newInfoCommand(a))
	cmd.AddCommand(newNMEACommand(a))
	cmd.AddCommand(newTranscriptCommand(a))
	cmd.PersistentFlags().StringVar(&a.configPath, ConfigOptionName, "", "Path to YAML config")
	cmd.PersistentFlags().StringVar(&a.logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", logging.HelpLevels))
	return cmd
}
