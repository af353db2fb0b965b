package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/ahkdebug/internal/config"
	"github.com/dshills/ahkdebug/internal/logging"
)

// globalOptions holds the flags shared by every command.
type globalOptions struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	cmd := &cobra.Command{
		Use:   "ahkdebug",
		Short: "AutoHotkey DBGp debugging tools",
		Long: `ahkdebug talks to an AutoHotkey script started with /Debug.

The script connects to the listen address from the configuration file
(127.0.0.1:9005 by default). Breakpoint conditions use the adapter's
condition syntax, for example:

  count > 10
  name ~= "i)^tmp"
  item is Map`,
		Version:      fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "ahkdebug.toml", "path to configuration file")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "log level (debug, info, warn, error); overrides the configuration file")

	cmd.AddCommand(
		newParseCmd(),
		newEvalCmd(opts),
		newInspectCmd(opts),
	)
	return cmd
}

// load reads the configuration and builds the logger for cmd.
func (o *globalOptions) load(cmd *cobra.Command) (*config.Config, *logging.Logger, error) {
	cfg, err := config.NewLoader().Load(o.configPath)
	if err != nil {
		return nil, nil, err
	}

	level := cfg.LogLevel
	if o.logLevel != "" {
		level = o.logLevel
	}

	logCfg := logging.DefaultConfig()
	logCfg.Level = logging.ParseLevel(level)
	logCfg.Output = cmd.ErrOrStderr()
	return cfg, logging.New(logCfg), nil
}
