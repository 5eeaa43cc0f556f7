package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dshills/inkwell/internal/config"
)

// app carries what the persistent pre-run resolved for the subcommands.
type app struct {
	configPath string
	cfg        *config.Config
	logger     *slog.Logger
	loadOpts   []config.LoadOption
}

// flagOverrides maps command flags onto the config paths they override.
var flagOverrides = map[string]string{
	"log-level": "log.level",
	"addr":      "server.addr",
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "inkwell",
		Short: "Inkwell is a structured rich-text document engine",
		Long: `Inkwell loads Markdown and HTML into a schema-checked document tree,
runs editing commands against it and writes it back out.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.init(cmd)
		},
	}

	root.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "path to the configuration file")
	root.PersistentFlags().String("log-level", "", "log level (debug, info, warn, error)")

	root.AddCommand(
		newConvertCmd(a),
		newPreviewCmd(a),
		newServeCmd(a),
		newRunCmd(a),
		newWatchCmd(a),
		newVersionCmd(),
	)
	return root
}

func (a *app) init(cmd *cobra.Command) error {
	path := a.configPath
	if path == "" {
		path = config.DefaultPath()
	}

	for name, key := range flagOverrides {
		if f := cmd.Flags().Lookup(name); f != nil && f.Changed {
			a.loadOpts = append(a.loadOpts, config.WithOverride(key, f.Value.String()))
		}
	}

	cfg, err := config.Load(path, a.loadOpts...)
	if err != nil {
		return err
	}
	logger, err := cfg.Log.NewLogger(cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.logger = logger
	if cfg.Path != "" {
		logger.Debug("configuration loaded", "path", cfg.Path)
	}
	return nil
}
