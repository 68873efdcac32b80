package main

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"

	"github.com/kyaoi/layerview/internal/app"
	"github.com/kyaoi/layerview/internal/config"
)

type flags struct {
	configPath string
	output     string
	export     bool
	hide       []string
	logFile    string
	debug      bool
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var f flags
	cmd := &cobra.Command{
		Use:   "layerview <psd-file-or-layer-directory>",
		Short: "View the layers of a PSD file or layer directory in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(args[0], f)
		},
		SilenceUsage: true,
	}
	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "config file (default "+config.DefaultPath+")")
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "path of the exported composite PNG")
	cmd.Flags().BoolVar(&f.export, "export", false, "write the composite to --output and exit")
	cmd.Flags().StringSliceVar(&f.hide, "hide", nil, "hide layers by path or glob, e.g. 'Group' (with its contents) or 'Group/*'")
	cmd.Flags().StringVar(&f.logFile, "log-file", "", "log file (overrides the config)")
	cmd.Flags().BoolVar(&f.debug, "debug", false, "log debug messages")
	return cmd
}

func run(target string, f flags) error {
	cfg, err := config.Load(f.configPath)
	if err != nil {
		return err
	}
	if f.logFile != "" {
		cfg.LogFile = f.logFile
	}

	// The terminal belongs to the viewer, so interactive runs log to a file.
	var out io.Writer = os.Stderr
	if !f.export {
		path, err := cfg.LogPath()
		if err != nil {
			return err
		}
		logFile, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return err
		}
		defer logFile.Close()
		out = logFile
	}
	if err := setupLogging(out, cfg.LogLevel, f.debug, f.export); err != nil {
		return err
	}

	if f.export {
		output := f.output
		if output == "" {
			output = "composite.png"
		}
		return app.Export(target, output, f.hide)
	}
	return app.Run(target, app.Options{
		Config: cfg,
		Hide:   f.hide,
		Output: f.output,
	})
}

func setupLogging(out io.Writer, level string, debug, colors bool) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	if debug {
		lvl = log.DebugLevel
	}
	log.SetFormatter(&prefixed.TextFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
		FullTimestamp:   true,
		ForceFormatting: true,
		ForceColors:     colors,
		DisableColors:   !colors,
	})
	log.SetOutput(out)
	log.SetLevel(lvl)
	return nil
}
