// Package app implements the specreduce command line: plotting, colourizing
// and archiving calibrated spectra.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

type app struct {
	logger *slog.Logger
	level  *slog.LevelVar
	v      *viper.Viper
	config *Config
}

// Run executes the command line given by args.
func Run(ctx context.Context, args []string, logger *slog.Logger, level *slog.LevelVar) error {
	root := NewRootCommand(logger, level)
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

// NewRootCommand builds the specreduce command tree. Every tree has its own
// viper instance.
func NewRootCommand(logger *slog.Logger, level *slog.LevelVar) *cobra.Command {
	a := &app{
		logger: logger,
		level:  level,
		v:      viper.New(),
	}

	root := &cobra.Command{
		Use:               "specreduce",
		Short:             "Calibrate, plot and colourize astronomical spectra",
		Long:              "specreduce reads spectra from FITS files, applies a wavelength calibration and renders them as plots or colour images.",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.initConfig,
	}

	pf := root.PersistentFlags()
	pf.String("config", "", "config file (default .specreduce.yaml)")
	pf.BoolP("verbose", "v", false, "verbose output")
	pf.String("db", DefaultDBPath, "observation archive database path")
	pf.String("reference-dir", DefaultReferenceDir, "directory holding the Pickles reference spectra")
	pf.String("lines-file", "", "YAML file with additional element lines")

	_ = a.v.BindPFlag("verbose", pf.Lookup("verbose"))
	_ = a.v.BindPFlag("db", pf.Lookup("db"))
	_ = a.v.BindPFlag("reference_dir", pf.Lookup("reference-dir"))
	_ = a.v.BindPFlag("lines_file", pf.Lookup("lines-file"))

	root.AddCommand(
		a.newPlotCommand(),
		a.newColourizeCommand(),
		a.newLinesCommand(),
		a.newArchiveCommand(),
		a.newObservationsCommand(),
	)
	return root
}

func (a *app) initConfig(cmd *cobra.Command, _ []string) error {
	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		a.v.SetConfigFile(cfgFile)
	} else {
		a.v.SetConfigName(".specreduce")
		a.v.SetConfigType("yaml")
		a.v.AddConfigPath(".")
		home, err := os.UserHomeDir()
		if err == nil {
			a.v.AddConfigPath(home)
		}
	}

	a.v.SetEnvPrefix("SPECREDUCE")
	a.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	a.v.AutomaticEnv()

	if err := a.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		// an explicit config file must exist, the default one is optional
		if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" || !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := Load(a.v)
	if err != nil {
		return err
	}
	if cfg.Verbose && a.level != nil {
		a.level.Set(slog.LevelDebug)
	}
	a.config = cfg

	a.logger.Debug("configuration loaded",
		slog.String("configFile", a.v.ConfigFileUsed()),
		slog.String("db", cfg.DBPath),
		slog.String("referenceDir", cfg.ReferenceDir),
	)
	return nil
}
