package app

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/roman-kulish/specreduce/internal/calibration"
	"github.com/roman-kulish/specreduce/internal/spectrum"
	"github.com/roman-kulish/specreduce/internal/storage"
)

func (a *app) newArchiveCommand() *cobra.Command {
	var calibrate string

	cmd := &cobra.Command{
		Use:   "archive FILE",
		Short: "Store a spectrum in the observation archive",
		Long:  "Store a spectrum in the observation archive and print its observation ID.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			ctx := cmd.Context()
			path := args[0]

			spectra, err := a.loadSpectra(ctx, args)
			if err != nil {
				return err
			}
			s := spectra[0]

			if calibrate != "" {
				cat, err := a.loadCatalog()
				if err != nil {
					return err
				}
				c, err := calibration.Parse(calibrate, cat.Wavelength)
				if err != nil {
					return err
				}
				s.SetCalibration(c)
			}

			var arg *string
			if c := s.Calibration(); c != nil {
				v := c.Argument()
				arg = &v
			}

			store := storage.NewSqliteStore(a.config.DBPath)
			defer closeWithError(store, &err)

			id, err := store.CreateObservation(ctx, filepath.Base(path), s.Label(), arg)
			if err != nil {
				return fmt.Errorf("creating observation: %w", err)
			}
			if err = store.StoreSpectrum(ctx, id, spectrum.Samples(s)); err != nil {
				return fmt.Errorf("storing spectrum: %w", err)
			}

			a.logger.Info("spectrum archived",
				slog.Int64("observation", id),
				slog.String("db", a.config.DBPath),
				slog.String("samples", humanize.Comma(int64(s.Len()))))

			_, err = fmt.Fprintln(cmd.OutOrStdout(), id)
			return err
		},
	}

	cmd.Flags().StringVarP(&calibrate, "calibrate", "c", "", "calibration to archive with the spectrum")
	return cmd
}
