package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"runtime"

	"github.com/dustin/go-humanize"
	"golang.org/x/sync/errgroup"

	"github.com/roman-kulish/specreduce/internal/calibration"
	"github.com/roman-kulish/specreduce/internal/catalog"
	"github.com/roman-kulish/specreduce/internal/fits"
	"github.com/roman-kulish/specreduce/internal/spectrum"
	"github.com/roman-kulish/specreduce/internal/storage"
)

// loadSpectra reads FITS files concurrently. Results keep the order of paths.
func (a *app) loadSpectra(ctx context.Context, paths []string) ([]*spectrum.Observed, error) {
	spectra := make([]*spectrum.Observed, len(paths))

	errGrp, dCtx := errgroup.WithContext(ctx)
	errGrp.SetLimit(runtime.NumCPU())
	for i, path := range paths {
		errGrp.Go(func() error {
			if err := dCtx.Err(); err != nil {
				return err
			}

			s, err := fits.ReadSpectrum(path, a.config.HeaderLabel)
			if err != nil {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			spectra[i] = s

			attrs := []any{
				slog.String("file", path),
				slog.String("label", s.Label()),
				slog.Int("samples", s.Len()),
				slog.Bool("image", s.IsImage()),
			}
			if fi, err := os.Stat(path); err == nil {
				attrs = append(attrs, slog.String("size", humanize.Bytes(uint64(fi.Size()))))
			}
			a.logger.Debug("spectrum loaded", attrs...)
			return nil
		})
	}
	if err := errGrp.Wait(); err != nil {
		return nil, err
	}
	return spectra, nil
}

func (a *app) loadCatalog() (*catalog.Catalog, error) {
	c := catalog.New()
	if a.config.LinesFile == "" {
		return c, nil
	}

	lines, err := catalog.LoadLines(a.config.LinesFile)
	if err != nil {
		return nil, err
	}
	a.logger.Debug("element lines loaded",
		slog.String("file", a.config.LinesFile),
		slog.Int("lines", len(lines)))
	return c.WithLines(lines), nil
}

func (a *app) loadReference(spectralType string) (*spectrum.Reference, error) {
	path, err := catalog.ReferencePath(a.config.ReferenceDir, spectralType)
	if err != nil {
		return nil, err
	}

	wavelengths, flux, err := fits.ReadReference(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference %s: %w", spectralType, err)
	}
	return spectrum.NewReference(fmt.Sprintf("Reference (%s)", spectralType), wavelengths, flux)
}

// loadObservation rebuilds an archived spectrum, restoring its calibration
// from the stored argument.
func loadObservation(ctx context.Context, store *storage.SqliteStore, id int64, lookup calibration.LineLookup) (*spectrum.Observed, error) {
	r, err := store.ReadSpectrum(ctx, id)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	samples, err := storage.ReadAll(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("reading observation %d: %w", id, err)
	}

	obs := r.Observation()
	s := spectrum.FromSamples(obs.Label, samples)
	if obs.Calibration != nil {
		c, err := calibration.Parse(*obs.Calibration, lookup)
		if err != nil {
			return nil, fmt.Errorf("observation %d: %w", id, err)
		}
		s.SetCalibration(c)
	}
	return s, nil
}

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}
