package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/specreduce/internal/calibration"
	"github.com/roman-kulish/specreduce/internal/colour"
	"github.com/roman-kulish/specreduce/internal/fits"
	"github.com/roman-kulish/specreduce/internal/render"
	"github.com/roman-kulish/specreduce/internal/spectrum"
	"github.com/roman-kulish/specreduce/internal/storage"
)

type plotOptions struct {
	calibrate    string
	lines        string
	title        string
	supTitle     string
	crop         bool
	reference    string
	offset       float64
	greyscale    bool
	output       string
	imageTheme   string
	observations []int64
}

func (a *app) newPlotCommand() *cobra.Command {
	var opts plotOptions

	cmd := &cobra.Command{
		Use:   "plot [FILE...]",
		Short: "Plot the intensity of one or more spectra",
		Long: `Plot the intensity of one or more spectra against pixel or wavelength.

The first spectrum is the base spectrum: the calibration, element lines and
the reference correction apply to it. Further spectra are overlaid.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runPlot(cmd, args, &opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.calibrate, "calibrate", "c", "", "calibration, pixel:angstrom,pixel:angstrom[,...] or pixel,angstrom,angstrom_per_pixel")
	f.StringVarP(&opts.lines, "lines", "l", "", "element lines to mark, codes or angstrom:label")
	f.StringVarP(&opts.title, "title", "t", "", "plot title (default first file name)")
	f.StringVarP(&opts.supTitle, "suptitle", "s", "", "plot super-title, appears above title")
	f.BoolVarP(&opts.crop, "crop", "C", false, "crop spectra to the crop range")
	f.String("croprange", DefaultCropRange, "crop range in angstrom")
	f.StringP("headerlabel", "H", fits.DefaultLabelKey, "use the value of this FITS header as the legend")
	f.StringVarP(&opts.reference, "reference", "r", "", "spectral type of a reference spectrum to correct against")
	f.Float64("smoothing", spectrum.DefaultSmoothing, "continuum smoothing factor")
	f.Float64Var(&opts.offset, "offset", 0, "vertical offset between consecutive spectra")
	f.BoolVar(&opts.greyscale, "greyscale", false, "draw spectra in shades of grey")
	f.StringVarP(&opts.output, "output", "o", "spectrum.png", "output file, the extension selects the format")
	f.StringVar(&opts.imageTheme, "image-theme", string(colour.GreyTheme), "colour theme of the raw image panel [grey, classic, thermal, marine, jungle]")
	f.Int64SliceVar(&opts.observations, "observation", nil, "add an archived observation to the plot")

	_ = a.v.BindPFlag("crop_range", f.Lookup("croprange"))
	_ = a.v.BindPFlag("header_label", f.Lookup("headerlabel"))
	_ = a.v.BindPFlag("smoothing", f.Lookup("smoothing"))

	return cmd
}

func (a *app) runPlot(cmd *cobra.Command, args []string, opts *plotOptions) (err error) {
	ctx := cmd.Context()

	if len(args) == 0 && len(opts.observations) == 0 {
		return errors.New("at least one FITS file or archived observation is required")
	}

	cat, err := a.loadCatalog()
	if err != nil {
		return err
	}

	spectra, err := a.loadSpectra(ctx, args)
	if err != nil {
		return err
	}

	if len(opts.observations) > 0 {
		store := storage.NewSqliteStore(a.config.DBPath)
		defer closeWithError(store, &err)

		for _, id := range opts.observations {
			s, err := loadObservation(ctx, store, id, cat.Wavelength)
			if err != nil {
				return err
			}
			spectra = append(spectra, s)
		}
	}

	base := spectra[0]
	if opts.calibrate != "" {
		c, err := calibration.Parse(opts.calibrate, cat.Wavelength)
		if err != nil {
			return err
		}
		base.SetCalibration(c)
	}

	config := render.PlotConfig{
		Title:     opts.title,
		SupTitle:  opts.supTitle,
		Offset:    opts.offset,
		Greyscale: opts.greyscale,
	}
	if config.Title == "" {
		config.Title = defaultTitle(args, opts.observations)
	}
	if base.IsImage() {
		config.Image = base.Raw()
		if config.ImageTheme, err = colour.ParseTheme(opts.imageTheme); err != nil {
			return err
		}
	}

	var series []render.Series
	for _, s := range spectra {
		series = append(series, render.Series{Label: s.Label(), X: s.Wavelengths(), Y: s.Data()})
	}

	if base.Calibration() != nil {
		config.Calibrated = true
		a.logger.Info("calibrated", slog.String("calibration", base.Calibration().String()))

		if config.Lines, err = cat.ParseLines(opts.lines); err != nil {
			return err
		}

		if opts.reference != "" {
			extra, err := a.correct(base, opts.reference)
			if err != nil {
				return err
			}
			series = append(series, extra...)

			opts.crop = true
		}
	} else if opts.lines != "" || opts.reference != "" {
		a.logger.Warn("element lines and reference correction need a calibrated spectrum, ignoring")
	}

	if opts.crop {
		if config.Crop, err = ParseCropRange(a.config.CropRange); err != nil {
			return err
		}
	}

	out, err := os.Create(opts.output)
	if err != nil {
		return err
	}
	defer closeWithError(out, &err)

	if err = render.NewPlotRenderer(config).Render(out, render.PlotFormat(opts.output), series); err != nil {
		return fmt.Errorf("rendering plot: %w", err)
	}

	a.logger.Info("plot written",
		slog.String("destination", opts.output),
		slog.Int("series", len(series)),
		slog.Int("lines", len(config.Lines)))
	return nil
}

// correct scales the reference to base and returns the reference and the
// corrected spectrum series.
func (a *app) correct(base *spectrum.Observed, spectralType string) ([]render.Series, error) {
	ref, err := a.loadReference(spectralType)
	if err != nil {
		return nil, err
	}
	factor := ref.ScaleTo(base)

	corrected := spectrum.NewCorrected(base, ref, spectrum.WithSmoothing(a.config.Smoothing))
	data, err := corrected.Data()
	if err != nil {
		return nil, fmt.Errorf("correcting against %s: %w", spectralType, err)
	}

	a.logger.Debug("reference applied",
		slog.String("reference", ref.Label()),
		slog.Float64("scale", factor),
		slog.Float64("smoothing", a.config.Smoothing))

	return []render.Series{
		{Label: ref.Label(), X: ref.Wavelengths(), Y: ref.Data()},
		{Label: corrected.Label(), X: corrected.Wavelengths(), Y: data},
	}, nil
}

func defaultTitle(args []string, observations []int64) string {
	if len(args) > 0 {
		return args[0]
	}
	return fmt.Sprintf("Observation %d", observations[0])
}
