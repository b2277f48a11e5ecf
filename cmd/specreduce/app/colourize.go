package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roman-kulish/specreduce/internal/calibration"
	"github.com/roman-kulish/specreduce/internal/colour"
	"github.com/roman-kulish/specreduce/internal/render"
)

type colourizeOptions struct {
	outfile   string
	format    string
	greyscale bool
	split     bool
	graph     bool
	annotate  bool
	calibrate string
}

func (a *app) newColourizeCommand() *cobra.Command {
	var opts colourizeOptions

	cmd := &cobra.Command{
		Use:   "colourize FILE",
		Short: "Create a colour image from a FITS spectrum",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runColourize(cmd, args[0], &opts)
		},
	}

	f := cmd.Flags()
	f.IntP("height", "y", render.DefaultHeight, "image height")
	f.StringVarP(&opts.outfile, "outfile", "o", "", "output file (default FILE with the format extension)")
	f.StringVarP(&opts.format, "format", "f", "", "output image format [png, jpeg, bmp] (default from the output file extension)")
	f.BoolVarP(&opts.greyscale, "greyscale", "g", false, "output a greyscale image")
	f.BoolVarP(&opts.split, "split", "s", false, "make the image split half colour, half greyscale")
	f.BoolVarP(&opts.graph, "graph", "G", false, "overlay an intensity graph on the image")
	f.BoolVar(&opts.annotate, "annotate", false, "add a wavelength scale and an information bar")
	f.StringVarP(&opts.calibrate, "calibrate", "c", "", "calibration, overrides the FITS header calibration")

	_ = a.v.BindPFlag("height", f.Lookup("height"))

	return cmd
}

func (o *colourizeOptions) mode() colour.Mode {
	switch {
	case o.greyscale:
		return colour.GreyscaleMode
	case o.split:
		return colour.SplitMode
	}
	return colour.SpectrumMode
}

func (o *colourizeOptions) destination(path string) (string, render.ImageFormat, error) {
	if o.format != "" {
		format, err := render.ParseImageFormat(o.format)
		if err != nil {
			return "", "", err
		}
		if o.outfile == "" {
			return strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(format), format, nil
		}
		return o.outfile, format, nil
	}

	if o.outfile == "" {
		return strings.TrimSuffix(path, filepath.Ext(path)) + "." + string(render.ImagePNG), render.ImagePNG, nil
	}
	format, err := render.ImageFormatFromPath(o.outfile)
	return o.outfile, format, err
}

func (a *app) runColourize(cmd *cobra.Command, path string, opts *colourizeOptions) (err error) {
	if opts.greyscale && opts.split {
		return errors.New("greyscale and split are mutually exclusive")
	}

	outfile, format, err := opts.destination(path)
	if err != nil {
		return err
	}

	spectra, err := a.loadSpectra(cmd.Context(), []string{path})
	if err != nil {
		return err
	}
	s := spectra[0]

	if opts.calibrate != "" {
		cat, err := a.loadCatalog()
		if err != nil {
			return err
		}
		c, err := calibration.Parse(opts.calibrate, cat.Wavelength)
		if err != nil {
			return err
		}
		s.SetCalibration(c)
	}
	if s.Calibration() == nil && opts.mode() != colour.GreyscaleMode {
		a.logger.Warn("spectrum is not calibrated, colours will not match wavelengths", slog.String("file", path))
	}

	colourizer, err := render.NewColourizer(render.ColourizeConfig{
		Height:   a.config.Height,
		Mode:     opts.mode(),
		Graph:    opts.graph,
		Annotate: opts.annotate,
	})
	if err != nil {
		return fmt.Errorf("creating colourizer: %w", err)
	}

	a.logger.Info("rendering spectrum",
		slog.Group("image",
			slog.String("destination", outfile),
			slog.String("format", string(format)),
			slog.String("mode", string(opts.mode())),
			slog.Int("width", s.Len()),
			slog.Int("height", a.config.Height),
		))

	img, err := colourizer.Render(render.Strip{
		Label:       s.Label(),
		Wavelengths: s.Wavelengths(),
		Data:        s.Data(),
		Calibrated:  s.Calibration() != nil,
	})
	if err != nil {
		return fmt.Errorf("rendering spectrum: %w", err)
	}

	out, err := os.Create(outfile)
	if err != nil {
		return err
	}
	defer closeWithError(out, &err)

	return render.Encode(out, img, format)
}
