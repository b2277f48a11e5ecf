package spectrum

import (
	"time"
)

// Observation is an archived spectrum: where it came from and how it was
// calibrated when it was stored.
type Observation struct {
	ID          int64     `json:"ID"`                    // Unique identifier for the observation
	CreatedAt   time.Time `json:"createdAt"`             // When the observation was archived
	Source      string    `json:"source"`                // Source file name
	Label       string    `json:"label"`                 // Display label, usually DATE-OBS
	Calibration *string   `json:"calibration,omitempty"` // Calibration argument, nil for raw pixel data
}

// Sample is one point of an archived spectrum.
type Sample struct {
	Pixel      int      `json:"pixel"`                // Position along the dispersion axis
	Wavelength *float64 `json:"wavelength,omitempty"` // Wavelength in angstrom (nil if uncalibrated)
	Intensity  float64  `json:"intensity"`            // Summed detector counts
}

// Samples flattens a spectrum into archive samples.
func Samples(s *Observed) []Sample {
	data := s.Data()
	var wavelengths []float64
	if s.Calibration() != nil {
		wavelengths = s.Wavelengths()
	}

	samples := make([]Sample, len(data))
	for i, v := range data {
		samples[i] = Sample{Pixel: i, Intensity: v}
		if wavelengths != nil {
			w := wavelengths[i]
			samples[i].Wavelength = &w
		}
	}
	return samples
}

// FromSamples rebuilds an uncalibrated spectrum from archive samples ordered
// by pixel.
func FromSamples(label string, samples []Sample) *Observed {
	data := make([]float64, len(samples))
	for i, s := range samples {
		data[i] = s.Intensity
	}
	o := NewObserved(data)
	o.SetLabel(label)
	return o
}
