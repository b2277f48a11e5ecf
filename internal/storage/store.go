package storage

import (
	"context"

	"github.com/roman-kulish/specreduce/internal/spectrum"
)

// Store provides an interface for archiving reduced spectra.
// All operations that write to the database should be considered atomic.
type Store interface {
	// CreateObservation registers a new archived spectrum and returns its unique identifier.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - source: Name of the file the spectrum was read from
	//   - label: Display label, usually the observation date
	//   - calibration: Optional calibration argument, nil for raw pixel data
	//
	// Returns:
	//   - observationID: Unique identifier for the created observation
	//   - error: If creation fails or context is cancelled
	CreateObservation(ctx context.Context, source, label string, calibration *string) (observationID int64, err error)

	// Observation retrieves a specific observation by its ID.
	//
	// Returns ErrNotFound when no observation has the given ID.
	Observation(ctx context.Context, id int64) (observation *spectrum.Observation, err error)

	// Observations returns all archived observations ordered by ID.
	Observations(ctx context.Context) (observations []*spectrum.Observation, err error)

	// StoreSpectrum saves the samples of an observation.
	// All samples are stored in a single atomic transaction.
	//
	// Parameters:
	//   - ctx: Context for cancellation and timeouts
	//   - observationID: ID of the observation these samples belong to
	//   - samples: Samples ordered by pixel
	//
	// Returns:
	//   - error: If storage fails or context is cancelled
	StoreSpectrum(ctx context.Context, observationID int64, samples []spectrum.Sample) error

	// Close releases all database connections and resources.
	// After Close is called, the store instance cannot be reused.
	// It is safe to call Close multiple times.
	Close() error
}

var _ Store = (*SqliteStore)(nil)
