package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
	"github.com/roman-kulish/specreduce/internal/spectrum"
)

// ErrNoData indicates either that no samples exist for the given parameters,
// or that all available samples have been read from the spectrum reader.
var ErrNoData = fmt.Errorf("no data available")

// SpectrumReader provides an iterator-based interface for reading archived
// samples with optional pixel filtering.
type SpectrumReader interface {
	// Observation returns metadata about the archived spectrum this reader is accessing.
	Observation() *spectrum.Observation

	// Next advances the iterator and returns true if there is another sample
	// to read, false when the iteration is complete or if an error occurred.
	Next(context.Context) bool

	// Current returns the current sample in the iteration.
	// If called after Next() returns false, the behavior is undefined.
	Current() *spectrum.Sample

	// Error returns any error that occurred during iteration.
	// If Next() returns false, Error() should be checked to distinguish between
	// end of data and an error condition.
	Error() error

	// Close releases any resources associated with the reader.
	// After Close is called, the reader should not be used.
	Close() error
}

var _ SpectrumReader = (*SqliteSpectrumReader)(nil)

// ReaderOption configures a SqliteSpectrumReader with specific filtering criteria.
type ReaderOption func(*SqliteSpectrumReader)

// WithMinPixel excludes samples below the given pixel.
func WithMinPixel(p int) ReaderOption {
	return func(r *SqliteSpectrumReader) {
		r.minPixel = &p
	}
}

// WithMaxPixel excludes samples above the given pixel.
func WithMaxPixel(p int) ReaderOption {
	return func(r *SqliteSpectrumReader) {
		r.maxPixel = &p
	}
}

// WithPixelRange sets both minimum and maximum pixel filters, inclusive.
func WithPixelRange(minPixel, maxPixel int) ReaderOption {
	return func(r *SqliteSpectrumReader) {
		r.minPixel = &minPixel
		r.maxPixel = &maxPixel
	}
}

func newSqliteSpectrumReader(ctx context.Context, db *sql.DB, observationID int64, opts ...ReaderOption) (*SqliteSpectrumReader, error) {
	sr := &SqliteSpectrumReader{
		db:            db,
		observationID: observationID,
	}
	for _, opt := range opts {
		opt(sr)
	}
	if err := sr.init(ctx); err != nil {
		return nil, fmt.Errorf("initializing reader: %w", err)
	}
	return sr, nil
}

// SqliteSpectrumReader implements SpectrumReader for SQLite database backend.
type SqliteSpectrumReader struct {
	db *sql.DB

	observationID int64
	observation   *spectrum.Observation

	minPixel *int // Optional minimum pixel filter
	maxPixel *int // Optional maximum pixel filter

	current *spectrum.Sample
	rows    *sql.Rows
	err     error
}

func (sr *SqliteSpectrumReader) init(ctx context.Context) error {
	if sr.db == nil {
		return errors.New("database connection required")
	}
	if sr.observationID <= 0 {
		return errors.New("observation ID required")
	}

	steps := []struct {
		msg string
		fn  func(context.Context) error
	}{
		{msg: "loading observation", fn: sr.loadObservation},
		{msg: "initializing filters", fn: sr.initFilters},
		{msg: "initializing query", fn: sr.initQuery},
	}
	for _, s := range steps {
		if err := s.fn(ctx); err != nil {
			return fmt.Errorf("%s: %w", s.msg, err)
		}
	}
	return nil
}

func (sr *SqliteSpectrumReader) loadObservation(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectObservationSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	sr.observation, err = scanObservation(stmt.QueryRowContext(ctx, sr.observationID))
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("observation %d: %w", sr.observationID, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("querying observation: %w", err)
	}
	return nil
}

func (sr *SqliteSpectrumReader) initFilters(ctx context.Context) (err error) {
	if sr.minPixel != nil && sr.maxPixel != nil {
		if *sr.minPixel > *sr.maxPixel {
			return fmt.Errorf("min pixel %d is greater than max pixel %d", *sr.minPixel, *sr.maxPixel)
		}
		return nil
	}

	stmt, err := sr.db.PrepareContext(ctx, selectPixelRangeSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	var minPixel, maxPixel int
	if err = stmt.QueryRowContext(ctx, sr.observationID).Scan(&minPixel, &maxPixel); err != nil {
		return fmt.Errorf("scanning filters data: %w", err)
	}

	if sr.minPixel == nil {
		sr.minPixel = &minPixel
	}
	if sr.maxPixel == nil {
		sr.maxPixel = &maxPixel
	}
	return nil
}

func (sr *SqliteSpectrumReader) initQuery(ctx context.Context) (err error) {
	stmt, err := sr.db.PrepareContext(ctx, selectSamplesSQL)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer closeWithError(stmt, &err)

	if sr.rows, err = stmt.QueryContext(ctx, sr.observationID, *sr.minPixel, *sr.maxPixel); err != nil {
		return err
	}
	return nil
}

func (sr *SqliteSpectrumReader) scanSample() (*spectrum.Sample, error) {
	var sample sampleData
	if err := sr.rows.Scan(&sample.Pixel, &sample.Wavelength, &sample.Intensity); err != nil {
		return nil, fmt.Errorf("scanning sample: %w", err)
	}

	s := &spectrum.Sample{
		Pixel:     sample.Pixel,
		Intensity: sample.Intensity,
	}
	if sample.Wavelength.Valid {
		w := sample.Wavelength.Float64
		s.Wavelength = &w
	}
	return s, nil
}

func (sr *SqliteSpectrumReader) Observation() *spectrum.Observation {
	return sr.observation
}

func (sr *SqliteSpectrumReader) Next(ctx context.Context) bool {
	if sr.err != nil || sr.rows == nil {
		return false
	}

	select {
	case <-ctx.Done():
		sr.err = ctx.Err()
		return false
	default:
	}

	if !sr.rows.Next() {
		sr.current = nil
		sr.err = ErrNoData
		return false
	}

	sr.current, sr.err = sr.scanSample()
	return sr.err == nil
}

func (sr *SqliteSpectrumReader) Current() *spectrum.Sample {
	return sr.current
}

func (sr *SqliteSpectrumReader) Error() error {
	if sr.err != nil && !errors.Is(sr.err, ErrNoData) {
		return sr.err
	}
	if sr.rows != nil {
		return sr.rows.Err()
	}
	return nil
}

func (sr *SqliteSpectrumReader) Close() error {
	if sr.rows != nil {
		err := sr.rows.Close()
		sr.current = nil
		sr.rows = nil
		return err
	}
	return nil
}

// ReadAll drains the reader and returns every remaining sample.
func ReadAll(ctx context.Context, r SpectrumReader) ([]spectrum.Sample, error) {
	var samples []spectrum.Sample
	for r.Next(ctx) {
		samples = append(samples, *r.Current())
	}
	if err := r.Error(); err != nil {
		return nil, err
	}
	return samples, nil
}
