package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/roman-kulish/specreduce/internal/spectrum"
)

// ErrNotFound is returned when an observation does not exist in the archive.
var ErrNotFound = errors.New("observation not found")

// maxBatchSize bounds the rows of a single INSERT so that the statement stays
// below the SQLite host parameter limit.
const maxBatchSize = 1000

// SqliteStore handles database operations
type SqliteStore struct {
	dbPath string

	writeDB     *sql.DB
	writeDBOnce sync.Once
	writeDBErr  error

	readDB     *sql.DB
	readDBOnce sync.Once
	readDBErr  error

	closeOnce sync.Once
	closeErr  error
}

// NewSqliteStore creates a store backed by the Sqlite database at dbPath.
// Connections are opened lazily and the schema is created on first write.
func NewSqliteStore(dbPath string) *SqliteStore {
	return &SqliteStore{dbPath: dbPath}
}

func runSQLCommand(db *sql.DB, sql string) error {
	_, err := db.Exec(sql)
	return err
}

func (s *SqliteStore) getWriteDB() (*sql.DB, error) {
	s.writeDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "_journal_mode=WAL&_synchronous=NORMAL"))
		if err != nil {
			s.writeDBErr = fmt.Errorf("opening write connection: %w", err)
			return
		}

		if err = runSQLCommand(db, initSchemaSQL); err != nil {
			_ = db.Close()
			s.writeDBErr = fmt.Errorf("initializing schema: %w", err)
			return
		}

		s.writeDB = db
	})

	return s.writeDB, s.writeDBErr
}

func (s *SqliteStore) getReadDB() (*sql.DB, error) {
	s.readDBOnce.Do(func() {
		db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?%s", s.dbPath, "mode=ro"))
		if err != nil {
			s.readDBErr = fmt.Errorf("opening read connection: %w", err)
			return
		}
		s.readDB = db
	})

	return s.readDB, s.readDBErr
}

func (s *SqliteStore) CreateObservation(ctx context.Context, source, label string, calibration *string) (observationID int64, err error) {
	var calibrationData sql.NullString
	if calibration != nil {
		calibrationData.Valid = true
		calibrationData.String = *calibration
	}

	db, err := s.getWriteDB()
	if err != nil {
		err = fmt.Errorf("getting write connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, insertObservationSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	result, err := stmt.ExecContext(ctx, source, label, calibrationData)
	if err != nil {
		err = fmt.Errorf("inserting observation: %w", err)
		return
	}

	observationID, err = result.LastInsertId()
	if err != nil {
		err = fmt.Errorf("getting observation ID: %w", err)
	}
	return
}

func (s *SqliteStore) Observation(ctx context.Context, id int64) (observation *spectrum.Observation, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	stmt, err := db.PrepareContext(ctx, selectObservationSQL)
	if err != nil {
		err = fmt.Errorf("preparing statement: %w", err)
		return
	}
	defer closeWithError(stmt, &err)

	observation, err = scanObservation(stmt.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		err = fmt.Errorf("observation %d: %w", id, ErrNotFound)
		return
	}
	if err != nil {
		err = fmt.Errorf("scanning observation: %w", err)
	}
	return
}

func (s *SqliteStore) Observations(ctx context.Context) (observations []*spectrum.Observation, err error) {
	db, err := s.getReadDB()
	if err != nil {
		err = fmt.Errorf("getting read connection: %w", err)
		return
	}

	rows, err := db.QueryContext(ctx, selectObservationsSQL)
	if err != nil {
		err = fmt.Errorf("querying observations: %w", err)
		return
	}
	defer closeWithError(rows, &err)

	for rows.Next() {
		var obs *spectrum.Observation
		if obs, err = scanObservation(rows); err != nil {
			err = fmt.Errorf("scanning observation: %w", err)
			return
		}
		observations = append(observations, obs)
	}
	err = rows.Err()
	return
}

// ReadSpectrum creates a new SqliteSpectrumReader that iterates over the
// samples of an archived observation in pixel order.
//
// Parameters:
//   - ctx: Context for cancellation and timeouts
//   - observationID: Unique identifier of the observation to read from
//   - opts: Optional configuration parameters for the reader (WithPixelRange,
//     WithMinPixel, WithMaxPixel)
//
// The returned reader must be closed after use to release database resources.
//
// Returns error if reader creation fails or the observation doesn't exist.
func (s *SqliteStore) ReadSpectrum(ctx context.Context, observationID int64, opts ...ReaderOption) (*SqliteSpectrumReader, error) {
	db, err := s.getReadDB()
	if err != nil {
		return nil, fmt.Errorf("getting read connection: %w", err)
	}
	return newSqliteSpectrumReader(ctx, db, observationID, opts...)
}

func (s *SqliteStore) StoreSpectrum(ctx context.Context, observationID int64, samples []spectrum.Sample) (err error) {
	if len(samples) == 0 {
		return
	}

	db, err := s.getWriteDB()
	if err != nil {
		return fmt.Errorf("getting write connection: %w", err)
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer rollbackWithError(tx, &err)

	for start := 0; start < len(samples); start += maxBatchSize {
		end := min(start+maxBatchSize, len(samples))
		if err = insertSamples(ctx, tx, observationID, samples[start:end]); err != nil {
			return fmt.Errorf("batch inserting samples: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}

	return nil
}

func insertSamples(ctx context.Context, tx *sql.Tx, observationID int64, samples []spectrum.Sample) error {
	values := make([]any, 0, len(samples)*4)

	valuesPlaceholder := "(?, ?, ?, ?)"

	var sb strings.Builder

	sb.WriteString(insertSampleSQL)

	for i, sample := range samples {
		data := toSampleData(observationID, sample)
		values = append(values,
			data.ObservationID,
			data.Pixel,
			data.Wavelength,
			data.Intensity,
		)

		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(valuesPlaceholder)
	}

	_, err := tx.ExecContext(ctx, sb.String(), values...)
	return err
}

func (s *SqliteStore) Close() error {
	s.closeOnce.Do(func() {
		var writeErr, readErr error

		if s.writeDB != nil {
			_ = runSQLCommand(s.writeDB, initIndexesSQL)

			writeErr = s.writeDB.Close()
			s.writeDB = nil
		}

		if s.readDB != nil {
			readErr = s.readDB.Close()
			s.readDB = nil
		}

		s.closeErr = errors.Join(writeErr, readErr)
	})

	return s.closeErr
}
