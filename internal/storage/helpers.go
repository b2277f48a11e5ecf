package storage

import (
	"database/sql"
	"errors"

	"github.com/roman-kulish/specreduce/internal/spectrum"
)

func closeWithError(cl interface{ Close() error }, err *error) {
	if cErr := cl.Close(); cErr != nil && *err == nil {
		*err = cErr
	}
}

// rollbackWithError rolls back an uncommitted transaction. After a commit
// the rollback reports sql.ErrTxDone, which is not an error here.
func rollbackWithError(rb interface{ Rollback() error }, err *error) {
	if cErr := rb.Rollback(); cErr != nil && !errors.Is(cErr, sql.ErrTxDone) && *err == nil {
		*err = cErr
	}
}

func toSampleData(observationID int64, s spectrum.Sample) *sampleData {
	return &sampleData{
		ObservationID: observationID,
		Pixel:         s.Pixel,
		Wavelength:    toNullFloat(s.Wavelength),
		Intensity:     s.Intensity,
	}
}

func toNullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func scanObservation(row interface{ Scan(...any) error }) (*spectrum.Observation, error) {
	var obs spectrum.Observation
	var calibration sql.NullString
	if err := row.Scan(&obs.ID, &obs.CreatedAt, &obs.Source, &obs.Label, &calibration); err != nil {
		return nil, err
	}
	if calibration.Valid {
		obs.Calibration = &calibration.String
	}
	return &obs, nil
}
