package storage

import (
	"database/sql"
)

type sampleData struct {
	ObservationID int64
	Pixel         int
	Wavelength    sql.NullFloat64
	Intensity     float64
}
