package storage

import (
	_ "embed"
)

const (
	insertObservationSQL = `
INSERT INTO observations (
                          created_at,
                          source,
                          label,
                          calibration)
VALUES (CURRENT_TIMESTAMP, ?, ?, ?)`

	selectObservationSQL = `
SELECT 
    id, 
    created_at, 
    source, 
    label, 
    calibration 
FROM observations 
WHERE 
    id = ?`

	selectObservationsSQL = `
SELECT 
    id, 
    created_at, 
    source, 
    label, 
    calibration 
FROM observations
ORDER BY id`

	insertSampleSQL = `
INSERT INTO samples (observation_id,
                     pixel,
                     wavelength,
                     intensity)
VALUES `

	selectSamplesSQL = `
SELECT 
    pixel, 
    wavelength, 
    intensity 
FROM samples 
WHERE 
    observation_id = ? 
    AND pixel BETWEEN ? AND ? 
ORDER BY pixel`

	selectPixelRangeSQL = `
SELECT 
    COALESCE(MIN(pixel), 0), 
    COALESCE(MAX(pixel), -1) 
FROM samples 
WHERE 
    observation_id = ?`
)

var (
	//go:embed schema.sql
	initSchemaSQL string

	//go:embed indexes.sql
	initIndexesSQL string
)
