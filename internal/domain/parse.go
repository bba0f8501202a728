package domain

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ParseRecords turns raw delimited text into year records. It returns the
// records in row order plus the number of rows dropped for lacking a
// parseable water_year. Dropped rows are not an error; a payload that cannot
// be read as tabular text at all wraps [ErrDataFormat].
//
// Callers may not rely on the output being sorted, and year uniqueness is
// not enforced here.
func ParseRecords(raw []byte) ([]YearRecord, int, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, 0, fmt.Errorf("%w: empty input", ErrDataFormat)
	}

	r := csv.NewReader(bytes.NewReader(raw))
	r.FieldsPerRecord = -1 // ragged trailing rows are expected
	r.TrimLeadingSpace = true

	rows, err := r.ReadAll()
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrDataFormat, err)
	}
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("%w: no header row", ErrDataFormat)
	}

	header := rows[0]
	cols := make(map[string]int, len(header))
	for i, name := range header {
		cols[strings.TrimSpace(name)] = i
	}
	if _, ok := cols[ColWaterYear]; !ok {
		return nil, 0, fmt.Errorf("%w: missing %q column", ErrDataFormat, ColWaterYear)
	}

	records := make([]YearRecord, 0, len(rows)-1)
	dropped := 0
	for _, row := range rows[1:] {
		year, ok := parseYear(cell(row, cols, ColWaterYear))
		if !ok {
			dropped++
			continue
		}
		records = append(records, YearRecord{
			Year:                 year,
			SWEMm:                parseFloatOrZero(cell(row, cols, ColSWE)),
			FallSoilMoistureMm:   parseFloatOrZero(cell(row, cols, ColFallSoilMoisture)),
			SpringPrecipMm:       parseFloatOrZero(cell(row, cols, ColSpringPrecip)),
			SeasonalStreamflowMm: parseFloatOrZero(cell(row, cols, ColSeasonalStreamflow)),
			TotalStreamflowMm:    parseFloatOrZero(cell(row, cols, ColTotalStreamflow)),
		})
	}
	return records, dropped, nil
}

// LoadDataset is the one-call ingest path: parse then normalize.
func LoadDataset(raw []byte) (*Dataset, error) {
	records, _, err := ParseRecords(raw)
	if err != nil {
		return nil, err
	}
	return NewDataset(records)
}

// cell returns the named column's value for a row, or "" when the column is
// absent from the header or the row is too short.
func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return row[i]
}

// parseYear parses a water year, rejecting blanks and non-integers.
func parseYear(s string) (int, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	year, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return year, true
}

// parseFloatOrZero parses a measurement cell, returning 0 for blank,
// non-numeric, or non-finite values.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
