package weather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumn is returned when a required column is absent from tabular input.
var ErrMissingColumn = errors.New("missing column")

// CSV column names, matching the headers produced by the export.
const (
	ColumnDate           = "Date"
	ColumnTemperatureMax = "TemperatureMax"
	ColumnTemperatureMin = "TemperatureMin"
	ColumnPrecipitation  = "Precipitation"
)

// WriteCSV writes the series with a Date,TemperatureMax,TemperatureMin,Precipitation header.
// Missing values are written as empty cells.
func WriteCSV(w io.Writer, series DailySeries) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{ColumnDate, ColumnTemperatureMax, ColumnTemperatureMin, ColumnPrecipitation}); err != nil {
		return err
	}
	for _, r := range series {
		row := []string{
			r.Date.Format(DateLayout),
			FormatFloat(r.TemperatureMax),
			FormatFloat(r.TemperatureMin),
			FormatFloat(r.Precipitation),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses a series previously written by WriteCSV (or any CSV with the same headers).
// Date and Precipitation are required; temperature columns are optional.
func ReadCSV(r io.Reader) (DailySeries, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("read csv: no header row")
	}

	colIdx := map[string]int{}
	for i, h := range rows[0] {
		colIdx[strings.TrimSpace(h)] = i
	}
	for _, required := range []string{ColumnDate, ColumnPrecipitation} {
		if _, ok := colIdx[required]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, required)
		}
	}

	series := make(DailySeries, 0, len(rows)-1)
	for n, row := range rows[1:] {
		line := n + 2

		date, err := time.Parse(DateLayout, cell(row, colIdx, ColumnDate))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid date: %w", line, err)
		}
		rec := DailyRecord{Date: Day(date)}

		if rec.Precipitation, err = parseCell(row, colIdx, ColumnPrecipitation); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.TemperatureMax, err = parseCell(row, colIdx, ColumnTemperatureMax); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if rec.TemperatureMin, err = parseCell(row, colIdx, ColumnTemperatureMin); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		series = append(series, rec)
	}
	return series, nil
}

// FormatFloat renders an optional value for tabular output; nil becomes the empty string.
func FormatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func cell(row []string, idx map[string]int, col string) string {
	i, ok := idx[col]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func parseCell(row []string, idx map[string]int, col string) (*float64, error) {
	raw := cell(row, idx, col)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s %q", col, raw)
	}
	return &v, nil
}
