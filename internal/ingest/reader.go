package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/vesselwatch/transit-engine/internal/types"
)

// Required columns in position drop files. Destination is optional.
var requiredColumns = []string{"imo", "timestamp", "latitude", "longitude"}

// RowError records one row that failed to parse. Failures are collected
// and returned together rather than logged away row by row.
type RowError struct {
	File string
	Line int
	Err  error
}

func (e RowError) Error() string {
	return fmt.Sprintf("%s:%d: %v", e.File, e.Line, e.Err)
}

// ReadDir reads every .csv file in dir and returns the combined position
// batch in file-then-row order, plus the rows that failed to parse.
func ReadDir(dir string) ([]types.Position, []RowError, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read input directory: %w", err)
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".csv") {
			files = append(files, entry.Name())
		}
	}
	sort.Strings(files)
	if len(files) == 0 {
		return nil, nil, fmt.Errorf("no .csv files in %s", dir)
	}

	var (
		positions []types.Position
		rowErrs   []RowError
	)
	for _, name := range files {
		filePositions, fileErrs, err := ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, nil, err
		}
		positions = append(positions, filePositions...)
		rowErrs = append(rowErrs, fileErrs...)
	}
	return positions, rowErrs, nil
}

// ReadFile reads one position drop file.
func ReadFile(path string) ([]types.Position, []RowError, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	colMap := make(map[string]int, len(header))
	for i, col := range header {
		colMap[strings.ToLower(strings.TrimSpace(col))] = i
	}
	for _, col := range requiredColumns {
		if _, ok := colMap[col]; !ok {
			return nil, nil, fmt.Errorf("%s: missing required column %q", path, col)
		}
	}

	name := filepath.Base(path)
	var (
		positions []types.Position
		rowErrs   []RowError
		minTime   time.Time
		maxTime   time.Time
	)
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			rowErrs = append(rowErrs, RowError{File: name, Line: line, Err: err})
			continue
		}

		pos, err := parseRow(row, colMap)
		if err != nil {
			rowErrs = append(rowErrs, RowError{File: name, Line: line, Err: err})
			continue
		}
		positions = append(positions, pos)

		if minTime.IsZero() || pos.Timestamp.Before(minTime) {
			minTime = pos.Timestamp
		}
		if pos.Timestamp.After(maxTime) {
			maxTime = pos.Timestamp
		}
	}

	log.Printf("Read %s: %d rows, %d bad, time range %s .. %s", name, len(positions), len(rowErrs), minTime.Format(time.RFC3339), maxTime.Format(time.RFC3339))
	return positions, rowErrs, nil
}

func parseRow(row []string, colMap map[string]int) (types.Position, error) {
	get := func(col string) (string, error) {
		idx, ok := colMap[col]
		if !ok || idx >= len(row) {
			return "", fmt.Errorf("missing field %q", col)
		}
		return strings.TrimSpace(row[idx]), nil
	}

	var pos types.Position

	imoStr, err := get("imo")
	if err != nil {
		return pos, err
	}
	imo, err := strconv.ParseInt(imoStr, 10, 64)
	if err != nil {
		return pos, fmt.Errorf("invalid imo %q: %w", imoStr, err)
	}

	tsStr, err := get("timestamp")
	if err != nil {
		return pos, err
	}
	ts, err := parseTimestamp(tsStr)
	if err != nil {
		return pos, err
	}

	latStr, err := get("latitude")
	if err != nil {
		return pos, err
	}
	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return pos, fmt.Errorf("invalid latitude %q: %w", latStr, err)
	}

	lonStr, err := get("longitude")
	if err != nil {
		return pos, err
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return pos, fmt.Errorf("invalid longitude %q: %w", lonStr, err)
	}

	pos = types.Position{
		VesselID:  imo,
		Timestamp: ts,
		Latitude:  lat,
		Longitude: lon,
	}
	if idx, ok := colMap["destination"]; ok && idx < len(row) {
		pos.Destination = strings.TrimSpace(row[idx])
	}
	return pos, nil
}

// parseTimestamp accepts RFC3339 and the space-separated form AIS exports
// commonly use.
func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// ParseMessage parses one transported CSV row (imo,timestamp,latitude,
// longitude,destination) into a position.
func ParseMessage(msg *types.PositionMessage) (types.Position, error) {
	row := strings.Split(msg.Raw, ",")
	colMap := map[string]int{"imo": 0, "timestamp": 1, "latitude": 2, "longitude": 3}
	if len(row) > 4 {
		colMap["destination"] = 4
	}
	return parseRow(row, colMap)
}
