// Package workload produces cargo arrival records for conveyor lines:
// replayed from CSV, listed inline in a scenario, or generated periodically.
package workload

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"os"
	"strconv"
	"strings"
)

// ArrivalRecord is one cargo unit entering a conveyor at a given tick.
type ArrivalRecord struct {
	Time     int64  `yaml:"time"`
	Conveyor string `yaml:"conveyor"`
	CargoID  string `yaml:"cargo"`
}

// CSV column headers for arrival files.
var arrivalColumns = []string{"time", "conveyor", "cargo"}

// LoadArrivalsCSV reads arrival records from a CSV file with a header row.
func LoadArrivalsCSV(path string) ([]ArrivalRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening arrivals: %w", err)
	}
	defer func() { _ = file.Close() }()

	records, err := ParseArrivalsCSV(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return records, nil
}

// ParseArrivalsCSV reads arrival records from r. The first row is a header
// and must name the columns time, conveyor, cargo in that order.
func ParseArrivalsCSV(r io.Reader) ([]ArrivalRecord, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading CSV header: %w", err)
	}
	if len(header) < len(arrivalColumns) {
		return nil, fmt.Errorf("CSV header has %d columns, expected %d", len(header), len(arrivalColumns))
	}
	for i, col := range arrivalColumns {
		if strings.TrimSpace(strings.ToLower(header[i])) != col {
			return nil, fmt.Errorf("CSV column %d is %q, expected %q", i, header[i], col)
		}
	}

	var records []ArrivalRecord
	line := 1
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading CSV row: %w", err)
		}
		line++
		rec, err := parseArrivalRecord(row)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", line, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

func parseArrivalRecord(row []string) (ArrivalRecord, error) {
	at, err := strconv.ParseInt(strings.TrimSpace(row[0]), 10, 64)
	if err != nil {
		return ArrivalRecord{}, fmt.Errorf("parsing time %q: %w", row[0], err)
	}
	if at < 0 {
		return ArrivalRecord{}, fmt.Errorf("negative time %d", at)
	}
	conveyor := strings.TrimSpace(row[1])
	if conveyor == "" {
		return ArrivalRecord{}, fmt.Errorf("conveyor is required")
	}
	return ArrivalRecord{
		Time:     at,
		Conveyor: conveyor,
		CargoID:  strings.TrimSpace(row[2]),
	}, nil
}

// ExportArrivalsCSV writes records in the format LoadArrivalsCSV reads.
func ExportArrivalsCSV(path string, records iter.Seq[ArrivalRecord]) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating arrivals file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := csv.NewWriter(file)
	if err := writer.Write(arrivalColumns); err != nil {
		return fmt.Errorf("writing CSV header: %w", err)
	}
	for r := range records {
		row := []string{strconv.FormatInt(r.Time, 10), r.Conveyor, r.CargoID}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing CSV row for %s: %w", r.CargoID, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flushing arrivals: %w", err)
	}
	return file.Close()
}
