package ingest

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hirase-art/inventory-risk/internal/forecast"
	"github.com/xuri/excelize/v2"
)

// ErrUnsupportedFormat is returned for files that are neither CSV nor XLSX.
var ErrUnsupportedFormat = errors.New("ingest: unsupported file format")

// Format is a supported spreadsheet encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// FormatOf picks the format from a file name extension.
func FormatOf(name string) (Format, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
}

// ReadFile reads a CSV or XLSX file into a normalized table named after the
// file.
func ReadFile(path string) (forecast.Table, error) {
	format, err := FormatOf(path)
	if err != nil {
		return forecast.Table{}, err
	}

	f, err := os.Open(path)
	if err != nil {
		return forecast.Table{}, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	return Read(f, format, tableName(path))
}

// ReadBytes is ReadFile for content already in memory.
func ReadBytes(name string, data []byte) (forecast.Table, error) {
	format, err := FormatOf(name)
	if err != nil {
		return forecast.Table{}, err
	}
	return Read(bytes.NewReader(data), format, tableName(name))
}

// Read decodes r in the given format. The first row is the header; blank
// rows are skipped and column names are normalized.
func Read(r io.Reader, format Format, name string) (forecast.Table, error) {
	var (
		records [][]string
		err     error
	)
	switch format {
	case FormatCSV:
		records, err = readCSV(r)
	case FormatXLSX:
		records, err = readXLSX(r)
	default:
		return forecast.Table{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return forecast.Table{}, fmt.Errorf("failed to read %s: %w", name, err)
	}
	if len(records) == 0 {
		return forecast.Table{}, fmt.Errorf("%s has no header row", name)
	}

	t := forecast.Table{Name: name, Columns: records[0]}
	for _, rec := range records[1:] {
		if isBlank(rec) {
			continue
		}
		t.Rows = append(t.Rows, rec)
	}
	return Normalize(t), nil
}

func readCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
	return reader.ReadAll()
}

// readXLSX returns the rows of the first sheet.
func readXLSX(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("xlsx has no sheets")
	}
	sheet := sheets[0]

	rows, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read rows from sheet %s: %w", sheet, err)
	}
	defer rows.Close()

	var records [][]string
	for rows.Next() {
		record, err := rows.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row from sheet %s: %w", sheet, err)
		}
		records = append(records, record)
	}
	if err := rows.Error(); err != nil {
		return nil, fmt.Errorf("error iterating rows in sheet %s: %w", sheet, err)
	}
	return records, nil
}

func isBlank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func tableName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
