// Package csvimport reads uploaded sales exports into a RawTable.
//
// Uploads come from spreadsheet tools with unknown encodings and the odd
// broken line, so reading is best-effort: legacy Windows-1252 text is decoded,
// and malformed lines are skipped and counted instead of failing the upload.
package csvimport

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/ndewijer/Sales-Forecast-Backend/internal/apperrors"
	"github.com/ndewijer/Sales-Forecast-Backend/internal/model"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Stats reports what happened while reading an upload.
type Stats struct {
	Encoding     string `json:"encoding"`
	Rows         int    `json:"rows"`
	SkippedLines int    `json:"skippedLines"`
	PaddedRows   int    `json:"paddedRows"`
}

// Read parses a CSV upload. The first record is the header.
//
// Rows with more cells than the header, and lines the CSV parser rejects, are
// skipped. Rows with fewer cells are padded with empty (missing) cells.
// Header names are trimmed; data cells are kept as written, so "Widget " and
// "Widget" stay distinct products.
func Read(r io.Reader) (*model.RawTable, Stats, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("failed to read upload: %w", err)
	}

	text, encoding := decode(data)
	stats := Stats{Encoding: encoding}

	cr := csv.NewReader(strings.NewReader(text))
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := readHeader(cr)
	if err != nil {
		return nil, stats, err
	}

	table := &model.RawTable{Header: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				stats.SkippedLines++
				continue
			}
			return nil, stats, fmt.Errorf("failed to read CSV: %w", err)
		}

		if isBlank(record) {
			continue
		}
		if len(record) > len(header) {
			stats.SkippedLines++
			continue
		}
		if len(record) < len(header) {
			padded := make([]string, len(header))
			copy(padded, record)
			record = padded
			stats.PaddedRows++
		}
		table.Rows = append(table.Rows, record)
	}

	stats.Rows = len(table.Rows)
	return table, stats, nil
}

// decode returns the upload as UTF-8 text. Valid UTF-8 is used as-is;
// anything else is treated as Windows-1252, which never fails to decode.
func decode(data []byte) (string, string) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), "utf-8"
	}
	decoded, err := charmap.Windows1252.NewDecoder().Bytes(data)
	if err != nil {
		return string(data), "utf-8"
	}
	return string(decoded), "windows-1252"
}

func readHeader(cr *csv.Reader) ([]string, error) {
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return nil, apperrors.ErrEmptyUpload
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCSVHeaders, err)
		}
		if isBlank(record) {
			continue
		}

		seen := make(map[string]bool, len(record))
		header := make([]string, len(record))
		for i, h := range record {
			h = strings.TrimSpace(h)
			if h == "" {
				return nil, fmt.Errorf("%w: column %d has no name", apperrors.ErrInvalidCSVHeaders, i+1)
			}
			if seen[h] {
				return nil, fmt.Errorf("%w: duplicate column %q", apperrors.ErrInvalidCSVHeaders, h)
			}
			seen[h] = true
			header[i] = h
		}
		return header, nil
	}
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
