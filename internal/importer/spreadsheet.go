// Package importer reads account spreadsheets for bulk upload.
package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/school-dashboard/internal/models"
)

var ErrUnsupportedFormat = errors.New("unsupported spreadsheet format")

// Header names, matched case-insensitively
const (
	colEmail   = "EMAIL"
	colName    = "NAME"
	colRole    = "ROLE"
	colClass   = "CLASS"
	colSection = "SECTION"
)

// Row is one account line after defaults are applied
type Row struct {
	Line       int
	Email      string
	Name       string
	Role       models.Role
	ClassGrade string
	Section    string
}

// Sheet is the parsed content of the first worksheet
type Sheet struct {
	Rows []Row
	// Skipped counts data lines without an email
	Skipped int
}

// Supported reports whether filename has an extension ParseRows can read
func Supported(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm", ".csv":
		return true
	}
	return false
}

// ParseRows reads the first sheet of an .xlsx workbook or a .csv file.
// The first row is the header.
func ParseRows(filename string, r io.Reader) (*Sheet, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".xlsx", ".xlsm":
		records, err = readWorkbook(r)
	case ".csv":
		records, err = readCSV(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, filepath.Ext(filename))
	}
	if err != nil {
		return nil, err
	}

	return mapRows(records)
}

func readWorkbook(r io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	return records, nil
}

func mapRows(records [][]string) (*Sheet, error) {
	sheet := &Sheet{Rows: []Row{}}
	if len(records) == 0 {
		return sheet, nil
	}

	colIdx := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		h = strings.TrimPrefix(h, "\ufeff")
		key := strings.ToUpper(strings.TrimSpace(h))
		if _, dup := colIdx[key]; !dup {
			colIdx[key] = i
		}
	}

	getCol := func(row []string, col string) string {
		i, ok := colIdx[col]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	for n, record := range records[1:] {
		line := n + 2
		email := strings.ToLower(getCol(record, colEmail))
		if email == "" {
			sheet.Skipped++
			continue
		}

		name := getCol(record, colName)
		if name == "" {
			name = localPart(email)
		}

		sheet.Rows = append(sheet.Rows, Row{
			Line:       line,
			Email:      email,
			Name:       name,
			Role:       models.ParseRole(getCol(record, colRole)),
			ClassGrade: getCol(record, colClass),
			Section:    getCol(record, colSection),
		})
	}

	return sheet, nil
}

func localPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
