package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

// table is an uploaded spreadsheet with a header row
type table struct {
	header map[string]int
	rows   [][]string
}

// readTable parses a .csv or .xlsx upload. Header names are matched case-insensitively.
func readTable(filename string, r io.Reader) (*table, error) {
	var records [][]string

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		reader := csv.NewReader(r)
		reader.FieldsPerRecord = -1
		reader.TrimLeadingSpace = true
		rows, err := reader.ReadAll()
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		records = rows
	case ".xlsx":
		f, err := excelize.OpenReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to open workbook: %w", err)
		}
		defer f.Close()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &table{header: map[string]int{}}, nil
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet: %w", err)
		}
		records = rows
	default:
		return nil, ErrUnsupportedFileFormat
	}

	t := &table{header: map[string]int{}}
	if len(records) == 0 {
		return t, nil
	}
	for i, name := range records[0] {
		t.header[strings.ToLower(strings.TrimSpace(name))] = i
	}
	t.rows = records[1:]
	return t, nil
}

// get returns the trimmed cell under column, or "" when absent
func (t *table) get(row []string, column string) string {
	i, ok := t.header[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func (t *table) getInt(row []string, column string) (int, bool) {
	v := t.get(row, column)
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	return n, err == nil
}

func (t *table) getFloat(row []string, column string) (float64, bool) {
	v := t.get(row, column)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	return f, err == nil
}

// getList splits a "|" separated cell
func (t *table) getList(row []string, column string) []string {
	v := t.get(row, column)
	if v == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(v, "|") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// blank reports whether every cell of row is empty
func blank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// sheet is one worksheet of an exported workbook
type sheet struct {
	name   string
	header []interface{}
	rows   [][]interface{}
}

// writeWorkbook renders sheets into a single .xlsx written to w
func writeWorkbook(w io.Writer, sheets ...sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	for i, sh := range sheets {
		if i == 0 {
			if err := f.SetSheetName("Sheet1", sh.name); err != nil {
				return fmt.Errorf("failed to name sheet: %w", err)
			}
		} else if _, err := f.NewSheet(sh.name); err != nil {
			return fmt.Errorf("failed to add sheet: %w", err)
		}

		if err := f.SetSheetRow(sh.name, "A1", &sh.header); err != nil {
			return fmt.Errorf("failed to write header: %w", err)
		}
		for r, row := range sh.rows {
			cell, err := excelize.CoordinatesToCellName(1, r+2)
			if err != nil {
				return err
			}
			row := row
			if err := f.SetSheetRow(sh.name, cell, &row); err != nil {
				return fmt.Errorf("failed to write row %d: %w", r+2, err)
			}
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
