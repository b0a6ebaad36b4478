package reader

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"github.com/yurifrl/ledgeru/pkg/models"
)

// SheetOptions selects the table inside a workbook.
type SheetOptions struct {
	// Sheet is the sheet name; the first sheet is used when empty.
	Sheet string
	// HeaderRow is the 0-based row holding the header. When negative the
	// first row containing every RequiredHeaders name is used.
	HeaderRow int
	// RequiredHeaders must all be present in the header row.
	RequiredHeaders []string
}

// ReadXLSX decodes one sheet of an XLSX workbook into records.
func ReadXLSX(data []byte, opts SheetOptions) ([]Record, error) {
	rows, err := ReadXLSXRows(data, opts.Sheet)
	if err != nil {
		return nil, err
	}
	return sheetRecords(rows, opts)
}

// ReadXLSXRows returns the raw cell grid of one sheet.
func ReadXLSXRows(data []byte, sheet string) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, &models.DecodeError{Err: fmt.Errorf("open xlsx: %w", err)}
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	if sheet == "" {
		return nil, &models.DecodeError{Err: errors.New("no sheets found in workbook")}
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, &models.DecodeError{Err: fmt.Errorf("read sheet %q: %w", sheet, err)}
	}
	return rows, nil
}

// sheetRecords finds the header row and converts the rows below it.
func sheetRecords(rows [][]string, opts SheetOptions) ([]Record, error) {
	headerAt := opts.HeaderRow
	if headerAt < 0 {
		headerAt = findHeader(rows, opts.RequiredHeaders)
		if headerAt < 0 {
			return nil, &models.DecodeError{Err: fmt.Errorf("no row has headers %s", strings.Join(opts.RequiredHeaders, ", "))}
		}
	}
	if headerAt >= len(rows) {
		return nil, &models.DecodeError{Err: errors.New("sheet has no header row")}
	}

	header := trimHeader(rows[headerAt])
	if missing := missingHeaders(header, opts.RequiredHeaders); len(missing) > 0 {
		return nil, &models.DecodeError{Err: fmt.Errorf("missing headers %s", strings.Join(missing, ", "))}
	}

	var records []Record
	for _, row := range rows[headerAt+1:] {
		if blankRow(row) {
			continue
		}
		records = append(records, NewRecord(len(records), header, cells(row)))
	}
	return records, nil
}

func findHeader(rows [][]string, required []string) int {
	for i, row := range rows {
		if blankRow(row) {
			continue
		}
		if len(missingHeaders(trimHeader(row), required)) == 0 {
			return i
		}
	}
	return -1
}

func missingHeaders(header, required []string) []string {
	have := make(map[string]bool, len(header))
	for _, h := range header {
		have[normalize(h)] = true
	}
	var missing []string
	for _, r := range required {
		if !have[normalize(r)] {
			missing = append(missing, r)
		}
	}
	return missing
}
