package reader

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/extrame/xls"
	"github.com/yurifrl/ledgeru/pkg/models"
)

// xlsCharset is the code page of legacy BIFF exports.
const xlsCharset = "cp1252"

// ReadXLS decodes one sheet of a legacy XLS workbook into records.
func ReadXLS(data []byte, opts SheetOptions) ([]Record, error) {
	rows, err := ReadXLSRows(data, opts.Sheet)
	if err != nil {
		return nil, err
	}
	return sheetRecords(rows, opts)
}

// ReadXLSRows returns the raw cell grid of one sheet.
func ReadXLSRows(data []byte, sheet string) ([][]string, error) {
	workbook, err := xls.OpenReader(bytes.NewReader(data), xlsCharset)
	if err != nil {
		return nil, &models.DecodeError{Err: fmt.Errorf("open xls: %w", err)}
	}

	var ws *xls.WorkSheet
	for i := 0; i < workbook.NumSheets(); i++ {
		s := workbook.GetSheet(i)
		if s == nil {
			continue
		}
		if sheet == "" || s.Name == sheet {
			ws = s
			break
		}
	}
	if ws == nil {
		return nil, &models.DecodeError{Err: errors.New("sheet not found in workbook")}
	}

	var rows [][]string
	for i := 0; i <= int(ws.MaxRow); i++ {
		row := ws.Row(i)
		if row == nil {
			rows = append(rows, nil)
			continue
		}
		cols := make([]string, 0, row.LastCol()+1)
		for j := row.FirstCol(); j < row.LastCol(); j++ {
			for len(cols) < j {
				cols = append(cols, "")
			}
			cols = append(cols, row.Col(j))
		}
		rows = append(rows, cols)
	}
	return rows, nil
}
