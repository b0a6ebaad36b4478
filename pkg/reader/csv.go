package reader

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/yurifrl/ledgeru/pkg/models"
)

// CSVOptions describes the quirks of one vendor's CSV dialect.
type CSVOptions struct {
	// Delimiter is sniffed among , ; tab and | when zero.
	Delimiter rune
	// Headerless files have no header row; Columns names the fields.
	Headerless bool
	Columns    []string
	// SkipRows drops preamble lines before the header.
	SkipRows int
	// SkipFooter drops trailing total or disclaimer rows.
	SkipFooter int
}

var delimiters = []rune{',', ';', '\t', '|'}

// ReadCSV decodes a CSV export into records, one per non-blank data row.
func ReadCSV(data []byte, opts CSVOptions) ([]Record, error) {
	data = bytes.TrimPrefix(data, []byte(bom))
	data = skipLines(data, opts.SkipRows)
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}

	delim := opts.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(data)
	}

	r := csv.NewReader(bytes.NewReader(data))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var rows [][]string
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &models.DecodeError{Err: fmt.Errorf("read csv: %w", err)}
		}
		if blankRow(row) {
			continue
		}
		rows = append(rows, row)
	}
	if opts.SkipFooter > 0 {
		rows = rows[:max(0, len(rows)-opts.SkipFooter)]
	}

	var header []string
	if opts.Headerless {
		if len(opts.Columns) == 0 {
			return nil, &models.DecodeError{Err: errors.New("headerless csv needs column names")}
		}
		header = opts.Columns
	} else {
		if len(rows) == 0 {
			return nil, nil
		}
		header = trimHeader(rows[0])
		rows = rows[1:]
	}

	records := make([]Record, 0, len(rows))
	for i, row := range rows {
		records = append(records, NewRecord(i, header, cells(row)))
	}
	return records, nil
}

// sniffDelimiter picks the candidate that splits the first line into the
// most fields.
func sniffDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(data, '\n'); i >= 0 {
		line = data[:i]
	}
	best, bestCount := ',', 0
	for _, d := range delimiters {
		if n := strings.Count(string(line), string(d)); n > bestCount {
			best, bestCount = d, n
		}
	}
	return best
}

func skipLines(data []byte, n int) []byte {
	for ; n > 0 && len(data) > 0; n-- {
		i := bytes.IndexByte(data, '\n')
		if i < 0 {
			return nil
		}
		data = data[i+1:]
	}
	return data
}

// trimHeader trims header names and drops blank trailing columns.
func trimHeader(row []string) []string {
	header := make([]string, len(row))
	for i, h := range row {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, bom))
	}
	for len(header) > 0 && header[len(header)-1] == "" {
		header = header[:len(header)-1]
	}
	return header
}

func blankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func cells(row []string) []any {
	out := make([]any, len(row))
	for i, c := range row {
		out[i] = strings.TrimSpace(c)
	}
	return out
}
