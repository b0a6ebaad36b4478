package reader

import "strings"

// Table is one titled section of a multi-table sheet.
type Table struct {
	Name    string
	Records []Record
}

// SplitTables splits a sheet holding several stacked tables. A row whose
// only non-blank cell is the first one starts a new section; the row after
// it is that section's header. Rows before the first title are ignored.
func SplitTables(rows [][]string) []Table {
	var (
		tables []Table
		header []string
		cur    = -1
	)
	for _, row := range rows {
		if blankRow(row) {
			continue
		}
		if isSectionTitle(row) {
			tables = append(tables, Table{Name: strings.TrimSpace(row[0])})
			cur, header = len(tables)-1, nil
			continue
		}
		if cur < 0 {
			continue
		}
		if header == nil {
			header = trimHeader(row)
			continue
		}
		t := &tables[cur]
		t.Records = append(t.Records, NewRecord(len(t.Records), header, cells(row)))
	}
	return tables
}

// Lookup returns the table with the given name.
func Lookup(tables []Table, name string) (Table, bool) {
	for _, t := range tables {
		if normalize(t.Name) == normalize(name) {
			return t, true
		}
	}
	return Table{}, false
}

func isSectionTitle(row []string) bool {
	if strings.TrimSpace(row[0]) == "" {
		return false
	}
	for _, c := range row[1:] {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
