package reader

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/yurifrl/ledgeru/pkg/models"
)

// Format is the container format of an export file.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatXLS  Format = "xls"
	FormatOFX  Format = "ofx"
)

// FormatFromFilename guesses the format from the file extension.
func FormatFromFilename(filename string) (Format, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv", ".txt", ".tsv":
		return FormatCSV, nil
	case ".json":
		return FormatJSON, nil
	case ".xlsx":
		return FormatXLSX, nil
	case ".xls":
		return FormatXLS, nil
	case ".ofx", ".qfx":
		return FormatOFX, nil
	default:
		return "", &models.DecodeError{File: filename, Err: fmt.Errorf("unsupported file extension %q", filepath.Ext(filename))}
	}
}

// Read decodes data in the given format with default options. It is what
// the inspect command uses to dump raw records.
func Read(data []byte, format Format) ([]Record, error) {
	switch format {
	case FormatCSV:
		return ReadCSV(data, CSVOptions{})
	case FormatJSON:
		return ReadJSON(data, "")
	case FormatXLSX:
		return ReadXLSX(data, SheetOptions{})
	case FormatXLS:
		return ReadXLS(data, SheetOptions{})
	case FormatOFX:
		return ReadOFX(data)
	default:
		return nil, &models.DecodeError{Err: fmt.Errorf("unknown format %q", format)}
	}
}
