package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// Sheet is an ordered tabular document destined for download, such as a
// posting's applicant list. Rows are positional and must line up with Columns.
type Sheet struct {
	Title   string
	Columns []string
	Rows    [][]string
}

// AddRow appends one record. Short rows are padded so renderers never index
// past the cell slice.
func (s *Sheet) AddRow(cells ...string) {
	for len(cells) < len(s.Columns) {
		cells = append(cells, "")
	}
	s.Rows = append(s.Rows, cells)
}

// RenderCSV encodes the sheet as CSV bytes. The title is not emitted; CSV
// consumers get the column header row only.
func RenderCSV(sheet Sheet) ([]byte, error) {
	if len(sheet.Columns) == 0 {
		return nil, fmt.Errorf("csv export requires at least one column")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(sheet.Columns); err != nil {
		return nil, fmt.Errorf("write csv header: %w", err)
	}
	for _, row := range sheet.Rows {
		if err := writer.Write(row[:len(sheet.Columns)]); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
