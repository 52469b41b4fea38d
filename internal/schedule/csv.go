package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

var ErrTooFewColumns = errors.New("CSV must have at least: student_id, student_name, and one period column (e.g. P1)")

// Row is one student's raw room labels, aligned with Table.PeriodNames.
// An empty label means no room was given for that period.
type Row struct {
	StudentID   string
	StudentName string
	Rooms       []string
}

type Table struct {
	PeriodNames []string
	Rows        []Row
}

// Parse reads a schedule CSV whose header is student_id, student_name
// followed by one column per period. Rows with neither an id nor a name are
// skipped; short rows are padded with empty labels.
func Parse(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, ErrTooFewColumns
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}
	header[0] = strings.TrimPrefix(header[0], "\ufeff")

	if len(header) < 3 {
		return nil, ErrTooFewColumns
	}

	table := &Table{PeriodNames: append([]string(nil), header[2:]...)}

	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read line %d: %w", line, err)
		}

		row := Row{
			StudentID:   field(record, 0),
			StudentName: field(record, 1),
			Rooms:       make([]string, len(table.PeriodNames)),
		}
		if row.StudentID == "" && row.StudentName == "" {
			continue
		}

		for p := range table.PeriodNames {
			row.Rooms[p] = field(record, p+2)
		}
		table.Rows = append(table.Rows, row)
	}

	return table, nil
}

func field(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}
