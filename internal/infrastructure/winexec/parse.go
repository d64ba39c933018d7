package winexec

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ParseWMICCSV reads `wmic ... /format:csv` output into one map per data row,
// keyed by the header row. Blank lines are skipped wherever they appear and a
// short row yields "" for the missing columns.
func ParseWMICCSV(output string) ([]map[string]string, error) {
	return parseWMICRows(output, "")
}

// parseWMICRows is ParseWMICCSV for output with one free-text column. WMIC
// does not quote fields, so a comma inside a value such as a service display
// name splits it. Surplus fields in a row are joined back into the spill
// column; the other columns keep their positions.
func parseWMICRows(output, spill string) ([]map[string]string, error) {
	r := csv.NewReader(strings.NewReader(output))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true

	var header []string
	spillAt := -1
	var rows []map[string]string
	for {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse wmic csv: %w", err)
		}
		if blankRecord(record) {
			continue
		}
		if header == nil {
			header = make([]string, len(record))
			for i, name := range record {
				header[i] = strings.TrimSpace(name)
				if spill != "" && header[i] == spill {
					spillAt = i
				}
			}
			continue
		}
		if extra := len(record) - len(header); extra > 0 && spillAt >= 0 {
			merged := strings.Join(record[spillAt:spillAt+extra+1], ",")
			record = append(append(record[:spillAt:spillAt], merged), record[spillAt+extra+1:]...)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
