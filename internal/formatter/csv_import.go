package formatter

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

// ImportRow is one parsed data row of an import file. Err is set when the row could not be read.
type ImportRow struct {
	Line     int
	Instance models.NewInstance
	Err      error
}

// ParseImportCSV reads instances to add from CSV with a header row.
//
// Only the "card" column is required; quantity defaults to 1 and language to English.
// Columns are matched by name, case-insensitively, so an export file can be imported as-is.
// Row problems are reported per row and do not stop parsing.
func ParseImportCSV(r io.Reader) ([]ImportRow, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: import file is empty", shared.ErrInvalidInput)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read CSV header: %v", shared.ErrInvalidInput, err)
	}

	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	if _, ok := columns["card"]; !ok {
		return nil, fmt.Errorf("%w: CSV header has no \"card\" column", shared.ErrInvalidInput)
	}

	var rows []ImportRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				rows = append(rows, ImportRow{Line: parseErr.StartLine, Err: fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)})
				continue
			}
			return rows, fmt.Errorf("failed to read CSV: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		field := func(name string) string {
			i, ok := columns[name]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		n, err := parseRow(field)
		rows = append(rows, ImportRow{Line: line, Instance: n, Err: err})
	}
	return rows, nil
}

func parseRow(field func(string) string) (models.NewInstance, error) {
	var n models.NewInstance

	card, err := strconv.Atoi(field("card"))
	if err != nil {
		return n, fmt.Errorf("%w: invalid card id %q", shared.ErrInvalidInput, field("card"))
	}
	n.CardID = card

	n.Quantity = 1
	if q := field("quantity"); q != "" {
		if n.Quantity, err = strconv.Atoi(q); err != nil {
			return n, fmt.Errorf("%w: invalid quantity %q", shared.ErrInvalidInput, q)
		}
	}

	flags := []struct {
		name   string
		target *bool
	}{
		{"is_holographic", &n.IsHolographic},
		{"is_first_edition", &n.IsFirstEdition},
		{"is_signed", &n.IsSigned},
	}
	for _, f := range flags {
		v := field(f.name)
		if v == "" {
			continue
		}
		if *f.target, err = strconv.ParseBool(v); err != nil {
			return n, fmt.Errorf("%w: invalid %s %q", shared.ErrInvalidInput, f.name, v)
		}
	}

	n.Language = field("language")
	n.Condition = field("condition")
	n.Grade = field("grade")
	n.Notes = field("notes")

	n = n.Normalize()
	return n, n.Validate()
}

func blank(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
