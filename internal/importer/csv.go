package importer

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"wedding-invitations/internal/models"
)

// Input columns, all required
const (
	colName     = "name"
	colEmail    = "email"
	colGender   = "gender"
	colPhone    = "phone"
	colPlusOnes = "plus_ones"
)

var requiredColumns = []string{colName, colEmail, colGender, colPhone, colPlusOnes}

// Output columns before the plus-one links
var outputColumns = []string{"name", "email", "phone", "main_link"}

// PlusOneColumn names the output column of the i-th (1-based) plus-one link
func PlusOneColumn(i int) string {
	return "plus_one_link_" + strconv.Itoa(i)
}

// ReadRows parses invitee rows from CSV with a header line. Extra columns
// are ignored; a blank plus_ones cell counts as zero.
func ReadRows(r io.Reader) ([]models.InputRow, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("input file is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.TrimPrefix(name, "\ufeff")
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	var missing []string
	for _, col := range requiredColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required columns: %s", strings.Join(missing, ", "))
	}

	var rows []models.InputRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		line, _ := reader.FieldPos(0)

		field := func(col string) string {
			return strings.TrimSpace(record[index[col]])
		}

		plusOnes := 0
		if raw := field(colPlusOnes); raw != "" {
			plusOnes, err = strconv.Atoi(raw)
			if err != nil || plusOnes < 0 {
				return nil, fmt.Errorf("line %d: plus_ones must be a non-negative integer, got %q", line, raw)
			}
		}

		rows = append(rows, models.InputRow{
			Name:     field(colName),
			Email:    field(colEmail),
			Gender:   field(colGender),
			Phone:    field(colPhone),
			PlusOnes: plusOnes,
		})
	}
	return rows, nil
}

// ReadFile reads invitee rows from a CSV file
func ReadFile(path string) ([]models.InputRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()

	rows, err := ReadRows(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return rows, nil
}

// WriteRows writes the output table. The plus-one columns run up to the
// highest index present in any row; rows without that link leave it empty.
func WriteRows(w io.Writer, rows []models.OutputRow) error {
	maxLinks := 0
	for _, row := range rows {
		for i := range row.PlusOneLinks {
			maxLinks = max(maxLinks, i)
		}
	}

	header := append([]string{}, outputColumns...)
	for i := 1; i <= maxLinks; i++ {
		header = append(header, PlusOneColumn(i))
	}

	writer := csv.NewWriter(w)
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for _, row := range rows {
		record := make([]string, 0, len(header))
		record = append(record, row.Name, row.Email, row.Phone, row.MainLink)
		for i := 1; i <= maxLinks; i++ {
			record = append(record, row.PlusOneLinks[i])
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write row for %s: %w", row.Email, err)
		}
	}
	writer.Flush()
	return writer.Error()
}

// WriteFile writes the output table to path, replacing any existing file
func WriteFile(path string, rows []models.OutputRow) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create output: %w", err)
	}
	if err := WriteRows(f, rows); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
