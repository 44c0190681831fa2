package parser

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"ai-visibility-service/models"

	"github.com/xuri/excelize/v2"
)

var (
	// ErrUnsupportedFormat is returned for file extensions we cannot parse.
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv, .tsv or .xlsx")

	// ErrEmptyFile is returned when no valid rows remain after filtering.
	ErrEmptyFile = errors.New("no valid rows found in file")
)

// requiredColumns are the headers every upload must carry, matched
// case-insensitively after trimming.
var requiredColumns = []string{"country", "prompt", "website"}

// MissingColumnsError names the required headers absent from an upload.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s", strings.Join(e.Columns, ", "))
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Parse converts an uploaded file into validated query rows. The second
// return value counts data rows that were present but skipped because a
// required cell was empty after normalization.
func Parse(data []byte, filename string) ([]models.QueryRow, int, error) {
	var (
		records [][]string
		err     error
	)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		records, err = parseDelimited(data, ',')
	case ".tsv":
		records, err = parseDelimited(data, '\t')
	case ".xlsx":
		records, err = parseXLSX(data)
	default:
		return nil, 0, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, 0, err
	}

	return buildRows(records)
}

func parseDelimited(data []byte, delimiter rune) ([][]string, error) {
	// Templates are written with a UTF-8 BOM (utf-8-sig) so Excel opens
	// them correctly; strip it before parsing.
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = delimiter
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var records [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse file: %w", err)
		}
		records = append(records, record)
	}

	return records, nil
}

func parseXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, fmt.Errorf("spreadsheet has no sheets")
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}

	return rows, nil
}

// buildRows validates headers and converts data rows into QueryRow values.
func buildRows(records [][]string) ([]models.QueryRow, int, error) {
	if len(records) == 0 {
		return nil, 0, ErrEmptyFile
	}

	columns, err := mapColumns(records[0])
	if err != nil {
		return nil, 0, err
	}

	var (
		rows    []models.QueryRow
		skipped int
	)

	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}

		country := cellAt(record, columns["country"])
		prompt := cellAt(record, columns["prompt"])
		domain := ExtractDomain(cellAt(record, columns["website"]))

		if country == "" || prompt == "" || domain == "" {
			skipped++
			continue
		}

		rows = append(rows, models.QueryRow{
			Country:      country,
			Prompt:       prompt,
			TargetDomain: domain,
		})
	}

	if len(rows) == 0 {
		return nil, skipped, ErrEmptyFile
	}

	return rows, skipped, nil
}

func mapColumns(header []string) (map[string]int, error) {
	columns := make(map[string]int, len(requiredColumns))
	for i, name := range header {
		normalized := strings.ToLower(strings.TrimSpace(name))
		if _, exists := columns[normalized]; !exists {
			columns[normalized] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, &MissingColumnsError{Columns: missing}
	}

	return columns, nil
}

func cellAt(record []string, index int) string {
	if index >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[index])
}

func isEmptyRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

// ExtractDomain reduces a website cell to a bare lower-case host:
// scheme, www. prefix, port, path, query and fragment are stripped.
func ExtractDomain(website string) string {
	domain := strings.ToLower(strings.TrimSpace(website))
	if domain == "" {
		return ""
	}

	if idx := strings.Index(domain, "://"); idx != -1 {
		domain = domain[idx+3:]
	}
	domain = strings.TrimPrefix(domain, "www.")

	for _, sep := range []string{"/", "?", "#"} {
		if idx := strings.Index(domain, sep); idx != -1 {
			domain = domain[:idx]
		}
	}

	if idx := strings.Index(domain, ":"); idx != -1 {
		domain = domain[:idx]
	}

	return domain
}
