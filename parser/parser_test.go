package parser

import (
	"bytes"
	"errors"
	"testing"

	"ai-visibility-service/models"

	"github.com/xuri/excelize/v2"
)

func TestParseCSV(t *testing.T) {
	data := []byte("Country,Prompt,Website\n" +
		"UK,best cordless vacuum,https://www.example.co.uk/page\n" +
		"USA,stand mixer reviews,amazon.com\n" +
		"Germany,Waschmaschine Test,www.amazon.de\n")

	rows, skipped, err := Parse(data, "queries.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}

	want := []models.QueryRow{
		{Country: "UK", Prompt: "best cordless vacuum", TargetDomain: "example.co.uk"},
		{Country: "USA", Prompt: "stand mixer reviews", TargetDomain: "amazon.com"},
		{Country: "Germany", Prompt: "Waschmaschine Test", TargetDomain: "amazon.de"},
	}
	if len(rows) != len(want) {
		t.Fatalf("got %d rows, want %d", len(rows), len(want))
	}
	for i, row := range rows {
		if row != want[i] {
			t.Errorf("row %d = %+v, want %+v", i, row, want[i])
		}
	}
}

func TestParseTSV(t *testing.T) {
	data := []byte("Country\tPrompt\tWebsite\nUK\tkettle best price\tshop.example.com\n")

	rows, _, err := Parse(data, "queries.tsv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 1 || rows[0].TargetDomain != "shop.example.com" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	cells := [][]any{
		{"Country", "Prompt", "Website"},
		{"France", "meilleur aspirateur", "https://amazon.fr/dp/123"},
		{"Canada", "air fryer reviews", "amazon.ca"},
	}
	for i, row := range cells {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			t.Fatalf("SetSheetRow: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write: %v", err)
	}

	rows, skipped, err := Parse(buf.Bytes(), "queries.xlsx")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if rows[0].TargetDomain != "amazon.fr" || rows[1].TargetDomain != "amazon.ca" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseHeaderNormalization(t *testing.T) {
	data := []byte(" country , PROMPT , Website \nUK,some prompt,example.com\n")

	rows, _, err := Parse(data, "queries.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
}

func TestParseStripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte("Country,Prompt,Website\nUK,prompt,example.com\n")...)

	rows, _, err := Parse(data, "queries.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 1 || rows[0].Country != "UK" {
		t.Errorf("rows = %+v", rows)
	}
}

func TestParseSkipsInvalidRows(t *testing.T) {
	data := []byte("Country,Prompt,Website\n" +
		"UK,valid prompt,example.com\n" +
		",missing country,example.com\n" +
		"USA,,example.com\n" +
		"USA,missing website,\n" +
		"\n" +
		",,\n")

	rows, skipped, err := Parse(data, "queries.csv")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("got %d rows, want 1", len(rows))
	}
	// Fully empty rows are ignored outright, not counted as skipped.
	if skipped != 3 {
		t.Errorf("skipped = %d, want 3", skipped)
	}
}

func TestParseMissingColumns(t *testing.T) {
	data := []byte("Country,Query\nUK,some prompt\n")

	_, _, err := Parse(data, "queries.csv")
	var missingErr *MissingColumnsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("Parse() error = %v, want MissingColumnsError", err)
	}
	if len(missingErr.Columns) != 2 {
		t.Errorf("missing columns = %v, want [prompt website]", missingErr.Columns)
	}
}

func TestParseUnsupportedFormat(t *testing.T) {
	_, _, err := Parse([]byte("whatever"), "queries.pdf")
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("Parse() error = %v, want ErrUnsupportedFormat", err)
	}
}

func TestParseEmptyFile(t *testing.T) {
	for _, data := range []string{
		"",
		"Country,Prompt,Website\n",
		"Country,Prompt,Website\n,,\n",
	} {
		_, _, err := Parse([]byte(data), "queries.csv")
		if !errors.Is(err, ErrEmptyFile) {
			t.Errorf("Parse(%q) error = %v, want ErrEmptyFile", data, err)
		}
	}
}

func TestExtractDomain(t *testing.T) {
	tests := []struct {
		website string
		want    string
	}{
		{"https://www.example.co.uk/page", "example.co.uk"},
		{"http://example.com", "example.com"},
		{"www.example.com", "example.com"},
		{"Example.COM", "example.com"},
		{"example.com:8080/path", "example.com"},
		{"https://shop.example.com?q=1", "shop.example.com"},
		{"example.com#anchor", "example.com"},
		{"  amazon.de  ", "amazon.de"},
		{"", ""},
	}

	for _, tc := range tests {
		if got := ExtractDomain(tc.website); got != tc.want {
			t.Errorf("ExtractDomain(%q) = %q, want %q", tc.website, got, tc.want)
		}
	}
}
