package report

import (
	"bytes"
	"encoding/csv"
	"strconv"
	"strings"

	"ai-visibility-service/models"
)

// utf8BOM prefixes generated CSV files (utf-8-sig) so spreadsheet
// applications decode non-ASCII prompt text correctly.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Header is the column layout of the visibility report.
var Header = []string{
	"Original Prompt",
	"Geo Prompt",
	"Country",
	"Target Domain",
	"Mentioned",
	"Position",
	"AIV Score",
	"Competitor Domains",
	"Tokens Used",
	"Error",
}

// Assemble renders per-row visibility records into a CSV byte artifact,
// one row per record in the given order.
func Assemble(records []models.VisibilityMetrics) []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writer := csv.NewWriter(&buf)
	writer.Write(Header)

	for _, record := range records {
		position := ""
		if record.Position != nil {
			position = strconv.Itoa(*record.Position)
		}
		tokens := ""
		if record.TokensUsed != nil {
			tokens = strconv.Itoa(*record.TokensUsed)
		}

		writer.Write([]string{
			record.OriginalPrompt,
			record.GeoPrompt,
			record.Country,
			record.TargetDomain,
			strconv.FormatBool(record.Mentioned),
			position,
			strconv.Itoa(record.AIVScore),
			strings.Join(record.CompetitorDomains, "; "),
			tokens,
			record.Error,
		})
	}

	writer.Flush()
	return buf.Bytes()
}

// templateRows mirror the sample data served with the upload template.
var templateRows = [][]string{
	{"UK", "Dyson V15 cordless vacuum cleaner best price UK", "amazon.co.uk"},
	{"USA", "KitchenAid stand mixer reviews USA", "amazon.com"},
	{"Germany", "Samsung Waschmaschine 9kg Frontlader Deutschland", "amazon.de"},
	{"UK", "Ninja air fryer large capacity reviews UK", "amazon.co.uk"},
	{"USA", "Bosch dishwasher built-in stainless steel USA", "amazon.com"},
	{"Germany", "Miele Waschmaschine Test Deutschland", "amazon.de"},
	{"UK", "Shark vacuum cleaner cordless UK best", "amazon.co.uk"},
	{"USA", "Instant Pot pressure cooker reviews USA", "amazon.com"},
	{"Germany", "AEG Geschirrspüler Einbau Deutschland", "amazon.de"},
	{"UK", "Russell Hobbs kettle best price UK", "amazon.co.uk"},
}

// Template returns the sample CSV served by the download-template endpoint.
func Template() []byte {
	var buf bytes.Buffer
	buf.Write(utf8BOM)

	writer := csv.NewWriter(&buf)
	writer.Write([]string{"Country", "Prompt", "Website"})
	for _, row := range templateRows {
		writer.Write(row)
	}
	writer.Flush()

	return buf.Bytes()
}
