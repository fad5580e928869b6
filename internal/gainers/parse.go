package gainers

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ParseRows extracts (symbol, name) pairs from the rendered listing table HTML.
// Rows with fewer than two cells or empty values are skipped.
func ParseRows(html string) ([]SymbolRecord, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse table HTML: %w", err)
	}

	var records []SymbolRecord
	doc.Find("tbody tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}

		symbol := strings.ToUpper(strings.TrimSpace(cells.Eq(0).Text()))
		name := strings.TrimSpace(cells.Eq(1).Text())
		if symbol == "" || name == "" {
			return
		}

		records = append(records, SymbolRecord{Symbol: symbol, Name: name})
	})

	return records, nil
}
