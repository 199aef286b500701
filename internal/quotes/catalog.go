package quotes

import (
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// companyNames maps the built-in ticker universe to display names.
var companyNames = map[string]string{
	"AAPL":  "Apple Inc.",
	"AMZN":  "Amazon.com, Inc.",
	"GOOGL": "Alphabet Inc.",
	"JNJ":   "Johnson & Johnson",
	"JPM":   "JPMorgan Chase & Co.",
	"KO":    "The Coca-Cola Company",
	"MSFT":  "Microsoft Corporation",
	"NVDA":  "NVIDIA Corporation",
	"PG":    "Procter & Gamble Co.",
	"TSLA":  "Tesla, Inc.",
}

var titleCaser = cases.Title(language.English)

// CompanyName returns the display name for a ticker. Unknown tickers get a
// title-cased rendering of the symbol so the UI never shows a blank name.
func CompanyName(ticker string) string {
	if name, ok := companyNames[strings.ToUpper(ticker)]; ok {
		return name
	}
	return titleCaser.String(strings.ToLower(ticker))
}

// DefaultUniverse returns the built-in candidate tickers in sorted order,
// used when a suggestion request names no tickers and the user holds none.
func DefaultUniverse() []string {
	tickers := make([]string, 0, len(companyNames))
	for t := range companyNames {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}
