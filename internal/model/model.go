// Package model defines the domain types shared by the store, the
// forecasting engine and the HTTP surface.
package model

import "time"

// Expense categories. These mirror the category set users pick from when
// entering expenses; stock purchases land in CategoryStocks.
const (
	CategoryFood          = "Food"
	CategoryTransport     = "Transport"
	CategoryEntertainment = "Entertainment"
	CategoryBills         = "Bills"
	CategoryStocks        = "Stocks"
	CategoryOther         = "Other"
)

// Expense is a single spending record. Immutable once persisted; edits are
// handled by the CRUD layer replacing the document wholesale.
type Expense struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Income is a single earning record.
type Income struct {
	ID          string    `json:"id"`
	Owner       string    `json:"owner"`
	Amount      float64   `json:"amount"`
	Date        time.Time `json:"date"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Goal is a savings goal. SavedAmount tracks manual progress updates;
// TargetDate may be zero when the user set no deadline.
type Goal struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	TargetAmount float64   `json:"targetAmount"`
	SavedAmount  float64   `json:"savedAmount"`
	TargetDate   time.Time `json:"targetDate"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Quote is one trading period's closing price for a ticker.
type Quote struct {
	Ticker string    `json:"ticker"`
	Date   time.Time `json:"date"`
	Close  float64   `json:"close"`
}

// StockHolding records a stock purchase made through the app. The purchase
// itself is also recorded as an Expense under CategoryStocks.
type StockHolding struct {
	ID            string    `json:"id"`
	Owner         string    `json:"owner"`
	Ticker        string    `json:"ticker"`
	Name          string    `json:"name"`
	PurchaseDate  time.Time `json:"purchaseDate"`
	Quantity      int       `json:"quantity"`
	PurchasePrice float64   `json:"purchasePrice"`
	Sold          bool      `json:"sold"`
	SellPrice     float64   `json:"sellPrice"`
	SellDate      time.Time `json:"sellDate"`
}

// Alert is emitted when a day's running expense total breaches the
// configured cap. At most one alert exists per (owner, date).
type Alert struct {
	ID           string    `json:"id"`
	Owner        string    `json:"owner"`
	Date         string    `json:"date"` // YYYY-MM-DD
	Cap          float64   `json:"cap"`
	RunningTotal float64   `json:"runningTotal"`
	Overage      float64   `json:"overage"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RiskProfile selects the scoring weight table used for stock suggestions.
type RiskProfile string

const (
	RiskConservative RiskProfile = "conservative"
	RiskNeutral      RiskProfile = "neutral"
	RiskAggressive   RiskProfile = "aggressive"
)

// Valid reports whether p is one of the known profiles.
func (p RiskProfile) Valid() bool {
	switch p {
	case RiskConservative, RiskNeutral, RiskAggressive:
		return true
	}
	return false
}
