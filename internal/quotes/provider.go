// Package quotes fetches historical closing prices from an external market
// data service.
package quotes

import (
	"context"
	"time"

	"github.com/expensetrade/backend/internal/model"
)

//go:generate mockgen -source=provider.go -destination=provider_mock.go -package=quotes

// Provider is the market data source the forecasting service reads from.
type Provider interface {
	// History returns daily closing prices for ticker in [from, to],
	// oldest first.
	History(ctx context.Context, ticker string, from, to time.Time) ([]model.Quote, error)
	// LatestClose returns the most recent closing price for ticker.
	LatestClose(ctx context.Context, ticker string) (float64, error)
}
