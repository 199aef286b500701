package forecast

// StockForecast is a price projection plus the risk measures the suggestion
// scorer consumes.
type StockForecast struct {
	Forecast
	Ticker string `json:"ticker"`
	// Volatility is the coefficient of variation: residual stddev divided
	// by the series mean. Scale-free, so tickers at different price levels
	// compare fairly.
	Volatility float64 `json:"volatility"`
	// ExpectedReturn is the relative change from the first to the last
	// point estimate over the horizon.
	ExpectedReturn float64 `json:"expectedReturn"`
	// LastClose is the most recent observed price, used for affordability.
	LastClose float64 `json:"lastClose"`
	// DailyReturns are the observed period-over-period percent changes,
	// surfaced alongside the projection for charting.
	DailyReturns []float64 `json:"dailyReturns,omitempty"`
}

// StockForecaster projects a ticker's quote series over a short horizon.
// Band width grows quickly with z, so forecasts beyond ~10 periods are
// advisory only; the widening band is the signal of declining reliability.
type StockForecaster struct {
	Estimator Estimator
	// MinPeriods is the minimum number of trading periods required.
	MinPeriods int
}

// MinQuotePeriods is the default trading-period floor for price forecasts.
const MinQuotePeriods = 10

// NewStockForecaster returns a forecaster with the default quote floor.
func NewStockForecaster(e Estimator) StockForecaster {
	return StockForecaster{Estimator: e, MinPeriods: MinQuotePeriods}
}

// Forecast fits the estimator to a normalized quote series. Returns
// ErrInsufficientData when fewer than MinPeriods periods are present.
func (f StockForecaster) Forecast(ticker string, s Series, horizon int) (*StockForecast, error) {
	if s.Len() < f.MinPeriods {
		return nil, NewError(ErrInsufficientData, "%s has %d trading periods, need at least %d", ticker, s.Len(), f.MinPeriods)
	}
	fc, err := f.Estimator.Fit(s, horizon)
	if err != nil {
		return nil, err
	}

	out := &StockForecast{
		Forecast:     *fc,
		Ticker:       ticker,
		LastClose:    s.Points[s.Len()-1].Value,
		DailyReturns: DailyReturns(s),
	}
	mean, _ := meanStdDev(s.Values())
	if mean != 0 {
		out.Volatility = fc.ResidualStdDev / mean
	}
	if first := fc.Points[0]; first != 0 {
		out.ExpectedReturn = (fc.Points[len(fc.Points)-1] - first) / first
	}
	return out, nil
}

// DailyReturns computes period-over-period relative changes in percent,
// mirroring the daily-return view users see on price charts. Length is
// Len()-1; a zero previous close contributes a zero return rather than a
// division error.
func DailyReturns(s Series) []float64 {
	if s.Len() < 2 {
		return nil
	}
	out := make([]float64, s.Len()-1)
	for i := 1; i < s.Len(); i++ {
		prev := s.Points[i-1].Value
		if prev != 0 {
			out[i-1] = (s.Points[i].Value - prev) / prev * 100
		}
	}
	return out
}
