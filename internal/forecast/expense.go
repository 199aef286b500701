package forecast

import (
	"context"
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// ExpenseForecast pairs the aggregate projection with its per-category
// breakdown.
type ExpenseForecast struct {
	Aggregate  *Forecast            `json:"aggregate"`
	ByCategory map[string]*Forecast `json:"byCategory"`
}

// ExpenseForecaster projects per-category expense series independently and
// sums the per-period results into an aggregate.
type ExpenseForecaster struct {
	Estimator Estimator
	// SparseFloor is the observed-period count below which a category falls
	// back to an unweighted average instead of a fitted trend. Records
	// clustered in a few periods would otherwise get a trend fitted to a
	// mostly-synthetic series.
	SparseFloor int
}

// NewExpenseForecaster returns a forecaster with the given estimator and the
// default sparse-category floor.
func NewExpenseForecaster(e Estimator) ExpenseForecaster {
	return ExpenseForecaster{Estimator: e, SparseFloor: MinObservations}
}

// Forecast projects each category series over the horizon. Category
// forecasts are independent and run concurrently; the aggregate is a pure
// per-period reduction after they all complete. Returns ErrInsufficientData
// when no category has data.
func (f ExpenseForecaster) Forecast(ctx context.Context, byCategory map[string]Series, horizon int) (*ExpenseForecast, error) {
	if len(byCategory) == 0 {
		return nil, NewError(ErrInsufficientData, "no expense categories in range")
	}
	if horizon < 1 {
		return nil, NewError(ErrInsufficientData, "horizon must be at least 1, got %d", horizon)
	}

	var (
		mu  sync.Mutex
		out = make(map[string]*Forecast, len(byCategory))
	)
	g, ctx := errgroup.WithContext(ctx)
	for category, series := range byCategory {
		category, series := category, series
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			fc, err := f.forecastCategory(series, horizon)
			if err != nil {
				return err
			}
			mu.Lock()
			out[category] = fc
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &ExpenseForecast{
		Aggregate:  sumForecasts(out, horizon),
		ByCategory: out,
	}, nil
}

func (f ExpenseForecaster) forecastCategory(s Series, horizon int) (*Forecast, error) {
	if s.ObservedPeriods < f.SparseFloor || s.Len() < MinObservations {
		return f.Estimator.MeanForecast(s.Values(), horizon), nil
	}
	return f.Estimator.Fit(s, horizon)
}

// sumForecasts reduces category forecasts into an aggregate. Bands sum
// per period, so the aggregate band is at least as wide as any component's.
// Iteration is over sorted keys for determinism.
func sumForecasts(byCategory map[string]*Forecast, horizon int) *Forecast {
	agg := &Forecast{
		Horizon: horizon,
		Points:  make([]float64, horizon),
		Lower:   make([]float64, horizon),
		Upper:   make([]float64, horizon),
	}
	keys := make([]string, 0, len(byCategory))
	for k := range byCategory {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var confSum, residSq float64
	for _, k := range keys {
		fc := byCategory[k]
		for i := 0; i < horizon; i++ {
			agg.Points[i] += fc.Points[i]
			agg.Lower[i] += fc.Lower[i]
			agg.Upper[i] += fc.Upper[i]
		}
		confSum += fc.Confidence
		residSq += fc.ResidualStdDev * fc.ResidualStdDev
	}
	if len(keys) > 0 {
		agg.Confidence = confSum / float64(len(keys))
	}
	agg.ResidualStdDev = math.Sqrt(residSq)
	return agg
}
