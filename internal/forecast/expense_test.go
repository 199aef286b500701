package forecast

import (
	"context"
	"testing"
)

func TestExpenseForecastFlatCategory(t *testing.T) {
	// Three periods of 100 with horizon 2: the degenerate/flat case must
	// yield [100, 100] with a zero-width band.
	byCat := map[string]Series{
		"Food": seriesFrom([]float64{100, 100, 100}, PeriodMonth),
	}

	f := NewExpenseForecaster(DefaultEstimator)
	out, err := f.Forecast(context.Background(), byCat, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	agg := out.Aggregate
	if len(agg.Points) != 2 {
		t.Fatalf("expected 2 point estimates, got %d", len(agg.Points))
	}
	for i := range agg.Points {
		if agg.Points[i] != 100 {
			t.Errorf("step %d: expected 100, got %v", i, agg.Points[i])
		}
		if agg.Lower[i] != 100 || agg.Upper[i] != 100 {
			t.Errorf("step %d: expected zero-width band, got [%v, %v]", i, agg.Lower[i], agg.Upper[i])
		}
	}
	if len(out.ByCategory) != 1 {
		t.Fatalf("expected one category forecast, got %d", len(out.ByCategory))
	}
}

func TestExpenseForecastAggregateSumsCategories(t *testing.T) {
	byCat := map[string]Series{
		"Food":      seriesFrom([]float64{100, 100, 100, 100}, PeriodMonth),
		"Transport": seriesFrom([]float64{50, 50, 50, 50}, PeriodMonth),
	}

	f := NewExpenseForecaster(DefaultEstimator)
	out, err := f.Forecast(context.Background(), byCat, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, v := range out.Aggregate.Points {
		if v != 150 {
			t.Errorf("step %d: expected aggregate 150, got %v", i, v)
		}
	}
	if out.ByCategory["Food"].Points[0] != 100 {
		t.Errorf("expected Food projection 100, got %v", out.ByCategory["Food"].Points[0])
	}
	if out.ByCategory["Transport"].Points[0] != 50 {
		t.Errorf("expected Transport projection 50, got %v", out.ByCategory["Transport"].Points[0])
	}
}

func TestExpenseForecastSparseCategoryFallsBackToAverage(t *testing.T) {
	// Two observed periods across four: below the sparse floor, so the
	// category gets an unweighted average, not a fitted trend.
	s := seriesFrom([]float64{40, 0, 0, 80}, PeriodMonth)
	s.Observed = 2
	s.ObservedPeriods = 2

	f := NewExpenseForecaster(DefaultEstimator)
	out, err := f.Forecast(context.Background(), map[string]Series{"Entertainment": s}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fc := out.ByCategory["Entertainment"]
	mean := (40.0 + 0 + 0 + 80) / 4
	for i, v := range fc.Points {
		if v != mean {
			t.Errorf("step %d: expected unweighted average %v, got %v", i, mean, v)
		}
	}
}

func TestExpenseForecastClusteredRecordsFallBackToAverage(t *testing.T) {
	// Three records on a single day across a four-month range normalize to
	// one observed period. A trend fitted to the remaining zeros would
	// project negative spend; the sparse floor must catch this.
	obs := []Observation{
		{Time: day(2025, 1, 10), Value: 30},
		{Time: day(2025, 1, 10), Value: 30},
		{Time: day(2025, 1, 10), Value: 30},
	}
	s, err := Normalize(obs, PeriodMonth, day(2025, 1, 1), day(2025, 4, 30), FillZero)
	if err != nil {
		t.Fatalf("Normalize: %v", err)
	}
	if s.Observed != 3 || s.ObservedPeriods != 1 {
		t.Fatalf("expected 3 records in 1 period, got %d in %d", s.Observed, s.ObservedPeriods)
	}

	f := NewExpenseForecaster(DefaultEstimator)
	out, err := f.Forecast(context.Background(), map[string]Series{"Food": s}, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mean := 90.0 / 4
	for i, v := range out.ByCategory["Food"].Points {
		if v != mean {
			t.Errorf("step %d: expected unweighted average %v, got %v", i, mean, v)
		}
	}
}

func TestExpenseForecastEmptyInput(t *testing.T) {
	f := NewExpenseForecaster(DefaultEstimator)
	_, err := f.Forecast(context.Background(), nil, 2)
	if !IsCode(err, ErrInsufficientData) {
		t.Fatalf("expected INSUFFICIENT_DATA, got %v", err)
	}
}

func TestExpenseForecastDeterministicAcrossRuns(t *testing.T) {
	byCat := map[string]Series{
		"Food":      seriesFrom([]float64{10, 20, 15, 25, 30, 22}, PeriodMonth),
		"Bills":     seriesFrom([]float64{90, 90, 95, 92, 91, 94}, PeriodMonth),
		"Transport": seriesFrom([]float64{5, 0, 10, 5, 0, 10}, PeriodMonth),
	}
	f := NewExpenseForecaster(DefaultEstimator)

	first, err := f.Forecast(context.Background(), byCat, 4)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := f.Forecast(context.Background(), byCat, 4)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range first.Aggregate.Points {
			if first.Aggregate.Points[i] != again.Aggregate.Points[i] {
				t.Fatalf("aggregate differs across runs at step %d", i)
			}
		}
	}
}
