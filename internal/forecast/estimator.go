package forecast

import (
	"math"
)

// Forecast is the output of the estimator: point estimates with a widening
// confidence band. All slices have length Horizon and satisfy
// Lower[i] <= Points[i] <= Upper[i].
type Forecast struct {
	Horizon    int       `json:"horizon"`
	Points     []float64 `json:"points"`
	Lower      []float64 `json:"lower"`
	Upper      []float64 `json:"upper"`
	Confidence float64   `json:"confidence"`
	// ResidualStdDev is the standard deviation of the in-sample residuals;
	// the stock forecaster derives its volatility score from it.
	ResidualStdDev float64 `json:"residualStddev"`
}

// Estimator fits a moving-average + linear-trend + seasonal model to a
// normalized series. Pure and deterministic: identical input reproduces
// identical output.
type Estimator struct {
	// WindowFloor is the minimum smoothing window; the effective window is
	// max(WindowFloor, n/8).
	WindowFloor int
	// ZGrowth and ZCap shape the band multiplier z = 1 + ZGrowth*step,
	// capped at ZCap, so uncertainty grows with horizon distance.
	ZGrowth float64
	ZCap    float64
	// SeasonalCycle is the sub-period count for daily data (weekly cycle).
	// A seasonal index is only fitted when the series spans at least two
	// full cycles.
	SeasonalCycle int
}

// DefaultEstimator holds the defaults used when no overrides are supplied.
var DefaultEstimator = Estimator{
	WindowFloor:   3,
	ZGrowth:       0.15,
	ZCap:          2.5,
	SeasonalCycle: 7,
}

// MinObservations is the smallest series length the estimator accepts.
const MinObservations = 3

// Fit produces a Forecast of the given horizon from s.
//
// Algorithm: centered moving average of window max(floor, n/8) to denoise,
// ordinary least squares over the smoothed values, plus a per-sub-period
// seasonal index for daily series spanning two or more weekly cycles. The
// band is point ± z×residual stddev with z growing per step.
//
// A zero-variance series is not an error: it yields the flat value with a
// zero-width band.
func (e Estimator) Fit(s Series, horizon int) (*Forecast, error) {
	n := s.Len()
	if n < MinObservations {
		return nil, NewError(ErrInsufficientData, "series has %d periods, need at least %d", n, MinObservations)
	}
	if horizon < 1 {
		return nil, NewError(ErrInsufficientData, "horizon must be at least 1, got %d", horizon)
	}

	values := s.Values()
	if isFlat(values) {
		return flatForecast(values[0], horizon), nil
	}

	window := e.WindowFloor
	if w := n / 8; w > window {
		window = w
	}
	smoothed := centeredMovingAverage(values, window)
	slope, intercept, r2 := linearFit(smoothed)

	var seasonal []float64
	cycle := e.SeasonalCycle
	if s.Period == PeriodDay && cycle > 1 && n >= 2*cycle {
		seasonal = seasonalIndex(values, slope, intercept, cycle)
	}

	residual := residualStdDev(values, slope, intercept, seasonal, cycle)

	f := &Forecast{
		Horizon:        horizon,
		Points:         make([]float64, horizon),
		Lower:          make([]float64, horizon),
		Upper:          make([]float64, horizon),
		Confidence:     clamp01(r2),
		ResidualStdDev: residual,
	}
	for step := 1; step <= horizon; step++ {
		i := n - 1 + step
		point := slope*float64(i) + intercept
		if seasonal != nil {
			point += seasonal[i%cycle]
		}
		z := 1.0 + e.ZGrowth*float64(step)
		if z > e.ZCap {
			z = e.ZCap
		}
		f.Points[step-1] = point
		f.Lower[step-1] = point - z*residual
		f.Upper[step-1] = point + z*residual
	}
	return f, nil
}

// FlatForecast projects a constant value over the horizon with a zero-width
// band. Used for degenerate series and as the sparse-category fallback base.
func flatForecast(value float64, horizon int) *Forecast {
	f := &Forecast{
		Horizon:    horizon,
		Points:     make([]float64, horizon),
		Lower:      make([]float64, horizon),
		Upper:      make([]float64, horizon),
		Confidence: 1,
	}
	for i := range f.Points {
		f.Points[i] = value
		f.Lower[i] = value
		f.Upper[i] = value
	}
	return f
}

// MeanForecast projects the unweighted average of values with a band built
// from the sample stddev and the estimator's z schedule. The expense
// forecaster uses it for categories too sparse to fit a trend on.
func (e Estimator) MeanForecast(values []float64, horizon int) *Forecast {
	if len(values) == 0 || horizon < 1 {
		return flatForecast(0, max(horizon, 1))
	}
	mean, stddev := meanStdDev(values)
	if stddev == 0 {
		return flatForecast(mean, horizon)
	}
	f := &Forecast{
		Horizon:        horizon,
		Points:         make([]float64, horizon),
		Lower:          make([]float64, horizon),
		Upper:          make([]float64, horizon),
		ResidualStdDev: stddev,
	}
	for step := 1; step <= horizon; step++ {
		z := 1.0 + e.ZGrowth*float64(step)
		if z > e.ZCap {
			z = e.ZCap
		}
		f.Points[step-1] = mean
		f.Lower[step-1] = mean - z*stddev
		f.Upper[step-1] = mean + z*stddev
	}
	return f
}

func isFlat(values []float64) bool {
	for _, v := range values[1:] {
		if v != values[0] {
			return false
		}
	}
	return true
}

// centeredMovingAverage smooths values with a window centered on each index,
// shrinking at the edges so output length equals input length.
func centeredMovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	half := window / 2
	out := make([]float64, len(values))
	for i := range values {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > len(values)-1 {
			hi = len(values) - 1
		}
		var sum float64
		for j := lo; j <= hi; j++ {
			sum += values[j]
		}
		out[i] = sum / float64(hi-lo+1)
	}
	return out
}

// linearFit computes OLS slope, intercept and R² for y-values at x=0,1,2,…
func linearFit(points []float64) (slope, intercept, rSquared float64) {
	n := float64(len(points))
	if n < 2 {
		if n == 1 {
			return 0, points[0], 0
		}
		return 0, 0, 0
	}
	var sumX, sumY, sumXY, sumX2 float64
	for i, y := range points {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumX2 += x * x
	}
	denom := n*sumX2 - sumX*sumX
	if denom == 0 {
		return 0, sumY / n, 0
	}
	slope = (n*sumXY - sumX*sumY) / denom
	intercept = (sumY - slope*sumX) / n

	meanY := sumY / n
	var ssRes, ssTot float64
	for i, y := range points {
		predicted := slope*float64(i) + intercept
		ssRes += (y - predicted) * (y - predicted)
		ssTot += (y - meanY) * (y - meanY)
	}
	if ssTot == 0 {
		return slope, intercept, 1
	}
	return slope, intercept, 1 - ssRes/ssTot
}

// seasonalIndex averages the detrended values per sub-period position.
func seasonalIndex(values []float64, slope, intercept float64, cycle int) []float64 {
	sums := make([]float64, cycle)
	counts := make([]int, cycle)
	for i, v := range values {
		d := v - (slope*float64(i) + intercept)
		sums[i%cycle] += d
		counts[i%cycle]++
	}
	idx := make([]float64, cycle)
	for i := range idx {
		if counts[i] > 0 {
			idx[i] = sums[i] / float64(counts[i])
		}
	}
	return idx
}

func residualStdDev(values []float64, slope, intercept float64, seasonal []float64, cycle int) float64 {
	var sumSq float64
	for i, v := range values {
		fitted := slope*float64(i) + intercept
		if seasonal != nil {
			fitted += seasonal[i%cycle]
		}
		d := v - fitted
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(values)))
}

func meanStdDev(values []float64) (mean, stddev float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))
	var varSum float64
	for _, v := range values {
		d := v - mean
		varSum += d * d
	}
	return mean, math.Sqrt(varSum / float64(len(values)))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
