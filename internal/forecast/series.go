package forecast

import (
	"sort"
	"time"
)

// Period is the fixed calendar bucket used to regularize irregular records.
type Period string

const (
	PeriodDay   Period = "day"
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// FillMode controls how the normalizer synthesizes missing periods.
type FillMode int

const (
	// FillZero is for flow quantities (expenses, income): a period with no
	// records means no flow occurred, so the value is zero. Never interpolate.
	FillZero FillMode = iota
	// FillCarryForward is for level quantities (prices): a period with no
	// quote keeps the last known value.
	FillCarryForward
)

// Observation is one raw dated value prior to normalization.
type Observation struct {
	Time  time.Time
	Value float64
}

// Point is one period of a normalized series.
type Point struct {
	Start time.Time
	Value float64
}

// Series is a gap-free, strictly period-ordered sequence of values. It is
// built by Normalize, consumed by the estimator, and discarded after use.
type Series struct {
	Period Period
	Points []Point
	// Observed counts the raw observations that contributed values, so
	// callers can tell a sparse series from a genuinely quiet one.
	Observed int
	// ObservedPeriods counts the distinct periods that received at least
	// one observation. Many records clustered in one period still leave
	// the rest of the series synthesized, so sparsity checks key on this,
	// not on Observed.
	ObservedPeriods int
}

// Len returns the number of periods.
func (s Series) Len() int { return len(s.Points) }

// Values returns the period values in order.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// PeriodStart truncates t to the start of its period. Weeks start on Sunday,
// matching how the rest of the app buckets weekly data.
func PeriodStart(t time.Time, p Period) time.Time {
	switch p {
	case PeriodWeek:
		day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
		return day.AddDate(0, 0, -int(day.Weekday()))
	case PeriodMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
	default:
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	}
}

func nextPeriod(t time.Time, p Period) time.Time {
	switch p {
	case PeriodWeek:
		return t.AddDate(0, 0, 7)
	case PeriodMonth:
		return t.AddDate(0, 1, 0)
	default:
		return t.AddDate(0, 0, 1)
	}
}

// Normalize converts raw observations into a Series covering every period
// from `from` to `to` inclusive. Observations outside the range are ignored.
// Returns ErrInsufficientData when no observation falls inside the range.
// Deterministic and side-effect free. A carry-forward series starts at the
// first observed period, since earlier periods have no level to carry, so
// it may cover fewer periods than the range requests.
func Normalize(obs []Observation, period Period, from, to time.Time, mode FillMode) (Series, error) {
	start := PeriodStart(from, period)
	end := PeriodStart(to, period)
	if end.Before(start) {
		return Series{}, NewError(ErrInsufficientData, "empty period range %s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	sums := make(map[time.Time]float64)
	last := make(map[time.Time]Observation)
	observed := 0
	for _, o := range obs {
		bucket := PeriodStart(o.Time, period)
		if bucket.Before(start) || bucket.After(end) {
			continue
		}
		observed++
		switch mode {
		case FillCarryForward:
			// Levels: keep the latest observation within the period.
			if prev, ok := last[bucket]; !ok || o.Time.After(prev.Time) {
				last[bucket] = o
			}
		default:
			// Flows: sum within the period.
			sums[bucket] += o.Value
		}
	}
	if observed == 0 {
		return Series{}, NewError(ErrInsufficientData, "no records in range %s..%s", from.Format("2006-01-02"), to.Format("2006-01-02"))
	}

	var points []Point
	carry := 0.0
	haveCarry := false
	firstKnown := -1
	for cur := start; !cur.After(end); cur = nextPeriod(cur, period) {
		var v float64
		switch mode {
		case FillCarryForward:
			if o, ok := last[cur]; ok {
				carry = o.Value
				haveCarry = true
			}
			if haveCarry {
				v = carry
				if firstKnown < 0 {
					firstKnown = len(points)
				}
			}
		default:
			v = sums[cur]
		}
		points = append(points, Point{Start: cur, Value: v})
	}

	observedPeriods := len(sums)
	if mode == FillCarryForward {
		observedPeriods = len(last)
		// Periods before the first quote carry nothing; drop them rather
		// than fit a trend to synthetic zeros. A genuine zero level after
		// the first observation is kept.
		if firstKnown > 0 {
			points = points[firstKnown:]
		}
	}

	return Series{Period: period, Points: points, Observed: observed, ObservedPeriods: observedPeriods}, nil
}

// SortObservations orders observations by time ascending. The store contract
// already promises sorted results; this is for callers assembling their own.
func SortObservations(obs []Observation) {
	sort.Slice(obs, func(i, j int) bool { return obs[i].Time.Before(obs[j].Time) })
}
