package forecast

import (
	"sort"
	"time"

	"github.com/expensetrade/backend/internal/model"
)

// Weights are the scoring coefficients for one risk profile. They sum to 1
// so scores stay in [0,1].
type Weights struct {
	Return    float64 `json:"return"`
	Stability float64 `json:"stability"`
	Goal      float64 `json:"goal"`
}

// weightsByProfile replaces ad hoc savings-threshold branching with explicit
// per-profile tables. Conservative favors stability, aggressive favors
// expected return; the goal component is constant across profiles.
var weightsByProfile = map[model.RiskProfile]Weights{
	model.RiskConservative: {Return: 0.3, Stability: 0.5, Goal: 0.2},
	model.RiskNeutral:      {Return: 0.5, Stability: 0.3, Goal: 0.2},
	model.RiskAggressive:   {Return: 0.7, Stability: 0.1, Goal: 0.2},
}

// volatilityTolerance is the per-profile coefficient-of-variation ceiling
// used when judging whether a candidate fits the user's risk appetite.
var volatilityTolerance = map[model.RiskProfile]float64{
	model.RiskConservative: 0.05,
	model.RiskNeutral:      0.15,
	model.RiskAggressive:   0.50,
}

// WeightsFor returns the weight table for a profile, defaulting to neutral.
func WeightsFor(p model.RiskProfile) Weights {
	if w, ok := weightsByProfile[p]; ok {
		return w
	}
	return weightsByProfile[model.RiskNeutral]
}

// Suggestion is one ranked stock recommendation.
type Suggestion struct {
	Ticker   string         `json:"ticker"`
	Score    float64        `json:"score"`
	Forecast *StockForecast `json:"forecast"`
	// Rationale tags explain why the candidate ranked where it did.
	Rationale []string `json:"rationale"`
	// SavingsUsage is the share of current savings one share would consume,
	// in percent. Zero when savings capacity is not positive.
	SavingsUsage float64 `json:"savingsUsage"`
}

// Rationale tags.
const (
	TagUptrend     = "uptrend"
	TagAffordable  = "affordable"
	TagWithinRisk  = "within-risk"
	TagGoalAligned = "goal-aligned"
)

// ScoreInput carries the per-user context the scorer combines with the
// candidate forecasts.
type ScoreInput struct {
	// Savings is the user's current savings capacity (income minus expenses).
	Savings float64
	// Goals are the user's active savings goals; only future deadlines count.
	Goals []model.Goal
	// Profile selects the weight table. Invalid profiles fall back to neutral.
	Profile model.RiskProfile
	// Now anchors deadline math; injected for determinism.
	Now time.Time
}

// Score ranks candidates by weighted expected return, stability and goal
// alignment. Ordering is deterministic: score descending, then lower
// volatility, then ticker. Returns ErrNoCandidates for an empty set rather
// than a silent empty list.
func Score(in ScoreInput, candidates []*StockForecast) ([]Suggestion, error) {
	if len(candidates) == 0 {
		return nil, NewError(ErrNoCandidates, "no stock candidates to score")
	}

	w := WeightsFor(in.Profile)
	tolerance := volatilityTolerance[in.Profile]
	if tolerance == 0 {
		tolerance = volatilityTolerance[model.RiskNeutral]
	}

	returns := make([]float64, len(candidates))
	vols := make([]float64, len(candidates))
	for i, c := range candidates {
		returns[i] = c.ExpectedReturn
		vols[i] = c.Volatility
	}
	normReturn := minMaxNormalize(returns)
	normVol := minMaxNormalize(vols)

	out := make([]Suggestion, 0, len(candidates))
	for i, c := range candidates {
		alignment := goalAlignment(in, c, tolerance)
		score := w.Return*normReturn[i] + w.Stability*(1-normVol[i]) + w.Goal*alignment

		s := Suggestion{
			Ticker:   c.Ticker,
			Score:    clamp01(score),
			Forecast: c,
		}
		if c.ExpectedReturn > 0 {
			s.Rationale = append(s.Rationale, TagUptrend)
		}
		if c.Volatility <= tolerance {
			s.Rationale = append(s.Rationale, TagWithinRisk)
		}
		if in.Savings > 0 && c.LastClose > 0 && c.LastClose <= in.Savings {
			s.Rationale = append(s.Rationale, TagAffordable)
			s.SavingsUsage = c.LastClose / in.Savings * 100
		}
		if alignment >= 0.5 {
			s.Rationale = append(s.Rationale, TagGoalAligned)
		}
		out = append(out, s)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		if out[i].Forecast.Volatility != out[j].Forecast.Volatility {
			return out[i].Forecast.Volatility < out[j].Forecast.Volatility
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out, nil
}

// goalAlignment scores how plausibly investing the user's savings in the
// candidate closes the gap to the nearest goal deadline, damped when the
// candidate's volatility exceeds the profile's tolerance. With no active
// goal the component is neutral (0.5) so it neither rewards nor punishes.
func goalAlignment(in ScoreInput, c *StockForecast, tolerance float64) float64 {
	goal, ok := nearestGoal(in.Goals, in.Now)
	if !ok {
		return 0.5
	}
	gap := goal.TargetAmount - goal.SavedAmount
	if gap <= 0 {
		return 0.5
	}
	gain := in.Savings * c.ExpectedReturn
	if gain <= 0 {
		return 0
	}
	alignment := clamp01(gain / gap)
	if c.Volatility > tolerance && c.Volatility > 0 {
		alignment *= tolerance / c.Volatility
	}
	return clamp01(alignment)
}

func nearestGoal(goals []model.Goal, now time.Time) (model.Goal, bool) {
	var best model.Goal
	found := false
	for _, g := range goals {
		if g.TargetDate.IsZero() || !g.TargetDate.After(now) {
			continue
		}
		if !found || g.TargetDate.Before(best.TargetDate) {
			best = g
			found = true
		}
	}
	return best, found
}

// minMaxNormalize maps values to [0,1] relative to the candidate set.
// When all candidates are equal every value normalizes to 0.5.
func minMaxNormalize(values []float64) []float64 {
	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	out := make([]float64, len(values))
	if hi == lo {
		for i := range out {
			out[i] = 0.5
		}
		return out
	}
	for i, v := range values {
		out[i] = (v - lo) / (hi - lo)
	}
	return out
}
