package forecast

import (
	"testing"

	"github.com/expensetrade/backend/internal/model"
)

func candidate(ticker string, expectedReturn, volatility, lastClose float64) *StockForecast {
	return &StockForecast{
		Forecast:       Forecast{Horizon: 5, Confidence: 0.8},
		Ticker:         ticker,
		ExpectedReturn: expectedReturn,
		Volatility:     volatility,
		LastClose:      lastClose,
	}
}

func TestScoreEmptyCandidates(t *testing.T) {
	_, err := Score(ScoreInput{Profile: model.RiskNeutral}, nil)
	if !IsCode(err, ErrNoCandidates) {
		t.Fatalf("expected NO_CANDIDATES, got %v", err)
	}
}

func TestScoreRanksHigherReturnFirst(t *testing.T) {
	in := ScoreInput{
		Savings: 500,
		Profile: model.RiskAggressive,
		Now:     day(2025, 6, 1),
	}
	cands := []*StockForecast{
		candidate("SLOW", 0.01, 0.10, 100),
		candidate("FAST", 0.08, 0.10, 100),
	}

	got, err := Score(in, cands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Ticker != "FAST" {
		t.Errorf("expected FAST ranked first under an aggressive profile, got %q", got[0].Ticker)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("ranking order does not match scores: %v then %v", got[0].Score, got[1].Score)
	}
}

func TestScoreConservativePrefersStability(t *testing.T) {
	in := ScoreInput{
		Savings: 500,
		Profile: model.RiskConservative,
		Now:     day(2025, 6, 1),
	}
	cands := []*StockForecast{
		candidate("WILD", 0.08, 0.40, 100),
		candidate("CALM", 0.02, 0.02, 100),
	}

	got, err := Score(in, cands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Ticker != "CALM" {
		t.Errorf("expected CALM ranked first under a conservative profile, got %q", got[0].Ticker)
	}
}

func TestScoreTieBreaksAlphabetically(t *testing.T) {
	in := ScoreInput{
		Savings: 500,
		Profile: model.RiskNeutral,
		Now:     day(2025, 6, 1),
	}
	cands := []*StockForecast{
		candidate("BBB", 0.05, 0.10, 100),
		candidate("AAA", 0.05, 0.10, 100),
	}

	got, err := Score(in, cands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got[0].Ticker != "AAA" || got[1].Ticker != "BBB" {
		t.Errorf("expected alphabetical tie-break AAA, BBB; got %q, %q", got[0].Ticker, got[1].Ticker)
	}
}

func TestScoreRationaleTags(t *testing.T) {
	in := ScoreInput{
		Savings: 200,
		Profile: model.RiskNeutral,
		Now:     day(2025, 6, 1),
	}
	cands := []*StockForecast{
		candidate("GOOD", 0.05, 0.05, 150),
		candidate("DEAR", 0.05, 0.05, 900),
	}

	got, err := Score(in, cands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	byTicker := map[string]Suggestion{}
	for _, s := range got {
		byTicker[s.Ticker] = s
	}

	good := byTicker["GOOD"]
	if !hasTag(good, TagUptrend) || !hasTag(good, TagAffordable) || !hasTag(good, TagWithinRisk) {
		t.Errorf("expected uptrend, affordable and within-risk tags, got %v", good.Rationale)
	}
	if want := 150.0 / 200 * 100; good.SavingsUsage != want {
		t.Errorf("expected savings usage %v%%, got %v", want, good.SavingsUsage)
	}

	dear := byTicker["DEAR"]
	if hasTag(dear, TagAffordable) {
		t.Errorf("did not expect affordable tag on a share above savings, got %v", dear.Rationale)
	}
	if dear.SavingsUsage != 0 {
		t.Errorf("expected zero savings usage when unaffordable, got %v", dear.SavingsUsage)
	}
}

func TestScoreGoalAlignment(t *testing.T) {
	now := day(2025, 6, 1)
	in := ScoreInput{
		Savings: 1000,
		Profile: model.RiskNeutral,
		Now:     now,
		Goals: []model.Goal{
			{TargetAmount: 500, SavedAmount: 450, TargetDate: now.AddDate(0, 3, 0)},
			{TargetAmount: 9000, SavedAmount: 0, TargetDate: now.AddDate(2, 0, 0)},
		},
	}

	// 1000 savings at 6% expected return covers the 50 gap of the nearest
	// goal outright.
	got, err := Score(in, []*StockForecast{candidate("FIT", 0.06, 0.05, 100)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !hasTag(got[0], TagGoalAligned) {
		t.Errorf("expected goal-aligned tag, got %v", got[0].Rationale)
	}

	// A declining candidate contributes nothing toward the goal.
	got, err = Score(in, []*StockForecast{candidate("DOWN", -0.02, 0.05, 100)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if hasTag(got[0], TagGoalAligned) {
		t.Errorf("did not expect goal-aligned tag on a declining candidate, got %v", got[0].Rationale)
	}
}

func TestScoreExpiredGoalsIgnored(t *testing.T) {
	now := day(2025, 6, 1)
	in := ScoreInput{
		Savings: 1000,
		Profile: model.RiskNeutral,
		Now:     now,
		Goals: []model.Goal{
			{TargetAmount: 500, SavedAmount: 0, TargetDate: now.AddDate(0, -1, 0)},
		},
	}
	if _, ok := nearestGoal(in.Goals, now); ok {
		t.Fatal("expected past-deadline goals to be skipped")
	}
	// With no active goal the component is neutral so a declining candidate
	// is not zeroed out on the goal axis.
	if got := goalAlignment(in, candidate("ANY", -0.05, 0.05, 100), 0.15); got != 0.5 {
		t.Errorf("expected neutral alignment 0.5, got %v", got)
	}
}

func TestWeightsForInvalidProfileFallsBackToNeutral(t *testing.T) {
	if got := WeightsFor(model.RiskProfile("gambler")); got != weightsByProfile[model.RiskNeutral] {
		t.Errorf("expected neutral weights for unknown profile, got %+v", got)
	}
}

func TestScoreDeterministic(t *testing.T) {
	in := ScoreInput{Savings: 300, Profile: model.RiskNeutral, Now: day(2025, 6, 1)}
	cands := []*StockForecast{
		candidate("AAA", 0.03, 0.08, 120),
		candidate("BBB", 0.05, 0.20, 80),
		candidate("CCC", -0.01, 0.02, 40),
	}

	first, err := Score(in, cands)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for run := 0; run < 5; run++ {
		again, err := Score(in, cands)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for i := range first {
			if first[i].Ticker != again[i].Ticker || first[i].Score != again[i].Score {
				t.Fatalf("ranking differs across runs at position %d", i)
			}
		}
	}
}

func hasTag(s Suggestion, tag string) bool {
	for _, t := range s.Rationale {
		if t == tag {
			return true
		}
	}
	return false
}
