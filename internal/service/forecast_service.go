// Package service wires the store, the market data provider and the
// forecasting engine into the operations the HTTP surface exposes.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/expensetrade/backend/internal/config"
	"github.com/expensetrade/backend/internal/forecast"
	"github.com/expensetrade/backend/internal/model"
	"github.com/expensetrade/backend/internal/quotes"
	"github.com/expensetrade/backend/internal/store"
)

// listPageSize is the page size used when draining store listings.
const listPageSize = 500

// ErrInvalidProfile rejects suggestion requests naming an unknown risk
// profile.
var ErrInvalidProfile = errors.New("invalid risk profile")

// ForecastService implements expense forecasting, stock forecasting, stock
// suggestions and daily-limit evaluation.
type ForecastService struct {
	store  store.Store
	quotes quotes.Provider
	alerts *AlertNotifier
	cfg    config.Config
	logger *zap.Logger

	expense forecast.ExpenseForecaster
	stock   forecast.StockForecaster

	// now is injected for deterministic tests.
	now func() time.Time
}

// NewForecastService creates a forecasting service with default engine
// settings.
func NewForecastService(st store.Store, provider quotes.Provider, alerts *AlertNotifier, cfg config.Config, logger *zap.Logger) *ForecastService {
	return &ForecastService{
		store:   st,
		quotes:  provider,
		alerts:  alerts,
		cfg:     cfg,
		logger:  logger,
		expense: forecast.NewExpenseForecaster(forecast.DefaultEstimator),
		stock:   forecast.NewStockForecaster(forecast.DefaultEstimator),
		now:     time.Now,
	}
}

// NewForecastServiceAt is NewForecastService with an injected clock, for
// tests and replaying historical evaluations.
func NewForecastServiceAt(st store.Store, provider quotes.Provider, alerts *AlertNotifier, cfg config.Config, logger *zap.Logger, now func() time.Time) *ForecastService {
	svc := NewForecastService(st, provider, alerts, cfg, logger)
	if now != nil {
		svc.now = now
	}
	return svc
}

// resolveHorizon applies the configured default and ceiling.
func (s *ForecastService) resolveHorizon(horizon int) (int, error) {
	if horizon == 0 {
		horizon = s.cfg.Forecast.DefaultHorizon
	}
	if horizon < 1 {
		return 0, forecast.NewError(forecast.ErrInsufficientData, "horizon must be at least 1, got %d", horizon)
	}
	if max := s.cfg.Forecast.MaxHorizon; max > 0 && horizon > max {
		horizon = max
	}
	return horizon, nil
}

// listAllExpenses drains paginated expense listings for owner in range.
func (s *ForecastService) listAllExpenses(ctx context.Context, owner string, from, to time.Time) ([]*model.Expense, error) {
	var all []*model.Expense
	token := ""
	for {
		page, next, err := s.store.ListExpenses(ctx, owner, &from, &to, listPageSize, token)
		if err != nil {
			return nil, fmt.Errorf("list expenses: %w", err)
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

func (s *ForecastService) listAllIncomes(ctx context.Context, owner string, from, to time.Time) ([]*model.Income, error) {
	var all []*model.Income
	token := ""
	for {
		page, next, err := s.store.ListIncomes(ctx, owner, &from, &to, listPageSize, token)
		if err != nil {
			return nil, fmt.Errorf("list incomes: %w", err)
		}
		all = append(all, page...)
		if next == "" {
			return all, nil
		}
		token = next
	}
}

// ForecastExpenses projects an owner's spending per category and in
// aggregate over the horizon.
func (s *ForecastService) ForecastExpenses(ctx context.Context, owner string, period forecast.Period, horizon int) (*forecast.ExpenseForecast, error) {
	horizon, err := s.resolveHorizon(horizon)
	if err != nil {
		return nil, err
	}
	if period == "" {
		period = forecast.PeriodMonth
	}

	now := s.now()
	from := now.AddDate(0, -s.cfg.Forecast.LookbackMonths, 0)

	expenses, err := s.listAllExpenses(ctx, owner, from, now)
	if err != nil {
		return nil, err
	}
	if len(expenses) == 0 {
		return nil, forecast.NewError(forecast.ErrInsufficientData, "no expenses recorded for %s", owner)
	}

	byCategory := make(map[string][]forecast.Observation)
	for _, e := range expenses {
		cat := e.Category
		if cat == "" {
			cat = model.CategoryOther
		}
		byCategory[cat] = append(byCategory[cat], forecast.Observation{Time: e.Date, Value: e.Amount})
	}

	series := make(map[string]forecast.Series, len(byCategory))
	for cat, obs := range byCategory {
		ser, err := forecast.Normalize(obs, period, from, now, forecast.FillZero)
		if err != nil {
			return nil, err
		}
		series[cat] = ser
	}

	out, err := s.expense.Forecast(ctx, series, horizon)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("expense forecast computed",
		zap.String("owner", owner),
		zap.String("period", string(period)),
		zap.Int("horizon", horizon),
		zap.Int("categories", len(series)))
	return out, nil
}

// ForecastStock projects a ticker's closing price over the horizon.
func (s *ForecastService) ForecastStock(ctx context.Context, ticker string, horizon int) (*forecast.StockForecast, error) {
	horizon, err := s.resolveHorizon(horizon)
	if err != nil {
		return nil, err
	}
	if ticker == "" {
		return nil, forecast.NewError(forecast.ErrInsufficientData, "ticker is required")
	}

	now := s.now()
	from := now.AddDate(0, 0, -s.cfg.Forecast.QuoteLookbackDays)

	history, err := s.quotes.History(ctx, ticker, from, now)
	if err != nil {
		return nil, forecast.WrapError(forecast.ErrUpstreamUnavailable, err, "fetch quote history for %s", ticker)
	}

	obs := make([]forecast.Observation, 0, len(history))
	for _, q := range history {
		obs = append(obs, forecast.Observation{Time: q.Date, Value: q.Close})
	}
	ser, err := forecast.Normalize(obs, forecast.PeriodDay, from, now, forecast.FillCarryForward)
	if err != nil {
		return nil, err
	}

	return s.stock.Forecast(ticker, ser, horizon)
}

// SuggestInput carries the parameters for a stock suggestion request.
type SuggestInput struct {
	Owner   string
	Tickers []string
	Profile model.RiskProfile
	Horizon int
}

// SuggestStocks ranks candidate tickers against the owner's savings
// capacity, goals and risk profile. Tickers with failing or insufficient
// market data are dropped, not fatal; only an empty surviving set is an
// error.
func (s *ForecastService) SuggestStocks(ctx context.Context, in SuggestInput) ([]forecast.Suggestion, error) {
	horizon, err := s.resolveHorizon(in.Horizon)
	if err != nil {
		return nil, err
	}

	now := s.now()
	from := now.AddDate(0, -s.cfg.Forecast.LookbackMonths, 0)

	savings, income, err := s.savingsCapacity(ctx, in.Owner, from, now)
	if err != nil {
		return nil, err
	}

	goals, _, err := s.store.ListGoals(ctx, in.Owner, listPageSize, "")
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	goalVals := make([]model.Goal, 0, len(goals))
	for _, g := range goals {
		goalVals = append(goalVals, *g)
	}

	profile := in.Profile
	if profile == "" {
		profile = inferProfile(savings, income)
	}
	if !profile.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidProfile, profile)
	}

	tickers, err := s.candidateTickers(ctx, in.Owner, in.Tickers)
	if err != nil {
		return nil, err
	}

	var candidates []*forecast.StockForecast
	for _, ticker := range tickers {
		fc, err := s.ForecastStock(ctx, ticker, horizon)
		if err != nil {
			s.logger.Warn("dropping suggestion candidate",
				zap.String("ticker", ticker),
				zap.Error(err))
			continue
		}
		candidates = append(candidates, fc)
	}

	suggestions, err := forecast.Score(forecast.ScoreInput{
		Savings: savings,
		Goals:   goalVals,
		Profile: profile,
		Now:     now,
	}, candidates)
	if err != nil {
		return nil, err
	}

	if max := s.cfg.Suggest.MaxSuggestions; max > 0 && len(suggestions) > max {
		suggestions = suggestions[:max]
	}
	return suggestions, nil
}

// candidateTickers resolves the suggestion universe: explicit request
// tickers, else the owner's open holdings, else the built-in universe.
func (s *ForecastService) candidateTickers(ctx context.Context, owner string, requested []string) ([]string, error) {
	if len(requested) > 0 {
		return requested, nil
	}

	holdings, _, err := s.store.ListHoldings(ctx, owner, false, listPageSize, "")
	if err != nil {
		return nil, fmt.Errorf("list holdings: %w", err)
	}
	if len(holdings) > 0 {
		seen := make(map[string]bool)
		var tickers []string
		for _, h := range holdings {
			if !seen[h.Ticker] {
				seen[h.Ticker] = true
				tickers = append(tickers, h.Ticker)
			}
		}
		return tickers, nil
	}

	return quotes.DefaultUniverse(), nil
}

// savingsCapacity computes income minus expenses over the window, returning
// both the capacity and the gross income.
func (s *ForecastService) savingsCapacity(ctx context.Context, owner string, from, to time.Time) (savings, income float64, err error) {
	expenses, err := s.listAllExpenses(ctx, owner, from, to)
	if err != nil {
		return 0, 0, err
	}
	incomes, err := s.listAllIncomes(ctx, owner, from, to)
	if err != nil {
		return 0, 0, err
	}

	var spent float64
	for _, e := range expenses {
		spent += e.Amount
	}
	for _, i := range incomes {
		income += i.Amount
	}
	return income - spent, income, nil
}

// inferProfile derives a default risk profile from the savings rate when
// the request carries none. Thin margins get conservative weighting.
func inferProfile(savings, income float64) model.RiskProfile {
	if income <= 0 || savings <= 0 {
		return model.RiskConservative
	}
	rate := savings / income
	switch {
	case rate < 0.1:
		return model.RiskConservative
	case rate < 0.3:
		return model.RiskNeutral
	default:
		return model.RiskAggressive
	}
}

// EvaluateDailyLimit derives the daily-limit state for owner on date and,
// on a breach, records and notifies at most one alert for the day.
func (s *ForecastService) EvaluateDailyLimit(ctx context.Context, owner string, date time.Time, cap float64) (forecast.DayStatus, *model.Alert, error) {
	if cap <= 0 {
		cap = s.cfg.Limit.DailyCap
	}
	if cap <= 0 {
		cap = forecast.DefaultDailyCap
	}

	total, count, err := s.store.GetDailyTotal(ctx, owner, date)
	if err != nil {
		return forecast.DayStatus{}, nil, fmt.Errorf("daily total: %w", err)
	}

	status := forecast.EvaluateDay(owner, date, total, cap, s.now())
	s.logger.Debug("daily limit evaluated",
		zap.String("owner", owner),
		zap.String("date", status.Date),
		zap.Float64("total", total),
		zap.Int("records", count),
		zap.String("state", string(status.State)))

	alert, err := s.alerts.Notify(ctx, status)
	if err != nil {
		return status, nil, err
	}
	return status, alert, nil
}

// SweepDailyLimits evaluates today's spend for every owner with activity,
// for the cron schedule. Per-owner failures are logged and skipped.
func (s *ForecastService) SweepDailyLimits(ctx context.Context) {
	today := s.now()
	owners, err := s.store.ListActiveOwners(ctx, today)
	if err != nil {
		s.logger.Error("daily limit sweep failed", zap.Error(err))
		return
	}

	for _, owner := range owners {
		if _, _, err := s.EvaluateDailyLimit(ctx, owner, today, 0); err != nil {
			s.logger.Warn("daily limit evaluation failed",
				zap.String("owner", owner),
				zap.Error(err))
		}
	}
	s.logger.Info("daily limit sweep complete", zap.Int("owners", len(owners)))
}

// SendDailyDigests summarizes the prior day for every owner with activity
// and hands each summary to the notifier. Runs on the cron schedule.
func (s *ForecastService) SendDailyDigests(ctx context.Context) {
	yesterday := s.now().AddDate(0, 0, -1)
	owners, err := s.store.ListActiveOwners(ctx, yesterday)
	if err != nil {
		s.logger.Error("daily digest sweep failed", zap.Error(err))
		return
	}

	cap := s.cfg.Limit.DailyCap
	if cap <= 0 {
		cap = forecast.DefaultDailyCap
	}
	for _, owner := range owners {
		total, count, err := s.store.GetDailyTotal(ctx, owner, yesterday)
		if err != nil {
			s.logger.Warn("daily digest failed",
				zap.String("owner", owner),
				zap.Error(err))
			continue
		}
		status := forecast.EvaluateDay(owner, yesterday, total, cap, s.now())
		s.logger.Info("daily digest",
			zap.String("owner", owner),
			zap.String("date", status.Date),
			zap.Float64("total", total),
			zap.Int("records", count),
			zap.String("state", string(status.State)))
		s.alerts.SendDigest(ctx, status, count)
	}
}
