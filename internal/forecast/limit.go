package forecast

import (
	"time"

	"github.com/google/uuid"

	"github.com/expensetrade/backend/internal/model"
)

// LimitState is the daily-limit state for one (owner, date).
type LimitState string

const (
	// LimitOpen: the day has spend but the cap is not exceeded.
	LimitOpen LimitState = "open"
	// LimitBreached: the running total exceeds the cap.
	LimitBreached LimitState = "breached"
	// LimitClosed: the day has rolled over; no further alerts for it.
	LimitClosed LimitState = "closed"
)

// DefaultDailyCap matches the app's historical default expense limit.
const DefaultDailyCap = 1000

// DayStatus is the derived daily-limit state. It is a pure function of
// (date, running total, cap), never of prior transition history, so
// re-processing a day after late-arriving edits always converges on the
// correct answer.
type DayStatus struct {
	Owner        string     `json:"owner"`
	Date         string     `json:"date"`
	Cap          float64    `json:"cap"`
	RunningTotal float64    `json:"runningTotal"`
	Overage      float64    `json:"overage"`
	State        LimitState `json:"state"`
}

// Breached reports whether the cap was exceeded, regardless of whether the
// day is still open.
func (s DayStatus) Breached() bool { return s.Overage > 0 }

// EvaluateDay derives the daily-limit state for owner on date given the
// day's running expense total. now decides whether the day has rolled over.
func EvaluateDay(owner string, date time.Time, runningTotal, cap float64, now time.Time) DayStatus {
	day := PeriodStart(date, PeriodDay)
	status := DayStatus{
		Owner:        owner,
		Date:         day.Format("2006-01-02"),
		Cap:          cap,
		RunningTotal: runningTotal,
	}
	if runningTotal > cap {
		status.Overage = runningTotal - cap
	}

	rolled := PeriodStart(now, PeriodDay).After(day)
	switch {
	case runningTotal > cap && !rolled:
		status.State = LimitBreached
	case rolled:
		status.State = LimitClosed
	default:
		status.State = LimitOpen
	}
	return status
}

// NewAlert materializes an Alert for a breached status. The caller is
// responsible for idempotent delivery: the store keys alerts by
// (owner, date) so re-evaluating an unchanged day never emits twice.
func NewAlert(status DayStatus, now time.Time) *model.Alert {
	return &model.Alert{
		ID:           uuid.New().String(),
		Owner:        status.Owner,
		Date:         status.Date,
		Cap:          status.Cap,
		RunningTotal: status.RunningTotal,
		Overage:      status.Overage,
		CreatedAt:    now,
	}
}
