package forecast

import (
	"testing"
	"time"
)

func TestEvaluateDayBreach(t *testing.T) {
	date := day(2025, 6, 10)
	now := date.Add(18 * time.Hour)

	// Three 20s against a cap of 50.
	status := EvaluateDay("alice", date, 60, 50, now)
	if status.State != LimitBreached {
		t.Fatalf("expected breached, got %q", status.State)
	}
	if status.Overage != 10 {
		t.Errorf("expected overage 10, got %v", status.Overage)
	}
	if !status.Breached() {
		t.Error("expected Breached() to report true")
	}
	if status.Date != "2025-06-10" {
		t.Errorf("expected date 2025-06-10, got %q", status.Date)
	}
}

func TestEvaluateDayUnderCap(t *testing.T) {
	date := day(2025, 6, 10)
	now := date.Add(12 * time.Hour)

	status := EvaluateDay("alice", date, 40, 50, now)
	if status.State != LimitOpen {
		t.Fatalf("expected open, got %q", status.State)
	}
	if status.Overage != 0 {
		t.Errorf("expected zero overage, got %v", status.Overage)
	}
}

func TestEvaluateDayExactlyAtCapIsOpen(t *testing.T) {
	date := day(2025, 6, 10)
	status := EvaluateDay("alice", date, 50, 50, date.Add(time.Hour))
	if status.State != LimitOpen {
		t.Fatalf("spending exactly the cap is not a breach, got %q", status.State)
	}
}

func TestEvaluateDayClosesAfterRollover(t *testing.T) {
	date := day(2025, 6, 10)
	nextDay := day(2025, 6, 11)

	status := EvaluateDay("alice", date, 60, 50, nextDay)
	if status.State != LimitClosed {
		t.Fatalf("expected closed after rollover, got %q", status.State)
	}
	// The overage is still derivable for historical views.
	if status.Overage != 10 {
		t.Errorf("expected overage 10 on the closed day, got %v", status.Overage)
	}
}

func TestEvaluateDayPureFunctionOfInputs(t *testing.T) {
	date := day(2025, 6, 10)
	now := date.Add(20 * time.Hour)

	first := EvaluateDay("alice", date, 70, 50, now)
	for i := 0; i < 3; i++ {
		if got := EvaluateDay("alice", date, 70, 50, now); got != first {
			t.Fatalf("expected identical status on re-evaluation, got %+v", got)
		}
	}

	// A late edit that drops the total under the cap converges on open.
	if got := EvaluateDay("alice", date, 45, 50, now); got.State != LimitOpen {
		t.Fatalf("expected open after the total dropped below the cap, got %q", got.State)
	}
}

func TestNewAlertCarriesStatus(t *testing.T) {
	date := day(2025, 6, 10)
	now := date.Add(19 * time.Hour)
	status := EvaluateDay("alice", date, 60, 50, now)

	alert := NewAlert(status, now)
	if alert.ID == "" {
		t.Error("expected a generated alert ID")
	}
	if alert.Owner != "alice" || alert.Date != "2025-06-10" {
		t.Errorf("expected owner alice on 2025-06-10, got %q %q", alert.Owner, alert.Date)
	}
	if alert.Cap != 50 || alert.RunningTotal != 60 || alert.Overage != 10 {
		t.Errorf("unexpected alert amounts: %+v", alert)
	}
	if !alert.CreatedAt.Equal(now) {
		t.Errorf("expected createdAt %v, got %v", now, alert.CreatedAt)
	}
}
