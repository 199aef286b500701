package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/expensetrade/backend/internal/model"
)

func TestMemoryStoreExpenseCRUD(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	expense := &model.Expense{
		Owner:    "alice",
		Amount:   42.50,
		Date:     time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		Category: model.CategoryFood,
	}
	if err := s.CreateExpense(ctx, expense); err != nil {
		t.Fatalf("CreateExpense: %v", err)
	}
	if expense.ID == "" {
		t.Fatal("expected generated expense ID")
	}

	got, err := s.GetExpense(ctx, expense.ID)
	if err != nil {
		t.Fatalf("GetExpense: %v", err)
	}
	if got.Amount != 42.50 || got.Category != model.CategoryFood {
		t.Errorf("unexpected expense: %+v", got)
	}

	expense.Amount = 50
	if err := s.UpdateExpense(ctx, expense); err != nil {
		t.Fatalf("UpdateExpense: %v", err)
	}
	got, _ = s.GetExpense(ctx, expense.ID)
	if got.Amount != 50 {
		t.Errorf("expected updated amount 50, got %v", got.Amount)
	}

	if err := s.DeleteExpense(ctx, expense.ID); err != nil {
		t.Fatalf("DeleteExpense: %v", err)
	}
	if _, err := s.GetExpense(ctx, expense.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestMemoryStoreUpdateMissingExpense(t *testing.T) {
	s := NewMemoryStore()
	err := s.UpdateExpense(context.Background(), &model.Expense{ID: "nope"})
	if err == nil {
		t.Fatal("expected error updating missing expense")
	}
}

func TestMemoryStoreListExpensesFilters(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	mk := func(owner string, day int) {
		err := s.CreateExpense(ctx, &model.Expense{
			Owner:  owner,
			Amount: 10,
			Date:   time.Date(2025, 6, day, 10, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}
	mk("alice", 1)
	mk("alice", 5)
	mk("alice", 9)
	mk("bob", 5)

	t.Run("by owner", func(t *testing.T) {
		got, _, err := s.ListExpenses(ctx, "alice", nil, nil, 0, "")
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("expected 3 expenses for alice, got %d", len(got))
		}
	})

	t.Run("by date range", func(t *testing.T) {
		from := time.Date(2025, 6, 4, 0, 0, 0, 0, time.UTC)
		to := time.Date(2025, 6, 6, 0, 0, 0, 0, time.UTC)
		got, _, err := s.ListExpenses(ctx, "alice", &from, &to, 0, "")
		if err != nil {
			t.Fatalf("ListExpenses: %v", err)
		}
		if len(got) != 1 {
			t.Errorf("expected 1 expense in range, got %d", len(got))
		}
	})
}

func TestMemoryStorePagination(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	for i := 0; i < 5; i++ {
		err := s.CreateExpense(ctx, &model.Expense{
			ID:    fmt.Sprintf("expense-%02d", i),
			Owner: "alice",
			Date:  time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		})
		if err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}

	page1, token, err := s.ListExpenses(ctx, "alice", nil, nil, 2, "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(page1) != 2 || token == "" {
		t.Fatalf("expected full first page with token, got %d items token %q", len(page1), token)
	}

	page2, token, err := s.ListExpenses(ctx, "alice", nil, nil, 2, token)
	if err != nil {
		t.Fatalf("ListExpenses page 2: %v", err)
	}
	if len(page2) != 2 || token == "" {
		t.Fatalf("expected full second page with token, got %d items token %q", len(page2), token)
	}

	page3, token, err := s.ListExpenses(ctx, "alice", nil, nil, 2, token)
	if err != nil {
		t.Fatalf("ListExpenses page 3: %v", err)
	}
	if len(page3) != 1 || token != "" {
		t.Fatalf("expected final page of 1 with no token, got %d items token %q", len(page3), token)
	}

	seen := make(map[string]bool)
	for _, e := range append(append(page1, page2...), page3...) {
		if seen[e.ID] {
			t.Errorf("duplicate expense %s across pages", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestMemoryStoreGoalsAndHoldings(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	goal := &model.Goal{Owner: "alice", TargetAmount: 500, SavedAmount: 100}
	if err := s.CreateGoal(ctx, goal); err != nil {
		t.Fatalf("CreateGoal: %v", err)
	}
	goals, _, err := s.ListGoals(ctx, "alice", 0, "")
	if err != nil || len(goals) != 1 {
		t.Fatalf("expected 1 goal, got %d (err %v)", len(goals), err)
	}

	sold := &model.StockHolding{Owner: "alice", Ticker: "AAPL", Sold: true}
	open := &model.StockHolding{Owner: "alice", Ticker: "MSFT"}
	if err := s.CreateHolding(ctx, sold); err != nil {
		t.Fatalf("CreateHolding: %v", err)
	}
	if err := s.CreateHolding(ctx, open); err != nil {
		t.Fatalf("CreateHolding: %v", err)
	}

	active, _, err := s.ListHoldings(ctx, "alice", false, 0, "")
	if err != nil {
		t.Fatalf("ListHoldings: %v", err)
	}
	if len(active) != 1 || active[0].Ticker != "MSFT" {
		t.Errorf("expected only the open MSFT holding, got %+v", active)
	}

	all, _, err := s.ListHoldings(ctx, "alice", true, 0, "")
	if err != nil {
		t.Fatalf("ListHoldings: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("expected 2 holdings including sold, got %d", len(all))
	}
}

func TestMemoryStoreCreateAlertIdempotent(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	alert := &model.Alert{Owner: "alice", Date: "2025-06-10", Cap: 50, RunningTotal: 60, Overage: 10}
	created, err := s.CreateAlert(ctx, alert)
	if err != nil {
		t.Fatalf("CreateAlert: %v", err)
	}
	if !created {
		t.Fatal("expected first alert to be created")
	}

	dup := &model.Alert{Owner: "alice", Date: "2025-06-10", Cap: 50, RunningTotal: 80, Overage: 30}
	created, err = s.CreateAlert(ctx, dup)
	if err != nil {
		t.Fatalf("CreateAlert duplicate: %v", err)
	}
	if created {
		t.Fatal("expected duplicate alert to be a no-op")
	}

	alerts, _, err := s.ListAlerts(ctx, "alice", 0, "")
	if err != nil {
		t.Fatalf("ListAlerts: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("expected exactly one alert, got %d", len(alerts))
	}
	if alerts[0].Overage != 10 {
		t.Errorf("expected the original alert to win, got overage %v", alerts[0].Overage)
	}

	// A different day is a different key.
	next := &model.Alert{Owner: "alice", Date: "2025-06-11", Cap: 50, RunningTotal: 55, Overage: 5}
	created, err = s.CreateAlert(ctx, next)
	if err != nil || !created {
		t.Fatalf("expected alert for a new day to be created, got %v %v", created, err)
	}
}

func TestMemoryStoreDailyTotal(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	amounts := []float64{20, 20, 20}
	for _, a := range amounts {
		err := s.CreateExpense(ctx, &model.Expense{
			Owner:  "alice",
			Amount: a,
			Date:   day.Add(9 * time.Hour),
		})
		if err != nil {
			t.Fatalf("CreateExpense: %v", err)
		}
	}
	// Different owner and different day must not count.
	_ = s.CreateExpense(ctx, &model.Expense{Owner: "bob", Amount: 100, Date: day.Add(time.Hour)})
	_ = s.CreateExpense(ctx, &model.Expense{Owner: "alice", Amount: 100, Date: day.AddDate(0, 0, 1)})

	total, count, err := s.GetDailyTotal(ctx, "alice", day)
	if err != nil {
		t.Fatalf("GetDailyTotal: %v", err)
	}
	if total != 60 || count != 3 {
		t.Errorf("expected total 60 over 3 records, got %v over %d", total, count)
	}
}

func TestMemoryStoreListActiveOwners(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	_ = s.CreateExpense(ctx, &model.Expense{Owner: "bob", Amount: 5, Date: day.Add(8 * time.Hour)})
	_ = s.CreateExpense(ctx, &model.Expense{Owner: "alice", Amount: 5, Date: day.Add(10 * time.Hour)})
	_ = s.CreateExpense(ctx, &model.Expense{Owner: "carol", Amount: 5, Date: day.AddDate(0, 0, -1)})

	owners, err := s.ListActiveOwners(ctx, day)
	if err != nil {
		t.Fatalf("ListActiveOwners: %v", err)
	}
	if len(owners) != 2 || owners[0] != "alice" || owners[1] != "bob" {
		t.Errorf("expected [alice bob], got %v", owners)
	}
}
