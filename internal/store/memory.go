package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/expensetrade/backend/internal/model"
)

// MemoryStore implements Store interface with in-memory storage
type MemoryStore struct {
	mu sync.RWMutex

	// Storage maps
	expenses map[string]*model.Expense
	incomes  map[string]*model.Income
	goals    map[string]*model.Goal
	holdings map[string]*model.StockHolding
	// alerts is keyed by AlertKey(owner, date), not by alert ID, so the
	// one-alert-per-day invariant holds under concurrent evaluation.
	alerts map[string]*model.Alert
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		expenses: make(map[string]*model.Expense),
		incomes:  make(map[string]*model.Income),
		goals:    make(map[string]*model.Goal),
		holdings: make(map[string]*model.StockHolding),
		alerts:   make(map[string]*model.Alert),
	}
}

// paginateIDs applies cursor-based pagination to a sorted slice of IDs.
// Returns the paginated IDs and the next page token (empty if no more pages).
func paginateIDs(ids []string, pageSize int32, pageToken string) ([]string, string) {
	if pageSize <= 0 {
		pageSize = 100
	}

	sort.Strings(ids)

	// Find cursor position
	startIdx := 0
	if pageToken != "" {
		cursorID, err := DecodePageToken(pageToken)
		if err == nil {
			for i, id := range ids {
				if id > cursorID {
					startIdx = i
					break
				}
				// If we've reached the end without finding a greater ID
				if i == len(ids)-1 {
					return nil, ""
				}
			}
		}
	}

	// Slice from startIdx
	ids = ids[startIdx:]

	// Apply page size
	var nextToken string
	if int32(len(ids)) > pageSize {
		nextToken = EncodePageToken(ids[pageSize-1])
		ids = ids[:pageSize]
	}

	return ids, nextToken
}

func inDateRange(t time.Time, startDate, endDate *time.Time) bool {
	if startDate != nil && t.Before(*startDate) {
		return false
	}
	if endDate != nil && t.After(*endDate) {
		return false
	}
	return true
}

// Expense operations

func (m *MemoryStore) CreateExpense(ctx context.Context, expense *model.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}

	m.expenses[expense.ID] = expense
	return nil
}

func (m *MemoryStore) GetExpense(ctx context.Context, expenseID string) (*model.Expense, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	expense, ok := m.expenses[expenseID]
	if !ok {
		return nil, fmt.Errorf("expense not found: %s", expenseID)
	}

	return expense, nil
}

func (m *MemoryStore) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.expenses[expense.ID]; !ok {
		return fmt.Errorf("expense not found: %s", expense.ID)
	}

	m.expenses[expense.ID] = expense
	return nil
}

func (m *MemoryStore) DeleteExpense(ctx context.Context, expenseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.expenses, expenseID)
	return nil
}

func (m *MemoryStore) ListExpenses(ctx context.Context, owner string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Expense, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// First pass: collect matching IDs
	var matchingIDs []string
	for id, expense := range m.expenses {
		if owner != "" && expense.Owner != owner {
			continue
		}
		if !inDateRange(expense.Date, startDate, endDate) {
			continue
		}
		matchingIDs = append(matchingIDs, id)
	}

	paginatedIDs, nextToken := paginateIDs(matchingIDs, pageSize, pageToken)
	result := make([]*model.Expense, 0, len(paginatedIDs))
	for _, id := range paginatedIDs {
		result = append(result, m.expenses[id])
	}
	return result, nextToken, nil
}

// Income operations

func (m *MemoryStore) CreateIncome(ctx context.Context, income *model.Income) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if income.ID == "" {
		income.ID = uuid.New().String()
	}

	m.incomes[income.ID] = income
	return nil
}

func (m *MemoryStore) GetIncome(ctx context.Context, incomeID string) (*model.Income, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	income, ok := m.incomes[incomeID]
	if !ok {
		return nil, fmt.Errorf("income not found: %s", incomeID)
	}

	return income, nil
}

func (m *MemoryStore) UpdateIncome(ctx context.Context, income *model.Income) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.incomes[income.ID]; !ok {
		return fmt.Errorf("income not found: %s", income.ID)
	}

	m.incomes[income.ID] = income
	return nil
}

func (m *MemoryStore) DeleteIncome(ctx context.Context, incomeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.incomes, incomeID)
	return nil
}

func (m *MemoryStore) ListIncomes(ctx context.Context, owner string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Income, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matchingIDs []string
	for id, income := range m.incomes {
		if owner != "" && income.Owner != owner {
			continue
		}
		if !inDateRange(income.Date, startDate, endDate) {
			continue
		}
		matchingIDs = append(matchingIDs, id)
	}

	paginatedIDs, nextToken := paginateIDs(matchingIDs, pageSize, pageToken)
	result := make([]*model.Income, 0, len(paginatedIDs))
	for _, id := range paginatedIDs {
		result = append(result, m.incomes[id])
	}
	return result, nextToken, nil
}

// Goal operations

func (m *MemoryStore) CreateGoal(ctx context.Context, goal *model.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if goal.ID == "" {
		goal.ID = uuid.New().String()
	}

	m.goals[goal.ID] = goal
	return nil
}

func (m *MemoryStore) GetGoal(ctx context.Context, goalID string) (*model.Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	goal, ok := m.goals[goalID]
	if !ok {
		return nil, fmt.Errorf("goal not found: %s", goalID)
	}

	return goal, nil
}

func (m *MemoryStore) UpdateGoal(ctx context.Context, goal *model.Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.goals[goal.ID]; !ok {
		return fmt.Errorf("goal not found: %s", goal.ID)
	}

	m.goals[goal.ID] = goal
	return nil
}

func (m *MemoryStore) DeleteGoal(ctx context.Context, goalID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.goals, goalID)
	return nil
}

func (m *MemoryStore) ListGoals(ctx context.Context, owner string, pageSize int32, pageToken string) ([]*model.Goal, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matchingIDs []string
	for id, goal := range m.goals {
		if owner != "" && goal.Owner != owner {
			continue
		}
		matchingIDs = append(matchingIDs, id)
	}

	paginatedIDs, nextToken := paginateIDs(matchingIDs, pageSize, pageToken)
	result := make([]*model.Goal, 0, len(paginatedIDs))
	for _, id := range paginatedIDs {
		result = append(result, m.goals[id])
	}
	return result, nextToken, nil
}

// Stock holding operations

func (m *MemoryStore) CreateHolding(ctx context.Context, holding *model.StockHolding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if holding.ID == "" {
		holding.ID = uuid.New().String()
	}

	m.holdings[holding.ID] = holding
	return nil
}

func (m *MemoryStore) GetHolding(ctx context.Context, holdingID string) (*model.StockHolding, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	holding, ok := m.holdings[holdingID]
	if !ok {
		return nil, fmt.Errorf("holding not found: %s", holdingID)
	}

	return holding, nil
}

func (m *MemoryStore) UpdateHolding(ctx context.Context, holding *model.StockHolding) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.holdings[holding.ID]; !ok {
		return fmt.Errorf("holding not found: %s", holding.ID)
	}

	m.holdings[holding.ID] = holding
	return nil
}

func (m *MemoryStore) ListHoldings(ctx context.Context, owner string, includeSold bool, pageSize int32, pageToken string) ([]*model.StockHolding, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matchingIDs []string
	for id, holding := range m.holdings {
		if owner != "" && holding.Owner != owner {
			continue
		}
		if !includeSold && holding.Sold {
			continue
		}
		matchingIDs = append(matchingIDs, id)
	}

	paginatedIDs, nextToken := paginateIDs(matchingIDs, pageSize, pageToken)
	result := make([]*model.StockHolding, 0, len(paginatedIDs))
	for _, id := range paginatedIDs {
		result = append(result, m.holdings[id])
	}
	return result, nextToken, nil
}

// Alert operations

func (m *MemoryStore) CreateAlert(ctx context.Context, alert *model.Alert) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := AlertKey(alert.Owner, alert.Date)
	if _, ok := m.alerts[key]; ok {
		return false, nil
	}

	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	m.alerts[key] = alert
	return true, nil
}

func (m *MemoryStore) ListAlerts(ctx context.Context, owner string, pageSize int32, pageToken string) ([]*model.Alert, string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var matchingKeys []string
	for key, alert := range m.alerts {
		if owner != "" && alert.Owner != owner {
			continue
		}
		matchingKeys = append(matchingKeys, key)
	}

	paginatedKeys, nextToken := paginateIDs(matchingKeys, pageSize, pageToken)
	result := make([]*model.Alert, 0, len(paginatedKeys))
	for _, key := range paginatedKeys {
		result = append(result, m.alerts[key])
	}
	return result, nextToken, nil
}

// Aggregate operations

// GetDailyTotal sums an owner's expenses on a calendar day and returns the
// total with the contributing record count.
func (m *MemoryStore) GetDailyTotal(ctx context.Context, owner string, date time.Time) (float64, int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	var total float64
	var count int
	for _, expense := range m.expenses {
		if expense.Owner != owner {
			continue
		}
		if expense.Date.Before(dayStart) || !expense.Date.Before(dayEnd) {
			continue
		}
		total += expense.Amount
		count++
	}
	return total, count, nil
}

// ListActiveOwners returns the owners with at least one expense on the given
// day, for the daily-limit sweep.
func (m *MemoryStore) ListActiveOwners(ctx context.Context, date time.Time) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	seen := make(map[string]bool)
	for _, expense := range m.expenses {
		if expense.Date.Before(dayStart) || !expense.Date.Before(dayEnd) {
			continue
		}
		seen[expense.Owner] = true
	}

	owners := make([]string, 0, len(seen))
	for owner := range seen {
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}
