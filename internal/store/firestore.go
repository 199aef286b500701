package store

import (
	"context"
	"fmt"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/expensetrade/backend/internal/model"
)

// Firestore collection names.
const (
	collectionExpenses = "expenses"
	collectionIncomes  = "incomes"
	collectionGoals    = "goals"
	collectionHoldings = "holdings"
	collectionAlerts   = "alerts"
)

// FirestoreStore implements the Store interface using Firestore
type FirestoreStore struct {
	client *firestore.Client
}

// NewFirestoreStore creates a new Firestore-backed store
func NewFirestoreStore(client *firestore.Client) Store {
	return &FirestoreStore{
		client: client,
	}
}

// applyDateAwarePagination handles pagination for queries with date range filters.
// Firestore requires OrderBy on inequality fields first, so we use OrderBy("Date") + OrderBy(__name__).
// The cursor must include both the Date value and the document ID.
func (s *FirestoreStore) applyDateAwarePagination(ctx context.Context, query firestore.Query, collection string, pageSize int32, pageToken string) (firestore.Query, error) {
	query = query.OrderBy("Date", firestore.Asc).OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, fmt.Errorf("invalid page token: %w", err)
		}
		// Fetch the cursor document to get its Date value for composite StartAfter
		cursorDoc, err := s.client.Collection(collection).Doc(docID).Get(ctx)
		if err != nil {
			return query, fmt.Errorf("failed to fetch cursor document: %w", err)
		}
		dateVal := cursorDoc.Data()["Date"]
		query = query.StartAfter(dateVal, docID)
	}

	if pageSize <= 0 {
		pageSize = 100
	}
	query = query.Limit(int(pageSize) + 1)
	return query, nil
}

// applyCursorPagination adds OrderBy + StartAfter + Limit to a query for cursor-based pagination.
// It fetches pageSize+1 docs so the caller can detect whether a next page exists.
func (s *FirestoreStore) applyCursorPagination(query firestore.Query, pageSize int32, pageToken string) (firestore.Query, error) {
	query = query.OrderBy(firestore.DocumentID, firestore.Asc)

	if pageToken != "" {
		docID, err := DecodePageToken(pageToken)
		if err != nil {
			return query, fmt.Errorf("invalid page token: %w", err)
		}
		query = query.StartAfter(docID)
	}

	if pageSize <= 0 {
		pageSize = 100
	}
	query = query.Limit(int(pageSize) + 1) // +1 to detect next page
	return query, nil
}

// trimToPage drops the lookahead document and derives the next page token.
func trimToPage(docs []*firestore.DocumentSnapshot, pageSize int32) ([]*firestore.DocumentSnapshot, string) {
	if pageSize <= 0 {
		pageSize = 100
	}
	if len(docs) > int(pageSize) {
		docs = docs[:pageSize]
		return docs, EncodePageToken(docs[pageSize-1].Ref.ID)
	}
	return docs, ""
}

// Expense operations

// CreateExpense creates a new expense in Firestore
func (s *FirestoreStore) CreateExpense(ctx context.Context, expense *model.Expense) error {
	_, err := s.client.Collection(collectionExpenses).Doc(expense.ID).Set(ctx, expense)
	return err
}

// GetExpense retrieves an expense from Firestore
func (s *FirestoreStore) GetExpense(ctx context.Context, expenseID string) (*model.Expense, error) {
	doc, err := s.client.Collection(collectionExpenses).Doc(expenseID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("expense not found: %w", err)
	}

	var expense model.Expense
	if err := doc.DataTo(&expense); err != nil {
		return nil, fmt.Errorf("failed to parse expense: %w", err)
	}
	return &expense, nil
}

// UpdateExpense updates an existing expense in Firestore
func (s *FirestoreStore) UpdateExpense(ctx context.Context, expense *model.Expense) error {
	_, err := s.client.Collection(collectionExpenses).Doc(expense.ID).Set(ctx, expense)
	return err
}

// DeleteExpense deletes an expense from Firestore
func (s *FirestoreStore) DeleteExpense(ctx context.Context, expenseID string) error {
	_, err := s.client.Collection(collectionExpenses).Doc(expenseID).Delete(ctx)
	return err
}

// ListExpenses lists expenses from Firestore
func (s *FirestoreStore) ListExpenses(ctx context.Context, owner string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Expense, string, error) {
	query := s.client.Collection(collectionExpenses).Query

	// NOTE: Field names must match Go struct field names (PascalCase) as
	// that's how Firestore serializes the model structs
	if owner != "" {
		query = query.Where("Owner", "==", owner)
	}

	hasDateFilter := startDate != nil || endDate != nil
	if startDate != nil {
		query = query.Where("Date", ">=", *startDate)
	}
	if endDate != nil {
		query = query.Where("Date", "<=", *endDate)
	}

	var err error
	if hasDateFilter {
		// Date range filters force OrderBy on the range field first; use
		// date-aware pagination to avoid "cannot contain more fields after
		// the key" errors.
		query, err = s.applyDateAwarePagination(ctx, query, collectionExpenses, pageSize, pageToken)
	} else {
		query, err = s.applyCursorPagination(query, pageSize, pageToken)
	}
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list expenses: %w", err)
	}
	docs, nextPageToken := trimToPage(docs, pageSize)

	expenses := make([]*model.Expense, 0, len(docs))
	for _, doc := range docs {
		var expense model.Expense
		if err := doc.DataTo(&expense); err != nil {
			return nil, "", fmt.Errorf("failed to parse expense: %w", err)
		}
		expenses = append(expenses, &expense)
	}
	return expenses, nextPageToken, nil
}

// Income operations

// CreateIncome creates a new income in Firestore
func (s *FirestoreStore) CreateIncome(ctx context.Context, income *model.Income) error {
	_, err := s.client.Collection(collectionIncomes).Doc(income.ID).Set(ctx, income)
	return err
}

// GetIncome retrieves an income from Firestore
func (s *FirestoreStore) GetIncome(ctx context.Context, incomeID string) (*model.Income, error) {
	doc, err := s.client.Collection(collectionIncomes).Doc(incomeID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("income not found: %w", err)
	}

	var income model.Income
	if err := doc.DataTo(&income); err != nil {
		return nil, fmt.Errorf("failed to parse income: %w", err)
	}
	return &income, nil
}

// UpdateIncome updates an existing income in Firestore
func (s *FirestoreStore) UpdateIncome(ctx context.Context, income *model.Income) error {
	_, err := s.client.Collection(collectionIncomes).Doc(income.ID).Set(ctx, income)
	return err
}

// DeleteIncome deletes an income from Firestore
func (s *FirestoreStore) DeleteIncome(ctx context.Context, incomeID string) error {
	_, err := s.client.Collection(collectionIncomes).Doc(incomeID).Delete(ctx)
	return err
}

// ListIncomes lists incomes from Firestore
func (s *FirestoreStore) ListIncomes(ctx context.Context, owner string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Income, string, error) {
	query := s.client.Collection(collectionIncomes).Query

	if owner != "" {
		query = query.Where("Owner", "==", owner)
	}

	hasDateFilter := startDate != nil || endDate != nil
	if startDate != nil {
		query = query.Where("Date", ">=", *startDate)
	}
	if endDate != nil {
		query = query.Where("Date", "<=", *endDate)
	}

	var err error
	if hasDateFilter {
		query, err = s.applyDateAwarePagination(ctx, query, collectionIncomes, pageSize, pageToken)
	} else {
		query, err = s.applyCursorPagination(query, pageSize, pageToken)
	}
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list incomes: %w", err)
	}
	docs, nextPageToken := trimToPage(docs, pageSize)

	incomes := make([]*model.Income, 0, len(docs))
	for _, doc := range docs {
		var income model.Income
		if err := doc.DataTo(&income); err != nil {
			return nil, "", fmt.Errorf("failed to parse income: %w", err)
		}
		incomes = append(incomes, &income)
	}
	return incomes, nextPageToken, nil
}

// Goal operations

// CreateGoal creates a new goal in Firestore
func (s *FirestoreStore) CreateGoal(ctx context.Context, goal *model.Goal) error {
	_, err := s.client.Collection(collectionGoals).Doc(goal.ID).Set(ctx, goal)
	return err
}

// GetGoal retrieves a goal from Firestore
func (s *FirestoreStore) GetGoal(ctx context.Context, goalID string) (*model.Goal, error) {
	doc, err := s.client.Collection(collectionGoals).Doc(goalID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("goal not found: %w", err)
	}

	var goal model.Goal
	if err := doc.DataTo(&goal); err != nil {
		return nil, fmt.Errorf("failed to parse goal: %w", err)
	}
	return &goal, nil
}

// UpdateGoal updates an existing goal in Firestore
func (s *FirestoreStore) UpdateGoal(ctx context.Context, goal *model.Goal) error {
	_, err := s.client.Collection(collectionGoals).Doc(goal.ID).Set(ctx, goal)
	return err
}

// DeleteGoal deletes a goal from Firestore
func (s *FirestoreStore) DeleteGoal(ctx context.Context, goalID string) error {
	_, err := s.client.Collection(collectionGoals).Doc(goalID).Delete(ctx)
	return err
}

// ListGoals lists goals from Firestore
func (s *FirestoreStore) ListGoals(ctx context.Context, owner string, pageSize int32, pageToken string) ([]*model.Goal, string, error) {
	query := s.client.Collection(collectionGoals).Query
	if owner != "" {
		query = query.Where("Owner", "==", owner)
	}

	query, err := s.applyCursorPagination(query, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list goals: %w", err)
	}
	docs, nextPageToken := trimToPage(docs, pageSize)

	goals := make([]*model.Goal, 0, len(docs))
	for _, doc := range docs {
		var goal model.Goal
		if err := doc.DataTo(&goal); err != nil {
			return nil, "", fmt.Errorf("failed to parse goal: %w", err)
		}
		goals = append(goals, &goal)
	}
	return goals, nextPageToken, nil
}

// Stock holding operations

// CreateHolding creates a new stock holding in Firestore
func (s *FirestoreStore) CreateHolding(ctx context.Context, holding *model.StockHolding) error {
	_, err := s.client.Collection(collectionHoldings).Doc(holding.ID).Set(ctx, holding)
	return err
}

// GetHolding retrieves a stock holding from Firestore
func (s *FirestoreStore) GetHolding(ctx context.Context, holdingID string) (*model.StockHolding, error) {
	doc, err := s.client.Collection(collectionHoldings).Doc(holdingID).Get(ctx)
	if err != nil {
		return nil, fmt.Errorf("holding not found: %w", err)
	}

	var holding model.StockHolding
	if err := doc.DataTo(&holding); err != nil {
		return nil, fmt.Errorf("failed to parse holding: %w", err)
	}
	return &holding, nil
}

// UpdateHolding updates an existing stock holding in Firestore
func (s *FirestoreStore) UpdateHolding(ctx context.Context, holding *model.StockHolding) error {
	_, err := s.client.Collection(collectionHoldings).Doc(holding.ID).Set(ctx, holding)
	return err
}

// ListHoldings lists stock holdings from Firestore
func (s *FirestoreStore) ListHoldings(ctx context.Context, owner string, includeSold bool, pageSize int32, pageToken string) ([]*model.StockHolding, string, error) {
	query := s.client.Collection(collectionHoldings).Query
	if owner != "" {
		query = query.Where("Owner", "==", owner)
	}
	if !includeSold {
		query = query.Where("Sold", "==", false)
	}

	query, err := s.applyCursorPagination(query, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list holdings: %w", err)
	}
	docs, nextPageToken := trimToPage(docs, pageSize)

	holdings := make([]*model.StockHolding, 0, len(docs))
	for _, doc := range docs {
		var holding model.StockHolding
		if err := doc.DataTo(&holding); err != nil {
			return nil, "", fmt.Errorf("failed to parse holding: %w", err)
		}
		holdings = append(holdings, &holding)
	}
	return holdings, nextPageToken, nil
}

// Alert operations

// CreateAlert writes an alert keyed by (owner, date). Create fails with
// AlreadyExists when the day's alert is present, which is the idempotency
// signal, not an error.
func (s *FirestoreStore) CreateAlert(ctx context.Context, alert *model.Alert) (bool, error) {
	key := AlertKey(alert.Owner, alert.Date)
	_, err := s.client.Collection(collectionAlerts).Doc(key).Create(ctx, alert)
	if err != nil {
		if status.Code(err) == codes.AlreadyExists {
			return false, nil
		}
		return false, fmt.Errorf("failed to create alert: %w", err)
	}
	return true, nil
}

// ListAlerts lists alerts from Firestore
func (s *FirestoreStore) ListAlerts(ctx context.Context, owner string, pageSize int32, pageToken string) ([]*model.Alert, string, error) {
	query := s.client.Collection(collectionAlerts).Query
	if owner != "" {
		query = query.Where("Owner", "==", owner)
	}

	query, err := s.applyCursorPagination(query, pageSize, pageToken)
	if err != nil {
		return nil, "", err
	}

	docs, err := query.Documents(ctx).GetAll()
	if err != nil {
		return nil, "", fmt.Errorf("failed to list alerts: %w", err)
	}
	docs, nextPageToken := trimToPage(docs, pageSize)

	alerts := make([]*model.Alert, 0, len(docs))
	for _, doc := range docs {
		var alert model.Alert
		if err := doc.DataTo(&alert); err != nil {
			return nil, "", fmt.Errorf("failed to parse alert: %w", err)
		}
		alerts = append(alerts, &alert)
	}
	return alerts, nextPageToken, nil
}

// Aggregate operations

// GetDailyTotal sums an owner's expenses on a calendar day.
func (s *FirestoreStore) GetDailyTotal(ctx context.Context, owner string, date time.Time) (float64, int, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	iter := s.client.Collection(collectionExpenses).
		Where("Owner", "==", owner).
		Where("Date", ">=", dayStart).
		Where("Date", "<", dayEnd).
		Documents(ctx)
	defer iter.Stop()

	var total float64
	var count int
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, 0, fmt.Errorf("failed to aggregate daily total: %w", err)
		}
		var expense model.Expense
		if err := doc.DataTo(&expense); err != nil {
			return 0, 0, fmt.Errorf("failed to parse expense: %w", err)
		}
		total += expense.Amount
		count++
	}
	return total, count, nil
}

// ListActiveOwners returns the owners with at least one expense on the
// given day.
func (s *FirestoreStore) ListActiveOwners(ctx context.Context, date time.Time) ([]string, error) {
	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	iter := s.client.Collection(collectionExpenses).
		Where("Date", ">=", dayStart).
		Where("Date", "<", dayEnd).
		Documents(ctx)
	defer iter.Stop()

	seen := make(map[string]bool)
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list active owners: %w", err)
		}
		var expense model.Expense
		if err := doc.DataTo(&expense); err != nil {
			return nil, fmt.Errorf("failed to parse expense: %w", err)
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
