package store

import (
	"context"
	"encoding/base64"
	"time"

	"github.com/expensetrade/backend/internal/model"
)

// Store defines the interface for all database operations used by the service
type Store interface {
	// Expense operations
	CreateExpense(ctx context.Context, expense *model.Expense) error
	GetExpense(ctx context.Context, expenseID string) (*model.Expense, error)
	UpdateExpense(ctx context.Context, expense *model.Expense) error
	DeleteExpense(ctx context.Context, expenseID string) error
	ListExpenses(ctx context.Context, owner string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Expense, string, error)

	// Income operations
	CreateIncome(ctx context.Context, income *model.Income) error
	GetIncome(ctx context.Context, incomeID string) (*model.Income, error)
	UpdateIncome(ctx context.Context, income *model.Income) error
	DeleteIncome(ctx context.Context, incomeID string) error
	ListIncomes(ctx context.Context, owner string, startDate, endDate *time.Time, pageSize int32, pageToken string) ([]*model.Income, string, error)

	// Goal operations
	CreateGoal(ctx context.Context, goal *model.Goal) error
	GetGoal(ctx context.Context, goalID string) (*model.Goal, error)
	UpdateGoal(ctx context.Context, goal *model.Goal) error
	DeleteGoal(ctx context.Context, goalID string) error
	ListGoals(ctx context.Context, owner string, pageSize int32, pageToken string) ([]*model.Goal, string, error)

	// Stock holding operations
	CreateHolding(ctx context.Context, holding *model.StockHolding) error
	GetHolding(ctx context.Context, holdingID string) (*model.StockHolding, error)
	UpdateHolding(ctx context.Context, holding *model.StockHolding) error
	ListHoldings(ctx context.Context, owner string, includeSold bool, pageSize int32, pageToken string) ([]*model.StockHolding, string, error)

	// Alert operations. CreateAlert is idempotent per (owner, date): the
	// first write for a day returns true, repeats return false with no error.
	CreateAlert(ctx context.Context, alert *model.Alert) (bool, error)
	ListAlerts(ctx context.Context, owner string, pageSize int32, pageToken string) ([]*model.Alert, string, error)

	// Aggregate operations
	GetDailyTotal(ctx context.Context, owner string, date time.Time) (float64, int, error)
	ListActiveOwners(ctx context.Context, date time.Time) ([]string, error)
}

// AlertKey is the document key enforcing one alert per (owner, date).
func AlertKey(owner, date string) string {
	return owner + ":" + date
}

// EncodePageToken encodes a document ID into a page token.
func EncodePageToken(docID string) string {
	if docID == "" {
		return ""
	}
	return base64.URLEncoding.EncodeToString([]byte(docID))
}

// DecodePageToken decodes a page token back to a document ID.
func DecodePageToken(token string) (string, error) {
	if token == "" {
		return "", nil
	}
	b, err := base64.URLEncoding.DecodeString(token)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
