package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/mock/gomock"
	"go.uber.org/zap"

	"github.com/expensetrade/backend/internal/config"
	"github.com/expensetrade/backend/internal/model"
	"github.com/expensetrade/backend/internal/quotes"
	"github.com/expensetrade/backend/internal/service"
	"github.com/expensetrade/backend/internal/store"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRouter(st store.Store, provider quotes.Provider, now time.Time) *gin.Engine {
	logger := zap.NewNop()
	cfg := config.Config{
		Forecast: config.ForecastConfig{
			LookbackMonths:    12,
			QuoteLookbackDays: 60,
			DefaultHorizon:    3,
			MaxHorizon:        24,
		},
		Suggest: config.SuggestConfig{MaxSuggestions: 5},
		Limit:   config.LimitConfig{DailyCap: 1000},
	}
	svc := service.NewForecastServiceAt(st, provider, service.NewAlertNotifier(st, "", 0, logger), cfg, logger, func() time.Time { return now })

	r := gin.New()
	(&HealthHandler{Store: st}).Register(r)
	(&RecordsHandler{Store: st, Quotes: provider, Logger: logger}).Register(r)
	(&ForecastHandler{Service: svc, Logger: logger}).Register(r)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path, owner string, body any) (*httptest.ResponseRecorder, apiResponse) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if owner != "" {
		req.Header.Set("X-Owner", owner)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp apiResponse
	if w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("decode response %q: %v", w.Body.String(), err)
		}
	}
	return w, resp
}

func TestHealthEndpoints(t *testing.T) {
	r := setupRouter(store.NewMemoryStore(), nil, time.Now())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("healthz = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w.Code != http.StatusOK {
		t.Errorf("readyz = %d", w.Code)
	}
}

func TestMissingOwnerHeader(t *testing.T) {
	r := setupRouter(store.NewMemoryStore(), nil, time.Now())

	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/expenses", "", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without X-Owner, got %d", w.Code)
	}
}

func TestExpenseLifecycle(t *testing.T) {
	r := setupRouter(store.NewMemoryStore(), nil, time.Now())

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/expenses", "alice", gin.H{
		"amount":   42.5,
		"date":     "2025-06-10T12:00:00Z",
		"category": "Food",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create expense = %d: %s", w.Code, w.Body.String())
	}
	created := resp.Data.(map[string]any)
	id := created["id"].(string)
	if id == "" {
		t.Fatal("expected expense ID")
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/expenses?from=2025-06-01&to=2025-06-30", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list expenses = %d", w.Code)
	}
	if items := resp.Data.([]any); len(items) != 1 {
		t.Fatalf("expected 1 expense, got %d", len(items))
	}

	// Other owners cannot see or delete it.
	w, _ = doJSON(t, r, http.MethodGet, "/api/v1/expenses/"+id, "bob", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("cross-owner get = %d, want 404", w.Code)
	}

	w, _ = doJSON(t, r, http.MethodDelete, "/api/v1/expenses/"+id, "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete expense = %d", w.Code)
	}
}

func TestExpenseValidation(t *testing.T) {
	r := setupRouter(store.NewMemoryStore(), nil, time.Now())

	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/expenses", "alice", gin.H{
		"amount": -5,
		"date":   "2025-06-10T12:00:00Z",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for negative amount, got %d", w.Code)
	}
}

func TestForecastExpensesEndpoint(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 30, 12, 0, 0, 0, time.UTC)
	st := store.NewMemoryStore()
	for i := 1; i <= 6; i++ {
		_ = st.CreateExpense(ctx, &model.Expense{
			Owner:    "alice",
			Amount:   100,
			Date:     time.Date(2025, time.Month(i), 15, 0, 0, 0, 0, time.UTC),
			Category: model.CategoryFood,
		})
	}

	r := setupRouter(st, nil, now)
	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/forecast/expenses?period=month&horizon=2", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("forecast = %d: %s", w.Code, w.Body.String())
	}
	if resp.Code != 0 {
		t.Errorf("envelope code = %d", resp.Code)
	}
	data := resp.Data.(map[string]any)
	agg := data["aggregate"].(map[string]any)
	if pts := agg["points"].([]any); len(pts) != 2 {
		t.Errorf("expected 2 projected points, got %d", len(pts))
	}
}

func TestForecastExpensesNoData(t *testing.T) {
	r := setupRouter(store.NewMemoryStore(), nil, time.Now())
	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/forecast/expenses", "nobody", nil)
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 with no history, got %d", w.Code)
	}
}

func TestForecastExpensesBadPeriod(t *testing.T) {
	r := setupRouter(store.NewMemoryStore(), nil, time.Now())
	w, _ := doJSON(t, r, http.MethodGet, "/api/v1/forecast/expenses?period=fortnight", "alice", nil)
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad period, got %d", w.Code)
	}
}

func TestSuggestionsInvalidProfile(t *testing.T) {
	r := setupRouter(store.NewMemoryStore(), nil, time.Now())
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/suggestions", "alice", gin.H{
		"tickers": []string{"AAPL"},
		"profile": "gambler",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for unknown profile, got %d", w.Code)
	}
}

func TestEvaluateLimitEndpoint(t *testing.T) {
	ctx := context.Background()
	day := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	now := day.Add(18 * time.Hour)

	st := store.NewMemoryStore()
	for i := 0; i < 3; i++ {
		_ = st.CreateExpense(ctx, &model.Expense{
			Owner:  "alice",
			Amount: 20,
			Date:   day.Add(time.Duration(9+i) * time.Hour),
		})
	}

	r := setupRouter(st, nil, now)
	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/limits/evaluate", "alice", gin.H{
		"date": "2025-06-10",
		"cap":  50,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("evaluate = %d: %s", w.Code, w.Body.String())
	}
	data := resp.Data.(map[string]any)
	if data["state"] != "breached" {
		t.Errorf("state = %v, want breached", data["state"])
	}
	if data["overage"].(float64) != 10 {
		t.Errorf("overage = %v, want 10", data["overage"])
	}
	if resp.Meta["alerted"] != true {
		t.Errorf("expected alerted meta, got %v", resp.Meta)
	}

	// Second evaluation: still breached, no second alert.
	_, resp = doJSON(t, r, http.MethodPost, "/api/v1/limits/evaluate", "alice", gin.H{
		"date": "2025-06-10",
		"cap":  50,
	})
	if resp.Meta["alerted"] != false {
		t.Errorf("expected no duplicate alert, got %v", resp.Meta)
	}

	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/alerts", "alice", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("list alerts = %d", w.Code)
	}
	if items := resp.Data.([]any); len(items) != 1 {
		t.Fatalf("expected 1 alert, got %d", len(items))
	}
}

func TestHoldingPurchaseRecordsExpense(t *testing.T) {
	st := store.NewMemoryStore()
	r := setupRouter(st, nil, time.Now())

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/holdings", "alice", gin.H{
		"ticker":        "AAPL",
		"purchaseDate":  "2025-06-10T00:00:00Z",
		"quantity":      2,
		"purchasePrice": 190.0,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create holding = %d: %s", w.Code, w.Body.String())
	}
	holding := resp.Data.(map[string]any)
	if holding["name"] != "Apple Inc." {
		t.Errorf("expected resolved company name, got %v", holding["name"])
	}

	expenses, _, err := st.ListExpenses(context.Background(), "alice", nil, nil, 0, "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 {
		t.Fatalf("expected purchase expense, got %d", len(expenses))
	}
	if expenses[0].Category != model.CategoryStocks || expenses[0].Amount != 380 {
		t.Errorf("unexpected purchase expense: %+v", expenses[0])
	}
}

func TestHoldingPurchaseDefaultsToLatestClose(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	provider := quotes.NewMockProvider(ctrl)
	provider.EXPECT().
		LatestClose(gomock.Any(), "AAPL").
		Return(210.5, nil)

	st := store.NewMemoryStore()
	r := setupRouter(st, provider, time.Now())

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/holdings", "alice", gin.H{
		"ticker":       "AAPL",
		"purchaseDate": "2025-06-10T00:00:00Z",
		"quantity":     2,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("create holding = %d: %s", w.Code, w.Body.String())
	}
	holding := resp.Data.(map[string]any)
	if holding["purchasePrice"] != 210.5 {
		t.Errorf("expected latest close as purchase price, got %v", holding["purchasePrice"])
	}

	expenses, _, err := st.ListExpenses(context.Background(), "alice", nil, nil, 0, "")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(expenses) != 1 || expenses[0].Amount != 421 {
		t.Fatalf("expected a 421 purchase expense, got %+v", expenses)
	}
}
