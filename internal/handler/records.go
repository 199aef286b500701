package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/expensetrade/backend/internal/model"
	"github.com/expensetrade/backend/internal/quotes"
	"github.com/expensetrade/backend/internal/store"
)

// RecordsHandler exposes CRUD over the financial records the forecasting
// engine reads: expenses, incomes, goals, stock holdings and alerts.
type RecordsHandler struct {
	Store store.Store
	// Quotes resolves the purchase price when a holding is created
	// without one.
	Quotes quotes.Provider
	Logger *zap.Logger
}

func (h *RecordsHandler) Register(r *gin.Engine) {
	group := r.Group("/api/v1")

	group.POST("/expenses", h.createExpense)
	group.GET("/expenses", h.listExpenses)
	group.GET("/expenses/:id", h.getExpense)
	group.PUT("/expenses/:id", h.updateExpense)
	group.DELETE("/expenses/:id", h.deleteExpense)

	group.POST("/incomes", h.createIncome)
	group.GET("/incomes", h.listIncomes)
	group.DELETE("/incomes/:id", h.deleteIncome)

	group.POST("/goals", h.createGoal)
	group.GET("/goals", h.listGoals)
	group.PUT("/goals/:id", h.updateGoal)
	group.DELETE("/goals/:id", h.deleteGoal)

	group.POST("/holdings", h.createHolding)
	group.GET("/holdings", h.listHoldings)
	group.POST("/holdings/:id/sell", h.sellHolding)

	group.GET("/alerts", h.listAlerts)
}

func pageParams(c *gin.Context) (int32, string) {
	return int32(intQuery(c, "page_size", 0)), c.Query("page_token")
}

func dateRangeParams(c *gin.Context) (*time.Time, *time.Time, bool) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "from must be YYYY-MM-DD", nil)
			return nil, nil, false
		}
		from = &t
	}
	if raw := c.Query("to"); raw != "" {
		t, err := time.Parse("2006-01-02", raw)
		if err != nil {
			Error(c, http.StatusBadRequest, "to must be YYYY-MM-DD", nil)
			return nil, nil, false
		}
		to = &t
	}
	return from, to, true
}

type expenseRequest struct {
	Amount      float64   `json:"amount" binding:"required,gt=0"`
	Date        time.Time `json:"date" binding:"required"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
}

func (h *RecordsHandler) createExpense(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	if req.Category == "" {
		req.Category = model.CategoryOther
	}

	expense := &model.Expense{
		ID:          uuid.New().String(),
		Owner:       o,
		Amount:      req.Amount,
		Date:        req.Date,
		Category:    req.Category,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := h.Store.CreateExpense(c.Request.Context(), expense); err != nil {
		h.Logger.Error("create expense failed", zap.Error(err))
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, expense, nil)
}

func (h *RecordsHandler) listExpenses(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	from, to, ok := dateRangeParams(c)
	if !ok {
		return
	}
	pageSize, pageToken := pageParams(c)

	expenses, next, err := h.Store.ListExpenses(c.Request.Context(), o, from, to, pageSize, pageToken)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, expenses, map[string]any{"next_page_token": next})
}

func (h *RecordsHandler) getExpense(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	expense, err := h.Store.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil || expense.Owner != o {
		Error(c, http.StatusNotFound, "expense not found", nil)
		return
	}
	Ok(c, expense, nil)
}

func (h *RecordsHandler) updateExpense(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	existing, err := h.Store.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil || existing.Owner != o {
		Error(c, http.StatusNotFound, "expense not found", nil)
		return
	}

	var req expenseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	existing.Amount = req.Amount
	existing.Date = req.Date
	if req.Category != "" {
		existing.Category = req.Category
	}
	existing.Description = req.Description

	if err := h.Store.UpdateExpense(c.Request.Context(), existing); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, existing, nil)
}

func (h *RecordsHandler) deleteExpense(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	existing, err := h.Store.GetExpense(c.Request.Context(), c.Param("id"))
	if err != nil || existing.Owner != o {
		Error(c, http.StatusNotFound, "expense not found", nil)
		return
	}
	if err := h.Store.DeleteExpense(c.Request.Context(), existing.ID); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"deleted": existing.ID}, nil)
}

type incomeRequest struct {
	Amount      float64   `json:"amount" binding:"required,gt=0"`
	Date        time.Time `json:"date" binding:"required"`
	Source      string    `json:"source"`
	Description string    `json:"description"`
}

func (h *RecordsHandler) createIncome(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req incomeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	income := &model.Income{
		ID:          uuid.New().String(),
		Owner:       o,
		Amount:      req.Amount,
		Date:        req.Date,
		Source:      req.Source,
		Description: req.Description,
		CreatedAt:   time.Now(),
	}
	if err := h.Store.CreateIncome(c.Request.Context(), income); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, income, nil)
}

func (h *RecordsHandler) listIncomes(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	from, to, ok := dateRangeParams(c)
	if !ok {
		return
	}
	pageSize, pageToken := pageParams(c)

	incomes, next, err := h.Store.ListIncomes(c.Request.Context(), o, from, to, pageSize, pageToken)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, incomes, map[string]any{"next_page_token": next})
}

func (h *RecordsHandler) deleteIncome(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	existing, err := h.Store.GetIncome(c.Request.Context(), c.Param("id"))
	if err != nil || existing.Owner != o {
		Error(c, http.StatusNotFound, "income not found", nil)
		return
	}
	if err := h.Store.DeleteIncome(c.Request.Context(), existing.ID); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"deleted": existing.ID}, nil)
}

type goalRequest struct {
	TargetAmount float64   `json:"targetAmount" binding:"required,gt=0"`
	SavedAmount  float64   `json:"savedAmount"`
	TargetDate   time.Time `json:"targetDate"`
	Category     string    `json:"category"`
	Description  string    `json:"description"`
}

func (h *RecordsHandler) createGoal(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	goal := &model.Goal{
		ID:           uuid.New().String(),
		Owner:        o,
		TargetAmount: req.TargetAmount,
		SavedAmount:  req.SavedAmount,
		TargetDate:   req.TargetDate,
		Category:     req.Category,
		Description:  req.Description,
		CreatedAt:    time.Now(),
	}
	if err := h.Store.CreateGoal(c.Request.Context(), goal); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, goal, nil)
}

func (h *RecordsHandler) listGoals(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	pageSize, pageToken := pageParams(c)

	goals, next, err := h.Store.ListGoals(c.Request.Context(), o, pageSize, pageToken)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, goals, map[string]any{"next_page_token": next})
}

func (h *RecordsHandler) updateGoal(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	existing, err := h.Store.GetGoal(c.Request.Context(), c.Param("id"))
	if err != nil || existing.Owner != o {
		Error(c, http.StatusNotFound, "goal not found", nil)
		return
	}

	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}
	existing.TargetAmount = req.TargetAmount
	existing.SavedAmount = req.SavedAmount
	existing.TargetDate = req.TargetDate
	if req.Category != "" {
		existing.Category = req.Category
	}
	existing.Description = req.Description

	if err := h.Store.UpdateGoal(c.Request.Context(), existing); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, existing, nil)
}

func (h *RecordsHandler) deleteGoal(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	existing, err := h.Store.GetGoal(c.Request.Context(), c.Param("id"))
	if err != nil || existing.Owner != o {
		Error(c, http.StatusNotFound, "goal not found", nil)
		return
	}
	if err := h.Store.DeleteGoal(c.Request.Context(), existing.ID); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, gin.H{"deleted": existing.ID}, nil)
}

type holdingRequest struct {
	Ticker       string    `json:"ticker" binding:"required"`
	PurchaseDate time.Time `json:"purchaseDate" binding:"required"`
	Quantity     int       `json:"quantity" binding:"required,gt=0"`
	// PurchasePrice is optional; when omitted the latest close is used.
	PurchasePrice float64 `json:"purchasePrice" binding:"omitempty,gt=0"`
}

// createHolding records a stock purchase. The purchase doubles as an
// expense so daily totals and expense forecasts see the cash outflow.
func (h *RecordsHandler) createHolding(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	var req holdingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	price := req.PurchasePrice
	if price == 0 {
		if h.Quotes == nil {
			Error(c, http.StatusBadRequest, "purchasePrice is required", nil)
			return
		}
		var err error
		price, err = h.Quotes.LatestClose(c.Request.Context(), req.Ticker)
		if err != nil {
			Error(c, http.StatusBadGateway, "quote lookup failed: "+err.Error(), nil)
			return
		}
	}

	holding := &model.StockHolding{
		ID:            uuid.New().String(),
		Owner:         o,
		Ticker:        req.Ticker,
		Name:          quotes.CompanyName(req.Ticker),
		PurchaseDate:  req.PurchaseDate,
		Quantity:      req.Quantity,
		PurchasePrice: price,
	}
	if err := h.Store.CreateHolding(c.Request.Context(), holding); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	expense := &model.Expense{
		ID:          uuid.New().String(),
		Owner:       o,
		Amount:      price * float64(req.Quantity),
		Date:        req.PurchaseDate,
		Category:    model.CategoryStocks,
		Description: "Purchase " + req.Ticker,
		CreatedAt:   time.Now(),
	}
	if err := h.Store.CreateExpense(c.Request.Context(), expense); err != nil {
		h.Logger.Error("record purchase expense failed",
			zap.String("holding", holding.ID),
			zap.Error(err))
	}

	Ok(c, holding, map[string]any{"expense_id": expense.ID})
}

func (h *RecordsHandler) listHoldings(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	includeSold := c.Query("include_sold") == "true"
	pageSize, pageToken := pageParams(c)

	holdings, next, err := h.Store.ListHoldings(c.Request.Context(), o, includeSold, pageSize, pageToken)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, holdings, map[string]any{"next_page_token": next})
}

type sellRequest struct {
	SellPrice float64   `json:"sellPrice" binding:"required,gt=0"`
	SellDate  time.Time `json:"sellDate" binding:"required"`
}

// sellHolding marks a holding sold. The proceeds come back as income so
// savings capacity reflects the sale.
func (h *RecordsHandler) sellHolding(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	holding, err := h.Store.GetHolding(c.Request.Context(), c.Param("id"))
	if err != nil || holding.Owner != o {
		Error(c, http.StatusNotFound, "holding not found", nil)
		return
	}
	if holding.Sold {
		Error(c, http.StatusConflict, "holding already sold", nil)
		return
	}

	var req sellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		Error(c, http.StatusBadRequest, "invalid request body: "+err.Error(), nil)
		return
	}

	holding.Sold = true
	holding.SellPrice = req.SellPrice
	holding.SellDate = req.SellDate
	if err := h.Store.UpdateHolding(c.Request.Context(), holding); err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}

	income := &model.Income{
		ID:          uuid.New().String(),
		Owner:       o,
		Amount:      req.SellPrice * float64(holding.Quantity),
		Date:        req.SellDate,
		Source:      "Stock sale",
		Description: "Sell " + holding.Ticker,
		CreatedAt:   time.Now(),
	}
	if err := h.Store.CreateIncome(c.Request.Context(), income); err != nil {
		h.Logger.Error("record sale income failed",
			zap.String("holding", holding.ID),
			zap.Error(err))
	}

	Ok(c, holding, map[string]any{"income_id": income.ID})
}

func (h *RecordsHandler) listAlerts(c *gin.Context) {
	o, ok := owner(c)
	if !ok {
		return
	}
	pageSize, pageToken := pageParams(c)

	alerts, next, err := h.Store.ListAlerts(c.Request.Context(), o, pageSize, pageToken)
	if err != nil {
		Error(c, http.StatusInternalServerError, err.Error(), nil)
		return
	}
	Ok(c, alerts, map[string]any{"next_page_token": next})
}
