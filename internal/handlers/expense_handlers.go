package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	appmw "qota_server/internal/middleware"
	"qota_server/internal/models"
	"qota_server/internal/services"
)

type ExpenseHandler struct {
	db       *gorm.DB
	expenses *services.ExpenseService
}

func NewExpenseHandler(db *gorm.DB, expenses *services.ExpenseService) *ExpenseHandler {
	return &ExpenseHandler{db: db, expenses: expenses}
}

type createExpenseRequest struct {
	Description       string `json:"description" validate:"required,max=255"`
	Category          string `json:"category" validate:"max=100"`
	Amount            string `json:"amount" validate:"required"`
	DueDate           string `json:"due_date" validate:"required"`
	Recurring         bool   `json:"recurring"`
	RecurringInterval string `json:"recurring_interval"`
}

// StoreExpense registers an expense split across the current members.
func (h *ExpenseHandler) StoreExpense(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req createExpenseRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "valor da despesa inválido")
	}
	dueDate, err := time.ParseInLocation("2006-01-02", req.DueDate, time.UTC)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "data de vencimento inválida")
	}

	expense, err := h.expenses.CreateExpense(user, propertyID, services.CreateExpenseInput{
		Description:       req.Description,
		Category:          req.Category,
		Amount:            amount,
		DueDate:           dueDate,
		Recurring:         req.Recurring,
		RecurringInterval: req.RecurringInterval,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, expense)
}

// ListExpenses returns a property's expenses with their payment rows.
func (h *ExpenseHandler) ListExpenses(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var membership models.Membership
	if err := h.db.Where("property_id = ? AND user_id = ? AND status = ?",
		propertyID, user.ID, models.MembershipStatusActive).First(&membership).Error; err != nil {
		return echo.NewHTTPError(http.StatusForbidden, "usuário não é proprietário deste imóvel")
	}

	var expenses []models.Expense
	if err := h.db.Preload("Payments").Preload("Payments.User").
		Where("property_id = ?", propertyID).
		Order("due_date desc").Find(&expenses).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expenses)
}

type updateExpenseAmountRequest struct {
	Amount string `json:"amount" validate:"required"`
}

// UpdateExpenseAmount changes the amount and redistributes the shares in
// place.
func (h *ExpenseHandler) UpdateExpenseAmount(c echo.Context) error {
	user := appmw.CurrentUser(c)
	expenseID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updateExpenseAmountRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "valor da despesa inválido")
	}

	expense, err := h.expenses.UpdateExpenseAmount(user, expenseID, amount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, expense)
}

// CancelExpense voids an expense before any payment settles.
func (h *ExpenseHandler) CancelExpense(c echo.Context) error {
	user := appmw.CurrentUser(c)
	expenseID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.expenses.CancelExpense(user, expenseID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type markPaymentRequest struct {
	Paid *bool `json:"paid" validate:"required"`
}

// MarkPayment flips a payment's paid flag and re-aggregates the expense
// status.
func (h *ExpenseHandler) MarkPayment(c echo.Context) error {
	user := appmw.CurrentUser(c)
	paymentID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req markPaymentRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	payment, err := h.expenses.MarkPayment(user, paymentID, *req.Paid)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, payment)
}
