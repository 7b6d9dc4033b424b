package services

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/teambition/rrule-go"
	"gorm.io/gorm"

	"qota_server/internal/apperror"
	"qota_server/internal/models"
)

// ExpenseService prorates property-wide expenses across members by
// fraction share and keeps each expense's aggregate status in sync with
// its payment rows.
type ExpenseService struct {
	db       *gorm.DB
	notifier *Notifier
}

func NewExpenseService(db *gorm.DB, notifier *Notifier) *ExpenseService {
	return &ExpenseService{db: db, notifier: notifier}
}

// PaymentShare is one member's computed portion of an expense.
type PaymentShare struct {
	MembershipID uint
	UserID       uint
	Amount       decimal.Decimal
}

// ProrateShares splits amount across the given memberships proportionally
// to their fraction counts, rounded to 2 decimals. The rounding remainder
// lands on the master's share (lowest membership ID when several masters
// qualify, first share otherwise) so the shares always sum to amount
// exactly. Memberships with zero fractions get no share.
func ProrateShares(amount decimal.Decimal, memberships []models.Membership, totalFractions int) []PaymentShare {
	payers := make([]models.Membership, 0, len(memberships))
	for _, m := range memberships {
		if m.FractionCount > 0 {
			payers = append(payers, m)
		}
	}
	if len(payers) == 0 || totalFractions <= 0 {
		return nil
	}
	sort.Slice(payers, func(i, j int) bool { return payers[i].ID < payers[j].ID })

	total := decimal.NewFromInt(int64(totalFractions))
	shares := make([]PaymentShare, 0, len(payers))
	distributed := decimal.Zero
	remainderIdx := -1

	for i, m := range payers {
		owed := amount.Mul(decimal.NewFromInt(int64(m.FractionCount))).Div(total).Round(2)
		distributed = distributed.Add(owed)
		shares = append(shares, PaymentShare{
			MembershipID: m.ID,
			UserID:       m.UserID,
			Amount:       owed,
		})
		if remainderIdx == -1 && m.IsMaster() {
			remainderIdx = i
		}
	}
	if remainderIdx == -1 {
		remainderIdx = 0
	}

	remainder := amount.Sub(distributed)
	if !remainder.IsZero() {
		shares[remainderIdx].Amount = shares[remainderIdx].Amount.Add(remainder)
	}
	return shares
}

// AggregateStatus folds payment rows into the expense-level status:
// every row paid means paid, none means pending, anything else is
// partially paid.
func AggregateStatus(payments []models.Payment) models.ExpenseStatus {
	if len(payments) == 0 {
		return models.ExpenseStatusPending
	}
	paid := 0
	for _, p := range payments {
		if p.Paid {
			paid++
		}
	}
	switch paid {
	case 0:
		return models.ExpenseStatusPending
	case len(payments):
		return models.ExpenseStatusPaid
	default:
		return models.ExpenseStatusPartiallyPaid
	}
}

// CreateExpenseInput carries the fields needed to register an expense.
type CreateExpenseInput struct {
	Description       string
	Category          string
	Amount            decimal.Decimal
	DueDate           time.Time
	Recurring         bool
	RecurringInterval string
}

// CreateExpense registers an expense and its payment rows atomically, one
// row per membership holding fractions at creation time.
func (s *ExpenseService) CreateExpense(actor *models.User, propertyID uint, input CreateExpenseInput) (*models.Expense, error) {
	if !input.Amount.IsPositive() {
		return nil, apperror.Validation("o valor da despesa deve ser maior que zero")
	}
	var recurringInterval *string
	if input.Recurring {
		if input.RecurringInterval == "" {
			return nil, apperror.Validation("despesas recorrentes exigem uma regra de recorrência")
		}
		if _, err := rrule.StrToRRule(input.RecurringInterval); err != nil {
			return nil, apperror.Validation("regra de recorrência inválida")
		}
		recurringInterval = &input.RecurringInterval
	}

	var expense models.Expense

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.First(&property, propertyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("imóvel não encontrado")
			}
			return err
		}

		actorMembership, err := activeMembershipOf(tx, propertyID, actor.ID)
		if err != nil {
			return err
		}
		if !actorMembership.IsMaster() {
			return apperror.Forbidden("apenas um proprietário master pode cadastrar despesas")
		}

		memberships, err := activeMemberships(tx, propertyID)
		if err != nil {
			return err
		}
		shares := ProrateShares(input.Amount, memberships, property.TotalFractions)
		if len(shares) == 0 {
			return apperror.Conflict("o imóvel não possui proprietários com cotas para ratear")
		}

		expense = models.Expense{
			PropertyID:        propertyID,
			Description:       input.Description,
			Category:          input.Category,
			Amount:            input.Amount.Round(2),
			DueDate:           input.DueDate,
			Recurring:         input.Recurring,
			RecurringInterval: recurringInterval,
			Status:            models.ExpenseStatusPending,
		}
		if err := tx.Create(&expense).Error; err != nil {
			return err
		}

		payments := make([]models.Payment, 0, len(shares))
		for _, share := range shares {
			payments = append(payments, models.Payment{
				ExpenseID:    expense.ID,
				MembershipID: share.MembershipID,
				UserID:       share.UserID,
				AmountOwed:   share.Amount,
			})
		}
		if err := tx.Create(&payments).Error; err != nil {
			return err
		}
		expense.Payments = payments
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(propertyID, actor.ID,
		fmt.Sprintf("nova despesa cadastrada: %s (R$ %s)", expense.Description, expense.Amount.StringFixed(2)))
	return &expense, nil
}

// UpdateExpenseAmount changes an expense's amount and recomputes every
// payment row in place from the members' current fractions. Paid flags
// are preserved; a settled row can see its owed amount change, which is
// the accepted trade-off of recompute-on-edit.
func (s *ExpenseService) UpdateExpenseAmount(actor *models.User, expenseID uint, newAmount decimal.Decimal) (*models.Expense, error) {
	if !newAmount.IsPositive() {
		return nil, apperror.Validation("o valor da despesa deve ser maior que zero")
	}

	var expense models.Expense

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Payments").First(&expense, expenseID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("despesa não encontrada")
			}
			return err
		}
		if expense.Status == models.ExpenseStatusCancelled {
			return apperror.Conflict("não é possível alterar uma despesa cancelada")
		}

		var property models.Property
		if err := tx.First(&property, expense.PropertyID).Error; err != nil {
			return err
		}
		actorMembership, err := activeMembershipOf(tx, expense.PropertyID, actor.ID)
		if err != nil {
			return err
		}
		if !actorMembership.IsMaster() {
			return apperror.Forbidden("apenas um proprietário master pode alterar despesas")
		}

		// Recompute over the memberships that already own payment rows,
		// using their current fraction counts.
		ids := make([]uint, 0, len(expense.Payments))
		for _, p := range expense.Payments {
			ids = append(ids, p.MembershipID)
		}
		var memberships []models.Membership
		if err := tx.Where("id IN ?", ids).Find(&memberships).Error; err != nil {
			return err
		}
		shares := ProrateShares(newAmount, memberships, property.TotalFractions)
		if len(shares) == 0 {
			return apperror.Conflict("nenhum dos proprietários da despesa possui cotas")
		}

		byMembership := make(map[uint]decimal.Decimal, len(shares))
		for _, share := range shares {
			byMembership[share.MembershipID] = share.Amount
		}
		for i := range expense.Payments {
			owed, ok := byMembership[expense.Payments[i].MembershipID]
			if !ok {
				// Member dropped to zero fractions since creation; their
				// share of the new amount is zero.
				owed = decimal.Zero
			}
			expense.Payments[i].AmountOwed = owed
			if err := tx.Model(&expense.Payments[i]).Update("amount_owed", owed).Error; err != nil {
				return err
			}
		}

		return tx.Model(&expense).Update("amount", newAmount.Round(2)).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(expense.PropertyID, actor.ID,
		fmt.Sprintf("a despesa %s teve o valor atualizado para R$ %s", expense.Description, newAmount.StringFixed(2)))
	return &expense, nil
}

// MarkPayment flips a payment row's paid flag and re-aggregates the
// expense status inside the same transaction. Only the payment's owner or
// a master may do it.
func (s *ExpenseService) MarkPayment(actor *models.User, paymentID uint, paid bool) (*models.Payment, error) {
	var payment models.Payment
	var propertyID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&payment, paymentID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("pagamento não encontrado")
			}
			return err
		}

		var expense models.Expense
		if err := tx.First(&expense, payment.ExpenseID).Error; err != nil {
			return err
		}
		if expense.Status == models.ExpenseStatusCancelled {
			return apperror.Conflict("não é possível alterar pagamentos de uma despesa cancelada")
		}
		propertyID = expense.PropertyID

		if payment.UserID != actor.ID {
			actorMembership, err := activeMembershipOf(tx, expense.PropertyID, actor.ID)
			if err != nil {
				return err
			}
			if !actorMembership.IsMaster() {
				return apperror.Forbidden("apenas o responsável pelo pagamento ou um proprietário master pode alterá-lo")
			}
		}

		payment.Paid = paid
		if paid {
			now := time.Now()
			payment.PaidAt = &now
		} else {
			payment.PaidAt = nil
		}
		if err := tx.Save(&payment).Error; err != nil {
			return err
		}

		var payments []models.Payment
		if err := tx.Where("expense_id = ?", expense.ID).Find(&payments).Error; err != nil {
			return err
		}
		newStatus := AggregateStatus(payments)
		if newStatus != expense.Status {
			return tx.Model(&expense).Update("status", newStatus).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if paid {
		s.notifier.Notify(propertyID, actor.ID, "um pagamento de despesa foi registrado")
	}
	return &payment, nil
}

// CancelExpense voids an expense before any payment has settled.
func (s *ExpenseService) CancelExpense(actor *models.User, expenseID uint) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var expense models.Expense
		if err := tx.Preload("Payments").First(&expense, expenseID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("despesa não encontrada")
			}
			return err
		}

		actorMembership, err := activeMembershipOf(tx, expense.PropertyID, actor.ID)
		if err != nil {
			return err
		}
		if !actorMembership.IsMaster() {
			return apperror.Forbidden("apenas um proprietário master pode cancelar despesas")
		}
		for _, p := range expense.Payments {
			if p.Paid {
				return apperror.Conflict("não é possível cancelar uma despesa com pagamentos registrados")
			}
		}

		return tx.Model(&expense).Update("status", models.ExpenseStatusCancelled).Error
	})
}

// MaterializeNextOccurrence creates the next occurrence of a recurring
// expense with a fresh proration over the current ledger, and detaches the
// recurrence from the old row so it is not materialized twice. Rules that
// are exhausted or unparseable also have their recurrence detached, so the
// sweep does not reselect the row forever. Called by the worker inside its
// own transaction.
func (s *ExpenseService) MaterializeNextOccurrence(tx *gorm.DB, expense models.Expense) (*models.Expense, error) {
	next := expense.NextDue()
	if !next.After(expense.DueDate) {
		if err := tx.Model(&expense).Update("recurring", false).Error; err != nil {
			return nil, err
		}
		return nil, nil
	}

	var property models.Property
	if err := tx.First(&property, expense.PropertyID).Error; err != nil {
		return nil, err
	}
	memberships, err := activeMemberships(tx, expense.PropertyID)
	if err != nil {
		return nil, err
	}
	shares := ProrateShares(expense.Amount, memberships, property.TotalFractions)
	if len(shares) == 0 {
		return nil, apperror.Conflict("o imóvel não possui proprietários com cotas para ratear")
	}

	occurrence := models.Expense{
		PropertyID:        expense.PropertyID,
		Description:       expense.Description,
		Category:          expense.Category,
		Amount:            expense.Amount,
		DueDate:           next,
		Recurring:         true,
		RecurringInterval: expense.RecurringInterval,
		Status:            models.ExpenseStatusPending,
	}
	if err := tx.Create(&occurrence).Error; err != nil {
		return nil, err
	}

	payments := make([]models.Payment, 0, len(shares))
	for _, share := range shares {
		payments = append(payments, models.Payment{
			ExpenseID:    occurrence.ID,
			MembershipID: share.MembershipID,
			UserID:       share.UserID,
			AmountOwed:   share.Amount,
		})
	}
	if err := tx.Create(&payments).Error; err != nil {
		return nil, err
	}

	if err := tx.Model(&expense).Update("recurring", false).Error; err != nil {
		return nil, err
	}
	return &occurrence, nil
}
