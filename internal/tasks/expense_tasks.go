package tasks

import (
	"context"
	"log"
	"time"

	"gorm.io/gorm"

	"qota_server/internal/models"
	"qota_server/internal/services"
)

// MaterializeExpensesTaskDef sweeps recurring expenses whose due date has
// passed and creates the next occurrence with a fresh proration over the
// current ledger. Registered as a recurring task so the worker runs it on
// every due tick.
type MaterializeExpensesTaskDef struct{}

// TaskID returns the unique identifier for this task
func (t *MaterializeExpensesTaskDef) TaskID() string {
	return "materialize_recurring_expenses"
}

// HandleExecution walks due recurring expenses, each inside its own
// transaction so one failure does not block the rest of the sweep.
func (t *MaterializeExpensesTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	var due []models.Expense
	if err := db.Where("recurring = ? AND due_date <= ?", true, time.Now()).
		Find(&due).Error; err != nil {
		return nil, err
	}

	expenseService := services.NewExpenseService(db, services.NewNotifier(db))

	created := 0
	failures := 0
	for _, expense := range due {
		if ctx.Err() != nil {
			break
		}
		var occurrence *models.Expense
		err := db.Transaction(func(tx *gorm.DB) error {
			var err error
			occurrence, err = expenseService.MaterializeNextOccurrence(tx, expense)
			return err
		})
		if err != nil {
			log.Printf("failed to materialize expense %d: %v", expense.ID, err)
			failures++
			continue
		}
		if occurrence != nil {
			created++
		}
	}

	return map[string]interface{}{
		"status":   "success",
		"swept":    len(due),
		"created":  created,
		"failures": failures,
	}, nil
}

// MaterializeExpensesTask is the singleton instance of MaterializeExpensesTaskDef
var MaterializeExpensesTask = &MaterializeExpensesTaskDef{}

// EnsureMaterializeTask seeds the recurring sweep task row if it does not
// exist yet. Called once at worker startup.
func EnsureMaterializeTask(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.ScheduledTask{}).
		Where("task_name = ? AND status = ?", MaterializeExpensesTask.TaskID(), models.ScheduledTaskStatusActive).
		Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	daily := "FREQ=DAILY"
	task, err := BuildScheduledTask(MaterializeExpensesTask.TaskID(), map[string]interface{}{},
		time.Now(), &daily, models.ScheduledTaskTypeRecurring, 1)
	if err != nil {
		return err
	}
	return db.Create(task).Error
}
