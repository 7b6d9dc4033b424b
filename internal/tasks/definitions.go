package tasks

import (
	"qota_server/internal/services"
)

// Initialize wires task singletons to their collaborators.
func Initialize(email *services.EmailService) {
	SendNotificationTask.Email = email
}

// DefineTasks registers all available tasks
func DefineTasks() {
	RegisterHandler(SendNotificationTask.TaskID(), SendNotificationTask.HandleExecution)
	RegisterHandler(MaterializeExpensesTask.TaskID(), MaterializeExpensesTask.HandleExecution)
}
