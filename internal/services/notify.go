package services

import (
	"log"
	"time"

	"gorm.io/gorm"

	"qota_server/internal/models"
)

// TaskSendNotification fans a message out to a property's members.
const TaskSendNotification = "send_notification"

// Notifier enqueues member notifications through the scheduled-task outbox.
// It is called only after the primary transaction has committed: a failed
// enqueue is logged and dropped, never surfaced to the caller.
type Notifier struct {
	db *gorm.DB
}

func NewNotifier(db *gorm.DB) *Notifier {
	return &Notifier{db: db}
}

// Notify schedules a notification fan-out to every active member of the
// property except the author. Best-effort.
func (n *Notifier) Notify(propertyID, authorID uint, message string) {
	task := models.ScheduledTask{
		TaskName: TaskSendNotification,
		Arguments: map[string]interface{}{
			"property_id": propertyID,
			"author_id":   authorID,
			"message":     message,
		},
		Due:        time.Now(),
		Status:     models.ScheduledTaskStatusActive,
		TaskType:   models.ScheduledTaskTypeOneTime,
		MaxAttempt: 3,
	}
	if err := n.db.Create(&task).Error; err != nil {
		log.Printf("failed to enqueue notification for property %d: %v", propertyID, err)
	}
}
