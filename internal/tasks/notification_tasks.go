package tasks

import (
	"context"
	"fmt"
	"log"

	"gorm.io/gorm"

	"qota_server/internal/models"
	"qota_server/internal/services"
)

// SendNotificationTaskDef fans one message out to every active member of
// a property except the author: an in-app Notification row always, an
// email when the member has one on file.
type SendNotificationTaskDef struct {
	Email *services.EmailService
}

// TaskID returns the unique identifier for this task
func (t *SendNotificationTaskDef) TaskID() string {
	return services.TaskSendNotification
}

// HandleExecution delivers the notification to each recipient. A single
// recipient failing does not fail the whole fan-out; failures are counted
// and reported in the result.
func (t *SendNotificationTaskDef) HandleExecution(ctx context.Context, db *gorm.DB, task models.ScheduledTask) (map[string]interface{}, error) {
	propertyID, ok := argUint(task.Arguments, "property_id")
	if !ok {
		return nil, fmt.Errorf("missing property_id argument")
	}
	authorID, _ := argUint(task.Arguments, "author_id")
	message, _ := task.Arguments["message"].(string)

	var property models.Property
	if err := db.First(&property, propertyID).Error; err != nil {
		return nil, fmt.Errorf("failed to load property %d: %w", propertyID, err)
	}

	var memberships []models.Membership
	if err := db.Preload("User").
		Where("property_id = ? AND status = ?", propertyID, models.MembershipStatusActive).
		Find(&memberships).Error; err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	delivered := 0
	emailFailures := 0
	for _, m := range memberships {
		if m.UserID == authorID {
			continue
		}

		notification := models.Notification{
			UserID:     m.UserID,
			PropertyID: propertyID,
			AuthorID:   authorID,
			Message:    message,
		}
		if err := db.Create(&notification).Error; err != nil {
			log.Printf("failed to store notification for user %d: %v", m.UserID, err)
			continue
		}
		delivered++

		if t.Email != nil && m.User.Email != "" {
			subject := fmt.Sprintf("QOTA - %s", property.Name)
			if err := t.Email.SendEmail([]string{m.User.Email}, subject, message); err != nil {
				log.Printf("failed to email %s: %v", m.User.Email, err)
				emailFailures++
			}
		}
	}

	return map[string]interface{}{
		"status":         "success",
		"delivered":      delivered,
		"email_failures": emailFailures,
	}, nil
}

// SendNotificationTask is the singleton instance of SendNotificationTaskDef
var SendNotificationTask = &SendNotificationTaskDef{}
