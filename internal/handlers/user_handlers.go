package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"qota_server/internal/apperror"
	appmw "qota_server/internal/middleware"
	"qota_server/internal/models"
)

type UserHandler struct {
	db *gorm.DB
}

func NewUserHandler(db *gorm.DB) *UserHandler {
	return &UserHandler{db: db}
}

// Me returns the current user's profile.
func (h *UserHandler) Me(c echo.Context) error {
	return c.JSON(http.StatusOK, appmw.CurrentUser(c))
}

type updateProfileRequest struct {
	Name  *string `json:"name" validate:"omitempty,max=255"`
	Phone *string `json:"phone" validate:"omitempty,max=50"`
}

// UpdateMe edits the current user's profile.
func (h *UserHandler) UpdateMe(c echo.Context) error {
	user := appmw.CurrentUser(c)

	var req updateProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Phone != nil {
		user.Phone = *req.Phone
	}

	if err := h.db.Save(user).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, user)
}

// ListNotifications returns the current user's in-app notifications.
func (h *UserHandler) ListNotifications(c echo.Context) error {
	user := appmw.CurrentUser(c)

	var notifications []models.Notification
	if err := h.db.Where("user_id = ?", user.ID).
		Order("created_at desc").Limit(100).
		Find(&notifications).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead stamps one of the current user's notifications as
// read.
func (h *UserHandler) MarkNotificationRead(c echo.Context) error {
	user := appmw.CurrentUser(c)
	notificationID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var notification models.Notification
	if err := h.db.Where("id = ? AND user_id = ?", notificationID, user.ID).
		First(&notification).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("notificação não encontrada")
		}
		return err
	}
	if notification.ReadAt == nil {
		now := time.Now()
		if err := h.db.Model(&notification).Update("read_at", &now).Error; err != nil {
			return err
		}
	}
	return c.JSON(http.StatusOK, notification)
}
