package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	appmw "qota_server/internal/middleware"
	"qota_server/internal/models"
	"qota_server/internal/services"
)

type InviteHandler struct {
	db    *gorm.DB
	quota *services.QuotaService
}

func NewInviteHandler(db *gorm.DB, quota *services.QuotaService) *InviteHandler {
	return &InviteHandler{db: db, quota: quota}
}

type createInviteRequest struct {
	Email         string                `json:"email" validate:"required,email"`
	Role          models.MembershipRole `json:"role"`
	FractionCount int                   `json:"fraction_count" validate:"required,min=1"`
}

// StoreInvite offers fractions of a property to an email address.
func (h *InviteHandler) StoreInvite(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req createInviteRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	invite, err := h.quota.CreateInvite(user, propertyID, req.Email, req.Role, req.FractionCount)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, invite)
}

// ListInvites returns a property's pending invites. Pending rows past
// their expiry are reported as expired without waiting for a write.
func (h *InviteHandler) ListInvites(c echo.Context) error {
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

	var invites []models.Invite
	if err := h.db.Where("property_id = ?", propertyID).
		Order("created_at desc").Find(&invites).Error; err != nil {
		return err
	}
	lazyExpire(invites)
	return c.JSON(http.StatusOK, invites)
}

// ListMyInvites returns pending invites addressed to the current user's
// email.
func (h *InviteHandler) ListMyInvites(c echo.Context) error {
	user := appmw.CurrentUser(c)

	var invites []models.Invite
	if err := h.db.Preload("Property").Preload("Inviter").
		Where("invitee_email = ? AND status = ?", user.Email, models.InviteStatusPending).
		Order("created_at desc").Find(&invites).Error; err != nil {
		return err
	}
	lazyExpire(invites)
	return c.JSON(http.StatusOK, invites)
}

// AcceptInvite resolves the invite and moves the fractions.
func (h *InviteHandler) AcceptInvite(c echo.Context) error {
	user := appmw.CurrentUser(c)
	token := c.Param("token")

	membership, err := h.quota.AcceptInvite(token, user)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, membership)
}

// CancelInvite voids a pending invite.
func (h *InviteHandler) CancelInvite(c echo.Context) error {
	user := appmw.CurrentUser(c)
	token := c.Param("token")

	if err := h.quota.CancelInvite(user, token); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func lazyExpire(invites []models.Invite) {
	now := time.Now()
	for i := range invites {
		if invites[i].Status == models.InviteStatusPending && now.After(invites[i].ExpiresAt) {
			invites[i].Status = models.InviteStatusExpired
		}
	}
}
