package handlers

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"qota_server/internal/apperror"
	appmw "qota_server/internal/middleware"
	"qota_server/internal/models"
	"qota_server/internal/services"
)

type PropertyHandler struct {
	db     *gorm.DB
	ledger *services.LedgerService
	quota  *services.QuotaService
}

func NewPropertyHandler(db *gorm.DB, ledger *services.LedgerService, quota *services.QuotaService) *PropertyHandler {
	return &PropertyHandler{db: db, ledger: ledger, quota: quota}
}

type createPropertyRequest struct {
	Name                  string `json:"name" validate:"required,max=255"`
	Address               string `json:"address" validate:"max=500"`
	TotalFractions        int    `json:"total_fractions" validate:"required,min=1"`
	MinStayDays           int    `json:"min_stay_days" validate:"min=0"`
	MaxStayDays           int    `json:"max_stay_days" validate:"min=0"`
	MaxActiveReservations int    `json:"max_active_reservations" validate:"min=0"`
	MaxHolidaysPerMember  int    `json:"max_holidays_per_member" validate:"min=0"`
	CancelGraceDays       int    `json:"cancel_grace_days" validate:"min=0"`
}

// StoreProperty registers a property; the creator becomes master holding
// every fraction.
func (h *PropertyHandler) StoreProperty(c echo.Context) error {
	user := appmw.CurrentUser(c)

	var req createPropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	if req.MaxStayDays == 0 {
		req.MaxStayDays = 30
	}

	property, err := h.ledger.CreateProperty(user, services.CreatePropertyInput{
		Name:                  req.Name,
		Address:               req.Address,
		TotalFractions:        req.TotalFractions,
		MinStayDays:           req.MinStayDays,
		MaxStayDays:           req.MaxStayDays,
		MaxActiveReservations: req.MaxActiveReservations,
		MaxHolidaysPerMember:  req.MaxHolidaysPerMember,
		CancelGraceDays:       req.CancelGraceDays,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, property)
}

// ListProperties returns the properties the current user belongs to.
func (h *PropertyHandler) ListProperties(c echo.Context) error {
	user := appmw.CurrentUser(c)

	var memberships []models.Membership
	if err := h.db.Preload("Property").
		Where("user_id = ? AND status = ?", user.ID, models.MembershipStatusActive).
		Find(&memberships).Error; err != nil {
		return err
	}

	properties := make([]models.Property, 0, len(memberships))
	for _, m := range memberships {
		properties = append(properties, m.Property)
	}
	return c.JSON(http.StatusOK, properties)
}

// GetProperty returns one property with members and its ledger summary.
func (h *PropertyHandler) GetProperty(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var property models.Property
	if err := h.db.Preload("Memberships", "status = ?", models.MembershipStatusActive).
		Preload("Memberships.User").
		First(&property, propertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("imóvel não encontrado")
		}
		return err
	}

	isMember := false
	for _, m := range property.Memberships {
		if m.UserID == user.ID {
			isMember = true
		}
	}
	if !isMember {
		return apperror.Forbidden("usuário não é proprietário deste imóvel")
	}

	available, err := h.ledger.AvailableToAssign(property.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"property":            property,
		"available_fractions": available,
	})
}

type updatePropertyRequest struct {
	Name                  *string `json:"name" validate:"omitempty,max=255"`
	Address               *string `json:"address" validate:"omitempty,max=500"`
	MinStayDays           *int    `json:"min_stay_days" validate:"omitempty,min=1"`
	MaxStayDays           *int    `json:"max_stay_days" validate:"omitempty,min=1"`
	MaxActiveReservations *int    `json:"max_active_reservations" validate:"omitempty,min=0"`
	MaxHolidaysPerMember  *int    `json:"max_holidays_per_member" validate:"omitempty,min=0"`
	CancelGraceDays       *int    `json:"cancel_grace_days" validate:"omitempty,min=0"`
}

// UpdateProperty edits a property's descriptive fields and scheduling
// rules. TotalFractions is fixed at creation and not editable.
func (h *PropertyHandler) UpdateProperty(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req updatePropertyRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	var property models.Property
	if err := h.db.First(&property, propertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("imóvel não encontrado")
		}
		return err
	}
	if err := h.requireMaster(user.ID, property.ID); err != nil {
		return err
	}

	if req.Name != nil {
		property.Name = *req.Name
	}
	if req.Address != nil {
		property.Address = *req.Address
	}
	if req.MinStayDays != nil {
		property.MinStayDays = *req.MinStayDays
	}
	if req.MaxStayDays != nil {
		property.MaxStayDays = *req.MaxStayDays
	}
	if property.MaxStayDays < property.MinStayDays {
		return apperror.Validation("a estadia máxima não pode ser menor que a mínima")
	}
	if req.MaxActiveReservations != nil {
		property.MaxActiveReservations = *req.MaxActiveReservations
	}
	if req.MaxHolidaysPerMember != nil {
		property.MaxHolidaysPerMember = *req.MaxHolidaysPerMember
	}
	if req.CancelGraceDays != nil {
		property.CancelGraceDays = *req.CancelGraceDays
	}

	if err := h.db.Save(&property).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, property)
}

// DeleteProperty soft-deletes a property. Master only.
func (h *PropertyHandler) DeleteProperty(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var property models.Property
	if err := h.db.First(&property, propertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("imóvel não encontrado")
		}
		return err
	}
	if err := h.requireMaster(user.ID, property.ID); err != nil {
		return err
	}

	if err := h.db.Delete(&property).Error; err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type updateQuotaRequest struct {
	FractionCount *int `json:"fraction_count" validate:"required,min=0"`
}

// UpdateQuota sets a membership's fraction count; the delta comes out of
// the requesting master's own allocation.
func (h *PropertyHandler) UpdateQuota(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	membershipID, err := paramID(c, "membershipId")
	if err != nil {
		return err
	}

	var req updateQuotaRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.quota.UpdateQuota(user, propertyID, membershipID, *req.FractionCount); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type changeRoleRequest struct {
	Role models.MembershipRole `json:"role" validate:"required"`
}

// ChangeRole promotes or demotes a membership.
func (h *PropertyHandler) ChangeRole(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	membershipID, err := paramID(c, "membershipId")
	if err != nil {
		return err
	}

	var req changeRoleRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.quota.ChangeRole(user, propertyID, membershipID, req.Role); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// Unlink removes a membership; its fractions return to the master.
func (h *PropertyHandler) Unlink(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	membershipID, err := paramID(c, "membershipId")
	if err != nil {
		return err
	}

	if err := h.quota.Unlink(user, propertyID, membershipID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *PropertyHandler) requireMaster(userID, propertyID uint) error {
	var membership models.Membership
	err := h.db.Where("property_id = ? AND user_id = ? AND status = ?",
		propertyID, userID, models.MembershipStatusActive).First(&membership).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.Forbidden("usuário não é proprietário deste imóvel")
		}
		return err
	}
	if !membership.IsMaster() {
		return apperror.Forbidden("apenas um proprietário master pode executar esta operação")
	}
	return nil
}

func paramID(c echo.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, "identificador inválido")
	}
	return uint(id), nil
}
