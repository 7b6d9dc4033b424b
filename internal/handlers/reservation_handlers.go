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

type ReservationHandler struct {
	db           *gorm.DB
	reservations *services.ReservationService
}

func NewReservationHandler(db *gorm.DB, reservations *services.ReservationService) *ReservationHandler {
	return &ReservationHandler{db: db, reservations: reservations}
}

type createReservationRequest struct {
	StartDate string `json:"start_date" validate:"required"`
	EndDate   string `json:"end_date" validate:"required"`
}

// StoreReservation validates and books a stay.
func (h *ReservationHandler) StoreReservation(c echo.Context) error {
	user := appmw.CurrentUser(c)
	propertyID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req createReservationRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	start, err := time.ParseInLocation("2006-01-02", req.StartDate, time.UTC)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "data de entrada inválida")
	}
	end, err := time.ParseInLocation("2006-01-02", req.EndDate, time.UTC)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "data de saída inválida")
	}

	reservation, err := h.reservations.Create(c.Request().Context(), user, propertyID, start, end)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, reservation)
}

// ListReservations returns a property's reservation calendar.
func (h *ReservationHandler) ListReservations(c echo.Context) error {
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

	var reservations []models.Reservation
	if err := h.db.Preload("User").
		Where("property_id = ?", propertyID).
		Order("start_date asc").Find(&reservations).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reservations)
}

// ListMyReservations returns the current user's reservations across
// properties.
func (h *ReservationHandler) ListMyReservations(c echo.Context) error {
	user := appmw.CurrentUser(c)

	var reservations []models.Reservation
	if err := h.db.Preload("Property").
		Where("user_id = ?", user.ID).
		Order("start_date desc").Find(&reservations).Error; err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reservations)
}

// CancelReservation voids a confirmed reservation and restores the day
// balance.
func (h *ReservationHandler) CancelReservation(c echo.Context) error {
	user := appmw.CurrentUser(c)
	reservationID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.reservations.Cancel(user, reservationID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

type checklistRequest struct {
	Items map[string]interface{} `json:"items"`
	Notes string                 `json:"notes" validate:"max=2000"`
}

// CheckIn records the check-in inventory snapshot.
func (h *ReservationHandler) CheckIn(c echo.Context) error {
	user := appmw.CurrentUser(c)
	reservationID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req checklistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.reservations.CheckIn(user, reservationID, req.Items, req.Notes); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// CheckOut records the check-out snapshot and completes the reservation.
func (h *ReservationHandler) CheckOut(c echo.Context) error {
	user := appmw.CurrentUser(c)
	reservationID, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req checklistRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	if err := h.reservations.CheckOut(user, reservationID, req.Items, req.Notes); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
