package services

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"qota_server/internal/apperror"
	"qota_server/internal/models"
)

// ReservationService validates and books property stays. Creation runs
// a short-circuiting pipeline (existence, chronology, duration bounds,
// active-reservation cap, holiday cap, overlap) with the checks and the
// insert in one transaction so concurrent requests cannot both pass
// validation against the same dates.
type ReservationService struct {
	db       *gorm.DB
	holidays *HolidayService
	notifier *Notifier
}

func NewReservationService(db *gorm.DB, holidays *HolidayService, notifier *Notifier) *ReservationService {
	return &ReservationService{db: db, holidays: holidays, notifier: notifier}
}

// Overlaps reports whether the half-open ranges [aStart, aEnd) and
// [bStart, bEnd) intersect.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}

// StayLengthDays returns the number of nights in the half-open range.
func StayLengthDays(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

// TruncateToUTCDay drops the time-of-day component in UTC.
func TruncateToUTCDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// CountHolidaysInRange counts holiday dates falling inside the half-open
// range [start, end).
func CountHolidaysInRange(holidays []time.Time, start, end time.Time) int {
	count := 0
	for _, h := range holidays {
		if !h.Before(start) && h.Before(end) {
			count++
		}
	}
	return count
}

// Create validates and books a reservation for the half-open range
// [start, end) and debits the member's day balance by the stay length.
func (s *ReservationService) Create(ctx context.Context, user *models.User, propertyID uint, start, end time.Time) (*models.Reservation, error) {
	start = TruncateToUTCDay(start)
	end = TruncateToUTCDay(end)

	var reservation models.Reservation

	err := s.db.Transaction(func(tx *gorm.DB) error {
		// 1. Existence
		var property models.Property
		if err := tx.First(&property, propertyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("imóvel não encontrado")
			}
			return err
		}

		membership, err := activeMembershipOf(tx, propertyID, user.ID)
		if err != nil {
			return err
		}

		// 2. Chronology
		today := TruncateToUTCDay(time.Now().UTC())
		if !end.After(start) {
			return apperror.Validation("a data de saída deve ser posterior à data de entrada")
		}
		if start.Before(today) {
			return apperror.Validation("a data de entrada não pode estar no passado")
		}

		// 3. Duration bounds
		nights := StayLengthDays(start, end)
		if nights < property.MinStayDays || nights > property.MaxStayDays {
			return apperror.Validation("a estadia deve ter entre %d e %d diárias",
				property.MinStayDays, property.MaxStayDays)
		}

		// 4. Active-reservation quota
		if property.MaxActiveReservations > 0 {
			var active int64
			if err := tx.Model(&models.Reservation{}).
				Where("property_id = ? AND user_id = ? AND status = ? AND start_date >= ?",
					propertyID, user.ID, models.ReservationStatusConfirmed, today).
				Count(&active).Error; err != nil {
				return err
			}
			if int(active) >= property.MaxActiveReservations {
				return apperror.Conflict("limite de %d reservas ativas por proprietário atingido",
					property.MaxActiveReservations)
			}
		}

		// 5. Holiday quota
		if property.MaxHolidaysPerMember > 0 {
			if err := s.checkHolidayQuota(ctx, tx, property, user.ID, start, end); err != nil {
				return err
			}
		}

		// 6. Overlap
		var overlapping int64
		if err := tx.Model(&models.Reservation{}).
			Where("property_id = ? AND status <> ? AND start_date < ? AND end_date > ?",
				propertyID, models.ReservationStatusCancelled, end, start).
			Count(&overlapping).Error; err != nil {
			return err
		}
		if overlapping > 0 {
			return apperror.Conflict("o período selecionado conflita com uma reserva existente")
		}

		reservation = models.Reservation{
			PropertyID: propertyID,
			UserID:     user.ID,
			StartDate:  start,
			EndDate:    end,
			Status:     models.ReservationStatusConfirmed,
		}
		if err := tx.Create(&reservation).Error; err != nil {
			return err
		}

		membership.CurrentDayBalance -= float64(nights)
		return tx.Save(membership).Error
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(propertyID, user.ID,
		fmt.Sprintf("nova reserva de %s a %s", start.Format("02/01/2006"), end.Format("02/01/2006")))
	return &reservation, nil
}

// checkHolidayQuota enforces the per-year holiday cap: holidays already
// consumed by the member's other confirmed reservations plus the holidays
// the new range adds. The calendar lookup fails open, so a third-party
// outage never blocks a booking.
func (s *ReservationService) checkHolidayQuota(ctx context.Context, tx *gorm.DB, property models.Property, userID uint, start, end time.Time) error {
	lastNight := end.AddDate(0, 0, -1)
	var holidays []time.Time
	for year := start.Year(); year <= lastNight.Year(); year++ {
		yearHolidays, err := s.holidays.HolidaysForYear(ctx, year)
		if err != nil {
			// Fail open: a holiday lookup failure never blocks the booking.
			continue
		}
		holidays = append(holidays, yearHolidays...)
	}
	if len(holidays) == 0 {
		return nil
	}

	added := CountHolidaysInRange(holidays, start, end)
	if added == 0 {
		return nil
	}

	var others []models.Reservation
	if err := tx.Where("property_id = ? AND user_id = ? AND status = ?",
		property.ID, userID, models.ReservationStatusConfirmed).
		Find(&others).Error; err != nil {
		return err
	}
	existing := 0
	for _, r := range others {
		existing += CountHolidaysInRange(holidays, r.StartDate, r.EndDate)
	}

	if existing+added > property.MaxHolidaysPerMember {
		return apperror.Conflict(
			"limite de feriados excedido: você já utilizou %d e esta reserva adiciona %d (máximo %d por ano)",
			existing, added, property.MaxHolidaysPerMember)
	}
	return nil
}

// Cancel voids a confirmed reservation before check-in, restores the
// member's day balance and, when the cancellation falls inside the
// property's grace window, flags it for the penalty follow-up.
func (s *ReservationService) Cancel(actor *models.User, reservationID uint) error {
	var propertyID uint
	var insideGrace bool

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("reserva não encontrada")
			}
			return err
		}
		propertyID = reservation.PropertyID

		actorMembership, err := activeMembershipOf(tx, reservation.PropertyID, actor.ID)
		if err != nil {
			return err
		}
		if reservation.UserID != actor.ID && !actorMembership.IsMaster() {
			return apperror.Forbidden("apenas o responsável pela reserva ou um proprietário master pode cancelá-la")
		}
		if reservation.Status != models.ReservationStatusConfirmed {
			return apperror.Conflict("apenas reservas confirmadas podem ser canceladas")
		}

		var property models.Property
		if err := tx.First(&property, reservation.PropertyID).Error; err != nil {
			return err
		}
		graceStart := reservation.StartDate.AddDate(0, 0, -property.CancelGraceDays)
		insideGrace = time.Now().After(graceStart)

		var owner models.Membership
		if err := tx.Where("property_id = ? AND user_id = ? AND status = ?",
			reservation.PropertyID, reservation.UserID, models.MembershipStatusActive).
			First(&owner).Error; err == nil {
			owner.CurrentDayBalance += float64(reservation.Nights())
			if err := tx.Save(&owner).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&reservation).Updates(map[string]interface{}{
			"status":       models.ReservationStatusCancelled,
			"cancelled_at": &now,
		}).Error
	})
	if err != nil {
		return err
	}

	message := "uma reserva foi cancelada"
	if insideGrace {
		// Penalty arithmetic is a business rule outside this core; the
		// late cancellation is only flagged for follow-up.
		message = "uma reserva foi cancelada dentro do período de carência e está sujeita a penalidade"
	}
	s.notifier.Notify(propertyID, actor.ID, message)
	return nil
}

// CheckIn records the check-in inventory snapshot and moves the
// reservation to checked_in.
func (s *ReservationService) CheckIn(actor *models.User, reservationID uint, items map[string]interface{}, notes string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("reserva não encontrada")
			}
			return err
		}
		if reservation.UserID != actor.ID {
			return apperror.Forbidden("apenas o responsável pela reserva pode fazer o check-in")
		}
		if reservation.Status != models.ReservationStatusConfirmed {
			return apperror.Conflict("apenas reservas confirmadas permitem check-in")
		}
		today := TruncateToUTCDay(time.Now().UTC())
		if today.Before(reservation.StartDate) {
			return apperror.Conflict("o check-in só pode ser feito a partir da data de entrada")
		}

		checklist := models.Checklist{
			ReservationID: reservation.ID,
			Type:          models.ChecklistTypeCheckIn,
			Items:         items,
			Notes:         notes,
		}
		if err := tx.Create(&checklist).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&reservation).Updates(map[string]interface{}{
			"status":        models.ReservationStatusCheckedIn,
			"checked_in_at": &now,
		}).Error
	})
}

// CheckOut records the check-out inventory snapshot and completes the
// reservation.
func (s *ReservationService) CheckOut(actor *models.User, reservationID uint, items map[string]interface{}, notes string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var reservation models.Reservation
		if err := tx.First(&reservation, reservationID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("reserva não encontrada")
			}
			return err
		}
		if reservation.UserID != actor.ID {
			return apperror.Forbidden("apenas o responsável pela reserva pode fazer o check-out")
		}
		if reservation.Status != models.ReservationStatusCheckedIn {
			return apperror.Conflict("o check-out exige um check-in prévio")
		}

		checklist := models.Checklist{
			ReservationID: reservation.ID,
			Type:          models.ChecklistTypeCheckOut,
			Items:         items,
			Notes:         notes,
		}
		if err := tx.Create(&checklist).Error; err != nil {
			return err
		}

		now := time.Now()
		return tx.Model(&reservation).Updates(map[string]interface{}{
			"status":         models.ReservationStatusCompleted,
			"checked_out_at": &now,
		}).Error
	})
}
