package services

import (
	"gorm.io/gorm"

	"qota_server/internal/apperror"
	"qota_server/internal/models"
)

// YearDays is the usage-day pool one full year of fractions represents.
const YearDays = 365.0

// LedgerService answers allocation questions for a property's membership
// set: how many fractions are assigned, how many remain, and what day
// balance a fraction count seeds.
type LedgerService struct {
	db *gorm.DB
}

func NewLedgerService(db *gorm.DB) *LedgerService {
	return &LedgerService{db: db}
}

// TotalAssigned returns the sum of fraction counts over the property's
// active memberships.
func (s *LedgerService) TotalAssigned(propertyID uint) (int, error) {
	return totalAssigned(s.db, propertyID)
}

// AvailableToAssign returns how many fractions of the property remain
// unassigned.
func (s *LedgerService) AvailableToAssign(propertyID uint) (int, error) {
	var property models.Property
	if err := s.db.First(&property, propertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return 0, apperror.NotFound("imóvel não encontrado")
		}
		return 0, err
	}
	assigned, err := totalAssigned(s.db, propertyID)
	if err != nil {
		return 0, err
	}
	return property.TotalFractions - assigned, nil
}

func totalAssigned(tx *gorm.DB, propertyID uint) (int, error) {
	var total int64
	err := tx.Model(&models.Membership{}).
		Where("property_id = ? AND status = ?", propertyID, models.MembershipStatusActive).
		Select("COALESCE(SUM(fraction_count), 0)").
		Scan(&total).Error
	return int(total), err
}

func activeMemberships(tx *gorm.DB, propertyID uint) ([]models.Membership, error) {
	var memberships []models.Membership
	err := tx.Where("property_id = ? AND status = ?", propertyID, models.MembershipStatusActive).
		Order("id asc").
		Find(&memberships).Error
	return memberships, err
}

// SeedDayBalance converts a fraction count into usage days. The result
// seeds CurrentDayBalance; the balance then runs independently and is
// never recomputed from the fraction count afterwards.
func SeedDayBalance(fractionCount int, daysPerFraction float64) float64 {
	return float64(fractionCount) * daysPerFraction
}

// MaxAssignable returns how many fractions one membership may hold given
// what everyone else already holds. Callers put this number in the error
// message so the client can retry with a valid value.
func MaxAssignable(totalFractions int, others []models.Membership) int {
	sum := 0
	for _, m := range others {
		sum += m.FractionCount
	}
	return totalFractions - sum
}

// CreatePropertyInput carries the fields needed to register a property.
type CreatePropertyInput struct {
	Name                  string
	Address               string
	TotalFractions        int
	MinStayDays           int
	MaxStayDays           int
	MaxActiveReservations int
	MaxHolidaysPerMember  int
	CancelGraceDays       int
}

// CreateProperty registers a property and seeds its ledger: the creator
// becomes master holding every fraction, with a full year of day balance.
func (s *LedgerService) CreateProperty(creator *models.User, input CreatePropertyInput) (*models.Property, error) {
	if input.TotalFractions <= 0 {
		return nil, apperror.Validation("o número total de cotas deve ser maior que zero")
	}
	if input.MinStayDays < 1 {
		input.MinStayDays = 1
	}
	if input.MaxStayDays < input.MinStayDays {
		return nil, apperror.Validation("a estadia máxima não pode ser menor que a mínima")
	}

	property := models.Property{
		Name:                  input.Name,
		Address:               input.Address,
		TotalFractions:        input.TotalFractions,
		DaysPerFraction:       YearDays / float64(input.TotalFractions),
		MinStayDays:           input.MinStayDays,
		MaxStayDays:           input.MaxStayDays,
		MaxActiveReservations: input.MaxActiveReservations,
		MaxHolidaysPerMember:  input.MaxHolidaysPerMember,
		CancelGraceDays:       input.CancelGraceDays,
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&property).Error; err != nil {
			return err
		}
		membership := models.Membership{
			PropertyID:        property.ID,
			UserID:            creator.ID,
			Role:              models.RoleMaster,
			FractionCount:     property.TotalFractions,
			CurrentDayBalance: SeedDayBalance(property.TotalFractions, property.DaysPerFraction),
			Status:            models.MembershipStatusActive,
		}
		return tx.Create(&membership).Error
	})
	if err != nil {
		return nil, err
	}
	return &property, nil
}
