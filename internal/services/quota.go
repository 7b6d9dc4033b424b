package services

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"qota_server/internal/apperror"
	"qota_server/internal/models"
)

// QuotaService moves fractions between memberships of one property:
// invite creation and acceptance, direct quota edits, role changes and
// member unlinking. Every operation validates and writes inside a single
// transaction so a losing concurrent update never sees stale totals.
type QuotaService struct {
	db       *gorm.DB
	notifier *Notifier
}

func NewQuotaService(db *gorm.DB, notifier *Notifier) *QuotaService {
	return &QuotaService{db: db, notifier: notifier}
}

// validateRoleChange applies the role guards: a membership with zero
// fractions cannot become master, and a master can only be demoted when
// another master remains.
func validateRoleChange(target models.Membership, newRole models.MembershipRole, otherMasters int64) error {
	if newRole == models.RoleMaster && target.FractionCount == 0 {
		return apperror.Conflict("não é possível promover um proprietário sem cotas")
	}
	if newRole == models.RoleCommon && target.IsMaster() && otherMasters == 0 {
		return apperror.Conflict("não é possível rebaixar o último proprietário master")
	}
	return nil
}

// validateTransferAmount checks the donor can afford to give up amount
// fractions. The exact deficit goes into the message.
func validateTransferAmount(donor models.Membership, amount int) error {
	if amount <= 0 {
		return apperror.Validation("a quantidade de cotas deve ser maior que zero")
	}
	if donor.FractionCount < amount {
		return apperror.Conflict("o proprietário possui apenas %d cotas", donor.FractionCount)
	}
	return nil
}

func activeMembershipOf(tx *gorm.DB, propertyID, userID uint) (*models.Membership, error) {
	var m models.Membership
	err := tx.Where("property_id = ? AND user_id = ? AND status = ?",
		propertyID, userID, models.MembershipStatusActive).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, apperror.Forbidden("usuário não é proprietário deste imóvel")
		}
		return nil, err
	}
	return &m, nil
}

func countMasters(tx *gorm.DB, propertyID uint, excludeID uint) (int64, error) {
	var count int64
	err := tx.Model(&models.Membership{}).
		Where("property_id = ? AND status = ? AND role = ? AND id <> ?",
			propertyID, models.MembershipStatusActive, models.RoleMaster, excludeID).
		Count(&count).Error
	return count, err
}

// CreateInvite offers fractions of a property to an email address. The
// fractions only move when the invite is accepted, but availability is
// validated up front so the master gets an immediate deficit message.
func (s *QuotaService) CreateInvite(inviter *models.User, propertyID uint, email string, role models.MembershipRole, fractions int) (*models.Invite, error) {
	var invite models.Invite

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.First(&property, propertyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("imóvel não encontrado")
			}
			return err
		}

		membership, err := activeMembershipOf(tx, propertyID, inviter.ID)
		if err != nil {
			return err
		}
		if !membership.IsMaster() {
			return apperror.Forbidden("apenas um proprietário master pode enviar convites")
		}
		if err := validateTransferAmount(*membership, fractions); err != nil {
			return err
		}
		if role != models.RoleMaster && role != models.RoleCommon {
			role = models.RoleCommon
		}

		invite = models.Invite{
			Token:         uuid.NewString(),
			PropertyID:    propertyID,
			InviterID:     inviter.ID,
			InviteeEmail:  email,
			ProposedRole:  role,
			FractionCount: fractions,
			Status:        models.InviteStatusPending,
			ExpiresAt:     time.Now().Add(models.InviteTTL),
		}
		return tx.Create(&invite).Error
	})
	if err != nil {
		return nil, err
	}
	return &invite, nil
}

// AcceptInvite resolves a pending invite: the inviter's fractions are
// deducted and the invitee's membership is created or topped up, all
// atomically. The inviter must still be master and still hold enough
// fractions at acceptance time.
func (s *QuotaService) AcceptInvite(token string, invitee *models.User) (*models.Membership, error) {
	var result models.Membership
	var propertyID uint

	err := s.db.Transaction(func(tx *gorm.DB) error {
		var invite models.Invite
		if err := tx.Where("token = ?", token).First(&invite).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("convite não encontrado")
			}
			return err
		}
		if invite.Status != models.InviteStatusPending {
			return apperror.Conflict("este convite já foi utilizado ou cancelado")
		}
		// expired status is persisted lazily by the list endpoints
		if invite.Expired() {
			return apperror.Conflict("este convite expirou")
		}
		if invite.InviteeEmail != invitee.Email {
			return apperror.Forbidden("este convite foi enviado para outro e-mail")
		}

		var property models.Property
		if err := tx.First(&property, invite.PropertyID).Error; err != nil {
			return err
		}
		propertyID = property.ID

		inviterMembership, err := activeMembershipOf(tx, invite.PropertyID, invite.InviterID)
		if err != nil {
			return err
		}
		if !inviterMembership.IsMaster() {
			return apperror.Conflict("quem enviou o convite não é mais proprietário master")
		}
		if inviterMembership.FractionCount < invite.FractionCount {
			return apperror.Conflict("o proprietário master possui apenas %d cotas", inviterMembership.FractionCount)
		}

		inviterMembership.FractionCount -= invite.FractionCount
		if err := tx.Save(inviterMembership).Error; err != nil {
			return err
		}

		var membership models.Membership
		err = tx.Where("property_id = ? AND user_id = ? AND status = ?",
			invite.PropertyID, invitee.ID, models.MembershipStatusActive).First(&membership).Error
		switch {
		case err == gorm.ErrRecordNotFound:
			membership = models.Membership{
				PropertyID:        invite.PropertyID,
				UserID:            invitee.ID,
				Role:              invite.ProposedRole,
				FractionCount:     invite.FractionCount,
				CurrentDayBalance: SeedDayBalance(invite.FractionCount, property.DaysPerFraction),
				Status:            models.MembershipStatusActive,
			}
			if err := tx.Create(&membership).Error; err != nil {
				return err
			}
		case err != nil:
			return err
		default:
			// Existing member: the new fractions were never consumable
			// before, so their day value tops up the running balance.
			membership.FractionCount += invite.FractionCount
			membership.CurrentDayBalance += SeedDayBalance(invite.FractionCount, property.DaysPerFraction)
			if err := tx.Save(&membership).Error; err != nil {
				return err
			}
		}

		if err := tx.Model(&invite).Update("status", models.InviteStatusAccepted).Error; err != nil {
			return err
		}
		result = membership
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifier.Notify(propertyID, invitee.ID,
		fmt.Sprintf("%s aceitou o convite e agora é proprietário do imóvel", invitee.Name))
	return &result, nil
}

// CancelInvite voids a pending invite. Only the inviter may cancel.
func (s *QuotaService) CancelInvite(actor *models.User, token string) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var invite models.Invite
		if err := tx.Where("token = ?", token).First(&invite).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("convite não encontrado")
			}
			return err
		}
		if invite.InviterID != actor.ID {
			return apperror.Forbidden("apenas quem enviou o convite pode cancelá-lo")
		}
		if invite.Status != models.InviteStatusPending {
			return apperror.Conflict("este convite já foi utilizado ou cancelado")
		}
		return tx.Model(&invite).Update("status", models.InviteStatusCancelled).Error
	})
}

// TransferFractions moves amount fractions between two memberships of the
// same property. This is the primitive behind direct quota edits: both
// sides are validated and written in one transaction.
func (s *QuotaService) TransferFractions(propertyID, fromMembershipID, toMembershipID uint, amount int) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return transferFractions(tx, propertyID, fromMembershipID, toMembershipID, amount)
	})
}

func transferFractions(tx *gorm.DB, propertyID, fromID, toID uint, amount int) error {
	if fromID == toID {
		return apperror.Validation("não é possível transferir cotas para o mesmo proprietário")
	}

	var property models.Property
	if err := tx.First(&property, propertyID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("imóvel não encontrado")
		}
		return err
	}

	var from, to models.Membership
	if err := tx.Where("id = ? AND property_id = ? AND status = ?", fromID, propertyID, models.MembershipStatusActive).First(&from).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("proprietário de origem não encontrado")
		}
		return err
	}
	if err := tx.Where("id = ? AND property_id = ? AND status = ?", toID, propertyID, models.MembershipStatusActive).First(&to).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return apperror.NotFound("proprietário de destino não encontrado")
		}
		return err
	}

	if err := validateTransferAmount(from, amount); err != nil {
		return err
	}

	from.FractionCount -= amount
	to.FractionCount += amount
	to.CurrentDayBalance += SeedDayBalance(amount, property.DaysPerFraction)

	if err := tx.Save(&from).Error; err != nil {
		return err
	}
	return tx.Save(&to).Error
}

// UpdateQuota sets a membership's fraction count to newCount. The delta is
// implicitly taken from (or returned to) the requesting master's own
// membership, so the property total never changes.
func (s *QuotaService) UpdateQuota(actor *models.User, propertyID, targetMembershipID uint, newCount int) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.First(&property, propertyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("imóvel não encontrado")
			}
			return err
		}
		if newCount < 0 {
			return apperror.Validation("a quantidade de cotas não pode ser negativa")
		}

		actorMembership, err := activeMembershipOf(tx, propertyID, actor.ID)
		if err != nil {
			return err
		}
		if !actorMembership.IsMaster() {
			return apperror.Forbidden("apenas um proprietário master pode editar cotas")
		}

		memberships, err := activeMemberships(tx, propertyID)
		if err != nil {
			return err
		}
		if len(memberships) < 2 {
			return apperror.Conflict("não é possível editar cotas quando o imóvel possui apenas um proprietário")
		}

		var target *models.Membership
		for i := range memberships {
			if memberships[i].ID == targetMembershipID {
				target = &memberships[i]
			}
		}
		if target == nil {
			return apperror.NotFound("proprietário não encontrado neste imóvel")
		}

		if target.ID == actorMembership.ID {
			// Editing one's own quota has no counterparty; the new count
			// just cannot squeeze the other members past the total.
			others := make([]models.Membership, 0, len(memberships)-1)
			for _, m := range memberships {
				if m.ID != target.ID {
					others = append(others, m)
				}
			}
			max := MaxAssignable(property.TotalFractions, others)
			if newCount > max {
				return apperror.Conflict("o valor máximo de cotas disponíveis é %d", max)
			}
			delta := newCount - target.FractionCount
			target.FractionCount = newCount
			if delta > 0 {
				target.CurrentDayBalance += SeedDayBalance(delta, property.DaysPerFraction)
			}
			return tx.Save(target).Error
		}

		delta := newCount - target.FractionCount
		switch {
		case delta > 0:
			return transferFractions(tx, propertyID, actorMembership.ID, target.ID, delta)
		case delta < 0:
			if err := validateTransferAmount(*target, -delta); err != nil {
				return err
			}
			return transferFractions(tx, propertyID, target.ID, actorMembership.ID, -delta)
		default:
			return nil
		}
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(propertyID, actor.ID, "as cotas do imóvel foram redistribuídas")
	return nil
}

// ChangeRole promotes or demotes a membership. A membership with zero
// fractions cannot become master, and the last master can never be demoted.
func (s *QuotaService) ChangeRole(actor *models.User, propertyID, targetMembershipID uint, newRole models.MembershipRole) error {
	if newRole != models.RoleMaster && newRole != models.RoleCommon {
		return apperror.Validation("papel inválido")
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		actorMembership, err := activeMembershipOf(tx, propertyID, actor.ID)
		if err != nil {
			return err
		}
		if !actorMembership.IsMaster() {
			return apperror.Forbidden("apenas um proprietário master pode alterar papéis")
		}

		var target models.Membership
		if err := tx.Where("id = ? AND property_id = ? AND status = ?",
			targetMembershipID, propertyID, models.MembershipStatusActive).First(&target).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("proprietário não encontrado neste imóvel")
			}
			return err
		}
		if target.Role == newRole {
			return nil
		}

		otherMasters, err := countMasters(tx, propertyID, target.ID)
		if err != nil {
			return err
		}
		if err := validateRoleChange(target, newRole, otherMasters); err != nil {
			return err
		}

		return tx.Model(&target).Update("role", newRole).Error
	})
}

// Unlink removes a membership from a property. Its fractions return to
// the property's master. The acting user must be the member themselves or
// a master; the only remaining membership can never be unlinked.
func (s *QuotaService) Unlink(actor *models.User, propertyID, targetMembershipID uint) error {
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var property models.Property
		if err := tx.First(&property, propertyID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("imóvel não encontrado")
			}
			return err
		}

		actorMembership, err := activeMembershipOf(tx, propertyID, actor.ID)
		if err != nil {
			return err
		}

		var target models.Membership
		if err := tx.Where("id = ? AND property_id = ? AND status = ?",
			targetMembershipID, propertyID, models.MembershipStatusActive).First(&target).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return apperror.NotFound("proprietário não encontrado neste imóvel")
			}
			return err
		}
		if target.ID != actorMembership.ID && !actorMembership.IsMaster() {
			return apperror.Forbidden("apenas o próprio proprietário ou um master pode removê-lo")
		}

		var remaining int64
		if err := tx.Model(&models.Membership{}).
			Where("property_id = ? AND status = ? AND id <> ?",
				propertyID, models.MembershipStatusActive, target.ID).
			Count(&remaining).Error; err != nil {
			return err
		}
		if remaining == 0 {
			return apperror.Conflict("não é possível remover o único proprietário do imóvel")
		}

		if target.IsMaster() {
			otherMasters, err := countMasters(tx, propertyID, target.ID)
			if err != nil {
				return err
			}
			if otherMasters == 0 {
				return apperror.Conflict("não é possível remover o último proprietário master")
			}
		}

		if target.FractionCount > 0 {
			var recipient models.Membership
			if err := tx.Where("property_id = ? AND status = ? AND role = ? AND id <> ?",
				propertyID, models.MembershipStatusActive, models.RoleMaster, target.ID).
				Order("id asc").First(&recipient).Error; err != nil {
				return err
			}
			recipient.FractionCount += target.FractionCount
			recipient.CurrentDayBalance += SeedDayBalance(target.FractionCount, property.DaysPerFraction)
			if err := tx.Save(&recipient).Error; err != nil {
				return err
			}
		}

		now := time.Now()
		return tx.Model(&target).Updates(map[string]interface{}{
			"status":              models.MembershipStatusRemoved,
			"removed_at":          &now,
			"fraction_count":      0,
			"current_day_balance": 0,
		}).Error
	})
	if err != nil {
		return err
	}

	s.notifier.Notify(propertyID, actor.ID, "um proprietário foi desvinculado do imóvel")
	return nil
}
