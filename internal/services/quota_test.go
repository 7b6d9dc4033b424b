package services

import (
	"strings"
	"testing"

	"qota_server/internal/apperror"
	"qota_server/internal/models"
)

func TestValidateTransferAmount(t *testing.T) {
	donor := member(1, 1, models.RoleMaster, 5)

	tests := []struct {
		name        string
		amount      int
		wantKind    apperror.Kind
		wantMessage string
		wantOK      bool
	}{
		{name: "exactly the full balance", amount: 5, wantOK: true},
		{name: "part of the balance", amount: 3, wantOK: true},
		{name: "one more than held", amount: 6, wantKind: apperror.KindConflict, wantMessage: "possui apenas 5"},
		{name: "zero", amount: 0, wantKind: apperror.KindValidation},
		{name: "negative", amount: -2, wantKind: apperror.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateTransferAmount(donor, tt.amount)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			appErr, ok := apperror.As(err)
			if !ok {
				t.Fatalf("expected an application error, got %v", err)
			}
			if appErr.Kind != tt.wantKind {
				t.Errorf("kind = %d; want %d", appErr.Kind, tt.wantKind)
			}
			if tt.wantMessage != "" && !strings.Contains(appErr.Message, tt.wantMessage) {
				t.Errorf("message %q does not cite the deficit %q", appErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestValidateRoleChange(t *testing.T) {
	tests := []struct {
		name         string
		target       models.Membership
		newRole      models.MembershipRole
		otherMasters int64
		wantMessage  string
		wantOK       bool
	}{
		{
			name:    "promoting a member with fractions",
			target:  member(2, 2, models.RoleCommon, 10),
			newRole: models.RoleMaster,
			wantOK:  true,
		},
		{
			name:        "promoting a member without fractions",
			target:      member(2, 2, models.RoleCommon, 0),
			newRole:     models.RoleMaster,
			wantMessage: "não é possível promover um proprietário sem cotas",
		},
		{
			name:         "demoting a master when another remains",
			target:       member(1, 1, models.RoleMaster, 20),
			newRole:      models.RoleCommon,
			otherMasters: 1,
			wantOK:       true,
		},
		{
			name:        "demoting the last master",
			target:      member(1, 1, models.RoleMaster, 52),
			newRole:     models.RoleCommon,
			wantMessage: "não é possível rebaixar o último proprietário master",
		},
		{
			name:    "demoting a common member is a no-op guard-wise",
			target:  member(3, 3, models.RoleCommon, 5),
			newRole: models.RoleCommon,
			wantOK:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRoleChange(tt.target, tt.newRole, tt.otherMasters)
			if tt.wantOK {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			appErr, ok := apperror.As(err)
			if !ok {
				t.Fatalf("expected an application error, got %v", err)
			}
			if appErr.Kind != apperror.KindConflict {
				t.Errorf("kind = %d; want %d", appErr.Kind, apperror.KindConflict)
			}
			if appErr.Message != tt.wantMessage {
				t.Errorf("message = %q; want %q", appErr.Message, tt.wantMessage)
			}
		})
	}
}

func TestMaxAssignable(t *testing.T) {
	tests := []struct {
		name           string
		totalFractions int
		others         []models.Membership
		expected       int
	}{
		{
			name:           "fully allocated elsewhere",
			totalFractions: 52,
			others: []models.Membership{
				member(2, 2, models.RoleCommon, 30),
				member(3, 3, models.RoleCommon, 22),
			},
			expected: 0,
		},
		{
			name:           "room to grow",
			totalFractions: 52,
			others:         []models.Membership{member(2, 2, models.RoleCommon, 10)},
			expected:       42,
		},
		{
			name:           "no other members",
			totalFractions: 52,
			others:         nil,
			expected:       52,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := MaxAssignable(tt.totalFractions, tt.others); got != tt.expected {
				t.Errorf("MaxAssignable() = %d; want %d", got, tt.expected)
			}
		})
	}
}
