package authz

import (
	"testing"

	"github.com/samvad/campus/backend/internal/models"
)

func uintPtr(v uint) *uint { return &v }

func TestCanManageClub_Matrix(t *testing.T) {
	club := &models.Club{
		ID:            1,
		AdminID:       10,
		CoordinatorID: uintPtr(20),
		// sub-coordinator intentionally unset
	}

	tests := []struct {
		name string
		user *models.User
		want bool
	}{
		{"primary admin", &models.User{ID: 10, Role: models.RoleClubAdmin}, true},
		{"coordinator", &models.User{ID: 20, Role: models.RoleStudent}, true},
		{"super admin unrelated", &models.User{ID: 99, Role: models.RoleSuperAdmin}, true},
		{"unrelated student", &models.User{ID: 30, Role: models.RoleStudent}, false},
		{"unrelated club admin", &models.User{ID: 40, Role: models.RoleClubAdmin}, false},
		{"admin id match but different club field", &models.User{ID: 21, Role: models.RoleStudent}, false},
		{"nil user", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanManageClub(tt.user, club); got != tt.want {
				t.Errorf("CanManageClub() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCanManageClub_SubCoordinator(t *testing.T) {
	club := &models.Club{ID: 2, AdminID: 1, SubCoordinatorID: uintPtr(7)}

	if !CanManageClub(&models.User{ID: 7, Role: models.RoleStudent}, club) {
		t.Error("sub-coordinator should hold delegated authority")
	}
	if CanManageClub(&models.User{ID: 8, Role: models.RoleStudent}, club) {
		t.Error("non-delegate should not hold authority")
	}
}

func TestCanManageClub_NilClub(t *testing.T) {
	u := &models.User{ID: 1, Role: models.RoleSuperAdmin}
	if CanManageClub(u, nil) {
		t.Error("nil club must never be manageable")
	}
}

func TestClubDelegates(t *testing.T) {
	tests := []struct {
		name string
		club *models.Club
		want []uint
	}{
		{"admin only", &models.Club{AdminID: 1}, []uint{1}},
		{"admin and coordinator", &models.Club{AdminID: 1, CoordinatorID: uintPtr(2)}, []uint{1, 2}},
		{"all three", &models.Club{AdminID: 1, CoordinatorID: uintPtr(2), SubCoordinatorID: uintPtr(3)}, []uint{1, 2, 3}},
		{"nil club", nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ClubDelegates(tt.club)
			if len(got) != len(tt.want) {
				t.Fatalf("ClubDelegates() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("delegate[%d] = %d, want %d", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestCanCreateClub(t *testing.T) {
	tests := []struct {
		role models.Role
		want bool
	}{
		{models.RoleStudent, false},
		{models.RoleClubAdmin, true},
		{models.RoleSuperAdmin, true},
	}

	for _, tt := range tests {
		u := &models.User{ID: 1, Role: tt.role}
		if got := CanCreateClub(u); got != tt.want {
			t.Errorf("CanCreateClub(%s) = %v, want %v", tt.role, got, tt.want)
		}
	}

	if CanCreateClub(nil) {
		t.Error("nil user cannot create clubs")
	}
}

func TestCanDeleteUser_SelfProtection(t *testing.T) {
	admin := &models.User{ID: 5, Role: models.RoleSuperAdmin}

	if CanDeleteUser(admin, admin) {
		t.Error("super admin must not delete their own account")
	}
	if CanDeleteUser(admin, &models.User{ID: 5}) {
		t.Error("self-protection must key on ID, not pointer identity")
	}
	if !CanDeleteUser(admin, &models.User{ID: 6}) {
		t.Error("deleting another user should be permitted")
	}
}

func TestLevel_Ordering(t *testing.T) {
	if !(Level(models.RoleStudent) < Level(models.RoleClubAdmin)) {
		t.Error("student should rank below club_admin")
	}
	if !(Level(models.RoleClubAdmin) < Level(models.RoleSuperAdmin)) {
		t.Error("club_admin should rank below super_admin")
	}
	if Level(models.Role("bogus")) >= Level(models.RoleStudent) {
		t.Error("unknown roles must rank below student")
	}
}
