// Package authz holds the authorization core: the role lattice and the club
// authority resolver. Every mutating club, event, announcement and photo
// operation reduces to CanManageClub; no call site re-implements the rule.
package authz

import (
	"github.com/samvad/campus/backend/internal/models"
)

// roleLevel orders the three roles by global privilege. The ordering is used
// for display and sanity checks only; authority over a club is resolved
// through delegation, not the global level, except for super_admin.
var roleLevel = map[models.Role]int{
	models.RoleStudent:    0,
	models.RoleClubAdmin:  1,
	models.RoleSuperAdmin: 2,
}

// Level returns the lattice position of a role. Unknown roles rank below
// student so a corrupt row never gains authority.
func Level(r models.Role) int {
	if lvl, ok := roleLevel[r]; ok {
		return lvl
	}
	return -1
}

// IsSuperAdmin reports whether the principal holds the unconditional role.
func IsSuperAdmin(u *models.User) bool {
	return u != nil && u.Role == models.RoleSuperAdmin
}

// CanCreateClub is the degenerate "no club yet" form of the club predicate:
// creation requires a global role of club_admin or super_admin.
func CanCreateClub(u *models.User) bool {
	if u == nil {
		return false
	}
	return u.Role == models.RoleClubAdmin || u.Role == models.RoleSuperAdmin
}

// ClubDelegates returns the ordered set of principal IDs holding delegated
// authority over the club: primary admin first, then coordinator and
// sub-coordinator when set. Null delegates are skipped.
func ClubDelegates(c *models.Club) []uint {
	if c == nil {
		return nil
	}
	ids := []uint{c.AdminID}
	if c.CoordinatorID != nil {
		ids = append(ids, *c.CoordinatorID)
	}
	if c.SubCoordinatorID != nil {
		ids = append(ids, *c.SubCoordinatorID)
	}
	return ids
}

// CanManageClub decides whether the principal may mutate the club or any
// resource it owns (events, announcements, photos). True iff the principal is
// a super admin or appears in the club's delegate set.
func CanManageClub(u *models.User, c *models.Club) bool {
	if u == nil || c == nil {
		return false
	}
	if u.Role == models.RoleSuperAdmin {
		return true
	}
	for _, id := range ClubDelegates(c) {
		if id == u.ID {
			return true
		}
	}
	return false
}

// CanDeleteUser applies the self-protection rule: a super admin may delete
// any account except their own. The caller has already verified the actor's
// role and the target's existence.
func CanDeleteUser(actor, target *models.User) bool {
	if actor == nil || target == nil {
		return false
	}
	return actor.ID != target.ID
}
