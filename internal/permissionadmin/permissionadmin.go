// Package permissionadmin implements the AssignPermission and
// RevokePermission use cases (§4.J), ported from original_source's
// assign_permission.py and revoke_permission.py, plus the admin-orphaning
// guard decided in SPEC_FULL.md §9 (the original has none).
package permissionadmin

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

// Service runs permission administration.
type Service struct {
	uow        relrag.UnitOfWorkRunner
	permission relrag.PermissionChecker
}

// New builds a Service wired to its collaborators.
func New(uow relrag.UnitOfWorkRunner, perm relrag.PermissionChecker) *Service {
	return &Service{uow: uow, permission: perm}
}

// AssignInput bundles the inputs to Service.Assign.
type AssignInput struct {
	CollectionID    uuid.UUID
	Subject         string
	RoleName        string
	ActionsOverride []string
}

// Assign implements §4.J: grant or replace subject's role on a collection.
// The actor must hold admin on the collection.
func (s *Service) Assign(ctx context.Context, actor string, in AssignInput) (relrag.Permission, error) {
	allowed, err := s.permission.Check(ctx, actor, in.CollectionID, relrag.ActionAdmin)
	if err != nil {
		return relrag.Permission{}, err
	}
	if !allowed {
		return relrag.Permission{}, &relrag.PermissionDeniedError{Action: string(relrag.ActionAdmin)}
	}

	var result relrag.Permission
	err = s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		role, err := uow.Roles().GetByName(ctx, in.RoleName)
		if err != nil {
			return err
		}
		if role == nil {
			return &relrag.NotFoundError{Resource: "Role", ID: in.RoleName}
		}
		roleActions, err := uow.Roles().GetActionsForRole(ctx, role.ID)
		if err != nil {
			return err
		}

		existing, err := uow.Permissions().GetForCollection(ctx, in.CollectionID, in.Subject)
		if err != nil {
			return err
		}

		if existing != nil {
			proposed := *existing
			proposed.RoleID = role.ID
			proposed.ActionsOverride = in.ActionsOverride
			if err := ensureAdminSurvives(ctx, uow, in.CollectionID, *existing, proposed, roleActions); err != nil {
				return err
			}
			if err := uow.Permissions().Update(ctx, proposed); err != nil {
				return err
			}
			result = proposed
			return nil
		}

		perm := relrag.Permission{
			ID:              uuid.New(),
			CollectionID:    in.CollectionID,
			Subject:         in.Subject,
			RoleID:          role.ID,
			ActionsOverride: in.ActionsOverride,
			CreatedAt:       time.Now().UTC(),
			CreatedBy:       actor,
		}
		created, err := uow.Permissions().Create(ctx, perm)
		if err != nil {
			return err
		}
		result = created
		return nil
	})
	if err != nil {
		return relrag.Permission{}, err
	}
	return result, nil
}

// Revoke implements §4.J: remove subject's permission on a collection. The
// actor must hold admin, and the revocation is rejected if it would leave
// the collection with zero subjects holding the admin action (§9).
func (s *Service) Revoke(ctx context.Context, actor string, collectionID uuid.UUID, subject string) error {
	allowed, err := s.permission.Check(ctx, actor, collectionID, relrag.ActionAdmin)
	if err != nil {
		return err
	}
	if !allowed {
		return &relrag.PermissionDeniedError{Action: string(relrag.ActionAdmin)}
	}

	return s.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		perm, err := uow.Permissions().GetForCollection(ctx, collectionID, subject)
		if err != nil {
			return err
		}
		if perm == nil {
			return &relrag.NotFoundError{Resource: "Permission", ID: collectionID.String() + "/" + subject}
		}

		roleActions, err := uow.Roles().GetActionsForRole(ctx, perm.RoleID)
		if err != nil {
			return err
		}
		if isAdminGrant(*perm, roleActions) {
			admins, err := countOtherAdmins(ctx, uow, collectionID, perm.ID)
			if err != nil {
				return err
			}
			if admins == 0 {
				return &relrag.ValidationError{Message: "cannot revoke the last admin permission on a collection"}
			}
		}

		return uow.Permissions().Delete(ctx, perm.ID)
	})
}

// ensureAdminSurvives rejects a reassignment that would strip the sole
// remaining admin's admin action, unless another subject already holds
// admin on the collection.
func ensureAdminSurvives(ctx context.Context, uow relrag.UnitOfWork, collectionID uuid.UUID, before, after relrag.Permission, newRoleActions []string) error {
	oldActions, err := uow.Roles().GetActionsForRole(ctx, before.RoleID)
	if err != nil {
		return err
	}
	wasAdmin := isAdminGrant(before, oldActions)
	willBeAdmin := isAdminGrant(after, newRoleActions)
	if !wasAdmin || willBeAdmin {
		return nil
	}

	admins, err := countOtherAdmins(ctx, uow, collectionID, before.ID)
	if err != nil {
		return err
	}
	if admins == 0 {
		return &relrag.ValidationError{Message: "cannot remove admin action from the last admin on a collection"}
	}
	return nil
}

// countOtherAdmins counts Permission rows on collectionID, excluding
// excludeID, whose effective actions include admin.
func countOtherAdmins(ctx context.Context, uow relrag.UnitOfWork, collectionID, excludeID uuid.UUID) (int, error) {
	perms, err := uow.Permissions().ListByCollection(ctx, collectionID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, p := range perms {
		if p.ID == excludeID {
			continue
		}
		actions, err := uow.Roles().GetActionsForRole(ctx, p.RoleID)
		if err != nil {
			return 0, err
		}
		if isAdminGrant(p, actions) {
			count++
		}
	}
	return count, nil
}

func isAdminGrant(p relrag.Permission, roleActions []string) bool {
	return relrag.HasAction(p.EffectiveActions(roleActions), relrag.ActionAdmin)
}
