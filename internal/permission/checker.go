// Package permission implements the PermissionChecker port (§4.F), ported
// one-to-one from the reference RelRAGPermissionChecker: fetch the unique
// Permission for (collection, subject), fall back to the Role's action set
// when there is no override, and return whether the requested action is a
// member.
package permission

import (
	"context"

	"github.com/google/uuid"

	"github.com/guility/relrag/internal/relrag"
)

// Checker resolves (subject, collection, action) against stored Permission
// and Role rows, each call opening its own UnitOfWork.
type Checker struct {
	uow relrag.UnitOfWorkRunner
}

// New builds a Checker bound to uow.
func New(uow relrag.UnitOfWorkRunner) *Checker {
	return &Checker{uow: uow}
}

func (c *Checker) Check(ctx context.Context, subject string, collectionID uuid.UUID, action relrag.PermissionAction) (bool, error) {
	var allowed bool
	err := c.uow.Run(ctx, func(ctx context.Context, uow relrag.UnitOfWork) error {
		perm, err := uow.Permissions().GetForCollection(ctx, collectionID, subject)
		if err != nil {
			return err
		}
		if perm == nil {
			allowed = false
			return nil
		}
		actions := perm.ActionsOverride
		if actions == nil {
			actions, err = uow.Roles().GetActionsForRole(ctx, perm.RoleID)
			if err != nil {
				return err
			}
		}
		allowed = relrag.HasAction(actions, action)
		return nil
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}
