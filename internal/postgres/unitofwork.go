package postgres

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/guility/relrag/internal/relrag"
)

// unitOfWork binds one repository struct per entity to the same transaction.
// Every repository holds the same pgx.Tx, so all reads and writes within one
// Run call are part of a single atomic unit of work.
type unitOfWork struct {
	tx pgx.Tx

	documents      *documentRepository
	packs          *packRepository
	chunks         *chunkRepository
	collections    *collectionRepository
	properties     *propertyRepository
	configurations *configurationRepository
	permissions    *permissionRepository
	roles          *roleRepository
}

func newUnitOfWork(tx pgx.Tx) *unitOfWork {
	return &unitOfWork{
		tx:             tx,
		documents:      &documentRepository{tx: tx},
		packs:          &packRepository{tx: tx},
		chunks:         &chunkRepository{tx: tx},
		collections:    &collectionRepository{tx: tx},
		properties:     &propertyRepository{tx: tx},
		configurations: &configurationRepository{tx: tx},
		permissions:    &permissionRepository{tx: tx},
		roles:          &roleRepository{tx: tx},
	}
}

func (u *unitOfWork) Documents() relrag.DocumentRepository          { return u.documents }
func (u *unitOfWork) Packs() relrag.PackRepository                  { return u.packs }
func (u *unitOfWork) Chunks() relrag.ChunkRepository                { return u.chunks }
func (u *unitOfWork) Collections() relrag.CollectionRepository      { return u.collections }
func (u *unitOfWork) Properties() relrag.PropertyRepository         { return u.properties }
func (u *unitOfWork) Configurations() relrag.ConfigurationRepository { return u.configurations }
func (u *unitOfWork) Permissions() relrag.PermissionRepository      { return u.permissions }
func (u *unitOfWork) Roles() relrag.RoleRepository                  { return u.roles }

// Runner is the UnitOfWorkRunner backed by a pgxpool.Pool, grounded on
// internal/auth/store.go's SetUserRoles begin/defer-rollback/commit shape,
// generalized from a single statement sequence into an arbitrary closure
// over one UnitOfWork.
type Runner struct {
	pool *pgxpool.Pool
}

func NewRunner(pool *pgxpool.Pool) *Runner {
	return &Runner{pool: pool}
}

func (r *Runner) Run(ctx context.Context, fn func(ctx context.Context, uow relrag.UnitOfWork) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return &relrag.UnavailableError{Cause: err}
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	uow := newUnitOfWork(tx)
	if err := fn(ctx, uow); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return &relrag.UnavailableError{Cause: err}
	}
	return nil
}
