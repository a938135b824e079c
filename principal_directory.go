package authkit

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RepositoryDirectory adapts the users repository to the PrincipalDirectory
// and AccountRegistrar contracts consumed by the auth core.
type RepositoryDirectory struct {
	repo   RepositoryManager
	logger Logger
}

// NewRepositoryDirectory creates a directory over the repository manager
func NewRepositoryDirectory(repo RepositoryManager) *RepositoryDirectory {
	return &RepositoryDirectory{
		repo:   repo,
		logger: defLogger{},
	}
}

func (d *RepositoryDirectory) WithLogger(logger Logger) *RepositoryDirectory {
	d.logger = logger
	return d
}

var (
	_ PrincipalDirectory = (*RepositoryDirectory)(nil)
	_ AccountRegistrar   = (*RepositoryDirectory)(nil)
)

// FindByEmail resolves the credentials view of a principal
func (d *RepositoryDirectory) FindByEmail(ctx context.Context, email string) (*Principal, error) {
	user, err := d.repo.Users().GetByEmail(ctx, email)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up principal by email")
	}

	return principalFromUser(user), nil
}

// FindByID resolves the role view of a principal
func (d *RepositoryDirectory) FindByID(ctx context.Context, id string) (*Principal, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrPrincipalNotFound
	}

	user, err := d.repo.Users().GetByIdentifier(ctx, id)
	if err != nil {
		if repository.IsRecordNotFound(err) {
			return nil, ErrPrincipalNotFound
		}
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to look up principal by id")
	}

	p := principalFromUser(user)
	p.PasswordHash = ""
	return p, nil
}

// Exists reports whether the principal still exists
func (d *RepositoryDirectory) Exists(ctx context.Context, id string) (bool, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return false, nil
	}
	return d.repo.Users().ExistsByID(ctx, parsed)
}

// RegisterAccount creates the principal record
func (d *RepositoryDirectory) RegisterAccount(ctx context.Context, account *Principal) (*Principal, error) {
	user := &User{
		Username:     account.Username,
		Email:        account.Email,
		Role:         account.Role,
		PasswordHash: account.PasswordHash,
	}

	record, err := d.repo.Users().Register(ctx, user)
	if err != nil {
		return nil, err
	}

	return principalFromUser(record), nil
}

// RemoveAccount deletes the principal and revokes all of its sessions in one
// transaction, so a deleted account never leaves a usable refresh token.
func (d *RepositoryDirectory) RemoveAccount(ctx context.Context, id string) error {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return ErrPrincipalNotFound
	}

	exists, err := d.repo.Users().ExistsByID(ctx, parsed)
	if err != nil {
		return err
	}
	if !exists {
		return ErrPrincipalNotFound
	}

	err = d.repo.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := d.repo.Users().RemoveTx(ctx, tx, parsed); err != nil {
			return err
		}

		_, err := tx.NewDelete().
			Model((*SessionRecord)(nil)).
			Where("?TableAlias.user_id = ?", parsed).
			Exec(ctx)
		if err != nil {
			return errors.Wrap(err, errors.CategoryInternal, "failed to revoke principal sessions")
		}

		return nil
	})

	if err != nil {
		d.logger.Error("RemoveAccount transaction failed", "principal_id", id, "error", err)
		return err
	}

	return nil
}

func principalFromUser(u *User) *Principal {
	return &Principal{
		ID:           u.ID.String(),
		Username:     u.Username,
		Email:        u.Email,
		Role:         u.Role,
		PasswordHash: u.PasswordHash,
	}
}
