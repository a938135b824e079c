package authkit

import (
	"context"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// BunSessionStore is the durable SessionStore backed by Bun. The database's
// per-key atomicity is the only locking this store needs.
type BunSessionStore struct {
	db *bun.DB
}

// NewBunSessionStore creates a session store over the given database
func NewBunSessionStore(db *bun.DB) *BunSessionStore {
	return &BunSessionStore{db: db}
}

var _ SessionStore = (*BunSessionStore)(nil)

// Put records an outstanding refresh token for the principal
func (s *BunSessionStore) Put(ctx context.Context, tokenValue, principalID string) error {
	userID, err := uuid.Parse(principalID)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid principal id")
	}

	record := &SessionRecord{
		ID:     uuid.New(),
		Token:  tokenValue,
		UserID: userID,
	}

	if _, err := s.db.NewInsert().Model(record).Exec(ctx); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to persist session record")
	}

	return nil
}

// Exists reports whether the refresh token is still outstanding
func (s *BunSessionStore) Exists(ctx context.Context, tokenValue string) (bool, error) {
	exists, err := s.db.NewSelect().
		Model((*SessionRecord)(nil)).
		Where("?TableAlias.token = ?", tokenValue).
		Exists(ctx)

	if err != nil {
		return false, errors.Wrap(err, errors.CategoryInternal, "failed to check session record")
	}

	return exists, nil
}

// DeleteByValue removes the record for the token. Deletes are idempotent.
func (s *BunSessionStore) DeleteByValue(ctx context.Context, tokenValue string) error {
	_, err := s.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("?TableAlias.token = ?", tokenValue).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete session record")
	}

	return nil
}

// DeleteAllByPrincipal revokes every outstanding session for the principal
func (s *BunSessionStore) DeleteAllByPrincipal(ctx context.Context, principalID string) error {
	userID, err := uuid.Parse(principalID)
	if err != nil {
		return errors.Wrap(err, errors.CategoryBadInput, "invalid principal id")
	}

	_, err = s.db.NewDelete().
		Model((*SessionRecord)(nil)).
		Where("?TableAlias.user_id = ?", userID).
		Exec(ctx)

	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to delete principal sessions")
	}

	return nil
}
