package kvrepo

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/eduverse/core/auth"
	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kv"
)

type sessionRepository struct {
	db *kv.Adapter
	t  *table
}

var _ auth.SessionStore = (*sessionRepository)(nil) // interface compliance check

// NewSessionRepository stores the session under currentUser, authToken and sessionStart.
func NewSessionRepository(db *DB) auth.SessionStore {
	return &sessionRepository{db: db.kv, t: db.session}
}

func (repo *sessionRepository) LoadSession(ctx context.Context) (auth.Stored, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()

	sess, err := kv.GetObject[user.Session](ctx, repo.db, kv.KeyCurrentUser)
	if err != nil || sess.IsZero() {
		return auth.Stored{}, err
	}
	token, err := repo.db.GetString(ctx, kv.KeyAuthToken)
	if err != nil {
		return auth.Stored{}, err
	}
	stored := auth.Stored{Session: sess, Token: token}

	start, err := repo.db.GetString(ctx, kv.KeySessionStart)
	if err != nil {
		return auth.Stored{}, err
	}
	if start != "" {
		// an unreadable start time only loses the timestamp, not the session
		if t, perr := time.Parse(time.RFC3339, start); perr == nil {
			stored.Start = t
		}
	}
	return stored, nil
}

func (repo *sessionRepository) SaveSession(ctx context.Context, s auth.Stored) error {
	repo.t.Lock()
	defer repo.t.Unlock()

	if err := repo.db.SetObject(ctx, kv.KeyCurrentUser, s.Session); err != nil {
		return err
	}
	if err := repo.db.SetString(ctx, kv.KeyAuthToken, s.Token); err != nil {
		return err
	}
	return repo.db.SetString(ctx, kv.KeySessionStart, s.Start.UTC().Format(time.RFC3339))
}

func (repo *sessionRepository) ClearSession(ctx context.Context) error {
	repo.t.Lock()
	defer repo.t.Unlock()

	var errs []string
	for _, key := range []string{kv.KeyCurrentUser, kv.KeyAuthToken, kv.KeySessionStart} {
		if err := repo.db.Remove(ctx, key); err != nil {
			errs = append(errs, err.Error())
		}
	}
	if len(errs) > 0 {
		return errors.Errorf("clearing session: %v", errs)
	}
	return nil
}
