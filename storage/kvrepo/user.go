package kvrepo

import (
	"context"
	"strings"

	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kv"
)

type userRepository struct {
	db *kv.Adapter
	t  *table
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) user.Repository {
	return &userRepository{db: db.kv, t: db.user}
}

func (repo *userRepository) query(ctx context.Context) ([]user.User, error) {
	return kv.GetList[user.User](ctx, repo.db, repo.t.key)
}

func (repo *userRepository) QueryAllUsers(ctx context.Context) ([]user.User, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()
	return repo.query(ctx)
}

func (repo *userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()

	users, err := repo.query(ctx)
	if err != nil {
		return user.User{}, err
	}
	for _, usr := range users {
		if usr.ID == id {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func findByEmail(users []user.User, email string) (int, bool) {
	for i, usr := range users {
		if strings.EqualFold(usr.Email, email) {
			return i, true
		}
	}
	return -1, false
}

func (repo *userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()

	users, err := repo.query(ctx)
	if err != nil {
		return user.User{}, err
	}
	if i, ok := findByEmail(users, strings.TrimSpace(email)); ok {
		return users[i], nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.t.Lock()
	defer repo.t.Unlock()

	users, err := repo.query(ctx)
	if err != nil {
		return user.User{}, err
	}
	if _, ok := findByEmail(users, usr.Email); ok {
		return user.User{}, user.ErrEmailExists
	}
	users = append(users, usr)
	if err := kv.SetList(ctx, repo.db, repo.t.key, users); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	repo.t.Lock()
	defer repo.t.Unlock()

	users, err := repo.query(ctx)
	if err != nil {
		return user.User{}, err
	}
	idx := -1
	for i, u := range users {
		if u.ID == usr.ID {
			idx = i
		} else if strings.EqualFold(u.Email, usr.Email) {
			return user.User{}, user.ErrEmailExists
		}
	}
	if idx < 0 {
		return user.User{}, user.ErrNotFound
	}
	users[idx] = usr
	if err := kv.SetList(ctx, repo.db, repo.t.key, users); err != nil {
		return user.User{}, err
	}
	return usr, nil
}

func (repo *userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter) ([]user.User, error) {
	repo.t.RLock()
	defer repo.t.RUnlock()

	users, err := repo.query(ctx)
	if err != nil {
		return nil, err
	}
	if filter.IsEmpty() {
		return users, nil
	}
	filtered := make([]user.User, 0, len(users))
	for _, usr := range users {
		if filter.Match(usr) {
			filtered = append(filtered, usr)
		}
	}
	return filtered, nil
}
