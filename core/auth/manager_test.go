package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/auth"
	"github.com/trezcool/eduverse/core/settings"
	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kv"
	"github.com/trezcool/eduverse/storage/kvrepo"
	"github.com/trezcool/eduverse/storage/seed"
	"github.com/trezcool/eduverse/tests"
)

const secretKey = "test-secret"

type env struct {
	db       *kv.Adapter
	logger   *testutil.Logger
	users    *user.Service
	settings *settings.Service
	mgr      *auth.Manager
}

// newManager builds a manager over db, without initializing it.
func newManager(t *testing.T, db *kv.Adapter, persist bool) env {
	t.Helper()
	logger := &testutil.Logger{}
	validate := testutil.NewValidator()
	repos := kvrepo.Open(db)
	users := user.NewService(kvrepo.NewUserRepository(repos), validate)
	settingsSvc := settings.NewService(kvrepo.NewSettingsRepository(repos), validate)
	mgr := auth.NewManager(
		kvrepo.NewSessionRepository(repos),
		users,
		settingsSvc,
		seed.New(db, logger, seed.DefaultVersion),
		logger,
		auth.Options{Persist: persist, SecretKey: secretKey},
	)
	return env{db: db, logger: logger, users: users, settings: settingsSvc, mgr: mgr}
}

func setup(t *testing.T, persist bool) env {
	t.Helper()
	db, _ := testutil.NewAdapter(t)
	e := newManager(t, db, persist)
	require.NoError(t, e.mgr.Init(context.Background()))
	return e
}

func countUsers(t *testing.T, db *kv.Adapter) int {
	t.Helper()
	users, err := kv.GetList[user.User](context.Background(), db, kv.KeyUsers)
	require.NoError(t, err)
	return len(users)
}

func TestNewManager_nilDependency(t *testing.T) {
	db, _ := testutil.NewAdapter(t)
	e := newManager(t, db, false)
	repos := kvrepo.Open(db)
	sessions := kvrepo.NewSessionRepository(repos)
	seeder := seed.New(db, e.logger, seed.DefaultVersion)
	opts := auth.Options{SecretKey: secretKey}

	tests := []struct {
		name string
		new  func() *auth.Manager
	}{
		{name: "store", new: func() *auth.Manager { return auth.NewManager(nil, e.users, e.settings, seeder, e.logger, opts) }},
		{name: "users", new: func() *auth.Manager { return auth.NewManager(sessions, nil, e.settings, seeder, e.logger, opts) }},
		{name: "settings", new: func() *auth.Manager { return auth.NewManager(sessions, e.users, nil, seeder, e.logger, opts) }},
		{name: "seeder", new: func() *auth.Manager { return auth.NewManager(sessions, e.users, e.settings, nil, e.logger, opts) }},
		{name: "logger", new: func() *auth.Manager { return auth.NewManager(sessions, e.users, e.settings, seeder, nil, opts) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Panics(t, func() { tt.new() })
		})
	}
	assert.NotPanics(t, func() { auth.NewManager(sessions, e.users, e.settings, seeder, e.logger, opts) })
}

func TestManager_notReady(t *testing.T) {
	ctx := context.Background()
	db, _ := testutil.NewAdapter(t)
	e := newManager(t, db, true)

	_, err := e.mgr.Login(ctx, "admin@eduversepro.com", "admin123")
	assert.Equal(t, auth.ErrNotReady, err)
	_, err = e.mgr.Register(ctx, user.NewUser{Name: "X", Email: "x@test.cd", Password: "Str0ng&Secret"})
	assert.Equal(t, auth.ErrNotReady, err)
	_, err = e.mgr.UpdateUser(ctx, user.UpdateUser{})
	assert.Equal(t, auth.ErrNotReady, err)

	require.NoError(t, e.mgr.Init(ctx))
	_, err = e.mgr.Login(ctx, "admin@eduversepro.com", "admin123")
	require.NoError(t, err)

	e.mgr.Dispose()
	_, ok := e.mgr.Current()
	assert.False(t, ok)
	_, err = e.mgr.Login(ctx, "admin@eduversepro.com", "admin123")
	assert.Equal(t, auth.ErrNotReady, err)
}

func TestManager_Login(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()

	tests := []struct {
		name     string
		email    string
		pwd      string
		wantID   string
		wantRole string
		wantErr  error
	}{
		{name: "admin", email: "admin@eduversepro.com", pwd: "admin123", wantID: "admin_001", wantRole: user.RoleAdmin},
		{name: "teacher", email: "teacher@eduversepro.com", pwd: "teacher123", wantID: "teacher_001", wantRole: user.RoleTeacher},
		{name: "student", email: "student@eduversepro.com", pwd: "student123", wantID: "student_001", wantRole: user.RoleStudent},
		{name: "accountant", email: "accountant@eduversepro.com", pwd: "accountant123", wantID: "accountant_001", wantRole: user.RoleAccountant},
		{name: "email case", email: "ADMIN@EduVersePro.com", pwd: "admin123", wantID: "admin_001", wantRole: user.RoleAdmin},
		{name: "email spaces", email: "  teacher@eduversepro.com ", pwd: "teacher123", wantID: "teacher_001", wantRole: user.RoleTeacher},
		{name: "wrong password", email: "admin@eduversepro.com", pwd: "wrong", wantErr: auth.ErrInvalidCredentials},
		{name: "password case", email: "admin@eduversepro.com", pwd: "ADMIN123", wantErr: auth.ErrInvalidCredentials},
		{name: "unknown email", email: "nobody@eduversepro.com", pwd: "admin123", wantErr: auth.ErrUserNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e.mgr.Logout(ctx)

			sess, err := e.mgr.Login(ctx, tt.email, tt.pwd)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				_, ok := e.mgr.Current()
				assert.False(t, ok, "no session after a failed login")
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, sess.ID)
			assert.Equal(t, tt.wantRole, sess.Role)

			current, ok := e.mgr.Current()
			require.True(t, ok)
			assert.Equal(t, sess, current)

			stored, err := kv.GetObject[user.Session](ctx, e.db, kv.KeyCurrentUser)
			require.NoError(t, err)
			assert.Equal(t, sess, stored)

			token, err := e.db.GetString(ctx, kv.KeyAuthToken)
			require.NoError(t, err)
			assert.NotEmpty(t, token)
			assert.False(t, e.mgr.Started().IsZero())
		})
	}
}

func TestManager_Logout(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()

	_, err := e.mgr.Login(ctx, "student@eduversepro.com", "student123")
	require.NoError(t, err)

	e.mgr.Logout(ctx)

	_, ok := e.mgr.Current()
	assert.False(t, ok)
	for _, key := range []string{kv.KeyCurrentUser, kv.KeyAuthToken, kv.KeySessionStart} {
		exists, err := e.db.Exists(ctx, key)
		require.NoError(t, err)
		assert.False(t, exists, "%s should be removed", key)
	}

	// logging out twice is fine
	e.mgr.Logout(ctx)
	assert.Zero(t, e.logger.Count("error"))
}

func TestManager_Register(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()
	seeded := countUsers(t, e.db)

	valid := user.NewUser{Name: "Liam Carter", Email: "Liam.Carter@school.test", Password: "Tr0ub4dor&3", ClassID: "class_001"}

	tests := []struct {
		name        string
		nu          user.NewUser
		wantErr     error
		wantInvalid bool
	}{
		{name: "missing name", nu: user.NewUser{Email: "a@school.test", Password: "Tr0ub4dor&3"}, wantInvalid: true},
		{name: "bad email", nu: user.NewUser{Name: "A", Email: "nope", Password: "Tr0ub4dor&3"}, wantInvalid: true},
		{name: "weak password", nu: user.NewUser{Name: "A", Email: "a@school.test", Password: "12345678"}, wantInvalid: true},
		{name: "unknown role", nu: user.NewUser{Name: "A", Email: "a@school.test", Password: "Tr0ub4dor&3", Role: "janitor"}, wantInvalid: true},
		{name: "seeded email", nu: user.NewUser{Name: "Emma", Email: "student@eduversepro.com", Password: "Tr0ub4dor&3"}, wantErr: auth.ErrDuplicateEmail},
		{name: "seeded email, other case", nu: user.NewUser{Name: "Emma", Email: "STUDENT@EduVersePro.com", Password: "Tr0ub4dor&3"}, wantErr: auth.ErrDuplicateEmail},
		{name: "seeded email, weak password", nu: user.NewUser{Name: "Root", Email: "ADMIN@eduversepro.com", Password: "x"}, wantErr: auth.ErrDuplicateEmail},
		{name: "seeded email, nothing else valid", nu: user.NewUser{Email: " admin@EDUVERSEPRO.com ", Role: "janitor"}, wantErr: auth.ErrDuplicateEmail},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := e.mgr.Register(ctx, tt.nu)
			switch {
			case tt.wantInvalid:
				assert.True(t, core.IsValidationError(err), "got %v", err)
			default:
				assert.Equal(t, tt.wantErr, err)
			}
			assert.Equal(t, seeded, countUsers(t, e.db), "nothing appended")
			_, ok := e.mgr.Current()
			assert.False(t, ok)
		})
	}

	t.Run("success", func(t *testing.T) {
		sess, err := e.mgr.Register(ctx, valid)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(sess.ID, "user_"))
		assert.Equal(t, "liam.carter@school.test", sess.Email)
		assert.Equal(t, user.RoleStudent, sess.Role)
		assert.Equal(t, "class_001", sess.ClassID)
		assert.Contains(t, sess.Avatar, "ui-avatars.com")
		assert.Equal(t, seeded+1, countUsers(t, e.db))

		current, ok := e.mgr.Current()
		require.True(t, ok)
		assert.Equal(t, sess, current)

		// the new account can log in
		e.mgr.Logout(ctx)
		_, err = e.mgr.Login(ctx, "LIAM.CARTER@school.test", valid.Password)
		assert.NoError(t, err)
	})

	t.Run("registering twice", func(t *testing.T) {
		_, err := e.mgr.Register(ctx, valid)
		assert.Equal(t, auth.ErrDuplicateEmail, err)
		assert.Equal(t, seeded+1, countUsers(t, e.db))
	})

	t.Run("closed", func(t *testing.T) {
		admin, err := e.mgr.Login(ctx, "admin@eduversepro.com", "admin123")
		require.NoError(t, err)
		closed := false
		_, err = e.settings.Update(ctx, admin, settings.Update{AllowRegistration: &closed})
		require.NoError(t, err)

		_, err = e.mgr.Register(ctx, user.NewUser{Name: "Late Comer", Email: "late@school.test", Password: "Tr0ub4dor&3"})
		assert.Equal(t, auth.ErrRegistrationClosed, err)
	})
}

func TestManager_UpdateUser(t *testing.T) {
	e := setup(t, true)
	ctx := context.Background()

	name := "Emma W. Wilson"
	_, err := e.mgr.UpdateUser(ctx, user.UpdateUser{Name: &name})
	assert.Equal(t, auth.ErrNoSession, err)

	_, err = e.mgr.Login(ctx, "student@eduversepro.com", "student123")
	require.NoError(t, err)

	t.Run("duplicate email", func(t *testing.T) {
		taken := "Teacher@EduVersePro.com"
		_, err := e.mgr.UpdateUser(ctx, user.UpdateUser{Email: &taken})
		assert.Equal(t, auth.ErrDuplicateEmail, err)
	})

	t.Run("invalid", func(t *testing.T) {
		blank := "   "
		_, err := e.mgr.UpdateUser(ctx, user.UpdateUser{Name: &blank})
		assert.True(t, core.IsValidationError(err), "got %v", err)
	})

	t.Run("merge", func(t *testing.T) {
		email := "emma@school.test"
		phone := "+243 810 000 000"
		sess, err := e.mgr.UpdateUser(ctx, user.UpdateUser{Name: &name, Email: &email, Phone: &phone})
		require.NoError(t, err)
		assert.Equal(t, name, sess.Name)
		assert.Equal(t, email, sess.Email)
		assert.Equal(t, "class_001", sess.ClassID)

		stored, err := kv.GetObject[user.Session](ctx, e.db, kv.KeyCurrentUser)
		require.NoError(t, err)
		assert.Equal(t, sess, stored)

		usr, err := e.users.GetByID(ctx, "student_001")
		require.NoError(t, err)
		assert.Equal(t, phone, usr.Phone)
		assert.Equal(t, "10th Grade", usr.Grade)
		assert.NoError(t, usr.CheckPassword("student123"), "password untouched")
	})

	t.Run("survives restart", func(t *testing.T) {
		e.mgr.Dispose()
		restarted := newManager(t, e.db, true)
		require.NoError(t, restarted.mgr.Init(ctx))
		sess, ok := restarted.mgr.Current()
		require.True(t, ok)
		assert.Equal(t, name, sess.Name)
	})
}

func TestManager_Init(t *testing.T) {
	ctx := context.Background()

	loggedIn := func(t *testing.T) *kv.Adapter {
		e := setup(t, true)
		_, err := e.mgr.Login(ctx, "teacher@eduversepro.com", "teacher123")
		require.NoError(t, err)
		e.mgr.Dispose()
		return e.db
	}

	tests := []struct {
		name    string
		persist bool
		tamper  func(t *testing.T, db *kv.Adapter)
		wantIn  bool
	}{
		{name: "persisted", persist: true, wantIn: true},
		{name: "not persisted", persist: false},
		{
			name:    "forged token",
			persist: true,
			tamper: func(t *testing.T, db *kv.Adapter) {
				require.NoError(t, db.SetString(ctx, kv.KeyAuthToken, "GEYTAMBQGA-forged"))
			},
		},
		{
			name:    "missing token",
			persist: true,
			tamper: func(t *testing.T, db *kv.Adapter) {
				require.NoError(t, db.Remove(ctx, kv.KeyAuthToken))
			},
		},
		{
			name:    "escalated role",
			persist: true,
			tamper: func(t *testing.T, db *kv.Adapter) {
				sess, err := kv.GetObject[user.Session](ctx, db, kv.KeyCurrentUser)
				require.NoError(t, err)
				sess.Role = user.RoleAdmin
				require.NoError(t, db.SetObject(ctx, kv.KeyCurrentUser, sess))
			},
		},
		{
			name:    "deleted user",
			persist: true,
			tamper: func(t *testing.T, db *kv.Adapter) {
				users, err := kv.GetList[user.User](ctx, db, kv.KeyUsers)
				require.NoError(t, err)
				kept := users[:0]
				for _, usr := range users {
					if usr.ID != "teacher_001" {
						kept = append(kept, usr)
					}
				}
				require.NoError(t, kv.SetList(ctx, db, kv.KeyUsers, kept))
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := loggedIn(t)
			if tt.tamper != nil {
				tt.tamper(t, db)
			}

			e := newManager(t, db, tt.persist)
			require.NoError(t, e.mgr.Init(ctx))

			sess, ok := e.mgr.Current()
			assert.Equal(t, tt.wantIn, ok)
			exists, err := db.Exists(ctx, kv.KeyCurrentUser)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIn, exists)
			if tt.wantIn {
				assert.Equal(t, "teacher_001", sess.ID)
				assert.False(t, e.mgr.Started().IsZero())
			}
		})
	}
}

func TestManager_Init_reseedDropsSession(t *testing.T) {
	ctx := context.Background()
	e := setup(t, true)
	_, err := e.mgr.Login(ctx, "admin@eduversepro.com", "admin123")
	require.NoError(t, err)
	e.mgr.Dispose()

	// a newer fixture wipes everything, the session included
	require.NoError(t, e.db.SetString(ctx, kv.KeyDataVersion, "0.9"))
	restarted := newManager(t, e.db, true)
	require.NoError(t, restarted.mgr.Init(ctx))

	_, ok := restarted.mgr.Current()
	assert.False(t, ok)
	assert.Equal(t, 1, restarted.logger.Count("warn"))
}
