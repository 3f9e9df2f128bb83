// Package auth manages the single logged in user of the dashboard.
package auth

import (
	"context"
	"sync"
	"time"

	"github.com/kat-co/vala"
	"github.com/pkg/errors"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/settings"
	"github.com/trezcool/eduverse/core/user"
)

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrDuplicateEmail     = user.ErrEmailExists
	ErrNoSession          = errors.New("no user logged in")
	ErrNotReady           = errors.New("session manager not initialized")
	ErrRegistrationClosed = errors.New("registration is closed")

	NowFunc = time.Now // mockable
)

type (
	// Stored is the persisted form of a session.
	Stored struct {
		Session user.Session
		Token   string
		Start   time.Time
	}

	// SessionStore persists the current session across restarts.
	SessionStore interface {
		// LoadSession returns the zero Stored if no session is saved.
		LoadSession(ctx context.Context) (Stored, error)
		SaveSession(ctx context.Context, s Stored) error
		ClearSession(ctx context.Context) error
	}

	UserService interface {
		Authenticate(ctx context.Context, email, pwd string) (user.User, error)
		Create(ctx context.Context, nu user.NewUser) (user.User, error)
		Update(ctx context.Context, id string, uu user.UpdateUser) (user.User, error)
		GetByID(ctx context.Context, id string) (user.User, error)
	}

	SettingsGetter interface {
		Get(ctx context.Context) (settings.Settings, error)
	}

	Seeder interface {
		Seed(ctx context.Context) error
	}

	Options struct {
		// Persist keeps the session across restarts.
		Persist   bool
		SecretKey string
	}
)

// Manager holds the current session: LoggedOut -> LoggedIn -> LoggedOut.
// Every operation but Current, Logout and Dispose fails with ErrNotReady until Init returns.
type Manager struct {
	mu      sync.RWMutex
	ready   bool
	current Stored

	store    SessionStore
	users    UserService
	settings SettingsGetter
	seeder   Seeder
	signer   *Signer
	logger   core.Logger
	persist  bool
}

// NewManager panics if a dependency is nil.
func NewManager(
	store SessionStore,
	users UserService,
	settingsSvc SettingsGetter,
	seeder Seeder,
	logger core.Logger,
	opts Options,
) *Manager {
	vala.BeginValidation().Validate(
		vala.IsNotNil(store, "store"),
		vala.IsNotNil(users, "users"),
		vala.IsNotNil(settingsSvc, "settingsSvc"),
		vala.IsNotNil(seeder, "seeder"),
		vala.IsNotNil(logger, "logger"),
	).CheckAndPanic()

	return &Manager{
		store:    store,
		users:    users,
		settings: settingsSvc,
		seeder:   seeder,
		signer:   NewSigner(opts.SecretKey),
		logger:   logger,
		persist:  opts.Persist,
	}
}

// Init seeds the store, then restores the saved session or discards it.
func (m *Manager) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.seeder.Seed(ctx); err != nil {
		return errors.Wrap(err, "auth: seeding")
	}

	m.current = Stored{}
	if m.persist {
		restored, err := m.restore(ctx)
		if err != nil {
			return err
		}
		m.current = restored
	} else if err := m.store.ClearSession(ctx); err != nil {
		return errors.Wrap(err, "auth: clearing session")
	}
	m.ready = true
	return nil
}

// restore returns the saved session if it is still valid and clears it otherwise.
func (m *Manager) restore(ctx context.Context) (Stored, error) {
	saved, err := m.store.LoadSession(ctx)
	if err != nil {
		return Stored{}, errors.Wrap(err, "auth: loading session")
	}
	if saved.Session.IsZero() {
		return Stored{}, nil
	}

	discard := func(reason string, err error) (Stored, error) {
		m.logger.Info("auth: discarding saved session", map[string]interface{}{"reason": reason, "err": err}, saved.Session)
		return Stored{}, errors.Wrap(m.store.ClearSession(ctx), "auth: clearing session")
	}

	issued, err := m.signer.VerifyToken(saved.Session, saved.Token)
	if err != nil {
		return discard("token", err)
	}
	usr, err := m.users.GetByID(ctx, saved.Session.ID)
	if errors.Is(err, user.ErrNotFound) {
		return discard("user", err)
	}
	if err != nil {
		return Stored{}, err
	}

	sess := usr.Session()
	if sess.Email != saved.Session.Email || sess.Role != saved.Session.Role {
		return discard("user changed", nil)
	}
	if saved.Start.IsZero() {
		saved.Start = issued
	}
	saved.Session = sess
	return saved, nil
}

// start makes usr the current user. Caller holds the lock.
func (m *Manager) start(ctx context.Context, usr user.User) (user.Session, error) {
	now := NowFunc().UTC()
	sess := usr.Session()
	stored := Stored{
		Session: sess,
		Token:   m.signer.MakeToken(sess, now),
		Start:   now,
	}
	if err := m.store.SaveSession(ctx, stored); err != nil {
		return user.Session{}, errors.Wrap(err, "auth: saving session")
	}
	m.current = stored
	return sess, nil
}

// Login authenticates email (case-insensitive) and password and starts a session.
func (m *Manager) Login(ctx context.Context, email, pwd string) (user.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return user.Session{}, ErrNotReady
	}
	usr, err := m.users.Authenticate(ctx, email, pwd)
	switch {
	case errors.Is(err, user.ErrNotFound):
		return user.Session{}, ErrUserNotFound
	case errors.Is(err, user.ErrInvalidPassword):
		return user.Session{}, ErrInvalidCredentials
	case err != nil:
		return user.Session{}, err
	}
	return m.start(ctx, usr)
}

// Logout ends the current session, if any. Storage errors are only logged.
func (m *Manager) Logout(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	sess := m.current.Session
	m.current = Stored{}
	if err := m.store.ClearSession(ctx); err != nil {
		m.logger.Error("auth: clearing session", err, sess)
	}
}

// Register creates a user and logs it in.
func (m *Manager) Register(ctx context.Context, nu user.NewUser) (user.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return user.Session{}, ErrNotReady
	}
	conf, err := m.settings.Get(ctx)
	if err != nil {
		return user.Session{}, err
	}
	if conf.SiteName == "" { // never saved
		conf = settings.Defaults()
	}
	if !conf.AllowRegistration {
		return user.Session{}, ErrRegistrationClosed
	}

	usr, err := m.users.Create(ctx, nu)
	if err != nil {
		return user.Session{}, err
	}
	m.logger.Info("auth: user registered", map[string]interface{}{"id": usr.ID, "role": usr.Role})
	return m.start(ctx, usr)
}

// UpdateUser merges uu into the current user and refreshes the session.
func (m *Manager) UpdateUser(ctx context.Context, uu user.UpdateUser) (user.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.ready {
		return user.Session{}, ErrNotReady
	}
	if m.current.Session.IsZero() {
		return user.Session{}, ErrNoSession
	}
	usr, err := m.users.Update(ctx, m.current.Session.ID, uu)
	if err != nil {
		return user.Session{}, err
	}

	sess := usr.Session()
	stored := Stored{
		Session: sess,
		Token:   m.signer.MakeToken(sess, m.current.Start),
		Start:   m.current.Start,
	}
	if err := m.store.SaveSession(ctx, stored); err != nil {
		return user.Session{}, errors.Wrap(err, "auth: saving session")
	}
	m.current = stored
	return sess, nil
}

// Current returns the logged in user.
func (m *Manager) Current() (user.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Session, !m.current.Session.IsZero()
}

// Started returns when the current session began.
func (m *Manager) Started() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current.Start
}

// Dispose drops the in-memory session. The manager must be initialized again before use.
func (m *Manager) Dispose() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = Stored{}
	m.ready = false
}
