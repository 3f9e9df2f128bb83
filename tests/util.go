package testutil

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/trezcool/eduverse/core"
	"github.com/trezcool/eduverse/core/fee"
	"github.com/trezcool/eduverse/core/user"
	"github.com/trezcool/eduverse/storage/kv"
	"github.com/trezcool/eduverse/storage/kv/memory"
)

// Entry is a message recorded by Logger.
type Entry struct {
	Level string
	Msg   string
	Args  []interface{}
}

// Logger records every message it receives.
type Logger struct {
	mu      sync.Mutex
	Entries []Entry
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string, args []interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, Entry{Level: level, Msg: msg, Args: args})
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log("debug", msg, args) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log("info", msg, args) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log("warn", msg, args) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log("error", msg, args) }
func (l *Logger) Fatal(msg string, args ...interface{}) { l.log("fatal", msg, args) }

// Count returns the number of messages logged at level.
func (l *Logger) Count(level string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	var n int
	for _, e := range l.Entries {
		if e.Level == level {
			n++
		}
	}
	return n
}

// NewValidator returns a validator with every domain validator registered.
func NewValidator() *core.Validator {
	v := core.NewValidator()
	user.InitValidators(v.Validate, v.Translator)
	fee.InitValidators(v.Validate, v.Translator)
	return v
}

// NewAdapter returns a lenient adapter over a fresh memory store.
func NewAdapter(t *testing.T) (*kv.Adapter, *Logger) {
	t.Helper()
	logger := &Logger{}
	store := memory.Open()
	t.Cleanup(func() { _ = store.Close() })
	return kv.NewAdapter(store, logger, false), logger
}

// FixedNow returns a clock stuck at the given UTC date.
func FixedNow(year int, month time.Month, day int) func() time.Time {
	return func() time.Time {
		return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
	}
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		ID:        user.NewID(),
		Name:      name,
		Email:     email,
		Role:      role,
		Avatar:    user.DefaultAvatar(name),
		CreatedAt: tstamp,
		Status:    user.StatusActive,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("createUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createUser() failed: %v", err)
	}
	return usr
}

// CreateStudent creates an active student enrolled in classID.
func CreateStudent(t *testing.T, repo user.Repository, name, classID string) user.User {
	t.Helper()
	usr := user.User{
		ID:             user.NewID(),
		Name:           name,
		Email:          fmt.Sprintf("%s@school.test", user.NewID()),
		Role:           user.RoleStudent,
		CreatedAt:      time.Now().UTC(),
		Status:         user.StatusActive,
		StudentProfile: &user.StudentProfile{ClassID: classID},
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("createStudent() failed: %v", err)
	}
	return usr
}
