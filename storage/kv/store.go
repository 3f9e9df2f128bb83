// Package kv persists JSON records under string keys.
//
// A Store is the raw engine (memory map, SQLite file). The Adapter sits on top of it and
// deals in typed slices and objects, recovering from missing or corrupt entries.
package kv

import (
	"context"

	"github.com/pkg/errors"
)

var (
	ErrKeyNotFound  = errors.New("key not found")
	ErrCorruptState = errors.New("corrupt state")
)

// Store keys.
const (
	KeyUsers        = "users"
	KeyClasses      = "classes"
	KeyExams        = "exams"
	KeySettings     = "settings"
	KeyAttendance   = "attendance"
	KeyFees         = "fees"
	KeyNotices      = "notices"
	KeyAssignments  = "assignments"
	KeyCurrentUser  = "currentUser"
	KeyAuthToken    = "authToken"
	KeySessionStart = "sessionStart"
	KeyDataVersion  = "data_version"
)

type (
	// Store is a key-value engine. Implementations must be safe for concurrent use.
	Store interface {
		// Read returns ErrKeyNotFound if key is absent.
		Read(ctx context.Context, key string) ([]byte, error)
		Write(ctx context.Context, key string, value []byte) error
		// Remove does nothing if key is absent.
		Remove(ctx context.Context, key string) error
		Keys(ctx context.Context) ([]string, error)
		Clear(ctx context.Context) error
		Close() error
	}

	// Batcher is implemented by engines able to replace their whole content atomically.
	Batcher interface {
		Replace(ctx context.Context, entries map[string][]byte) error
	}
)
