// Package kvrepo implements the domain repositories over kv.Adapter slices.
// Every slice is read, modified and written back whole; a per-slice mutex serializes
// those read-modify-write cycles within the process.
package kvrepo

import (
	"sync"

	"github.com/trezcool/eduverse/storage/kv"
)

type (
	DB struct {
		kv *kv.Adapter

		user       *table
		class      *table
		exam       *table
		attendance *table
		fee        *table
		notice     *table
		settings   *table
		assignment *table
		session    *table
	}

	table struct {
		sync.RWMutex
		key string
	}
)

func Open(db *kv.Adapter) *DB {
	return &DB{
		kv:         db,
		user:       &table{key: kv.KeyUsers},
		class:      &table{key: kv.KeyClasses},
		exam:       &table{key: kv.KeyExams},
		attendance: &table{key: kv.KeyAttendance},
		fee:        &table{key: kv.KeyFees},
		notice:     &table{key: kv.KeyNotices},
		settings:   &table{key: kv.KeySettings},
		assignment: &table{key: kv.KeyAssignments},
		session:    &table{key: kv.KeyCurrentUser},
	}
}
