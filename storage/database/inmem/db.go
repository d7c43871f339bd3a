package inmemdb

import (
	"sync"

	"github.com/festportal/backend/core/registration"
)

type (
	// DB keeps every event table in memory. It backs the tests and `database.engine=memory`.
	DB struct {
		mutex  sync.RWMutex
		tables map[string]*registrationTable
	}

	registrationTable struct {
		rows   map[string]*registration.Registration
		emails map[string]string // lower(identity_email) -> id
		order  []string          // insertion order
	}
)

func Open() *DB {
	return &DB{tables: make(map[string]*registrationTable)}
}

// table returns the named table, creating it on first use. The caller must hold the write lock.
func (db *DB) table(name string) *registrationTable {
	t, ok := db.tables[name]
	if !ok {
		t = &registrationTable{
			rows:   make(map[string]*registration.Registration),
			emails: make(map[string]string),
		}
		db.tables[name] = t
	}
	return t
}
