package inmemdb

import (
	"sync"

	"github.com/trezcool/shule/core/grade"
	"github.com/trezcool/shule/core/mark"
	"github.com/trezcool/shule/core/subject"
	"github.com/trezcool/shule/core/user"
)

// DB is a mutex-guarded in-memory store for tests and local hacking.
type DB struct {
	mutex    sync.RWMutex
	users    map[string]*user.User
	roles    map[string]*user.Role
	subjects map[string]*subject.Subject
	grades   map[string]*grade.Grade
	marks    map[string]*mark.Mark
}

func Open() (*DB, error) {
	return &DB{
		users:    make(map[string]*user.User),
		roles:    make(map[string]*user.Role),
		subjects: make(map[string]*subject.Subject),
		grades:   make(map[string]*grade.Grade),
		marks:    make(map[string]*mark.Mark),
	}, nil
}

func copyIDs(ids []string) []string {
	if ids == nil {
		return nil
	}
	cp := make([]string, len(ids))
	copy(cp, ids)
	return cp
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
