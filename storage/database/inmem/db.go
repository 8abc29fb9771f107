package inmemdb

import (
	"sync"

	"github.com/projectplatec/platec/core/student"
	"github.com/projectplatec/platec/core/user"
)

// DB keeps every table behind one lock so that cross-table rules (uniqueness, cascades,
// foreign keys) hold under concurrent use.
type DB struct {
	mutex     sync.RWMutex
	users     map[string]*user.User             // {id: user}
	roles     map[user.Role]struct{}            // {name}
	userRoles map[string]map[user.Role]struct{} // {user id: {role}}
	students  map[string]*student.Student       // {id: student}
}

func Open() *DB {
	return &DB{
		users:     make(map[string]*user.User),
		roles:     make(map[user.Role]struct{}),
		userRoles: make(map[string]map[user.Role]struct{}),
		students:  make(map[string]*student.Student),
	}
}
