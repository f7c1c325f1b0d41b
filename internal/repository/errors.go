// Package repository holds the MySQL data access layer and the store
// interfaces shared with the in-memory implementation. Sentinel errors
// let services tell expected failures apart from driver faults.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the addressed row does not exist (or is
// soft deleted and the caller did not ask for deleted rows).
var ErrNotFound = errors.New("not found")

// ErrEmailExists is returned when a user with the same email already exists.
var ErrEmailExists = errors.New("email already exists")

// ErrDuplicate is returned when a unique key other than the user email is
// violated.
var ErrDuplicate = errors.New("duplicate key")

// ErrConflict is returned when a write cannot proceed because of the
// current state of the row, such as mapping a team that is already mapped
// to another organization.
var ErrConflict = errors.New("conflict")

// isDuplicate reports whether err is a MySQL unique key violation (1062).
func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
