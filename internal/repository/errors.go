// Package repository implements the three claim ledgers (bookings,
// protections, blocks) plus the users table on top of MySQL.  Sentinel
// errors defined here let the engine distinguish storage-level outcomes,
// most importantly a lost atomic claim, without inspecting driver errors.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrDuplicateClaim is returned when a conditional insert loses the race on
// a claim's unique key.  The engine treats it as the signal that another
// writer holds the shift and retries or reports the shift unavailable.
var ErrDuplicateClaim = errors.New("claim already exists for shift")

// ErrNotFound is returned when a referenced booking or protection record
// does not exist.
var ErrNotFound = errors.New("record not found")

// ErrEmailExists is returned when registering a user with an email or
// username that is already taken.
var ErrEmailExists = errors.New("email or username already exists")

// isDuplicateKey reports whether err is a MySQL duplicate-entry error
// (error number 1062) raised by a unique key.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == 1062
}
