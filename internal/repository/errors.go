// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow handlers to distinguish between
// failure scenarios without inspecting driver errors: ErrNotFound maps to
// 404, ErrConflict and ErrInvalidTransition to 409.
package repository

import (
    "errors"

    "github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when the requested row does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when a write collides with existing state, such as
// a duplicate slug or deleting a service that still has bookings.
var ErrConflict = errors.New("conflict")

// ErrInvalidTransition is returned when a booking status change is not
// allowed from the current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// ErrEmailExists is returned by UserRepo.Create for a taken address.
var ErrEmailExists = errors.New("email already exists")

const (
    mysqlDuplicateEntry  = 1062
    mysqlRowIsReferenced = 1451
    mysqlNoReferencedRow = 1452
)

// isDuplicate reports a unique key violation.
func isDuplicate(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// isForeignKey reports a foreign key violation in either direction.
func isForeignKey(err error) bool {
    var me *mysql.MySQLError
    return errors.As(err, &me) && (me.Number == mysqlRowIsReferenced || me.Number == mysqlNoReferencedRow)
}
