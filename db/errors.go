package db

import (
	"strings"

	"github.com/teranos/slideinspo/errors"
)

// ErrDatabaseClosed is returned when a store is used after shutdown closed the database
var ErrDatabaseClosed = errors.New("database is closed")

// IsDatabaseClosed reports ErrDatabaseClosed or the driver's own closed-database error.
// The driver's error is not wrappable at the source, hence the message check.
func IsDatabaseClosed(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDatabaseClosed) {
		return true
	}
	return strings.Contains(err.Error(), "database is closed")
}
