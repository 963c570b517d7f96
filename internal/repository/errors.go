// Package repository defines error values that are reused across multiple
// repositories.  These sentinels let the service layer distinguish "no
// such row" and "unique key taken" from infrastructure failures without
// inspecting driver errors itself.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrMemberExists is returned when an insert collides with the unique
// account or email index of live members.
var ErrMemberExists = errors.New("member already exists")

// ErrMemberNotFound is returned when no live member matches a lookup.
var ErrMemberNotFound = errors.New("member not found")

// ErrArticleNotFound is returned when no live article matches a lookup.
var ErrArticleNotFound = errors.New("article not found")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

// isDuplicateKey reports whether err is a unique constraint violation.
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
