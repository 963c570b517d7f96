package service

import (
	"sort"
	"strings"

	"github.com/pkg/errors"
)

// ErrConflict is returned by Join when the account or email is already
// used by a live member, whether caught by the existence checks or by the
// database's unique index.
var ErrConflict = errors.New("account or email already in use")

// ErrAuthentication is returned for every failed credential check.  Unknown
// account and wrong password deliberately share this value.
var ErrAuthentication = errors.New("invalid account or password")

// ErrArticleNotFound is returned when a like or comment targets an article
// that does not exist.
var ErrArticleNotFound = errors.New("article not found")

// ValidationError carries field-level messages for a rejected form, keyed
// by form field name.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
