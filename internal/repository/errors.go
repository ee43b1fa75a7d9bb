// Package repository holds the gorm-backed stores.
package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	// ErrNotFound is returned when a lookup matches no row
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique constraint violations
	ErrConflict = errors.New("record already exists")
	// ErrStaleState is returned when a conditional status update matched
	// no row because the record is not in the expected state
	ErrStaleState = errors.New("record is not in the expected state")
)

// translate maps gorm errors onto the package sentinels
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return ErrNotFound
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return ErrConflict
	default:
		return err
	}
}

// Page is a 1-based page request
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page to sane bounds
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Size < 1 || p.Size > 100 {
		p.Size = 20
	}
	return p
}

// Offset returns the row offset for the page
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Number - 1) * p.Size
}
