// Package persistence defines the key-value record store the engine sits
// behind: per-key JSON documents, atomic at key granularity and not
// transactional across keys. Implementations live in the redis and postgres
// subpackages; an in-memory store is provided here for tests and demo mode.
package persistence

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the requested key has no record.
	ErrNotFound = errors.New("store: record not found")

	// ErrSerialization is returned when a record cannot be encoded or
	// decoded. Callers treat an undecodable record as absent.
	ErrSerialization = errors.New("store: serialization failed")

	// ErrKeyEmpty is returned when an empty key is provided.
	ErrKeyEmpty = errors.New("store: key cannot be empty")
)

// Store is the per-key JSON persistence adapter. Writes are last-write-wins
// at key granularity; callers must treat every call as a potential
// suspension point.
type Store interface {
	// Get reads the record at key into dest. Returns ErrNotFound when the
	// key has no record.
	Get(ctx context.Context, key string, dest interface{}) error

	// Set serializes value as JSON and writes it at key.
	Set(ctx context.Context, key string, value interface{}) error
}

// Key prefixes for namespacing records.
const (
	PrefixProfile = "profile:"
	PrefixFairUse = "fairuse:"
	PrefixGam     = "gam:state:"
)

// RosterKey is the record key for the set of students with review plans.
const RosterKey = "srs:roster"

// ProfileKey is the record key for a student's profile.
func ProfileKey(studentID string) string {
	return PrefixProfile + studentID
}

// FairUseKey is the record key for a student's usage counter on a given day.
// Keying by date is what resets counters: a new day is simply a new key.
func FairUseKey(dateKey, studentID string) string {
	return fmt.Sprintf("%s%s:%s", PrefixFairUse, dateKey, studentID)
}

// GamStateKey is the record key for a student's gamification state.
func GamStateKey(studentID string) string {
	return PrefixGam + studentID
}
