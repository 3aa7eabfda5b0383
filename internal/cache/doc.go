// Package cache is the client-local recipe shelf.
//
// The shelf is a single JSON array of recipes stored in a Slot. Records may
// be copies of server recipes or local-only drafts, and carry the flags the
// server never sees: isFavourite and isUserCreated.
//
// Slots:
//   - MemorySlot: process memory, for tests and throwaway sessions
//   - FileSlot: a JSON file guarded by an flock, one key per slot
//   - SQLiteSlot: a state table in a pure Go SQLite database
package cache
