// Package sessionstore provides rojifi.SessionStore implementations.
//
// FileStore keeps the session in a JSON file readable only by its owner,
// SQLiteStore keeps it in a single-row table, and MemoryStore keeps it in
// process. All three keep the device id across Clear.
package sessionstore
