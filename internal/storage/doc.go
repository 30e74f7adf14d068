// Package storage defines the abstract storage interface each shard stores
// its key-value data behind, plus an in-memory implementation.
//
// # Overview
//
// A shard never manipulates a raw map directly; it goes through the Store
// interface so the backend is swappable without touching shard logic. The
// only implementation built here is MemoryStore — durable persistence is
// an explicit non-goal of this system, so there is no WAL, no snapshotting,
// and no on-disk engine to plug in; a future persistent Store would satisfy
// the same interface without any caller changes.
//
// Store deals directly in string values, matching kv.Reply/
// kv.PutAppendArgs, rather than []byte: a shard never needs to convert at
// the storage boundary.
//
// # Concurrency
//
// Implementations must be safe for concurrent use: a shard's lock already
// serializes the dedup-check-and-apply step, but Stats() may be called
// from admin/debug endpoints concurrently with that. MemoryStore uses a
// sync.RWMutex.
package storage
