// Package shard implements the per-shard storage unit: the authoritative
// key-value map for one shard plus the per-client dedup table that makes
// retried requests idempotent.
//
// # Overview
//
// A shard is the atomic unit of ownership in the cluster. Exactly one
// server is the static primary for a given shard (primary(s) = s); only
// that server ever reads or mutates the shard's store. Each shard pairs
// its storage backend with a dedup table and a single lock covering both,
// so that "check dedup, apply mutation, cache reply" is one atomic step
// (spec invariant: store and dedup transitions for one request are a
// single atomic step under the shard lock).
//
// # Concurrency model
//
//   - One sync.Mutex per shard guards both the store and the dedup table.
//   - Shards are otherwise independent: operations against different
//     shards never contend on the same lock.
//   - Read-only Get still takes the shard lock, because the dedup check
//     and the dedup cache-write must be atomic with it too.
//
// # Dedup table
//
// At most one entry per client ID is retained: the most recent seq served
// for that client and the exact reply returned for it. A replayed request
// whose seq matches the cached seq returns the cached reply unchanged and
// performs no mutation. A request with a newer seq always replaces the
// cached entry, which is also why a sufficiently stale duplicate replayed
// after a newer seq has already landed will be re-executed rather than
// deduplicated — this is a known, preserved behavior (spec §9 open
// question 1), not a bug.
package shard
