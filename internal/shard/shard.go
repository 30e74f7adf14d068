// Package shard implements the per-shard storage unit.
// See doc.go for complete package documentation.
package shard

import (
	"sync"
	"sync/atomic"

	"github.com/dreamware/torua/internal/kv"
	"github.com/dreamware/torua/internal/storage"
)

// dedupEntry is the cached (seq, reply) pair for one client, keyed by
// client ID in Shard.dedup.
type dedupEntry struct {
	reply kv.Reply
	seq   int64
}

// OperationStats tracks per-operation counts for a shard, updated
// atomically so reads never contend with the shard lock.
type OperationStats struct {
	Gets    uint64
	Puts    uint64
	Appends uint64
}

// ShardStats bundles a shard's operation counts with its storage-layer
// statistics for monitoring.
type ShardStats struct {
	Ops     OperationStats
	Storage storage.StoreStats
}

// ShardInfo is a point-in-time snapshot of a shard's identity and size,
// suitable for an admin/debug endpoint.
type ShardInfo struct {
	ID       int
	Primary  bool
	KeyCount int
	ByteSize int
}

// Shard is the authoritative state for one shard: its key-value store,
// its per-client dedup table, and the single lock guarding both as one
// atomic unit. See doc.go for the concurrency and dedup model.
type Shard struct {
	store storage.Store
	dedup map[int64]dedupEntry

	Stats *OperationStats

	mu sync.Mutex

	ID      int
	Primary bool
}

// New creates a shard with fresh in-memory storage and an empty dedup
// table, ready to serve requests immediately.
func New(id int, primary bool) *Shard {
	return &Shard{
		ID:      id,
		Primary: primary,
		store:   storage.NewMemoryStore(),
		dedup:   make(map[int64]dedupEntry),
		Stats:   &OperationStats{},
	}
}

// HandleGet applies Get semantics under the shard lock: dedup check, then
// a read that never mutates store. Get has no side effect worth
// deduplicating, but it still goes through the same lock and caches its
// reply in the dedup table like Put/Append, so that a concurrent
// Put/Append for the same client can never interleave with it in a way
// that violates per-client linearity.
func (s *Shard) HandleGet(args kv.GetArgs) kv.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.dedup[args.ClientID]; ok && cached.seq == args.Seq {
		return cached.reply
	}

	atomic.AddUint64(&s.Stats.Gets, 1)
	value, err := s.store.Get(args.Key)
	reply := kv.Reply{Err: ""}
	if err == nil {
		reply.Value = value
	}
	// value absent is not an error (spec §4.2 step 5): reply.Value stays "".

	s.dedup[args.ClientID] = dedupEntry{seq: args.Seq, reply: reply}
	return reply
}

// HandlePut applies Put semantics under the shard lock: dedup check,
// then store[key] := value, replying with the newly stored value.
func (s *Shard) HandlePut(args kv.PutAppendArgs) kv.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.dedup[args.ClientID]; ok && cached.seq == args.Seq {
		return cached.reply
	}

	atomic.AddUint64(&s.Stats.Puts, 1)
	_ = s.store.Put(args.Key, args.Value)
	reply := kv.Reply{Value: args.Value, Err: ""}

	s.dedup[args.ClientID] = dedupEntry{seq: args.Seq, reply: reply}
	return reply
}

// HandleAppend applies Append semantics under the shard lock: dedup
// check, then store[key] := old + value, replying with old — the value
// before the append, per spec §4.2 step 5 and §9 open question 3. This
// asymmetry with Put (which returns the new value) is load-bearing for
// the append-log reconstruction property and must not be "fixed" to
// return the new value for consistency.
func (s *Shard) HandleAppend(args kv.PutAppendArgs) kv.Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cached, ok := s.dedup[args.ClientID]; ok && cached.seq == args.Seq {
		return cached.reply
	}

	atomic.AddUint64(&s.Stats.Appends, 1)
	old, err := s.store.Get(args.Key)
	oldValue := ""
	if err == nil {
		oldValue = old
	}
	_ = s.store.Put(args.Key, oldValue+args.Value)
	reply := kv.Reply{Value: oldValue, Err: ""}

	s.dedup[args.ClientID] = dedupEntry{seq: args.Seq, reply: reply}
	return reply
}

// GetStats returns a snapshot of the shard's operation counts and
// underlying storage statistics.
func (s *Shard) GetStats() ShardStats {
	return ShardStats{
		Ops: OperationStats{
			Gets:    atomic.LoadUint64(&s.Stats.Gets),
			Puts:    atomic.LoadUint64(&s.Stats.Puts),
			Appends: atomic.LoadUint64(&s.Stats.Appends),
		},
		Storage: s.store.Stats(),
	}
}

// Info returns a metadata snapshot of the shard for admin/debug endpoints.
func (s *Shard) Info() ShardInfo {
	stats := s.store.Stats()
	return ShardInfo{
		ID:       s.ID,
		Primary:  s.Primary,
		KeyCount: stats.Keys,
		ByteSize: stats.Bytes,
	}
}
