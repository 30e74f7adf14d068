package kvserver

import (
	"context"
	"sync"

	"github.com/dreamware/torua/internal/kv"
	"github.com/dreamware/torua/internal/shard"
)

// Server is one shard server: it knows its own static index, the
// cluster configuration (peer addresses/handles, shard count, replica
// fan-out), and the shards it is primary for. It implements
// kv.RPCHandle so other servers and Clerks can hold a direct handle to
// it in-process.
type Server struct {
	cfg kv.Config

	mu     sync.RWMutex
	shards map[int]*shard.Shard

	Index int
}

// New creates a server at the given static index. Shards are created
// lazily as requests for them arrive; see doc.go.
func New(index int, cfg kv.Config) *Server {
	return &Server{
		Index:  index,
		cfg:    cfg,
		shards: make(map[int]*shard.Shard),
	}
}

// isPrimary reports whether this server is the primary for shard s.
func (s *Server) isPrimary(shardID int) bool {
	return s.Index == shardID
}

// shardFor returns this server's Shard instance for id, creating it on
// first access.
func (s *Server) shardFor(id int) *shard.Shard {
	s.mu.RLock()
	sh, ok := s.shards[id]
	s.mu.RUnlock()
	if ok {
		return sh
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sh, ok := s.shards[id]; ok {
		return sh
	}
	sh = shard.New(id, true)
	s.shards[id] = sh
	return sh
}

// Get implements kv.RPCHandle.
func (s *Server) Get(ctx context.Context, args kv.GetArgs) kv.Reply {
	shardID := kv.ShardForKey(args.Key, s.cfg.NServers)
	if !s.isPrimary(shardID) {
		if reply, forwarded := s.forwardGet(ctx, shardID, args); forwarded {
			return reply
		}
		return kv.Reply{Err: kv.ErrWrongGroup}
	}
	return s.shardFor(shardID).HandleGet(args)
}

// Put implements kv.RPCHandle.
func (s *Server) Put(ctx context.Context, args kv.PutAppendArgs) kv.Reply {
	shardID := kv.ShardForKey(args.Key, s.cfg.NServers)
	if !s.isPrimary(shardID) {
		if reply, forwarded := s.forwardPutAppend(ctx, shardID, args, false); forwarded {
			return reply
		}
		return kv.Reply{Err: kv.ErrWrongGroup}
	}
	return s.shardFor(shardID).HandlePut(args)
}

// Append implements kv.RPCHandle.
func (s *Server) Append(ctx context.Context, args kv.PutAppendArgs) kv.Reply {
	shardID := kv.ShardForKey(args.Key, s.cfg.NServers)
	if !s.isPrimary(shardID) {
		if reply, forwarded := s.forwardPutAppend(ctx, shardID, args, true); forwarded {
			return reply
		}
		return kv.Reply{Err: kv.ErrWrongGroup}
	}
	return s.shardFor(shardID).HandleAppend(args)
}

// forwardGet forwards a Get to the shard's true primary, synchronously,
// returning its reply verbatim, when this server holds a direct
// in-process handle to that primary. With no such handle, forwarding is
// not possible and the caller must reply ErrWrongGroup so the Clerk
// tries the next replica in its sweep (spec.md §4.2 step 2: only these
// two outcomes exist, there is no third forward-over-HTTP path). The
// forwarding server holds no lock at this point, so the synchronous
// call cannot deadlock against its own shard lock (spec.md §9: reentrant
// forwarding).
func (s *Server) forwardGet(ctx context.Context, shardID int, args kv.GetArgs) (kv.Reply, bool) {
	handle, ok := s.cfg.Handles[shardID]
	if !ok || handle == nil {
		return kv.Reply{}, false
	}
	return handle.Get(ctx, args), true
}

// forwardPutAppend forwards a Put or Append to the shard's true primary
// via a direct in-process handle; see forwardGet.
func (s *Server) forwardPutAppend(ctx context.Context, shardID int, args kv.PutAppendArgs, isAppend bool) (kv.Reply, bool) {
	handle, ok := s.cfg.Handles[shardID]
	if !ok || handle == nil {
		return kv.Reply{}, false
	}
	if isAppend {
		return handle.Append(ctx, args), true
	}
	return handle.Put(ctx, args), true
}

// Info describes this server and every shard it currently holds, for the
// /info admin endpoint.
type Info struct {
	Index  int              `json:"index"`
	Shards []shard.ShardInfo `json:"shards"`
}

// Info returns a snapshot of every shard this server has instantiated
// so far (shards not yet touched are simply absent, not zero-valued).
func (s *Server) Info() Info {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := Info{Index: s.Index, Shards: make([]shard.ShardInfo, 0, len(s.shards))}
	for _, sh := range s.shards {
		out.Shards = append(out.Shards, sh.Info())
	}
	return out
}
