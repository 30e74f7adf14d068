package kvclerk

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"sync"
	"time"

	"github.com/dreamware/torua/internal/cluster"
	"github.com/dreamware/torua/internal/kv"
)

// retryDelay is the pause between full replica sweeps once every replica
// in a pass has failed or declined the request. spec.md does not mandate
// a sleep here; a small one keeps an all-replicas-down Clerk from
// busy-looping, matching the backoff the teacher uses for coordinator
// registration retries.
const retryDelay = 20 * time.Millisecond

// Clerk is the client side of the sharded KV protocol. One Clerk
// instance should be reused across every call from a given logical
// client: it owns the client identity and seq counter that make the
// server's dedup table work.
type Clerk struct {
	cfg kv.Config

	clientID int64

	mu  sync.Mutex
	seq int64
}

// New creates a Clerk bound to cfg, with a fresh random client ID and
// seq starting at 0 (the first call reserves seq 1, per spec.md §6).
func New(cfg kv.Config) *Clerk {
	return &Clerk{
		cfg:      cfg,
		clientID: randomClientID(),
	}
}

// randomClientID returns a uniformly random 62-bit integer, chosen once
// per Clerk at construction and stable for its lifetime (spec.md §3).
func randomClientID() int64 {
	max := big.NewInt(1 << 62)
	n, err := rand.Int(rand.Reader, max)
	if err != nil {
		// crypto/rand failing is not a condition this system can
		// usefully recover from; a Clerk without a stable identity
		// can't offer the dedup guarantee the rest of the protocol
		// relies on.
		panic(fmt.Sprintf("kvclerk: failed to generate client id: %v", err))
	}
	return n.Int64()
}

// nextSeq reserves a fresh seq for a new logical call. The same seq is
// reused for every retry of that call.
func (c *Clerk) nextSeq() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seq++
	return c.seq
}

// Get returns the current value for key, or "" if the key has never
// been written. It never returns an error: it blocks until some replica
// answers successfully.
func (c *Clerk) Get(ctx context.Context, key string) string {
	args := kv.GetArgs{Key: key, ClientID: c.clientID, Seq: c.nextSeq()}

	for {
		if reply, ok := c.sweepGet(ctx, args); ok {
			return reply.Value
		}
		time.Sleep(retryDelay)
	}
}

// Put stores value under key, overwriting any prior value, and blocks
// until some replica confirms the write.
func (c *Clerk) Put(ctx context.Context, key, value string) {
	args := kv.PutAppendArgs{Key: key, Value: value, ClientID: c.clientID, Seq: c.nextSeq()}

	for {
		if _, ok := c.sweepPutAppend(ctx, args, false); ok {
			return
		}
		time.Sleep(retryDelay)
	}
}

// Append atomically sets store[key] := old + value and returns old, the
// value before the append (spec.md §4.1, §9 open question 3 — this is
// the opposite of Put, which returns the new value, and the asymmetry
// is intentional).
func (c *Clerk) Append(ctx context.Context, key, value string) string {
	args := kv.PutAppendArgs{Key: key, Value: value, ClientID: c.clientID, Seq: c.nextSeq()}

	for {
		if reply, ok := c.sweepPutAppend(ctx, args, true); ok {
			return reply.Value
		}
		time.Sleep(retryDelay)
	}
}

// sweepGet performs one replica sweep for a Get, trying nreplicas
// candidate servers starting at the shard's primary index. It returns
// ok=false if every candidate in the sweep failed or declined, in which
// case the caller tries another sweep.
func (c *Clerk) sweepGet(ctx context.Context, args kv.GetArgs) (kv.Reply, bool) {
	shard := kv.ShardForKey(args.Key, c.cfg.NServers)

	for r := 0; r < c.replicas(); r++ {
		idx := c.candidate(shard, r)

		reply, transportOK := c.callGet(ctx, idx, args)
		if !transportOK {
			continue
		}
		if reply.Err == "" {
			return reply, true
		}
		// Non-empty Err, including ErrWrongGroup: try next replica.
	}
	return kv.Reply{}, false
}

// sweepPutAppend performs one replica sweep for Put or Append.
func (c *Clerk) sweepPutAppend(ctx context.Context, args kv.PutAppendArgs, isAppend bool) (kv.Reply, bool) {
	shard := kv.ShardForKey(args.Key, c.cfg.NServers)

	for r := 0; r < c.replicas(); r++ {
		idx := c.candidate(shard, r)

		reply, transportOK := c.callPutAppend(ctx, idx, args, isAppend)
		if !transportOK {
			continue
		}
		if reply.Err == "" {
			return reply, true
		}
	}
	return kv.Reply{}, false
}

// replicas returns the configured replica fan-out, defaulting to 1 when
// unset (spec.md §9: dynamic attribute probing replaced with an
// explicit default).
func (c *Clerk) replicas() int {
	if c.cfg.NReplicas <= 0 {
		return 1
	}
	return c.cfg.NReplicas
}

// candidate returns the server index for sweep position r starting at
// shard, wrapping modulo the number of servers.
func (c *Clerk) candidate(shard, r int) int {
	n := c.cfg.NServers
	if n <= 0 {
		return shard
	}
	return (shard + r) % n
}

// callGet dispatches a Get to server idx, preferring an in-process
// handle over HTTP. The bool result is false only on transport failure
// (never on a non-empty reply.Err, which is a successful RPC carrying a
// routing decision).
func (c *Clerk) callGet(ctx context.Context, idx int, args kv.GetArgs) (kv.Reply, bool) {
	if handle, ok := c.cfg.Handles[idx]; ok && handle != nil {
		return handle.Get(ctx, args), true
	}

	addr, ok := c.cfg.Addrs[idx]
	if !ok {
		return kv.Reply{}, false
	}

	var reply kv.Reply
	if err := cluster.PostJSON(ctx, "http://"+addr+"/kv/get", args, &reply); err != nil {
		return kv.Reply{}, false
	}
	return reply, true
}

// callPutAppend dispatches a Put or Append to server idx.
func (c *Clerk) callPutAppend(ctx context.Context, idx int, args kv.PutAppendArgs, isAppend bool) (kv.Reply, bool) {
	if handle, ok := c.cfg.Handles[idx]; ok && handle != nil {
		if isAppend {
			return handle.Append(ctx, args), true
		}
		return handle.Put(ctx, args), true
	}

	addr, ok := c.cfg.Addrs[idx]
	if !ok {
		return kv.Reply{}, false
	}

	path := "/kv/put"
	if isAppend {
		path = "/kv/append"
	}

	var reply kv.Reply
	if err := cluster.PostJSON(ctx, "http://"+addr+path, args, &reply); err != nil {
		return kv.Reply{}, false
	}
	return reply, true
}
