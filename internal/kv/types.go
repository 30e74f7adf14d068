package kv

import (
	"context"
	"strconv"
)

// ErrWrongGroup is the only error tag a shard server ever emits on the
// wire: it tells the Clerk that the recipient is not the shard's primary
// and could not forward the request, so the Clerk should try the next
// replica in its sweep.
//
// Any other non-empty Err value must be treated identically by the Clerk
// (spec compatibility: forward-compatible unknown error tags are also
// "try next replica").
const ErrWrongGroup = "ErrWrongGroup"

// GetArgs is the request envelope for KVServer.Get.
type GetArgs struct {
	Key      string `json:"key"`
	ClientID int64  `json:"client_id"`
	Seq      int64  `json:"seq"`
}

// PutAppendArgs is the request envelope shared by KVServer.Put and
// KVServer.Append; the two operations differ only in server-side handling,
// not in wire shape.
type PutAppendArgs struct {
	Key      string `json:"key"`
	Value    string `json:"value"`
	ClientID int64  `json:"client_id"`
	Seq      int64  `json:"seq"`
}

// Reply is the single reply envelope used by all three RPCs. Err is ""
// on success; see ErrWrongGroup for the only other defined tag.
type Reply struct {
	Value string `json:"value"`
	Err   string `json:"err"`
}

// ShardForKey computes the shard a key belongs to: parse_int(key) mod
// nservers. Keys that don't parse as non-negative integers fall back to
// shard 0 — this is observable behavior required for compatibility with
// callers that assume integer-parseable keys (spec §9 open question 2)
// and must not be silently "fixed" into an error.
func ShardForKey(key string, nservers int) int {
	if nservers <= 0 {
		return 0
	}
	n, err := strconv.Atoi(key)
	if err != nil || n < 0 {
		return 0
	}
	return n % nservers
}

// RPCHandle is the interface a shard server exposes to in-process callers
// — the Clerk and other shard servers — so that forwarding and testing
// don't require going over HTTP. kvserver.Server implements this; the
// Clerk and the forwarding path in kvserver only depend on this interface,
// never on the concrete type, mirroring the teacher's use of
// cluster.PostJSON as the sole coupling between coordinator and node.
type RPCHandle interface {
	Get(ctx context.Context, args GetArgs) Reply
	Put(ctx context.Context, args PutAppendArgs) Reply
	Append(ctx context.Context, args PutAppendArgs) Reply
}

// Config is the concrete realization of the cluster configuration object
// spec.md treats as an external collaborator: the number of shards
// (equal to the number of servers in the static primary mapping), the
// replica fan-out the Clerk sweeps per retry pass, and the peer table
// the Clerk and servers use to reach each other.
//
// Addrs and Handles serve different hops. The Clerk uses Addrs for its
// own HTTP calls to a server when it holds no direct Handle for that
// index (spec.md §4.1's replica sweep). Server-to-server forwarding
// (spec.md §4.2 step 2) only ever uses Handles: a server with no direct
// handle to the true primary has no forwarding path and replies
// ErrWrongGroup, it never dials out over HTTP itself.
type Config struct {
	// Addrs maps server index to its HTTP address ("host:port"), used
	// by a Clerk when no in-process Handle is available for that index.
	Addrs map[int]string

	// Handles maps server index to a direct in-process handle, when the
	// Clerk and servers share a process (tests, single-binary demos).
	// A nil or absent entry forces the Clerk's HTTP path for that index,
	// and forces a non-primary server to reply ErrWrongGroup instead of
	// forwarding.
	Handles map[int]RPCHandle

	// NServers is the number of shards, equal to the number of servers
	// in the static primary mapping (primary(s) = s).
	NServers int

	// NReplicas is the replica fan-out the Clerk sweeps per retry pass.
	// Default 1 when not supplied (spec.md §9: dynamic attribute probing
	// replaced with an explicit default).
	NReplicas int
}
