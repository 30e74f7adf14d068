// Package kvserver implements the shard-server side of the sharded KV
// protocol: request routing, in-process forwarding to the true primary
// when a direct handle is held, and delegation to the per-shard store
// once a request reaches its primary.
//
// # Primary election
//
// The primary for shard s is always the server whose static index equals
// s (primary(s) = s). This is a fixed function, not an elected role —
// there is no view change, no quorum, and no reconfiguration. A server
// that is not primary for a request's shard either forwards the request
// in-process (if it holds a direct kv.RPCHandle to the primary) or
// replies ErrWrongGroup so the Clerk tries the next replica.
//
// # Shard lifecycle
//
// Shards are created lazily on first access and persist for the life of
// the process — there is no shard deletion, migration, or rebalancing
// (all excluded as non-goals). A server may equivalently pre-create all
// NServers shards at construction, since the count is known up front;
// this implementation creates them lazily, matching the teacher's
// on-demand shard creation in cmd/node.
package kvserver
