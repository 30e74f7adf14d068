// Package kvclerk implements the client side of the sharded KV protocol:
// the Clerk. A Clerk owns a stable client identity and a monotonically
// increasing sequence number, computes the shard for each key, and
// sweeps the replica ring until some server answers successfully.
//
// # Retry contract
//
// Every logical call reserves exactly one seq, reused across every retry
// of that call, so the server's per-client dedup table recognizes a
// retried delivery as the same operation and never re-applies it. A
// Clerk never reports failure to its caller — Get/Put/Append block until
// some replica answers with an empty Err. Callers wanting bounded
// latency must impose an external timeout (e.g. run the call in a
// goroutine and select on a context).
//
// # Transport
//
// A Clerk reaches a server either through an in-process kv.RPCHandle
// (when the Clerk and server share a process, used by tests) or over
// HTTP via internal/cluster.PostJSON, exactly as the Clerk-to-server
// coupling in spec.md is described abstractly as call(method, args).
package kvclerk
