// Package kv defines the wire-level contract shared by the Clerk and the
// shard server: request/reply envelopes, the shard routing function, the
// error tag set, and the cluster configuration the rest of the system is
// built against.
//
// Nothing in this package talks to the network or holds mutable state; it
// is the shared vocabulary that internal/kvclerk and internal/kvserver both
// depend on, the same role internal/cluster plays for the teacher's
// coordinator/node split.
package kv
