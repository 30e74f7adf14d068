// Package coordinator implements the discovery coordinator for the
// sharded KV cluster: a registry of shard server addresses and a health
// monitor over them. It never reassigns shards — primary(s) = s is
// fixed for the lifetime of the cluster — so its role is purely
// discovery and observability, not a control plane.
//
// # Overview
//
// spec.md treats the cluster configuration object (nservers, nreplicas,
// kvservers[i]) as an external collaborator handed to the Clerk and
// servers at boot. This package is one concrete way to assemble that
// object at runtime instead of baking it into a static KV_PEERS
// environment variable: a small always-up process that servers
// register with, and that Clerks and servers query for the current
// peer table.
//
// # Components
//
// HealthMonitor: periodically polls every registered server's /health
// endpoint and tracks consecutive-failure counts, invoking a callback
// when a server crosses the unhealthy threshold. This is purely for
// logging/alerting — marking a server unhealthy never changes who is
// primary for which shard, and never triggers any data movement.
//
// cmd/coordinator wires a server on top of this package: POST /register
// records a shard server's static index and address; GET /peers returns
// the full index -> address table; the HealthMonitor's unhealthy
// callback flips a node's recorded status for observability.
//
// # What this package deliberately does not do
//
// Unlike a general-purpose cluster coordinator, this one does not
// assign shards to nodes, does not rebalance on node failure or
// recovery, does not broadcast cluster state, and does not route client
// requests. The shard server hosting shard s is fixed at s forever
// (spec.md §4.2, §9); the coordinator's only job is letting Clerks and
// servers discover each other's addresses and letting operators observe
// liveness.
//
// # Failure handling
//
// A server that fails health checks is marked unhealthy in the peer
// table's Status field and logged, but it is not removed from /peers
// and no other server takes over its shard: spec.md's Non-goals exclude
// cluster membership changes and reconfiguration, and this holds
// whether or not the coordinator is running at all. Clerks discover an
// unavailable primary the same way they discover any other transport
// failure — by retrying the sweep — regardless of what the coordinator
// thinks its status is.
//
// # See Also
//
// Related packages:
//   - internal/cluster: wire types and JSON transport shared with the
//     discovery coordinator
//   - internal/kvserver: the shard servers that register here
//   - cmd/coordinator: the discovery coordinator binary
package coordinator
