// Package cluster provides the transport helpers and wire types shared by
// the discovery coordinator and the KV servers: a thin JSON-over-HTTP RPC
// helper (PostJSON/GetJSON) and the registration/peer-table messages used
// to bootstrap a kv.Config.
//
// # Overview
//
// Nothing in this system requires a custom binary wire protocol — every
// remote call, whether Clerk-to-server or server-to-coordinator
// registration, is a JSON body over HTTP. Server-to-server forwarding
// does not go over the network at all: it uses in-process handles only.
// This package is the single place that knows how to make such a call
// and decode the JSON reply, the same role it plays for the teacher's
// coordinator/node split.
//
// # Components
//
// PostJSON/GetJSON: generic JSON request/response helpers used by
// kvclerk (Clerk to server), cmd/kvserver (registration and peer-table
// fetch) and cmd/kvclient (peer-table fetch). The coordinator's health
// monitor does not use them; it polls /health with its own HTTP client.
//
// NodeInfo/RegisterRequest: the wire shapes exchanged between a KV
// server and the discovery coordinator at boot. PeerTable is an
// index -> address map type; the /peers endpoint returns a NodeInfo
// list instead.
package cluster
