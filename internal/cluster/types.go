// Package cluster provides the core distributed system functionality for Torua.
// See doc.go for complete package documentation.
package cluster

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// NodeInfo identifies one KV server to the discovery coordinator: its
// static shard index (the primary it statically owns, primary(s) = s)
// and the address where it can be reached.
//
// Thread Safety:
// NodeInfo is safe for concurrent read access once initialized.
// Modifications should be protected by external synchronization.
//
// Example:
//
//	node := &NodeInfo{
//	    Index: 1,
//	    Addr:  "192.168.1.10:8081",
//	}
type NodeInfo struct {
	// LastHealthCheck records when the node was last checked by the
	// coordinator's health monitor. Zero value means never checked.
	LastHealthCheck time.Time `json:"last_health_check,omitempty"`

	// Addr is the network address where this server can be reached.
	// Format: "host:port" or "ip:port".
	Addr string `json:"addr"`

	// Status indicates the current health status of the node.
	// Possible values: "healthy", "unhealthy", "unknown".
	Status string `json:"status,omitempty"`

	// Index is the server's static index in the primary mapping: this
	// server is primary for shard Index and no other. Unlike a general
	// node ID, this is never reassigned — there is no rebalancing.
	Index int `json:"index"`
}

// RegisterRequest encapsulates the data sent by a KV server when
// registering with the discovery coordinator at boot.
//
// The registration process:
//  1. Server creates RegisterRequest with its NodeInfo.
//  2. Server POSTs the request to the coordinator's /register endpoint.
//  3. Coordinator records the server's address under its static index.
//  4. The coordinator's /peers endpoint now reflects the new entry.
//
// Example request body:
//
//	{
//	  "node": {
//	    "index": 1,
//	    "addr": "localhost:8081"
//	  }
//	}
type RegisterRequest struct {
	// Node contains the registering server's metadata.
	Node NodeInfo `json:"node"`
}

// PeerTable is an address table keyed by registered server index. The
// coordinator's /peers endpoint does not return this type: it returns
// {"nodes": [...]}, a list of NodeInfo.
type PeerTable struct {
	// Addrs maps server index to its registered address.
	Addrs map[int]string `json:"addrs"`
}

// httpClient is the shared HTTP client used for all cluster communication.
// It's configured with a 5-second timeout to prevent hanging on unresponsive
// nodes and to enable quick failure detection.
//
// Performance characteristics:
//   - Connection pooling enabled by default
//   - Maximum of 100 idle connections
//   - Idle connection timeout of 90 seconds
//   - Supports HTTP/2 when available
//
// Note: This is a package-level variable to enable connection reuse
// across multiple requests, improving performance.
var httpClient = &http.Client{Timeout: 5 * time.Second}

// PostJSON sends a JSON-encoded POST request to the specified URL and
// decodes the JSON response into the provided output structure.
//
// This function is the primary mechanism for node-to-node and
// node-to-coordinator communication in the cluster, handling:
//   - Request body JSON encoding
//   - Context-based cancellation
//   - Response status validation
//   - Response body JSON decoding
//
// Parameters:
//   - ctx: Context for request cancellation and timeout control.
//     Should have a deadline set for production use.
//   - url: Complete URL to send the request to.
//     Example: "http://coordinator:8080/register"
//   - body: Go structure to be JSON-encoded as request body.
//     Must be JSON-serializable (exported fields, valid types).
//   - out: Pointer to structure for JSON response decoding.
//     Pass nil if response body should be ignored.
//
// Returns:
//   - nil on success (HTTP 2xx status and successful decode if out != nil)
//   - Error on failure, which may be:
//   - JSON marshaling error (invalid body structure)
//   - Network error (connection failure, timeout)
//   - HTTP error (non-2xx status code)
//   - JSON unmarshaling error (invalid response format)
//
// Thread Safety:
// This function is thread-safe and can be called concurrently.
// The shared httpClient handles connection pooling safely.
//
// Example:
//
//	req := &RegisterRequest{Node: NodeInfo{Index: 1, Addr: "localhost:8081"}}
//	err := PostJSON(ctx, "http://coordinator:8080/register", req, nil)
//	if err != nil {
//	    log.Printf("Registration failed: %v", err)
//	}
func PostJSON(ctx context.Context, url string, body, out any) error {
	// Marshal request body to JSON
	reqBody, err := json.Marshal(body)
	if err != nil {
		return err
	}

	// Create HTTP request with context for cancellation
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(reqBody))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	// Execute request using shared client
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Check for HTTP errors (status >= 300)
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}

	// Skip decoding if caller doesn't want response
	if out == nil {
		return nil
	}

	// Decode JSON response into output structure
	return json.NewDecoder(resp.Body).Decode(out)
}

// GetJSON sends a GET request to the specified URL and decodes the
// JSON response into the provided output structure.
//
// In this module it fetches the discovery coordinator's peer table
// (GET /peers). The response body must be JSON: an endpoint that
// replies with an empty body, such as /health, yields a decode error.
//
// Parameters:
//   - ctx: Context for request cancellation and timeout control.
//     Should have a deadline set to prevent indefinite waits.
//   - url: Complete URL to send the request to.
//     Example: "http://coordinator:8080/peers"
//   - out: Pointer to structure for JSON response decoding.
//     The structure should match the expected response format.
//
// Returns:
//   - nil on success (HTTP 2xx status and successful decode)
//   - Error on failure, which may be:
//   - Network error (connection failure, DNS resolution, timeout)
//   - HTTP error (non-2xx status code)
//   - JSON unmarshaling error (response doesn't match out structure)
//
// Thread Safety:
// This function is thread-safe and can be called concurrently.
// Multiple goroutines can safely make GET requests simultaneously.
//
// Performance Notes:
//   - Uses connection pooling for efficiency
//   - Streams response body (doesn't buffer entirely in memory)
//   - Suitable for responses up to several MB
//   - For large responses, consider streaming or pagination
//
// Example:
//
//	var peers struct {
//	    Nodes []NodeInfo `json:"nodes"`
//	}
//	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
//	defer cancel()
//	err := GetJSON(ctx, "http://coordinator:8080/peers", &peers)
//	if err != nil {
//	    log.Printf("Peer fetch failed: %v", err)
//	}
func GetJSON(ctx context.Context, url string, out any) error {
	// Create HTTP request with context
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return err
	}

	// Execute request using shared client
	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// Check for HTTP errors
	if resp.StatusCode >= 300 {
		return fmt.Errorf("http %s: %d", url, resp.StatusCode)
	}

	// Decode JSON response
	return json.NewDecoder(resp.Body).Decode(out)
}
