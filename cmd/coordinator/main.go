// Package main implements the KV cluster's discovery coordinator: a small
// registry of shard server addresses and a health monitor over them.
//
// Shard assignment in this system is static — primary(s) = s, fixed by
// each shard server's own configured index (internal/kv.Config) — so the
// coordinator never assigns or reassigns shards and never proxies data
// requests. Its only job is letting shard servers register their address
// on startup and letting Clerks and operators discover the current peer
// table and each server's health.
//
// Architecture:
//
//	┌─────────────────────────────────────────┐
//	│            Coordinator                   │
//	├─────────────────────────────────────────┤
//	│  HTTP API:                              │
//	│    /register     - Server registration  │
//	│    /peers        - Current peer table   │
//	│    /health       - Health check         │
//	├─────────────────────────────────────────┤
//	│  Components:                            │
//	│    server          - HTTP handler state │
//	│    HealthMonitor   - Liveness tracking  │
//	│    nodes[]         - Registered servers │
//	└─────────────────────────────────────────┘
//
// Configuration:
//   - COORD_LISTEN: Listen address (default: ":8080")
//   - HEALTH_CHECK_INTERVAL: Go duration string (default: 5s)
//
// Example usage:
//
//	# Start coordinator
//	COORD_LISTEN=:8080 ./coordinator
//
//	# Register a shard server
//	curl -X POST localhost:8080/register \
//	  -d '{"node":{"index":1,"addr":"localhost:9001"}}'
//
//	# Fetch the current peer table
//	curl localhost:8080/peers
package main

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/dreamware/torua/internal/cluster"
	"github.com/dreamware/torua/internal/coordinator"
)

// Health status constants for node health monitoring
const (
	healthStatusHealthy   = "healthy"
	healthStatusUnhealthy = "unhealthy"
	healthStatusUnknown   = "unknown"
)

// main initializes and runs the coordinator service, setting up HTTP
// endpoints for registration and discovery and gracefully handling
// shutdown signals.
func main() {
	addr := getenv("COORD_LISTEN", ":8080")

	srv := newServer()

	// Start health monitor in background
	go srv.healthMonitor.Start(context.Background(), func() []cluster.NodeInfo {
		srv.mu.RLock()
		defer srv.mu.RUnlock()
		nodes := make([]cluster.NodeInfo, len(srv.nodes))
		copy(nodes, srv.nodes)
		return nodes
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/register", srv.handleRegister) // POST: register/update a shard server
	mux.HandleFunc("/peers", srv.handlePeers)        // GET: current peer table (index -> addr)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	httpSrv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second, // Prevent slowloris attacks
	}

	go func() {
		log.Printf("coordinator listening on %s", addr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	log.Println("stopping health monitor...")
	srv.healthMonitor.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(ctx); err != nil {
		log.Printf("HTTP server shutdown error: %v", err)
	}
	log.Println("coordinator stopped")
}

// server encapsulates the coordinator's runtime state: the list of
// registered shard servers and a health monitor tracking their liveness.
// There is no shard registry here — shard ownership never changes.
type server struct {
	healthMonitor *coordinator.HealthMonitor

	// nodes contains every shard server that has registered, keyed
	// positionally (not by map) since registrations are infrequent and
	// the list is small.
	nodes []cluster.NodeInfo

	mu sync.RWMutex
}

// newServer creates and initializes a new coordinator server instance.
func newServer() *server {
	healthInterval := 5 * time.Second
	if envInterval := os.Getenv("HEALTH_CHECK_INTERVAL"); envInterval != "" {
		if parsed, err := time.ParseDuration(envInterval); err == nil {
			healthInterval = parsed
			log.Printf("health check interval set to %v", healthInterval)
		}
	}

	srv := &server{
		healthMonitor: coordinator.NewHealthMonitor(healthInterval),
	}

	// Unhealthy servers are logged for operator visibility; nothing is
	// reassigned, since primary(s) = s never changes.
	srv.healthMonitor.SetOnUnhealthy(func(index int) {
		srv.markNodeUnhealthy(index)
	})

	return srv
}

// handleRegister processes shard server registration requests.
//
// Endpoint: POST /register
//
// Request body:
//
//	{"node": {"index": 1, "addr": "localhost:9001"}}
//
// Response:
//   - 204 No Content: Registration successful
//   - 400 Bad Request: Invalid JSON or missing address
func (s *server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req cluster.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return
	}

	if req.Node.Addr == "" {
		http.Error(w, "missing addr", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := slices.IndexFunc(s.nodes, func(n cluster.NodeInfo) bool { return n.Index == req.Node.Index })
	if idx >= 0 {
		s.nodes[idx] = req.Node
	} else {
		s.nodes = append(s.nodes, req.Node)
	}

	log.Printf("registered shard server %d at %s", req.Node.Index, req.Node.Addr)
	w.WriteHeader(http.StatusNoContent)
}

// markNodeUnhealthy marks a registered server as unhealthy by index. The
// server remains in the list for visibility but is flagged accordingly.
func (s *server) markNodeUnhealthy(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i, node := range s.nodes {
		if node.Index == index {
			s.nodes[i].Status = healthStatusUnhealthy
			log.Printf("marked shard server %d as unhealthy", index)
			return
		}
	}
}

// handlePeers returns the current peer table: every registered shard
// server's static index, address, and health status. Clerks and shard
// servers use this to build their kv.Config.Addrs map at startup (see
// cmd/kvserver and cmd/kvclient).
//
// Endpoint: GET /peers
//
// Response body:
//
//	{"nodes": [{"index": 0, "addr": "localhost:9000", "status": "healthy"}]}
func (s *server) handlePeers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	allHealth := s.healthMonitor.GetAllNodeHealth()

	nodes := make([]cluster.NodeInfo, len(s.nodes))
	for i, node := range s.nodes {
		nodes[i] = node
		if node.Status != healthStatusUnhealthy {
			if health := allHealth[node.Index]; health != nil {
				nodes[i].Status = health.Status
				nodes[i].LastHealthCheck = health.LastCheck
			} else {
				nodes[i].Status = healthStatusUnknown
			}
		}
	}

	if err := json.NewEncoder(w).Encode(struct {
		Nodes []cluster.NodeInfo `json:"nodes"`
	}{Nodes: nodes}); err != nil {
		log.Printf("error encoding peers response: %v", err)
	}
}

// getenv retrieves an environment variable with a default fallback value.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
