// Package main implements the kvserver binary: one shard server in the
// sharded KV cluster. It owns a static index and serves the shard it is
// primary for. It holds no in-process handles to its peers, so it does
// not forward: a request for any other shard gets ErrWrongGroup and the
// Clerk moves on to its next sweep candidate.
//
// Configuration:
//   - KV_INDEX: this server's static index (required, determines which
//     shard it is primary for: primary(s) = s)
//   - KV_NSERVERS: total number of servers/shards in the cluster (required)
//   - KV_NREPLICAS: replica fan-out a Clerk should sweep (default: 1)
//   - KV_LISTEN: local listen address (default: ":9000")
//   - KV_ADDR: public address other servers/Clerks use to reach this
//     server (default: "127.0.0.1" + KV_LISTEN)
//   - KV_PEERS: comma-separated "index=addr" pairs giving every other
//     server's address; used instead of a discovery coordinator when set
//   - KV_DIRECTORY_ADDR: optional discovery coordinator base URL; if set
//     and KV_PEERS is not, this server registers itself and fetches the
//     peer table from the coordinator at startup
//
// Example usage:
//
//	KV_INDEX=0 KV_NSERVERS=4 KV_LISTEN=:9000 KV_ADDR=localhost:9000 \
//	KV_PEERS=0=localhost:9000,1=localhost:9001,2=localhost:9002,3=localhost:9003 \
//	./kvserver
package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dreamware/torua/internal/cluster"
	"github.com/dreamware/torua/internal/kv"
	"github.com/dreamware/torua/internal/kvserver"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = log.Fatalf

func main() {
	index := mustGetenvInt("KV_INDEX")
	nservers := mustGetenvInt("KV_NSERVERS")
	nreplicas := getenvInt("KV_NREPLICAS", 1)
	listen := getenv("KV_LISTEN", ":9000")
	public := getenv("KV_ADDR", "127.0.0.1"+listen)

	cfg := kv.Config{NServers: nservers, NReplicas: nreplicas, Addrs: make(map[int]string)}

	directory := os.Getenv("KV_DIRECTORY_ADDR")
	staticPeers := os.Getenv("KV_PEERS") != ""
	if peers := os.Getenv("KV_PEERS"); peers != "" {
		addrs, err := parsePeers(peers)
		if err != nil {
			logFatal("invalid KV_PEERS: %v", err)
		}
		cfg.Addrs = addrs
	}

	srv := kvserver.New(index, cfg)
	log.Printf("kvserver[%d] initialized (%d servers, %d replicas)", index, nservers, nreplicas)

	s := &http.Server{
		Addr:              listen,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("kvserver[%d] listening on %s (public %s)", index, listen, public)
		if err := s.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logFatal("listen: %v", err)
		}
	}()

	// With a discovery coordinator and no static KV_PEERS, register this
	// server (now that it is listening and can answer /health) and pull
	// down the peer table into cfg.Addrs. The server itself never dials
	// these addresses; forwarding uses in-process handles only.
	if directory != "" && !staticPeers {
		ctx := context.Background()
		register(ctx, directory, index, public)
		addrs, err := fetchPeers(ctx, directory)
		if err != nil {
			logFatal("failed to fetch peer table from %s: %v", directory, err)
		}
		for idx, addr := range addrs {
			cfg.Addrs[idx] = addr
		}
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("kvserver[%d] stopped", index)
}

// register attempts to register this server with the discovery
// coordinator, retrying to tolerate coordinator startup delays, in the
// same 10-attempt/400ms-backoff shape as the teacher's node registration.
func register(ctx context.Context, directory string, index int, addr string) {
	body := cluster.RegisterRequest{Node: cluster.NodeInfo{Index: index, Addr: addr}}
	var lastErr error

	for i := 0; i < 10; i++ {
		lastErr = cluster.PostJSON(ctx, directory+"/register", body, nil)
		if lastErr == nil {
			log.Printf("kvserver[%d] registered with coordinator @ %s", index, directory)
			return
		}
		log.Printf("kvserver[%d] register retry %d: %v", index, i+1, lastErr)
		time.Sleep(400 * time.Millisecond)
	}

	logFatal("failed to register with coordinator: %v", lastErr)
}

// fetchPeers retrieves the current peer table from the discovery
// coordinator's /peers endpoint.
func fetchPeers(ctx context.Context, directory string) (map[int]string, error) {
	var resp struct {
		Nodes []cluster.NodeInfo `json:"nodes"`
	}
	if err := cluster.GetJSON(ctx, directory+"/peers", &resp); err != nil {
		return nil, err
	}

	addrs := make(map[int]string, len(resp.Nodes))
	for _, n := range resp.Nodes {
		addrs[n.Index] = n.Addr
	}
	return addrs, nil
}

// parsePeers parses a comma-separated "index=addr" list, as set in
// KV_PEERS, into a server index -> address map.
func parsePeers(raw string) (map[int]string, error) {
	addrs := make(map[int]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		parts := strings.SplitN(pair, "=", 2)
		if len(parts) != 2 {
			return nil, fmt.Errorf("malformed peer entry %q", pair)
		}
		idx, err := strconv.Atoi(strings.TrimSpace(parts[0]))
		if err != nil {
			return nil, fmt.Errorf("malformed peer index %q: %w", parts[0], err)
		}
		addrs[idx] = strings.TrimSpace(parts[1])
	}
	return addrs, nil
}

// getenv retrieves an environment variable with a default fallback value.
func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

// getenvInt retrieves an integer environment variable with a default.
func getenvInt(k string, def int) int {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logFatal("invalid int for %s: %v", k, err)
	}
	return n
}

// mustGetenvInt retrieves a required integer environment variable,
// terminating the program if it's unset or not a valid integer.
func mustGetenvInt(k string) int {
	v := os.Getenv(k)
	if v == "" {
		logFatal("missing env %s", k)
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		logFatal("invalid int for %s: %v", k, err)
	}
	return n
}
