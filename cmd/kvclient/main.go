// Package main implements kvclient, a command-line Clerk for the sharded
// KV cluster: get/put/append against whatever peer table the cluster is
// configured with, retrying through internal/kvclerk until some replica
// answers.
//
// Configuration, matching cmd/kvserver:
//   - KV_NSERVERS: total number of servers/shards in the cluster (required)
//   - KV_NREPLICAS: replica fan-out to sweep (default: 1)
//   - KV_PEERS: comma-separated "index=addr" pairs; used instead of a
//     discovery coordinator when set
//   - KV_DIRECTORY_ADDR: optional discovery coordinator base URL, used to
//     fetch the peer table when KV_PEERS is not set
//
// Example usage:
//
//	KV_NSERVERS=4 KV_PEERS=0=localhost:9000,1=localhost:9001,2=localhost:9002,3=localhost:9003 \
//	./kvclient get user:1
//
//	./kvclient put user:1 alice
//	./kvclient append log:1 "line one\n"
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/dreamware/torua/internal/cluster"
	"github.com/dreamware/torua/internal/kv"
	"github.com/dreamware/torua/internal/kvclerk"
)

// logFatal is a variable to allow mocking log.Fatal in tests.
var logFatal = func(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	cfg := buildConfig()
	c := kvclerk.New(cfg)
	ctx := context.Background()

	switch cmd {
	case "get":
		if len(args) != 1 {
			usage()
			os.Exit(2)
		}
		fmt.Println(c.Get(ctx, args[0]))
	case "put":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		c.Put(ctx, args[0], args[1])
	case "append":
		if len(args) != 2 {
			usage()
			os.Exit(2)
		}
		fmt.Println(c.Append(ctx, args[0], args[1]))
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kvclient get KEY | put KEY VALUE | append KEY VALUE")
}

// buildConfig assembles the kv.Config this Clerk will sweep replicas
// against, from either a static KV_PEERS list or a discovery coordinator.
func buildConfig() kv.Config {
	nservers := mustGetenvInt("KV_NSERVERS")
	nreplicas := getenvInt("KV_NREPLICAS", 1)

	cfg := kv.Config{NServers: nservers, NReplicas: nreplicas}

	if peers := os.Getenv("KV_PEERS"); peers != "" {
		addrs, err := parsePeers(peers)
		if err != nil {
			logFatal("invalid KV_PEERS: %v", err)
		}
		cfg.Addrs = addrs
		return cfg
	}

	directory := os.Getenv("KV_DIRECTORY_ADDR")
	if directory == "" {
		logFatal("one of KV_PEERS or KV_DIRECTORY_ADDR must be set")
	}

	var resp struct {
		Nodes []cluster.NodeInfo `json:"nodes"`
	}
	if err := cluster.GetJSON(context.Background(), directory+"/peers", &resp); err != nil {
		logFatal("failed to fetch peer table from %s: %v", directory, err)
	}

	cfg.Addrs = make(map[int]string, len(resp.Nodes))
	for _, n := range resp.Nodes {
		cfg.Addrs[n.Index] = n.Addr
	}
	return cfg
}

// parsePeers parses a comma-separated "index=addr" list into a server
// index -> address map, matching cmd/kvserver's KV_PEERS format.
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
