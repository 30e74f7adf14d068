package kvserver

import (
	"encoding/json"
	"net/http"

	"github.com/dreamware/torua/internal/kv"
)

// Handler returns an http.Handler exposing this server's RPC surface
// (/kv/get, /kv/put, /kv/append), a /health check, and an /info
// endpoint for debugging — the same endpoint shape as the teacher's
// cmd/node HTTP API, retargeted at KV operations instead of raw shard
// storage paths.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/kv/get", s.handleGetHTTP)
	mux.HandleFunc("/kv/put", s.handlePutHTTP)
	mux.HandleFunc("/kv/append", s.handleAppendHTTP)

	mux.HandleFunc("/info", s.handleInfoHTTP)

	return mux
}

func (s *Server) handleGetHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var args kv.GetArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, s.Get(r.Context(), args))
}

func (s *Server) handlePutHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var args kv.PutAppendArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, s.Put(r.Context(), args))
}

func (s *Server) handleAppendHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var args kv.PutAppendArgs
	if err := json.NewDecoder(r.Body).Decode(&args); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	writeJSON(w, s.Append(r.Context(), args))
}

func (s *Server) handleInfoHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, s.Info())
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
