package backendfakes

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
)

// Request is one call observed by the fake
type Request struct {
	Method     string
	Collection string
	RecordID   string
	Body       map[string]any
}

// Server is a fake record backend. Identity, Password and Token are fixed
// once NewServer returns.
type Server struct {
	URL      string
	Identity string
	Password string
	Token    string

	mu           sync.Mutex
	pageSize     int
	createStatus func(collection string, n int) int
	deleteStatus func(collection, id string) int
	listStatus   func(collection string) int
	nextID       int
	collections  map[string][]map[string]any
	creates      map[string]int
	requests     []Request
}

// NewServer starts a fake backend that is closed when the test ends
func NewServer(t testing.TB) *Server {
	t.Helper()

	s := &Server{
		Identity:    "admin@example.com",
		Password:    "secret",
		Token:       "admin-token",
		pageSize:    30,
		collections: make(map[string][]map[string]any),
		creates:     make(map[string]int),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/admins/auth-with-password", s.handleAuth)
	mux.HandleFunc("GET /api/collections/{collection}/records", s.withAuth(s.handleList))
	mux.HandleFunc("POST /api/collections/{collection}/records", s.withAuth(s.handleCreate))
	mux.HandleFunc("DELETE /api/collections/{collection}/records/{id}", s.withAuth(s.handleDelete))

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	s.URL = srv.URL
	return s
}

// SetPageSize limits how many records a list call returns
func (s *Server) SetPageSize(n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pageSize = n
}

// FailCreates overrides the status of the n-th (1-based) create in a
// collection whenever fn returns a non-zero code.
func (s *Server) FailCreates(fn func(collection string, n int) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createStatus = fn
}

// FailDeletes overrides the status of a delete whenever fn returns non-zero.
func (s *Server) FailDeletes(fn func(collection, id string) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleteStatus = fn
}

// FailLists overrides the status of a page fetch whenever fn returns non-zero.
func (s *Server) FailLists(fn func(collection string) int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listStatus = fn
}

// Seed inserts n records into a collection and returns their ids
func (s *Server) Seed(collection string, n int) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]string, 0, n)
	for i := 0; i < n; i++ {
		rec := map[string]any{"id": s.newID()}
		s.collections[collection] = append(s.collections[collection], rec)
		ids = append(ids, rec["id"].(string))
	}
	return ids
}

// Records returns a copy of the records stored in a collection
func (s *Server) Records(collection string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]map[string]any, len(s.collections[collection]))
	copy(out, s.collections[collection])
	return out
}

// Requests returns every request observed so far
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// CountRequests counts observed requests by method and collection
func (s *Server) CountRequests(method, collection string) int {
	count := 0
	for _, r := range s.Requests() {
		if r.Method == method && r.Collection == collection {
			count++
		}
	}
	return count
}

func (s *Server) newID() string {
	s.nextID++
	return fmt.Sprintf("rec%012d", s.nextID)
}

func (s *Server) record(r Request) {
	s.requests = append(s.requests, r)
}

func (s *Server) handleAuth(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	s.record(Request{Method: r.Method, Body: map[string]any{"identity": body.Identity}})
	s.mu.Unlock()

	if body.Identity != s.Identity || body.Password != s.Password {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "Failed to authenticate."})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"token": s.Token, "admin": map[string]any{"email": s.Identity}})
}

func (s *Server) withAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+s.Token {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"message": "unauthorized"})
			return
		}
		next(w, r)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Request{Method: r.Method, Collection: collection})

	if s.listStatus != nil {
		if status := s.listStatus(collection); status != 0 {
			w.WriteHeader(status)
			return
		}
	}

	pageNum := 1
	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n > 1 {
		pageNum = n
	}

	all := s.collections[collection]
	page := all
	if s.pageSize > 0 {
		start := min((pageNum-1)*s.pageSize, len(all))
		end := min(start+s.pageSize, len(all))
		page = all[start:end]
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"page":       pageNum,
		"perPage":    s.pageSize,
		"totalItems": len(all),
		"items":      page,
	})
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")

	var body map[string]any
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{"message": "invalid body"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Request{Method: r.Method, Collection: collection, Body: body})

	s.creates[collection]++
	if s.createStatus != nil {
		if status := s.createStatus(collection, s.creates[collection]); status != 0 {
			writeJSON(w, status, map[string]any{"message": "Failed to create record."})
			return
		}
	}

	rec := make(map[string]any, len(body)+1)
	for k, v := range body {
		rec[k] = v
	}
	rec["id"] = s.newID()
	s.collections[collection] = append(s.collections[collection], rec)
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	collection := r.PathValue("collection")
	id := r.PathValue("id")

	s.mu.Lock()
	defer s.mu.Unlock()
	s.record(Request{Method: r.Method, Collection: collection, RecordID: id})

	if s.deleteStatus != nil {
		if status := s.deleteStatus(collection, id); status != 0 {
			w.WriteHeader(status)
			return
		}
	}

	records := s.collections[collection]
	for i, rec := range records {
		if rec["id"] == id {
			s.collections[collection] = append(records[:i:i], records[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]any{"message": "not found"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
