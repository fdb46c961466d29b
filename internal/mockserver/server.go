// Package mockserver is an in-process Rojifi admin API. It checks the
// session headers, seals list pages to the caller's public key and answers
// mutations with bare envelopes. Tests and examples run against it.
package mockserver

import (
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/api"
	"github.com/AntimonyIQ/rojifiadmin-sub001/internal/crypto"
)

// Record is one stored entity.
type Record map[string]any

// Action is a mutation the server received.
type Action struct {
	Method string
	Path   string
	Body   map[string]any
}

// Server implements http.Handler.
type Server struct {
	mu             sync.Mutex
	token          string
	data           map[string][]Record
	actions        []Action
	failures       map[string]failure
	breakHandshake bool
	requests       int
}

type failure struct {
	status  int
	message string
}

// New creates a server that accepts token as the only valid bearer token.
func New(token string) *Server {
	return &Server{
		token:    token,
		data:     make(map[string][]Record),
		failures: make(map[string]failure),
	}
}

// Seed appends records to the list served at path, e.g. "/contacts".
func (s *Server) Seed(path string, records ...Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[path] = append(s.data[path], records...)
}

// FailNext makes the next request to method+path return an ERROR envelope
// with the given status and message.
func (s *Server) FailNext(method, path string, status int, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, message: message}
}

// BreakHandshake makes list replies carry a handshake that does not belong
// to their data, so clients fail to decrypt them.
func (s *Server) BreakHandshake(broken bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.breakHandshake = broken
}

// SetToken replaces the accepted bearer token.
func (s *Server) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Actions returns the mutations received so far.
func (s *Server) Actions() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.actions...)
}

// Requests returns the number of requests that passed authentication.
func (s *Server) Requests() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requests
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	token := s.token
	s.mu.Unlock()

	if r.Header.Get("Authorization") != "Bearer "+token {
		writeEnvelope(w, http.StatusUnauthorized, api.Envelope{Status: api.StatusError, Message: "invalid or expired token"})
		return
	}
	publicKey := r.Header.Get(api.HeaderHandshake)
	if publicKey == "" || r.Header.Get(api.HeaderDeviceID) == "" {
		writeEnvelope(w, http.StatusBadRequest, api.Envelope{Status: api.StatusError, Error: "missing handshake headers"})
		return
	}

	s.mu.Lock()
	s.requests++
	key := r.Method + " " + r.URL.Path
	f, failing := s.failures[key]
	delete(s.failures, key)
	s.mu.Unlock()

	if failing {
		writeEnvelope(w, f.status, api.Envelope{Status: api.StatusError, Message: f.message})
		return
	}

	if r.Method == http.MethodGet {
		s.serveList(w, r, publicKey)
		return
	}
	s.serveMutation(w, r)
}

func (s *Server) serveList(w http.ResponseWriter, r *http.Request, publicKey string) {
	q := r.URL.Query()
	page := atoiDefault(q.Get("page"), 1)
	limit := atoiDefault(q.Get("limit"), 10)
	search := strings.ToLower(strings.TrimSpace(q.Get("search")))

	s.mu.Lock()
	all := append([]Record(nil), s.data[r.URL.Path]...)
	broken := s.breakHandshake
	s.mu.Unlock()

	matched := make([]Record, 0, len(all))
	for _, rec := range all {
		if search != "" && !matchesSearch(rec, search) {
			continue
		}
		if !matchesFilters(rec, q) {
			continue
		}
		matched = append(matched, rec)
	}

	total := len(matched)
	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	from := min((page-1)*limit, total)
	to := min(from+limit, total)

	plaintext, err := json.Marshal(matched[from:to])
	if err != nil {
		writeEnvelope(w, http.StatusInternalServerError, api.Envelope{Status: api.StatusError, Message: err.Error()})
		return
	}

	data, handshake, err := crypto.Seal(publicKey, plaintext)
	if err != nil {
		writeEnvelope(w, http.StatusBadRequest, api.Envelope{Status: api.StatusError, Message: "invalid handshake key"})
		return
	}
	if broken {
		_, handshake, _ = crypto.Seal(publicKey, plaintext)
	}

	blob, _ := json.Marshal(data)
	writeEnvelope(w, http.StatusOK, api.Envelope{
		Status:    api.StatusSuccess,
		Data:      blob,
		Handshake: handshake,
		Pagination: &api.Pagination{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
		},
	})
}

func (s *Server) serveMutation(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	if r.ContentLength != 0 {
		_ = json.NewDecoder(r.Body).Decode(&body)
	}

	s.mu.Lock()
	s.actions = append(s.actions, Action{Method: r.Method, Path: r.URL.Path, Body: body})
	s.mu.Unlock()

	writeEnvelope(w, http.StatusOK, api.Envelope{Status: api.StatusSuccess, Message: "ok"})
}

func matchesSearch(rec Record, term string) bool {
	for _, v := range rec {
		if s, ok := v.(string); ok && strings.Contains(strings.ToLower(s), term) {
			return true
		}
	}
	return false
}

func matchesFilters(rec Record, q map[string][]string) bool {
	names := make([]string, 0, len(q))
	for name := range q {
		switch name {
		case "page", "limit", "search":
		default:
			names = append(names, name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		v, ok := rec[name]
		if !ok || fmt.Sprint(v) != q[name][0] {
			return false
		}
	}
	return true
}

func atoiDefault(s string, def int) int {
	n, err := strconv.Atoi(s)
	if err != nil || n < 1 {
		return def
	}
	return n
}

func writeEnvelope(w http.ResponseWriter, status int, env api.Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}
