// Package testutil provides test infrastructure for unit and integration testing.
// It includes a fake job state server, fixtures, and helpers that other
// packages use for testing.
package testutil

import (
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// Request records one request received by a JobServer.
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

// JobServer is a fake job state endpoint. It returns canned page bodies keyed
// by the request's query string and records every request for assertions.
type JobServer struct {
	*httptest.Server

	mu        sync.Mutex
	responses map[string]string
	statuses  map[string]int
	delay     time.Duration
	requests  []Request
	gate      chan struct{}
}

// NewJobServer starts a JobServer. The server is closed when the test ends
// if the caller registers Close with t.Cleanup.
func NewJobServer() *JobServer {
	s := &JobServer{
		responses: make(map[string]string),
		statuses:  make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	return s
}

// DataURI returns the root page endpoint.
func (s *JobServer) DataURI() string {
	return s.URL + "/api/state"
}

// PrefsURI returns the preferences endpoint.
func (s *JobServer) PrefsURI() string {
	return s.URL + "/api/prefs"
}

// SetPage registers the body returned for requests whose query matches query.
// The query is written as "k=v&k2=v2" in any order; "" matches the root page.
func (s *JobServer) SetPage(query, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[canonicalQuery(query)] = body
}

// SetStatus makes requests matching query fail with the given HTTP status.
func (s *JobServer) SetStatus(query string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[canonicalQuery(query)] = status
}

// SetPrefs registers the body returned by GET on the preferences endpoint.
func (s *JobServer) SetPrefs(body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses["prefs"] = body
}

// SetDelay delays every page response.
func (s *JobServer) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// Hold blocks page responses until the returned release function is called.
func (s *JobServer) Hold() (release func()) {
	gate := make(chan struct{})
	s.mu.Lock()
	s.gate = gate
	s.mu.Unlock()
	var once sync.Once
	return func() {
		once.Do(func() { close(gate) })
	}
}

// Requests returns a copy of all recorded requests.
func (s *JobServer) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	result := make([]Request, len(s.requests))
	copy(result, s.requests)
	return result
}

// PageRequests returns the recorded requests against the state endpoint.
func (s *JobServer) PageRequests() []Request {
	var result []Request
	for _, r := range s.Requests() {
		if r.Path == "/api/state" {
			result = append(result, r)
		}
	}
	return result
}

// CountQuery returns how many state requests carried the given query.
func (s *JobServer) CountQuery(query string) int {
	want := canonicalQuery(query)
	count := 0
	for _, r := range s.PageRequests() {
		if canonicalQuery(r.Query.Encode()) == want {
			count++
		}
	}
	return count
}

// PrefsPosts returns the bodies POSTed to the preferences endpoint.
func (s *JobServer) PrefsPosts() [][]byte {
	var result [][]byte
	for _, r := range s.Requests() {
		if r.Path == "/api/prefs" && r.Method == http.MethodPost {
			result = append(result, r.Body)
		}
	}
	return result
}

func (s *JobServer) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.requests = append(s.requests, Request{
		Method: r.Method,
		Path:   r.URL.Path,
		Query:  r.URL.Query(),
		Body:   body,
	})
	delay := s.delay
	gate := s.gate
	s.mu.Unlock()

	switch r.URL.Path {
	case "/api/prefs":
		s.mu.Lock()
		resp, ok := s.responses["prefs"]
		s.mu.Unlock()
		if r.Method == http.MethodPost {
			writeJSON(w, http.StatusOK, `{"status":"ok"}`)
			return
		}
		if !ok {
			resp = `{}`
		}
		writeJSON(w, http.StatusOK, resp)
		return
	case "/api/state":
	default:
		http.NotFound(w, r)
		return
	}

	if delay > 0 {
		time.Sleep(delay)
	}
	if gate != nil {
		<-gate
	}

	key := canonicalQuery(r.URL.RawQuery)
	s.mu.Lock()
	status, failing := s.statuses[key]
	resp, ok := s.responses[key]
	s.mu.Unlock()

	if failing {
		http.Error(w, http.StatusText(status), status)
		return
	}
	if !ok {
		resp = EmptyPageJSON
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

// canonicalQuery sorts query parameters so lookups ignore ordering.
func canonicalQuery(query string) string {
	values, err := url.ParseQuery(query)
	if err != nil {
		return query
	}
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+"="+strings.Join(values[k], ","))
	}
	return strings.Join(parts, "&")
}

// PageJSON builds a page body from job objects.
func PageJSON(jobs ...map[string]any) string {
	if jobs == nil {
		jobs = []map[string]any{}
	}
	data, err := json.Marshal(map[string]any{
		"job-count": strconv.Itoa(len(jobs)),
		"jobs":      jobs,
	})
	if err != nil {
		panic(err)
	}
	return string(data)
}
