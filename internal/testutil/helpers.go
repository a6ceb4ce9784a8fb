package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteFile writes content to a file in the given directory.
// It creates parent directories as needed and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

// ReadFile reads a file and returns its contents.
// It fails the test if the file cannot be read.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(data)
}

// StartJobServer starts a JobServer that is closed when the test ends.
func StartJobServer(t *testing.T) *JobServer {
	t.Helper()
	s := NewJobServer()
	t.Cleanup(s.Close)
	return s
}

// AssertFetched verifies that the state endpoint received a request with the
// given query.
func AssertFetched(t *testing.T, s *JobServer, query string) {
	t.Helper()
	if s.CountQuery(query) == 0 {
		t.Errorf("expected request with query %q, got %v", query, queries(s))
	}
}

// AssertFetchCount verifies how many times the state endpoint was asked for
// the given query.
func AssertFetchCount(t *testing.T, s *JobServer, query string, expected int) {
	t.Helper()
	if got := s.CountQuery(query); got != expected {
		t.Errorf("expected %d requests with query %q, got %d (requests: %v)", expected, query, got, queries(s))
	}
}

func queries(s *JobServer) []string {
	var result []string
	for _, r := range s.PageRequests() {
		result = append(result, r.Query.Encode())
	}
	return result
}
