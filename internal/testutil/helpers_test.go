package testutil

import (
	"io"
	"net/http"
	"os"
	"strings"
	"testing"
	"time"
)

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()

	path := WriteFile(t, dir, "test.txt", "hello world")

	// Verify file exists
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file should exist: %v", err)
	}
	if string(content) != "hello world" {
		t.Errorf("content = %q, want %q", content, "hello world")
	}
}

func TestWriteFile_CreatesSubdirectories(t *testing.T) {
	dir := t.TempDir()

	path := WriteFile(t, dir, "sub/dir/test.txt", "content")

	// Verify file exists
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("file should exist: %v", err)
	}
	if string(content) != "content" {
		t.Errorf("content = %q, want %q", content, "content")
	}
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()

	path := WriteFile(t, dir, "test.txt", "test content")
	content := ReadFile(t, path)

	if content != "test content" {
		t.Errorf("content = %q, want %q", content, "test content")
	}
}

func get(t *testing.T, url string) (int, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	return resp.StatusCode, string(body)
}

func TestJobServer_ServesPagesByQuery(t *testing.T) {
	s := StartJobServer(t)
	s.SetPage("", TwoJobChainJSON)
	s.SetPage("path-depth=2&selected=7", LazyBoxChildrenJSON)

	if _, body := get(t, s.DataURI()); body != TwoJobChainJSON {
		t.Errorf("root page = %s", body)
	}
	// Parameter order does not matter.
	if _, body := get(t, s.DataURI()+"?"+LazyBoxChildrenQuery); body != LazyBoxChildrenJSON {
		t.Errorf("children page = %s", body)
	}
	if _, body := get(t, s.DataURI()+"?selected=99"); body != EmptyPageJSON {
		t.Errorf("unregistered page = %s, want empty page", body)
	}

	AssertFetched(t, s, LazyBoxChildrenQuery)
	AssertFetchCount(t, s, "", 1)
	if got := len(s.PageRequests()); got != 3 {
		t.Errorf("PageRequests = %d, want 3", got)
	}
}

func TestJobServer_Status(t *testing.T) {
	s := StartJobServer(t)
	s.SetStatus("", http.StatusBadGateway)

	if status, _ := get(t, s.DataURI()); status != http.StatusBadGateway {
		t.Errorf("status = %d, want 502", status)
	}
}

func TestJobServer_Prefs(t *testing.T) {
	s := StartJobServer(t)

	if _, body := get(t, s.PrefsURI()); body != "{}" {
		t.Errorf("default prefs = %s", body)
	}
	s.SetPrefs(PrefsPositionJSON)
	if _, body := get(t, s.PrefsURI()); body != PrefsPositionJSON {
		t.Errorf("prefs = %s", body)
	}

	resp, err := http.Post(s.PrefsURI(), "application/json", strings.NewReader(`{"data":{}}`))
	if err != nil {
		t.Fatalf("POST: %v", err)
	}
	_ = resp.Body.Close()

	posts := s.PrefsPosts()
	if len(posts) != 1 || string(posts[0]) != `{"data":{}}` {
		t.Errorf("PrefsPosts = %q", posts)
	}
	if len(s.PageRequests()) != 0 {
		t.Error("prefs requests counted as page requests")
	}
}

func TestJobServer_Hold(t *testing.T) {
	s := StartJobServer(t)
	s.SetPage("", TwoJobChainJSON)
	release := s.Hold()

	done := make(chan string, 1)
	go func() {
		resp, err := http.Get(s.DataURI())
		if err != nil {
			done <- err.Error()
			return
		}
		defer func() { _ = resp.Body.Close() }()
		body, _ := io.ReadAll(resp.Body)
		done <- string(body)
	}()

	select {
	case <-done:
		t.Fatal("held request returned before release")
	case <-time.After(50 * time.Millisecond):
	}

	release()
	release() // second call is a no-op

	select {
	case body := <-done:
		if body != TwoJobChainJSON {
			t.Errorf("body = %s", body)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request not released")
	}
}
