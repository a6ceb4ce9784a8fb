package prefs

import (
	"context"
	"testing"

	"github.com/goccy/go-json"

	"github.com/npratt/statediagram/internal/source"
	"github.com/npratt/statediagram/internal/testutil"
)

func TestStore_Load(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPrefs(testutil.PrefsPositionJSON)

	s := New(source.NewHTTPTransport(0), srv.PrefsURI(), "tok", nil)
	pos, ok, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !ok || pos != (Position{X: 120, Y: 64}) {
		t.Errorf("Load = %+v, %v; want {120 64}, true", pos, ok)
	}
}

func TestStore_LoadWithoutPosition(t *testing.T) {
	srv := testutil.StartJobServer(t)

	s := New(source.NewHTTPTransport(0), srv.PrefsURI(), "", nil)
	_, ok, err := s.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if ok {
		t.Error("empty preferences reported a saved position")
	}
}

func TestStore_SetPositionPosts(t *testing.T) {
	srv := testutil.StartJobServer(t)

	s := New(source.NewHTTPTransport(0), srv.PrefsURI(), "secret", nil)
	s.SetPosition(context.Background(), Position{X: 3, Y: 9})
	s.Wait()

	posts := srv.PrefsPosts()
	if len(posts) != 1 {
		t.Fatalf("got %d posts, want 1", len(posts))
	}

	var got map[string]any
	if err := json.Unmarshal(posts[0], &got); err != nil {
		t.Fatalf("decode post: %v", err)
	}
	if got["_verify"] != "secret" {
		t.Errorf("_verify = %v, want secret", got["_verify"])
	}
	data, _ := got["data"].(map[string]any)
	position, _ := data["position-absolute"].(map[string]any)
	if position["x"] != float64(3) || position["y"] != float64(9) {
		t.Errorf("position-absolute = %v, want x=3 y=9", position)
	}

	if pos, ok := s.Position(); !ok || pos.X != 3 {
		t.Errorf("Position = %+v, %v", pos, ok)
	}
}

func TestStore_NoEndpointKeepsInMemory(t *testing.T) {
	srv := testutil.StartJobServer(t)

	s := New(source.NewHTTPTransport(0), "", "secret", nil)
	s.SetPosition(context.Background(), Position{X: 1, Y: 2})
	s.Wait()

	if len(srv.Requests()) != 0 {
		t.Errorf("store without endpoint made %d requests", len(srv.Requests()))
	}
	pos, ok, err := s.Load(context.Background())
	if err != nil || !ok || pos != (Position{X: 1, Y: 2}) {
		t.Errorf("Load = %+v, %v, %v", pos, ok, err)
	}
}

func TestStore_CancelledContextStillPosts(t *testing.T) {
	srv := testutil.StartJobServer(t)

	ctx, cancel := context.WithCancel(context.Background())
	s := New(source.NewHTTPTransport(0), srv.PrefsURI(), "", nil)
	s.SetPosition(ctx, Position{X: 5, Y: 5})
	cancel()
	s.Wait()

	if len(srv.PrefsPosts()) != 1 {
		t.Errorf("write was dropped when the caller's context ended")
	}
}
