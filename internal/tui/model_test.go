package tui

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/npratt/statediagram/internal/config"
	"github.com/npratt/statediagram/internal/diagram"
	"github.com/npratt/statediagram/internal/prefs"
	"github.com/npratt/statediagram/internal/source"
	"github.com/npratt/statediagram/internal/testutil"
)

// drive runs cmd and feeds its messages back into the model until nothing
// is left. Spinner and refresh ticks are dropped so the loop ends.
func drive(t *testing.T, m model, cmd tea.Cmd) model {
	t.Helper()
	if cmd == nil {
		return m
	}
	msg := cmd()
	switch msg := msg.(type) {
	case tea.BatchMsg:
		for _, c := range msg {
			m = drive(t, m, c)
		}
		return m
	case nil, spinner.TickMsg, refreshTickMsg, tea.QuitMsg:
		return m
	}
	next, cmd := m.Update(msg)
	return drive(t, next.(model), cmd)
}

func press(t *testing.T, m model, msg tea.KeyMsg) model {
	t.Helper()
	next, cmd := m.Update(msg)
	return drive(t, next.(model), cmd)
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func containerFor(name string, srv *testutil.JobServer) config.ContainerConfig {
	return config.ContainerConfig{
		Name:     name,
		DataURI:  srv.DataURI(),
		PrefsURI: srv.PrefsURI(),
		DOMWait:  time.Millisecond,
	}
}

// newTestModel scans the containers synchronously and sizes the model.
func newTestModel(t *testing.T, containers ...config.ContainerConfig) model {
	t.Helper()
	ctx := context.Background()
	mgr := diagram.NewManager(source.NewHTTPTransport(0), nil)
	m := newModel(ctx, mgr, containers, 0, nil)
	m = drive(t, m, scanCmd(ctx, mgr, containers))
	next, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return next.(model)
}

func lazyBoxServer(t *testing.T) *testutil.JobServer {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.LazyBoxJSON)
	srv.SetPage(testutil.LazyBoxChildrenQuery, testutil.LazyBoxChildrenJSON)
	return srv
}

func TestModel_ScanCreatesPanes(t *testing.T) {
	srv := lazyBoxServer(t)
	m := newTestModel(t, containerFor("nightly", srv))

	if m.scanning {
		t.Error("scanning still set after scanDoneMsg")
	}
	if len(m.panes) != 1 {
		t.Fatalf("got %d panes, want 1", len(m.panes))
	}
	if got := m.panes[0].Selected(); got != "1" {
		t.Errorf("initial selection = %q, want first job in reading order", got)
	}

	view := m.View()
	for _, want := range []string{"nightly", "prepare", "live"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestModel_ToggleExpandsSelectedBox(t *testing.T) {
	srv := lazyBoxServer(t)
	m := newTestModel(t, containerFor("nightly", srv))

	m = press(t, m, runes("j"))
	if got := m.panes[0].Selected(); got != "7" {
		t.Fatalf("selection after down = %q, want 7", got)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	d := m.panes[0].diagram
	if _, expanded, _ := d.Job("7"); !expanded {
		t.Fatal("box not expanded after enter")
	}
	if m.panes[0].IsBusy() {
		t.Error("pane still busy after toggle result")
	}
	if view := m.View(); !strings.Contains(view, "nightly-fetch") {
		t.Errorf("expanded view missing child:\n%s", view)
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEnter})
	if _, expanded, _ := d.Job("7"); expanded {
		t.Error("box still expanded after second enter")
	}
	testutil.AssertFetchCount(t, srv, testutil.LazyBoxChildrenQuery, 1)
}

func TestModel_ToggleOnSimpleJobIsIgnored(t *testing.T) {
	srv := lazyBoxServer(t)
	m := newTestModel(t, containerFor("nightly", srv))

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil {
		t.Error("enter on a simple job returned a command")
	}
}

func TestModel_SelectionStaysInBounds(t *testing.T) {
	srv := lazyBoxServer(t)
	m := newTestModel(t, containerFor("nightly", srv))

	steps := []struct {
		key  string
		want string
	}{
		{"h", "1"},
		{"l", "7"},
		{"l", "7"},
		{"k", "1"},
		{"k", "1"},
	}
	for _, s := range steps {
		m = press(t, m, runes(s.key))
		if got := m.panes[0].Selected(); got != s.want {
			t.Errorf("after %q selection = %q, want %q", s.key, got, s.want)
		}
	}
}

func TestModel_DetailWindowMovesAndSaves(t *testing.T) {
	srv := lazyBoxServer(t)
	srv.SetPrefs(testutil.PrefsPositionJSON)
	m := newTestModel(t, containerFor("nightly", srv))

	m = press(t, m, runes("j"))
	m = press(t, m, runes("o"))
	if !m.modal.IsOpen() {
		t.Fatal("detail window not open")
	}
	if pos, placed := m.modal.Position(); !placed || pos != (prefs.Position{X: 120, Y: 64}) {
		t.Errorf("position = %+v placed=%v, want saved 120,64", pos, placed)
	}
	if view := m.View(); !strings.Contains(view, "Box State") {
		t.Errorf("detail window missing title:\n%s", view)
	}

	m = press(t, m, runes("L"))
	m = press(t, m, runes("J"))
	d := m.panes[0].diagram
	d.Prefs().Wait()

	if pos, _ := d.Prefs().Position(); pos != (prefs.Position{X: 122, Y: 65}) {
		t.Errorf("stored position = %+v, want 122,65", pos)
	}
	posts := srv.PrefsPosts()
	if len(posts) != 2 {
		t.Fatalf("got %d preference writes, want 2", len(posts))
	}
	if !strings.Contains(string(posts[1]), `"x":122`) || !strings.Contains(string(posts[1]), `"y":65`) {
		t.Errorf("last write = %s", posts[1])
	}

	m = press(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.modal.IsOpen() {
		t.Error("esc did not close the detail window")
	}
}

func TestModel_DetailWindowForSimpleJob(t *testing.T) {
	srv := lazyBoxServer(t)
	m := newTestModel(t, containerFor("nightly", srv))

	m = press(t, m, runes("o"))
	view := m.View()
	if !strings.Contains(view, "Job State") || !strings.Contains(view, "/job/1") {
		t.Errorf("detail window for job 1:\n%s", view)
	}
}

func TestModel_TabCyclesDiagrams(t *testing.T) {
	a := testutil.StartJobServer(t)
	a.SetPage("", testutil.TwoJobChainJSON)
	b := lazyBoxServer(t)
	m := newTestModel(t, containerFor("chain", a), containerFor("nightly", b))

	if len(m.panes) != 2 {
		t.Fatalf("got %d panes, want 2", len(m.panes))
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.active != 1 {
		t.Errorf("active = %d after tab, want 1", m.active)
	}
	if view := m.View(); !strings.Contains(view, "prepare") {
		t.Errorf("second diagram not shown:\n%s", view)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyTab})
	if m.active != 0 {
		t.Errorf("active = %d after second tab, want 0", m.active)
	}
	m = press(t, m, tea.KeyMsg{Type: tea.KeyShiftTab})
	if m.active != 1 {
		t.Errorf("active = %d after shift+tab, want 1", m.active)
	}
}

func TestModel_RefreshRebuildsDiagram(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.TwoJobChainJSON)
	m := newTestModel(t, containerFor("chain", srv))

	m = press(t, m, runes("R"))
	if got := len(srv.PageRequests()); got != 2 {
		t.Errorf("page requests = %d, want 2 after refresh", got)
	}
	if s := m.panes[0].diagram.State(); s != diagram.StateLive {
		t.Errorf("state after refresh = %v, want live", s)
	}
}

func TestModel_PeriodicRefreshSkipsEmptyDiagrams(t *testing.T) {
	srv := testutil.StartJobServer(t)
	m := newTestModel(t, containerFor("none", srv))

	next, cmd := m.Update(refreshTickMsg(time.Now()))
	m = drive(t, next.(model), cmd)
	if got := len(srv.PageRequests()); got != 1 {
		t.Errorf("page requests = %d, want empty diagram left alone", got)
	}
	if view := m.View(); !strings.Contains(view, diagram.NoDataMessage) {
		t.Errorf("empty diagram view:\n%s", view)
	}
}

func TestModel_StaleResultIsDropped(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.TwoJobChainJSON)
	m := newTestModel(t, containerFor("chain", srv))

	m.panes[0].requestID = 5
	m.panes[0].busy = true
	next, _ := m.Update(paneResultMsg{key: "chain", requestID: 4, err: context.Canceled})
	m = next.(model)
	if !m.panes[0].IsBusy() || m.panes[0].errorMsg != "" {
		t.Error("stale result changed the pane")
	}
}

func TestModel_QuitInvokesCallback(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.TwoJobChainJSON)
	m := newTestModel(t, containerFor("chain", srv))

	quitCalled := false
	m.onQuit = func() { quitCalled = true }

	_, cmd := m.Update(runes("q"))
	if !quitCalled {
		t.Error("quit callback not invoked")
	}
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not return tea.Quit")
	}
}

func TestModel_ViewTooSmall(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.TwoJobChainJSON)
	m := newTestModel(t, containerFor("chain", srv))

	next, _ := m.Update(tea.WindowSizeMsg{Width: 20, Height: 5})
	if view := next.(model).View(); !strings.Contains(view, "too small") {
		t.Errorf("small terminal view = %q", view)
	}
}
