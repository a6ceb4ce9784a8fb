package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/statediagram/internal/config"
	"github.com/npratt/statediagram/internal/testutil"
)

// execute runs the command tree with args and returns its output.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	viper.Reset()
	chdir(t, t.TempDir())
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	var out bytes.Buffer
	logger := SetupLoggerWithWriter(io.Discard, slog.LevelInfo)
	cmd := newRootCmd(&out, logger, &slog.LevelVar{})
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(out, "statediagram ") {
		t.Errorf("version output = %q", out)
	}
}

func TestRender_Text(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.TwoJobChainJSON)

	out, err := execute(t, "render", "--data-uri", srv.DataURI(), "--dom-wait", "1")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"✓ extract", "● load", "│"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "==") {
		t.Errorf("single diagram should have no header:\n%s", out)
	}
}

func TestRender_SVG(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.TwoJobChainJSON)

	out, err := execute(t, "render", "--data-uri", srv.DataURI(), "--dom-wait", "1", "--format", "svg")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "<svg") || !strings.Contains(out, `<path d="M`) {
		t.Errorf("svg output:\n%s", out)
	}
}

func TestRender_ExpandOpensBox(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.LazyBoxJSON)
	srv.SetPage(testutil.LazyBoxChildrenQuery, testutil.LazyBoxChildrenJSON)

	out, err := execute(t, "render", "--data-uri", srv.DataURI(), "--dom-wait", "1", "--expand", "7")
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, "nightly-fetch") || !strings.Contains(out, "▾") {
		t.Errorf("box not opened:\n%s", out)
	}
	testutil.AssertFetchCount(t, srv, testutil.LazyBoxChildrenQuery, 1)
}

func TestRender_ConfiguredContainers(t *testing.T) {
	a := testutil.StartJobServer(t)
	a.SetPage("", testutil.TwoJobChainJSON)
	b := testutil.StartJobServer(t)
	b.SetPage("", testutil.LazyBoxJSON)

	cfgPath := testutil.WriteFile(t, t.TempDir(), "config.yaml", `containers:
  - name: chain
    data-uri: `+a.DataURI()+`
    dom-wait: 1
  - name: nightly
    data-uri: `+b.DataURI()+`
    dom-wait: 1
`)

	out, err := execute(t, "render", "--config", cfgPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	for _, want := range []string{"== chain", "== nightly", "extract", "prepare"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRender_SourceFailureStillPrints(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetStatus("", 500)

	out, err := execute(t, "render", "--data-uri", srv.DataURI(), "--dom-wait", "1")
	if err == nil {
		t.Fatal("expected the source error to be returned")
	}
	if !strings.Contains(out, "No jobs to display") {
		t.Errorf("output = %q", out)
	}
}

func TestRender_Errors(t *testing.T) {
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.TwoJobChainJSON)

	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no containers", []string{"render"}, "no diagrams configured"},
		{"bad format", []string{"render", "--data-uri", srv.DataURI(), "--format", "png"}, "unknown format"},
		{"bad dom wait", []string{"render", "--data-uri", srv.DataURI(), "--dom-wait", "later"}, "invalid --dom-wait"},
		{"expand simple job", []string{"render", "--data-uri", srv.DataURI(), "--dom-wait", "1", "--expand", "1"}, "not a box"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := execute(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestLoadConfig_EmptyDataURIMeansNoContainers(t *testing.T) {
	_, err := execute(t, "render", "--data-uri", "", "--name", "x")
	if !errors.Is(err, errNoContainers) {
		t.Errorf("error = %v, want errNoContainers", err)
	}
}

func TestPlacementOptions(t *testing.T) {
	cfg := config.Default()
	cfg.Graph.Density = "detailed"
	cfg.Graph.MaxLabel = 12

	opts := placementOptions(cfg)
	if opts.Density.String() != "detailed" || opts.MaxLabel != 12 {
		t.Errorf("options = %+v", opts)
	}
}

func TestView_NonInteractivePrintsText(t *testing.T) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		t.Skip("stdout is a terminal")
	}
	srv := testutil.StartJobServer(t)
	srv.SetPage("", testutil.TwoJobChainJSON)

	out, err := execute(t, "view", "--data-uri", srv.DataURI(), "--dom-wait", "1", "--name", "etl")
	if err != nil {
		t.Fatalf("view: %v", err)
	}
	if !strings.Contains(out, "== etl (live)") || !strings.Contains(out, "extract") {
		t.Errorf("output:\n%s", out)
	}
}

// chdir changes the working directory for the duration of the test,
// matching testing.T.Chdir (Go 1.24+) on older toolchains.
func chdir(t *testing.T, dir string) {
	t.Helper()
	prev, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd failed: %v", err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir failed: %v", err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(prev); err != nil {
			t.Fatalf("restore working directory failed: %v", err)
		}
	})
}
