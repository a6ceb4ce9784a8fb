package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/npratt/statediagram/internal/config"
	"github.com/npratt/statediagram/internal/diagram"
	"github.com/npratt/statediagram/internal/edges"
	"github.com/npratt/statediagram/internal/placement"
	"github.com/npratt/statediagram/internal/source"
)

// errNoContainers is returned when neither flags nor config name a diagram.
var errNoContainers = errors.New("no diagrams configured: pass --data-uri or add containers to the config file")

// loadConfig loads the layered configuration and applies command line
// overrides that have no config file key.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(viper.GetViper())
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if changed(cmd, FlagLogFile) {
		cfg.Paths.Log = viper.GetString(FlagLogFile)
	}
	if changed(cmd, FlagTimeout) {
		cfg.HTTP.Timeout = viper.GetDuration(FlagTimeout)
	}
	if changed(cmd, FlagDensity) {
		cfg.Graph.Density = viper.GetString(FlagDensity)
	}
	if changed(cmd, FlagMaxLabel) {
		cfg.Graph.MaxLabel = viper.GetInt(FlagMaxLabel)
	}
	if changed(cmd, FlagRefresh) {
		cfg.Graph.AutoRefreshInterval = viper.GetDuration(FlagRefresh)
	}

	if uri := viper.GetString(FlagDataURI); uri != "" {
		c, err := containerFromFlags(uri)
		if err != nil {
			return nil, err
		}
		cfg.Containers = []config.ContainerConfig{c}
	}

	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	if len(cfg.Containers) == 0 {
		return nil, errNoContainers
	}
	return cfg, nil
}

// changed reports whether a flag was set on the command line. Environment
// values reach viper directly and need no check.
func changed(cmd *cobra.Command, name string) bool {
	f := cmd.Flags().Lookup(name)
	return f != nil && f.Changed
}

// containerFromFlags builds the single container described by the
// container flags.
func containerFromFlags(dataURI string) (config.ContainerConfig, error) {
	c := config.ContainerConfig{
		Name:        viper.GetString(FlagName),
		DataURI:     dataURI,
		PrefsURI:    viper.GetString(FlagPrefsURI),
		MaxJobs:     viper.GetInt(FlagMaxJobs),
		VerifyToken: viper.GetString(FlagVerifyToken),
	}
	if raw := viper.GetString(FlagDOMWait); raw != "" {
		wait, err := config.ParseDuration(raw)
		if err != nil {
			return c, fmt.Errorf("invalid --%s %q: %w", FlagDOMWait, raw, err)
		}
		c.DOMWait = wait
	}
	return c, nil
}

// placementOptions maps the graph settings onto tile placement.
func placementOptions(cfg *config.Config) placement.Options {
	opts := placement.DefaultOptions()
	opts.Density = placement.ParseDensity(cfg.Graph.Density)
	if cfg.Graph.MaxLabel > 0 {
		opts.MaxLabel = cfg.Graph.MaxLabel
	}
	return opts
}

// renderOptions controls a one-shot render.
type renderOptions struct {
	Format string
	Expand []string
	Width  int
}

// render builds every container once, opens the requested boxes and writes
// the result to w. A failing container is reported and the others are
// still written.
func render(ctx context.Context, w io.Writer, cfg *config.Config, deps diagramDeps, opts renderOptions) error {
	if opts.Format != FormatText && opts.Format != FormatSVG {
		return fmt.Errorf("unknown format %q (want %s or %s)", opts.Format, FormatText, FormatSVG)
	}

	var errs []error
	for i, c := range cfg.Containers {
		var surface edges.Surface = edges.NewGridSurface()
		if opts.Format == FormatSVG {
			surface = edges.NewSVGSurface()
		}
		d := diagram.New(c, deps.transport,
			diagram.WithLogger(deps.logger),
			diagram.WithSurface(surface),
			diagram.WithPlacement(placementOptions(cfg)),
		)
		if opts.Width > 0 {
			d.Resize(opts.Width)
		}

		if err := d.Build(ctx); err != nil {
			errs = append(errs, fmt.Errorf("diagram %s: %w", d.Name(), err))
		}
		for _, id := range opts.Expand {
			if _, expanded, ok := d.Job(id); !ok || expanded {
				continue
			}
			if _, err := d.Toggle(ctx, id); err != nil {
				errs = append(errs, fmt.Errorf("diagram %s: expand: %w", d.Name(), err))
			}
		}

		if opts.Format == FormatSVG {
			svg, _ := d.SVG()
			fmt.Fprintln(w, svg)
			continue
		}
		if len(cfg.Containers) > 1 {
			if i > 0 {
				fmt.Fprintln(w)
			}
			fmt.Fprintf(w, "== %s\n", d.Name())
		}
		fmt.Fprintln(w, d.Text())
	}
	return errors.Join(errs...)
}

// diagramDeps are the collaborators shared by every diagram of a command.
type diagramDeps struct {
	transport source.Transport
	logger    *slog.Logger
}
