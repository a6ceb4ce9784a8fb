package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/npratt/statediagram/internal/diagram"
	"github.com/npratt/statediagram/internal/shutdown"
	"github.com/npratt/statediagram/internal/source"
	"github.com/npratt/statediagram/internal/tui"
)

var version = "dev"

// shutdownTimeout bounds both the wait for the UI to exit after a signal and
// the flush of pending preference writes.
const shutdownTimeout = 5 * time.Second

func main() {
	logLevel := &slog.LevelVar{}
	logger := SetupLoggerWithWriter(os.Stderr, logLevel)

	rootCmd := newRootCmd(os.Stdout, logger, logLevel)
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logger.Error("command failed", "error", err)
		os.Exit(1)
	}
}

// newRootCmd assembles the command tree. Output of the render command goes
// to out.
func newRootCmd(out io.Writer, logger *slog.Logger, logLevel *slog.LevelVar) *cobra.Command {
	viper.SetEnvPrefix("STATEDIAGRAM")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd := &cobra.Command{
		Use:   "statediagram",
		Short: "Job state dependency diagrams in the terminal",
		Long: `statediagram lays out the jobs reported by a job state endpoint as a
dependency diagram: jobs in rows, lines from each job to the jobs it
depends on, and box jobs that open in place to show their children.

Diagrams come from the containers list in the config file, or from a
single --data-uri on the command line.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if viper.GetBool(FlagVerbose) {
				logLevel.Set(slog.LevelDebug)
				logger.Debug("verbose logging enabled")
			}
		},
	}

	rootCmd.PersistentFlags().Bool(FlagVerbose, false, "Enable verbose (debug) logging")
	rootCmd.PersistentFlags().String(FlagConfig, "", "Config file path (default: .statediagram/config.yaml)")
	rootCmd.PersistentFlags().String(FlagLogFile, "", "Log file path used while the terminal UI runs")

	rootCmd.PersistentFlags().String(FlagDataURI, "", "Job state endpoint of a single diagram (overrides configured containers)")
	rootCmd.PersistentFlags().String(FlagPrefsURI, "", "Preferences endpoint for --data-uri")
	rootCmd.PersistentFlags().String(FlagName, "", "Diagram name for --data-uri")
	rootCmd.PersistentFlags().String(FlagDOMWait, "", "Delay before edges are drawn, bare numbers are milliseconds (default 500)")
	rootCmd.PersistentFlags().Int(FlagMaxJobs, 0, "Advisory job limit for --data-uri")
	rootCmd.PersistentFlags().String(FlagVerifyToken, "", "Token sent with preference writes")
	rootCmd.PersistentFlags().Duration(FlagTimeout, 0, "HTTP request timeout (default from config, 30s)")
	rootCmd.PersistentFlags().String(FlagDensity, "standard", "Tile density (compact/standard/detailed)")
	rootCmd.PersistentFlags().Int(FlagMaxLabel, 24, "Maximum job name width in cells")

	rootCmd.PersistentFlags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "statediagram %s\n", version)
		},
	}

	viewCmd := &cobra.Command{
		Use:   "view",
		Short: "Browse diagrams in the terminal UI",
		Long: `Open every configured diagram in a terminal UI, one tab per diagram.

Move between jobs with the arrow keys, open and close boxes with enter,
show a job's details with o and refresh with R. Without a terminal the
diagrams are printed once as text.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			appLogger := logger
			interactive := term.IsTerminal(int(os.Stdout.Fd()))
			if interactive {
				logResult, err := SetupTUILogger(cfg.Paths.Log, logLevel, cfg.LogRotation)
				if err != nil {
					return err
				}
				defer func() { _ = logResult.Close() }()
				appLogger = logResult.Logger
				slog.SetDefault(appLogger)
			}

			appLogger.Info("statediagram starting",
				"version", version,
				"diagrams", len(cfg.Containers),
				"log_file", cfg.Paths.Log,
			)

			transport := source.NewHTTPTransport(cfg.HTTP.Timeout)
			manager := diagram.NewManager(transport, appLogger,
				diagram.WithPlacement(placementOptions(cfg)),
			)

			return shutdown.Run(cmd.Context(), appLogger, shutdownTimeout,
				func(ctx context.Context) error {
					ctx, cancel := context.WithCancel(ctx)
					defer cancel()
					app := tui.New(manager, cfg.Containers,
						tui.WithRefreshInterval(cfg.Graph.AutoRefreshInterval),
						tui.WithOnQuit(cancel),
						tui.WithOutput(cmd.OutOrStdout()),
					)
					return app.Run(ctx)
				},
				manager.Flush,
			)
		},
	}

	viewCmd.Flags().Duration(FlagRefresh, 0, "Refresh interval for live diagrams (0 = use config, default 10s)")
	viewCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Render diagrams once as text or SVG",
		Long: `Build every configured diagram once and print it.

--format text prints the tiles and their dependency lines as box-drawing
characters. --format svg prints only the dependency lines as an SVG
document. --expand opens the given boxes first; list outer boxes before
the boxes inside them.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			deps := diagramDeps{
				transport: source.NewHTTPTransport(cfg.HTTP.Timeout),
				logger:    logger,
			}
			return render(cmd.Context(), out, cfg, deps, renderOptions{
				Format: viper.GetString(FlagFormat),
				Expand: viper.GetStringSlice(FlagExpand),
				Width:  viper.GetInt(FlagWidth),
			})
		},
	}

	renderCmd.Flags().String(FlagFormat, FormatText, "Output format (text/svg)")
	renderCmd.Flags().StringSlice(FlagExpand, nil, "Box ids to open before rendering (comma-separated)")
	renderCmd.Flags().Int(FlagWidth, 0, "Minimum diagram width in cells")
	renderCmd.Flags().VisitAll(func(f *pflag.Flag) {
		_ = viper.BindPFlag(f.Name, f)
	})

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(viewCmd)
	rootCmd.AddCommand(renderCmd)

	return rootCmd
}
