package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/Project-Sylos/Sitemap/internal/api"
	"github.com/Project-Sylos/Sitemap/internal/config"
	xlog "github.com/Project-Sylos/Sitemap/internal/log"
	"github.com/Project-Sylos/Sitemap/internal/telemetry"
	"github.com/Project-Sylos/Sitemap/internal/types"
	"github.com/Project-Sylos/Sitemap/sdk"
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	var (
		configPath string
		cfg        *types.Config
	)

	rootCmd := &cobra.Command{
		Use:           "sitemap",
		Short:         "Site planning backend: site trees, markers and flow diagrams",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded
			xlog.Configure(xlog.Config{Level: cfg.Log.Level, Output: os.Stderr})
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file (JSON or YAML)")

	rootCmd.AddCommand(newServeCmd(&cfg))
	rootCmd.AddCommand(newMigrateCmd(&cfg))
	rootCmd.AddCommand(newTreeCmd(&cfg))
	rootCmd.AddCommand(newExportCmd(&cfg))
	rootCmd.AddCommand(newSeedCmd(&cfg))
	rootCmd.AddCommand(newVersionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func newServeCmd(cfg **types.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := xlog.WithComponent("main")

			provider, err := telemetry.NewProvider(ctx, (*cfg).Telemetry, version)
			if err != nil {
				return err
			}
			defer func() {
				if err := provider.Shutdown(context.Background()); err != nil {
					logger.Warn().Err(err).Msg("telemetry shutdown failed")
				}
			}()

			sm, err := sdk.NewWithConfig(ctx, *cfg)
			if err != nil {
				return err
			}
			server := api.NewServer(sm, (*cfg).API, version)
			defer server.Stop()

			logger.Info().
				Str("version", version).
				Str("driver", (*cfg).Database.Driver).
				Str("artifacts", (*cfg).Artifacts.Backend).
				Msg("starting sitemap")
			return server.Run(ctx)
		},
	}
}

func newMigrateCmd(cfg **types.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			// Opening the store applies migrations
			sm, err := sdk.NewWithConfig(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer sm.Close()

			tables, err := sm.GetTableInfo(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintf(cmd.OutOrStdout(), "%-16s %d rows\n", t.Name, t.RowCount)
			}
			return nil
		},
	}
}

func newTreeCmd(cfg **types.Config) *cobra.Command {
	var visibleOnly bool

	cmd := &cobra.Command{
		Use:   "tree <project-id>",
		Short: "Print a project's site tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := sdk.NewWithConfig(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer sm.Close()

			rows, err := sm.GetFlat(cmd.Context(), args[0], visibleOnly)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, row := range rows {
				marker := " "
				if row.IsFolder() {
					marker = "+"
					if row.IsOpen {
						marker = "-"
					}
				}
				fmt.Fprintf(out, "%s%s %s (%s)\n", strings.Repeat("  ", row.Depth), marker, row.Name, row.Type)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&visibleOnly, "visible", false, "Hide the contents of closed folders")
	return cmd
}

func newExportCmd(cfg **types.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export <project-id> <dir>",
		Short: "Write a project's tree, descriptors and artifacts to a directory",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := sdk.NewWithConfig(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer sm.Close()

			fsys, err := sm.AsFS(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := os.CopyFS(args[1], fsys); err != nil {
				return fmt.Errorf("export %s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %s to %s\n", args[0], args[1])
			return nil
		},
	}
}

func newSeedCmd(cfg **types.Config) *cobra.Command {
	seed := sdk.DefaultSeedConfig()

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Generate a demo project",
		RunE: func(cmd *cobra.Command, args []string) error {
			sm, err := sdk.NewWithConfig(cmd.Context(), *cfg)
			if err != nil {
				return err
			}
			defer sm.Close()

			project, err := sm.Seed(cmd.Context(), seed)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "seeded project %s (%s)\n", project.Name, project.ID)
			return nil
		},
	}
	cmd.Flags().Int64Var(&seed.Seed, "seed", seed.Seed, "Random seed")
	cmd.Flags().StringVar(&seed.ProjectName, "name", seed.ProjectName, "Project name")
	cmd.Flags().IntVar(&seed.MaxDepth, "max-depth", seed.MaxDepth, "Maximum folder depth")
	cmd.Flags().BoolVar(&seed.WithArtifacts, "artifacts", seed.WithArtifacts, "Upload placeholder artifacts")
	return cmd
}

func newVersionCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		// Skips config loading
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			if jsonOutput {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"version": version})
			}
			fmt.Fprintln(cmd.OutOrStdout(), "sitemap", version)
			return nil
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output version information in JSON format")
	return cmd
}
