// Package main is the semcache CLI entry point.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/hyperjump/semcache/internal/cli"
	"github.com/hyperjump/semcache/internal/config"
	"github.com/hyperjump/semcache/internal/models"
	"github.com/hyperjump/semcache/internal/server"
	"github.com/hyperjump/semcache/internal/storage"
	"github.com/hyperjump/semcache/pkg/utils"
)

var version = "dev"

const defaultServerURL = "http://localhost:8080"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	debug      bool
}

func (g *globalFlags) load() (*config.Config, string, *zap.Logger, error) {
	cfg, resolved, err := loadConfig(g.configPath)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger, err := utils.NewLogger(cfg.Debug || g.debug)
	if err != nil {
		return nil, "", nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return cfg, resolved, logger, nil
}

// withEngine loads config, initializes components without metrics and runs fn.
func (g *globalFlags) withEngine(ctx context.Context, fn func(c *Components) error) error {
	cfg, _, logger, err := g.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	c, err := initializeComponents(ctx, cfg, logger, false)
	if err != nil {
		return err
	}
	defer c.Close()
	return fn(c)
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	rootCmd := &cobra.Command{
		Use:          "semcache",
		Short:        "Semantic cache for LLM responses",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&g.configPath, "config", defaultConfigPath, "config file path")
	rootCmd.PersistentFlags().BoolVar(&g.debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(
		newServerCmd(g),
		newGetCmd(g),
		newSetCmd(g),
		newDeleteCmd(g),
		newClearCmd(g),
		newEmbedCmd(g),
		newStatusCmd(g),
		newVersionCmd(),
	)
	return rootCmd
}

func newServerCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolved, logger, err := g.load()
			if err != nil {
				return err
			}
			defer logger.Sync()
			logger.Info("config loaded",
				zap.String("config_path", resolved),
				zap.Bool("debug", cfg.Debug || g.debug),
			)
			return runServer(cmd.Context(), cfg, logger)
		},
	}
}

func runServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	components, err := initializeComponents(ctx, cfg, logger, true)
	if err != nil {
		return err
	}
	defer components.Close()

	opts := []server.Option{server.WithBackendInfo(cfg.Store.Backend, components.DiskPaths...)}
	if components.Telemetry != nil {
		opts = append(opts, server.WithMetrics(cfg.Metrics.Path, components.Telemetry.Handler()))
	}
	srv := server.NewServer(components.Engine, &cfg.Server, logger, opts...)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)
	select {
	case <-sigChan:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("Shutting down...")
	stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Stop(stopCtx)
}

func newGetCmd(g *globalFlags) *cobra.Command {
	var serverURL, output string
	cmd := &cobra.Command{
		Use:   "get <query>",
		Short: "Look up a cached response for a semantically similar query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			query := cli.JoinArgs(args)
			if serverURL != "" {
				resp, err := cli.NewClient(serverURL).Lookup(cmd.Context(), query)
				if err != nil {
					return err
				}
				return cli.WriteLookup(cmd.OutOrStdout(), resp, format)
			}
			return g.withEngine(cmd.Context(), func(c *Components) error {
				start := time.Now()
				m, err := c.Engine.Lookup(cmd.Context(), query)
				if err != nil {
					return err
				}
				resp := &models.LookupResponse{Query: query, QueryTime: time.Since(start).Milliseconds()}
				if m != nil {
					resp.Hit = true
					resp.Score = m.Score
					resp.Text = m.Text
					resp.Response = m.Response
					resp.Timestamp = m.Timestamp
				}
				return cli.WriteLookup(cmd.OutOrStdout(), resp, format)
			})
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "server URL; empty to use the store directly")
	cmd.Flags().StringVar(&output, "output", string(cli.OutputText), "output format: text or json")
	return cmd
}

// parseResponse accepts a JSON document or, failing that, treats s as a plain string.
func parseResponse(s string) json.RawMessage {
	if json.Valid([]byte(s)) {
		return json.RawMessage(s)
	}
	b, _ := json.Marshal(s)
	return b
}

func newSetCmd(g *globalFlags) *cobra.Command {
	var serverURL, response string
	cmd := &cobra.Command{
		Use:   "set <query> --response <json>",
		Short: "Cache a response for a query",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := cli.JoinArgs(args)
			raw := parseResponse(response)
			if serverURL != "" {
				if err := cli.NewClient(serverURL).Store(cmd.Context(), query, raw); err != nil {
					return err
				}
			} else if err := g.withEngine(cmd.Context(), func(c *Components) error {
				return c.Engine.SetCache(cmd.Context(), query, raw)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cached response for %q\n", query)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "server URL; empty to use the store directly")
	cmd.Flags().StringVar(&response, "response", "", "response to cache (JSON, or plain text stored as a string)")
	_ = cmd.MarkFlagRequired("response")
	return cmd
}

func newDeleteCmd(g *globalFlags) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "delete <query>",
		Short: "Remove the entry stored under the exact query text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := cli.JoinArgs(args)
			if serverURL != "" {
				if err := cli.NewClient(serverURL).Delete(cmd.Context(), query); err != nil {
					return err
				}
			} else if err := g.withEngine(cmd.Context(), func(c *Components) error {
				return c.Engine.DeleteCache(cmd.Context(), query)
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", query)
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "server URL; empty to use the store directly")
	return cmd
}

func newClearCmd(g *globalFlags) *cobra.Command {
	var serverURL string
	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Remove every cached entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if serverURL != "" {
				if err := cli.NewClient(serverURL).Clear(cmd.Context()); err != nil {
					return err
				}
			} else if err := g.withEngine(cmd.Context(), func(c *Components) error {
				return c.Engine.ClearCache(cmd.Context())
			}); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared")
			return nil
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "server URL; empty to use the store directly")
	return cmd
}

func newEmbedCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "embed <text>",
		Short: "Print the embedding vector for text as JSON",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := cli.JoinArgs(args)
			return g.withEngine(cmd.Context(), func(c *Components) error {
				emb, err := c.Engine.Embed(cmd.Context(), text)
				if err != nil {
					return err
				}
				return writeIndented(cmd.OutOrStdout(), models.EmbedResponse{Embedding: emb, Dimensions: len(emb)})
			})
		},
	}
}

func writeIndented(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStatusCmd(g *globalFlags) *cobra.Command {
	var serverURL, output string
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show cache status and configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cli.ParseOutputFormat(output)
			if err != nil {
				return err
			}
			if serverURL != "" {
				status, err := cli.NewClient(serverURL).Status(cmd.Context())
				if err != nil {
					return err
				}
				return cli.WriteStatus(cmd.OutOrStdout(), status, format)
			}
			return g.withEngine(cmd.Context(), func(c *Components) error {
				stats, err := c.Engine.Stats(cmd.Context())
				if err != nil {
					return err
				}
				status := &models.StatusResponse{
					Ready:      c.Engine.Ready(),
					State:      c.Engine.State().String(),
					Entries:    stats.Entries,
					Threshold:  stats.Threshold,
					ModelName:  stats.ModelName,
					Dimensions: stats.Dimensions,
					Namespace:  stats.Namespace,
					Backend:    c.Backend,

					MemoizedEmbeddings: stats.MemoizedEmbeddings,
				}
				if len(c.DiskPaths) > 0 {
					if n, err := storage.DiskUsageBytes(c.DiskPaths...); err == nil {
						status.DiskUsage = &n
					}
				}
				return cli.WriteStatus(cmd.OutOrStdout(), status, format)
			})
		},
	}
	cmd.Flags().StringVar(&serverURL, "server", defaultServerURL, "server URL; empty to use the store directly")
	cmd.Flags().StringVar(&output, "output", string(cli.OutputText), "output format: text or json")
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "semcache version %s\n", version)
		},
	}
}
