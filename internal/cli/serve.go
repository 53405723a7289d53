package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"textsplit/config"
	"textsplit/internal/adapter/cache"
	"textsplit/internal/adapter/measure"
	"textsplit/internal/server"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API server",
	Long: `Serve the splitter over HTTP.

Endpoints:
  POST /split        {"text": "...", "chunk_size": 100, "chunk_overlap": 0}
  POST /split/batch  {"texts": ["...", "..."], "chunk_size": 100, "chunk_overlap": 0}
  GET  /health`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "interface to listen on (default from config, 0.0.0.0)")
	serveCmd.Flags().IntVar(&servePort, "port", 9000, "port to listen on")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	c := GetConfig()
	if cmd.Flags().Changed("host") {
		c.Server.Host = serveHost
	}
	if cmd.Flags().Changed("port") {
		c.Server.Port = servePort
	}
	return serve(cmd.Context(), c)
}

func serve(ctx context.Context, c *config.Config) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	m, err := measure.New(c.Splitter.Measurer, c.Splitter.Encoding)
	if err != nil {
		return fmt.Errorf("failed to create measurer: %w", err)
	}

	var splitCache *cache.SplitCache
	if c.Server.CacheSize > 0 {
		splitCache = cache.NewSplitCache(c.Server.CacheSize, c.Server.CacheTTL)
	}

	srv := server.New(server.Config{
		Host:         c.Server.Host,
		Port:         c.Server.Port,
		ReadTimeout:  c.Server.ReadTimeout,
		WriteTimeout: c.Server.WriteTimeout,
		MaxBodyBytes: c.Server.MaxBodyBytes,
		ChunkSize:    c.Splitter.ChunkSize,
		ChunkOverlap: c.Splitter.ChunkOverlap,
		Measurer:     c.Splitter.Measurer,
		Separators:   c.Splitter.Separators,
		Workers:      c.Index.Workers,
		Version:      Version,
	}, m, splitCache)

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Text splitter API listening on http://%s\n", srv.Addr())
	return srv.Run(ctx)
}
