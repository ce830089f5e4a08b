package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/nishad/sradb/internal/api"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Serve identifier conversion, metadata and search over HTTP.

Endpoints:
  GET  /api/v1/convert/{from}/{to}?id=...
  GET  /api/v1/metadata?id=...
  GET  /api/v1/search?db=sra&query=...
  GET  /api/v1/pairs
  GET  /api/v1/health`,
	Example: `  sradb serve
  sradb serve --port 3000 --db SRAmetadb.sqlite`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

var (
	servePort       int
	serveHost       string
	serveEnableCORS bool
)

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "Port to listen on (default from config, 8080)")
	serveCmd.Flags().StringVar(&serveHost, "host", "", "Host to bind to (default from config, localhost)")
	serveCmd.Flags().BoolVar(&serveEnableCORS, "enable-cors", true, "Enable CORS for web access")
}

func runServe(cmd *cobra.Command, args []string) error {
	host := firstNonEmpty(serveHost, cfg.Server.Host, "localhost")
	port := servePort
	if port == 0 {
		port = cfg.Server.Port
	}

	src, sourceName, err := openSource()
	if err != nil {
		return err
	}

	server := api.NewServer(&api.Config{
		Host:       host,
		Port:       port,
		EnableCORS: serveEnableCORS,
		SourceName: sourceName,
		Quiet:      quiet,
	}, src, searchOptions())

	serverErr := make(chan error, 1)
	go func() {
		printSuccess("Server ready at http://%s:%d", host, port)
		printInfo("Metadata source: %s", sourceName)
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt or server error
	select {
	case <-cmd.Context().Done():
		printInfo("Shutting down server...")
	case err := <-serverErr:
		src.Close()
		return fmt.Errorf("server error: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	printSuccess("Server stopped gracefully")
	return nil
}
