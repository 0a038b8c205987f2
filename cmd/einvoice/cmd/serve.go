package cmd

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/logistia/einvoice/internal/numbering"
	"github.com/logistia/einvoice/internal/server"
	"github.com/logistia/einvoice/internal/service"
	"github.com/logistia/einvoice/internal/store"
)

var (
	serverAddr   string
	serverDebug  bool
	readTimeout  time.Duration
	writeTimeout time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Start the HTTP API server for issuing and transmitting invoices.

Endpoints (under /api/v1/accounts/:owner):
  POST /invoices              - Create a draft invoice
  GET  /invoices              - List invoices
  GET  /invoices/:id          - Fetch one invoice
  POST /invoices/:id/payments - Record a payment
  POST /invoices/:id/send     - Transmit to the authority
  POST /invoices/:id/cancel   - Cancel (local or protocol)
  GET  /transmitted           - Query the authority by date range
  POST /webhooks/payment      - Idempotent external invoice creation
  GET  /health                - Health check

Examples:
  einvoice serve
  einvoice serve --address :9000 --debug`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serverAddr, "address", "", "Listen address (env: SERVER_ADDRESS)")
	serveCmd.Flags().BoolVar(&serverDebug, "debug", false, "Enable debug logging and request logs")
	serveCmd.Flags().DurationVar(&readTimeout, "read-timeout", 15*time.Second, "HTTP read timeout")
	serveCmd.Flags().DurationVar(&writeTimeout, "write-timeout", 30*time.Second, "HTTP write timeout")
}

func runServe(cmd *cobra.Command, args []string) error {
	addr := serverAddr
	if addr == "" {
		addr = cfg.ServerAddress
	}

	var repo store.Repository
	if cfg.DatabaseURL != "" {
		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()
		pg, err := store.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		repo = pg
	} else {
		log.Warn().Msg("DATABASE_URL not set, using in-memory storage")
		repo = store.NewMemoryRepository()
	}
	defer repo.Close()

	alloc := numbering.NewAllocator(repo, log)
	svc := service.NewInvoiceService(repo, alloc, newClient(), cfg.Env(), cfg.SharedCredentials(), log)

	srv := server.NewServer(&server.Config{
		Address:      addr,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
		Debug:        serverDebug,
	}, svc, log)

	log.Info().Str("address", addr).Str("environment", string(cfg.Env())).Msg("starting server")
	return srv.Run()
}
