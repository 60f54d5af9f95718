package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/haivivi/voicebridge/cmd/voicebridge/internal/config"
	"github.com/haivivi/voicebridge/pkg/bridge"
	"github.com/haivivi/voicebridge/pkg/calllog"
	"github.com/haivivi/voicebridge/pkg/kv"
	"github.com/haivivi/voicebridge/pkg/metrics"
	openairealtime "github.com/haivivi/voicebridge/pkg/openai-realtime"
	"github.com/haivivi/voicebridge/pkg/server"
)

const shutdownTimeout = 10 * time.Second

var serveFlags struct {
	host      string
	port      int
	publicURL string
	model     string
	dataDir   string
	memory    bool
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the bridge server",
	Long: `Run the HTTP server that answers calls and bridges their audio.

Routes:
  GET  /               health check
  POST /incoming-call  TwiML that connects the call to /media-stream
  GET  /media-stream   telephony media stream websocket
  GET  /metrics        Prometheus metrics

Settings come from bridge.yaml of the context, then $OPENAI_API_KEY and
$PORT, then flags.`,
	RunE: runServe,
}

func init() {
	f := serveCmd.Flags()
	f.StringVar(&serveFlags.host, "host", "", "listen host")
	f.IntVar(&serveFlags.port, "port", 0, "listen port (default 5050)")
	f.StringVar(&serveFlags.publicURL, "public-url", "", "externally reachable base URL used in TwiML")
	f.StringVar(&serveFlags.model, "model", "", "realtime model")
	f.StringVar(&serveFlags.dataDir, "data-dir", "", "call ledger directory")
	f.BoolVar(&serveFlags.memory, "memory", false, "keep the call ledger in memory")

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, b, err := loadBridge()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("host") {
		b.Host = serveFlags.host
	}
	if flags.Changed("port") {
		b.Port = serveFlags.port
	}
	if flags.Changed("public-url") {
		b.PublicURL = serveFlags.publicURL
	}
	if flags.Changed("model") {
		b.Model = serveFlags.model
	}
	if flags.Changed("data-dir") {
		b.DataDir = serveFlags.dataDir
	}
	if err := b.Validate(); err != nil {
		return err
	}
	retention, _ := b.RetentionPeriod()
	logger := slog.Default()

	clientOpts := []openairealtime.Option{openairealtime.WithLogger(logger)}
	if b.Organization != "" {
		clientOpts = append(clientOpts, openairealtime.WithOrganization(b.Organization))
	}
	if b.Project != "" {
		clientOpts = append(clientOpts, openairealtime.WithProject(b.Project))
	}
	if b.BackendURL != "" {
		clientOpts = append(clientOpts, openairealtime.WithWebSocketURL(b.BackendURL))
	}
	client, err := openairealtime.NewClient(b.APIKey, clientOpts...)
	if err != nil {
		return err
	}

	var store kv.Store
	if serveFlags.memory {
		store = kv.NewMemory()
	} else {
		store, err = openStore(cfg, b)
		if err != nil {
			return err
		}
	}
	defer store.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ledger := calllog.New(store, logger)
	if retention > 0 {
		n, err := ledger.Prune(ctx, time.Now().Add(-retention))
		if err != nil {
			logger.Warn("prune call ledger", "error", err)
		} else if n > 0 {
			logger.Info("pruned call ledger", "removed", n)
		}
	}

	m := metrics.New()
	srv, err := server.New(b.ServerConfig(), bridge.DialRealtime(client, b.Model, logger),
		server.WithLogger(logger),
		server.WithObserver(m),
		server.WithObserver(ledger),
		server.WithMetricsHandler(m.Handler()),
	)
	if err != nil {
		return err
	}
	httpSrv := &http.Server{
		Addr:              b.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", "addr", httpSrv.Addr, "public_url", b.PublicURL)
		if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen %s: %w", httpSrv.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down", "active_calls", srv.ActiveCalls())
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return errors.Join(srv.Shutdown(sctx), httpSrv.Shutdown(sctx))
	})
	return g.Wait()
}

// openStore opens the on-disk call ledger.
func openStore(cfg *config.Config, b *config.Bridge) (*kv.Badger, error) {
	dir := b.DataDir
	if dir == "" {
		dir = cfg.DataDir()
	}
	store, err := kv.NewBadger(kv.BadgerOptions{Dir: dir, Logger: slog.Default()})
	if err != nil {
		return nil, fmt.Errorf("open call ledger at %s: %w", dir, err)
	}
	return store, nil
}
