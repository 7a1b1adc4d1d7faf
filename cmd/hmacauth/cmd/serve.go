package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/golden-vcr/hmac-auth/audit"
	"github.com/golden-vcr/hmac-auth/auth"
	"github.com/golden-vcr/hmac-auth/config"
	"github.com/golden-vcr/hmac-auth/db"
	"github.com/golden-vcr/hmac-auth/entry"
	"github.com/golden-vcr/hmac-auth/gateway"
	"github.com/golden-vcr/hmac-auth/hmac"
	"github.com/golden-vcr/hmac-auth/keystore"
	"github.com/golden-vcr/hmac-auth/policy"
	"github.com/golden-vcr/hmac-auth/rmq"
	"github.com/golden-vcr/hmac-auth/sse"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the authenticating reverse proxy",
	Long: `Serves an HTTP reverse proxy that authenticates every request with its HMAC
signature, checks it against the configured policy, and forwards accepted requests to
the upstream with the authenticated principal in a header. Health, metrics and a live
stream of authentication decisions are served on the admin port.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Flags().Changed("listen-port") {
			cfg.Server.ListenPort, _ = cmd.Flags().GetInt("listen-port")
		}
		if cmd.Flags().Changed("upstream") {
			cfg.Server.Upstream, _ = cmd.Flags().GetString("upstream")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if cfg.Server.Upstream == "" {
			return fmt.Errorf("server.upstream is required")
		}
		upstream, err := url.Parse(cfg.Server.Upstream)
		if err != nil {
			return fmt.Errorf("invalid upstream URL: %w", err)
		}

		level, err := entry.ParseLevel(cfg.Logging.Level)
		if err != nil {
			return err
		}
		app := entry.NewApplication("hmacauth", level)
		defer app.Stop()
		if err := serve(app.Context(), app.Log(), upstream); err != nil {
			app.Fail("Server stopped with error", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Int("listen-port", 0, "Port for the authenticating proxy (overrides server.listen_port)")
	serveCmd.Flags().String("upstream", "", "Base URL to forward requests to (overrides server.upstream)")
}

func serve(ctx context.Context, logger *slog.Logger, upstream *url.URL) error {
	store, closeStore, err := openKeyStore(ctx, logger, cfg.KeyStore)
	if err != nil {
		return err
	}
	defer closeStore()

	var authorizer auth.Authorizer[string]
	if cfg.Policy.File != "" {
		a, err := policy.LoadFile(cfg.Policy.File)
		if err != nil {
			return err
		}
		authorizer = a
		logger.Info("Loaded authorization policy", "file", cfg.Policy.File)
	}
	pipeline := auth.NewPipeline[string](hmac.NewAuthenticator(store, cfg.Auth.SkewWindow), authorizer)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := auth.NewMetrics(registry)

	g, gctx := errgroup.WithContext(ctx)

	decisions := make(chan auth.Decision, 64)
	feed := sse.NewHandler[auth.Decision](gctx, decisions)
	feed.Filter = gateway.FilterDecisions
	observers := []auth.DecisionFunc{metrics.Observe, gateway.Feed(decisions)}

	if cfg.Audit.Enabled {
		conn, err := rmq.Dial(cfg.Audit.AMQP.URI())
		if err != nil {
			return err
		}
		defer conn.Close()
		producer, err := cfg.Audit.Queue.NewProducer(conn)
		if err != nil {
			return fmt.Errorf("failed to initialize audit producer: %w", err)
		}
		defer producer.Close()

		publisher := audit.NewPublisher(producer, logger, cfg.Audit.BufferSize)
		observers = append(observers, publisher.Publish)
		g.Go(func() error {
			return publisher.Run(gctx)
		})
	}
	pipeline.OnDecision = auth.Broadcast(observers...)

	proxy := entry.NewServer(logger, gateway.NewProxy(pipeline, upstream, cfg.Server.PrincipalHeader), cfg.Server.BindAddr, cfg.Server.ListenPort)
	g.Go(func() error {
		return entry.RunServer(gctx, logger, proxy)
	})
	if cfg.Server.AdminPort != 0 {
		admin := entry.NewServer(logger, gateway.NewAdmin(registry, feed), cfg.Server.BindAddr, cfg.Server.AdminPort)
		g.Go(func() error {
			return entry.RunServer(gctx, logger, admin)
		})
	}
	return g.Wait()
}

// openKeyStore builds the key store described by c, returning a function that
// releases any resources it holds
func openKeyStore(ctx context.Context, logger *slog.Logger, c config.KeyStoreConfig) (keystore.Store, func(), error) {
	switch c.Provider {
	case config.KeyStoreStatic:
		store, err := keystore.LoadStaticFile(c.File)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Loaded static API keys", "file", c.File, "numKeys", store.Len())
		return store, func() {}, nil
	case config.KeyStorePostgres:
		conn, err := db.Open(ctx, c.Postgres.URI())
		if err != nil {
			return nil, nil, err
		}
		var store keystore.Store = keystore.NewPostgresStore(conn)
		if c.Cache.Size > 0 {
			store = keystore.NewCachedStore(store, c.Cache.Size, c.Cache.TTL)
			logger.Info("Caching API keys", "size", c.Cache.Size, "ttl", c.Cache.TTL.String())
		}
		return store, func() { conn.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown key store provider '%s'", c.Provider)
}
