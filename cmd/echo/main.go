package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/cors"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	// OpenTelemetry
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"

	// Stockage
	"github.com/exaring/otelpgx"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"

	// Interne
	"github.com/jupiterclapton/echo/config"
	grpc_adapter "github.com/jupiterclapton/echo/internal/adapters/primary/grpc"
	"github.com/jupiterclapton/echo/internal/adapters/primary/httpapi"
	"github.com/jupiterclapton/echo/internal/adapters/primary/httpapi/validator"
	"github.com/jupiterclapton/echo/internal/adapters/secondary/eventbroker"
	"github.com/jupiterclapton/echo/internal/adapters/secondary/repository"
	"github.com/jupiterclapton/echo/internal/adapters/secondary/security"
	"github.com/jupiterclapton/echo/internal/adapters/secondary/system"
	"github.com/jupiterclapton/echo/internal/core/ports"
	"github.com/jupiterclapton/echo/internal/core/services"
)

func main() {
	// 1. Charger la Config
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("failed to load config: %v", err))
	}

	// 2. Logger
	initLogger(cfg)
	slog.Info("🚀 Starting Echo session store", "env", cfg.Env, "storage", cfg.StorageDriver, "port", cfg.HTTPPort)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Tracing (optionnel)
	if cfg.OtelEndpoint != "" {
		tp, err := initTracer(ctx, cfg)
		if err != nil {
			slog.Error("Failed to init tracer", "error", err)
		} else {
			defer func() {
				if err := tp.Shutdown(context.Background()); err != nil {
					slog.Error("Error shutting down tracer", "error", err)
				}
			}()
		}
	}

	// 4. Stockage durable (session + annuaire + archive du feed)
	kv, archive, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		slog.Error("Failed to open storage", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	defer closeStorage()

	deps := services.Dependencies{
		KV:        kv,
		Archive:   archive,
		Clock:     system.SystemClock{},
		IDs:       system.UUIDGenerator{},
		Delayer:   system.TimerDelayer{},
		Debouncer: system.NewTimerDebouncer(cfg.SearchDebounce),
		Logger:    slog.Default(),
	}
	defer deps.Debouncer.Stop()

	// 5. Event Broker (optionnel)
	if cfg.NatsUrl != "" {
		broker, err := eventbroker.NewNatsBroker(cfg.NatsUrl)
		if err != nil {
			slog.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer broker.Close()
		deps.Events = broker
		slog.Info("✅ NATS JetStream connected")
	}

	// 6. Miroir du graphe (optionnel)
	if cfg.Neo4jURI != "" {
		graph, closeGraph, err := openGraph(ctx, cfg)
		if err != nil {
			slog.Error("Failed to connect to Neo4j", "error", err)
			os.Exit(1)
		}
		defer closeGraph()
		deps.Graph = graph
		slog.Info("✅ Connected to Neo4j")
	}

	// 7. Sécurité (Clés RSA & Argon2)
	tokens, err := initTokens(cfg)
	if err != nil {
		slog.Error("Failed to init JWT provider", "error", err)
		os.Exit(1)
	}
	deps.Tokens = tokens
	deps.Hasher = security.NewArgon2Hasher(nil)

	// 8. Wiring du cœur + restauration de la session
	store := services.NewStore(deps, services.Options{
		PageDelay:     cfg.FeedPageDelay,
		PageSize:      cfg.FeedPageSize,
		PreviewLength: services.DefaultOptions.PreviewLength,
	})

	if err := store.LoadDirectory(ctx); err != nil {
		slog.Error("Failed to load user directory", "error", err)
		os.Exit(1)
	}
	if user, ok, err := store.RestoreSession(ctx); err != nil {
		slog.Warn("Session restore failed, starting logged out", "error", err)
	} else if ok {
		slog.Info("✅ Session restored", "username", user.Username)
	}

	// 9. Chaîne HTTP : API -> CORS -> OTEL
	api := &httpapi.API{
		Logger:  slog.Default(),
		Service: store,
		Val:     validator.New(),
	}

	var h http.Handler = api
	h = cors.New(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "baggage", "traceparent"},
		AllowCredentials: true,
	}).Handler(h)
	h = otelhttp.NewHandler(h, "echo-api", otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
		return fmt.Sprintf("HTTP %s %s", r.Method, r.URL.Path)
	}))

	mux := http.NewServeMux()
	mux.Handle("/", h)
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })

	srvHTTP := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		slog.Info("📡 HTTP API listening", "port", cfg.HTTPPort)
		if err := srvHTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("HTTP server error", "error", err)
			os.Exit(1)
		}
	}()

	// 10. Probe gRPC (Health Check standard K8s)
	var probe *grpc_adapter.ProbeServer
	if cfg.GRPCPort != "" {
		lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
		if err != nil {
			slog.Error("Failed to listen", "port", cfg.GRPCPort, "error", err)
			os.Exit(1)
		}

		probe = grpc_adapter.NewProbeServer(cfg.ServiceName, !cfg.IsProd())
		go func() {
			slog.Info("🩺 gRPC health probe listening", "address", lis.Addr())
			if err := probe.Serve(lis); err != nil {
				slog.Error("Failed to serve", "error", err)
				os.Exit(1)
			}
		}()
		probe.SetServing(true)
	}

	// 11. Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	sig := <-quit
	slog.Info("⚠️  Signal received, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if probe != nil {
		done := make(chan struct{})
		go func() {
			probe.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
		case <-shutdownCtx.Done():
			slog.Warn("⏳ Timeout reached, forcing probe stop")
			probe.Stop()
		}
	}

	if err := srvHTTP.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	slog.Info("👋 Service stopped")
}

// --- HELPERS ---

func initLogger(cfg *config.Config) {
	var handler slog.Handler
	if cfg.Env == "local" {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	slog.SetDefault(slog.New(handler))
}

func initTracer(ctx context.Context, cfg *config.Config) (*sdktrace.TracerProvider, error) {
	exporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(cfg.OtelEndpoint),
		otlptracegrpc.WithInsecure(), // En prod, gérez le TLS
	)
	if err != nil {
		return nil, err
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceNameKey.String(cfg.ServiceName),
			semconv.ServiceVersionKey.String("1.0.0"),
			semconv.DeploymentEnvironmentKey.String(cfg.Env),
		),
	)
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	// Propagation du trace-id jusque dans les headers NATS
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return tp, nil
}

// openStorage choisit le driver. La fonction retournée libère les connexions.
func openStorage(ctx context.Context, cfg *config.Config) (ports.KeyValueStore, ports.FeedArchive, func(), error) {
	switch cfg.StorageDriver {
	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			return nil, nil, nil, fmt.Errorf("redis instrumentation: %w", err)
		}
		if err := rdb.Ping(ctx).Err(); err != nil {
			return nil, nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		slog.Info("✅ Connected to Redis")
		return repository.NewRedisKV(rdb), repository.NewRedisArchive(rdb), func() { _ = rdb.Close() }, nil

	case config.DriverPostgres:
		dbConfig, err := pgxpool.ParseConfig(cfg.DBUrl)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("parse db config: %w", err)
		}
		dbConfig.ConnConfig.Tracer = otelpgx.NewTracer()

		dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("connect db: %w", err)
		}
		// Fail fast
		if err := dbPool.Ping(ctx); err != nil {
			dbPool.Close()
			return nil, nil, nil, fmt.Errorf("db ping: %w", err)
		}
		if err := repository.EnsureSchema(ctx, dbPool); err != nil {
			dbPool.Close()
			return nil, nil, nil, err
		}
		slog.Info("✅ Database connected")
		return repository.NewPostgresKV(dbPool), repository.NewPostgresArchive(dbPool), dbPool.Close, nil

	default:
		slog.Warn("Using in-memory storage: nothing survives a restart")
		return repository.NewMemoryKV(), repository.NewMemoryArchive(), func() {}, nil
	}
}

func openGraph(ctx context.Context, cfg *config.Config) (*repository.Neo4jGraph, func(), error) {
	driver, err := neo4j.NewDriverWithContext(cfg.Neo4jURI, neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""))
	if err != nil {
		return nil, nil, fmt.Errorf("neo4j driver: %w", err)
	}
	closeDriver := func() { _ = driver.Close(context.Background()) }

	verifyCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := driver.VerifyConnectivity(verifyCtx); err != nil {
		closeDriver()
		return nil, nil, err
	}

	graph := repository.NewNeo4jGraph(driver)
	if err := graph.EnsureSchema(verifyCtx); err != nil {
		closeDriver()
		return nil, nil, fmt.Errorf("neo4j schema: %w", err)
	}
	return graph, closeDriver, nil
}

// initTokens charge les clés RSA ; hors prod, une paire éphémère est générée
// si elles manquent (les sessions ne survivent alors pas au redémarrage).
func initTokens(cfg *config.Config) (*security.JWTProvider, error) {
	privKey, pubKey, err := loadKeys(cfg.RSAPrivateKeyPath, cfg.RSAPublicKeyPath)
	if err != nil {
		if cfg.IsProd() {
			return nil, err
		}
		slog.Warn("RSA keys not found, generating an ephemeral pair", "error", err)
		if privKey, pubKey, err = security.GenerateKeyPair(2048); err != nil {
			return nil, err
		}
	}
	return security.NewJWTProvider(privKey, pubKey)
}

func loadKeys(privPath, pubPath string) ([]byte, []byte, error) {
	priv, err := os.ReadFile(privPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading private key: %w", err)
	}
	pub, err := os.ReadFile(pubPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading public key: %w", err)
	}
	return priv, pub, nil
}
