package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/twmb/franz-go/pkg/kgo"
	"golang.org/x/sync/errgroup"

	"factorline/internal/audit"
	"factorline/internal/insurance"
	jwttoken "factorline/internal/jwt_token"
	"factorline/internal/ledger/handler"
	ledgermetrics "factorline/internal/ledger/metrics"
	"factorline/internal/ledger/service"
	"factorline/internal/ledger/store"
	"factorline/internal/platform/config"
	"factorline/internal/platform/httpserver"
	"factorline/internal/platform/logger"
	platformmetrics "factorline/internal/platform/metrics"
	platformredis "factorline/internal/platform/redis"
	"factorline/internal/registry"
	"factorline/internal/risk"
	"factorline/internal/treasury"
	id "factorline/pkg/domain"
)

// main wires dependencies and runs the HTTP server plus the audit outbox
// worker. Business logic lives in the internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	authority, asset, err := bootstrapIdentities(cfg, log)
	if err != nil {
		return err
	}

	var (
		invoices   store.InvoiceStore
		regStore   service.RegistryStore
		pool       service.InsurancePool
		auditStore audit.Store
		pgPool     *pgxpool.Pool
	)

	if cfg.Postgres.URL != "" {
		pgPool, err = pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer pgPool.Close()

		invoicePG := store.NewPostgres(pgPool)
		registryPG := registry.NewPostgres(pgPool)
		insurancePG := insurance.NewPostgres(pgPool)
		for _, migrate := range []func(context.Context) error{
			invoicePG.Migrate, registryPG.Migrate, insurancePG.Migrate,
		} {
			if err := migrate(ctx); err != nil {
				return err
			}
		}
		invoices, regStore, pool = invoicePG, registryPG, insurancePG

		auditDB, err := sql.Open("postgres", cfg.Postgres.URL)
		if err != nil {
			return err
		}
		defer auditDB.Close()
		auditPG := audit.NewPostgresStore(auditDB)
		if err := auditPG.Migrate(ctx); err != nil {
			return err
		}
		auditStore = auditPG
	} else {
		log.Warn("POSTGRES_URL not set, using in-memory stores")
		invoices = store.NewInMemory()
		regStore = registry.NewInMemoryStore()
		pool = insurance.NewInMemoryPool()
		auditStore = audit.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
		invoices = store.NewCached(invoices, redisClient.Client, cfg.InvoiceCacheTTL, log)
	}

	svc := service.New(
		invoices,
		regStore,
		pool,
		treasury.NewInMemory(asset),
		risk.NewEngine(),
		audit.NewPublisher(auditStore),
		ledgermetrics.New(),
	)

	if _, err := svc.Initialize(ctx, authority, asset); err != nil {
		return err
	}

	jwtService := jwttoken.NewJWTService(cfg.Server.JWTSigningKey, cfg.Server.JWTIssuer, cfg.Server.JWTAudience)
	h := handler.New(svc, log, platformmetrics.New(), jwttoken.NewJWTServiceAdapter(jwtService))

	router := chi.NewRouter()
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", healthz(pgPool, redisClient))
	h.Register(router)

	srv := httpserver.New(cfg.Server.Addr, router)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("starting factorline", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if len(cfg.Kafka.Brokers) > 0 {
		kafkaClient, err := kgo.NewClient(kgo.SeedBrokers(cfg.Kafka.Brokers...))
		if err != nil {
			return err
		}
		defer kafkaClient.Close()

		worker := audit.NewOutboxWorker(auditStore, kafkaClient, cfg.Kafka.Topic, log)
		if err := worker.EnsureTopic(ctx, 3); err != nil {
			return err
		}
		g.Go(func() error {
			return worker.Run(ctx)
		})
	} else {
		log.Warn("KAFKA_BROKERS not set, audit events stay in the outbox")
	}

	return g.Wait()
}

// bootstrapIdentities resolves the registry authority and settlement asset.
// Development falls back to generated identities so the server starts without
// configuration; production must pin both.
func bootstrapIdentities(cfg config.Config, log *slog.Logger) (id.PartyID, id.AssetID, error) {
	var (
		authority id.PartyID
		asset     id.AssetID
		err       error
	)

	if cfg.Marketplace.Authority != "" {
		authority, err = id.ParsePartyID(cfg.Marketplace.Authority)
		if err != nil {
			return id.PartyID{}, id.AssetID{}, err
		}
	} else {
		authority = id.PartyID(uuid.New())
		log.Warn("MARKETPLACE_AUTHORITY not set, generated one", "authority", authority)
	}

	if cfg.Marketplace.SettlementAsset != "" {
		asset, err = id.ParseAssetID(cfg.Marketplace.SettlementAsset)
		if err != nil {
			return id.PartyID{}, id.AssetID{}, err
		}
	} else {
		asset = id.AssetID(uuid.New())
		log.Warn("SETTLEMENT_ASSET not set, generated one", "asset", asset)
	}

	return authority, asset, nil
}

// healthz reports readiness of the configured backing stores.
func healthz(pg *pgxpool.Pool, redisClient *platformredis.Client) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if pg != nil {
			if err := pg.Ping(ctx); err != nil {
				http.Error(w, "postgres unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		if redisClient != nil {
			if err := redisClient.Health(ctx); err != nil {
				http.Error(w, "redis unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}
